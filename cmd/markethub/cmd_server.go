package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/shashiranjanraj/markethub/internal/server"
)

var (
	serveWorkers   int
	serveScheduler bool
)

var serveCmd = &cobra.Command{
	Use:     "serve",
	Aliases: []string{"run"},
	Short:   "Start the HTTP and gRPC servers",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, done, err := boot(cmd)
		if err != nil {
			return err
		}
		defer done()
		return server.Run(ctx, server.Options{Workers: serveWorkers, Scheduler: serveScheduler})
	},
}

var routeListCmd = &cobra.Command{
	Use:   "route:list",
	Short: "List every registered route",
	RunE: func(cmd *cobra.Command, args []string) error {
		r, err := server.Router(nil, nil)
		if err != nil {
			return err
		}
		w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', 0)
		fmt.Fprintln(w, "METHOD\tPATH\tNAME")
		for _, rt := range r.Routes() {
			fmt.Fprintf(w, "%s\t%s\t%s\n", rt.Method, rt.Path, rt.Name)
		}
		return w.Flush()
	},
}

func init() {
	serveCmd.Flags().IntVarP(&serveWorkers, "workers", "w", 4, "queue workers to run in-process (0 disables)")
	serveCmd.Flags().BoolVar(&serveScheduler, "scheduler", true, "run scheduled tasks in-process")
}
