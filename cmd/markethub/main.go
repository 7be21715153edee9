// Command markethub runs the marketplace server and its maintenance tasks.
//
//	markethub serve              # HTTP + gRPC, queue workers and scheduler
//	markethub migrate            # apply pending migrations
//	markethub migrate:rollback
//	markethub migrate:status
//	markethub db:seed            # demo accounts, stores and products
//	markethub route:list
//	markethub queue:work
//	markethub queue:failed
//	markethub queue:retry <id>
//	markethub schedule:run
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	_ "github.com/shashiranjanraj/markethub/database/migrations"
	"github.com/shashiranjanraj/markethub/internal/server"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:           "markethub",
	Short:         "Multi-vendor marketplace server",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.AddCommand(serveCmd, routeListCmd)
	rootCmd.AddCommand(migrateCmd, migrateRollbackCmd, migrateStatusCmd, seedCmd)
	rootCmd.AddCommand(queueWorkCmd, queueFailedCmd, queueRetryCmd, scheduleRunCmd)
}

// boot connects everything a command needs and returns a context that ends
// on SIGINT or SIGTERM.
func boot(cmd *cobra.Command) (context.Context, func(), error) {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	release, err := server.Boot(ctx)
	if err != nil {
		stop()
		return nil, nil, err
	}
	return ctx, func() { release(); stop() }, nil
}
