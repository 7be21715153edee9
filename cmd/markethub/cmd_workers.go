package main

import (
	"fmt"
	"os"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	appschedule "github.com/shashiranjanraj/markethub/app/schedule"
	"github.com/shashiranjanraj/markethub/pkg/database"
	"github.com/shashiranjanraj/markethub/pkg/queue"
	"github.com/shashiranjanraj/markethub/pkg/schedule"
)

var queueWorkers int

var queueWorkCmd = &cobra.Command{
	Use:   "queue:work",
	Short: "Process queued jobs until interrupted",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, done, err := boot(cmd)
		if err != nil {
			return err
		}
		defer done()
		queue.Run(ctx, queueWorkers)
		return nil
	},
}

var queueFailedCmd = &cobra.Command{
	Use:   "queue:failed",
	Short: "List jobs that exhausted their retries",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, done, err := boot(cmd)
		if err != nil {
			return err
		}
		defer done()
		rows, err := queue.Default.StoredFailures(ctx)
		if err != nil {
			return err
		}
		w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', 0)
		fmt.Fprintln(w, "ID\tJOB\tFAILED AT\tERROR")
		for _, f := range rows {
			fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", f.ID, f.JobType, f.FailedAt.Format(time.RFC3339), f.Error)
		}
		return w.Flush()
	},
}

var queueRetryCmd = &cobra.Command{
	Use:   "queue:retry <id>",
	Short: "Push a failed job back onto the queue",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.ParseUint(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid job id %q", args[0])
		}
		ctx, done, err := boot(cmd)
		if err != nil {
			return err
		}
		defer done()
		if err := queue.Default.Retry(ctx, uint(id)); err != nil {
			return err
		}
		fmt.Println("queued failed job", id)
		return nil
	},
}

var scheduleRunCmd = &cobra.Command{
	Use:   "schedule:run",
	Short: "Run the task scheduler until interrupted",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, done, err := boot(cmd)
		if err != nil {
			return err
		}
		defer done()
		s := schedule.New()
		if err := appschedule.Register(s, database.DB); err != nil {
			return err
		}
		for _, name := range s.List() {
			fmt.Println("scheduled:", name)
		}
		s.Start(ctx)
		return nil
	},
}

func init() {
	queueWorkCmd.Flags().IntVarP(&queueWorkers, "workers", "w", 4, "concurrent workers")
}
