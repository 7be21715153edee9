package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/shashiranjanraj/markethub/database/seeders"
	"github.com/shashiranjanraj/markethub/pkg/database"
	"github.com/shashiranjanraj/markethub/pkg/migration"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Run all pending database migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		_, done, err := boot(cmd)
		if err != nil {
			return err
		}
		defer done()
		applied, err := migration.New(database.DB).Run()
		for _, name := range applied {
			fmt.Println("migrated:", name)
		}
		if err == nil && len(applied) == 0 {
			fmt.Println("nothing to migrate")
		}
		return err
	},
}

var migrateRollbackCmd = &cobra.Command{
	Use:   "migrate:rollback",
	Short: "Roll back the last batch of migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		_, done, err := boot(cmd)
		if err != nil {
			return err
		}
		defer done()
		reverted, err := migration.New(database.DB).Rollback()
		for _, name := range reverted {
			fmt.Println("rolled back:", name)
		}
		return err
	},
}

var migrateStatusCmd = &cobra.Command{
	Use:   "migrate:status",
	Short: "Show which migrations have run",
	RunE: func(cmd *cobra.Command, args []string) error {
		_, done, err := boot(cmd)
		if err != nil {
			return err
		}
		defer done()
		rows, err := migration.New(database.DB).Status()
		if err != nil {
			return err
		}
		w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', 0)
		fmt.Fprintln(w, "MIGRATION\tRAN\tBATCH")
		for _, s := range rows {
			batch := "-"
			if s.Ran {
				batch = fmt.Sprint(s.Batch)
			}
			fmt.Fprintf(w, "%s\t%t\t%s\n", s.Name, s.Ran, batch)
		}
		return w.Flush()
	},
}

var seedCmd = &cobra.Command{
	Use:     "db:seed",
	Aliases: []string{"seed"},
	Short:   "Insert demo accounts, stores and products",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, done, err := boot(cmd)
		if err != nil {
			return err
		}
		defer done()
		if err := seeders.RunAll(ctx, database.DB); err != nil {
			return err
		}
		fmt.Printf("seeded; every demo account uses the password %q\n", seeders.DemoPassword)
		return nil
	},
}
