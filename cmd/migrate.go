package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ragstack/ragstack/db"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending database migrations",
	RunE:  runMigrate,
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}

func runMigrate(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()

	if err := db.Migrate(a.cfg.PostgresURL()); err != nil {
		return err
	}

	fmt.Println("migrations applied")
	return nil
}
