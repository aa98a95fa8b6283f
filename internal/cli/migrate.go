package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/raphaelgruber/watson-stark/internal/db"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create collections and indexes",
	Long: `Ensure every collection and index exists, then print record counts.
Safe to run repeatedly.`,
	RunE: runMigrate,
}

// The schema itself is applied by the root command before any subcommand
// runs; migrate only reports on it.
func runMigrate(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	for _, name := range db.Collections {
		col, err := dbClient.EnsureCollection(ctx, name)
		if err != nil {
			return err
		}
		n, err := col.Count(ctx)
		if err != nil {
			return fmt.Errorf("count %s: %w", name, err)
		}
		fmt.Printf("%-12s %d records\n", col.Name, n)
	}
	return nil
}
