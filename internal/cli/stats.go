package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var statsUser string

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show stored record counts",
	Long: `Show per-user counts of conversations, reminders and todos, or the
number of stored conversations across all users.

Examples:
  watson stats
  watson stats --user 123456789`,
	RunE: runStats,
}

func init() {
	statsCmd.Flags().StringVar(&statsUser, "user", "", "user ID (default: all users)")
}

func runStats(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	s := newStores(dbClient)

	if statsUser == "" {
		total, err := s.conversations.CountAll(ctx)
		if err != nil {
			return fmt.Errorf("count conversations: %w", err)
		}
		fmt.Printf("Conversations (all users): %d\n", total)
		return nil
	}

	conversations, err := s.conversations.Count(ctx, statsUser)
	if err != nil {
		return fmt.Errorf("count conversations: %w", err)
	}
	reminders, err := s.reminders.CountActive(ctx, statsUser)
	if err != nil {
		return fmt.Errorf("count reminders: %w", err)
	}
	active, err := s.todos.Count(ctx, statsUser, false)
	if err != nil {
		return fmt.Errorf("count todos: %w", err)
	}
	completed, err := s.todos.Count(ctx, statsUser, true)
	if err != nil {
		return fmt.Errorf("count todos: %w", err)
	}

	fmt.Printf("Stats for %s\n", statsUser)
	fmt.Printf("═══════════════════════════════════════\n\n")
	fmt.Printf("Conversations:    %d\n", conversations)
	fmt.Printf("Active reminders: %d\n", reminders)
	fmt.Printf("Active todos:     %d\n", active)
	fmt.Printf("Completed todos:  %d\n", completed)
	return nil
}
