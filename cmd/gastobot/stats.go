package main

import (
	"fmt"
	"log/slog"

	"github.com/ldelgado/gastobot/internal/cli"
	"github.com/ldelgado/gastobot/internal/learning"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func statsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show learning statistics for a user",
		Long: `Summarize what the engine has learned about a user: how many
keywords it tracks, how many categories those cover, and how strong
the associations are on average.

Example:
  gastobot stats --user 12345`,
		RunE: runStats,
	}

	cmd.Flags().StringP("user", "u", "", "user identifier (required)")
	_ = cmd.MarkFlagRequired("user")

	_ = viper.BindPFlag("stats.user", cmd.Flags().Lookup("user"))

	return cmd
}

func runStats(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	userID := viper.GetString("stats.user")

	db, err := openStorage(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := db.Close(); closeErr != nil {
			slog.Error("Failed to close database", "error", closeErr)
		}
	}()

	store := learning.NewStore(db, learningConfigFromViper())
	stats, err := store.Stats(ctx, userID)
	if err != nil {
		return fmt.Errorf("fetching stats: %w", err)
	}

	fmt.Println(cli.FormatTitle(fmt.Sprintf("Learning stats for user %s", userID)))
	fmt.Printf("  Unique keywords:     %s\n", cli.BoldStyle.Render(fmt.Sprintf("%d", stats.UniqueKeywords)))
	fmt.Printf("  Categories learned:  %s\n", cli.BoldStyle.Render(fmt.Sprintf("%d", stats.CategoriesLearned)))
	fmt.Printf("  Total confirmations: %s\n", cli.BoldStyle.Render(fmt.Sprintf("%d", stats.TotalUsage)))
	fmt.Printf("  Average weight:      %s\n", cli.BoldStyle.Render(fmt.Sprintf("%.2f", stats.AverageWeight)))

	if stats.UniqueKeywords == 0 {
		fmt.Println(cli.SubtleStyle.Render("\nNothing learned yet. Confirm some categorizations with 'gastobot learn'."))
	}

	return nil
}
