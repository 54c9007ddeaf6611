package main

import (
	"fmt"
	"log/slog"

	"github.com/ldelgado/gastobot/internal/cli"
	"github.com/ldelgado/gastobot/internal/learning"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func decayCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "decay",
		Short: "Decay stale learning weights",
		Long: `Reduce the weight of learning entries that have not been used
recently, so associations the user has stopped confirming gradually
lose influence. Weights never drop below the configured floor.

Intended to run periodically, for example from a daily cron job.`,
		RunE: runDecay,
	}

	cmd.Flags().Int("older-than", 0, "only decay entries unused for this many days (0 uses the configured default)")
	cmd.Flags().String("user", "", "decay a single user instead of all users")

	_ = viper.BindPFlag("decay.older_than", cmd.Flags().Lookup("older-than"))
	_ = viper.BindPFlag("decay.user", cmd.Flags().Lookup("user"))

	return cmd
}

func runDecay(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	olderThanDays := viper.GetInt("decay.older_than")
	if olderThanDays <= 0 {
		olderThanDays = viper.GetInt("learning.decay_age_days")
	}

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

	if userID := viper.GetString("decay.user"); userID != "" {
		decayed, err := store.DecayUser(ctx, userID, olderThanDays)
		if err != nil {
			return fmt.Errorf("decaying entries for user %s: %w", userID, err)
		}
		fmt.Println(cli.FormatSuccess(fmt.Sprintf("Decayed %d entries for user %s", decayed, userID)))
		return nil
	}

	users, err := store.Users(ctx)
	if err != nil {
		return fmt.Errorf("listing users: %w", err)
	}
	if len(users) == 0 {
		fmt.Println(cli.SubtleStyle.Render("No learning entries to decay."))
		return nil
	}

	bar := progressbar.Default(int64(len(users)), "Decaying learning entries")
	var total int64
	for _, userID := range users {
		decayed, err := store.DecayUser(ctx, userID, olderThanDays)
		if err != nil {
			return fmt.Errorf("decaying entries for user %s: %w", userID, err)
		}
		total += decayed
		_ = bar.Add(1)
	}
	_ = bar.Finish()

	fmt.Println(cli.FormatSuccess(fmt.Sprintf("Decayed %d entries across %d users", total, len(users))))
	return nil
}
