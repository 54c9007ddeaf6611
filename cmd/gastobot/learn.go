package main

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/ldelgado/gastobot/internal/cli"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func learnCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "learn [description]",
		Short: "Record a confirmed categorization and reinforce it",
		Long: `Save an expense with the category the user confirmed and reinforce
the association between the description's keywords and that category,
so future inferences for similar descriptions resolve from learning.

Example:
  gastobot learn --user 12345 --category coffee_shops "café en Starbucks" --amount 85`,
		Args: cobra.MinimumNArgs(1),
		RunE: runLearn,
	}

	cmd.Flags().StringP("user", "u", "", "user identifier (required)")
	cmd.Flags().StringP("category", "c", "", "category slug to learn (required)")
	cmd.Flags().Float64P("amount", "a", 0, "expense amount in MXN")
	_ = cmd.MarkFlagRequired("user")
	_ = cmd.MarkFlagRequired("category")

	_ = viper.BindPFlag("learn.user", cmd.Flags().Lookup("user"))
	_ = viper.BindPFlag("learn.category", cmd.Flags().Lookup("category"))
	_ = viper.BindPFlag("learn.amount", cmd.Flags().Lookup("amount"))

	return cmd
}

func runLearn(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	description := strings.Join(args, " ")
	userID := viper.GetString("learn.user")
	slug := viper.GetString("learn.category")

	var amount *float64
	if cmd.Flags().Changed("amount") {
		v := viper.GetFloat64("learn.amount")
		amount = &v
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

	category, err := db.GetCategoryBySlug(ctx, slug)
	if err != nil {
		return err
	}
	if category == nil {
		return fmt.Errorf("unknown category slug %q, run 'gastobot categories' to list them", slug)
	}

	eng, cleanup, err := buildEngine(db)
	if err != nil {
		return err
	}
	defer cleanup()

	if err := eng.LearnFromChoice(ctx, userID, description, amount, category.ID); err != nil {
		return fmt.Errorf("recording choice: %w", err)
	}

	fmt.Println(cli.FormatSuccess(fmt.Sprintf("Learned %q → %s", description, category.Name)))
	return nil
}
