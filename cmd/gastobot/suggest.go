package main

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/ldelgado/gastobot/internal/cli"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func suggestCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "suggest [description]",
		Short: "Show category suggestions for an expense description",
		Long: `Run inference for a description and print the suggestion list a
bot would present to the user: the inferred category first, plus
alternatives drawn from the user's recent activity when confidence
is low.

Example:
  gastobot suggest --user 12345 "cena con amigos" --amount 450`,
		Args: cobra.MinimumNArgs(1),
		RunE: runSuggest,
	}

	cmd.Flags().StringP("user", "u", "", "user identifier (required)")
	cmd.Flags().Float64P("amount", "a", 0, "expense amount in MXN")
	_ = cmd.MarkFlagRequired("user")

	_ = viper.BindPFlag("suggest.user", cmd.Flags().Lookup("user"))
	_ = viper.BindPFlag("suggest.amount", cmd.Flags().Lookup("amount"))

	return cmd
}

func runSuggest(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	description := strings.Join(args, " ")
	userID := viper.GetString("suggest.user")

	var amount *float64
	if cmd.Flags().Changed("amount") {
		v := viper.GetFloat64("suggest.amount")
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

	eng, cleanup, err := buildEngine(db)
	if err != nil {
		return err
	}
	defer cleanup()

	result, err := eng.InferCategory(ctx, userID, description, amount)
	if err != nil {
		return fmt.Errorf("inference failed: %w", err)
	}

	suggestions, err := eng.BuildSuggestions(ctx, userID, description, result.CategoryID, result.Confidence)
	if err != nil {
		return fmt.Errorf("building suggestions: %w", err)
	}

	if len(suggestions) == 0 {
		fmt.Println(cli.SubtleStyle.Render("No suggestions available. Is the catalog empty?"))
		return nil
	}

	fmt.Println(cli.FormatTitle(fmt.Sprintf("Suggestions for %q", description)))
	for i, s := range suggestions {
		marker := "  "
		if s.IsPrimary {
			marker = cli.SuccessStyle.Render("▸ ")
		}
		line := fmt.Sprintf("%s%d. %s (%s)", marker, i+1, s.Category.Name, s.Category.Slug)
		if s.IsPrimary {
			line += cli.SubtleStyle.Render(fmt.Sprintf("  %.2f via %s", s.Confidence, result.Method))
		}
		fmt.Println(line)
	}

	return nil
}
