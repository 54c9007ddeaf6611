package main

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/ldelgado/gastobot/internal/cli"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func inferCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "infer [description]",
		Short: "Infer a category for an expense description",
		Long: `Infer a category for a free-text expense description, cascading
through the user's learned associations, catalog keyword matching, and
the AI classifier.

Examples:
  gastobot infer --user 12345 "café en el Oxxo" --amount 35
  gastobot infer --user 12345 "uber al aeropuerto"`,
		Args: cobra.MinimumNArgs(1),
		RunE: runInfer,
	}

	cmd.Flags().StringP("user", "u", "", "user identifier (required)")
	cmd.Flags().Float64P("amount", "a", 0, "expense amount in MXN")
	_ = cmd.MarkFlagRequired("user")

	_ = viper.BindPFlag("infer.user", cmd.Flags().Lookup("user"))
	_ = viper.BindPFlag("infer.amount", cmd.Flags().Lookup("amount"))

	return cmd
}

func runInfer(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	description := strings.Join(args, " ")
	userID := viper.GetString("infer.user")

	var amount *float64
	if cmd.Flags().Changed("amount") {
		v := viper.GetFloat64("infer.amount")
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

	category, err := db.GetCategoryByID(ctx, result.CategoryID)
	if err != nil {
		return err
	}

	name := "(none)"
	if category != nil {
		name = fmt.Sprintf("%s (%s)", category.Name, category.Slug)
	}

	fmt.Println(cli.FormatTitle("Inference result"))
	fmt.Printf("  Category:   %s\n", cli.BoldStyle.Render(name))
	fmt.Printf("  Confidence: %.2f\n", result.Confidence)
	fmt.Printf("  Method:     %s\n", cli.SubtleStyle.Render(string(result.Method)))
	if len(result.MatchedKeywords) > 0 {
		fmt.Printf("  Keywords:   %s\n", cli.SubtleStyle.Render(strings.Join(result.MatchedKeywords, ", ")))
	}
	if result.Reasoning != "" {
		fmt.Printf("  Reasoning:  %s\n", cli.SubtleStyle.Render(result.Reasoning))
	}

	return nil
}
