package main

import (
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/ldelgado/gastobot/internal/cli"
	"github.com/ldelgado/gastobot/internal/model"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func categoriesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "categories",
		Short: "Manage the category catalog",
		Long: `List and extend the category catalog the inference engine matches
against. The catalog is shared by all users; per-user preferences live
in the learning store instead.`,
		RunE: runCategoriesList,
	}

	cmd.AddCommand(categoriesAddCmd())

	return cmd
}

func categoriesAddCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add [name]",
		Short: "Add a category to the catalog",
		Long: `Add a category with a slug, display name and optional keywords.

Examples:
  gastobot categories add "Mascotas" --slug pets --keywords veterinario,croquetas
  gastobot categories add "Comida de oficina" --slug office_food --parent food_drink`,
		Args: cobra.ExactArgs(1),
		RunE: runCategoriesAdd,
	}

	cmd.Flags().String("slug", "", "stable identifier for the category (required)")
	cmd.Flags().String("parent", "", "slug of the parent category")
	cmd.Flags().StringSlice("keywords", nil, "comma-separated keywords that signal this category")
	_ = cmd.MarkFlagRequired("slug")

	_ = viper.BindPFlag("categories.add.slug", cmd.Flags().Lookup("slug"))
	_ = viper.BindPFlag("categories.add.parent", cmd.Flags().Lookup("parent"))
	_ = viper.BindPFlag("categories.add.keywords", cmd.Flags().Lookup("keywords"))

	return cmd
}

func runCategoriesList(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	db, err := openStorage(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := db.Close(); closeErr != nil {
			slog.Error("Failed to close database", "error", closeErr)
		}
	}()

	categories, err := db.GetCategories(ctx)
	if err != nil {
		return fmt.Errorf("listing categories: %w", err)
	}
	if len(categories) == 0 {
		fmt.Println(cli.SubtleStyle.Render("Catalog is empty. Run 'gastobot migrate' to seed it."))
		return nil
	}

	byParent := make(map[int][]model.Category)
	var parents []model.Category
	for _, c := range categories {
		if c.IsParent() {
			parents = append(parents, c)
		} else {
			byParent[*c.ParentID] = append(byParent[*c.ParentID], c)
		}
	}
	sort.Slice(parents, func(i, j int) bool { return parents[i].Slug < parents[j].Slug })

	fmt.Println(cli.FormatTitle("Category catalog"))
	for _, parent := range parents {
		fmt.Printf("%s %s\n", cli.BoldStyle.Render(parent.Name), cli.SubtleStyle.Render("("+parent.Slug+")"))
		children := byParent[parent.ID]
		sort.Slice(children, func(i, j int) bool { return children[i].Slug < children[j].Slug })
		for _, child := range children {
			line := fmt.Sprintf("  %s %s", child.Name, cli.SubtleStyle.Render("("+child.Slug+")"))
			if len(child.Keywords) > 0 {
				line += cli.SubtleStyle.Render("  " + strings.Join(child.Keywords, ", "))
			}
			fmt.Println(line)
		}
	}

	return nil
}

func runCategoriesAdd(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	name := args[0]
	slug := viper.GetString("categories.add.slug")
	parentSlug := viper.GetString("categories.add.parent")
	keywords := viper.GetStringSlice("categories.add.keywords")

	db, err := openStorage(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := db.Close(); closeErr != nil {
			slog.Error("Failed to close database", "error", closeErr)
		}
	}()

	existing, err := db.GetCategoryBySlug(ctx, slug)
	if err != nil {
		return err
	}
	if existing != nil {
		return fmt.Errorf("category %q already exists", slug)
	}

	var parentID *int
	if parentSlug != "" {
		parent, err := db.GetCategoryBySlug(ctx, parentSlug)
		if err != nil {
			return err
		}
		if parent == nil {
			return fmt.Errorf("unknown parent category %q", parentSlug)
		}
		parentID = &parent.ID
	}

	category := model.Category{
		Slug:     slug,
		Name:     name,
		Keywords: keywords,
		ParentID: parentID,
		IsActive: true,
	}
	if err := db.CreateCategory(ctx, &category); err != nil {
		return fmt.Errorf("creating category: %w", err)
	}

	fmt.Println(cli.FormatSuccess(fmt.Sprintf("Added category %s (%s)", name, slug)))
	return nil
}
