package main

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/knowledge-vault/internal/classify"
	"github.com/joseph-ayodele/knowledge-vault/internal/common"
)

func newClassifyCmd(g *globals) *cobra.Command {
	var path string
	cmd := &cobra.Command{
		Use:   "classify <text>...",
		Short: "Show how a piece of text would be classified",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := g.open(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			text := strings.Join(args, " ")
			res := a.Engine.Classify(ctx, text, path)
			if a.Engine.AIEnabled() && res.Confidence < a.Config.Classification.AIMinConfidence {
				if ai, ok := a.Engine.ClassifyWithAI(ctx, text); ok {
					res = ai
				}
			}
			scores := a.Engine.Score(text, path)

			if g.jsonOutput {
				printJSON(map[string]any{
					"category":   res.CategoryName,
					"confidence": res.Confidence,
					"source":     res.Source,
					"scores":     scores,
				})
				return nil
			}
			printTitle("Classification")
			name := res.CategoryName
			if name == "" {
				name = "Uncategorized"
			}
			printField("Category", name)
			printField("Confidence", fmt.Sprintf("%.2f", res.Confidence))
			printField("Source", res.Source)
			for _, s := range scores {
				fmt.Println(dimStyle.Render(fmt.Sprintf("    %-26s %.1f", s.Category, s.Score)))
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&path, "path", "", "file path hint used for extension and path rules")
	return cmd
}

func newReclassifyCmd(g *globals) *cobra.Command {
	var all, force bool
	cmd := &cobra.Command{
		Use:   "reclassify [item-id]",
		Short: "Re-run classification on stored items",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if all == (len(args) == 1) {
				return common.NewAppError(common.CodeInvalidInput, "pass either an item id or --all", common.ErrInvalidInput)
			}
			if !all {
				if err := common.NewValidator().Field("item id", args[0], common.UUID).Err(); err != nil {
					return err
				}
			}
			ctx := cmd.Context()
			a, err := g.open(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			if all {
				stats, err := a.Import.ReclassifyAll(ctx, !force)
				if err != nil {
					return err
				}
				if g.jsonOutput {
					printJSON(stats)
					return nil
				}
				printTitle("Reclassification completed!")
				printField("Total", stats.Total)
				printField("Reclassified", stats.Reclassified)
				printField("Skipped", stats.Skipped)
				printField("Failed", stats.Failed)
				return nil
			}

			res, err := a.Import.Reclassify(ctx, uuid.MustParse(args[0]))
			if err != nil {
				return err
			}
			if g.jsonOutput {
				printJSON(map[string]any{
					"item_id":    res.Item.ID,
					"category":   res.Classification.CategoryName,
					"confidence": res.Classification.Confidence,
					"source":     res.Classification.Source,
				})
				return nil
			}
			printResult(res.Item.Title, res.Classification)
			return nil
		},
	}
	cmd.Flags().BoolVar(&all, "all", false, "reclassify every uncategorized item")
	cmd.Flags().BoolVarP(&force, "force", "f", false, "with --all, also reclassify items that already have a category")
	return cmd
}

func printResult(title string, res classify.Result) {
	name := res.CategoryName
	if name == "" {
		name = "Uncategorized"
	}
	fmt.Println(okStyle.Render("Reclassified: " + title))
	printField("Category", name)
	printField("Confidence", fmt.Sprintf("%.2f", res.Confidence))
}

func newCategoriesCmd(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "categories",
		Short: "List categories",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := g.open(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			cats, err := a.Repos.Categories.List(ctx)
			if err != nil {
				return err
			}
			if g.jsonOutput {
				printJSON(cats)
				return nil
			}
			printTitle("Categories")
			for _, c := range cats {
				fmt.Printf("  %s %s\n", c.Icon, labelStyle.Render(c.Name))
				if c.Description != "" {
					fmt.Println(dimStyle.Render("     " + c.Description))
				}
			}
			return nil
		},
	}
}

func newRulesCmd(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "rules",
		Short: "Print the classification rules in effect",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := common.LoadConfig(g.configPath)
			if err != nil {
				return err
			}
			rules := append(classify.DefaultRules(), cfg.Classification.Rules...)
			if g.jsonOutput {
				printJSON(rules)
				return nil
			}
			printTitle("Classification rules")
			for _, r := range rules {
				fmt.Println(labelStyle.Render(r.Category))
				if len(r.Keywords) > 0 {
					fmt.Println(dimStyle.Render("  keywords:   " + strings.Join(r.Keywords, ", ")))
				}
				if len(r.FileTypes) > 0 {
					fmt.Println(dimStyle.Render("  file types: " + strings.Join(r.FileTypes, ", ")))
				}
				if len(r.PathPatterns) > 0 {
					fmt.Println(dimStyle.Render("  paths:      " + strings.Join(r.PathPatterns, ", ")))
				}
			}
			return nil
		},
	}
}
