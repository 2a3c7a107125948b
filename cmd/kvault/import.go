package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/knowledge-vault/constants"
	"github.com/joseph-ayodele/knowledge-vault/internal/app"
	"github.com/joseph-ayodele/knowledge-vault/internal/entity"
	"github.com/joseph-ayodele/knowledge-vault/internal/ingest"
)

func newImportCmd(g *globals) *cobra.Command {
	var (
		category   string
		noClassify bool
	)
	cmd := &cobra.Command{
		Use:   "import <path|url>...",
		Short: "Import files, directories or web pages",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := g.open(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			categoryID, err := resolveCategory(ctx, a, category)
			if err != nil {
				return err
			}
			auto := !noClassify && a.Config.Classification.AutoClassify

			var urls, paths []string
			for _, arg := range args {
				if isURL(arg) {
					urls = append(urls, arg)
				} else {
					paths = append(paths, arg)
				}
			}

			total := &ingest.BatchResult{Success: true}
			if len(urls) > 0 {
				if !g.jsonOutput {
					for _, u := range urls {
						fmt.Printf("Importing URL: %s\n", u)
					}
				}
				merge(total, a.Import.ImportURLs(ctx, urls, ingest.URLRequest{CategoryID: categoryID, AutoClassify: auto}))
			}
			for _, p := range paths {
				if !g.jsonOutput {
					fmt.Printf("Importing: %s\n", p)
				}
				res, err := a.Import.ImportPath(ctx, ingest.PathRequest{Path: p, CategoryID: categoryID, AutoClassify: auto})
				if err != nil {
					total.Success = false
					total.Errors = append(total.Errors, fmt.Sprintf("Error importing %s: %v", p, err))
					continue
				}
				merge(total, res)
			}

			if g.jsonOutput {
				printJSON(total)
			} else {
				printBatch(ctx, a, total)
			}
			if !total.Success && total.ItemsImported == 0 && total.ItemsSkipped == 0 {
				return fmt.Errorf("nothing imported")
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&category, "category", "c", "", "assign this category instead of classifying")
	cmd.Flags().BoolVar(&noClassify, "no-classify", false, "leave items uncategorized")
	return cmd
}

// resolveCategory maps a category name, or a short alias of a default
// category, to its ID. An unknown name is reported and ignored.
func resolveCategory(ctx context.Context, a *app.App, name string) (*uuid.UUID, error) {
	if name == "" {
		return nil, nil
	}
	id, ok, err := a.Repos.Categories.CategoryIDByName(ctx, name)
	if err != nil {
		return nil, err
	}
	if canonical, known := constants.Canonicalize(name); !ok && known {
		if id, ok, err = a.Repos.Categories.CategoryIDByName(ctx, canonical); err != nil {
			return nil, err
		}
	}
	if !ok {
		printWarn("Category '%s' not found, skipping category assignment", name)
		return nil, nil
	}
	return &id, nil
}

func isURL(s string) bool {
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}

func merge(dst, src *ingest.BatchResult) {
	if src == nil {
		return
	}
	dst.Success = dst.Success && src.Success
	dst.ItemsImported += src.ItemsImported
	dst.ItemsSkipped += src.ItemsSkipped
	dst.Errors = append(dst.Errors, src.Errors...)
	dst.Items = append(dst.Items, src.Items...)
}

func printBatch(ctx context.Context, a *app.App, res *ingest.BatchResult) {
	if len(res.Items) == 1 {
		item := res.Items[0]
		fmt.Println(okStyle.Render("Successfully imported: " + item.Title))
		printField("ID", item.ID)
		printField("Category", categoryName(ctx, a, item))
	}
	fmt.Println()
	printTitle("Import completed!")
	printField("Imported", fmt.Sprintf("%d items", res.ItemsImported))
	printField("Skipped", fmt.Sprintf("%d items", res.ItemsSkipped))
	printErrors(res.Errors)
}

func categoryName(ctx context.Context, a *app.App, item *entity.Item) string {
	if item.CategoryID == nil {
		return "Uncategorized"
	}
	c, err := a.Repos.Categories.Get(ctx, *item.CategoryID)
	if err != nil {
		return "Uncategorized"
	}
	return c.Name
}
