package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/knowledge-vault/constants"
	"github.com/joseph-ayodele/knowledge-vault/internal/repository"
)

func newExportCmd(g *globals) *cobra.Command {
	var (
		out         string
		category    string
		contentType string
	)
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export stored items to an XLSX workbook",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := g.open(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			filter := repository.ListFilter{ContentType: constants.ContentType(contentType)}
			if filter.CategoryID, err = resolveCategory(ctx, a, category); err != nil {
				return err
			}
			if out == "" {
				out = filepath.Join(a.Config.Storage.DataDir, "items.xlsx")
			}
			data, err := a.Export.ExportItemsXLSX(ctx, filter)
			if err != nil {
				return err
			}
			if err := os.WriteFile(out, data, 0644); err != nil {
				return fmt.Errorf("write %s: %w", out, err)
			}
			if g.jsonOutput {
				printJSON(map[string]any{"output": out, "bytes": len(data)})
				return nil
			}
			fmt.Println(okStyle.Render("Export complete: " + out))
			return nil
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "", "output XLSX path (default <data_dir>/items.xlsx)")
	cmd.Flags().StringVarP(&category, "category", "c", "", "only items in this category")
	cmd.Flags().StringVar(&contentType, "type", "", "only items of this content type")
	return cmd
}

func newInfoCmd(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "info",
		Short: "Show vault statistics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := g.open(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			items, err := a.Repos.Items.List(ctx, repository.ListFilter{})
			if err != nil {
				return err
			}
			cats, err := a.Repos.Categories.List(ctx)
			if err != nil {
				return err
			}
			names := make(map[string]string, len(cats))
			for _, c := range cats {
				names[c.ID.String()] = c.Name
			}
			byCategory := map[string]int{}
			byType := map[string]int{}
			var size int64
			for _, it := range items {
				name := "Uncategorized"
				if it.CategoryID != nil {
					if n, ok := names[it.CategoryID.String()]; ok {
						name = n
					}
				}
				byCategory[name]++
				byType[string(it.ContentType)]++
				size += it.FileSize
			}

			if g.jsonOutput {
				printJSON(map[string]any{
					"data_dir":    a.Config.Storage.DataDir,
					"items":       len(items),
					"total_bytes": size,
					"by_category": byCategory,
					"by_type":     byType,
					"ai_enabled":  a.Engine.AIEnabled(),
				})
				return nil
			}
			printTitle("Vault")
			printField("Data dir", a.Config.Storage.DataDir)
			printField("Items", len(items))
			printField("Total size", fmt.Sprintf("%d bytes", size))
			printField("AI", a.Engine.AIEnabled())
			for _, c := range cats {
				fmt.Println(dimStyle.Render(fmt.Sprintf("    %-26s %d", c.Name, byCategory[c.Name])))
			}
			if n := byCategory["Uncategorized"]; n > 0 {
				fmt.Println(dimStyle.Render(fmt.Sprintf("    %-26s %d", "Uncategorized", n)))
			}
			return nil
		},
	}
}
