package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/John-Robertt/vidcmp/internal/app/view"
	"github.com/John-Robertt/vidcmp/internal/catalog"
	"github.com/John-Robertt/vidcmp/internal/domain"
)

func newShowCommand(ctx *cliContext) *cobra.Command {
	var (
		category string
		asJSON   bool
	)
	cmd := &cobra.Command{
		Use:   "show [root]",
		Short: "显示某个 category 对齐后的行（默认最新的 category）",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			page, err := renderPage(cmd, ctx, category)
			if err != nil {
				return err
			}

			if wantJSON(asJSON, ctx.stdout) {
				enc := json.NewEncoder(ctx.stdout)
				enc.SetIndent("", "  ")
				if err := enc.Encode(page); err != nil {
					return err
				}
			} else {
				fmt.Fprintf(ctx.stdout, "%s  (%s)\n", page.Label, page.Selected)
				fmt.Fprintln(ctx.stdout, renderTable(rowsTable(page)))
			}
			for _, p := range page.Problems {
				fmt.Fprintf(ctx.stderr, "%s: %s\n", p.Code, p.Message)
			}
			if view.IsNoCategories(page) {
				return view.ErrNoCategories
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&category, "category", "", "category 目录名（不存在时回退到最新的 category）")
	cmd.Flags().BoolVar(&asJSON, "json", false, "输出 JSON（stdout 不是终端时默认开启）")
	return cmd
}

// renderPage 执行一次渲染；category 为空或不存在时回退到最新的 category。
func renderPage(cmd *cobra.Command, ctx *cliContext, category string) (domain.Page, error) {
	r, err := ctx.renderer()
	if err != nil {
		return domain.Page{}, err
	}
	sel := catalog.NewMemorySelection(strings.TrimSpace(category))
	page := r.ExecuteWithObserver(cmd.Context(), sel, ctx.observer())
	if category != "" && page.Selected != "" && page.Selected != category {
		fmt.Fprintf(ctx.stderr, "category %q 不可选，已回退到 %q\n", category, page.Selected)
	}
	return page, nil
}

func rowsTable(page domain.Page) ([]string, [][]string, []columnAlignment) {
	headers := append([]string{"#", "Prompt"}, page.Variants...)
	aligns := []columnAlignment{alignRight, alignLeft}

	rows := make([][]string, 0, len(page.Rows))
	for _, row := range page.Rows {
		prompt := "No prompt available"
		if row.Prompt != nil {
			prompt = truncate(oneLine(*row.Prompt), 60)
		}
		r := []string{fmt.Sprintf("Video %d", row.Index+1), prompt}
		for _, c := range row.Cells {
			if c.Video == nil {
				r = append(r, "No video available")
				continue
			}
			r = append(r, c.Video.Name)
		}
		rows = append(rows, r)
	}
	return headers, rows, aligns
}

func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func truncate(s string, n int) string {
	r := []rune(s)
	if n <= 0 || len(r) <= n {
		return s
	}
	if n <= 3 {
		return string(r[:n])
	}
	return string(r[:n-3]) + "..."
}
