package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/John-Robertt/vidcmp/internal/app/view"
	"github.com/John-Robertt/vidcmp/internal/web"
)

func newListCommand(ctx *cliContext) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "list [root]",
		Short: "按时间倒序列出 category",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := ctx.renderer()
			if err != nil {
				return err
			}
			ix, err := r.Catalog(cmd.Context())
			if err != nil || ix.Len() == 0 {
				if err != nil {
					return fmt.Errorf("%w：%v", view.ErrNoCategories, err)
				}
				return fmt.Errorf("%w：%s", view.ErrNoCategories, ctx.eff.Root)
			}
			infos := web.CategoryInfos(ix)

			if wantJSON(asJSON, ctx.stdout) {
				enc := json.NewEncoder(ctx.stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(infos)
			}

			rows := make([][]string, 0, len(infos))
			for i, c := range infos {
				note := ""
				if c.Hidden {
					note = "被同名 label 覆盖"
				}
				rows = append(rows, []string{fmt.Sprint(i + 1), c.Label, c.Name, note})
			}
			fmt.Fprintln(ctx.stdout, renderTable(
				[]string{"#", "Label", "Directory", "Note"},
				rows,
				[]columnAlignment{alignRight, alignLeft, alignLeft, alignLeft},
			))
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "输出 JSON（stdout 不是终端时默认开启）")
	cmd.Flags().BoolVar(&ctx.overrides.Disambiguate, "disambiguate", false, "label 冲突时追加目录名")
	return cmd
}
