package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/John-Robertt/vidcmp/internal/app/view"
	"github.com/John-Robertt/vidcmp/internal/infra/fsx"
)

func newExportCommand(ctx *cliContext) *cobra.Command {
	var (
		category string
		out      string
		force    bool
	)
	cmd := &cobra.Command{
		Use:   "export [root]",
		Short: "把某个 category 的对齐结果写成 JSON 文件",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if out == "" {
				return errors.New("--out 不能为空")
			}
			page, err := renderPage(cmd, ctx, category)
			if err != nil {
				return err
			}
			if view.IsNoCategories(page) {
				return view.ErrNoCategories
			}

			b, err := json.MarshalIndent(page, "", "  ")
			if err != nil {
				return err
			}
			b = append(b, '\n')

			mode := fsx.NoOverwrite
			if force {
				mode = fsx.Replace
			}
			abs, err := filepath.Abs(out)
			if err != nil {
				return err
			}
			if err := fsx.WriteFile(abs, b, mode); err != nil {
				return err
			}
			fmt.Fprintf(ctx.stderr, "已导出 %s (%d 行) -> %s\n", page.Selected, len(page.Rows), abs)
			return nil
		},
	}
	cmd.Flags().StringVar(&category, "category", "", "category 目录名（不存在时回退到最新的 category）")
	cmd.Flags().StringVarP(&out, "out", "o", "", "输出文件路径")
	cmd.Flags().BoolVar(&force, "force", false, "覆盖已存在的输出文件")
	return cmd
}
