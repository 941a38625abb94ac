package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/John-Robertt/vidcmp/internal/config"
)

func newConfigCommand(ctx *cliContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "配置文件工具",
	}
	cmd.AddCommand(newConfigInitCommand(ctx), newConfigValidateCommand(ctx))
	return cmd
}

func newConfigInitCommand(ctx *cliContext) *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "init [path]",
		Short: "写入带注释的示例配置（默认 ./vidcmp.toml）",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := config.FileName
			if len(args) > 0 {
				path = args[0]
			} else if ctx.configFlag != "" {
				path = ctx.configFlag
			}
			abs, err := filepath.Abs(path)
			if err != nil {
				return err
			}
			if fi, err := os.Stat(abs); err == nil && fi.IsDir() {
				abs = filepath.Join(abs, config.FileName)
			}
			if err := config.CreateSample(abs, force); err != nil {
				return err
			}
			fmt.Fprintf(ctx.stdout, "已写入示例配置：%s\n", abs)
			return nil
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "覆盖已存在的配置文件")
	return cmd
}

func newConfigValidateCommand(ctx *cliContext) *cobra.Command {
	return &cobra.Command{
		Use:   "validate [root]",
		Short: "加载并校验配置，输出生效值",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			// 能走到这里说明 PersistentPreRunE 已成功加载配置。
			enc := json.NewEncoder(ctx.stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(ctx.eff)
		},
	}
}
