package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/John-Robertt/vidcmp/internal/infra/watch"
	"github.com/John-Robertt/vidcmp/internal/web"
)

func newServeCommand(ctx *cliContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve [root]",
		Short: "启动 Web 对比页面",
		Args:  cobra.MaximumNArgs(1),
		PreRun: func(cmd *cobra.Command, args []string) {
			// 配置已在 PersistentPreRunE 中合并；这里只处理 gin 的运行模式。
			if ctx.eff.LogLevel == "debug" {
				gin.SetMode(gin.DebugMode)
			} else {
				gin.SetMode(gin.ReleaseMode)
			}
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			runCtx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return runServe(runCtx, ctx)
		},
	}

	f := cmd.Flags()
	f.StringVar(&ctx.overrides.Listen, "listen", "", "监听地址（默认 127.0.0.1:8501）")
	f.BoolVar(&ctx.overrides.Disambiguate, "disambiguate", false, "label 冲突时追加目录名")
	f.BoolVar(&ctx.overrides.CacheEnabled, "cache", false, "缓存 category 列表与时间戳")
	return cmd
}

func runServe(runCtx context.Context, ctx *cliContext) error {
	r, err := ctx.renderer()
	if err != nil {
		return err
	}

	if ctx.eff.CacheWatch && r.Cache() != nil {
		w, err := watch.New(ctx.eff.Root, 0, r.Cache().Invalidate, ctx.logger)
		if err != nil {
			return err
		}
		if err := w.Start(runCtx); err != nil {
			ctx.logger.Warn("无法监听根目录，缓存只能手动刷新", zap.Error(err))
		}
		defer w.Stop()
	}

	return web.NewServer(r, ctx.logger).Run(runCtx, ctx.eff.Listen)
}
