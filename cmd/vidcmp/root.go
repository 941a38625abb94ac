package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/John-Robertt/vidcmp/internal/app/view"
	"github.com/John-Robertt/vidcmp/internal/config"
)

// cliContext 在 PersistentPreRunE 中填充，子命令共享。
type cliContext struct {
	stdout io.Writer
	stderr io.Writer

	configFlag string
	logLevel   string
	verbose    bool

	// 子命令可以在 PreRun 之前设置的覆盖项（例如 serve --listen）。
	overrides config.CLIArgs

	eff    config.EffectiveConfig
	logger *zap.Logger
}

func newRootCommand(stdout, stderr io.Writer) *cobra.Command {
	ctx := &cliContext{stdout: stdout, stderr: stderr}

	rootCmd := &cobra.Command{
		Use:           "vidcmp",
		Short:         "并排对比多个 variant 生成的视频",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if skipConfig(cmd) {
				return nil
			}
			return ctx.load(cmd, args)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if ctx.logger != nil {
				_ = ctx.logger.Sync()
			}
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)

	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&ctx.configFlag, "config", "c", "", "配置文件路径（默认 <root>/vidcmp.toml 或 ./vidcmp.toml）")
	pf.StringVar(&ctx.logLevel, "log-level", "", "日志级别：debug|info|warn|error")
	pf.BoolVarP(&ctx.verbose, "verbose", "v", false, "输出 debug 日志与阶段耗时")

	rootCmd.AddCommand(
		newServeCommand(ctx),
		newListCommand(ctx),
		newShowCommand(ctx),
		newExportCommand(ctx),
		newConfigCommand(ctx),
	)
	return rootCmd
}

// skipConfig：config init 不需要（也不应该）读取配置。
func skipConfig(cmd *cobra.Command) bool {
	return cmd.Name() == "init" && cmd.Parent() != nil && cmd.Parent().Name() == "config"
}

func (c *cliContext) load(cmd *cobra.Command, args []string) error {
	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("读取当前目录失败：%w", err)
	}

	cli := c.overrides
	cli.ConfigPath = c.configFlag
	// 只有显式给出的 flag 才覆盖配置文件（例如 --disambiguate=false）。
	flags := cmd.Flags()
	cli.ListenSet = flags.Changed("listen")
	cli.DisambiguateSet = flags.Changed("disambiguate")
	cli.CacheEnabledSet = flags.Changed("cache")
	if len(args) > 0 {
		cli.Root = args[0]
	}
	if c.verbose {
		cli.LogLevel, cli.LogLevelSet = "debug", true
	} else if strings.TrimSpace(c.logLevel) != "" {
		cli.LogLevel, cli.LogLevelSet = c.logLevel, true
	}

	eff, err := config.LoadEffective(cwd, cli)
	if err != nil {
		return err
	}
	logger, err := newLogger(eff.LogLevel, eff.LogFormat, c.stderr)
	if err != nil {
		return err
	}
	c.eff = eff
	c.logger = logger
	logger.Debug("配置已加载",
		zap.String("root", eff.Root),
		zap.String("config", eff.ConfigPath),
		zap.Bool("config_found", eff.ConfigFound),
	)
	return nil
}

func (c *cliContext) renderer() (*view.Renderer, error) {
	return view.New(c.eff, view.Deps{Logger: c.logger})
}

// observer 只在 verbose 时输出阶段耗时（写 stderr，不污染 stdout）。
func (c *cliContext) observer() view.Observer {
	if !c.verbose {
		return nil
	}
	return newPhaseUI(c.stderr)
}

// newLogger 按 log_format 选择 zap 的 production(json) 或 development(console) 配置。
func newLogger(level, format string, w io.Writer) (*zap.Logger, error) {
	var lvl zapcore.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return nil, fmt.Errorf("无效的日志级别 %q：%w", level, err)
	}

	var cfg zap.Config
	if format == "json" {
		cfg = zap.NewProductionConfig()
	} else {
		cfg = zap.NewDevelopmentConfig()
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	}
	cfg.Level = zap.NewAtomicLevelAt(lvl)

	var enc zapcore.Encoder
	if format == "json" {
		enc = zapcore.NewJSONEncoder(cfg.EncoderConfig)
	} else {
		enc = zapcore.NewConsoleEncoder(cfg.EncoderConfig)
	}
	core := zapcore.NewCore(enc, zapcore.AddSync(w), cfg.Level)
	return zap.New(core), nil
}
