package config

import (
	_ "embed"
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

const (
	// ErrCodeNotFound 表示显式指定的配置文件不存在。
	ErrCodeNotFound = "config_not_found"
	// ErrCodeInvalid 表示配置文件无法读取/解析，或字段不合法。
	ErrCodeInvalid = "config_invalid"
)

const (
	FileName = "vidcmp.toml"

	DefaultRoot        = "video"
	DefaultListen      = "127.0.0.1:8501"
	DefaultPromptFile  = "prompt.txt"
	DefaultVideoExt    = ".mp4"
	DefaultConcurrency = 4
	MaxConcurrency     = 32
	DefaultLogLevel    = "info"
	DefaultLogFormat   = "console"
)

// DefaultSources 是时间来源的默认顺序（git 历史，失败回退到当前时间）。
var DefaultSources = []string{"git"}

// CLIArgs 只包含 CLI 暴露的入口，并保留"是否显式指定"的信息，
// 保证 CLI 可以覆盖配置文件中的同名字段（例如 --disambiguate=false）。
type CLIArgs struct {
	Root       string
	ConfigPath string // --config；显式指定时文件必须存在

	Listen    string
	ListenSet bool

	LogLevel    string
	LogLevelSet bool

	Disambiguate    bool
	DisambiguateSet bool

	CacheEnabled    bool
	CacheEnabledSet bool
}

// FileConfig 对应 vidcmp.toml 的解析结构。
type FileConfig struct {
	Root        string          `toml:"root"`
	Listen      string          `toml:"listen"`
	PromptFile  string          `toml:"prompt_file"`
	VideoExt    string          `toml:"video_ext"`
	Concurrency int             `toml:"concurrency"`
	ExcludeDirs []string        `toml:"exclude_dirs"`
	LogLevel    string          `toml:"log_level"`
	LogFormat   string          `toml:"log_format"`
	Timestamp   TimestampConfig `toml:"timestamp"`
	Labels      LabelsConfig    `toml:"labels"`
	Cache       CacheConfig     `toml:"cache"`
}

type TimestampConfig struct {
	Sources           []string `toml:"sources"`
	GitTimeoutSeconds int      `toml:"git_timeout_seconds"`
}

type LabelsConfig struct {
	Disambiguate *bool `toml:"disambiguate"`
}

type CacheConfig struct {
	Enabled *bool `toml:"enabled"`
	Watch   *bool `toml:"watch"`
}

// EffectiveConfig 是合并并规范化后的最终配置（实现层直接消费，不再做二次默认/优先级判断）。
type EffectiveConfig struct {
	Root        string `json:"root"`
	ConfigPath  string `json:"config_path"`
	ConfigFound bool   `json:"config_found"`

	Listen      string   `json:"listen"`
	PromptFile  string   `json:"prompt_file"`
	VideoExt    string   `json:"video_ext"`
	Concurrency int      `json:"concurrency"`
	ExcludeDirs []string `json:"exclude_dirs"`

	TimestampSources []string      `json:"timestamp_sources"`
	GitTimeout       time.Duration `json:"git_timeout"`

	Disambiguate bool `json:"disambiguate"`
	CacheEnabled bool `json:"cache_enabled"`
	CacheWatch   bool `json:"cache_watch"`

	LogLevel  string `json:"log_level"`
	LogFormat string `json:"log_format"`
}

// Default 返回没有配置文件、也没有 CLI 参数时的配置（root 相对 cwd）。
func Default(cwd string) EffectiveConfig {
	eff, _ := merge(absCleanFrom(cwd, DefaultRoot), CLIArgs{}, FileConfig{}, "")
	return eff
}

// Error 是配置阶段的结构化错误（带 error_code）。
type Error struct {
	Code string
	Path string
	Err  error
}

func (e *Error) Error() string {
	switch e.Code {
	case ErrCodeNotFound:
		return fmt.Sprintf("%s：未找到配置文件 %q", e.Code, e.Path)
	case ErrCodeInvalid:
		if e.Err != nil {
			return fmt.Sprintf("%s：配置文件 %q 无效：%v", e.Code, e.Path, e.Err)
		}
		return fmt.Sprintf("%s：配置文件 %q 无效", e.Code, e.Path)
	default:
		if e.Err != nil {
			return fmt.Sprintf("%s：%v", e.Code, e.Err)
		}
		return e.Code
	}
}

func (e *Error) Unwrap() error { return e.Err }

// Code 从 error 中提取 error_code；若不是 *Error 则返回空串。
func Code(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// LoadEffective 发现并读取配置文件，然后与 CLI 参数合并为最终配置。
//
// 发现规则（固定）：
// 1) CLI 提供 --config：必须存在
// 2) CLI 提供 root：尝试读取 <root>/vidcmp.toml（可选）
// 3) 都未提供：尝试读取 <cwd>/vidcmp.toml（可选），root 取配置值，缺省为 <cwd>/video
//
// 覆盖优先级（固定）：CLI > 配置文件 > 默认值。
func LoadEffective(cwd string, cli CLIArgs) (EffectiveConfig, error) {
	cwdAbs, err := filepath.Abs(cwd)
	if err != nil {
		return EffectiveConfig{}, &Error{Code: ErrCodeInvalid, Path: cwd, Err: err}
	}

	cliRoot := ""
	if strings.TrimSpace(cli.Root) != "" {
		cliRoot = absCleanFrom(cwdAbs, cli.Root)
	}

	var cfgPath string
	switch {
	case strings.TrimSpace(cli.ConfigPath) != "":
		cfgPath = absCleanFrom(cwdAbs, cli.ConfigPath)
	case cliRoot != "":
		cfgPath = filepath.Join(cliRoot, FileName)
	default:
		cfgPath = filepath.Join(cwdAbs, FileName)
	}

	fc, exists, err := readFileConfig(cfgPath)
	if err != nil {
		return EffectiveConfig{}, &Error{Code: ErrCodeInvalid, Path: cfgPath, Err: err}
	}
	if !exists && strings.TrimSpace(cli.ConfigPath) != "" {
		return EffectiveConfig{}, &Error{Code: ErrCodeNotFound, Path: cfgPath, Err: os.ErrNotExist}
	}

	root := cliRoot
	if root == "" {
		// 配置文件中的相对 root 以配置文件所在目录为基准。
		r := strings.TrimSpace(fc.Root)
		if r == "" {
			r = DefaultRoot
		}
		root = absCleanFrom(filepath.Dir(cfgPath), r)
	}

	eff, err := merge(root, cli, fc, cfgPath)
	if err != nil {
		return EffectiveConfig{}, err
	}
	eff.ConfigPath = cfgPath
	eff.ConfigFound = exists
	return eff, nil
}

func merge(root string, cli CLIArgs, fc FileConfig, cfgPath string) (EffectiveConfig, error) {
	invalid := func(format string, args ...any) error {
		return &Error{Code: ErrCodeInvalid, Path: cfgPath, Err: fmt.Errorf(format, args...)}
	}

	listen := firstNonEmpty(fc.Listen, DefaultListen)
	if cli.ListenSet {
		listen = strings.TrimSpace(cli.Listen)
	}
	if _, _, err := net.SplitHostPort(listen); err != nil {
		return EffectiveConfig{}, invalid("listen 无效：%q（%v）", listen, err)
	}

	promptFile := firstNonEmpty(fc.PromptFile, DefaultPromptFile)
	if promptFile != filepath.Base(promptFile) || promptFile == ".." || promptFile == "." {
		return EffectiveConfig{}, invalid("prompt_file 只能是文件名：%q", promptFile)
	}

	videoExt := strings.ToLower(firstNonEmpty(fc.VideoExt, DefaultVideoExt))
	if !strings.HasPrefix(videoExt, ".") || len(videoExt) < 2 {
		return EffectiveConfig{}, invalid("video_ext 必须以 '.' 开头：%q", videoExt)
	}

	concurrency := fc.Concurrency
	if concurrency == 0 {
		concurrency = DefaultConcurrency
	}
	// 范围 [1, 32]；超出截断。
	if concurrency < 1 {
		concurrency = 1
	}
	if concurrency > MaxConcurrency {
		concurrency = MaxConcurrency
	}

	sources := DefaultSources
	if len(fc.Timestamp.Sources) > 0 {
		sources = fc.Timestamp.Sources
	}
	normSources, err := normalizeSources(sources)
	if err != nil {
		return EffectiveConfig{}, &Error{Code: ErrCodeInvalid, Path: cfgPath, Err: err}
	}
	if fc.Timestamp.GitTimeoutSeconds < 0 {
		return EffectiveConfig{}, invalid("timestamp.git_timeout_seconds 不能为负数：%d", fc.Timestamp.GitTimeoutSeconds)
	}

	disambiguate := boolOr(fc.Labels.Disambiguate, false)
	if cli.DisambiguateSet {
		disambiguate = cli.Disambiguate
	}
	cacheEnabled := boolOr(fc.Cache.Enabled, false)
	if cli.CacheEnabledSet {
		cacheEnabled = cli.CacheEnabled
	}
	cacheWatch := boolOr(fc.Cache.Watch, false)
	if cacheWatch && !cacheEnabled {
		return EffectiveConfig{}, invalid("cache.watch=true 但 cache.enabled=false")
	}

	logLevel := strings.ToLower(firstNonEmpty(fc.LogLevel, DefaultLogLevel))
	if cli.LogLevelSet {
		logLevel = strings.ToLower(strings.TrimSpace(cli.LogLevel))
	}
	switch logLevel {
	case "debug", "info", "warn", "error":
	default:
		return EffectiveConfig{}, invalid("log_level 只能是 debug/info/warn/error，实际是 %q", logLevel)
	}
	logFormat := strings.ToLower(firstNonEmpty(fc.LogFormat, DefaultLogFormat))
	if logFormat != "console" && logFormat != "json" {
		return EffectiveConfig{}, invalid("log_format 只能是 console 或 json，实际是 %q", logFormat)
	}

	excludes := make([]string, 0, len(fc.ExcludeDirs))
	for _, x := range fc.ExcludeDirs {
		if x = strings.TrimSpace(x); x != "" {
			excludes = append(excludes, x)
		}
	}

	return EffectiveConfig{
		Root:             root,
		Listen:           listen,
		PromptFile:       promptFile,
		VideoExt:         videoExt,
		Concurrency:      concurrency,
		ExcludeDirs:      excludes,
		TimestampSources: normSources,
		GitTimeout:       time.Duration(fc.Timestamp.GitTimeoutSeconds) * time.Second,
		Disambiguate:     disambiguate,
		CacheEnabled:     cacheEnabled,
		CacheWatch:       cacheWatch,
		LogLevel:         logLevel,
		LogFormat:        logFormat,
	}, nil
}

func normalizeSources(in []string) ([]string, error) {
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		s = strings.ToLower(strings.TrimSpace(s))
		switch s {
		case "git", "mtime":
		default:
			return nil, fmt.Errorf("timestamp.sources 只能包含 git/mtime，实际是 %q", s)
		}
		if _, ok := seen[s]; ok {
			return nil, fmt.Errorf("timestamp.sources 重复：%q", s)
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out, nil
}

// CreateSample 在 path 写入带注释的示例配置；文件已存在且 force=false 时报错。
func CreateSample(path string, force bool) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("创建配置目录失败：%w", err)
		}
	}
	flag := os.O_WRONLY | os.O_CREATE | os.O_TRUNC
	if !force {
		flag = os.O_WRONLY | os.O_CREATE | os.O_EXCL
	}
	f, err := os.OpenFile(path, flag, 0o644)
	if err != nil {
		return fmt.Errorf("写入示例配置失败：%w", err)
	}
	if _, err := f.WriteString(sampleConfig); err != nil {
		_ = f.Close()
		return fmt.Errorf("写入示例配置失败：%w", err)
	}
	return f.Close()
}

// Sample 返回示例配置文本。
func Sample() string { return sampleConfig }

func boolOr(p *bool, def bool) bool {
	if p == nil {
		return def
	}
	return *p
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}

// absCleanFrom 以 base 为基准，把 p 变为 clean + absolute。
// - p 若已是绝对路径：直接 Clean
// - p 若是相对路径：Join(base, p) 后 Clean
func absCleanFrom(base, p string) string {
	p = strings.TrimSpace(p)
	if p == "" {
		return ""
	}
	p = filepath.Clean(p)
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Clean(filepath.Join(base, p))
}

// readFileConfig 读取并解析 TOML 配置文件。
// 返回值 exists 表示该文件是否存在（不存在不算错误）。
func readFileConfig(path string) (fc FileConfig, exists bool, err error) {
	b, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return FileConfig{}, false, nil
		}
		return FileConfig{}, false, err
	}
	if err := toml.Unmarshal(b, &fc); err != nil {
		return FileConfig{}, true, err
	}
	return fc, true, nil
}
