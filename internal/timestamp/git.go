package timestamp

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

// Runner 抽象外部进程调用，测试可以替换为假实现。
type Runner interface {
	Output(ctx context.Context, dir, name string, args ...string) ([]byte, error)
}

// ExecRunner 使用 os/exec 运行命令。
type ExecRunner struct{}

func (ExecRunner) Output(ctx context.Context, dir, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	if err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return out, fmt.Errorf("%s %s: %w: %s", name, strings.Join(args, " "), err, msg)
		}
		return out, fmt.Errorf("%s %s: %w", name, strings.Join(args, " "), err)
	}
	return out, nil
}

// GitSource 读取最近一次触及 path 下任意文件的提交时间。
//
// 只解析输出中的日期部分（YYYY-MM-DD，本地时区零点）；
// 命令在 path 目录内运行，因此不依赖进程 cwd 是否位于仓库中。
type GitSource struct {
	Runner  Runner
	Timeout time.Duration // 0 表示不设超时
}

func (g *GitSource) Name() string { return SourceGit }

func (g *GitSource) Resolve(ctx context.Context, path string) (time.Time, error) {
	runner := g.Runner
	if runner == nil {
		runner = ExecRunner{}
	}
	if g.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.Timeout)
		defer cancel()
	}

	out, err := runner.Output(ctx, path, "git", "log", "-1", "--format=%ci", "--", ".")
	if err != nil {
		return time.Time{}, err
	}
	return ParseGitDate(string(out))
}

// ParseGitDate 解析 `git log --format=%ci` 的输出，例如 "2025-05-26 02:59:55 -0700"。
// 只取第一个字段（日期），时间部分与时区被丢弃。
func ParseGitDate(out string) (time.Time, error) {
	fields := strings.Fields(out)
	if len(fields) == 0 {
		return time.Time{}, errors.New("没有提交历史")
	}
	ts, err := time.ParseInLocation("2006-01-02", fields[0], time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("无法解析 git 日期 %q：%w", fields[0], err)
	}
	return ts, nil
}
