// Package timestamp 为目录解析"最后修改时间"（尽力而为，永不失败）。
package timestamp

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Source 是一种时间来源（git 历史、目录 mtime 等）。
//
// 约束：Resolve 失败时返回 error，由 Resolver 决定回退；Source 自身不做回退。
type Source interface {
	Name() string
	Resolve(ctx context.Context, path string) (time.Time, error)
}

// Attempt 记录一次来源尝试（用于解释为什么回退到了下一个来源）。
type Attempt struct {
	Source string
	Err    error // nil 表示成功
}

// Resolver 按顺序尝试各个 Source，全部失败时回退到 Now。
type Resolver struct {
	Sources []Source
	Now     func() time.Time
	Logger  *zap.Logger
}

// New 构造 Resolver；now 为 nil 时使用 time.Now。
func New(logger *zap.Logger, now func() time.Time, sources ...Source) *Resolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	if now == nil {
		now = time.Now
	}
	return &Resolver{Sources: sources, Now: now, Logger: logger}
}

// Resolve 返回 path 的最佳时间戳；任何失败都被吞掉并回退到当前时间。
func (r *Resolver) Resolve(ctx context.Context, path string) time.Time {
	ts, _ := r.ResolveTrace(ctx, path)
	return ts
}

// ResolveTrace 与 Resolve 相同，但额外返回各来源的尝试链路。
func (r *Resolver) ResolveTrace(ctx context.Context, path string) (time.Time, []Attempt) {
	logger := r.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	attempts := make([]Attempt, 0, len(r.Sources)+1)
	for _, s := range r.Sources {
		if s == nil {
			continue
		}
		ts, err := s.Resolve(ctx, path)
		if err == nil && !ts.IsZero() {
			attempts = append(attempts, Attempt{Source: s.Name()})
			return ts, attempts
		}
		if err == nil {
			err = errors.New("空时间戳")
		}
		attempts = append(attempts, Attempt{Source: s.Name(), Err: err})
		logger.Debug("时间来源不可用，尝试下一个",
			zap.String("source", s.Name()),
			zap.String("path", path),
			zap.Error(err),
		)
	}

	now := r.fallback(ctx)
	attempts = append(attempts, Attempt{Source: SourceClock})
	return now, attempts
}

type passKey struct{}

type pass struct {
	once sync.Once
	at   time.Time
}

// WithPass 标记一次批量解析：同一 ctx 下所有回退到时钟的调用得到同一个时刻（首次读取的值）。
func WithPass(ctx context.Context) context.Context {
	return context.WithValue(ctx, passKey{}, &pass{})
}

func (r *Resolver) fallback(ctx context.Context) time.Time {
	p, ok := ctx.Value(passKey{}).(*pass)
	if !ok {
		return r.now()
	}
	p.once.Do(func() { p.at = r.now() })
	return p.at
}

func (r *Resolver) now() time.Time {
	if r.Now == nil {
		return time.Now()
	}
	return r.Now()
}

const (
	SourceGit   = "git"
	SourceMtime = "mtime"
	SourceClock = "clock"
)

// Options 描述如何按名字构造来源链。
type Options struct {
	Runner     Runner
	GitTimeout time.Duration
}

// BuildSources 按配置中的名字顺序构造来源链（重复名字报错，"clock" 隐式位于末尾）。
func BuildSources(names []string, opts Options) ([]Source, error) {
	seen := make(map[string]struct{}, len(names))
	out := make([]Source, 0, len(names))
	for _, n := range names {
		n = strings.ToLower(strings.TrimSpace(n))
		if _, ok := seen[n]; ok {
			return nil, fmt.Errorf("重复的时间来源：%q", n)
		}
		seen[n] = struct{}{}
		switch n {
		case SourceGit:
			out = append(out, &GitSource{Runner: opts.Runner, Timeout: opts.GitTimeout})
		case SourceMtime:
			out = append(out, MtimeSource{})
		case SourceClock:
			// clock 永远是最终回退，显式写出也不需要额外来源。
		case "":
			return nil, fmt.Errorf("时间来源不能为空")
		default:
			return nil, fmt.Errorf("未知的时间来源：%q（只能是 git/mtime/clock）", n)
		}
	}
	return out, nil
}

// MtimeSource 使用目录自身的修改时间。
type MtimeSource struct{}

func (MtimeSource) Name() string { return SourceMtime }

func (MtimeSource) Resolve(_ context.Context, path string) (time.Time, error) {
	fi, err := os.Stat(path)
	if err != nil {
		return time.Time{}, err
	}
	return fi.ModTime(), nil
}
