// Package catalog 枚举根目录下的 category，按时间倒序排列并生成展示用 label。
package catalog

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/John-Robertt/vidcmp/internal/domain"
	"github.com/John-Robertt/vidcmp/internal/infra/cache"
	"github.com/John-Robertt/vidcmp/internal/scan"
	"github.com/John-Robertt/vidcmp/internal/timestamp"
)

const (
	DefaultConcurrency = 4
	MaxConcurrency     = 32
)

// Resolver 为目录解析时间戳；实现必须永不失败。
type Resolver interface {
	Resolve(ctx context.Context, path string) time.Time
}

// Options 控制一次发现过程；零值可用（git 来源 + 当前时间回退，并发 4，无缓存）。
type Options struct {
	Resolver    Resolver
	Concurrency int
	ExcludeDirs []string
	Cache       *cache.Store // nil 表示每次都重新解析
	Logger      *zap.Logger
}

// List 枚举 root 的直接子目录并按解析出的时间戳倒序（稳定）排序。
//
// 每个 category 在一次调用中只解析一次时间戳；排序与 label 使用同一个值。
// root 不存在或不可读时返回 error；没有子目录时返回空列表。
func List(ctx context.Context, root string, opts Options) ([]domain.Category, error) {
	root = filepath.Clean(root)
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	names, err := scan.SubDirs(root, scan.BuildExcluded(root, opts.ExcludeDirs))
	if err != nil {
		return nil, fmt.Errorf("读取根目录失败：%w", err)
	}

	var token string
	if opts.Cache != nil {
		if t, err := cache.Token(root, names); err == nil {
			token = t
			if cats, ok := opts.Cache.Get(root, token); ok {
				logger.Debug("category 缓存命中", zap.String("root", root), zap.Int("count", len(cats)))
				return cats, nil
			}
		} else {
			logger.Debug("无法计算扫描令牌，跳过缓存", zap.String("root", root), zap.Error(err))
		}
	}

	cats := make([]domain.Category, len(names))
	for i, n := range names {
		cats[i] = domain.Category{Name: n, Path: filepath.Join(root, n)}
	}

	resolver := opts.Resolver
	if resolver == nil {
		resolver = timestamp.New(logger, nil, &timestamp.GitSource{})
	}

	// 回退到时钟的 category 共享同一时刻，稳定排序保持目录顺序。
	g, gctx := errgroup.WithContext(timestamp.WithPass(ctx))
	g.SetLimit(clampConcurrency(opts.Concurrency))
	for i := range cats {
		i := i
		g.Go(func() error {
			cats[i].Timestamp = resolver.Resolve(gctx, cats[i].Path)
			return nil
		})
	}
	_ = g.Wait()

	SortByTimestamp(cats)

	if opts.Cache != nil && token != "" {
		if err := opts.Cache.Put(root, token, cats); err != nil {
			logger.Debug("写入 category 缓存失败", zap.Error(err))
		}
	}
	return cats, nil
}

// SortByTimestamp 按时间戳倒序稳定排序（时间相同保持原有顺序）。
func SortByTimestamp(cats []domain.Category) {
	sort.SliceStable(cats, func(i, j int) bool {
		return cats[i].Timestamp.After(cats[j].Timestamp)
	})
}

var lower = cases.Lower(language.Und)

// Label 生成展示用 label，例如 "[may 26] text to video"。
func Label(c domain.Category) string {
	date := strings.ToLower(c.Timestamp.Format("[Jan 02]"))
	return date + " " + NormalizeName(c.Name)
}

// NormalizeName 把目录名中的连字符替换为空格并转小写。
func NormalizeName(name string) string {
	return lower.String(strings.ReplaceAll(name, "-", " "))
}

func clampConcurrency(n int) int {
	if n <= 0 {
		return DefaultConcurrency
	}
	if n > MaxConcurrency {
		return MaxConcurrency
	}
	return n
}
