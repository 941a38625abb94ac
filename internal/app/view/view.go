// Package view 执行一次完整的渲染过程：catalog → 选择 → prompt → 对齐 → 网格。
package view

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/John-Robertt/vidcmp/internal/app"
	"github.com/John-Robertt/vidcmp/internal/catalog"
	"github.com/John-Robertt/vidcmp/internal/code"
	"github.com/John-Robertt/vidcmp/internal/config"
	"github.com/John-Robertt/vidcmp/internal/domain"
	"github.com/John-Robertt/vidcmp/internal/infra/cache"
	"github.com/John-Robertt/vidcmp/internal/prompt"
	"github.com/John-Robertt/vidcmp/internal/scan"
	"github.com/John-Robertt/vidcmp/internal/timestamp"
)

// Deps 是渲染过程的外部依赖；零值可用。
type Deps struct {
	Resolver catalog.Resolver // nil 时按 eff.TimestampSources 构造
	Cache    *cache.Store     // nil 时不缓存（eff.CacheEnabled 为 true 时自动创建）
	Logger   *zap.Logger
	Now      func() time.Time
}

// Renderer 持有合并后的配置与依赖；并发安全（每次渲染都从文件系统重新计算）。
type Renderer struct {
	eff      config.EffectiveConfig
	resolver catalog.Resolver
	cache    *cache.Store
	logger   *zap.Logger
	now      func() time.Time
}

// New 构造 Renderer。时间来源配置非法时返回 error。
func New(eff config.EffectiveConfig, deps Deps) (*Renderer, error) {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	now := deps.Now
	if now == nil {
		now = time.Now
	}

	resolver := deps.Resolver
	if resolver == nil {
		sources, err := timestamp.BuildSources(eff.TimestampSources, timestamp.Options{
			Runner:     timestamp.ExecRunner{},
			GitTimeout: eff.GitTimeout,
		})
		if err != nil {
			return nil, err
		}
		resolver = timestamp.New(logger, now, sources...)
	}

	store := deps.Cache
	if store == nil && eff.CacheEnabled {
		store = cache.New()
	}

	return &Renderer{
		eff:      eff,
		resolver: resolver,
		cache:    store,
		logger:   logger,
		now:      now,
	}, nil
}

// Config 返回渲染使用的配置。
func (r *Renderer) Config() config.EffectiveConfig { return r.eff }

// Cache 返回缓存（未启用时为 nil）。
func (r *Renderer) Cache() *cache.Store { return r.cache }

func (r *Renderer) scanOptions() scan.Options {
	return scan.Options{
		Ext:         r.eff.VideoExt,
		Extractor:   code.Extractor{Token: code.DefaultToken, Suffix: r.eff.VideoExt},
		ExcludeDirs: r.eff.ExcludeDirs,
	}
}

// Catalog 列出 category 并构建 label 索引。
func (r *Renderer) Catalog(ctx context.Context) (*catalog.Index, error) {
	cats, err := catalog.List(ctx, r.eff.Root, catalog.Options{
		Resolver:    r.resolver,
		Concurrency: r.eff.Concurrency,
		ExcludeDirs: r.eff.ExcludeDirs,
		Cache:       r.cache,
		Logger:      r.logger,
	})
	if err != nil {
		return nil, err
	}
	return catalog.NewIndex(cats, r.eff.Disambiguate), nil
}

// Execute 执行一次渲染：从 sel 恢复选择（失败回退到最新 category），并把最终选择写回 sel。
func (r *Renderer) Execute(ctx context.Context, sel catalog.Selection) domain.Page {
	return r.ExecuteWithObserver(ctx, sel, nil)
}

// ExecuteWithObserver 与 Execute 相同，但允许传入 Observer。
func (r *Renderer) ExecuteWithObserver(ctx context.Context, sel catalog.Selection, obs Observer) domain.Page {
	return r.run(ctx, obs, func(ix *catalog.Index) (domain.Category, *domain.Problem) {
		c, _ := catalog.Restore(ix, sel)
		return c, nil
	})
}

// Category 渲染指定目录名的 category（精确匹配，不回退；被 label 冲突隐藏的 category 也可访问）。
func (r *Renderer) Category(ctx context.Context, name string, obs Observer) domain.Page {
	return r.run(ctx, obs, func(ix *catalog.Index) (domain.Category, *domain.Problem) {
		c, ok := ix.Category(name)
		if !ok {
			return domain.Category{}, &domain.Problem{
				Code:    domain.ProblemCategoryNotFound,
				Message: fmt.Sprintf("Category '%s' not found.", name),
			}
		}
		return c, nil
	})
}

type pickFunc func(ix *catalog.Index) (domain.Category, *domain.Problem)

func (r *Renderer) run(ctx context.Context, obs Observer, pick pickFunc) domain.Page {
	if obs == nil {
		obs = nopObserver{}
	}
	obs.OnStart(r.eff)

	page := domain.Page{
		Root:        r.eff.Root,
		GeneratedAt: r.now(),
	}
	report := func(p domain.Problem) {
		page.Problems = append(page.Problems, p)
		obs.OnProblem(p)
	}

	started := time.Now()
	ix, err := r.Catalog(ctx)
	if err != nil || ix.Len() == 0 {
		if err != nil {
			r.logger.Debug("列出 category 失败", zap.String("root", r.eff.Root), zap.Error(err))
		}
		report(domain.Problem{
			Code:    domain.ProblemNoCategories,
			Message: fmt.Sprintf("No categories found in the '%s' directory.", filepath.Base(r.eff.Root)),
		})
		obs.OnPhaseDone("catalog", map[string]any{"categories": 0}, time.Since(started))
		page.Finalize()
		return page
	}
	page.Options = ix.Options()
	obs.OnPhaseDone("catalog", map[string]any{
		"categories": ix.Len(),
		"labels":     len(page.Options),
	}, time.Since(started))

	cat, problem := pick(ix)
	if problem != nil {
		report(*problem)
		page.Finalize()
		return page
	}
	page.Selected = cat.Name
	page.Label = catalog.Label(cat)
	if l, ok := ix.Label(cat.Name); ok {
		page.Label = l
	}

	r.fillCategory(&page, cat, obs, report)
	page.Finalize()
	return page
}

// fillCategory 读取 prompt、对齐 variant 并构建网格；所有失败都降级为 Problem。
//
// prompt 文件与 variant 子目录分别检查：两者都有问题时 prompt 问题在前。
func (r *Renderer) fillCategory(page *domain.Page, cat domain.Category, obs Observer, report func(domain.Problem)) {
	started := time.Now()
	prompts, err := prompt.Load(filepath.Join(cat.Path, r.eff.PromptFile))
	switch {
	case err != nil:
		report(domain.Problem{
			Code:    domain.ProblemIOFailed,
			Message: fmt.Sprintf("Failed to read %s in '%s': %v", r.eff.PromptFile, cat.Name, err),
		})
	case prompts == nil:
		report(domain.Problem{
			Code:    domain.ProblemMissingPrompt,
			Message: fmt.Sprintf("No %s file found in '%s'.", r.eff.PromptFile, cat.Name),
		})
	}
	page.Prompts = prompts.Len()
	obs.OnPhaseDone("prompt", map[string]any{"entries": prompts.Len()}, time.Since(started))

	started = time.Now()
	variants, err := scan.Align(r.eff.Root, cat.Path, r.scanOptions())
	if err != nil {
		if scan.IsNoVariants(err) {
			report(domain.Problem{
				Code:    domain.ProblemNoVariants,
				Message: fmt.Sprintf("At least one subfolder is required for comparison in '%s'.", cat.Name),
			})
		} else {
			report(domain.Problem{
				Code:    domain.ProblemIOFailed,
				Message: fmt.Sprintf("Failed to scan '%s': %v", cat.Name, err),
			})
		}
		obs.OnPhaseDone("align", map[string]any{"variants": 0}, time.Since(started))
		return
	}
	page.Variants = app.VariantNames(variants)
	obs.OnPhaseDone("align", map[string]any{"variants": len(variants)}, time.Since(started))

	started = time.Now()
	rows := app.BuildGrid(prompts, variants)
	for i := range rows {
		if rows[i].Prompt != nil {
			d := prompt.Render(*rows[i].Prompt)
			rows[i].Display = &d
		}
	}
	page.Rows = rows
	obs.OnPhaseDone("grid", map[string]any{"rows": len(rows)}, time.Since(started))
}

// IsNoCategories 判断页面是否因为没有 category 而无法继续。
func IsNoCategories(p domain.Page) bool {
	_, ok := p.Problem(domain.ProblemNoCategories)
	return ok
}

// ErrNoCategories 供 CLI 以非零退出码报告"没有 category"。
var ErrNoCategories = errors.New("没有可用的 category")

type nopObserver struct{}

func (nopObserver) OnStart(config.EffectiveConfig)                    {}
func (nopObserver) OnPhaseDone(string, map[string]any, time.Duration) {}
func (nopObserver) OnProblem(domain.Problem)                          {}
