package main

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/John-Robertt/vidcmp/internal/app/view"
	"github.com/John-Robertt/vidcmp/internal/config"
	"github.com/John-Robertt/vidcmp/internal/domain"
)

var _ view.Observer = (*phaseUI)(nil)

// phaseUI 把渲染阶段逐行写到 stderr（--verbose 时启用）。
type phaseUI struct {
	w io.Writer

	mu        sync.Mutex
	startedAt time.Time
}

func newPhaseUI(w io.Writer) *phaseUI {
	return &phaseUI{w: w}
}

func (p *phaseUI) OnStart(eff config.EffectiveConfig) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.startedAt = time.Now()
	fmt.Fprintf(p.w, "[%s] vidcmp 渲染\n", p.startedAt.Format("15:04:05"))
	fmt.Fprintln(p.w, "配置（生效）:")
	fmt.Fprintf(p.w, "  root: %s\n", eff.Root)
	fmt.Fprintf(p.w, "  config: %s%s\n", eff.ConfigPath, foundNote(eff.ConfigFound))
	fmt.Fprintf(p.w, "  timestamp: %v (concurrency=%d)\n", eff.TimestampSources, eff.Concurrency)
	fmt.Fprintf(p.w, "  cache: %s\n", onOff(eff.CacheEnabled))
}

func (p *phaseUI) OnPhaseDone(name string, fields map[string]any, dur time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()

	switch name {
	case "catalog":
		fmt.Fprintf(p.w, "目录: categories=%d labels=%d (%s)\n",
			intField(fields, "categories"), intField(fields, "labels"), formatShortDuration(dur))
	case "prompt":
		fmt.Fprintf(p.w, "prompt: entries=%d (%s)\n", intField(fields, "entries"), formatShortDuration(dur))
	case "align":
		fmt.Fprintf(p.w, "对齐: variants=%d (%s)\n", intField(fields, "variants"), formatShortDuration(dur))
	case "grid":
		fmt.Fprintf(p.w, "网格: rows=%d (%s)\n", intField(fields, "rows"), formatShortDuration(dur))
	default:
		// 未知阶段也不要静默。
		fmt.Fprintf(p.w, "%s (%s)\n", name, formatShortDuration(dur))
	}
}

func (p *phaseUI) OnProblem(pr domain.Problem) {
	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprintf(p.w, "问题: %s: %s\n", pr.Code, pr.Message)
}

func foundNote(found bool) string {
	if found {
		return ""
	}
	return "（不存在，使用默认值）"
}

func onOff(b bool) string {
	if b {
		return "on"
	}
	return "off"
}

func formatShortDuration(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	return fmt.Sprintf("%.1fs", d.Seconds())
}

func intField(fields map[string]any, key string) int {
	if fields == nil {
		return 0
	}
	v, ok := fields[key]
	if !ok {
		return 0
	}
	switch x := v.(type) {
	case int:
		return x
	case int32:
		return int(x)
	case int64:
		return int(x)
	default:
		return 0
	}
}
