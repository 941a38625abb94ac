package view

import (
	"time"

	"go.uber.org/zap"

	"github.com/John-Robertt/vidcmp/internal/config"
	"github.com/John-Robertt/vidcmp/internal/domain"
)

// Observer 把渲染过程中的阶段事件从核心流程中解耦出来。
//
// 约束：
// - view 包只负责发事件，不做任何输出（CLI 的 JSON 输出不能被污染）
// - 实现必须并发安全：Web 下多个请求可能同时渲染
type Observer interface {
	// OnStart 在一次渲染开始时调用。
	OnStart(eff config.EffectiveConfig)
	// OnPhaseDone 在阶段结束时调用（catalog/prompt/align/grid）。
	OnPhaseDone(name string, fields map[string]any, dur time.Duration)
	// OnProblem 在页面或 category 出现面向用户的问题时调用。
	OnProblem(p domain.Problem)
}

// LogObserver 把事件写到 zap（阶段为 debug，问题为 warn）。
type LogObserver struct {
	Logger *zap.Logger
}

func (o LogObserver) logger() *zap.Logger {
	if o.Logger == nil {
		return zap.NewNop()
	}
	return o.Logger
}

func (o LogObserver) OnStart(eff config.EffectiveConfig) {
	o.logger().Debug("开始渲染", zap.String("root", eff.Root))
}

func (o LogObserver) OnPhaseDone(name string, fields map[string]any, dur time.Duration) {
	zf := make([]zap.Field, 0, len(fields)+2)
	zf = append(zf, zap.String("phase", name), zap.Duration("took", dur))
	for k, v := range fields {
		zf = append(zf, zap.Any(k, v))
	}
	o.logger().Debug("阶段完成", zf...)
}

func (o LogObserver) OnProblem(p domain.Problem) {
	o.logger().Warn("渲染问题", zap.String("code", p.Code), zap.String("message", p.Message))
}
