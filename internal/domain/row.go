package domain

// Cell 是某一行中某个 variant 的视频；Video 为 nil 表示该位置缺失。
type Cell struct {
	Variant string     `json:"variant"`
	Video   *VideoFile `json:"video"`
}

// ComparisonRow 是对齐后的第 Index 行（0-based）。
//
// Prompt 为 nil 表示该位置没有 prompt；Cells 与 variant 顺序一一对应。
// Display 是 Prompt 的展示形式，由渲染过程填充（网格构建本身不填）。
type ComparisonRow struct {
	Index   int       `json:"index"`
	Prompt  *string   `json:"prompt"`
	Display *Rendered `json:"display,omitempty"`
	Cells   []Cell    `json:"cells"`
}
