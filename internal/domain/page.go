package domain

import "time"

const (
	ProblemNoCategories     = "no_categories"
	ProblemMissingPrompt    = "missing_prompt_file"
	ProblemNoVariants       = "no_variants"
	ProblemIOFailed         = "io_failed"
	ProblemCategoryNotFound = "category_not_found"
)

// Problem 是一次渲染中面向用户的问题（页面级或 category 级）。
// 它不是 Go error：渲染流程把失败降级为 Problem，而不是向上抛出。
type Problem struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Page 是一次渲染过程交给渲染边界的完整数据。
type Page struct {
	Root     string        `json:"root"`
	Options  []LabelOption `json:"options"`
	Selected string        `json:"selected"`
	Label    string        `json:"label"`

	Variants []string        `json:"variants"`
	Rows     []ComparisonRow `json:"rows"`
	Prompts  int             `json:"prompts"`

	// Problems 按检查顺序排列：prompt 文件问题先于 variant 问题。
	Problems []Problem `json:"problems"`

	GeneratedAt time.Time `json:"generated_at"`
}

// HasCategories 报告页面是否有可选的 category。
func (p *Page) HasCategories() bool {
	return len(p.Options) > 0
}

// Problem 返回第一个匹配 code 的问题。
func (p *Page) Problem(code string) (Problem, bool) {
	for _, pr := range p.Problems {
		if pr.Code == code {
			return pr, true
		}
	}
	return Problem{}, false
}

// Finalize 做两件事：
// 1) 时间统一为 UTC（确保 JSON 为 RFC3339 且后缀 Z）
// 2) nil 切片替换为空切片，JSON 中输出 [] 而不是 null
//
// 注意：Rows 的顺序就是位置顺序，这里绝不重排。
func (p *Page) Finalize() {
	p.GeneratedAt = p.GeneratedAt.UTC()
	if p.Options == nil {
		p.Options = []LabelOption{}
	}
	if p.Variants == nil {
		p.Variants = []string{}
	}
	if p.Rows == nil {
		p.Rows = []ComparisonRow{}
	}
	if p.Problems == nil {
		p.Problems = []Problem{}
	}
	for i := range p.Rows {
		if p.Rows[i].Cells == nil {
			p.Rows[i].Cells = []Cell{}
		}
	}
}
