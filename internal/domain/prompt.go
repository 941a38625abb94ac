package domain

// PromptSet 是某个 category 的 prompt 列表（按位置索引 0..N-1）。
//
// nil *PromptSet 表示"没有 prompt 文件"，与"空列表"是不同状态。
type PromptSet struct {
	Entries []string
}

// Len 返回条目数；nil 视为 0。
func (p *PromptSet) Len() int {
	if p == nil {
		return 0
	}
	return len(p.Entries)
}

// At 返回位置 i 的原始条目；越界时 ok=false（不是错误）。
func (p *PromptSet) At(i int) (string, bool) {
	if p == nil || i < 0 || i >= len(p.Entries) {
		return "", false
	}
	return p.Entries[i], true
}

// RenderMode 告诉渲染边界该用哪种展示块。
type RenderMode string

const (
	RenderStructured RenderMode = "json"
	RenderPlain      RenderMode = "text"
)

// Rendered 是 prompt 条目的展示结果（带标签的联合类型）。
type Rendered struct {
	Mode RenderMode `json:"mode"`
	Text string     `json:"text"`
}
