package catalog

import (
	"sync"

	"github.com/John-Robertt/vidcmp/internal/domain"
)

// Index 是 label 与目录名之间的双向映射。
//
// 映射按插入顺序构建：label 冲突时后插入者获胜（较早的 category 在选择控件中不可见），
// 但 label 在 Labels() 中的位置保持第一次出现时的位置。
// Disambiguate=true 时，冲突的 label 追加 " (<目录名>)"，保证每个 category 都可选。
type Index struct {
	cats    []domain.Category
	byName  map[string]domain.Category
	labels  []string
	toName  map[string]string
	toLabel map[string]string // 每个目录名计算出的 label（不论是否可见）
}

// NewIndex 按 cats 的顺序（通常为时间倒序）构建索引。
func NewIndex(cats []domain.Category, disambiguate bool) *Index {
	ix := &Index{
		cats:    append([]domain.Category(nil), cats...),
		byName:  make(map[string]domain.Category, len(cats)),
		labels:  make([]string, 0, len(cats)),
		toName:  make(map[string]string, len(cats)),
		toLabel: make(map[string]string, len(cats)),
	}

	raw := make([]string, len(cats))
	count := make(map[string]int, len(cats))
	for i, c := range cats {
		raw[i] = Label(c)
		count[raw[i]]++
	}

	for i, c := range cats {
		label := raw[i]
		if disambiguate && count[label] > 1 {
			label = label + " (" + c.Name + ")"
		}
		ix.byName[c.Name] = c
		ix.toLabel[c.Name] = label
		if _, ok := ix.toName[label]; !ok {
			ix.labels = append(ix.labels, label)
		}
		ix.toName[label] = c.Name
	}
	return ix
}

// Len 返回 category 数量（包括被冲突隐藏的）。
func (ix *Index) Len() int {
	if ix == nil {
		return 0
	}
	return len(ix.cats)
}

// Categories 返回全部 category（构建时的顺序）。
func (ix *Index) Categories() []domain.Category {
	if ix == nil {
		return nil
	}
	return append([]domain.Category(nil), ix.cats...)
}

// Labels 返回去重后的 label 列表（第一次出现的顺序）。
func (ix *Index) Labels() []string {
	if ix == nil {
		return nil
	}
	return append([]string(nil), ix.labels...)
}

// Options 返回选择控件使用的 (label, 目录名) 列表，与 Labels() 顺序一致。
func (ix *Index) Options() []domain.LabelOption {
	if ix == nil {
		return nil
	}
	out := make([]domain.LabelOption, 0, len(ix.labels))
	for _, l := range ix.labels {
		out = append(out, domain.LabelOption{Label: l, Name: ix.toName[l]})
	}
	return out
}

// Name 返回 label 对应的目录名（冲突时为最后插入者）。
func (ix *Index) Name(label string) (string, bool) {
	if ix == nil {
		return "", false
	}
	n, ok := ix.toName[label]
	return n, ok
}

// Label 返回目录名对应的可见 label；category 不存在或被冲突隐藏时 ok=false。
func (ix *Index) Label(name string) (string, bool) {
	if ix == nil {
		return "", false
	}
	l, ok := ix.toLabel[name]
	if !ok || ix.toName[l] != name {
		return "", false
	}
	return l, true
}

// Hidden 判断 category 是否存在但因 label 冲突而不可选。
func (ix *Index) Hidden(name string) bool {
	if ix == nil {
		return false
	}
	if _, ok := ix.byName[name]; !ok {
		return false
	}
	_, visible := ix.Label(name)
	return !visible
}

// Category 按目录名查找。
func (ix *Index) Category(name string) (domain.Category, bool) {
	if ix == nil {
		return domain.Category{}, false
	}
	c, ok := ix.byName[name]
	return c, ok
}

// Select 返回 name 对应的 category；name 不可见（不存在或被隐藏）时回退到 Labels()[0] 对应的 category。
// 索引为空时 ok=false。
func (ix *Index) Select(name string) (domain.Category, bool) {
	if ix == nil || len(ix.labels) == 0 {
		return domain.Category{}, false
	}
	if _, ok := ix.Label(name); ok {
		return ix.byName[name], true
	}
	return ix.byName[ix.toName[ix.labels[0]]], true
}

// Selection 是外部持久化的"当前选中 category"（例如 URL 的 category 参数）。
type Selection interface {
	Get() (string, bool)
	Set(name string)
}

// Restore 从 sel 恢复选择（失败回退到最新的 category），并把最终结果写回 sel。
func Restore(ix *Index, sel Selection) (domain.Category, bool) {
	var name string
	if sel != nil {
		name, _ = sel.Get()
	}
	c, ok := ix.Select(name)
	if ok && sel != nil {
		sel.Set(c.Name)
	}
	return c, ok
}

// MemorySelection 是进程内的 Selection 实现（CLI 与测试使用）。
type MemorySelection struct {
	mu   sync.Mutex
	name string
	set  bool
}

func NewMemorySelection(name string) *MemorySelection {
	return &MemorySelection{name: name, set: name != ""}
}

func (m *MemorySelection) Get() (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.name, m.set
}

func (m *MemorySelection) Set(name string) {
	m.mu.Lock()
	m.name, m.set = name, true
	m.mu.Unlock()
}
