package app

import "github.com/John-Robertt/vidcmp/internal/domain"

// RowCount 返回网格行数：所有 variant 视频数量的最大值（与 prompt 数量无关）。
func RowCount(variants []domain.Variant) int {
	n := 0
	for i := range variants {
		if l := len(variants[i].Videos); l > n {
			n = l
		}
	}
	return n
}

// BuildGrid 按位置把 prompt 与各 variant 的视频拼成行。
//
// - 行数 = RowCount(variants)；超出 prompt 或某个 variant 长度的位置为缺失（nil），不是错误
// - 行按位置顺序输出；Cells 顺序与 variants 顺序一致
// - 纯函数：不做 IO，不修改输入
//
// variants 为空时返回空切片（"没有 variant"由上游作为独立状态报告）。
func BuildGrid(prompts *domain.PromptSet, variants []domain.Variant) []domain.ComparisonRow {
	n := RowCount(variants)
	rows := make([]domain.ComparisonRow, 0, n)
	for i := 0; i < n; i++ {
		row := domain.ComparisonRow{
			Index: i,
			Cells: make([]domain.Cell, 0, len(variants)),
		}
		if p, ok := prompts.At(i); ok {
			row.Prompt = &p
		}
		for vi := range variants {
			cell := domain.Cell{Variant: variants[vi].Name}
			if i < len(variants[vi].Videos) {
				v := variants[vi].Videos[i]
				cell.Video = &v
			}
			row.Cells = append(row.Cells, cell)
		}
		rows = append(rows, row)
	}
	return rows
}

// VariantNames 返回 variant 名称列表（保持顺序）。
func VariantNames(variants []domain.Variant) []string {
	out := make([]string, 0, len(variants))
	for i := range variants {
		out = append(out, variants[i].Name)
	}
	return out
}
