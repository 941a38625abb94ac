// Package prompt 负责 prompt 文件的解析与条目展示格式化。
package prompt

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/John-Robertt/vidcmp/internal/domain"
)

const (
	// DefaultFileName 是 category 目录下的 prompt 文件名。
	DefaultFileName = "prompt.txt"
	// Separator 是多行 prompt 之间的分隔符（七个连字符）。
	Separator = "-------"
)

// Load 读取并解析 prompt 文件。
//
// - 文件不存在：返回 (nil, nil)，表示"没有 prompt 集"（不同于空集）
// - 其它读取失败：返回 error，由上层降级为 category 级问题
func Load(path string) (*domain.PromptSet, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("读取 prompt 文件失败：%w", err)
	}
	return &domain.PromptSet{Entries: Split(normalizeNewlines(string(b)))}, nil
}

// normalizeNewlines 把 "\r\n" 与单独的 "\r" 统一为 "\n"。
func normalizeNewlines(s string) string {
	if !strings.Contains(s, "\r") {
		return s
	}
	return strings.ReplaceAll(strings.ReplaceAll(s, "\r\n", "\n"), "\r", "\n")
}

// Split 按固定规则把文件内容切成条目。
//
// 规则（完全且固定）：
// - 内容中出现 Separator：只按 Separator 切分，条目保留首尾空白，不按换行切
// - 否则按 '\n' 切分，每行一个条目，空行保留为空串
// - 空内容得到一个空串条目（两条规则对空串都产出一个段）
func Split(content string) []string {
	if strings.Contains(content, Separator) {
		return strings.Split(content, Separator)
	}
	return strings.Split(content, "\n")
}

// Render 把原始条目格式化为展示文本。
//
// 能解析为 JSON 文档时以 2 空格缩进重新输出（保留键的原始顺序），标记为 RenderStructured；
// 否则在每个逗号后插入换行，标记为 RenderPlain。两种结果都不是错误。
func Render(entry string) domain.Rendered {
	if out, ok := indentJSON(entry); ok {
		return domain.Rendered{Mode: domain.RenderStructured, Text: out}
	}
	return domain.Rendered{Mode: domain.RenderPlain, Text: strings.ReplaceAll(entry, ",", ",\n")}
}

func indentJSON(s string) (string, bool) {
	src, marks := maskNonFinite(s)
	if !json.Valid(src) {
		return "", false
	}
	var compact bytes.Buffer
	if err := json.Compact(&compact, src); err != nil {
		return "", false
	}
	var out bytes.Buffer
	if err := json.Indent(&out, compact.Bytes(), "", "  "); err != nil {
		return "", false
	}
	text := out.String()
	for _, m := range marks {
		text = strings.ReplaceAll(text, m.quoted, m.token)
	}
	return text, true
}

// 非标准但常见的数值记号：NaN、Infinity、-Infinity。
var nonFinite = []string{"-Infinity", "Infinity", "NaN"}

// 占位串包含 NUL 转义，正常 prompt 中不会出现。
const maskPrefix = `\u0000nonfinite:`

type mark struct {
	token  string
	quoted string
}

// maskNonFinite 把字符串字面量之外的 NaN/Infinity/-Infinity 替换为占位字符串，
// 使其能通过标准 JSON 校验；缩进后再换回原记号。
func maskNonFinite(s string) ([]byte, []mark) {
	if strings.Contains(s, maskPrefix) {
		return []byte(s), nil
	}
	var (
		out      strings.Builder
		used     []mark
		inString bool
		escaped  bool
	)
	for i := 0; i < len(s); {
		ch := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case ch == '\\':
				escaped = true
			case ch == '"':
				inString = false
			}
			out.WriteByte(ch)
			i++
			continue
		}
		if ch == '"' {
			inString = true
			out.WriteByte(ch)
			i++
			continue
		}
		matched := false
		for _, tok := range nonFinite {
			if strings.HasPrefix(s[i:], tok) {
				m := mark{token: tok, quoted: `"` + maskPrefix + tok + `"`}
				out.WriteString(m.quoted)
				used = appendMark(used, m)
				i += len(tok)
				matched = true
				break
			}
		}
		if !matched {
			out.WriteByte(ch)
			i++
		}
	}
	return []byte(out.String()), used
}

func appendMark(marks []mark, m mark) []mark {
	for _, x := range marks {
		if x == m {
			return marks
		}
	}
	return append(marks, m)
}
