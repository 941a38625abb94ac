package code

import (
	"errors"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/John-Robertt/vidcmp/internal/domain"
)

const (
	// DefaultToken 是文件名中固定的前缀记号（例如 video12.mp4 中的 "video"）。
	DefaultToken = "video"
	// DefaultSuffix 是提取编号前要去掉的后缀（区分大小写）。
	DefaultSuffix = ".mp4"
)

// 剥离 token/后缀之后剩下的部分：可选符号 + 数字段，数字之间允许单个下划线。
var intRE = regexp.MustCompile(`^[+-]?[0-9]+(?:_[0-9]+)*$`)

// Extractor 把视频文件名映射为排序键。
type Extractor struct {
	Token  string
	Suffix string
}

// Default 返回使用 DefaultToken/DefaultSuffix 的 Extractor。
func Default() Extractor {
	return Extractor{Token: DefaultToken, Suffix: DefaultSuffix}
}

// Extract 从文件名中提取数字编号。
//
// 规则（硬约束）：
// - 删除文件名中所有出现的 token 与 suffix（均区分大小写），剩余部分去掉首尾空白后按整数解析
// - 解析失败返回 Valid=false，即"正无穷"哨兵，永远排在最后
// - 超出 int64 的编号仍然合法，以十进制串比较
// - 不会失败：每个文件名都能得到一个排序键
func (x Extractor) Extract(name string) domain.VideoID {
	s := name
	if x.Token != "" {
		s = strings.ReplaceAll(s, x.Token, "")
	}
	if x.Suffix != "" {
		s = strings.ReplaceAll(s, x.Suffix, "")
	}
	s = strings.TrimSpace(s)
	if !intRE.MatchString(s) {
		return domain.VideoID{}
	}
	digits := strings.ReplaceAll(s, "_", "")
	n, err := strconv.ParseInt(digits, 10, 64)
	if err != nil {
		if errors.Is(err, strconv.ErrRange) {
			return domain.VideoID{Big: canonical(digits), Valid: true}
		}
		return domain.VideoID{}
	}
	return domain.VideoID{N: n, Valid: true}
}

// canonical 去掉正号与前导零；调用方保证 s 是带可选符号的纯数字且不为零。
func canonical(s string) string {
	neg := strings.HasPrefix(s, "-")
	s = strings.TrimLeft(strings.TrimLeft(s, "+-"), "0")
	if neg {
		return "-" + s
	}
	return s
}

// SortNames 按提取出的编号升序稳定排序文件名（原地修改并返回同一切片）。
func (x Extractor) SortNames(names []string) []string {
	keys := make(map[string]domain.VideoID, len(names))
	for _, n := range names {
		keys[n] = x.Extract(n)
	}
	sort.SliceStable(names, func(i, j int) bool { return keys[names[i]].Less(keys[names[j]]) })
	return names
}

// SortFiles 按 VideoID 升序稳定排序；调用前 ID 必须已经填好。
func SortFiles(files []domain.VideoFile) {
	sort.SliceStable(files, func(i, j int) bool { return files[i].ID.Less(files[j].ID) })
}
