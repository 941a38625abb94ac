package domain

import "strconv"

// VideoID 是从文件名中提取的数字编号，用作排序键。
//
// 约束：排序键必须是全序的。Valid=false 表示"正无穷"哨兵，
// 比任何合法编号都大；两个哨兵之间相等（保持原有相对顺序交给稳定排序）。
// 超出 int64 的编号放在 Big 中（规范十进制，无前导零，负数带 "-"），此时 N 为 0。
type VideoID struct {
	N     int64
	Big   string
	Valid bool
}

// Less 报告 a 是否严格排在 b 之前。
func (a VideoID) Less(b VideoID) bool {
	switch {
	case a.Valid && b.Valid:
		if a.Big == "" && b.Big == "" {
			return a.N < b.N
		}
		return compareDecimal(a.decimal(), b.decimal()) < 0
	case a.Valid:
		return true
	default:
		return false
	}
}

func (a VideoID) String() string {
	if !a.Valid {
		return "+inf"
	}
	return a.decimal()
}

func (a VideoID) decimal() string {
	if a.Big != "" {
		return a.Big
	}
	return strconv.FormatInt(a.N, 10)
}

// compareDecimal 比较两个规范十进制整数串。
func compareDecimal(a, b string) int {
	an, bn := len(a) > 0 && a[0] == '-', len(b) > 0 && b[0] == '-'
	switch {
	case an && !bn:
		return -1
	case !an && bn:
		return 1
	case an && bn:
		return compareDecimal(b[1:], a[1:])
	}
	if len(a) != len(b) {
		if len(a) < len(b) {
			return -1
		}
		return 1
	}
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}
