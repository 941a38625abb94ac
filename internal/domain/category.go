package domain

import "time"

// Category 是根目录下的一个实验目录（身份 = 目录名，在根目录内唯一）。
//
// Timestamp 在一次发现过程中解析一次并复用；label 由 catalog 派生，不在这里存储。
type Category struct {
	Name      string    `json:"name"`
	Path      string    `json:"-"`
	Timestamp time.Time `json:"timestamp"`
}

// LabelOption 是选择控件中的一项（label -> 目录名）。
type LabelOption struct {
	Label string `json:"label"`
	Name  string `json:"name"`
}
