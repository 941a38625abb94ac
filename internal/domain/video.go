package domain

// VideoFile 描述某个 variant 目录下的一个视频文件（只做 stat，不读内容）。
//
// 不变量（实现必须遵守）：
// - AbsPath 必须是 clean + absolute
// - RelPath 相对扫描根目录，使用 '/' 分隔（直接用于 URL）
type VideoFile struct {
	Name    string  `json:"name"`
	AbsPath string  `json:"-"`
	RelPath string  `json:"rel_path"`
	ID      VideoID `json:"-"`
	Size    int64   `json:"size"`
	ModUnix int64   `json:"mod_unix"`
}

// Variant 是 category 下的一个子目录（一个模型/方法的输出）。
// Videos 已按 VideoID 升序稳定排序；无法解析 ID 的文件排在最后。
type Variant struct {
	Name   string      `json:"name"`
	Path   string      `json:"-"`
	Videos []VideoFile `json:"videos"`
}
