package web

import (
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
)

// handleMedia 输出 <root>/<category>/<variant>/<file>。
//
// 约束：
// - 每一段都必须是单个普通名字（不能为空、"."、".." 或包含分隔符）
// - 只输出后缀匹配 video_ext 的普通文件；最终路径必须仍在 root 之下
func (s *Server) handleMedia(c *gin.Context) {
	eff := s.renderer.Config()
	segs := []string{c.Param("category"), c.Param("variant"), c.Param("file")}
	for _, seg := range segs {
		if !isPlainName(seg) {
			c.String(http.StatusBadRequest, "invalid path")
			return
		}
	}
	if !strings.HasSuffix(strings.ToLower(segs[2]), eff.VideoExt) {
		c.String(http.StatusNotFound, "not found")
		return
	}

	full := filepath.Join(eff.Root, segs[0], segs[1], segs[2])
	if !IsSubpath(eff.Root, full) {
		c.String(http.StatusBadRequest, "invalid path")
		return
	}
	fi, err := os.Stat(full)
	if err != nil || !fi.Mode().IsRegular() {
		c.String(http.StatusNotFound, "not found")
		return
	}

	c.Header("Cache-Control", "public, max-age=60")
	// http.ServeContent 负责 Range 请求（<video> 拖动进度条需要）。
	c.File(full)
}

func isPlainName(s string) bool {
	if s == "" || s == "." || s == ".." {
		return false
	}
	return !strings.ContainsAny(s, `/\`) && !strings.ContainsRune(s, 0)
}

// IsSubpath 判断 p 在 base 之下（或等于 base）。两者都先 Clean。
func IsSubpath(base, p string) bool {
	base = filepath.Clean(base)
	p = filepath.Clean(p)
	rel, err := filepath.Rel(base, p)
	if err != nil {
		return false
	}
	return rel == "." || (rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)))
}
