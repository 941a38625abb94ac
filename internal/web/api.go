package web

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/John-Robertt/vidcmp/internal/app/view"
	"github.com/John-Robertt/vidcmp/internal/catalog"
	"github.com/John-Robertt/vidcmp/internal/domain"
)

// CategoryInfo 是 /api/categories 的列表项。
// Hidden=true 表示该 category 的 label 与更晚列出的 category 冲突，在选择控件中不可见。
type CategoryInfo struct {
	Name      string    `json:"name"`
	Label     string    `json:"label"`
	Timestamp time.Time `json:"timestamp"`
	Hidden    bool      `json:"hidden"`
}

// CategoryInfos 按 catalog 顺序（时间倒序）列出全部 category。
func CategoryInfos(ix *catalog.Index) []CategoryInfo {
	cats := ix.Categories()
	out := make([]CategoryInfo, 0, len(cats))
	for _, c := range cats {
		label, ok := ix.Label(c.Name)
		if !ok {
			label = catalog.Label(c)
		}
		out = append(out, CategoryInfo{
			Name:      c.Name,
			Label:     label,
			Timestamp: c.Timestamp.UTC(),
			Hidden:    !ok,
		})
	}
	return out
}

func (s *Server) handleCategories(c *gin.Context) {
	ix, err := s.renderer.Catalog(c.Request.Context())
	if err != nil || ix.Len() == 0 {
		c.JSON(http.StatusOK, gin.H{
			"categories": []CategoryInfo{},
			"problems": []domain.Problem{{
				Code:    domain.ProblemNoCategories,
				Message: "No categories found.",
			}},
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"categories": CategoryInfos(ix),
		"problems":   []domain.Problem{},
	})
}

func (s *Server) handleCategory(c *gin.Context) {
	page := s.renderer.Category(c.Request.Context(), c.Param("name"), view.LogObserver{Logger: s.logger})
	status := http.StatusOK
	if _, ok := page.Problem(domain.ProblemCategoryNotFound); ok {
		status = http.StatusNotFound
	} else if view.IsNoCategories(page) {
		status = http.StatusNotFound
	}
	c.JSON(status, page)
}

func (s *Server) handleRefresh(c *gin.Context) {
	store := s.renderer.Cache()
	store.Invalidate()
	c.JSON(http.StatusOK, gin.H{
		"status":        "ok",
		"cache_enabled": store != nil,
	})
}
