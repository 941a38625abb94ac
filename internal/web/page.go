package web

import (
	"bytes"
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/John-Robertt/vidcmp/internal/app/view"
	"github.com/John-Robertt/vidcmp/internal/domain"
)

// querySelection 把 URL 的 category 参数作为 Selection。
type querySelection struct {
	c    *gin.Context
	name string
	set  bool
}

func (q *querySelection) Get() (string, bool) {
	return q.c.GetQuery("category")
}

func (q *querySelection) Set(name string) {
	q.name, q.set = name, true
}

type pageData struct {
	domain.Page
	Single    bool
	Canonical string // 选中 category 的规范地址；为空时不改写浏览器地址
}

func (s *Server) handlePage(c *gin.Context) {
	sel := &querySelection{c: c}
	page := s.renderer.ExecuteWithObserver(c.Request.Context(), sel, view.LogObserver{Logger: s.logger})

	data := pageData{Page: page, Single: len(page.Variants) == 1}
	// 规范化后的选择写回地址栏（replaceState），刷新页面会恢复同一个 category。
	if sel.set {
		data.Canonical = "/?category=" + url.QueryEscape(sel.name)
		c.Header("Content-Location", data.Canonical)
	}

	var buf bytes.Buffer
	if err := s.tpl.Execute(&buf, &data); err != nil {
		s.logger.Error("渲染页面失败", zap.Error(err))
		c.String(http.StatusInternalServerError, "render failed")
		return
	}
	c.Data(http.StatusOK, "text/html; charset=utf-8", buf.Bytes())
}

const pageTpl = `<!doctype html>
<html lang="en">
<meta charset="utf-8" />
<meta name="viewport" content="width=device-width, initial-scale=1" />
<title>Video Compare App</title>
<style>
body{font-family:system-ui,-apple-system,Segoe UI,Roboto;margin:0 auto;padding:1rem 2rem}
.error{background:#fde8e8;color:#9b1c1c;border-radius:6px;padding:10px 14px;margin:8px 0}
.warning{background:#fdf6b2;color:#723b13;border-radius:6px;padding:10px 14px}
pre{background:#f6f8fa;border-radius:6px;padding:10px;white-space:pre-wrap;word-break:break-word}
.cols{display:grid;gap:16px;align-items:start}
.single{max-width:50%;margin:0 auto}
video{width:100%}
figure{margin:0}
figcaption{color:#666;font-size:.85rem}
hr{border:0;border-top:1px solid #ddd;margin:24px 0}
</style>
<body{{with .Canonical}} data-canonical="{{.}}"{{end}}>
{{- if not .HasCategories}}
{{- range .Problems}}
<div class="error" data-code="{{.Code}}">{{.Message}}</div>
{{- end}}
{{- else}}
<h1>pi-vid-eval compare</h1>
{{- with .Canonical}}
<script>history.replaceState(null, "", {{.}});</script>
{{- end}}
<form method="get" action="/" id="selector">
  <label for="category">Select a Category</label>
  <select name="category" id="category" onchange="this.form.submit()">
  {{- range .Options}}
    <option value="{{.Name}}"{{if eq .Name $.Selected}} selected{{end}}>{{.Label}}</option>
  {{- end}}
  </select>
  <noscript><button type="submit">Show</button></noscript>
</form>
{{- range .Problems}}
<div class="error" data-code="{{.Code}}">{{.Message}}</div>
{{- end}}
{{- $single := .Single}}
{{- $variants := .Variants}}
{{- range .Rows}}
<section class="row{{if $single}} single{{end}}" data-index="{{.Index}}">
  <h3>Video {{inc .Index}}</h3>
  {{- if .Display}}
  <pre class="prompt" data-mode="{{.Display.Mode}}"><code class="language-{{.Display.Mode}}">{{.Display.Text}}</code></pre>
  {{- else}}
  <p class="prompt absent">No prompt available</p>
  {{- end}}
  <div class="cols" style="grid-template-columns:repeat({{len $variants}},1fr)">
  {{- range .Cells}}
    <div class="cell" data-variant="{{.Variant}}">
      <h4>{{.Variant}}</h4>
      {{- if .Video}}
      <figure>
        <video controls preload="metadata" src="{{mediaURL .Video.RelPath}}"></video>
        <figcaption>{{.Video.Name}}</figcaption>
      </figure>
      {{- else}}
      <div class="warning">No video available</div>
      {{- end}}
    </div>
  {{- end}}
  </div>
  <hr />
</section>
{{- end}}
{{- end}}
</body>
</html>
`
