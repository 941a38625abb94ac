package view

import (
	"context"
	"os"
	"path/filepath"
	"reflect"
	"sync"
	"testing"
	"time"

	"github.com/John-Robertt/vidcmp/internal/catalog"
	"github.com/John-Robertt/vidcmp/internal/config"
	"github.com/John-Robertt/vidcmp/internal/domain"
)

type stubResolver map[string]time.Time

func (s stubResolver) Resolve(_ context.Context, path string) time.Time {
	return s[filepath.Base(path)]
}

type recordObserver struct {
	mu sync.Mutex

	startCalls int
	phases     []string
	problems   []string
}

func (o *recordObserver) OnStart(config.EffectiveConfig) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.startCalls++
}

func (o *recordObserver) OnPhaseDone(name string, _ map[string]any, _ time.Duration) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.phases = append(o.phases, name)
}

func (o *recordObserver) OnProblem(p domain.Problem) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.problems = append(o.problems, p.Code)
}

func touch(t *testing.T, path string, body string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("创建目录失败：%v", err)
	}
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("写入文件失败：%v", err)
	}
}

func mkdir(t *testing.T, path string) {
	t.Helper()
	if err := os.MkdirAll(path, 0o755); err != nil {
		t.Fatalf("创建目录失败：%v", err)
	}
}

// fixture:
//
//	root/
//	  t2v/            (最新) prompt.txt(2 条) + A(3 个视频) + B(5 个视频)
//	  empty-cat/      prompt.txt，没有子目录
//	  no-prompt/      只有 only/ 子目录
//	  bare/           (最旧) 没有 prompt 也没有子目录
func fixture(t *testing.T) (config.EffectiveConfig, stubResolver) {
	t.Helper()
	cwd := t.TempDir()
	root := filepath.Join(cwd, "video")

	touch(t, filepath.Join(root, "t2v", "prompt.txt"), `{"b":1,"a":[1,2]}`+"-------"+"a cat, a dog")
	for _, n := range []string{"video3.mp4", "video1.mp4", "video2.mp4"} {
		touch(t, filepath.Join(root, "t2v", "A", n), "x")
	}
	for _, n := range []string{"video10.mp4", "video2.mp4", "video1.mp4", "bogus.mp4", "video5.MP4"} {
		touch(t, filepath.Join(root, "t2v", "B", n), "x")
	}
	touch(t, filepath.Join(root, "empty-cat", "prompt.txt"), "p")
	touch(t, filepath.Join(root, "no-prompt", "only", "video1.mp4"), "x")
	mkdir(t, filepath.Join(root, "bare"))

	eff, err := config.LoadEffective(cwd, config.CLIArgs{})
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	res := stubResolver{
		"t2v":       time.Date(2025, 5, 26, 0, 0, 0, 0, time.Local),
		"empty-cat": time.Date(2025, 5, 20, 0, 0, 0, 0, time.Local),
		"no-prompt": time.Date(2025, 4, 1, 0, 0, 0, 0, time.Local),
		"bare":      time.Date(2025, 1, 1, 0, 0, 0, 0, time.Local),
	}
	return eff, res
}

func newRenderer(t *testing.T, eff config.EffectiveConfig, res stubResolver) *Renderer {
	t.Helper()
	r, err := New(eff, Deps{Resolver: res})
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	return r
}

func TestExecute_DefaultSelectsNewestAndAligns(t *testing.T) {
	eff, res := fixture(t)
	r := newRenderer(t, eff, res)

	sel := catalog.NewMemorySelection("")
	page := r.Execute(context.Background(), sel)

	if len(page.Problems) != 0 {
		t.Fatalf("不期望问题：%+v", page.Problems)
	}
	if page.Selected != "t2v" || page.Label != "[may 26] t2v" {
		t.Fatalf("期望选中 t2v，实际 %q (%q)", page.Selected, page.Label)
	}
	if got, _ := sel.Get(); got != "t2v" {
		t.Fatalf("选择应写回 Selection，实际 %q", got)
	}
	wantOpts := []string{"t2v", "empty-cat", "no-prompt", "bare"}
	for i, o := range page.Options {
		if o.Name != wantOpts[i] {
			t.Fatalf("选项顺序不符：%+v", page.Options)
		}
	}
	if !reflect.DeepEqual(page.Variants, []string{"A", "B"}) {
		t.Fatalf("variant 顺序不符：%v", page.Variants)
	}
	if len(page.Rows) != 5 || page.Prompts != 2 {
		t.Fatalf("期望 5 行 2 条 prompt，实际 %d 行 %d 条", len(page.Rows), page.Prompts)
	}

	var b []string
	for _, row := range page.Rows {
		if v := row.Cells[1].Video; v != nil {
			b = append(b, v.Name)
		}
	}
	// 后缀剥离区分大小写：video5.MP4 无法解析编号，与 bogus.mp4 一起按列举顺序排在最后。
	wantB := []string{"video1.mp4", "video2.mp4", "video10.mp4", "bogus.mp4", "video5.MP4"}
	if !reflect.DeepEqual(b, wantB) {
		t.Fatalf("B 的排序不符：got=%v want=%v", b, wantB)
	}
	for _, i := range []int{3, 4} {
		if page.Rows[i].Cells[0].Video != nil {
			t.Fatalf("行 %d 的 A 应缺失", i)
		}
		if page.Rows[i].Prompt != nil || page.Rows[i].Display != nil {
			t.Fatalf("行 %d 的 prompt 应缺失", i)
		}
	}

	if d := page.Rows[0].Display; d == nil || d.Mode != domain.RenderStructured {
		t.Fatalf("第 0 行应为 json 模式：%+v", d)
	}
	if d := page.Rows[1].Display; d == nil || d.Mode != domain.RenderPlain || d.Text != "a cat,\n a dog" {
		t.Fatalf("第 1 行应为 text 模式：%+v", d)
	}
	if got := page.Rows[0].Cells[0].Video.RelPath; got != "t2v/A/video1.mp4" {
		t.Fatalf("RelPath 不符：%q", got)
	}
}

func TestExecute_UnknownSelectionFallsBackToNewest(t *testing.T) {
	eff, res := fixture(t)
	r := newRenderer(t, eff, res)

	page := r.Execute(context.Background(), catalog.NewMemorySelection("gone"))
	if page.Selected != "t2v" {
		t.Fatalf("期望回退到 t2v，实际 %q", page.Selected)
	}
}

func TestExecute_NoVariantsIsDistinct(t *testing.T) {
	eff, res := fixture(t)
	r := newRenderer(t, eff, res)

	page := r.Execute(context.Background(), catalog.NewMemorySelection("empty-cat"))
	if _, ok := page.Problem(domain.ProblemNoVariants); !ok {
		t.Fatalf("期望 no_variants，实际 %+v", page.Problems)
	}
	if _, ok := page.Problem(domain.ProblemMissingPrompt); ok {
		t.Fatalf("不期望 missing_prompt_file")
	}
	if len(page.Rows) != 0 {
		t.Fatalf("no_variants 时不应有行")
	}
	if page.Prompts != 1 {
		t.Fatalf("期望 1 条 prompt，实际 %d", page.Prompts)
	}
}

func TestExecute_MissingPromptReportedButGridStillBuilt(t *testing.T) {
	eff, res := fixture(t)
	r := newRenderer(t, eff, res)

	page := r.Execute(context.Background(), catalog.NewMemorySelection("no-prompt"))
	if len(page.Problems) != 1 || page.Problems[0].Code != domain.ProblemMissingPrompt {
		t.Fatalf("期望只有 missing_prompt_file，实际 %+v", page.Problems)
	}
	if len(page.Rows) != 1 || page.Rows[0].Prompt != nil {
		t.Fatalf("期望 1 行且 prompt 缺失：%+v", page.Rows)
	}
}

func TestExecute_BothProblemsPromptFirst(t *testing.T) {
	eff, res := fixture(t)
	r := newRenderer(t, eff, res)

	obs := &recordObserver{}
	page := r.ExecuteWithObserver(context.Background(), catalog.NewMemorySelection("bare"), obs)
	want := []string{domain.ProblemMissingPrompt, domain.ProblemNoVariants}
	var got []string
	for _, p := range page.Problems {
		got = append(got, p.Code)
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("问题顺序不符：got=%v want=%v", got, want)
	}
	if !reflect.DeepEqual(obs.problems, want) {
		t.Fatalf("observer 问题事件不符：%v", obs.problems)
	}
	if obs.startCalls != 1 {
		t.Fatalf("期望 OnStart 调用 1 次，实际 %d", obs.startCalls)
	}
	if !reflect.DeepEqual(obs.phases, []string{"catalog", "prompt", "align"}) {
		t.Fatalf("阶段事件不符：%v", obs.phases)
	}
}

func TestExecute_NoCategories(t *testing.T) {
	cwd := t.TempDir()
	eff := config.Default(cwd) // <cwd>/video 不存在

	r := newRenderer(t, eff, stubResolver{})
	page := r.Execute(context.Background(), nil)
	if !IsNoCategories(page) {
		t.Fatalf("期望 no_categories，实际 %+v", page.Problems)
	}
	if page.HasCategories() || page.Options == nil || page.Rows == nil {
		t.Fatalf("Finalize 后应为空切片：%+v", page)
	}

	mkdir(t, eff.Root)
	page = r.Execute(context.Background(), nil)
	if !IsNoCategories(page) {
		t.Fatalf("空根目录也应为 no_categories")
	}
}

func TestCategory_ExactLookup(t *testing.T) {
	eff, res := fixture(t)
	r := newRenderer(t, eff, res)

	page := r.Category(context.Background(), "no-prompt", nil)
	if page.Selected != "no-prompt" {
		t.Fatalf("期望 no-prompt，实际 %q", page.Selected)
	}

	page = r.Category(context.Background(), "gone", nil)
	if _, ok := page.Problem(domain.ProblemCategoryNotFound); !ok {
		t.Fatalf("期望 category_not_found，实际 %+v", page.Problems)
	}
	if page.Selected != "" || len(page.Rows) != 0 {
		t.Fatalf("未找到时不应选中任何 category")
	}
}

func TestNilObserver_SameResult(t *testing.T) {
	eff, res := fixture(t)
	fixed := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	r, err := New(eff, Deps{Resolver: res, Now: func() time.Time { return fixed }})
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}

	a := r.Execute(context.Background(), catalog.NewMemorySelection("t2v"))
	b := r.ExecuteWithObserver(context.Background(), catalog.NewMemorySelection("t2v"), LogObserver{})
	if !reflect.DeepEqual(a, b) {
		t.Fatalf("observer 不应改变结果：\na=%+v\nb=%+v", a, b)
	}
}

func TestNew_CacheFromConfig(t *testing.T) {
	eff, res := fixture(t)
	eff.CacheEnabled = true
	r := newRenderer(t, eff, res)
	if r.Cache() == nil {
		t.Fatalf("cache.enabled=true 时应创建缓存")
	}
	_ = r.Execute(context.Background(), nil)
	_ = r.Execute(context.Background(), nil)
	if st := r.Cache().Stats(); st.Hits != 1 {
		t.Fatalf("第二次渲染应命中缓存：%+v", st)
	}
}
