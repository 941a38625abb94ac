package prompt

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"github.com/John-Robertt/vidcmp/internal/domain"
)

func writePrompt(t *testing.T, content string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), DefaultFileName)
	require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	return p
}

func TestLoad_MissingFileIsAbsent(t *testing.T) {
	ps, err := Load(filepath.Join(t.TempDir(), DefaultFileName))
	require.NoError(t, err)
	require.Nil(t, ps)
}

func TestLoad_SeparatorWinsOverNewlines(t *testing.T) {
	ps, err := Load(writePrompt(t, "a cat\non a mat\n-------\n{\"k\": 1}\n-------\nlast"))
	require.NoError(t, err)
	require.NotNil(t, ps)

	want := []string{"a cat\non a mat\n", "\n{\"k\": 1}\n", "\nlast"}
	if diff := cmp.Diff(want, ps.Entries); diff != "" {
		t.Fatalf("条目不一致 (-want +got):\n%s", diff)
	}
}

func TestLoad_LinesPreserveEmpty(t *testing.T) {
	ps, err := Load(writePrompt(t, "one\n\nthree\n"))
	require.NoError(t, err)
	require.Equal(t, []string{"one", "", "three", ""}, ps.Entries)
}

func TestLoad_EmptyFileYieldsSingleEmptyEntry(t *testing.T) {
	ps, err := Load(writePrompt(t, ""))
	require.NoError(t, err)
	require.NotNil(t, ps)
	require.Equal(t, []string{""}, ps.Entries)
}

func TestSplit_SeparatorOnly(t *testing.T) {
	require.Equal(t, []string{"", ""}, Split(Separator))
	// 八个连字符：第一段为空，剩余一个 '-'。
	require.Equal(t, []string{"", "-"}, Split(Separator+"-"))
}

func TestRender_StructuredKeepsKeyOrder(t *testing.T) {
	r := Render("\n{\"z\": 1, \"a\": [1, 2], \"m\": {\"x\": null}}\n")
	require.Equal(t, domain.RenderStructured, r.Mode)
	want := "{\n  \"z\": 1,\n  \"a\": [\n    1,\n    2\n  ],\n  \"m\": {\n    \"x\": null\n  }\n}"
	require.Equal(t, want, r.Text)
}

func TestRender_StructuredRoundTrip(t *testing.T) {
	in := `{"prompt":"a dog, running","seed":42,"tags":["x","y"],"nested":{"ok":true,"v":1.5}}`
	r := Render(in)
	require.Equal(t, domain.RenderStructured, r.Mode)

	var a, b any
	require.NoError(t, json.Unmarshal([]byte(in), &a))
	require.NoError(t, json.Unmarshal([]byte(r.Text), &b))
	if diff := cmp.Diff(a, b); diff != "" {
		t.Fatalf("重新序列化后内容不一致 (-in +out):\n%s", diff)
	}
}

func TestRender_ScalarJSONIsStructured(t *testing.T) {
	r := Render(" 123 ")
	require.Equal(t, domain.RenderStructured, r.Mode)
	require.Equal(t, "123", r.Text)
}

func TestRender_PlainBreaksAfterCommas(t *testing.T) {
	r := Render("a red car, at night, raining")
	require.Equal(t, domain.RenderPlain, r.Mode)
	require.Equal(t, "a red car,\n at night,\n raining", r.Text)
}

func TestRender_EmptyEntryIsPlain(t *testing.T) {
	r := Render("")
	require.Equal(t, domain.RenderPlain, r.Mode)
	require.Equal(t, "", r.Text)
}

func TestLoad_NormalizesCRLF(t *testing.T) {
	ps, err := Load(writePrompt(t, "one\r\ntwo\r\n"))
	require.NoError(t, err)
	require.Equal(t, []string{"one", "two", ""}, ps.Entries)

	ps, err = Load(writePrompt(t, "a\r-------\r\nb"))
	require.NoError(t, err)
	require.Equal(t, []string{"a\n", "\nb"}, ps.Entries)
}

func TestRender_NonFiniteNumbersAreStructured(t *testing.T) {
	r := Render(`{"score": NaN, "range": [-Infinity, Infinity], "note": "NaN stays text"}`)
	require.Equal(t, domain.RenderStructured, r.Mode)
	want := "{\n  \"score\": NaN,\n  \"range\": [\n    -Infinity,\n    Infinity\n  ],\n  \"note\": \"NaN stays text\"\n}"
	require.Equal(t, want, r.Text)

	require.Equal(t, domain.RenderPlain, Render("NaN, maybe").Mode)
}
