package catalog

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/John-Robertt/vidcmp/internal/domain"
)

func sample() []domain.Category {
	return []domain.Category{
		{Name: "new-run", Timestamp: day(time.May, 26)},
		{Name: "foo-bar", Timestamp: day(time.May, 20)},
		{Name: "foo bar", Timestamp: day(time.May, 20)},
		{Name: "old", Timestamp: day(time.January, 2)},
	}
}

func TestIndex_CollisionLastWins(t *testing.T) {
	ix := NewIndex(sample(), false)

	require.Equal(t, []string{
		"[may 26] new run",
		"[may 20] foo bar",
		"[jan 02] old",
	}, ix.Labels())

	name, ok := ix.Name("[may 20] foo bar")
	require.True(t, ok)
	require.Equal(t, "foo bar", name)

	_, ok = ix.Label("foo-bar")
	require.False(t, ok, "被冲突隐藏的 category 不应有可见 label")
	require.True(t, ix.Hidden("foo-bar"))
	require.False(t, ix.Hidden("foo bar"))
	require.False(t, ix.Hidden("missing"))
	require.Equal(t, 4, ix.Len())

	opts := ix.Options()
	require.Equal(t, domain.LabelOption{Label: "[may 20] foo bar", Name: "foo bar"}, opts[1])
}

func TestIndex_Disambiguate(t *testing.T) {
	ix := NewIndex(sample(), true)
	require.Equal(t, []string{
		"[may 26] new run",
		"[may 20] foo bar (foo-bar)",
		"[may 20] foo bar (foo bar)",
		"[jan 02] old",
	}, ix.Labels())
	require.False(t, ix.Hidden("foo-bar"))

	c, ok := ix.Select("foo-bar")
	require.True(t, ok)
	require.Equal(t, "foo-bar", c.Name)
}

func TestIndex_SelectFallsBackToFirst(t *testing.T) {
	ix := NewIndex(sample(), false)

	c, ok := ix.Select("does-not-exist")
	require.True(t, ok)
	require.Equal(t, "new-run", c.Name)

	c, _ = ix.Select("old")
	require.Equal(t, "old", c.Name)

	// 隐藏的 category 也回退到第一个
	c, _ = ix.Select("foo-bar")
	require.Equal(t, "new-run", c.Name)

	_, ok = NewIndex(nil, false).Select("x")
	require.False(t, ok)
}

func TestRestore_WritesBackSelection(t *testing.T) {
	ix := NewIndex(sample(), false)

	sel := NewMemorySelection("gone")
	c, ok := Restore(ix, sel)
	require.True(t, ok)
	require.Equal(t, "new-run", c.Name)
	got, set := sel.Get()
	require.True(t, set)
	require.Equal(t, "new-run", got)

	sel = NewMemorySelection("")
	_, set = sel.Get()
	require.False(t, set)
	c, _ = Restore(ix, sel)
	require.Equal(t, "new-run", c.Name)

	c, _ = Restore(ix, NewMemorySelection("old"))
	require.Equal(t, "old", c.Name)
}
