package timestamp

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type fakeRunner struct {
	out  string
	err  error
	dir  string
	args []string
}

func (f *fakeRunner) Output(_ context.Context, dir, name string, args ...string) ([]byte, error) {
	f.dir = dir
	f.args = append([]string{name}, args...)
	return []byte(f.out), f.err
}

func fixedNow() time.Time { return time.Date(2026, 10, 18, 9, 30, 0, 0, time.Local) }

func TestResolve_GitDateOnly(t *testing.T) {
	r := &fakeRunner{out: "2025-05-26 02:59:55 -0700\n"}
	res := New(nil, fixedNow, &GitSource{Runner: r})

	got := res.Resolve(context.Background(), "/data/video/cat")
	require.Equal(t, time.Date(2025, 5, 26, 0, 0, 0, 0, time.Local), got)
	require.Equal(t, "/data/video/cat", r.dir)
	require.Equal(t, []string{"git", "log", "-1", "--format=%ci", "--", "."}, r.args)
}

func TestResolve_FallbackToClock(t *testing.T) {
	cases := []struct {
		name string
		r    *fakeRunner
	}{
		{"no history", &fakeRunner{out: "   \n"}},
		{"git failed", &fakeRunner{err: errors.New("exit status 128")}},
		{"garbage", &fakeRunner{out: "not-a-date 12:00"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			res := New(nil, fixedNow, &GitSource{Runner: tc.r})
			got, attempts := res.ResolveTrace(context.Background(), "/x")
			require.Equal(t, fixedNow(), got)
			require.Len(t, attempts, 2)
			require.Error(t, attempts[0].Err)
			require.Equal(t, SourceClock, attempts[1].Source)
		})
	}
}

func TestResolve_ChainFallsThroughToMtime(t *testing.T) {
	dir := t.TempDir()
	mt := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	require.NoError(t, os.Chtimes(dir, mt, mt))

	res := New(nil, fixedNow, &GitSource{Runner: &fakeRunner{err: errors.New("not a repo")}}, MtimeSource{})
	got := res.Resolve(context.Background(), dir)
	require.True(t, got.Equal(mt), "期望 mtime=%v，实际 %v", mt, got)
}

func TestResolve_TimeoutIsSwallowed(t *testing.T) {
	slow := runnerFunc(func(ctx context.Context) ([]byte, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	})
	res := New(nil, fixedNow, &GitSource{Runner: slow, Timeout: 10 * time.Millisecond})
	require.Equal(t, fixedNow(), res.Resolve(context.Background(), "/x"))
}

func TestResolve_RealGitOutsideRepoFallsBack(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "cat")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	// 无论 git 是否安装、是否位于仓库内，都不能失败。
	res := New(nil, fixedNow, &GitSource{})
	got := res.Resolve(context.Background(), dir)
	require.False(t, got.IsZero())
}

func TestBuildSources(t *testing.T) {
	srcs, err := BuildSources([]string{"git", "MTIME", "clock"}, Options{})
	require.NoError(t, err)
	require.Len(t, srcs, 2)
	require.Equal(t, SourceGit, srcs[0].Name())
	require.Equal(t, SourceMtime, srcs[1].Name())

	_, err = BuildSources([]string{"git", "git"}, Options{})
	require.Error(t, err)
	_, err = BuildSources([]string{"svn"}, Options{})
	require.Error(t, err)
}

func TestParseGitDate(t *testing.T) {
	ts, err := ParseGitDate("2025-12-01 23:59:59 +0900")
	require.NoError(t, err)
	require.Equal(t, 2025, ts.Year())
	require.Equal(t, time.December, ts.Month())
	require.Equal(t, 1, ts.Day())
	require.Equal(t, 0, ts.Hour())

	_, err = ParseGitDate("")
	require.Error(t, err)
}

type runnerFunc func(ctx context.Context) ([]byte, error)

func (f runnerFunc) Output(ctx context.Context, _, _ string, _ ...string) ([]byte, error) {
	return f(ctx)
}

func TestResolve_PassSharesClockFallback(t *testing.T) {
	var ticks int
	clock := func() time.Time {
		ticks++
		return fixedNow().Add(time.Duration(ticks) * time.Nanosecond)
	}
	res := New(nil, clock, &GitSource{Runner: &fakeRunner{err: errors.New("not a git repository")}})

	ctx := WithPass(context.Background())
	a := res.Resolve(ctx, "/a")
	b := res.Resolve(ctx, "/b")
	require.Equal(t, a, b, "同一批次内回退时刻必须一致")
	require.Equal(t, 1, ticks)

	// 新的批次重新读取时钟。
	c := res.Resolve(WithPass(context.Background()), "/c")
	require.True(t, c.After(a))
}
