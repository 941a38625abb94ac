package watch

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestWatcher_FiresOnceAfterBurst(t *testing.T) {
	defer goleak.VerifyNone(t)

	root := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(root, "cat"), 0o755))

	fired := make(chan struct{}, 8)
	w, err := New(root, 50*time.Millisecond, func() { fired <- struct{}{} }, nil)
	require.NoError(t, err)
	require.NoError(t, w.Start(context.Background()))
	defer w.Stop()

	require.NoError(t, os.Mkdir(filepath.Join(root, "cat", "variant"), 0o755))
	require.NoError(t, os.Mkdir(filepath.Join(root, "new-cat"), 0o755))

	select {
	case <-fired:
	case <-time.After(5 * time.Second):
		t.Fatalf("期望在变化后触发回调")
	}

	st := w.Stats()
	require.GreaterOrEqual(t, st.Events, 2)
	require.GreaterOrEqual(t, st.Watched, 3, "新建的 category 目录应被加入监听")
}

func TestWatcher_StopWithoutStart(t *testing.T) {
	defer goleak.VerifyNone(t)

	w, err := New(t.TempDir(), 0, func() {}, nil)
	require.NoError(t, err)
	w.Stop()
}

func TestWatcher_ContextCancelStopsLoop(t *testing.T) {
	defer goleak.VerifyNone(t)

	ctx, cancel := context.WithCancel(context.Background())
	w, err := New(t.TempDir(), 0, func() {}, nil)
	require.NoError(t, err)
	require.NoError(t, w.Start(ctx))
	cancel()
	w.Stop()
}

func TestNew_RequiresCallback(t *testing.T) {
	_, err := New(t.TempDir(), 0, nil, nil)
	require.ErrorIs(t, err, ErrNoCallback)
}

func TestStart_MissingRoot(t *testing.T) {
	defer goleak.VerifyNone(t)

	w, err := New(filepath.Join(t.TempDir(), "missing"), 0, func() {}, nil)
	require.NoError(t, err)
	require.Error(t, w.Start(context.Background()))
	w.Stop()
}
