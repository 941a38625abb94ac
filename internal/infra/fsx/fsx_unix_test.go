//go:build unix

package fsx

import (
	"os"
	"path/filepath"
	"syscall"
	"testing"
)

func TestWriteFile_CrossDeviceKeepsTarget(t *testing.T) {
	dir := t.TempDir()
	dst := filepath.Join(dir, "page.json")
	if err := os.WriteFile(dst, []byte("old"), 0o644); err != nil {
		t.Fatalf("不期望错误：%v", err)
	}

	old := renameFunc
	renameFunc = func(oldpath, newpath string) error {
		return &os.LinkError{Op: "rename", Old: oldpath, New: newpath, Err: syscall.EXDEV}
	}
	t.Cleanup(func() { renameFunc = old })

	err := WriteFile(dst, []byte("new"), Replace)
	if !IsCrossDevice(err) {
		t.Fatalf("期望 CrossDeviceError，实际：%T %v", err, err)
	}
	b, _ := os.ReadFile(dst)
	if string(b) != "old" {
		t.Fatalf("期望目标不变，实际 %q", b)
	}
	entries, _ := os.ReadDir(dir)
	if len(entries) != 1 {
		t.Fatalf("期望只剩目标文件，实际 %d 个条目", len(entries))
	}
}
