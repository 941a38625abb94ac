// Package fsx 提供原子文件写入（临时文件 + rename），供导出页面 JSON 使用。
package fsx

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
)

// 通过可替换的函数指针，让测试能稳定模拟 rename 失败与 EXDEV。
var renameFunc = os.Rename

// Mode 决定目标已存在时的行为。
type Mode int

const (
	// NoOverwrite：目标已存在时返回 *ExistsError。
	NoOverwrite Mode = iota
	// Replace：覆盖已存在的普通文件。
	Replace
)

// ExistsError 表示目标文件已存在且不允许覆盖（errors.Is(err, os.ErrExist) 为 true）。
type ExistsError struct {
	Path string
}

func (e *ExistsError) Error() string {
	return fmt.Sprintf("目标文件已存在：%q（使用 --force 覆盖）", e.Path)
}

func (e *ExistsError) Unwrap() error { return os.ErrExist }

// PathTypeConflictError 表示目标路径类型冲突（例如期望文件但实际是目录）。
type PathTypeConflictError struct {
	Path string
	Want string
	Got  string
}

func (e *PathTypeConflictError) Error() string {
	return fmt.Sprintf("目标路径类型冲突：%q（期望 %s，实际 %s）", e.Path, e.Want, e.Got)
}

func IsPathTypeConflict(err error) bool {
	var e *PathTypeConflictError
	return errors.As(err, &e)
}

// CrossDeviceError 表示 rename 跨越文件系统（EXDEV）。
// 临时文件总在目标目录内创建，出现它通常意味着目标目录是挂载点上的特殊文件系统。
type CrossDeviceError struct {
	Src string
	Dst string
	Err error
}

func (e *CrossDeviceError) Error() string {
	return fmt.Sprintf("跨文件系统 rename 失败（EXDEV）：%q -> %q：%v", e.Src, e.Dst, e.Err)
}

func (e *CrossDeviceError) Unwrap() error { return e.Err }

// IsCrossDevice 判断 err 是否为跨盘（EXDEV）错误。
func IsCrossDevice(err error) bool {
	var e *CrossDeviceError
	return errors.As(err, &e)
}

// Rename 封装 os.Rename，并把 EXDEV 显式标记为 CrossDeviceError。
func Rename(src, dst string) error {
	if err := renameFunc(src, dst); err != nil {
		if isEXDEV(err) {
			return &CrossDeviceError{Src: src, Dst: dst, Err: err}
		}
		return err
	}
	return nil
}

// WriteFile 原子写入 path（父目录不存在时创建）。
//
// 约束：
// - 目标是目录或非普通文件时返回 *PathTypeConflictError（两种模式都一样）
// - NoOverwrite 下目标已存在返回 *ExistsError
// - 失败时不留下临时文件，也不改动已有目标
func WriteFile(path string, data []byte, mode Mode) error {
	path = filepath.Clean(path)
	if fi, err := os.Lstat(path); err == nil {
		if fi.IsDir() {
			return &PathTypeConflictError{Path: path, Want: "file", Got: "dir"}
		}
		if !fi.Mode().IsRegular() {
			return &PathTypeConflictError{Path: path, Want: "regular file", Got: fi.Mode().Type().String()}
		}
		if mode != Replace {
			return &ExistsError{Path: path}
		}
	} else if !os.IsNotExist(err) {
		return err
	}
	return writeAtomic(filepath.Dir(path), filepath.Base(path), data, 0o644)
}

func writeAtomic(dir, name string, data []byte, perm os.FileMode) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	dst := filepath.Join(dir, name)

	// 同目录临时文件（前缀 '.'，不会出现在 category 列表里）。
	tmp, err := os.CreateTemp(dir, "."+name+".tmp-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer func() {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
	}()

	if err := writeAll(tmp, data); err != nil {
		return err
	}
	if err := tmp.Chmod(perm); err != nil {
		return err
	}
	if err := tmp.Sync(); err != nil {
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}

	if err := Rename(tmpName, dst); err != nil {
		return err
	}

	// 目录 fsync：best-effort。
	_ = syncDirBestEffort(dir)
	return nil
}

func writeAll(w io.Writer, b []byte) error {
	for len(b) > 0 {
		n, err := w.Write(b)
		if err != nil {
			return err
		}
		b = b[n:]
	}
	return nil
}

func syncDirBestEffort(dir string) error {
	if runtime.GOOS == "windows" {
		return nil
	}
	f, err := os.Open(dir)
	if err != nil {
		return err
	}
	defer f.Close()
	return f.Sync()
}
