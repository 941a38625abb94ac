//go:build unix

package fsx

import (
	"errors"
	"syscall"
)

// isEXDEV 识别 rename 的跨文件系统失败；errors.Is 会穿透 *os.LinkError。
func isEXDEV(err error) bool {
	return err != nil && errors.Is(err, syscall.EXDEV)
}
