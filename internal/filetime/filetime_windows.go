//go:build windows

package filetime

import (
	"os"
	"syscall"
	"time"
)

func platformTimes(_ string, fi os.FileInfo) (Times, error) {
	d, ok := fi.Sys().(*syscall.Win32FileAttributeData)
	if !ok {
		return fallbackTimes(fi), nil
	}

	return Times{
		Created:  time.Unix(0, d.CreationTime.Nanoseconds()),
		Modified: time.Unix(0, d.LastWriteTime.Nanoseconds()),
		Accessed: time.Unix(0, d.LastAccessTime.Nanoseconds()),
	}, nil
}
