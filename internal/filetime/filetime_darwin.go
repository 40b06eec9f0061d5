//go:build darwin

package filetime

import (
	"os"
	"syscall"
	"time"
)

func platformTimes(_ string, fi os.FileInfo) (Times, error) {
	st, ok := fi.Sys().(*syscall.Stat_t)
	if !ok {
		return fallbackTimes(fi), nil
	}

	return Times{
		Created:  time.Unix(st.Birthtimespec.Unix()),
		Modified: time.Unix(st.Mtimespec.Unix()),
		Accessed: time.Unix(st.Atimespec.Unix()),
	}, nil
}
