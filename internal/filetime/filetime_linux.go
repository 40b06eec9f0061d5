//go:build linux

package filetime

import (
	"os"
	"time"

	"golang.org/x/sys/unix"
)

func statxTime(ts unix.StatxTimestamp) time.Time {
	return time.Unix(ts.Sec, int64(ts.Nsec))
}

func platformTimes(path string, fi os.FileInfo) (Times, error) {
	var st unix.Statx_t

	mask := unix.STATX_BTIME | unix.STATX_ATIME | unix.STATX_MTIME | unix.STATX_CTIME

	if err := unix.Statx(unix.AT_FDCWD, path, unix.AT_SYMLINK_NOFOLLOW, mask, &st); err != nil {
		// statx is not available everywhere, fall back to what os.Lstat gave us.
		return fallbackTimes(fi), nil //nolint:nilerr
	}

	t := Times{
		Modified: statxTime(st.Mtime),
		Accessed: statxTime(st.Atime),
	}

	if st.Mask&unix.STATX_BTIME != 0 {
		t.Created = statxTime(st.Btime)
	} else {
		// file system does not record birth time, inode change time is the closest approximation.
		t.Created = statxTime(st.Ctime)
	}

	return t, nil
}
