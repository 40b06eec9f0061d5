//go:build !windows && !darwin

package ospath

import (
	"os"
	"path/filepath"
)

func init() {
	if d, err := os.UserCacheDir(); err == nil {
		userLogsDir = d
		return
	}

	userLogsDir = filepath.Join(os.TempDir(), "filejanitor-"+os.Getenv("USER"))
}
