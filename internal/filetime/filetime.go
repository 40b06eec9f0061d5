// Package filetime resolves creation, modification and access timestamps of local files.
package filetime

import (
	"os"
	"time"

	"github.com/pkg/errors"
)

// Times holds the timestamps of a single file, all in UTC.
type Times struct {
	Created  time.Time
	Modified time.Time
	Accessed time.Time
}

// Get returns timestamps of the file at the provided path. Symbolic links are not followed.
func Get(path string) (Times, error) {
	fi, err := os.Lstat(path)
	if err != nil {
		return Times{}, errors.Wrap(err, "unable to stat file")
	}

	return FromFileInfo(path, fi)
}

// FromFileInfo returns timestamps based on an already-retrieved os.FileInfo, querying the
// operating system for values not present in it.
func FromFileInfo(path string, fi os.FileInfo) (Times, error) {
	t, err := platformTimes(path, fi)
	if err != nil {
		return Times{}, err
	}

	t.Created = t.Created.UTC()
	t.Modified = t.Modified.UTC()
	t.Accessed = t.Accessed.UTC()

	return t, nil
}
