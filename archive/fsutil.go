package archive

import (
	"context"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/pkg/errors"
)

const (
	archiveFileMode = 0o600
	restoreDirMode  = 0o755
)

// SourceEntry is a file or directory found while walking the archive source.
type SourceEntry struct {
	// Path is the local path of the entry.
	Path string

	// Name is the slash-separated name of the entry within the archive. Directory names end with "/".
	Name string

	Info os.FileInfo
}

// CheckArchivePaths verifies the preconditions of an archive operation.
func CheckArchivePaths(sourcePath, targetFilePath string) error {
	if sourcePath == "" {
		return errors.Wrap(ErrInvalidArgument, "source path must be provided")
	}

	if targetFilePath == "" {
		return errors.Wrap(ErrInvalidArgument, "target file path must be provided")
	}

	st, err := os.Stat(sourcePath)
	if err != nil {
		return errors.Wrapf(ErrInvalidArgument, "source directory %v: %v", sourcePath, err)
	}

	if !st.IsDir() {
		return errors.Wrapf(ErrInvalidArgument, "source %v is not a directory", sourcePath)
	}

	if _, err := os.Lstat(targetFilePath); err == nil {
		return errors.Wrapf(ErrArchiveExists, "%v", targetFilePath)
	}

	return nil
}

// CreateArchiveFile creates a new archive file, failing if it already exists.
func CreateArchiveFile(targetFilePath string) (*os.File, error) {
	f, err := os.OpenFile(targetFilePath, os.O_CREATE|os.O_EXCL|os.O_WRONLY, archiveFileMode) //nolint:gosec
	if err != nil {
		if os.IsExist(err) {
			return nil, errors.Wrapf(ErrArchiveExists, "%v", targetFilePath)
		}

		return nil, errors.Wrap(err, "unable to create archive file")
	}

	return f, nil
}

// FinishArchiveFile closes the archive file and removes it when the archive operation failed.
func FinishArchiveFile(ctx context.Context, f *os.File, err error) error {
	closeErr := f.Close()

	if err == nil && closeErr != nil {
		err = errors.Wrap(closeErr, "unable to close archive file")
	}

	if err != nil {
		if rmErr := os.Remove(f.Name()); rmErr != nil && !os.IsNotExist(rmErr) {
			log(ctx).Warnf("unable to remove incomplete archive %v: %v", f.Name(), rmErr)
		}
	}

	return err
}

// WalkSource invokes the callback for every directory and regular file under sourcePath in
// lexicographic order. Other entry types are skipped.
func WalkSource(ctx context.Context, sourcePath string, includeBaseDirectory bool, cb func(e SourceEntry) error) error {
	var prefix string

	if includeBaseDirectory {
		abs, err := filepath.Abs(sourcePath)
		if err != nil {
			return errors.Wrapf(err, "unable to resolve %v", sourcePath)
		}

		prefix = filepath.Base(abs) + "/"
	}

	//nolint:wrapcheck
	return filepath.WalkDir(sourcePath, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return errors.Wrapf(err, "error walking %v", p)
		}

		if err := ctx.Err(); err != nil {
			return errors.Wrap(err, "archive canceled")
		}

		rel, err := filepath.Rel(sourcePath, p)
		if err != nil {
			return errors.Wrap(err, "unable to determine relative path")
		}

		info, err := d.Info()
		if err != nil {
			return errors.Wrapf(err, "unable to get file info of %v", p)
		}

		name := filepath.ToSlash(rel)

		switch {
		case rel == ".":
			if prefix == "" {
				return nil
			}

			name = prefix

		case d.IsDir():
			name = prefix + name + "/"

		case info.Mode().IsRegular():
			name = prefix + name

		default:
			log(ctx).Warnf("skipping %v, only regular files and directories are archived", p)
			return nil
		}

		return cb(SourceEntry{Path: p, Name: name, Info: info})
	})
}

// CheckRestorePaths verifies the preconditions of a restore operation before anything is extracted.
func CheckRestorePaths(ad *ArchivedDirectory, targetPath string) error {
	if err := ad.Validate(); err != nil {
		return err
	}

	if targetPath == "" {
		return errors.Wrap(ErrInvalidArgument, "target path must be provided")
	}

	st, err := os.Stat(ad.ArchiveFilePath)
	if err != nil {
		return errors.Wrapf(ErrArchiveNotExists, "%v", ad.ArchiveFilePath)
	}

	if !st.Mode().IsRegular() {
		return errors.Wrapf(ErrArchiveNotExists, "%v is not a file", ad.ArchiveFilePath)
	}

	if _, err := os.Lstat(targetPath); err == nil {
		return errors.Wrapf(ErrTargetExists, "%v", targetPath)
	}

	return nil
}

// BeginRestore creates the restore target directory.
func BeginRestore(targetPath string) error {
	if err := os.MkdirAll(filepath.Dir(targetPath), restoreDirMode); err != nil {
		return errors.Wrap(err, "unable to create parent of restore target")
	}

	if err := os.Mkdir(targetPath, restoreDirMode); err != nil {
		if os.IsExist(err) {
			return errors.Wrapf(ErrTargetExists, "%v", targetPath)
		}

		return errors.Wrap(err, "unable to create restore target")
	}

	return nil
}

// FinishRestore removes the partially restored target when the restore failed.
func FinishRestore(ctx context.Context, targetPath string, err error) error {
	if err != nil {
		if rmErr := os.RemoveAll(targetPath); rmErr != nil {
			log(ctx).Warnf("unable to remove incomplete restore %v: %v", targetPath, rmErr)
		}
	}

	return err
}

// SafeJoin returns the local path of an archive entry under targetPath, rejecting names
// that would escape it.
func SafeJoin(targetPath, name string) (string, error) {
	clean := path.Clean("/" + strings.ReplaceAll(name, "\\", "/"))

	if name == "" || path.IsAbs(name) || strings.HasPrefix(name, "\\") || filepath.VolumeName(name) != "" {
		return "", errors.Wrapf(ErrUnsafeEntry, "%q", name)
	}

	for _, part := range strings.Split(strings.ReplaceAll(name, "\\", "/"), "/") {
		if part == ".." {
			return "", errors.Wrapf(ErrUnsafeEntry, "%q", name)
		}
	}

	return filepath.Join(targetPath, filepath.FromSlash(strings.TrimPrefix(clean, "/"))), nil
}

// WriteRestoredFile writes the contents of a single archive entry to disk, preserving
// permissions and modification time.
func WriteRestoredFile(localPath string, r io.Reader, mode fs.FileMode, modTime time.Time) error {
	if err := os.MkdirAll(filepath.Dir(localPath), restoreDirMode); err != nil {
		return errors.Wrap(err, "unable to create parent directory")
	}

	perm := mode.Perm()
	if perm == 0 {
		perm = archiveFileMode
	}

	f, err := os.OpenFile(localPath, os.O_CREATE|os.O_EXCL|os.O_WRONLY, perm) //nolint:gosec
	if err != nil {
		return errors.Wrapf(err, "unable to create %v", localPath)
	}

	if _, err := io.Copy(f, r); err != nil { //nolint:gosec
		f.Close() //nolint:errcheck
		return errors.Wrapf(err, "unable to write %v", localPath)
	}

	if err := f.Close(); err != nil {
		return errors.Wrapf(err, "unable to close %v", localPath)
	}

	if !modTime.IsZero() {
		if err := os.Chtimes(localPath, modTime, modTime); err != nil {
			return errors.Wrapf(err, "unable to set modification time of %v", localPath)
		}
	}

	return nil
}

// MkdirRestored creates a directory entry of the archive.
func MkdirRestored(localPath string) error {
	return errors.Wrapf(os.MkdirAll(localPath, restoreDirMode), "unable to create %v", localPath)
}
