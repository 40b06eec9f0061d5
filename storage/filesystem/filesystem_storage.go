// Package filesystem implements filesystem-based FileManager.
package filesystem

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/pkg/errors"

	"github.com/kopia/filejanitor/internal/atomicfile"
	"github.com/kopia/filejanitor/logging"
	"github.com/kopia/filejanitor/storage"
	"github.com/kopia/filejanitor/storage/pathstore"
)

var log = logging.Module("storage/filesystem")

const (
	fsStorageType = "filesystem"

	fsDefaultDirMode os.FileMode = 0o700
)

type fsStorage struct {
	pathstore.Storage

	opts Options
}

type fsImpl struct {
	Options
}

func (fs *fsImpl) translateError(err error) error {
	if os.IsNotExist(err) {
		return errors.Wrap(storage.ErrFileNotFound, err.Error())
	}

	return err
}

func (fs *fsImpl) OpenFileInPath(ctx context.Context, filePath string) (io.ReadCloser, error) {
	f, err := os.Open(atomicfile.MaybePrefixLongFilenameOnWindows(filepath.FromSlash(filePath)))
	if err != nil {
		return nil, fs.translateError(err)
	}

	return f, nil
}

func (fs *fsImpl) PutFileInPath(ctx context.Context, dirPath, filePath string, r io.Reader) error {
	if err := os.MkdirAll(filepath.FromSlash(dirPath), fs.dirMode()); err != nil {
		return errors.Wrap(err, "cannot create directory")
	}

	if err := atomicfile.Write(filepath.FromSlash(filePath), r); err != nil {
		return errors.Wrapf(err, "unable to write %v", filePath)
	}

	return nil
}

func (fs *fsImpl) StatInPath(ctx context.Context, filePath string) (os.FileInfo, error) {
	fi, err := os.Stat(atomicfile.MaybePrefixLongFilenameOnWindows(filepath.FromSlash(filePath)))
	if err != nil {
		return nil, fs.translateError(err)
	}

	if fi.IsDir() {
		return nil, errors.Wrapf(storage.ErrFileNotFound, "%v is a directory", filePath)
	}

	return fi, nil
}

func (fs *fsImpl) ReadDir(ctx context.Context, dirname string) ([]os.FileInfo, error) {
	entries, err := os.ReadDir(filepath.FromSlash(dirname))
	if err != nil {
		return nil, fs.translateError(err)
	}

	result := make([]os.FileInfo, 0, len(entries))

	for _, e := range entries {
		fi, err := e.Info()
		if err != nil {
			if os.IsNotExist(err) {
				// removed while listing
				continue
			}

			return nil, errors.Wrapf(err, "error reading %v", e.Name())
		}

		if !fi.IsDir() && !fi.Mode().IsRegular() {
			continue
		}

		result = append(result, fi)
	}

	return result, nil
}

func (fs *fsStorage) DisplayName() string {
	return fmt.Sprintf("Filesystem: %v", fs.opts.Path)
}

func (fs *fsStorage) Close(ctx context.Context) error {
	return nil
}

// New creates new filesystem-backed file manager in a specified directory, creating it if necessary.
func New(ctx context.Context, opts *Options) (storage.FileManager, error) {
	if opts.Path == "" {
		return nil, errors.New("filesystem path must be provided")
	}

	root, err := filepath.Abs(opts.Path)
	if err != nil {
		return nil, errors.Wrap(err, "unable to determine absolute path")
	}

	if _, err := os.Stat(root); os.IsNotExist(err) {
		log(ctx).Debugf("creating directory: %v dir mode: %v", root, opts.dirMode())

		if mkdirErr := os.MkdirAll(root, opts.dirMode()); mkdirErr != nil {
			return nil, errors.Wrap(mkdirErr, "cannot create storage path")
		}
	}

	if _, err := os.Stat(root); err != nil {
		return nil, errors.Wrap(err, "cannot access storage path")
	}

	return &fsStorage{
		Storage: pathstore.Storage{
			Impl:     &fsImpl{*opts},
			RootPath: filepath.ToSlash(root),
		},
		opts: *opts,
	}, nil
}

func init() {
	storage.AddSupportedStorage(
		fsStorageType,
		func() interface{} { return &Options{} },
		func(ctx context.Context, o interface{}) (storage.FileManager, error) {
			return New(ctx, o.(*Options)) //nolint:forcetypeassert
		})
}
