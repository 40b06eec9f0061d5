// Package webdav implements WebDAV-based FileManager.
package webdav

import (
	"context"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"os"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/studio-b12/gowebdav"

	"github.com/kopia/filejanitor/internal/retry"
	"github.com/kopia/filejanitor/storage"
	"github.com/kopia/filejanitor/storage/pathstore"
)

const (
	davStorageType = "webdav"

	defaultFilePerm = 0o600
	defaultDirPerm  = 0o700
)

// davStorage implements storage.FileManager on top of remote WebDAV share.
// It uses the same layout as filesystem storage, so the same tree may be exposed both ways.
type davStorage struct {
	pathstore.Storage

	opts Options
}

type davStorageImpl struct {
	Options

	cli *gowebdav.Client
}

func httpErrorCode(err error) int {
	var se gowebdav.StatusError
	if errors.As(err, &se) {
		return se.Status
	}

	var pe *os.PathError
	if errors.As(err, &pe) {
		code, err := strconv.Atoi(strings.Split(pe.Err.Error(), " ")[0])
		if err == nil {
			return code
		}
	}

	return 0
}

func (d *davStorageImpl) translateError(err error, p string) error {
	if err == nil {
		return nil
	}

	switch code := httpErrorCode(err); {
	case code == http.StatusNotFound || gowebdav.IsErrNotFound(err):
		return errors.Wrap(storage.ErrFileNotFound, p)

	case code == http.StatusTooManyRequests || code >= http.StatusInternalServerError || code == 0:
		return errors.Wrapf(err, "WebDAV error on %v", p)

	default:
		// remaining client errors (authentication, permissions) will not go away on retry
		return retry.Permanent(errors.Wrapf(err, "WebDAV error on %v", p))
	}
}

func (d *davStorageImpl) OpenFileInPath(ctx context.Context, filePath string) (io.ReadCloser, error) {
	r, err := d.cli.ReadStream(filePath)
	if err != nil {
		return nil, d.translateError(err, filePath)
	}

	return r, nil
}

func (d *davStorageImpl) StatInPath(ctx context.Context, filePath string) (os.FileInfo, error) {
	fi, err := d.cli.Stat(filePath)
	if err != nil {
		return nil, d.translateError(err, filePath)
	}

	if fi.IsDir() {
		return nil, errors.Wrapf(storage.ErrFileNotFound, "%v is a directory", filePath)
	}

	return fi, nil
}

func (d *davStorageImpl) ReadDir(ctx context.Context, dir string) ([]os.FileInfo, error) {
	entries, err := d.cli.ReadDir(gowebdav.FixSlash(dir))
	if err != nil {
		return nil, d.translateError(err, dir)
	}

	return entries, nil
}

func (d *davStorageImpl) PutFileInPath(ctx context.Context, dirPath, filePath string, r io.Reader) error {
	tmpPath := fmt.Sprintf("%v-%v%v", filePath, rand.Int63(), pathstore.TempFileSuffix) //nolint:gosec

	if err := d.cli.MkdirAll(dirPath, defaultDirPerm); err != nil {
		return d.translateError(err, dirPath)
	}

	if err := d.cli.WriteStream(tmpPath, r, defaultFilePerm); err != nil {
		return d.translateError(err, tmpPath)
	}

	if err := d.cli.Rename(tmpPath, filePath, true); err != nil {
		d.cli.Remove(tmpPath) //nolint:errcheck

		return d.translateError(err, filePath)
	}

	return nil
}

func (d *davStorage) DisplayName() string {
	return fmt.Sprintf("WebDAV: %v", d.opts.URL)
}

func (d *davStorage) Close(ctx context.Context) error {
	return nil
}

// New creates new WebDAV-backed file manager in a specified URL.
func New(ctx context.Context, opts *Options) (storage.FileManager, error) {
	if opts.URL == "" {
		return nil, errors.New("WebDAV URL must be provided")
	}

	cli := gowebdav.NewClient(opts.URL, opts.Username, opts.Password)

	return &davStorage{
		Storage: pathstore.Storage{
			Impl: &davStorageImpl{
				Options: *opts,
				cli:     cli,
			},
			RootPath: "/",
		},
		opts: *opts,
	}, nil
}

func init() {
	storage.AddSupportedStorage(
		davStorageType,
		func() interface{} { return &Options{} },
		func(ctx context.Context, o interface{}) (storage.FileManager, error) {
			return New(ctx, o.(*Options)) //nolint:forcetypeassert
		})
}
