// Package pathstore implements storage.FileManager on top of hierarchical path-based stores,
// such as local file systems, SFTP servers and WebDAV shares.
//
// Files are laid out as <root>/<container location>/<container>/<key>, with the key split on
// slashes. Metadata of each file is kept next to it in a JSON sidecar named <key>.fjmeta.json.
package pathstore

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"

	"github.com/kopia/filejanitor/internal/atomicfile"
	"github.com/kopia/filejanitor/internal/iocopy"
	"github.com/kopia/filejanitor/internal/retry"
	"github.com/kopia/filejanitor/storage"
)

const (
	// MetadataSuffix is the suffix of sidecar files holding file metadata.
	MetadataSuffix = ".fjmeta.json"

	// TempFileSuffix is the suffix of temporary files written during uploads.
	TempFileSuffix = ".fjtmp"
)

// ErrInvalidPath is returned when a location, container or key cannot be mapped to a path.
var ErrInvalidPath = errors.New("invalid path")

// Impl must be implemented by path-based backends. All paths are slash-separated.
type Impl interface {
	// OpenFileInPath opens the file for reading, returning storage.ErrFileNotFound if it does not exist.
	OpenFileInPath(ctx context.Context, filePath string) (io.ReadCloser, error)

	// PutFileInPath atomically replaces the contents of the file, creating parent directories as needed.
	PutFileInPath(ctx context.Context, dirPath, filePath string, r io.Reader) error

	// StatInPath returns information about a file, returning storage.ErrFileNotFound if it does not exist.
	StatInPath(ctx context.Context, filePath string) (os.FileInfo, error)

	// ReadDir lists the directory, returning storage.ErrFileNotFound if it does not exist.
	ReadDir(ctx context.Context, dirPath string) ([]os.FileInfo, error)
}

// Storage provides common implementation of path-based file managers.
type Storage struct {
	Impl Impl

	RootPath string
}

type sidecar struct {
	Metadata map[string]string `json:"metadata"`
}

func validSegment(s string) bool {
	return s != "" && s != "." && s != ".." && !strings.ContainsAny(s, `/\`)
}

func (s Storage) containerPath(containerLocation, container string) (string, error) {
	if !validSegment(containerLocation) {
		return "", errors.Wrapf(ErrInvalidPath, "container location %q", containerLocation)
	}

	if !validSegment(container) {
		return "", errors.Wrapf(ErrInvalidPath, "container %q", container)
	}

	return path.Join(s.RootPath, containerLocation, container), nil
}

// GetDirAndFilePath returns the directory and the path of the file at the provided location.
func (s Storage) GetDirAndFilePath(loc storage.FileLocation) (dirPath, filePath string, err error) {
	cp, err := s.containerPath(loc.ContainerLocation, loc.Container)
	if err != nil {
		return "", "", err
	}

	parts := strings.Split(loc.Key, "/")
	for _, p := range parts {
		if p == "" || p == "." || p == ".." || strings.Contains(p, `\`) {
			return "", "", errors.Wrapf(ErrInvalidPath, "key %q", loc.Key)
		}
	}

	if strings.HasSuffix(loc.Key, MetadataSuffix) || strings.HasSuffix(loc.Key, TempFileSuffix) {
		return "", "", errors.Wrapf(ErrInvalidPath, "key %q uses reserved suffix", loc.Key)
	}

	filePath = path.Join(cp, loc.Key)

	return path.Dir(filePath), filePath, nil
}

// UploadFile implements storage.FileManager.
func (s Storage) UploadFile(ctx context.Context, loc storage.FileLocation, filePath string, opts storage.UploadOptions) error {
	dirPath, remotePath, err := s.GetDirAndFilePath(loc)
	if err != nil {
		return retry.Permanent(err)
	}

	md, err := storage.UploadMetadata(filePath, opts)
	if err != nil {
		return retry.Permanent(errors.Wrap(err, "unable to prepare metadata"))
	}

	f, err := os.Open(filePath) //nolint:gosec
	if err != nil {
		return errors.Wrap(err, "unable to open local file")
	}
	defer f.Close() //nolint:errcheck

	if err := s.Impl.PutFileInPath(ctx, dirPath, remotePath, f); err != nil {
		return errors.Wrapf(err, "unable to upload %v", loc)
	}

	b, err := json.Marshal(sidecar{Metadata: md})
	if err != nil {
		return errors.Wrap(err, "unable to marshal metadata")
	}

	return errors.Wrapf(
		s.Impl.PutFileInPath(ctx, dirPath, remotePath+MetadataSuffix, bytes.NewReader(b)),
		"unable to upload metadata of %v", loc)
}

// DownloadFile implements storage.FileManager.
func (s Storage) DownloadFile(ctx context.Context, loc storage.FileLocation, filePath string) error {
	_, remotePath, err := s.GetDirAndFilePath(loc)
	if err != nil {
		return retry.Permanent(err)
	}

	r, err := s.Impl.OpenFileInPath(ctx, remotePath)
	if err != nil {
		return errors.Wrapf(err, "unable to open %v", loc)
	}
	defer r.Close() //nolint:errcheck

	if err := os.MkdirAll(filepath.Dir(filePath), 0o700); err != nil { //nolint:mnd
		return errors.Wrap(err, "unable to create local directory")
	}

	pr, pw := io.Pipe()

	go func() {
		_, cerr := iocopy.CopyContext(ctx, pw, r)
		pw.CloseWithError(cerr) //nolint:errcheck
	}()

	err = atomicfile.Write(filePath, pr)
	pr.CloseWithError(err) //nolint:errcheck

	return errors.Wrapf(err, "unable to download %v to %v", loc, filePath)
}

// GetFileMetadata implements storage.FileManager.
func (s Storage) GetFileMetadata(ctx context.Context, loc storage.FileLocation) (map[string]string, error) {
	_, remotePath, err := s.GetDirAndFilePath(loc)
	if err != nil {
		return nil, retry.Permanent(err)
	}

	if _, err := s.Impl.StatInPath(ctx, remotePath); err != nil {
		return nil, errors.Wrapf(err, "unable to get metadata of %v", loc)
	}

	r, err := s.Impl.OpenFileInPath(ctx, remotePath+MetadataSuffix)
	if errors.Is(err, storage.ErrFileNotFound) {
		// file uploaded without metadata by another tool
		return map[string]string{}, nil
	}

	if err != nil {
		return nil, errors.Wrapf(err, "unable to open metadata of %v", loc)
	}
	defer r.Close() //nolint:errcheck

	var sc sidecar

	if err := json.NewDecoder(r).Decode(&sc); err != nil {
		return nil, errors.Wrapf(err, "invalid metadata of %v", loc)
	}

	if sc.Metadata == nil {
		sc.Metadata = map[string]string{}
	}

	return sc.Metadata, nil
}

func isHiddenFile(name string) bool {
	return strings.HasSuffix(name, MetadataSuffix) || strings.HasSuffix(name, TempFileSuffix)
}

// ListFiles implements storage.FileManager. Directories that cannot contain keys
// with the provided prefix are not visited.
func (s Storage) ListFiles(ctx context.Context, containerLocation, container, keyPrefix string) ([]storage.ObjectInfo, error) {
	cp, err := s.containerPath(containerLocation, container)
	if err != nil {
		return nil, retry.Permanent(err)
	}

	var (
		result  []storage.ObjectInfo
		walkDir func(string, string) error
	)

	walkDir = func(directory, currentPrefix string) error {
		if err := ctx.Err(); err != nil {
			return errors.Wrap(err, "listing canceled")
		}

		entries, err := s.Impl.ReadDir(ctx, directory)
		if err != nil {
			return err
		}

		for _, e := range entries {
			if e.IsDir() {
				newPrefix := currentPrefix + e.Name() + "/"

				var match bool

				if len(keyPrefix) > len(newPrefix) {
					match = strings.HasPrefix(keyPrefix, newPrefix)
				} else {
					match = strings.HasPrefix(newPrefix, keyPrefix)
				}

				if match {
					if err := walkDir(directory+"/"+e.Name(), newPrefix); err != nil && !errors.Is(err, storage.ErrFileNotFound) {
						return err
					}
				}

				continue
			}

			key := currentPrefix + e.Name()
			if isHiddenFile(key) || !strings.HasPrefix(key, keyPrefix) {
				continue
			}

			result = append(result, storage.ObjectInfo{
				Key:       key,
				Length:    e.Size(),
				Timestamp: e.ModTime(),
			})
		}

		return nil
	}

	if err := walkDir(cp, ""); err != nil {
		if errors.Is(err, storage.ErrFileNotFound) {
			return nil, nil
		}

		return nil, errors.Wrapf(err, "unable to list %v/%v", containerLocation, container)
	}

	return result, nil
}
