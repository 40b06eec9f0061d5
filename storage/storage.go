// Package storage defines the abstract remote file capability used by the exchange layer
// and a registry of concrete providers.
package storage

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/pkg/errors"
)

// ErrFileNotFound is returned when a remote file cannot be found.
var ErrFileNotFound = errors.New("file not found")

// FileLocation identifies a single remote file.
type FileLocation struct {
	ContainerLocation string `json:"containerLocation"`
	Container         string `json:"container"`
	Key               string `json:"key"`
}

// Equal returns true if both locations refer to the same remote file.
func (l FileLocation) Equal(other FileLocation) bool {
	return strings.EqualFold(l.ContainerLocation, other.ContainerLocation) &&
		strings.EqualFold(l.Container, other.Container) &&
		strings.EqualFold(l.Key, other.Key)
}

func (l FileLocation) String() string {
	return l.ContainerLocation + "/" + l.Container + "/" + l.Key
}

// Validate ensures all components of the location are present.
func (l FileLocation) Validate() error {
	if l.ContainerLocation == "" {
		return errors.New("container location must be provided")
	}

	if l.Container == "" {
		return errors.New("container must be provided")
	}

	if l.Key == "" {
		return errors.New("key must be provided")
	}

	return nil
}

// ObjectInfo describes a single listed remote file.
type ObjectInfo struct {
	Key       string    `json:"key"`
	Length    int64     `json:"length"`
	Timestamp time.Time `json:"timestamp"`
}

// UploadOptions controls how files are uploaded.
type UploadOptions struct {
	Metadata       map[string]string
	HashAlgorithms []string
}

// FileManager encapsulates the API for exchanging files with remote storage.
//
// Implementations must report missing files with ErrFileNotFound and must not retry
// on their own; retries are the responsibility of the caller.
type FileManager interface {
	// UploadFile uploads the contents of local file to the provided location, attaching
	// the provided metadata and the requested content hashes.
	UploadFile(ctx context.Context, loc FileLocation, filePath string, opts UploadOptions) error

	// DownloadFile downloads the remote file into the provided local path, replacing it if it exists.
	DownloadFile(ctx context.Context, loc FileLocation, filePath string) error

	// ListFiles returns all files in a container whose keys start with the provided prefix.
	ListFiles(ctx context.Context, containerLocation, container, keyPrefix string) ([]ObjectInfo, error)

	// GetFileMetadata returns flat string metadata associated with a remote file.
	GetFileMetadata(ctx context.Context, loc FileLocation) (map[string]string, error)

	// DisplayName returns human-readable name of the provider.
	DisplayName() string

	// Close releases all resources associated with the file manager.
	Close(ctx context.Context) error
}

// SortedKeys returns keys of the provided objects sorted lexicographically.
func SortedKeys(infos []ObjectInfo) []string {
	keys := make([]string, 0, len(infos))

	for _, oi := range infos {
		keys = append(keys, oi.Key)
	}

	sort.Strings(keys)

	return keys
}
