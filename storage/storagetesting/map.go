// Package storagetesting implements in-memory and fault-injecting file managers and
// a suite verifying FileManager implementations.
package storagetesting

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/kopia/filejanitor/internal/clock"
	"github.com/kopia/filejanitor/storage"
)

type entry struct {
	data     []byte
	metadata map[string]string
	mtime    time.Time
}

// MapFileManager is an in-memory FileManager.
type MapFileManager struct {
	mu sync.RWMutex
	// +checklocks:mu
	files map[storage.FileLocation]*entry

	timeNow func() time.Time
}

func normalize(loc storage.FileLocation) storage.FileLocation {
	loc.ContainerLocation = strings.ToLower(loc.ContainerLocation)
	loc.Container = strings.ToLower(loc.Container)

	return loc
}

// UploadFile implements storage.FileManager.
func (m *MapFileManager) UploadFile(ctx context.Context, loc storage.FileLocation, filePath string, opts storage.UploadOptions) error {
	if err := loc.Validate(); err != nil {
		return errors.Wrap(err, "invalid location")
	}

	md, err := storage.UploadMetadata(filePath, opts)
	if err != nil {
		return errors.Wrap(err, "unable to prepare metadata")
	}

	data, err := os.ReadFile(filePath) //nolint:gosec
	if err != nil {
		return errors.Wrap(err, "unable to read file")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.files[normalize(loc)] = &entry{
		data:     data,
		metadata: md,
		mtime:    m.timeNow(),
	}

	return nil
}

// DownloadFile implements storage.FileManager.
func (m *MapFileManager) DownloadFile(ctx context.Context, loc storage.FileLocation, filePath string) error {
	m.mu.RLock()
	e := m.files[normalize(loc)]
	m.mu.RUnlock()

	if e == nil {
		return errors.Wrapf(storage.ErrFileNotFound, "%v", loc)
	}

	if err := os.MkdirAll(filepath.Dir(filePath), 0o700); err != nil { //nolint:mnd
		return errors.Wrap(err, "unable to create parent directory")
	}

	return errors.Wrap(os.WriteFile(filePath, e.data, 0o600), "unable to write file") //nolint:mnd
}

// ListFiles implements storage.FileManager.
func (m *MapFileManager) ListFiles(ctx context.Context, containerLocation, container, keyPrefix string) ([]storage.ObjectInfo, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var result []storage.ObjectInfo

	for loc, e := range m.files {
		if !strings.EqualFold(loc.ContainerLocation, containerLocation) || !strings.EqualFold(loc.Container, container) {
			continue
		}

		if !strings.HasPrefix(loc.Key, keyPrefix) {
			continue
		}

		result = append(result, storage.ObjectInfo{
			Key:       loc.Key,
			Length:    int64(len(e.data)),
			Timestamp: e.mtime,
		})
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].Key < result[j].Key
	})

	return result, nil
}

// GetFileMetadata implements storage.FileManager.
func (m *MapFileManager) GetFileMetadata(ctx context.Context, loc storage.FileLocation) (map[string]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	e := m.files[normalize(loc)]
	if e == nil {
		return nil, errors.Wrapf(storage.ErrFileNotFound, "%v", loc)
	}

	result := map[string]string{}
	for k, v := range e.metadata {
		result[k] = v
	}

	return result, nil
}

// Contents returns the contents of the stored file or nil if it does not exist.
func (m *MapFileManager) Contents(loc storage.FileLocation) []byte {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if e := m.files[normalize(loc)]; e != nil {
		return append([]byte(nil), e.data...)
	}

	return nil
}

// Len returns the number of stored files.
func (m *MapFileManager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return len(m.files)
}

// DisplayName implements storage.FileManager.
func (m *MapFileManager) DisplayName() string {
	return "Map"
}

// Close implements storage.FileManager.
func (m *MapFileManager) Close(ctx context.Context) error {
	return nil
}

// NewMapFileManager returns an empty in-memory file manager. When timeNow is nil the
// wall clock is used to stamp uploads.
func NewMapFileManager(timeNow func() time.Time) *MapFileManager {
	if timeNow == nil {
		timeNow = clock.NowUTC
	}

	return &MapFileManager{
		files:   map[storage.FileLocation]*entry{},
		timeNow: timeNow,
	}
}

var _ storage.FileManager = (*MapFileManager)(nil)
