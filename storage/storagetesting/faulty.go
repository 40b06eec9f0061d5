package storagetesting

import (
	"context"

	"github.com/kopia/filejanitor/internal/fault"
	"github.com/kopia/filejanitor/storage"
)

// Supported faulty methods.
const (
	MethodUploadFile fault.Method = iota
	MethodDownloadFile
	MethodListFiles
	MethodGetFileMetadata
	MethodClose
)

// FaultyFileManager implements fault injection for FileManager.
type FaultyFileManager struct {
	base storage.FileManager

	*fault.Set
}

// NewFaultyFileManager creates new FaultyFileManager wrapping the provided file manager.
func NewFaultyFileManager(base storage.FileManager) *FaultyFileManager {
	return &FaultyFileManager{
		base: base,
		Set:  fault.NewSet(),
	}
}

// UploadFile implements storage.FileManager.
func (s *FaultyFileManager) UploadFile(ctx context.Context, loc storage.FileLocation, filePath string, opts storage.UploadOptions) error {
	if ok, err := s.GetNextFault(ctx, MethodUploadFile, loc, filePath); ok {
		return err
	}

	//nolint:wrapcheck
	return s.base.UploadFile(ctx, loc, filePath, opts)
}

// DownloadFile implements storage.FileManager.
func (s *FaultyFileManager) DownloadFile(ctx context.Context, loc storage.FileLocation, filePath string) error {
	if ok, err := s.GetNextFault(ctx, MethodDownloadFile, loc, filePath); ok {
		return err
	}

	//nolint:wrapcheck
	return s.base.DownloadFile(ctx, loc, filePath)
}

// ListFiles implements storage.FileManager.
func (s *FaultyFileManager) ListFiles(ctx context.Context, containerLocation, container, keyPrefix string) ([]storage.ObjectInfo, error) {
	if ok, err := s.GetNextFault(ctx, MethodListFiles, containerLocation, container, keyPrefix); ok {
		return nil, err
	}

	//nolint:wrapcheck
	return s.base.ListFiles(ctx, containerLocation, container, keyPrefix)
}

// GetFileMetadata implements storage.FileManager.
func (s *FaultyFileManager) GetFileMetadata(ctx context.Context, loc storage.FileLocation) (map[string]string, error) {
	if ok, err := s.GetNextFault(ctx, MethodGetFileMetadata, loc); ok {
		return nil, err
	}

	//nolint:wrapcheck
	return s.base.GetFileMetadata(ctx, loc)
}

// DisplayName implements storage.FileManager.
func (s *FaultyFileManager) DisplayName() string {
	return s.base.DisplayName()
}

// Close implements storage.FileManager.
func (s *FaultyFileManager) Close(ctx context.Context) error {
	if ok, err := s.GetNextFault(ctx, MethodClose); ok {
		return err
	}

	//nolint:wrapcheck
	return s.base.Close(ctx)
}

var _ storage.FileManager = (*FaultyFileManager)(nil)
