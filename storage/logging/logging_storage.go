// Package logging implements wrapper around FileManager that logs all activity.
package logging

import (
	"context"

	"github.com/kopia/filejanitor/internal/clock"
	"github.com/kopia/filejanitor/logging"
	"github.com/kopia/filejanitor/storage"
)

type loggingStorage struct {
	base   storage.FileManager
	logger logging.Logger
	prefix string
}

func (s *loggingStorage) UploadFile(ctx context.Context, loc storage.FileLocation, filePath string, opts storage.UploadOptions) error {
	start := clock.Now()
	err := s.base.UploadFile(ctx, loc, filePath, opts)

	s.logger.Debugw(s.prefix+"UploadFile",
		"location", loc,
		"filePath", filePath,
		"metadataKeys", len(opts.Metadata),
		"hashAlgorithms", opts.HashAlgorithms,
		"error", errString(err),
		"duration", clock.Since(start))

	//nolint:wrapcheck
	return err
}

func (s *loggingStorage) DownloadFile(ctx context.Context, loc storage.FileLocation, filePath string) error {
	start := clock.Now()
	err := s.base.DownloadFile(ctx, loc, filePath)

	s.logger.Debugw(s.prefix+"DownloadFile",
		"location", loc,
		"filePath", filePath,
		"error", errString(err),
		"duration", clock.Since(start))

	//nolint:wrapcheck
	return err
}

func (s *loggingStorage) ListFiles(ctx context.Context, containerLocation, container, keyPrefix string) ([]storage.ObjectInfo, error) {
	start := clock.Now()
	result, err := s.base.ListFiles(ctx, containerLocation, container, keyPrefix)

	s.logger.Debugw(s.prefix+"ListFiles",
		"containerLocation", containerLocation,
		"container", container,
		"keyPrefix", keyPrefix,
		"count", len(result),
		"error", errString(err),
		"duration", clock.Since(start))

	//nolint:wrapcheck
	return result, err
}

func (s *loggingStorage) GetFileMetadata(ctx context.Context, loc storage.FileLocation) (map[string]string, error) {
	start := clock.Now()
	result, err := s.base.GetFileMetadata(ctx, loc)

	s.logger.Debugw(s.prefix+"GetFileMetadata",
		"location", loc,
		"metadata", result,
		"error", errString(err),
		"duration", clock.Since(start))

	//nolint:wrapcheck
	return result, err
}

func (s *loggingStorage) DisplayName() string {
	return s.base.DisplayName()
}

func (s *loggingStorage) Close(ctx context.Context) error {
	start := clock.Now()
	err := s.base.Close(ctx)

	s.logger.Debugw(s.prefix+"Close",
		"error", errString(err),
		"duration", clock.Since(start))

	//nolint:wrapcheck
	return err
}

func errString(err error) string {
	if err == nil {
		return ""
	}

	return err.Error()
}

// NewWrapper returns a FileManager wrapper that logs all file manager commands.
func NewWrapper(wrapped storage.FileManager, logger logging.Logger, prefix string) storage.FileManager {
	return &loggingStorage{base: wrapped, logger: logger, prefix: prefix}
}

