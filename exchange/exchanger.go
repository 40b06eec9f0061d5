// Package exchange moves files and archived directories between the local file system and
// remote storage, retrying transient failures with linear backoff.
package exchange

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/kopia/filejanitor/archive"
	"github.com/kopia/filejanitor/internal/retry"
	"github.com/kopia/filejanitor/logging"
	"github.com/kopia/filejanitor/metadata"
	"github.com/kopia/filejanitor/storage"
)

var log = logging.Module("exchange")

var tracer = otel.Tracer("github.com/kopia/filejanitor/exchange")

const (
	storeDirectoryTempPrefix = "FileJanitor-StoreDirectory-"
	fetchDirectoryTempPrefix = "FileJanitor-FetchDirectory-"
	tempFileSuffix           = ".tmp"
)

// StoreDirectoryOptions controls how StoreDirectory archives a directory.
type StoreDirectoryOptions struct {
	ArchiveKind          archive.ArchiveKind     `json:"archiveKind"`
	CompressionKind      archive.CompressionKind `json:"compressionKind"`
	IncludeBaseDirectory bool                    `json:"includeBaseDirectory"`
	EntryNameEncoding    string                  `json:"entryNameEncoding"`
}

// DefaultStoreDirectoryOptions returns options that produce the smallest zip archive including the base directory.
func DefaultStoreDirectoryOptions() StoreDirectoryOptions {
	d := archive.DefaultArchiveOptions()

	return StoreDirectoryOptions{
		ArchiveKind:          archive.ZipFile,
		CompressionKind:      archive.CompressionSmallest,
		IncludeBaseDirectory: d.IncludeBaseDirectory,
		EntryNameEncoding:    d.EntryNameEncoding,
	}
}

// Option customizes the Exchanger.
type Option func(e *Exchanger)

// WithRetryPolicy overrides the default retry policy.
func WithRetryPolicy(p RetryPolicy) Option {
	return func(e *Exchanger) {
		e.policy = p
	}
}

// WithTracer overrides the tracer used to create spans.
func WithTracer(t trace.Tracer) Option {
	return func(e *Exchanger) {
		e.tracer = t
	}
}

// Exchanger stores and fetches files using the provided FileManager.
type Exchanger struct {
	fm       storage.FileManager
	registry *archive.Registry
	policy   RetryPolicy
	tracer   trace.Tracer
}

// New creates an Exchanger.
func New(fm storage.FileManager, reg *archive.Registry, opts ...Option) *Exchanger {
	e := &Exchanger{
		fm:       fm,
		registry: reg,
		policy:   DefaultRetryPolicy(),
		tracer:   tracer,
	}

	for _, o := range opts {
		o(e)
	}

	return e
}

// RetryPolicy returns the retry policy in effect.
func (e *Exchanger) RetryPolicy() RetryPolicy {
	return e.policy
}

func (e *Exchanger) startSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return e.tracer.Start(ctx, "Exchanger."+name, trace.WithAttributes(attrs...))
}

func endSpan(span trace.Span, operation string, err error) {
	recordOperation(operation, err)

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}

	span.End()
}

func locationAttributes(loc storage.FileLocation) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String("containerLocation", loc.ContainerLocation),
		attribute.String("container", loc.Container),
		attribute.String("key", loc.Key),
	}
}

// StoreFile uploads a single local file. When key is empty, the base name of the file is used.
func (e *Exchanger) StoreFile(
	ctx context.Context,
	filePath, containerLocation, container, key string,
	md metadata.Items,
	hashAlgorithms []string,
) (loc storage.FileLocation, err error) {
	if key == "" {
		key = filepath.Base(filePath)
	}

	loc = storage.FileLocation{ContainerLocation: containerLocation, Container: container, Key: key}

	ctx, span := e.startSpan(ctx, "StoreFile", append(locationAttributes(loc), attribute.String("path", filePath))...)
	defer func() { endSpan(span, "StoreFile", err) }()

	if filePath == "" {
		return storage.FileLocation{}, errors.Wrap(ErrInvalidArgument, "file path must be provided")
	}

	st, err := os.Stat(filePath)
	if err != nil {
		return storage.FileLocation{}, errors.Wrapf(ErrInvalidArgument, "file %v does not exist: %v", filePath, err)
	}

	if !st.Mode().IsRegular() {
		return storage.FileLocation{}, errors.Wrapf(ErrInvalidArgument, "%v is not a regular file", filePath)
	}

	if verr := loc.Validate(); verr != nil {
		return storage.FileLocation{}, errors.Wrapf(ErrInvalidArgument, "invalid location: %v", verr)
	}

	mdMap, err := md.ToMap()
	if err != nil {
		return storage.FileLocation{}, errors.Wrap(err, "invalid metadata")
	}

	opts := storage.UploadOptions{
		Metadata:       mdMap,
		HashAlgorithms: hashAlgorithms,
	}

	p := e.policy.forSize("StoreFile", st.Size())

	log(ctx).Debugw("uploading file", "path", filePath, "location", loc.String(), "size", st.Size(), "retryStep", p.WaitMultiplier)

	if err := retry.WithLinearBackoffNoValue(ctx, "upload "+loc.String(), p, func() error {
		return e.fm.UploadFile(ctx, loc, filePath, opts)
	}, isRetriable); err != nil {
		return storage.FileLocation{}, err
	}

	metricUploadedBytes.Add(float64(st.Size()))

	log(ctx).Infof("uploaded %v to %v (%v)", filePath, loc, e.fm.DisplayName())

	return loc, nil
}

// StoreDirectory archives a local directory into a temporary file next to it and uploads the archive,
// attaching the archive descriptor as metadata. When key is empty, the base name of the directory is used.
// The temporary archive is always removed.
func (e *Exchanger) StoreDirectory(
	ctx context.Context,
	dirPath string,
	opt StoreDirectoryOptions,
	containerLocation, container, key string,
	md metadata.Items,
	hashAlgorithms []string,
) (loc storage.FileLocation, ad *archive.ArchivedDirectory, err error) {
	ctx, span := e.startSpan(ctx, "StoreDirectory",
		attribute.String("path", dirPath),
		attribute.String("archiveKind", opt.ArchiveKind.String()),
		attribute.String("compressionKind", opt.CompressionKind.String()))
	defer func() { endSpan(span, "StoreDirectory", err) }()

	if dirPath == "" {
		return storage.FileLocation{}, nil, errors.Wrap(ErrInvalidArgument, "directory path must be provided")
	}

	dirPath = filepath.Clean(dirPath)

	st, err := os.Stat(dirPath)
	if err != nil || !st.IsDir() {
		return storage.FileLocation{}, nil, errors.Wrapf(ErrInvalidArgument, "directory %v does not exist", dirPath)
	}

	arch, err := e.registry.BuildArchiver(opt.ArchiveKind, opt.CompressionKind)
	if err != nil {
		return storage.FileLocation{}, nil, err
	}

	tmpFile := storeDirectoryTempFile(ctx, filepath.Dir(dirPath))

	defer removeTempFile(ctx, tmpFile)

	ad, err = arch.ArchiveDirectory(ctx, dirPath, tmpFile, archive.ArchiveOptions{
		IncludeBaseDirectory: opt.IncludeBaseDirectory,
		EntryNameEncoding:    opt.EntryNameEncoding,
	})
	if err != nil {
		return storage.FileLocation{}, nil, errors.Wrapf(err, "unable to archive %v", dirPath)
	}

	combined, err := md.Append(ad.ToMetadata()...)
	if err != nil {
		return storage.FileLocation{}, nil, errors.Wrapf(ErrInvalidArgument, "metadata conflicts with archive descriptor: %v", err)
	}

	if key == "" {
		key = filepath.Base(dirPath)
	}

	loc, err = e.StoreFile(ctx, tmpFile, containerLocation, container, key, combined, hashAlgorithms)
	if err != nil {
		return storage.FileLocation{}, nil, err
	}

	return loc, ad, nil
}

// storeDirectoryTempFile returns the name of a non-existent temporary file in dir,
// or in the OS temporary directory when dir is not writable.
func storeDirectoryTempFile(ctx context.Context, dir string) string {
	name := storeDirectoryTempPrefix + uuid.NewString() + tempFileSuffix
	candidate := filepath.Join(dir, name)

	f, err := os.OpenFile(candidate, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o600) //nolint:gosec
	if err != nil {
		log(ctx).Debugf("%v is not writable (%v), using temporary directory", dir, err)
		return filepath.Join(os.TempDir(), name)
	}

	f.Close() //nolint:errcheck

	if err := os.Remove(candidate); err != nil {
		log(ctx).Debugf("unable to remove probe file %v: %v", candidate, err)
		return filepath.Join(os.TempDir(), name)
	}

	return candidate
}

func removeTempFile(ctx context.Context, fname string) {
	if err := os.Remove(fname); err != nil && !os.IsNotExist(err) {
		log(ctx).Warnf("unable to remove temporary file %v: %v", fname, err)
	}
}

// FindFile returns the location of a single file whose key starts with keyPrefix, using the strategy
// to choose among multiple matches.
func (e *Exchanger) FindFile(
	ctx context.Context,
	containerLocation, container, keyPrefix string,
	strategy MultipleKeysFoundStrategy,
) (loc storage.FileLocation, err error) {
	ctx, span := e.startSpan(ctx, "FindFile",
		attribute.String("containerLocation", containerLocation),
		attribute.String("container", container),
		attribute.String("prefix", keyPrefix),
		attribute.String("strategy", string(strategy)))
	defer func() { endSpan(span, "FindFile", err) }()

	if container == "" {
		return storage.FileLocation{}, errors.Wrap(ErrInvalidArgument, "container must be provided")
	}

	if _, err := ParseMultipleKeysFoundStrategy(string(strategy)); err != nil {
		return storage.FileLocation{}, err
	}

	infos, err := retry.WithLinearBackoff(ctx, "list "+container, e.policy.forSize("FindFile", 0), func() ([]storage.ObjectInfo, error) {
		return e.fm.ListFiles(ctx, containerLocation, container, keyPrefix)
	}, isRetriable)
	if err != nil {
		return storage.FileLocation{}, err
	}

	pattern := keyPrefix + "*"

	if len(infos) == 0 {
		return storage.FileLocation{}, errors.Wrapf(ErrNotFound, "location %q, container %q, prefix %q", containerLocation, container, keyPrefix)
	}

	key, err := selectKey(storage.SortedKeys(infos), strategy, pattern)
	if err != nil {
		return storage.FileLocation{}, err
	}

	log(ctx).Debugw("found file", "pattern", pattern, "matches", len(infos), "key", key)

	return storage.FileLocation{ContainerLocation: containerLocation, Container: container, Key: key}, nil
}

// FetchMetadata returns metadata of a remote file.
func (e *Exchanger) FetchMetadata(ctx context.Context, loc storage.FileLocation) (items metadata.Items, err error) {
	ctx, span := e.startSpan(ctx, "FetchMetadata", locationAttributes(loc)...)
	defer func() { endSpan(span, "FetchMetadata", err) }()

	if verr := loc.Validate(); verr != nil {
		return nil, errors.Wrapf(ErrInvalidArgument, "invalid location: %v", verr)
	}

	m, err := retry.WithLinearBackoff(ctx, "get metadata of "+loc.String(), e.policy.forSize("FetchMetadata", 0), func() (map[string]string, error) {
		return e.fm.GetFileMetadata(ctx, loc)
	}, isRetriable)
	if err != nil {
		return nil, err
	}

	return metadata.FromMap(m), nil
}

// FetchFile downloads a remote file to the provided local path, creating the parent directory if needed.
func (e *Exchanger) FetchFile(ctx context.Context, loc storage.FileLocation, filePath string) (err error) {
	ctx, span := e.startSpan(ctx, "FetchFile", append(locationAttributes(loc), attribute.String("path", filePath))...)
	defer func() { endSpan(span, "FetchFile", err) }()

	if verr := loc.Validate(); verr != nil {
		return errors.Wrapf(ErrInvalidArgument, "invalid location: %v", verr)
	}

	if filePath == "" {
		return errors.Wrap(ErrInvalidArgument, "file path must be provided")
	}

	if err := os.MkdirAll(filepath.Dir(filePath), 0o700); err != nil {
		return errors.Wrap(err, "unable to create parent directory")
	}

	if err := retry.WithLinearBackoffNoValue(ctx, "download "+loc.String(), e.policy.forSize("FetchFile", 0), func() error {
		return e.fm.DownloadFile(ctx, loc, filePath)
	}, isRetriable); err != nil {
		return err
	}

	if st, serr := os.Stat(filePath); serr == nil {
		metricDownloadedBytes.Add(float64(st.Size()))
	}

	log(ctx).Infof("downloaded %v to %v", loc, filePath)

	return nil
}

// RestoreDownload restores a downloaded archive described by md into targetPath, which must not exist.
func (e *Exchanger) RestoreDownload(ctx context.Context, filePath, targetPath string, md metadata.Items) (ad *archive.ArchivedDirectory, err error) {
	ctx, span := e.startSpan(ctx, "RestoreDownload", attribute.String("path", filePath), attribute.String("target", targetPath))
	defer func() { endSpan(span, "RestoreDownload", err) }()

	if filePath == "" || targetPath == "" {
		return nil, errors.Wrap(ErrInvalidArgument, "archive file and target path must be provided")
	}

	if st, serr := os.Stat(filePath); serr != nil || !st.Mode().IsRegular() {
		return nil, errors.Wrapf(ErrInvalidArgument, "archive file %v does not exist", filePath)
	}

	if _, serr := os.Lstat(targetPath); serr == nil {
		return nil, errors.Wrapf(archive.ErrTargetExists, "%v", targetPath)
	}

	ad, err = archive.FromMetadata(md, filePath)
	if err != nil {
		return nil, errors.Wrap(err, "unable to reconstruct archive descriptor")
	}

	arch, err := e.registry.BuildArchiverFor(ad)
	if err != nil {
		return nil, err
	}

	if err := arch.RestoreDirectory(ctx, ad, targetPath); err != nil {
		return nil, errors.Wrapf(err, "unable to restore %v", filePath)
	}

	log(ctx).Infof("restored %v archive %v to %v", ad.ArchiveKind, filePath, targetPath)

	return ad, nil
}

// FetchAndRestoreDirectory downloads an archived directory into a temporary file next to targetPath
// and restores it. The temporary file is always removed.
func (e *Exchanger) FetchAndRestoreDirectory(ctx context.Context, loc storage.FileLocation, targetPath string) (ad *archive.ArchivedDirectory, err error) {
	ctx, span := e.startSpan(ctx, "FetchAndRestoreDirectory", append(locationAttributes(loc), attribute.String("target", targetPath))...)
	defer func() { endSpan(span, "FetchAndRestoreDirectory", err) }()

	if targetPath == "" {
		return nil, errors.Wrap(ErrInvalidArgument, "target path must be provided")
	}

	targetPath = filepath.Clean(targetPath)

	if _, serr := os.Lstat(targetPath); serr == nil {
		return nil, errors.Wrapf(archive.ErrTargetExists, "%v", targetPath)
	}

	md, err := e.FetchMetadata(ctx, loc)
	if err != nil {
		return nil, err
	}

	tmpFile := filepath.Join(filepath.Dir(targetPath), fetchDirectoryTempPrefix+uuid.NewString()+tempFileSuffix)

	defer removeTempFile(ctx, tmpFile)

	if err := e.FetchFile(ctx, loc, tmpFile); err != nil {
		return nil, err
	}

	return e.RestoreDownload(ctx, tmpFile, targetPath, md)
}

// IsTemporaryFile determines whether the provided file name was produced by the exchanger
// as a temporary file.
func IsTemporaryFile(name string) bool {
	base := filepath.Base(name)

	return strings.HasSuffix(base, tempFileSuffix) &&
		(strings.HasPrefix(base, storeDirectoryTempPrefix) || strings.HasPrefix(base, fetchDirectoryTempPrefix))
}
