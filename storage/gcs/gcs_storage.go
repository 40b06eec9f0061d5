// Package gcs implements FileManager based on Google Cloud Storage buckets.
package gcs

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"

	gcsclient "cloud.google.com/go/storage"
	"github.com/pkg/errors"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"

	"github.com/kopia/filejanitor/internal/atomicfile"
	"github.com/kopia/filejanitor/internal/iocopy"
	"github.com/kopia/filejanitor/internal/retry"
	"github.com/kopia/filejanitor/storage"
)

const (
	gcsStorageType  = "gcs"
	writerChunkSize = 1 << 20

	contentType = "application/octet-stream"
)

// gcsStorage maps containers to buckets. Bucket names are global, so the container
// location is informational only.
type gcsStorage struct {
	Options

	storageClient *gcsclient.Client
}

func translateError(err error) error {
	var ae *googleapi.Error

	switch {
	case err == nil:
		return nil

	case errors.Is(err, gcsclient.ErrObjectNotExist):
		return errors.Wrap(storage.ErrFileNotFound, err.Error())

	case errors.Is(err, gcsclient.ErrBucketNotExist):
		return retry.Permanent(err)

	case errors.As(err, &ae) && ae.Code >= 400 && ae.Code < 500 && ae.Code != http.StatusTooManyRequests && ae.Code != http.StatusRequestTimeout:
		return retry.Permanent(errors.Wrap(err, "GCS client error"))

	default:
		return errors.Wrap(err, "unexpected GCS error")
	}
}

func (gcs *gcsStorage) object(loc storage.FileLocation) *gcsclient.ObjectHandle {
	return gcs.storageClient.Bucket(loc.Container).Object(gcs.Prefix + loc.Key)
}

func (gcs *gcsStorage) UploadFile(ctx context.Context, loc storage.FileLocation, filePath string, opts storage.UploadOptions) error {
	if err := loc.Validate(); err != nil {
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

	ctx, cancel := context.WithCancel(ctx)

	writer := gcs.object(loc).NewWriter(ctx)
	writer.ChunkSize = writerChunkSize
	writer.ContentType = contentType
	writer.Metadata = md

	if _, err := iocopy.Copy(writer, f); err != nil {
		// cancel context before closing the writer causes it to abandon the upload.
		cancel()

		_ = writer.Close() // failing already, ignore the error

		return translateError(err)
	}

	defer cancel()

	// calling close before cancel() causes it to commit the upload.
	return translateError(writer.Close())
}

func (gcs *gcsStorage) DownloadFile(ctx context.Context, loc storage.FileLocation, filePath string) error {
	reader, err := gcs.object(loc).NewReader(ctx)
	if err != nil {
		return errors.Wrapf(translateError(err), "NewReader(%v)", loc)
	}
	defer reader.Close() //nolint:errcheck

	if err := os.MkdirAll(filepath.Dir(filePath), 0o700); err != nil { //nolint:mnd
		return errors.Wrap(err, "unable to create local directory")
	}

	return translateError(atomicfile.Write(filePath, reader))
}

func (gcs *gcsStorage) ListFiles(ctx context.Context, containerLocation, container, keyPrefix string) ([]storage.ObjectInfo, error) {
	lst := gcs.storageClient.Bucket(container).Objects(ctx, &gcsclient.Query{
		Prefix: gcs.Prefix + keyPrefix,
	})

	var result []storage.ObjectInfo

	oa, err := lst.Next()
	for err == nil {
		result = append(result, storage.ObjectInfo{
			Key:       oa.Name[len(gcs.Prefix):],
			Length:    oa.Size,
			Timestamp: oa.Updated,
		})

		oa, err = lst.Next()
	}

	if !errors.Is(err, iterator.Done) {
		return nil, errors.Wrap(translateError(err), "ListFiles")
	}

	return result, nil
}

func (gcs *gcsStorage) GetFileMetadata(ctx context.Context, loc storage.FileLocation) (map[string]string, error) {
	attrs, err := gcs.object(loc).Attrs(ctx)
	if err != nil {
		return nil, errors.Wrap(translateError(err), "Attrs")
	}

	result := map[string]string{}
	for k, v := range attrs.Metadata {
		result[k] = v
	}

	return result, nil
}

func (gcs *gcsStorage) DisplayName() string {
	if gcs.Endpoint != "" {
		return fmt.Sprintf("GCS: %v", gcs.Endpoint)
	}

	return "GCS"
}

func (gcs *gcsStorage) Close(ctx context.Context) error {
	return errors.Wrap(gcs.storageClient.Close(), "error closing GCS storage")
}

func tokenSourceFromCredentialsFile(ctx context.Context, fn string, scopes ...string) (oauth2.TokenSource, error) {
	data, err := os.ReadFile(fn) //nolint:gosec
	if err != nil {
		return nil, errors.Wrap(err, "error reading credentials file")
	}

	return tokenSourceFromCredentialsJSON(ctx, data, scopes...)
}

func tokenSourceFromCredentialsJSON(ctx context.Context, data json.RawMessage, scopes ...string) (oauth2.TokenSource, error) {
	creds, err := google.CredentialsFromJSON(ctx, data, scopes...)
	if err != nil {
		return nil, errors.Wrap(err, "google.CredentialsFromJSON")
	}

	return creds.TokenSource, nil
}

func clientOptions(ctx context.Context, opt *Options) ([]option.ClientOption, error) {
	if opt.Endpoint != "" {
		return []option.ClientOption{
			option.WithEndpoint(opt.Endpoint),
			option.WithoutAuthentication(),
		}, nil
	}

	var (
		ts  oauth2.TokenSource
		err error
	)

	scope := gcsclient.ScopeReadWrite

	switch {
	case len(opt.ServiceAccountCredentialJSON) > 0:
		ts, err = tokenSourceFromCredentialsJSON(ctx, opt.ServiceAccountCredentialJSON, scope)
	case opt.ServiceAccountCredentialsFile != "":
		ts, err = tokenSourceFromCredentialsFile(ctx, opt.ServiceAccountCredentialsFile, scope)
	default:
		ts, err = google.DefaultTokenSource(ctx, scope)
	}

	if err != nil {
		return nil, errors.Wrap(err, "unable to initialize token source")
	}

	return []option.ClientOption{option.WithHTTPClient(oauth2.NewClient(ctx, ts))}, nil
}

// New creates new Google Cloud Storage-backed file manager with specified options.
//
// By default the connection reuses credentials managed by (https://cloud.google.com/sdk/).
func New(ctx context.Context, opt *Options) (storage.FileManager, error) {
	opts, err := clientOptions(ctx, opt)
	if err != nil {
		return nil, err
	}

	cli, err := gcsclient.NewClient(ctx, opts...)
	if err != nil {
		return nil, errors.Wrap(err, "unable to create GCS client")
	}

	return &gcsStorage{
		Options:       *opt,
		storageClient: cli,
	}, nil
}

func init() {
	storage.AddSupportedStorage(
		gcsStorageType,
		func() interface{} { return &Options{} },
		func(ctx context.Context, o interface{}) (storage.FileManager, error) {
			return New(ctx, o.(*Options)) //nolint:forcetypeassert
		})
}
