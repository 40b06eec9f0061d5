// Package s3 implements FileManager based on S3 buckets, where container location is the bucket region.
package s3

import (
	"context"
	"crypto/tls"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"

	minio "github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/pkg/errors"

	"github.com/kopia/filejanitor/internal/retry"
	"github.com/kopia/filejanitor/logging"
	"github.com/kopia/filejanitor/storage"
)

var log = logging.Module("storage/s3")

const (
	s3storageType   = "s3"
	defaultEndpoint = "s3.amazonaws.com"

	contentType = "application/octet-stream"
)

type s3Storage struct {
	Options

	mu sync.Mutex
	// +checklocks:mu
	clients map[string]*minio.Client
}

func translateError(err error) error {
	if err == nil {
		return nil
	}

	me := minio.ToErrorResponse(err)

	switch {
	case me.StatusCode == http.StatusOK:
		return nil

	case me.Code == "NoSuchKey" || (me.StatusCode == http.StatusNotFound && me.Code != "NoSuchBucket"):
		return errors.Wrap(storage.ErrFileNotFound, err.Error())

	case isClientError(me.StatusCode):
		return retry.Permanent(err)

	default:
		return err
	}
}

// isClientError returns true for 4xx errors that will not go away on retry.
func isClientError(code int) bool {
	return code >= 400 && code < 500 && code != http.StatusRequestTimeout && code != http.StatusTooManyRequests
}

func getCustomTransport(insecureSkipVerify bool) *http.Transport {
	//nolint:gosec
	return &http.Transport{TLSClientConfig: &tls.Config{InsecureSkipVerify: insecureSkipVerify}}
}

// clientForRegion returns a client for the provided region, creating and caching it on first use.
func (s *s3Storage) clientForRegion(ctx context.Context, region string) (*minio.Client, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if c := s.clients[region]; c != nil {
		return c, nil
	}

	minioOpts := &minio.Options{
		Creds:  credentials.NewStaticV4(s.AccessKeyID, s.SecretAccessKey, s.SessionToken),
		Secure: !s.DoNotUseTLS,
		Region: region,
	}

	if s.AccessKeyID == "" {
		minioOpts.Creds = credentials.NewChainCredentials([]credentials.Provider{
			&credentials.EnvAWS{},
			&credentials.FileAWSCredentials{},
			&credentials.IAM{},
		})
	}

	if s.DoNotVerifyTLS {
		minioOpts.Transport = getCustomTransport(true)
	}

	log(ctx).Debugf("creating S3 client for %v in region %v", s.endpoint(), region)

	cli, err := minio.New(s.endpoint(), minioOpts)
	if err != nil {
		return nil, retry.Permanent(errors.Wrap(err, "unable to create client"))
	}

	s.clients[region] = cli

	return cli, nil
}

func (s *s3Storage) getObjectNameString(key string) string {
	return s.Prefix + key
}

func (s *s3Storage) UploadFile(ctx context.Context, loc storage.FileLocation, filePath string, opts storage.UploadOptions) error {
	if err := loc.Validate(); err != nil {
		return retry.Permanent(err)
	}

	md, err := storage.UploadMetadata(filePath, opts)
	if err != nil {
		return retry.Permanent(errors.Wrap(err, "unable to prepare metadata"))
	}

	cli, err := s.clientForRegion(ctx, loc.ContainerLocation)
	if err != nil {
		return err
	}

	_, err = cli.FPutObject(ctx, loc.Container, s.getObjectNameString(loc.Key), filePath, minio.PutObjectOptions{
		ContentType:  contentType,
		UserMetadata: md,
	})

	return errors.Wrapf(translateError(err), "FPutObject(%v)", loc)
}

func (s *s3Storage) DownloadFile(ctx context.Context, loc storage.FileLocation, filePath string) error {
	cli, err := s.clientForRegion(ctx, loc.ContainerLocation)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(filePath), 0o700); err != nil { //nolint:mnd
		return errors.Wrap(err, "unable to create local directory")
	}

	err = cli.FGetObject(ctx, loc.Container, s.getObjectNameString(loc.Key), filePath, minio.GetObjectOptions{})

	return errors.Wrapf(translateError(err), "FGetObject(%v)", loc)
}

func (s *s3Storage) ListFiles(ctx context.Context, containerLocation, container, keyPrefix string) ([]storage.ObjectInfo, error) {
	cli, err := s.clientForRegion(ctx, containerLocation)
	if err != nil {
		return nil, err
	}

	var result []storage.ObjectInfo

	for o := range cli.ListObjects(ctx, container, minio.ListObjectsOptions{
		Prefix:    s.getObjectNameString(keyPrefix),
		Recursive: true,
	}) {
		if err := o.Err; err != nil {
			return nil, errors.Wrapf(translateError(err), "ListObjects(%v/%v)", containerLocation, container)
		}

		result = append(result, storage.ObjectInfo{
			Key:       strings.TrimPrefix(o.Key, s.Prefix),
			Length:    o.Size,
			Timestamp: o.LastModified,
		})
	}

	return result, nil
}

func (s *s3Storage) GetFileMetadata(ctx context.Context, loc storage.FileLocation) (map[string]string, error) {
	cli, err := s.clientForRegion(ctx, loc.ContainerLocation)
	if err != nil {
		return nil, err
	}

	oi, err := cli.StatObject(ctx, loc.Container, s.getObjectNameString(loc.Key), minio.StatObjectOptions{})
	if err != nil {
		return nil, errors.Wrapf(translateError(err), "StatObject(%v)", loc)
	}

	result := map[string]string{}
	for k, v := range oi.UserMetadata {
		result[k] = v
	}

	return result, nil
}

func (s *s3Storage) Close(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.clients = map[string]*minio.Client{}

	return nil
}

func (s *s3Storage) DisplayName() string {
	return fmt.Sprintf("S3: %v", s.endpoint())
}

// New creates new S3-backed file manager with specified options. Clients are created lazily
// for each region the file manager is used with.
func New(ctx context.Context, opt *Options) (storage.FileManager, error) {
	if (opt.AccessKeyID == "") != (opt.SecretAccessKey == "") {
		return nil, errors.New("access key ID and secret access key must be specified together")
	}

	return &s3Storage{
		Options: *opt,
		clients: map[string]*minio.Client{},
	}, nil
}

func init() {
	storage.AddSupportedStorage(
		s3storageType,
		func() interface{} {
			return &Options{}
		},
		func(ctx context.Context, o interface{}) (storage.FileManager, error) {
			return New(ctx, o.(*Options)) //nolint:forcetypeassert
		})
}
