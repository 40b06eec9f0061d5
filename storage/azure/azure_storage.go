// Package azure implements FileManager based on Azure Blob Storage, where container location
// is the storage account.
package azure

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azidentity"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/bloberror"
	"github.com/pkg/errors"

	"github.com/kopia/filejanitor/internal/atomicfile"
	"github.com/kopia/filejanitor/internal/retry"
	"github.com/kopia/filejanitor/logging"
	"github.com/kopia/filejanitor/storage"
)

var log = logging.Module("storage/azure")

const (
	azStorageType = "azureBlob"

	defaultStorageDomain = "blob.core.windows.net"
)

type azStorage struct {
	Options

	mu sync.Mutex
	// +checklocks:mu
	clients map[string]*azblob.Client
}

func translateError(err error) error {
	if err == nil {
		return nil
	}

	if bloberror.HasCode(err, bloberror.BlobNotFound) {
		return errors.Wrap(storage.ErrFileNotFound, err.Error())
	}

	var re *azcore.ResponseError
	if errors.As(err, &re) {
		if re.StatusCode >= 400 && re.StatusCode < 500 && re.StatusCode != http.StatusTooManyRequests && re.StatusCode != http.StatusRequestTimeout {
			return retry.Permanent(err)
		}
	}

	return err
}

func (az *azStorage) serviceURL(account string) string {
	if az.ServiceURL != "" {
		return strings.ReplaceAll(az.ServiceURL, "{account}", account)
	}

	storageDomain := az.StorageDomain
	if storageDomain == "" {
		storageDomain = defaultStorageDomain
	}

	scheme := "https"
	if az.DoNotUseTLS {
		scheme = "http"
	}

	return fmt.Sprintf("%v://%v.%v/", scheme, account, storageDomain)
}

func (az *azStorage) newClient(account string) (*azblob.Client, error) {
	serviceURL := az.serviceURL(account)

	switch {
	case az.SASToken != "":
		//nolint:wrapcheck
		return azblob.NewClientWithNoCredential(fmt.Sprintf("%s?%s", serviceURL, az.SASToken), nil)

	case az.StorageKey != "":
		cred, err := azblob.NewSharedKeyCredential(account, az.StorageKey)
		if err != nil {
			return nil, errors.Wrap(err, "unable to initialize shared key credentials")
		}

		//nolint:wrapcheck
		return azblob.NewClientWithSharedKeyCredential(serviceURL, cred, nil)

	case az.ClientSecret != "":
		cred, err := azidentity.NewClientSecretCredential(az.TenantID, az.ClientID, az.ClientSecret, nil)
		if err != nil {
			return nil, errors.Wrap(err, "unable to initialize client secret credentials")
		}

		//nolint:wrapcheck
		return azblob.NewClient(serviceURL, cred, nil)

	default:
		cred, err := azidentity.NewDefaultAzureCredential(nil)
		if err != nil {
			return nil, errors.Wrap(err, "unable to initialize default credentials")
		}

		//nolint:wrapcheck
		return azblob.NewClient(serviceURL, cred, nil)
	}
}

// clientForAccount returns a client for the provided storage account, creating and caching it on first use.
func (az *azStorage) clientForAccount(ctx context.Context, account string) (*azblob.Client, error) {
	az.mu.Lock()
	defer az.mu.Unlock()

	if c := az.clients[account]; c != nil {
		return c, nil
	}

	log(ctx).Debugf("creating Azure client for %v", az.serviceURL(account))

	c, err := az.newClient(account)
	if err != nil {
		return nil, retry.Permanent(errors.Wrapf(err, "unable to create client for %v", account))
	}

	az.clients[account] = c

	return c, nil
}

func (az *azStorage) getObjectNameString(key string) string {
	return az.Prefix + key
}

func (az *azStorage) UploadFile(ctx context.Context, loc storage.FileLocation, filePath string, opts storage.UploadOptions) error {
	if err := loc.Validate(); err != nil {
		return retry.Permanent(err)
	}

	md, err := storage.UploadMetadata(filePath, opts)
	if err != nil {
		return retry.Permanent(errors.Wrap(err, "unable to prepare metadata"))
	}

	cli, err := az.clientForAccount(ctx, loc.ContainerLocation)
	if err != nil {
		return err
	}

	f, err := os.Open(filePath) //nolint:gosec
	if err != nil {
		return errors.Wrap(err, "unable to open local file")
	}
	defer f.Close() //nolint:errcheck

	_, err = cli.UploadFile(ctx, loc.Container, az.getObjectNameString(loc.Key), f, &azblob.UploadFileOptions{
		Metadata: toPointerMap(md),
	})

	return errors.Wrapf(translateError(err), "UploadFile(%v)", loc)
}

func (az *azStorage) DownloadFile(ctx context.Context, loc storage.FileLocation, filePath string) error {
	cli, err := az.clientForAccount(ctx, loc.ContainerLocation)
	if err != nil {
		return err
	}

	resp, err := cli.DownloadStream(ctx, loc.Container, az.getObjectNameString(loc.Key), nil)
	if err != nil {
		return errors.Wrapf(translateError(err), "DownloadStream(%v)", loc)
	}
	defer resp.Body.Close() //nolint:errcheck

	if err := os.MkdirAll(filepath.Dir(filePath), 0o700); err != nil { //nolint:mnd
		return errors.Wrap(err, "unable to create local directory")
	}

	return errors.Wrapf(translateError(atomicfile.Write(filePath, resp.Body)), "error downloading %v", loc)
}

func (az *azStorage) ListFiles(ctx context.Context, containerLocation, container, keyPrefix string) ([]storage.ObjectInfo, error) {
	cli, err := az.clientForAccount(ctx, containerLocation)
	if err != nil {
		return nil, err
	}

	prefixStr := az.getObjectNameString(keyPrefix)

	pager := cli.NewListBlobsFlatPager(container, &azblob.ListBlobsFlatOptions{
		Prefix: &prefixStr,
	})

	var result []storage.ObjectInfo

	for pager.More() {
		resp, err := pager.NextPage(ctx)
		if err != nil {
			return nil, errors.Wrapf(translateError(err), "ListBlobs(%v/%v)", containerLocation, container)
		}

		for _, it := range resp.Segment.BlobItems {
			oi := storage.ObjectInfo{
				Key: strings.TrimPrefix(*it.Name, az.Prefix),
			}

			if p := it.Properties; p != nil {
				if p.ContentLength != nil {
					oi.Length = *p.ContentLength
				}

				if p.LastModified != nil {
					oi.Timestamp = *p.LastModified
				}
			}

			result = append(result, oi)
		}
	}

	return result, nil
}

func (az *azStorage) GetFileMetadata(ctx context.Context, loc storage.FileLocation) (map[string]string, error) {
	cli, err := az.clientForAccount(ctx, loc.ContainerLocation)
	if err != nil {
		return nil, err
	}

	bc := cli.ServiceClient().NewContainerClient(loc.Container).NewBlobClient(az.getObjectNameString(loc.Key))

	props, err := bc.GetProperties(ctx, nil)
	if err != nil {
		return nil, errors.Wrapf(translateError(err), "GetProperties(%v)", loc)
	}

	return fromPointerMap(props.Metadata), nil
}

func (az *azStorage) DisplayName() string {
	return "Azure"
}

func (az *azStorage) Close(ctx context.Context) error {
	az.mu.Lock()
	defer az.mu.Unlock()

	az.clients = map[string]*azblob.Client{}

	return nil
}

func toPointerMap(m map[string]string) map[string]*string {
	result := make(map[string]*string, len(m))

	for k, v := range m {
		result[k] = &v
	}

	return result
}

func fromPointerMap(m map[string]*string) map[string]string {
	result := make(map[string]string, len(m))

	for k, v := range m {
		if v != nil {
			result[k] = *v
		}
	}

	return result
}

// New creates new Azure Blob Storage-backed file manager with specified options.
// Credentials are selected in order: SAS token, shared key, client secret and finally
// the default Azure credential chain.
func New(ctx context.Context, opt *Options) (storage.FileManager, error) {
	if opt.ClientSecret != "" && (opt.TenantID == "" || opt.ClientID == "") {
		return nil, errors.New("tenant ID and client ID must be provided with client secret")
	}

	return &azStorage{
		Options: *opt,
		clients: map[string]*azblob.Client{},
	}, nil
}

func init() {
	storage.AddSupportedStorage(
		azStorageType,
		func() interface{} { return &Options{} },
		func(ctx context.Context, o interface{}) (storage.FileManager, error) {
			return New(ctx, o.(*Options)) //nolint:forcetypeassert
		})
}
