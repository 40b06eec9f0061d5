package cli

import (
	"context"

	"github.com/alecthomas/kingpin/v2"
	"github.com/pkg/errors"

	"github.com/kopia/filejanitor/storage"
	loggingwrapper "github.com/kopia/filejanitor/storage/logging"
)

// StorageProviderServices is implemented by the cli App that allows the cli
// and tests to mutate the default storage flags as required.
type StorageProviderServices interface {
	EnvName(s string) string
}

// StorageFlags is implemented by cli storage providers which need to support a
// particular backend. This requires the common setup and connection methods
// implemented by all the cli storage providers.
type StorageFlags interface {
	Setup(sps StorageProviderServices, cmd *kingpin.CmdClause)
	Connect(ctx context.Context) (storage.FileManager, error)
}

// StorageProvider is a provider for cli storage.
type StorageProvider struct {
	Name        string
	Description string
	NewFlags    func() StorageFlags
}

// StorageProviders is a list of available storage providers.
//
//nolint:gochecknoglobals
var StorageProviders = []StorageProvider{
	{"filesystem", "a local or network-attached filesystem", func() StorageFlags { return &storageFilesystemFlags{} }},
	{"s3", "an S3 bucket", func() StorageFlags { return &storageS3Flags{} }},
	{"gcs", "a Google Cloud Storage bucket", func() StorageFlags { return &storageGCSFlags{} }},
	{"azure", "an Azure blob storage", func() StorageFlags { return &storageAzureFlags{} }},
	{"sftp", "an SFTP storage", func() StorageFlags { return &storageSFTPFlags{} }},
	{"webdav", "a WebDAV storage", func() StorageFlags { return &storageWebDAVFlags{} }},
}

// registerStorageCommands creates a subcommand of parent for every storage provider. The action is invoked
// with a file manager connected using the provider flags, which is closed afterwards.
func registerStorageCommands(
	svc appServices,
	parent commandParent,
	verb string,
	setupFlags func(cmd *kingpin.CmdClause),
	run func(ctx context.Context, fm storage.FileManager) error,
) {
	for _, prov := range svc.storageProviders() {
		f := prov.NewFlags()
		cc := parent.Command(prov.Name, verb+" using "+prov.Description)
		f.Setup(svc, cc)
		setupFlags(cc)

		cc.Action(svc.runAction(func(ctx context.Context) error {
			fm, err := f.Connect(ctx)
			if err != nil {
				return errors.Wrap(err, "can't connect to storage")
			}

			fm = loggingwrapper.NewWrapper(fm, log(ctx), "[STORAGE] ")

			defer func() {
				if cerr := fm.Close(ctx); cerr != nil {
					log(ctx).Warnf("unable to close storage: %v", cerr)
				}
			}()

			return run(ctx, fm)
		}))
	}
}
