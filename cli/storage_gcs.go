package cli

import (
	"context"
	"encoding/json"
	"os"

	"github.com/alecthomas/kingpin/v2"
	"github.com/pkg/errors"

	"github.com/kopia/filejanitor/storage"
	"github.com/kopia/filejanitor/storage/gcs"
)

type storageGCSFlags struct {
	options gcs.Options

	embedCredentials bool
}

func (c *storageGCSFlags) Setup(svc StorageProviderServices, cmd *kingpin.CmdClause) {
	cmd.Flag("prefix", "Prefix to use for objects in the bucket").StringVar(&c.options.Prefix)
	cmd.Flag("credentials-file", "Use the provided JSON file with credentials").Envar(svc.EnvName("GOOGLE_APPLICATION_CREDENTIALS")).ExistingFileVar(&c.options.ServiceAccountCredentialsFile)
	cmd.Flag("read-credentials", "Read the credentials file into memory before connecting").BoolVar(&c.embedCredentials)
	cmd.Flag("gcs-endpoint", "Override GCS endpoint, e.g. to use an emulator").Hidden().StringVar(&c.options.Endpoint)
}

func (c *storageGCSFlags) Connect(ctx context.Context) (storage.FileManager, error) {
	opt := c.options

	if c.embedCredentials && opt.ServiceAccountCredentialsFile != "" {
		data, err := os.ReadFile(opt.ServiceAccountCredentialsFile)
		if err != nil {
			return nil, errors.Wrap(err, "unable to open service account credentials file")
		}

		opt.ServiceAccountCredentialJSON = json.RawMessage(data)
		opt.ServiceAccountCredentialsFile = ""
	}

	//nolint:wrapcheck
	return gcs.New(ctx, &opt)
}
