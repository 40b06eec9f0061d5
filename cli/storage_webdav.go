package cli

import (
	"context"

	"github.com/alecthomas/kingpin/v2"

	"github.com/kopia/filejanitor/storage"
	"github.com/kopia/filejanitor/storage/webdav"
)

type storageWebDAVFlags struct {
	options webdav.Options
}

func (c *storageWebDAVFlags) Setup(svc StorageProviderServices, cmd *kingpin.CmdClause) {
	cmd.Flag("url", "URL of WebDAV server").Required().StringVar(&c.options.URL)
	cmd.Flag("webdav-username", "WebDAV username").Envar(svc.EnvName("FILEJANITOR_WEBDAV_USERNAME")).StringVar(&c.options.Username)
	cmd.Flag("webdav-password", "WebDAV password").Envar(svc.EnvName("FILEJANITOR_WEBDAV_PASSWORD")).StringVar(&c.options.Password)
}

func (c *storageWebDAVFlags) Connect(ctx context.Context) (storage.FileManager, error) {
	wo := c.options

	//nolint:wrapcheck
	return webdav.New(ctx, &wo)
}
