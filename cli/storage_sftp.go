package cli

import (
	"context"
	"os"

	"github.com/alecthomas/kingpin/v2"
	"github.com/pkg/errors"

	"github.com/kopia/filejanitor/storage"
	"github.com/kopia/filejanitor/storage/sftp"
)

type storageSFTPFlags struct {
	options          sftp.Options
	embedCredentials bool
}

func (c *storageSFTPFlags) Setup(svc StorageProviderServices, cmd *kingpin.CmdClause) {
	cmd.Flag("remote-path", "Root directory of the storage on the SFTP/SSH server").Required().StringVar(&c.options.Path)
	cmd.Flag("host", "SFTP/SSH server hostname").Required().StringVar(&c.options.Host)
	cmd.Flag("port", "SFTP/SSH server port").Default("22").IntVar(&c.options.Port)
	cmd.Flag("username", "SFTP/SSH server username").Required().StringVar(&c.options.Username)
	cmd.Flag("sftp-password", "SFTP/SSH server password").Envar(svc.EnvName("FILEJANITOR_SFTP_PASSWORD")).StringVar(&c.options.Password)
	cmd.Flag("keyfile", "path to private key file for SFTP/SSH server").StringVar(&c.options.Keyfile)
	cmd.Flag("key-data", "private key data").Envar(svc.EnvName("FILEJANITOR_SFTP_KEY_DATA")).StringVar(&c.options.KeyData)
	cmd.Flag("known-hosts", "path to known_hosts file").StringVar(&c.options.KnownHostsFile)
	cmd.Flag("known-hosts-data", "known_hosts file entries").StringVar(&c.options.KnownHostsData)
	cmd.Flag("read-credentials", "Read key and known_hosts files into memory before connecting").BoolVar(&c.embedCredentials)
}

func (c *storageSFTPFlags) Connect(ctx context.Context) (storage.FileManager, error) {
	sftpo := c.options

	if c.embedCredentials {
		if sftpo.KeyData == "" && sftpo.Keyfile != "" {
			d, err := os.ReadFile(sftpo.Keyfile)
			if err != nil {
				return nil, errors.Wrap(err, "unable to read key file")
			}

			sftpo.KeyData = string(d)
			sftpo.Keyfile = ""
		}

		if sftpo.KnownHostsData == "" && sftpo.KnownHostsFile != "" {
			d, err := os.ReadFile(sftpo.KnownHostsFile)
			if err != nil {
				return nil, errors.Wrap(err, "unable to read known hosts file")
			}

			sftpo.KnownHostsData = string(d)
			sftpo.KnownHostsFile = ""
		}
	}

	if sftpo.KeyData == "" && sftpo.Keyfile == "" && sftpo.Password == "" {
		return nil, errors.New("must provide either key file, key data or password")
	}

	//nolint:wrapcheck
	return sftp.New(ctx, &sftpo)
}
