package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/pkg/errors"

	"github.com/kopia/filejanitor/exchange"
	"github.com/kopia/filejanitor/metadata"
)

type commandRestore struct {
	archiveFile  string
	target       string
	metadataFile string
	metadata     []string

	jo  jsonOutput
	svc appServices
}

func (c *commandRestore) setup(svc appServices, parent commandParent) {
	cmd := parent.Command("restore", "Restore a directory from an archive file")

	cmd.Flag("archive", "Archive file").Required().StringVar(&c.archiveFile)
	cmd.Flag("target", "Directory to restore into, must not exist").Required().StringVar(&c.target)
	cmd.Flag("metadata-file", "JSON file with archive metadata written by 'archive' or 'fetch metadata'").ExistingFileVar(&c.metadataFile)
	cmd.Flag("metadata", "Archive metadata item (key=value)").StringsVar(&c.metadata)

	c.jo.setup(svc, cmd)
	c.svc = svc

	cmd.Action(svc.runAction(c.run))
}

func (c *commandRestore) readMetadata() (metadata.Items, error) {
	switch {
	case c.metadataFile != "" && len(c.metadata) > 0:
		return nil, errors.New("--metadata-file and --metadata are mutually exclusive")

	case c.metadataFile != "":
		return readMetadataFile(c.metadataFile)

	case len(c.metadata) > 0:
		//nolint:wrapcheck
		return metadata.ParseKeyValues(c.metadata)

	default:
		return nil, errors.New("either --metadata-file or --metadata must be provided")
	}
}

func readMetadataFile(fname string) (metadata.Items, error) {
	b, err := os.ReadFile(fname) //nolint:gosec
	if err != nil {
		return nil, errors.Wrap(err, "unable to read metadata file")
	}

	var items metadata.Items

	if err := json.Unmarshal(b, &items); err != nil {
		return nil, errors.Wrapf(err, "invalid metadata file %v", fname)
	}

	return items, nil
}

func (c *commandRestore) run(ctx context.Context) error {
	md, err := c.readMetadata()
	if err != nil {
		return err
	}

	ad, err := exchange.New(nil, c.svc.archiveRegistry()).RestoreDownload(ctx, c.archiveFile, c.target, md)
	if err != nil {
		return errors.Wrap(err, "restore failed")
	}

	if c.jo.emit(ad) {
		return nil
	}

	fmt.Fprintf(c.svc.stdout(), "Restored %v archive %v to %v\n", ad.ArchiveKind, c.archiveFile, c.target) //nolint:errcheck

	return nil
}
