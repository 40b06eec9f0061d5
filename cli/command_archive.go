package cli

import (
	"context"
	"fmt"

	"github.com/pkg/errors"

	"github.com/kopia/filejanitor/archive"
	"github.com/kopia/filejanitor/internal/atomicfile"
	"github.com/kopia/filejanitor/internal/units"
)

type commandArchive struct {
	source       string
	target       string
	metadataFile string

	af  archiveFlags
	jo  jsonOutput
	svc appServices
}

func (c *commandArchive) setup(svc appServices, parent commandParent) {
	cmd := parent.Command("archive", "Archive a directory into a single file")

	cmd.Flag("source", "Directory to archive").Required().ExistingDirVar(&c.source)
	cmd.Flag("target", "Archive file to create, must not exist").Required().StringVar(&c.target)
	cmd.Flag("metadata-file", "Write archive metadata required for restore to the provided JSON file").StringVar(&c.metadataFile)

	c.af.setup(cmd)
	c.jo.setup(svc, cmd)
	c.svc = svc

	cmd.Action(svc.runAction(c.run))
}

func (c *commandArchive) run(ctx context.Context) error {
	opt, err := c.af.storeDirectoryOptions()
	if err != nil {
		return err
	}

	arch, err := c.svc.archiveRegistry().BuildArchiver(opt.ArchiveKind, opt.CompressionKind)
	if err != nil {
		return errors.Wrap(err, "unable to create archiver")
	}

	ad, err := arch.ArchiveDirectory(ctx, c.source, c.target, archive.ArchiveOptions{
		IncludeBaseDirectory: opt.IncludeBaseDirectory,
		EntryNameEncoding:    opt.EntryNameEncoding,
	})
	if err != nil {
		return errors.Wrapf(err, "unable to archive %v", c.source)
	}

	if c.metadataFile != "" {
		if err := atomicfile.WriteJSON(c.metadataFile, ad.ToMetadata()); err != nil {
			return errors.Wrap(err, "unable to write metadata file")
		}
	}

	if c.jo.emit(ad) {
		return nil
	}

	size, err := fileSize(ad.ArchiveFilePath)
	if err != nil {
		return err
	}

	fmt.Fprintf(c.svc.stdout(), "Archived %v to %v (%v, %v)\n", c.source, ad.ArchiveFilePath, ad.ArchiveKind, units.BytesString(size)) //nolint:errcheck

	for _, it := range ad.ToMetadata() {
		fmt.Fprintf(c.svc.stdout(), "  %v\n", it) //nolint:errcheck
	}

	return nil
}
