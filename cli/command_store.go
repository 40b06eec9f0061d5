package cli

import (
	"context"
	"fmt"

	"github.com/alecthomas/kingpin/v2"

	"github.com/kopia/filejanitor/metadata"
	"github.com/kopia/filejanitor/storage"
)

type commandStore struct {
	file      commandStoreFile
	directory commandStoreDirectory
}

func (c *commandStore) setup(svc appServices, parent commandParent) {
	cmd := parent.Command("store", "Upload files and directories to remote storage")

	c.file.setup(svc, cmd)
	c.directory.setup(svc, cmd)
}

// storeFlags are shared by all upload commands.
type storeFlags struct {
	containerFlags
	retryFlags

	path           string
	key            string
	metadata       []string
	hashAlgorithms []string
}

func (c *storeFlags) setup(svc appServices, cmd *kingpin.CmdClause) {
	c.containerFlags.setup(svc, cmd)
	c.retryFlags.setup(svc, cmd)

	cmd.Flag("path", "Local path to upload").Required().StringVar(&c.path)
	cmd.Flag("key", "Remote key, defaults to the base name of the local path").StringVar(&c.key)
	cmd.Flag("metadata", "Metadata item to attach (key=value)").StringsVar(&c.metadata)
	cmd.Flag("hash-algorithm", "Content hash to compute and attach as metadata").EnumsVar(&c.hashAlgorithms, storage.SupportedHashAlgorithms()...)
}

type commandStoreFile struct {
	storeFlags

	jo jsonOutput
}

func (c *commandStoreFile) setup(svc appServices, parent commandParent) {
	cmd := parent.Command("file", "Upload a single file")

	c.jo.setup(svc, cmd)

	registerStorageCommands(svc, cmd, "Upload a file", func(cc *kingpin.CmdClause) {
		c.storeFlags.setup(svc, cc)
	}, func(ctx context.Context, fm storage.FileManager) error {
		md, err := metadata.ParseKeyValues(c.metadata)
		if err != nil {
			return err //nolint:wrapcheck
		}

		printStderr(svc, "Uploading %v to %v...\n", c.path, fm.DisplayName())

		loc, err := c.exchanger(fm, svc.archiveRegistry()).StoreFile(ctx, c.path, c.containerLocation, c.container, c.key, md, c.hashAlgorithms)
		if err != nil {
			return err //nolint:wrapcheck
		}

		if !c.jo.emit(loc) {
			fmt.Fprintf(svc.stdout(), "Stored %v as %v\n", c.path, loc) //nolint:errcheck
		}

		return nil
	})
}

type commandStoreDirectory struct {
	storeFlags

	af archiveFlags
	jo jsonOutput
}

// storeDirectoryResult is printed by 'store directory'.
type storeDirectoryResult struct {
	Location storage.FileLocation `json:"location"`
	Archive  interface{}          `json:"archive"`
}

func (c *commandStoreDirectory) setup(svc appServices, parent commandParent) {
	cmd := parent.Command("directory", "Archive a directory and upload the archive")

	c.jo.setup(svc, cmd)
	c.af.setup(cmd)

	registerStorageCommands(svc, cmd, "Upload a directory", func(cc *kingpin.CmdClause) {
		c.storeFlags.setup(svc, cc)
	}, func(ctx context.Context, fm storage.FileManager) error {
		md, err := metadata.ParseKeyValues(c.metadata)
		if err != nil {
			return err //nolint:wrapcheck
		}

		opt, err := c.af.storeDirectoryOptions()
		if err != nil {
			return err
		}

		printStderr(svc, "Archiving and uploading %v to %v...\n", c.path, fm.DisplayName())

		loc, ad, err := c.exchanger(fm, svc.archiveRegistry()).StoreDirectory(ctx, c.path, opt, c.containerLocation, c.container, c.key, md, c.hashAlgorithms)
		if err != nil {
			return err //nolint:wrapcheck
		}

		if !c.jo.emit(storeDirectoryResult{loc, c.jo.cleanupForJSON(ad)}) {
			fmt.Fprintf(svc.stdout(), "Stored %v as %v (%v, %v)\n", c.path, loc, ad.ArchiveKind, ad.CompressionKind) //nolint:errcheck
		}

		return nil
	})
}
