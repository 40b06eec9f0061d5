package cli

import (
	"context"
	"fmt"

	"github.com/alecthomas/kingpin/v2"
	"github.com/pkg/errors"

	"github.com/kopia/filejanitor/internal/atomicfile"
	"github.com/kopia/filejanitor/storage"
)

type commandFetch struct {
	file      commandFetchFile
	metadata  commandFetchMetadata
	directory commandFetchDirectory
}

func (c *commandFetch) setup(svc appServices, parent commandParent) {
	cmd := parent.Command("fetch", "Download files, metadata and directories from remote storage")

	c.file.setup(svc, cmd)
	c.metadata.setup(svc, cmd)
	c.directory.setup(svc, cmd)
}

type fetchFlags struct {
	remoteFileFlags
	retryFlags
}

func (c *fetchFlags) setup(svc appServices, cmd *kingpin.CmdClause) {
	c.remoteFileFlags.setup(svc, cmd)
	c.retryFlags.setup(svc, cmd)
}

type commandFetchFile struct {
	fetchFlags

	path string

	jo jsonOutput
}

// fetchFileResult is printed by 'fetch file'.
type fetchFileResult struct {
	Location storage.FileLocation `json:"location"`
	Path     string               `json:"path"`
}

func (c *commandFetchFile) setup(svc appServices, parent commandParent) {
	cmd := parent.Command("file", "Download a single file")

	c.jo.setup(svc, cmd)

	registerStorageCommands(svc, cmd, "Download a file", func(cc *kingpin.CmdClause) {
		c.fetchFlags.setup(svc, cc)
		cc.Flag("path", "Local path to write to, "+keyPlaceholder+" is replaced with the remote key").Required().StringVar(&c.path)
	}, func(ctx context.Context, fm storage.FileManager) error {
		e := c.exchanger(fm, svc.archiveRegistry())

		loc, err := c.resolve(ctx, e)
		if err != nil {
			return err
		}

		localPath := replaceKeyPlaceholder(c.path, loc.Key)

		if err := e.FetchFile(ctx, loc, localPath); err != nil {
			return err //nolint:wrapcheck
		}

		if !c.jo.emit(fetchFileResult{loc, localPath}) {
			fmt.Fprintf(svc.stdout(), "Fetched %v to %v\n", loc, localPath) //nolint:errcheck
		}

		return nil
	})
}

type commandFetchMetadata struct {
	fetchFlags

	metadataFile string

	jo jsonOutput
}

func (c *commandFetchMetadata) setup(svc appServices, parent commandParent) {
	cmd := parent.Command("metadata", "Show metadata of a remote file")

	c.jo.setup(svc, cmd)

	registerStorageCommands(svc, cmd, "Show metadata", func(cc *kingpin.CmdClause) {
		c.fetchFlags.setup(svc, cc)
		cc.Flag("metadata-file", "Also write metadata to the provided JSON file").StringVar(&c.metadataFile)
	}, func(ctx context.Context, fm storage.FileManager) error {
		e := c.exchanger(fm, svc.archiveRegistry())

		loc, err := c.resolve(ctx, e)
		if err != nil {
			return err
		}

		md, err := e.FetchMetadata(ctx, loc)
		if err != nil {
			return err //nolint:wrapcheck
		}

		if c.metadataFile != "" {
			if err := atomicfile.WriteJSON(c.metadataFile, md); err != nil {
				return errors.Wrap(err, "unable to write metadata file")
			}
		}

		if c.jo.emit(md) {
			return nil
		}

		for _, it := range md {
			fmt.Fprintln(svc.stdout(), it) //nolint:errcheck
		}

		return nil
	})
}

type commandFetchDirectory struct {
	fetchFlags

	target string

	jo jsonOutput
}

func (c *commandFetchDirectory) setup(svc appServices, parent commandParent) {
	cmd := parent.Command("directory", "Download an archived directory and restore it")

	c.jo.setup(svc, cmd)

	registerStorageCommands(svc, cmd, "Download a directory", func(cc *kingpin.CmdClause) {
		c.fetchFlags.setup(svc, cc)
		cc.Flag("target", "Directory to restore into, must not exist, "+keyPlaceholder+" is replaced with the remote key").Required().StringVar(&c.target)
	}, func(ctx context.Context, fm storage.FileManager) error {
		e := c.exchanger(fm, svc.archiveRegistry())

		loc, err := c.resolve(ctx, e)
		if err != nil {
			return err
		}

		target := replaceKeyPlaceholder(c.target, loc.Key)

		ad, err := e.FetchAndRestoreDirectory(ctx, loc, target)
		if err != nil {
			return err //nolint:wrapcheck
		}

		if !c.jo.emit(ad) {
			fmt.Fprintf(svc.stdout(), "Restored %v to %v\n", loc, target) //nolint:errcheck
		}

		return nil
	})
}
