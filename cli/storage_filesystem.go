package cli

import (
	"context"
	"os"
	"strconv"

	"github.com/alecthomas/kingpin/v2"
	"github.com/pkg/errors"

	"github.com/kopia/filejanitor/internal/ospath"
	"github.com/kopia/filejanitor/storage"
	"github.com/kopia/filejanitor/storage/filesystem"
)

const defaultDirMode = 0o700

type storageFilesystemFlags struct {
	options filesystem.Options

	connectDirMode string
}

func (c *storageFilesystemFlags) Setup(svc StorageProviderServices, cmd *kingpin.CmdClause) {
	cmd.Flag("root", "Root directory of the storage").Required().Envar(svc.EnvName("FILEJANITOR_FILESYSTEM_ROOT")).StringVar(&c.options.Path)
	cmd.Flag("dir-mode", "Mode of newly created directories (0700)").PlaceHolder("MODE").StringVar(&c.connectDirMode)
}

func (c *storageFilesystemFlags) Connect(ctx context.Context) (storage.FileManager, error) {
	fso := c.options

	fso.Path = ospath.ResolveUserFriendlyPath(fso.Path, false)

	if !ospath.IsAbs(fso.Path) {
		return nil, errors.New("filesystem storage root must be absolute")
	}

	fso.DirectoryMode = getFileModeValue(c.connectDirMode, defaultDirMode)

	//nolint:wrapcheck
	return filesystem.New(ctx, &fso)
}

func getFileModeValue(value string, def os.FileMode) os.FileMode {
	if uint32Val, err := strconv.ParseUint(value, 8, 32); err == nil {
		return os.FileMode(uint32Val)
	}

	return def
}
