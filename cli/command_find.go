package cli

import (
	"context"
	"fmt"

	"github.com/alecthomas/kingpin/v2"

	"github.com/kopia/filejanitor/exchange"
	"github.com/kopia/filejanitor/storage"
)

type commandFind struct {
	containerFlags
	retryFlags

	prefix   string
	strategy string

	jo jsonOutput
}

func (c *commandFind) setup(svc appServices, parent commandParent) {
	cmd := parent.Command("find", "Find a remote file by key prefix")

	c.jo.setup(svc, cmd)

	registerStorageCommands(svc, cmd, "Find a file", func(cc *kingpin.CmdClause) {
		c.containerFlags.setup(svc, cc)
		c.retryFlags.setup(svc, cc)

		cc.Flag("prefix", "Key prefix").Required().StringVar(&c.prefix)
		cc.Flag("strategy", "Strategy used when more than one key matches the prefix").Default(string(exchange.SingleMatchExpectedThrow)).EnumVar(&c.strategy, strategyNames()...)
	}, func(ctx context.Context, fm storage.FileManager) error {
		loc, err := c.exchanger(fm, svc.archiveRegistry()).FindFile(ctx, c.containerLocation, c.container, c.prefix, exchange.MultipleKeysFoundStrategy(c.strategy))
		if err != nil {
			return err //nolint:wrapcheck
		}

		if !c.jo.emit(loc) {
			fmt.Fprintln(svc.stdout(), loc.Key) //nolint:errcheck
		}

		return nil
	})
}
