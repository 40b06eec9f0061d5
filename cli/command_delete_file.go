package cli

import (
	"context"
	"os"

	"github.com/pkg/errors"
)

type commandDeleteFile struct {
	path string
}

func (c *commandDeleteFile) setup(svc appServices, parent commandParent) {
	cmd := parent.Command("delete-file", "Delete a single local file")

	cmd.Flag("path", "File to delete").Required().StringVar(&c.path)

	cmd.Action(svc.runAction(c.run))
}

func (c *commandDeleteFile) run(ctx context.Context) error {
	st, err := os.Lstat(c.path)
	if err != nil {
		return errors.Wrapf(err, "file %v does not exist", c.path)
	}

	if st.IsDir() {
		return errors.Errorf("%v is a directory", c.path)
	}

	log(ctx).Debugf("deleting %v (%v bytes)", c.path, st.Size())

	if err := os.Remove(c.path); err != nil {
		return errors.Wrapf(err, "unable to delete %v", c.path)
	}

	log(ctx).Infof("deleted %v", c.path)

	return nil
}
