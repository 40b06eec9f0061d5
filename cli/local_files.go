package cli

import (
	"os"

	"github.com/pkg/errors"
)

func fileSize(fname string) (int64, error) {
	st, err := os.Stat(fname)
	if err != nil {
		return 0, errors.Wrap(err, "unable to stat file")
	}

	return st.Size(), nil
}
