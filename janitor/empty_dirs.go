package janitor

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
)

var errHasFiles = errors.New("directory has files")

// deleteEmptyDirectories runs after all file deletions. A directory is empty when its
// subtree contains no files. The root directory is never removed.
func deleteEmptyDirectories(ctx context.Context, rootPath string, opt Options, res *Result) error {
	if opt.Recursive {
		_, err := pruneBottomUp(ctx, rootPath, opt, res)
		return err
	}

	entries, err := os.ReadDir(rootPath)
	if err != nil {
		return errors.Wrapf(err, "unable to list %v", rootPath)
	}

	for _, e := range entries {
		if !e.IsDir() {
			continue
		}

		if err := ctx.Err(); err != nil {
			return errors.Wrap(err, "cleanup canceled")
		}

		dir := filepath.Join(rootPath, e.Name())

		empty, err := hasNoFiles(dir)
		if err != nil {
			return err
		}

		if !empty {
			continue
		}

		if err := removeDirectory(ctx, dir, opt, res, os.RemoveAll); err != nil {
			return err
		}
	}

	return nil
}

// pruneBottomUp removes empty subdirectories of dir deepest-first and reports whether
// dir itself ended up empty.
func pruneBottomUp(ctx context.Context, dir string, opt Options, res *Result) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, errors.Wrap(err, "cleanup canceled")
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return false, errors.Wrapf(err, "unable to list %v", dir)
	}

	empty := true

	for _, e := range entries {
		if !e.IsDir() {
			empty = false
			continue
		}

		child := filepath.Join(dir, e.Name())

		childEmpty, err := pruneBottomUp(ctx, child, opt, res)
		if err != nil {
			return false, err
		}

		if !childEmpty {
			empty = false
			continue
		}

		if err := removeDirectory(ctx, child, opt, res, os.Remove); err != nil {
			return false, err
		}
	}

	return empty, nil
}

func removeDirectory(ctx context.Context, dir string, opt Options, res *Result, remove func(string) error) error {
	log(ctx).Infof("deleting empty directory %v", dir)

	if opt.OnDelete != nil {
		opt.OnDelete(dir, true)
	}

	if err := remove(dir); err != nil && !os.IsNotExist(err) {
		return errors.Wrapf(err, "unable to delete directory %v", dir)
	}

	res.DeletedDirectories = append(res.DeletedDirectories, dir)

	metricDeletedDirectories.Inc()

	return nil
}

func hasNoFiles(dir string) (bool, error) {
	err := filepath.WalkDir(dir, func(_ string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		if !d.IsDir() {
			return errHasFiles
		}

		return nil
	})

	if errors.Is(err, errHasFiles) {
		return false, nil
	}

	if err != nil {
		return false, errors.Wrapf(err, "unable to scan %v", dir)
	}

	return true, nil
}
