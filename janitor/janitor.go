// Package janitor removes files older than a retention window from a directory tree.
package janitor

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/pkg/errors"

	"github.com/kopia/filejanitor/internal/clock"
	"github.com/kopia/filejanitor/internal/filetime"
	"github.com/kopia/filejanitor/logging"
)

var log = logging.Module("janitor")

// ErrInvalidRoot is returned when the cleanup root does not exist or is not a directory.
var ErrInvalidRoot = errors.New("invalid cleanup root")

// Options controls the behavior of Cleanup.
type Options struct {
	RetentionWindow        time.Duration
	Recursive              bool
	DeleteEmptyDirectories bool
	DateStrategy           DateRetrievalStrategy

	// TimeNow returns the current time, defaults to clock.Now.
	TimeNow func() time.Time

	// OnDelete is invoked right before a file or directory is removed.
	OnDelete func(path string, isDir bool)

	// Include limits the cleanup to files for which it returns true. Other files are
	// neither deleted nor counted as retained.
	Include func(path string) bool
}

// Result describes the outcome of a cleanup.
type Result struct {
	RootPath           string    `json:"rootPath"`
	Cutoff             time.Time `json:"cutoff"`
	DeletedFiles       []string  `json:"deletedFiles"`
	DeletedDirectories []string  `json:"deletedDirectories"`
	DeletedBytes       int64     `json:"deletedBytes"`
	RetainedFiles      int       `json:"retainedFiles"`
}

type fileEntry struct {
	path string
	info os.FileInfo
}

// Cleanup deletes files under rootPath whose timestamp selected by the date strategy
// is strictly before now minus the retention window, then optionally removes directories
// left without any files.
func Cleanup(ctx context.Context, rootPath string, opt Options) (*Result, error) {
	strategy, err := opt.DateStrategy.resolve()
	if err != nil {
		return nil, err
	}

	if opt.RetentionWindow < 0 {
		return nil, errors.Errorf("retention window must not be negative, got %v", opt.RetentionWindow)
	}

	if rootPath == "" {
		return nil, errors.Wrap(ErrInvalidRoot, "root path must be provided")
	}

	st, err := os.Stat(rootPath)
	if err != nil {
		return nil, errors.Wrapf(ErrInvalidRoot, "%v: %v", rootPath, err)
	}

	if !st.IsDir() {
		return nil, errors.Wrapf(ErrInvalidRoot, "%v is not a directory", rootPath)
	}

	now := opt.TimeNow
	if now == nil {
		now = clock.Now
	}

	res := &Result{
		RootPath: rootPath,
		Cutoff:   now().UTC().Add(-opt.RetentionWindow),
	}

	log(ctx).Debugw("cleanup",
		"root", rootPath,
		"cutoff", res.Cutoff,
		"strategy", strategy,
		"recursive", opt.Recursive)

	files, err := listFiles(rootPath, opt.Recursive)
	if err != nil {
		return nil, err
	}

	for _, f := range files {
		if err := ctx.Err(); err != nil {
			return res, errors.Wrap(err, "cleanup canceled")
		}

		if opt.Include != nil && !opt.Include(f.path) {
			continue
		}

		if err := cleanupFile(ctx, f, strategy, opt, res); err != nil {
			return res, err
		}
	}

	if opt.DeleteEmptyDirectories {
		if err := deleteEmptyDirectories(ctx, rootPath, opt, res); err != nil {
			return res, err
		}
	}

	return res, nil
}

func cleanupFile(ctx context.Context, f fileEntry, strategy DateRetrievalStrategy, opt Options, res *Result) error {
	times, err := filetime.FromFileInfo(f.path, f.info)
	if err != nil {
		if os.IsNotExist(errors.Cause(err)) {
			return nil
		}

		return errors.Wrapf(err, "unable to get timestamps of %v", f.path)
	}

	ts := strategy.timestamp(times)

	if !ts.Before(res.Cutoff) {
		res.RetainedFiles++
		metricRetainedFiles.Inc()

		return nil
	}

	log(ctx).Infof("deleting file %v (%v %v is before %v)", f.path, strategy, ts.Format(time.RFC3339), res.Cutoff.Format(time.RFC3339))

	if opt.OnDelete != nil {
		opt.OnDelete(f.path, false)
	}

	if err := os.Remove(f.path); err != nil {
		if os.IsNotExist(err) {
			// we lost the race, the file was deleted since it was listed.
			return nil
		}

		return errors.Wrapf(err, "unable to delete %v", f.path)
	}

	res.DeletedFiles = append(res.DeletedFiles, f.path)
	res.DeletedBytes += f.info.Size()

	metricDeletedFiles.Inc()
	metricDeletedBytes.Add(float64(f.info.Size()))

	return nil
}

func listFiles(rootPath string, recursive bool) ([]fileEntry, error) {
	var result []fileEntry

	if !recursive {
		entries, err := os.ReadDir(rootPath)
		if err != nil {
			return nil, errors.Wrapf(err, "unable to list %v", rootPath)
		}

		for _, e := range entries {
			if e.IsDir() {
				continue
			}

			info, err := e.Info()
			if os.IsNotExist(err) {
				continue
			}

			if err != nil {
				return nil, errors.Wrapf(err, "unable to read file info of %v", e.Name())
			}

			result = append(result, fileEntry{filepath.Join(rootPath, e.Name()), info})
		}

		return result, nil
	}

	err := filepath.WalkDir(rootPath, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if os.IsNotExist(err) && path != rootPath {
				return nil
			}

			return err
		}

		if d.IsDir() {
			return nil
		}

		info, err := d.Info()
		if os.IsNotExist(err) {
			return nil
		}

		if err != nil {
			return errors.Wrapf(err, "unable to read file info of %v", path)
		}

		result = append(result, fileEntry{path, info})

		return nil
	})

	return result, errors.Wrapf(err, "unable to list %v", rootPath)
}
