package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/gofrs/flock"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/kopia/filejanitor/internal/units"
	"github.com/kopia/filejanitor/janitor"
)

const lockRetryDelay = 100 * time.Millisecond

type commandCleanup struct {
	rootPath               string
	retentionWindow        string
	recursive              bool
	deleteEmptyDirectories bool
	dateRetrievalStrategy  string

	configFile  string
	parallel    int
	lockFile    string
	lockTimeout time.Duration

	jo  jsonOutput
	svc appServices
}

func (c *commandCleanup) setup(svc appServices, parent commandParent) {
	cmd := parent.Command("cleanup", "Delete files older than the retention window")

	cmd.Flag("root-path", "Directory to clean up").StringVar(&c.rootPath)
	cmd.Flag("retention-window", "Retention window in dd:hh:mm format").PlaceHolder("dd:hh:mm").StringVar(&c.retentionWindow)
	cmd.Flag("recursive", "Include files in subdirectories").BoolVar(&c.recursive)
	cmd.Flag("delete-empty-directories", "Remove directories left without any files").BoolVar(&c.deleteEmptyDirectories)
	cmd.Flag("date-retrieval-strategy", "File timestamp compared against the retention window").Default(string(janitor.DefaultDateStrategy)).EnumVar(&c.dateRetrievalStrategy, janitor.SupportedDateStrategies()...)
	cmd.Flag("config", "YAML file with cleanup jobs").ExistingFileVar(&c.configFile)
	cmd.Flag("parallel", "Maximum number of jobs from the config file to run concurrently").Default("4").IntVar(&c.parallel)
	cmd.Flag("lock-file", "Hold an exclusive lock on the provided file while cleaning up").StringVar(&c.lockFile)
	cmd.Flag("lock-timeout", "How long to wait for the lock file").Default("1m").DurationVar(&c.lockTimeout)

	c.jo.setup(svc, cmd)
	c.svc = svc

	cmd.Action(svc.runAction(c.run))
}

func (c *commandCleanup) jobs() ([]janitor.Job, error) {
	if c.configFile != "" {
		if c.rootPath != "" || c.retentionWindow != "" {
			return nil, errors.New("--config can't be combined with --root-path or --retention-window")
		}

		jf, err := janitor.LoadJobFile(c.configFile)
		if err != nil {
			return nil, errors.Wrap(err, "unable to load config")
		}

		return jf.Jobs, nil
	}

	if c.rootPath == "" || c.retentionWindow == "" {
		return nil, errors.New("either --config or both --root-path and --retention-window must be provided")
	}

	j := janitor.Job{
		Name:                   c.rootPath,
		RootPath:               c.rootPath,
		RetentionWindow:        c.retentionWindow,
		Recursive:              c.recursive,
		DeleteEmptyDirectories: c.deleteEmptyDirectories,
		DateRetrievalStrategy:  c.dateRetrievalStrategy,
	}

	if _, err := j.Options(); err != nil {
		return nil, err
	}

	return []janitor.Job{j}, nil
}

func (c *commandCleanup) run(ctx context.Context) error {
	jobs, err := c.jobs()
	if err != nil {
		return err
	}

	if c.lockFile != "" {
		unlock, err := acquireLock(ctx, c.lockFile, c.lockTimeout)
		if err != nil {
			return err
		}

		defer unlock()
	}

	results := make([]*janitor.Result, len(jobs))

	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(max(c.parallel, 1))

	for i, j := range jobs {
		eg.Go(func() error {
			opt, err := j.Options()
			if err != nil {
				return err
			}

			res, err := janitor.Cleanup(ctx, j.RootPath, opt)
			if err != nil {
				return errors.Wrapf(err, "cleanup of %v failed", j.Name)
			}

			results[i] = res

			return nil
		})
	}

	if err := eg.Wait(); err != nil {
		return err //nolint:wrapcheck
	}

	if c.jo.emit(results) {
		return nil
	}

	for _, res := range results {
		if len(res.DeletedFiles) == 0 && res.RetainedFiles == 0 {
			printWarning(c.svc, "WARNING: no files found under %v\n", res.RootPath)
		}

		fmt.Fprintf(c.svc.stdout(), "%v: deleted %v files (%v) and %v directories, retained %v files, cutoff %v\n", //nolint:errcheck
			res.RootPath,
			len(res.DeletedFiles),
			units.BytesString(res.DeletedBytes),
			len(res.DeletedDirectories),
			res.RetainedFiles,
			res.Cutoff.Format(time.RFC3339))
	}

	return nil
}

func acquireLock(ctx context.Context, fname string, timeout time.Duration) (func(), error) {
	fl := flock.New(fname)

	lockCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	ok, err := fl.TryLockContext(lockCtx, lockRetryDelay)
	if err != nil {
		return nil, errors.Wrapf(err, "unable to acquire lock %v", fname)
	}

	if !ok {
		return nil, errors.Errorf("lock %v is held by another process", fname)
	}

	log(ctx).Debugf("acquired lock %v", fname)

	return func() {
		if err := fl.Unlock(); err != nil {
			log(ctx).Warnf("unable to release lock %v: %v", fname, err)
		}
	}, nil
}
