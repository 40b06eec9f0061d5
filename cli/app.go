// Package cli implements the filejanitor command-line interface.
package cli

import (
	"context"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kingpin/v2"
	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
	"github.com/pkg/errors"

	"github.com/kopia/filejanitor/archive"
	"github.com/kopia/filejanitor/archive/archivers"
	"github.com/kopia/filejanitor/logging"
)

var log = logging.Module("filejanitor/cli")

//nolint:gochecknoglobals
var (
	defaultColor = color.New()
	warningColor = color.New(color.FgYellow)
	errorColor   = color.New(color.FgHiRed)
)

type appServices interface {
	EnvName(s string) string
	stdout() io.Writer
	stderr() io.Writer
	archiveRegistry() *archive.Registry
	runAction(act func(ctx context.Context) error) func(ctx *kingpin.ParseContext) error
	storageProviders() []StorageProvider
}

type commandParent interface {
	Command(name, help string) *kingpin.CmdClause
}

// App contains per-invocation flags and state of filejanitor CLI.
type App struct {
	loggerFactory logging.LoggerFactory
	stdoutWriter  io.Writer
	stderrWriter  io.Writer
	envNamePrefix string
	rootctx       context.Context //nolint:containedctx
	registry      *archive.Registry
	providers     []StorageProvider

	observability observabilityFlags

	cleanup    commandCleanup
	archive    commandArchive
	restore    commandRestore
	deleteFile commandDeleteFile
	store      commandStore
	find       commandFind
	fetch      commandFetch
}

// NewApp creates a new instance of App.
func NewApp() *App {
	return &App{
		stdoutWriter: colorableStdout(),
		stderrWriter: colorableStderr(),
		rootctx:      context.Background(),
		registry:     archivers.NewRegistry(),
		providers:    StorageProviders,
	}
}

func colorableStdout() io.Writer {
	if !isatty.IsTerminal(os.Stdout.Fd()) && !isatty.IsCygwinTerminal(os.Stdout.Fd()) {
		color.NoColor = true
	}

	return os.Stdout
}

func colorableStderr() io.Writer {
	return os.Stderr
}

// SetLoggerFactory sets the logger factory to be used throughout the app.
func (c *App) SetLoggerFactory(loggerForModule logging.LoggerFactory) {
	c.loggerFactory = loggerForModule
}

// SetEnvNamePrefixForTesting sets the name prefix to be used for all environment variable names.
func (c *App) SetEnvNamePrefixForTesting(prefix string) {
	c.envNamePrefix = prefix
}

// SetOutputForTesting redirects standard output and error of the app.
func (c *App) SetOutputForTesting(stdout, stderr io.Writer) {
	c.stdoutWriter = stdout
	c.stderrWriter = stderr
}

// SetRootContextForTesting overrides the root context of all actions.
func (c *App) SetRootContextForTesting(ctx context.Context) {
	c.rootctx = ctx
}

// EnvName overrides the provided environment variable name for testability.
func (c *App) EnvName(n string) string {
	return c.envNamePrefix + n
}

// Stdout returns the stdout writer.
func (c *App) Stdout() io.Writer {
	return c.stdoutWriter
}

// Stderr returns the stderr writer.
func (c *App) Stderr() io.Writer {
	return c.stderrWriter
}

func (c *App) stdout() io.Writer {
	return c.stdoutWriter
}

func (c *App) stderr() io.Writer {
	return c.stderrWriter
}

func (c *App) archiveRegistry() *archive.Registry {
	return c.registry
}

func (c *App) storageProviders() []StorageProvider {
	return c.providers
}

// Attach attaches the CLI parser to the application.
func (c *App) Attach(app *kingpin.Application) {
	c.setup(app)
}

func (c *App) setup(app *kingpin.Application) {
	app.Flag("help-full", "Show help for all commands, including hidden").Action(func(pc *kingpin.ParseContext) error {
		_ = app.UsageForContextWithTemplate(pc, 0, kingpin.DefaultUsageTemplate)
		os.Exit(0)

		return nil
	}).Bool()

	c.observability.setup(c, app)

	c.cleanup.setup(c, app)
	c.archive.setup(c, app)
	c.restore.setup(c, app)
	c.deleteFile.setup(c, app)
	c.store.setup(c, app)
	c.find.setup(c, app)
	c.fetch.setup(c, app)
}

func (c *App) rootContext() context.Context {
	ctx := c.rootctx

	if c.loggerFactory != nil {
		ctx = logging.WithLogger(ctx, c.loggerFactory)
	}

	return ctx
}

func (c *App) runAction(act func(ctx context.Context) error) func(ctx *kingpin.ParseContext) error {
	return func(_ *kingpin.ParseContext) error {
		ctx, cancel := signal.NotifyContext(c.rootContext(), os.Interrupt, syscall.SIGTERM)
		defer cancel()

		if err := c.observability.startMetrics(ctx); err != nil {
			return errors.Wrap(err, "unable to start metrics")
		}

		err := act(ctx)

		c.observability.stopMetrics(ctx)

		if err != nil {
			log(ctx).Debugf("command failed: %v", err)
		}

		return err
	}
}

func printStderr(svc appServices, msg string, args ...interface{}) {
	defaultColor.Fprintf(svc.stderr(), msg, args...) //nolint:errcheck
}

func printWarning(svc appServices, msg string, args ...interface{}) {
	warningColor.Fprintf(svc.stderr(), msg, args...) //nolint:errcheck
}

// ReportError prints the error returned by a command in red and returns the process exit code.
func ReportError(err error) int {
	if err == nil {
		return 0
	}

	errorColor.Fprintf(os.Stderr, "ERROR: %v\n", err) //nolint:errcheck

	return 1
}

var _ appServices = (*App)(nil)
