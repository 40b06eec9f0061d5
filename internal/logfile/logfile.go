// Package logfile configures console and file logging for the filejanitor CLI.
package logfile

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/alecthomas/kingpin/v2"
	"github.com/fatih/color"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/kopia/filejanitor/cli"
	"github.com/kopia/filejanitor/internal/clock"
	"github.com/kopia/filejanitor/internal/ospath"
	"github.com/kopia/filejanitor/janitor"
	"github.com/kopia/filejanitor/logging"
)

const (
	logsDirMode = 0o700

	logFileNamePrefix = "filejanitor-"
	logFileNameSuffix = ".log"

	// CLISubdirectory is the directory under --log-dir that receives per-invocation log files.
	CLISubdirectory = "cli-logs"
)

var log = logging.Module("logfile")

var levels = map[string]zapcore.Level{
	"debug":   zap.DebugLevel,
	"info":    zap.InfoLevel,
	"warning": zap.WarnLevel,
	"error":   zap.ErrorLevel,
}

var levelNames = []string{"debug", "info", "warning", "error"}

type loggingFlags struct {
	cliApp *cli.App

	logFile      string
	logDir       string
	logRetention time.Duration
	consoleLevel string
	fileLevel    string
	fileLocalTZ  bool
	jsonFile     bool
	jsonConsole  bool
	disableColor bool
}

// Attach registers logging flags on the application and installs the logger factory once a command is selected.
func Attach(cliApp *cli.App, app *kingpin.Application) {
	c := &loggingFlags{cliApp: cliApp}

	app.Flag("log-file", "Write the log to this file instead of a new file under --log-dir.").StringVar(&c.logFile)
	app.Flag("log-dir", "Directory where log files should be written.").Envar(cliApp.EnvName("FILEJANITOR_LOG_DIR")).Default(ospath.LogsDir()).StringVar(&c.logDir)
	app.Flag("log-dir-max-age", "Remove log files older than this when a new one is created.").Envar(cliApp.EnvName("FILEJANITOR_LOG_DIR_MAX_AGE")).Hidden().Default("720h").DurationVar(&c.logRetention)
	app.Flag("log-level", "Console log level").Default("info").EnumVar(&c.consoleLevel, levelNames...)
	app.Flag("file-log-level", "File log level").Default("debug").EnumVar(&c.fileLevel, levelNames...)
	app.Flag("file-log-local-tz", "When logging to a file, use local timezone").Hidden().Envar(cliApp.EnvName("FILEJANITOR_FILE_LOG_LOCAL_TZ")).BoolVar(&c.fileLocalTZ)
	app.Flag("json-log-file", "Write the log file as JSON").Hidden().BoolVar(&c.jsonFile)
	app.Flag("json-log-console", "Write console logs as JSON").Hidden().BoolVar(&c.jsonConsole)
	app.Flag("disable-color", "Disable color output").Envar(cliApp.EnvName("FILEJANITOR_DISABLE_COLOR")).BoolVar(&c.disableColor)

	app.PreAction(c.initialize)
}

func (c *loggingFlags) initialize(pc *kingpin.ParseContext) error {
	if c.disableColor {
		color.NoColor = true
	}

	cmd := "unknown"
	if pc.SelectedCommand != nil {
		cmd = strings.ReplaceAll(pc.SelectedCommand.FullCommand(), " ", "-")
	}

	cores := []zapcore.Core{c.consoleCore()}

	if w := c.logFileWriter(cmd); w != nil {
		cores = append(cores, zapcore.NewCore(c.fileEncoder(), w, levels[c.fileLevel]))
	}

	root := zap.New(zapcore.NewTee(cores...), zap.WithClock(logging.Clock))

	c.cliApp.SetLoggerFactory(func(module string) logging.Logger {
		return root.Named(module).Sugar()
	})

	return nil
}

func (c *loggingFlags) consoleCore() zapcore.Core {
	ec := zapcore.EncoderConfig{
		LevelKey:         "l",
		MessageKey:       "m",
		LineEnding:       zapcore.DefaultLineEnding,
		EncodeDuration:   zapcore.StringDurationEncoder,
		ConsoleSeparator: " ",
	}

	var enc zapcore.Encoder

	if c.jsonConsole {
		ec.TimeKey = "t"
		ec.NameKey = "n"
		ec.EncodeTime = zapcore.RFC3339NanoTimeEncoder
		ec.EncodeLevel = zapcore.CapitalLevelEncoder
		ec.EncodeName = zapcore.FullNameEncoder
		enc = zapcore.NewJSONEncoder(ec)
	} else {
		levelEncoder := zapcore.CapitalColorLevelEncoder
		if c.disableColor {
			levelEncoder = zapcore.CapitalLevelEncoder
		}

		// info messages are printed without a level prefix.
		ec.EncodeLevel = func(l zapcore.Level, pae zapcore.PrimitiveArrayEncoder) {
			if l != zap.InfoLevel {
				levelEncoder(l, pae)
			}
		}
		enc = zapcore.NewConsoleEncoder(ec)
	}

	return zapcore.NewCore(enc, zapcore.AddSync(c.cliApp.Stderr()), levels[c.consoleLevel])
}

func (c *loggingFlags) fileEncoder() zapcore.Encoder {
	ec := zapcore.EncoderConfig{
		TimeKey:          "t",
		MessageKey:       "m",
		NameKey:          "n",
		LevelKey:         "l",
		LineEnding:       zapcore.DefaultLineEnding,
		EncodeName:       zapcore.FullNameEncoder,
		EncodeLevel:      zapcore.CapitalLevelEncoder,
		EncodeTime:       logging.TimezoneAdjust(logging.PreciseTimeEncoder, c.fileLocalTZ),
		EncodeDuration:   zapcore.StringDurationEncoder,
		ConsoleSeparator: " ",
	}

	if c.jsonFile {
		return zapcore.NewJSONEncoder(ec)
	}

	return zapcore.NewConsoleEncoder(ec)
}

// logFileWriter returns the destination for file logs, or nil when file logging is off.
// A new per-invocation file under --log-dir triggers a background sweep of expired log files.
func (c *loggingFlags) logFileWriter(cmd string) zapcore.WriteSyncer {
	if c.logFile != "" {
		p, err := filepath.Abs(c.logFile)
		if err != nil {
			fmt.Fprintln(os.Stderr, "Unable to resolve log file path:", err) //nolint:errcheck
			return nil
		}

		return &lazyFile{path: p}
	}

	if c.logDir == "" {
		return nil
	}

	dir := filepath.Join(c.logDir, CLISubdirectory)
	if err := os.MkdirAll(dir, logsDirMode); err != nil {
		fmt.Fprintln(os.Stderr, "Unable to create logs directory:", err) //nolint:errcheck
		return nil
	}

	if c.logRetention > 0 {
		go sweepLogDir(context.Background(), dir, c.logRetention)
	}

	now := clock.Now().UTC()
	if c.fileLocalTZ {
		now = now.Local()
	}

	return &lazyFile{path: filepath.Join(dir, LogFileName(now, os.Getpid(), cmd))}
}

// LogFileName returns the name of the log file for a command started at the given time.
func LogFileName(started time.Time, pid int, cmd string) string {
	return fmt.Sprintf("%v%v-%v-%v%v", logFileNamePrefix, started.Format("20060102-150405"), pid, cmd, logFileNameSuffix)
}

func isLogFile(p string) bool {
	base := filepath.Base(p)

	return strings.HasPrefix(base, logFileNamePrefix) && strings.HasSuffix(base, logFileNameSuffix)
}

// sweepLogDir applies the retention window to log files in the directory, leaving other files alone.
func sweepLogDir(ctx context.Context, dir string, maxAge time.Duration) {
	res, err := janitor.Cleanup(ctx, dir, janitor.Options{
		RetentionWindow: maxAge,
		DateStrategy:    janitor.LastUpdateDate,
		Include:         isLogFile,
	})
	if err != nil {
		log(ctx).Errorf("unable to sweep log directory: %v", err)
		return
	}

	log(ctx).Debugf("swept %v expired log files from %v", len(res.DeletedFiles), dir)
}

// lazyFile creates the log file on first write so that commands which never log leave no empty files behind.
type lazyFile struct {
	path string

	once sync.Once
	f    *os.File
}

func (w *lazyFile) Write(b []byte) (int, error) {
	w.once.Do(func() {
		f, err := os.Create(w.path)
		if err != nil {
			fmt.Fprintf(os.Stderr, "unable to open log file: %v\n", err) //nolint:errcheck
			return
		}

		w.f = f
	})

	if w.f == nil {
		return len(b), nil
	}

	//nolint:wrapcheck
	return w.f.Write(b)
}

func (w *lazyFile) Sync() error {
	if w.f == nil {
		return nil
	}

	//nolint:wrapcheck
	return w.f.Sync()
}
