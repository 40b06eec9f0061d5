/*
Command-line tool for retention cleanup, archiving and remote exchange of files.

Usage:

	$ filejanitor [<flags>] <subcommand> [<args> ...]

Use 'filejanitor help' to see more details.
*/
package main

import (
	"os"

	"github.com/alecthomas/kingpin/v2"

	"github.com/kopia/filejanitor/cli"
	"github.com/kopia/filejanitor/internal/logfile"
)

//nolint:gochecknoglobals
var (
	version = "dev"
	commit  = "none"
)

func main() {
	app := cli.NewApp()
	kp := kingpin.New("filejanitor", "Filejanitor - file lifecycle engine").Author("http://kopia.github.io/")
	kp.Version(version + " build: " + commit)

	logfile.Attach(app, kp)
	app.Attach(kp)

	_, err := kp.Parse(os.Args[1:])
	os.Exit(cli.ReportError(err))
}
