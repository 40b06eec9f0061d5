package cli_test

import (
	"bytes"
	"testing"

	"github.com/alecthomas/kingpin/v2"

	"github.com/kopia/filejanitor/cli"
	"github.com/kopia/filejanitor/internal/testlogging"
)

type runResult struct {
	stdout string
	stderr string
}

// runCLI runs the command in-process with a fresh App and returns captured output.
func runCLI(t *testing.T, args ...string) (runResult, error) {
	t.Helper()

	var stdout, stderr bytes.Buffer

	kp := kingpin.New("test", "test")
	kp.Terminate(nil)

	app := cli.NewApp()
	app.SetEnvNamePrefixForTesting("FILEJANITOR_TEST_")
	app.SetOutputForTesting(&stdout, &stderr)
	app.SetRootContextForTesting(testlogging.Context(t))
	app.Attach(kp)

	_, err := kp.Parse(args)

	return runResult{stdout.String(), stderr.String()}, err
}

func runCLIExpectSuccess(t *testing.T, args ...string) runResult {
	t.Helper()

	res, err := runCLI(t, args...)
	if err != nil {
		t.Fatalf("%v failed: %v\nstdout: %v\nstderr: %v", args, err, res.stdout, res.stderr)
	}

	return res
}
