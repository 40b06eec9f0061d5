// Package testutil contains utilities used in tests.
package testutil

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"testing"
	"strings"
	"time"

	"github.com/google/uuid"
)

// TestSkipUnlessCI skips the current test with a provided message, except when running
// in CI environment, in which case it causes hard failure.
func TestSkipUnlessCI(tb testing.TB, msg string, args ...any) {
	tb.Helper()

	if len(args) > 0 {
		msg = fmt.Sprintf(msg, args...)
	}

	if os.Getenv("CI") != "" {
		tb.Fatal(msg)
	} else {
		tb.Skip(msg)
	}
}

// GetEnvOrSkip returns the value of the given environment variable or skips the test
// when it is not set.
func GetEnvOrSkip(tb testing.TB, name string) string {
	tb.Helper()

	value := os.Getenv(name)
	if value == "" {
		tb.Skipf("Environment variable '%v' not provided", name)
	}

	return value
}

// WriteTree creates the provided files under the root directory. Keys are slash-separated
// relative paths. A key ending in "/" creates an empty directory.
func WriteTree(tb testing.TB, root string, files map[string]string) {
	tb.Helper()

	for name, content := range files {
		p := filepath.Join(root, filepath.FromSlash(name))

		if name[len(name)-1] == '/' {
			if err := os.MkdirAll(p, 0o755); err != nil {
				tb.Fatal(err)
			}

			continue
		}

		if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
			tb.Fatal(err)
		}

		if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
			tb.Fatal(err)
		}
	}
}

// ReadTree returns the contents of all files under the root directory keyed by slash-separated
// relative path. Directories are reported with a trailing "/" and empty content.
func ReadTree(tb testing.TB, root string) map[string]string {
	tb.Helper()

	result := map[string]string{}

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}

		if rel == "." {
			return nil
		}

		rel = filepath.ToSlash(rel)

		if d.IsDir() {
			result[rel+"/"] = ""
			return nil
		}

		b, err := os.ReadFile(path) //nolint:gosec
		if err != nil {
			return err
		}

		result[rel] = string(b)

		return nil
	})
	if err != nil {
		tb.Fatal(err)
	}

	return result
}

// SetModTime sets both access and modification time of the given path.
func SetModTime(tb testing.TB, path string, t time.Time) {
	tb.Helper()

	if err := os.Chtimes(path, t, t); err != nil {
		tb.Fatal(err)
	}
}

// RandomName returns a unique lower-case name suitable for remote containers created by tests.
func RandomName(prefix string) string {
	return prefix + "-" + strings.ReplaceAll(uuid.NewString(), "-", "")[:16]
}
