// Package units formats byte counts for console output.
package units

import (
	"os"
	"strconv"

	"github.com/dustin/go-humanize"
)

// BytesStringBase2Env selects binary (KiB, MiB, ...) units when set to a true value.
const BytesStringBase2Env = "FILEJANITOR_BYTES_STRING_BASE_2"

// BytesString formats the size using decimal units, or binary units when BytesStringBase2Env is set.
// Negative sizes are rendered with a leading minus sign.
func BytesString(b int64) string {
	sign := ""

	n := uint64(b) //nolint:gosec
	if b < 0 {
		sign = "-"
		n = uint64(-(b + 1)) + 1 //nolint:gosec
	}

	if base2, _ := strconv.ParseBool(os.Getenv(BytesStringBase2Env)); base2 {
		return sign + humanize.IBytes(n)
	}

	return sign + humanize.Bytes(n)
}
