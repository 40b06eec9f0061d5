package archive

import (
	"strings"

	"github.com/pkg/errors"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/htmlindex"
)

// DefaultEntryNameEncoding is the web name of the encoding used when none is specified.
const DefaultEntryNameEncoding = "utf-8"

// ResolveEncoding returns the encoding with the provided web name and its canonical name.
// An empty name resolves to UTF-8.
func ResolveEncoding(name string) (encoding.Encoding, string, error) {
	if strings.TrimSpace(name) == "" {
		name = DefaultEntryNameEncoding
	}

	enc, err := htmlindex.Get(name)
	if err != nil {
		return nil, "", errors.Wrapf(ErrUnknownEncoding, "%q", name)
	}

	canonical, err := htmlindex.Name(enc)
	if err != nil {
		return nil, "", errors.Wrapf(ErrUnknownEncoding, "%q", name)
	}

	return enc, canonical, nil
}

// IsUTF8 returns true if the canonical encoding name is UTF-8.
func IsUTF8(canonicalName string) bool {
	return strings.EqualFold(canonicalName, DefaultEntryNameEncoding)
}

// EncodeEntryName converts slash-separated entry name to the bytes stored in the archive.
func EncodeEntryName(enc encoding.Encoding, name string) (string, error) {
	s, err := enc.NewEncoder().String(name)
	if err != nil {
		return "", errors.Wrapf(err, "entry name %q cannot be represented in the selected encoding", name)
	}

	return s, nil
}

// DecodeEntryName converts raw entry name stored in the archive back to a string.
func DecodeEntryName(enc encoding.Encoding, raw string) (string, error) {
	s, err := enc.NewDecoder().String(raw)
	if err != nil {
		return "", errors.Wrapf(err, "unable to decode entry name %q", raw)
	}

	return s, nil
}
