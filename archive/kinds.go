package archive

import (
	"strings"

	"github.com/pkg/errors"
)

// ArchiveKind identifies the container format that produced an archive.
type ArchiveKind int

// Supported archive kinds. Invalid is the zero value and is always rejected.
const (
	ArchiveKindInvalid ArchiveKind = iota
	ZipFile
	TarGzip
)

//nolint:gochecknoglobals
var archiveKindNames = map[ArchiveKind]string{
	ArchiveKindInvalid: "Invalid",
	ZipFile:            "ZipFile",
	TarGzip:            "TarGzip",
}

// legacy names written by earlier releases.
//
//nolint:gochecknoglobals
var archiveKindAliases = map[string]ArchiveKind{
	"dotnetzipfile": ZipFile,
}

func (k ArchiveKind) String() string {
	if n, ok := archiveKindNames[k]; ok {
		return n
	}

	return "ArchiveKind(" + itoa(int(k)) + ")"
}

// MarshalText implements encoding.TextMarshaler.
func (k ArchiveKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *ArchiveKind) UnmarshalText(b []byte) error {
	v, err := ParseArchiveKind(string(b))
	if err != nil {
		return err
	}

	*k = v

	return nil
}

// Validate ensures the kind is a known, non-invalid value.
func (k ArchiveKind) Validate() error {
	if k == ArchiveKindInvalid {
		return errors.Wrap(ErrInvalidKind, "archive kind")
	}

	if _, ok := archiveKindNames[k]; !ok {
		return errors.Wrapf(ErrUnsupportedKind, "archive kind %v", k)
	}

	return nil
}

// ParseArchiveKind parses archive kind name, ignoring case.
func ParseArchiveKind(s string) (ArchiveKind, error) {
	if k, ok := archiveKindAliases[strings.ToLower(s)]; ok {
		return k, nil
	}

	for k, n := range archiveKindNames {
		if strings.EqualFold(n, s) {
			if k == ArchiveKindInvalid {
				return k, errors.Wrap(ErrInvalidKind, "archive kind")
			}

			return k, nil
		}
	}

	return ArchiveKindInvalid, errors.Wrapf(ErrUnsupportedKind, "archive kind %q", s)
}

// CompressionKind describes the effort a codec puts into compression.
type CompressionKind int

// Supported compression kinds. Invalid is the zero value and is always rejected.
const (
	CompressionKindInvalid CompressionKind = iota
	CompressionNone
	CompressionSmallest
	CompressionFastest
)

//nolint:gochecknoglobals
var compressionKindNames = map[CompressionKind]string{
	CompressionKindInvalid: "Invalid",
	CompressionNone:        "None",
	CompressionSmallest:    "Smallest",
	CompressionFastest:     "Fastest",
}

func (k CompressionKind) String() string {
	if n, ok := compressionKindNames[k]; ok {
		return n
	}

	return "CompressionKind(" + itoa(int(k)) + ")"
}

// MarshalText implements encoding.TextMarshaler.
func (k CompressionKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *CompressionKind) UnmarshalText(b []byte) error {
	v, err := ParseCompressionKind(string(b))
	if err != nil {
		return err
	}

	*k = v

	return nil
}

// Validate ensures the kind is a known, non-invalid value.
func (k CompressionKind) Validate() error {
	if k == CompressionKindInvalid {
		return errors.Wrap(ErrInvalidKind, "compression kind")
	}

	if _, ok := compressionKindNames[k]; !ok {
		return errors.Wrapf(ErrUnsupportedKind, "compression kind %v", k)
	}

	return nil
}

// ParseCompressionKind parses compression kind name, ignoring case.
func ParseCompressionKind(s string) (CompressionKind, error) {
	for k, n := range compressionKindNames {
		if strings.EqualFold(n, s) {
			if k == CompressionKindInvalid {
				return k, errors.Wrap(ErrInvalidKind, "compression kind")
			}

			return k, nil
		}
	}

	return CompressionKindInvalid, errors.Wrapf(ErrUnsupportedKind, "compression kind %q", s)
}

// ArchiveKindNames returns the names of all valid archive kinds.
func ArchiveKindNames() []string {
	return []string{ZipFile.String(), TarGzip.String()}
}

// CompressionKindNames returns the names of all valid compression kinds.
func CompressionKindNames() []string {
	return []string{CompressionNone.String(), CompressionSmallest.String(), CompressionFastest.String()}
}

// AllCompressionKinds returns all valid compression kinds.
func AllCompressionKinds() []CompressionKind {
	return []CompressionKind{CompressionNone, CompressionSmallest, CompressionFastest}
}
