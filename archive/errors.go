package archive

import (
	"strconv"

	"github.com/pkg/errors"
)

// Errors returned by archive operations.
var (
	ErrInvalidKind      = errors.New("kind must not be Invalid")
	ErrUnsupportedKind  = errors.New("not supported")
	ErrInvalidArgument  = errors.New("invalid argument")
	ErrArchiveExists    = errors.New("archive file already exists")
	ErrTargetExists     = errors.New("restore target already exists")
	ErrUnknownEncoding  = errors.New("unknown entry name encoding")
	ErrUnsafeEntry      = errors.New("archive entry escapes target directory")
	ErrMissingMetadata  = errors.New("metadata is missing a required value")
	ErrInvalidMetadata  = errors.New("metadata contains an invalid value")
	ErrArchiveNotExists = errors.New("archive file does not exist")
)

func itoa(v int) string {
	return strconv.Itoa(v)
}
