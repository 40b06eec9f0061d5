package exchange

import "github.com/pkg/errors"

// Errors returned by the exchange layer.
var (
	ErrInvalidArgument     = errors.New("invalid argument")
	ErrNotFound            = errors.New("no file found")
	ErrAmbiguousMatch      = errors.New("more than one file found")
	ErrUnsupportedStrategy = errors.New("unsupported multiple keys found strategy")
)
