package archive

import (
	"sort"
	"sync"

	"github.com/pkg/errors"
)

// Constructor creates an archiver for a given compression kind.
type Constructor func(compression CompressionKind) (Archiver, error)

// Registry selects archiver implementations by archive kind.
type Registry struct {
	mu           sync.RWMutex
	constructors map[ArchiveKind]Constructor
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		constructors: map[ArchiveKind]Constructor{},
	}
}

// Register adds a constructor for the provided archive kind.
func (r *Registry) Register(kind ArchiveKind, c Constructor) error {
	if err := kind.Validate(); err != nil {
		return err
	}

	if c == nil {
		return errors.Wrapf(ErrInvalidArgument, "constructor for %v must be provided", kind)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.constructors[kind]; ok {
		return errors.Errorf("archiver for %v is already registered", kind)
	}

	r.constructors[kind] = c

	return nil
}

// BuildArchiver returns an archiver for the provided archive and compression kinds.
func (r *Registry) BuildArchiver(kind ArchiveKind, compression CompressionKind) (Archiver, error) {
	if kind == ArchiveKindInvalid {
		return nil, errors.Wrap(ErrInvalidKind, "archive kind")
	}

	if err := compression.Validate(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	c, ok := r.constructors[kind]
	r.mu.RUnlock()

	if !ok {
		return nil, errors.Wrapf(ErrUnsupportedKind, "provided archive kind %v", kind)
	}

	return c(compression)
}

// BuildArchiverFor returns an archiver able to restore the provided descriptor.
func (r *Registry) BuildArchiverFor(ad *ArchivedDirectory) (Archiver, error) {
	if ad == nil {
		return nil, errors.Wrap(ErrInvalidArgument, "archived directory must be provided")
	}

	return r.BuildArchiver(ad.ArchiveKind, ad.CompressionKind)
}

// SupportedKinds returns registered archive kinds.
func (r *Registry) SupportedKinds() []ArchiveKind {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var result []ArchiveKind

	for k := range r.constructors {
		result = append(result, k)
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i] < result[j]
	})

	return result
}
