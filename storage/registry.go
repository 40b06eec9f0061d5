package storage

import (
	"context"
	"encoding/json"
	"sort"
	"sync"

	"github.com/pkg/errors"
)

// CreateFileManagerFunc is a function that returns FileManager with provided options.
type CreateFileManagerFunc func(ctx context.Context, options interface{}) (FileManager, error)

//nolint:gochecknoglobals
var (
	factoriesMutex sync.RWMutex
	factories      = map[string]*fileManagerFactory{}
)

type fileManagerFactory struct {
	defaultConfigFunc func() interface{}
	createFunc        CreateFileManagerFunc
}

// ConnectionInfo represents JSON-serializable configuration of a file manager.
type ConnectionInfo struct {
	Type   string
	Config interface{}
}

type connectionInfoJSON struct {
	Type   string          `json:"type"`
	Config json.RawMessage `json:"config"`
}

// UnmarshalJSON parses the JSON-encoded data into ConnectionInfo, using the registered
// default configuration of the provider type to decode the options.
func (c *ConnectionInfo) UnmarshalJSON(b []byte) error {
	var raw connectionInfoJSON

	if err := json.Unmarshal(b, &raw); err != nil {
		return errors.Wrap(err, "error unmarshaling connection info JSON")
	}

	c.Type = raw.Type

	factoriesMutex.RLock()
	f := factories[raw.Type]
	factoriesMutex.RUnlock()

	if f == nil {
		return errors.Errorf("connection info has invalid storage type: %v", raw.Type)
	}

	c.Config = f.defaultConfigFunc()

	if err := json.Unmarshal(raw.Config, c.Config); err != nil {
		return errors.Wrap(err, "unable to unmarshal config")
	}

	return nil
}

// MarshalJSON returns JSON-encoded connection info.
func (c ConnectionInfo) MarshalJSON() ([]byte, error) {
	cfg, err := json.Marshal(c.Config)
	if err != nil {
		return nil, errors.Wrap(err, "unable to marshal config")
	}

	//nolint:wrapcheck
	return json.Marshal(connectionInfoJSON{
		Type:   c.Type,
		Config: cfg,
	})
}

// AddSupportedStorage registers factory function to create file manager with a given type name.
func AddSupportedStorage(
	storageType string,
	defaultConfigFunc func() interface{},
	createFunc CreateFileManagerFunc,
) {
	factoriesMutex.Lock()
	defer factoriesMutex.Unlock()

	factories[storageType] = &fileManagerFactory{
		defaultConfigFunc: defaultConfigFunc,
		createFunc:        createFunc,
	}
}

// SupportedStorageTypes returns names of all registered storage types.
func SupportedStorageTypes() []string {
	factoriesMutex.RLock()
	defer factoriesMutex.RUnlock()

	var result []string

	for k := range factories {
		result = append(result, k)
	}

	sort.Strings(result)

	return result
}

// NewFileManager creates new file manager based on ConnectionInfo.
// The storage type must be previously registered using AddSupportedStorage.
func NewFileManager(ctx context.Context, cfg ConnectionInfo) (FileManager, error) {
	factoriesMutex.RLock()
	f, ok := factories[cfg.Type]
	factoriesMutex.RUnlock()

	if !ok {
		return nil, errors.Errorf("unknown storage type: %s", cfg.Type)
	}

	return f.createFunc(ctx, cfg.Config)
}
