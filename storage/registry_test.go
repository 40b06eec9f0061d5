package storage_test

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kopia/filejanitor/internal/testlogging"
	"github.com/kopia/filejanitor/storage"
	"github.com/kopia/filejanitor/storage/storagetesting"
)

type testOptions struct {
	Name string `json:"name"`
}

func init() {
	storage.AddSupportedStorage("registry-test", func() interface{} {
		return &testOptions{}
	}, func(ctx context.Context, o interface{}) (storage.FileManager, error) {
		opt, ok := o.(*testOptions)
		if !ok || opt.Name == "" {
			return nil, context.Canceled
		}

		return storagetesting.NewMapFileManager(nil), nil
	})
}

func TestNewFileManager(t *testing.T) {
	ctx := testlogging.Context(t)

	fm, err := storage.NewFileManager(ctx, storage.ConnectionInfo{Type: "registry-test", Config: &testOptions{Name: "x"}})
	require.NoError(t, err)
	require.Equal(t, "Map", fm.DisplayName())

	_, err = storage.NewFileManager(ctx, storage.ConnectionInfo{Type: "no-such-type"})
	require.ErrorContains(t, err, "unknown storage type: no-such-type")

	require.Contains(t, storage.SupportedStorageTypes(), "registry-test")
}

func TestConnectionInfoJSON(t *testing.T) {
	ci := storage.ConnectionInfo{Type: "registry-test", Config: &testOptions{Name: "abc"}}

	b, err := json.Marshal(ci)
	require.NoError(t, err)
	require.JSONEq(t, `{"type":"registry-test","config":{"name":"abc"}}`, string(b))

	var ci2 storage.ConnectionInfo

	require.NoError(t, json.Unmarshal(b, &ci2))
	require.Equal(t, ci, ci2)

	require.Error(t, json.Unmarshal([]byte(`{"type":"bad-type","config":{}}`), &ci2))
}
