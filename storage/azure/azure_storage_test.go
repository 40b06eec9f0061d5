package azure

import (
	"net/http"
	"testing"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"

	"github.com/kopia/filejanitor/internal/retry"
	"github.com/kopia/filejanitor/internal/testlogging"
	"github.com/kopia/filejanitor/internal/testutil"
	"github.com/kopia/filejanitor/storage"
	"github.com/kopia/filejanitor/storage/storagetesting"
)

func TestTranslateError(t *testing.T) {
	require.NoError(t, translateError(nil))

	notFound := &azcore.ResponseError{StatusCode: http.StatusNotFound, ErrorCode: "BlobNotFound"}
	require.ErrorIs(t, translateError(notFound), storage.ErrFileNotFound)

	forbidden := &azcore.ResponseError{StatusCode: http.StatusForbidden, ErrorCode: "AuthenticationFailed"}
	require.True(t, retry.IsPermanent(translateError(forbidden)))

	busy := &azcore.ResponseError{StatusCode: http.StatusServiceUnavailable, ErrorCode: "ServerBusy"}
	require.False(t, retry.IsPermanent(translateError(busy)))

	require.False(t, retry.IsPermanent(translateError(errors.New("connection reset"))))
}

func TestServiceURL(t *testing.T) {
	cases := []struct {
		opt  Options
		want string
	}{
		{Options{}, "https://acct.blob.core.windows.net/"},
		{Options{DoNotUseTLS: true, StorageDomain: "blob.core.chinacloudapi.cn"}, "http://acct.blob.core.chinacloudapi.cn/"},
		{Options{ServiceURL: "http://127.0.0.1:10000/{account}"}, "http://127.0.0.1:10000/acct"},
	}

	for _, tc := range cases {
		az := &azStorage{Options: tc.opt}
		require.Equal(t, tc.want, az.serviceURL("acct"))
	}
}

func TestPointerMaps(t *testing.T) {
	m := map[string]string{"A": "1", "B": "2"}
	require.Equal(t, m, fromPointerMap(toPointerMap(m)))
}

func TestNew_InvalidOptions(t *testing.T) {
	_, err := New(testlogging.Context(t), &Options{ClientSecret: "s"})
	require.Error(t, err)
}

func TestAzureStorage(t *testing.T) {
	ctx := testlogging.Context(t)

	fm, err := New(ctx, &Options{
		StorageKey: testutil.GetEnvOrSkip(t, "FILEJANITOR_AZURE_STORAGE_KEY"),
		ServiceURL: testutil.GetEnvOrSkip(t, "FILEJANITOR_AZURE_SERVICE_URL"),
		Prefix:     testutil.RandomName("test") + "/",
	})
	require.NoError(t, err)

	defer fm.Close(ctx) //nolint:errcheck

	storagetesting.VerifyFileManager(ctx, t, fm,
		testutil.GetEnvOrSkip(t, "FILEJANITOR_AZURE_STORAGE_ACCOUNT"),
		testutil.GetEnvOrSkip(t, "FILEJANITOR_AZURE_CONTAINER"))
}
