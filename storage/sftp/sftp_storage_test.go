package sftp

import (
	"crypto/ed25519"
	"crypto/rand"
	"encoding/pem"
	"io"
	"net"
	"path/filepath"
	"runtime"
	"strconv"
	"testing"

	"github.com/pkg/sftp"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/knownhosts"

	"github.com/kopia/filejanitor/internal/testlogging"
	"github.com/kopia/filejanitor/internal/testutil"
	"github.com/kopia/filejanitor/storage"
	"github.com/kopia/filejanitor/storage/storagetesting"
)

type pipeConn struct {
	io.Reader
	io.WriteCloser

	closeReader func() error
}

func (c pipeConn) Close() error {
	c.closeReader() //nolint:errcheck

	return c.WriteCloser.Close()
}

// newInProcessStorage connects to SFTP server running in-process over a pair of pipes,
// serving the local file system.
func newInProcessStorage(t *testing.T, root string) storage.FileManager {
	t.Helper()

	if runtime.GOOS == "windows" {
		t.Skip("in-process SFTP server uses POSIX paths")
	}

	clientReader, serverWriter := io.Pipe()
	serverReader, clientWriter := io.Pipe()

	srv, err := sftp.NewServer(pipeConn{serverReader, serverWriter, serverReader.Close})
	require.NoError(t, err)

	go srv.Serve() //nolint:errcheck

	c, err := sftp.NewClientPipe(clientReader, clientWriter)
	require.NoError(t, err)

	fm, err := newWithClient(&Options{
		Path:     filepath.ToSlash(root),
		Host:     "in-process",
		Username: "tester",
	}, c, srv.Close)
	require.NoError(t, err)

	return fm
}

func TestSFTPStorage_InProcess(t *testing.T) {
	ctx := testlogging.Context(t)
	root := filepath.Join(testutil.TempDirectory(t), "sftp-root")

	fm := newInProcessStorage(t, root)

	require.Equal(t, "SFTP tester@in-process", fm.DisplayName())

	storagetesting.VerifyFileManager(ctx, t, fm, "site-a", "drop")

	require.FileExists(t, filepath.Join(root, "site-a", "drop", "dir", "b.txt"))
	require.NoError(t, fm.Close(ctx))
}

func TestSFTPStorage_RelativePath(t *testing.T) {
	_, err := newWithClient(&Options{Path: "relative/path"}, nil, nil)
	require.ErrorContains(t, err, "must be absolute")
}

func generateKey(t *testing.T) (ssh.Signer, string) {
	t.Helper()

	_, priv, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)

	block, err := ssh.MarshalPrivateKey(priv, "test")
	require.NoError(t, err)

	signer, err := ssh.NewSignerFromKey(priv)
	require.NoError(t, err)

	return signer, string(pem.EncodeToMemory(block))
}

func TestGetSigner(t *testing.T) {
	signer, keyData := generateKey(t)

	s, err := getSigner(&Options{KeyData: keyData})
	require.NoError(t, err)
	require.Equal(t, signer.PublicKey().Marshal(), s.PublicKey().Marshal())

	_, err = getSigner(&Options{KeyData: "not a key"})
	require.ErrorContains(t, err, "error parsing private key")

	_, err = getSigner(&Options{Keyfile: "relative/id_rsa"})
	require.ErrorContains(t, err, "must be absolute")

	_, err = authMethods(&Options{})
	require.Error(t, err)

	m, err := authMethods(&Options{KeyData: keyData, Password: "secret"})
	require.NoError(t, err)
	require.Len(t, m, 2)
}

func TestGetHostKeyCallback(t *testing.T) {
	signer, _ := generateKey(t)
	other, _ := generateKey(t)

	cb, err := getHostKeyCallback(&Options{
		KnownHostsData: knownhosts.Line([]string{"sftp.example.com"}, signer.PublicKey()),
	})
	require.NoError(t, err)

	addr := &net.TCPAddr{IP: net.IPv4(127, 0, 0, 1), Port: defaultPort}
	host := "sftp.example.com:" + strconv.Itoa(defaultPort)

	require.NoError(t, cb(host, addr, signer.PublicKey()))
	require.Error(t, cb(host, addr, other.PublicKey()))

	_, err = getHostKeyCallback(&Options{KnownHostsFile: "relative/known_hosts"})
	require.ErrorContains(t, err, "must be absolute")
}

func TestSFTPStorage_Remote(t *testing.T) {
	host := testutil.GetEnvOrSkip(t, "FILEJANITOR_SFTP_TEST_HOST")
	port, err := strconv.Atoi(testutil.GetEnvOrSkip(t, "FILEJANITOR_SFTP_TEST_PORT"))
	require.NoError(t, err)

	ctx := testlogging.Context(t)

	fm, err := New(ctx, &Options{
		Path:           testutil.GetEnvOrSkip(t, "FILEJANITOR_SFTP_TEST_PATH"),
		Host:           host,
		Port:           port,
		Username:       testutil.GetEnvOrSkip(t, "FILEJANITOR_SFTP_TEST_USER"),
		Keyfile:        testutil.GetEnvOrSkip(t, "FILEJANITOR_SFTP_KEYFILE"),
		KnownHostsFile: testutil.GetEnvOrSkip(t, "FILEJANITOR_SFTP_KNOWN_HOSTS"),
	})
	require.NoError(t, err)

	defer fm.Close(ctx) //nolint:errcheck

	storagetesting.VerifyFileManager(ctx, t, fm, "remote", testutil.RandomName("sftp"))
}
