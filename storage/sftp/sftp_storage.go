// Package sftp implements FileManager provided for SFTP/SSH.
package sftp

import (
	"context"
	"crypto/rand"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"github.com/pkg/sftp"
	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/knownhosts"

	"github.com/kopia/filejanitor/internal/iocopy"
	"github.com/kopia/filejanitor/logging"
	"github.com/kopia/filejanitor/storage"
	"github.com/kopia/filejanitor/storage/pathstore"
)

var log = logging.Module("storage/sftp")

const (
	sftpStorageType         = "sftp"
	tempFileRandomSuffixLen = 8
	defaultPort             = 22

	packetSize = 1 << 15
)

type closeFunc func() error

// sftpStorage implements storage.FileManager on top of sftp.
type sftpStorage struct {
	pathstore.Storage

	impl *sftpImpl
}

type sftpImpl struct {
	Options

	closeFunc closeFunc
	cli       *sftp.Client
}

func translateError(err error, fullPath string) error {
	if isNotExist(err) {
		return errors.Wrap(storage.ErrFileNotFound, fullPath)
	}

	return errors.Wrapf(err, "unrecognized SFTP error on %v", fullPath)
}

func (s *sftpImpl) OpenFileInPath(ctx context.Context, fullPath string) (io.ReadCloser, error) {
	r, err := s.cli.Open(fullPath)
	if err != nil {
		return nil, translateError(err, fullPath)
	}

	return r, nil
}

func (s *sftpImpl) StatInPath(ctx context.Context, fullPath string) (os.FileInfo, error) {
	fi, err := s.cli.Stat(fullPath)
	if err != nil {
		return nil, translateError(err, fullPath)
	}

	if fi.IsDir() {
		return nil, errors.Wrapf(storage.ErrFileNotFound, "%v is a directory", fullPath)
	}

	return fi, nil
}

func (s *sftpImpl) PutFileInPath(ctx context.Context, dirPath, fullPath string, r io.Reader) error {
	randSuffix := make([]byte, tempFileRandomSuffixLen)
	if _, err := rand.Read(randSuffix); err != nil {
		return errors.Wrap(err, "can't get random bytes")
	}

	tempFile := fmt.Sprintf("%s.%x%s", fullPath, randSuffix, pathstore.TempFileSuffix)

	f, err := s.createTempFileAndDir(tempFile)
	if err != nil {
		return errors.Wrap(err, "cannot create temporary file")
	}

	_, err = iocopy.CopyContext(ctx, f, r)

	if cerr := f.Close(); err == nil {
		err = cerr
	}

	if err == nil {
		err = s.cli.PosixRename(tempFile, fullPath)
	}

	if err != nil {
		if removeErr := s.cli.Remove(tempFile); removeErr != nil {
			log(ctx).Errorf("warning: can't remove temp file: %v", removeErr)
		}

		return errors.Wrapf(err, "unable to write SFTP file %v", fullPath)
	}

	return nil
}

func (s *sftpImpl) createTempFileAndDir(tempFile string) (*sftp.File, error) {
	flags := os.O_CREATE | os.O_WRONLY | os.O_EXCL

	f, err := s.cli.OpenFile(tempFile, flags)
	if isNotExist(err) {
		parentDir := path.Dir(tempFile)
		if err = s.cli.MkdirAll(parentDir); err != nil {
			return nil, errors.Wrap(err, "cannot create directory")
		}

		//nolint:wrapcheck
		return s.cli.OpenFile(tempFile, flags)
	}

	return f, errors.Wrapf(err, "unrecognized error when creating temp file on SFTP: %v", tempFile)
}

func isNotExist(err error) bool {
	if err == nil {
		return false
	}

	if errors.Is(err, os.ErrNotExist) {
		return true
	}

	return strings.Contains(err.Error(), "does not exist")
}

func (s *sftpImpl) ReadDir(ctx context.Context, dirname string) ([]os.FileInfo, error) {
	entries, err := s.cli.ReadDir(dirname)
	if err != nil {
		return nil, translateError(err, dirname)
	}

	return entries, nil
}

func (s *sftpStorage) DisplayName() string {
	return fmt.Sprintf("SFTP %v@%v", s.impl.Username, s.impl.Host)
}

func (s *sftpStorage) Close(ctx context.Context) error {
	if err := s.impl.cli.Close(); err != nil {
		return errors.Wrap(err, "closing SFTP client")
	}

	if err := s.impl.closeFunc(); err != nil {
		return errors.Wrap(err, "closing SFTP connection")
	}

	return nil
}

func writeKnownHostsDataStringToTempFile(data string) (string, error) {
	tf, err := os.CreateTemp("", "filejanitor-known-hosts")
	if err != nil {
		return "", errors.Wrap(err, "error creating temp file")
	}

	defer tf.Close() //nolint:errcheck

	if _, err := io.WriteString(tf, data); err != nil {
		return "", errors.Wrap(err, "error writing temporary file")
	}

	return tf.Name(), nil
}

// getHostKeyCallback returns a HostKeyCallback that validates the connected host based on KnownHostsFile or KnownHostsData.
func getHostKeyCallback(opt *Options) (ssh.HostKeyCallback, error) {
	if opt.KnownHostsData != "" {
		// knownhosts.New() only accepts file names
		tmpFile, err := writeKnownHostsDataStringToTempFile(opt.KnownHostsData)
		if err != nil {
			return nil, err
		}

		defer os.Remove(tmpFile) //nolint:errcheck

		//nolint:wrapcheck
		return knownhosts.New(tmpFile)
	}

	if f := opt.knownHostsFile(); !filepath.IsAbs(f) {
		return nil, errors.New("known hosts path must be absolute")
	}

	//nolint:wrapcheck
	return knownhosts.New(opt.knownHostsFile())
}

// getSigner parses and returns a signer for the user-entered private key.
func getSigner(opts *Options) (ssh.Signer, error) {
	var privateKeyData []byte

	if opts.KeyData != "" {
		privateKeyData = []byte(opts.KeyData)
	} else {
		var err error

		if f := opts.Keyfile; !filepath.IsAbs(f) {
			return nil, errors.New("key file path must be absolute")
		}

		privateKeyData, err = os.ReadFile(opts.Keyfile)
		if err != nil {
			return nil, errors.Wrap(err, "error reading private key file")
		}
	}

	key, err := ssh.ParsePrivateKey(privateKeyData)
	if err != nil {
		return nil, errors.Wrap(err, "error parsing private key")
	}

	return key, nil
}

func authMethods(opts *Options) ([]ssh.AuthMethod, error) {
	var result []ssh.AuthMethod

	if opts.Keyfile != "" || opts.KeyData != "" {
		signer, err := getSigner(opts)
		if err != nil {
			return nil, errors.Wrap(err, "unable to getSigner")
		}

		result = append(result, ssh.PublicKeys(signer))
	}

	if opts.Password != "" {
		result = append(result, ssh.Password(opts.Password))
	}

	if len(result) == 0 {
		return nil, errors.New("must specify the location of the ssh private key, the key data or a password")
	}

	return result, nil
}

func createSSHConfig(ctx context.Context, opts *Options) (*ssh.ClientConfig, error) {
	log(ctx).Debugf("using built-in SSH connection")

	hostKeyCallback, err := getHostKeyCallback(opts)
	if err != nil {
		return nil, errors.Wrapf(err, "unable to getHostKey: %s", opts.Host)
	}

	auth, err := authMethods(opts)
	if err != nil {
		return nil, err
	}

	return &ssh.ClientConfig{
		User:            opts.Username,
		Auth:            auth,
		HostKeyCallback: hostKeyCallback,
	}, nil
}

func getSFTPClient(ctx context.Context, opt *Options) (*sftp.Client, closeFunc, error) {
	config, err := createSSHConfig(ctx, opt)
	if err != nil {
		return nil, nil, err
	}

	addr := fmt.Sprintf("%s:%d", opt.Host, opt.port())

	conn, err := ssh.Dial("tcp", addr, config)
	if err != nil {
		return nil, nil, errors.Wrapf(err, "unable to dial [%s]", addr)
	}

	c, err := sftp.NewClient(conn, sftp.MaxPacket(packetSize))
	if err != nil {
		conn.Close() //nolint:errcheck
		return nil, nil, errors.Wrap(err, "unable to create sftp client")
	}

	return c, conn.Close, nil
}

func newWithClient(opts *Options, c *sftp.Client, cf closeFunc) (storage.FileManager, error) {
	if opts.Path == "" || !path.IsAbs(opts.Path) {
		return nil, errors.Errorf("SFTP path must be absolute: %q", opts.Path)
	}

	if _, err := c.Stat(opts.Path); err != nil {
		if !isNotExist(err) {
			return nil, errors.Wrapf(err, "path doesn't exist: %s", opts.Path)
		}

		if err = c.MkdirAll(opts.Path); err != nil {
			return nil, errors.Wrap(err, "cannot create path")
		}
	}

	impl := &sftpImpl{
		Options:   *opts,
		cli:       c,
		closeFunc: cf,
	}

	return &sftpStorage{
		Storage: pathstore.Storage{
			Impl:     impl,
			RootPath: opts.Path,
		},
		impl: impl,
	}, nil
}

// New creates new ssh-backed file manager in a specified host.
func New(ctx context.Context, opts *Options) (storage.FileManager, error) {
	c, cf, err := getSFTPClient(ctx, opts)
	if err != nil {
		return nil, errors.Wrap(err, "unable to create sftp client")
	}

	fm, err := newWithClient(opts, c, cf)
	if err != nil {
		c.Close() //nolint:errcheck
		cf()      //nolint:errcheck

		return nil, err
	}

	return fm, nil
}

func init() {
	storage.AddSupportedStorage(
		sftpStorageType,
		func() interface{} { return &Options{} },
		func(ctx context.Context, o interface{}) (storage.FileManager, error) {
			return New(ctx, o.(*Options)) //nolint:forcetypeassert
		})
}
