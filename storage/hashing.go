package storage

import (
	"crypto/md5"  //nolint:gosec
	"crypto/sha1" //nolint:gosec
	"crypto/sha256"
	"crypto/sha512"
	"encoding/hex"
	"hash"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/pkg/errors"
	"github.com/zeebo/blake3"

	"github.com/kopia/filejanitor/internal/iocopy"
)

// HashMetadataPrefix is the prefix of metadata keys holding content hashes.
const HashMetadataPrefix = "Hash"

// ErrUnsupportedHashAlgorithm is returned when a requested hash algorithm is not known.
var ErrUnsupportedHashAlgorithm = errors.New("unsupported hash algorithm")

//nolint:gochecknoglobals
var hashAlgorithms = map[string]func() hash.Hash{
	"MD5":    md5.New,
	"SHA1":   sha1.New,
	"SHA256": sha256.New,
	"SHA384": sha512.New384,
	"SHA512": sha512.New,
	"BLAKE3": func() hash.Hash { return blake3.New() },
}

// SupportedHashAlgorithms returns names of supported hash algorithms.
func SupportedHashAlgorithms() []string {
	var result []string

	for k := range hashAlgorithms {
		result = append(result, k)
	}

	sort.Strings(result)

	return result
}

// HashMetadataKey returns the metadata key under which the given algorithm's digest is stored.
func HashMetadataKey(algorithm string) string {
	return HashMetadataPrefix + strings.ToUpper(strings.TrimSpace(algorithm))
}

// normalizeHashAlgorithms returns canonical algorithm names, ignoring blanks and duplicates.
func normalizeHashAlgorithms(algorithms []string) ([]string, error) {
	seen := map[string]bool{}

	var result []string

	for _, a := range algorithms {
		n := strings.ToUpper(strings.TrimSpace(a))
		if n == "" || seen[n] {
			continue
		}

		if hashAlgorithms[n] == nil {
			return nil, errors.Wrapf(ErrUnsupportedHashAlgorithm, "%q, must be one of %v", a, SupportedHashAlgorithms())
		}

		seen[n] = true

		result = append(result, n)
	}

	return result, nil
}

// ComputeHashes computes hex-encoded digests of the provided file in a single pass.
// The result is keyed by canonical (upper-case) algorithm name.
func ComputeHashes(filePath string, algorithms []string) (map[string]string, error) {
	algs, err := normalizeHashAlgorithms(algorithms)
	if err != nil {
		return nil, err
	}

	if len(algs) == 0 {
		return map[string]string{}, nil
	}

	f, err := os.Open(filePath) //nolint:gosec
	if err != nil {
		return nil, errors.Wrap(err, "unable to open file for hashing")
	}
	defer f.Close() //nolint:errcheck

	hashers := make([]hash.Hash, len(algs))
	writers := make([]io.Writer, len(algs))

	for i, a := range algs {
		hashers[i] = hashAlgorithms[a]()
		writers[i] = hashers[i]
	}

	if _, err := iocopy.Copy(io.MultiWriter(writers...), f); err != nil {
		return nil, errors.Wrapf(err, "error hashing %v", filePath)
	}

	result := map[string]string{}

	for i, a := range algs {
		result[a] = hex.EncodeToString(hashers[i].Sum(nil))
	}

	return result, nil
}

// UploadMetadata returns the metadata that should be attached to an uploaded file: caller-provided
// metadata merged with the digests requested in the options. A caller key that collides with
// a hash key is an error.
func UploadMetadata(filePath string, opts UploadOptions) (map[string]string, error) {
	hashes, err := ComputeHashes(filePath, opts.HashAlgorithms)
	if err != nil {
		return nil, err
	}

	result := map[string]string{}
	lowerKeys := map[string]bool{}

	for k, v := range opts.Metadata {
		result[k] = v
		lowerKeys[strings.ToLower(k)] = true
	}

	for alg, digest := range hashes {
		k := HashMetadataKey(alg)
		if lowerKeys[strings.ToLower(k)] {
			return nil, errors.Errorf("metadata key %v is reserved for %v digest", k, alg)
		}

		result[k] = digest
	}

	return result, nil
}
