// Package tararchive implements archiving directories into gzip-compressed tar files.
package tararchive

import (
	"archive/tar"
	"context"
	"io"
	"os"
	"strings"
	"time"

	"github.com/klauspost/pgzip"
	"github.com/pkg/errors"
	"golang.org/x/text/encoding"

	"github.com/kopia/filejanitor/archive"
	"github.com/kopia/filejanitor/logging"
)

var log = logging.Module("tararchive")

type tarArchiver struct {
	compression archive.CompressionKind
	level       int
}

func (a *tarArchiver) Kind() archive.ArchiveKind {
	return archive.TarGzip
}

func (a *tarArchiver) CompressionKind() archive.CompressionKind {
	return a.compression
}

func (a *tarArchiver) ArchiveDirectory(ctx context.Context, sourcePath, targetFilePath string, opt archive.ArchiveOptions) (*archive.ArchivedDirectory, error) {
	if err := archive.CheckArchivePaths(sourcePath, targetFilePath); err != nil {
		return nil, err
	}

	enc, encName, err := archive.ResolveEncoding(opt.EntryNameEncoding)
	if err != nil {
		return nil, err
	}

	f, err := archive.CreateArchiveFile(targetFilePath)
	if err != nil {
		return nil, err
	}

	log(ctx).Debugf("archiving %v into %v (compression %v, encoding %v)", sourcePath, targetFilePath, a.compression, encName)

	err = archive.FinishArchiveFile(ctx, f, a.writeTarGz(ctx, f, sourcePath, opt.IncludeBaseDirectory, enc))
	if err != nil {
		return nil, err
	}

	return archive.NewArchivedDirectory(archive.TarGzip, a.compression, targetFilePath, opt.IncludeBaseDirectory, encName, time.Time{})
}

func (a *tarArchiver) writeTarGz(ctx context.Context, out io.Writer, sourcePath string, includeBase bool, enc encoding.Encoding) error {
	gw, err := pgzip.NewWriterLevel(out, a.level)
	if err != nil {
		return errors.Wrap(err, "unable to create gzip writer")
	}

	tw := tar.NewWriter(gw)

	err = archive.WalkSource(ctx, sourcePath, includeBase, func(e archive.SourceEntry) error {
		return writeEntry(tw, e, enc)
	})
	if err != nil {
		tw.Close() //nolint:errcheck
		gw.Close() //nolint:errcheck

		return err
	}

	if err := tw.Close(); err != nil {
		gw.Close() //nolint:errcheck
		return errors.Wrap(err, "unable to finish tar stream")
	}

	return errors.Wrap(gw.Close(), "unable to finish gzip stream")
}

func writeEntry(tw *tar.Writer, e archive.SourceEntry, enc encoding.Encoding) error {
	name, err := archive.EncodeEntryName(enc, e.Name)
	if err != nil {
		return err
	}

	hdr, err := tar.FileInfoHeader(e.Info, "")
	if err != nil {
		return errors.Wrapf(err, "unable to create tar header for %v", e.Path)
	}

	hdr.Name = name
	hdr.Uname = ""
	hdr.Gname = ""

	if err := tw.WriteHeader(hdr); err != nil {
		return errors.Wrapf(err, "unable to add %v", e.Name)
	}

	if e.Info.IsDir() {
		return nil
	}

	f, err := os.Open(e.Path)
	if err != nil {
		return errors.Wrapf(err, "unable to open %v", e.Path)
	}
	defer f.Close() //nolint:errcheck

	if _, err := io.CopyN(tw, f, e.Info.Size()); err != nil {
		return errors.Wrapf(err, "unable to write %v", e.Path)
	}

	archive.RecordArchivedEntry(archive.TarGzip, e)

	return nil
}

func (a *tarArchiver) RestoreDirectory(ctx context.Context, ad *archive.ArchivedDirectory, targetPath string) error {
	if err := archive.CheckRestorePaths(ad, targetPath); err != nil {
		return err
	}

	if ad.ArchiveKind != archive.TarGzip {
		return errors.Wrapf(archive.ErrUnsupportedKind, "tar archiver cannot restore archive kind %v", ad.ArchiveKind)
	}

	enc, _, err := archive.ResolveEncoding(ad.EntryNameEncoding)
	if err != nil {
		return err
	}

	f, err := os.Open(ad.ArchiveFilePath)
	if err != nil {
		return errors.Wrapf(err, "unable to open archive %v", ad.ArchiveFilePath)
	}
	defer f.Close() //nolint:errcheck

	gr, err := pgzip.NewReader(f)
	if err != nil {
		return errors.Wrapf(err, "unable to open gzip stream of %v", ad.ArchiveFilePath)
	}
	defer gr.Close() //nolint:errcheck

	if err := archive.BeginRestore(targetPath); err != nil {
		return err
	}

	log(ctx).Debugf("restoring %v into %v", ad.ArchiveFilePath, targetPath)

	return archive.FinishRestore(ctx, targetPath, restoreEntries(ctx, tar.NewReader(gr), enc, targetPath))
}

func restoreEntries(ctx context.Context, tr *tar.Reader, enc encoding.Encoding, targetPath string) error {
	for {
		if err := ctx.Err(); err != nil {
			return errors.Wrap(err, "restore canceled")
		}

		hdr, err := tr.Next()
		if errors.Is(err, io.EOF) {
			return nil
		}

		if err != nil {
			return errors.Wrap(err, "unable to read tar entry")
		}

		name, err := archive.DecodeEntryName(enc, hdr.Name)
		if err != nil {
			return err
		}

		localPath, err := archive.SafeJoin(targetPath, name)
		if err != nil {
			return err
		}

		switch hdr.Typeflag {
		case tar.TypeDir:
			err = archive.MkdirRestored(localPath)

		case tar.TypeReg:
			err = archive.WriteRestoredFile(localPath, tr, hdr.FileInfo().Mode(), hdr.ModTime)

		default:
			if strings.HasSuffix(name, "/") {
				err = archive.MkdirRestored(localPath)
			} else {
				log(ctx).Warnf("skipping unsupported tar entry %v (type %v)", name, hdr.Typeflag)
			}
		}

		if err != nil {
			return err
		}

		archive.RecordRestoredEntry(archive.TarGzip)
	}
}

// New returns a tar.gz archiver for the provided compression kind.
func New(compression archive.CompressionKind) (archive.Archiver, error) {
	switch compression {
	case archive.CompressionNone:
		return &tarArchiver{compression, pgzip.NoCompression}, nil
	case archive.CompressionSmallest:
		return &tarArchiver{compression, pgzip.BestCompression}, nil
	case archive.CompressionFastest:
		return &tarArchiver{compression, pgzip.BestSpeed}, nil
	default:
		return nil, errors.Wrapf(archive.ErrUnsupportedKind, "compression kind %v for archive kind %v", compression, archive.TarGzip)
	}
}
