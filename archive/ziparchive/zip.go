// Package ziparchive implements archiving directories into zip files.
package ziparchive

import (
	"context"
	"io"
	"os"
	"strings"
	"time"

	"github.com/klauspost/compress/flate"
	"github.com/klauspost/compress/zip"
	"github.com/pkg/errors"
	"golang.org/x/text/encoding"

	"github.com/kopia/filejanitor/archive"
	"github.com/kopia/filejanitor/logging"
)

var log = logging.Module("ziparchive")

type zipArchiver struct {
	compression archive.CompressionKind
	method      uint16
	level       int
}

func (a *zipArchiver) Kind() archive.ArchiveKind {
	return archive.ZipFile
}

func (a *zipArchiver) CompressionKind() archive.CompressionKind {
	return a.compression
}

func (a *zipArchiver) ArchiveDirectory(ctx context.Context, sourcePath, targetFilePath string, opt archive.ArchiveOptions) (*archive.ArchivedDirectory, error) {
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

	err = archive.FinishArchiveFile(ctx, f, a.writeZip(ctx, f, sourcePath, opt.IncludeBaseDirectory, enc, archive.IsUTF8(encName)))
	if err != nil {
		return nil, err
	}

	return archive.NewArchivedDirectory(archive.ZipFile, a.compression, targetFilePath, opt.IncludeBaseDirectory, encName, time.Time{})
}

func (a *zipArchiver) writeZip(ctx context.Context, out io.Writer, sourcePath string, includeBase bool, enc encoding.Encoding, isUTF8 bool) error {
	zw := zip.NewWriter(out)

	level := a.level

	zw.RegisterCompressor(zip.Deflate, func(w io.Writer) (io.WriteCloser, error) {
		return flate.NewWriter(w, level)
	})

	err := archive.WalkSource(ctx, sourcePath, includeBase, func(e archive.SourceEntry) error {
		return a.writeEntry(zw, e, enc, isUTF8)
	})
	if err != nil {
		zw.Close() //nolint:errcheck
		return err
	}

	return errors.Wrap(zw.Close(), "unable to finish zip archive")
}

func (a *zipArchiver) writeEntry(zw *zip.Writer, e archive.SourceEntry, enc encoding.Encoding, isUTF8 bool) error {
	name, err := archive.EncodeEntryName(enc, e.Name)
	if err != nil {
		return err
	}

	hdr, err := zip.FileInfoHeader(e.Info)
	if err != nil {
		return errors.Wrapf(err, "unable to create zip header for %v", e.Path)
	}

	hdr.Name = name
	hdr.NonUTF8 = !isUTF8
	hdr.Modified = e.Info.ModTime()

	if e.Info.IsDir() {
		hdr.Method = zip.Store

		_, err := zw.CreateHeader(hdr)

		return errors.Wrapf(err, "unable to add directory %v", e.Name)
	}

	hdr.Method = a.method

	w, err := zw.CreateHeader(hdr)
	if err != nil {
		return errors.Wrapf(err, "unable to add file %v", e.Name)
	}

	f, err := os.Open(e.Path)
	if err != nil {
		return errors.Wrapf(err, "unable to open %v", e.Path)
	}
	defer f.Close() //nolint:errcheck

	if _, err := io.Copy(w, f); err != nil {
		return errors.Wrapf(err, "unable to compress %v", e.Path)
	}

	archive.RecordArchivedEntry(archive.ZipFile, e)

	return nil
}

func (a *zipArchiver) RestoreDirectory(ctx context.Context, ad *archive.ArchivedDirectory, targetPath string) error {
	if err := archive.CheckRestorePaths(ad, targetPath); err != nil {
		return err
	}

	if ad.ArchiveKind != archive.ZipFile {
		return errors.Wrapf(archive.ErrUnsupportedKind, "zip archiver cannot restore archive kind %v", ad.ArchiveKind)
	}

	enc, encName, err := archive.ResolveEncoding(ad.EntryNameEncoding)
	if err != nil {
		return err
	}

	if archive.IsUTF8(encName) {
		enc = nil
	}

	zr, err := zip.OpenReader(ad.ArchiveFilePath)
	if err != nil {
		return errors.Wrapf(err, "unable to open zip archive %v", ad.ArchiveFilePath)
	}
	defer zr.Close() //nolint:errcheck

	if err := archive.BeginRestore(targetPath); err != nil {
		return err
	}

	log(ctx).Debugf("restoring %v into %v", ad.ArchiveFilePath, targetPath)

	return archive.FinishRestore(ctx, targetPath, restoreEntries(ctx, zr.File, enc, targetPath))
}

func restoreEntries(ctx context.Context, files []*zip.File, enc encoding.Encoding, targetPath string) error {
	for _, zf := range files {
		if err := ctx.Err(); err != nil {
			return errors.Wrap(err, "restore canceled")
		}

		if err := restoreEntry(zf, enc, targetPath); err != nil {
			return err
		}

		archive.RecordRestoredEntry(archive.ZipFile)
	}

	return nil
}

func restoreEntry(zf *zip.File, enc encoding.Encoding, targetPath string) error {
	name := zf.Name

	// nil encoding means names were stored as UTF-8.
	if enc != nil {
		decoded, err := archive.DecodeEntryName(enc, name)
		if err != nil {
			return err
		}

		name = decoded
	}

	localPath, err := archive.SafeJoin(targetPath, name)
	if err != nil {
		return err
	}

	if strings.HasSuffix(name, "/") || zf.FileInfo().IsDir() {
		return archive.MkdirRestored(localPath)
	}

	rc, err := zf.Open()
	if err != nil {
		return errors.Wrapf(err, "unable to open zip entry %v", name)
	}
	defer rc.Close() //nolint:errcheck

	return archive.WriteRestoredFile(localPath, rc, zf.Mode(), zf.Modified)
}

// New returns a zip archiver for the provided compression kind.
func New(compression archive.CompressionKind) (archive.Archiver, error) {
	switch compression {
	case archive.CompressionNone:
		return &zipArchiver{compression, zip.Store, flate.NoCompression}, nil
	case archive.CompressionSmallest:
		return &zipArchiver{compression, zip.Deflate, flate.BestCompression}, nil
	case archive.CompressionFastest:
		return &zipArchiver{compression, zip.Deflate, flate.BestSpeed}, nil
	default:
		return nil, errors.Wrapf(archive.ErrUnsupportedKind, "compression kind %v for archive kind %v", compression, archive.ZipFile)
	}
}
