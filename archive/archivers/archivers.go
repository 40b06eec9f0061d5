// Package archivers registers all archive codecs shipped with filejanitor.
package archivers

import (
	"github.com/kopia/filejanitor/archive"
	"github.com/kopia/filejanitor/archive/tararchive"
	"github.com/kopia/filejanitor/archive/ziparchive"
)

// NewRegistry returns a registry with all supported archive kinds.
func NewRegistry() *archive.Registry {
	r := archive.NewRegistry()

	mustRegister(r, archive.ZipFile, ziparchive.New)
	mustRegister(r, archive.TarGzip, tararchive.New)

	return r
}

func mustRegister(r *archive.Registry, kind archive.ArchiveKind, c archive.Constructor) {
	if err := r.Register(kind, c); err != nil {
		panic("unable to register archiver: " + err.Error())
	}
}
