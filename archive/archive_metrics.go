package archive

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

//nolint:gochecknoglobals,promlinter
var (
	metricArchivedEntries = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "filejanitor_archive_entries",
		Help: "Number of entries written to archives",
	}, []string{"kind"})

	metricArchivedBytes = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "filejanitor_archive_source_bytes",
		Help: "Number of file bytes written to archives before compression",
	}, []string{"kind"})

	metricRestoredEntries = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "filejanitor_restore_entries",
		Help: "Number of entries extracted from archives",
	}, []string{"kind"})
)

// RecordArchivedEntry updates archive metrics for a single entry.
func RecordArchivedEntry(kind ArchiveKind, e SourceEntry) {
	metricArchivedEntries.WithLabelValues(kind.String()).Inc()

	if e.Info.Mode().IsRegular() {
		metricArchivedBytes.WithLabelValues(kind.String()).Add(float64(e.Info.Size()))
	}
}

// RecordRestoredEntry updates restore metrics for a single entry.
func RecordRestoredEntry(kind ArchiveKind) {
	metricRestoredEntries.WithLabelValues(kind.String()).Inc()
}
