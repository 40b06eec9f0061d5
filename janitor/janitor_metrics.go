package janitor

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

//nolint:gochecknoglobals,promlinter
var (
	metricDeletedFiles = promauto.NewCounter(prometheus.CounterOpts{
		Name: "filejanitor_cleanup_deleted_files",
		Help: "Number of files deleted by retention cleanup",
	})

	metricDeletedBytes = promauto.NewCounter(prometheus.CounterOpts{
		Name: "filejanitor_cleanup_deleted_bytes",
		Help: "Number of bytes in files deleted by retention cleanup",
	})

	metricDeletedDirectories = promauto.NewCounter(prometheus.CounterOpts{
		Name: "filejanitor_cleanup_deleted_directories",
		Help: "Number of empty directories deleted by retention cleanup",
	})

	metricRetainedFiles = promauto.NewCounter(prometheus.CounterOpts{
		Name: "filejanitor_cleanup_retained_files",
		Help: "Number of files examined and kept by retention cleanup",
	})
)
