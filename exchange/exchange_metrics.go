package exchange

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

//nolint:gochecknoglobals,promlinter
var (
	metricOperations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "filejanitor_exchange_operations",
		Help: "Number of exchange operations by result",
	}, []string{"operation", "result"})

	metricRetries = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "filejanitor_exchange_retries",
		Help: "Number of retried remote calls",
	}, []string{"operation"})

	metricUploadedBytes = promauto.NewCounter(prometheus.CounterOpts{
		Name: "filejanitor_exchange_uploaded_bytes",
		Help: "Number of bytes uploaded",
	})

	metricDownloadedBytes = promauto.NewCounter(prometheus.CounterOpts{
		Name: "filejanitor_exchange_downloaded_bytes",
		Help: "Number of bytes downloaded",
	})
)

func recordOperation(operation string, err error) {
	result := "success"
	if err != nil {
		result = "failure"
	}

	metricOperations.WithLabelValues(operation, result).Inc()
}
