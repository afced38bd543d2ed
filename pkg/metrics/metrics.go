package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	SubmissionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "wedding",
			Subsystem: "kiosk",
			Name:      "submissions_total",
			Help:      "Memory submissions by kind and outcome",
		},
		[]string{"kind", "status"},
	)

	SubmissionBytesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "wedding",
			Subsystem: "kiosk",
			Name:      "submission_bytes_total",
			Help:      "Bytes accepted by the memory API",
		},
		[]string{"kind"},
	)

	SubmissionDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "wedding",
			Subsystem: "kiosk",
			Name:      "submission_duration_seconds",
			Help:      "Time spent uploading one memory",
			Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60},
		},
		[]string{"kind"},
	)

	DeviceAcquisitionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "wedding",
			Subsystem: "kiosk",
			Name:      "device_acquisitions_total",
			Help:      "Camera/microphone acquisition attempts",
		},
		[]string{"kind", "status"},
	)

	ProbesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "wedding",
			Subsystem: "gallery",
			Name:      "probes_total",
			Help:      "Reachability probes by result",
		},
		[]string{"result"},
	)

	ExportItemsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "wedding",
			Subsystem: "gallery",
			Name:      "export_items_total",
			Help:      "Archive items by kind and outcome",
		},
		[]string{"kind", "status"},
	)
)

func RecordSubmission(kind, status string, bytes int, seconds float64) {
	SubmissionsTotal.WithLabelValues(kind, status).Inc()
	SubmissionDuration.WithLabelValues(kind).Observe(seconds)
	if status == "success" {
		SubmissionBytesTotal.WithLabelValues(kind).Add(float64(bytes))
	}
}

func RecordAcquisition(kind, status string) {
	DeviceAcquisitionsTotal.WithLabelValues(kind, status).Inc()
}

func RecordProbe(reachable, cached bool) {
	result := "unreachable"
	if reachable {
		result = "reachable"
	}
	if cached {
		result += "_cached"
	}
	ProbesTotal.WithLabelValues(result).Inc()
}

func RecordExportItem(kind, status string) {
	ExportItemsTotal.WithLabelValues(kind, status).Inc()
}
