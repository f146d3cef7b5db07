package manager

import "github.com/prometheus/client_golang/prometheus"

var (
	modelsLoaded = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "modelhub",
			Subsystem: "manager",
			Name:      "models_loaded",
			Help:      "Models with a live runtime session",
		},
	)

	downloadsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "modelhub",
			Subsystem: "manager",
			Name:      "downloads_total",
			Help:      "Finished download attempts by result",
		},
		[]string{"format", "result"},
	)

	loadsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "modelhub",
			Subsystem: "manager",
			Name:      "loads_total",
			Help:      "Model load attempts by result",
		},
		[]string{"result"},
	)

	generationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "modelhub",
			Subsystem: "manager",
			Name:      "generations_total",
			Help:      "Generation requests by result",
		},
		[]string{"result"},
	)

	generationDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "modelhub",
			Subsystem: "manager",
			Name:      "generation_duration_seconds",
			Help:      "Wall time of successful generations",
			Buckets:   prometheus.ExponentialBuckets(0.05, 2, 12),
		},
	)

	registrySaveErrors = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "modelhub",
			Subsystem: "manager",
			Name:      "registry_save_errors_total",
			Help:      "Registry writes that failed",
		},
	)
)

func init() {
	prometheus.MustRegister(modelsLoaded, downloadsTotal, loadsTotal, generationsTotal, generationDuration, registrySaveErrors)
}
