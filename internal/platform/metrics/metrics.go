package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

const namespace = "orderbook"

var (
	FeedMessagesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "feed_messages_total",
		Help:      "Feed messages ingested, by outcome.",
	}, []string{"outcome"})

	IngestDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "ingest_duration_seconds",
		Help:      "Time spent parsing and applying one feed message.",
		Buckets:   []float64{0.00001, 0.00005, 0.0001, 0.0005, 0.001, 0.005, 0.01},
	})

	BookLevels = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "book_levels",
		Help:      "Price levels currently held per pair and side.",
	}, []string{"pair", "side"})

	WSReconnectsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "ws_reconnects_total",
		Help:      "Feed websocket reconnect attempts.",
	})

	SinkPublishErrorsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "sink_publish_errors_total",
		Help:      "Failed book view publications, by sink.",
	}, []string{"sink"})

	SinkDroppedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "sink_dropped_total",
		Help:      "Messages dropped because a consumer queue was full, by sink.",
	}, []string{"sink"})

	AnomaliesDroppedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "anomalies_dropped_total",
		Help:      "Anomalies dropped because the reporter queue was full.",
	})

	StreamClients = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "stream_clients",
		Help:      "Connected websocket stream clients.",
	})
)

// Init registers every collector on a fresh registry.
func Init(logger *zap.Logger) *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		FeedMessagesTotal,
		IngestDuration,
		BookLevels,
		WSReconnectsTotal,
		SinkPublishErrorsTotal,
		SinkDroppedTotal,
		AnomaliesDroppedTotal,
		StreamClients,
	)
	logger.Debug("Prometheus collectors registered")
	return reg
}

func Handler(reg *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
}
