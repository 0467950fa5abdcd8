package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Ingestion holds the ingestion pipeline metrics. Collectors register on the
// given registerer; the host process owns the scrape surface.
type Ingestion struct {
	FetchTotal              *prometheus.CounterVec
	FetchFailuresTotal      *prometheus.CounterVec
	RecordsIngestedTotal    *prometheus.CounterVec
	StoreWriteFailuresTotal *prometheus.CounterVec
	TickDuration            *prometheus.HistogramVec
}

// NewIngestion creates and registers the ingestion metrics.
func NewIngestion(reg prometheus.Registerer) *Ingestion {
	factory := promauto.With(reg)
	return &Ingestion{
		FetchTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "ratefeed_fetch_total",
			Help: "Upstream fetch attempts per provider.",
		}, []string{"provider"}),
		FetchFailuresTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "ratefeed_fetch_failures_total",
			Help: "Upstream fetch failures per provider.",
		}, []string{"provider"}),
		RecordsIngestedTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "ratefeed_records_ingested_total",
			Help: "Normalized rate records written per provider.",
		}, []string{"provider"}),
		StoreWriteFailuresTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "ratefeed_store_write_failures_total",
			Help: "Rate store write failures per storage backend.",
		}, []string{"storage"}),
		TickDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "ratefeed_tick_duration_seconds",
			Help:    "Ingestion tick duration per cadence.",
			Buckets: prometheus.DefBuckets,
		}, []string{"cadence"}),
	}
}
