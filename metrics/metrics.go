package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// ingest pipeline
	ObservationsFetched = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "aircorr_observations_fetched_total", Help: "Observations fetched per source"},
		[]string{"source"},
	)
	MessagesIngested = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "aircorr_messages_ingested_total", Help: "Observation messages landed in the database"},
	)
	MessagesRejected = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "aircorr_messages_rejected_total", Help: "Observation messages dropped by validation"},
	)
	// cleaning pass
	RowsDroppedGauge = prometheus.NewGauge(
		prometheus.GaugeOpts{Name: "aircorr_clean_rows_dropped", Help: "Rows removed by the last cleaning pass"},
	)
	RowsFilledGauge = prometheus.NewGauge(
		prometheus.GaugeOpts{Name: "aircorr_clean_rows_filled", Help: "Values forward-filled by the last cleaning pass"},
	)
	// scraping
	ScrapePagesGauge = prometheus.NewGauge(
		prometheus.GaugeOpts{Name: "aircorr_scrape_pages", Help: "Report pages read in the last scrape"},
	)
	// model scores (label: model)
	ModelR2Gauge = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{Name: "aircorr_model_r2", Help: "R-squared of the last fit per model"},
		[]string{"model"},
	)
)

func InitAndServe(addr string) error {
	prometheus.MustRegister(ObservationsFetched, MessagesIngested, MessagesRejected,
		RowsDroppedGauge, RowsFilledGauge, ScrapePagesGauge, ModelR2Gauge)
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	// Separate HTTP server; run from a goroutine in main.
	return http.ListenAndServe(addr, mux)
}
