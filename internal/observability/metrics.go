// Package observability carries the run's Prometheus metrics. The job is a
// batch process, so metrics are pushed to a Pushgateway at the end of a run
// instead of being served over HTTP.
package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"
)

type Metrics struct {
	reg *prometheus.Registry

	PagesFetched   *prometheus.CounterVec
	RecordsFetched *prometheus.CounterVec

	SkippedInactive   prometheus.Counter
	SkippedUnparsable prometheus.Counter
	DuplicateArticles prometheus.Counter
	DuplicatePrices   prometheus.Counter
	OrphanPrices      prometheus.Counter
	BlankSKUs         prometheus.Counter

	APICalls      prometheus.Gauge
	RowsPublished prometheus.Gauge
	RunDuration   prometheus.Gauge
	RunSuccess    prometheus.Gauge
}

func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()

	pages := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "caddis_sync_pages_fetched_total",
		Help: "Vendor pages that returned records, by source",
	}, []string{"source"})
	records := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "caddis_sync_records_fetched_total",
		Help: "Records kept from the vendor API, by source",
	}, []string{"source"})

	skippedInactive := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "caddis_sync_skipped_inactive_total",
		Help: "Catalog records dropped for being inactive",
	})
	skippedUnparsable := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "caddis_sync_skipped_unparsable_total",
		Help: "Price records dropped for non-numeric price or tax",
	})
	duplicateArticles := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "caddis_sync_duplicate_articles_total",
		Help: "Catalog records dropped as duplicate SKUs",
	})
	duplicatePrices := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "caddis_sync_duplicate_prices_total",
		Help: "Price records replaced by a later entry for the same SKU and list",
	})
	orphanPrices := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "caddis_sync_orphan_prices_total",
		Help: "Price records dropped for SKUs missing from the catalog",
	})
	blankSKUs := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "caddis_sync_blank_skus_total",
		Help: "Records dropped for having no SKU",
	})

	apiCalls := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "caddis_sync_api_calls",
		Help: "Vendor API calls made during the last run",
	})
	rowsPublished := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "caddis_sync_rows_published",
		Help: "Product rows written to the spreadsheet in the last run",
	})
	runDuration := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "caddis_sync_run_duration_seconds",
		Help: "Wall-clock duration of the last run",
	})
	runSuccess := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "caddis_sync_run_success",
		Help: "1 when the last run published successfully, 0 otherwise",
	})

	reg.MustRegister(pages, records, skippedInactive, skippedUnparsable, duplicateArticles,
		duplicatePrices, orphanPrices, blankSKUs, apiCalls, rowsPublished, runDuration, runSuccess)

	return &Metrics{
		reg:               reg,
		PagesFetched:      pages,
		RecordsFetched:    records,
		SkippedInactive:   skippedInactive,
		SkippedUnparsable: skippedUnparsable,
		DuplicateArticles: duplicateArticles,
		DuplicatePrices:   duplicatePrices,
		OrphanPrices:      orphanPrices,
		BlankSKUs:         blankSKUs,
		APICalls:          apiCalls,
		RowsPublished:     rowsPublished,
		RunDuration:       runDuration,
		RunSuccess:        runSuccess,
	}
}

// Push sends the run's metrics to a Pushgateway under the given job name.
// The caller decides what to do with the error; losing a push must never
// fail a run that already published its data.
func (m *Metrics) Push(gatewayURL, job string) error {
	return push.New(gatewayURL, job).Gatherer(m.reg).Push()
}
