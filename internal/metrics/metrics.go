package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Outcome labels for processed orders.
const (
	OutcomeAllValid     = "all_valid"
	OutcomeNeedsReview  = "needs_review"
	OutcomeExtractError = "extraction_failed"
)

// Metrics holds the Prometheus collectors of the intake pipeline.
type Metrics struct {
	ordersProcessed    *prometheus.CounterVec
	itemsValidated     *prometheus.CounterVec
	extractionDuration prometheus.Histogram
	bundlingDegraded   *prometheus.CounterVec
}

// New registers the collectors on the default registerer.
func New() *Metrics {
	return NewWithRegisterer(prometheus.DefaultRegisterer)
}

// NewWithRegisterer registers the collectors on registerer. Collectors that
// already exist are reused, so calling it twice is safe.
func NewWithRegisterer(registerer prometheus.Registerer) *Metrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}

	return &Metrics{
		ordersProcessed: registerCounterVec(registerer, prometheus.CounterOpts{
			Name: "order_intake_orders_processed_total",
			Help: "Total number of intake emails processed, by outcome",
		}, []string{"outcome"}),
		itemsValidated: registerCounterVec(registerer, prometheus.CounterOpts{
			Name: "order_intake_items_validated_total",
			Help: "Total number of line items validated, by result",
		}, []string{"result"}),
		extractionDuration: registerHistogram(registerer, prometheus.HistogramOpts{
			Name:    "order_intake_extraction_duration_seconds",
			Help:    "Duration of language model extraction in seconds",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}),
		bundlingDegraded: registerCounterVec(registerer, prometheus.CounterOpts{
			Name: "order_intake_bundling_degraded_total",
			Help: "Total number of bundling analyses that failed and were degraded",
		}, []string{"analysis"}),
	}
}

func registerCounterVec(registerer prometheus.Registerer, opts prometheus.CounterOpts, labels []string) *prometheus.CounterVec {
	collector := prometheus.NewCounterVec(opts, labels)
	if err := registerer.Register(collector); err != nil {
		if alreadyRegistered, ok := err.(prometheus.AlreadyRegisteredError); ok {
			existing, ok := alreadyRegistered.ExistingCollector.(*prometheus.CounterVec)
			if !ok {
				panic(fmt.Sprintf("collector %q already registered with unexpected type", opts.Name))
			}
			return existing
		}
		panic(fmt.Sprintf("register counter vec %q: %v", opts.Name, err))
	}
	return collector
}

func registerHistogram(registerer prometheus.Registerer, opts prometheus.HistogramOpts) prometheus.Histogram {
	collector := prometheus.NewHistogram(opts)
	if err := registerer.Register(collector); err != nil {
		if alreadyRegistered, ok := err.(prometheus.AlreadyRegisteredError); ok {
			existing, ok := alreadyRegistered.ExistingCollector.(prometheus.Histogram)
			if !ok {
				panic(fmt.Sprintf("collector %q already registered with unexpected type", opts.Name))
			}
			return existing
		}
		panic(fmt.Sprintf("register histogram %q: %v", opts.Name, err))
	}
	return collector
}

// RecordOrder counts one processed order.
func (m *Metrics) RecordOrder(outcome string) {
	m.ordersProcessed.WithLabelValues(outcome).Inc()
}

// RecordItems counts validated items split by verdict.
func (m *Metrics) RecordItems(valid, invalid int) {
	m.itemsValidated.WithLabelValues("valid").Add(float64(valid))
	m.itemsValidated.WithLabelValues("invalid").Add(float64(invalid))
}

// RecordExtraction observes one extraction call.
func (m *Metrics) RecordExtraction(d time.Duration) {
	m.extractionDuration.Observe(d.Seconds())
}

// RecordBundlingDegraded counts a bundling analysis that failed.
func (m *Metrics) RecordBundlingDegraded(analysis string) {
	m.bundlingDegraded.WithLabelValues(analysis).Inc()
}
