package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func counterValue(t *testing.T, reg *prometheus.Registry, name string, labels map[string]string) float64 {
	t.Helper()
	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	for _, mf := range families {
		if mf.GetName() != name {
			continue
		}
		for _, m := range mf.GetMetric() {
			if matches(m, labels) {
				return m.GetCounter().GetValue()
			}
		}
	}
	return 0
}

func matches(m *dto.Metric, labels map[string]string) bool {
	for _, lp := range m.GetLabel() {
		if want, ok := labels[lp.GetName()]; ok && want != lp.GetValue() {
			return false
		}
	}
	return true
}

func TestRecordOrderAndItems(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewWithRegisterer(reg)

	m.RecordOrder(OutcomeAllValid)
	m.RecordOrder(OutcomeNeedsReview)
	m.RecordOrder(OutcomeNeedsReview)
	m.RecordItems(3, 1)

	if got := counterValue(t, reg, "order_intake_orders_processed_total", map[string]string{"outcome": OutcomeNeedsReview}); got != 2 {
		t.Fatalf("expected 2 needs_review orders, got %v", got)
	}
	if got := counterValue(t, reg, "order_intake_items_validated_total", map[string]string{"result": "valid"}); got != 3 {
		t.Fatalf("expected 3 valid items, got %v", got)
	}
	if got := counterValue(t, reg, "order_intake_items_validated_total", map[string]string{"result": "invalid"}); got != 1 {
		t.Fatalf("expected 1 invalid item, got %v", got)
	}
}

func TestRecordExtraction(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewWithRegisterer(reg)

	m.RecordExtraction(300 * time.Millisecond)

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	for _, mf := range families {
		if mf.GetName() == "order_intake_extraction_duration_seconds" {
			if got := mf.GetMetric()[0].GetHistogram().GetSampleCount(); got != 1 {
				t.Fatalf("expected 1 sample, got %d", got)
			}
			return
		}
	}
	t.Fatal("extraction histogram not gathered")
}

func TestNewWithRegisterer_ReusesExistingCollectors(t *testing.T) {
	reg := prometheus.NewRegistry()
	first := NewWithRegisterer(reg)
	second := NewWithRegisterer(reg)

	first.RecordBundlingDegraded("moq_bundles")
	second.RecordBundlingDegraded("moq_bundles")

	if got := counterValue(t, reg, "order_intake_bundling_degraded_total", map[string]string{"analysis": "moq_bundles"}); got != 2 {
		t.Fatalf("expected shared counter value 2, got %v", got)
	}
}
