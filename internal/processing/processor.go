package processing

import (
	"context"
	"fmt"
	"time"

	"github.com/imrishuroy/go-order-intake/internal/bundling"
	"github.com/imrishuroy/go-order-intake/internal/extraction"
	"github.com/imrishuroy/go-order-intake/internal/metrics"
	"github.com/imrishuroy/go-order-intake/internal/orders"
	"github.com/imrishuroy/go-order-intake/internal/validation"
	log "github.com/sirupsen/logrus"
)

// Recorder receives pipeline measurements. *metrics.Metrics implements it.
type Recorder interface {
	RecordOrder(outcome string)
	RecordItems(valid, invalid int)
	RecordExtraction(d time.Duration)
}

type nopRecorder struct{}

func (nopRecorder) RecordOrder(string)             {}
func (nopRecorder) RecordItems(int, int)           {}
func (nopRecorder) RecordExtraction(time.Duration) {}

// Summary is the order level verdict shown to the user.
type Summary struct {
	ValidItems int    `json:"valid_items"`
	TotalItems int    `json:"total_items"`
	AllValid   bool   `json:"all_valid"`
	Message    string `json:"message"`
}

// Result is the outcome of processing one email.
type Result struct {
	Order    orders.Order     `json:"order"`
	Bundling *bundling.Report `json:"bundling,omitempty"`
	Summary  Summary          `json:"summary"`
}

// Processor runs extraction, per-item validation and optional bundling.
type Processor struct {
	extractor extraction.Extractor
	engine    *validation.Engine
	analyzer  *bundling.Analyzer
	recorder  Recorder
	logger    *log.Entry
}

// NewProcessor wires the pipeline. recorder may be nil.
func NewProcessor(ex extraction.Extractor, engine *validation.Engine, analyzer *bundling.Analyzer, recorder Recorder) *Processor {
	if recorder == nil {
		recorder = nopRecorder{}
	}
	return &Processor{
		extractor: ex,
		engine:    engine,
		analyzer:  analyzer,
		recorder:  recorder,
		logger:    log.WithField("component", "processor"),
	}
}

// Process handles one email. Only extraction can fail; invalid items and
// degraded bundling are part of a successful Result.
func (p *Processor) Process(ctx context.Context, emailText string, withBundles bool) (Result, error) {
	start := time.Now()
	tentative, err := p.extractor.Extract(ctx, emailText)
	p.recorder.RecordExtraction(time.Since(start))
	if err != nil {
		p.recorder.RecordOrder(metrics.OutcomeExtractError)
		return Result{}, fmt.Errorf("extract order: %w", err)
	}

	annotated := p.engine.AnnotateOrder(tentative)
	res := Result{
		Order:   annotated,
		Summary: Summarize(annotated),
	}
	if withBundles && p.analyzer != nil {
		report := p.analyzer.Analyze(annotated)
		res.Bundling = &report
	}

	p.recorder.RecordItems(res.Summary.ValidItems, res.Summary.TotalItems-res.Summary.ValidItems)
	outcome := metrics.OutcomeNeedsReview
	if res.Summary.AllValid {
		outcome = metrics.OutcomeAllValid
	}
	p.recorder.RecordOrder(outcome)

	p.logger.WithFields(log.Fields{
		"customer":    annotated.Customer,
		"items":       res.Summary.TotalItems,
		"valid_items": res.Summary.ValidItems,
		"bundled":     res.Bundling != nil,
	}).Info("order processed")
	return res, nil
}

// Summarize counts valid items and renders the summary message.
func Summarize(o orders.Order) Summary {
	valid, total := o.ValidCount(), len(o.Items)
	s := Summary{ValidItems: valid, TotalItems: total, AllValid: valid == total}
	if s.AllValid {
		s.Message = fmt.Sprintf("All %d items are valid!", total)
	} else {
		s.Message = fmt.Sprintf("%d/%d items are valid. Please review suggestions above.", valid, total)
	}
	return s
}
