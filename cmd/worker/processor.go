package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/aws/aws-lambda-go/events"
	log "github.com/sirupsen/logrus"

	"github.com/imrishuroy/go-order-intake/internal/aws"
	"github.com/imrishuroy/go-order-intake/internal/bundling"
	"github.com/imrishuroy/go-order-intake/internal/orders"
)

// Processor handles SQS messages: it runs the bundling analysis for archived
// orders and moves them through PENDING -> PROCESSING -> COMPLETED.
type Processor struct {
	orderStore *orders.Store
	analyzer   *bundling.Analyzer
	metrics    *aws.MetricsPublisher // optional
	logger     *log.Entry
}

// NewProcessor creates a new worker processor. metrics may be nil.
func NewProcessor(orderStore *orders.Store, analyzer *bundling.Analyzer, metrics *aws.MetricsPublisher) *Processor {
	return &Processor{
		orderStore: orderStore,
		analyzer:   analyzer,
		metrics:    metrics,
		logger:     log.WithField("component", "worker"),
	}
}

// Handle receives an SQS batch event and processes each message.
func (p *Processor) Handle(ctx context.Context, ev events.SQSEvent) error {
	p.logger.WithField("records", len(ev.Records)).Debug("received sqs batch")
	for _, rec := range ev.Records {
		if err := p.processMessage(ctx, rec); err != nil {
			// Return error: Lambda will retry. If failed too many times, message goes to DLQ.
			p.logger.WithError(err).WithField("message_id", rec.MessageId).Error("worker error")
			return err
		}
	}
	return nil
}

func (p *Processor) processMessage(ctx context.Context, rec events.SQSMessage) error {
	var msg aws.OrderMessage
	if err := json.Unmarshal([]byte(rec.Body), &msg); err != nil {
		return fmt.Errorf("invalid message body: %w", err)
	}
	if msg.OrderID == "" {
		return errors.New("invalid message body: missing order_id")
	}

	logger := p.logger.WithFields(log.Fields{
		"order_id":        msg.OrderID,
		"idempotency_key": msg.IdempotencyKey,
		"correlation_id":  msg.CorrelationID,
	})
	logger.Info("received order")

	order, err := p.orderStore.Get(ctx, msg.OrderID)
	if err != nil {
		return fmt.Errorf("failed to fetch order: %w", err)
	}
	if order == nil {
		return fmt.Errorf("order not found: %s", msg.OrderID)
	}

	// PENDING -> PROCESSING claims the order
	err = p.orderStore.UpdateStatus(ctx, msg.OrderID, orders.StatusPending, orders.StatusProcessing)
	if errors.Is(err, orders.ErrStatusMismatch) {
		return p.resolveMismatch(ctx, logger, msg.OrderID)
	}
	if err != nil {
		return fmt.Errorf("failed to update status to PROCESSING: %w", err)
	}

	if err := p.bundle(ctx, logger, *order); err != nil {
		p.release(ctx, logger, msg.OrderID)
		return err
	}

	if err := p.orderStore.UpdateStatus(ctx, msg.OrderID, orders.StatusProcessing, orders.StatusCompleted); err != nil {
		return fmt.Errorf("failed to update status to COMPLETED: %w", err)
	}

	logger.Info("completed order")
	return nil
}

// resolveMismatch decides what a message for an order that is no longer PENDING means.
func (p *Processor) resolveMismatch(ctx context.Context, logger *log.Entry, orderID string) error {
	current, err := p.orderStore.Get(ctx, orderID)
	if err != nil {
		return fmt.Errorf("failed to re-read order: %w", err)
	}
	if current == nil {
		return fmt.Errorf("order not found: %s", orderID)
	}
	switch current.Status {
	case orders.StatusCompleted:
		logger.Info("order already completed")
		return nil
	case orders.StatusProcessing:
		// another worker holds it; swallow the duplicate delivery
		logger.Warn("duplicate processing event")
		return nil
	case orders.StatusFailed:
		return fmt.Errorf("order=%s is already FAILED", orderID)
	default:
		return fmt.Errorf("unexpected status for order=%s: %s", orderID, current.Status)
	}
}

// bundle runs the analysis on the stored order and saves the report.
func (p *Processor) bundle(ctx context.Context, logger *log.Entry, rec orders.Record) error {
	order, err := rec.Order()
	if err != nil {
		return fmt.Errorf("rebuild order %s: %w", rec.OrderID, err)
	}

	report := p.analyzer.Analyze(order)
	body, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("marshal bundling report: %w", err)
	}
	if err := p.orderStore.SaveBundleReport(ctx, rec.OrderID, string(body)); err != nil {
		return err
	}

	logger.WithFields(log.Fields{
		"suggestions": report.SuggestionCount(),
		"potential":   report.Summary.BundlingPotential,
	}).Info("bundling report saved")

	if p.metrics != nil {
		err := p.metrics.PutOrderMetrics(ctx, aws.OrderMetrics{
			TotalItems:        report.Summary.TotalItems,
			InvalidItems:      report.Summary.InvalidItems,
			BundleSuggestions: report.SuggestionCount(),
			HighPotential:     report.Summary.BundlingPotential == bundling.PotentialHigh,
		})
		if err != nil {
			logger.WithError(err).Warn("failed to publish order metrics")
		}
	}
	return nil
}

// release records a failed attempt and hands the order back for redelivery.
func (p *Processor) release(ctx context.Context, logger *log.Entry, orderID string) {
	if err := p.orderStore.IncrementAttempts(ctx, orderID); err != nil {
		logger.WithError(err).Warn("failed to increment attempts")
	}
	if err := p.orderStore.UpdateStatus(ctx, orderID, orders.StatusProcessing, orders.StatusPending); err != nil {
		logger.WithError(err).Warn("failed to release order")
	}
}
