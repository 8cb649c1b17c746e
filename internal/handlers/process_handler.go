package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/imrishuroy/go-order-intake/internal/aws"
	"github.com/imrishuroy/go-order-intake/internal/idempotency"
	"github.com/imrishuroy/go-order-intake/internal/orders"
	"github.com/imrishuroy/go-order-intake/internal/processing"
	"github.com/imrishuroy/go-order-intake/internal/validation"

	validatorv10 "github.com/go-playground/validator/v10"
	log "github.com/sirupsen/logrus"
)

const idempotencyHeader = "Idempotency-Key"

// processResponse is the body of POST /api/orders/process.
type processResponse struct {
	OrderID string `json:"order_id,omitempty"`
	Status  string `json:"status,omitempty"`
	processing.Result
}

func registerProcessRoutes(api *gin.RouterGroup, cfg HandlerConfig, v *validatorv10.Validate) {
	api.POST("/orders/process", func(c *gin.Context) {
		ctx := c.Request.Context()

		var req validation.ProcessRequest
		if err := validation.BindAndValidate(c, &req, v); err != nil {
			// BindAndValidate already wrote a 400
			return
		}

		idempKey := c.GetHeader(idempotencyHeader)

		// replay or reject before spending a model call
		if cfg.persistenceEnabled() && idempKey != "" {
			decision, entry, err := cfg.Idempotency.Check(ctx, idempKey, req.EmailText)
			if err != nil {
				abortWithError(c, http.StatusInternalServerError, "idempotency_check_failed", err)
				return
			}
			if decision != idempotency.DecisionProceed {
				respondExisting(c, decision, entry)
				return
			}
		}

		res, err := cfg.Processor.Process(ctx, req.EmailText, req.Bundle)
		if err != nil {
			status, code := extractionFailure(err)
			abortWithError(c, status, code, err)
			return
		}

		if !cfg.persistenceEnabled() {
			c.JSON(http.StatusOK, processResponse{Result: res})
			return
		}

		orderID := uuid.NewString()
		rec := orders.NewRecord(orderID, res.Order)

		if idempKey == "" {
			if err := cfg.Orders.Put(ctx, rec); err != nil {
				abortWithError(c, http.StatusInternalServerError, "archive_failed", err)
				return
			}
		} else {
			entry := cfg.Idempotency.NewEntry(idempKey, orderID, req.EmailText)
			err := cfg.Orders.CreateWithIdempotencyTransaction(ctx, cfg.Idempotency.TableName(), entry, rec, cfg.Idempotency.TTLWindow())
			if err != nil {
				if !errors.Is(err, orders.ErrDuplicateRequest) {
					abortWithError(c, http.StatusInternalServerError, "archive_failed", err)
					return
				}
				// a concurrent request with the same key won the race
				decision, existing, checkErr := cfg.Idempotency.Check(ctx, idempKey, req.EmailText)
				if checkErr != nil || decision == idempotency.DecisionProceed {
					abortWithError(c, http.StatusInternalServerError, "transaction_failed_no_idempotency_record", err)
					return
				}
				respondExisting(c, decision, existing)
				return
			}
		}

		if err := enqueue(ctx, cfg.Publisher, orderID, idempKey, requestID(c)); err != nil {
			if idempKey != "" {
				// mark idempotency failed so client can retry; attempt to set note
				if markErr := cfg.Idempotency.MarkFailed(ctx, idempKey, fmt.Sprintf("sqs_send_failed: %v", err)); markErr != nil {
					log.WithFields(log.Fields{"request_id": requestID(c), "idempotency_key": idempKey}).
						WithError(markErr).Warn("failed to mark idempotency key failed")
				}
			}
			abortWithError(c, http.StatusInternalServerError, "enqueue_failed", err)
			return
		}

		body := processResponse{OrderID: orderID, Status: orders.StatusPending, Result: res}
		if idempKey != "" {
			if b, err := json.Marshal(body); err == nil {
				if err := cfg.Idempotency.MarkDone(ctx, idempKey, string(b), http.StatusCreated); err != nil {
					// the key stays IN_PROGRESS until its TTL lapses
					log.WithFields(log.Fields{"request_id": requestID(c), "idempotency_key": idempKey, "order_id": orderID}).
						WithError(err).Warn("failed to mark idempotency key done")
				}
			}
		}

		c.Header("Location", fmt.Sprintf("/api/orders/%s", orderID))
		c.JSON(http.StatusCreated, body)
	})

	api.GET("/orders/:id", func(c *gin.Context) {
		if cfg.Orders == nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "archive_disabled"})
			return
		}
		rec, err := cfg.Orders.Get(c.Request.Context(), c.Param("id"))
		if err != nil {
			abortWithError(c, http.StatusInternalServerError, "order_lookup_failed", err)
			return
		}
		if rec == nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "order_not_found"})
			return
		}
		c.JSON(http.StatusOK, orderView(*rec))
	})
}

// enqueue hands the order to the bundling worker. A nil publisher means no queue is configured.
func enqueue(ctx context.Context, p *aws.Publisher, orderID, idempKey, correlationID string) error {
	if p == nil {
		return nil
	}
	return p.PublishOrder(ctx, aws.OrderMessage{
		OrderID:        orderID,
		IdempotencyKey: idempKey,
		CorrelationID:  correlationID,
	})
}

// respondExisting answers a request whose idempotency key is already recorded.
func respondExisting(c *gin.Context, decision idempotency.Decision, entry *idempotency.Entry) {
	switch decision {
	case idempotency.DecisionKeyReused:
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "idempotency_key_reused", "order_id": entry.OrderID})
	case idempotency.DecisionReplay:
		if entry.ResponseBody != "" && json.Valid([]byte(entry.ResponseBody)) {
			status := entry.ResponseStatus
			if status == 0 {
				status = http.StatusOK
			}
			c.Data(status, "application/json", []byte(entry.ResponseBody))
			return
		}
		c.JSON(http.StatusOK, gin.H{"order_id": entry.OrderID})
	case idempotency.DecisionInProgress:
		c.JSON(http.StatusAccepted, gin.H{"message": "request already in progress", "order_id": entry.OrderID})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "previous_attempt_failed", "order_id": entry.OrderID, "detail": entry.Note})
	}
}

// orderView is the JSON rendering of an archived order.
func orderView(rec orders.Record) gin.H {
	view := gin.H{
		"order_id":      rec.OrderID,
		"status":        rec.Status,
		"customer":      rec.Customer,
		"address":       rec.Address,
		"delivery_date": rec.DeliveryDate,
		"items":         rec.Items,
		"invalid_items": rec.InvalidItems,
		"created_at":    rec.CreatedAt,
		"updated_at":    rec.UpdatedAt,
	}
	if rec.BundleReport != "" && json.Valid([]byte(rec.BundleReport)) {
		view["bundling"] = json.RawMessage(rec.BundleReport)
	}
	return view
}
