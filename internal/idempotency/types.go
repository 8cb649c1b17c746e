package idempotency

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"
)

// Status values for idempotency entries
const (
	StatusInProgress = "IN_PROGRESS"
	StatusDone       = "DONE"
	StatusFailed     = "FAILED"
)

// Entry is the shape persisted in the idempotency DynamoDB table. One entry
// guards one processed intake email.
type Entry struct {
	IdempotencyKey string    `dynamodbav:"idempotency_key"` // PK
	Status         string    `dynamodbav:"status"`
	OrderID        string    `dynamodbav:"order_id,omitempty"`
	RequestHash    string    `dynamodbav:"request_hash,omitempty"`    // sha256 of the trimmed email text
	ResponseBody   string    `dynamodbav:"response_body,omitempty"`   // processing result JSON
	ResponseStatus int       `dynamodbav:"response_status,omitempty"` // e.g., 201
	CreatedAt      time.Time `dynamodbav:"created_at"`
	UpdatedAt      time.Time `dynamodbav:"updated_at"`
	ExpiresAt      int64     `dynamodbav:"expires_at"` // TTL epoch seconds
	Note           string    `dynamodbav:"note,omitempty"`
}

// Expired reports whether DynamoDB TTL should already have removed the entry.
// TTL deletion is lazy, so readers check it themselves.
func (e Entry) Expired(now time.Time) bool {
	return e.ExpiresAt > 0 && now.Unix() >= e.ExpiresAt
}

// Matches reports whether the entry was created for the same email text.
func (e Entry) Matches(emailText string) bool {
	return e.RequestHash == "" || e.RequestHash == HashRequest(emailText)
}

// HashRequest fingerprints an intake email, ignoring surrounding whitespace.
func HashRequest(emailText string) string {
	sum := sha256.Sum256([]byte(strings.TrimSpace(emailText)))
	return hex.EncodeToString(sum[:])
}

// Decision says how to answer a request whose key may already be recorded.
type Decision int

const (
	// DecisionProceed: no live entry, process the email.
	DecisionProceed Decision = iota
	// DecisionReplay: a finished request, answer with the stored response.
	DecisionReplay
	// DecisionInProgress: the first request has not finished yet.
	DecisionInProgress
	// DecisionPreviousFailed: the first request failed after archiving.
	DecisionPreviousFailed
	// DecisionKeyReused: the key belongs to a different email.
	DecisionKeyReused
)

func (d Decision) String() string {
	switch d {
	case DecisionProceed:
		return "proceed"
	case DecisionReplay:
		return "replay"
	case DecisionInProgress:
		return "in_progress"
	case DecisionPreviousFailed:
		return "previous_failed"
	case DecisionKeyReused:
		return "key_reused"
	default:
		return "unknown"
	}
}

// Decide classifies an entry (nil when none) for a request carrying emailText.
// A hash mismatch wins over the stored status. Unknown statuses are treated as failed.
func Decide(e *Entry, emailText string) Decision {
	if e == nil {
		return DecisionProceed
	}
	if !e.Matches(emailText) {
		return DecisionKeyReused
	}
	switch e.Status {
	case StatusDone:
		return DecisionReplay
	case StatusInProgress:
		return DecisionInProgress
	default:
		return DecisionPreviousFailed
	}
}
