package idempotency

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	dyn "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/aws/smithy-go"
	"github.com/imrishuroy/go-order-intake/internal/aws"
)

// ErrEntryMissing is returned when settling a key that has no entry.
var ErrEntryMissing = errors.New("idempotency entry not found")

// Store reads and settles idempotency entries in DynamoDB. Entries are
// created by orders.Store in the same transaction as the archived order.
type Store struct {
	client    aws.DynamoDBAPI
	tableName string
	ttlWindow time.Duration
	nowFunc   func() time.Time
}

// NewStore returns a Store for tableName whose new entries live for ttlWindow.
func NewStore(client aws.DynamoDBAPI, tableName string, ttlWindow time.Duration) *Store {
	return &Store{
		client:    client,
		tableName: tableName,
		ttlWindow: ttlWindow,
		nowFunc:   time.Now,
	}
}

// TableName is the idempotency table, needed by callers building multi-table transactions.
func (s *Store) TableName() string { return s.tableName }

// TTLWindow is the lifetime given to new entries.
func (s *Store) TTLWindow() time.Duration { return s.ttlWindow }

// NewEntry builds an IN_PROGRESS entry for key without writing it.
func (s *Store) NewEntry(key, orderID, emailText string) Entry {
	now := s.nowFunc()
	return Entry{
		IdempotencyKey: key,
		Status:         StatusInProgress,
		OrderID:        orderID,
		RequestHash:    HashRequest(emailText),
		CreatedAt:      now,
		UpdatedAt:      now,
		ExpiresAt:      now.Add(s.ttlWindow).Unix(),
	}
}

func (s *Store) key(key string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"idempotency_key": &types.AttributeValueMemberS{Value: key},
	}
}

// Get retrieves an idempotency entry by key. If not found or expired, returns (nil, nil).
func (s *Store) Get(ctx context.Context, key string) (*Entry, error) {
	out, err := s.client.GetItem(ctx, &dyn.GetItemInput{
		TableName:      &s.tableName,
		Key:            s.key(key),
		ConsistentRead: awsBool(true),
	})
	if err != nil {
		return nil, fmt.Errorf("get item: %w", err)
	}
	if len(out.Item) == 0 {
		return nil, nil
	}
	var e Entry
	if err := attributevalue.UnmarshalMap(out.Item, &e); err != nil {
		return nil, fmt.Errorf("unmarshal item: %w", err)
	}
	if e.Expired(s.nowFunc()) {
		return nil, nil
	}
	return &e, nil
}

// Check looks key up and decides how a request carrying emailText must be answered.
// The entry is nil only for DecisionProceed.
func (s *Store) Check(ctx context.Context, key, emailText string) (Decision, *Entry, error) {
	e, err := s.Get(ctx, key)
	if err != nil {
		return DecisionProceed, nil, err
	}
	return Decide(e, emailText), e, nil
}

// MarkDone sets status to DONE and stores the response body & status to replay.
func (s *Store) MarkDone(ctx context.Context, key, responseBody string, responseStatus int) error {
	err := s.settle(ctx, key, "SET #s = :st, response_body = :rb, response_status = :rs, updated_at = :ua",
		map[string]types.AttributeValue{
			":st": &types.AttributeValueMemberS{Value: StatusDone},
			":rb": &types.AttributeValueMemberS{Value: responseBody},
			":rs": &types.AttributeValueMemberN{Value: strconv.Itoa(responseStatus)},
		})
	if err != nil {
		return fmt.Errorf("update item (mark done): %w", err)
	}
	return nil
}

// MarkFailed marks the idempotency entry as FAILED and stores a note.
func (s *Store) MarkFailed(ctx context.Context, key, note string) error {
	err := s.settle(ctx, key, "SET #s = :st, note = :n, updated_at = :ua",
		map[string]types.AttributeValue{
			":st": &types.AttributeValueMemberS{Value: StatusFailed},
			":n":  &types.AttributeValueMemberS{Value: note},
		})
	if err != nil {
		return fmt.Errorf("update item (mark failed): %w", err)
	}
	return nil
}

// settle applies a status update to an existing entry.
func (s *Store) settle(ctx context.Context, key, expr string, values map[string]types.AttributeValue) error {
	values[":ua"] = &types.AttributeValueMemberS{Value: s.nowFunc().Format(time.RFC3339)}
	_, err := s.client.UpdateItem(ctx, &dyn.UpdateItemInput{
		TableName:                 &s.tableName,
		Key:                       s.key(key),
		UpdateExpression:          &expr,
		ConditionExpression:       awsString("attribute_exists(idempotency_key)"),
		ExpressionAttributeNames:  map[string]string{"#s": "status"},
		ExpressionAttributeValues: values,
		ReturnValues:              types.ReturnValueUpdatedNew,
	})
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) && apiErr.ErrorCode() == "ConditionalCheckFailedException" {
		return ErrEntryMissing
	}
	return err
}

func awsString(s string) *string { return &s }

func awsBool(b bool) *bool { return &b }
