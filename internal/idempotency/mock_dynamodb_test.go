package idempotency

import (
	"context"
	"errors"
	"sync"

	dyn "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// entryTable is an in-memory idempotency table. Only the calls Store makes are supported.
type entryTable struct {
	mu      sync.Mutex
	items   map[string]map[string]types.AttributeValue
	updates []*dyn.UpdateItemInput
	getErr  error
}

func newEntryTable() *entryTable {
	return &entryTable{items: map[string]map[string]types.AttributeValue{}}
}

func keyOf(m map[string]types.AttributeValue) string {
	if v, ok := m["idempotency_key"].(*types.AttributeValueMemberS); ok {
		return v.Value
	}
	return ""
}

func (t *entryTable) PutItem(ctx context.Context, in *dyn.PutItemInput, optFns ...func(*dyn.Options)) (*dyn.PutItemOutput, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.items[keyOf(in.Item)] = in.Item
	return &dyn.PutItemOutput{}, nil
}

func (t *entryTable) GetItem(ctx context.Context, in *dyn.GetItemInput, optFns ...func(*dyn.Options)) (*dyn.GetItemOutput, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.getErr != nil {
		return nil, t.getErr
	}
	return &dyn.GetItemOutput{Item: t.items[keyOf(in.Key)]}, nil
}

// UpdateItem honours attribute_exists and copies :st, :rb, :rs, :n, :ua into the item.
func (t *entryTable) UpdateItem(ctx context.Context, in *dyn.UpdateItemInput, optFns ...func(*dyn.Options)) (*dyn.UpdateItemOutput, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.updates = append(t.updates, in)
	item, ok := t.items[keyOf(in.Key)]
	if !ok {
		return nil, &types.ConditionalCheckFailedException{}
	}
	attrs := map[string]string{":st": "status", ":rb": "response_body", ":rs": "response_status", ":n": "note", ":ua": "updated_at"}
	for placeholder, attr := range attrs {
		if v, ok := in.ExpressionAttributeValues[placeholder]; ok {
			item[attr] = v
		}
	}
	return &dyn.UpdateItemOutput{Attributes: item}, nil
}

func (t *entryTable) TransactWriteItems(ctx context.Context, in *dyn.TransactWriteItemsInput, optFns ...func(*dyn.Options)) (*dyn.TransactWriteItemsOutput, error) {
	return nil, errors.New("transactions are written by orders.Store")
}

func (t *entryTable) Scan(ctx context.Context, in *dyn.ScanInput, optFns ...func(*dyn.Options)) (*dyn.ScanOutput, error) {
	return nil, errors.New("scan not supported")
}
