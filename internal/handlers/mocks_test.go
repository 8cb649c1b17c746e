package handlers

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"sync"

	dyn "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/imrishuroy/go-order-intake/internal/processing"
)

// fakeDynamo keeps items per table keyed by idempotency_key or order_id.
type fakeDynamo struct {
	mu        sync.Mutex
	tables    map[string]map[string]map[string]types.AttributeValue
	updateErr error
}

func newFakeDynamo() *fakeDynamo {
	return &fakeDynamo{tables: map[string]map[string]map[string]types.AttributeValue{}}
}

func itemKey(item map[string]types.AttributeValue) (string, error) {
	for _, attr := range []string{"idempotency_key", "order_id"} {
		if v, ok := item[attr].(*types.AttributeValueMemberS); ok {
			return v.Value, nil
		}
	}
	return "", errors.New("no primary key")
}

func (f *fakeDynamo) table(name string) map[string]map[string]types.AttributeValue {
	if _, ok := f.tables[name]; !ok {
		f.tables[name] = map[string]map[string]types.AttributeValue{}
	}
	return f.tables[name]
}

func (f *fakeDynamo) PutItem(ctx context.Context, in *dyn.PutItemInput, optFns ...func(*dyn.Options)) (*dyn.PutItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	k, err := itemKey(in.Item)
	if err != nil {
		return nil, err
	}
	t := f.table(*in.TableName)
	if in.ConditionExpression != nil {
		if _, exists := t[k]; exists {
			return nil, &types.ConditionalCheckFailedException{}
		}
	}
	t[k] = in.Item
	return &dyn.PutItemOutput{}, nil
}

func (f *fakeDynamo) GetItem(ctx context.Context, in *dyn.GetItemInput, optFns ...func(*dyn.Options)) (*dyn.GetItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	k, err := itemKey(in.Key)
	if err != nil {
		return nil, err
	}
	return &dyn.GetItemOutput{Item: f.table(*in.TableName)[k]}, nil
}

// UpdateItem applies the value placeholders used by idempotency.Store.
func (f *fakeDynamo) UpdateItem(ctx context.Context, in *dyn.UpdateItemInput, optFns ...func(*dyn.Options)) (*dyn.UpdateItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.updateErr != nil {
		return nil, f.updateErr
	}
	k, err := itemKey(in.Key)
	if err != nil {
		return nil, err
	}
	item, ok := f.table(*in.TableName)[k]
	if !ok {
		return nil, errors.New("item not found")
	}
	set := map[string]string{
		":st": "status",
		":rb": "response_body",
		":rs": "response_status",
		":n":  "note",
		":ua": "updated_at",
	}
	for placeholder, attr := range set {
		if v, ok := in.ExpressionAttributeValues[placeholder]; ok {
			item[attr] = v
		}
	}
	return &dyn.UpdateItemOutput{Attributes: item}, nil
}

func (f *fakeDynamo) TransactWriteItems(ctx context.Context, in *dyn.TransactWriteItemsInput, optFns ...func(*dyn.Options)) (*dyn.TransactWriteItemsOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, it := range in.TransactItems {
		if p := it.Put; p != nil && p.ConditionExpression != nil {
			k, err := itemKey(p.Item)
			if err != nil {
				return nil, err
			}
			if blocksPut(p, f.table(*p.TableName)[k]) {
				return nil, &types.TransactionCanceledException{}
			}
		}
	}
	for _, it := range in.TransactItems {
		if p := it.Put; p != nil {
			k, err := itemKey(p.Item)
			if err != nil {
				return nil, err
			}
			f.table(*p.TableName)[k] = p.Item
		}
	}
	return &dyn.TransactWriteItemsOutput{}, nil
}

// blocksPut reports whether existing fails a transact Put condition. Only
// attribute_not_exists on the key, optionally OR expires_at <= :now, is modelled.
func blocksPut(p *types.Put, existing map[string]types.AttributeValue) bool {
	if existing == nil {
		return false
	}
	if !strings.Contains(*p.ConditionExpression, "expires_at <= :now") {
		return true
	}
	exp, ok := existing["expires_at"].(*types.AttributeValueMemberN)
	if !ok {
		return true
	}
	expires, _ := strconv.ParseInt(exp.Value, 10, 64)
	now, _ := strconv.ParseInt(p.ExpressionAttributeValues[":now"].(*types.AttributeValueMemberN).Value, 10, 64)
	return expires > now
}

func (f *fakeDynamo) Scan(ctx context.Context, in *dyn.ScanInput, optFns ...func(*dyn.Options)) (*dyn.ScanOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := &dyn.ScanOutput{}
	for _, item := range f.table(*in.TableName) {
		out.Items = append(out.Items, item)
	}
	return out, nil
}

type fakeSQS struct {
	mu   sync.Mutex
	sent []*sqs.SendMessageInput
	err  error
}

func (f *fakeSQS) SendMessage(ctx context.Context, in *sqs.SendMessageInput, optFns ...func(*sqs.Options)) (*sqs.SendMessageOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, in)
	if f.err != nil {
		return nil, f.err
	}
	return &sqs.SendMessageOutput{}, nil
}

// fakeProcessor returns a canned result and counts calls.
type fakeProcessor struct {
	mu     sync.Mutex
	calls  int
	result processing.Result
	err    error
}

func (f *fakeProcessor) Process(ctx context.Context, emailText string, withBundles bool) (processing.Result, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return f.result, f.err
}

func (f *fakeProcessor) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}
