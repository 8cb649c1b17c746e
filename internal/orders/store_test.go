package orders

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	dyn "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// mockDynamo is a simple mock that supports TransactWriteItems, PutItem, GetItem, UpdateItem.
// It stores items per table in a nested map: table -> pkValue -> item map.
type mockDynamo struct {
	mu     sync.Mutex
	tables map[string]map[string]map[string]types.AttributeValue
}

func newMockDynamo() *mockDynamo {
	return &mockDynamo{
		tables: map[string]map[string]map[string]types.AttributeValue{},
	}
}

func (m *mockDynamo) ensureTable(tbl string) {
	if _, ok := m.tables[tbl]; !ok {
		m.tables[tbl] = map[string]map[string]types.AttributeValue{}
	}
}

func primaryKey(item map[string]types.AttributeValue) (string, error) {
	if v, ok := item["order_id"]; ok {
		return v.(*types.AttributeValueMemberS).Value, nil
	}
	if v, ok := item["idempotency_key"]; ok {
		return v.(*types.AttributeValueMemberS).Value, nil
	}
	return "", errors.New("no primary key")
}

func (m *mockDynamo) PutItem(ctx context.Context, params *dyn.PutItemInput, optFns ...func(*dyn.Options)) (*dyn.PutItemOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	table := *params.TableName
	m.ensureTable(table)
	pk, err := primaryKey(params.Item)
	if err != nil {
		return nil, err
	}
	if params.ConditionExpression != nil {
		if _, exists := m.tables[table][pk]; exists {
			return nil, &types.ConditionalCheckFailedException{}
		}
	}
	m.tables[table][pk] = params.Item
	return &dyn.PutItemOutput{}, nil
}

func (m *mockDynamo) GetItem(ctx context.Context, params *dyn.GetItemInput, optFns ...func(*dyn.Options)) (*dyn.GetItemOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	table := *params.TableName
	m.ensureTable(table)
	pk, err := primaryKey(params.Key)
	if err != nil {
		return nil, err
	}
	item, ok := m.tables[table][pk]
	if !ok {
		return &dyn.GetItemOutput{}, nil
	}
	return &dyn.GetItemOutput{Item: item}, nil
}

func (m *mockDynamo) UpdateItem(ctx context.Context, params *dyn.UpdateItemInput, optFns ...func(*dyn.Options)) (*dyn.UpdateItemOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	table := *params.TableName
	m.ensureTable(table)
	pk, err := primaryKey(params.Key)
	if err != nil {
		return nil, err
	}
	item, exists := m.tables[table][pk]
	if !exists {
		return nil, errors.New("item not found")
	}
	// status transitions guarded by "#s = :expected"
	if params.ConditionExpression != nil && *params.ConditionExpression == "#s = :expected" {
		curr, ok := item["status"].(*types.AttributeValueMemberS)
		expected := params.ExpressionAttributeValues[":expected"].(*types.AttributeValueMemberS).Value
		if !ok || curr.Value != expected {
			return nil, &types.ConditionalCheckFailedException{}
		}
	}
	if v, ok := params.ExpressionAttributeValues[":ua"]; ok {
		item["updated_at"] = v
	}
	if v, ok := params.ExpressionAttributeValues[":new"]; ok {
		item["status"] = v
	}
	if v, ok := params.ExpressionAttributeValues[":br"]; ok {
		item["bundle_report"] = v
	}
	if _, ok := params.ExpressionAttributeValues[":inc"]; ok {
		item["attempts"] = &types.AttributeValueMemberN{Value: "1"}
	}
	m.tables[table][pk] = item
	return &dyn.UpdateItemOutput{Attributes: item}, nil
}

func (m *mockDynamo) TransactWriteItems(ctx context.Context, params *dyn.TransactWriteItemsInput, optFns ...func(*dyn.Options)) (*dyn.TransactWriteItemsOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	// First pass: verify condition expressions
	for _, it := range params.TransactItems {
		if p := it.Put; p != nil && p.ConditionExpression != nil {
			table := *p.TableName
			m.ensureTable(table)
			pk, err := primaryKey(p.Item)
			if err != nil {
				return nil, err
			}
			if blocksPut(p, m.tables[table][pk]) {
				return nil, &types.TransactionCanceledException{}
			}
		}
	}
	// Second pass: apply all puts
	for _, it := range params.TransactItems {
		if p := it.Put; p != nil {
			table := *p.TableName
			m.ensureTable(table)
			pk, err := primaryKey(p.Item)
			if err != nil {
				return nil, err
			}
			m.tables[table][pk] = p.Item
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

func (m *mockDynamo) Scan(ctx context.Context, params *dyn.ScanInput, optFns ...func(*dyn.Options)) (*dyn.ScanOutput, error) {
	return &dyn.ScanOutput{}, nil
}

func sampleOrder(t *testing.T) Order {
	t.Helper()
	date, err := ParseDate("2025-06-20")
	if err != nil {
		t.Fatalf("parse date: %v", err)
	}
	return Order{
		Customer:     "John Smith",
		Address:      "123 Main Street",
		DeliveryDate: date,
		Items: []OrderLineItem{
			{SKU: "MD-001", Quantity: 2, Valid: true, Notes: "Order item is valid"},
			{SKU: "BS-003", Quantity: 3, Valid: false, Notes: "Requested quantity 3 exceeds available stock of 2"},
		},
	}
}

func TestCreateWithIdempotencyTransaction_Success(t *testing.T) {
	mock := newMockDynamo()
	store := NewStore(mock, "orders")

	now := time.Now()
	idemp := map[string]interface{}{
		"idempotency_key": "key-1",
		"status":          "IN_PROGRESS",
		"created_at":      now.Format(time.RFC3339),
	}
	rec := NewRecord("order-1", sampleOrder(t))

	err := store.CreateWithIdempotencyTransaction(context.Background(), "idempotency", idemp, rec, 48*time.Hour)
	if err != nil {
		t.Fatalf("expected success, got error: %v", err)
	}

	idempItem, ok := mock.tables["idempotency"]["key-1"]
	if !ok {
		t.Fatalf("idempotency item not stored")
	}
	if _, ok := idempItem["expires_at"]; !ok {
		t.Fatalf("expires_at should be added when missing")
	}

	orderItem, ok := mock.tables["orders"]["order-1"]
	if !ok {
		t.Fatalf("order item not stored")
	}
	var got Record
	if err := attributevalue.UnmarshalMap(orderItem, &got); err != nil {
		t.Fatalf("unmarshal order: %v", err)
	}
	if got.OrderID != "order-1" || got.Status != StatusPending {
		t.Fatalf("unexpected record: %+v", got)
	}
	if got.InvalidItems != 1 || len(got.Items) != 2 {
		t.Fatalf("items not persisted: %+v", got)
	}
	if got.CreatedAt.IsZero() {
		t.Fatalf("created_at should be set")
	}
}

func TestCreateWithIdempotencyTransaction_ExistingIdempotency_Fails(t *testing.T) {
	mock := newMockDynamo()
	mock.ensureTable("idempotency")
	mock.tables["idempotency"]["key-2"] = map[string]types.AttributeValue{
		"idempotency_key": &types.AttributeValueMemberS{Value: "key-2"},
		"status":          &types.AttributeValueMemberS{Value: "DONE"},
	}

	store := NewStore(mock, "orders")
	idemp := map[string]interface{}{"idempotency_key": "key-2", "status": "IN_PROGRESS"}

	err := store.CreateWithIdempotencyTransaction(context.Background(), "idempotency", idemp, NewRecord("order-2", sampleOrder(t)), time.Hour)
	if !errors.Is(err, ErrDuplicateRequest) {
		t.Fatalf("expected ErrDuplicateRequest, got %v", err)
	}
	if _, ok := mock.tables["orders"]["order-2"]; ok {
		t.Fatalf("order must not be written when the transaction is canceled")
	}
}

func TestPutAndGet_RoundTrip(t *testing.T) {
	mock := newMockDynamo()
	store := NewStore(mock, "orders")
	ctx := context.Background()

	if err := store.Put(ctx, NewRecord("order-3", sampleOrder(t))); err != nil {
		t.Fatalf("put: %v", err)
	}
	if err := store.Put(ctx, NewRecord("order-3", sampleOrder(t))); err == nil {
		t.Fatalf("second put with same id should fail")
	}

	rec, err := store.Get(ctx, "order-3")
	if err != nil || rec == nil {
		t.Fatalf("get: rec=%v err=%v", rec, err)
	}
	order, err := rec.Order()
	if err != nil {
		t.Fatalf("rebuild order: %v", err)
	}
	if order.DeliveryDate.String() != "2025-06-20" || order.Items[1].SKU != "BS-003" || order.Items[1].Valid {
		t.Fatalf("unexpected rebuilt order: %+v", order)
	}

	missing, err := store.Get(ctx, "nope")
	if err != nil || missing != nil {
		t.Fatalf("expected (nil, nil) for missing order, got %v %v", missing, err)
	}
}

func TestUpdateStatus_Condition_SuccessAndFail(t *testing.T) {
	mock := newMockDynamo()
	mock.ensureTable("orders")
	item, _ := attributevalue.MarshalMap(Record{OrderID: "order-10", Status: StatusPending, DeliveryDate: "2025-06-20"})
	mock.tables["orders"]["order-10"] = item

	store := NewStore(mock, "orders")

	err := store.UpdateStatus(context.Background(), "order-10", StatusPending, StatusProcessing)
	if err != nil {
		t.Fatalf("expected success, got %v", err)
	}

	err = store.UpdateStatus(context.Background(), "order-10", StatusPending, StatusCompleted)
	if !errors.Is(err, ErrStatusMismatch) {
		t.Fatalf("expected ErrStatusMismatch, got %v", err)
	}
}

func TestSaveBundleReport(t *testing.T) {
	mock := newMockDynamo()
	store := NewStore(mock, "orders")
	ctx := context.Background()
	if err := store.Put(ctx, NewRecord("order-11", sampleOrder(t))); err != nil {
		t.Fatalf("put: %v", err)
	}

	if err := store.SaveBundleReport(ctx, "order-11", `{"summary":{}}`); err != nil {
		t.Fatalf("save bundle report: %v", err)
	}
	rec, _ := store.Get(ctx, "order-11")
	if rec.BundleReport != `{"summary":{}}` {
		t.Fatalf("bundle report not stored, got %q", rec.BundleReport)
	}
}

func TestCreateWithIdempotencyTransaction_ExpiredEntryIsReplaced(t *testing.T) {
	mock := newMockDynamo()
	store := NewStore(mock, "orders")
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	store.nowFunc = func() time.Time { return now }

	// TTL has passed but DynamoDB has not swept the item yet
	mock.ensureTable("idempotency")
	mock.tables["idempotency"]["key-3"] = map[string]types.AttributeValue{
		"idempotency_key": &types.AttributeValueMemberS{Value: "key-3"},
		"status":          &types.AttributeValueMemberS{Value: "DONE"},
		"expires_at":      &types.AttributeValueMemberN{Value: strconv.FormatInt(now.Add(-time.Hour).Unix(), 10)},
	}

	idemp := map[string]interface{}{"idempotency_key": "key-3", "status": "IN_PROGRESS"}
	err := store.CreateWithIdempotencyTransaction(context.Background(), "idempotency", idemp, NewRecord("order-4", sampleOrder(t)), time.Hour)
	if err != nil {
		t.Fatalf("expected expired entry to be replaced, got %v", err)
	}
	if _, ok := mock.tables["orders"]["order-4"]; !ok {
		t.Fatalf("order not stored")
	}
	st := mock.tables["idempotency"]["key-3"]["status"].(*types.AttributeValueMemberS)
	if st.Value != "IN_PROGRESS" {
		t.Fatalf("idempotency entry not replaced, status=%s", st.Value)
	}

	// a live entry still blocks the write
	mock.tables["idempotency"]["key-4"] = map[string]types.AttributeValue{
		"idempotency_key": &types.AttributeValueMemberS{Value: "key-4"},
		"status":          &types.AttributeValueMemberS{Value: "DONE"},
		"expires_at":      &types.AttributeValueMemberN{Value: strconv.FormatInt(now.Add(time.Hour).Unix(), 10)},
	}
	idemp = map[string]interface{}{"idempotency_key": "key-4", "status": "IN_PROGRESS"}
	err = store.CreateWithIdempotencyTransaction(context.Background(), "idempotency", idemp, NewRecord("order-5", sampleOrder(t)), time.Hour)
	if !errors.Is(err, ErrDuplicateRequest) {
		t.Fatalf("expected ErrDuplicateRequest, got %v", err)
	}
}
