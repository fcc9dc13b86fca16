package sales

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"sync"

	dyn "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// mockDynamo is a small in-memory multi-table mock covering exactly the
// call shapes the sales Store issues. Intentionally minimal, not
// production-grade.
type mockDynamo struct {
	mu     sync.Mutex
	tables map[string]map[string]map[string]types.AttributeValue

	transactCalls int

	// when set, the next TransactWriteItems call is canceled with these
	// reasons without touching any table
	cancelNext []types.CancellationReason
}

func newMockDynamo(tableNames ...string) *mockDynamo {
	m := &mockDynamo{tables: map[string]map[string]map[string]types.AttributeValue{}}
	for _, name := range tableNames {
		m.tables[name] = map[string]map[string]types.AttributeValue{}
	}
	return m
}

// itemKey extracts the partition key value; tables here key on either
// sale_id or product_id.
func itemKey(attrs map[string]types.AttributeValue) (string, error) {
	for _, name := range []string{"sale_id", "product_id"} {
		if v, ok := attrs[name]; ok {
			return v.(*types.AttributeValueMemberS).Value, nil
		}
	}
	return "", errors.New("no known key attribute")
}

func (m *mockDynamo) PutItem(ctx context.Context, params *dyn.PutItemInput, optFns ...func(*dyn.Options)) (*dyn.PutItemOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	k, err := itemKey(params.Item)
	if err != nil {
		return nil, err
	}
	m.tables[*params.TableName][k] = params.Item
	return &dyn.PutItemOutput{}, nil
}

func (m *mockDynamo) GetItem(ctx context.Context, params *dyn.GetItemInput, optFns ...func(*dyn.Options)) (*dyn.GetItemOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	k, err := itemKey(params.Key)
	if err != nil {
		return nil, err
	}
	item, ok := m.tables[*params.TableName][k]
	if !ok {
		return &dyn.GetItemOutput{}, nil
	}
	return &dyn.GetItemOutput{Item: item}, nil
}

func (m *mockDynamo) UpdateItem(ctx context.Context, params *dyn.UpdateItemInput, optFns ...func(*dyn.Options)) (*dyn.UpdateItemOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	k, err := itemKey(params.Key)
	if err != nil {
		return nil, err
	}
	item, ok := m.tables[*params.TableName][k]
	if !ok {
		item = map[string]types.AttributeValue{}
		for kk, vv := range params.Key {
			item[kk] = vv
		}
		m.tables[*params.TableName][k] = item
	}
	// conditional delivery-status transition
	if params.ConditionExpression != nil && *params.ConditionExpression == "delivery_status = :expected" {
		expected := params.ExpressionAttributeValues[":expected"].(*types.AttributeValueMemberS).Value
		cur, ok := item["delivery_status"].(*types.AttributeValueMemberS)
		if !ok || cur.Value != expected {
			return nil, &types.ConditionalCheckFailedException{}
		}
		item["delivery_status"] = params.ExpressionAttributeValues[":new"]
		item["updated_at"] = params.ExpressionAttributeValues[":ua"]
		return &dyn.UpdateItemOutput{Attributes: item}, nil
	}
	// counter increment
	if strings.Contains(*params.UpdateExpression, "sales_count") {
		applyCounterIncrement(item, params.ExpressionAttributeValues)
		return &dyn.UpdateItemOutput{Attributes: item}, nil
	}
	return nil, errors.New("unsupported update expression: " + *params.UpdateExpression)
}

func (m *mockDynamo) Query(ctx context.Context, params *dyn.QueryInput, optFns ...func(*dyn.Options)) (*dyn.QueryOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	// only the session GSI query is supported
	sid := params.ExpressionAttributeValues[":sid"].(*types.AttributeValueMemberS).Value
	out := &dyn.QueryOutput{}
	for _, item := range m.tables[*params.TableName] {
		if v, ok := item["session_id"].(*types.AttributeValueMemberS); ok && v.Value == sid {
			out.Items = append(out.Items, item)
		}
	}
	return out, nil
}

func (m *mockDynamo) Scan(ctx context.Context, params *dyn.ScanInput, optFns ...func(*dyn.Options)) (*dyn.ScanOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := &dyn.ScanOutput{}
	for _, item := range m.tables[*params.TableName] {
		out.Items = append(out.Items, item)
	}
	return out, nil
}

func (m *mockDynamo) TransactWriteItems(ctx context.Context, params *dyn.TransactWriteItemsInput, optFns ...func(*dyn.Options)) (*dyn.TransactWriteItemsOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.transactCalls++

	if m.cancelNext != nil {
		reasons := m.cancelNext
		m.cancelNext = nil
		return nil, &types.TransactionCanceledException{CancellationReasons: reasons}
	}

	// first pass: check conditions, cancel the whole transaction on conflict.
	// Like the real service, every transact item gets a cancellation reason
	// and the failing one carries ConditionalCheckFailed.
	for i, it := range params.TransactItems {
		if p := it.Put; p != nil {
			if p.ConditionExpression != nil && *p.ConditionExpression == "attribute_not_exists(sale_id)" {
				k, err := itemKey(p.Item)
				if err != nil {
					return nil, err
				}
				if _, ok := m.tables[*p.TableName][k]; ok {
					return nil, &types.TransactionCanceledException{
						CancellationReasons: cancellationReasons(len(params.TransactItems), i, "ConditionalCheckFailed"),
					}
				}
			}
		}
	}

	// second pass: apply all writes
	for _, it := range params.TransactItems {
		if p := it.Put; p != nil {
			k, err := itemKey(p.Item)
			if err != nil {
				return nil, err
			}
			m.tables[*p.TableName][k] = p.Item
		}
		if u := it.Update; u != nil {
			k, err := itemKey(u.Key)
			if err != nil {
				return nil, err
			}
			item, ok := m.tables[*u.TableName][k]
			if !ok {
				item = map[string]types.AttributeValue{}
				for kk, vv := range u.Key {
					item[kk] = vv
				}
				m.tables[*u.TableName][k] = item
			}
			applyCounterIncrement(item, u.ExpressionAttributeValues)
		}
	}
	return &dyn.TransactWriteItemsOutput{}, nil
}

// cancellationReasons builds a reason list of length n with code "None"
// everywhere except failedIdx, which gets failedCode.
func cancellationReasons(n, failedIdx int, failedCode string) []types.CancellationReason {
	none := "None"
	reasons := make([]types.CancellationReason, n)
	for i := range reasons {
		reasons[i] = types.CancellationReason{Code: &none}
	}
	reasons[failedIdx] = types.CancellationReason{Code: &failedCode}
	return reasons
}

func applyCounterIncrement(item map[string]types.AttributeValue, vals map[string]types.AttributeValue) {
	cur := int64(0)
	if n, ok := item["sales_count"].(*types.AttributeValueMemberN); ok {
		cur, _ = strconv.ParseInt(n.Value, 10, 64)
	}
	inc := int64(1)
	if n, ok := vals[":inc"].(*types.AttributeValueMemberN); ok {
		inc, _ = strconv.ParseInt(n.Value, 10, 64)
	}
	item["sales_count"] = &types.AttributeValueMemberN{Value: strconv.FormatInt(cur+inc, 10)}
	if ua, ok := vals[":ua"]; ok {
		item["updated_at"] = ua
	}
}

func salesCountOf(item map[string]types.AttributeValue) int64 {
	n, ok := item["sales_count"].(*types.AttributeValueMemberN)
	if !ok {
		return 0
	}
	v, _ := strconv.ParseInt(n.Value, 10, 64)
	return v
}
