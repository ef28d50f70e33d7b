package kv

import (
	"context"
	"errors"
	"strconv"
	"sync"

	dyn "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// mockDynamo is a small in-memory table that understands exactly the
// expressions Dynamo issues. It is not a general expression evaluator.
type mockDynamo struct {
	mu    sync.Mutex
	table map[string]map[string]types.AttributeValue

	// unprocessOnce makes the first BatchGetItem hand back every key as unprocessed.
	unprocessOnce bool
	batchCalls    int
	failUpdates   error
}

func newMockDynamo() *mockDynamo {
	return &mockDynamo{table: map[string]map[string]types.AttributeValue{}}
}

func pkOf(key map[string]types.AttributeValue) (string, error) {
	v, ok := key["key"].(*types.AttributeValueMemberS)
	if !ok {
		return "", errors.New("missing key attribute")
	}
	return v.Value, nil
}

func (m *mockDynamo) GetItem(ctx context.Context, params *dyn.GetItemInput, optFns ...func(*dyn.Options)) (*dyn.GetItemOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	pk, err := pkOf(params.Key)
	if err != nil {
		return nil, err
	}
	item, ok := m.table[pk]
	if !ok {
		return &dyn.GetItemOutput{}, nil
	}
	return &dyn.GetItemOutput{Item: item}, nil
}

func (m *mockDynamo) BatchGetItem(ctx context.Context, params *dyn.BatchGetItemInput, optFns ...func(*dyn.Options)) (*dyn.BatchGetItemOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.batchCalls++
	if m.unprocessOnce {
		m.unprocessOnce = false
		return &dyn.BatchGetItemOutput{UnprocessedKeys: params.RequestItems}, nil
	}
	out := &dyn.BatchGetItemOutput{Responses: map[string][]map[string]types.AttributeValue{}}
	for table, ka := range params.RequestItems {
		if len(ka.Keys) > 100 {
			return nil, errors.New("too many keys in batch")
		}
		for _, k := range ka.Keys {
			pk, err := pkOf(k)
			if err != nil {
				return nil, err
			}
			if item, ok := m.table[pk]; ok {
				out.Responses[table] = append(out.Responses[table], item)
			}
		}
	}
	return out, nil
}

func (m *mockDynamo) PutItem(ctx context.Context, params *dyn.PutItemInput, optFns ...func(*dyn.Options)) (*dyn.PutItemOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	pk, err := pkOf(params.Item)
	if err != nil {
		return nil, err
	}
	if params.ConditionExpression != nil && *params.ConditionExpression == "attribute_not_exists(#k) OR expires_at <= :now" {
		if existing, ok := m.table[pk]; ok {
			now, _ := strconv.ParseInt(params.ExpressionAttributeValues[":now"].(*types.AttributeValueMemberN).Value, 10, 64)
			exp, hasExp := existing["expires_at"].(*types.AttributeValueMemberN)
			if !hasExp {
				return nil, &types.ConditionalCheckFailedException{}
			}
			at, _ := strconv.ParseInt(exp.Value, 10, 64)
			if at > now {
				return nil, &types.ConditionalCheckFailedException{}
			}
		}
	}
	m.table[pk] = params.Item
	return &dyn.PutItemOutput{}, nil
}

func (m *mockDynamo) UpdateItem(ctx context.Context, params *dyn.UpdateItemInput, optFns ...func(*dyn.Options)) (*dyn.UpdateItemOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failUpdates != nil {
		return nil, m.failUpdates
	}
	pk, err := pkOf(params.Key)
	if err != nil {
		return nil, err
	}
	item, ok := m.table[pk]
	if !ok {
		item = map[string]types.AttributeValue{"key": &types.AttributeValueMemberS{Value: pk}}
	}
	switch *params.UpdateExpression {
	case "SET #v = :v":
		item["value"] = params.ExpressionAttributeValues[":v"]
	case "SET #m = list_append(if_not_exists(#m, :empty), :m)":
		var list []types.AttributeValue
		if cur, ok := item["members"].(*types.AttributeValueMemberL); ok {
			list = append(list, cur.Value...)
		}
		list = append(list, params.ExpressionAttributeValues[":m"].(*types.AttributeValueMemberL).Value...)
		item["members"] = &types.AttributeValueMemberL{Value: list}
	default:
		return nil, errors.New("unsupported update expression: " + *params.UpdateExpression)
	}
	m.table[pk] = item
	return &dyn.UpdateItemOutput{}, nil
}

func (m *mockDynamo) DeleteItem(ctx context.Context, params *dyn.DeleteItemInput, optFns ...func(*dyn.Options)) (*dyn.DeleteItemOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	pk, err := pkOf(params.Key)
	if err != nil {
		return nil, err
	}
	delete(m.table, pk)
	return &dyn.DeleteItemOutput{}, nil
}
