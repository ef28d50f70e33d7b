package kv

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

	"github.com/imrishuroy/kitchen-orderflow/internal/aws"
)

const (
	attrKey       = "key"
	attrValue     = "value"
	attrMembers   = "members"
	attrExpiresAt = "expires_at"

	// DynamoDB caps BatchGetItem at 100 keys.
	batchGetLimit   = 100
	batchGetRetries = 5
)

// record is the item shape persisted in the key-value table.
type record struct {
	Key       string   `dynamodbav:"key"` // PK
	Value     *string  `dynamodbav:"value,omitempty"`
	Members   []string `dynamodbav:"members,omitempty"`
	ExpiresAt int64    `dynamodbav:"expires_at,omitempty"` // TTL epoch seconds
}

// Dynamo is a Store backed by a single DynamoDB table keyed by "key".
type Dynamo struct {
	client    aws.DynamoDBAPI
	tableName string
	nowFunc   func() time.Time
	backoff   time.Duration
}

// NewDynamo returns a Store over tableName.
func NewDynamo(client aws.DynamoDBAPI, tableName string) *Dynamo {
	return &Dynamo{
		client:    client,
		tableName: tableName,
		nowFunc:   time.Now,
		backoff:   50 * time.Millisecond,
	}
}

func keyAttr(key string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		attrKey: &types.AttributeValueMemberS{Value: key},
	}
}

func (d *Dynamo) expired(r record) bool {
	return r.ExpiresAt > 0 && r.ExpiresAt <= d.nowFunc().Unix()
}

func (d *Dynamo) getRecord(ctx context.Context, key string) (*record, error) {
	out, err := d.client.GetItem(ctx, &dyn.GetItemInput{
		TableName:      &d.tableName,
		Key:            keyAttr(key),
		ConsistentRead: awsBool(true),
	})
	if err != nil {
		return nil, fmt.Errorf("get item %s: %w", key, err)
	}
	if len(out.Item) == 0 {
		return nil, nil
	}
	var r record
	if err := attributevalue.UnmarshalMap(out.Item, &r); err != nil {
		return nil, fmt.Errorf("unmarshal item %s: %w", key, err)
	}
	if d.expired(r) {
		return nil, nil
	}
	return &r, nil
}

func (d *Dynamo) Get(ctx context.Context, key string) (string, bool, error) {
	r, err := d.getRecord(ctx, key)
	if err != nil {
		return "", false, err
	}
	if r == nil || r.Value == nil {
		return "", false, nil
	}
	return *r.Value, true, nil
}

func (d *Dynamo) GetMany(ctx context.Context, keys []string) (map[string]string, error) {
	out := make(map[string]string, len(keys))
	seen := make(map[string]struct{}, len(keys))
	unique := make([]string, 0, len(keys))
	for _, k := range keys {
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		unique = append(unique, k)
	}

	for start := 0; start < len(unique); start += batchGetLimit {
		end := start + batchGetLimit
		if end > len(unique) {
			end = len(unique)
		}
		chunk := make([]map[string]types.AttributeValue, 0, end-start)
		for _, k := range unique[start:end] {
			chunk = append(chunk, keyAttr(k))
		}
		request := map[string]types.KeysAndAttributes{
			d.tableName: {Keys: chunk, ConsistentRead: awsBool(true)},
		}
		for attempt := 0; len(request) > 0; attempt++ {
			if attempt > batchGetRetries {
				return nil, fmt.Errorf("batch get: unprocessed keys remain after %d retries", batchGetRetries)
			}
			if attempt > 0 {
				if err := sleep(ctx, d.backoff*time.Duration(attempt)); err != nil {
					return nil, err
				}
			}
			res, err := d.client.BatchGetItem(ctx, &dyn.BatchGetItemInput{RequestItems: request})
			if err != nil {
				return nil, fmt.Errorf("batch get: %w", err)
			}
			for _, item := range res.Responses[d.tableName] {
				var r record
				if err := attributevalue.UnmarshalMap(item, &r); err != nil {
					return nil, fmt.Errorf("unmarshal item: %w", err)
				}
				if r.Value != nil && !d.expired(r) {
					out[r.Key] = *r.Value
				}
			}
			request = res.UnprocessedKeys
		}
	}
	return out, nil
}

func (d *Dynamo) Set(ctx context.Context, key, value string) error {
	_, err := d.client.UpdateItem(ctx, &dyn.UpdateItemInput{
		TableName:                &d.tableName,
		Key:                      keyAttr(key),
		UpdateExpression:         awsString("SET #v = :v"),
		ExpressionAttributeNames: map[string]string{"#v": attrValue},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":v": &types.AttributeValueMemberS{Value: value},
		},
	})
	if err != nil {
		return fmt.Errorf("set %s: %w", key, err)
	}
	return nil
}

func (d *Dynamo) SetIfAbsent(ctx context.Context, key, value string, ttl time.Duration) (bool, error) {
	now := d.nowFunc()
	r := record{Key: key, Value: &value}
	if ttl > 0 {
		r.ExpiresAt = now.Add(ttl).Unix()
	}
	item, err := attributevalue.MarshalMap(r)
	if err != nil {
		return false, fmt.Errorf("marshal record: %w", err)
	}

	_, err = d.client.PutItem(ctx, &dyn.PutItemInput{
		TableName: &d.tableName,
		Item:      item,
		// TTL deletion is lazy, so an expired item counts as absent.
		ConditionExpression:      awsString("attribute_not_exists(#k) OR expires_at <= :now"),
		ExpressionAttributeNames: map[string]string{"#k": attrKey},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":now": &types.AttributeValueMemberN{Value: strconv.FormatInt(now.Unix(), 10)},
		},
	})
	if err != nil {
		if isConditionFailed(err) {
			return false, nil
		}
		return false, fmt.Errorf("put item %s: %w", key, err)
	}
	return true, nil
}

func (d *Dynamo) Delete(ctx context.Context, key string) error {
	_, err := d.client.DeleteItem(ctx, &dyn.DeleteItemInput{
		TableName: &d.tableName,
		Key:       keyAttr(key),
	})
	if err != nil {
		return fmt.Errorf("delete %s: %w", key, err)
	}
	return nil
}

// Append adds member to the list at key with a single UpdateItem, so two
// concurrent appends both land.
func (d *Dynamo) Append(ctx context.Context, key, member string) error {
	_, err := d.client.UpdateItem(ctx, &dyn.UpdateItemInput{
		TableName:                &d.tableName,
		Key:                      keyAttr(key),
		UpdateExpression:         awsString("SET #m = list_append(if_not_exists(#m, :empty), :m)"),
		ExpressionAttributeNames: map[string]string{"#m": attrMembers},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":empty": &types.AttributeValueMemberL{Value: []types.AttributeValue{}},
			":m": &types.AttributeValueMemberL{Value: []types.AttributeValue{
				&types.AttributeValueMemberS{Value: member},
			}},
		},
	})
	if err != nil {
		return fmt.Errorf("append %s: %w", key, err)
	}
	return nil
}

func (d *Dynamo) Members(ctx context.Context, key string) ([]string, error) {
	r, err := d.getRecord(ctx, key)
	if err != nil {
		return nil, err
	}
	if r == nil {
		return nil, nil
	}
	return r.Members, nil
}

func isConditionFailed(err error) bool {
	var ccf *types.ConditionalCheckFailedException
	if errors.As(err, &ccf) {
		return true
	}
	var apiErr smithy.APIError
	return errors.As(err, &apiErr) && apiErr.ErrorCode() == "ConditionalCheckFailedException"
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func awsString(s string) *string { return &s }
func awsBool(b bool) *bool       { return &b }
