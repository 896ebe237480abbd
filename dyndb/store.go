// dyndb/store.go
package dyndb

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/raywall/fast-data-interface/envloader"
)

type dynamoStore struct {
	client DynamoDBClient
	cfg    TableConfig
}

// New cria um store reutilizável
func New(client DynamoDBClient, cfg TableConfig) TableStore {
	if cfg.TableName == "" {
		_ = envloader.Load(&cfg)
	}
	cfg = cfg.withDefaults()

	return &dynamoStore{
		client: client,
		cfg:    cfg,
	}
}

func (c TableConfig) withDefaults() TableConfig {
	if c.PartitionKey == "" {
		c.PartitionKey = "PartitionKey"
	}
	if c.RowKey == "" {
		c.RowKey = "RowKey"
	}
	return c
}

func (s *dynamoStore) Name() string {
	return s.cfg.TableName
}

func (s *dynamoStore) KeySchema() (string, string) {
	return s.cfg.PartitionKey, s.cfg.RowKey
}

func (s *dynamoStore) key(partitionKey, rowKey string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		s.cfg.PartitionKey: attr(partitionKey),
		s.cfg.RowKey:       attr(rowKey),
	}
}

// Get item por chave primária
func (s *dynamoStore) Get(ctx context.Context, partitionKey, rowKey string) (*Entity, error) {
	out, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(s.cfg.TableName),
		Key:            s.key(partitionKey, rowKey),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, fmt.Errorf("dynamostore: get failed: %w", err)
	}
	if out.Item == nil {
		return nil, ErrNotFound
	}

	e := s.cfg.toEntity(out.Item)
	return &e, nil
}

// Upsert grava a entidade inteira
func (s *dynamoStore) Upsert(ctx context.Context, e Entity) error {
	_, err := s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(s.cfg.TableName),
		Item:      s.cfg.toItem(e),
	})
	if err != nil {
		return fmt.Errorf("dynamostore: put failed: %w", err)
	}
	return nil
}

// Merge aplica SET nas propriedades informadas, exigindo que o item exista
// (equivalente a um update com ETag "*").
func (s *dynamoStore) Merge(ctx context.Context, e Entity) error {
	if len(e.Properties) == 0 {
		_, err := s.Get(ctx, e.PartitionKey, e.RowKey)
		return err
	}

	names := map[string]string{"#pk": s.cfg.PartitionKey}
	values := make(map[string]types.AttributeValue, len(e.Properties))
	sets := make([]string, 0, len(e.Properties))

	// ordem estável para que a expressão seja determinística
	fields := make([]string, 0, len(e.Properties))
	for name := range e.Properties {
		fields = append(fields, name)
	}
	sort.Strings(fields)

	for i, name := range fields {
		n, v := "#f"+strconv.Itoa(i), ":v"+strconv.Itoa(i)
		names[n] = name
		values[v] = e.Properties[name]
		sets = append(sets, n+" = "+v)
	}

	_, err := s.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(s.cfg.TableName),
		Key:                       s.key(e.PartitionKey, e.RowKey),
		UpdateExpression:          aws.String("SET " + strings.Join(sets, ", ")),
		ConditionExpression:       aws.String("attribute_exists (#pk)"),
		ExpressionAttributeNames:  names,
		ExpressionAttributeValues: values,
	})
	if err != nil {
		var ccf *types.ConditionalCheckFailedException
		if errors.As(err, &ccf) {
			return ErrNotFound
		}
		return fmt.Errorf("dynamostore: update failed: %w", err)
	}
	return nil
}

// Delete item
func (s *dynamoStore) Delete(ctx context.Context, partitionKey, rowKey string) error {
	_, err := s.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(s.cfg.TableName),
		Key:       s.key(partitionKey, rowKey),
	})
	if err != nil {
		return fmt.Errorf("dynamostore: delete failed: %w", err)
	}
	return nil
}

// toItem junta chaves e propriedades num item do DynamoDB.
func (c TableConfig) toItem(e Entity) map[string]types.AttributeValue {
	item := make(map[string]types.AttributeValue, len(e.Properties)+2)
	for k, v := range e.Properties {
		item[k] = v
	}
	item[c.PartitionKey] = attr(e.PartitionKey)
	item[c.RowKey] = attr(e.RowKey)
	return item
}

// toEntity separa as chaves das propriedades.
func (c TableConfig) toEntity(item map[string]types.AttributeValue) Entity {
	e := Entity{Properties: make(map[string]types.AttributeValue, len(item))}
	for k, v := range item {
		switch k {
		case c.PartitionKey:
			e.PartitionKey = stringOf(v)
		case c.RowKey:
			e.RowKey = stringOf(v)
		default:
			e.Properties[k] = v
		}
	}
	return e
}

func stringOf(v types.AttributeValue) string {
	switch tv := v.(type) {
	case *types.AttributeValueMemberS:
		return tv.Value
	case *types.AttributeValueMemberN:
		return tv.Value
	}
	return ""
}

// attr helper
func attr(v string) types.AttributeValue {
	return &types.AttributeValueMemberS{Value: v}
}
