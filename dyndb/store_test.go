// dyndb/store_test.go
package dyndb_test

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/raywall/fast-data-interface/dyndb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func s(v string) types.AttributeValue { return &types.AttributeValueMemberS{Value: v} }

func TestGet_Success(t *testing.T) {
	t.Parallel()

	mockClient := &MockDynamoClient{}
	store := createTestStore(mockClient)

	mockClient.On("GetItem", mock.Anything, &dynamodb.GetItemInput{
		TableName:      aws.String("test-table"),
		Key:            map[string]types.AttributeValue{"pk": s("tenant"), "rk": s("123")},
		ConsistentRead: aws.Bool(true),
	}).Return(&dynamodb.GetItemOutput{Item: map[string]types.AttributeValue{
		"pk":   s("tenant"),
		"rk":   s("123"),
		"name": s("John"),
	}}, nil)

	e, err := store.Get(context.Background(), "tenant", "123")

	require.NoError(t, err)
	require.NotNil(t, e)
	assert.Equal(t, "tenant", e.PartitionKey)
	assert.Equal(t, "123", e.RowKey)
	assert.Equal(t, map[string]types.AttributeValue{"name": s("John")}, e.Properties)
	mockClient.AssertExpectations(t)
}

func TestGet_NotFound(t *testing.T) {
	t.Parallel()

	mockClient := &MockDynamoClient{}
	store := createTestStore(mockClient)

	mockClient.On("GetItem", mock.Anything, mock.Anything).
		Return(&dynamodb.GetItemOutput{Item: nil}, nil)

	e, err := store.Get(context.Background(), "tenant", "missing")

	assert.Nil(t, e)
	assert.ErrorIs(t, err, dyndb.ErrNotFound)
}

func TestGet_ClientError(t *testing.T) {
	t.Parallel()

	mockClient := &MockDynamoClient{}
	store := createTestStore(mockClient)

	mockClient.On("GetItem", mock.Anything, mock.Anything).
		Return(nil, errors.New("throttled"))

	_, err := store.Get(context.Background(), "tenant", "1")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "get failed")
	assert.NotErrorIs(t, err, dyndb.ErrNotFound)
}

func TestUpsert_WritesKeysAndProperties(t *testing.T) {
	t.Parallel()

	mockClient := &MockDynamoClient{}
	store := createTestStore(mockClient)

	mockClient.On("PutItem", mock.Anything, &dynamodb.PutItemInput{
		TableName: aws.String("test-table"),
		Item: map[string]types.AttributeValue{
			"pk":   s("tenant"),
			"rk":   s("1"),
			"name": s("Ana"),
		},
	}).Return(&dynamodb.PutItemOutput{}, nil)

	err := store.Upsert(context.Background(), dyndb.Entity{
		PartitionKey: "tenant",
		RowKey:       "1",
		Properties:   map[string]types.AttributeValue{"name": s("Ana")},
	})

	require.NoError(t, err)
	mockClient.AssertExpectations(t)
}

func TestMerge_BuildsConditionalUpdate(t *testing.T) {
	t.Parallel()

	mockClient := &MockDynamoClient{}
	store := createTestStore(mockClient)

	mockClient.On("UpdateItem", mock.Anything, &dynamodb.UpdateItemInput{
		TableName:           aws.String("test-table"),
		Key:                 map[string]types.AttributeValue{"pk": s("tenant"), "rk": s("1")},
		UpdateExpression:    aws.String("SET #f0 = :v0, #f1 = :v1"),
		ConditionExpression: aws.String("attribute_exists (#pk)"),
		ExpressionAttributeNames: map[string]string{
			"#pk": "pk",
			"#f0": "age",
			"#f1": "name",
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":v0": &types.AttributeValueMemberN{Value: "30"},
			":v1": s("Ana"),
		},
	}).Return(&dynamodb.UpdateItemOutput{}, nil)

	err := store.Merge(context.Background(), dyndb.Entity{
		PartitionKey: "tenant",
		RowKey:       "1",
		Properties: map[string]types.AttributeValue{
			"name": s("Ana"),
			"age":  &types.AttributeValueMemberN{Value: "30"},
		},
	})

	require.NoError(t, err)
	mockClient.AssertExpectations(t)
}

func TestMerge_MissingItemReturnsNotFound(t *testing.T) {
	t.Parallel()

	mockClient := &MockDynamoClient{}
	store := createTestStore(mockClient)

	mockClient.On("UpdateItem", mock.Anything, mock.Anything).
		Return(nil, &types.ConditionalCheckFailedException{Message: aws.String("The conditional request failed")})

	err := store.Merge(context.Background(), dyndb.Entity{
		PartitionKey: "tenant",
		RowKey:       "ghost",
		Properties:   map[string]types.AttributeValue{"name": s("x")},
	})

	assert.ErrorIs(t, err, dyndb.ErrNotFound)
}

func TestMerge_NoPropertiesChecksExistence(t *testing.T) {
	t.Parallel()

	mockClient := &MockDynamoClient{}
	store := createTestStore(mockClient)

	mockClient.On("GetItem", mock.Anything, mock.Anything).
		Return(&dynamodb.GetItemOutput{}, nil)

	err := store.Merge(context.Background(), dyndb.Entity{PartitionKey: "tenant", RowKey: "ghost"})

	assert.ErrorIs(t, err, dyndb.ErrNotFound)
	mockClient.AssertNotCalled(t, "UpdateItem", mock.Anything, mock.Anything)
}

func TestDelete_Success(t *testing.T) {
	t.Parallel()

	mockClient := &MockDynamoClient{}
	store := createTestStore(mockClient)

	mockClient.On("DeleteItem", mock.Anything, &dynamodb.DeleteItemInput{
		TableName: aws.String("test-table"),
		Key:       map[string]types.AttributeValue{"pk": s("tenant"), "rk": s("1")},
	}).Return(&dynamodb.DeleteItemOutput{}, nil)

	require.NoError(t, store.Delete(context.Background(), "tenant", "1"))
	mockClient.AssertExpectations(t)
}

func TestQuery_ScanFollowsPages(t *testing.T) {
	t.Parallel()

	mockClient := &MockDynamoClient{}
	store := createTestStore(mockClient)

	lastKey := map[string]types.AttributeValue{"pk": s("t"), "rk": s("1")}

	mockClient.On("Scan", mock.Anything, &dynamodb.ScanInput{
		TableName: aws.String("test-table"),
	}).Return(&dynamodb.ScanOutput{
		Items:            []map[string]types.AttributeValue{{"pk": s("t"), "rk": s("1"), "name": s("a")}},
		LastEvaluatedKey: lastKey,
	}, nil).Once()

	mockClient.On("Scan", mock.Anything, &dynamodb.ScanInput{
		TableName:         aws.String("test-table"),
		ExclusiveStartKey: lastKey,
	}).Return(&dynamodb.ScanOutput{
		Items: []map[string]types.AttributeValue{{"pk": s("t"), "rk": s("2"), "name": s("b")}},
	}, nil).Once()

	result, err := store.Query().Exec(context.Background())

	require.NoError(t, err)
	require.Len(t, result, 2)
	assert.Equal(t, "1", result[0].RowKey)
	assert.Equal(t, "2", result[1].RowKey)
	mockClient.AssertExpectations(t)
}

func TestQuery_FilterIsRenderedIntoScan(t *testing.T) {
	t.Parallel()

	mockClient := &MockDynamoClient{}
	store := createTestStore(mockClient)

	mockClient.On("Scan", mock.Anything, mock.MatchedBy(func(in *dynamodb.ScanInput) bool {
		return in.FilterExpression != nil &&
			*in.FilterExpression == "#0 = :0" &&
			in.ExpressionAttributeNames["#0"] == "status"
	})).Return(&dynamodb.ScanOutput{}, nil)

	_, err := store.Query().
		Filter(expression.Equal(expression.Name("status"), expression.Value("active"))).
		Exec(context.Background())

	require.NoError(t, err)
	mockClient.AssertExpectations(t)
}

func TestQuery_PartitionUsesKeyCondition(t *testing.T) {
	t.Parallel()

	mockClient := &MockDynamoClient{}
	store := createTestStore(mockClient)

	mockClient.On("Query", mock.Anything, mock.MatchedBy(func(in *dynamodb.QueryInput) bool {
		return in.KeyConditionExpression != nil && in.Limit != nil && *in.Limit == 50
	})).Return(&dynamodb.QueryOutput{
		Items: []map[string]types.AttributeValue{{"pk": s("tenant"), "rk": s("9")}},
	}, nil)

	result, err := store.Query().
		With(dyndb.WithPartition("tenant"), dyndb.WithPageSize(50)).
		Exec(context.Background())

	require.NoError(t, err)
	require.Len(t, result, 1)
	assert.Equal(t, "tenant", result[0].PartitionKey)
	mockClient.AssertNotCalled(t, "Scan", mock.Anything, mock.Anything)
}

func TestQuery_PartitionWithKeyFilterFallsBackToScan(t *testing.T) {
	t.Parallel()

	mockClient := &MockDynamoClient{}
	store := createTestStore(mockClient)

	var captured *dynamodb.ScanInput
	mockClient.On("Scan", mock.Anything, mock.AnythingOfType("*dynamodb.ScanInput")).
		Run(func(args mock.Arguments) { captured = args.Get(1).(*dynamodb.ScanInput) }).
		Return(&dynamodb.ScanOutput{
			Items: []map[string]types.AttributeValue{{"pk": s("tenant"), "rk": s("1")}},
		}, nil)

	byID := expression.Or(
		expression.Equal(expression.NameNoDotSplit("rk"), expression.Value("1")),
		expression.Equal(expression.NameNoDotSplit("rk"), expression.Value("2")),
	)
	result, err := store.Query().Partition("tenant").Filter(byID).PageSize(25).Exec(context.Background())

	require.NoError(t, err)
	require.Len(t, result, 1)
	mockClient.AssertNotCalled(t, "Query", mock.Anything, mock.Anything)

	require.NotNil(t, captured)
	require.NotNil(t, captured.FilterExpression)
	assert.Contains(t, captured.ExpressionAttributeNames, "#0")
	assert.ElementsMatch(t, []string{"pk", "rk"}, mapValues(captured.ExpressionAttributeNames))
	assert.Contains(t, captured.ExpressionAttributeValues, ":0")
	assert.Equal(t, int32(25), aws.ToInt32(captured.Limit))
}

func TestQuery_PartitionWithPlainFilterKeepsQuery(t *testing.T) {
	t.Parallel()

	mockClient := &MockDynamoClient{}
	store := createTestStore(mockClient)

	mockClient.On("Query", mock.Anything, mock.MatchedBy(func(in *dynamodb.QueryInput) bool {
		if in.KeyConditionExpression == nil || in.FilterExpression == nil {
			return false
		}
		for _, n := range in.ExpressionAttributeNames {
			if n == "rk" {
				return false
			}
		}
		return true
	})).Return(&dynamodb.QueryOutput{}, nil)

	_, err := store.Query().
		Partition("tenant").
		Filter(expression.Equal(expression.NameNoDotSplit("status"), expression.Value("active"))).
		Exec(context.Background())

	require.NoError(t, err)
	mockClient.AssertNotCalled(t, "Scan", mock.Anything, mock.Anything)
}

func mapValues(m map[string]string) []string {
	out := make([]string, 0, len(m))
	for _, v := range m {
		out = append(out, v)
	}
	return out
}

func TestQuery_ClientErrorIsWrapped(t *testing.T) {
	t.Parallel()

	mockClient := &MockDynamoClient{}
	store := createTestStore(mockClient)

	mockClient.On("Scan", mock.Anything, mock.Anything).Return(nil, errors.New("boom"))

	_, err := store.Query().Exec(context.Background())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "scan failed")
}

func TestNew_DefaultKeyNames(t *testing.T) {
	t.Parallel()

	mockClient := &MockDynamoClient{}
	store := dyndb.New(mockClient, dyndb.TableConfig{TableName: "people"})

	mockClient.On("DeleteItem", mock.Anything, &dynamodb.DeleteItemInput{
		TableName: aws.String("people"),
		Key: map[string]types.AttributeValue{
			"PartitionKey": s("p"),
			"RowKey":       s("r"),
		},
	}).Return(&dynamodb.DeleteItemOutput{}, nil)

	require.NoError(t, store.Delete(context.Background(), "p", "r"))
	assert.Equal(t, "people", store.Name())
	mockClient.AssertExpectations(t)
}
