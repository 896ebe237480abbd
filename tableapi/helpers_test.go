package tableapi_test

import (
	"context"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/raywall/fast-data-interface/dyndb"
	"github.com/raywall/fast-data-interface/tableapi"
	"github.com/stretchr/testify/require"
)

func dyndbEntity(row string, props map[string]types.AttributeValue) dyndb.Entity {
	return dyndb.Entity{PartitionKey: "p", RowKey: row, Properties: props}
}

// newPeopleStore seeds the two-record table used across the tests.
func newPeopleStore(t *testing.T) *dyndb.MemoryStore {
	t.Helper()

	store := dyndb.NewMemoryStore(dyndb.TableConfig{TableName: "people"})
	codec := tableapi.NewCodec(nil, nil)
	ctx := context.Background()

	require.NoError(t, store.Upsert(ctx, codec.ToEntity("1", "main", tableapi.Record{"name": "Alice", "age": 30})))
	require.NoError(t, store.Upsert(ctx, codec.ToEntity("2", "main", tableapi.Record{"name": "Bob", "age": 25})))
	return store
}

func ids(records []tableapi.Record) []string {
	out := make([]string, 0, len(records))
	for _, r := range records {
		out = append(out, r["id"].(string))
	}
	return out
}
