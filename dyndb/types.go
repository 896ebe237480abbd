// dyndb/types.go
package dyndb

import (
	"context"
	"errors"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// ErrNotFound – erro padrão quando o item não existe
var ErrNotFound = errors.New("dyndb: item not found")

// DynamoDBClient interface para abstrair o cliente DynamoDB
type DynamoDBClient interface {
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	UpdateItem(ctx context.Context, params *dynamodb.UpdateItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error)
	DeleteItem(ctx context.Context, params *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
	Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
	Scan(ctx context.Context, params *dynamodb.ScanInput, optFns ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error)
}

// Entity é a linha física da tabela: chave de partição, chave de linha e
// as demais propriedades já no formato nativo do DynamoDB.
//
// Properties nunca contém os atributos de chave.
type Entity struct {
	PartitionKey string
	RowKey       string
	Properties   map[string]types.AttributeValue
}

// TableStore é o contrato mínimo de um armazenamento partição/linha.
type TableStore interface {
	// Name devolve o nome físico da tabela.
	Name() string

	// KeySchema devolve os nomes dos atributos de partição e de linha.
	KeySchema() (partitionKey, rowKey string)

	Get(ctx context.Context, partitionKey, rowKey string) (*Entity, error)

	// Upsert substitui a entidade inteira (cria se não existir).
	Upsert(ctx context.Context, e Entity) error

	// Merge atualiza apenas as propriedades informadas de uma entidade
	// existente. Retorna ErrNotFound quando a entidade não existe.
	Merge(ctx context.Context, e Entity) error

	Delete(ctx context.Context, partitionKey, rowKey string) error

	// Query retorna o builder fluente (Scan quando não há partição).
	Query() *QueryBuilder
}

// TableConfig descreve a tabela e seus atributos de chave.
type TableConfig struct {
	TableName    string `env:"DYNAMODB_TABLE_NAME"`
	PartitionKey string `env:"DYNAMODB_PARTITION_KEY" envDefault:"PartitionKey"`
	RowKey       string `env:"DYNAMODB_ROW_KEY" envDefault:"RowKey"`
}

// QueryFilter é uma opção funcional aplicada ao builder.
type QueryFilter func(*QueryBuilder)

// queryRunner executa o builder contra um backend concreto.
type queryRunner interface {
	run(ctx context.Context, qb *QueryBuilder) ([]Entity, error)
}

// QueryBuilder monta Query ou Scan de forma fluente.
type QueryBuilder struct {
	runner     queryRunner
	partition  *string
	filterCond *expression.ConditionBuilder
	pageSize   *int32
}
