package config

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- Mocks ---

type MockS3Loader struct {
	GetObjectFunc func(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

func (m *MockS3Loader) GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	return m.GetObjectFunc(ctx, params, optFns...)
}

type MockDynamoLoader struct {
	GetItemFunc func(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
}

func (m *MockDynamoLoader) GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
	return m.GetItemFunc(ctx, params, optFns...)
}

const yamlContent = `
version: "1.0"
service:
  name: "people-api"
  runtime: "local"
  port: 8080
  route: "/api"
  timeout: "1s"
  logging:
    enabled: true
    level: "info"
    format: "json"
store:
  backend: memory
tables:
  - name: people
    default_partition: main
    type_hints:
      age: integer
      active: boolean
    access:
      mode: cel
      rules:
        - id: admins
          actions: ["*"]
          allow: "'admin' in auth.roles"
`

const tomlContent = `
version = "1.0"

[service]
name = "people-api"
runtime = "lambda"
route = "/api"

[store]
backend = "dynamodb"
region = "us-east-1"

[[tables]]
name = "people"
table_name = "tb_people"
partition_key = "pk"
row_key = "sk"
id_generator = "nanoid"

[tables.type_hints]
age = "integer"
`

func writeTemp(t *testing.T, name, content string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(p, []byte(content), 0o600))
	return p
}

// --- Testes ---

func TestUniversalLoader_Load_LocalYAML(t *testing.T) {
	p := writeTemp(t, "config.yaml", yamlContent)

	cfg, err := NewUniversalLoader().Load(context.Background(), p)
	require.NoError(t, err)

	assert.Equal(t, "people-api", cfg.Service.Name)
	require.Len(t, cfg.Tables, 1)
	assert.Equal(t, "main", cfg.Tables[0].DefaultPartition)
	assert.Equal(t, "integer", cfg.Tables[0].TypeHints["age"])
	assert.Equal(t, "cel", cfg.Tables[0].Access.Mode)
	assert.Equal(t, []string{"*"}, cfg.Tables[0].Access.Rules[0].Actions)
}

func TestUniversalLoader_Load_LocalTOML(t *testing.T) {
	p := writeTemp(t, "config.toml", tomlContent)

	cfg, err := NewUniversalLoader().Load(context.Background(), "file://"+p)
	require.NoError(t, err)

	assert.Equal(t, "lambda", cfg.Service.Runtime)
	assert.Equal(t, "us-east-1", cfg.Store.Region)
	require.Len(t, cfg.Tables, 1)
	assert.Equal(t, "tb_people", cfg.Tables[0].PhysicalName())
	assert.Equal(t, "sk", cfg.Tables[0].RowKey)
	assert.Equal(t, "nanoid", cfg.Tables[0].IDGenerator)
}

func TestUniversalLoader_Load_Errors(t *testing.T) {
	ctx := context.Background()

	t.Run("Arquivo inexistente", func(t *testing.T) {
		_, err := NewUniversalLoader().Load(ctx, filepath.Join(t.TempDir(), "nope.yaml"))
		assert.ErrorContains(t, err, "falha leitura config")
	})

	t.Run("Campo desconhecido", func(t *testing.T) {
		p := writeTemp(t, "config.yaml", yamlContent+"steps: {}\n")
		_, err := NewUniversalLoader().Load(ctx, p)
		assert.ErrorContains(t, err, "YAML malformado")
	})

	t.Run("Validação", func(t *testing.T) {
		p := writeTemp(t, "config.yaml", "version: \"1.0\"\n")
		_, err := NewUniversalLoader().Load(ctx, p)
		assert.ErrorContains(t, err, "validação da configuração falhou")
	})

	t.Run("Formato desconhecido", func(t *testing.T) {
		_, err := NewUniversalLoader().Parse(ctx, []byte(yamlContent), Format("json"))
		assert.Error(t, err)
	})
}

func TestUniversalLoader_Load_Injection(t *testing.T) {
	t.Setenv("FDI_LOADER_PORT_ROUTE", "/people")
	content := strings.Replace(yamlContent, `route: "/api"`, `route: "${env.FDI_LOADER_PORT_ROUTE}"`, 1)
	p := writeTemp(t, "config.yaml", content)

	cfg, err := NewUniversalLoader().Load(context.Background(), p)
	require.NoError(t, err)
	assert.Equal(t, "/people", cfg.Service.Route)
}

func TestUniversalLoader_S3(t *testing.T) {
	mockClient := &MockS3Loader{
		GetObjectFunc: func(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
			assert.Equal(t, "my-bucket", *params.Bucket)
			assert.Equal(t, "configs/svc.toml", *params.Key)
			return &s3.GetObjectOutput{Body: io.NopCloser(strings.NewReader(tomlContent))}, nil
		},
	}

	cfg, err := NewUniversalLoader(WithS3Client(mockClient)).Load(context.Background(), "s3://my-bucket/configs/svc.toml")
	require.NoError(t, err)
	assert.Equal(t, "people-api", cfg.Service.Name)
}

func TestUniversalLoader_S3_Error(t *testing.T) {
	mockClient := &MockS3Loader{
		GetObjectFunc: func(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
			return nil, errors.New("access denied")
		},
	}

	_, err := NewUniversalLoader(WithS3Client(mockClient)).Load(context.Background(), "s3://b/k.yaml")
	assert.ErrorContains(t, err, "access denied")
}

func TestUniversalLoader_Dynamo(t *testing.T) {
	mockClient := &MockDynamoLoader{
		GetItemFunc: func(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
			assert.Equal(t, "ConfigTable", *params.TableName)
			key := params.Key["ServiceName"].(*types.AttributeValueMemberS).Value
			assert.Equal(t, "my-svc", key)

			return &dynamodb.GetItemOutput{
				Item: map[string]types.AttributeValue{
					"yaml_body": &types.AttributeValueMemberS{Value: yamlContent},
				},
			}, nil
		},
	}

	uri := "dynamodb://ConfigTable/my-svc?pk=ServiceName&col=yaml_body"
	cfg, err := NewUniversalLoader(WithDynamoClient(mockClient)).Load(context.Background(), uri)
	require.NoError(t, err)
	assert.Equal(t, "people-api", cfg.Service.Name)
}

func TestUniversalLoader_Dynamo_MissingItem(t *testing.T) {
	mockClient := &MockDynamoLoader{
		GetItemFunc: func(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
			assert.Contains(t, params.Key, "id")
			return &dynamodb.GetItemOutput{}, nil
		},
	}

	_, err := NewUniversalLoader(WithDynamoClient(mockClient)).Load(context.Background(), "dynamodb://ConfigTable/svc")
	assert.ErrorContains(t, err, "item não encontrado")
}

func TestDetectFormat(t *testing.T) {
	assert.Equal(t, FormatYAML, DetectFormat("config.yaml"))
	assert.Equal(t, FormatTOML, DetectFormat("config.TOML"))
	assert.Equal(t, FormatTOML, DetectFormat("file:///etc/fdi/config.toml"))
	assert.Equal(t, FormatTOML, DetectFormat("s3://bucket/dir/config.toml"))
	assert.Equal(t, FormatYAML, DetectFormat("dynamodb://t/k"))
	assert.Equal(t, FormatTOML, DetectFormat("dynamodb://t/k?format=toml"))
}
