package config

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/url"
	"os"
	"path"
	"strings"

	"github.com/BurntSushi/toml"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/raywall/fast-data-interface/pkg/config/injector"
	"gopkg.in/yaml.v3"
)

// Load é o atalho usado pela CLI e pelo hot reload.
func Load(ctx context.Context, source string) (*ServiceConfig, error) {
	return NewUniversalLoader().Load(ctx, source)
}

// --- Interfaces para Mocking ---

type S3Downloader interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

type DynamoGetter interface {
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
}

// Format é o formato de serialização do arquivo de configuração.
type Format string

const (
	FormatYAML Format = "yaml"
	FormatTOML Format = "toml"
)

// UniversalLoader suporta múltiplas fontes de configuração (Local, S3, DynamoDB).
type UniversalLoader struct {
	validator *ConfigValidator
	injector  *injector.Injector
	s3        S3Downloader
	dynamo    DynamoGetter
}

type LoaderOption func(*UniversalLoader)

func WithS3Client(c S3Downloader) LoaderOption {
	return func(ul *UniversalLoader) { ul.s3 = c }
}

func WithDynamoClient(c DynamoGetter) LoaderOption {
	return func(ul *UniversalLoader) { ul.dynamo = c }
}

func WithInjector(inj *injector.Injector) LoaderOption {
	return func(ul *UniversalLoader) { ul.injector = inj }
}

// NewUniversalLoader cria uma nova instância.
func NewUniversalLoader(opts ...LoaderOption) *UniversalLoader {
	ul := &UniversalLoader{
		validator: NewValidator(),
		injector:  injector.New(),
	}
	for _, opt := range opts {
		opt(ul)
	}
	return ul
}

// Load detecta o esquema da fonte e carrega a configuração.
//
//	config.yaml | file://config.toml
//	s3://bucket/key.yaml
//	dynamodb://tabela/chave?pk=id&col=config&format=toml
func (ul *UniversalLoader) Load(ctx context.Context, source string) (*ServiceConfig, error) {
	var rawData []byte
	var err error

	switch {
	case strings.HasPrefix(source, "s3://"):
		if ul.s3 == nil {
			cfg, cfgErr := awsconfig.LoadDefaultConfig(ctx)
			if cfgErr != nil {
				return nil, fmt.Errorf("falha ao carregar config AWS: %w", cfgErr)
			}
			ul.s3 = s3.NewFromConfig(cfg)
		}
		rawData, err = ul.loadFromS3(ctx, source)

	case strings.HasPrefix(source, "dynamodb://"):
		if ul.dynamo == nil {
			cfg, cfgErr := awsconfig.LoadDefaultConfig(ctx)
			if cfgErr != nil {
				return nil, fmt.Errorf("falha ao carregar config AWS: %w", cfgErr)
			}
			ul.dynamo = dynamodb.NewFromConfig(cfg)
		}
		rawData, err = ul.loadFromDynamoDB(ctx, source)

	default:
		rawData, err = ul.loadFromFile(source)
	}

	if err != nil {
		return nil, fmt.Errorf("falha leitura config (%s): %w", source, err)
	}

	return ul.Parse(ctx, rawData, DetectFormat(source))
}

// DetectFormat escolhe o formato pelo parâmetro `format` ou pela extensão.
func DetectFormat(source string) Format {
	if u, err := url.Parse(source); err == nil {
		if f := u.Query().Get("format"); f != "" {
			return Format(strings.ToLower(f))
		}
		if u.Scheme != "" && u.Scheme != "file" {
			source = u.Path
		}
	}
	if strings.EqualFold(path.Ext(strings.TrimPrefix(source, "file://")), ".toml") {
		return FormatTOML
	}
	return FormatYAML
}

// --- Estratégias de carregamento ---

func (ul *UniversalLoader) loadFromFile(p string) ([]byte, error) {
	// Suporta tanto "file://config.yaml" quanto apenas "config.yaml"
	return os.ReadFile(strings.TrimPrefix(p, "file://"))
}

func (ul *UniversalLoader) loadFromS3(ctx context.Context, uri string) ([]byte, error) {
	u, err := url.Parse(uri)
	if err != nil {
		return nil, fmt.Errorf("URL S3 inválida: %w", err)
	}
	bucket := u.Host
	key := strings.TrimPrefix(u.Path, "/")

	out, err := ul.s3.GetObject(ctx, &s3.GetObjectInput{
		Bucket: &bucket,
		Key:    &key,
	})
	if err != nil {
		return nil, err
	}
	defer out.Body.Close()

	return io.ReadAll(out.Body)
}

func (ul *UniversalLoader) loadFromDynamoDB(ctx context.Context, uri string) ([]byte, error) {
	u, err := url.Parse(uri)
	if err != nil {
		return nil, fmt.Errorf("URL DynamoDB inválida: %w", err)
	}

	tableName := u.Host
	pkValue := strings.TrimPrefix(u.Path, "/")

	colName := u.Query().Get("col")
	if colName == "" {
		colName = "config"
	}

	pkName := u.Query().Get("pk")
	if pkName == "" {
		pkName = "id"
	}

	out, err := ul.dynamo.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: &tableName,
		Key: map[string]types.AttributeValue{
			pkName: &types.AttributeValueMemberS{Value: pkValue},
		},
	})
	if err != nil {
		return nil, err
	}

	if out.Item == nil {
		return nil, fmt.Errorf("item não encontrado no DynamoDB")
	}

	var itemMap map[string]interface{}
	if err := attributevalue.UnmarshalMap(out.Item, &itemMap); err != nil {
		return nil, err
	}

	content, ok := itemMap[colName].(string)
	if !ok || content == "" {
		return nil, fmt.Errorf("coluna '%s' inválida ou vazia no DynamoDB", colName)
	}

	return []byte(content), nil
}

// Parse decodifica, injeta valores externos e valida.
func (ul *UniversalLoader) Parse(ctx context.Context, data []byte, format Format) (*ServiceConfig, error) {
	var cfg ServiceConfig

	switch format {
	case FormatTOML:
		if _, err := toml.NewDecoder(bytes.NewReader(data)).Decode(&cfg); err != nil {
			return nil, fmt.Errorf("TOML malformado: %w", err)
		}
	case FormatYAML:
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&cfg); err != nil {
			return nil, fmt.Errorf("YAML malformado: %w", err)
		}
	default:
		return nil, fmt.Errorf("formato de configuração desconhecido: '%s'", format)
	}

	if ul.injector != nil {
		if err := ul.injector.Inject(ctx, &cfg); err != nil {
			return nil, fmt.Errorf("falha na injeção de variáveis: %w", err)
		}
	}

	if ul.validator != nil {
		if err := ul.validator.Validate(&cfg); err != nil {
			return nil, fmt.Errorf("validação da configuração falhou: %w", err)
		}
	}

	return &cfg, nil
}
