package engine

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/raywall/fast-data-interface/dyndb"
	"github.com/raywall/fast-data-interface/pkg/config"
	"github.com/raywall/fast-data-interface/pkg/secrets"
	"github.com/raywall/fast-data-interface/tableapi"
)

// SeedPartitionField indica a partição de um registro do arquivo de seed.
const SeedPartitionField = "_partition"

func tableConfig(tbl config.TableConf) dyndb.TableConfig {
	return dyndb.TableConfig{
		TableName:    tbl.PhysicalName(),
		PartitionKey: tbl.PartitionKey,
		RowKey:       tbl.RowKey,
	}
}

// NewStoreFactory escolhe a fábrica conforme o backend configurado.
func NewStoreFactory(ctx context.Context, cfg config.StoreConf) (StoreFactory, error) {
	switch cfg.StoreBackend() {
	case "memory":
		return NewMemoryFactory(cfg.SeedFile)
	case "dynamodb":
		return NewDynamoFactoryFromConfig(ctx, cfg)
	}
	return nil, fmt.Errorf("backend desconhecido: '%s'", cfg.Backend)
}

// DynamoFactory cria stores sobre um único client DynamoDB.
type DynamoFactory struct {
	client dyndb.DynamoDBClient
}

func NewDynamoFactory(client dyndb.DynamoDBClient) *DynamoFactory {
	return &DynamoFactory{client: client}
}

// NewDynamoFactoryFromConfig usa a config AWS compartilhada; Endpoint
// sobrescreve o endereço do serviço (DynamoDB Local, LocalStack).
func NewDynamoFactoryFromConfig(ctx context.Context, cfg config.StoreConf) (*DynamoFactory, error) {
	awsCfg, err := secrets.GetAWSConfig(ctx, cfg.Region)
	if err != nil {
		return nil, fmt.Errorf("falha ao carregar config AWS: %w", err)
	}
	client := dynamodb.NewFromConfig(awsCfg, func(o *dynamodb.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
	})
	return NewDynamoFactory(client), nil
}

func (f *DynamoFactory) Store(_ context.Context, tbl config.TableConf) (dyndb.TableStore, error) {
	return dyndb.New(f.client, tableConfig(tbl)), nil
}

// MemoryFactory mantém um store em memória por tabela física. Os stores
// sobrevivem a reloads. O seed de cada tabela lógica é aplicado uma única
// vez, mesmo quando várias compartilham a mesma tabela física.
type MemoryFactory struct {
	mu     sync.Mutex
	stores map[string]*dyndb.MemoryStore
	seeded map[string]bool
	seed   map[string][]tableapi.Record
}

// NewMemoryFactory lê o seed opcional no formato {"tabela": [{...}]}.
func NewMemoryFactory(seedFile string) (*MemoryFactory, error) {
	f := &MemoryFactory{
		stores: make(map[string]*dyndb.MemoryStore),
		seeded: make(map[string]bool),
	}
	if seedFile == "" {
		return f, nil
	}

	data, err := os.ReadFile(seedFile)
	if err != nil {
		return nil, fmt.Errorf("falha ao ler seed '%s': %w", seedFile, err)
	}
	seed, err := parseSeed(data)
	if err != nil {
		return nil, fmt.Errorf("seed '%s' inválido: %w", seedFile, err)
	}
	f.seed = seed
	return f, nil
}

func parseSeed(data []byte) (map[string][]tableapi.Record, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var seed map[string][]tableapi.Record
	if err := dec.Decode(&seed); err != nil {
		return nil, err
	}
	return seed, nil
}

func (f *MemoryFactory) Store(ctx context.Context, tbl config.TableConf) (dyndb.TableStore, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	name := tbl.PhysicalName()
	s, ok := f.stores[name]
	if !ok {
		s = dyndb.NewMemoryStore(tableConfig(tbl))
	}
	if !f.seeded[tbl.Name] {
		if err := f.load(ctx, s, tbl); err != nil {
			return nil, err
		}
		f.seeded[tbl.Name] = true
	}
	f.stores[name] = s
	return s, nil
}

func (f *MemoryFactory) load(ctx context.Context, s *dyndb.MemoryStore, tbl config.TableConf) error {
	records := f.seed[tbl.Name]
	if len(records) == 0 {
		return nil
	}

	hints, err := tbl.FieldHints()
	if err != nil {
		return err
	}
	codec := tableapi.NewCodec(hints, nil).WithKeyAttributes(s.KeySchema())

	for i, rec := range records {
		id, _ := rec[tableapi.IDField].(string)
		if id == "" {
			return fmt.Errorf("seed da tabela '%s': registro %d sem id", tbl.Name, i)
		}
		partition := tbl.DefaultPartition
		if p, ok := rec[SeedPartitionField].(string); ok {
			partition = p
		}
		delete(rec, SeedPartitionField)

		if err := s.Upsert(ctx, codec.ToEntity(id, partition, rec)); err != nil {
			return err
		}
	}
	return nil
}
