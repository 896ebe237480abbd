// dyndb/memory.go
package dyndb

import (
	"context"
	"fmt"
	"sync"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// MemoryStore é um TableStore em memória com a mesma semântica do
// dynamoStore: as condições são renderizadas pelo builder do SDK e avaliadas
// localmente. Útil para execução local (runtime "local" sem AWS) e testes.
type MemoryStore struct {
	cfg TableConfig

	mu    sync.RWMutex
	items map[string]map[string]types.AttributeValue
	order []string
}

// NewMemoryStore cria um store vazio.
func NewMemoryStore(cfg TableConfig) *MemoryStore {
	return &MemoryStore{
		cfg:   cfg.withDefaults(),
		items: make(map[string]map[string]types.AttributeValue),
	}
}

func memKey(partitionKey, rowKey string) string {
	return partitionKey + "\x00" + rowKey
}

func (m *MemoryStore) Name() string {
	return m.cfg.TableName
}

func (m *MemoryStore) KeySchema() (string, string) {
	return m.cfg.PartitionKey, m.cfg.RowKey
}

func (m *MemoryStore) Get(_ context.Context, partitionKey, rowKey string) (*Entity, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	item, ok := m.items[memKey(partitionKey, rowKey)]
	if !ok {
		return nil, ErrNotFound
	}
	e := m.cfg.toEntity(item)
	return &e, nil
}

func (m *MemoryStore) Upsert(_ context.Context, e Entity) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	k := memKey(e.PartitionKey, e.RowKey)
	if _, ok := m.items[k]; !ok {
		m.order = append(m.order, k)
	}
	m.items[k] = m.cfg.toItem(e)
	return nil
}

func (m *MemoryStore) Merge(_ context.Context, e Entity) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	item, ok := m.items[memKey(e.PartitionKey, e.RowKey)]
	if !ok {
		return ErrNotFound
	}
	for name, v := range e.Properties {
		if name == m.cfg.PartitionKey || name == m.cfg.RowKey {
			continue
		}
		item[name] = v
	}
	return nil
}

func (m *MemoryStore) Delete(_ context.Context, partitionKey, rowKey string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	k := memKey(partitionKey, rowKey)
	if _, ok := m.items[k]; !ok {
		return nil
	}
	delete(m.items, k)
	for i, o := range m.order {
		if o == k {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
	return nil
}

func (m *MemoryStore) Query() *QueryBuilder {
	return &QueryBuilder{runner: m}
}

func (m *MemoryStore) run(ctx context.Context, qb *QueryBuilder) ([]Entity, error) {
	expr, ok, err := qb.build(m.cfg.PartitionKey)
	if err != nil {
		return nil, err
	}

	var conds []Condition
	if ok {
		for _, raw := range []*string{expr.KeyCondition(), expr.Filter()} {
			if raw == nil {
				continue
			}
			c, err := CompileCondition(*raw, expr.Names(), expr.Values())
			if err != nil {
				return nil, fmt.Errorf("memorystore: %w", err)
			}
			conds = append(conds, c)
		}
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]Entity, 0)
	for _, k := range m.order {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		item := m.items[k]
		if matchAll(conds, item) {
			result = append(result, m.cfg.toEntity(item))
		}
	}
	return result, nil
}

func matchAll(conds []Condition, item map[string]types.AttributeValue) bool {
	for _, c := range conds {
		if !c.Eval(item) {
			return false
		}
	}
	return true
}
