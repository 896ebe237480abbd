// dyndb/query.go
package dyndb

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// === MÉTODOS FLUENTES ===

// Partition restringe a consulta a uma partição (Query em vez de Scan).
func (qb *QueryBuilder) Partition(key string) *QueryBuilder {
	qb.partition = aws.String(key)
	return qb
}

// Filter adiciona uma condição de filtro, combinada com AND às anteriores.
func (qb *QueryBuilder) Filter(cond expression.ConditionBuilder) *QueryBuilder {
	if qb.filterCond == nil {
		qb.filterCond = &cond
	} else {
		tmp := qb.filterCond.And(cond)
		qb.filterCond = &tmp
	}
	return qb
}

// PageSize define o Limit de cada página lida do DynamoDB.
func (qb *QueryBuilder) PageSize(n int32) *QueryBuilder {
	qb.pageSize = &n
	return qb
}

// With aplica opções funcionais.
func (qb *QueryBuilder) With(filters ...QueryFilter) *QueryBuilder {
	for _, f := range filters {
		f(qb)
	}
	return qb
}

func WithFilter(cond expression.ConditionBuilder) QueryFilter {
	return func(qb *QueryBuilder) { qb.Filter(cond) }
}

func WithPartition(key string) QueryFilter {
	return func(qb *QueryBuilder) { qb.Partition(key) }
}

func WithPageSize(n int32) QueryFilter {
	return func(qb *QueryBuilder) { qb.PageSize(n) }
}

// Exec executa a consulta e percorre todas as páginas.
func (qb *QueryBuilder) Exec(ctx context.Context) ([]Entity, error) {
	return qb.runner.run(ctx, qb)
}

// build monta a expressão usada por todos os backends.
func (qb *QueryBuilder) build(partitionAttr string) (expression.Expression, bool, error) {
	builder := expression.NewBuilder()
	empty := true

	if qb.partition != nil {
		builder = builder.WithKeyCondition(
			expression.KeyEqual(expression.Key(partitionAttr), expression.Value(*qb.partition)),
		)
		empty = false
	}
	if qb.filterCond != nil {
		builder = builder.WithFilter(*qb.filterCond)
		empty = false
	}
	if empty {
		return expression.Expression{}, false, nil
	}

	expr, err := builder.Build()
	if err != nil {
		return expression.Expression{}, false, fmt.Errorf("dynamostore: invalid expression: %w", err)
	}
	return expr, true, nil
}

// Query inicia uma consulta
func (s *dynamoStore) Query() *QueryBuilder {
	return &QueryBuilder{runner: s}
}

// filterNames devolve os atributos citados pelo filtro.
func (qb *QueryBuilder) filterNames() ([]string, error) {
	if qb.filterCond == nil {
		return nil, nil
	}
	expr, err := expression.NewBuilder().WithFilter(*qb.filterCond).Build()
	if err != nil {
		return nil, fmt.Errorf("dynamostore: invalid expression: %w", err)
	}
	names := make([]string, 0, len(expr.Names()))
	for _, n := range expr.Names() {
		names = append(names, n)
	}
	return names, nil
}

// scoped converte a Query de partição em Scan com a igualdade da partição
// somada ao filtro. O DynamoDB recusa FilterExpression que cite atributos
// de chave em uma Query.
func (qb *QueryBuilder) scoped(partitionAttr string) *QueryBuilder {
	cond := expression.Equal(expression.NameNoDotSplit(partitionAttr), expression.Value(*qb.partition))
	if qb.filterCond != nil {
		cond = cond.And(*qb.filterCond)
	}
	return &QueryBuilder{runner: qb.runner, filterCond: &cond, pageSize: qb.pageSize}
}

func (s *dynamoStore) plan(qb *QueryBuilder) (*QueryBuilder, error) {
	if qb.partition == nil {
		return qb, nil
	}
	names, err := qb.filterNames()
	if err != nil {
		return nil, err
	}
	for _, n := range names {
		if n == s.cfg.PartitionKey || n == s.cfg.RowKey {
			return qb.scoped(s.cfg.PartitionKey), nil
		}
	}
	return qb, nil
}

func (s *dynamoStore) run(ctx context.Context, qb *QueryBuilder) ([]Entity, error) {
	qb, err := s.plan(qb)
	if err != nil {
		return nil, err
	}
	expr, ok, err := qb.build(s.cfg.PartitionKey)
	if err != nil {
		return nil, err
	}

	var result []Entity
	var lastKey map[string]types.AttributeValue
	for {
		var items []map[string]types.AttributeValue
		if qb.partition != nil {
			items, lastKey, err = s.execQuery(ctx, qb, expr, lastKey)
		} else {
			items, lastKey, err = s.execScan(ctx, qb, expr, ok, lastKey)
		}
		if err != nil {
			return nil, err
		}
		for _, item := range items {
			result = append(result, s.cfg.toEntity(item))
		}
		if len(lastKey) == 0 {
			return result, nil
		}
	}
}

func (s *dynamoStore) execQuery(
	ctx context.Context,
	qb *QueryBuilder,
	expr expression.Expression,
	startKey map[string]types.AttributeValue,
) ([]map[string]types.AttributeValue, map[string]types.AttributeValue, error) {
	out, err := s.client.Query(ctx, &dynamodb.QueryInput{
		TableName:                 aws.String(s.cfg.TableName),
		KeyConditionExpression:    expr.KeyCondition(),
		FilterExpression:          expr.Filter(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
		Limit:                     qb.pageSize,
		ExclusiveStartKey:         startKey,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("dynamostore: query failed: %w", err)
	}
	return out.Items, out.LastEvaluatedKey, nil
}

func (s *dynamoStore) execScan(
	ctx context.Context,
	qb *QueryBuilder,
	expr expression.Expression,
	hasExpr bool,
	startKey map[string]types.AttributeValue,
) ([]map[string]types.AttributeValue, map[string]types.AttributeValue, error) {
	input := &dynamodb.ScanInput{
		TableName:         aws.String(s.cfg.TableName),
		Limit:             qb.pageSize,
		ExclusiveStartKey: startKey,
	}
	if hasExpr {
		input.FilterExpression = expr.Filter()
		input.ExpressionAttributeNames = expr.Names()
		input.ExpressionAttributeValues = expr.Values()
	}

	out, err := s.client.Scan(ctx, input)
	if err != nil {
		return nil, nil, fmt.Errorf("dynamostore: scan failed: %w", err)
	}
	return out.Items, out.LastEvaluatedKey, nil
}
