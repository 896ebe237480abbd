// Package dyndb fornece o armazenamento partição/linha usado pela camada de
// tradução REST, sobre o AWS DynamoDB Go SDK (v2).
//
// Visão Geral:
// O pacote expõe a interface `TableStore`, com operações por chave
// (`Get`, `Upsert`, `Merge`, `Delete`) e consultas através do
// `QueryBuilder`. Cada linha é representada por uma `Entity`: chave de
// partição, chave de linha e propriedades já convertidas em
// `types.AttributeValue`.
//
// Implementações:
//   - `New`: DynamoDB real. Consultas viram `Scan` (sem partição) ou `Query`
//     (com partição) e todas as páginas são lidas.
//   - `NewMemoryStore`: em memória. As mesmas expressões do SDK são
//     renderizadas e avaliadas localmente por `CompileCondition`.
//
// Exemplo:
//
//	store := dyndb.New(client, dyndb.TableConfig{
//		TableName:    "people",
//		PartitionKey: "PartitionKey",
//		RowKey:       "RowKey",
//	})
//
//	cond := expression.Equal(expression.Name("status"), expression.Value("active"))
//	entities, err := store.Query().
//		Partition("tenant-a").
//		Filter(cond).
//		Exec(ctx)
//
//	if _, err := store.Get(ctx, "tenant-a", "42"); errors.Is(err, dyndb.ErrNotFound) {
//		// ...
//	}
//
// Configuração:
// Quando `TableConfig.TableName` está vazio, a configuração é lida do
// ambiente (DYNAMODB_TABLE_NAME, DYNAMODB_PARTITION_KEY, DYNAMODB_ROW_KEY).
package dyndb
