// Package fastdatainterface expõe tabelas DynamoDB como uma API REST
// declarativa, no formato esperado por clientes de administração no estilo
// json-server (react-admin e similares).
//
// Visão Geral:
// Um arquivo YAML ou TOML descreve o serviço e as tabelas expostas. Cada
// tabela vira as rotas {route}/{tabela} e {route}/{tabela}/{id}, com leitura
// de coleção filtrável, ordenável e paginada, além de criação, merge e
// remoção de registros.
//
// Sub-Pacotes Principais:
//
// 1. tableapi:
//   - Tradução de chamadas REST em operações sobre um TableStore.
//   - Filtros (_ne, _gte, _lte, _like), ordenação (_sort/_order) e paginação (_start/_end).
//   - Hints de tipo por campo e controle de acesso por registro e campo.
//
// 2. dyndb:
//   - Store de entidades chave de partição/chave de linha sobre DynamoDB.
//   - Store em memória que avalia as mesmas expressões de filtro.
//
// 3. envloader:
//   - Carregamento de variáveis de ambiente para structs via tags "env" e "envDefault".
//
// 4. pkg/engine e pkg/transport:
//   - Registro das tabelas com hot reload via SQS.
//   - Servidor HTTP (gorilla/mux) e adaptador para AWS Lambda.
//
// 5. pkg/access e pkg/auth:
//   - Políticas CEL ou RBAC casbin por tabela.
//   - Tokens Bearer JWT.
//
// Exemplo de configuração:
//
//	version: "1.0"
//	service:
//	  name: people-api
//	  runtime: local
//	  port: 8080
//	  route: /api
//	store:
//	  backend: dynamodb
//	  region: us-east-1
//	tables:
//	  - name: people
//	    table_name: people-prod
//	    default_partition: main
//	    type_hints: {age: integer, tags: list_string, born: date}
//
// O binário cmd/server sobe o serviço (fdi serve), valida a configuração
// (fdi validate) e emite tokens de desenvolvimento (fdi token).
package fastdatainterface
