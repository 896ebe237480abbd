package engine

import (
	"context"

	"github.com/raywall/fast-data-interface/dyndb"
	"github.com/raywall/fast-data-interface/pkg/config"
)

// Loader é responsável por carregar e decodificar a configuração do serviço.
// Ele abstrai a origem do arquivo (Sistema de arquivos, S3, DynamoDB).
type Loader interface {
	// Load lê a configuração a partir de uma origem e retorna a struct validada.
	Load(ctx context.Context, source string) (*config.ServiceConfig, error)
}

// StoreFactory entrega o store de cada tabela configurada.
type StoreFactory interface {
	Store(ctx context.Context, tbl config.TableConf) (dyndb.TableStore, error)
}

// SecretSource resolve o segredo JWT referenciado por auth.secret_ref.
type SecretSource interface {
	Secret(ctx context.Context, ref string) (string, error)
}
