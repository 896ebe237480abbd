package access

import (
	"fmt"

	"github.com/raywall/fast-data-interface/pkg/config"
	"github.com/raywall/fast-data-interface/pkg/rules"
	"github.com/raywall/fast-data-interface/tableapi"
)

// Factory monta o controlador de cada tabela a partir da configuração.
// O enforcer casbin e o ambiente CEL são criados sob demanda e compartilhados.
type Factory struct {
	casbinConf config.CasbinConf
	rm         *rules.RuleManager
	enforcer   *Enforcer
}

func NewFactory(cfg config.AccessConf) *Factory {
	return &Factory{casbinConf: cfg.Casbin}
}

// For devolve o controlador da tabela; nil significa acesso liberado.
func (f *Factory) For(tbl config.TableConf) (tableapi.AccessController, error) {
	switch tbl.Access.Mode {
	case "", "none":
		return nil, nil

	case "cel":
		if f.rm == nil {
			rm, err := rules.NewRuleManager()
			if err != nil {
				return nil, err
			}
			f.rm = rm
		}
		return NewPolicyController(f.rm, tbl.Access.Rules)

	case "casbin":
		if f.enforcer == nil {
			en, err := NewEnforcer(f.casbinConf.Model, f.casbinConf.Policy)
			if err != nil {
				return nil, err
			}
			f.enforcer = en
		}
		return f.enforcer.ForTable(tbl.Name), nil
	}
	return nil, fmt.Errorf("modo de acesso desconhecido: '%s'", tbl.Access.Mode)
}
