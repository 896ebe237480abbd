package access

import (
	"context"
	"embed"
	"fmt"
	"os"
	"path/filepath"

	"github.com/casbin/casbin/v3"
	"github.com/raywall/fast-data-interface/pkg/auth"
	"github.com/raywall/fast-data-interface/tableapi"
	"github.com/rs/zerolog"
)

//go:embed model_table.conf
var embedFS embed.FS

const defaultModel = "model_table.conf"

// Anonymous é o sujeito usado quando a requisição não tem token.
const Anonymous = "anonymous"

// Enforcer encapsula o enforcer casbin compartilhado por todas as tabelas.
//
// Objetos são "tabela" (acesso a todos os campos) ou "tabela.campo".
// O sujeito é avaliado junto com cada role do token.
type Enforcer struct {
	e *casbin.Enforcer
}

// NewEnforcer cria o enforcer. Um modelPath vazio usa o modelo embutido.
func NewEnforcer(modelPath, policyPath string) (*Enforcer, error) {
	if modelPath == "" {
		dir, err := os.MkdirTemp("", "fdi-casbin-*")
		if err != nil {
			return nil, err
		}
		defer os.RemoveAll(dir)

		data, err := embedFS.ReadFile(defaultModel)
		if err != nil {
			return nil, err
		}
		modelPath = filepath.Join(dir, defaultModel)
		if err := os.WriteFile(modelPath, data, 0o600); err != nil {
			return nil, err
		}
	}

	e, err := casbin.NewEnforcer(modelPath, policyPath)
	if err != nil {
		return nil, fmt.Errorf("casbin: %w", err)
	}
	return &Enforcer{e: e}, nil
}

// ForTable devolve o controlador de uma tabela.
func (en *Enforcer) ForTable(table string) *CasbinController {
	return &CasbinController{enforcer: en, table: table}
}

func (en *Enforcer) allowed(subjects []string, obj, act string) (bool, error) {
	for _, sub := range subjects {
		ok, err := en.e.Enforce(sub, obj, act)
		if err != nil {
			return false, fmt.Errorf("casbin: %w", err)
		}
		if ok {
			return true, nil
		}
	}
	return false, nil
}

// CasbinController implementa tableapi.AccessController sobre o Enforcer.
type CasbinController struct {
	enforcer *Enforcer
	table    string
}

func (c *CasbinController) CheckAccess(ctx context.Context, req tableapi.AccessRequest) (tableapi.AccessDecision, error) {
	subjects := subjectsOf(auth.FromContext(ctx))
	act := req.Type.String()

	ok, err := c.enforcer.allowed(subjects, c.table, act)
	if err != nil {
		return tableapi.Denied(), err
	}
	if ok {
		return tableapi.FullAccess(), nil
	}

	var fields []string
	for _, f := range req.Fields {
		ok, err := c.enforcer.allowed(subjects, c.table+"."+f, act)
		if err != nil {
			return tableapi.Denied(), err
		}
		if ok {
			fields = append(fields, f)
		}
	}
	if len(fields) == 0 {
		zerolog.Ctx(ctx).Debug().Strs("subjects", subjects).Str("table", c.table).Str("access", act).Msg("casbin negou acesso")
		return tableapi.Denied(), nil
	}
	return tableapi.PartialAccess(fields...), nil
}

func subjectsOf(p *auth.Principal) []string {
	if p == nil {
		return []string{Anonymous}
	}
	subjects := make([]string, 0, len(p.Roles)+1)
	if p.Subject != "" {
		subjects = append(subjects, p.Subject)
	}
	return append(subjects, p.Roles...)
}
