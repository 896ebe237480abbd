package access

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/raywall/fast-data-interface/pkg/auth"
	"github.com/raywall/fast-data-interface/pkg/config"
	"github.com/raywall/fast-data-interface/pkg/rules"
	"github.com/raywall/fast-data-interface/tableapi"
	"github.com/rs/zerolog"
)

const anyAction = "*"

type policyRule struct {
	id      string
	actions map[string]bool
	allow   string
	fields  []string
}

// PolicyController decide o acesso com regras CEL avaliadas em ordem.
// A primeira regra da ação cujo `allow` for verdadeiro decide; sem regra
// aplicável o acesso é negado.
type PolicyController struct {
	rm    *rules.RuleManager
	rules []policyRule
}

// NewPolicyController compila todas as regras na criação.
func NewPolicyController(rm *rules.RuleManager, confs []config.AccessRuleConf) (*PolicyController, error) {
	pc := &PolicyController{rm: rm}
	for _, c := range confs {
		if _, err := rm.CompileProgram(c.Allow); err != nil {
			return nil, fmt.Errorf("regra '%s': %w", c.ID, err)
		}
		actions := make(map[string]bool, len(c.Actions))
		for _, a := range c.Actions {
			actions[a] = true
		}
		pc.rules = append(pc.rules, policyRule{
			id:      c.ID,
			actions: actions,
			allow:   c.Allow,
			fields:  c.Fields,
		})
	}
	return pc, nil
}

func (pc *PolicyController) CheckAccess(ctx context.Context, req tableapi.AccessRequest) (tableapi.AccessDecision, error) {
	action := req.Type.String()
	vars := map[string]interface{}{
		rules.VarTable:  req.Table,
		rules.VarAction: action,
		rules.VarID:     req.RecordID,
		rules.VarFields: nonNilFields(req.Fields),
		rules.VarRecord: plainRecord(req.Record),
		rules.VarAuth:   auth.FromContext(ctx).Map(),
	}

	log := zerolog.Ctx(ctx)
	for _, r := range pc.rules {
		if !r.actions[action] && !r.actions[anyAction] {
			continue
		}
		ok, err := pc.rm.EvaluateBool(r.allow, vars)
		if err != nil {
			log.Warn().Err(err).Str("rule", r.id).Str("table", req.Table).Msg("regra de acesso ignorada")
			continue
		}
		if !ok {
			continue
		}
		log.Debug().Str("rule", r.id).Str("table", req.Table).Str("access", action).Msg("acesso concedido")
		if len(r.fields) == 0 {
			return tableapi.FullAccess(), nil
		}
		return tableapi.PartialAccess(r.fields...), nil
	}
	return tableapi.Denied(), nil
}

func nonNilFields(fields []string) []string {
	if fields == nil {
		return []string{}
	}
	return fields
}

// plainRecord converte o registro em tipos que o CEL entende nativamente.
func plainRecord(rec tableapi.Record) map[string]interface{} {
	out := make(map[string]interface{}, len(rec))
	for k, v := range rec {
		switch tv := v.(type) {
		case json.Number:
			if i, err := tv.Int64(); err == nil {
				out[k] = i
			} else if f, err := tv.Float64(); err == nil {
				out[k] = f
			} else {
				out[k] = tv.String()
			}
		case nil:
			continue
		default:
			out[k] = v
		}
	}
	return out
}
