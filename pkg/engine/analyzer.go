package engine

import (
	"fmt"
	"os"

	"github.com/raywall/fast-data-interface/pkg/config"
	"github.com/raywall/fast-data-interface/pkg/idgen"
	"github.com/raywall/fast-data-interface/pkg/rules"
)

// ValidationReport contém o resultado detalhado da análise.
type ValidationReport struct {
	Valid    bool     `json:"valid"`
	Errors   []string `json:"errors,omitempty"`
	Warnings []string `json:"warnings,omitempty"`
}

func (r *ValidationReport) errorf(format string, args ...any) {
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
}

func (r *ValidationReport) warnf(format string, args ...any) {
	r.Warnings = append(r.Warnings, fmt.Sprintf(format, args...))
}

// Analyze inspeciona uma configuração já validada estruturalmente: compila
// as regras CEL, confere arquivos referenciados e aponta configurações
// arriscadas como avisos.
func Analyze(cfg *config.ServiceConfig) (*ValidationReport, error) {
	report := &ValidationReport{
		Valid:    true,
		Errors:   []string{},
		Warnings: []string{},
	}

	rm, err := rules.NewRuleManager()
	if err != nil {
		return nil, fmt.Errorf("falha interna ao iniciar analisador de regras: %w", err)
	}

	usesCasbin := false
	for _, tbl := range cfg.Tables {
		if _, err := tbl.FieldHints(); err != nil {
			report.errorf("Tables[%s]: %v", tbl.Name, err)
		}
		if _, err := idgen.New(tbl.IDGenerator); err != nil {
			report.errorf("Tables[%s]: %v", tbl.Name, err)
		}

		switch tbl.Access.Mode {
		case "", "none":
			report.warnf("Tables[%s]: sem controle de acesso, todas as operações são permitidas", tbl.Name)
		case "cel":
			for _, rule := range tbl.Access.Rules {
				if _, err := rm.CompileProgram(rule.Allow); err != nil {
					report.errorf("Tables[%s].Rule[%s]: Erro de sintaxe CEL: %v", tbl.Name, rule.ID, err)
				}
			}
		case "casbin":
			usesCasbin = true
		}

		if tbl.ScopeToPartition && tbl.DefaultPartition == "" {
			report.warnf("Tables[%s]: scope_to_partition sem default_partition varre a tabela quando o header de partição falta", tbl.Name)
		}
	}

	if usesCasbin {
		checkFile(report, "Access.Casbin.Policy", cfg.Access.Casbin.Policy)
		if cfg.Access.Casbin.Model != "" {
			checkFile(report, "Access.Casbin.Model", cfg.Access.Casbin.Model)
		}
		if !cfg.Auth.Enabled {
			report.warnf("Access.Casbin: auth desabilitado, todas as chamadas usam o sujeito anônimo")
		}
	}

	if cfg.Store.StoreBackend() == "memory" {
		if cfg.Store.SeedFile != "" {
			checkFile(report, "Store.SeedFile", cfg.Store.SeedFile)
		} else {
			report.warnf("Store: backend memory sem seed_file inicia vazio")
		}
	}

	if len(report.Errors) > 0 {
		report.Valid = false
	}
	return report, nil
}

func checkFile(report *ValidationReport, field, path string) {
	if _, err := os.Stat(path); err != nil {
		report.errorf("%s: arquivo '%s' inacessível: %v", field, path, err)
	}
}
