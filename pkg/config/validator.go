package config

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/raywall/fast-data-interface/tableapi"
)

type ConfigValidator struct {
	validate *validator.Validate
}

// NewValidator cria uma nova instância do validador
func NewValidator() *ConfigValidator {
	return &ConfigValidator{
		validate: validator.New(),
	}
}

// Validate realiza validações estruturais (tags) e semânticas (lógica)
func (cv *ConfigValidator) Validate(cfg *ServiceConfig) error {
	// 1. Validação Estrutural (Tags do struct: required, oneof, etc)
	if err := cv.validate.Struct(cfg); err != nil {
		if validationErrors, ok := err.(validator.ValidationErrors); ok {
			var errMsgs []string
			for _, e := range validationErrors {
				errMsgs = append(errMsgs, fmt.Sprintf("Campo '%s' falhou na regra '%s'", e.Namespace(), e.Tag()))
			}
			return fmt.Errorf("erros de validação estrutural:\n- %s", strings.Join(errMsgs, "\n- "))
		}
		return fmt.Errorf("erro de validação estrutural: %w", err)
	}

	// 2. Validação Semântica (Regras de negócio da configuração)
	if err := cv.validateSemantics(cfg); err != nil {
		return fmt.Errorf("erro de validação semântica: %w", err)
	}

	return nil
}

func (cv *ConfigValidator) validateSemantics(cfg *ServiceConfig) error {
	if cfg.Auth.Enabled && cfg.Auth.Secret == "" && cfg.Auth.SecretRef == "" {
		return fmt.Errorf("auth habilitado exige 'auth.secret' ou 'auth.secret_ref'")
	}

	seenTables := make(map[string]bool)
	for _, tbl := range cfg.Tables {
		if seenTables[tbl.Name] {
			return fmt.Errorf("tabela duplicada detectada: '%s'", tbl.Name)
		}
		seenTables[tbl.Name] = true

		if _, err := tbl.FieldHints(); err != nil {
			return fmt.Errorf("tabela '%s': %w", tbl.Name, err)
		}

		if tbl.PartitionKey != "" && tbl.PartitionKey == tbl.RowKey {
			return fmt.Errorf("tabela '%s': partition_key e row_key não podem ser iguais", tbl.Name)
		}

		switch tbl.Access.Mode {
		case "cel":
			if len(tbl.Access.Rules) == 0 {
				return fmt.Errorf("tabela '%s': modo 'cel' exige ao menos uma regra", tbl.Name)
			}
			seenRules := make(map[string]bool)
			for _, r := range tbl.Access.Rules {
				if seenRules[r.ID] {
					return fmt.Errorf("tabela '%s': regra duplicada '%s'", tbl.Name, r.ID)
				}
				seenRules[r.ID] = true
			}
		case "casbin":
			if cfg.Access.Casbin.Policy == "" {
				return fmt.Errorf("tabela '%s': modo 'casbin' exige 'access.casbin.policy'", tbl.Name)
			}
		}
	}

	return nil
}

// FieldHints converte os type_hints da tabela para o formato do tradutor.
func (t TableConf) FieldHints() (tableapi.FieldHints, error) {
	if len(t.TypeHints) == 0 {
		return nil, nil
	}
	hints := make(tableapi.FieldHints, len(t.TypeHints))
	for field, name := range t.TypeHints {
		h, err := tableapi.ParseTypeHint(name)
		if err != nil {
			return nil, fmt.Errorf("campo '%s': %w", field, err)
		}
		hints[field] = h
	}
	return hints, nil
}
