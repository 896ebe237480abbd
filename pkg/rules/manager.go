package rules

import (
	"fmt"
	"sync"

	"github.com/google/cel-go/cel"
)

// Variáveis disponíveis nas expressões de acesso.
const (
	VarTable  = "table"  // Nome lógico da tabela
	VarAction = "action" // read, write, delete ou create
	VarID     = "id"     // Chave do registro
	VarFields = "fields" // Campos envolvidos na operação
	VarRecord = "record" // Valores do registro, quando disponíveis
	VarAuth   = "auth"   // Dados de autenticação (sub, roles, claims)
)

// RuleManager gerencia a compilação e avaliação de expressões CEL.
// Programas compilados ficam em cache por expressão.
type RuleManager struct {
	env      *cel.Env
	programs sync.Map
}

// NewRuleManager inicializa o ambiente CEL com as variáveis padrão esperadas.
func NewRuleManager() (*RuleManager, error) {
	env, err := cel.NewEnv(
		cel.Variable(VarTable, cel.StringType),
		cel.Variable(VarAction, cel.StringType),
		cel.Variable(VarID, cel.StringType),
		cel.Variable(VarFields, cel.ListType(cel.StringType)),
		cel.Variable(VarRecord, cel.MapType(cel.StringType, cel.DynType)),
		cel.Variable(VarAuth, cel.DynType),
	)
	if err != nil {
		return nil, fmt.Errorf("erro fatal CEL init: %w", err)
	}

	return &RuleManager{env: env}, nil
}

// CompileProgram compila (ou busca no cache) a expressão.
func (rm *RuleManager) CompileProgram(expr string) (cel.Program, error) {
	if prg, ok := rm.programs.Load(expr); ok {
		return prg.(cel.Program), nil
	}

	ast, issues := rm.env.Compile(expr)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("erro de compilação CEL '%s': %w", expr, issues.Err())
	}
	prg, err := rm.env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("erro ao gerar programa CEL: %w", err)
	}

	rm.programs.Store(expr, prg)
	return prg, nil
}

// EvaluateBool processa regras de validação (deve retornar true/false).
func (rm *RuleManager) EvaluateBool(expression string, vars map[string]interface{}) (bool, error) {
	if expression == "" {
		return true, nil // Expressão vazia = aprova
	}

	out, err := rm.EvaluateValue(expression, vars)
	if err != nil {
		return false, err
	}

	if val, ok := out.(bool); ok {
		return val, nil
	}
	return false, fmt.Errorf("resultado de '%s' não é booleano", expression)
}

// EvaluateValue processa expressões que retornam um valor dinâmico.
func (rm *RuleManager) EvaluateValue(expression string, vars map[string]interface{}) (interface{}, error) {
	if expression == "" {
		return nil, nil
	}

	prg, err := rm.CompileProgram(expression)
	if err != nil {
		return nil, err
	}

	out, _, err := prg.Eval(vars)
	if err != nil {
		return nil, fmt.Errorf("erro execução CEL: %w", err)
	}

	return out.Value(), nil
}
