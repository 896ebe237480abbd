package secrets

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
)

// Interfaces para abstrair o SDK da AWS (Permite Mocking)
type SSMClient interface {
	GetParameter(ctx context.Context, params *ssm.GetParameterInput, optFns ...func(*ssm.Options)) (*ssm.GetParameterOutput, error)
}

type SecretsClient interface {
	GetSecretValue(ctx context.Context, params *secretsmanager.GetSecretValueInput, optFns ...func(*secretsmanager.Options)) (*secretsmanager.GetSecretValueOutput, error)
}

// Resolver busca valores no Parameter Store e no Secrets Manager.
type Resolver struct {
	ssm     SSMClient
	secrets SecretsClient
}

// NewResolver monta um resolver com clientes já construídos.
func NewResolver(ssmClient SSMClient, secretsClient SecretsClient) *Resolver {
	return &Resolver{ssm: ssmClient, secrets: secretsClient}
}

// NewAWSResolver cria os clientes reais a partir da configuração compartilhada.
func NewAWSResolver(ctx context.Context, region string) (*Resolver, error) {
	cfg, err := GetAWSConfig(ctx, region)
	if err != nil {
		return nil, fmt.Errorf("falha ao carregar config AWS: %w", err)
	}
	return NewResolver(ssm.NewFromConfig(cfg), secretsmanager.NewFromConfig(cfg)), nil
}

// Parameter lê um parâmetro do SSM, sempre com decriptação.
func (r *Resolver) Parameter(ctx context.Context, path string) (string, error) {
	decrypt := true
	out, err := r.ssm.GetParameter(ctx, &ssm.GetParameterInput{
		Name:           &path,
		WithDecryption: &decrypt,
	})
	if err != nil {
		return "", fmt.Errorf("erro no SSM GetParameter: %w", err)
	}
	if out.Parameter == nil || out.Parameter.Value == nil {
		return "", fmt.Errorf("parâmetro '%s' sem valor", path)
	}
	return *out.Parameter.Value, nil
}

// Secret lê um segredo. A forma "id#campo" extrai um campo de um segredo JSON.
func (r *Resolver) Secret(ctx context.Context, ref string) (string, error) {
	secretID, field, hasField := strings.Cut(ref, "#")

	out, err := r.secrets.GetSecretValue(ctx, &secretsmanager.GetSecretValueInput{
		SecretId: &secretID,
	})
	if err != nil {
		return "", fmt.Errorf("erro no SecretsManager: %w", err)
	}
	if out.SecretString == nil {
		return "", fmt.Errorf("segredo '%s' sem SecretString", secretID)
	}
	val := *out.SecretString
	if !hasField {
		return val, nil
	}

	var data map[string]interface{}
	if err := json.Unmarshal([]byte(val), &data); err != nil {
		return "", fmt.Errorf("segredo '%s' não é JSON: %w", secretID, err)
	}
	v, ok := data[field]
	if !ok {
		return "", fmt.Errorf("campo '%s' ausente no segredo '%s'", field, secretID)
	}
	return fmt.Sprintf("%v", v), nil
}
