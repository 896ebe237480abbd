package config

import "time"

// ServiceConfig representa a estrutura raiz do arquivo de configuração
// (YAML ou TOML) do serviço de dados.
type ServiceConfig struct {
	Version string         `yaml:"version" toml:"version" validate:"required"`
	Service ServiceDetails `yaml:"service" toml:"service" validate:"required"`
	Auth    AuthConf       `yaml:"auth" toml:"auth"`
	Store   StoreConf      `yaml:"store" toml:"store"`
	Access  AccessConf     `yaml:"access" toml:"access"`
	Reload  ReloadConf     `yaml:"reload" toml:"reload"`
	Tables  []TableConf    `yaml:"tables" toml:"tables" validate:"required,min=1,dive"`
}

// ServiceDetails contém os metadados e configurações de runtime do serviço.
type ServiceDetails struct {
	Name    string      `yaml:"name" toml:"name" validate:"required,hostname_rfc1123"`
	Runtime string      `yaml:"runtime" toml:"runtime" validate:"required,oneof=local lambda"`
	Port    int         `yaml:"port" toml:"port" validate:"required_if=Runtime local"`
	Route   string      `yaml:"route" toml:"route" validate:"required,startswith=/"`
	Timeout string      `yaml:"timeout" toml:"timeout"`
	CORS    CORSConf    `yaml:"cors" toml:"cors"`
	Logging LoggingConf `yaml:"logging" toml:"logging"`
	Metrics MetricsConf `yaml:"metrics" toml:"metrics"`
}

type CORSConf struct {
	AllowedOrigins []string `yaml:"allowed_origins" toml:"allowed_origins"`
}

type LoggingConf struct {
	Enabled bool   `yaml:"enabled" toml:"enabled"`
	Level   string `yaml:"level" toml:"level" validate:"omitempty,oneof=debug info warn error"`
	Format  string `yaml:"format" toml:"format" validate:"omitempty,oneof=json console"`
}

type MetricsConf struct {
	Datadog    DatadogConf    `yaml:"datadog" toml:"datadog"`
	Prometheus PrometheusConf `yaml:"prometheus" toml:"prometheus"`
}

type DatadogConf struct {
	Enabled   bool   `yaml:"enabled" toml:"enabled" env:"DD_ENABLED"`
	Addr      string `yaml:"addr" toml:"addr" env:"DD_AGENT_HOST" validate:"required_if=Enabled true"`
	Namespace string `yaml:"namespace" toml:"namespace"`
}

type PrometheusConf struct {
	Enabled   bool   `yaml:"enabled" toml:"enabled"`
	Path      string `yaml:"path" toml:"path" validate:"omitempty,startswith=/"`
	Namespace string `yaml:"namespace" toml:"namespace"`
}

// AuthConf configura a leitura do token Bearer (JWT HMAC).
// SecretRef aponta para um segredo do Secrets Manager ("id" ou "id#campo")
// relido a cada RefreshInterval; tem precedência sobre Secret.
type AuthConf struct {
	Enabled         bool   `yaml:"enabled" toml:"enabled"`
	Secret          string `yaml:"secret" toml:"secret"`
	SecretRef       string `yaml:"secret_ref" toml:"secret_ref"`
	RefreshInterval string `yaml:"refresh_interval" toml:"refresh_interval"`
	Issuer          string `yaml:"issuer" toml:"issuer"`
	Audience        string `yaml:"audience" toml:"audience"`
	RolesClaim      string `yaml:"roles_claim" toml:"roles_claim"`
}

// GetRefreshInterval devolve o intervalo de releitura do segredo (padrão 15m).
func (a AuthConf) GetRefreshInterval() time.Duration {
	d, err := time.ParseDuration(a.RefreshInterval)
	if err != nil || d <= 0 {
		return 15 * time.Minute
	}
	return d
}

// StoreConf escolhe o backend das tabelas.
type StoreConf struct {
	Backend  string `yaml:"backend" toml:"backend" validate:"omitempty,oneof=dynamodb memory"`
	Region   string `yaml:"region" toml:"region"`
	Endpoint string `yaml:"endpoint" toml:"endpoint" validate:"omitempty,url"`
	PageSize int32  `yaml:"page_size" toml:"page_size" validate:"gte=0"`
	SeedFile string `yaml:"seed_file" toml:"seed_file"`
}

// AccessConf guarda a configuração global do RBAC (casbin).
type AccessConf struct {
	Casbin CasbinConf `yaml:"casbin" toml:"casbin"`
}

type CasbinConf struct {
	Model  string `yaml:"model" toml:"model"`
	Policy string `yaml:"policy" toml:"policy"`
}

type ReloadConf struct {
	SQSQueueURL string `yaml:"sqs_queue_url" toml:"sqs_queue_url" validate:"omitempty,url"`
}

// TableConf descreve uma tabela exposta pela API.
type TableConf struct {
	Name             string            `yaml:"name" toml:"name" validate:"required,excludesall=/?#"`
	TableName        string            `yaml:"table_name" toml:"table_name"`
	PartitionKey     string            `yaml:"partition_key" toml:"partition_key"`
	RowKey           string            `yaml:"row_key" toml:"row_key"`
	DefaultPartition string            `yaml:"default_partition" toml:"default_partition"`
	ScopeToPartition bool              `yaml:"scope_to_partition" toml:"scope_to_partition"`
	IDGenerator      string            `yaml:"id_generator" toml:"id_generator" validate:"omitempty,oneof=uuid nanoid"`
	TypeHints        map[string]string `yaml:"type_hints" toml:"type_hints"`
	Access           TableAccessConf   `yaml:"access" toml:"access"`
}

// TableAccessConf define o controlador de acesso da tabela.
type TableAccessConf struct {
	Mode                 string           `yaml:"mode" toml:"mode" validate:"omitempty,oneof=none cel casbin"`
	ExposeFieldsOnDelete bool             `yaml:"expose_fields_on_delete" toml:"expose_fields_on_delete"`
	Rules                []AccessRuleConf `yaml:"rules" toml:"rules" validate:"dive"`
}

// AccessRuleConf é uma regra CEL: a primeira regra cujo `allow` for
// verdadeiro decide o acesso; `fields` vazio libera todos os campos.
type AccessRuleConf struct {
	ID      string   `yaml:"id" toml:"id" validate:"required"`
	Actions []string `yaml:"actions" toml:"actions" validate:"required,min=1,dive,oneof=read write delete create *"`
	Allow   string   `yaml:"allow" toml:"allow" validate:"required"`
	Fields  []string `yaml:"fields" toml:"fields"`
}

func (s ServiceDetails) GetTimeout() time.Duration {
	d, err := time.ParseDuration(s.Timeout)
	if err != nil || d <= 0 {
		return 30 * time.Second
	}
	return d
}

// PhysicalName devolve o nome da tabela no DynamoDB.
func (t TableConf) PhysicalName() string {
	if t.TableName != "" {
		return t.TableName
	}
	return t.Name
}

// StoreBackend devolve o backend efetivo (dynamodb por padrão).
func (s StoreConf) StoreBackend() string {
	if s.Backend == "" {
		return "dynamodb"
	}
	return s.Backend
}
