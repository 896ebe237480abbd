package engine

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/raywall/fast-data-interface/pkg/access"
	"github.com/raywall/fast-data-interface/pkg/auth"
	"github.com/raywall/fast-data-interface/pkg/config"
	"github.com/raywall/fast-data-interface/pkg/idgen"
	"github.com/raywall/fast-data-interface/pkg/logger"
	"github.com/raywall/fast-data-interface/pkg/metrics"
	"github.com/raywall/fast-data-interface/pkg/observability"
	"github.com/raywall/fast-data-interface/pkg/secrets"
	"github.com/raywall/fast-data-interface/tableapi"
	"github.com/rs/zerolog"
)

// ErrUnknownTable é devolvido quando a rota não corresponde a nenhuma tabela.
var ErrUnknownTable = errors.New("tabela desconhecida")

// StatusOf traduz um erro de execução em status HTTP.
func StatusOf(err error) int {
	var fe *tableapi.FieldError
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, ErrUnknownTable):
		return http.StatusNotFound
	case errors.As(err, &fe):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

// runtime é o estado imutável montado a partir de uma configuração.
// Um reload monta um novo runtime e o troca atomicamente.
type runtime struct {
	cfg      *config.ServiceConfig
	tables   map[string]*tableapi.Translator
	verifier *auth.Verifier
	keys     *auth.KeyManager
}

func (rt *runtime) stop() {
	if rt != nil && rt.keys != nil {
		rt.keys.Stop()
	}
}

type ServiceEngine struct {
	ConfigSource   string
	Logger         zerolog.Logger
	Metrics        metrics.Provider
	MetricsHandler http.Handler
	MetricsPath    string
	Recorder       *metrics.Recorder

	loader  Loader
	stores  StoreFactory
	secrets SecretSource
	state   atomic.Pointer[runtime]
}

// Option customiza dependências do engine (usado principalmente em testes).
type Option func(*ServiceEngine)

func WithLoader(l Loader) Option {
	return func(se *ServiceEngine) { se.loader = l }
}

func WithStoreFactory(f StoreFactory) Option {
	return func(se *ServiceEngine) { se.stores = f }
}

func WithSecretSource(s SecretSource) Option {
	return func(se *ServiceEngine) { se.secrets = s }
}

func WithLogger(l zerolog.Logger) Option {
	return func(se *ServiceEngine) { se.Logger = l }
}

func NewServiceEngine(ctx context.Context, cfg *config.ServiceConfig, configSource string, opts ...Option) (*ServiceEngine, error) {
	obs, err := observability.SetupMetrics(cfg.Service.Metrics)
	if err != nil {
		return nil, fmt.Errorf("falha métricas: %w", err)
	}

	se := &ServiceEngine{
		ConfigSource:   configSource,
		Logger:         logger.Configure(cfg.Service.Logging, logger.WithService(cfg.Service.Name)),
		Metrics:        obs.Provider,
		MetricsHandler: obs.MetricsHandler,
		MetricsPath:    obs.MetricsPath,
		Recorder:       metrics.NewRecorder(obs.Provider),
	}
	for _, opt := range opts {
		opt(se)
	}

	if se.loader == nil {
		se.loader = config.NewUniversalLoader()
	}
	if se.stores == nil {
		se.stores, err = NewStoreFactory(ctx, cfg.Store)
		if err != nil {
			return nil, fmt.Errorf("falha ao iniciar stores: %w", err)
		}
	}

	rt, err := se.build(ctx, cfg)
	if err != nil {
		return nil, err
	}
	se.state.Store(rt)

	se.Logger.Info().
		Int("tables", len(rt.tables)).
		Str("backend", cfg.Store.StoreBackend()).
		Bool("auth", rt.verifier != nil).
		Msg("engine iniciado")
	return se, nil
}

func (se *ServiceEngine) build(ctx context.Context, cfg *config.ServiceConfig) (*runtime, error) {
	rt := &runtime{cfg: cfg, tables: make(map[string]*tableapi.Translator, len(cfg.Tables))}
	factory := access.NewFactory(cfg.Access)

	for _, tbl := range cfg.Tables {
		tr, err := se.translator(ctx, factory, cfg.Store, tbl)
		if err != nil {
			return nil, fmt.Errorf("tabela '%s': %w", tbl.Name, err)
		}
		rt.tables[tbl.Name] = tr
	}

	if cfg.Auth.Enabled {
		keys, mgr, err := se.keySource(ctx, cfg.Auth, cfg.Store.Region)
		if err != nil {
			return nil, err
		}
		rt.keys = mgr
		rt.verifier = auth.NewVerifier(keys,
			auth.WithIssuer(cfg.Auth.Issuer),
			auth.WithAudience(cfg.Auth.Audience),
			auth.WithRolesClaim(cfg.Auth.RolesClaim),
		)
	}
	return rt, nil
}

func (se *ServiceEngine) translator(ctx context.Context, factory *access.Factory, storeCfg config.StoreConf, tbl config.TableConf) (*tableapi.Translator, error) {
	store, err := se.stores.Store(ctx, tbl)
	if err != nil {
		return nil, err
	}
	hints, err := tbl.FieldHints()
	if err != nil {
		return nil, err
	}
	gen, err := idgen.New(tbl.IDGenerator)
	if err != nil {
		return nil, err
	}
	ctrl, err := factory.For(tbl)
	if err != nil {
		return nil, err
	}

	opts := []tableapi.Option{
		tableapi.WithTypeHints(hints),
		tableapi.WithIDGenerator(gen),
		tableapi.WithDefaultPartition(tbl.DefaultPartition),
		tableapi.WithPartitionScope(tbl.ScopeToPartition),
		tableapi.WithDeleteFieldExposure(tbl.Access.ExposeFieldsOnDelete),
		tableapi.WithPageSize(storeCfg.PageSize),
	}
	if ctrl != nil {
		opts = append(opts, tableapi.WithAccessController(ctrl))
	}
	return tableapi.New(tbl.Name, store, opts...), nil
}

// keySource devolve o segredo estático ou, com secret_ref, um KeyManager
// que relê o segredo periodicamente.
func (se *ServiceEngine) keySource(ctx context.Context, cfg config.AuthConf, region string) (auth.KeySource, *auth.KeyManager, error) {
	if cfg.SecretRef == "" {
		return auth.StaticKey(cfg.Secret), nil, nil
	}

	if se.secrets == nil {
		r, err := secrets.NewAWSResolver(ctx, region)
		if err != nil {
			return nil, nil, fmt.Errorf("falha ao iniciar resolver de segredos: %w", err)
		}
		se.secrets = r
	}

	src, ttl := se.secrets, cfg.GetRefreshInterval()
	mgr := auth.NewKeyManager(func(ctx context.Context) (string, time.Duration, error) {
		key, err := src.Secret(ctx, cfg.SecretRef)
		return key, ttl, err
	})
	if err := mgr.Start(context.WithoutCancel(ctx)); err != nil {
		return nil, nil, err
	}
	return mgr, mgr, nil
}

// Config devolve a configuração ativa.
func (se *ServiceEngine) Config() *config.ServiceConfig {
	return se.state.Load().cfg
}

// Verifier devolve o verificador JWT ativo; nil quando auth está desligado.
func (se *ServiceEngine) Verifier() *auth.Verifier {
	return se.state.Load().verifier
}

// Translator devolve o tradutor da tabela lógica.
func (se *ServiceEngine) Translator(table string) (*tableapi.Translator, bool) {
	tr, ok := se.state.Load().tables[table]
	return tr, ok
}

// Tables lista as tabelas expostas, em ordem alfabética.
func (se *ServiceEngine) Tables() []string {
	tables := se.state.Load().tables
	names := make([]string, 0, len(tables))
	for name := range tables {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Execute despacha req para a tabela e registra as métricas da chamada.
func (se *ServiceEngine) Execute(ctx context.Context, table string, req tableapi.Request) (*tableapi.Response, error) {
	tr, ok := se.Translator(table)
	if !ok {
		return nil, fmt.Errorf("%w: '%s'", ErrUnknownTable, table)
	}

	start := time.Now()
	resp, err := tr.Handle(ctx, req)

	code := StatusOf(err)
	if resp != nil {
		code = resp.StatusCode
		if total, convErr := strconv.Atoi(resp.Header.Get(tableapi.HeaderTotalCount)); convErr == nil {
			se.Recorder.ObserveCollection(table, total)
		}
	}
	se.Recorder.ObserveRequest(table, req.Method, code, time.Since(start))
	return resp, err
}

// Reload relê a configuração da origem e troca o runtime ativo. Logging e
// métricas continuam com a configuração de inicialização.
func (se *ServiceEngine) Reload(ctx context.Context) error {
	se.Logger.Info().Str("source", se.ConfigSource).Msg("hot reload iniciado")

	newCfg, err := se.loader.Load(ctx, se.ConfigSource)
	if err != nil {
		se.Recorder.ObserveReload(false)
		return fmt.Errorf("falha ao carregar nova configuração: %w", err)
	}

	rt, err := se.build(ctx, newCfg)
	if err != nil {
		se.Recorder.ObserveReload(false)
		return fmt.Errorf("falha ao aplicar nova configuração: %w", err)
	}

	old := se.state.Swap(rt)
	old.stop()

	se.Recorder.ObserveReload(true)
	se.Logger.Info().Int("tables", len(rt.tables)).Msg("hot reload concluído")
	return nil
}

// Shutdown encerra a renovação de segredos.
func (se *ServiceEngine) Shutdown(_ context.Context) error {
	se.state.Load().stop()
	return nil
}
