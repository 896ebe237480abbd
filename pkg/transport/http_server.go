package transport

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/raywall/fast-data-interface/pkg/auth"
	"github.com/raywall/fast-data-interface/pkg/engine"
	"github.com/raywall/fast-data-interface/tableapi"
	"github.com/rs/zerolog"
)

const (
	HeaderCorrelationID = "x-correlation-id"
	HeaderLatency       = "x-latency-ms"
	HeaderPartitionKey  = "X-Partition-Key"
	ContextKeyCorrID    = "correlation_id"
)

type corrIDKey struct{}

// CorrelationID devolve o id de correlação da requisição.
func CorrelationID(ctx context.Context) string {
	id, _ := ctx.Value(corrIDKey{}).(string)
	return id
}

// StartHTTPServer sobe o servidor e bloqueia até ctx ser cancelado.
func StartHTTPServer(ctx context.Context, svc *engine.ServiceEngine) error {
	cfg := svc.Config()
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Service.Port),
		Handler:           NewRouter(svc),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		svc.Logger.Info().Msgf("Servidor HTTP ouvindo em %s", srv.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		svc.Logger.Info().Msg("Encerrando servidor HTTP")
		return srv.Shutdown(shutdownCtx)
	}
}

// NewRouter monta as rotas {route}/{table} e {route}/{table}/{id}, além de
// /health e do endpoint de métricas quando Prometheus está habilitado.
// A rota base é fixada na inicialização; reloads trocam apenas as tabelas.
func NewRouter(svc *engine.ServiceEngine) http.Handler {
	r := mux.NewRouter()
	r.HandleFunc("/health", healthHandler(svc)).Methods(http.MethodGet)
	if svc.MetricsHandler != nil {
		r.Handle(svc.MetricsPath, svc.MetricsHandler).Methods(http.MethodGet)
	}

	base := strings.TrimSuffix(svc.Config().Service.Route, "/")
	h := authMiddleware(svc)(tableHandler(svc))
	r.Handle(base+"/{table}", h)
	r.Handle(base+"/{table}/{id}", h)

	return ObservabilityMiddleware(svc.Logger)(CORSMiddleware(svc)(r))
}

func healthHandler(svc *engine.ServiceEngine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = fmt.Fprintf(w, `{"status":"ok","tables":%d}`, len(svc.Tables()))
	}
}

// authMiddleware consulta o verifier ativo a cada requisição, assim um
// reload que liga ou desliga auth vale imediatamente.
func authMiddleware(svc *engine.ServiceEngine) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			auth.Middleware(svc.Verifier())(next).ServeHTTP(w, r)
		})
	}
}

func tableHandler(svc *engine.ServiceEngine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), svc.Config().Service.GetTimeout())
		defer cancel()

		vars := mux.Vars(r)
		req := tableapi.Request{
			Method:       r.Method,
			ID:           vars["id"],
			PartitionKey: r.Header.Get(HeaderPartitionKey),
			Query:        r.URL.Query(),
			Body:         r.Body,
		}
		defer r.Body.Close()

		resp, err := svc.Execute(ctx, vars["table"], req)
		code, header, body := render(ctx, resp, err)

		mergeHeaders(w.Header(), header)
		w.WriteHeader(code)
		if body != nil {
			_, _ = w.Write(body)
		}
	}
}

// mergeHeaders copia src em dst. Access-Control-Expose-Headers é somado ao
// valor já definido pelo CORS, sem repetir nomes.
func mergeHeaders(dst, src http.Header) {
	for k, v := range src {
		if k != tableapi.HeaderExposeHeaders || dst.Get(k) == "" {
			dst[k] = v
			continue
		}
		names := strings.Split(dst.Get(k), ",")
		seen := make(map[string]bool, len(names))
		for i, n := range names {
			names[i] = strings.TrimSpace(n)
			seen[strings.ToLower(names[i])] = true
		}
		for _, value := range v {
			for _, n := range strings.Split(value, ",") {
				n = strings.TrimSpace(n)
				if n != "" && !seen[strings.ToLower(n)] {
					seen[strings.ToLower(n)] = true
					names = append(names, n)
				}
			}
		}
		dst.Set(k, strings.Join(names, ", "))
	}
}

// CORSMiddleware responde preflights e adiciona os headers CORS conforme
// service.cors.allowed_origins (vazio libera qualquer origem).
func CORSMiddleware(svc *engine.ServiceEngine) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			if origin == "" {
				next.ServeHTTP(w, r)
				return
			}

			allowed := allowOrigin(svc.Config().Service.CORS.AllowedOrigins, origin)
			if allowed != "" {
				h := w.Header()
				h.Set("Access-Control-Allow-Origin", allowed)
				h.Add("Vary", "Origin")
				h.Set("Access-Control-Expose-Headers", tableapi.HeaderTotalCount+", "+HeaderCorrelationID)
			}

			if r.Method == http.MethodOptions && r.Header.Get("Access-Control-Request-Method") != "" {
				if allowed != "" {
					h := w.Header()
					h.Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
					h.Set("Access-Control-Allow-Headers", "Authorization, Content-Type, "+HeaderPartitionKey+", "+HeaderCorrelationID)
					h.Set("Access-Control-Max-Age", "600")
				}
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func allowOrigin(allowed []string, origin string) string {
	if len(allowed) == 0 {
		return "*"
	}
	for _, a := range allowed {
		if a == "*" || strings.EqualFold(a, origin) {
			return origin
		}
	}
	return ""
}

type responseWriterWrapper struct {
	http.ResponseWriter
	statusCode  int
	startTime   time.Time
	wroteHeader bool
}

func (rw *responseWriterWrapper) WriteHeader(code int) {
	if rw.wroteHeader {
		return
	}
	rw.statusCode = code
	duration := time.Since(rw.startTime)
	rw.Header().Set(HeaderLatency, fmt.Sprintf("%d", duration.Milliseconds()))
	rw.ResponseWriter.WriteHeader(code)
	rw.wroteHeader = true
}

func (rw *responseWriterWrapper) Write(b []byte) (int, error) {
	if !rw.wroteHeader {
		rw.WriteHeader(http.StatusOK)
	}
	return rw.ResponseWriter.Write(b)
}

// ObservabilityMiddleware propaga o correlation id, anexa um logger com ele
// ao contexto e registra cada requisição concluída.
func ObservabilityMiddleware(base zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			corrID := r.Header.Get(HeaderCorrelationID)
			if corrID == "" {
				corrID = uuid.NewString()
			}
			w.Header().Set(HeaderCorrelationID, corrID)

			logger := base.With().Str(ContextKeyCorrID, corrID).Logger()
			ctx := logger.WithContext(r.Context())
			ctx = context.WithValue(ctx, corrIDKey{}, corrID)

			wrapper := &responseWriterWrapper{
				ResponseWriter: w,
				statusCode:     http.StatusOK,
				startTime:      start,
			}

			next.ServeHTTP(wrapper, r.WithContext(ctx))

			logger.Info().
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status", wrapper.statusCode).
				Int64("latency_ms", time.Since(start).Milliseconds()).
				Msg("request completed")
		})
	}
}
