package transport

import (
	"bytes"
	"context"
	"encoding/base64"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/google/uuid"
	"github.com/raywall/fast-data-interface/pkg/auth"
	"github.com/raywall/fast-data-interface/pkg/engine"
	"github.com/raywall/fast-data-interface/tableapi"
	"github.com/rs/zerolog"
)

// LambdaHandler adapta eventos do API Gateway para a ServiceEngine
type LambdaHandler struct {
	svc *engine.ServiceEngine
}

// NewLambdaHandler cria uma nova instância do adaptador
func NewLambdaHandler(svc *engine.ServiceEngine) *LambdaHandler {
	return &LambdaHandler{svc: svc}
}

// Handle processa a requisição Lambda
func (h *LambdaHandler) Handle(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	start := time.Now()
	header := requestHeader(req)

	corrID := header.Get(HeaderCorrelationID)
	if corrID == "" {
		corrID = uuid.NewString()
	}

	logger := h.svc.Logger.With().Str(ContextKeyCorrID, corrID).Logger()
	ctx = logger.WithContext(ctx)
	ctx = context.WithValue(ctx, corrIDKey{}, corrID)

	response := h.handleREST(ctx, req, header)

	logger.Info().
		Str("method", req.HTTPMethod).
		Str("path", req.Path).
		Int("status", response.StatusCode).
		Int64("latency_ms", time.Since(start).Milliseconds()).
		Msg("lambda request completed")

	if response.Headers == nil {
		response.Headers = make(map[string]string)
	}
	response.Headers[HeaderCorrelationID] = corrID
	return response, nil
}

func (h *LambdaHandler) handleREST(ctx context.Context, req events.APIGatewayProxyRequest, header http.Header) events.APIGatewayProxyResponse {
	cfg := h.svc.Config()
	table, id := h.route(req)
	if table == "" {
		return events.APIGatewayProxyResponse{StatusCode: http.StatusNotFound}
	}

	if v := h.svc.Verifier(); v != nil {
		p, err := v.FromRequest(header)
		if err != nil {
			zerolog.Ctx(ctx).Warn().Err(err).Msg("autenticação recusada")
			return events.APIGatewayProxyResponse{StatusCode: http.StatusUnauthorized}
		}
		ctx = auth.NewContext(ctx, p)
	}

	body := []byte(req.Body)
	if req.IsBase64Encoded {
		decoded, err := base64.StdEncoding.DecodeString(req.Body)
		if err != nil {
			return events.APIGatewayProxyResponse{StatusCode: http.StatusBadRequest}
		}
		body = decoded
	}

	ctx, cancel := context.WithTimeout(ctx, cfg.Service.GetTimeout())
	defer cancel()

	resp, err := h.svc.Execute(ctx, table, tableapi.Request{
		Method:       req.HTTPMethod,
		ID:           id,
		PartitionKey: header.Get(HeaderPartitionKey),
		Query:        requestQuery(req),
		Body:         bytes.NewReader(body),
	})
	code, respHeader, respBody := render(ctx, resp, err)

	out := events.APIGatewayProxyResponse{
		StatusCode:        code,
		Headers:           map[string]string{},
		MultiValueHeaders: map[string][]string{},
		Body:              string(respBody),
	}
	for k, v := range respHeader {
		if len(v) == 1 {
			out.Headers[k] = v[0]
			continue
		}
		out.MultiValueHeaders[k] = v
	}
	return out
}

// route extrai tabela e id dos path parameters ({table}, {id} ou {proxy+})
// e, na falta deles, do path relativo à rota base.
func (h *LambdaHandler) route(req events.APIGatewayProxyRequest) (string, string) {
	if table := req.PathParameters["table"]; table != "" {
		return table, req.PathParameters["id"]
	}

	rest, ok := req.PathParameters["proxy"]
	if !ok {
		base := strings.TrimSuffix(h.svc.Config().Service.Route, "/")
		rest, ok = strings.CutPrefix(req.Path, base+"/")
		if !ok {
			return "", ""
		}
	}

	parts := strings.Split(strings.Trim(rest, "/"), "/")
	switch len(parts) {
	case 1:
		return parts[0], ""
	case 2:
		return parts[0], parts[1]
	}
	return "", ""
}

func requestHeader(req events.APIGatewayProxyRequest) http.Header {
	header := http.Header{}
	for k, values := range req.MultiValueHeaders {
		for _, v := range values {
			header.Add(k, v)
		}
	}
	for k, v := range req.Headers {
		if header.Get(k) == "" {
			header.Set(k, v)
		}
	}
	return header
}

func requestQuery(req events.APIGatewayProxyRequest) url.Values {
	query := url.Values{}
	for k, values := range req.MultiValueQueryStringParameters {
		query[k] = append([]string(nil), values...)
	}
	for k, v := range req.QueryStringParameters {
		if _, ok := query[k]; !ok {
			query.Set(k, v)
		}
	}
	return query
}
