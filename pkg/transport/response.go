package transport

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/raywall/fast-data-interface/pkg/engine"
	"github.com/raywall/fast-data-interface/tableapi"
	"github.com/rs/zerolog"
)

type errorBody struct {
	Error string `json:"error"`
}

// render converte o resultado do engine em status, headers e corpo JSON.
// Um corpo nil significa resposta sem conteúdo.
func render(ctx context.Context, resp *tableapi.Response, err error) (int, http.Header, []byte) {
	header := http.Header{}
	if err != nil {
		code := engine.StatusOf(err)
		msg := err.Error()

		log := zerolog.Ctx(ctx)
		if code >= http.StatusInternalServerError {
			log.Error().Err(err).Msg("erro na execução da tabela")
			msg = http.StatusText(code)
		} else {
			log.Warn().Err(err).Int("status", code).Msg("requisição rejeitada")
		}
		if errors.Is(err, context.DeadlineExceeded) {
			code, msg = http.StatusGatewayTimeout, http.StatusText(http.StatusGatewayTimeout)
		}

		header.Set("Content-Type", "application/json")
		body, _ := json.Marshal(errorBody{Error: msg})
		return code, header, body
	}

	for k, v := range resp.Header {
		header[k] = v
	}
	if resp.Body == nil {
		return resp.StatusCode, header, nil
	}

	body, mErr := json.Marshal(resp.Body)
	if mErr != nil {
		zerolog.Ctx(ctx).Error().Err(mErr).Msg("falha ao serializar resposta")
		header.Set("Content-Type", "application/json")
		body, _ = json.Marshal(errorBody{Error: http.StatusText(http.StatusInternalServerError)})
		return http.StatusInternalServerError, header, body
	}
	header.Set("Content-Type", "application/json")
	return resp.StatusCode, header, body
}
