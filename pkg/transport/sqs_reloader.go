package transport

import (
	"context"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// SQSClient define a interface necessária para o reloader (permite Mocking)
type SQSClient interface {
	ReceiveMessage(ctx context.Context, params *sqs.ReceiveMessageInput, optFns ...func(*sqs.Options)) (*sqs.ReceiveMessageOutput, error)
	DeleteMessage(ctx context.Context, params *sqs.DeleteMessageInput, optFns ...func(*sqs.Options)) (*sqs.DeleteMessageOutput, error)
}

// Reloader define a interface para recarregar o engine
type Reloader interface {
	Reload(ctx context.Context) error
}

// SQSReloader gerencia o loop de verificação do SQS
type SQSReloader struct {
	client   SQSClient
	queueURL string
	reloader Reloader
	logger   zerolog.Logger
	backoff  time.Duration
}

// NewSQSReloader cria uma nova instância do reloader
func NewSQSReloader(client SQSClient, queueURL string, reloader Reloader) *SQSReloader {
	return &SQSReloader{
		client:   client,
		queueURL: queueURL,
		reloader: reloader,
		logger:   log.With().Str("component", "sqs_reloader").Logger(),
		backoff:  5 * time.Second,
	}
}

// Start inicia o monitoramento (bloqueante). Um lote com várias mensagens
// dispara um único reload; todas são removidas da fila depois.
func (s *SQSReloader) Start(ctx context.Context) {
	if s.queueURL == "" {
		s.logger.Warn().Msg("URL da fila SQS não configurada. Hot Reload desativado.")
		return
	}

	s.logger.Info().Str("queue", s.queueURL).Msg("Monitorando fila SQS para Hot Reload")

	for {
		if ctx.Err() != nil {
			s.logger.Info().Msg("Parando monitoramento SQS")
			return
		}

		out, err := s.client.ReceiveMessage(ctx, &sqs.ReceiveMessageInput{
			QueueUrl:            aws.String(s.queueURL),
			MaxNumberOfMessages: 10,
			WaitTimeSeconds:     20,
		})
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			s.logger.Error().Err(err).Dur("retry_in", s.backoff).Msg("Erro no SQS")
			select {
			case <-ctx.Done():
				return
			case <-time.After(s.backoff):
			}
			continue
		}
		if len(out.Messages) == 0 {
			continue
		}

		s.logger.Info().Int("messages", len(out.Messages)).Msg("Evento de alteração recebido via SQS")
		if err := s.reloader.Reload(ctx); err != nil {
			s.logger.Error().Err(err).Msg("Falha no Reload, configuração anterior mantida")
		} else {
			s.logger.Info().Msg("Hot Reload aplicado")
		}

		for _, msg := range out.Messages {
			if _, err := s.client.DeleteMessage(ctx, &sqs.DeleteMessageInput{
				QueueUrl:      aws.String(s.queueURL),
				ReceiptHandle: msg.ReceiptHandle,
			}); err != nil {
				s.logger.Warn().Err(err).Msg("Falha ao remover mensagem da fila")
			}
		}
	}
}
