package main

import (
	"context"
	"fmt"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/raywall/fast-data-interface/pkg/config"
	"github.com/raywall/fast-data-interface/pkg/engine"
	"github.com/raywall/fast-data-interface/pkg/secrets"
	"github.com/raywall/fast-data-interface/pkg/transport"
	"github.com/spf13/cobra"
)

var (
	// Variáveis injetáveis para mocking
	serverStarter   = transport.StartHTTPServer
	lambdaStarter   = func(handler interface{}) { lambda.Start(handler) }
	reloaderStarter = startSQSReloader
)

func newServeCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Sobe o serviço no runtime configurado (local ou lambda)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), opts)
		},
	}
}

func runServe(ctx context.Context, opts *rootOptions) error {
	if err := requireConfig(opts); err != nil {
		return err
	}
	return run(ctx, opts.ConfigPath)
}

// run contém a lógica principal testável
func run(ctx context.Context, cfgPath string) error {
	cfg, err := config.Load(ctx, cfgPath)
	if err != nil {
		return err
	}

	svc, err := engine.NewServiceEngine(ctx, cfg, cfgPath)
	if err != nil {
		return err
	}
	defer svc.Shutdown(context.Background())

	if cfg.Reload.SQSQueueURL != "" {
		if err := reloaderStarter(ctx, svc, cfg); err != nil {
			return err
		}
	}

	switch cfg.Service.Runtime {
	case "local":
		return serverStarter(ctx, svc)
	case "lambda":
		handler := transport.NewLambdaHandler(svc)
		lambdaStarter(handler.Handle)
		return nil
	}
	return fmt.Errorf("runtime desconhecido: %s", cfg.Service.Runtime)
}

func startSQSReloader(ctx context.Context, svc *engine.ServiceEngine, cfg *config.ServiceConfig) error {
	awsCfg, err := secrets.GetAWSConfig(ctx, cfg.Store.Region)
	if err != nil {
		return fmt.Errorf("falha ao carregar config AWS para o SQS: %w", err)
	}
	reloader := transport.NewSQSReloader(sqs.NewFromConfig(awsCfg), cfg.Reload.SQSQueueURL, svc)
	go reloader.Start(ctx)
	return nil
}
