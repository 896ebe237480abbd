package main

import (
	"errors"

	"github.com/raywall/fast-data-interface/envloader"
	"github.com/spf13/cobra"
)

// bootEnv são as variáveis lidas antes da configuração do serviço.
type bootEnv struct {
	ConfigPath string `env:"CONFIG_FILE_PATH"`
	Format     string `env:"OUTPUT_FORMAT" envDefault:"text"`
}

type rootOptions struct {
	ConfigPath string
	Format     string
}

// NewRootCommand monta a CLI. Sem subcomando o binário sobe o serviço,
// que é como o runtime Lambda o executa.
func NewRootCommand() *cobra.Command {
	var env bootEnv
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:           "fdi",
		Short:         "Fast Data Interface - API REST declarativa sobre tabelas DynamoDB",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := envloader.Load(&env); err != nil {
				return err
			}
			if opts.ConfigPath == "" {
				opts.ConfigPath = env.ConfigPath
			}
			if !cmd.Flags().Changed("format") {
				opts.Format = env.Format
			}
			if opts.Format != "text" && opts.Format != "json" {
				return errors.New("format deve ser 'text' ou 'json'")
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), opts)
		},
	}

	cmd.PersistentFlags().StringVarP(&opts.ConfigPath, "config", "c", "", "arquivo de configuração, s3:// ou dynamodb:// (padrão $CONFIG_FILE_PATH)")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "formato de saída (text|json)")

	cmd.AddCommand(newServeCommand(opts))
	cmd.AddCommand(newValidateCommand(opts))
	cmd.AddCommand(newTokenCommand(opts))
	return cmd
}

func requireConfig(opts *rootOptions) error {
	if opts.ConfigPath == "" {
		return errors.New("configuração não informada: use --config ou CONFIG_FILE_PATH")
	}
	return nil
}
