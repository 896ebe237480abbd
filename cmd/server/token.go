package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/raywall/fast-data-interface/pkg/auth"
	"github.com/raywall/fast-data-interface/pkg/config"
	"github.com/spf13/cobra"
)

type tokenOptions struct {
	Secret  string
	Subject string
	Roles   []string
	TTL     time.Duration
}

// newTokenCommand emite tokens HS256 para testes locais.
func newTokenCommand(opts *rootOptions) *cobra.Command {
	tOpts := &tokenOptions{}

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Emite um token JWT de desenvolvimento",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			secret := tOpts.Secret
			if secret == "" && opts.ConfigPath != "" {
				cfg, err := config.Load(cmd.Context(), opts.ConfigPath)
				if err != nil {
					return err
				}
				secret = cfg.Auth.Secret
			}
			if secret == "" {
				return errors.New("informe --secret ou uma configuração com auth.secret")
			}

			token, err := auth.NewToken(secret, tOpts.Subject, tOpts.Roles, tOpts.TTL)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}

	cmd.Flags().StringVar(&tOpts.Secret, "secret", "", "segredo HMAC (padrão: auth.secret da configuração)")
	cmd.Flags().StringVar(&tOpts.Subject, "sub", "dev", "subject do token")
	cmd.Flags().StringSliceVar(&tOpts.Roles, "role", nil, "roles do token (repetível)")
	cmd.Flags().DurationVar(&tOpts.TTL, "ttl", time.Hour, "validade do token")
	return cmd
}
