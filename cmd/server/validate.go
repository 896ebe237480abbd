package main

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/raywall/fast-data-interface/pkg/config"
	"github.com/raywall/fast-data-interface/pkg/engine"
	"github.com/spf13/cobra"
)

// errInvalidConfig faz o processo sair com código 1 no CI.
var errInvalidConfig = errors.New("configuração inválida")

func newValidateCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Valida estrutura e regras da configuração sem subir o serviço",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requireConfig(opts); err != nil {
				return err
			}
			return runValidate(cmd, opts)
		},
	}
}

func runValidate(cmd *cobra.Command, opts *rootOptions) error {
	out := cmd.OutOrStdout()

	cfg, err := config.Load(cmd.Context(), opts.ConfigPath)
	if err != nil {
		report := &engine.ValidationReport{Errors: []string{err.Error()}}
		if printErr := printReport(cmd, opts, report); printErr != nil {
			return printErr
		}
		return errInvalidConfig
	}

	report, err := engine.Analyze(cfg)
	if err != nil {
		return fmt.Errorf("erro interno do analisador: %w", err)
	}
	if err := printReport(cmd, opts, report); err != nil {
		return err
	}
	if !report.Valid {
		return errInvalidConfig
	}
	if opts.Format == "text" {
		fmt.Fprintf(out, "Configuração válida: %d tabela(s)\n", len(cfg.Tables))
	}
	return nil
}

func printReport(cmd *cobra.Command, opts *rootOptions, report *engine.ValidationReport) error {
	out := cmd.OutOrStdout()
	if opts.Format == "json" {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	}

	for _, e := range report.Errors {
		fmt.Fprintf(out, "ERRO  %s\n", e)
	}
	for _, w := range report.Warnings {
		fmt.Fprintf(out, "AVISO %s\n", w)
	}
	return nil
}
