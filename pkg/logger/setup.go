package logger

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/raywall/fast-data-interface/pkg/config"
	"github.com/rs/zerolog"
)

type options struct {
	out     io.Writer
	service string
}

type Option func(*options)

// WithOutput troca o destino dos logs (padrão: stdout).
func WithOutput(w io.Writer) Option {
	return func(o *options) { o.out = w }
}

// WithService adiciona o campo "service" em todas as entradas.
func WithService(name string) Option {
	return func(o *options) { o.service = name }
}

// Configure inicializa o logger global baseando-se na configuração do arquivo.
func Configure(cfg config.LoggingConf, opts ...Option) zerolog.Logger {
	o := options{out: os.Stdout}
	for _, opt := range opts {
		opt(&o)
	}

	// Define o nível de log (default: info)
	level, err := zerolog.ParseLevel(strings.ToLower(cfg.Level))
	if err != nil || cfg.Level == "" {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	// JSON para produção, Console "bonito" para local se solicitado
	output := o.out
	if !cfg.Enabled {
		output = io.Discard
	} else if cfg.Format == "console" {
		output = zerolog.ConsoleWriter{Out: o.out, TimeFormat: time.RFC3339}
	}

	ctx := zerolog.New(output).With().Timestamp()
	if o.service != "" {
		ctx = ctx.Str("service", o.service)
	}
	return ctx.Logger()
}
