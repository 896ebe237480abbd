package injector

import (
	"context"
	"fmt"
	"os"
	"reflect"
	"regexp"
	"strconv"
	"strings"
	"sync"

	"github.com/raywall/fast-data-interface/pkg/secrets"
)

// Regex para capturar padrões ${tipo.chave}
// Ex: ${env.API_KEY}, ${ssm./app/config}, ${secret.db#password}
var pattern = regexp.MustCompile(`\$\{(env|ssm|secret)\.([^}]+)\}`)

// ValueResolver resolve referências a SSM e Secrets Manager.
type ValueResolver interface {
	Parameter(ctx context.Context, path string) (string, error)
	Secret(ctx context.Context, ref string) (string, error)
}

type Injector struct {
	mu       sync.Mutex
	resolver ValueResolver
	factory  func(ctx context.Context) (ValueResolver, error)
}

type Option func(*Injector)

// WithResolver fixa o resolver usado para ${ssm.*} e ${secret.*}.
func WithResolver(r ValueResolver) Option {
	return func(i *Injector) { i.resolver = r }
}

// New cria um injector. Sem WithResolver, os clientes AWS só são criados
// na primeira referência a ssm/secret.
func New(opts ...Option) *Injector {
	i := &Injector{
		factory: func(ctx context.Context) (ValueResolver, error) {
			return secrets.NewAWSResolver(ctx, os.Getenv("AWS_REGION"))
		},
	}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

func (i *Injector) Inject(ctx context.Context, target interface{}) error {
	v := reflect.ValueOf(target)
	if v.Kind() != reflect.Ptr || v.IsNil() {
		return fmt.Errorf("target deve ser um ponteiro para struct não nulo")
	}
	return i.injectRecursive(ctx, v.Elem())
}

func (i *Injector) injectRecursive(ctx context.Context, v reflect.Value) error {
	switch v.Kind() {
	case reflect.Struct:
		t := v.Type()
		for k := 0; k < t.NumField(); k++ {
			field := t.Field(k)
			value := v.Field(k)
			if !field.IsExported() {
				continue
			}

			// 1. Processa Tags (env:"...")
			if err := processStructTag(field, value); err != nil {
				return err
			}

			// 2. Processa Strings com Interpolação "${...}"
			if value.Kind() == reflect.String && value.CanSet() {
				newValue, err := i.interpolateString(ctx, value.String())
				if err != nil {
					return fmt.Errorf("campo '%s': %w", field.Name, err)
				}
				value.SetString(newValue)
				continue
			}

			// 3. Recursão
			if err := i.injectRecursive(ctx, value); err != nil {
				return err
			}
		}

	case reflect.Map:
		if v.Type().Key().Kind() == reflect.String && !v.IsNil() {
			return i.injectMap(ctx, v)
		}

	case reflect.Ptr:
		if !v.IsNil() {
			return i.injectRecursive(ctx, v.Elem())
		}

	case reflect.Slice:
		for j := 0; j < v.Len(); j++ {
			elem := v.Index(j)
			if elem.Kind() == reflect.String && elem.CanSet() {
				newValue, err := i.interpolateString(ctx, elem.String())
				if err != nil {
					return err
				}
				elem.SetString(newValue)
				continue
			}
			if err := i.injectRecursive(ctx, elem); err != nil {
				return err
			}
		}
	}
	return nil
}

// processStructTag sobrescreve o campo com a variável de ambiente da tag env.
func processStructTag(field reflect.StructField, value reflect.Value) error {
	tag := field.Tag.Get("env")
	if tag == "" || !value.CanSet() {
		return nil
	}
	val, exists := os.LookupEnv(tag)
	if !exists {
		return nil
	}
	switch value.Kind() {
	case reflect.String:
		value.SetString(val)
	case reflect.Bool:
		b, err := strconv.ParseBool(val)
		if err != nil {
			return fmt.Errorf("variável %s: %w", tag, err)
		}
		value.SetBool(b)
	case reflect.Int, reflect.Int32, reflect.Int64:
		n, err := strconv.ParseInt(val, 10, 64)
		if err != nil {
			return fmt.Errorf("variável %s: %w", tag, err)
		}
		value.SetInt(n)
	}
	return nil
}

// interpolateString realiza a substituição baseada em Regex
func (i *Injector) interpolateString(ctx context.Context, input string) (string, error) {
	if !strings.Contains(input, "${") {
		return input, nil
	}

	var err error
	result := pattern.ReplaceAllStringFunc(input, func(match string) string {
		if err != nil {
			return match
		}
		sub := pattern.FindStringSubmatch(match)
		val, resolveErr := i.fetchValue(ctx, sub[1], sub[2])
		if resolveErr != nil {
			err = resolveErr
			return match
		}
		return val
	})

	return result, err
}

// injectMap lida com mapas dinâmicos
func (i *Injector) injectMap(ctx context.Context, v reflect.Value) error {
	iter := v.MapRange()
	updates := make(map[string]reflect.Value)

	for iter.Next() {
		key := iter.Key()
		elem := iter.Value()
		if elem.Kind() == reflect.Interface {
			elem = elem.Elem()
		}
		if !elem.IsValid() {
			continue
		}

		switch elem.Kind() {
		case reflect.String:
			newVal, err := i.interpolateString(ctx, elem.String())
			if err != nil {
				return fmt.Errorf("chave '%s': %w", key.String(), err)
			}
			updates[key.String()] = reflect.ValueOf(newVal).Convert(v.Type().Elem())
		case reflect.Map:
			if err := i.injectRecursive(ctx, elem); err != nil {
				return err
			}
		}
	}

	for k, val := range updates {
		v.SetMapIndex(reflect.ValueOf(k).Convert(v.Type().Key()), val)
	}
	return nil
}

// fetchValue centraliza a busca de dados
func (i *Injector) fetchValue(ctx context.Context, sourceType, key string) (string, error) {
	switch sourceType {
	case "env":
		// Variável não encontrada resulta em vazio
		return os.Getenv(key), nil

	case "ssm":
		r, err := i.getResolver(ctx)
		if err != nil {
			return "", err
		}
		return r.Parameter(ctx, key)

	case "secret":
		r, err := i.getResolver(ctx)
		if err != nil {
			return "", err
		}
		return r.Secret(ctx, key)
	}

	return "", fmt.Errorf("fonte desconhecida '%s'", sourceType)
}

func (i *Injector) getResolver(ctx context.Context) (ValueResolver, error) {
	i.mu.Lock()
	defer i.mu.Unlock()
	if i.resolver != nil {
		return i.resolver, nil
	}
	r, err := i.factory(ctx)
	if err != nil {
		return nil, err
	}
	i.resolver = r
	return r, nil
}
