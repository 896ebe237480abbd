// Copyright 2025 Raywall Malheiros de Souza
// Licensed under the Mozilla Public License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//	https://www.mozilla.org/en-US/MPL/2.0/
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
package envloader

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
)

// Sentinelas comparáveis com errors.Is contra os erros tipados abaixo.
var (
	ErrInvalidConfig   = errors.New("envloader: invalid config")
	ErrUnsupportedType = errors.New("envloader: unsupported type")
	ErrMissingEnv      = errors.New("envloader: missing env")
)

// InvalidConfigError é retornado quando Load não recebe um ponteiro para struct.
type InvalidConfigError struct {
	Value reflect.Type
}

func (e *InvalidConfigError) Error() string {
	if e.Value.Kind() != reflect.Ptr {
		return fmt.Sprintf("envloader: config must be a pointer to struct, got %s", e.Value.Kind())
	}
	return fmt.Sprintf("envloader: config must be a pointer to struct, got pointer to %s", e.Value.Elem().Kind())
}

func (e *InvalidConfigError) Is(target error) bool { return target == ErrInvalidConfig }

// FieldError encapsula a falha de conversão do valor de uma variável.
// Valores de variáveis com nome sensível (SECRET, TOKEN, PASSWORD, KEY)
// não aparecem na mensagem.
type FieldError struct {
	FieldName string
	EnvVar    string
	Value     string
	Err       error
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("envloader: error setting field %s from env %s=%s: %v",
		e.FieldName, e.EnvVar, redact(e.EnvVar, e.Value), e.Err)
}

func (e *FieldError) Unwrap() error {
	return e.Err
}

var sensitiveMarkers = []string{"SECRET", "TOKEN", "PASSWORD", "KEY"}

func redact(envVar, value string) string {
	upper := strings.ToUpper(envVar)
	for _, m := range sensitiveMarkers {
		if strings.Contains(upper, m) {
			return "***"
		}
	}
	return value
}

// UnsupportedTypeError indica um campo cujo tipo o envloader não converte.
type UnsupportedTypeError struct {
	Type reflect.Type
}

func (e *UnsupportedTypeError) Error() string {
	return fmt.Sprintf("envloader: unsupported type %s", e.Type)
}

func (e *UnsupportedTypeError) Is(target error) bool { return target == ErrUnsupportedType }

// MissingEnvError é retornado quando um campo marcado com
// `envRequired:"true"` não tem valor no ambiente nem default.
type MissingEnvError struct {
	FieldName string
	EnvVar    string
}

func (e *MissingEnvError) Error() string {
	return fmt.Sprintf("envloader: required env %s for field %s is not set", e.EnvVar, e.FieldName)
}

func (e *MissingEnvError) Is(target error) bool { return target == ErrMissingEnv }
