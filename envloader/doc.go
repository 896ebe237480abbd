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
//
// Package envloader fornece um utilitário simples para carregar variáveis de
// ambiente diretamente para campos de uma struct Go, incluindo suporte
// para tags de ambiente (`env`) e valores padrão (`envDefault`).
//
// Visão Geral:
// O `envloader` simplifica a gestão de configurações em aplicações Go.
// Ele utiliza reflection para inspecionar a struct de configuração e mapear
// automaticamente variáveis de ambiente para os campos tipados. Suporta tipos
// básicos como string, int, uint, bool e float, time.Duration, slices de
// tipos básicos, ponteiros para escalares e structs aninhadas.
//
// Funcionalidades Principais:
// - Mapeamento por Tag: Usa a tag `env:"VAR_NAME"` para encontrar a variável.
// - Valores Padrão: Usa a tag `envDefault:"value"` se a variável não estiver definida.
// - Obrigatoriedade: `envRequired:"true"` retorna MissingEnvError quando não há valor.
// - Listas: `envSeparator:";"` define o separador de slices (padrão ",").
// - Suporte a Aninhamento: Processa structs aninhadas e ponteiros para structs.
// - Erros Tipados: InvalidConfigError, FieldError, UnsupportedTypeError e MissingEnvError, comparáveis via errors.Is com ErrInvalidConfig, ErrUnsupportedType e ErrMissingEnv.
//
// Exemplos de Uso:
//
// Exemplo Básico:
// Demonstra como carregar uma configuração simples.
//
//   // Assumindo que FDI_CONFIG_FILE está definida como "config.yaml"
//   type Config struct {
//       ConfigFile string        `env:"FDI_CONFIG_FILE" envRequired:"true"`
//       Timeout    time.Duration `env:"FDI_TIMEOUT" envDefault:"5s"`
//       Tables     []string      `env:"FDI_TABLES"`
//   }
//
//   var cfg Config
//   if err := envloader.Load(&cfg); err != nil {
//       log.Fatal(err)
//   }
//
// Exemplo com Struct Aninhada:
//
//   type StoreConfig struct {
//       Backend string `env:"FDI_STORE_BACKEND" envDefault:"dynamodb"`
//   }
//   type AppConfig struct {
//       Store StoreConfig
//   }
//
//   var appCfg AppConfig
//   if err := envloader.Load(&appCfg); err != nil {
//       log.Fatal(err)
//   }
//
// Configuração:
// O pacote requer que a função `Load` receba um ponteiro para a struct de configuração.
// As variáveis de ambiente devem estar definidas no sistema operacional antes da execução de `Load`.
package envloader