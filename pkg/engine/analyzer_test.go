package engine

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/raywall/fast-data-interface/pkg/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func containsMsg(msgs []string, part string) bool {
	for _, m := range msgs {
		if strings.Contains(m, part) {
			return true
		}
	}
	return false
}

func TestAnalyze_Detection(t *testing.T) {
	cfg := testConfig("")
	cfg.Tables[1].Access.Rules[0].Allow = "'admin' in " // expressão incompleta
	cfg.Tables = append(cfg.Tables, config.TableConf{
		Name:      "orders",
		TypeHints: map[string]string{"total": "decimal"},
		Access:    config.TableAccessConf{Mode: "casbin"},
	})
	cfg.Access.Casbin.Policy = filepath.Join(t.TempDir(), "missing.csv")

	report, err := Analyze(cfg)
	require.NoError(t, err)

	assert.False(t, report.Valid)
	assert.True(t, containsMsg(report.Errors, "Rule[admins]"))
	assert.True(t, containsMsg(report.Errors, "Tables[orders]"))
	assert.True(t, containsMsg(report.Errors, "Access.Casbin.Policy"))
	assert.True(t, containsMsg(report.Warnings, "Tables[people]: sem controle de acesso"))
	assert.True(t, containsMsg(report.Warnings, "auth desabilitado"))
	assert.True(t, containsMsg(report.Warnings, "seed_file"))
}

func TestAnalyze_Clean(t *testing.T) {
	dir := t.TempDir()
	seed := filepath.Join(dir, "seed.json")
	require.NoError(t, os.WriteFile(seed, []byte(`{}`), 0o600))

	cfg := testConfig(seed)
	cfg.Tables = cfg.Tables[1:]

	report, err := Analyze(cfg)
	require.NoError(t, err)
	assert.True(t, report.Valid)
	assert.Empty(t, report.Errors)
	assert.Empty(t, report.Warnings)
}
