package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const schemaPath = "../../configs/af2conf.v1.schema.json"

func writeConfig(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadAndValidate(t *testing.T) {
	path := writeConfig(t, `
version: "1"
job:
  name: demo
  sequence: MKTAYIAKQR
search:
  use_templates: true
  templates:
    - 1abc_A
sweep:
  depths: [32, 64]
  repetitions: 5
  num_recycles: 1
  seed: 42
runner:
  bin_path: /usr/local/bin/af2-runner
output:
  dir: results
`)

	cfg, err := LoadAndValidate(path, schemaPath)
	require.NoError(t, err)

	assert.Equal(t, "demo", cfg.Job.Name)
	assert.Equal(t, "MKTAYIAKQR", cfg.Job.Sequence)
	assert.True(t, cfg.Search.UseTemplates)
	assert.Equal(t, []string{"1abc_A"}, cfg.Search.Templates)
	assert.Equal(t, []int{32, 64}, cfg.Sweep.Depths)
	assert.Equal(t, 5, cfg.Sweep.Repetitions)
	assert.Equal(t, int64(42), cfg.Sweep.Seed)
	assert.Equal(t, "/usr/local/bin/af2-runner", cfg.Runner.BinPath)
	assert.Equal(t, "results", cfg.Output.Dir)
}

func TestLoadAndValidate_MissingRunner(t *testing.T) {
	path := writeConfig(t, `
version: "1"
job:
  name: demo
  sequence: MKT
sweep:
  depths: [8]
  repetitions: 1
`)

	_, err := LoadAndValidate(path, schemaPath)
	assert.Error(t, err)
}

func TestLoadAndValidate_BadDepth(t *testing.T) {
	path := writeConfig(t, `
version: "1"
job:
  name: demo
  sequence: MKT
sweep:
  depths: [1]
  repetitions: 1
runner:
  bin_path: /usr/local/bin/af2-runner
`)

	_, err := LoadAndValidate(path, schemaPath)
	assert.Error(t, err)
}

func TestLoadAndValidate_InvalidYAML(t *testing.T) {
	path := writeConfig(t, "version: [unclosed")

	_, err := LoadAndValidate(path, schemaPath)
	assert.Error(t, err)
}

func TestLoadAndValidate_MissingFile(t *testing.T) {
	_, err := LoadAndValidate(filepath.Join(t.TempDir(), "absent.yaml"), schemaPath)
	assert.Error(t, err)
}
