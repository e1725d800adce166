package config

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
	return path
}

func TestLoad_YAML(t *testing.T) {
	path := writeFile(t, "worker.yaml", `
command: python
args: ["infer.py", "--config", "{model_config}"]
model_config: models/sam3d.yaml
timeout: 10m
seed: 7
mask_min_cluster: 0.05
env:
  CUDA_VISIBLE_DEVICES: "0"
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "python", cfg.Command)
	assert.Equal(t, []string{"infer.py", "--config", "{model_config}"}, cfg.Args)
	assert.Equal(t, 10*time.Minute, cfg.Timeout)
	assert.Equal(t, "0", cfg.Env["CUDA_VISIBLE_DEVICES"])
	assert.Equal(t, 0.05, cfg.MaskMinCluster)

	cfg.Resolve(Flags{})
	assert.Equal(t, filepath.Join(filepath.Dir(path), "models", "sam3d.yaml"), cfg.ModelConfig)
	require.NotNil(t, cfg.Seed)
	assert.Equal(t, int64(7), *cfg.Seed)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_JSON(t *testing.T) {
	path := writeFile(t, "worker.json", `{"command": "/opt/sam3d/run", "workers": 3}`)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/opt/sam3d/run", cfg.Command)
	assert.Equal(t, 3, cfg.Workers)
}

func TestLoad_Errors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorContains(t, err, "config: read")

	_, err = Load(writeFile(t, "typo.yaml", "comand: python\n"))
	assert.ErrorContains(t, err, "config: parse")

	cfg, err := Load(writeFile(t, "empty.yaml", ""))
	require.NoError(t, err)
	assert.Empty(t, cfg.Command)
}

func TestResolve_DefaultsAndOverrides(t *testing.T) {
	var cfg Config
	cfg.Resolve(Flags{})
	assert.Equal(t, int64(DefaultSeed), *cfg.Seed)
	assert.Equal(t, runtime.NumCPU(), cfg.Workers)
	assert.Equal(t, 30*time.Minute, cfg.Timeout)
	assert.Equal(t, 512, cfg.PreviewSize)
	assert.Equal(t, 2, cfg.Supersample)
	assert.Error(t, cfg.Validate())

	seed := int64(0)
	cfg = Config{Command: "a", Workers: 2}
	cfg.Resolve(Flags{Command: "b", Seed: &seed, Workers: 5})
	assert.Equal(t, "b", cfg.Command)
	assert.Equal(t, int64(0), *cfg.Seed)
	assert.Equal(t, 5, cfg.Workers)
}
