package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultSeed is the reconstruction seed used when none is configured.
const DefaultSeed = 42

// Config holds the reconstruction model invocation and pipeline settings.
// JSON files are accepted as well, since JSON is a subset of YAML.
type Config struct {
	// Reconstruction model process
	Command     string            `yaml:"command"`
	Args        []string          `yaml:"args"`
	ModelConfig string            `yaml:"model_config"`
	WorkDir     string            `yaml:"work_dir"`
	Env         map[string]string `yaml:"env"`
	Timeout     time.Duration     `yaml:"timeout"`
	KeepTemp    bool              `yaml:"keep_temp"`

	// Pipeline settings
	Seed        *int64 `yaml:"seed"`
	Workers     int    `yaml:"workers"`
	PreviewSize int    `yaml:"preview_size"`
	Supersample int    `yaml:"supersample"`

	// MaskMinCluster drops mask islands smaller than this share of the
	// foreground before reconstruction. Zero keeps the mask as loaded.
	MaskMinCluster float64 `yaml:"mask_min_cluster"`

	// Dir is the directory of the loaded file; relative paths resolve against it.
	Dir string `yaml:"-"`
}

// Load reads a YAML or JSON config file. Unknown keys are rejected.
// Fields not set in the file keep their zero values.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: read %s: %w", path, err)
	}

	var cfg Config
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
	}

	cfg.Dir = filepath.Dir(path)
	return cfg, nil
}

// Flags holds CLI flag values that override config file settings.
type Flags struct {
	Command string
	Seed    *int64
	Workers int
}

// Resolve applies flag overrides, resolves relative paths and fills in defaults.
func (c *Config) Resolve(flags Flags) {
	// CLI flags override config file
	if flags.Command != "" {
		c.Command = flags.Command
	}
	if flags.Seed != nil {
		seed := *flags.Seed
		c.Seed = &seed
	}
	if flags.Workers > 0 {
		c.Workers = flags.Workers
	}

	if c.Dir != "" {
		if c.ModelConfig != "" && !filepath.IsAbs(c.ModelConfig) {
			c.ModelConfig = filepath.Join(c.Dir, c.ModelConfig)
		}
		if c.WorkDir != "" && !filepath.IsAbs(c.WorkDir) {
			c.WorkDir = filepath.Join(c.Dir, c.WorkDir)
		}
	}

	if c.Seed == nil {
		seed := int64(DefaultSeed)
		c.Seed = &seed
	}
	if c.Timeout <= 0 {
		c.Timeout = 30 * time.Minute
	}
	if c.Workers <= 0 {
		c.Workers = runtime.NumCPU()
	}
	if c.PreviewSize <= 0 {
		c.PreviewSize = 512
	}
	if c.Supersample <= 0 {
		c.Supersample = 2
	}
}

// Validate reports settings that make the reconstruction step impossible.
func (c *Config) Validate() error {
	if c.Command == "" {
		return errors.New("config: reconstructor command is not set")
	}
	return nil
}
