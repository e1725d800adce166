package batch

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"meshpose/internal/pipeline"
)

// jobsFile is the mapping form of a manifest; a bare list is accepted too.
type jobsFile struct {
	Jobs []pipeline.Job `yaml:"jobs"`
}

// LoadManifest reads a YAML or JSON job list. Relative paths are resolved
// against the manifest's directory.
func LoadManifest(path string) ([]pipeline.Job, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("batch: read manifest %s: %w", path, err)
	}

	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, fmt.Errorf("batch: parse manifest %s: %w", path, err)
	}
	if len(root.Content) == 0 {
		return nil, fmt.Errorf("batch: manifest %s is empty", path)
	}

	var jobs []pipeline.Job
	switch doc := root.Content[0]; doc.Kind {
	case yaml.SequenceNode:
		err = doc.Decode(&jobs)
	case yaml.MappingNode:
		var f jobsFile
		err = doc.Decode(&f)
		jobs = f.Jobs
	default:
		err = errors.New("expected a list of jobs or a jobs: key")
	}
	if err != nil {
		return nil, fmt.Errorf("batch: parse manifest %s: %w", path, err)
	}

	dir := filepath.Dir(path)
	for i := range jobs {
		j := &jobs[i]
		for _, p := range []*string{&j.Image, &j.Mask, &j.GLB, &j.Info, &j.Preview} {
			if *p != "" && !filepath.IsAbs(*p) {
				*p = filepath.Join(dir, *p)
			}
		}
		if err := j.Validate(); err != nil {
			return nil, fmt.Errorf("batch: manifest %s job %d: %w", path, i, err)
		}
	}
	return jobs, nil
}

// WriteResults writes the per-job results as indented JSON.
func WriteResults(path string, results []Result) error {
	data, err := json.MarshalIndent(results, "", "  ")
	if err != nil {
		return err
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("batch: mkdir %s: %w", dir, err)
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("batch: write %s: %w", path, err)
	}
	return nil
}
