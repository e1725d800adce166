// Package pipeline runs one mesh through reconstruction, the coordinate
// transform and export.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"meshpose/internal/config"
	"meshpose/internal/glb"
	"meshpose/internal/imageio"
	"meshpose/internal/logging"
	"meshpose/internal/mask"
	"meshpose/internal/pose"
	"meshpose/internal/preview"
	"meshpose/internal/reconstruct"
	"meshpose/internal/transform"
)

// Job names the inputs and outputs of one run.
type Job struct {
	Image   string `yaml:"image" json:"image"`
	Mask    string `yaml:"mask" json:"mask"`
	GLB     string `yaml:"glb" json:"glb"`
	Info    string `yaml:"info,omitempty" json:"info,omitempty"`
	Preview string `yaml:"preview,omitempty" json:"preview,omitempty"`
	Seed    *int64 `yaml:"seed,omitempty" json:"seed,omitempty"`
}

// Validate checks that the required paths are set.
func (j Job) Validate() error {
	switch {
	case j.Image == "":
		return errors.New("pipeline: image path is required")
	case j.Mask == "":
		return errors.New("pipeline: mask path is required")
	case j.GLB == "":
		return errors.New("pipeline: glb output path is required")
	}
	return nil
}

// Options carries run-wide settings.
type Options struct {
	Seed           int64 // used when the job has none
	MaskMinCluster float64
	Preview        preview.Options
	Stdout         io.Writer // record destination when Job.Info is empty
	Logger         *slog.Logger
}

func (o *Options) defaults() {
	if o.Logger == nil {
		o.Logger = logging.NewNop()
	}
	if o.Stdout == nil {
		o.Stdout = os.Stdout
	}
	if o.Preview.Size == 0 {
		o.Preview = preview.DefaultOptions()
	}
}

// Run executes the job once. There are no retries: any failure aborts the
// run and no record is written.
func Run(ctx context.Context, job Job, rec reconstruct.Reconstructor, opts Options) (pose.Record, error) {
	opts.defaults()
	log := opts.Logger.With("glb", job.GLB)

	if err := job.Validate(); err != nil {
		return pose.Record{}, err
	}
	seed := opts.Seed
	if job.Seed != nil {
		seed = *job.Seed
	}

	img, _, err := imageio.Load(job.Image)
	if err != nil {
		return pose.Record{}, err
	}
	m, err := mask.Load(job.Mask)
	if err != nil {
		return pose.Record{}, err
	}
	if err := m.CheckBounds(img.Bounds()); err != nil {
		return pose.Record{}, fmt.Errorf("pipeline: %s: %w", job.Mask, err)
	}
	if n := m.RemoveSmallClusters(opts.MaskMinCluster); n > 0 {
		log.Debug("mask islands removed", "pixels", n)
	}
	if m.Count() == 0 {
		log.Warn("mask selects no pixels", "mask", job.Mask)
	}

	log.Info("reconstructing", "image", job.Image, "seed", seed)
	out, err := rec.Reconstruct(ctx, reconstruct.Input{Image: img, Mask: m, Seed: seed})
	if err != nil {
		return pose.Record{}, err
	}
	if out == nil || out.Mesh == nil {
		return pose.Record{}, errors.New("pipeline: reconstructor returned no mesh")
	}

	p, err := out.Pose.Pose()
	if err != nil {
		return pose.Record{}, fmt.Errorf("pipeline: model pose: %w", err)
	}
	if err := Apply(out.Mesh, p); err != nil {
		return pose.Record{}, err
	}
	log.Info("mesh transformed", "vertices", out.Mesh.VertexCount())

	if err := out.Mesh.Export(job.GLB); err != nil {
		return pose.Record{}, err
	}
	if job.Preview != "" {
		if err := WritePreview(job.Preview, out.Mesh, opts.Preview); err != nil {
			return pose.Record{}, err
		}
		log.Debug("preview written", "path", job.Preview)
	}

	record := pose.NewRecord(job.GLB, p)
	if job.Info != "" {
		if err := pose.WriteRecord(job.Info, record); err != nil {
			return pose.Record{}, err
		}
	} else if err := pose.EncodeRecord(opts.Stdout, record); err != nil {
		return pose.Record{}, fmt.Errorf("pipeline: write record: %w", err)
	}
	return record, nil
}

// Apply moves every vertex of mesh from model space into world space.
func Apply(mesh *glb.Mesh, p pose.Pose) error {
	verts, err := mesh.Vertices()
	if err != nil {
		return err
	}
	world, err := transform.TransformVertices(verts, p)
	if err != nil {
		return err
	}
	return mesh.SetVertices(world)
}

// WritePreview renders mesh and writes it as WebP.
func WritePreview(path string, mesh *glb.Mesh, o preview.Options) error {
	verts, err := mesh.Vertices()
	if err != nil {
		return err
	}
	tris, err := mesh.Triangles()
	if err != nil {
		return err
	}
	img, err := preview.Render(verts, tris, o)
	if err != nil {
		return err
	}
	return preview.WriteWebP(path, img)
}

// PreviewOptions maps the config preview settings.
func PreviewOptions(cfg config.Config) preview.Options {
	o := preview.DefaultOptions()
	if cfg.PreviewSize > 0 {
		o.Size = cfg.PreviewSize
	}
	if cfg.Supersample > 0 {
		o.Supersample = cfg.Supersample
	}
	return o
}
