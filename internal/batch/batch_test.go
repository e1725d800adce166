package batch

import (
	"context"
	"encoding/json"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"meshpose/internal/glb"
	"meshpose/internal/imageio"
	"meshpose/internal/pipeline"
	"meshpose/internal/pose"
	"meshpose/internal/reconstruct"
)

func writeInputs(t *testing.T, dir string, w, h int) (string, string) {
	t.Helper()
	m := image.NewGray(image.Rect(0, 0, w, h))
	m.SetGray(0, 0, color.Gray{Y: 1})
	img := filepath.Join(dir, "image.png")
	msk := filepath.Join(dir, "mask.png")
	require.NoError(t, imageio.SavePNG(img, image.NewNRGBA(image.Rect(0, 0, w, h))))
	require.NoError(t, imageio.SavePNG(msk, m))
	return img, msk
}

func model(calls *atomic.Int64) reconstruct.Func {
	return func(ctx context.Context, in reconstruct.Input) (*reconstruct.Output, error) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		calls.Add(1)
		raw, err := pose.ParseModelOutput([]byte(`{"rotation": [[1,0,0,0]], "translation": [[0,0,0]], "scale": [[1]]}`))
		if err != nil {
			return nil, err
		}
		mesh := glb.New([][3]float32{{1, 0, 0}, {0, 1, 0}, {0, 0, 1}}, []uint32{0, 1, 2})
		return &reconstruct.Output{Mesh: mesh, Pose: raw}, nil
	}
}

func TestRun(t *testing.T) {
	dir := t.TempDir()
	img, msk := writeInputs(t, dir, 4, 4)
	_, badMask := writeInputs(t, filepath.Join(dir, "bad"), 3, 3)

	jobs := []pipeline.Job{
		{Image: img, Mask: msk, GLB: filepath.Join(dir, "out", "a.glb")},
		{Image: img, Mask: badMask, GLB: filepath.Join(dir, "out", "b.glb")},
		{Image: img, Mask: msk, GLB: filepath.Join(dir, "out", "c.glb"), Info: filepath.Join(dir, "meta", "c.json")},
	}

	var calls atomic.Int64
	results := Run(context.Background(), Config{Reconstructor: model(&calls), Workers: 2}, jobs)
	require.Len(t, results, 3)
	assert.Equal(t, int64(2), calls.Load())
	assert.Equal(t, 1, Failed(results))

	for i, r := range results {
		assert.Equal(t, i, r.Index)
		assert.Equal(t, jobs[i].GLB, r.GLB)
	}
	assert.True(t, results[0].Success)
	assert.False(t, results[1].Success)
	assert.NotEmpty(t, results[1].Error)
	assert.True(t, results[2].Success)

	assert.Equal(t, filepath.Join(dir, "out", "a.json"), results[0].Info)
	assert.FileExists(t, results[0].Info)
	assert.FileExists(t, filepath.Join(dir, "meta", "c.json"))
	assert.FileExists(t, filepath.Join(dir, "out", "c.glb"))
	assert.NoFileExists(t, filepath.Join(dir, "out", "b.glb"))
}

func TestRun_Canceled(t *testing.T) {
	dir := t.TempDir()
	img, msk := writeInputs(t, dir, 2, 2)
	jobs := make([]pipeline.Job, 5)
	for i := range jobs {
		jobs[i] = pipeline.Job{Image: img, Mask: msk, GLB: filepath.Join(dir, "x.glb")}
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	var calls atomic.Int64
	results := Run(ctx, Config{Reconstructor: model(&calls), Workers: 1}, jobs)

	assert.Zero(t, calls.Load())
	assert.Equal(t, 5, Failed(results))
	for _, r := range results {
		assert.Contains(t, r.Error, "context canceled")
	}
}

func TestLoadManifest(t *testing.T) {
	dir := t.TempDir()

	list := filepath.Join(dir, "jobs.yaml")
	require.NoError(t, os.WriteFile(list, []byte(`
- image: in/a.png
  mask: in/a.npy
  glb: out/a.glb
  seed: 3
- image: /abs/b.png
  mask: in/b.png
  glb: out/b.glb
  preview: out/b.webp
`), 0o644))

	jobs, err := LoadManifest(list)
	require.NoError(t, err)
	require.Len(t, jobs, 2)
	assert.Equal(t, filepath.Join(dir, "in", "a.png"), jobs[0].Image)
	assert.Equal(t, filepath.Join(dir, "out", "a.glb"), jobs[0].GLB)
	require.NotNil(t, jobs[0].Seed)
	assert.Equal(t, int64(3), *jobs[0].Seed)
	assert.Equal(t, "/abs/b.png", jobs[1].Image)
	assert.Nil(t, jobs[1].Seed)
	assert.Equal(t, filepath.Join(dir, "out", "b.webp"), jobs[1].Preview)

	mapping := filepath.Join(dir, "jobs.json")
	require.NoError(t, os.WriteFile(mapping, []byte(`{"jobs": [{"image": "a.png", "mask": "a.png", "glb": "a.glb"}]}`), 0o644))
	jobs, err = LoadManifest(mapping)
	require.NoError(t, err)
	require.Len(t, jobs, 1)
	assert.Equal(t, filepath.Join(dir, "a.glb"), jobs[0].GLB)
}

func TestLoadManifest_Invalid(t *testing.T) {
	dir := t.TempDir()

	missing := filepath.Join(dir, "missing.yaml")
	require.NoError(t, os.WriteFile(missing, []byte("- image: a.png\n  glb: a.glb\n"), 0o644))
	_, err := LoadManifest(missing)
	assert.ErrorContains(t, err, "mask path is required")

	scalar := filepath.Join(dir, "scalar.yaml")
	require.NoError(t, os.WriteFile(scalar, []byte("hello\n"), 0o644))
	_, err = LoadManifest(scalar)
	assert.Error(t, err)

	empty := filepath.Join(dir, "empty.yaml")
	require.NoError(t, os.WriteFile(empty, nil, 0o644))
	_, err = LoadManifest(empty)
	assert.ErrorContains(t, err, "empty")

	_, err = LoadManifest(filepath.Join(dir, "nope.yaml"))
	assert.Error(t, err)
}

func TestWriteResults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report", "results.json")
	in := []Result{{Index: 0, GLB: "a.glb", Success: true}, {Index: 1, GLB: "b.glb", Error: "boom"}}
	require.NoError(t, WriteResults(path, in))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var out []Result
	require.NoError(t, json.Unmarshal(data, &out))
	assert.Equal(t, in, out)
}
