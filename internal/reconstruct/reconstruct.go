// Package reconstruct is the boundary to the external single-image 3D
// reconstruction model. The model is opaque: image + mask + seed in, mesh +
// batched pose tensors out.
package reconstruct

import (
	"context"
	"image"

	"meshpose/internal/glb"
	"meshpose/internal/mask"
	"meshpose/internal/pose"
)

// Input is one reconstruction request.
type Input struct {
	Image image.Image
	Mask  *mask.Mask
	Seed  int64
}

// Output is the model's mesh in model space and its raw pose prediction.
// Every pose tensor still carries the leading batch dimension.
type Output struct {
	Mesh *glb.Mesh
	Pose pose.ModelOutput
}

// Reconstructor runs the reconstruction model.
type Reconstructor interface {
	Reconstruct(ctx context.Context, in Input) (*Output, error)
}

// Func adapts a plain function to Reconstructor.
type Func func(ctx context.Context, in Input) (*Output, error)

func (f Func) Reconstruct(ctx context.Context, in Input) (*Output, error) {
	return f(ctx, in)
}
