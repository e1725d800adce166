package pose

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
)

// Tensor is a dense float array decoded from nested JSON arrays, as emitted
// by the reconstruction model (every pose field carries a leading batch
// dimension of size 1).
type Tensor struct {
	Shape []int
	Data  []float64
}

// UnmarshalJSON accepts a bare number or rectangular nested arrays of numbers.
func (t *Tensor) UnmarshalJSON(b []byte) error {
	var raw any
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()
	if err := dec.Decode(&raw); err != nil {
		return err
	}

	var shape []int
	var data []float64
	var walk func(v any, depth int) error
	walk = func(v any, depth int) error {
		switch x := v.(type) {
		case json.Number:
			if depth != len(shape) {
				return fmt.Errorf("tensor: ragged array at depth %d", depth)
			}
			f, err := x.Float64()
			if err != nil {
				return fmt.Errorf("tensor: %w", err)
			}
			data = append(data, f)
		case []any:
			if depth == len(shape) {
				if len(data) > 0 {
					return fmt.Errorf("tensor: ragged array at depth %d", depth)
				}
				shape = append(shape, len(x))
			} else if depth > len(shape) || shape[depth] != len(x) {
				return fmt.Errorf("tensor: ragged array at depth %d", depth)
			}
			for _, e := range x {
				if err := walk(e, depth+1); err != nil {
					return err
				}
			}
		default:
			return fmt.Errorf("tensor: unexpected %T", v)
		}
		return nil
	}
	if err := walk(raw, 0); err != nil {
		return err
	}

	t.Shape = shape
	t.Data = data
	return nil
}

// MarshalJSON writes the tensor back as nested arrays.
func (t Tensor) MarshalJSON() ([]byte, error) {
	if len(t.Shape) == 0 {
		if len(t.Data) == 0 {
			return []byte("null"), nil
		}
		return json.Marshal(t.Data[0])
	}
	var build func(dim, off int) (any, int)
	build = func(dim, off int) (any, int) {
		if dim == len(t.Shape)-1 {
			n := t.Shape[dim]
			return t.Data[off : off+n], off + n
		}
		out := make([]any, t.Shape[dim])
		for i := range out {
			out[i], off = build(dim+1, off)
		}
		return out, off
	}
	v, _ := build(0, 0)
	return json.Marshal(v)
}

// Squeeze drops every dimension of size 1. The result of squeezing a
// batch-of-one pose field is a scalar or a vector; anything still of rank
// two or more was a real batch and is rejected by Vector.
func (t Tensor) Squeeze() Tensor {
	var shape []int
	for _, d := range t.Shape {
		if d != 1 {
			shape = append(shape, d)
		}
	}
	return Tensor{Shape: shape, Data: t.Data}
}

// Vector squeezes the tensor and returns its values as a flat slice.
func (t Tensor) Vector(name string) ([]float64, error) {
	s := t.Squeeze()
	if len(s.Shape) > 1 || len(t.Data) == 0 {
		return nil, &ShapeError{Name: name, Want: "a batch of one scalar or vector", Got: t.Shape}
	}
	out := make([]float64, len(s.Data))
	copy(out, s.Data)
	return out, nil
}

// ModelOutput holds the raw pose fields of one reconstruction.
type ModelOutput struct {
	Rotation    Tensor `json:"rotation"`
	Translation Tensor `json:"translation"`
	Scale       Tensor `json:"scale"`
}

// ParseModelOutput decodes the pose JSON written by the reconstruction model.
func ParseModelOutput(data []byte) (ModelOutput, error) {
	var out ModelOutput
	if err := json.Unmarshal(data, &out); err != nil {
		return ModelOutput{}, fmt.Errorf("pose: parse model output: %w", err)
	}
	return out, nil
}

// ReadModelOutput reads and decodes a model pose file.
func ReadModelOutput(path string) (ModelOutput, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return ModelOutput{}, fmt.Errorf("pose: read %s: %w", path, err)
	}
	out, err := ParseModelOutput(data)
	if err != nil {
		return ModelOutput{}, fmt.Errorf("%w (%s)", err, path)
	}
	return out, nil
}

// Pose squeezes the batch dimension out of every field and builds a Pose.
func (m ModelOutput) Pose() (Pose, error) {
	r, err := m.Rotation.Vector("rotation")
	if err != nil {
		return Pose{}, err
	}
	t, err := m.Translation.Vector("translation")
	if err != nil {
		return Pose{}, err
	}
	s, err := m.Scale.Vector("scale")
	if err != nil {
		return Pose{}, err
	}
	return New(r, t, s)
}
