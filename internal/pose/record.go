package pose

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// Record is the metadata written next to each exported mesh. The pose values
// are the ones received from the reconstruction model, before any transform.
type Record struct {
	GLBPath     string     `json:"glb_path"`
	Translation [3]float64 `json:"translation"`
	Rotation    [4]float64 `json:"rotation"`
	Scale       [3]float64 `json:"scale"`
}

// NewRecord builds the metadata record for a mesh exported to glbPath.
func NewRecord(glbPath string, p Pose) Record {
	return Record{
		GLBPath:     glbPath,
		Translation: p.Translation,
		Rotation:    p.Rotation,
		Scale:       p.Scale,
	}
}

// Pose returns the pose stored in the record.
func (r Record) Pose() Pose {
	return Pose{Rotation: r.Rotation, Translation: r.Translation, Scale: r.Scale}
}

// EncodeRecord writes r as a single-line JSON object followed by a newline.
func EncodeRecord(w io.Writer, r Record) error {
	return json.NewEncoder(w).Encode(r)
}

// WriteRecord writes r as indented JSON to path, creating parent directories.
func WriteRecord(path string, r Record) error {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("pose: mkdir for %s: %w", path, err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("pose: write %s: %w", path, err)
	}
	return nil
}

// ReadPoseFile reads either a metadata Record or a raw model output from path.
// Records are recognized by their glb_path key.
func ReadPoseFile(path string) (Pose, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Pose{}, fmt.Errorf("pose: read %s: %w", path, err)
	}

	var probe map[string]json.RawMessage
	if err := json.Unmarshal(data, &probe); err != nil {
		return Pose{}, fmt.Errorf("pose: parse %s: %w", path, err)
	}
	if _, ok := probe["glb_path"]; ok {
		var r Record
		if err := json.Unmarshal(data, &r); err != nil {
			return Pose{}, fmt.Errorf("pose: parse record %s: %w", path, err)
		}
		return r.Pose(), nil
	}

	out, err := ParseModelOutput(data)
	if err != nil {
		return Pose{}, fmt.Errorf("%w (%s)", err, path)
	}
	return out.Pose()
}
