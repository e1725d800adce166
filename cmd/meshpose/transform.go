package main

import (
	"github.com/spf13/cobra"

	"meshpose/internal/glb"
	"meshpose/internal/pipeline"
	"meshpose/internal/pose"
	"meshpose/internal/preview"
)

var transformCmd = &cobra.Command{
	Use:   "transform",
	Short: "Apply a saved pose to an existing model-space GLB",
	Long: `Reads a pose from --pose, either raw model output (batched tensors) or a
pose record, applies the world transform to every vertex of --in and writes
the result to --out.`,
	RunE: runTransform,
}

func init() {
	rootCmd.AddCommand(transformCmd)

	transformCmd.Flags().String("pose", "", "Pose JSON (model output or record)")
	transformCmd.Flags().String("in", "", "Model-space GLB")
	transformCmd.Flags().String("out", "", "Output GLB path")
	transformCmd.Flags().String("info", "", "Pose record output path (default stdout)")
	transformCmd.Flags().String("preview", "", "Optional WebP preview output path")
	transformCmd.Flags().Int("preview-size", 512, "Preview edge in pixels")
	for _, name := range []string{"pose", "in", "out"} {
		_ = transformCmd.MarkFlagRequired(name)
	}
}

func runTransform(cmd *cobra.Command, args []string) error {
	posePath, _ := cmd.Flags().GetString("pose")
	in, _ := cmd.Flags().GetString("in")
	out, _ := cmd.Flags().GetString("out")
	info, _ := cmd.Flags().GetString("info")
	previewPath, _ := cmd.Flags().GetString("preview")

	p, err := pose.ReadPoseFile(posePath)
	if err != nil {
		return err
	}
	mesh, err := glb.Load(in)
	if err != nil {
		return err
	}
	if err := pipeline.Apply(mesh, p); err != nil {
		return err
	}
	if err := mesh.Export(out); err != nil {
		return err
	}
	logger.Info("mesh transformed", "glb", out, "vertices", mesh.VertexCount())

	if previewPath != "" {
		o := preview.DefaultOptions()
		o.Size, _ = cmd.Flags().GetInt("preview-size")
		if err := pipeline.WritePreview(previewPath, mesh, o); err != nil {
			return err
		}
	}

	record := pose.NewRecord(out, p)
	if info != "" {
		return pose.WriteRecord(info, record)
	}
	return pose.EncodeRecord(cmd.OutOrStdout(), record)
}
