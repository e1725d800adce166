package main

import (
	"context"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"meshpose/internal/pipeline"
	"meshpose/internal/reconstruct"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Reconstruct one object and export it in world space",
	Long: `Loads the image and mask, runs the reconstruction model, transforms the
mesh into world space and exports it as GLB. The pose record is written to
--info, or to stdout when --info is not set.`,
	RunE: runRun,
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().String("image", "", "Input image")
	runCmd.Flags().String("mask", "", "Object mask (.npy or image)")
	runCmd.Flags().String("glb", "", "Output GLB path")
	runCmd.Flags().String("info", "", "Pose record output path (default stdout)")
	runCmd.Flags().String("preview", "", "Optional WebP preview output path")
	addModelFlags(runCmd)
	for _, name := range []string{"image", "mask", "glb"} {
		_ = runCmd.MarkFlagRequired(name)
	}

	// 'run' is the default command.
	rootCmd.Flags().AddFlagSet(runCmd.Flags())
	rootCmd.RunE = runRun
}

func runRun(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	var job pipeline.Job
	job.Image, _ = cmd.Flags().GetString("image")
	job.Mask, _ = cmd.Flags().GetString("mask")
	job.GLB, _ = cmd.Flags().GetString("glb")
	job.Info, _ = cmd.Flags().GetString("info")
	job.Preview, _ = cmd.Flags().GetString("preview")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	_, err = pipeline.Run(ctx, job, reconstruct.NewProcess(cfg, logger), pipeline.Options{
		Seed:           *cfg.Seed,
		MaskMinCluster: cfg.MaskMinCluster,
		Preview:        pipeline.PreviewOptions(cfg),
		Stdout:         cmd.OutOrStdout(),
		Logger:         logger,
	})
	return err
}
