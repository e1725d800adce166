package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"meshpose/internal/batch"
	"meshpose/internal/pipeline"
	"meshpose/internal/reconstruct"
)

var batchCmd = &cobra.Command{
	Use:   "batch",
	Short: "Run many independent reconstructions from a manifest",
	Long: `Reads a YAML or JSON list of jobs ({image, mask, glb, info, preview, seed})
and runs them on a worker pool. Each job is independent; a failed job does
not stop the others, but the command exits non-zero if any job failed.`,
	RunE: runBatch,
}

func init() {
	rootCmd.AddCommand(batchCmd)

	batchCmd.Flags().String("manifest", "", "Jobs manifest (YAML or JSON)")
	batchCmd.Flags().Int("workers", 0, "Concurrent jobs (default: number of CPUs)")
	batchCmd.Flags().String("results", "", "Write per-job results JSON to this path")
	addModelFlags(batchCmd)
	_ = batchCmd.MarkFlagRequired("manifest")
}

func runBatch(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	manifest, _ := cmd.Flags().GetString("manifest")
	jobs, err := batch.LoadManifest(manifest)
	if err != nil {
		return err
	}
	logger.Info("starting batch", "jobs", len(jobs), "workers", cfg.Workers)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	results := batch.Run(ctx, batch.Config{
		Reconstructor: reconstruct.NewProcess(cfg, logger),
		Workers:       cfg.Workers,
		Options: pipeline.Options{
			Seed:           *cfg.Seed,
			MaskMinCluster: cfg.MaskMinCluster,
			Preview:        pipeline.PreviewOptions(cfg),
			Logger:         logger,
		},
	}, jobs)

	if path, _ := cmd.Flags().GetString("results"); path != "" {
		if err := batch.WriteResults(path, results); err != nil {
			return err
		}
	}
	if n := batch.Failed(results); n > 0 {
		return fmt.Errorf("%d of %d jobs failed", n, len(results))
	}
	return nil
}
