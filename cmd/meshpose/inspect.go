package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"meshpose/internal/glb"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect <file.glb>...",
	Short: "Print vertex and triangle counts and bounds of GLB files",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		enc := json.NewEncoder(cmd.OutOrStdout())
		for _, path := range args {
			mesh, err := glb.Load(path)
			if err != nil {
				return err
			}
			st, err := mesh.Stats()
			if err != nil {
				return fmt.Errorf("inspect %s: %w", path, err)
			}
			if err := enc.Encode(struct {
				Path string `json:"path"`
				glb.Stats
			}{path, st}); err != nil {
				return err
			}
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(inspectCmd)
}
