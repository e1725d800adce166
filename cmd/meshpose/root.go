package main

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"meshpose/internal/config"
	"meshpose/internal/logging"
)

// logger is set up by the root command before any subcommand runs.
var logger = logging.New(slog.LevelInfo)

var rootCmd = &cobra.Command{
	Use:   "meshpose",
	Short: "Place reconstructed meshes into world space",
	Long: `meshpose runs a single-image 3D reconstruction model on an image and mask,
moves the resulting mesh from the model's coordinate convention into the
scene's Z-up world frame and writes it as GLB plus a JSON pose record.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		s, _ := cmd.Flags().GetString("log-level")
		level, err := logging.ParseLevel(s)
		if err != nil {
			return err
		}
		logger = logging.New(level)
		return nil
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		logger.Error("meshpose failed", "error", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().String("log-level", "info", "Log level: debug, info, warn or error")
}

// loadConfig reads --config when given and applies the model flags on top.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	var cfg config.Config
	if path, _ := cmd.Flags().GetString("config"); path != "" {
		var err error
		if cfg, err = config.Load(path); err != nil {
			return config.Config{}, err
		}
	}

	var flags config.Flags
	flags.Command, _ = cmd.Flags().GetString("command")
	if cmd.Flags().Changed("seed") {
		seed, _ := cmd.Flags().GetInt64("seed")
		flags.Seed = &seed
	}
	if f := cmd.Flags().Lookup("workers"); f != nil {
		flags.Workers, _ = cmd.Flags().GetInt("workers")
	}
	cfg.Resolve(flags)
	return cfg, cfg.Validate()
}

func addModelFlags(cmd *cobra.Command) {
	cmd.Flags().String("config", "", "Reconstructor config file (YAML or JSON)")
	cmd.Flags().String("command", "", "Reconstructor executable, overrides the config file")
	cmd.Flags().Int64("seed", config.DefaultSeed, "Reconstruction seed")
}
