// dnnbrain - file tools for DNN/brain analysis data
//
// Inspects and converts the files that dnnbrain pipelines exchange:
//   - *.stim.csv: stimulus descriptions (headers + per-stimulus table)
//   - *.act.h5: per-layer DNN activation arrays
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/Lesliefans0-0/dnnbrain/pkg/config"
	dnnerrors "github.com/Lesliefans0-0/dnnbrain/pkg/errors"
)

const version = "0.1.0"

var (
	configPath string
	verbose    bool
	initConfig bool

	cfg    = config.Default()
	logger = zap.NewNop()
)

var rootCmd = &cobra.Command{
	Use:           "dnnbrain",
	Short:         "Inspect and convert dnnbrain stimulus and activation files",
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if configPath == "" {
			configPath = config.DefaultConfigPath()
		}
		if initConfig {
			return nil
		}

		loaded, err := config.LoadOrDefault(configPath)
		if err != nil {
			return err
		}
		cfg = loaded

		logger, err = buildLogger(cfg.Log, verbose)
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		logger.Debug("configuration loaded",
			zap.String("path", configPath),
			zap.String("data_dir", cfg.DataDir))
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = logger.Sync()
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		if !initConfig {
			return cmd.Help()
		}
		if err := config.InitConfig(configPath); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Config initialized at: %s\n", configPath)
		return nil
	},
}

func buildLogger(lc config.LogConfig, verbose bool) (*zap.Logger, error) {
	zc := zap.NewProductionConfig()
	zc.Encoding = lc.Encoding
	if zc.Encoding == "console" {
		zc.EncoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
		zc.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	}
	level, err := zap.ParseAtomicLevel(lc.Level)
	if err != nil {
		return nil, err
	}
	zc.Level = level
	if verbose {
		zc.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}
	return zc.Build()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file path (default: ./dnnbrain.yaml or the user config dir)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	rootCmd.Flags().BoolVar(&initConfig, "init", false, "Write a default config file and exit")

	rootCmd.AddCommand(stimCmd)
	rootCmd.AddCommand(actCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		dnnerrors.Display(err)
		os.Exit(1)
	}
}
