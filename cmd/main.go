package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"magstim/params"
)

var (
	verbose    bool
	configFile string

	logger = zap.NewNop()
)

var rootCmd = &cobra.Command{
	Use:   "magstim",
	Short: "Magnetic stimulator and DC-DC converter transient simulator",
	Long: `magstim integrates the RLC discharge of a magnetic stimulator, switching
the circuit topology when the capacitor voltage crosses zero, and steps
buck/boost converters under fixed-frequency PWM.

Each run writes one plot (png, svg, pdf or html by extension) and prints a summary.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		config := zap.NewProductionConfig()
		if verbose {
			config.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		var err error
		logger, err = config.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "YAML config file")

	rootCmd.AddCommand(rlcCmd)
	rootCmd.AddCommand(buckCmd)
	rootCmd.AddCommand(boostCmd)
}

// loadConfig 读取配置文件，未指定时使用默认配置
func loadConfig() (*params.Config, error) {
	if configFile == "" {
		return params.DefaultConfig(), nil
	}
	cfg, err := params.Load(configFile)
	if err != nil {
		return nil, err
	}
	logger.Debug("config loaded", zap.String("path", configFile))
	return cfg, nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
