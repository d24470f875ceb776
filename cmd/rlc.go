package main

import (
	"strconv"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"magstim"
	"magstim/chart"
	"magstim/params"
)

var rlcFlags struct {
	strategy string
	first    string
	samples  int
	rtol     float64
	atol     float64
	out      string
	preview  bool
}

var rlcCmd = &cobra.Command{
	Use:   "rlc",
	Short: "Simulate the magnetic stimulator discharge",
	Long: `Integrates the capacitor discharge through the coil over [0, t_final].

With the event strategy the integration stops exactly where Vc crosses zero
and restarts with Vc = 0 under the diode-on topology. The inline strategy
selects the topology from the sign of Vc on every derivative evaluation.

Example:
  magstim rlc --config stim.yaml --samples 2000 --out response.png`,
	Args: cobra.NoArgs,
	RunE: runRLC,
}

func init() {
	f := rlcCmd.Flags()
	f.StringVar(&rlcFlags.strategy, "strategy", "event", "Topology switching: event | inline")
	f.StringVar(&rlcFlags.first, "first", "series", "Topology before the zero crossing: series | parallel")
	f.IntVar(&rlcFlags.samples, "samples", 0, "Evenly spaced output samples (0 = every accepted step)")
	f.Float64Var(&rlcFlags.rtol, "rtol", 1e-3, "Relative tolerance")
	f.Float64Var(&rlcFlags.atol, "atol", 1e-6, "Absolute tolerance")
	f.StringVarP(&rlcFlags.out, "out", "o", "", "Plot file (default from config)")
	f.BoolVar(&rlcFlags.preview, "preview", false, "Print a terminal preview of the waveforms")
}

func runRLC(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	// 命令行参数覆盖配置文件
	flags := cmd.Flags()
	if flags.Changed("strategy") {
		cfg.Solver.Strategy = rlcFlags.strategy
	}
	if flags.Changed("first") {
		cfg.Solver.FirstMode = rlcFlags.first
	}
	if flags.Changed("samples") {
		cfg.Solver.Samples = rlcFlags.samples
	}
	if flags.Changed("rtol") {
		cfg.Solver.RelTol = floatValue(rlcFlags.rtol)
	}
	if flags.Changed("atol") {
		cfg.Solver.AbsTol = floatValue(rlcFlags.atol)
	}
	sim, err := magstim.NewFromConfig(cfg, magstim.WithLogger(logger))
	if err != nil {
		return err
	}

	res, err := sim.Simulate()
	if err != nil {
		return err
	}

	out := outputPath(rlcFlags.out, cfg.Output.Path)
	if err := chart.Save(out, chart.RLCFigure(res.Trajectory)); err != nil {
		return err
	}
	logger.Info("plot written", zap.String("path", out), zap.String("run", res.RunID))

	w := cmd.OutOrStdout()
	printRLCSummary(w, res, out)
	if rlcFlags.preview {
		printPreview(w, "Vc [V]", res.Trajectory.Vc)
		printPreview(w, "Il [A]", res.Trajectory.Il)
	}
	return nil
}

// outputPath 命令行优先，其次配置文件，最后默认值
func outputPath(flag, configured string) string {
	switch {
	case flag != "":
		return flag
	case configured != "":
		return configured
	}
	return chart.DefaultPath
}

func floatValue(v float64) params.Value {
	return params.Value(strconv.FormatFloat(v, 'g', -1, 64))
}
