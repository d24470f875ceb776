package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"magstim/chart"
	"magstim/converter"
)

var converterFlags struct {
	out     string
	tEnd    float64
	duty    float64
	preview bool
}

var buckCmd = &cobra.Command{
	Use:   "buck",
	Short: "Simulate the 50 V → 20 V buck converter start-up",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runConverter(cmd, converter.Buck)
	},
}

var boostCmd = &cobra.Command{
	Use:   "boost",
	Short: "Simulate the 180 V → 380 V boost converter start-up",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runConverter(cmd, converter.Boost)
	},
}

func init() {
	for _, c := range []*cobra.Command{buckCmd, boostCmd} {
		f := c.Flags()
		f.StringVarP(&converterFlags.out, "out", "o", "", "Plot file (default <kind>.png)")
		f.Float64Var(&converterFlags.tEnd, "t-end", 0, "Simulated time in seconds (default from config)")
		f.Float64Var(&converterFlags.duty, "duty", 0, "Duty cycle (default from config)")
		f.BoolVar(&converterFlags.preview, "preview", false, "Print a terminal preview of the output voltage")
	}
}

func runConverter(cmd *cobra.Command, kind converter.Kind) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	block := cfg.Buck
	if kind == converter.Boost {
		block = cfg.Boost
	}
	flags := cmd.Flags()
	if flags.Changed("t-end") {
		block.TEnd = floatValue(converterFlags.tEnd)
	}
	if flags.Changed("duty") {
		block.Duty = floatValue(converterFlags.duty)
	}
	p, err := converter.FromConfig(kind, block)
	if err != nil {
		return err
	}
	logger.Info("converter simulation started",
		zap.Stringer("kind", kind),
		zap.Float64("vin", p.Vin),
		zap.Float64("duty", p.Duty),
		zap.Float64("l", p.L),
		zap.Float64("c", p.C),
		zap.Float64("dt", p.Step()),
	)
	w, err := converter.Simulate(p)
	if err != nil {
		return err
	}

	out := converterFlags.out
	if out == "" {
		out = kind.String() + ".png"
	}
	if err := chart.Save(out, chart.ConverterFigure(p, w)); err != nil {
		return err
	}
	logger.Info("plot written", zap.String("path", out), zap.Int("samples", w.Len()))

	writer := cmd.OutOrStdout()
	printConverterSummary(writer, p, w, out)
	if converterFlags.preview {
		printPreview(writer, "vo [V]", w.Vo)
	}
	return nil
}
