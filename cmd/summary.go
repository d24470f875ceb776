package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"

	"magstim"
	"magstim/converter"
	"magstim/utils"
)

var (
	headerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("86")).Bold(true).MarginBottom(1)
	labelStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Width(16)
	valueStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	warnStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("220"))
	graphStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("49")).Padding(1, 0)
)

// 预览图尺寸
const (
	previewHeight = 8
	previewWidth  = 72
)

type row struct{ label, value string }

func renderRows(title string, rows []row) string {
	var s strings.Builder
	s.WriteString(headerStyle.Render(title) + "\n")
	for _, r := range rows {
		s.WriteString(labelStyle.Render(r.label) + valueStyle.Render(r.value) + "\n")
	}
	return s.String()
}

func printRLCSummary(w io.Writer, res *magstim.Result, out string) {
	tr := res.Trajectory
	energy := res.Energy()
	tPeak, iPeak := tr.PeakCurrent()
	vLo, vHi := tr.VoltageRange()

	rows := []row{
		{"Run", res.RunID},
		{"Strategy", res.Strategy.String()},
	}
	if res.Event != nil {
		rows = append(rows, row{"Diode turn-on", utils.FormatValueFactor(res.Event.Time, "s")})
	}
	rows = append(rows,
		row{"Peak current", fmt.Sprintf("%s at %s", utils.FormatValueFactor(iPeak, "A"), utils.FormatValueFactor(tPeak, "s"))},
		row{"Voltage range", fmt.Sprintf("%s … %s", utils.FormatValueFactor(vLo, "V"), utils.FormatValueFactor(vHi, "V"))},
		row{"Initial energy", utils.FormatValueFactor(energy[0], "J")},
		row{"Final energy", utils.FormatValueFactor(energy[len(energy)-1], "J")},
		row{"Samples", fmt.Sprint(tr.Len())},
	)
	for i, seg := range res.Segments {
		rows = append(rows, row{
			fmt.Sprintf("Segment %d", i+1),
			fmt.Sprintf("%s, %s → %s, %d steps (%d rejected), %s",
				seg.Mode,
				utils.FormatValueFactor(seg.Start, "s"),
				utils.FormatValueFactor(seg.End, "s"),
				seg.Steps, seg.Rejected, seg.Outcome),
		})
	}
	rows = append(rows, row{"Plot", out})
	fmt.Fprint(w, renderRows("MAGNETIC STIMULATOR", rows))
	if res.Event == nil {
		fmt.Fprintln(w, warnStyle.Render("no zero crossing before t_final"))
	}
}

func printConverterSummary(w io.Writer, p converter.Params, wf converter.Waveform, out string) {
	// 最后 20% 时间视为稳态
	settled := 0.8 * p.TEnd
	rows := []row{
		{"Converter", p.Kind.String()},
		{"Input", utils.FormatValueFactor(p.Vin, "V")},
		{"Reference", utils.FormatValueFactor(p.VoutRef, "V")},
		{"Duty cycle", fmt.Sprintf("%.4f", p.Duty)},
		{"Switching", utils.FormatFrequency(p.Fs)},
		{"L / C", fmt.Sprintf("%s / %s", utils.FormatValueFactor(p.L, "H"), utils.FormatValueFactor(p.C, "F"))},
		{"Mean output", utils.FormatValueFactor(wf.Mean(settled), "V")},
		{"Ripple", utils.FormatValueFactor(wf.Ripple(settled), "V")},
		{"Samples", fmt.Sprint(wf.Len())},
		{"Plot", out},
	}
	fmt.Fprint(w, renderRows(strings.ToUpper(p.Kind.String())+" CONVERTER", rows))
}

func printPreview(w io.Writer, caption string, data []float64) {
	if len(data) == 0 {
		return
	}
	graph := asciigraph.Plot(data,
		asciigraph.Height(previewHeight),
		asciigraph.Width(previewWidth),
		asciigraph.Caption(caption),
	)
	fmt.Fprintln(w, graphStyle.Render(graph))
}
