package chart

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
)

// 图像尺寸
const (
	Width  = 10 * vg.Inch
	Height = 6 * vg.Inch
)

// Save 按扩展名输出：.png .svg .pdf 或 .html
func Save(path string, f Figure) error {
	format := strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
	if format == "" {
		return fmt.Errorf("chart: %s: missing file extension", path)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()
	writer := bufio.NewWriter(file)
	if format == "html" {
		err = WriteHTML(writer, f)
	} else {
		err = WriteImage(writer, f, format)
	}
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	return writer.Flush()
}

// WritePNG 输出 PNG
func WritePNG(w io.Writer, f Figure) error { return WriteImage(w, f, "png") }

// WriteImage 子图纵向堆叠绘制到指定格式（png, svg, pdf, ...）
func WriteImage(w io.Writer, f Figure, format string) error {
	if err := f.Validate(); err != nil {
		return err
	}
	canvas, err := draw.NewFormattedCanvas(Width, Height, format)
	if err != nil {
		return fmt.Errorf("chart: %w", err)
	}
	plots := make([][]*plot.Plot, len(f.Panels))
	lo, hi := f.span()
	for i, panel := range f.Panels {
		p, err := newPlot(panel, lo, hi)
		if err != nil {
			return err
		}
		if i == 0 && f.Title != "" {
			p.Title.Text = f.Title + "\n" + panel.Title
		}
		if i == len(f.Panels)-1 {
			p.X.Label.Text = f.XLabel
		}
		plots[i] = []*plot.Plot{p}
	}
	tiles := draw.Tiles{
		Rows:      len(plots),
		Cols:      1,
		PadY:      vg.Points(8),
		PadTop:    vg.Points(4),
		PadBottom: vg.Points(4),
		PadLeft:   vg.Points(4),
		PadRight:  vg.Points(12),
	}
	dc := draw.New(canvas)
	canvases := plot.Align(plots, tiles, dc)
	for i := range plots {
		plots[i][0].Draw(canvases[i][0])
	}
	_, err = canvas.WriteTo(w)
	return err
}

// newPlot 单个子图：网格、曲线、虚线参考线
func newPlot(panel Panel, lo, hi float64) (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = panel.Title
	p.Y.Label.Text = panel.YLabel
	p.Add(plotter.NewGrid())

	for i, s := range panel.Series {
		pts := make(plotter.XYs, len(s.X))
		for j := range s.X {
			pts[j].X, pts[j].Y = s.X[j], s.Y[j]
		}
		line, err := plotter.NewLine(pts)
		if err != nil {
			return nil, fmt.Errorf("chart: series %q: %w", s.Name, err)
		}
		line.LineStyle.Width = vg.Points(1.5)
		line.LineStyle.Color = plotutil.Color(i)
		p.Add(line)
		if len(panel.Series) > 1 || len(panel.References) > 0 {
			p.Legend.Add(s.Name, line)
		}
	}
	for i, ref := range panel.References {
		line, err := plotter.NewLine(plotter.XYs{{X: lo, Y: ref.Value}, {X: hi, Y: ref.Value}})
		if err != nil {
			return nil, fmt.Errorf("chart: reference %q: %w", ref.Name, err)
		}
		line.LineStyle.Color = plotutil.Color(len(panel.Series) + i)
		line.LineStyle.Dashes = []vg.Length{vg.Points(6), vg.Points(3)}
		p.Add(line)
		p.Legend.Add(ref.Name, line)
	}
	p.Legend.Top = true
	return p, nil
}
