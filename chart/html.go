package chart

import (
	"io"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"
	"github.com/go-echarts/go-echarts/v2/types"
)

// MaxHTMLPoints 每条曲线写入网页的最大点数
const MaxHTMLPoints = 5000

// WriteHTML 每个子图一张可缩放的折线图
func WriteHTML(w io.Writer, f Figure) error {
	if err := f.Validate(); err != nil {
		return err
	}
	page := components.NewPage()
	page.PageTitle = f.Title
	for i, panel := range f.Panels {
		subtitle := ""
		if i == 0 {
			subtitle = f.Title
		}
		page.AddCharts(newLine(panel, f.XLabel, subtitle))
	}
	return page.Render(w)
}

// newLine 横轴为数值轴，数据按 [x, y] 写入
func newLine(panel Panel, xLabel, subtitle string) *charts.Line {
	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{
			Theme: types.ThemeWesteros,
		}),
		charts.WithTitleOpts(opts.Title{
			Title:    panel.Title,
			Subtitle: subtitle,
		}),
		charts.WithLegendOpts(opts.Legend{
			Type:   "scroll",
			Orient: "vertical",
			Right:  "10",
			Top:    "20",
			Bottom: "20",
		}),
		charts.WithTooltipOpts(opts.Tooltip{
			Show:    opts.Bool(true),
			Trigger: "axis",
		}),
		charts.WithXAxisOpts(opts.XAxis{
			Name:        xLabel,
			Type:        "value",
			SplitNumber: 20,
			Scale:       opts.Bool(true),
		}),
		charts.WithYAxisOpts(opts.YAxis{
			Name:  panel.YLabel,
			Scale: opts.Bool(true),
		}),
		charts.WithDataZoomOpts(opts.DataZoom{
			Type:       "inside",
			Start:      0,
			End:        100,
			XAxisIndex: []int{0},
		}),
		charts.WithAnimation(false),
	)
	for _, s := range panel.Series {
		line.AddSeries(s.Name, lineData(s.X, s.Y),
			charts.WithLineChartOpts(opts.LineChart{
				ShowSymbol: opts.Bool(false),
			}),
		)
	}
	for _, ref := range panel.References {
		line.AddSeries(ref.Name, nil,
			charts.WithMarkLineNameYAxisItemOpts(opts.MarkLineNameYAxisItem{
				Name:  ref.Name,
				YAxis: ref.Value,
			}),
			charts.WithMarkLineStyleOpts(opts.MarkLineStyle{
				Symbol: []string{"none", "none"},
			}),
		)
	}
	return line
}

// lineData 按步长抽样到不超过 MaxHTMLPoints 个点，保留末点
func lineData(x, y []float64) []opts.LineData {
	stride := (len(x) + MaxHTMLPoints - 1) / MaxHTMLPoints
	if stride < 1 {
		stride = 1
	}
	items := make([]opts.LineData, 0, len(x)/stride+1)
	for i := 0; i < len(x); i += stride {
		items = append(items, opts.LineData{Value: []interface{}{x[i], y[i]}})
	}
	if last := len(x) - 1; last%stride != 0 {
		items = append(items, opts.LineData{Value: []interface{}{x[last], y[last]}})
	}
	return items
}
