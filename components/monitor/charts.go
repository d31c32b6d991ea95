package monitor

import (
	"bytes"
	"fmt"
	"io"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
	"github.com/go-echarts/go-echarts/v2/types"
)

const defaultChartHeight = "320px"

// ChartRenderer renders the analysis charts to HTML with go-echarts.
type ChartRenderer struct {
	cache      RenderCache
	assetsHost string
	height     string
}

// ChartOption customizes a ChartRenderer.
type ChartOption func(*ChartRenderer)

// WithChartCache injects a render cache.
func WithChartCache(cache RenderCache) ChartOption {
	return func(r *ChartRenderer) {
		r.cache = cache
	}
}

// WithChartAssetsHost rewrites the assets host so ECharts JS loads from a CDN.
func WithChartAssetsHost(host string) ChartOption {
	return func(r *ChartRenderer) {
		r.assetsHost = host
	}
}

// WithChartHeight overrides the chart container height.
func WithChartHeight(height string) ChartOption {
	return func(r *ChartRenderer) {
		if height != "" {
			r.height = height
		}
	}
}

// NewChartRenderer builds a renderer. Without WithChartCache every call renders.
func NewChartRenderer(opts ...ChartOption) *ChartRenderer {
	r := &ChartRenderer{height: defaultChartHeight}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// HourlyChart renders today's hourly forecast as a smooth line in kW.
func (r *ChartRenderer) HourlyChart(title string, bars []HourlyBar, theme ThemeSelection) (string, error) {
	if len(bars) == 0 {
		return "", nil
	}
	key := fmt.Sprintf("hourly:%s:%s:%s", theme.ChartTheme, title, contentHash(bars))
	return r.memoize(key, func() (string, error) {
		line := charts.NewLine()
		line.SetGlobalOptions(r.globalOptions(title, theme)...)
		axis := make([]string, len(bars))
		data := make([]opts.LineData, len(bars))
		for i, bar := range bars {
			axis[i] = bar.Label
			data[i] = opts.LineData{Name: bar.Label, Value: bar.PowerKW}
		}
		line.SetXAxis(axis)
		line.AddSeries("kW", data)
		line.SetSeriesOptions(charts.WithLineChartOpts(opts.LineChart{Smooth: opts.Bool(true)}))
		return renderChart(line)
	})
}

// DailyChart renders the short-range daily totals as bars in kW.
func (r *ChartRenderer) DailyChart(title string, bars []DailyBar, theme ThemeSelection) (string, error) {
	if len(bars) == 0 {
		return "", nil
	}
	key := fmt.Sprintf("daily:%s:%s:%s", theme.ChartTheme, title, contentHash(bars))
	return r.memoize(key, func() (string, error) {
		bar := charts.NewBar()
		bar.SetGlobalOptions(r.globalOptions(title, theme)...)
		axis := make([]string, len(bars))
		data := make([]opts.BarData, len(bars))
		for i, day := range bars {
			axis[i] = day.Label
			data[i] = opts.BarData{Name: day.Label, Value: day.PredictedKW}
		}
		bar.SetXAxis(axis)
		bar.AddSeries("kW", data)
		return renderChart(bar)
	})
}

func (r *ChartRenderer) memoize(key string, render func() (string, error)) (string, error) {
	if r.cache == nil {
		return render()
	}
	return r.cache.GetOrRender(key, render)
}

func (r *ChartRenderer) globalOptions(title string, theme ThemeSelection) []charts.GlobalOpts {
	chartTheme := theme.ChartTheme
	if chartTheme == "" {
		chartTheme = types.ThemeWesteros
	}
	initOpts := opts.Initialization{
		Theme:  chartTheme,
		Width:  "100%",
		Height: r.height,
	}
	if r.assetsHost != "" {
		initOpts.AssetsHost = r.assetsHost
	}
	return []charts.GlobalOpts{
		charts.WithTitleOpts(opts.Title{Title: title}),
		charts.WithInitializationOpts(initOpts),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(false)}),
		charts.WithYAxisOpts(opts.YAxis{Name: "kW"}),
	}
}

func renderChart(renderable interface{ Render(io.Writer) error }) (string, error) {
	var buf bytes.Buffer
	if err := renderable.Render(&buf); err != nil {
		return "", fmt.Errorf("monitor: render chart: %w", err)
	}
	return buf.String(), nil
}
