package chart

import (
	"bytes"
	"fmt"
	"math"
	"time"

	gochart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/anytimesk/stock-ml-front-end/internal/model"
	"github.com/anytimesk/stock-ml-front-end/internal/theme"
)

// Pane is one of the two stacked chart images.
type Pane string

const (
	PanePrice  Pane = "price"
	PaneVolume Pane = "volume"
)

// ParsePane validates a pane name from a URL.
func ParsePane(s string) (Pane, error) {
	switch Pane(s) {
	case PanePrice, PaneVolume:
		return Pane(s), nil
	}
	return "", fmt.Errorf("unknown chart pane %q", s)
}

// Data is a sorted series with its moving averages, ready to render.
type Data struct {
	Title   string
	Candles []Candle
	MA      map[int][]MAPoint
}

// NewData sorts records by date and computes every moving average over the
// whole series, so windows near the left edge of a zoom still have values.
func NewData(records []model.PriceRecord, title string) *Data {
	candles := Candles(SortByDate(records))
	d := &Data{
		Title:   title,
		Candles: candles,
		MA:      make(map[int][]MAPoint, len(MAWindows)),
	}
	for _, w := range MAWindows {
		d.MA[w] = MovingAverage(candles, w)
	}
	return d
}

// Len returns the number of candles.
func (d *Data) Len() int {
	if d == nil {
		return 0
	}
	return len(d.Candles)
}

// Options controls the size, colours and zoom of a rendered pane.
type Options struct {
	Width   int
	Height  int
	Palette theme.Palette
	Zoom    Zoom
}

const (
	minWidth       = 200
	minHeight      = 120
	volumeFraction = 3
)

func (o Options) size(pane Pane) (int, int) {
	w, h := o.Width, o.Height
	if w < minWidth {
		w = minWidth
	}
	if pane == PaneVolume {
		h /= volumeFraction
	}
	if h < minHeight {
		h = minHeight
	}
	return w, h
}

// Render draws one pane of d as SVG.
func Render(d *Data, pane Pane, opts Options) ([]byte, error) {
	if d.Len() == 0 {
		return nil, ErrNoData
	}

	w := opts.Zoom.Window(d.Len())
	visible := d.Candles[w.Start:w.End]

	var graph gochart.Chart
	switch pane {
	case PanePrice:
		graph = priceChart(d, visible, w)
	case PaneVolume:
		graph = volumeChart(visible)
	default:
		return nil, fmt.Errorf("unknown chart pane %q", pane)
	}

	graph.Width, graph.Height = opts.size(pane)
	graph.XAxis.Ticks = dateTicks(visible)
	applyPalette(&graph, opts.Palette)
	if pane == PanePrice {
		graph.Elements = []gochart.Renderable{gochart.Legend(&graph, legendStyle(opts.Palette))}
	}

	var buf bytes.Buffer
	if err := graph.Render(gochart.SVG, &buf); err != nil {
		return nil, fmt.Errorf("chart render failed: %w", err)
	}
	return buf.Bytes(), nil
}

func priceChart(d *Data, visible []Candle, w Window) gochart.Chart {
	lo, hi := math.MaxFloat64, -math.MaxFloat64
	for _, c := range visible {
		lo = math.Min(lo, math.Min(c.Low, math.Min(c.Open, c.Close)))
		hi = math.Max(hi, math.Max(c.High, math.Max(c.Open, c.Close)))
	}

	series := []gochart.Series{candleSeries{name: "Price", candles: visible}}
	for i, window := range MAWindows {
		s, ok := maSeries(window, MAColors[i%len(MAColors)], d.MA[window], w)
		if !ok {
			continue
		}
		for _, v := range s.YValues {
			lo = math.Min(lo, v)
			hi = math.Max(hi, v)
		}
		series = append(series, s)
	}

	lo, hi = padRange(lo, hi)
	return gochart.Chart{
		Title:  d.Title,
		Series: series,
		YAxis: gochart.YAxis{
			Range:          &gochart.ContinuousRange{Min: lo, Max: hi},
			ValueFormatter: priceFormatter,
		},
		Background: gochart.Style{
			Padding: gochart.Box{Top: 50, Left: 10, Right: 20, Bottom: 10},
		},
	}
}

func volumeChart(visible []Candle) gochart.Chart {
	hi := 0.0
	for _, c := range visible {
		hi = math.Max(hi, c.Volume)
	}
	if hi <= 0 {
		hi = 1
	}

	return gochart.Chart{
		Series: []gochart.Series{volumeSeries{name: "Volume", candles: visible}},
		YAxis: gochart.YAxis{
			Range:          &gochart.ContinuousRange{Min: 0, Max: hi * 1.1},
			ValueFormatter: volumeFormatter,
		},
		Background: gochart.Style{
			Padding: gochart.Box{Top: 10, Left: 10, Right: 20, Bottom: 10},
		},
	}
}

// padRange widens [lo, hi] by 5% on each side. A flat series gets a margin
// relative to its level so the y-range is never empty.
func padRange(lo, hi float64) (float64, float64) {
	span := hi - lo
	if span <= 0 {
		span = math.Max(1, math.Abs(hi)*0.1)
	}
	return lo - span*0.05, hi + span*0.05
}

func applyPalette(graph *gochart.Chart, p theme.Palette) {
	fg := hexColor(p.Foreground, gochart.DefaultTextColor)
	bg := hexColor(p.CardBackground, gochart.DefaultBackgroundColor)
	border := hexColor(p.BorderColor, gochart.DefaultAxisColor)

	graph.Background.FillColor = bg
	graph.Background.StrokeColor = bg
	graph.Canvas = gochart.Style{FillColor: bg, StrokeColor: bg}
	graph.TitleStyle = gochart.Style{FontColor: fg}

	axis := gochart.Style{StrokeColor: border, FontColor: fg}
	graph.XAxis.Style = axis
	graph.YAxis.Style = axis
}

func legendStyle(p theme.Palette) gochart.Style {
	return gochart.Style{
		FillColor:   hexColor(p.CardBackground, gochart.DefaultBackgroundColor),
		StrokeColor: hexColor(p.BorderColor, gochart.DefaultAxisColor),
		FontColor:   hexColor(p.Foreground, gochart.DefaultTextColor),
	}
}

func hexColor(s string, fallback drawing.Color) drawing.Color {
	if len(s) != 7 || s[0] != '#' {
		return fallback
	}
	return drawing.ColorFromHex(s)
}

// maxDateLabels caps how many x-axis labels are drawn.
const maxDateLabels = 6

// dateTicks pins the x-axis to [-0.5, n-0.5] so the outer candles are not
// cut in half, and labels about maxDateLabels evenly spaced days.
func dateTicks(visible []Candle) []gochart.Tick {
	n := len(visible)
	step := (n + maxDateLabels - 1) / maxDateLabels
	if step < 1 {
		step = 1
	}

	ticks := []gochart.Tick{{Value: -0.5}}
	for i := 0; i < n; i += step {
		ticks = append(ticks, gochart.Tick{Value: float64(i), Label: shortDate(visible[i].Date)})
	}
	return append(ticks, gochart.Tick{Value: float64(n) - 0.5})
}

func shortDate(basDt string) string {
	t, err := time.Parse("20060102", basDt)
	if err != nil {
		return basDt
	}
	return t.Format("01/02")
}

func maName(window int) string {
	return fmt.Sprintf("MA%d", window)
}

func priceFormatter(v interface{}) string {
	if f, ok := v.(float64); ok {
		return fmt.Sprintf("%.0f", f)
	}
	return ""
}

func volumeFormatter(v interface{}) string {
	f, ok := v.(float64)
	if !ok {
		return ""
	}
	switch {
	case f >= 1e6:
		return fmt.Sprintf("%.1fM", f/1e6)
	case f >= 1e3:
		return fmt.Sprintf("%.0fK", f/1e3)
	}
	return fmt.Sprintf("%.0f", f)
}
