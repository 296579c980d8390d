package chart

import (
	"errors"

	gochart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
)

// Candle colours follow the Korean market convention: red for a rise.
var (
	UpColor   = drawing.ColorFromHex("FF0000")
	DownColor = drawing.ColorFromHex("0000FF")
)

// MAColors are the line colours for MAWindows, in order.
var MAColors = []drawing.Color{
	drawing.ColorFromHex("91cc75"),
	drawing.ColorFromHex("fac858"),
	drawing.ColorFromHex("ee6666"),
}

var errEmptySeries = errors.New("series has no candles")

func candleColor(c Candle) drawing.Color {
	if c.Up() {
		return UpColor
	}
	return DownColor
}

// slotWidth is the pixel distance between neighbouring candles.
func slotWidth(xrange gochart.Range) int {
	w := xrange.Translate(1) - xrange.Translate(0)
	if w < 1 {
		return 1
	}
	return w
}

func halfBody(xrange gochart.Range) int {
	h := int(float64(slotWidth(xrange)) * 0.35)
	if h < 1 {
		return 1
	}
	return h
}

// candleSeries draws one candlestick per candle at x = index.
type candleSeries struct {
	name    string
	candles []Candle
}

var _ gochart.Series = candleSeries{}

func (s candleSeries) GetName() string { return s.name }

func (s candleSeries) GetYAxis() gochart.YAxisType { return gochart.YAxisPrimary }

func (s candleSeries) GetStyle() gochart.Style {
	return gochart.Style{StrokeColor: UpColor, StrokeWidth: 2}
}

func (s candleSeries) Validate() error {
	if len(s.candles) == 0 {
		return errEmptySeries
	}
	return nil
}

func (s candleSeries) Render(r gochart.Renderer, canvasBox gochart.Box, xrange, yrange gochart.Range, _ gochart.Style) {
	half := halfBody(xrange)
	y := func(v float64) int { return canvasBox.Bottom - yrange.Translate(v) }

	for i, c := range s.candles {
		color := candleColor(c)
		cx := canvasBox.Left + xrange.Translate(float64(i))

		r.SetFillColor(drawing.ColorTransparent)
		r.SetStrokeColor(color)
		r.SetStrokeWidth(1)
		r.MoveTo(cx, y(c.High))
		r.LineTo(cx, y(c.Low))
		r.Stroke()
		r.ResetStyle()

		top, bottom := y(c.Open), y(c.Close)
		if top > bottom {
			top, bottom = bottom, top
		}
		if bottom == top {
			bottom++
		}
		gochart.Draw.Box(r, gochart.Box{Top: top, Left: cx - half, Right: cx + half, Bottom: bottom}, gochart.Style{
			FillColor:   color,
			StrokeColor: color,
			StrokeWidth: 1,
		})
	}
}

// volumeSeries draws one bar per candle from zero up to its volume.
type volumeSeries struct {
	name    string
	candles []Candle
}

var _ gochart.Series = volumeSeries{}

func (s volumeSeries) GetName() string { return s.name }

func (s volumeSeries) GetYAxis() gochart.YAxisType { return gochart.YAxisPrimary }

func (s volumeSeries) GetStyle() gochart.Style {
	return gochart.Style{StrokeColor: DownColor, StrokeWidth: 1}
}

func (s volumeSeries) Validate() error {
	if len(s.candles) == 0 {
		return errEmptySeries
	}
	return nil
}

func (s volumeSeries) Render(r gochart.Renderer, canvasBox gochart.Box, xrange, yrange gochart.Range, _ gochart.Style) {
	half := halfBody(xrange)
	base := canvasBox.Bottom - yrange.Translate(0)

	for i, c := range s.candles {
		color := candleColor(c)
		cx := canvasBox.Left + xrange.Translate(float64(i))
		top := canvasBox.Bottom - yrange.Translate(c.Volume)
		if top == base {
			top--
		}
		gochart.Draw.Box(r, gochart.Box{Top: top, Left: cx - half, Right: cx + half, Bottom: base}, gochart.Style{
			FillColor:   color,
			StrokeColor: color,
			StrokeWidth: 1,
		})
	}
}

// maSeries returns the visible part of a moving average as a line series.
// ok is false when no point in the window has a value.
func maSeries(window int, color drawing.Color, points []MAPoint, w Window) (gochart.ContinuousSeries, bool) {
	s := gochart.ContinuousSeries{
		Name:  maName(window),
		Style: gochart.Style{StrokeColor: color, StrokeWidth: 1.5},
	}
	for i := w.Start; i < w.End && i < len(points); i++ {
		if !points[i].Valid {
			continue
		}
		s.XValues = append(s.XValues, float64(i-w.Start))
		s.YValues = append(s.YValues, points[i].Value)
	}
	return s, len(s.XValues) > 0
}
