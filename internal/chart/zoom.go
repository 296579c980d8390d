package chart

import "math"

// targetCandles is roughly how many candles the initial zoom shows.
const targetCandles = 20

// epsilon absorbs float error when a percentage maps onto a whole index.
const epsilon = 1e-9

// Zoom is a visible range in percent of the series, 0 to 100.
type Zoom struct {
	Start float64
	End   float64
}

// DefaultZoom shows about 20 of n candles, anchored at the latest.
func DefaultZoom(n int) Zoom {
	if n < 1 {
		return Zoom{Start: 0, End: 100}
	}
	visible := math.Min(100, targetCandles*100/float64(n))
	return Zoom{Start: math.Max(0, 100-visible), End: 100}
}

// Normalize clamps both bounds to [0, 100] and orders them.
func (z Zoom) Normalize() Zoom {
	z.Start = clampPercent(z.Start)
	z.End = clampPercent(z.End)
	if z.Start > z.End {
		z.Start, z.End = z.End, z.Start
	}
	return z
}

// Window is a half-open index range [Start, End) into the candles.
type Window struct {
	Start int
	End   int
}

// Len returns the number of indices in the window.
func (w Window) Len() int {
	return w.End - w.Start
}

// Window maps the zoom onto n candles. The result holds at least one candle
// whenever n > 0.
func (z Zoom) Window(n int) Window {
	if n < 1 {
		return Window{}
	}
	z = z.Normalize()

	start := int(math.Floor(float64(n)*z.Start/100 + epsilon))
	end := int(math.Ceil(float64(n)*z.End/100 - epsilon))
	if end > n {
		end = n
	}
	if start >= n {
		start = n - 1
	}
	if end <= start {
		end = start + 1
	}
	return Window{Start: start, End: end}
}

func clampPercent(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	return math.Max(0, math.Min(100, v))
}
