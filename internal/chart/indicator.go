// Package chart turns price records into candlestick, moving-average and
// volume SVG panes.
package chart

import (
	"sort"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/anytimesk/stock-ml-front-end/internal/model"
)

// MAWindows are the moving-average lengths drawn over the price pane.
var MAWindows = []int{5, 10, 20}

// Candle is one trading day.
type Candle struct {
	Date   string
	Open   float64
	Close  float64
	Low    float64
	High   float64
	Volume float64
}

// Up reports whether the day closed above its open.
func (c Candle) Up() bool {
	return c.Close > c.Open
}

// MAPoint is a moving-average value. Valid is false until the window fills.
type MAPoint struct {
	Value float64
	Valid bool
}

// SortByDate returns a copy of records ordered by basDt ascending. Dates are
// compared as strings, which orders YYYYMMDD correctly.
func SortByDate(records []model.PriceRecord) []model.PriceRecord {
	out := make([]model.PriceRecord, len(records))
	copy(out, records)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].BasDt < out[j].BasDt
	})
	return out
}

// Candles converts sorted records. Unparsable numbers become zero.
func Candles(records []model.PriceRecord) []Candle {
	out := make([]Candle, 0, len(records))
	for _, r := range records {
		out = append(out, Candle{
			Date:   r.BasDt,
			Open:   parseNumber(r.Mkp),
			Close:  parseNumber(r.Clpr),
			Low:    parseNumber(r.Lopr),
			High:   parseNumber(r.Hipr),
			Volume: parseNumber(r.Trqu),
		})
	}
	return out
}

func parseNumber(s string) float64 {
	v, err := strconv.ParseFloat(strings.ReplaceAll(strings.TrimSpace(s), ",", ""), 64)
	if err != nil {
		return 0
	}
	return v
}

// MovingAverage returns the trailing mean of closes over window, rounded to
// one decimal place. The sum is carried forward in decimal arithmetic so each
// step adds the newest close and drops the oldest.
func MovingAverage(candles []Candle, window int) []MAPoint {
	out := make([]MAPoint, len(candles))
	if window < 1 {
		return out
	}

	size := decimal.NewFromInt(int64(window))
	sum := decimal.Zero
	for i, c := range candles {
		sum = sum.Add(decimal.NewFromFloat(c.Close))
		if i >= window {
			sum = sum.Sub(decimal.NewFromFloat(candles[i-window].Close))
		}
		if i < window-1 {
			continue
		}
		out[i] = MAPoint{
			Value: sum.Div(size).Round(1).InexactFloat64(),
			Valid: true,
		}
	}
	return out
}
