// Package format renders raw backend strings for display.
package format

import (
	"math"
	"strconv"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

var printer = message.NewPrinter(language.Korean)

// Number groups digits the way the Korean locale does, keeping up to three
// fraction digits. Values that do not parse are returned unchanged.
func Number(raw string) string {
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return raw
	}
	return printer.Sprint(number.Decimal(v, number.MaxFractionDigits(3)))
}

// Date turns YYYYMMDD into YYYY-MM-DD. Anything but eight ASCII digits is
// returned unchanged.
func Date(raw string) string {
	if len(raw) != 8 {
		return raw
	}
	for i := 0; i < len(raw); i++ {
		if raw[i] < '0' || raw[i] > '9' {
			return raw
		}
	}
	return raw[:4] + "-" + raw[4:6] + "-" + raw[6:]
}

// Percent appends a percent sign.
func Percent(raw string) string {
	return raw + "%"
}

// CreatedAt spaces out a dashed date: 2024-01-02 becomes 2024. 01. 02.
func CreatedAt(raw string) string {
	return strings.ReplaceAll(raw, "-", ". ")
}

var sizeUnits = []string{"Bytes", "KB", "MB", "GB"}

// FileSize renders a byte count with a 1024-based unit and at most two
// decimals.
func FileSize(raw string) string {
	b, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return raw
	}
	if b <= 0 {
		return "0 Bytes"
	}

	i := int(math.Floor(math.Log(b) / math.Log(1024)))
	if i < 0 {
		i = 0
	}
	if i >= len(sizeUnits) {
		i = len(sizeUnits) - 1
	}

	v := math.Round(b/math.Pow(1024, float64(i))*100) / 100
	return strconv.FormatFloat(v, 'f', -1, 64) + " " + sizeUnits[i]
}
