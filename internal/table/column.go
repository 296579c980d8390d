// Package table paginates records against column descriptors and tracks
// row selection for the dashboard's tables.
package table

import (
	"strconv"
	"strings"
)

// Record is a row a table can display. Records must be comparable so that
// selection membership is decided by field-by-field equality.
type Record interface {
	comparable
	Field(key string) string
}

// Column describes how one raw field becomes a display cell.
type Column struct {
	Key       string
	Label     string
	Formatter func(string) string
	// Class replaces the computed cell class when set.
	Class string
}

// Cell classes for delta columns.
const (
	ClassPositive = "positive"
	ClassNegative = "negative"
	ClassNeutral  = "neutral"
)

// deltaKeys are the fields whose sign is rendered as a colour.
var deltaKeys = map[string]bool{
	"vs":    true,
	"fltRt": true,
}

// IsDeltaKey reports whether key is a prior-day change field.
func IsDeltaKey(key string) bool {
	return deltaKeys[key]
}

// DeltaClass classifies a raw numeric string by sign. Unparsable values
// are neutral.
func DeltaClass(raw string) string {
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return ClassNeutral
	}
	switch {
	case v > 0:
		return ClassPositive
	case v < 0:
		return ClassNegative
	}
	return ClassNeutral
}

// Cell renders the column for a record.
func (c Column) Cell(r interface{ Field(string) string }) Cell {
	raw := r.Field(c.Key)

	text := raw
	if c.Formatter != nil {
		text = c.Formatter(raw)
	}

	class := c.Class
	if class == "" && IsDeltaKey(c.Key) {
		class = DeltaClass(raw)
	}

	return Cell{Text: text, Class: class}
}
