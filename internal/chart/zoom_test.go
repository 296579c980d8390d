package chart

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefaultZoom(t *testing.T) {
	tests := []struct {
		n     int
		start float64
		want  Window
	}{
		{n: 0, start: 0, want: Window{}},
		{n: 10, start: 0, want: Window{Start: 0, End: 10}},
		{n: 20, start: 0, want: Window{Start: 0, End: 20}},
		{n: 25, start: 20, want: Window{Start: 5, End: 25}},
		{n: 100, start: 80, want: Window{Start: 80, End: 100}},
		{n: 365, start: 100 - 2000.0/365, want: Window{Start: 345, End: 365}},
	}

	for _, tt := range tests {
		z := DefaultZoom(tt.n)
		assert.InDelta(t, tt.start, z.Start, 1e-9, "n=%d", tt.n)
		assert.Equal(t, 100.0, z.End)
		assert.Equal(t, tt.want, z.Window(tt.n), "n=%d", tt.n)
	}
}

func TestZoom_WindowClampsAndOrders(t *testing.T) {
	assert.Equal(t, Window{Start: 2, End: 5}, Zoom{Start: 50, End: 20}.Window(10))
	assert.Equal(t, Window{Start: 0, End: 10}, Zoom{Start: -5, End: 150}.Window(10))
	assert.Equal(t, Window{Start: 9, End: 10}, Zoom{Start: 100, End: 100}.Window(10))
	assert.Equal(t, 1, Zoom{Start: 40, End: 40}.Window(10).Len())
}
