package graph

import (
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseColor(t *testing.T) {
	fallback := color.RGBA{1, 2, 3, 4}
	tests := []struct {
		in   any
		want color.RGBA
	}{
		{"#6B7280", color.RGBA{0x6B, 0x72, 0x80, 0xFF}},
		{"#fff", color.RGBA{0xFF, 0xFF, 0xFF, 0xFF}},
		{"#1F293780", color.RGBA{0x1F, 0x29, 0x37, 0x80}},
		{"rgba(0, 0, 0, 0.5)", color.RGBA{0, 0, 0, 127}},
		{"rgb(16,185,129)", color.RGBA{16, 185, 129, 255}},
		{"White", color.RGBA{255, 255, 255, 255}},
		{"#12", fallback},
		{"#zzzzzz", fallback},
		{"hsl(0, 0%, 0%)", fallback},
		{42.0, fallback},
		{nil, fallback},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, parseColor(tt.in, fallback), "input %v", tt.in)
	}
}

func TestParsePixels(t *testing.T) {
	assert.Equal(t, 12.0, parsePixels("12px", 0))
	assert.Equal(t, 3.0, parsePixels(3.0, 0))
	assert.Equal(t, 2.0, parsePixels(2, 0))
	assert.Equal(t, 8.0, parsePixels("wide", 8))
	assert.Equal(t, 8.0, parsePixels(nil, 8))
}

func TestParseDash(t *testing.T) {
	assert.Nil(t, parseDash("0"))
	assert.Nil(t, parseDash(""))
	assert.Nil(t, parseDash("a,b"))
	assert.Equal(t, []float64{5, 5}, parseDash("5,5"))
	assert.Equal(t, []float64{4, 2}, parseDash("4 2"))
}
