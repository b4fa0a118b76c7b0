package graph

import (
	"image/color"
	"strconv"
	"strings"
)

var namedColors = map[string]color.RGBA{
	"white":       {255, 255, 255, 255},
	"black":       {0, 0, 0, 255},
	"transparent": {0, 0, 0, 0},
}

// parseColor reads CSS colors in #rgb, #rrggbb, #rrggbbaa, rgb() and rgba()
// form. Anything else yields fallback.
func parseColor(v any, fallback color.RGBA) color.RGBA {
	s, ok := v.(string)
	if !ok {
		return fallback
	}
	s = strings.ToLower(strings.TrimSpace(s))
	if c, ok := namedColors[s]; ok {
		return c
	}

	if hex, ok := strings.CutPrefix(s, "#"); ok {
		switch len(hex) {
		case 3:
			hex = string([]byte{hex[0], hex[0], hex[1], hex[1], hex[2], hex[2]})
		case 6, 8:
		default:
			return fallback
		}
		n, err := strconv.ParseUint(hex, 16, 32)
		if err != nil {
			return fallback
		}
		if len(hex) == 6 {
			return color.RGBA{uint8(n >> 16), uint8(n >> 8), uint8(n), 255}
		}
		return color.RGBA{uint8(n >> 24), uint8(n >> 16), uint8(n >> 8), uint8(n)}
	}

	inner, ok := strings.CutPrefix(s, "rgba(")
	if !ok {
		inner, ok = strings.CutPrefix(s, "rgb(")
	}
	if !ok || !strings.HasSuffix(inner, ")") {
		return fallback
	}
	parts := strings.Split(strings.TrimSuffix(inner, ")"), ",")
	if len(parts) != 3 && len(parts) != 4 {
		return fallback
	}
	var rgba [4]float64
	rgba[3] = 1
	for i, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return fallback
		}
		rgba[i] = f
	}
	return color.RGBA{clampByte(rgba[0]), clampByte(rgba[1]), clampByte(rgba[2]), clampByte(rgba[3] * 255)}
}

func clampByte(f float64) uint8 {
	return uint8(min(max(f, 0), 255))
}

// parsePixels reads a CSS length such as "12px" or a bare JSON number.
func parsePixels(v any, fallback float64) float64 {
	switch t := v.(type) {
	case float64:
		return t
	case int:
		return float64(t)
	case string:
		f, err := strconv.ParseFloat(strings.TrimSuffix(strings.TrimSpace(t), "px"), 64)
		if err != nil {
			return fallback
		}
		return f
	default:
		return fallback
	}
}

// parseDash reads an SVG dash array such as "5,5" or "5 5". "0" means solid.
func parseDash(s string) []float64 {
	fields := strings.FieldsFunc(s, func(r rune) bool { return r == ',' || r == ' ' })
	var dashes []float64
	for _, f := range fields {
		v, err := strconv.ParseFloat(f, 64)
		if err != nil || v < 0 {
			return nil
		}
		dashes = append(dashes, v)
	}
	for _, d := range dashes {
		if d > 0 {
			return dashes
		}
	}
	return nil
}
