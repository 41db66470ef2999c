package config

import (
	"fmt"
	"strings"

	"github.com/spf13/cast"

	"github.com/cwbudde/curvefit/internal/fit"
)

// ParsePoints parses a dataset written as "x:y,x:y,...".
// Whitespace around values is ignored; an empty string yields no points.
func ParsePoints(s string) ([]fit.Point, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}

	fields := strings.Split(s, ",")
	points := make([]fit.Point, 0, len(fields))
	for i, field := range fields {
		ps := strings.Split(field, ":")
		if len(ps) != 2 {
			return nil, fmt.Errorf("point %d %q: expected x:y", i+1, strings.TrimSpace(field))
		}
		x, err := cast.ToFloat64E(strings.TrimSpace(ps[0]))
		if err != nil {
			return nil, fmt.Errorf("point %d: invalid x: %w", i+1, err)
		}
		y, err := cast.ToFloat64E(strings.TrimSpace(ps[1]))
		if err != nil {
			return nil, fmt.Errorf("point %d: invalid y: %w", i+1, err)
		}
		points = append(points, fit.Point{X: x, Y: y})
	}
	return points, nil
}

// FormatPoints is the inverse of ParsePoints
func FormatPoints(points []fit.Point) string {
	parts := make([]string, len(points))
	for i, p := range points {
		parts[i] = cast.ToString(p.X) + ":" + cast.ToString(p.Y)
	}
	return strings.Join(parts, ",")
}
