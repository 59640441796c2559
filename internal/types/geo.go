// README: Shared identifiers and geographic value objects used across modules.
package types

import "math"

type ID string

// Coordinate is a point-in-time GPS reading.
type Coordinate struct {
	Lat       float64 `json:"lat"`
	Lng       float64 `json:"lng"`
	AccuracyM float64 `json:"accuracy_m,omitempty"`
}

// BoundingBox is an axis-aligned lat/lng rectangle, inclusive on all edges.
type BoundingBox struct {
	MinLat float64
	MaxLat float64
	MinLng float64
	MaxLng float64
}

// BoxAround returns the box spanning marginDeg degrees on each side of c,
// clamped to valid latitude and longitude ranges.
func BoxAround(c Coordinate, marginDeg float64) BoundingBox {
	marginDeg = math.Abs(marginDeg)
	return BoundingBox{
		MinLat: math.Max(c.Lat-marginDeg, -90),
		MaxLat: math.Min(c.Lat+marginDeg, 90),
		MinLng: math.Max(c.Lng-marginDeg, -180),
		MaxLng: math.Min(c.Lng+marginDeg, 180),
	}
}

func (b BoundingBox) Contains(c Coordinate) bool {
	return c.Lat >= b.MinLat && c.Lat <= b.MaxLat && c.Lng >= b.MinLng && c.Lng <= b.MaxLng
}

// Center returns the midpoint of the box.
func (b BoundingBox) Center() Coordinate {
	return Coordinate{Lat: (b.MinLat + b.MaxLat) / 2, Lng: (b.MinLng + b.MaxLng) / 2}
}
