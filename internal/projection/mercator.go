// Package projection maps geographic coordinates to pixels of a fixed map
// viewport using spherical Web Mercator (EPSG:3857) with 256px tiles.
package projection

import (
	"math"

	"github.com/klabast/wb-services/advent-kalender/internal/sequencer"
)

const (
	earthRadius = 6378137.0
	maxLatitude = 85.0511287798
	tileSize    = 256.0
)

// Default viewport: the Atlantic, showing North America and Europe.
const (
	DefaultCenterLat = 42.0
	DefaultCenterLng = -30.0
	DefaultZoom      = 2.5
	DefaultWidth     = 960
	DefaultHeight    = 540
)

var _ sequencer.Projector = Mercator{}

// Mercator is a fixed viewport. The zero value is not useful; use Default
// or fill every field.
type Mercator struct {
	CenterLat float64 `yaml:"center_lat" json:"centerLat"`
	CenterLng float64 `yaml:"center_lng" json:"centerLng"`
	Zoom      float64 `yaml:"zoom" json:"zoom"`
	Width     int     `yaml:"width" json:"width"`
	Height    int     `yaml:"height" json:"height"`
}

// Default returns the calendar's map viewport.
func Default() Mercator {
	return Mercator{
		CenterLat: DefaultCenterLat,
		CenterLng: DefaultCenterLng,
		Zoom:      DefaultZoom,
		Width:     DefaultWidth,
		Height:    DefaultHeight,
	}
}

// Project returns the container pixel of (lat, lng).
func (m Mercator) Project(lat, lng float64) sequencer.Point {
	origin := m.pixelOrigin()
	p := m.worldPixel(lat, lng)
	return sequencer.Point{X: p.X - origin.X, Y: p.Y - origin.Y}
}

// pixelOrigin is the rounded world pixel of the viewport's top-left corner.
func (m Mercator) pixelOrigin() sequencer.Point {
	c := m.worldPixel(m.CenterLat, m.CenterLng)
	return sequencer.Point{
		X: math.Round(c.X - float64(m.Width)/2),
		Y: math.Round(c.Y - float64(m.Height)/2),
	}
}

func (m Mercator) worldPixel(lat, lng float64) sequencer.Point {
	const d = math.Pi / 180
	lat = math.Max(math.Min(maxLatitude, lat), -maxLatitude)
	sin := math.Sin(lat * d)

	x := earthRadius * lng * d
	y := earthRadius * math.Log((1+sin)/(1-sin)) / 2

	scale := tileSize * math.Pow(2, m.Zoom)
	k := 0.5 / (math.Pi * earthRadius)
	return sequencer.Point{
		X: scale * (k*x + 0.5),
		Y: scale * (-k*y + 0.5),
	}
}
