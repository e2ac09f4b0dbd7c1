// Package rasterwrite writes two-dimensional sample grids to single-band
// georeferenced GeoTIFF files.
package rasterwrite

import (
	"errors"
	"fmt"
)

var errEmptyGrid = errors.New("empty grid")

// A Grid is a row-major two-dimensional grid of samples.
type Grid struct {
	rows    int
	cols    int
	samples []float64
}

// NewGrid returns a new zero-filled Grid with the given shape.
func NewGrid(rows, cols int) (*Grid, error) {
	if rows < 1 || cols < 1 {
		return nil, fmt.Errorf("invalid grid shape %dx%d: %w", rows, cols, errEmptyGrid)
	}
	return &Grid{
		rows:    rows,
		cols:    cols,
		samples: make([]float64, rows*cols),
	}, nil
}

// NewGridFromSamples returns a new Grid wrapping samples, which must contain
// rows*cols values in row-major order. The Grid takes ownership of samples.
func NewGridFromSamples(rows, cols int, samples []float64) (*Grid, error) {
	if rows < 1 || cols < 1 {
		return nil, fmt.Errorf("invalid grid shape %dx%d: %w", rows, cols, errEmptyGrid)
	}
	if len(samples) != rows*cols {
		return nil, fmt.Errorf("got %d samples, expected %d", len(samples), rows*cols)
	}
	return &Grid{
		rows:    rows,
		cols:    cols,
		samples: samples,
	}, nil
}

// Rows returns g's number of rows.
func (g *Grid) Rows() int { return g.rows }

// Cols returns g's number of columns.
func (g *Grid) Cols() int { return g.cols }

// At returns the sample at row r, column c.
func (g *Grid) At(r, c int) float64 {
	return g.samples[r*g.cols+c]
}

// Set sets the sample at row r, column c.
func (g *Grid) Set(r, c int, v float64) {
	g.samples[r*g.cols+c] = v
}

// Float64s returns g's samples in row-major order. The returned slice aliases
// g's storage.
func (g *Grid) Float64s() []float64 {
	return g.samples
}

// A GeoTransform is an affine transform from pixel coordinates to
// georeferenced coordinates, in GDAL coefficient order: origin X, pixel
// width, row rotation, origin Y, column rotation, pixel height. Pixel height
// is signed and typically negative for north-up rasters.
type GeoTransform [6]float64

// Apply returns the georeferenced coordinate of the top-left corner of the
// pixel at column c, row r.
func (t GeoTransform) Apply(c, r float64) (x, y float64) {
	x = t[0] + c*t[1] + r*t[2]
	y = t[3] + c*t[4] + r*t[5]
	return x, y
}

// HasRotation reports whether t has nonzero rotation terms.
func (t GeoTransform) HasRotation() bool {
	return t[2] != 0 || t[4] != 0
}
