package rasterwrite

import (
	"testing"

	"github.com/alecthomas/assert/v2"
)

func TestNewGrid(t *testing.T) {
	for _, tc := range []struct {
		rows      int
		cols      int
		expectErr bool
	}{
		{rows: 1, cols: 1},
		{rows: 2, cols: 3},
		{rows: 0, cols: 3, expectErr: true},
		{rows: 3, cols: 0, expectErr: true},
		{rows: -1, cols: 1, expectErr: true},
	} {
		grid, err := NewGrid(tc.rows, tc.cols)
		if tc.expectErr {
			assert.Error(t, err)
			continue
		}
		assert.NoError(t, err)
		assert.Equal(t, tc.rows, grid.Rows())
		assert.Equal(t, tc.cols, grid.Cols())
		assert.Equal(t, tc.rows*tc.cols, len(grid.Float64s()))
	}
}

func TestGrid_SetAt(t *testing.T) {
	grid, err := NewGrid(2, 3)
	assert.NoError(t, err)
	grid.Set(0, 2, 1.5)
	grid.Set(1, 0, -2)
	assert.Equal(t, 1.5, grid.At(0, 2))
	assert.Equal(t, -2, grid.At(1, 0))
	assert.Equal(t, 0, grid.At(0, 0))
	assert.Equal(t, []float64{0, 0, 1.5, -2, 0, 0}, grid.Float64s())
}

func TestNewGridFromSamples(t *testing.T) {
	samples := []float64{1, 2, 3, 4, 5, 6}
	grid, err := NewGridFromSamples(2, 3, samples)
	assert.NoError(t, err)
	assert.Equal(t, 3, grid.At(0, 2))
	assert.Equal(t, 4, grid.At(1, 0))

	_, err = NewGridFromSamples(2, 2, samples)
	assert.Error(t, err)
}

func TestGeoTransform_Apply(t *testing.T) {
	transform := GeoTransform{600000, 10, 0, 5100000, 0, -10}
	x, y := transform.Apply(0, 0)
	assert.Equal(t, 600000, x)
	assert.Equal(t, 5100000, y)
	x, y = transform.Apply(3, 2)
	assert.Equal(t, 600030, x)
	assert.Equal(t, 5099980, y)
}

func TestGeoTransform_HasRotation(t *testing.T) {
	assert.False(t, GeoTransform{0, 1, 0, 0, 0, -1}.HasRotation())
	assert.True(t, GeoTransform{0, 1, 0.5, 0, 0, -1}.HasRotation())
	assert.True(t, GeoTransform{0, 1, 0, 0, 0.5, -1}.HasRotation())
}
