package rasterwrite

import (
	"bytes"
	"compress/lzw"
	"context"
	"math"
	"math/rand/v2"
	"os"
	"path/filepath"
	"testing"

	"github.com/alecthomas/assert/v2"
)

// writeTestGeoTIFF writes a rows x cols Float64 raster whose sample at
// (r, c) is r*cols+c, sized to span multiple strips.
func writeTestGeoTIFF(t *testing.T, rows, cols int) (string, *Grid) {
	t.Helper()
	tempDir := t.TempDir()
	grid, err := NewGrid(rows, cols)
	assert.NoError(t, err)
	for r := range rows {
		for c := range cols {
			grid.Set(r, c, float64(r*cols+c))
		}
	}
	err = Write(filepath.Join(tempDir, "test.tif"), grid, GeoTransform{0, 1, 0, 0, 0, -1}, "",
		WithDataType(Float64))
	assert.NoError(t, err)
	return tempDir, grid
}

func TestGeoTIFF_MultiStrip(t *testing.T) {
	tempDir, grid := writeTestGeoTIFF(t, 100, 37)

	geoTIFF, err := OpenGeoTIFF(os.DirFS(tempDir), "test.tif")
	assert.NoError(t, err)
	defer func() {
		assert.NoError(t, geoTIFF.Close())
	}()

	assert.True(t, len(geoTIFF.stripOffsets) > 1)

	actualGrid, err := geoTIFF.ReadBand(context.Background())
	assert.NoError(t, err)
	assert.Equal(t, grid.Float64s(), actualGrid.Float64s())
}

func TestGeoTIFF_Sample(t *testing.T) {
	tempDir, grid := writeTestGeoTIFF(t, 100, 37)

	geoTIFF, err := OpenGeoTIFF(os.DirFS(tempDir), "test.tif")
	assert.NoError(t, err)
	defer func() {
		assert.NoError(t, geoTIFF.Close())
	}()

	ctx := context.Background()
	r := rand.New(rand.NewPCG(0, 0))
	for range 4096 {
		col := r.IntN(37)
		row := r.IntN(100)
		sample, err := geoTIFF.Sample(ctx, col, row)
		assert.NoError(t, err)
		assert.Equal(t, grid.At(row, col), sample)
	}
}

func TestGeoTIFF_SampleOutOfBounds(t *testing.T) {
	tempDir, _ := writeTestGeoTIFF(t, 4, 4)

	geoTIFF, err := OpenGeoTIFF(os.DirFS(tempDir), "test.tif")
	assert.NoError(t, err)
	defer func() {
		assert.NoError(t, geoTIFF.Close())
	}()

	ctx := context.Background()
	for _, coord := range [][2]int{{-1, 0}, {0, -1}, {4, 0}, {0, 4}} {
		sample, err := geoTIFF.Sample(ctx, coord[0], coord[1])
		assert.NoError(t, err)
		assert.True(t, math.IsNaN(sample))
	}
}

// writeLZWGeoTIFF writes a single-strip LZW-compressed Float64 GeoTIFF. With
// a single strip every field value fits inline, so the strip data starts
// immediately after the IFD. The strip must stay under the first LZW code
// width increase, where compress/lzw and TIFF LZW streams diverge.
func writeLZWGeoTIFF(t *testing.T, path string, grid *Grid) {
	t.Helper()

	var compressed bytes.Buffer
	w := lzw.NewWriter(&compressed, lzw.MSB, 8)
	_, err := w.Write(Float64.encodeSamples(grid.Float64s()))
	assert.NoError(t, err)
	assert.NoError(t, w.Close())

	entries := []struct {
		tag   uint16
		typ   uint16
		value uint32
	}{
		{tagImageWidth, tiffTypeLong, uint32(grid.Cols())},
		{tagImageLength, tiffTypeLong, uint32(grid.Rows())},
		{tagBitsPerSample, tiffTypeShort, 64},
		{tagCompression, tiffTypeShort, 5}, // LZW.
		{tagPhotometricInterpretation, tiffTypeShort, 1},
		{tagStripOffsets, tiffTypeLong, 0}, // Patched below.
		{tagSamplesPerPixel, tiffTypeShort, 1},
		{tagRowsPerStrip, tiffTypeLong, uint32(grid.Rows())},
		{tagStripByteCounts, tiffTypeLong, uint32(compressed.Len())},
		{tagPlanarConfiguration, tiffTypeShort, 1},
		{tagSampleFormat, tiffTypeShort, 3}, // IEEE float.
	}
	stripOffset := 8 + 2 + 12*len(entries) + 4
	for i := range entries {
		if entries[i].tag == tagStripOffsets {
			entries[i].value = uint32(stripOffset)
		}
	}

	var buf bytes.Buffer
	buf.WriteString("II")
	putUint16(&buf, 42)
	putUint32(&buf, 8)
	putUint16(&buf, uint16(len(entries)))
	for _, entry := range entries {
		putUint16(&buf, entry.tag)
		putUint16(&buf, entry.typ)
		putUint32(&buf, 1)
		putUint32(&buf, entry.value)
	}
	putUint32(&buf, 0) // No next IFD.
	buf.Write(compressed.Bytes())
	assert.NoError(t, os.WriteFile(path, buf.Bytes(), 0o666))
}

func TestGeoTIFF_LZWStrip(t *testing.T) {
	grid, err := NewGrid(4, 5)
	assert.NoError(t, err)
	for r := range 4 {
		for c := range 5 {
			grid.Set(r, c, float64(r*5+c))
		}
	}

	tempDir := t.TempDir()
	writeLZWGeoTIFF(t, filepath.Join(tempDir, "lzw.tif"), grid)

	geoTIFF, err := OpenGeoTIFF(os.DirFS(tempDir), "lzw.tif")
	assert.NoError(t, err)
	defer func() {
		assert.NoError(t, geoTIFF.Close())
	}()

	assert.Equal(t, uint16(5), geoTIFF.compression)
	assert.Equal(t, Float64, geoTIFF.DataType())

	actualGrid, err := geoTIFF.ReadBand(context.Background())
	assert.NoError(t, err)
	assert.Equal(t, grid.Float64s(), actualGrid.Float64s())

	sample, err := geoTIFF.Sample(context.Background(), 2, 3)
	assert.NoError(t, err)
	assert.Equal(t, 17, sample)
}

func TestOpenGeoTIFF_NotExist(t *testing.T) {
	_, err := OpenGeoTIFF(os.DirFS(t.TempDir()), "missing.tif")
	assert.Error(t, err)
}

func TestOpenGeoTIFF_NotTIFF(t *testing.T) {
	tempDir := t.TempDir()
	assert.NoError(t, os.WriteFile(filepath.Join(tempDir, "not.tif"), []byte("not a tiff"), 0o666))
	_, err := OpenGeoTIFF(os.DirFS(tempDir), "not.tif")
	assert.Error(t, err)
}
