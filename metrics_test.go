package rasterwrite

import (
	"path/filepath"
	"testing"

	"github.com/alecthomas/assert/v2"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestWriteCounters(t *testing.T) {
	tempDir := t.TempDir()

	failures := testutil.ToFloat64(rasterWriteFailures)
	assert.Error(t, Write(filepath.Join(tempDir, "nil.tif"), nil, GeoTransform{}, ""))
	assert.Equal(t, failures+1, testutil.ToFloat64(rasterWriteFailures))

	written := testutil.ToFloat64(rastersWritten)
	samples := testutil.ToFloat64(samplesWritten)
	grid, err := NewGrid(2, 3)
	assert.NoError(t, err)
	assert.NoError(t, Write(filepath.Join(tempDir, "ok.tif"), grid, GeoTransform{0, 1, 0, 0, 0, -1}, ""))
	assert.Equal(t, written+1, testutil.ToFloat64(rastersWritten))
	assert.Equal(t, samples+6, testutil.ToFloat64(samplesWritten))
}
