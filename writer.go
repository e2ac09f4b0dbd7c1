package rasterwrite

import "errors"

// ErrDriverUnavailable is returned when the requested raster-format driver
// cannot be resolved.
var ErrDriverUnavailable = errors.New("raster driver unavailable")

// geoTIFFDriverName is the driver name queried for GeoTIFF output.
const geoTIFFDriverName = "GTiff"

type writeConfig struct {
	dataType DataType
	nodata   float64
	backend  Backend
}

// A WriteOption sets an option on a write.
type WriteOption func(*writeConfig)

// WithBackend sets the backend used to create the output dataset.
func WithBackend(backend Backend) WriteOption {
	return func(c *writeConfig) {
		c.backend = backend
	}
}

// WithDataType sets the on-disk sample encoding.
func WithDataType(dataType DataType) WriteOption {
	return func(c *writeConfig) {
		c.dataType = dataType
	}
}

// WithNoData sets the band's nodata sentinel.
func WithNoData(nodata float64) WriteOption {
	return func(c *writeConfig) {
		c.nodata = nodata
	}
}

// Write writes grid to a new single-band GeoTIFF file at path, overwriting
// any existing file. The supplied geotransform and WKT projection are
// recorded as the file's georeferencing metadata; an empty projection yields
// a file with no spatial reference. By default samples are encoded as
// Float32 and the nodata sentinel is 0.
//
// The parent directory of path must exist. On failure no partial file is
// cleaned up.
func Write(path string, grid *Grid, transform GeoTransform, projection string, options ...WriteOption) error {
	config := writeConfig{
		dataType: Float32,
		backend:  GeoTIFFBackend{},
	}
	for _, option := range options {
		option(&config)
	}

	if grid == nil || grid.Rows() < 1 || grid.Cols() < 1 {
		rasterWriteFailures.Inc()
		return errEmptyGrid
	}

	if err := write(path, grid, transform, projection, &config); err != nil {
		rasterWriteFailures.Inc()
		return err
	}
	rastersWritten.Inc()
	samplesWritten.Add(float64(grid.Rows() * grid.Cols()))
	return nil
}

func write(path string, grid *Grid, transform GeoTransform, projection string, config *writeConfig) error {
	driver, err := config.backend.Driver(geoTIFFDriverName)
	if err != nil {
		return err
	}

	dataset, err := driver.Create(path, grid.Cols(), grid.Rows(), config.dataType)
	if err != nil {
		return err
	}
	closed := false
	defer func() {
		if !closed {
			_ = dataset.Close()
		}
	}()

	if err := dataset.SetGeoTransform(transform); err != nil {
		return err
	}
	if err := dataset.SetProjection(projection); err != nil {
		return err
	}

	band, err := dataset.Band(1)
	if err != nil {
		return err
	}
	if err := band.Write(grid); err != nil {
		return err
	}
	if err := band.SetNoData(config.nodata); err != nil {
		return err
	}

	closed = true
	return dataset.Close()
}
