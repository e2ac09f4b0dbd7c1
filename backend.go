package rasterwrite

// A Backend resolves raster-format drivers. The default backend writes
// GeoTIFF files in pure Go; the gdal subpackage provides a backend that
// delegates to GDAL.
type Backend interface {
	Driver(name string) (Driver, error)
}

// A Driver creates raster datasets in one format.
type Driver interface {
	Create(path string, cols, rows int, dataType DataType) (Dataset, error)
}

// A Dataset is an open raster dataset being written. Close must be called on
// every Dataset, on error paths included, to release the underlying handle.
type Dataset interface {
	SetGeoTransform(transform GeoTransform) error
	SetProjection(wkt string) error
	Band(i int) (Band, error)
	Close() error
}

// A Band is one band of an open Dataset.
type Band interface {
	Write(grid *Grid) error
	SetNoData(nodata float64) error
}
