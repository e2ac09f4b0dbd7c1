//go:build cgo

// Package gdal binds rasterwrite's backend interfaces to GDAL via
// github.com/airbusgeo/godal. Sample values are converted to the on-disk
// data type by GDAL's raster I/O, which clamps out-of-range values rather
// than wrapping them like the pure-Go backend does.
//
// Building this package requires cgo and the GDAL libraries.
package gdal

import (
	"fmt"

	"github.com/airbusgeo/godal"

	"github.com/openterra/go-rasterwrite"
)

// A Backend resolves GDAL raster drivers.
type Backend struct{}

// NewBackend returns a new Backend with GDAL's internal drivers registered.
func NewBackend() Backend {
	godal.RegisterInternalDrivers()
	return Backend{}
}

func (Backend) Driver(name string) (rasterwrite.Driver, error) {
	if _, ok := godal.RasterDriver(godal.DriverName(name)); !ok {
		return nil, fmt.Errorf("%w: %s", rasterwrite.ErrDriverUnavailable, name)
	}
	return driver{name: godal.DriverName(name)}, nil
}

type driver struct {
	name godal.DriverName
}

func (d driver) Create(path string, cols, rows int, dataType rasterwrite.DataType) (rasterwrite.Dataset, error) {
	dtype, err := godalDataType(dataType)
	if err != nil {
		return nil, err
	}
	godalDataset, err := godal.Create(d.name, path, 1, dtype, cols, rows)
	if err != nil {
		return nil, err
	}
	return &dataset{ds: godalDataset}, nil
}

type dataset struct {
	ds *godal.Dataset
}

func (d *dataset) SetGeoTransform(transform rasterwrite.GeoTransform) error {
	return d.ds.SetGeoTransform([6]float64(transform))
}

func (d *dataset) SetProjection(wkt string) error {
	if wkt == "" {
		return nil
	}
	return d.ds.SetProjection(wkt)
}

func (d *dataset) Band(i int) (rasterwrite.Band, error) {
	bands := d.ds.Bands()
	if i < 1 || len(bands) < i {
		return nil, fmt.Errorf("no band %d", i)
	}
	return band{band: bands[i-1]}, nil
}

func (d *dataset) Close() error {
	return d.ds.Close()
}

type band struct {
	band godal.Band
}

func (b band) Write(grid *rasterwrite.Grid) error {
	return b.band.Write(0, 0, grid.Float64s(), grid.Cols(), grid.Rows())
}

func (b band) SetNoData(nodata float64) error {
	return b.band.SetNoData(nodata)
}

func godalDataType(dataType rasterwrite.DataType) (godal.DataType, error) {
	switch dataType {
	case rasterwrite.Byte:
		return godal.Byte, nil
	case rasterwrite.Int16:
		return godal.Int16, nil
	case rasterwrite.UInt16:
		return godal.UInt16, nil
	case rasterwrite.Int32:
		return godal.Int32, nil
	case rasterwrite.UInt32:
		return godal.UInt32, nil
	case rasterwrite.Float32:
		return godal.Float32, nil
	case rasterwrite.Float64:
		return godal.Float64, nil
	default:
		return godal.Unknown, fmt.Errorf("unsupported data type %s", dataType)
	}
}
