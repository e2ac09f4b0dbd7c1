package rasterwrite

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"os"
	"strconv"
)

// TIFF field types.
const (
	tiffTypeASCII  = 2
	tiffTypeShort  = 3
	tiffTypeLong   = 4
	tiffTypeDouble = 12
)

// TIFF and GeoTIFF tags.
const (
	tagImageWidth                = 256
	tagImageLength               = 257
	tagBitsPerSample             = 258
	tagCompression               = 259
	tagPhotometricInterpretation = 262
	tagStripOffsets              = 273
	tagSamplesPerPixel           = 277
	tagRowsPerStrip              = 278
	tagStripByteCounts           = 279
	tagPlanarConfiguration       = 284
	tagSampleFormat              = 339
	tagModelPixelScale           = 33550
	tagModelTiepoint             = 33922
	tagModelTransformation       = 34264
	tagGeoKeyDirectory           = 34735
	tagGeoASCIIParams            = 34737
	tagGDALNoData                = 42113
)

// defaultStripSizeBytes is the target uncompressed strip size.
const defaultStripSizeBytes = 8192

// A GeoTIFFBackend writes classic little-endian single-band striped
// uncompressed GeoTIFF files in pure Go. It is the default backend used by
// [Write].
type GeoTIFFBackend struct{}

func (GeoTIFFBackend) Driver(name string) (Driver, error) {
	if name != geoTIFFDriverName {
		return nil, fmt.Errorf("%w: %s", ErrDriverUnavailable, name)
	}
	return geoTIFFDriver{}, nil
}

type geoTIFFDriver struct{}

func (geoTIFFDriver) Create(path string, cols, rows int, dataType DataType) (Dataset, error) {
	if cols < 1 || rows < 1 {
		return nil, fmt.Errorf("invalid raster size %dx%d", cols, rows)
	}
	if dataType.Size() == 0 {
		return nil, fmt.Errorf("unsupported data type %d", int(dataType))
	}
	// Classic TIFF offsets are 32-bit.
	if int64(cols)*int64(rows)*int64(dataType.Size()) > math.MaxUint32 {
		return nil, fmt.Errorf("%dx%d %s raster exceeds the classic TIFF 4GiB limit", cols, rows, dataType)
	}
	file, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	return &geoTIFFDataset{
		file:     file,
		cols:     cols,
		rows:     rows,
		dataType: dataType,
	}, nil
}

// A geoTIFFDataset accumulates metadata and sample data in memory and
// encodes the file on Close. The destination file is created, and truncated,
// by Create.
type geoTIFFDataset struct {
	file         *os.File
	cols         int
	rows         int
	dataType     DataType
	transform    GeoTransform
	hasTransform bool
	projection   string
	nodata       float64
	hasNoData    bool
	sampleData   []byte
	closed       bool
}

func (ds *geoTIFFDataset) SetGeoTransform(transform GeoTransform) error {
	ds.transform = transform
	ds.hasTransform = true
	return nil
}

func (ds *geoTIFFDataset) SetProjection(wkt string) error {
	ds.projection = wkt
	return nil
}

func (ds *geoTIFFDataset) Band(i int) (Band, error) {
	if i != 1 {
		return nil, fmt.Errorf("no band %d", i)
	}
	return geoTIFFBand{ds: ds}, nil
}

// Close encodes and writes the file, flushes it to durable storage, and
// releases the file handle. It returns an error if called more than once.
func (ds *geoTIFFDataset) Close() error {
	if ds.closed {
		return errors.New("close called more than once")
	}
	ds.closed = true
	data, err := ds.encode()
	if err == nil {
		_, err = ds.file.WriteAt(data, 0)
	}
	if syncErr := ds.file.Sync(); err == nil {
		err = syncErr
	}
	if closeErr := ds.file.Close(); err == nil {
		err = closeErr
	}
	return err
}

type geoTIFFBand struct {
	ds *geoTIFFDataset
}

func (b geoTIFFBand) Write(grid *Grid) error {
	if grid.Rows() != b.ds.rows || grid.Cols() != b.ds.cols {
		return fmt.Errorf("grid shape %dx%d does not match raster size %dx%d",
			grid.Rows(), grid.Cols(), b.ds.rows, b.ds.cols)
	}
	b.ds.sampleData = b.ds.dataType.encodeSamples(grid.Float64s())
	return nil
}

func (b geoTIFFBand) SetNoData(nodata float64) error {
	b.ds.nodata = nodata
	b.ds.hasNoData = true
	return nil
}

// A tiffField is one IFD entry. Fields with values longer than 4 bytes are
// stored out of line.
type tiffField struct {
	tag   uint16
	typ   uint16
	count uint32
	value []byte
}

// encode encodes ds as a classic little-endian TIFF: header, IFD, out-of-line
// field values, then strip data. The encoding is deterministic, so writing
// the same dataset twice produces identical bytes.
func (ds *geoTIFFDataset) encode() ([]byte, error) {
	size := ds.dataType.Size()
	bytesPerRow := ds.cols * size
	rowsPerStrip := min(max(1, defaultStripSizeBytes/bytesPerRow), ds.rows)
	stripCount := (ds.rows + rowsPerStrip - 1) / rowsPerStrip

	sampleData := ds.sampleData
	if sampleData == nil {
		sampleData = make([]byte, ds.rows*bytesPerRow)
	}

	stripByteCounts := make([]uint32, stripCount)
	for i := range stripCount {
		stripRows := min(rowsPerStrip, ds.rows-i*rowsPerStrip)
		stripByteCounts[i] = uint32(stripRows * bytesPerRow)
	}

	// Fields must be in ascending tag order.
	fields := []tiffField{
		{tagImageWidth, tiffTypeLong, 1, longValues([]uint32{uint32(ds.cols)})},
		{tagImageLength, tiffTypeLong, 1, longValues([]uint32{uint32(ds.rows)})},
		{tagBitsPerSample, tiffTypeShort, 1, shortValues([]uint16{uint16(8 * size)})},
		{tagCompression, tiffTypeShort, 1, shortValues([]uint16{1})}, // No compression.
		{tagPhotometricInterpretation, tiffTypeShort, 1, shortValues([]uint16{1})}, // BlackIsZero.
		{tagStripOffsets, tiffTypeLong, uint32(stripCount), make([]byte, 4*stripCount)}, // Patched below.
		{tagSamplesPerPixel, tiffTypeShort, 1, shortValues([]uint16{1})},
		{tagRowsPerStrip, tiffTypeLong, 1, longValues([]uint32{uint32(rowsPerStrip)})},
		{tagStripByteCounts, tiffTypeLong, uint32(stripCount), longValues(stripByteCounts)},
		{tagPlanarConfiguration, tiffTypeShort, 1, shortValues([]uint16{1})}, // Chunky.
		{tagSampleFormat, tiffTypeShort, 1, shortValues([]uint16{ds.dataType.sampleFormat()})},
	}

	if ds.hasTransform {
		t := ds.transform
		if t.HasRotation() {
			// Row-major 4x4 model transformation.
			fields = append(fields, tiffField{tagModelTransformation, tiffTypeDouble, 16, doubleValues([]float64{
				t[1], t[2], 0, t[0],
				t[4], t[5], 0, t[3],
				0, 0, 0, 0,
				0, 0, 0, 1,
			})})
		} else {
			fields = append(fields,
				tiffField{tagModelPixelScale, tiffTypeDouble, 3, doubleValues([]float64{t[1], -t[5], 0})},
				// Raster (0,0) maps to the transform's origin.
				tiffField{tagModelTiepoint, tiffTypeDouble, 6, doubleValues([]float64{0, 0, 0, t[0], t[3], 0})},
			)
		}
	}

	if ds.projection != "" {
		directory, _, asciiParams := EncodeGeoKeys(&ParsedGeoKeys{
			Params:      map[GeoKey]int{GeoKeyGTRasterType: 1}, // PixelIsArea.
			ASCIIParams: map[GeoKey]string{GeoKeyPCSCitation: ds.projection + "|"},
		})
		fields = append(fields,
			tiffField{tagGeoKeyDirectory, tiffTypeShort, uint32(len(directory)), shortValues(directory)},
			tiffField{tagGeoASCIIParams, tiffTypeASCII, uint32(len(asciiParams) + 1), asciiValue(string(asciiParams))},
		)
	}

	if ds.hasNoData {
		nodata := strconv.FormatFloat(ds.nodata, 'g', -1, 64)
		fields = append(fields, tiffField{tagGDALNoData, tiffTypeASCII, uint32(len(nodata) + 1), asciiValue(nodata)})
	}

	// Lay out the file: header, IFD, out-of-line values, strip data.
	const ifdOffset = 8
	ifdSize := 2 + 12*len(fields) + 4
	dataStart := ifdOffset + ifdSize
	for _, field := range fields {
		if len(field.value) > 4 {
			dataStart += (len(field.value) + 1) &^ 1
		}
	}

	// Create bounds the sample data, but the metadata can still push the
	// file past the last representable strip offset.
	if int64(dataStart)+int64(len(sampleData)) > math.MaxUint32 {
		return nil, errors.New("encoded file exceeds the classic TIFF 4GiB limit")
	}

	stripOffsets := make([]uint32, stripCount)
	stripOffset := uint32(dataStart)
	for i := range stripCount {
		stripOffsets[i] = stripOffset
		stripOffset += stripByteCounts[i]
	}
	for i := range fields {
		if fields[i].tag == tagStripOffsets {
			fields[i].value = longValues(stripOffsets)
		}
	}

	var buf bytes.Buffer
	buf.Grow(dataStart + len(sampleData))
	buf.WriteString("II")
	putUint16(&buf, 42)
	putUint32(&buf, ifdOffset)

	putUint16(&buf, uint16(len(fields)))
	valueOffset := ifdOffset + ifdSize
	for _, field := range fields {
		putUint16(&buf, field.tag)
		putUint16(&buf, field.typ)
		putUint32(&buf, field.count)
		if len(field.value) <= 4 {
			var inline [4]byte
			copy(inline[:], field.value)
			buf.Write(inline[:])
		} else {
			putUint32(&buf, uint32(valueOffset))
			valueOffset += (len(field.value) + 1) &^ 1
		}
	}
	putUint32(&buf, 0) // No next IFD.

	for _, field := range fields {
		if len(field.value) > 4 {
			buf.Write(field.value)
			if len(field.value)%2 != 0 {
				buf.WriteByte(0) // Word alignment.
			}
		}
	}

	buf.Write(sampleData)
	return buf.Bytes(), nil
}

func putUint16(buf *bytes.Buffer, v uint16) {
	var b [2]byte
	binary.LittleEndian.PutUint16(b[:], v)
	buf.Write(b[:])
}

func putUint32(buf *bytes.Buffer, v uint32) {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	buf.Write(b[:])
}

func shortValues(vs []uint16) []byte {
	b := make([]byte, 2*len(vs))
	for i, v := range vs {
		binary.LittleEndian.PutUint16(b[2*i:], v)
	}
	return b
}

func longValues(vs []uint32) []byte {
	b := make([]byte, 4*len(vs))
	for i, v := range vs {
		binary.LittleEndian.PutUint32(b[4*i:], v)
	}
	return b
}

func doubleValues(vs []float64) []byte {
	b := make([]byte, 8*len(vs))
	for i, v := range vs {
		binary.LittleEndian.PutUint64(b[8*i:], math.Float64bits(v))
	}
	return b
}

func asciiValue(s string) []byte {
	return append([]byte(s), 0)
}
