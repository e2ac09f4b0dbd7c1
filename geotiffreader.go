package rasterwrite

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/google/tiff"
	_ "github.com/google/tiff/bigtiff"
	_ "github.com/google/tiff/geotiff"
	"github.com/maypok86/otter/v2"
	"golang.org/x/image/tiff/lzw"
)

var errShortRead = errors.New("short read")

// A GeoTIFF is an open single-band striped GeoTIFF file. It reads back the
// files this package writes, plus compatible LZW-compressed ones. Samples
// are returned as stored; the nodata sentinel is reported by [GeoTIFF.NoData]
// but not substituted.
type GeoTIFF struct {
	file                *os.File
	cols                int
	rows                int
	dataType            DataType
	compression         uint16
	rowsPerStrip        int
	stripOffsets        []uint32
	stripByteCounts     []uint32
	transform           GeoTransform
	hasTransform        bool
	projection          string
	nodata              float64
	hasNoData           bool
	stripCacheSizeBytes int
	stripSamplesCache   *otter.Cache[int, []float64]
}

type GeoTIFFOption func(*GeoTIFF)

func WithStripCacheSize(stripCacheSizeBytes int) GeoTIFFOption {
	return func(f *GeoTIFF) {
		f.stripCacheSizeBytes = stripCacheSizeBytes
	}
}

// A geoTIFFIFD is a struct into which github.com/google/tiff can unmarshal an
// IFD.
type geoTIFFIFD struct {
	ImageWidth                uint32    `tiff:"field,tag=256"`
	ImageLength               uint32    `tiff:"field,tag=257"`
	BitsPerSample             uint16    `tiff:"field,tag=258"`
	Compression               uint16    `tiff:"field,tag=259"`
	PhotometricInterpretation uint16    `tiff:"field,tag=262"`
	StripOffsets              []uint32  `tiff:"field,tag=273"`
	SamplesPerPixel           uint16    `tiff:"field,tag=277"`
	RowsPerStrip              uint32    `tiff:"field,tag=278"`
	StripByteCounts           []uint32  `tiff:"field,tag=279"`
	PlanarConfiguration       uint16    `tiff:"field,tag=284"`
	TileWidth                 uint16    `tiff:"field,tag=322"`
	SampleFormat              uint16    `tiff:"field,tag=339"`
	ModelPixelScaleTag        []float64 `tiff:"field,tag=33550"`
	ModelTiepointTag          []float64 `tiff:"field,tag=33922"`
	ModelTransformationTag    []float64 `tiff:"field,tag=34264"`
	GeoKeyDirectoryTag        []uint16  `tiff:"field,tag=34735"`
	GeoDoubleParamsTag        []float64 `tiff:"field,tag=34736"`
	GeoASCIIParamsTag         string    `tiff:"field,tag=34737"`
	GDALNoData                string    `tiff:"field,tag=42113"`
}

// OpenGeoTIFF opens the single-band GeoTIFF file filename in fsys.
func OpenGeoTIFF(fsys fs.FS, filename string, options ...GeoTIFFOption) (*GeoTIFF, error) {
	var err error
	ok := false

	f := &GeoTIFF{
		stripCacheSizeBytes: 32 << 20, // 32MB.
	}
	for _, option := range options {
		option(f)
	}

	file, err := fsys.Open(filename)
	if err != nil {
		return nil, err
	}
	if _, ok := file.(*os.File); !ok {
		return nil, errors.ErrUnsupported
	}
	f.file = file.(*os.File)
	defer func() {
		if !ok {
			_ = f.file.Close()
		}
	}()

	tiffTIFF, err := tiff.Parse(f.file, tiff.GetTagSpace("GeoTIFF"), nil)
	if err != nil {
		return nil, err
	}

	if len(tiffTIFF.IFDs()) != 1 {
		return nil, fmt.Errorf("found %d IFDs, expected 1", len(tiffTIFF.IFDs()))
	}

	var ifd geoTIFFIFD
	if err := tiff.UnmarshalIFD(tiffTIFF.IFDs()[0], &ifd); err != nil {
		return nil, err
	}

	if ifd.ImageWidth == 0 ||
		ifd.ImageLength == 0 ||
		(ifd.Compression != 1 && ifd.Compression != 5) ||
		ifd.PhotometricInterpretation != 1 ||
		ifd.SamplesPerPixel != 1 ||
		(ifd.PlanarConfiguration != 0 && ifd.PlanarConfiguration != 1) ||
		ifd.TileWidth != 0 ||
		ifd.RowsPerStrip == 0 {
		return nil, errors.ErrUnsupported
	}

	dataType, validDataType := dataTypeFromTIFF(ifd.BitsPerSample, ifd.SampleFormat)
	if !validDataType {
		return nil, errors.ErrUnsupported
	}
	f.dataType = dataType
	f.compression = ifd.Compression

	f.cols = int(ifd.ImageWidth)
	f.rows = int(ifd.ImageLength)
	f.rowsPerStrip = int(ifd.RowsPerStrip)
	stripCount := (f.rows + f.rowsPerStrip - 1) / f.rowsPerStrip
	if len(ifd.StripOffsets) != stripCount || len(ifd.StripByteCounts) != stripCount {
		return nil, errors.New("incorrect number of strip byte counts or offsets")
	}
	f.stripOffsets = ifd.StripOffsets
	f.stripByteCounts = ifd.StripByteCounts

	switch {
	case len(ifd.ModelTransformationTag) == 16:
		m := ifd.ModelTransformationTag
		f.transform = GeoTransform{m[3], m[0], m[1], m[7], m[4], m[5]}
		f.hasTransform = true
	case len(ifd.ModelPixelScaleTag) == 3 && len(ifd.ModelTiepointTag) == 6:
		if ifd.ModelTiepointTag[0] != 0 || ifd.ModelTiepointTag[1] != 0 || ifd.ModelTiepointTag[2] != 0 || ifd.ModelTiepointTag[5] != 0 {
			return nil, errors.ErrUnsupported
		}
		scale, tiepoint := ifd.ModelPixelScaleTag, ifd.ModelTiepointTag
		f.transform = GeoTransform{tiepoint[3], scale[0], 0, tiepoint[4], 0, -scale[1]}
		f.hasTransform = true
	}

	if len(ifd.GeoKeyDirectoryTag) != 0 {
		parsedGeoKeys, err := ParseGeoKeys(ifd.GeoKeyDirectoryTag, ifd.GeoDoubleParamsTag, []byte(ifd.GeoASCIIParamsTag))
		if err != nil {
			return nil, err
		}
		if citation, ok := parsedGeoKeys.ASCIIParams[GeoKeyPCSCitation]; ok {
			f.projection = strings.TrimSuffix(citation, "|")
		}
	}

	if nodata := strings.TrimRight(ifd.GDALNoData, "\x00"); nodata != "" {
		if value, err := strconv.ParseFloat(nodata, 64); err == nil {
			f.nodata = value
			f.hasNoData = true
		}
	}

	stripSampleCount := f.rowsPerStrip * f.cols
	stripCacheCount := max(f.stripCacheSizeBytes/(8*stripSampleCount), 1)
	f.stripSamplesCache, err = otter.New(&otter.Options[int, []float64]{
		MaximumSize: stripCacheCount,
	})
	if err != nil {
		return nil, err
	}

	ok = true
	return f, nil
}

func (f *GeoTIFF) Close() error {
	return f.file.Close()
}

// Size returns f's raster size in columns and rows.
func (f *GeoTIFF) Size() (cols, rows int) {
	return f.cols, f.rows
}

// DataType returns f's on-disk sample encoding.
func (f *GeoTIFF) DataType() DataType {
	return f.dataType
}

// GeoTransform returns f's geotransform, if it has one.
func (f *GeoTIFF) GeoTransform() (GeoTransform, bool) {
	return f.transform, f.hasTransform
}

// Projection returns f's projection in WKT form, or the empty string if f
// has no spatial reference.
func (f *GeoTIFF) Projection() string {
	return f.projection
}

// NoData returns f's nodata sentinel, if it has one.
func (f *GeoTIFF) NoData() (float64, bool) {
	return f.nodata, f.hasNoData
}

// ReadBand reads the full band into a Grid.
func (f *GeoTIFF) ReadBand(ctx context.Context) (*Grid, error) {
	grid, err := NewGrid(f.rows, f.cols)
	if err != nil {
		return nil, err
	}
	samples := grid.Float64s()
	for stripIndex := range len(f.stripOffsets) {
		stripSamples, err := f.getStripSamplesCached(ctx, stripIndex)
		if err != nil {
			return nil, err
		}
		copy(samples[stripIndex*f.rowsPerStrip*f.cols:], stripSamples)
	}
	return grid, nil
}

// Sample returns the sample at column col, row row. Coordinates outside the
// raster return NaN.
func (f *GeoTIFF) Sample(ctx context.Context, col, row int) (float64, error) {
	if col < 0 || f.cols <= col || row < 0 || f.rows <= row {
		return math.NaN(), nil
	}
	stripIndex := row / f.rowsPerStrip
	stripSamples, err := f.getStripSamplesCached(ctx, stripIndex)
	if err != nil {
		return 0, err
	}
	return stripSamples[(row-stripIndex*f.rowsPerStrip)*f.cols+col], nil
}

// stripRows returns the number of rows in the strip at stripIndex.
func (f *GeoTIFF) stripRows(stripIndex int) int {
	return min(f.rowsPerStrip, f.rows-stripIndex*f.rowsPerStrip)
}

// getStripSamples reads, decompresses, and decodes the strip at stripIndex.
func (f *GeoTIFF) getStripSamples(ctx context.Context, stripIndex int) ([]float64, error) {
	stripByteCount := f.stripByteCounts[stripIndex]
	stripData := make([]byte, stripByteCount)
	switch n, err := f.file.ReadAt(stripData, int64(f.stripOffsets[stripIndex])); {
	case err != nil:
		return nil, err
	case n != int(stripByteCount):
		return nil, errShortRead
	}

	stripSampleCount := f.stripRows(stripIndex) * f.cols
	if f.compression == 5 {
		var err error
		stripData, err = f.decompressStripData(stripData, stripSampleCount*f.dataType.Size())
		if err != nil {
			return nil, err
		}
	}

	return f.dataType.decodeSamples(stripData, stripSampleCount), nil
}

// decompressStripData decompresses the LZW-compressed strip data in
// compressedData.
func (f *GeoTIFF) decompressStripData(compressedData []byte, uncompressedByteCount int) ([]byte, error) {
	stripData := make([]byte, uncompressedByteCount)
	r := lzw.NewReader(bytes.NewReader(compressedData), lzw.MSB, 8)
	for bytesRead := 0; bytesRead < uncompressedByteCount; {
		n, err := r.Read(stripData[bytesRead:])
		if err != nil {
			return nil, err
		}
		bytesRead += n
	}
	return stripData, nil
}

// getStripSamplesCached returns the samples of the strip at stripIndex using
// f's cache.
func (f *GeoTIFF) getStripSamplesCached(ctx context.Context, stripIndex int) ([]float64, error) {
	return f.stripSamplesCache.Get(ctx, stripIndex, otter.LoaderFunc[int, []float64](f.getStripSamples))
}
