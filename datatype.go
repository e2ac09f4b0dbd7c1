package rasterwrite

import (
	"encoding/binary"
	"math"
)

// A DataType is an on-disk sample encoding.
type DataType int

const (
	Byte DataType = iota + 1
	Int16
	UInt16
	Int32
	UInt32
	Float32
	Float64
)

func (dt DataType) String() string {
	switch dt {
	case Byte:
		return "Byte"
	case Int16:
		return "Int16"
	case UInt16:
		return "UInt16"
	case Int32:
		return "Int32"
	case UInt32:
		return "UInt32"
	case Float32:
		return "Float32"
	case Float64:
		return "Float64"
	default:
		return "Unknown"
	}
}

// Size returns the number of bytes needed for one sample of dt.
func (dt DataType) Size() int {
	switch dt {
	case Byte:
		return 1
	case Int16, UInt16:
		return 2
	case Int32, UInt32, Float32:
		return 4
	case Float64:
		return 8
	default:
		return 0
	}
}

// sampleFormat returns dt's TIFF SampleFormat value.
func (dt DataType) sampleFormat() uint16 {
	switch dt {
	case Byte, UInt16, UInt32:
		return 1
	case Int16, Int32:
		return 2
	case Float32, Float64:
		return 3
	default:
		return 0
	}
}

// dataTypeFromTIFF returns the DataType for a TIFF BitsPerSample and
// SampleFormat pair.
func dataTypeFromTIFF(bitsPerSample, sampleFormat uint16) (DataType, bool) {
	switch {
	case sampleFormat == 1 && bitsPerSample == 8:
		return Byte, true
	case sampleFormat == 1 && bitsPerSample == 16:
		return UInt16, true
	case sampleFormat == 1 && bitsPerSample == 32:
		return UInt32, true
	case sampleFormat == 2 && bitsPerSample == 16:
		return Int16, true
	case sampleFormat == 2 && bitsPerSample == 32:
		return Int32, true
	case sampleFormat == 3 && bitsPerSample == 32:
		return Float32, true
	case sampleFormat == 3 && bitsPerSample == 64:
		return Float64, true
	default:
		return 0, false
	}
}

// wrapInt64 truncates v toward zero and reduces it modulo 2^64 into int64
// range. NaN and infinities map to zero.
func wrapInt64(v float64) int64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	v = math.Trunc(v)
	const two64 = 18446744073709551616.0
	v = math.Mod(v, two64)
	if v >= 9223372036854775808.0 {
		v -= two64
	} else if v < -9223372036854775808.0 {
		v += two64
	}
	return int64(v)
}

// encodeSamples encodes samples into little-endian dt-typed bytes. Integer
// types truncate toward zero and wrap to the storage width; NaN and
// infinities encode as zero. Float32 follows Go's float64 to float32
// conversion.
func (dt DataType) encodeSamples(samples []float64) []byte {
	size := dt.Size()
	data := make([]byte, size*len(samples))
	for i, sample := range samples {
		b := data[i*size : (i+1)*size]
		switch dt {
		case Byte:
			b[0] = uint8(wrapInt64(sample))
		case Int16:
			binary.LittleEndian.PutUint16(b, uint16(int16(wrapInt64(sample))))
		case UInt16:
			binary.LittleEndian.PutUint16(b, uint16(wrapInt64(sample)))
		case Int32:
			binary.LittleEndian.PutUint32(b, uint32(int32(wrapInt64(sample))))
		case UInt32:
			binary.LittleEndian.PutUint32(b, uint32(wrapInt64(sample)))
		case Float32:
			binary.LittleEndian.PutUint32(b, math.Float32bits(float32(sample)))
		case Float64:
			binary.LittleEndian.PutUint64(b, math.Float64bits(sample))
		}
	}
	return data
}

// decodeSamples decodes n little-endian dt-typed samples from data.
func (dt DataType) decodeSamples(data []byte, n int) []float64 {
	size := dt.Size()
	samples := make([]float64, n)
	for i := range n {
		b := data[i*size : (i+1)*size]
		switch dt {
		case Byte:
			samples[i] = float64(b[0])
		case Int16:
			samples[i] = float64(int16(binary.LittleEndian.Uint16(b)))
		case UInt16:
			samples[i] = float64(binary.LittleEndian.Uint16(b))
		case Int32:
			samples[i] = float64(int32(binary.LittleEndian.Uint32(b)))
		case UInt32:
			samples[i] = float64(binary.LittleEndian.Uint32(b))
		case Float32:
			samples[i] = float64(math.Float32frombits(binary.LittleEndian.Uint32(b)))
		case Float64:
			samples[i] = math.Float64frombits(binary.LittleEndian.Uint64(b))
		}
	}
	return samples
}
