package rasterwrite

import (
	"math"
	"testing"

	"github.com/alecthomas/assert/v2"
)

func TestDataType_Size(t *testing.T) {
	for _, tc := range []struct {
		dataType DataType
		expected int
	}{
		{dataType: Byte, expected: 1},
		{dataType: Int16, expected: 2},
		{dataType: UInt16, expected: 2},
		{dataType: Int32, expected: 4},
		{dataType: UInt32, expected: 4},
		{dataType: Float32, expected: 4},
		{dataType: Float64, expected: 8},
	} {
		assert.Equal(t, tc.expected, tc.dataType.Size())
	}
}

func TestDataType_TIFFRoundTrip(t *testing.T) {
	for _, dataType := range []DataType{Byte, Int16, UInt16, Int32, UInt32, Float32, Float64} {
		actual, ok := dataTypeFromTIFF(uint16(8*dataType.Size()), dataType.sampleFormat())
		assert.True(t, ok)
		assert.Equal(t, dataType, actual)
	}
	_, ok := dataTypeFromTIFF(8, 2)
	assert.False(t, ok)
}

func TestWrapInt64(t *testing.T) {
	for _, tc := range []struct {
		value    float64
		expected int64
	}{
		{value: 0, expected: 0},
		{value: 1.9, expected: 1},
		{value: -1.9, expected: -1},
		{value: 300, expected: 300},
		{value: math.NaN(), expected: 0},
		{value: math.Inf(1), expected: 0},
		{value: math.Inf(-1), expected: 0},
		{value: 1e20, expected: 7766279631452241920}, // 1e20 - 5*2^64.
	} {
		assert.Equal(t, tc.expected, wrapInt64(tc.value))
	}
}

// TestDataType_EncodeSemantics pins down the documented cast rule: truncate
// toward zero, wrap to the storage width, NaN and infinities encode as zero.
func TestDataType_EncodeSemantics(t *testing.T) {
	for _, tc := range []struct {
		dataType DataType
		samples  []float64
		expected []float64
	}{
		{
			dataType: Byte,
			samples:  []float64{0, 255, 300, -1, 256, 1.9, math.NaN()},
			expected: []float64{0, 255, 44, 255, 0, 1, 0},
		},
		{
			dataType: Int16,
			samples:  []float64{-32768, 32767, 32768, -1.5},
			expected: []float64{-32768, 32767, -32768, -1},
		},
		{
			dataType: UInt16,
			samples:  []float64{0, 65535, 70000, -1},
			expected: []float64{0, 65535, 4464, 65535},
		},
		{
			dataType: Int32,
			samples:  []float64{-2147483648, 2147483647, 2147483648},
			expected: []float64{-2147483648, 2147483647, -2147483648},
		},
		{
			dataType: UInt32,
			samples:  []float64{0, 4294967295, 4294967296},
			expected: []float64{0, 4294967295, 0},
		},
		{
			dataType: Float32,
			samples:  []float64{0, 0.5, 0.1, -1e40},
			expected: []float64{0, 0.5, float64(float32(0.1)), math.Inf(-1)},
		},
		{
			dataType: Float64,
			samples:  []float64{0, 0.1, -1e40},
			expected: []float64{0, 0.1, -1e40},
		},
	} {
		data := tc.dataType.encodeSamples(tc.samples)
		assert.Equal(t, tc.dataType.Size()*len(tc.samples), len(data))
		actual := tc.dataType.decodeSamples(data, len(tc.samples))
		assert.Equal(t, tc.expected, actual)
	}
}
