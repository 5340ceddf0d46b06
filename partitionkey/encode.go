package partitionkey

import (
	"encoding/binary"
	"math"
)

// writeForHashingCore writes the 1-byte marker plus payload used by both
// hash pipelines; stringSuffix distinguishes the V1 (0x00) and V2 (0xFF)
// hash forms for strings.
func writeForHashingCore(v Value, stringSuffix byte, buf *[]byte) {
	switch v.Tag {
	case TagBool:
		if v.Bool {
			*buf = append(*buf, markerBoolTrue)
		} else {
			*buf = append(*buf, markerBoolFalse)
		}
	case TagNull:
		*buf = append(*buf, markerNull)
	case TagNumber:
		*buf = append(*buf, markerNumber)
		var b [8]byte
		binary.LittleEndian.PutUint64(b[:], math.Float64bits(v.Number))
		*buf = append(*buf, b[:]...)
	case TagString:
		*buf = append(*buf, markerString)
		*buf = append(*buf, []byte(v.Str)...)
		*buf = append(*buf, stringSuffix)
	case TagUndefined:
		*buf = append(*buf, markerUndefined)
	case TagInfinity:
		*buf = append(*buf, markerInfinity)
	}
}

func writeForHashingV1(v Value, buf *[]byte) { writeForHashingCore(v, 0x00, buf) }
func writeForHashingV2(v Value, buf *[]byte) { writeForHashingCore(v, 0xFF, buf) }

// encodeDoubleAsUint64 produces an ordering-preserving unsigned encoding of
// an IEEE-754 double: flip the sign bit for non-negative values, two's
// complement the bit pattern for negative ones.
func encodeDoubleAsUint64(value float64) uint64 {
	bits := math.Float64bits(value)
	const signMask uint64 = 0x8000000000000000
	if bits < signMask {
		return bits ^ signMask
	}
	return ^bits + 1
}

// writeForBinaryEncodingV1 encodes a component using the V1 binary rules:
// numbers as a variable-length 7-bit-continuation ordering-preserving
// form, strings as byte+1 truncated to 100/101 bytes.
func writeForBinaryEncodingV1(v Value, buf *[]byte) {
	switch v.Tag {
	case TagBool:
		if v.Bool {
			*buf = append(*buf, markerBoolTrue)
		} else {
			*buf = append(*buf, markerBoolFalse)
		}
	case TagInfinity:
		*buf = append(*buf, markerInfinity)
	case TagNumber:
		*buf = append(*buf, markerNumber)
		payload := encodeDoubleAsUint64(v.Number)
		*buf = append(*buf, byte(payload>>56))
		payload <<= 8
		first := true
		var byteToWrite byte
		for payload != 0 {
			if !first {
				*buf = append(*buf, byteToWrite)
			} else {
				first = false
			}
			byteToWrite = byte(payload>>56) | 0x01
			payload <<= 7
		}
		*buf = append(*buf, byteToWrite&0xFE)
	case TagString:
		*buf = append(*buf, markerString)
		utf8 := []byte(v.Str)
		short := len(utf8) <= maxStringBytesToAppend
		writeLen := len(utf8)
		if !short {
			writeLen = minInt(len(utf8), maxStringBytesToAppend+1)
		}
		for i := 0; i < writeLen; i++ {
			*buf = append(*buf, utf8[i]+1)
		}
		if short {
			*buf = append(*buf, 0x00)
		}
	case TagUndefined:
		*buf = append(*buf, markerUndefined)
	case TagNull:
		*buf = append(*buf, markerNull)
	}
}

// writeForBinaryEncoding is the "Other" kind path: like V1 binary encoding
// but numbers use the plain little-endian IEEE-754 form and string bytes
// are only incremented when not already 0xFF.
func writeForBinaryEncoding(v Value, buf *[]byte) {
	switch v.Tag {
	case TagBool:
		if v.Bool {
			*buf = append(*buf, markerBoolTrue)
		} else {
			*buf = append(*buf, markerBoolFalse)
		}
	case TagInfinity:
		*buf = append(*buf, markerInfinity)
	case TagNumber:
		*buf = append(*buf, markerNumber)
		var b [8]byte
		binary.LittleEndian.PutUint64(b[:], math.Float64bits(v.Number))
		*buf = append(*buf, b[:]...)
	case TagString:
		*buf = append(*buf, markerString)
		utf8 := []byte(v.Str)
		size := minInt(len(utf8), maxStringBytesToAppend)
		var writeLen int
		short := true
		if len(utf8) > maxStringBytesToAppend {
			short = false
			writeLen = size + 1
		} else {
			writeLen = size
		}
		for i := 0; i < writeLen; i++ {
			b := utf8[i]
			if b < 0xFF {
				b++
			}
			*buf = append(*buf, b)
		}
		if short {
			*buf = append(*buf, 0x00)
		}
	case TagUndefined:
		*buf = append(*buf, markerUndefined)
	case TagNull:
		*buf = append(*buf, markerNull)
	}
}

// truncateForV1Hashing truncates a string component to its first 100
// bytes for the V1 hash pipeline; other tags pass through unchanged.
func truncateForV1Hashing(v Value) Value {
	if v.Tag == TagString && len(v.Str) > 100 {
		return String(v.Str[:100])
	}
	return v
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
