package partitionkey

import (
	"fmt"
	"strings"

	"github.com/meridiandb/meridian-go/core"
	"github.com/meridiandb/meridian-go/partitionkey/internal/murmur3"
)

// GetHashedPartitionKeyString computes the effective partition key for a
// sequence of typed components under the given kind and hash version.
//
//   - An empty sequence always yields MinInclusiveEffectivePartitionKey.
//   - The sequence [Infinity] always yields MaxExclusiveEffectivePartitionKey.
//   - KindHash supports version 1 or 2; KindMultiHash supports version 2
//     only; any other version for these two kinds is an IllegalArgument
//     error.
//   - Any other kind ignores version and yields the lowercase hex of the
//     binary encoding of the components.
func GetHashedPartitionKeyString(values []Value, kind Kind, version int) (string, error) {
	if len(values) == 0 {
		return MinInclusiveEffectivePartitionKey, nil
	}
	if len(values) == 1 && values[0].Tag == TagInfinity {
		return MaxExclusiveEffectivePartitionKey, nil
	}

	switch kind {
	case KindHash:
		switch version {
		case 1:
			return hashPartitioningV1(values), nil
		case 2:
			return hashPartitioningV2(values), nil
		default:
			return "", core.NewError("partitionkey.GetHashedPartitionKeyString", core.KindIllegalArgument,
				fmt.Sprintf("hash partitioning only supports version 1 or 2, got version %d", version))
		}
	case KindMultiHash:
		if version != 2 {
			return "", core.NewError("partitionkey.GetHashedPartitionKeyString", core.KindIllegalArgument,
				fmt.Sprintf("multihash partitioning only supports version 2, got version %d", version))
		}
		return multiHashPartitioningV2(values), nil
	default:
		return toHexEncodedBinaryStringLower(values), nil
	}
}

// hashPartitioningV2 implements the V2 single-hash pipeline: concatenate
// the V2 hash encoding of every component, hash with 128-bit Murmur3,
// reverse the little-endian bytes to big-endian, mask the top two bits of
// the first byte, render as uppercase hex.
func hashPartitioningV2(values []Value) string {
	var buf []byte
	for _, v := range values {
		writeForHashingV2(v, &buf)
	}
	return hash128ToEPK(buf)
}

func hash128ToEPK(buf []byte) string {
	hashBytes := murmur3.Sum128LE(buf, 0)
	reverseBytes(hashBytes)
	hashBytes[0] &= 0x3F
	return bytesToHexUpper(hashBytes)
}

// multiHashPartitioningV2 applies the V2 single-hash pipeline to each
// component independently and concatenates the resulting hex segments.
func multiHashPartitioningV2(values []Value) string {
	var sb strings.Builder
	for _, v := range values {
		var buf []byte
		writeForHashingV2(v, &buf)
		sb.WriteString(hash128ToEPK(buf))
	}
	return sb.String()
}

// hashPartitioningV1 implements the V1 pipeline: truncate strings to 100
// bytes, hash the truncated components with 32-bit Murmur3, prepend the
// hash as a Number component, then binary-encode the whole sequence with
// the V1 binary form.
func hashPartitioningV1(values []Value) string {
	truncated := make([]Value, len(values))
	var hashingBuf []byte
	for i, v := range values {
		tv := truncateForV1Hashing(v)
		truncated[i] = tv
		writeForHashingV1(tv, &hashingBuf)
	}

	hash32 := murmur3.Sum32(hashingBuf, 0)
	hashAsNumber := Number(float64(hash32))

	components := make([]Value, 0, len(truncated)+1)
	components = append(components, hashAsNumber)
	components = append(components, truncated...)

	var buf []byte
	for _, c := range components {
		writeForBinaryEncodingV1(c, &buf)
	}
	return bytesToHexUpper(buf)
}

func toHexEncodedBinaryStringLower(values []Value) string {
	var buf []byte
	for _, v := range values {
		writeForBinaryEncoding(v, &buf)
	}
	return bytesToHexLower(buf)
}

func reverseBytes(b []byte) {
	for i, j := 0, len(b)-1; i < j; i, j = i+1, j-1 {
		b[i], b[j] = b[j], b[i]
	}
}

const hexUpperDigits = "0123456789ABCDEF"
const hexLowerDigits = "0123456789abcdef"

func bytesToHexUpper(b []byte) string {
	return bytesToHex(b, hexUpperDigits)
}

func bytesToHexLower(b []byte) string {
	return bytesToHex(b, hexLowerDigits)
}

func bytesToHex(b []byte, digits string) string {
	out := make([]byte, len(b)*2)
	for i, v := range b {
		out[i*2] = digits[v>>4]
		out[i*2+1] = digits[v&0x0F]
	}
	return string(out)
}
