package texpack

// Resources:
// https://en.wikipedia.org/wiki/Half-precision_floating-point_format
// IEEE 754-2019 §3.6 (binary16 interchange format)

import "math"

const (
	halfSignMask = 0x8000
	halfExpMask  = 0x7C00
	halfManMask  = 0x03FF

	f32ExpMask = 0x7F800000
	f32ManMask = 0x007FFFFF
)

// HalfFromFloat32 encodes a 32-bit float as an IEEE 754 binary16 bit pattern.
//
// NaN is propagated as a quiet NaN and Infinity keeps its sign. Values whose
// rebiased exponent saturates are encoded as signed Infinity. 32-bit
// subnormals and values too small for a binary16 normal flush to signed zero;
// binary16 subnormals are not produced. The 23-bit mantissa is narrowed to
// 10 bits with round-to-nearest (bias 1<<12 added before truncation); a
// mantissa carry increments the exponent and re-checks for overflow.
func HalfFromFloat32(f float32) uint16 {
	bits := math.Float32bits(f)
	sign := uint16(bits>>16) & halfSignMask
	exp := int32(bits>>23) & 0xFF
	man := bits & f32ManMask

	// Exponent all-ones: NaN or Infinity.
	if exp == 0xFF {
		if man != 0 {
			return sign | halfExpMask | 0x0200 | uint16(man>>13)&halfManMask
		}
		return sign | halfExpMask
	}

	// Zero or 32-bit subnormal: flush to signed zero.
	if exp == 0 {
		return sign
	}

	e := exp - 127 + 15
	if e >= 31 {
		return sign | halfExpMask
	}
	if e <= 0 {
		return sign
	}

	man += 1 << 12
	if man&0x00800000 != 0 {
		// The rounding carry overflowed the mantissa.
		man = 0
		e++
		if e >= 31 {
			return sign | halfExpMask
		}
	}

	return sign | uint16(e)<<10 | uint16(man>>13)
}

// HalfToFloat32 decodes an IEEE 754 binary16 bit pattern to a 32-bit float.
func HalfToFloat32(h uint16) float32 {
	sign := uint32(h&halfSignMask) << 16
	exp := uint32(h&halfExpMask) >> 10
	man := uint32(h & halfManMask)

	switch exp {
	case 0:
		if man == 0 {
			return math.Float32frombits(sign)
		}
		// Subnormal: renormalize into a binary32 normal.
		e := int32(-14)
		for man&0x0400 == 0 {
			man <<= 1
			e--
		}
		man &= halfManMask
		return math.Float32frombits(sign | uint32(e+127)<<23 | man<<13)
	case 0x1F:
		if man == 0 {
			return math.Float32frombits(sign | f32ExpMask)
		}
		return math.Float32frombits(sign | f32ExpMask | man<<13)
	default:
		return math.Float32frombits(sign | (exp-15+127)<<23 | man<<13)
	}
}
