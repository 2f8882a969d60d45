package bigint

import "math/bits"

// mulMagSchoolbook multiplies two magnitudes the schoolbook way,
// ported from the reference multiplyArray routine.
func mulMagSchoolbook(a, b []uint32) []uint32 {
	if len(a) == 0 || len(b) == 0 {
		return nil
	}
	result := make([]uint32, len(a)+len(b))
	for i := len(b) - 1; i >= 0; i-- {
		bWord := uint64(b[i])
		if bWord == 0 {
			continue
		}
		var carry uint64
		for j := len(a) - 1; j >= 0; j-- {
			idx := i + j + 1
			prod := bWord*uint64(a[j]) + uint64(result[idx]) + carry
			result[idx] = uint32(prod)
			carry = prod >> 32
		}
		result[i] += uint32(carry)
	}
	return result
}

// mulMagKaratsuba multiplies two magnitudes using Karatsuba's
// divide-and-conquer algorithm, falling back to schoolbook below the
// threshold on each half.
func mulMagKaratsuba(a, b []uint32) []uint32 {
	n := len(a)
	if len(b) > n {
		n = len(b)
	}
	if n <= karatsubaThreshold {
		return mulMagSchoolbook(a, b)
	}

	half := (n + 1) / 2

	aHigh, aLow := splitAt(a, half)
	bHigh, bLow := splitAt(b, half)

	p1 := mulMag(aHigh, bHigh)
	p2 := mulMag(aLow, bLow)
	aSum := addMag(aHigh, aLow)
	bSum := addMag(bHigh, bLow)
	p3 := mulMag(aSum, bSum)

	// middle = p3 - p1 - p2
	middle := subMagSigned(p3, addMag(p1, p2))

	result := make([]uint32, 0, len(a)+len(b))
	result = shiftedAdd(p1, middle, p2, half)
	return result
}

// splitAt splits big-endian magnitude x into (high, low) where low
// holds the trailing `n` words.
func splitAt(x []uint32, n int) (high, low []uint32) {
	if len(x) <= n {
		return nil, x
	}
	return x[:len(x)-n], x[len(x)-n:]
}

// subMagSigned computes a-b for magnitudes, assuming a >= b; used
// internally where Karatsuba's algebra guarantees non-negativity.
func subMagSigned(a, b []uint32) []uint32 {
	a, b = stripLeadingZeros(a), stripLeadingZeros(b)
	if cmpMag(a, b) < 0 {
		// Algebraically unreachable for well-formed Karatsuba inputs;
		// guard defensively rather than trust the caller blindly.
		return subMag(b, a)
	}
	return subMag(a, b)
}

// shiftedAdd computes p1<<64h + middle<<32h + p2 where h = half words,
// by aligning the three magnitudes into one accumulator.
func shiftedAdd(p1, middle, p2 []uint32, half int) []uint32 {
	total := len(p1) + 2*half
	if l := len(middle) + half; l > total {
		total = l
	}
	if len(p2) > total {
		total = len(p2)
	}
	acc := make([]uint32, total)

	addAt := func(src []uint32, offset int) {
		si := len(src) - 1
		ai := len(acc) - 1 - offset
		var carry uint64
		for si >= 0 {
			sum := uint64(acc[ai]) + uint64(src[si]) + carry
			acc[ai] = uint32(sum)
			carry = sum >> 32
			si--
			ai--
		}
		for carry != 0 && ai >= 0 {
			sum := uint64(acc[ai]) + carry
			acc[ai] = uint32(sum)
			carry = sum >> 32
			ai--
		}
	}

	addAt(p2, 0)
	addAt(middle, half)
	addAt(p1, 2*half)
	return acc
}

func mulMag(a, b []uint32) []uint32 {
	n := len(a)
	if len(b) > n {
		n = len(b)
	}
	if n > karatsubaThreshold {
		return mulMagKaratsuba(a, b)
	}
	return mulMagSchoolbook(a, b)
}

// Mul returns x * y.
func (x Int) Mul(y Int) Int {
	if x.sign == 0 || y.sign == 0 {
		return Zero
	}
	return newInt(x.sign*y.sign, mulMag(x.mag, y.mag))
}

// Pow returns x raised to the non-negative integer power exp, by
// repeated squaring with trailing-zero-bit factoring (the reference
// powForBigInteger strategy): the base's trailing zero bits are shifted
// out first, the remaining part is squared once per bit of exp and
// multiplied into the accumulator only on set bits, and the factored
// power of two is restored with one final left shift.
func (x Int) Pow(exp int) Int {
	if exp < 0 {
		panic("bigint: negative exponent")
	}
	if exp == 0 {
		return One
	}
	if x.sign == 0 {
		return Zero
	}
	tz := 0
	for i := len(x.mag) - 1; x.mag[i] == 0; i-- {
		tz += 32
	}
	tz += bits.TrailingZeros32(x.mag[len(x.mag)-1-tz/32])
	shift := tz * exp
	result := One
	base := x.ShiftRight(tz)
	for exp > 0 {
		if exp&1 == 1 {
			result = result.Mul(base)
		}
		exp >>= 1
		if exp > 0 {
			base = base.Mul(base)
		}
	}
	return result.ShiftLeft(shift)
}
