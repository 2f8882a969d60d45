package bigint

// addMag adds two big-endian magnitudes of possibly different length.
func addMag(a, b []uint32) []uint32 {
	if len(a) < len(b) {
		a, b = b, a
	}
	result := make([]uint32, len(a)+1)
	var carry uint64
	ai := len(a) - 1
	bi := len(b) - 1
	ri := len(result) - 1
	for bi >= 0 {
		sum := uint64(a[ai]) + uint64(b[bi]) + carry
		result[ri] = uint32(sum)
		carry = sum >> 32
		ai--
		bi--
		ri--
	}
	for ai >= 0 {
		sum := uint64(a[ai]) + carry
		result[ri] = uint32(sum)
		carry = sum >> 32
		ai--
		ri--
	}
	if carry != 0 {
		result[0] = uint32(carry)
		return result
	}
	return result[1:]
}

// subMag subtracts b from a, requiring a >= b in magnitude.
func subMag(a, b []uint32) []uint32 {
	result := make([]uint32, len(a))
	var borrow int64
	ai := len(a) - 1
	bi := len(b) - 1
	ri := len(result) - 1
	for bi >= 0 {
		diff := int64(a[ai]) - int64(b[bi]) - borrow
		if diff < 0 {
			diff += 1 << 32
			borrow = 1
		} else {
			borrow = 0
		}
		result[ri] = uint32(diff)
		ai--
		bi--
		ri--
	}
	for ai >= 0 {
		diff := int64(a[ai]) - borrow
		if diff < 0 {
			diff += 1 << 32
			borrow = 1
		} else {
			borrow = 0
		}
		result[ri] = uint32(diff)
		ai--
		ri--
	}
	return result
}

// Add returns x + y.
func (x Int) Add(y Int) Int {
	if x.sign == 0 {
		return y
	}
	if y.sign == 0 {
		return x
	}
	if x.sign == y.sign {
		return newInt(x.sign, addMag(x.mag, y.mag))
	}
	c := cmpMag(x.mag, y.mag)
	if c == 0 {
		return Zero
	}
	if c > 0 {
		return newInt(x.sign, subMag(x.mag, y.mag))
	}
	return newInt(y.sign, subMag(y.mag, x.mag))
}

// Sub returns x - y.
func (x Int) Sub(y Int) Int { return x.Add(y.Neg()) }
