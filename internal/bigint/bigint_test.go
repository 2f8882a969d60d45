package bigint

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDecimalRoundTrip(t *testing.T) {
	cases := []string{
		"0", "1", "-1", "9", "10", "999999999", "1000000000",
		"123456789012345678901234567890",
		"-123456789012345678901234567890",
	}
	for _, c := range cases {
		x, err := FromDecimalString(c)
		require.NoError(t, err)
		require.Equal(t, c, x.Decimal())
	}
}

func TestAddCommutative(t *testing.T) {
	a := FromInt64(123456789)
	b := FromInt64(-987654321)
	require.True(t, a.Add(b).Equal(b.Add(a)))
}

func TestAddAssociative(t *testing.T) {
	a := FromInt64(7)
	b := FromInt64(-300)
	c := FromInt64(50000)
	require.True(t, a.Add(b).Add(c).Equal(a.Add(b.Add(c))))
}

func TestMulCommutativeAndAssociative(t *testing.T) {
	a, _ := FromDecimalString("123456789012345678901234567890")
	b, _ := FromDecimalString("-98765432109876543210")
	c := FromInt64(17)
	require.True(t, a.Mul(b).Equal(b.Mul(a)))
	require.True(t, a.Mul(b).Mul(c).Equal(a.Mul(b.Mul(c))))
}

func TestMulDistributesOverAdd(t *testing.T) {
	a := FromInt64(12345)
	b := FromInt64(-6789)
	c := FromInt64(424242)
	lhs := a.Mul(b.Add(c))
	rhs := a.Mul(b).Add(a.Mul(c))
	require.True(t, lhs.Equal(rhs))
}

func TestQuoRemInverse(t *testing.T) {
	a, _ := FromDecimalString("999999999999999999999999999999")
	b := FromInt64(7919)
	q, r := a.QuoRem(b)
	require.True(t, q.Mul(b).Add(r).Equal(a))
	require.True(t, r.Abs().Cmp(b.Abs()) < 0)
}

func TestQuoRemMultiWordDivisorKnuth(t *testing.T) {
	a := FromInt64(999999999).Pow(60)
	b := One.ShiftLeft(200).Add(FromInt64(98765432))
	require.Greater(t, len(b.mag), 1)
	q, r := a.QuoRem(b)
	require.True(t, q.Mul(b).Add(r).Equal(a))
	require.True(t, r.Abs().Cmp(b.Abs()) < 0)
}

func TestQuoRemNegativeDividend(t *testing.T) {
	a := FromInt64(-17)
	b := FromInt64(5)
	q, r := a.QuoRem(b)
	require.True(t, q.Equal(FromInt64(-3)))
	require.True(t, r.Equal(FromInt64(-2)))
}

func TestShiftLeftRightInverse(t *testing.T) {
	a, _ := FromDecimalString("123456789012345678901234567890")
	shifted := a.ShiftLeft(37)
	back := shifted.ShiftRight(37)
	require.True(t, back.Equal(a))
}

func TestShiftRightNegativeRoundsTowardNegativeInfinity(t *testing.T) {
	a := FromInt64(-1)
	require.True(t, a.ShiftRight(5).Equal(FromInt64(-1)))
}

func TestPow(t *testing.T) {
	two := FromInt64(2)
	require.Equal(t, "1024", two.Pow(10).Decimal())
	require.Equal(t, "1", two.Pow(0).Decimal())
}

func TestCmp(t *testing.T) {
	require.Equal(t, -1, FromInt64(-5).Cmp(FromInt64(5)))
	require.Equal(t, 0, FromInt64(5).Cmp(FromInt64(5)))
	require.Equal(t, 1, FromInt64(6).Cmp(FromInt64(5)))
}

func TestFromHexStringParses(t *testing.T) {
	x, err := FromHexString("1a2b3c4d5e6f")
	require.NoError(t, err)
	require.False(t, x.IsZero())
	require.Equal(t, 1, x.Sign())
	require.True(t, x.Equal(FromInt64(0x1a2b3c4d5e6f)))
}

func TestDecimalAboveSchoenhageThreshold(t *testing.T) {
	x := FromInt64(999999999).Pow(400)
	require.Greater(t, len(x.mag), schoenhageBaseConversionThreshold)
	s := x.Decimal()
	back, err := FromDecimalString(s)
	require.NoError(t, err)
	require.True(t, back.Equal(x))
}

func TestKaratsubaMatchesSchoolbookAboveThreshold(t *testing.T) {
	big1 := One.ShiftLeft(3200).Sub(One)
	big2 := One.ShiftLeft(2900).Add(FromInt64(12345))
	viaKaratsuba := big1.Mul(big2)
	viaSchoolbook := newInt(big1.sign*big2.sign, mulMagSchoolbook(big1.mag, big2.mag))
	require.True(t, viaKaratsuba.Equal(viaSchoolbook))
}
