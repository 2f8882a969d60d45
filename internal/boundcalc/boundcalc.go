// Package boundcalc computes the BigInt diameter bound the driver
// passes to the external model checker as a bounded-model-checking
// unrolling depth (spec.md §4.6), and the tightness ratio between a
// loose and a tight bound formula.
//
// The reference implementation's computeBound is declared in
// original_source/include/acoac_boundcal.h but its body is not part
// of the retrieved source, so both formulas here are a derivation
// from spec.md §4.6's own description rather than a port: see
// DESIGN.md's Open Question (a) resolution.
package boundcalc

import (
	"github.com/acoac-verify/acoac-checker/internal/bigint"
	"github.com/acoac-verify/acoac-checker/internal/policy"
	"github.com/acoac-verify/acoac-checker/internal/symtab"
)

// TightLevel selects which bound formula to use, matching the
// --tl/-b CLI flag (spec.md §6).
type TightLevel int

const (
	// Loose uses full attribute domain sizes.
	Loose TightLevel = 1
	// Tight uses reachable-value-set sizes where available.
	Tight TightLevel = 2
)

// Compute returns B(instance, level): the product of every
// attribute's (domain, or for Tight, reachable-value-set) size,
// raised to the number of users, times the rule count — spec.md
// §4.6's "product of value-domain sizes raised to |U|, multiplied by
// a rule-count factor". reachable may be nil (Loose never needs it;
// Tight without it degrades to the Loose formula, never producing a
// larger bound).
func Compute(in *policy.Instance, level TightLevel, reachable map[symtab.ID][]symtab.ID) bigint.Int {
	domainProduct := bigint.One
	for _, attr := range in.Universe.Attrs {
		size := len(in.Universe.Domains[attr])
		if level == Tight {
			if vals, ok := reachable[attr]; ok && len(vals) < size {
				size = len(vals)
			}
		}
		if size < 1 {
			size = 1
		}
		domainProduct = domainProduct.Mul(bigint.FromInt64(int64(size)))
	}

	bound := domainProduct.Pow(in.NumUsers())
	ruleFactor := bigint.FromInt64(int64(maxInt(in.NumRules(), 1)))
	return bound.Mul(ruleFactor)
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

// Tightness computes floor(tight * 10^k / loose) and returns its
// decimal digit string, spec.md §4.6's secondary operation; k itself
// is not returned. k must be >= 0; loose must be non-zero.
func Tightness(tight, loose bigint.Int, k int) string {
	numerator := tight.Mul(bigint.TenPow(k))
	ratio := numerator.Quo(loose)
	return ratio.Decimal()
}

// AverageTightness averages a batch of tightness ratios (each already
// scaled by the same 10^k), used by the driver's --compute_tightness
// directory mode. It returns the floor of the arithmetic mean, scaled
// by the same k as its inputs.
func AverageTightness(ratios []bigint.Int) bigint.Int {
	if len(ratios) == 0 {
		return bigint.Zero
	}
	sum := bigint.Zero
	for _, r := range ratios {
		sum = sum.Add(r)
	}
	return sum.Quo(bigint.FromInt64(int64(len(ratios))))
}
