package bigint

import "sync"

// tenPowCache is the process-lifetime, grow-only cache of powers of
// ten used by decimal parsing and by the bound calculator's tightness
// ratio. It and radixCache below are the module's shared mutable
// resources (spec.md §5/§9), each guarded by a mutex even though the
// reduction pipeline itself is single-threaded.
var tenPowCache = struct {
	mu     sync.Mutex
	powers []Int
}{powers: []Int{One}}

// TenPow returns 10^n, extending the cache as needed. n must be >= 0.
func TenPow(n int) Int {
	if n < 0 {
		panic("bigint: negative power")
	}
	tenPowCache.mu.Lock()
	defer tenPowCache.mu.Unlock()
	for len(tenPowCache.powers) <= n {
		next := tenPowCache.powers[len(tenPowCache.powers)-1].Mul(FromInt64(10))
		tenPowCache.powers = append(tenPowCache.powers, next)
	}
	return tenPowCache.powers[n]
}

// radixCache is the reference's getRadixConversionCache table: entry n
// holds 10^(2^n), built by repeated squaring rather than repeated
// multiplication by ten, since recursiveToString needs a divisor near
// sqrt(u) and squaring reaches the required magnitude in O(log log u)
// steps instead of O(log u). Separate from tenPowCache because it
// grows along a different sequence for a different consumer
// (recursive decimal rendering, not tightness precision).
var radixCache = struct {
	mu     sync.Mutex
	powers []Int
}{}

// radixConversionCache returns 10^(2^n), extending the cache as
// needed. n must be >= 0.
func radixConversionCache(n int) Int {
	radixCache.mu.Lock()
	defer radixCache.mu.Unlock()
	for len(radixCache.powers) <= n {
		if len(radixCache.powers) == 0 {
			radixCache.powers = append(radixCache.powers, FromInt64(10))
			continue
		}
		prev := radixCache.powers[len(radixCache.powers)-1]
		radixCache.powers = append(radixCache.powers, prev.Mul(prev))
	}
	return radixCache.powers[n]
}
