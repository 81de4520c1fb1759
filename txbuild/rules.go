// Copyright (c) 2026 The cash2 developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package txbuild

import "math"

// MaxAmount is the largest representable destination amount, per spec.md
// §4.5's "amount < 2^63" validation rule.
const MaxAmount = uint64(math.MaxInt64)

// AddAmount adds b to a, reporting overflow instead of wrapping. Used by
// the neededMoney accumulation step, which must fail SUM_OVERFLOW rather
// than silently wrap.
func AddAmount(a, b uint64) (sum uint64, overflow bool) {
	sum = a + b
	return sum, sum < a
}

// ApproximateMaximumInputCount estimates how many ring-signed inputs fit
// in txMaxSize given mixin outputs per ring, mirroring
// CurrencyParams.approximateMaximumInputCount's contract: a simple linear
// model based on per-input byte cost growing with mixin.
func ApproximateMaximumInputCount(txMaxSize uint64, outputCount, mixin uint64) int {
	const baseInputSize = 32 + 4
	perRingMember := uint64(32 + 4)
	inputSize := baseInputSize + perRingMember*(mixin+1)
	const perOutputSize = 40
	overhead := perOutputSize * outputCount
	if txMaxSize <= overhead {
		return 0
	}
	return int((txMaxSize - overhead) / inputSize)
}
