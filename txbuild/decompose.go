// Copyright (c) 2026 The cash2 developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package txbuild implements the algorithmic pieces of the send pipeline
// that do not need access to wallet state: amount decomposition, dust
// classification, output-selection sampling, and optional per-destination
// message encoding. Everything here is pure and unit-testable in
// isolation, the way txrules/txsizes are pure relative to wallet.go in
// the teacher.
package txbuild

// DecomposeAmount splits amount into the canonical set of digit*10^k
// summands, per the GLOSSARY's "Decompose" definition. Summands at or
// below dustThreshold are accumulated into a single trailing dust
// summand instead of being returned individually, matching the source's
// decompose_amount_into_digits dust_handler/digit_handler split.
func DecomposeAmount(amount, dustThreshold uint64) []uint64 {
	var out []uint64
	var dust uint64
	dec := uint64(1)

	for amount > 0 {
		digit := amount % 10
		amount /= 10
		if digit == 0 {
			dec *= 10
			continue
		}
		val := digit * dec
		if val <= dustThreshold {
			dust += val
		} else {
			out = append(out, val)
		}
		dec *= 10
	}
	if dust > 0 {
		out = append(out, dust)
	}
	return out
}

// SortDescending returns a copy of amounts sorted largest-first, used by
// the donation greedy-fill step.
func SortDescending(amounts []uint64) []uint64 {
	out := append([]uint64(nil), amounts...)
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && out[j-1] < out[j]; j-- {
			out[j-1], out[j] = out[j], out[j-1]
		}
	}
	return out
}

// SortAscending returns a copy of amounts sorted smallest-first, used by
// fusion output assembly.
func SortAscending(amounts []uint64) []uint64 {
	out := append([]uint64(nil), amounts...)
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && out[j-1] > out[j]; j-- {
			out[j-1], out[j] = out[j], out[j-1]
		}
	}
	return out
}

// IsDust reports whether amount is at or below the given dust threshold.
func IsDust(amount, dustThreshold uint64) bool {
	return amount <= dustThreshold
}
