// Copyright (c) 2026 The cash2 developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package txbuild

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDecomposeAmountCanonicalSummands(t *testing.T) {
	// 1234 with dust threshold 0 decomposes into 1000+200+30+4, each a
	// digit times a power of ten.
	got := DecomposeAmount(1234, 0)
	require.ElementsMatch(t, []uint64{1000, 200, 30, 4}, got)

	var sum uint64
	for _, v := range got {
		sum += v
	}
	require.Equal(t, uint64(1234), sum)
}

func TestDecomposeAmountCollapsesDustToOneSummand(t *testing.T) {
	// With dust threshold 50, the 30 and 4 summands (<=50) collapse into
	// a single trailing dust summand of 34.
	got := DecomposeAmount(1234, 50)
	require.ElementsMatch(t, []uint64{1000, 200, 34}, got)
}

func TestDecomposeAmountZero(t *testing.T) {
	require.Empty(t, DecomposeAmount(0, 0))
}

func TestSortDescendingAndAscending(t *testing.T) {
	in := []uint64{3, 1, 4, 1, 5}
	require.Equal(t, []uint64{5, 4, 3, 1, 1}, SortDescending(in))
	require.Equal(t, []uint64{1, 1, 3, 4, 5}, SortAscending(in))
	// Inputs are not mutated.
	require.Equal(t, []uint64{3, 1, 4, 1, 5}, in)
}

func TestIsDust(t *testing.T) {
	require.True(t, IsDust(10, 10))
	require.False(t, IsDust(11, 10))
}
