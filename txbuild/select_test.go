// Copyright (c) 2026 The cash2 developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package txbuild

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/DCL2019/cash2/core"
)

// sequentialRand returns 0 every time, which is deterministic enough to
// exercise SelectTransfers' termination and accounting without needing a
// real PRNG.
func sequentialRand(n int) int {
	if n <= 0 {
		return 0
	}
	return 0
}

func TestSelectTransfersMeetsNeededMoney(t *testing.T) {
	wallets := []CandidateWallet{
		{RecordIndex: 0, Outputs: []core.UnspentOutput{{Amount: 60}, {Amount: 50}}},
	}
	selected, found := SelectTransfers(100, false, 0, wallets, sequentialRand)
	require.GreaterOrEqual(t, found, uint64(100))
	require.NotEmpty(t, selected)
}

func TestSelectTransfersRejectsDustWhenNotAllowed(t *testing.T) {
	wallets := []CandidateWallet{
		{RecordIndex: 0, Outputs: []core.UnspentOutput{{Amount: 1}, {Amount: 1}}},
	}
	_, found := SelectTransfers(100, false, 10, wallets, sequentialRand)
	require.Less(t, found, uint64(100))
}

func TestSelectTransfersTolerantDustSweep(t *testing.T) {
	wallets := []CandidateWallet{
		{RecordIndex: 0, Outputs: []core.UnspentOutput{{Amount: 95}, {Amount: 1}}},
	}
	selected, found := SelectTransfers(90, true, 10, wallets, sequentialRand)
	require.Equal(t, uint64(96), found)
	require.Len(t, selected, 2)
}
