// Copyright (c) 2026 The cash2 developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package ledger

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/DCL2019/cash2/core"
)

func TestLedgerInsertAndLookup(t *testing.T) {
	l := New()
	h := core.Hash{1, 2, 3}

	idx := l.Insert(core.WalletTransaction{Hash: h, BlockHeight: core.UnconfirmedHeight})
	require.Equal(t, 0, idx)

	got, ok := l.FindByHash(h)
	require.True(t, ok)
	require.Equal(t, idx, got)

	require.Empty(t, l.ByHeight(100))
	l.UpdateBlockHeight(idx, 100)
	require.Equal(t, []int{idx}, l.ByHeight(100))

	tx, ok := l.At(idx)
	require.True(t, ok)
	require.Equal(t, uint32(100), tx.BlockHeight)
}

func TestBlockHashLogSeedAndDetach(t *testing.T) {
	log := NewBlockHashLog()
	genesis := core.Hash{9}
	log.Seed(genesis)
	require.Equal(t, 1, log.Len())

	log.Append(core.BlockHash{1}, core.BlockHash{2}, core.BlockHash{3})
	require.Equal(t, 4, log.Len())

	log.DetachFrom(2)
	require.Equal(t, 2, log.Len())
}

func TestUnlockScheduleDueAtAndRemove(t *testing.T) {
	s := NewUnlockSchedule()
	h1 := core.Hash{1}
	h2 := core.Hash{2}

	s.Add(core.UnlockJob{UnlockHeight: 100, TransactionHash: h1})
	s.Add(core.UnlockJob{UnlockHeight: 200, TransactionHash: h2})

	due := s.DueAt(150)
	require.Len(t, due, 1)
	require.Equal(t, h1, due[0].TransactionHash)

	s.RemoveDueAt(150)
	due = s.DueAt(150)
	require.Empty(t, due)

	due = s.DueAt(200)
	require.Len(t, due, 1)
	require.Equal(t, h2, due[0].TransactionHash)
}

func TestUncommittedStorePutAndDelete(t *testing.T) {
	store := NewUncommittedStore()
	store.Put(0, []byte{0xde, 0xad})
	require.True(t, store.Contains(0))

	store.Delete(0)
	require.False(t, store.Contains(0))
}
