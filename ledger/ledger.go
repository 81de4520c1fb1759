// Copyright (c) 2026 The cash2 developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package ledger

import "github.com/DCL2019/cash2/core"

// Ledger is the ordered log of WalletTransaction records, indexed by
// insertion order (the dense slice index, which is also the public
// "transactionIndex"), by hash, and by block height, plus the adjacent
// ordered list of (transactionIndex, WalletTransfer) pairs.
//
// Grounded on wtxmgr's multi-indexed bucket layout: a dense vector of
// records plus side maps from the alternate keys to the dense index, per
// the multi-indexed-containers design note.
type Ledger struct {
	transactions []core.WalletTransaction
	transfers    map[int][]core.WalletTransfer

	byHash   map[core.Hash]int
	byHeight map[uint32][]int
}

// New returns an empty Ledger.
func New() *Ledger {
	return &Ledger{
		transfers: make(map[int][]core.WalletTransfer),
		byHash:    make(map[core.Hash]int),
		byHeight:  make(map[uint32][]int),
	}
}

// Len returns the number of transactions, i.e. one past the highest
// valid transactionIndex.
func (l *Ledger) Len() int {
	return len(l.transactions)
}

// At returns the transaction at a dense index.
func (l *Ledger) At(index int) (*core.WalletTransaction, bool) {
	if index < 0 || index >= len(l.transactions) {
		return nil, false
	}
	return &l.transactions[index], true
}

// FindByHash returns the dense index of a transaction by hash.
func (l *Ledger) FindByHash(hash core.Hash) (int, bool) {
	idx, ok := l.byHash[hash]
	return idx, ok
}

// ByHeight returns the dense indices of every transaction confirmed at
// the given height.
func (l *Ledger) ByHeight(height uint32) []int {
	return l.byHeight[height]
}

// Transfers returns the transfer rows for a transaction index, in
// insertion order within the group.
func (l *Ledger) Transfers(index int) []core.WalletTransfer {
	return l.transfers[index]
}

// SetTransfers replaces the transfer rows for a transaction index.
func (l *Ledger) SetTransfers(index int, transfers []core.WalletTransfer) {
	l.transfers[index] = transfers
}

// reindexHeight removes idx from its previous height bucket (if any) and
// adds it to newHeight's bucket, unless newHeight is UnconfirmedHeight.
func (l *Ledger) reindexHeight(idx int, oldHeight, newHeight uint32) {
	if oldHeight != core.UnconfirmedHeight {
		bucket := l.byHeight[oldHeight]
		for i, v := range bucket {
			if v == idx {
				l.byHeight[oldHeight] = append(bucket[:i], bucket[i+1:]...)
				break
			}
		}
	}
	if newHeight != core.UnconfirmedHeight {
		l.byHeight[newHeight] = append(l.byHeight[newHeight], idx)
	}
}

// Insert appends a new transaction and returns its dense index.
func (l *Ledger) Insert(tx core.WalletTransaction) int {
	idx := len(l.transactions)
	l.transactions = append(l.transactions, tx)
	l.byHash[tx.Hash] = idx
	if tx.BlockHeight != core.UnconfirmedHeight {
		l.byHeight[tx.BlockHeight] = append(l.byHeight[tx.BlockHeight], idx)
	}
	return idx
}

// UpdateBlockHeight changes a transaction's block height, maintaining the
// height index.
func (l *Ledger) UpdateBlockHeight(index int, newHeight uint32) {
	tx, ok := l.At(index)
	if !ok {
		return
	}
	l.reindexHeight(index, tx.BlockHeight, newHeight)
	tx.BlockHeight = newHeight
}

// Reset drops every transaction and transfer, used by shutdown().
func (l *Ledger) Reset() {
	l.transactions = nil
	l.transfers = make(map[int][]core.WalletTransfer)
	l.byHash = make(map[core.Hash]int)
	l.byHeight = make(map[uint32][]int)
}
