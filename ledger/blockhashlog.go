// Copyright (c) 2026 The cash2 developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package ledger holds the TransactionLedger (transactions + transfers),
// the BlockHashLog, UnlockSchedule, and UncommittedStore collections
// spec.md §2 names as separate components. They are grouped into one
// package because every one of them is keyed, directly or indirectly, off
// the same transaction index space.
package ledger

import "github.com/DCL2019/cash2/core"

// BlockHashLog is an append-only sequence of block hashes starting at
// genesis. Its position IS the block height; reorg truncates the tail.
type BlockHashLog struct {
	hashes []core.BlockHash
}

// NewBlockHashLog returns an empty log. Callers must call Seed before
// relying on the genesis invariant.
func NewBlockHashLog() *BlockHashLog {
	return &BlockHashLog{}
}

// Seed resets the log to contain only the genesis hash, per spec.md
// §4.1's load/createAddress re-seeding behavior when no record remains
// subscribed.
func (l *BlockHashLog) Seed(genesis core.Hash) {
	l.hashes = []core.BlockHash{core.BlockHash(genesis)}
}

// Len returns the current log length, i.e. one past the highest known
// height.
func (l *BlockHashLog) Len() int {
	return len(l.hashes)
}

// At returns the hash at the given height.
func (l *BlockHashLog) At(height uint32) (core.BlockHash, bool) {
	if int(height) >= len(l.hashes) {
		return core.BlockHash{}, false
	}
	return l.hashes[height], true
}

// IndexOf returns the height of a hash, if present. BlockHashLog is
// small enough in practice that a linear scan is fine; a production
// implementation would keep a hash->height side map the way
// multi-indexed containers do elsewhere in this package.
func (l *BlockHashLog) IndexOf(hash core.BlockHash) (uint32, bool) {
	for i, h := range l.hashes {
		if h == hash {
			return uint32(i), true
		}
	}
	return 0, false
}

// Append adds one or more new block hashes to the tip.
func (l *BlockHashLog) Append(hashes ...core.BlockHash) {
	l.hashes = append(l.hashes, hashes...)
}

// DetachFrom truncates the log so that Len() == height, modeling a
// blockchain reorg back to that height.
func (l *BlockHashLog) DetachFrom(height uint32) {
	if int(height) < len(l.hashes) {
		l.hashes = l.hashes[:height]
	}
}

// Reset drops every entry, used by shutdown().
func (l *BlockHashLog) Reset() {
	l.hashes = nil
}
