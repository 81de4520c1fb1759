// Copyright (c) 2026 The cash2 developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package wallet

import "github.com/DCL2019/cash2/core"

// onSyncProgressUpdated implements spec.md §4.8: on every
// SYNC_PROGRESS_UPDATED(processed, total), select every UnlockJob due at
// currentHeight = processed-1, recompute the balance for each referenced
// container, delete the selected jobs, and emit one BALANCE_UNLOCKED
// event if any jobs fired.
func (w *Wallet) onSyncProgressUpdated(processed uint32) {
	if processed == 0 {
		return
	}
	currentHeight := processed - 1

	due := w.unlocks.DueAt(currentHeight)
	if len(due) == 0 {
		return
	}

	seen := make(map[core.TransferContainer]bool, len(due))
	for _, job := range due {
		if job.Container == nil || seen[job.Container] {
			continue
		}
		seen[job.Container] = true
		if recIdx, _, found := w.addressForContainer(job.Container); found {
			w.refreshRecordBalanceFromContainer(recIdx)
		}
	}

	w.unlocks.RemoveDueAt(currentHeight)
	log.Debugf("Unlocked %d output(s) at height %d", len(due), currentHeight)
	w.events.Push(core.WalletEvent{Kind: core.EventBalanceUnlocked})
}

// currentHeight returns the current chain height this wallet has
// observed, derived from the BlockHashLog's length (position IS height).
func (w *Wallet) currentHeight() uint32 {
	if w.blocks.Len() == 0 {
		return 0
	}
	return uint32(w.blocks.Len() - 1)
}
