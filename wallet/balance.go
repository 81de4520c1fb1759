// Copyright (c) 2026 The cash2 developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package wallet

import "github.com/DCL2019/cash2/core"

// adjustRecordBalance adds the given deltas to one record's balances and
// mirrors the change onto the global counters, maintaining invariant #1:
// actualBalance == Σ record.actualBalance (same for pending).
func (w *Wallet) adjustRecordBalance(recordIndex int, actualDelta, pendingDelta int64) {
	rec, ok := w.keys.RecordAt(recordIndex)
	if !ok {
		return
	}
	rec.ActualBalance = addSigned(rec.ActualBalance, actualDelta)
	rec.PendingBalance = addSigned(rec.PendingBalance, pendingDelta)
	w.actualBalance = addSigned(w.actualBalance, actualDelta)
	w.pendingBalance = addSigned(w.pendingBalance, pendingDelta)
}

// addSigned adds a signed delta to an unsigned counter, clamping at zero
// rather than wrapping; recompute paths are expected never to actually
// need the clamp, but it guards against a misbehaving TransferContainer.
func addSigned(base uint64, delta int64) uint64 {
	if delta >= 0 {
		return base + uint64(delta)
	}
	dec := uint64(-delta)
	if dec > base {
		return 0
	}
	return base - dec
}

// recomputeGlobalBalances rebuilds the global actualBalance/pendingBalance
// counters from every record's (already up to date) per-record balances.
// Used after load().
func (w *Wallet) recomputeGlobalBalances() {
	var actual, pending uint64
	for i := 0; i < w.keys.Count(); i++ {
		rec, ok := w.keys.RecordAt(i)
		if !ok {
			continue
		}
		actual += rec.ActualBalance
		pending += rec.PendingBalance
	}
	w.actualBalance = actual
	w.pendingBalance = pending
}

// refreshRecordBalanceFromContainer re-reads a record's container balance
// and applies the difference to both the record and the global counters,
// per spec.md §4.3 step 3.
func (w *Wallet) refreshRecordBalanceFromContainer(recordIndex int) {
	rec, ok := w.keys.RecordAt(recordIndex)
	if !ok || rec.Container == nil {
		return
	}
	newActual, newPending := rec.Container.Balance(core.IncludeAll)
	actualDelta := int64(newActual) - int64(rec.ActualBalance)
	pendingDelta := int64(newPending) - int64(rec.PendingBalance)
	w.adjustRecordBalance(recordIndex, actualDelta, pendingDelta)
}
