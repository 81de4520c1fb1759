// Copyright (c) 2026 The cash2 developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package wallet

import "github.com/DCL2019/cash2/core"

// addressForContainer finds the record (and its encoded address) that
// owns a given TransferContainer handle, per the borrowed-reference
// relationship KeyStore holds.
func (w *Wallet) addressForContainer(container core.TransferContainer) (recordIndex int, address string, ok bool) {
	for i := 0; i < w.keys.Count(); i++ {
		rec, found := w.keys.RecordAt(i)
		if !found || rec.Container != container {
			continue
		}
		return i, w.currency.AccountAddressAsString(rec.SpendPublicKey, w.viewPublicKey), true
	}
	return 0, "", false
}

// onTransactionUpdated is the dispatcher-side handler for
// SubscriptionObserver.OnTransactionUpdated, implementing spec.md §4.3.
func (w *Wallet) onTransactionUpdated(hash core.Hash, containers []core.TransferContainer) {
	idx, existed := w.txs.FindByHash(hash)

	var info core.TransactionInformation
	var totalIn, totalOut uint64
	for _, c := range containers {
		i, in, out, found := c.GetTransactionInformation(hash)
		if found {
			info = i
			totalIn += in
			totalOut += out
		}
	}

	changed := false
	if !existed {
		tx := core.WalletTransaction{
			Hash:        hash,
			BlockHeight: info.BlockHeight,
			Timestamp:   info.Timestamp,
			UnlockTime:  info.UnlockTime,
			Extra:       info.Extra,
			IsBase:      info.IsBase,
			TotalAmount: int64(totalOut) - int64(totalIn),
			State:       core.StateSucceeded,
		}
		idx = w.txs.Insert(tx)
		// Classify from the record just inserted at idx, not from any
		// pointer or iterator obtained before the insert: the source's own
		// isNew branch reads a pre-insertion iterator here, which can be
		// stale by the time isFusionTransaction runs.
		w.fusionCache[idx] = w.classifyFusionTransaction(idx)
		changed = true
		log.Debugf("Inserted transaction %v at index %d, net amount %d", hash, idx, tx.TotalAmount)
	} else {
		tx, _ := w.txs.At(idx)
		tx.Timestamp = info.Timestamp
		tx.TotalAmount = int64(totalOut) - int64(totalIn)
		if len(tx.Extra) == 0 {
			tx.Extra = info.Extra
		}
		tx.IsBase = info.IsBase
		if tx.State != core.StateCreated && tx.State != core.StateFailed {
			tx.State = core.StateSucceeded
		} else if info.BlockHeight != core.UnconfirmedHeight {
			tx.State = core.StateSucceeded
		}
		w.txs.UpdateBlockHeight(idx, info.BlockHeight)
		changed = true
	}

	if info.BlockHeight != core.UnconfirmedHeight {
		w.pending.Delete(idx)
	}

	for _, c := range containers {
		recIdx, _, found := w.addressForContainer(c)
		if !found {
			continue
		}
		w.refreshRecordBalanceFromContainer(recIdx)
		if info.BlockHeight != core.UnconfirmedHeight {
			unlockHeight := info.BlockHeight + softLockTime
			if info.UnlockTime > uint64(unlockHeight) {
				unlockHeight = uint32(info.UnlockTime)
			}
			w.unlocks.Add(core.UnlockJob{UnlockHeight: unlockHeight, Container: c, TransactionHash: hash})
		}
	}

	w.rewriteTransferBlock(idx, hash, containers, totalIn, totalOut)

	if !existed {
		w.events.Push(core.WalletEvent{Kind: core.EventTransactionCreated, TransactionIndex: idx})
	} else if changed {
		w.events.Push(core.WalletEvent{Kind: core.EventTransactionUpdated, TransactionIndex: idx})
	}
}

// softLockTime is the number of blocks after confirmation before an
// output unlocks, absent an explicit per-transaction unlockTime override.
// CurrencyParams would normally own this constant; spec.md §4.3 names it
// but leaves it to the currency, so it is kept as a package constant
// here since CurrencyParams' interface (spec.md §6) does not list it.
const softLockTime = 10

// rewriteTransferBlock implements spec.md §4.3 step 4: rewrite the
// transfer rows for one transaction index from the per-container
// input/output totals just observed.
func (w *Wallet) rewriteTransferBlock(idx int, hash core.Hash, containers []core.TransferContainer, totalIn, totalOut uint64) {
	existing := w.txs.Transfers(idx)

	type key struct {
		address string
		input   bool
	}
	amounts := make(map[key]int64)
	order := make([]key, 0, len(existing))
	typeOf := make(map[key]core.TransferType)
	for _, t := range existing {
		k := key{address: t.Address, input: t.Amount < 0}
		if _, seen := amounts[k]; !seen {
			order = append(order, k)
		}
		amounts[k] += t.Amount
		typeOf[k] = t.Type
	}

	upsert := func(address string, input bool, newAmount int64) {
		k := key{address: address, input: input}
		_, existed := amounts[k]
		if newAmount == 0 {
			if existed {
				delete(amounts, k)
			}
			return
		}
		if !existed {
			order = append(order, k)
			typeOf[k] = core.TransferUsual
		}
		amounts[k] = newAmount
	}

	var myIn, myOut int64
	for _, c := range containers {
		_, address, found := w.addressForContainer(c)
		if !found {
			continue
		}
		outs, _ := c.GetTransactionOutputs(hash, core.IncludeAll)
		ins, _ := c.GetTransactionInputs(hash, core.IncludeAll)
		var outAmt, inAmt int64
		for _, o := range outs {
			outAmt += int64(o.Amount)
		}
		for _, in := range ins {
			inAmt += int64(in.Amount)
		}
		upsert(address, true, -inAmt)
		upsert(address, false, outAmt)
		myIn += inAmt
		myOut += outAmt
	}

	reconcileUnknown := func(input bool, myAmount int64, totalAmount uint64) {
		k := key{address: "", input: input}
		knownAbs := myAmount
		if knownAbs < 0 {
			knownAbs = -knownAbs
		}
		if uint64(knownAbs) > totalAmount {
			for _, ok := range order {
				if ok.address != "" && ok.input == input {
					delete(amounts, ok)
				}
			}
			sign := int64(1)
			if input {
				sign = -1
			}
			upsert("", input, sign*int64(totalAmount))
			return
		}
		if uint64(knownAbs) == totalAmount {
			delete(amounts, k)
			return
		}
		sign := int64(1)
		if input {
			sign = -1
		}
		residual := sign*int64(totalAmount) - myAmount
		upsert("", input, residual)
	}
	reconcileUnknown(true, -myIn, totalIn)
	reconcileUnknown(false, myOut, totalOut)

	out := make([]core.WalletTransfer, 0, len(order))
	seen := make(map[key]bool)
	for _, k := range order {
		if seen[k] {
			continue
		}
		seen[k] = true
		amt, ok := amounts[k]
		if !ok || amt == 0 {
			continue
		}
		out = append(out, core.WalletTransfer{Type: typeOf[k], Address: k.address, Amount: amt})
	}
	w.txs.SetTransfers(idx, out)
}

// onTransactionDeleted implements spec.md §4.3's onTransactionDeleted:
// the container reported the transaction was dropped (e.g. a
// reorg-orphaned transaction).
func (w *Wallet) onTransactionDeleted(hash core.Hash) {
	idx, ok := w.txs.FindByHash(hash)
	if !ok {
		return
	}
	tx, _ := w.txs.At(idx)

	w.unlocks.RemoveByHash(hash)

	if tx.State == core.StateCreated || tx.State == core.StateSucceeded {
		tx.State = core.StateCancelled
	}
	if tx.BlockHeight != core.UnconfirmedHeight {
		w.txs.UpdateBlockHeight(idx, core.UnconfirmedHeight)
	}

	log.Debugf("Transaction %v at index %d dropped, marking %v", hash, idx, tx.State)
	w.events.Push(core.WalletEvent{Kind: core.EventTransactionUpdated, TransactionIndex: idx})
}
