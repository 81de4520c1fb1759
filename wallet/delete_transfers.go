// Copyright (c) 2026 The cash2 developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package wallet

import "github.com/DCL2019/cash2/core"

// deleteTransfersForAddress implements spec.md §4.4: a single pass over
// the transfer list grouped by transaction, rewriting every group that
// mentions address. It returns the transaction indices whose transfers
// changed, for TRANSACTION_UPDATED emission, and the indices that were
// marked DELETED because no transfer in their group still points at a
// wallet-owned address.
func (w *Wallet) deleteTransfersForAddress(address string) (updated []int, deletedTransactionIndexes []int) {
	walletAddresses := make(map[string]bool)
	for i := 0; i < w.keys.Count(); i++ {
		if rec, ok := w.keys.RecordAt(i); ok {
			a := w.currency.AccountAddressAsString(rec.SpendPublicKey, w.viewPublicKey)
			if a != address {
				walletAddresses[a] = true
			}
		}
	}

	for idx := 0; idx < w.txs.Len(); idx++ {
		transfers := w.txs.Transfers(idx)
		if len(transfers) == 0 {
			continue
		}

		var deletedOutputs, deletedInputs, unknownInputs int64
		touched := false

		rewritten := make([]core.WalletTransfer, 0, len(transfers))
		for _, t := range transfers {
			switch {
			case t.Address == address && t.Amount > 0:
				deletedOutputs += t.Amount
				touched = true
				// erased: do not append
			case t.Address == address && t.Amount < 0:
				deletedInputs += -t.Amount
				touched = true
				// demoted to unknown: folded into mergedUnknown below
				// rather than appended here, so it merges with any
				// pre-existing "" row instead of duplicating it.
			case t.Address == "" && t.Amount < 0:
				unknownInputs += -t.Amount
				// held out of rewritten for now; merged back below
			default:
				rewritten = append(rewritten, t)
			}
		}
		if !touched {
			continue
		}

		mergedUnknown := deletedInputs + unknownInputs
		if mergedUnknown > 0 {
			rewritten = append(rewritten, core.WalletTransfer{Address: "", Amount: -mergedUnknown})
		}

		transfersLeft := false
		for _, t := range rewritten {
			if walletAddresses[t.Address] {
				transfersLeft = true
				break
			}
		}

		w.txs.SetTransfers(idx, rewritten)

		tx, _ := w.txs.At(idx)
		// The address's outputs no longer count as received, and its
		// inputs no longer count as spent.
		tx.TotalAmount += deletedInputs - deletedOutputs
		if !transfersLeft {
			tx.State = core.StateDeleted
			deletedTransactionIndexes = append(deletedTransactionIndexes, idx)
		}
		updated = append(updated, idx)
	}

	return updated, deletedTransactionIndexes
}
