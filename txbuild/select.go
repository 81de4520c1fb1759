// Copyright (c) 2026 The cash2 developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package txbuild

import "github.com/DCL2019/cash2/core"

// CandidateWallet is one source record's pool of spendable outputs,
// consumed in place by SelectTransfers.
type CandidateWallet struct {
	RecordIndex int
	Outputs     []core.UnspentOutput
}

// SelectedOutput pairs a chosen output with the record it was drawn
// from, so the caller can look up which spend key signs it.
type SelectedOutput struct {
	RecordIndex int
	Output      core.UnspentOutput
}

// SelectTransfers implements spec.md §4.5 step 3: uniformly sample
// candidate (wallet, output) pairs until neededMoney is met or the pool
// is exhausted. Every draw is removed from the pool whether or not it is
// accepted, matching the source's selectTransfers: a dust draw is
// discarded outright once dust is no longer allowed, rather than
// retried. Once a dust output is accepted, dust acceptance flips off for
// the rest of the random phase. If the random phase exits with dust
// still allowed (never turned off), one tolerant sweep over whatever
// remains in the pool accepts the first dust output found.
//
// randIndex(n) must return a uniform value in [0, n). wallets is consumed
// (its Outputs slices are mutated) by this call.
func SelectTransfers(neededMoney uint64, allowDust bool, dustThreshold uint64, wallets []CandidateWallet, randIndex func(n int) int) (selected []SelectedOutput, foundMoney uint64) {
	dust := allowDust

	pool := make([]*CandidateWallet, 0, len(wallets))
	for i := range wallets {
		if len(wallets[i].Outputs) > 0 {
			pool = append(pool, &wallets[i])
		}
	}

	for foundMoney < neededMoney && len(pool) > 0 {
		wi := randIndex(len(pool))
		w := pool[wi]
		oi := randIndex(len(w.Outputs))
		out := w.Outputs[oi]

		if out.Amount > dustThreshold || dust {
			if IsDust(out.Amount, dustThreshold) {
				dust = false
			}
			foundMoney += out.Amount
			selected = append(selected, SelectedOutput{RecordIndex: w.RecordIndex, Output: out})
		}

		w.Outputs = append(w.Outputs[:oi], w.Outputs[oi+1:]...)
		if len(w.Outputs) == 0 {
			pool = append(pool[:wi], pool[wi+1:]...)
		}
	}

	if !dust {
		return selected, foundMoney
	}

	for _, w := range pool {
		for oi, out := range w.Outputs {
			if IsDust(out.Amount, dustThreshold) {
				selected = append(selected, SelectedOutput{RecordIndex: w.RecordIndex, Output: out})
				foundMoney += out.Amount
				w.Outputs = append(w.Outputs[:oi], w.Outputs[oi+1:]...)
				return selected, foundMoney
			}
		}
	}

	return selected, foundMoney
}
