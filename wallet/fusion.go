// Copyright (c) 2026 The cash2 developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package wallet

import (
	"context"
	"math"
	"sort"

	"github.com/DCL2019/cash2/core"
	"github.com/DCL2019/cash2/txbuild"
)

// maxFusionOutputCount is the output count assumed when estimating how
// many inputs fit in a fusion transaction. decomposeFusionOutputs can
// yield up to digits10+1 (20) summands; its result is neither checked nor
// trimmed against this bound.
const maxFusionOutputCount = 4

// FusionEstimate reports how many currently-unlocked outputs are fusion
// candidates at a given threshold, without building anything.
type FusionEstimate struct {
	FusionReadyCount int
	TotalOutputCount int
}

// CreateFusionTransaction consolidates small same-magnitude outputs into a
// single zero-fee transaction. Corresponds to spec.md §4.6
// createFusionTransaction(threshold, mixin). Returns
// core.InvalidTransactionIndex, nil when there was nothing worth
// consolidating.
func (w *Wallet) CreateFusionTransaction(threshold, mixin uint64) (int, *core.WalletError) {
	return submit(w, func() (int, *core.WalletError) {
		if err := w.checkOperational(true); err != nil {
			return core.InvalidTransactionIndex, err
		}
		return w.doCreateFusionTransaction(threshold, mixin)
	})
}

// Estimate reports fusion candidacy at a threshold without building a
// transaction. Corresponds to spec.md §4.6 estimate(threshold).
func (w *Wallet) Estimate(threshold uint64) (FusionEstimate, *core.WalletError) {
	return submit(w, func() (FusionEstimate, *core.WalletError) {
		if err := w.checkOperational(false); err != nil {
			return FusionEstimate{}, err
		}

		candidates, err := w.pickCandidateWallets(nil)
		if err != nil {
			return FusionEstimate{}, err
		}
		height, nerr := w.node.GetLastKnownBlockHeight()
		if nerr != nil {
			return FusionEstimate{}, core.WrapError(core.ErrInternalWalletError, "get last known block height failed", nerr)
		}

		var bucketSizes [fusionBucketCount]int
		var result FusionEstimate
		for _, cw := range candidates {
			result.TotalOutputCount += len(cw.Outputs)
			for _, out := range cw.Outputs {
				pot, ok := w.currency.IsAmountApplicableInFusionTransactionInput(out.Amount, threshold, height)
				if ok {
					bucketSizes[pot]++
				}
			}
		}

		minInputCount := w.currency.FusionTxMinInputCount()
		for _, size := range bucketSizes {
			if size >= minInputCount {
				result.FusionReadyCount += size
			}
		}
		return result, nil
	})
}

// IsFusionTransaction reports whether an already-ledgered transaction
// qualifies as a fusion transaction, memoized in w.fusionCache.
// Corresponds to spec.md §4.6 isFusionTransaction(index).
func (w *Wallet) IsFusionTransaction(transactionIndex int) (bool, *core.WalletError) {
	return submit(w, func() (bool, *core.WalletError) {
		if err := w.checkOperational(false); err != nil {
			return false, err
		}
		if transactionIndex < 0 || transactionIndex >= w.txs.Len() {
			return false, core.NewError(core.ErrIndexOutOfRange, "")
		}
		if result, cached := w.fusionCache[transactionIndex]; cached {
			return result, nil
		}
		result := w.classifyFusionTransaction(transactionIndex)
		w.fusionCache[transactionIndex] = result
		return result, nil
	})
}

// classifyFusionTransaction implements the source's isFusionTransaction
// classification: zero fee, every container's observed input/output sums
// agree with the transaction's own totals, and the currency-level
// isFusionTransaction rule (size=0, since the wallet never holds the raw
// serialized size of an on-chain transaction) returns true.
func (w *Wallet) classifyFusionTransaction(transactionIndex int) bool {
	tx, ok := w.txs.At(transactionIndex)
	if !ok || tx.Fee != 0 {
		return false
	}

	var inputsSum, outputsSum uint64
	var inputsAmounts, outputsAmounts []uint64
	var totalAmountIn, totalAmountOut uint64
	gotTx := false

	for i := 0; i < w.keys.Count(); i++ {
		rec, found := w.keys.RecordAt(i)
		if !found || rec.Container == nil {
			continue
		}
		outs, _ := rec.Container.GetTransactionOutputs(tx.Hash, core.IncludeAll)
		for _, o := range outs {
			outputsAmounts = append(outputsAmounts, o.Amount)
			outputsSum += o.Amount
		}
		ins, _ := rec.Container.GetTransactionInputs(tx.Hash, core.IncludeAll)
		for _, in := range ins {
			inputsAmounts = append(inputsAmounts, in.Amount)
			inputsSum += in.Amount
		}
		if !gotTx {
			if info, totalIn, totalOut, found := rec.Container.GetTransactionInformation(tx.Hash); found {
				totalAmountIn, totalAmountOut = totalIn, totalOut
				_ = info
				gotTx = true
			}
		}
	}

	if !gotTx {
		return false
	}
	if outputsSum != inputsSum || outputsSum != totalAmountOut || inputsSum != totalAmountIn {
		return false
	}

	height, err := w.node.GetLastKnownBlockHeight()
	if err != nil {
		return false
	}
	return w.currency.IsFusionTransaction(inputsAmounts, outputsAmounts, 0, height)
}

// fusionBucketCount mirrors numeric_limits<uint64_t>::digits10 + 1: the
// number of decimal-magnitude buckets an amount can fall into.
const fusionBucketCount = 20

// doCreateFusionTransaction is CreateFusionTransaction's dispatcher-bound
// body, grounded on WalletGreen::createFusionTransaction.
func (w *Wallet) doCreateFusionTransaction(threshold, mixin uint64) (int, *core.WalletError) {
	height, nerr := w.node.GetLastKnownBlockHeight()
	if nerr != nil {
		return core.InvalidTransactionIndex, core.WrapError(core.ErrInternalWalletError, "get last known block height failed", nerr)
	}
	dustThreshold := w.currency.DustThreshold(height)
	if threshold <= dustThreshold {
		return core.InvalidTransactionIndex, core.NewError(core.ErrWrongParameters, "threshold must be greater than the dust threshold")
	}
	if w.keys.Count() == 0 {
		return core.InvalidTransactionIndex, core.NewError(core.ErrWalletNotFound, "at least one address is required")
	}

	minInputCount := w.currency.FusionTxMinInputCount()
	estimatedInputCount := txbuild.ApproximateMaximumInputCount(w.currency.FusionTxMaxSize(), maxFusionOutputCount, mixin)
	if estimatedInputCount < minInputCount {
		return core.InvalidTransactionIndex, core.NewError(core.ErrMixinCountTooBig, "")
	}

	fusionInputs := w.pickRandomFusionInputs(threshold, minInputCount, estimatedInputCount, height)
	if len(fusionInputs) < minInputCount {
		return core.InvalidTransactionIndex, nil
	}

	var mixinResult map[uint64][]core.OutputCandidate
	if mixin != 0 {
		amounts := make([]uint64, len(fusionInputs))
		for i, s := range fusionInputs {
			amounts[i] = s.Output.Amount
		}
		mixinResult, nerr = w.node.GetRandomOutsByAmounts(context.Background(), amounts, mixin)
		if nerr != nil {
			return core.InvalidTransactionIndex, core.WrapError(core.ErrInternalWalletError, "get random outs failed", nerr)
		}
		if !checkMixinCounts(mixinResult, fusionInputs, mixin) {
			return core.InvalidTransactionIndex, core.NewError(core.ErrMixinCountTooBig, "")
		}
	}

	inputs, werr := w.prepareInputs(fusionInputs, mixinResult, mixin)
	if werr != nil {
		return core.InvalidTransactionIndex, werr
	}

	// Build, and if the result is over fusionTxMaxSize, drop the largest
	// (last, since inputs are ascending by amount) input and rebuild,
	// until it fits or there are too few inputs left to bother.
	var txData []byte
	var hash core.Hash
	var secretKey core.SecretKey
	for {
		var inputsAmount uint64
		for _, in := range inputs {
			inputsAmount += in.Amount
		}
		decomposed := w.decomposeFusionOutputs(inputsAmount)

		var buildErr *core.WalletError
		txData, hash, secretKey, buildErr = w.buildTransaction([]receiverAmounts{decomposed}, inputs, nil, 0)
		if buildErr != nil {
			return core.InvalidTransactionIndex, buildErr
		}

		if uint64(len(txData)) <= w.currency.FusionTxMaxSize() || len(inputs) < minInputCount {
			break
		}
		inputs = inputs[:len(inputs)-1]
	}

	if len(inputs) < minInputCount {
		return core.InvalidTransactionIndex, core.NewError(core.ErrInternalWalletError, "unable to create fusion transaction")
	}

	return w.validateSaveAndSendTransaction(txData, hash, secretKey, 0, nil, 0, nil, 0, true, true)
}

// pickRandomFusionInputs implements spec.md §4.6's bucket-by-power-of-ten
// selection, grounded on WalletGreen::pickRandomFusionInputs: classify
// every unlocked output into one of 20 decimal-magnitude buckets, shuffle
// bucket order and take the first bucket with enough members, then, if
// that bucket still exceeds maxInputCount, subsample without replacement
// down to maxInputCount. The returned set is always sorted ascending by
// amount.
func (w *Wallet) pickRandomFusionInputs(threshold uint64, minInputCount, maxInputCount int, height uint32) []txbuild.SelectedOutput {
	candidates, err := w.pickCandidateWallets(nil)
	if err != nil {
		return nil
	}

	var ready []txbuild.SelectedOutput
	var bucketSizes [fusionBucketCount]int
	var powers []core.FusionPowerOfTen
	for _, cw := range candidates {
		for _, out := range cw.Outputs {
			pot, ok := w.currency.IsAmountApplicableInFusionTransactionInput(out.Amount, threshold, height)
			if !ok {
				continue
			}
			ready = append(ready, txbuild.SelectedOutput{RecordIndex: cw.RecordIndex, Output: out})
			powers = append(powers, pot)
			bucketSizes[pot]++
		}
	}

	bucketOrder := w.shuffleIndices(fusionBucketCount)
	selectedBucket := -1
	for _, b := range bucketOrder {
		if bucketSizes[b] >= minInputCount {
			selectedBucket = b
			break
		}
	}
	if selectedBucket == -1 {
		return nil
	}

	lowerBound := uint64(1)
	for i := 0; i < selectedBucket; i++ {
		lowerBound *= 10
	}
	upperBound := uint64(math.MaxUint64)
	if selectedBucket != fusionBucketCount-1 {
		upperBound = lowerBound * 10
	}

	var selected []txbuild.SelectedOutput
	for _, o := range ready {
		if o.Output.Amount >= lowerBound && o.Output.Amount < upperBound {
			selected = append(selected, o)
		}
	}

	if len(selected) <= maxInputCount {
		sort.Slice(selected, func(i, j int) bool { return selected[i].Output.Amount < selected[j].Output.Amount })
		return selected
	}

	draw := w.shuffleIndices(len(selected))
	trimmed := make([]txbuild.SelectedOutput, maxInputCount)
	for i := 0; i < maxInputCount; i++ {
		trimmed[i] = selected[draw[i]]
	}
	sort.Slice(trimmed, func(i, j int) bool { return trimmed[i].Output.Amount < trimmed[j].Output.Amount })
	return trimmed
}

// decomposeFusionOutputs assigns the entire consolidated amount to the
// wallet's first record, decomposed with dust=0 and sorted ascending.
// Grounded on WalletGreen::decomposeFusionOutputs, which also calls the
// global decomposeAmount function rather than going through CurrencyParams.
func (w *Wallet) decomposeFusionOutputs(inputsAmount uint64) receiverAmounts {
	rec, _ := w.keys.RecordAt(0)
	return receiverAmounts{
		SpendPublic: rec.SpendPublicKey,
		Amounts:     txbuild.SortAscending(txbuild.DecomposeAmount(inputsAmount, 0)),
	}
}

// shuffleIndices returns a uniformly shuffled permutation of [0, n),
// sharing CryptoOps' randomness source with shuffleOutputs.
func (w *Wallet) shuffleIndices(n int) []int {
	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	for i := n - 1; i > 0; i-- {
		j := int(w.crypto.RandomUint64() % uint64(i+1))
		idx[i], idx[j] = idx[j], idx[i]
	}
	return idx
}
