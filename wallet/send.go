// Copyright (c) 2026 The cash2 developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package wallet

import (
	"context"
	"sort"

	"github.com/lightningnetwork/lnd/fn/v2"
	"golang.org/x/sync/errgroup"

	"github.com/DCL2019/cash2/core"
	"github.com/DCL2019/cash2/txbuild"
)

// Transfer builds, signs and relays a transaction in one call. Corresponds
// to spec.md §4.5 transfer(params).
func (w *Wallet) Transfer(params core.TransactionParameters) (int, *core.WalletError) {
	return submit(w, func() (int, *core.WalletError) {
		if err := w.checkOperational(true); err != nil {
			return 0, err
		}
		return w.doTransfer(params, true)
	})
}

// MakeTransaction builds and signs a transaction but leaves it uncommitted:
// the caller must follow up with CommitTransaction or
// RollbackUncommitedTransaction. Corresponds to spec.md §4.5
// makeTransaction(params).
func (w *Wallet) MakeTransaction(params core.TransactionParameters) (int, *core.WalletError) {
	return submit(w, func() (int, *core.WalletError) {
		if err := w.checkOperational(true); err != nil {
			return 0, err
		}
		return w.doTransfer(params, false)
	})
}

// CommitTransaction relays a previously made-but-uncommitted transaction.
// Corresponds to spec.md §4.5 commitTransaction(transactionIndex).
func (w *Wallet) CommitTransaction(transactionIndex int) *core.WalletError {
	return submitVoid(w, func() *core.WalletError {
		if err := w.checkOperational(true); err != nil {
			return err
		}
		tx, ok := w.txs.At(transactionIndex)
		if !ok {
			return core.NewError(core.ErrIndexOutOfRange, "")
		}
		blob, uncommitted := w.pending.Get(transactionIndex)
		if !uncommitted || tx.State != core.StateCreated {
			return core.NewError(core.ErrTxTransferImpossible, "")
		}
		if err := w.node.RelayTransaction(context.Background(), blob); err != nil {
			return core.WrapError(core.ErrInternalWalletError, "relay failed", err)
		}
		w.updateTransactionStateAndPushEvent(transactionIndex, core.StateSucceeded)
		w.pending.Delete(transactionIndex)
		return nil
	})
}

// RollbackUncommitedTransaction discards a previously made-but-uncommitted
// transaction, unregistering it from SyncEngine. Corresponds to spec.md
// §4.5 rollbackUncommitedTransaction(transactionIndex).
func (w *Wallet) RollbackUncommitedTransaction(transactionIndex int) *core.WalletError {
	return submitVoid(w, func() *core.WalletError {
		if err := w.checkOperational(true); err != nil {
			return err
		}
		tx, ok := w.txs.At(transactionIndex)
		if !ok {
			return core.NewError(core.ErrIndexOutOfRange, "")
		}
		if !w.pending.Contains(transactionIndex) || tx.State != core.StateCreated {
			return core.NewError(core.ErrTxCancelImpossible, "")
		}
		if err := w.sync.RemoveUnconfirmedTransaction(tx.Hash); err != nil {
			return core.WrapError(core.ErrInternalWalletError, "remove unconfirmed failed", err)
		}
		w.pending.Delete(transactionIndex)
		return nil
	})
}

// doTransfer is the shared body of Transfer and MakeTransaction, grounded
// on WalletGreen::doTransfer/prepareTransaction: validate, pick candidate
// outputs, fetch mixins, build the signed transaction, then hand off to
// validateSaveAndSendTransaction.
func (w *Wallet) doTransfer(params core.TransactionParameters, send bool) (int, *core.WalletError) {
	if err := w.validateTransactionParameters(params); err != nil {
		return 0, err
	}

	changeSpendPublic, err := w.getChangeDestination(params)
	if err != nil {
		return 0, err
	}

	candidates, err := w.pickCandidateWallets(params.SourceAddresses)
	if err != nil {
		return 0, err
	}

	destinations, err := convertOrdersToTransfers(params.Destinations)
	if err != nil {
		return 0, err
	}

	neededMoney, err := countNeededMoney(destinations, params.Fee)
	if err != nil {
		return 0, err
	}

	height, nerr := w.node.GetLastKnownBlockHeight()
	if nerr != nil {
		return 0, core.WrapError(core.ErrInternalWalletError, "get last known block height failed", nerr)
	}
	dustThreshold := w.currency.DustThreshold(height)

	selected, foundMoney := txbuild.SelectTransfers(neededMoney, params.MixIn == 0, dustThreshold, candidates, w.randIndex)
	if foundMoney < neededMoney {
		return 0, core.NewError(core.ErrWrongAmount, "not enough money to transfer")
	}

	var mixinResult map[uint64][]core.OutputCandidate
	if params.MixIn != 0 {
		amounts := make([]uint64, len(selected))
		for i, s := range selected {
			amounts[i] = s.Output.Amount
		}
		mixinResult, nerr = w.node.GetRandomOutsByAmounts(context.Background(), amounts, params.MixIn)
		if nerr != nil {
			return 0, core.WrapError(core.ErrInternalWalletError, "get random outs failed", nerr)
		}
		if !checkMixinCounts(mixinResult, selected, params.MixIn) {
			return 0, core.NewError(core.ErrMixinCountTooBig, "")
		}
	}

	inputs, err := w.prepareInputs(selected, mixinResult, params.MixIn)
	if err != nil {
		return 0, err
	}

	freeAmount := foundMoney - neededMoney
	donation := pushDonationTransferIfPossible(params.Donation, freeAmount, dustThreshold)
	donationAmount := uint64(0)
	donation.WhenSome(func(t core.WalletTransfer) {
		donationAmount = uint64(t.Amount)
		destinations = append(destinations, t)
	})

	decomposed, err := w.splitDestinations(destinations, dustThreshold)
	if err != nil {
		return 0, err
	}

	changeAmount := freeAmount - donationAmount
	if changeAmount != 0 {
		changeAddress := w.currency.AccountAddressAsString(changeSpendPublic, w.viewPublicKey)
		destinations = append(destinations, core.WalletTransfer{Type: core.TransferChange, Address: changeAddress, Amount: int64(changeAmount)})
		decomposed = append(decomposed, w.splitAmount(changeAmount, changeSpendPublic, dustThreshold))
	}

	extra := txbuild.EncodeMessages(params.Extra, params.Messages)
	if len(extra) > w.currency.MaxTxExtraSize() {
		return 0, core.NewError(core.ErrExtraTooLarge, "")
	}

	txData, hash, secretKey, err := w.buildTransaction(decomposed, inputs, extra, params.UnlockTimestamp)
	if err != nil {
		return 0, err
	}

	// The signed net change to this wallet: everything drawn from the
	// selected inputs leaves the wallet except whatever comes back as
	// change, per WalletGreen::validateSaveAndSendTransaction.
	totalAmount := int64(changeAmount) - int64(foundMoney)

	return w.validateSaveAndSendTransaction(txData, hash, secretKey, params.Fee, extra, params.UnlockTimestamp, destinations, totalAmount, false, send)
}

// convertOrdersToTransfers maps each requested WalletOrder into a usual
// WalletTransfer, rejecting a zero amount or an amount that does not fit
// the signed 63-bit range.
func convertOrdersToTransfers(orders []core.WalletOrder) ([]core.WalletTransfer, *core.WalletError) {
	out := make([]core.WalletTransfer, 0, len(orders))
	for _, o := range orders {
		if o.Amount == 0 {
			return nil, core.NewError(core.ErrZeroDestination, "")
		}
		if o.Amount > txbuild.MaxAmount {
			return nil, core.NewError(core.ErrWrongAmount, "")
		}
		out = append(out, core.WalletTransfer{Type: core.TransferUsual, Address: o.Address, Amount: int64(o.Amount)})
	}
	return out, nil
}

// countNeededMoney sums every destination amount plus fee, failing
// SUM_OVERFLOW rather than wrapping.
func countNeededMoney(destinations []core.WalletTransfer, fee uint64) (uint64, *core.WalletError) {
	var total uint64
	var overflow bool
	for _, d := range destinations {
		total, overflow = txbuild.AddAmount(total, uint64(d.Amount))
		if overflow {
			return 0, core.NewError(core.ErrSumOverflow, "")
		}
	}
	total, overflow = txbuild.AddAmount(total, fee)
	if overflow {
		return 0, core.NewError(core.ErrSumOverflow, "")
	}
	return total, nil
}

// isMyAddress reports whether address parses under this wallet's view key
// and names a spend public key this KeyStore holds.
func (w *Wallet) isMyAddress(address string) bool {
	spendPublic, viewPublic, err := w.currency.ParseAccountAddressString(address)
	if err != nil {
		return false
	}
	if viewPublic != w.viewPublicKey {
		return false
	}
	_, _, found := w.keys.Find(spendPublic)
	return found
}

// validateTransactionParameters enforces every precondition spec.md §4.5
// lists on TransactionParameters before any I/O runs.
func (w *Wallet) validateTransactionParameters(params core.TransactionParameters) *core.WalletError {
	if len(params.Destinations) == 0 {
		return core.NewError(core.ErrZeroDestination, "")
	}

	minFee, err := w.node.GetMinimalFee()
	if err != nil {
		return core.WrapError(core.ErrInternalWalletError, "get minimal fee failed", err)
	}
	if params.Fee < minFee {
		return core.NewError(core.ErrFeeTooSmall, "")
	}

	if (params.Donation.Address == "") != (params.Donation.Threshold == 0) {
		return core.NewError(core.ErrWrongParameters, "donation address and threshold must both be set or both be empty")
	}

	for _, addr := range params.SourceAddresses {
		if !w.isMyAddress(addr) {
			return core.NewError(core.ErrBadAddress, "source address does not belong to this wallet")
		}
	}

	for _, d := range params.Destinations {
		if _, _, err := w.currency.ParseAccountAddressString(d.Address); err != nil {
			return core.WrapError(core.ErrBadAddress, "", err)
		}
		if d.Amount >= txbuild.MaxAmount {
			return core.NewError(core.ErrWrongAmount, "")
		}
	}

	if !params.HasChange {
		sources := len(params.SourceAddresses)
		if sources > 1 {
			return core.NewError(core.ErrChangeAddressRequired, "")
		}
		if sources == 0 && w.keys.Count() > 1 {
			return core.NewError(core.ErrChangeAddressRequired, "")
		}
		return nil
	}

	spendPublic, viewPublic, err := w.currency.ParseAccountAddressString(params.ChangeDestination)
	if err != nil {
		return core.WrapError(core.ErrBadAddress, "", err)
	}
	if viewPublic != w.viewPublicKey {
		return core.NewError(core.ErrChangeAddressNotFound, "")
	}
	if _, _, found := w.keys.Find(spendPublic); !found {
		return core.NewError(core.ErrChangeAddressNotFound, "")
	}
	return nil
}

// getChangeDestination resolves the spend public key change outputs
// should pay to: the explicit ChangeDestination if given, else the
// wallet's sole record, else the sole validated source address.
func (w *Wallet) getChangeDestination(params core.TransactionParameters) (core.PublicKey, *core.WalletError) {
	if params.HasChange {
		spendPublic, _, err := w.currency.ParseAccountAddressString(params.ChangeDestination)
		if err != nil {
			return core.PublicKey{}, core.WrapError(core.ErrBadAddress, "", err)
		}
		return spendPublic, nil
	}
	if w.keys.Count() == 1 {
		rec, _ := w.keys.RecordAt(0)
		return rec.SpendPublicKey, nil
	}
	spendPublic, _, err := w.currency.ParseAccountAddressString(params.SourceAddresses[0])
	if err != nil {
		return core.PublicKey{}, core.WrapError(core.ErrBadAddress, "", err)
	}
	return spendPublic, nil
}

// pickCandidateWallets gathers the unlocked spendable outputs eligible for
// input selection: per named source address if any were given, else every
// record with a nonzero actual balance. Grounded on
// WalletGreen::pickWallets/pickWalletsWithMoney.
//
// The record selection itself is a cheap in-memory KeyStore walk, but each
// record's GetOutputs call is a TransferContainer query that may cross into
// the synchronizer's own storage; since the container handles are
// independent of one another, the per-record fetches run concurrently via
// errgroup and are reassembled in their original order afterward.
func (w *Wallet) pickCandidateWallets(sourceAddresses []string) ([]txbuild.CandidateWallet, *core.WalletError) {
	var recordIndexes []int
	if len(sourceAddresses) > 0 {
		for _, addr := range sourceAddresses {
			spendPublic, _, err := w.currency.ParseAccountAddressString(addr)
			if err != nil {
				return nil, core.WrapError(core.ErrBadAddress, "", err)
			}
			rec, idx, found := w.keys.Find(spendPublic)
			if !found || rec.Container == nil {
				continue
			}
			recordIndexes = append(recordIndexes, idx)
		}
	} else {
		for i := 0; i < w.keys.Count(); i++ {
			rec, ok := w.keys.RecordAt(i)
			if !ok || rec.ActualBalance == 0 || rec.Container == nil {
				continue
			}
			recordIndexes = append(recordIndexes, i)
		}
	}

	results := make([]txbuild.CandidateWallet, len(recordIndexes))

	g, _ := errgroup.WithContext(context.Background())
	for pos, idx := range recordIndexes {
		pos, idx := pos, idx
		g.Go(func() error {
			rec, ok := w.keys.RecordAt(idx)
			if !ok || rec.Container == nil {
				return nil
			}
			outs, gerr := rec.Container.GetOutputs(core.IncludeKeyUnlocked)
			if gerr != nil {
				return core.WrapError(core.ErrInternalWalletError, "get outputs failed", gerr)
			}
			if len(outs) > 0 {
				results[pos] = txbuild.CandidateWallet{RecordIndex: idx, Outputs: outs}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		if werr, ok := err.(*core.WalletError); ok {
			return nil, werr
		}
		return nil, core.WrapError(core.ErrInternalWalletError, "get outputs failed", err)
	}

	out := make([]txbuild.CandidateWallet, 0, len(results))
	for _, r := range results {
		if len(r.Outputs) > 0 {
			out = append(out, r)
		}
	}
	return out, nil
}

// randIndex is the uniform sampler SelectTransfers draws candidate pool
// indices from.
func (w *Wallet) randIndex(n int) int {
	if n <= 0 {
		return 0
	}
	return int(w.crypto.RandomUint64() % uint64(n))
}

// checkMixinCounts implements the source's checkIfEnoughMixins: every
// selected amount must have at least mixIn candidates on offer. The
// mixIn==0-yet-empty-result branch is unreachable from doTransfer (which
// never calls GetRandomOutsByAmounts when mixIn is 0) but is kept to
// mirror the source's own dead branch faithfully.
func checkMixinCounts(mixinResult map[uint64][]core.OutputCandidate, selected []txbuild.SelectedOutput, mixIn uint64) bool {
	if mixIn == 0 && len(mixinResult) == 0 {
		return false
	}
	for _, s := range selected {
		if uint64(len(mixinResult[s.Output.Amount])) < mixIn {
			return false
		}
	}
	return true
}

// preparedInput is one ring-signed input ready for TransactionBuilder:
// RecordIndex names the spend key that signs it, Ring is the full
// ascending-by-global-index candidate list with the real output already
// reinserted, and RealIndex is its position within Ring.
type preparedInput struct {
	RecordIndex int
	Ring        []core.RingMember
	RealIndex   int
	Amount      uint64
}

// prepareInputs builds one preparedInput per selected output, grounded on
// WalletGreen::prepareInputs: sort the candidate ring members for this
// amount ascending by global index, drop the real output's own entry, cap
// at mixIn, find the real output's sorted insertion point among the
// capped decoys, and insert it there. Outputs in selected and the
// returned slice share the same order; a later signer relies on that to
// pair each input with the record that owns it.
func (w *Wallet) prepareInputs(selected []txbuild.SelectedOutput, mixinResult map[uint64][]core.OutputCandidate, mixIn uint64) ([]preparedInput, *core.WalletError) {
	out := make([]preparedInput, 0, len(selected))
	for _, s := range selected {
		candidates := append([]core.OutputCandidate(nil), mixinResult[s.Output.Amount]...)
		sort.Slice(candidates, func(i, j int) bool { return candidates[i].GlobalIndex < candidates[j].GlobalIndex })

		ring := make([]core.RingMember, 0, mixIn)
		for _, c := range candidates {
			if c.GlobalIndex == s.Output.GlobalIndex {
				continue
			}
			ring = append(ring, core.RingMember{GlobalIndex: c.GlobalIndex, OutKey: c.OutKey})
			if uint64(len(ring)) >= mixIn {
				break
			}
		}

		insertPos := len(ring)
		for i, m := range ring {
			if m.GlobalIndex >= s.Output.GlobalIndex {
				insertPos = i
				break
			}
		}
		ring = append(ring, core.RingMember{})
		copy(ring[insertPos+1:], ring[insertPos:])
		ring[insertPos] = core.RingMember{GlobalIndex: s.Output.GlobalIndex, OutKey: s.Output.OutKey}

		out = append(out, preparedInput{
			RecordIndex: s.RecordIndex,
			Ring:        ring,
			RealIndex:   insertPos,
			Amount:      s.Output.Amount,
		})
	}
	return out, nil
}

// pushDonationTransferIfPossible builds the donation transfer, if any,
// grounded on WalletGreen::pushDonationTransferIfPossible: no donation
// settings means no donation, and a greedy fill in which no decomposed
// summand of freeAmount fits under the threshold means no donation either.
func pushDonationTransferIfPossible(donation core.DonationSettings, freeAmount, dustThreshold uint64) fn.Option[core.WalletTransfer] {
	if donation.Address == "" || donation.Threshold == 0 {
		return fn.None[core.WalletTransfer]()
	}
	amount := calculateDonationAmount(freeAmount, donation.Threshold, dustThreshold)
	if amount == 0 {
		return fn.None[core.WalletTransfer]()
	}
	return fn.Some(core.WalletTransfer{Type: core.TransferDonation, Address: donation.Address, Amount: int64(amount)})
}

// calculateDonationAmount greedily fills donationThreshold from the
// decomposed summands of freeAmount, largest first, grounded on the
// source's own calculateDonationAmount.
func calculateDonationAmount(freeAmount, donationThreshold, dustThreshold uint64) uint64 {
	decomposed := txbuild.SortDescending(txbuild.DecomposeAmount(freeAmount, dustThreshold))
	var donationAmount uint64
	for _, amt := range decomposed {
		if amt <= donationThreshold-donationAmount {
			donationAmount += amt
		}
	}
	return donationAmount
}

// receiverAmounts is one destination's decomposed output amounts, still
// paired with the spend public key that owns them.
type receiverAmounts struct {
	SpendPublic core.PublicKey
	Amounts     []uint64
}

// splitAmount decomposes a single amount for a single spend public key.
// Grounded on the source's splitAmount, which calls the free
// decomposeAmount function directly rather than going through
// CurrencyParams, so this calls txbuild.DecomposeAmount the same way.
func (w *Wallet) splitAmount(amount uint64, spendPublic core.PublicKey, dustThreshold uint64) receiverAmounts {
	return receiverAmounts{SpendPublic: spendPublic, Amounts: txbuild.DecomposeAmount(amount, dustThreshold)}
}

// splitDestinations decomposes every destination's amount, grounded on
// the source's splitDestinations.
func (w *Wallet) splitDestinations(destinations []core.WalletTransfer, dustThreshold uint64) ([]receiverAmounts, *core.WalletError) {
	out := make([]receiverAmounts, 0, len(destinations))
	for _, d := range destinations {
		spendPublic, _, err := w.currency.ParseAccountAddressString(d.Address)
		if err != nil {
			return nil, core.WrapError(core.ErrBadAddress, "", err)
		}
		out = append(out, w.splitAmount(uint64(d.Amount), spendPublic, dustThreshold))
	}
	return out, nil
}

// outputAssignment is one flattened (destination, amount) pair awaiting
// the shuffle-then-sort step of buildTransaction.
type outputAssignment struct {
	dest   core.PublicKey
	amount uint64
}

// buildTransaction flattens every receiver's decomposed amounts, shuffles
// them, stable-sorts ascending by amount (so equal amounts keep their
// shuffled relative order, the way the source's std::stable_sort does),
// adds outputs in that order, sets unlock time and extra, adds inputs in
// selection order, and signs. Grounded on WalletGreen's ITransaction-
// building makeTransaction overload.
func (w *Wallet) buildTransaction(outputs []receiverAmounts, inputs []preparedInput, extra []byte, unlockTimestamp uint64) ([]byte, core.Hash, core.SecretKey, *core.WalletError) {
	var flat []outputAssignment
	for _, o := range outputs {
		for _, amt := range o.Amounts {
			flat = append(flat, outputAssignment{dest: o.SpendPublic, amount: amt})
		}
	}
	w.shuffleOutputs(flat)
	sort.SliceStable(flat, func(i, j int) bool { return flat[i].amount < flat[j].amount })

	tb := w.crypto.NewTransactionBuilder()
	for _, a := range flat {
		if err := tb.AddOutput(a.amount, a.dest); err != nil {
			return nil, core.Hash{}, core.SecretKey{}, core.WrapError(core.ErrInternalWalletError, "add output failed", err)
		}
	}
	tb.SetUnlockTime(unlockTimestamp)
	tb.SetExtra(extra)

	for _, in := range inputs {
		rec, ok := w.keys.RecordAt(in.RecordIndex)
		if !ok {
			return nil, core.Hash{}, core.SecretKey{}, core.NewError(core.ErrInternalWalletError, "missing input record")
		}
		if err := tb.AddInput(in.Ring, in.RealIndex, in.Amount, w.viewSecretKey, rec.SpendSecretKey); err != nil {
			return nil, core.Hash{}, core.SecretKey{}, core.WrapError(core.ErrInternalWalletError, "add input failed", err)
		}
	}

	if err := tb.Sign(); err != nil {
		return nil, core.Hash{}, core.SecretKey{}, core.WrapError(core.ErrInternalWalletError, "sign failed", err)
	}
	data, err := tb.TransactionData()
	if err != nil {
		return nil, core.Hash{}, core.SecretKey{}, core.WrapError(core.ErrInternalWalletError, "transaction data failed", err)
	}
	hash, err := tb.TransactionHash()
	if err != nil {
		return nil, core.Hash{}, core.SecretKey{}, core.WrapError(core.ErrInternalWalletError, "transaction hash failed", err)
	}
	secretKey, err := tb.TransactionSecretKey()
	if err != nil {
		return nil, core.Hash{}, core.SecretKey{}, core.WrapError(core.ErrInternalWalletError, "transaction secret key failed", err)
	}
	return data, hash, secretKey, nil
}

// shuffleOutputs performs an in-place Fisher-Yates shuffle seeded from
// CryptoOps' randomness source, matching the source's use of its own CSPRNG
// to permute output order before the stable sort.
func (w *Wallet) shuffleOutputs(a []outputAssignment) {
	for i := len(a) - 1; i > 0; i-- {
		j := int(w.crypto.RandomUint64() % uint64(i+1))
		a[i], a[j] = a[j], a[i]
	}
}

// validateSaveAndSendTransaction implements the second half of
// WalletGreen::validateSaveAndSendTransaction: size check, insert the
// CREATED ledger entry, register with SyncEngine, and (if send) relay
// immediately. Both rollback guards mirror the source's two
// Tools::ScopeExit registrations; Go's defer unwinds in the same
// last-registered-first-run order a ScopeExit stack does, so registering
// the FAILED-flip guard before the unconfirmed-removal guard reproduces
// the source's unwind order exactly: on a later failure, the removal runs
// first, then the FAILED flip.
//
// totalAmount is the signed net change to this wallet the transaction
// causes: it is NOT the sum of the transfers slice, since that list is
// keyed by destination address and most destinations are not this
// wallet's own. The caller computes it analytically (changeAmount minus
// the total amount moved out of the selected inputs) before any transfer
// row exists for the not-yet-mined transaction; TransferReconciler
// recomputes the definitive value, including the synthetic unknown row,
// once the transaction is actually observed on-chain.
func (w *Wallet) validateSaveAndSendTransaction(txData []byte, hash core.Hash, secretKey core.SecretKey, fee uint64, extra []byte, unlockTimestamp uint64, transfers []core.WalletTransfer, totalAmount int64, isFusion, send bool) (txIndex int, result *core.WalletError) {
	upperSizeLimit := w.currency.BlockGrantedFullRewardZone()*2 - w.currency.MinerTxBlobReservedSize()
	if uint64(len(txData)) > upperSizeLimit {
		return 0, core.NewError(core.ErrTransactionSizeTooBig, "")
	}

	txIndex = w.txs.Insert(core.WalletTransaction{
		State:        core.StateCreated,
		Hash:         hash,
		BlockHeight:  core.UnconfirmedHeight,
		Timestamp:    0,
		CreationTime: w.currentTimestamp(),
		UnlockTime:   unlockTimestamp,
		TotalAmount:  totalAmount,
		Fee:          fee,
		Extra:        extra,
		SecretKey:    secretKey,
		HasSecret:    true,
	})
	w.txs.SetTransfers(txIndex, transfers)
	w.pending.Put(txIndex, txData)
	w.fusionCache[txIndex] = isFusion
	w.events.Push(core.WalletEvent{Kind: core.EventTransactionCreated, TransactionIndex: txIndex})

	failed := false
	defer func() {
		if failed {
			w.pending.Delete(txIndex)
			w.updateTransactionStateAndPushEvent(txIndex, core.StateFailed)
		}
	}()

	if err := w.sync.AddUnconfirmedTransaction(txData); err != nil {
		failed = true
		return txIndex, core.WrapError(core.ErrInternalWalletError, "add unconfirmed transaction failed", err)
	}

	removedFromSync := false
	defer func() {
		if failed && !removedFromSync {
			removedFromSync = true
			_ = w.sync.RemoveUnconfirmedTransaction(hash)
		}
	}()

	if send {
		if err := w.node.RelayTransaction(context.Background(), txData); err != nil {
			failed = true
			return txIndex, core.WrapError(core.ErrInternalWalletError, "relay transaction failed", err)
		}
		w.updateTransactionStateAndPushEvent(txIndex, core.StateSucceeded)
		w.pending.Delete(txIndex)
	}

	return txIndex, nil
}

// updateTransactionStateAndPushEvent sets a transaction's state and pushes
// one TRANSACTION_UPDATED event, the shared tail of CommitTransaction and
// validateSaveAndSendTransaction's success/failure paths.
func (w *Wallet) updateTransactionStateAndPushEvent(index int, state core.TransactionState) {
	tx, ok := w.txs.At(index)
	if !ok {
		return
	}
	tx.State = state
	w.events.Push(core.WalletEvent{Kind: core.EventTransactionUpdated, TransactionIndex: index})
}
