// Copyright (c) 2026 The cash2 developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package wallet

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/DCL2019/cash2/core"
)

func recordContainer(t *testing.T, w *Wallet, recordIndex int) *fakeContainer {
	t.Helper()
	rec, ok := w.keys.RecordAt(recordIndex)
	require.True(t, ok)
	c, ok := rec.Container.(*fakeContainer)
	require.True(t, ok)
	return c
}

// TestTransferEmptySendProducesChangeAndNegativeTotal exercises the
// "Empty send" scenario: a single spendable record with balance 100
// sends 40 with a fee of 10 and mixIn 0, paying change back to itself.
// The wallet only ever has one record, so the change destination is
// resolved implicitly.
func TestTransferEmptySendProducesChangeAndNegativeTotal(t *testing.T) {
	w, crypto, _, sync, currency := newTestWallet(t)

	addr, werr := w.CreateAddress()
	require.Nil(t, werr)

	rec, idx, found := w.keys.Find(mustParseSpend(t, currency, addr))
	require.True(t, found)
	require.Equal(t, 0, idx)

	container := recordContainer(t, w, idx)
	var hash core.Hash
	hash[0] = 0x01
	container.seedReceive(hash, 100, 50)
	w.refreshRecordBalanceFromContainer(idx)

	actual, werr := w.ActualBalance()
	require.Nil(t, werr)
	require.EqualValues(t, 100, actual)

	otherPub, _, err := crypto.GenerateKeys()
	require.NoError(t, err)
	otherAddr := currency.AccountAddressAsString(otherPub, core.PublicKey{0xEE})

	params := core.TransactionParameters{
		Destinations: []core.WalletOrder{{Address: otherAddr, Amount: 40}},
		Fee:          10,
		MixIn:        0,
	}

	txIndex, werr := w.Transfer(params)
	require.Nil(t, werr)
	require.Equal(t, 0, txIndex)

	tx, ok := w.txs.At(txIndex)
	require.True(t, ok)
	require.Equal(t, core.StateSucceeded, tx.State)
	require.EqualValues(t, -50, tx.TotalAmount)
	require.EqualValues(t, 10, tx.Fee)

	transfers := w.txs.Transfers(txIndex)
	var sawUsual, sawChange bool
	for _, tr := range transfers {
		switch tr.Type {
		case core.TransferUsual:
			require.Equal(t, otherAddr, tr.Address)
			require.EqualValues(t, 40, tr.Amount)
			sawUsual = true
		case core.TransferChange:
			require.Equal(t, rec.SpendPublicKey, mustParseSpend(t, currency, tr.Address))
			require.EqualValues(t, 50, tr.Amount)
			sawChange = true
		}
	}
	require.True(t, sawUsual, "expected a USUAL transfer row")
	require.True(t, sawChange, "expected a CHANGE transfer row")

	require.True(t, sync.started)

	ev, werr := w.GetEvent()
	require.Nil(t, werr)
	require.Equal(t, core.EventTransactionCreated, ev.Kind)
	ev, werr = w.GetEvent()
	require.Nil(t, werr)
	require.Equal(t, core.EventTransactionUpdated, ev.Kind)
}

// TestTransferInsufficientFundsFails exercises the "Insufficient funds"
// scenario: the requested amount plus fee exceeds the only record's
// spendable balance.
func TestTransferInsufficientFundsFails(t *testing.T) {
	w, crypto, _, _, currency := newTestWallet(t)

	addr, werr := w.CreateAddress()
	require.Nil(t, werr)
	_, idx, found := w.keys.Find(mustParseSpend(t, currency, addr))
	require.True(t, found)

	container := recordContainer(t, w, idx)
	var hash core.Hash
	hash[0] = 0x02
	container.seedReceive(hash, 30, 10)
	w.refreshRecordBalanceFromContainer(idx)

	otherPub, _, err := crypto.GenerateKeys()
	require.NoError(t, err)
	otherAddr := currency.AccountAddressAsString(otherPub, core.PublicKey{0xEE})

	params := core.TransactionParameters{
		Destinations: []core.WalletOrder{{Address: otherAddr, Amount: 40}},
		Fee:          10,
	}

	_, werr = w.Transfer(params)
	require.NotNil(t, werr)
	require.Equal(t, core.ErrWrongAmount, werr.Code)
}

// TestTransferFeeBelowMinimumFails exercises the "Fee below minimum"
// scenario.
func TestTransferFeeBelowMinimumFails(t *testing.T) {
	w, crypto, node, _, currency := newTestWallet(t)
	node.minimalFee = 10

	addr, werr := w.CreateAddress()
	require.Nil(t, werr)
	_, idx, found := w.keys.Find(mustParseSpend(t, currency, addr))
	require.True(t, found)

	container := recordContainer(t, w, idx)
	var hash core.Hash
	hash[0] = 0x03
	container.seedReceive(hash, 100, 10)
	w.refreshRecordBalanceFromContainer(idx)

	otherPub, _, err := crypto.GenerateKeys()
	require.NoError(t, err)
	otherAddr := currency.AccountAddressAsString(otherPub, core.PublicKey{0xEE})

	params := core.TransactionParameters{
		Destinations: []core.WalletOrder{{Address: otherAddr, Amount: 40}},
		Fee:          1,
	}

	_, werr = w.Transfer(params)
	require.NotNil(t, werr)
	require.Equal(t, core.ErrFeeTooSmall, werr.Code)
}

// TestTransferRequiresChangeDestinationWithMultipleRecords exercises the
// "Change required" validation scenario: once a wallet holds more than
// one record, an ambiguous send (no explicit source, no explicit
// change) must be rejected rather than guessing.
func TestTransferRequiresChangeDestinationWithMultipleRecords(t *testing.T) {
	w, crypto, _, _, currency := newTestWallet(t)

	_, werr := w.CreateAddress()
	require.Nil(t, werr)
	_, werr = w.CreateAddress()
	require.Nil(t, werr)

	otherPub, _, err := crypto.GenerateKeys()
	require.NoError(t, err)
	otherAddr := currency.AccountAddressAsString(otherPub, core.PublicKey{0xEE})

	params := core.TransactionParameters{
		Destinations: []core.WalletOrder{{Address: otherAddr, Amount: 40}},
		Fee:          10,
	}

	_, werr = w.Transfer(params)
	require.NotNil(t, werr)
	require.Equal(t, core.ErrChangeAddressRequired, werr.Code)
}

// TestOnTransactionUpdatedSimpleReceiveHasNoUnknownRows exercises the
// reconciler's baseline path: every output of a newly observed
// transaction belongs to a tracked container, so no synthetic unknown
// row should appear.
func TestOnTransactionUpdatedSimpleReceiveHasNoUnknownRows(t *testing.T) {
	w, _, _, _, currency := newTestWallet(t)

	addr, werr := w.CreateAddress()
	require.Nil(t, werr)
	_, idx, found := w.keys.Find(mustParseSpend(t, currency, addr))
	require.True(t, found)
	container := recordContainer(t, w, idx)

	var hash core.Hash
	hash[0] = 0x04
	out := core.UnspentOutput{Amount: 100, GlobalIndex: 1, TransactionHash: hash}
	container.txOutputs[hash] = []core.UnspentOutput{out}
	container.txInfo[hash] = containerTxInfo{
		info: core.TransactionInformation{Hash: hash, BlockHeight: 77, TotalAmountOut: 100},
		outAmt: 100,
	}

	obs := (*observer)(w)
	obs.OnTransactionUpdated(w.viewPublicKey, hash, []core.TransferContainer{container})

	// OnTransactionUpdated only hands the closure to the dispatcher
	// goroutine; block on any submit-based call before inspecting ledger
	// state directly, since the dispatcher only accepts this next
	// request once the prior one has fully run.
	_, werr = w.ActualBalance()
	require.Nil(t, werr)

	txIdx, ok := w.txs.FindByHash(hash)
	require.True(t, ok)
	tx, ok := w.txs.At(txIdx)
	require.True(t, ok)
	require.Equal(t, core.StateSucceeded, tx.State)
	require.EqualValues(t, 100, tx.TotalAmount)

	transfers := w.txs.Transfers(txIdx)
	for _, tr := range transfers {
		require.NotEqual(t, "", tr.Address, "no synthetic unknown row expected for a fully-tracked receive")
	}

	ev, werr := w.GetEvent()
	require.Nil(t, werr)
	require.Equal(t, core.EventTransactionCreated, ev.Kind)
}

// TestOnTransactionUpdatedSyntheticUnknownRow exercises
// rewriteTransferBlock's reconcileUnknown path: the container only
// resolved part of the reported output total, so the remainder must
// surface as an address-less transfer row.
func TestOnTransactionUpdatedSyntheticUnknownRow(t *testing.T) {
	w, _, _, _, currency := newTestWallet(t)

	addr, werr := w.CreateAddress()
	require.Nil(t, werr)
	_, idx, found := w.keys.Find(mustParseSpend(t, currency, addr))
	require.True(t, found)
	container := recordContainer(t, w, idx)

	var hash core.Hash
	hash[0] = 0x05
	container.txOutputs[hash] = []core.UnspentOutput{{Amount: 100, GlobalIndex: 1, TransactionHash: hash}}
	container.txInfo[hash] = containerTxInfo{
		info: core.TransactionInformation{Hash: hash, BlockHeight: 80, TotalAmountOut: 150},
		outAmt: 150,
	}

	obs := (*observer)(w)
	obs.OnTransactionUpdated(w.viewPublicKey, hash, []core.TransferContainer{container})

	_, werr = w.ActualBalance()
	require.Nil(t, werr)

	txIdx, ok := w.txs.FindByHash(hash)
	require.True(t, ok)

	var unknownOut int64
	var foundUnknown bool
	for _, tr := range w.txs.Transfers(txIdx) {
		if tr.Address == "" {
			foundUnknown = true
			unknownOut = tr.Amount
		}
	}
	require.True(t, foundUnknown, "expected a synthetic unknown row for the unresolved 50")
	require.EqualValues(t, 50, unknownOut)
}

// TestOnSyncProgressUpdatedFiresUnlockJob exercises spec.md §4.8: a due
// UnlockJob refreshes its container's balance and emits exactly one
// BALANCE_UNLOCKED event.
func TestOnSyncProgressUpdatedFiresUnlockJob(t *testing.T) {
	w, _, _, _, currency := newTestWallet(t)

	addr, werr := w.CreateAddress()
	require.Nil(t, werr)
	_, idx, found := w.keys.Find(mustParseSpend(t, currency, addr))
	require.True(t, found)
	container := recordContainer(t, w, idx)

	var hash core.Hash
	hash[0] = 0x06
	container.actual = 77
	w.unlocks.Add(core.UnlockJob{UnlockHeight: 5, Container: container, TransactionHash: hash})

	obs := (*observer)(w)
	obs.OnSynchronizationProgressUpdated(6, 6)

	actual, werr := w.ActualBalance()
	require.Nil(t, werr)
	require.EqualValues(t, 77, actual)

	ev, werr := w.GetEvent()
	require.Nil(t, werr)
	require.Equal(t, core.EventSyncProgressUpdated, ev.Kind)
	ev, werr = w.GetEvent()
	require.Nil(t, werr)
	require.Equal(t, core.EventBalanceUnlocked, ev.Kind)
}

// TestDeleteAddressRewritesTransfersAndDropsBalance sends a transaction
// from the wallet's sole record and then deletes that record, checking
// that its balance contribution is removed and that the transaction's
// own-address transfer rows are rewritten per spec.md §4.4.
func TestDeleteAddressRewritesTransfersAndDropsBalance(t *testing.T) {
	w, crypto, _, _, currency := newTestWallet(t)

	addr, werr := w.CreateAddress()
	require.Nil(t, werr)
	_, idx, found := w.keys.Find(mustParseSpend(t, currency, addr))
	require.True(t, found)

	container := recordContainer(t, w, idx)
	var hash core.Hash
	hash[0] = 0x07
	container.seedReceive(hash, 100, 5)
	w.refreshRecordBalanceFromContainer(idx)

	otherPub, _, err := crypto.GenerateKeys()
	require.NoError(t, err)
	otherAddr := currency.AccountAddressAsString(otherPub, core.PublicKey{0xEE})

	txIndex, werr := w.Transfer(core.TransactionParameters{
		Destinations: []core.WalletOrder{{Address: otherAddr, Amount: 40}},
		Fee:          10,
	})
	require.Nil(t, werr)

	werr = w.DeleteAddress(addr)
	require.Nil(t, werr)

	require.Equal(t, 0, w.keys.Count())
	actual, werr := w.ActualBalance()
	require.Nil(t, werr)
	require.EqualValues(t, 0, actual)

	tx, ok := w.txs.At(txIndex)
	require.True(t, ok)
	require.Equal(t, core.StateDeleted, tx.State)

	for _, tr := range w.txs.Transfers(txIndex) {
		require.NotEqual(t, addr, tr.Address)
	}
}

func mustParseSpend(t *testing.T, currency core.CurrencyParams, address string) core.PublicKey {
	t.Helper()
	spend, _, err := currency.ParseAccountAddressString(address)
	require.NoError(t, err)
	return spend
}
