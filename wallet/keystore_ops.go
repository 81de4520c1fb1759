// Copyright (c) 2026 The cash2 developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package wallet

import (
	"bytes"

	"github.com/DCL2019/cash2/core"
)

func (w *Wallet) subscribeRecord(spendPublic core.PublicKey, creationTimestamp uint64) (core.TransferContainer, *core.WalletError) {
	if w.sync == nil {
		return nil, nil
	}
	sub, err := w.sync.Subscribe(spendPublic, w.viewPublicKey, core.SyncStart{Timestamp: creationTimestamp}, w.transactionSpendableAge)
	if err != nil {
		return nil, core.WrapError(core.ErrInternalWalletError, "subscribe failed", err)
	}
	w.subscriptions[spendPublic] = sub
	return sub.Container(), nil
}

// createAddressCommon is the shared body of every createAddress overload,
// grounded on WalletGreen::doCreateAddress: stop the SyncEngine, insert
// the record, and run the future-time-limit rewind check before
// restarting (or reloading) it.
func (w *Wallet) createAddressCommon(pub core.PublicKey, sec core.SecretKey, creationTimestamp uint64) (string, *core.WalletError) {
	w.stopSyncEngine()

	container, werr := w.subscribeRecord(pub, creationTimestamp)
	if werr != nil {
		w.startSyncEngineOrReseed()
		return "", werr
	}
	_, werr = w.keys.Insert(core.WalletRecord{
		SpendPublicKey:    pub,
		SpendSecretKey:    sec,
		CreationTimestamp: creationTimestamp,
		Container:         container,
	})
	if werr != nil {
		w.startSyncEngineOrReseed()
		return "", werr
	}

	if werr := w.rewindIfNeeded(creationTimestamp); werr != nil {
		return "", werr
	}
	return w.currency.AccountAddressAsString(pub, w.viewPublicKey), nil
}

// rewindIfNeeded implements the doCreateAddress rewind workaround: if
// creationTimestamp is more than CurrencyParams.BlockFutureTimeLimit in
// the past relative to now, the SyncEngine's per-subscription start time
// is already fixed at subscribe time and cannot be moved backward in
// place, so the wallet saves its own state, shuts down, and reloads —
// which re-subscribes every record at its true creationTimestamp. If no
// rewind is needed it just restarts the SyncEngine that
// createAddressCommon stopped.
func (w *Wallet) rewindIfNeeded(creationTimestamp uint64) *core.WalletError {
	now := w.currentTimestamp()
	limit := w.currency.BlockFutureTimeLimit()
	if creationTimestamp+limit >= now {
		w.startSyncEngineOrReseed()
		return nil
	}

	var buf bytes.Buffer
	password := w.password
	if werr := w.saveLocked(&buf, true, false); werr != nil {
		w.startSyncEngineOrReseed()
		return werr
	}
	w.shutdownLocked()
	return w.loadLocked(&buf, password)
}

// CreateAddress generates a fresh spend keypair and inserts a new
// spendable record, per spec.md §4.2's zero-argument createAddress().
// creationTimestamp is "now", so the future-time-limit rewind almost
// never fires for this overload in practice.
func (w *Wallet) CreateAddress() (string, *core.WalletError) {
	return submit(w, func() (string, *core.WalletError) {
		if err := w.checkOperational(false); err != nil {
			return "", err
		}
		pub, sec, err := w.crypto.GenerateKeys()
		if err != nil {
			return "", core.WrapError(core.ErrKeyGenerationError, "", err)
		}
		return w.createAddressCommon(pub, sec, w.currentTimestamp())
	})
}

// currentTimestamp is a seam for "now"; the dispatcher never calls
// time.Now() directly so CreateAddress's future-time-limit check stays
// deterministic under test.
func (w *Wallet) currentTimestamp() uint64 {
	if w.clock != nil {
		return w.clock()
	}
	return 0
}

// CreateAddressFromSecret derives the public key from a supplied spend
// secret and inserts the record, enforcing tracking-mode rules. Matches
// createAddress(spendPrivateKey) in the original, which always passes a
// zero creationTimestamp — so the rewind check always fires once "now"
// exceeds BlockFutureTimeLimit.
func (w *Wallet) CreateAddressFromSecret(secret core.SecretKey) (string, *core.WalletError) {
	return submit(w, func() (string, *core.WalletError) {
		if err := w.checkOperational(false); err != nil {
			return "", err
		}
		pub, ok := w.crypto.SecretKeyToPublicKey(secret)
		if !ok {
			return "", core.NewError(core.ErrKeyGenerationError, "invalid spend secret key")
		}
		return w.createAddressCommon(pub, secret, 0)
	})
}

// CreateWatchOnlyAddress adds a watch-only record for a supplied spend
// public key, checked via CryptoOps.CheckKey. Matches
// createAddress(spendPublicKey) in the original: also a zero
// creationTimestamp.
func (w *Wallet) CreateWatchOnlyAddress(spendPublic core.PublicKey) (string, *core.WalletError) {
	return submit(w, func() (string, *core.WalletError) {
		if err := w.checkOperational(false); err != nil {
			return "", err
		}
		if !w.crypto.CheckKey(spendPublic) {
			return "", core.NewError(core.ErrBadAddress, "invalid spend public key")
		}
		return w.createAddressCommon(spendPublic, core.NullSecretKey, 0)
	})
}

// DeleteAddress implements spec.md §4.2 deleteAddress: stops SyncEngine,
// subtracts the record's balances from the globals, unsubscribes the
// container, removes unlock jobs, rewrites transfers, drops fully-deleted
// pending transactions from UncommittedStore, removes the record,
// restarts SyncEngine (or re-seeds BlockHashLog if now empty), and emits
// one TRANSACTION_UPDATED event per updated transaction.
func (w *Wallet) DeleteAddress(address string) *core.WalletError {
	return submitVoid(w, func() *core.WalletError {
		if err := w.checkOperational(false); err != nil {
			return err
		}
		spendPublic, _, err := w.currency.ParseAccountAddressString(address)
		if err != nil {
			return core.WrapError(core.ErrBadAddress, "", err)
		}
		rec, idx, found := w.keys.Find(spendPublic)
		if !found {
			return core.NewError(core.ErrWalletNotFound, "")
		}

		w.stopSyncEngine()

		w.adjustRecordBalance(idx, -int64(rec.ActualBalance), -int64(rec.PendingBalance))

		if sub, ok := w.subscriptions[spendPublic]; ok {
			sub.Unsubscribe()
			delete(w.subscriptions, spendPublic)
		}
		w.unlocks.RemoveByContainer(rec.Container)

		updated, deletedIdx := w.deleteTransfersForAddress(address)
		deletedSet := make(map[int]bool, len(deletedIdx))
		for _, i := range deletedIdx {
			deletedSet[i] = true
			w.pending.Delete(i)
		}

		w.keys.Remove(idx)

		w.startSyncEngineOrReseed()

		for _, i := range updated {
			w.events.Push(core.WalletEvent{Kind: core.EventTransactionUpdated, TransactionIndex: i})
		}
		return nil
	})
}
