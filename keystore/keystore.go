// Copyright (c) 2026 The cash2 developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package keystore holds the set of WalletRecords belonging to a wallet,
// indexed by insertion order and by spend public key, and enforces the
// tracking-mode consistency rule across them.
package keystore

import (
	"github.com/DCL2019/cash2/core"
)

// KeyStore owns every WalletRecord of a wallet. It is not safe for
// concurrent use; callers are expected to hold the dispatcher's ready
// event before calling any method, matching every other wallet-core
// collection.
type KeyStore struct {
	records []core.WalletRecord
	byKey   map[core.PublicKey]int
}

// New returns an empty KeyStore.
func New() *KeyStore {
	return &KeyStore{byKey: make(map[core.PublicKey]int)}
}

// Count returns the number of records.
func (k *KeyStore) Count() int {
	return len(k.records)
}

// Addresses returns the spend public keys of every record, in insertion
// order. A complete wallet core needs an enumeration path even though
// spec.md only names the mutating operations.
func (k *KeyStore) Addresses() []core.PublicKey {
	out := make([]core.PublicKey, len(k.records))
	for i, r := range k.records {
		out[i] = r.SpendPublicKey
	}
	return out
}

// RecordAt returns the record at the given dense index.
func (k *KeyStore) RecordAt(index int) (*core.WalletRecord, bool) {
	if index < 0 || index >= len(k.records) {
		return nil, false
	}
	return &k.records[index], true
}

// Find returns the record (and its dense index) for a spend public key.
func (k *KeyStore) Find(spendPublic core.PublicKey) (*core.WalletRecord, int, bool) {
	idx, ok := k.byKey[spendPublic]
	if !ok {
		return nil, 0, false
	}
	return &k.records[idx], idx, true
}

// Tracking reports whether the wallet as a whole is in tracking mode,
// determined by the first record: if its SpendSecretKey is null, the
// wallet is TRACKING and every record must be. An empty KeyStore is not
// tracking by convention (nothing to enforce yet).
func (k *KeyStore) Tracking() bool {
	if len(k.records) == 0 {
		return false
	}
	return k.records[0].Tracking()
}

// checkModeConsistency enforces: if the first record has a secret, every
// added record must too; conversely for watch-only.
func (k *KeyStore) checkModeConsistency(secret core.SecretKey) *core.WalletError {
	if len(k.records) == 0 {
		return nil
	}
	wantTracking := k.Tracking()
	gotTracking := secret.IsNull()
	if wantTracking != gotTracking {
		return core.NewError(core.ErrBadAddress, "tracking-mode consistency violated")
	}
	return nil
}

// Insert appends a fully-formed record, enforcing the uniqueness and
// tracking-mode invariants. On success it returns the record's dense
// index.
func (k *KeyStore) Insert(rec core.WalletRecord) (int, *core.WalletError) {
	if _, exists := k.byKey[rec.SpendPublicKey]; exists {
		return 0, core.NewError(core.ErrAddressAlreadyExists, "")
	}
	if err := k.checkModeConsistency(rec.SpendSecretKey); err != nil {
		return 0, err
	}
	idx := len(k.records)
	k.records = append(k.records, rec)
	k.byKey[rec.SpendPublicKey] = idx
	return idx, nil
}

// Remove deletes the record at the given dense index, preserving the
// relative order of the records that remain. The caller (wallet façade)
// is responsible for everything deleteAddress does beyond removing the
// KeyStore entry itself: balance adjustment, unsubscription, transfer
// rewrite, and UncommittedStore pruning.
func (k *KeyStore) Remove(index int) (core.WalletRecord, bool) {
	if index < 0 || index >= len(k.records) {
		return core.WalletRecord{}, false
	}
	rec := k.records[index]
	delete(k.byKey, rec.SpendPublicKey)

	k.records = append(k.records[:index], k.records[index+1:]...)
	for pub, idx := range k.byKey {
		if idx > index {
			k.byKey[pub] = idx - 1
		}
	}
	return rec, true
}

// Reset drops every record, used by shutdown().
func (k *KeyStore) Reset() {
	k.records = nil
	k.byKey = make(map[core.PublicKey]int)
}
