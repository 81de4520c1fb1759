// Copyright (c) 2026 The cash2 developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package core

import (
	"context"
	"io"
)

// OutputCandidate is one candidate ring member returned by
// NodeClient.GetRandomOutsByAmounts: a global output index paired with its
// one-time public key.
type OutputCandidate struct {
	GlobalIndex uint64
	OutKey      PublicKey
}

// NodeClient is the boundary to the remote node RPC client. Its methods
// present a synchronous interface over what is, on the wire, an
// asynchronous request/callback exchange; implementations are expected to
// park the caller on a one-shot completion channel, not to block a shared
// connection.
type NodeClient interface {
	// GetRandomOutsByAmounts requests mixIn random ring-member candidates
	// for each requested amount.
	GetRandomOutsByAmounts(ctx context.Context, amounts []uint64, mixIn uint64) (map[uint64][]OutputCandidate, error)

	// RelayTransaction submits a fully-signed transaction to the network.
	RelayTransaction(ctx context.Context, tx []byte) error

	GetLastKnownBlockHeight() (uint32, error)
	GetMinimalFee() (uint64, error)
}

// ContainerFilter selects which outputs a TransferContainer query
// considers, mirroring the source's IncludeKeyUnlocked / IncludeAllUnlocked
// / IncludeAllLocked / IncludeAll / IncludeTypeKey|IncludeStateAll set.
type ContainerFilter int

const (
	IncludeKeyUnlocked ContainerFilter = 1 << iota
	IncludeKeyLocked
	IncludeStateUnconfirmed
	IncludeStateSpent
)

const (
	IncludeAllUnlocked = IncludeKeyUnlocked
	IncludeAllLocked   = IncludeKeyLocked | IncludeStateUnconfirmed
	IncludeAll         = IncludeKeyUnlocked | IncludeKeyLocked | IncludeStateUnconfirmed | IncludeStateSpent
)

// UnspentOutput is one unspent output owned by a TransferContainer,
// eligible for input selection.
type UnspentOutput struct {
	Amount          uint64
	GlobalIndex     uint64
	OutKey          PublicKey
	TransactionHash Hash
	OutputIndex     uint32
	UnlockTime      uint64
}

// TransactionInformation is what a TransferContainer reports about a
// transaction it has observed, passed to TransferReconciler.
type TransactionInformation struct {
	Hash           Hash
	BlockHeight    uint32
	Timestamp      uint64
	Extra          []byte
	TotalAmountIn  uint64
	TotalAmountOut uint64
	UnlockTime     uint64
	IsBase         bool
}

// TransferContainer is the per-subscription view into the synchronizer's
// state for one view-key subscription. The core only ever inspects it from
// inside the dispatcher's critical section.
type TransferContainer interface {
	Balance(filter ContainerFilter) (actual, pending uint64)
	GetOutputs(filter ContainerFilter) ([]UnspentOutput, error)
	GetTransactionOutputs(hash Hash, filter ContainerFilter) ([]UnspentOutput, error)
	GetTransactionInputs(hash Hash, filter ContainerFilter) ([]UnspentOutput, error)
	GetTransactionInformation(hash Hash) (info TransactionInformation, inputAmount, outputAmount uint64, found bool)
}

// SubscriptionObserver receives the asynchronous callbacks a SyncEngine
// subscription produces. Each method corresponds 1:1 to a callback named
// in the external-interfaces table; the dispatcher wraps each call in the
// ready-event critical section before the observer implementation (the
// wallet façade) runs.
type SubscriptionObserver interface {
	OnTransactionUpdated(viewPublicKey PublicKey, hash Hash, containers []TransferContainer)
	OnTransactionDeleted(container TransferContainer, hash Hash)
	OnBlocksAdded(viewPublicKey PublicKey, hashes []Hash)
	OnBlockchainDetach(viewPublicKey PublicKey, height uint32)
	OnSynchronizationProgressUpdated(processed, total uint32)
	OnSynchronizationCompleted()
	OnError(err error)
}

// SyncStart describes where a new subscription should begin scanning.
type SyncStart struct {
	Height    uint32
	Timestamp uint64
}

// Subscription is the handle returned by SyncEngine.Subscribe. Its
// lifetime bounds how long the embedded TransferContainer is valid; the
// core stores the handle, never a raw container pointer, per the
// cyclic-observer-wiring design note.
type Subscription interface {
	Container() TransferContainer
	Unsubscribe()
}

// SyncEngine is the boundary to the blockchain synchronizer.
type SyncEngine interface {
	Subscribe(spendPublic PublicKey, viewPublic PublicKey, start SyncStart, transactionSpendableAge uint32) (Subscription, error)
	SetObserver(observer SubscriptionObserver)
	Start() error
	Stop()

	// AddUnconfirmedTransaction registers a just-built transaction with the
	// synchronizer before it is relayed, so the synchronizer's own pool
	// tracking starts observing it immediately rather than waiting for the
	// next block. RemoveUnconfirmedTransaction undoes that registration;
	// validateSaveAndSendTransaction's rollback guard calls it when send
	// fails after registration succeeded.
	AddUnconfirmedTransaction(tx []byte) error
	RemoveUnconfirmedTransaction(hash Hash) error
}

// WalletCodec serializes and deserializes the opaque on-disk wallet file.
// Format and encryption are entirely its concern; the core only calls
// Save/Load with the logical save-detail flags spec.md §4.1 defines.
type WalletCodec interface {
	Save(w io.Writer, password string, saveDetails, saveCache bool, snapshot WalletSnapshot) error
	Load(r io.Reader, password string) (WalletSnapshot, error)
}

// WalletSnapshot is the in-memory state WalletCodec persists: view
// keypair, per-record spend keys and creation timestamps, block-hash log,
// transaction ledger, transfer list, unlock-job set and uncommitted
// transactions. Transfers and Uncommitted are keyed by position in
// Transactions. It holds no per-subscription synchronizer state and
// carries no behavior; WalletCodec implementations decide wire format
// and encryption.
type WalletSnapshot struct {
	ViewPublicKey PublicKey
	ViewSecretKey SecretKey
	Records       []WalletRecord
	BlockHashes   []BlockHash
	Transactions  []WalletTransaction
	Transfers     map[int][]WalletTransfer
	UnlockJobs    []UnlockJob
	Uncommitted   map[int][]byte
}

// FusionPowerOfTen is the bucket classification CurrencyParams assigns an
// output amount for fusion-input selection; -1 means "not applicable".
type FusionPowerOfTen int

// CurrencyParams is the value object carrying every currency-defined
// constant and rule: dust threshold, fusion constants, fee rules, address
// parsing/formatting, and amount decomposition.
type CurrencyParams interface {
	GenesisBlockHash() Hash
	DustThreshold(height uint32) uint64
	BlockGrantedFullRewardZone() uint64
	MinerTxBlobReservedSize() uint64
	BlockFutureTimeLimit() uint64
	FusionTxMaxSize() uint64
	FusionTxMinInputCount() int
	ApproximateMaximumInputCount(size, outputCount uint64, mixin uint64) int

	IsAmountApplicableInFusionTransactionInput(amount, threshold uint64, height uint32) (FusionPowerOfTen, bool)
	IsFusionTransaction(inputAmounts, outputAmounts []uint64, size uint64, height uint32) bool

	ParseAccountAddressString(address string) (spendPublic, viewPublic PublicKey, err error)
	AccountAddressAsString(spendPublic, viewPublic PublicKey) string

	DecomposeAmount(amount, dustThreshold uint64) []uint64
	FormatAmount(amount uint64) string

	MaxTxExtraSize() int
}

// CryptoOps is the boundary to the low-level cryptographic primitives:
// keypair generation and validation, and the transaction-building/signing
// calls that actually produce ring-signed transaction bytes.
type CryptoOps interface {
	GenerateKeys() (pub PublicKey, sec SecretKey, err error)
	SecretKeyToPublicKey(sec SecretKey) (pub PublicKey, ok bool)
	CheckKey(pub PublicKey) bool
	RandomUint64() uint64

	NewTransactionBuilder() TransactionBuilder
}

// RingMember is one member (real or decoy) of an input's ring, tagged
// with its position so the real output can be reinserted at the sorted
// position prepareInputs computed.
type RingMember struct {
	GlobalIndex uint64
	OutKey      PublicKey
}

// TransactionBuilder accumulates inputs and outputs and produces the
// signed transaction bytes, hash, and per-transaction secret key.
type TransactionBuilder interface {
	AddInput(ring []RingMember, realOutputIndex int, amount uint64, viewSecret, spendSecret SecretKey) error
	AddOutput(amount uint64, destination PublicKey) error
	SetUnlockTime(t uint64)
	SetExtra(extra []byte)
	Sign() error
	TransactionData() ([]byte, error)
	TransactionHash() (Hash, error)
	TransactionSecretKey() (SecretKey, error)
}
