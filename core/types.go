// Copyright (c) 2026 The cash2 developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package core holds the value types, sentinel constants, typed error
// taxonomy, external collaborator interfaces and event model shared by
// every wallet-core package. It has no dependency on keystore, ledger,
// txbuild or wallet, so those packages can depend on it without creating
// an import cycle back into the façade that composes them.
package core

// Hash is a 32-byte domain hash: a transaction hash, a block hash, or a
// one-time output key. CryptoNote's hash domain is Keccak-based, not the
// double-SHA256 of Bitcoin, so this is a local type rather than a reuse
// of a Bitcoin-family hash type.
type Hash [32]byte

// PublicKey and SecretKey are 32-byte Ed25519-family CryptoNote keys.
// CryptoOps is the only component that ever derives or validates their
// contents; everywhere else they are opaque byte arrays.
type PublicKey [32]byte
type SecretKey [32]byte

// NullSecretKey is the sentinel used in WalletRecord.SpendSecretKey for a
// tracking-only (view-only) record.
var NullSecretKey SecretKey

// IsNull reports whether k is the all-zero sentinel secret key.
func (k SecretKey) IsNull() bool {
	return k == NullSecretKey
}

// UnconfirmedHeight is the sentinel block height for a transaction that
// has not yet been mined.
const UnconfirmedHeight uint32 = 0xFFFFFFFF

// InvalidTransactionIndex is returned by CreateFusionTransaction when
// there was nothing worth consolidating.
const InvalidTransactionIndex = -1

// TransactionState is the lifecycle state of a WalletTransaction.
type TransactionState int

const (
	StateCreated TransactionState = iota
	StateSucceeded
	StateFailed
	StateCancelled
	StateDeleted
)

func (s TransactionState) String() string {
	switch s {
	case StateCreated:
		return "CREATED"
	case StateSucceeded:
		return "SUCCEEDED"
	case StateFailed:
		return "FAILED"
	case StateCancelled:
		return "CANCELLED"
	case StateDeleted:
		return "DELETED"
	default:
		return "UNKNOWN"
	}
}

// TransferType distinguishes the three kinds of per-address transfer row.
type TransferType int

const (
	TransferUsual TransferType = iota
	TransferDonation
	TransferChange
)

// WalletRecord is one spendable (or watched) address.
type WalletRecord struct {
	SpendPublicKey    PublicKey
	SpendSecretKey    SecretKey
	CreationTimestamp uint64
	ActualBalance     uint64
	PendingBalance    uint64

	// Container is a borrowed handle into the SyncEngine's subscription
	// tree. Its lifetime is bounded by the handle, not by a raw pointer,
	// per the cyclic-observer-wiring note.
	Container TransferContainer
}

// Tracking reports whether this record holds only a view of an address
// it cannot spend from.
func (r *WalletRecord) Tracking() bool {
	return r.SpendSecretKey.IsNull()
}

// WalletTransaction is one on-chain or pending outgoing transaction.
type WalletTransaction struct {
	State        TransactionState
	Hash         Hash
	BlockHeight  uint32
	Timestamp    uint64
	CreationTime uint64
	UnlockTime   uint64

	// TotalAmount is signed: the net change to this wallet caused by the
	// transaction, positive for net-receive, negative for net-send.
	TotalAmount int64
	Fee         uint64
	IsBase      bool

	Extra     []byte
	SecretKey SecretKey
	HasSecret bool
}

// WalletTransfer is one per-address line item belonging to a transaction.
type WalletTransfer struct {
	Type    TransferType
	Address string // "" means unknown counterparty
	Amount  int64  // positive = received by Address, negative = spent by Address
}

// BlockHash is one entry of the append-only BlockHashLog; its position in
// the log is the block height.
type BlockHash Hash

// UnlockJob is a pending balance-recompute at a given height.
type UnlockJob struct {
	UnlockHeight    uint32
	Container       TransferContainer
	TransactionHash Hash
}

// WalletOrder is one requested destination of an outgoing transaction.
type WalletOrder struct {
	Address string
	Amount  uint64
}

// DonationSettings describes an optional donation attached to a send.
type DonationSettings struct {
	Address   string
	Threshold uint64
}

// TransactionMessage is an optional memo attached to one destination of
// an outgoing transaction. Recovered from the original CryptoNote wallet
// core; it only ever contributes bytes to a transaction's Extra field
// (unencrypted, see txbuild.EncodeMessages), so it rides along with
// TransactionParameters rather than becoming its own pipeline stage.
type TransactionMessage struct {
	Address string
	Message string
}

// TransactionParameters is the input to the SendPipeline.
type TransactionParameters struct {
	Destinations      []WalletOrder
	Fee               uint64
	MixIn             uint64
	Extra             []byte
	UnlockTimestamp   uint64
	SourceAddresses   []string
	ChangeDestination string
	HasChange         bool
	Donation          DonationSettings
	Messages          []TransactionMessage
}
