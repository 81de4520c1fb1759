// Copyright (c) 2026 The cash2 developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package wallet is the façade: it composes keystore, ledger and txbuild
// into the single-threaded cooperative dispatcher spec.md §5 describes,
// and exposes the Lifecycle, KeyStore, SendPipeline, Fusion and EventBus
// operations as methods on *Wallet.
package wallet

import (
	"io"
	"sync"
	"time"

	"github.com/lightningnetwork/lnd/ticker"

	"github.com/DCL2019/cash2/core"
	"github.com/DCL2019/cash2/internal/zero"
	"github.com/DCL2019/cash2/keystore"
	"github.com/DCL2019/cash2/ledger"
)

// State is the walletState machine of spec.md §4.1.
type State int

const (
	StateNotInitialized State = iota
	StateInitialized
)

// Option configures a Wallet at construction time, grounded on
// loader.go's LoaderOption functional-options pattern.
type Option func(*Wallet)

// WithTransactionSpendableAge overrides the default subscription
// spendable-age passed to SyncEngine.Subscribe.
func WithTransactionSpendableAge(age uint32) Option {
	return func(w *Wallet) { w.transactionSpendableAge = age }
}

// WithClock overrides the "now" seam CreateAddress uses for
// creationTimestamp, so callers can make the future-time-limit rewind
// path deterministic under test.
func WithClock(clock func() uint64) Option {
	return func(w *Wallet) { w.clock = clock }
}

// WithIdleHeartbeat overrides the dispatcher's idle-heartbeat interval
// (see runDispatcher); it exists only so tests can use a fast interval
// instead of the production default.
func WithIdleHeartbeat(interval time.Duration) Option {
	return func(w *Wallet) { w.heartbeatInterval = interval }
}

// Wallet is the single in-process instance of the wallet core. It is a
// value type owned by whoever runs its dispatcher goroutine, not a
// singleton, per the global-mutable-state design note.
type Wallet struct {
	crypto   core.CryptoOps
	node     core.NodeClient
	sync     core.SyncEngine
	codec    core.WalletCodec
	currency core.CurrencyParams

	transactionSpendableAge uint32

	keys     *keystore.KeyStore
	txs      *ledger.Ledger
	blocks   *ledger.BlockHashLog
	unlocks  *ledger.UnlockSchedule
	pending  *ledger.UncommittedStore
	events   *core.EventBus

	fusionCache map[int]bool

	state   State
	stopped bool

	viewPublicKey core.PublicKey
	viewSecretKey core.SecretKey
	password      string

	actualBalance  uint64
	pendingBalance uint64

	subscriptions map[core.PublicKey]core.Subscription

	// clock is the "now" seam for CreateAddress's creationTimestamp; nil
	// means 0, which is fine for collaborators that do not care.
	clock func() uint64

	// reqs is the single channel every mutating public operation and
	// every SyncEngine callback submits work to; the goroutine reading
	// it is the one logical thread spec.md §5 requires. Its existence
	// IS the ready-event: while a request is being drained, no other
	// request can be drained. A public operation's submission blocks
	// until its request completes; a SyncEngine callback's submission
	// blocks only until its request is received.
	reqs chan func()

	// heartbeatInterval and heartbeat back the dispatcher's idle
	// heartbeat (see runDispatcher): a low-frequency ticker, grounded on
	// wallet/session.go's own internal polling shape, that the
	// dispatcher selects against alongside reqs. A tick does no work, and
	// it cannot interrupt a request that is already running (such as one
	// waiting on an RPC).
	heartbeatInterval time.Duration
	heartbeat         ticker.Ticker

	mu sync.Mutex // not locked by any current code path
	wg sync.WaitGroup
}

// New constructs an uninitialized Wallet bound to its external
// collaborators.
func New(crypto core.CryptoOps, node core.NodeClient, sync core.SyncEngine, codec core.WalletCodec, currency core.CurrencyParams, opts ...Option) *Wallet {
	w := &Wallet{
		crypto:                  crypto,
		node:                    node,
		sync:                    sync,
		codec:                   codec,
		currency:                currency,
		transactionSpendableAge: 10,
		keys:                    keystore.New(),
		txs:                     ledger.New(),
		blocks:                  ledger.NewBlockHashLog(),
		unlocks:                 ledger.NewUnlockSchedule(),
		pending:                 ledger.NewUncommittedStore(),
		events:                  core.NewEventBus(),
		fusionCache:             make(map[int]bool),
		subscriptions:           make(map[core.PublicKey]core.Subscription),
		reqs:                    make(chan func()),
		heartbeatInterval:       30 * time.Second,
	}
	for _, opt := range opts {
		opt(w)
	}
	if sync != nil {
		sync.SetObserver((*observer)(w))
	}
	w.heartbeat = ticker.New(w.heartbeatInterval)
	w.runDispatcher()
	return w
}

// runDispatcher starts the single goroutine that drains w.reqs. It is
// started once, in New, and lives until the process exits; shutdown()
// only clears state, it does not tear down the goroutine, matching the
// teacher's own choice to let the Loader's mutex-guarded wallet field be
// nilled out rather than stopping background machinery that may be
// restarted by a subsequent load().
func (w *Wallet) runDispatcher() {
	w.heartbeat.Resume()
	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		for {
			select {
			case fn, ok := <-w.reqs:
				if !ok {
					return
				}
				fn()
			case <-w.heartbeat.Ticks():
				// Idle heartbeat: nothing to do by default, but its
				// presence on the select guarantees the dispatcher
				// goroutine is never parked solely on w.reqs, matching
				// session.go's own periodic-wakeup shape.
			}
		}
	}()
}

// submit runs fn on the dispatcher goroutine and blocks for its result,
// which is the Go-native expression of "acquire the ready event, do the
// work, release on every exit path." The generic result type lets every
// public operation share one submission primitive.
func submit[T any](w *Wallet, fn func() (T, *core.WalletError)) (T, *core.WalletError) {
	type result struct {
		val T
		err *core.WalletError
	}
	done := make(chan result, 1)
	w.reqs <- func() {
		val, err := fn()
		done <- result{val, err}
	}
	r := <-done
	return r.val, r.err
}

// submitVoid is submit for operations with no result value beyond the
// error.
func submitVoid(w *Wallet, fn func() *core.WalletError) *core.WalletError {
	_, err := submit(w, func() (struct{}, *core.WalletError) {
		return struct{}{}, fn()
	})
	return err
}

// checkOperational is the universal preamble every public operation
// except the lifecycle operations themselves runs first: state ==
// INITIALIZED, stopped == false, and, for send-capable operations,
// tracking == false.
func (w *Wallet) checkOperational(requireSpendable bool) *core.WalletError {
	if w.state != StateInitialized {
		return core.NewError(core.ErrNotInitialized, "")
	}
	if w.stopped {
		return core.NewError(core.ErrOperationCancelled, "")
	}
	if requireSpendable && w.keys.Tracking() {
		return core.NewError(core.ErrTrackingMode, "")
	}
	return nil
}

// Initialize generates a fresh view keypair, records password and seeds
// BlockHashLog with genesis. It subscribes nothing itself: the SyncEngine
// observer is registered in New, and each record is subscribed when it
// is created. Corresponds to spec.md §4.1 initialize(password).
func (w *Wallet) Initialize(password string) *core.WalletError {
	return submitVoid(w, func() *core.WalletError {
		if w.state != StateNotInitialized {
			return core.NewError(core.ErrAlreadyInitialized, "")
		}
		pub, sec, err := w.crypto.GenerateKeys()
		if err != nil {
			return core.WrapError(core.ErrKeyGenerationError, "", err)
		}
		w.viewPublicKey = pub
		w.viewSecretKey = sec
		w.password = password
		w.blocks.Seed(w.currency.GenesisBlockHash())
		w.state = StateInitialized
		w.events.Reset()
		return nil
	})
}

// InitializeWithViewKey derives the view public key from a supplied
// secret instead of generating a fresh pair. Corresponds to spec.md
// §4.1 initializeWithViewKey.
func (w *Wallet) InitializeWithViewKey(viewSecret core.SecretKey, password string) *core.WalletError {
	return submitVoid(w, func() *core.WalletError {
		if w.state != StateNotInitialized {
			return core.NewError(core.ErrAlreadyInitialized, "")
		}
		pub, ok := w.crypto.SecretKeyToPublicKey(viewSecret)
		if !ok {
			return core.NewError(core.ErrKeyGenerationError, "invalid view secret key")
		}
		w.viewPublicKey = pub
		w.viewSecretKey = viewSecret
		w.password = password
		w.blocks.Seed(w.currency.GenesisBlockHash())
		w.state = StateInitialized
		w.events.Reset()
		return nil
	})
}

// ChangePassword requires state INITIALIZED, compares old to the
// in-memory password, and swaps it; no key re-encryption happens at this
// layer (WalletCodec owns that when it next saves).
func (w *Wallet) ChangePassword(old, new string) *core.WalletError {
	return submitVoid(w, func() *core.WalletError {
		if err := w.checkOperational(false); err != nil {
			return err
		}
		if w.password != old {
			return core.NewError(core.ErrWrongPassword, "")
		}
		w.password = new
		return nil
	})
}

// stopSyncEngine stops every subscription's backing sync engine without
// tearing down the subscriptions themselves.
func (w *Wallet) stopSyncEngine() {
	if w.sync != nil {
		w.sync.Stop()
	}
}

func (w *Wallet) startSyncEngineOrReseed() {
	if w.keys.Count() == 0 {
		w.blocks.Seed(w.currency.GenesisBlockHash())
		return
	}
	if w.sync != nil {
		_ = w.sync.Start()
	}
}

// Save stops SyncEngine, serializes via WalletCodec, and restarts
// SyncEngine. Corresponds to spec.md §4.1 save(stream, saveDetails,
// saveCache).
func (w *Wallet) Save(out io.Writer, saveDetails, saveCache bool) *core.WalletError {
	return submitVoid(w, func() *core.WalletError {
		return w.saveLocked(out, saveDetails, saveCache)
	})
}

// saveLocked is Save's body, factored out so callers already running on
// the dispatcher goroutine (the future-time-limit rewind in
// CreateAddress) can invoke it directly instead of submitting through
// w.reqs, which would deadlock against itself.
func (w *Wallet) saveLocked(out io.Writer, saveDetails, saveCache bool) *core.WalletError {
	if err := w.checkOperational(false); err != nil {
		return err
	}
	w.stopSyncEngine()
	defer w.startSyncEngineOrReseed()

	snapshot := w.buildSnapshot(saveDetails, saveCache)
	if err := w.codec.Save(out, w.password, saveDetails, saveCache, snapshot); err != nil {
		return core.WrapError(core.ErrInternalWalletError, "save failed", err)
	}
	return nil
}

func (w *Wallet) buildSnapshot(saveDetails, saveCache bool) core.WalletSnapshot {
	snap := core.WalletSnapshot{
		ViewPublicKey: w.viewPublicKey,
		ViewSecretKey: w.viewSecretKey,
		Transfers:     make(map[int][]core.WalletTransfer),
		Uncommitted:   make(map[int][]byte),
	}
	for i := 0; i < w.keys.Count(); i++ {
		if rec, ok := w.keys.RecordAt(i); ok {
			snap.Records = append(snap.Records, *rec)
		}
	}
	for h := uint32(0); int(h) < w.blocks.Len(); h++ {
		bh, _ := w.blocks.At(h)
		snap.BlockHashes = append(snap.BlockHashes, bh)
	}
	for i := 0; i < w.txs.Len(); i++ {
		tx, _ := w.txs.At(i)
		// When saveDetails && !saveCache, CREATED/DELETED are filtered
		// out; when saveDetails && saveCache, only DELETED is filtered.
		if saveDetails {
			if !saveCache && (tx.State == core.StateCreated || tx.State == core.StateDeleted) {
				continue
			}
			if saveCache && tx.State == core.StateDeleted {
				continue
			}
		}
		// Transfers and Uncommitted are keyed by position in
		// snap.Transactions, the index loadLocked assigns on insert.
		pos := len(snap.Transactions)
		snap.Transactions = append(snap.Transactions, *tx)
		snap.Transfers[pos] = w.txs.Transfers(i)
		if blob, ok := w.pending.Get(i); ok {
			snap.Uncommitted[pos] = blob
		}
	}
	// DueAt with the largest possible height returns every job.
	snap.UnlockJobs = w.unlocks.DueAt(^uint32(0))
	return snap
}

// Load must be called only from NOT_INITIALIZED. It stops SyncEngine,
// decodes via WalletCodec, runs the "burning bug" backfill pass (see
// backfillContainerPublicKeys), then starts SyncEngine if there
// is at least one record, else re-seeds BlockHashLog with genesis.
// Corresponds to spec.md §4.1 load(stream, password).
func (w *Wallet) Load(in io.Reader, password string) *core.WalletError {
	return submitVoid(w, func() *core.WalletError {
		return w.loadLocked(in, password)
	})
}

// loadLocked is Load's body, factored out for the same reentrancy reason
// as saveLocked.
func (w *Wallet) loadLocked(in io.Reader, password string) *core.WalletError {
	if w.state != StateNotInitialized {
		return core.NewError(core.ErrWrongState, "load requires NOT_INITIALIZED")
	}
	w.stopSyncEngine()

	snapshot, err := w.codec.Load(in, password)
	if err != nil {
		return core.WrapError(core.ErrWrongPassword, "load failed", err)
	}

	w.viewPublicKey = snapshot.ViewPublicKey
	w.viewSecretKey = snapshot.ViewSecretKey
	w.password = password

	w.keys.Reset()
	for _, rec := range snapshot.Records {
		if rec.Container == nil {
			if container, werr := w.subscribeRecord(rec.SpendPublicKey, rec.CreationTimestamp); werr == nil {
				rec.Container = container
			}
		}
		if _, werr := w.keys.Insert(rec); werr != nil {
			return werr
		}
	}

	w.txs.Reset()
	for i, tx := range snapshot.Transactions {
		idx := w.txs.Insert(tx)
		w.txs.SetTransfers(idx, snapshot.Transfers[i])
	}

	w.blocks.Reset()
	w.blocks.Append(snapshot.BlockHashes...)

	w.unlocks.Reset()
	for _, job := range snapshot.UnlockJobs {
		w.unlocks.Add(job)
	}

	w.pending.Reset()
	for idx, blob := range snapshot.Uncommitted {
		w.pending.Put(idx, blob)
	}

	w.fusionCache = make(map[int]bool)

	w.recomputeGlobalBalances()
	w.backfillContainerPublicKeys()

	w.startSyncEngineOrReseed()
	w.state = StateInitialized
	return nil
}

// backfillContainerPublicKeys is the load-time pass for the historical
// burning bug, where a container's registered key set could fall out of
// sync with what load() just restored. It reads every output of each
// record's container and discards the result; TransferContainer has no
// method for registering keys, so no one-time public key is re-registered.
func (w *Wallet) backfillContainerPublicKeys() {
	for i := 0; i < w.keys.Count(); i++ {
		rec, ok := w.keys.RecordAt(i)
		if !ok || rec.Container == nil {
			continue
		}
		_, _ = rec.Container.GetOutputs(core.IncludeAll)
	}
}

// Stop sets the cancellation flag; in-flight operations complete, new
// ones fail OPERATION_CANCELLED, and any blocked getEvent() wakes with
// the same error.
func (w *Wallet) Stop() {
	submitVoid(w, func() *core.WalletError {
		w.stopped = true
		w.events.Stop()
		return nil
	})
}

// Shutdown unsubscribes from SyncEngine, stops it, clears every
// in-memory store, drains the event queue, zeroes the view secret key and
// clears the password field. The password is a Go string, so only a byte
// copy of it is zeroed; the string's own bytes are not overwritten.
// Corresponds to spec.md §4.1 shutdown().
func (w *Wallet) Shutdown() *core.WalletError {
	return submitVoid(w, func() *core.WalletError {
		w.shutdownLocked()
		return nil
	})
}

// shutdownLocked is Shutdown's body, factored out for the same
// reentrancy reason as saveLocked/loadLocked.
func (w *Wallet) shutdownLocked() {
	for _, sub := range w.subscriptions {
		sub.Unsubscribe()
	}
	w.subscriptions = make(map[core.PublicKey]core.Subscription)
	w.stopSyncEngine()

	w.keys.Reset()
	w.txs.Reset()
	w.blocks.Reset()
	w.unlocks.Reset()
	w.pending.Reset()
	w.events.Reset()
	w.fusionCache = make(map[int]bool)

	w.viewPublicKey = core.PublicKey{}
	zero.Bytea32((*[32]byte)(&w.viewSecretKey))
	if buf := []byte(w.password); len(buf) > 0 {
		zero.Bytes(buf)
	}
	w.password = ""

	w.actualBalance = 0
	w.pendingBalance = 0
	w.state = StateNotInitialized
	w.stopped = false
}

// GetEvent blocks until an event is available, per spec.md §4.7.
func (w *Wallet) GetEvent() (core.WalletEvent, *core.WalletError) {
	ev, err := w.events.Get()
	if err != nil {
		if we, ok := err.(*core.WalletError); ok {
			return core.WalletEvent{}, we
		}
		return core.WalletEvent{}, core.WrapError(core.ErrInternalWalletError, "", err)
	}
	return ev, nil
}

// ActualBalance and PendingBalance return the global counters.
func (w *Wallet) ActualBalance() (uint64, *core.WalletError) {
	return submit(w, func() (uint64, *core.WalletError) {
		if err := w.checkOperational(false); err != nil {
			return 0, err
		}
		return w.actualBalance, nil
	})
}

func (w *Wallet) PendingBalance() (uint64, *core.WalletError) {
	return submit(w, func() (uint64, *core.WalletError) {
		if err := w.checkOperational(false); err != nil {
			return 0, err
		}
		return w.pendingBalance, nil
	})
}

// observer adapts *Wallet to core.SubscriptionObserver by submitting
// every asynchronous callback through the same dispatcher channel every
// public operation uses, so inbound sync events serialize with user
// actions exactly as spec.md §5 requires.
type observer Wallet

func (o *observer) w() *Wallet { return (*Wallet)(o) }

func (o *observer) OnTransactionUpdated(viewPublicKey core.PublicKey, hash core.Hash, containers []core.TransferContainer) {
	w := o.w()
	w.reqs <- func() {
		w.onTransactionUpdated(hash, containers)
	}
}

func (o *observer) OnTransactionDeleted(container core.TransferContainer, hash core.Hash) {
	w := o.w()
	w.reqs <- func() {
		w.onTransactionDeleted(hash)
	}
}

func (o *observer) OnBlocksAdded(viewPublicKey core.PublicKey, hashes []core.Hash) {
	w := o.w()
	w.reqs <- func() {
		for _, h := range hashes {
			w.blocks.Append(core.BlockHash(h))
		}
	}
}

func (o *observer) OnBlockchainDetach(viewPublicKey core.PublicKey, height uint32) {
	w := o.w()
	w.reqs <- func() {
		w.blocks.DetachFrom(height)
	}
}

func (o *observer) OnSynchronizationProgressUpdated(processed, total uint32) {
	w := o.w()
	w.reqs <- func() {
		w.events.Push(core.WalletEvent{Kind: core.EventSyncProgressUpdated, Processed: processed, Total: total})
		w.onSyncProgressUpdated(processed)
	}
}

func (o *observer) OnSynchronizationCompleted() {
	w := o.w()
	w.reqs <- func() {
		w.events.Push(core.WalletEvent{Kind: core.EventSyncCompleted})
	}
}

func (o *observer) OnError(err error) {
	log.Errorf("sync engine error: %v", err)
}
