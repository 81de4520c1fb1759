// Copyright (c) 2026 The cash2 developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package wallet

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/DCL2019/cash2/core"
	"github.com/DCL2019/cash2/txbuild"
)

// fakeCrypto is a deterministic stand-in for core.CryptoOps, with a
// transaction builder so the send pipeline can run end to end without a
// real ring-signature engine.
type fakeCrypto struct {
	next    byte
	randSeq []uint64
	randPos int
	hashCtr int
}

func (c *fakeCrypto) GenerateKeys() (core.PublicKey, core.SecretKey, error) {
	c.next++
	var pub core.PublicKey
	var sec core.SecretKey
	pub[0], sec[0] = c.next, c.next
	return pub, sec, nil
}

func (c *fakeCrypto) SecretKeyToPublicKey(sec core.SecretKey) (core.PublicKey, bool) {
	if sec.IsNull() {
		return core.PublicKey{}, false
	}
	var pub core.PublicKey
	pub[0] = sec[0]
	return pub, true
}

func (c *fakeCrypto) CheckKey(pub core.PublicKey) bool {
	return pub != core.PublicKey{}
}

// RandomUint64 draws from a queued sequence if one was set (so shuffle
// order is deterministic under test), else returns 0.
func (c *fakeCrypto) RandomUint64() uint64 {
	if c.randPos < len(c.randSeq) {
		v := c.randSeq[c.randPos]
		c.randPos++
		return v
	}
	return 0
}

func (c *fakeCrypto) NewTransactionBuilder() core.TransactionBuilder {
	c.hashCtr++
	return &fakeTxBuilder{id: c.hashCtr}
}

// fakeTxBuilder is a minimal stand-in for core.TransactionBuilder: it
// records what was added and fabricates deterministic, distinguishable
// data/hash/secret-key values rather than performing real cryptography.
type fakeTxBuilder struct {
	id         int
	outputs    []struct {
		amount uint64
		dest   core.PublicKey
	}
	inputs []struct {
		ring   []core.RingMember
		real   int
		amount uint64
	}
	unlockTime uint64
	extra      []byte
	signed     bool
}

func (b *fakeTxBuilder) AddInput(ring []core.RingMember, realOutputIndex int, amount uint64, viewSecret, spendSecret core.SecretKey) error {
	b.inputs = append(b.inputs, struct {
		ring   []core.RingMember
		real   int
		amount uint64
	}{ring, realOutputIndex, amount})
	return nil
}

func (b *fakeTxBuilder) AddOutput(amount uint64, destination core.PublicKey) error {
	b.outputs = append(b.outputs, struct {
		amount uint64
		dest   core.PublicKey
	}{amount, destination})
	return nil
}

func (b *fakeTxBuilder) SetUnlockTime(t uint64) { b.unlockTime = t }
func (b *fakeTxBuilder) SetExtra(extra []byte)  { b.extra = extra }

func (b *fakeTxBuilder) Sign() error {
	b.signed = true
	return nil
}

func (b *fakeTxBuilder) TransactionData() ([]byte, error) {
	// A small, size-proportional blob: 64 bytes, plus eight per output
	// and eight per ring member and per input, so size-limit tests can
	// control size by varying the mixin/output count.
	size := 64
	for _, o := range b.outputs {
		_ = o
		size += 8
	}
	for _, in := range b.inputs {
		size += 8 * (len(in.ring) + 1)
	}
	return make([]byte, size), nil
}

func (b *fakeTxBuilder) TransactionHash() (core.Hash, error) {
	var h core.Hash
	h[0] = byte(b.id)
	h[1] = byte(b.id >> 8)
	return h, nil
}

func (b *fakeTxBuilder) TransactionSecretKey() (core.SecretKey, error) {
	var sec core.SecretKey
	sec[0] = byte(b.id)
	return sec, nil
}

// fakeCurrency implements core.CurrencyParams with simple, test-only
// rules: addresses encode as "addr:<spendHex>:<viewHex>" rather than any
// real base58/CryptoNote address format.
type fakeCurrency struct {
	dustThreshold      uint64
	blockFutureLimit    uint64
	fusionTxMaxSize     uint64
	fusionMinInputCount int
}

func newFakeCurrency() *fakeCurrency {
	return &fakeCurrency{
		blockFutureLimit:    1 << 30,
		fusionTxMaxSize:     1 << 20,
		fusionMinInputCount: 4,
	}
}

func (c *fakeCurrency) GenesisBlockHash() core.Hash { return core.Hash{0xAA} }

func (c *fakeCurrency) DustThreshold(height uint32) uint64 { return c.dustThreshold }

func (c *fakeCurrency) BlockGrantedFullRewardZone() uint64 { return 1 << 20 }
func (c *fakeCurrency) MinerTxBlobReservedSize() uint64    { return 0 }
func (c *fakeCurrency) BlockFutureTimeLimit() uint64        { return c.blockFutureLimit }
func (c *fakeCurrency) FusionTxMaxSize() uint64             { return c.fusionTxMaxSize }
func (c *fakeCurrency) FusionTxMinInputCount() int          { return c.fusionMinInputCount }

func (c *fakeCurrency) ApproximateMaximumInputCount(size, outputCount, mixin uint64) int {
	return txbuild.ApproximateMaximumInputCount(size, outputCount, mixin)
}

func (c *fakeCurrency) IsAmountApplicableInFusionTransactionInput(amount, threshold uint64, height uint32) (core.FusionPowerOfTen, bool) {
	if amount == 0 || amount >= threshold {
		return 0, false
	}
	pot := 0
	v := amount
	for v >= 10 {
		v /= 10
		pot++
	}
	return core.FusionPowerOfTen(pot), true
}

func (c *fakeCurrency) IsFusionTransaction(inputAmounts, outputAmounts []uint64, size uint64, height uint32) bool {
	var in, out uint64
	for _, a := range inputAmounts {
		in += a
	}
	for _, a := range outputAmounts {
		out += a
	}
	return in == out && len(outputAmounts) > 0 && len(outputAmounts) <= 4
}

func encodeFakeAddress(spendPublic, viewPublic core.PublicKey) string {
	return fmt.Sprintf("addr:%x:%x", spendPublic[:], viewPublic[:])
}

func (c *fakeCurrency) AccountAddressAsString(spendPublic, viewPublic core.PublicKey) string {
	return encodeFakeAddress(spendPublic, viewPublic)
}

func (c *fakeCurrency) ParseAccountAddressString(address string) (core.PublicKey, core.PublicKey, error) {
	parts := strings.Split(address, ":")
	if len(parts) != 3 || parts[0] != "addr" {
		return core.PublicKey{}, core.PublicKey{}, fmt.Errorf("malformed address %q", address)
	}
	spend, err := decodeHexKey(parts[1])
	if err != nil {
		return core.PublicKey{}, core.PublicKey{}, err
	}
	view, err := decodeHexKey(parts[2])
	if err != nil {
		return core.PublicKey{}, core.PublicKey{}, err
	}
	return spend, view, nil
}

func decodeHexKey(s string) (core.PublicKey, error) {
	var out core.PublicKey
	if len(s) == 0 {
		return out, nil
	}
	if len(s) > 64 {
		return out, fmt.Errorf("key too long")
	}
	raw := make([]byte, 0, 32)
	for i := 0; i < len(s); i += 2 {
		end := i + 2
		if end > len(s) {
			end = len(s)
		}
		v, err := strconv.ParseUint(s[i:end], 16, 8)
		if err != nil {
			return out, err
		}
		raw = append(raw, byte(v))
	}
	copy(out[:], raw)
	return out, nil
}

func (c *fakeCurrency) DecomposeAmount(amount, dustThreshold uint64) []uint64 {
	return txbuild.DecomposeAmount(amount, dustThreshold)
}

func (c *fakeCurrency) FormatAmount(amount uint64) string {
	return strconv.FormatUint(amount, 10)
}

func (c *fakeCurrency) MaxTxExtraSize() int { return 1024 }

// fakeNodeClient is a deterministic stand-in for core.NodeClient.
type fakeNodeClient struct {
	minimalFee  uint64
	lastHeight  uint32
	relayErr    error
	relayed     [][]byte
	mixinsByAmt map[uint64][]core.OutputCandidate
}

func newFakeNodeClient() *fakeNodeClient {
	return &fakeNodeClient{minimalFee: 10, lastHeight: 100}
}

func (n *fakeNodeClient) GetRandomOutsByAmounts(ctx context.Context, amounts []uint64, mixIn uint64) (map[uint64][]core.OutputCandidate, error) {
	out := make(map[uint64][]core.OutputCandidate, len(amounts))
	for _, a := range amounts {
		if cands, ok := n.mixinsByAmt[a]; ok {
			out[a] = cands
			continue
		}
		var cands []core.OutputCandidate
		for i := uint64(0); i < mixIn; i++ {
			cands = append(cands, core.OutputCandidate{GlobalIndex: i + 1000})
		}
		out[a] = cands
	}
	return out, nil
}

func (n *fakeNodeClient) RelayTransaction(ctx context.Context, tx []byte) error {
	n.relayed = append(n.relayed, tx)
	return n.relayErr
}

func (n *fakeNodeClient) GetLastKnownBlockHeight() (uint32, error) { return n.lastHeight, nil }
func (n *fakeNodeClient) GetMinimalFee() (uint64, error)           { return n.minimalFee, nil }

// fakeContainer is a deterministic stand-in for core.TransferContainer:
// a record's view into whatever the synchronizer has observed for it.
type fakeContainer struct {
	actual, pending uint64
	outputs         []core.UnspentOutput
	txOutputs       map[core.Hash][]core.UnspentOutput
	txInputs        map[core.Hash][]core.UnspentOutput
	txInfo          map[core.Hash]containerTxInfo
}

type containerTxInfo struct {
	info           core.TransactionInformation
	inAmt, outAmt uint64
}

func newFakeContainer() *fakeContainer {
	return &fakeContainer{
		txOutputs: make(map[core.Hash][]core.UnspentOutput),
		txInputs:  make(map[core.Hash][]core.UnspentOutput),
		txInfo:    make(map[core.Hash]containerTxInfo),
	}
}

func (c *fakeContainer) Balance(filter core.ContainerFilter) (uint64, uint64) {
	return c.actual, c.pending
}

func (c *fakeContainer) GetOutputs(filter core.ContainerFilter) ([]core.UnspentOutput, error) {
	return c.outputs, nil
}

func (c *fakeContainer) GetTransactionOutputs(hash core.Hash, filter core.ContainerFilter) ([]core.UnspentOutput, error) {
	return c.txOutputs[hash], nil
}

func (c *fakeContainer) GetTransactionInputs(hash core.Hash, filter core.ContainerFilter) ([]core.UnspentOutput, error) {
	return c.txInputs[hash], nil
}

func (c *fakeContainer) GetTransactionInformation(hash core.Hash) (core.TransactionInformation, uint64, uint64, bool) {
	t, ok := c.txInfo[hash]
	return t.info, t.inAmt, t.outAmt, ok
}

// seedReceive configures the container as having received a single
// unlocked output of amount at the given transaction hash/height, and
// updates its reported balance to match, so tests can set up spendable
// funds without hand-rolling every field.
func (c *fakeContainer) seedReceive(hash core.Hash, amount uint64, height uint32) {
	out := core.UnspentOutput{Amount: amount, GlobalIndex: 1, TransactionHash: hash, UnlockTime: 0}
	c.outputs = append(c.outputs, out)
	c.txOutputs[hash] = append(c.txOutputs[hash], out)
	c.actual += amount
	c.txInfo[hash] = containerTxInfo{
		info: core.TransactionInformation{
			Hash:           hash,
			BlockHeight:    height,
			TotalAmountOut: amount,
		},
		outAmt: amount,
	}
}

// fakeSubscription implements core.Subscription.
type fakeSubscription struct {
	container     *fakeContainer
	unsubscribed bool
}

func (s *fakeSubscription) Container() core.TransferContainer { return s.container }
func (s *fakeSubscription) Unsubscribe()                      { s.unsubscribed = true }

// fakeSyncEngine implements core.SyncEngine: Subscribe fabricates one
// fakeContainer per spend public key, recorded for later test access.
type fakeSyncEngine struct {
	observer   core.SubscriptionObserver
	containers map[core.PublicKey]*fakeContainer
	started    bool
	removeErr  error
}

func newFakeSyncEngine() *fakeSyncEngine {
	return &fakeSyncEngine{containers: make(map[core.PublicKey]*fakeContainer)}
}

func (e *fakeSyncEngine) Subscribe(spendPublic, viewPublic core.PublicKey, start core.SyncStart, age uint32) (core.Subscription, error) {
	c := newFakeContainer()
	e.containers[spendPublic] = c
	return &fakeSubscription{container: c}, nil
}

func (e *fakeSyncEngine) SetObserver(observer core.SubscriptionObserver) { e.observer = observer }
func (e *fakeSyncEngine) Start() error                                   { e.started = true; return nil }
func (e *fakeSyncEngine) Stop()                                          { e.started = false }

func (e *fakeSyncEngine) AddUnconfirmedTransaction(tx []byte) error {
	return nil
}

func (e *fakeSyncEngine) RemoveUnconfirmedTransaction(hash core.Hash) error {
	return e.removeErr
}

// newTestWallet wires a *Wallet to an all-fake collaborator set and
// initializes it, returning the wallet plus handles to the fakes a test
// typically needs to poke at directly.
func newTestWallet(t interface {
	Fatalf(format string, args ...interface{})
}) (*Wallet, *fakeCrypto, *fakeNodeClient, *fakeSyncEngine, *fakeCurrency) {
	crypto := &fakeCrypto{}
	node := newFakeNodeClient()
	sync := newFakeSyncEngine()
	currency := newFakeCurrency()

	w := New(crypto, node, sync, nil, currency, WithClock(func() uint64 { return 1000 }))
	if werr := w.Initialize("hunter2"); werr != nil {
		t.Fatalf("Initialize: %v", werr)
	}
	return w, crypto, node, sync, currency
}
