// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package protocol wires the pool modules over one state and serializes every operation.
// An operation either commits all of its writes and events or none of them.
package protocol

import (
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru"
	"github.com/pkg/errors"

	"github.com/vechain/stakepool/builtin"
	"github.com/vechain/stakepool/builtin/guardian"
	"github.com/vechain/stakepool/builtin/ledger"
	"github.com/vechain/stakepool/builtin/oracle"
	"github.com/vechain/stakepool/builtin/registry"
	"github.com/vechain/stakepool/builtin/reverts"
	"github.com/vechain/stakepool/builtin/solidity"
	"github.com/vechain/stakepool/builtin/vault"
	"github.com/vechain/stakepool/chain"
	"github.com/vechain/stakepool/co"
	"github.com/vechain/stakepool/config"
	"github.com/vechain/stakepool/cry"
	"github.com/vechain/stakepool/kv"
	"github.com/vechain/stakepool/log"
	"github.com/vechain/stakepool/pool"
	"github.com/vechain/stakepool/state"
)

var logger = log.WithContext("pkg", "protocol")

var slotBootstrapped = pool.BytesToBytes32([]byte("bootstrapped"))

// ReceiptCacheSize is the number of most recent receipts kept.
const ReceiptCacheSize = 1024

// Receipt records the events of a committed operation.
type Receipt struct {
	Seq    uint64            `json:"seq"`
	Op     string            `json:"op"`
	Time   time.Time         `json:"time"`
	Events []*solidity.Event `json:"events"`
}

// Modules gives read access to the pool modules. It is only valid inside Read.
type Modules struct {
	Ledger   *ledger.Ledger
	Registry *registry.Registry
	Vault    *vault.Vault
	Gate     *guardian.Gate
	Oracle   *oracle.Oracle
	Chain    *chain.Tracker
}

type Option func(*options)

type options struct {
	clock     func() time.Time
	recoverer cry.Recoverer
}

// WithClock sets the clock oracle frames are computed against.
func WithClock(clock func() time.Time) Option {
	return func(o *options) { o.clock = clock }
}

// WithRecoverer sets how guardian signers are recovered.
func WithRecoverer(r cry.Recoverer) Option {
	return func(o *options) { o.recoverer = r }
}

// Pool is the liquid staking pool.
type Pool struct {
	mu       sync.Mutex
	state    *state.State
	events   *solidity.Events
	clock    func() time.Time
	receipts *lru.Cache
	seq      uint64
	tick     co.Signal

	mods         Modules
	bootstrapped *solidity.Uint64
}

// New opens the pool stored in db. The first open applies the configured fees.
func New(db kv.Store, tracker *chain.Tracker, cfg *config.Config, opts ...Option) (*Pool, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	o := options{clock: time.Now}
	for _, opt := range opts {
		opt(&o)
	}

	receipts, err := lru.New(ReceiptCacheSize)
	if err != nil {
		return nil, err
	}
	p := &Pool{
		state:    state.New(db),
		events:   &solidity.Events{},
		clock:    o.clock,
		receipts: receipts,
	}
	sctx := func(addr pool.Address) *solidity.Context {
		return solidity.NewContext(addr, p.state, p.events)
	}

	gate, err := guardian.New(builtin.GuardianAddress, guardian.Params{
		ChainID:     cfg.ChainID,
		Guardians:   cfg.Guardians.Members,
		Threshold:   cfg.Guardians.Threshold,
		MaxBlockAge: cfg.Guardians.MaxBlockAge,
	}, tracker, cry.NewSigning(o.recoverer))
	if err != nil {
		return nil, errors.WithMessage(err, "guardian gate")
	}
	l := ledger.New(sctx(builtin.LedgerAddress), ledger.Params{
		Registry:  builtin.RegistryAddress,
		Oracle:    builtin.OracleAddress,
		Vault:     builtin.VaultAddress,
		Admin:     cfg.Admin,
		Treasury:  cfg.Treasury,
		Insurance: cfg.Insurance,
		Protocol:  cfg.Protocol,
	})
	reg := registry.New(sctx(builtin.RegistryAddress), registry.Params{
		Oracle:                          builtin.OracleAddress,
		TemporaryGuardian:               cfg.TemporaryGuardian,
		RewardsVault:                    builtin.RewardsVaultAddress,
		DefaultMinOperatorStakingAmount: cfg.MinOperatorStakeAmount(),
	}, l, gate)
	l.SetOperatorSet(reg)

	p.mods = Modules{
		Ledger:   l,
		Registry: reg,
		Vault:    vault.New(sctx(builtin.VaultAddress), reg, l),
		Gate:     gate,
		Oracle: oracle.New(sctx(builtin.OracleAddress), oracle.Params{
			Admin:   cfg.Admin,
			Members: cfg.Oracle.Members,
			Quorum:  cfg.Oracle.Quorum,
			Spec: oracle.Spec{
				EpochsPerFrame: cfg.Oracle.Frame.EpochsPerFrame,
				SlotsPerEpoch:  cfg.Oracle.Frame.SlotsPerEpoch,
				SecondsPerSlot: cfg.Oracle.Frame.SecondsPerSlot,
				GenesisTime:    cfg.Oracle.Frame.GenesisTime,
			},
		}, l, reg),
		Chain: tracker,
	}
	p.bootstrapped = solidity.NewUint64(sctx(builtin.ProtocolAddress), slotBootstrapped)

	if err := p.bootstrap(cfg); err != nil {
		return nil, err
	}
	p.updateGauges()
	return p, nil
}

func (p *Pool) bootstrap(cfg *config.Config) error {
	done, err := p.bootstrapped.Get()
	if err != nil {
		return err
	}
	if done != 0 {
		return nil
	}
	_, err = p.atomic("Bootstrap", func() error {
		if err := p.mods.Ledger.SetFees(cfg.Admin, ledger.Fees{
			Fee:          cfg.Fees.Fee,
			Insurance:    cfg.Fees.Insurance,
			Treasury:     cfg.Fees.Treasury,
			NodeOperator: cfg.Fees.NodeOperator,
		}); err != nil {
			return err
		}
		return p.bootstrapped.Set(1)
	})
	if err != nil {
		return errors.WithMessage(err, "bootstrap")
	}
	logger.Info("pool bootstrapped", "chainID", cfg.ChainID)
	return nil
}

// atomic runs fn under the pool lock. State and events written by fn are committed when it
// succeeds and dropped when it fails.
func (p *Pool) atomic(op string, fn func() error) (*Receipt, error) {
	start := time.Now()
	p.mu.Lock()
	defer p.mu.Unlock()

	rev := p.state.NewCheckpoint()
	mark := p.events.Len()
	if err := fn(); err != nil {
		p.state.RevertTo(rev)
		p.events.Truncate(mark)
		result := "error"
		if reverts.IsRevertErr(err) {
			result = "revert"
		}
		metricOperations().AddWithLabel(1, map[string]string{"op": op, "result": result})
		logger.Debug("operation reverted", "op", op, "kind", reverts.KindOf(err), "err", err)
		return nil, err
	}
	if err := p.state.Commit(); err != nil {
		p.state.RevertTo(rev)
		p.events.Truncate(mark)
		metricOperations().AddWithLabel(1, map[string]string{"op": op, "result": "error"})
		return nil, errors.Wrap(err, "commit")
	}

	p.seq++
	receipt := &Receipt{
		Seq:    p.seq,
		Op:     op,
		Time:   p.clock(),
		Events: p.events.Since(mark),
	}
	p.events.Truncate(0)
	p.receipts.Add(receipt.Seq, receipt)
	p.tick.Broadcast()

	metricOperations().AddWithLabel(1, map[string]string{"op": op, "result": "ok"})
	metricOperationDuration().ObserveWithLabels(time.Since(start).Milliseconds(), map[string]string{"op": op})
	p.updateGaugesLocked()
	return receipt, nil
}

// Read runs fn under the pool lock against committed state. fn must not mutate.
func (p *Pool) Read(fn func(m *Modules) error) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return fn(&p.mods)
}

// Receipt returns the receipt of the operation with sequence number seq, if still cached.
func (p *Pool) Receipt(seq uint64) (*Receipt, bool) {
	v, ok := p.receipts.Get(seq)
	if !ok {
		return nil, false
	}
	return v.(*Receipt), true
}

// Receipts returns the cached receipts after seq in order.
func (p *Pool) Receipts(after uint64) []*Receipt {
	last := p.LastSeq()
	if after >= last {
		return nil
	}
	// older receipts are evicted
	if last > ReceiptCacheSize && after < last-ReceiptCacheSize {
		after = last - ReceiptCacheSize
	}

	var out []*Receipt
	for seq := after + 1; seq <= last; seq++ {
		if r, ok := p.Receipt(seq); ok {
			out = append(out, r)
		}
	}
	return out
}

// LastSeq returns the sequence number of the last committed operation.
func (p *Pool) LastSeq() uint64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.seq
}

// NewTicker returns a Waiter woken after every committed operation.
func (p *Pool) NewTicker() co.Waiter {
	return p.tick.NewWaiter()
}

// Now returns the pool clock.
func (p *Pool) Now() time.Time {
	return p.clock()
}

// SetHead feeds a new execution chain head to the guardian gate.
func (p *Pool) SetHead(h chain.Header) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.mods.Chain.SetHead(h); err != nil {
		return err
	}
	metricHeadNumber().Set(int64(h.Number))
	return nil
}
