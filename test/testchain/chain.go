// Copyright (c) 2024 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package testchain

import (
	"crypto/ecdsa"
	"fmt"
	"sync"
	"time"

	"github.com/vechain/stakepool/builtin/guardian"
	"github.com/vechain/stakepool/builtin/protocol"
	"github.com/vechain/stakepool/chain"
	"github.com/vechain/stakepool/config"
	"github.com/vechain/stakepool/kv"
	"github.com/vechain/stakepool/lvldb"
	"github.com/vechain/stakepool/pool"
	"github.com/vechain/stakepool/test/datagen"
)

// Chain is an in-memory pool on top of a simulated execution chain.
// It includes the database (db), the head tracker (tracker), the dev network config (cfg)
// and a clock that only moves when told to.
type Chain struct {
	db      *lvldb.LevelDB
	tracker *chain.Tracker
	cfg     *config.Config
	pool    *protocol.Pool

	mu  sync.Mutex
	now time.Time
}

// NewDefault creates a Chain with the dev network config.
func NewDefault() (*Chain, error) {
	return NewWithConfig(config.Default())
}

// NewWithConfig creates a Chain for testing. The head starts at block 100 and the clock
// an hour into the tenth oracle frame after genesis.
func NewWithConfig(cfg *config.Config) (*Chain, error) {
	db, err := lvldb.NewMem()
	if err != nil {
		return nil, fmt.Errorf("unable to open db: %w", err)
	}
	tracker, err := chain.New(db, 0)
	if err != nil {
		return nil, fmt.Errorf("unable to create tracker: %w", err)
	}
	if err := tracker.SetHead(chain.Header{
		Number:      100,
		Hash:        datagen.RandomHash(),
		Timestamp:   cfg.Oracle.Frame.GenesisTime,
		DepositRoot: datagen.RandomHash(),
	}); err != nil {
		return nil, fmt.Errorf("unable to set head: %w", err)
	}

	c := &Chain{
		db:      db,
		tracker: tracker,
		cfg:     cfg,
		now:     time.Unix(int64(cfg.Oracle.Frame.GenesisTime)+10*86400+3600, 0),
	}
	c.pool, err = protocol.New(db, tracker, cfg, protocol.WithClock(c.Now))
	if err != nil {
		return nil, fmt.Errorf("unable to open pool: %w", err)
	}
	return c, nil
}

func (c *Chain) Pool() *protocol.Pool    { return c.pool }
func (c *Chain) Config() *config.Config  { return c.cfg }
func (c *Chain) Tracker() *chain.Tracker { return c.tracker }
func (c *Chain) Database() kv.Store      { return c.db }

// Close releases the database.
func (c *Chain) Close() error {
	return c.db.Close()
}

// Now returns the simulated wall clock.
func (c *Chain) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// NextFrame moves the clock one oracle frame ahead.
func (c *Chain) NextFrame() {
	f := c.cfg.Oracle.Frame
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(time.Duration(f.EpochsPerFrame*f.SlotsPerEpoch*f.SecondsPerSlot) * time.Second)
}

// MintBlock appends one block to the simulated chain.
func (c *Chain) MintBlock() error {
	head := c.tracker.Head()
	return c.pool.SetHead(chain.Header{
		Number:      head.Number + 1,
		Hash:        datagen.RandomHash(),
		ParentHash:  head.Hash,
		Timestamp:   head.Timestamp + 12,
		DepositRoot: head.DepositRoot,
	})
}

// Admin returns the dev admin account.
func (c *Chain) Admin() config.DevAccount {
	return config.DevAccounts()[config.DevAdmin]
}

// OracleMember returns the i-th dev oracle member.
func (c *Chain) OracleMember(i int) config.DevAccount {
	return config.DevAccounts()[config.DevOracle0+i]
}

// GuardianKeys returns the private keys of the given dev guardians.
func GuardianKeys(signers ...int) []*ecdsa.PrivateKey {
	keys := make([]*ecdsa.PrivateKey, 0, len(signers))
	for _, i := range signers {
		keys = append(keys, config.DevAccounts()[config.DevGuardian0+i].PrivateKey)
	}
	return keys
}

// Proof signs payload against the current head with the given dev guardians.
func (c *Chain) Proof(class guardian.Class, payload []byte, signers ...int) (*guardian.Proof, error) {
	var proof *guardian.Proof
	err := c.pool.Read(func(m *protocol.Modules) (err error) {
		head := m.Chain.Head()
		proof, err = m.Gate.SignProof(class, head.Number, head.Hash, head.DepositRoot, payload, GuardianKeys(signers...)...)
		return
	})
	return proof, err
}

// RandomOperator returns a fresh operator address.
func RandomOperator() pool.Address {
	return datagen.RandAddress()
}
