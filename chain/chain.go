// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package chain tracks the head of the execution chain the pool is deployed on.
// Guardian messages reference a block of this chain, and the tracker is the
// gate's view of which references are still fresh.
package chain

import (
	"encoding/binary"
	"sync"

	"github.com/ethereum/go-ethereum/rlp"
	cache "github.com/hashicorp/golang-lru/simplelru"
	"github.com/pkg/errors"

	"github.com/vechain/stakepool/kv"
	"github.com/vechain/stakepool/log"
	"github.com/vechain/stakepool/pool"
)

var logger = log.WithContext("pkg", "chain")

const (
	headBucket  = kv.Bucket("c")
	hashBucket  = kv.Bucket("h")
	headKey     = "head"
	defaultKeep = 256
)

// Header is the part of a block the pool needs.
type Header struct {
	Number      uint64
	Hash        pool.Bytes32
	ParentHash  pool.Bytes32
	Timestamp   uint64
	DepositRoot pool.Bytes32 // root of the external deposit contract after this block
}

// ErrNotContinuous is returned when a new head does not extend the known chain.
var ErrNotContinuous = errors.New("head does not extend the known chain")

// Tracker holds the current head and a window of recent block hashes.
type Tracker struct {
	mu       sync.RWMutex
	db       kv.Store
	headDB   kv.Store
	hashesDB kv.Store
	keep     int
	head     Header
	hashes   *cache.LRU
}

// New creates a tracker backed by db. The last saved head, if any, is restored.
func New(db kv.Store, keep int) (*Tracker, error) {
	if keep <= 0 {
		keep = defaultKeep
	}
	hashes, err := cache.NewLRU(keep, nil)
	if err != nil {
		return nil, err
	}
	t := &Tracker{
		db:       db,
		headDB:   headBucket.NewStore(db),
		hashesDB: hashBucket.NewStore(db),
		keep:     keep,
		hashes:   hashes,
	}

	data, err := t.headDB.Get([]byte(headKey))
	if err != nil {
		if t.headDB.IsNotFound(err) {
			return t, nil
		}
		return nil, errors.Wrap(err, "load head")
	}
	if err := rlp.DecodeBytes(data, &t.head); err != nil {
		return nil, errors.Wrap(err, "decode head")
	}
	if err := t.warm(); err != nil {
		return nil, errors.Wrap(err, "load hash window")
	}
	return t, nil
}

func hashKey(number uint64) []byte {
	return binary.BigEndian.AppendUint64(nil, number)
}

// warm loads the hashes of the last keep blocks up to the head into the cache.
func (t *Tracker) warm() error {
	var from uint64
	if t.head.Number >= uint64(t.keep) {
		from = t.head.Number - uint64(t.keep) + 1
	}
	iter := t.hashesDB.Iterate(kv.Range{Start: hashKey(from), Limit: hashKey(t.head.Number + 1)})
	defer iter.Release()
	for iter.Next() {
		t.hashes.Add(binary.BigEndian.Uint64(iter.Key()), pool.BytesToBytes32(iter.Value()))
	}
	return iter.Error()
}

// SetHead moves the head. A header at or below the current head number
// is treated as a reorg and replaces the hashes above it.
func (t *Tracker) SetHead(h Header) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.head.Hash.IsZero() && h.Number == t.head.Number+1 && h.ParentHash != t.head.Hash {
		return ErrNotContinuous
	}

	// head and hashes are written in one batch
	bulk := t.db.Bulk()
	heads, hashes := headBucket.NewPutter(bulk), hashBucket.NewPutter(bulk)
	if h.Number <= t.head.Number && !t.head.Hash.IsZero() {
		for n := h.Number + 1; n <= t.head.Number; n++ {
			t.hashes.Remove(n)
			if err := hashes.Delete(hashKey(n)); err != nil {
				return err
			}
		}
		logger.Info("chain reorganized", "from", t.head.Number, "to", h.Number)
	}

	data, err := rlp.EncodeToBytes(&h)
	if err != nil {
		return err
	}
	if err := heads.Put([]byte(headKey), data); err != nil {
		return err
	}
	if err := hashes.Put(hashKey(h.Number), h.Hash.Bytes()); err != nil {
		return err
	}
	pruned, err := t.prune(hashes, h.Number)
	if err != nil {
		return err
	}
	if err := bulk.Write(); err != nil {
		return errors.Wrap(err, "save head")
	}

	t.head = h
	t.hashes.Add(h.Number, h.Hash)
	for _, n := range pruned {
		t.hashes.Remove(n)
	}
	logger.Debug("head updated", "number", h.Number, "hash", h.Hash.AbbrevString())
	return nil
}

// prune deletes the hashes that fall out of the window ending at head.
func (t *Tracker) prune(hashes kv.Putter, head uint64) ([]uint64, error) {
	if head < uint64(t.keep) {
		return nil, nil
	}
	iter := t.hashesDB.Iterate(kv.Range{Start: hashKey(0), Limit: hashKey(head - uint64(t.keep) + 1)})
	defer iter.Release()

	var pruned []uint64
	for iter.Next() {
		if err := hashes.Delete(iter.Key()); err != nil {
			return nil, err
		}
		pruned = append(pruned, binary.BigEndian.Uint64(iter.Key()))
	}
	return pruned, iter.Error()
}

// Head returns the current head.
func (t *Tracker) Head() Header {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.head
}

// HeadNumber returns the number of the current head.
func (t *Tracker) HeadNumber() uint64 {
	return t.Head().Number
}

// DepositRoot returns the deposit root at the current head.
func (t *Tracker) DepositRoot() pool.Bytes32 {
	return t.Head().DepositRoot
}

// HashAt returns the hash of the block with the given number.
// It returns false for blocks above the head, below the window or never seen.
func (t *Tracker) HashAt(number uint64) (pool.Bytes32, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if number > t.head.Number || t.head.Hash.IsZero() {
		return pool.Bytes32{}, false
	}
	if v, ok := t.hashes.Get(number); ok {
		metricHashLookups().AddWithLabel(1, map[string]string{"source": "cache"})
		return v.(pool.Bytes32), true
	}

	data, err := t.hashesDB.Get(hashKey(number))
	if err != nil {
		if !t.hashesDB.IsNotFound(err) {
			logger.Warn("failed to load block hash", "number", number, "err", err)
		}
		return pool.Bytes32{}, false
	}
	metricHashLookups().AddWithLabel(1, map[string]string{"source": "db"})
	hash := pool.BytesToBytes32(data)
	t.hashes.Add(number, hash)
	return hash, true
}
