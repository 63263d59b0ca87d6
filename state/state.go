// Copyright (c) 2018 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package state

import (
	"bytes"
	"fmt"

	"github.com/ethereum/go-ethereum/rlp"

	"github.com/vechain/stakepool/kv"
	"github.com/vechain/stakepool/pool"
	"github.com/vechain/stakepool/stackedmap"
)

const storageBucket = kv.Bucket("s")

// Error is the error caused by state access failure.
type Error struct {
	cause error
}

func (e *Error) Error() string {
	return fmt.Sprintf("state: %v", e.cause)
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.cause
}

type storageKey struct {
	addr pool.Address
	key  pool.Bytes32
}

func (k storageKey) dbKey() []byte {
	return append(k.addr.Bytes(), k.key.Bytes()...)
}

// State manages storage slots of module accounts.
type State struct {
	db kv.Store
	sm *stackedmap.StackedMap[storageKey, rlp.RawValue]
}

// New create a state backed by db.
func New(db kv.Store) *State {
	store := storageBucket.NewStore(db)
	s := &State{db: store}
	s.sm = stackedmap.New(func(key storageKey) (rlp.RawValue, bool, error) {
		metricStorageReads().AddWithLabel(1, map[string]string{"source": "db"})
		data, err := store.Get(key.dbKey())
		if err != nil {
			if store.IsNotFound(err) {
				return nil, false, nil
			}
			return nil, false, err
		}
		return data, true, nil
	})
	// base level, holds writes not yet committed
	s.sm.Push()
	return s
}

// GetRawStorage returns storage value in rlp raw for given address and key.
func (s *State) GetRawStorage(addr pool.Address, key pool.Bytes32) (rlp.RawValue, error) {
	data, _, err := s.sm.Get(storageKey{addr, key})
	if err != nil {
		return nil, &Error{err}
	}
	return data, nil
}

// SetRawStorage set storage value in rlp raw. An empty value removes the slot.
func (s *State) SetRawStorage(addr pool.Address, key pool.Bytes32, raw rlp.RawValue) {
	s.sm.Put(storageKey{addr, key}, raw)
}

// GetStorage returns storage value for the given address and key.
func (s *State) GetStorage(addr pool.Address, key pool.Bytes32) (pool.Bytes32, error) {
	raw, err := s.GetRawStorage(addr, key)
	if err != nil {
		return pool.Bytes32{}, err
	}
	if len(raw) == 0 {
		return pool.Bytes32{}, nil
	}
	kind, content, _, err := rlp.Split(raw)
	if err != nil {
		return pool.Bytes32{}, &Error{err}
	}
	if kind == rlp.List {
		// structured value, return its hash
		return pool.Blake2b(raw), nil
	}
	return pool.BytesToBytes32(content), nil
}

// SetStorage set storage value for the given address and key.
func (s *State) SetStorage(addr pool.Address, key, value pool.Bytes32) {
	if value.IsZero() {
		s.SetRawStorage(addr, key, nil)
		return
	}
	v, _ := rlp.EncodeToBytes(bytes.TrimLeft(value[:], "\x00"))
	s.SetRawStorage(addr, key, v)
}

// EncodeStorage set storage value encoded by given enc method.
func (s *State) EncodeStorage(addr pool.Address, key pool.Bytes32, enc func() ([]byte, error)) error {
	raw, err := enc()
	if err != nil {
		return &Error{err}
	}
	s.SetRawStorage(addr, key, raw)
	return nil
}

// DecodeStorage get and decode storage value.
func (s *State) DecodeStorage(addr pool.Address, key pool.Bytes32, dec func([]byte) error) error {
	raw, err := s.GetRawStorage(addr, key)
	if err != nil {
		return err
	}
	if err := dec(raw); err != nil {
		return &Error{err}
	}
	return nil
}

// NewCheckpoint makes a checkpoint of current state.
// It returns revision of the checkpoint.
func (s *State) NewCheckpoint() int {
	return s.sm.Push()
}

// RevertTo revert to checkpoint specified by revision.
func (s *State) RevertTo(revision int) {
	s.sm.PopTo(revision)
	if s.sm.Depth() == 0 {
		s.sm.Push()
	}
}

// Commit writes every journaled change into the backing store atomically.
func (s *State) Commit() error {
	latest := make(map[storageKey]rlp.RawValue)
	var order []storageKey
	s.sm.Journal(func(key storageKey, value rlp.RawValue) bool {
		if _, ok := latest[key]; !ok {
			order = append(order, key)
		}
		latest[key] = value
		return true
	})

	bulk := s.db.Bulk()
	for _, key := range order {
		var err error
		if value := latest[key]; len(value) == 0 {
			err = bulk.Delete(key.dbKey())
		} else {
			err = bulk.Put(key.dbKey(), value)
		}
		if err != nil {
			return &Error{err}
		}
	}
	if err := bulk.Write(); err != nil {
		return &Error{err}
	}
	metricCommittedKeys().Add(int64(len(order)))

	s.sm.PopTo(0)
	s.sm.Push()
	return nil
}
