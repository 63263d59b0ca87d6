// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package solidity

import (
	"math/big"

	"github.com/pkg/errors"

	"github.com/vechain/stakepool/pool"
)

// Uint256 is a wrapper for storage and retrieval of an uint256. Similar to storing an uint256 in a smart contract.
type Uint256 struct {
	context *Context
	pos     pool.Bytes32
}

func NewUint256(context *Context, slot pool.Bytes32) *Uint256 {
	return &Uint256{context: context, pos: slot}
}

func (u *Uint256) Get() (*big.Int, error) {
	storage, err := u.context.state.GetStorage(u.context.address, u.pos)
	if err != nil {
		return nil, err
	}
	return new(big.Int).SetBytes(storage.Bytes()), nil
}

// Set stores value, which must fit in 256 bits and must not be negative.
func (u *Uint256) Set(value *big.Int) error {
	if value.Sign() < 0 {
		return errors.Errorf("uint256 underflow at %v", u.pos.AbbrevString())
	}
	if value.BitLen() > 256 {
		return errors.Errorf("uint256 overflow at %v", u.pos.AbbrevString())
	}
	u.context.state.SetStorage(u.context.address, u.pos, pool.BytesToBytes32(value.Bytes()))
	return nil
}

func (u *Uint256) Add(value *big.Int) error {
	storage, err := u.Get()
	if err != nil {
		return err
	}
	return u.Set(storage.Add(storage, value))
}

func (u *Uint256) Sub(value *big.Int) error {
	storage, err := u.Get()
	if err != nil {
		return err
	}
	return u.Set(storage.Sub(storage, value))
}

// Uint64 stores a counter in a single slot.
type Uint64 struct {
	inner *Uint256
}

func NewUint64(context *Context, slot pool.Bytes32) *Uint64 {
	return &Uint64{inner: NewUint256(context, slot)}
}

func (u *Uint64) Get() (uint64, error) {
	v, err := u.inner.Get()
	if err != nil {
		return 0, err
	}
	return v.Uint64(), nil
}

func (u *Uint64) Set(value uint64) error {
	return u.inner.Set(new(big.Int).SetUint64(value))
}

// Increment adds one and returns the value held before.
func (u *Uint64) Increment() (uint64, error) {
	v, err := u.Get()
	if err != nil {
		return 0, err
	}
	return v, u.Set(v + 1)
}
