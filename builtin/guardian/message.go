// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package guardian

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common/math"

	"github.com/vechain/stakepool/pool"
)

// Class separates message domains. A signature made for one class never verifies for another.
type Class uint8

const (
	ClassActivate Class = iota + 1
	ClassUnsafe
	ClassSlashing
)

func (c Class) label() string {
	switch c {
	case ClassActivate:
		return "stakepool.guardian.activate"
	case ClassUnsafe:
		return "stakepool.guardian.unsafe"
	case ClassSlashing:
		return "stakepool.guardian.slashing"
	default:
		return ""
	}
}

func (c Class) String() string {
	switch c {
	case ClassActivate:
		return "activate"
	case ClassUnsafe:
		return "unsafe"
	case ClassSlashing:
		return "slashing"
	default:
		return "unknown"
	}
}

// bindsDepositRoot reports whether messages of the class commit to the deposit root.
func (c Class) bindsDepositRoot() bool {
	return c == ClassActivate
}

// u256 left pads v to 32 bytes.
func u256(v uint64) []byte {
	return math.U256Bytes(new(big.Int).SetUint64(v))
}

func u256Big(v *big.Int) []byte {
	if v == nil {
		v = new(big.Int)
	}
	return math.U256Bytes(new(big.Int).Set(v))
}

// ActivatePayload packs validator indices.
func ActivatePayload(indices []uint64) []byte {
	out := make([]byte, 0, 32*len(indices))
	for _, index := range indices {
		out = append(out, u256(index)...)
	}
	return out
}

// UnsafePayload packs an unsafe report.
func UnsafePayload(index uint64, slashAmount *big.Int) []byte {
	return append(u256(index), u256Big(slashAmount)...)
}

// SlashingPayload packs a slashing report.
func SlashingPayload(index uint64, slashAmount *big.Int, finalized bool) []byte {
	var flag uint64
	if finalized {
		flag = 1
	}
	out := UnsafePayload(index, slashAmount)
	return append(out, u256(flag)...)
}

// Prefix returns the domain prefix of class for a gate.
func (g *Gate) Prefix(class Class) pool.Bytes32 {
	return pool.Keccak256([]byte(class.label()), u256(g.params.ChainID), g.address.Bytes())
}

// MessageHash returns keccak256(prefix ‖ u256(blockNumber) ‖ blockHash ‖ [depositRoot] ‖ payload),
// the hash guardians sign.
func (g *Gate) MessageHash(class Class, blockNumber uint64, blockHash, depositRoot pool.Bytes32, payload []byte) pool.Bytes32 {
	prefix := g.Prefix(class)
	parts := [][]byte{prefix.Bytes(), u256(blockNumber), blockHash.Bytes()}
	if class.bindsDepositRoot() {
		parts = append(parts, depositRoot.Bytes())
	}
	parts = append(parts, payload)
	return pool.Keccak256(parts...)
}
