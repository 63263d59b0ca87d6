// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package pool

import (
	"math/big"
)

// Constants of the pool.
const (
	// BasisPoints is the denominator of every fee fraction.
	BasisPoints = uint64(10_000)

	// PubkeyLength is the width of a validator BLS public key.
	PubkeyLength = 48
	// SignatureLength is the width of a BLS signature over deposit material.
	SignatureLength = 96

	// WithdrawalCredentialsPrefix marks execution-layer (0x01) withdrawal credentials.
	WithdrawalCredentialsPrefix = byte(0x01)
)

// Ether is 10^18 base units.
var Ether = big.NewInt(1e18)

// EtherOf returns n ether in base units.
func EtherOf(n int64) *big.Int {
	return new(big.Int).Mul(big.NewInt(n), Ether)
}

// DefaultMinOperatorStakingAmount is the collateral an operator posts per live validator.
var DefaultMinOperatorStakingAmount = EtherOf(2)
