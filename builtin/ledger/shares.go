// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package ledger

import (
	"math/big"

	"github.com/holiman/uint256"
	"github.com/pkg/errors"
)

var errMulDivOverflow = errors.New("mul div overflow")

// mulDiv returns floor(a * b / d) using a 512 bit intermediate product.
// d must not be zero.
func mulDiv(a, b, d *big.Int) (*big.Int, error) {
	x, overflow := uint256.FromBig(a)
	if overflow {
		return nil, errMulDivOverflow
	}
	y, overflow := uint256.FromBig(b)
	if overflow {
		return nil, errMulDivOverflow
	}
	z, overflow := uint256.FromBig(d)
	if overflow || z.IsZero() {
		return nil, errMulDivOverflow
	}
	res, overflow := new(uint256.Int).MulDivOverflow(x, y, z)
	if overflow {
		return nil, errMulDivOverflow
	}
	return res.ToBig(), nil
}

// mulDivUp is mulDiv rounded up.
func mulDivUp(a, b, d *big.Int) (*big.Int, error) {
	q, err := mulDiv(a, b, d)
	if err != nil {
		return nil, err
	}
	prod := new(big.Int).Mul(a, b)
	if new(big.Int).Mod(prod, d).Sign() != 0 {
		q.Add(q, big.NewInt(1))
	}
	return q, nil
}

// sharesToValue converts shares at the rate pooled/total. Rounds down.
func sharesToValue(shares, pooled, total *big.Int) (*big.Int, error) {
	if total.Sign() == 0 {
		return new(big.Int).Set(shares), nil
	}
	return mulDiv(shares, pooled, total)
}

// valueToShares converts value at the rate pooled/total. Rounds down.
func valueToShares(value, pooled, total *big.Int) (*big.Int, error) {
	if total.Sign() == 0 || pooled.Sign() == 0 {
		return new(big.Int).Set(value), nil
	}
	return mulDiv(value, total, pooled)
}

// valueToSharesUp is valueToShares rounded up.
func valueToSharesUp(value, pooled, total *big.Int) (*big.Int, error) {
	if total.Sign() == 0 || pooled.Sign() == 0 {
		return new(big.Int).Set(value), nil
	}
	return mulDivUp(value, total, pooled)
}
