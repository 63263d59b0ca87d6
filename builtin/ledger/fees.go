// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package ledger

import (
	"math/big"

	"github.com/vechain/stakepool/builtin/reverts"
	"github.com/vechain/stakepool/builtin/solidity"
	"github.com/vechain/stakepool/pool"
)

// Fee parameters in basis points. FeeBps is taken from a positive delta, the other three
// split the fee. Whatever they leave goes to the protocol account.
var (
	FeeBps          = solidity.NewConfigVariable("ledger-fee-bps", 1000)
	InsuranceBps    = solidity.NewConfigVariable("ledger-insurance-fee-bps", 5000)
	TreasuryBps     = solidity.NewConfigVariable("ledger-treasury-fee-bps", 0)
	NodeOperatorBps = solidity.NewConfigVariable("ledger-node-operator-fee-bps", 5000)
)

// Fees is the fee configuration.
type Fees struct {
	Fee          uint64 `json:"fee"`
	Insurance    uint64 `json:"insurance"`
	Treasury     uint64 `json:"treasury"`
	NodeOperator uint64 `json:"nodeOperator"`
}

func (f *Fees) validate() error {
	if f.Fee > pool.BasisPoints {
		return &InvalidFeesError{Reason: "fee exceeds 100%"}
	}
	if f.Insurance+f.Treasury+f.NodeOperator > pool.BasisPoints {
		return &InvalidFeesError{Reason: "fee split exceeds 100%"}
	}
	return nil
}

// Fees returns the effective fee configuration.
func (l *Ledger) Fees() (*Fees, error) {
	var (
		fees Fees
		err  error
	)
	if fees.Fee, err = FeeBps.Get(l.sctx); err != nil {
		return nil, err
	}
	if fees.Insurance, err = InsuranceBps.Get(l.sctx); err != nil {
		return nil, err
	}
	if fees.Treasury, err = TreasuryBps.Get(l.sctx); err != nil {
		return nil, err
	}
	if fees.NodeOperator, err = NodeOperatorBps.Get(l.sctx); err != nil {
		return nil, err
	}
	return &fees, nil
}

// SetFees overrides the fee configuration. Admin only.
func (l *Ledger) SetFees(caller pool.Address, fees Fees) error {
	if caller != l.params.Admin {
		return reverts.Unauthorized("admin", caller)
	}
	if err := fees.validate(); err != nil {
		return err
	}
	for _, kv := range []struct {
		v     *solidity.ConfigVariable
		value uint64
	}{
		{FeeBps, fees.Fee},
		{InsuranceBps, fees.Insurance},
		{TreasuryBps, fees.Treasury},
		{NodeOperatorBps, fees.NodeOperator},
	} {
		if err := kv.v.Override(l.sctx, kv.value); err != nil {
			return err
		}
	}
	l.sctx.Emit("FeesSet",
		"fee", fees.Fee,
		"insurance", fees.Insurance,
		"treasury", fees.Treasury,
		"nodeOperator", fees.NodeOperator,
	)
	return nil
}

// FeeDistribution is the outcome of minting fees on a profitable report.
type FeeDistribution struct {
	Total     *big.Int
	Insurance *big.Int
	Treasury  *big.Int
	Operators map[pool.Address]*big.Int
	Protocol  *big.Int
}

// distributeFee mints fee shares worth fee bps of delta. The rate after minting values the
// fee shares at exactly the fee, rounded down.
func (l *Ledger) distributeFee(delta *big.Int) (*FeeDistribution, error) {
	fees, err := l.Fees()
	if err != nil {
		return nil, err
	}
	fee := bps(delta, fees.Fee)
	pooled, total, err := l.totals()
	if err != nil {
		return nil, err
	}
	denominator := new(big.Int).Sub(pooled, fee)
	if fee.Sign() == 0 || total.Sign() == 0 || denominator.Sign() <= 0 {
		return nil, nil
	}

	feeShares, err := mulDiv(fee, total, denominator)
	if err != nil {
		return nil, err
	}
	dist := &FeeDistribution{
		Total:     feeShares,
		Insurance: bps(feeShares, fees.Insurance),
		Treasury:  bps(feeShares, fees.Treasury),
		Operators: make(map[pool.Address]*big.Int),
	}
	remaining := new(big.Int).Sub(feeShares, dist.Insurance)
	remaining.Sub(remaining, dist.Treasury)

	operatorShares := bps(feeShares, fees.NodeOperator)
	if operatorShares.Sign() > 0 && l.operators != nil {
		recipients, err := l.operators.RewardRecipients()
		if err != nil {
			return nil, err
		}
		var weights uint64
		for _, r := range recipients {
			weights += r.Weight
		}
		if weights > 0 {
			w := new(big.Int).SetUint64(weights)
			for _, r := range recipients {
				if r.Weight == 0 {
					continue
				}
				share := new(big.Int).Mul(operatorShares, new(big.Int).SetUint64(r.Weight))
				share.Div(share, w)
				if share.Sign() == 0 {
					continue
				}
				if prev, ok := dist.Operators[r.Account]; ok {
					share.Add(share, prev)
				}
				dist.Operators[r.Account] = share
				remaining.Sub(remaining, share)
			}
		}
	}
	dist.Protocol = remaining

	if err := l.mint(l.params.Insurance, dist.Insurance); err != nil {
		return nil, err
	}
	if err := l.mint(l.params.Treasury, dist.Treasury); err != nil {
		return nil, err
	}
	for account, shares := range dist.Operators {
		if err := l.mint(account, shares); err != nil {
			return nil, err
		}
	}
	if err := l.mint(l.params.Protocol, dist.Protocol); err != nil {
		return nil, err
	}
	return dist, nil
}

// bps returns floor(value * points / 10000).
func bps(value *big.Int, points uint64) *big.Int {
	v := new(big.Int).Mul(value, new(big.Int).SetUint64(points))
	return v.Div(v, new(big.Int).SetUint64(pool.BasisPoints))
}
