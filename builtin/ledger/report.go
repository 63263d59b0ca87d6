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

// Report is the finalized oracle report of one frame.
type Report struct {
	EpochID                    uint64   `json:"epochId"`
	BeaconBalance              *big.Int `json:"beaconBalance"`
	BeaconValidators           uint64   `json:"beaconValidators"`
	RewardsVaultBalance        *big.Int `json:"rewardsVaultBalance"`
	ExitedValidators           uint64   `json:"exitedValidators"`
	BurnedShareAmount          *big.Int `json:"burnedShareAmount"`
	LastRequestIDToBeFulfilled uint64   `json:"lastRequestIdToBeFulfilled"`
	PendingWithdrawLock        *big.Int `json:"pendingWithdrawLock"`
}

func orZero(v *big.Int) *big.Int {
	if v == nil {
		return new(big.Int)
	}
	return v
}

func (r *Report) normalize() {
	r.BeaconBalance = orZero(r.BeaconBalance)
	r.RewardsVaultBalance = orZero(r.RewardsVaultBalance)
	r.BurnedShareAmount = orZero(r.BurnedShareAmount)
	r.PendingWithdrawLock = orZero(r.PendingWithdrawLock)
}

// ReportResult summarizes an applied report.
type ReportResult struct {
	Delta       *big.Int // signed reward of the frame
	Appeared    *big.Int // principal of validators first seen by this report
	Fees        *FeeDistribution
	PooledAfter *big.Int
	SharesAfter *big.Int
}

// ApplyReport folds a finalized oracle report into the pool totals. Oracle only.
func (l *Ledger) ApplyReport(caller pool.Address, report Report) (*ReportResult, error) {
	if caller != l.params.Oracle {
		return nil, reverts.Unauthorized("oracle", caller)
	}
	report.normalize()

	before, err := l.snapshot()
	if err != nil {
		return nil, err
	}
	deposited, prevValidators, prevBeacon, err := l.BeaconStat()
	if err != nil {
		return nil, err
	}
	prevExited, err := l.exitedValidators.Get()
	if err != nil {
		return nil, err
	}

	// exited validators leave the live count, every validator ever seen is live or exited
	if report.ExitedValidators < prevExited {
		return nil, &InvalidReportError{Reason: "exited validators out of range"}
	}
	prevSeen := prevValidators + prevExited
	seen := report.BeaconValidators + report.ExitedValidators
	if seen < report.BeaconValidators || seen < prevSeen || seen > deposited {
		return nil, &InvalidReportError{Reason: "beacon validators out of range"}
	}

	vaultBalance, err := l.rewardsVault.Get()
	if err != nil {
		return nil, err
	}
	if report.RewardsVaultBalance.Cmp(vaultBalance) > 0 {
		return nil, &InsufficientVaultBalanceError{Claimed: report.RewardsVaultBalance, Actual: vaultBalance}
	}

	appeared := new(big.Int)
	for seq := prevSeen; seq < seen; seq++ {
		amount, err := l.deposits.Get(solidity.Uint64Key(seq))
		if err != nil {
			return nil, err
		}
		appeared.Add(appeared, amount)
	}

	delta := new(big.Int).Add(report.BeaconBalance, report.RewardsVaultBalance)
	delta.Sub(delta, prevBeacon)
	delta.Sub(delta, appeared)
	if delta.Sign() <= 0 && report.BurnedShareAmount.Sign() == 0 {
		return nil, &UnprofitableError{Delta: delta}
	}

	// the frame's rate before fees, pooled value moves by delta only
	pooledAtReport := new(big.Int).Add(before.pooled, delta)
	plan, err := l.planFulfillment(report.LastRequestIDToBeFulfilled, report.BurnedShareAmount, report.PendingWithdrawLock, pooledAtReport, before.shares)
	if err != nil {
		return nil, err
	}
	if available := new(big.Int).Add(before.buffered, report.RewardsVaultBalance); available.Cmp(plan.assigned) < 0 {
		return nil, &InsufficientBufferedError{Required: plan.assigned, Available: available}
	}

	// every check passed, nothing below reverts

	// sweep the rewards vault and move appeared principal from transient to beacon
	if report.RewardsVaultBalance.Sign() > 0 {
		if err := l.rewardsVault.Sub(report.RewardsVaultBalance); err != nil {
			return nil, err
		}
		if err := l.buffered.Add(report.RewardsVaultBalance); err != nil {
			return nil, err
		}
	}
	if err := l.transient.Sub(appeared); err != nil {
		return nil, err
	}
	if err := l.beaconValue.Set(report.BeaconBalance); err != nil {
		return nil, err
	}
	if err := l.beaconValidators.Set(report.BeaconValidators); err != nil {
		return nil, err
	}
	if err := l.exitedValidators.Set(report.ExitedValidators); err != nil {
		return nil, err
	}
	if err := l.lastReportEpoch.Set(report.EpochID); err != nil {
		return nil, err
	}

	if err := l.fulfill(plan); err != nil {
		return nil, err
	}

	result := &ReportResult{Delta: delta, Appeared: appeared}
	if delta.Sign() > 0 {
		if result.Fees, err = l.distributeFee(delta); err != nil {
			return nil, err
		}
	}

	if result.PooledAfter, result.SharesAfter, err = l.totals(); err != nil {
		return nil, err
	}
	l.sctx.Emit("ReportApplied",
		"epochId", report.EpochID,
		"beaconBalance", report.BeaconBalance,
		"beaconValidators", report.BeaconValidators,
		"delta", delta,
	)
	logger.Info("report applied",
		"epoch", report.EpochID,
		"delta", delta,
		"pooled", result.PooledAfter,
		"shares", result.SharesAfter,
	)
	return result, l.emitDelta("ApplyReport", before)
}
