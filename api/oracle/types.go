// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package oracle

import (
	"github.com/ethereum/go-ethereum/common/math"

	"github.com/vechain/stakepool/api/utils"
	"github.com/vechain/stakepool/builtin/ledger"
	poolOracle "github.com/vechain/stakepool/builtin/oracle"
	"github.com/vechain/stakepool/builtin/protocol"
	"github.com/vechain/stakepool/pool"
)

// Status is the membership and progress of the oracle.
type Status struct {
	Members       []pool.Address   `json:"members"`
	Quorum        uint64           `json:"quorum"`
	ExpectedEpoch uint64           `json:"expectedEpoch"`
	LastCompleted uint64           `json:"lastCompleted"`
	Completed     uint64           `json:"completed"`
	Frame         poolOracle.Frame `json:"frame"`
	Spec          poolOracle.Spec  `json:"spec"`
}

// Report is the beacon chain observation of a frame.
type Report struct {
	EpochID                    uint64                `json:"epochId"`
	BeaconBalance              *math.HexOrDecimal256 `json:"beaconBalance"`
	BeaconValidators           uint64                `json:"beaconValidators"`
	RewardsVaultBalance        *math.HexOrDecimal256 `json:"rewardsVaultBalance"`
	ExitedValidators           uint64                `json:"exitedValidators"`
	BurnedShareAmount          *math.HexOrDecimal256 `json:"burnedShareAmount"`
	LastRequestIDToBeFulfilled uint64                `json:"lastRequestIdToBeFulfilled"`
	PendingWithdrawLock        *math.HexOrDecimal256 `json:"pendingWithdrawLock"`
}

func (r *Report) ledgerReport() ledger.Report {
	return ledger.Report{
		EpochID:                    r.EpochID,
		BeaconBalance:              utils.BigInt(r.BeaconBalance),
		BeaconValidators:           r.BeaconValidators,
		RewardsVaultBalance:        utils.BigInt(r.RewardsVaultBalance),
		ExitedValidators:           r.ExitedValidators,
		BurnedShareAmount:          utils.BigInt(r.BurnedShareAmount),
		LastRequestIDToBeFulfilled: r.LastRequestIDToBeFulfilled,
		PendingWithdrawLock:        utils.BigInt(r.PendingWithdrawLock),
	}
}

type ReportRequest struct {
	Caller pool.Address `json:"caller"`
	Report Report       `json:"report"`
}

// ReportResult summarizes a report delivered to the ledger.
type ReportResult struct {
	Delta       *math.HexOrDecimal256 `json:"delta"`
	PooledAfter *math.HexOrDecimal256 `json:"pooledAfter"`
	SharesAfter *math.HexOrDecimal256 `json:"sharesAfter"`
}

type ReportResponse struct {
	Hash      pool.Bytes32      `json:"hash"`
	Count     uint64            `json:"count"`
	Completed bool              `json:"completed"`
	Result    *ReportResult     `json:"result,omitempty"`
	Receipt   *protocol.Receipt `json:"receipt"`
}

type ExitsRequest struct {
	Caller  pool.Address `json:"caller"`
	Indices []uint64     `json:"indices"`
}

type MemberRequest struct {
	Caller pool.Address `json:"caller"`
	Member pool.Address `json:"member"`
}

type QuorumRequest struct {
	Caller pool.Address `json:"caller"`
	Quorum uint64       `json:"quorum"`
}

type ReceiptResponse struct {
	Receipt *protocol.Receipt `json:"receipt"`
}
