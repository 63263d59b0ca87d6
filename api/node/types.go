// Copyright (c) 2018 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package node

import (
	"github.com/ethereum/go-ethereum/common/math"

	"github.com/vechain/stakepool/builtin/ledger"
	"github.com/vechain/stakepool/builtin/protocol"
	"github.com/vechain/stakepool/chain"
	"github.com/vechain/stakepool/pool"
)

// Stats is the pool totals.
type Stats struct {
	TotalPooledValue    *math.HexOrDecimal256 `json:"totalPooledValue"`
	TotalShares         *math.HexOrDecimal256 `json:"totalShares"`
	BufferedValue       *math.HexOrDecimal256 `json:"bufferedValue"`
	TransientValue      *math.HexOrDecimal256 `json:"transientValue"`
	BeaconValue         *math.HexOrDecimal256 `json:"beaconValue"`
	RewardsVaultBalance *math.HexOrDecimal256 `json:"rewardsVaultBalance"`
	Deposited           uint64                `json:"deposited"`
	BeaconValidators    uint64                `json:"beaconValidators"`
	ExitedValidators    uint64                `json:"exitedValidators"`
	LastReportEpoch     uint64                `json:"lastReportEpoch"`
	ExchangeRate        *math.HexOrDecimal256 `json:"exchangeRate"`
	Validators          map[string]uint64     `json:"validators"`
}

func convertStats(s *protocol.Stats, byStatus map[string]uint64) *Stats {
	return &Stats{
		TotalPooledValue:    (*math.HexOrDecimal256)(s.TotalPooledValue),
		TotalShares:         (*math.HexOrDecimal256)(s.TotalShares),
		BufferedValue:       (*math.HexOrDecimal256)(s.BufferedValue),
		TransientValue:      (*math.HexOrDecimal256)(s.TransientValue),
		BeaconValue:         (*math.HexOrDecimal256)(s.BeaconValue),
		RewardsVaultBalance: (*math.HexOrDecimal256)(s.RewardsVaultBalance),
		Deposited:           s.Deposited,
		BeaconValidators:    s.BeaconValidators,
		ExitedValidators:    s.ExitedValidators,
		LastReportEpoch:     s.LastReportEpoch,
		ExchangeRate:        (*math.HexOrDecimal256)(s.ExchangeRate),
		Validators:          byStatus,
	}
}

type FeesRequest struct {
	Caller pool.Address `json:"caller"`
	ledger.Fees
}

type CreditRequest struct {
	Amount *math.HexOrDecimal256 `json:"amount"`
}

// Head is the execution chain head known to the guardian gate.
type Head struct {
	Number      uint64       `json:"number"`
	Hash        pool.Bytes32 `json:"hash"`
	ParentHash  pool.Bytes32 `json:"parentHash"`
	Timestamp   uint64       `json:"timestamp"`
	DepositRoot pool.Bytes32 `json:"depositRoot"`
}

func convertHead(h chain.Header) *Head {
	return &Head{
		Number:      h.Number,
		Hash:        h.Hash,
		ParentHash:  h.ParentHash,
		Timestamp:   h.Timestamp,
		DepositRoot: h.DepositRoot,
	}
}

func (h *Head) header() chain.Header {
	return chain.Header{
		Number:      h.Number,
		Hash:        h.Hash,
		ParentHash:  h.ParentHash,
		Timestamp:   h.Timestamp,
		DepositRoot: h.DepositRoot,
	}
}

type ReceiptResponse struct {
	Receipt *protocol.Receipt `json:"receipt"`
}
