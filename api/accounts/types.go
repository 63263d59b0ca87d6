// Copyright (c) 2018 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package accounts

import (
	"github.com/ethereum/go-ethereum/common/math"

	"github.com/vechain/stakepool/builtin/protocol"
	"github.com/vechain/stakepool/pool"
)

// Account is the share position of an address.
type Account struct {
	Shares  *math.HexOrDecimal256 `json:"shares"`
	Balance *math.HexOrDecimal256 `json:"balance"`
}

type DepositRequest struct {
	Amount *math.HexOrDecimal256 `json:"amount"`
}

type DepositResponse struct {
	Shares  *math.HexOrDecimal256 `json:"shares"`
	Receipt *protocol.Receipt     `json:"receipt"`
}

type TransferRequest struct {
	To     pool.Address          `json:"to"`
	Shares *math.HexOrDecimal256 `json:"shares"`
}

type WithdrawalRequest struct {
	Shares *math.HexOrDecimal256 `json:"shares"`
}

type WithdrawalResponse struct {
	ID      uint64            `json:"id"`
	Receipt *protocol.Receipt `json:"receipt"`
}

// Withdrawal is a queued redemption.
type Withdrawal struct {
	ID     uint64                `json:"id"`
	Owner  pool.Address          `json:"owner"`
	Shares *math.HexOrDecimal256 `json:"shares"`
	Value  *math.HexOrDecimal256 `json:"value,omitempty"`
	Status string                `json:"status"`
}

type ClaimResponse struct {
	Value   *math.HexOrDecimal256 `json:"value"`
	Receipt *protocol.Receipt     `json:"receipt"`
}

// ReceiptResponse answers operations without a result of their own.
type ReceiptResponse struct {
	Receipt *protocol.Receipt `json:"receipt"`
}
