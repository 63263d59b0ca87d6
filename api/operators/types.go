// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package operators

import (
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/common/math"

	"github.com/vechain/stakepool/builtin/protocol"
	"github.com/vechain/stakepool/builtin/registry"
	"github.com/vechain/stakepool/pool"
)

// Operator is a registered node operator with the state of its vault.
type Operator struct {
	*registry.Operator
	CollateralShares   *math.HexOrDecimal256 `json:"collateralShares"`
	CollateralValue    *math.HexOrDecimal256 `json:"collateralValue"`
	RequiredCollateral *math.HexOrDecimal256 `json:"requiredCollateral"`
}

type RegisterRequest struct {
	Caller          pool.Address `json:"caller"`
	WithdrawAddress pool.Address `json:"withdrawAddress"`
}

type RegisterResponse struct {
	Operator *registry.Operator `json:"operator"`
	Receipt  *protocol.Receipt  `json:"receipt"`
}

type StakesRequest struct {
	Value *math.HexOrDecimal256 `json:"value"`
}

type StakesResponse struct {
	Shares  *math.HexOrDecimal256 `json:"shares"`
	Receipt *protocol.Receipt     `json:"receipt"`
}

// ValidatorsRequest carries concatenated 48 byte public keys and 96 byte signatures.
type ValidatorsRequest struct {
	Caller            pool.Address  `json:"caller"`
	Pubkeys           hexutil.Bytes `json:"pubkeys"`
	PreSignatures     hexutil.Bytes `json:"preSignatures"`
	DepositSignatures hexutil.Bytes `json:"depositSignatures"`
}

type ValidatorsResponse struct {
	Indices []uint64          `json:"indices"`
	Receipt *protocol.Receipt `json:"receipt"`
}

type ExitRequest struct {
	Caller  pool.Address `json:"caller"`
	Indices []uint64     `json:"indices"`
}

type CallerRequest struct {
	Caller pool.Address `json:"caller"`
}

type RewardsResponse struct {
	Shares  *math.HexOrDecimal256 `json:"shares"`
	Receipt *protocol.Receipt     `json:"receipt"`
}

type StatusRequest struct {
	Caller pool.Address `json:"caller"`
	Active bool         `json:"active"`
}

type MinStakeRequest struct {
	Caller pool.Address          `json:"caller"`
	Amount *math.HexOrDecimal256 `json:"amount"`
}

type ReceiptResponse struct {
	Receipt *protocol.Receipt `json:"receipt"`
}
