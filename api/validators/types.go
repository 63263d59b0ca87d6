// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package validators

import (
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/common/math"

	"github.com/vechain/stakepool/builtin/guardian"
	"github.com/vechain/stakepool/builtin/protocol"
	"github.com/vechain/stakepool/builtin/registry"
	"github.com/vechain/stakepool/pool"
)

type Validator struct {
	Index              uint64          `json:"index"`
	Operator           pool.Address    `json:"operator"`
	Pubkey             hexutil.Bytes   `json:"pubkey"`
	Status             registry.Status `json:"status"`
	PreDepositDataRoot pool.Bytes32    `json:"preDepositDataRoot"`
	DepositDataRoot    pool.Bytes32    `json:"depositDataRoot"`
}

func convertValidator(v *registry.Validator) *Validator {
	return &Validator{
		Index:              v.Index,
		Operator:           v.Operator,
		Pubkey:             v.Pubkey,
		Status:             v.Status,
		PreDepositDataRoot: v.PreDepositDataRoot,
		DepositDataRoot:    v.DepositDataRoot,
	}
}

type ActivateRequest struct {
	Proof   *guardian.Proof `json:"proof"`
	Indices []uint64        `json:"indices"`
}

type PenaltyRequest struct {
	Proof       *guardian.Proof       `json:"proof"`
	SlashAmount *math.HexOrDecimal256 `json:"slashAmount"`
	// Finalized applies to slashing reports only.
	Finalized bool `json:"finalized"`
}

type ReceiptResponse struct {
	Receipt *protocol.Receipt `json:"receipt"`
}
