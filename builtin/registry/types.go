// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package registry

import (
	"github.com/vechain/stakepool/pool"
)

// Status is the lifecycle state of a validator.
type Status uint8

const (
	StatusNotExist Status = iota
	StatusWaitingActivated
	StatusValidating
	StatusExit
	StatusSlashing
	StatusUnsafe
)

func (s Status) String() string {
	switch s {
	case StatusNotExist:
		return "NOT_EXIST"
	case StatusWaitingActivated:
		return "WAITING_ACTIVATED"
	case StatusValidating:
		return "VALIDATING"
	case StatusExit:
		return "EXIT"
	case StatusSlashing:
		return "SLASHING"
	case StatusUnsafe:
		return "UNSAFE"
	default:
		return "UNKNOWN"
	}
}

func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

type Validator struct {
	Index              uint64       `json:"index"`
	Operator           pool.Address `json:"operator"`
	Pubkey             []byte       `json:"pubkey"`
	Status             Status       `json:"status"`
	PreDepositDataRoot pool.Bytes32 `json:"preDepositDataRoot"`
	DepositDataRoot    pool.Bytes32 `json:"depositDataRoot"`
}

type Operator struct {
	ID              uint64       `json:"id"`
	Address         pool.Address `json:"address"`
	WithdrawAddress pool.Address `json:"withdrawAddress"`
	Vault           pool.Address `json:"vault"`
	IsActive        bool         `json:"isActive"`

	Waiting    uint64 `json:"waiting"`
	Validating uint64 `json:"validating"`
	Slashing   uint64 `json:"slashing"`
	Exited     uint64 `json:"exited"`
}

// Exists returns true if the operator was registered.
func (o *Operator) Exists() bool {
	return o.ID != 0
}

// Active returns the number of waiting and validating validators.
func (o *Operator) Active() uint64 {
	return o.Waiting + o.Validating
}

// Bonded returns the number of validators the operator's collateral must cover. Unsafe and
// slashing validators stay bonded until the slashing is finalized.
func (o *Operator) Bonded() uint64 {
	return o.Active() + o.Slashing
}
