// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package registry

import (
	"encoding/hex"
	"fmt"
	"math/big"

	"github.com/vechain/stakepool/pool"
)

type OperatorAlreadyExistsError struct {
	Operator pool.Address
}

func (e *OperatorAlreadyExistsError) Error() string {
	return fmt.Sprintf("operator %v already exists", e.Operator)
}
func (e *OperatorAlreadyExistsError) Kind() string { return "OperatorAlreadyExists" }

type OperatorNotFoundError struct {
	Operator pool.Address
}

func (e *OperatorNotFoundError) Error() string { return fmt.Sprintf("operator %v not found", e.Operator) }
func (e *OperatorNotFoundError) Kind() string  { return "OperatorNotFound" }

type OperatorInactiveError struct {
	Operator pool.Address
}

func (e *OperatorInactiveError) Error() string { return fmt.Sprintf("operator %v is inactive", e.Operator) }
func (e *OperatorInactiveError) Kind() string  { return "OperatorInactive" }

type ValidatorNotFoundError struct {
	Index uint64
}

func (e *ValidatorNotFoundError) Error() string { return fmt.Sprintf("validator %d not found", e.Index) }
func (e *ValidatorNotFoundError) Kind() string  { return "ValidatorNotFound" }

// InconsistentValidatorStatusError rejects a transition attempted from a status other than
// its required predecessor.
type InconsistentValidatorStatusError struct {
	Index    uint64
	Expected Status
	Actual   Status
}

func (e *InconsistentValidatorStatusError) Error() string {
	return fmt.Sprintf("inconsistent status of validator %d: expected %v, actual %v", e.Index, e.Expected, e.Actual)
}
func (e *InconsistentValidatorStatusError) Kind() string { return "InconsistentValidatorStatus" }

// InconsistentOperatorError rejects a caller acting on a validator it does not own.
type InconsistentOperatorError struct {
	Index  uint64
	Owner  pool.Address
	Caller pool.Address
}

func (e *InconsistentOperatorError) Error() string {
	return fmt.Sprintf("validator %d is owned by %v, not %v", e.Index, e.Owner, e.Caller)
}
func (e *InconsistentOperatorError) Kind() string { return "InconsistentOperator" }

type PubkeyAlreadyExistsError struct {
	Pubkey []byte
}

func (e *PubkeyAlreadyExistsError) Error() string {
	return "pubkey already exists: 0x" + hex.EncodeToString(e.Pubkey)
}
func (e *PubkeyAlreadyExistsError) Kind() string { return "PubkeyAlreadyExists" }

// IncorrectLengthError reports the byte length observed for a field against the expected one.
type IncorrectLengthError struct {
	Field    string
	Expected int
	Actual   int
}

func (e *IncorrectLengthError) Error() string {
	return fmt.Sprintf("incorrect length of %s: expected %d, actual %d", e.Field, e.Expected, e.Actual)
}
func (e *IncorrectLengthError) Kind() string { return "IncorrectLength" }

type InsufficientCollateralError struct {
	Required *big.Int
	Actual   *big.Int
}

func (e *InsufficientCollateralError) Error() string {
	return fmt.Sprintf("insufficient collateral: required %v, actual %v", e.Required, e.Actual)
}
func (e *InsufficientCollateralError) Kind() string { return "InsufficientCollateral" }
