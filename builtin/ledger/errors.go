// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package ledger

import (
	"fmt"
	"math/big"

	"github.com/vechain/stakepool/pool"
)

type ZeroAmountError struct {
	Field string
}

func (e *ZeroAmountError) Error() string { return fmt.Sprintf("zero amount: %s", e.Field) }
func (e *ZeroAmountError) Kind() string  { return "ZeroAmount" }

// UnprofitableError rejects a report without net gain and without a burn to absorb the loss.
type UnprofitableError struct {
	Delta *big.Int
}

func (e *UnprofitableError) Error() string { return fmt.Sprintf("unprofitable report: delta %v", e.Delta) }
func (e *UnprofitableError) Kind() string  { return "Unprofitable" }

type InsufficientVaultBalanceError struct {
	Claimed *big.Int
	Actual  *big.Int
}

func (e *InsufficientVaultBalanceError) Error() string {
	return fmt.Sprintf("insufficient vault balance: claimed %v, actual %v", e.Claimed, e.Actual)
}
func (e *InsufficientVaultBalanceError) Kind() string { return "InsufficientVaultBalance" }

type InsufficientBufferedError struct {
	Required  *big.Int
	Available *big.Int
}

func (e *InsufficientBufferedError) Error() string {
	return fmt.Sprintf("insufficient buffered value: required %v, available %v", e.Required, e.Available)
}
func (e *InsufficientBufferedError) Kind() string { return "InsufficientBuffered" }

type InsufficientSharesError struct {
	Account   pool.Address
	Required  *big.Int
	Available *big.Int
}

func (e *InsufficientSharesError) Error() string {
	return fmt.Sprintf("insufficient shares of %v: required %v, available %v", e.Account, e.Required, e.Available)
}
func (e *InsufficientSharesError) Kind() string { return "InsufficientShares" }

// InvalidReportError rejects a report inconsistent with the ledger's view of the validator set
// or the withdrawal queue.
type InvalidReportError struct {
	Reason string
}

func (e *InvalidReportError) Error() string { return "invalid report: " + e.Reason }
func (e *InvalidReportError) Kind() string  { return "InvalidReport" }

type InvalidFeesError struct {
	Reason string
}

func (e *InvalidFeesError) Error() string { return "invalid fees: " + e.Reason }
func (e *InvalidFeesError) Kind() string  { return "InvalidFees" }

type WithdrawalNotFoundError struct {
	ID uint64
}

func (e *WithdrawalNotFoundError) Error() string { return fmt.Sprintf("withdrawal %d not found", e.ID) }
func (e *WithdrawalNotFoundError) Kind() string  { return "WithdrawalNotFound" }

type WithdrawalNotClaimableError struct {
	ID     uint64
	Status WithdrawalStatus
}

func (e *WithdrawalNotClaimableError) Error() string {
	return fmt.Sprintf("withdrawal %d not claimable: %v", e.ID, e.Status)
}
func (e *WithdrawalNotClaimableError) Kind() string { return "WithdrawalNotClaimable" }

// CollateralLockedError rejects a share transfer or withdrawal out of an operator vault account.
type CollateralLockedError struct {
	Account pool.Address
}

func (e *CollateralLockedError) Error() string {
	return fmt.Sprintf("collateral of %v is locked in its vault", e.Account)
}
func (e *CollateralLockedError) Kind() string { return "CollateralLocked" }
