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

var (
	slotWithdrawals       = pool.BytesToBytes32([]byte("withdrawals"))
	slotLastRequestID     = pool.BytesToBytes32([]byte("withdrawals-last-request"))
	slotLastFulfilledID   = pool.BytesToBytes32([]byte("withdrawals-last-fulfilled"))
	slotWithdrawalReserve = pool.BytesToBytes32([]byte("withdrawals-reserve"))
)

type WithdrawalStatus uint8

const (
	WithdrawalUnknown WithdrawalStatus = iota
	WithdrawalPending
	WithdrawalFulfilled
	WithdrawalClaimed
)

func (s WithdrawalStatus) String() string {
	switch s {
	case WithdrawalPending:
		return "pending"
	case WithdrawalFulfilled:
		return "fulfilled"
	case WithdrawalClaimed:
		return "claimed"
	default:
		return "unknown"
	}
}

// Withdrawal is a request to redeem escrowed shares.
type Withdrawal struct {
	Owner  pool.Address
	Shares *big.Int
	Value  *big.Int // assigned when fulfilled
	Status WithdrawalStatus
}

type withdrawalQueue struct {
	requests      *solidity.Mapping[solidity.Uint64Key, *Withdrawal]
	lastRequest   *solidity.Uint64
	lastFulfilled *solidity.Uint64
	reserve       *solidity.Uint256
}

func newWithdrawalQueue(sctx *solidity.Context) *withdrawalQueue {
	return &withdrawalQueue{
		requests:      solidity.NewMapping[solidity.Uint64Key, *Withdrawal](sctx, slotWithdrawals),
		lastRequest:   solidity.NewUint64(sctx, slotLastRequestID),
		lastFulfilled: solidity.NewUint64(sctx, slotLastFulfilledID),
		reserve:       solidity.NewUint256(sctx, slotWithdrawalReserve),
	}
}

// Withdrawal returns the request with the given id.
func (l *Ledger) Withdrawal(id uint64) (*Withdrawal, error) {
	w, err := l.withdrawals.requests.Get(solidity.Uint64Key(id))
	if err != nil {
		return nil, err
	}
	if w.Status == WithdrawalUnknown {
		return nil, &WithdrawalNotFoundError{ID: id}
	}
	return w, nil
}

// WithdrawalQueueStat returns the last request id, the last fulfilled id and the locked reserve.
func (l *Ledger) WithdrawalQueueStat() (lastRequest, lastFulfilled uint64, reserve *big.Int, err error) {
	if lastRequest, err = l.withdrawals.lastRequest.Get(); err != nil {
		return
	}
	if lastFulfilled, err = l.withdrawals.lastFulfilled.Get(); err != nil {
		return
	}
	reserve, err = l.withdrawals.reserve.Get()
	return
}

// RequestWithdrawal escrows shares of owner and queues them for redemption. Ids start at 1.
func (l *Ledger) RequestWithdrawal(owner pool.Address, shares *big.Int) (uint64, error) {
	if shares == nil || shares.Sign() <= 0 {
		return 0, &ZeroAmountError{Field: "shares"}
	}
	if err := l.checkNotVault(owner); err != nil {
		return 0, err
	}
	if err := l.move(owner, l.Address(), shares); err != nil {
		return 0, err
	}
	prev, err := l.withdrawals.lastRequest.Increment()
	if err != nil {
		return 0, err
	}
	id := prev + 1
	if err := l.withdrawals.requests.Set(solidity.Uint64Key(id), &Withdrawal{
		Owner:  owner,
		Shares: new(big.Int).Set(shares),
		Value:  new(big.Int),
		Status: WithdrawalPending,
	}); err != nil {
		return 0, err
	}

	l.sctx.Emit("WithdrawalRequested", "id", id, "owner", owner, "shares", shares)
	logger.Debug("withdrawal requested", "id", id, "owner", owner, "shares", shares)
	return id, nil
}

// ClaimWithdrawal pays out a fulfilled request from the reserve.
func (l *Ledger) ClaimWithdrawal(owner pool.Address, id uint64) (*big.Int, error) {
	w, err := l.Withdrawal(id)
	if err != nil {
		return nil, err
	}
	if w.Owner != owner {
		return nil, reverts.Unauthorized("withdrawal owner", owner)
	}
	if w.Status != WithdrawalFulfilled {
		return nil, &WithdrawalNotClaimableError{ID: id, Status: w.Status}
	}
	if err := l.withdrawals.reserve.Sub(w.Value); err != nil {
		return nil, err
	}
	w.Status = WithdrawalClaimed
	if err := l.withdrawals.requests.Set(solidity.Uint64Key(id), w); err != nil {
		return nil, err
	}

	l.sctx.Emit("WithdrawalClaimed", "id", id, "owner", owner, "value", w.Value)
	return w.Value, nil
}

type fulfillment struct {
	from     uint64
	to       uint64
	requests []*Withdrawal
	burned   *big.Int
	assigned *big.Int
}

// planFulfillment assigns lock to the requests up to lastID in proportion to their shares.
// The lock may not exceed the value of the burned shares at the rate pooled/total.
// It only reads state.
func (l *Ledger) planFulfillment(lastID uint64, burned, lock, pooled, total *big.Int) (*fulfillment, error) {
	lastFulfilled, err := l.withdrawals.lastFulfilled.Get()
	if err != nil {
		return nil, err
	}
	lastRequest, err := l.withdrawals.lastRequest.Get()
	if err != nil {
		return nil, err
	}
	if lastID < lastFulfilled || lastID > lastRequest {
		return nil, &InvalidReportError{Reason: "withdrawal request id out of range"}
	}

	plan := &fulfillment{
		from:     lastFulfilled + 1,
		to:       lastID,
		burned:   burned,
		assigned: new(big.Int),
	}
	sum := new(big.Int)
	for id := plan.from; id <= plan.to; id++ {
		w, err := l.withdrawals.requests.Get(solidity.Uint64Key(id))
		if err != nil {
			return nil, err
		}
		plan.requests = append(plan.requests, w)
		sum.Add(sum, w.Shares)
	}
	if sum.Cmp(burned) != 0 {
		return nil, &InvalidReportError{Reason: "burned shares do not match fulfilled requests"}
	}
	if burned.Sign() == 0 {
		if lock.Sign() != 0 {
			return nil, &InvalidReportError{Reason: "withdrawal lock without burned shares"}
		}
		return plan, nil
	}
	maxLock, err := sharesToValue(burned, pooled, total)
	if err != nil {
		return nil, err
	}
	if lock.Cmp(maxLock) > 0 {
		return nil, &InvalidReportError{Reason: "withdrawal lock exceeds burned shares value"}
	}

	for _, w := range plan.requests {
		value, err := mulDiv(w.Shares, lock, burned)
		if err != nil {
			return nil, err
		}
		w.Value = value
		w.Status = WithdrawalFulfilled
		plan.assigned.Add(plan.assigned, value)
	}
	return plan, nil
}

// fulfill moves the assigned value from the buffer to the reserve and burns the escrowed shares.
func (l *Ledger) fulfill(plan *fulfillment) error {
	if len(plan.requests) == 0 {
		return nil
	}
	for i, w := range plan.requests {
		id := plan.from + uint64(i)
		if err := l.withdrawals.requests.Set(solidity.Uint64Key(id), w); err != nil {
			return err
		}
		l.sctx.Emit("WithdrawalFulfilled", "id", id, "value", w.Value)
	}
	if err := l.buffered.Sub(plan.assigned); err != nil {
		return err
	}
	if err := l.withdrawals.reserve.Add(plan.assigned); err != nil {
		return err
	}
	if err := l.burn(l.Address(), plan.burned); err != nil {
		return err
	}
	return l.withdrawals.lastFulfilled.Set(plan.to)
}
