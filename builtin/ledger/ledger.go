// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package ledger keeps the pool totals and the share balances, and moves the
// exchange rate under deposits, reports and fee splits.
//
// Pooled value is the sum of three buckets:
//
//	buffered  deposited and swept value not yet sent to a validator
//	transient value sent to validators the beacon report has not seen yet
//	beacon    the balance of validators as of the last report
package ledger

import (
	"math/big"

	"github.com/pkg/errors"

	"github.com/vechain/stakepool/builtin/reverts"
	"github.com/vechain/stakepool/builtin/solidity"
	"github.com/vechain/stakepool/log"
	"github.com/vechain/stakepool/pool"
)

var logger = log.WithContext("pkg", "ledger")

var (
	slotBuffered         = pool.BytesToBytes32([]byte("buffered"))
	slotTransient        = pool.BytesToBytes32([]byte("transient"))
	slotBeaconValue      = pool.BytesToBytes32([]byte("beacon-value"))
	slotBeaconValidators = pool.BytesToBytes32([]byte("beacon-validators"))
	slotExitedValidators = pool.BytesToBytes32([]byte("exited-validators"))
	slotDeposited        = pool.BytesToBytes32([]byte("deposited-validators"))
	slotDeposits         = pool.BytesToBytes32([]byte("deposits"))
	slotTotalShares      = pool.BytesToBytes32([]byte("total-shares"))
	slotShares           = pool.BytesToBytes32([]byte("shares"))
	slotRewardsVault     = pool.BytesToBytes32([]byte("rewards-vault"))
	slotLastReportEpoch  = pool.BytesToBytes32([]byte("last-report-epoch"))
)

// Params are the accounts the ledger recognizes.
type Params struct {
	Registry  pool.Address // the only caller allowed to deploy buffered value or burn collateral
	Oracle    pool.Address // the only caller allowed to apply reports
	Vault     pool.Address // the only caller allowed to move collateral out of vault accounts
	Admin     pool.Address // may change fees
	Treasury  pool.Address
	Insurance pool.Address
	Protocol  pool.Address
}

// RewardRecipient is an account entitled to a part of the node operator fee.
type RewardRecipient struct {
	Account pool.Address
	Weight  uint64
}

// OperatorSet lists the node operator fee recipients and knows the operator vault accounts.
type OperatorSet interface {
	RewardRecipients() ([]RewardRecipient, error)
	IsVault(account pool.Address) (bool, error)
}

// Ledger implements the exchange rate ledger over module storage.
type Ledger struct {
	sctx      *solidity.Context
	params    Params
	operators OperatorSet

	buffered         *solidity.Uint256
	transient        *solidity.Uint256
	beaconValue      *solidity.Uint256
	beaconValidators *solidity.Uint64
	exitedValidators *solidity.Uint64
	deposited        *solidity.Uint64
	deposits         *solidity.Mapping[solidity.Uint64Key, *big.Int]
	totalShares      *solidity.Uint256
	shares           *solidity.Mapping[pool.Address, *big.Int]
	rewardsVault     *solidity.Uint256
	lastReportEpoch  *solidity.Uint64

	withdrawals *withdrawalQueue
}

func New(sctx *solidity.Context, params Params) *Ledger {
	return &Ledger{
		sctx:   sctx,
		params: params,

		buffered:         solidity.NewUint256(sctx, slotBuffered),
		transient:        solidity.NewUint256(sctx, slotTransient),
		beaconValue:      solidity.NewUint256(sctx, slotBeaconValue),
		beaconValidators: solidity.NewUint64(sctx, slotBeaconValidators),
		exitedValidators: solidity.NewUint64(sctx, slotExitedValidators),
		deposited:        solidity.NewUint64(sctx, slotDeposited),
		deposits:         solidity.NewMapping[solidity.Uint64Key, *big.Int](sctx, slotDeposits),
		totalShares:      solidity.NewUint256(sctx, slotTotalShares),
		shares:           solidity.NewMapping[pool.Address, *big.Int](sctx, slotShares),
		rewardsVault:     solidity.NewUint256(sctx, slotRewardsVault),
		lastReportEpoch:  solidity.NewUint64(sctx, slotLastReportEpoch),

		withdrawals: newWithdrawalQueue(sctx),
	}
}

// SetOperatorSet binds the source of node operator fee recipients.
func (l *Ledger) SetOperatorSet(operators OperatorSet) {
	l.operators = operators
}

// Address is the ledger account. Shares escrowed for withdrawal are held here.
func (l *Ledger) Address() pool.Address {
	return l.sctx.Address()
}

//
// Getters - no state change
//

// TotalPooledValue returns buffered + transient + beacon.
func (l *Ledger) TotalPooledValue() (*big.Int, error) {
	buffered, err := l.buffered.Get()
	if err != nil {
		return nil, err
	}
	transient, err := l.transient.Get()
	if err != nil {
		return nil, err
	}
	beacon, err := l.beaconValue.Get()
	if err != nil {
		return nil, err
	}
	return buffered.Add(buffered, transient).Add(buffered, beacon), nil
}

func (l *Ledger) TotalShares() (*big.Int, error) {
	return l.totalShares.Get()
}

func (l *Ledger) BufferedValue() (*big.Int, error) {
	return l.buffered.Get()
}

func (l *Ledger) TransientValue() (*big.Int, error) {
	return l.transient.Get()
}

// BeaconStat returns the live validator count and balance of the last report, and the deposited validator count.
func (l *Ledger) BeaconStat() (deposited, beaconValidators uint64, beaconValue *big.Int, err error) {
	if deposited, err = l.deposited.Get(); err != nil {
		return
	}
	if beaconValidators, err = l.beaconValidators.Get(); err != nil {
		return
	}
	beaconValue, err = l.beaconValue.Get()
	return
}

func (l *Ledger) ExitedValidators() (uint64, error) {
	return l.exitedValidators.Get()
}

func (l *Ledger) LastReportEpoch() (uint64, error) {
	return l.lastReportEpoch.Get()
}

// RewardsVaultBalance returns the value credited to the rewards vault and not yet swept.
func (l *Ledger) RewardsVaultBalance() (*big.Int, error) {
	return l.rewardsVault.Get()
}

// SharesOf returns the share balance of account.
func (l *Ledger) SharesOf(account pool.Address) (*big.Int, error) {
	return l.shares.Get(account)
}

// BalanceOf returns the value of the shares held by account.
func (l *Ledger) BalanceOf(account pool.Address) (*big.Int, error) {
	shares, err := l.SharesOf(account)
	if err != nil {
		return nil, err
	}
	return l.SharesToValue(shares)
}

// SharesToValue converts shares to value at the current rate, rounding down.
func (l *Ledger) SharesToValue(shares *big.Int) (*big.Int, error) {
	pooled, total, err := l.totals()
	if err != nil {
		return nil, err
	}
	return sharesToValue(shares, pooled, total)
}

// ValueToShares converts value to shares at the current rate, rounding down.
func (l *Ledger) ValueToShares(value *big.Int) (*big.Int, error) {
	pooled, total, err := l.totals()
	if err != nil {
		return nil, err
	}
	return valueToShares(value, pooled, total)
}

// ValueToSharesUp converts value to shares at the current rate, rounding up.
func (l *Ledger) ValueToSharesUp(value *big.Int) (*big.Int, error) {
	pooled, total, err := l.totals()
	if err != nil {
		return nil, err
	}
	return valueToSharesUp(value, pooled, total)
}

func (l *Ledger) totals() (pooled, total *big.Int, err error) {
	if pooled, err = l.TotalPooledValue(); err != nil {
		return
	}
	total, err = l.totalShares.Get()
	return
}

//
// Setters - state change
//

// Deposit adds amount to the buffer and mints shares to account.
func (l *Ledger) Deposit(account pool.Address, amount *big.Int) (*big.Int, error) {
	if amount == nil || amount.Sign() <= 0 {
		return nil, &ZeroAmountError{Field: "amount"}
	}
	if account.IsZero() {
		return nil, &reverts.ZeroAddressError{Field: "account"}
	}
	before, err := l.snapshot()
	if err != nil {
		return nil, err
	}

	shares, err := valueToShares(amount, before.pooled, before.shares)
	if err != nil {
		return nil, err
	}
	// an amount worth less than one share would be absorbed by the pool
	if shares.Sign() == 0 {
		return nil, &ZeroAmountError{Field: "shares"}
	}
	if err := l.buffered.Add(amount); err != nil {
		return nil, err
	}
	if err := l.mint(account, shares); err != nil {
		return nil, err
	}

	l.sctx.Emit("Deposited", "account", account, "amount", amount, "shares", shares)
	logger.Debug("deposited", "account", account, "amount", amount, "shares", shares)
	return shares, l.emitDelta("Deposit", before)
}

// TransferShares moves shares between accounts. Vault accounts can not send.
func (l *Ledger) TransferShares(from, to pool.Address, shares *big.Int) error {
	if err := l.checkNotVault(from); err != nil {
		return err
	}
	return l.transfer(from, to, shares)
}

// ReleaseCollateral moves shares out of a vault account. Vault module only.
func (l *Ledger) ReleaseCollateral(caller, vault, to pool.Address, shares *big.Int) error {
	if caller != l.params.Vault {
		return reverts.Unauthorized("vault", caller)
	}
	return l.transfer(vault, to, shares)
}

func (l *Ledger) transfer(from, to pool.Address, shares *big.Int) error {
	if shares == nil || shares.Sign() <= 0 {
		return &ZeroAmountError{Field: "shares"}
	}
	if to.IsZero() {
		return &reverts.ZeroAddressError{Field: "to"}
	}
	before, err := l.snapshot()
	if err != nil {
		return err
	}
	if err := l.move(from, to, shares); err != nil {
		return err
	}
	l.sctx.Emit("TransferShares", "from", from, "to", to, "shares", shares)
	return l.emitDelta("TransferShares", before)
}

// checkNotVault fails if account holds operator collateral.
func (l *Ledger) checkNotVault(account pool.Address) error {
	if l.operators == nil {
		return nil
	}
	vault, err := l.operators.IsVault(account)
	if err != nil {
		return err
	}
	if vault {
		return &CollateralLockedError{Account: account}
	}
	return nil
}

// WithdrawBuffered moves amount from the buffer to transient, recording one validator deposit.
func (l *Ledger) WithdrawBuffered(caller pool.Address, amount *big.Int) error {
	if caller != l.params.Registry {
		return reverts.Unauthorized("registry", caller)
	}
	if amount == nil || amount.Sign() <= 0 {
		return &ZeroAmountError{Field: "amount"}
	}
	before, err := l.snapshot()
	if err != nil {
		return err
	}
	if amount.Cmp(before.buffered) > 0 {
		return &InsufficientBufferedError{Required: amount, Available: before.buffered}
	}

	if err := l.buffered.Sub(amount); err != nil {
		return err
	}
	if err := l.transient.Add(amount); err != nil {
		return err
	}
	seq, err := l.deposited.Increment()
	if err != nil {
		return err
	}
	if err := l.deposits.Set(solidity.Uint64Key(seq), amount); err != nil {
		return err
	}

	l.sctx.Emit("BufferedWithdrawn", "sequence", seq, "amount", amount)
	return l.emitDelta("WithdrawBuffered", before)
}

// BurnShares destroys shares of account without touching pooled value, raising the rate
// for every other holder.
func (l *Ledger) BurnShares(caller, account pool.Address, shares *big.Int) error {
	if caller != l.params.Registry {
		return reverts.Unauthorized("registry", caller)
	}
	if shares == nil || shares.Sign() <= 0 {
		return &ZeroAmountError{Field: "shares"}
	}
	before, err := l.snapshot()
	if err != nil {
		return err
	}
	if err := l.burn(account, shares); err != nil {
		return err
	}
	l.sctx.Emit("SharesBurnt", "account", account, "shares", shares)
	return l.emitDelta("BurnShares", before)
}

// CreditRewardsVault records value arriving at the rewards vault. It becomes pooled
// only when a report sweeps it.
func (l *Ledger) CreditRewardsVault(amount *big.Int) error {
	if amount == nil || amount.Sign() <= 0 {
		return &ZeroAmountError{Field: "amount"}
	}
	before, err := l.snapshot()
	if err != nil {
		return err
	}
	if err := l.rewardsVault.Add(amount); err != nil {
		return err
	}
	l.sctx.Emit("RewardsVaultCredited", "amount", amount)
	return l.emitDelta("CreditRewardsVault", before)
}

func (l *Ledger) mint(account pool.Address, shares *big.Int) error {
	if shares.Sign() == 0 {
		return nil
	}
	balance, err := l.shares.Get(account)
	if err != nil {
		return err
	}
	if err := l.shares.Set(account, balance.Add(balance, shares)); err != nil {
		return err
	}
	return l.totalShares.Add(shares)
}

func (l *Ledger) burn(account pool.Address, shares *big.Int) error {
	balance, err := l.shares.Get(account)
	if err != nil {
		return err
	}
	if balance.Cmp(shares) < 0 {
		return &InsufficientSharesError{Account: account, Required: shares, Available: balance}
	}
	if err := l.shares.Set(account, balance.Sub(balance, shares)); err != nil {
		return err
	}
	return l.totalShares.Sub(shares)
}

func (l *Ledger) move(from, to pool.Address, shares *big.Int) error {
	fromBalance, err := l.shares.Get(from)
	if err != nil {
		return err
	}
	if fromBalance.Cmp(shares) < 0 {
		return &InsufficientSharesError{Account: from, Required: shares, Available: fromBalance}
	}
	if err := l.shares.Set(from, fromBalance.Sub(fromBalance, shares)); err != nil {
		return err
	}
	toBalance, err := l.shares.Get(to)
	if err != nil {
		return err
	}
	return l.shares.Set(to, toBalance.Add(toBalance, shares))
}

type snapshot struct {
	pooled   *big.Int
	shares   *big.Int
	buffered *big.Int
}

func (l *Ledger) snapshot() (*snapshot, error) {
	pooled, total, err := l.totals()
	if err != nil {
		return nil, errors.WithMessage(err, "ledger totals")
	}
	buffered, err := l.buffered.Get()
	if err != nil {
		return nil, err
	}
	return &snapshot{pooled: pooled, shares: total, buffered: buffered}, nil
}

// emitDelta records the totals before and after a mutating operation.
func (l *Ledger) emitDelta(op string, before *snapshot) error {
	after, err := l.snapshot()
	if err != nil {
		return err
	}
	l.sctx.Emit("StateDelta",
		"op", op,
		"pooledBefore", before.pooled,
		"pooledAfter", after.pooled,
		"sharesBefore", before.shares,
		"sharesAfter", after.shares,
	)
	return nil
}
