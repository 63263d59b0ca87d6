// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package vault keeps the collateral vault of every operator. Vaults are records in one module
// indexed by operator id. Collateral is the ledger share balance of the vault account.
package vault

import (
	"math/big"

	"github.com/vechain/stakepool/builtin/ledger"
	"github.com/vechain/stakepool/builtin/registry"
	"github.com/vechain/stakepool/builtin/reverts"
	"github.com/vechain/stakepool/builtin/solidity"
	"github.com/vechain/stakepool/log"
	"github.com/vechain/stakepool/pool"
)

var logger = log.WithContext("pkg", "vault")

var slotRecords = pool.BytesToBytes32([]byte("vaults"))

// Registry is the part of the validator registry vaults forward to.
type Registry interface {
	GetOperator(addr pool.Address) (*registry.Operator, error)
	SubmitValidators(caller, operator pool.Address, pubkeys, preSignatures, depositSignatures []byte) ([]uint64, error)
	RequestVoluntaryExit(caller pool.Address, indices []uint64) error
	RequiredCollateral(op *registry.Operator) (*big.Int, error)
	WithdrawalCredentials() []byte
}

// Ledger is the part of the exchange rate ledger vaults use.
type Ledger interface {
	Deposit(account pool.Address, amount *big.Int) (*big.Int, error)
	SharesOf(account pool.Address) (*big.Int, error)
	SharesToValue(shares *big.Int) (*big.Int, error)
	ValueToShares(value *big.Int) (*big.Int, error)
	ReleaseCollateral(caller, vault, to pool.Address, shares *big.Int) error
}

// Record is the vault of one operator.
type Record struct {
	OperatorID uint64       `json:"operatorId"`
	Operator   pool.Address `json:"operator"`
	Account    pool.Address `json:"account"`
	Staked     *big.Int     `json:"staked"`  // value ever posted
	Claimed    *big.Int     `json:"claimed"` // shares ever claimed as rewards
}

type Vault struct {
	sctx     *solidity.Context
	registry Registry
	ledger   Ledger
	records  *solidity.Mapping[solidity.Uint64Key, *Record]
}

func New(sctx *solidity.Context, reg Registry, l Ledger) *Vault {
	return &Vault{
		sctx:     sctx,
		registry: reg,
		ledger:   l,
		records:  solidity.NewMapping[solidity.Uint64Key, *Record](sctx, slotRecords),
	}
}

// WithdrawalCredentials returns the credentials every vault deposits with. They encode the
// pool's rewards vault and are not chosen by operators.
func (v *Vault) WithdrawalCredentials() []byte {
	return v.registry.WithdrawalCredentials()
}

// Open creates the vault record of a newly registered operator.
func (v *Vault) Open(op *registry.Operator) (*Record, error) {
	rec, err := v.records.Get(solidity.Uint64Key(op.ID))
	if err != nil {
		return nil, err
	}
	if rec.OperatorID != 0 {
		return nil, &registry.OperatorAlreadyExistsError{Operator: op.Address}
	}
	rec = &Record{
		OperatorID: op.ID,
		Operator:   op.Address,
		Account:    op.Vault,
		Staked:     new(big.Int),
		Claimed:    new(big.Int),
	}
	if err := v.records.Set(solidity.Uint64Key(op.ID), rec); err != nil {
		return nil, err
	}
	v.sctx.Emit("VaultOpened", "operator", op.Address, "vault", op.Vault)
	return rec, nil
}

// Get returns the vault of operator along with the operator record.
func (v *Vault) Get(operator pool.Address) (*Record, *registry.Operator, error) {
	op, err := v.registry.GetOperator(operator)
	if err != nil {
		return nil, nil, err
	}
	rec, err := v.records.Get(solidity.Uint64Key(op.ID))
	if err != nil {
		return nil, nil, err
	}
	if rec.OperatorID == 0 {
		return nil, nil, &registry.OperatorNotFoundError{Operator: operator}
	}
	return rec, op, nil
}

// Collateral returns the share balance of the vault and its value.
func (v *Vault) Collateral(operator pool.Address) (shares, value *big.Int, err error) {
	rec, _, err := v.Get(operator)
	if err != nil {
		return nil, nil, err
	}
	if shares, err = v.ledger.SharesOf(rec.Account); err != nil {
		return nil, nil, err
	}
	value, err = v.ledger.SharesToValue(shares)
	return
}

// AddStakes deposits value into the ledger on behalf of the vault account.
func (v *Vault) AddStakes(operator pool.Address, value *big.Int) (*big.Int, error) {
	rec, _, err := v.Get(operator)
	if err != nil {
		return nil, err
	}
	shares, err := v.ledger.Deposit(rec.Account, value)
	if err != nil {
		return nil, err
	}
	rec.Staked.Add(rec.Staked, value)
	if err := v.records.Set(solidity.Uint64Key(rec.OperatorID), rec); err != nil {
		return nil, err
	}
	v.sctx.Emit("StakesAdded", "operator", operator, "value", value, "shares", shares)
	logger.Debug("stakes added", "operator", operator, "value", value, "shares", shares)
	return shares, nil
}

// AddValidators submits deposit material to the registry. Only the bound operator may call.
func (v *Vault) AddValidators(caller, operator pool.Address, pubkeys, preSignatures, depositSignatures []byte) ([]uint64, error) {
	rec, _, err := v.Get(operator)
	if err != nil {
		return nil, err
	}
	if caller != rec.Operator {
		return nil, reverts.Unauthorized("vault operator", caller)
	}
	return v.registry.SubmitValidators(rec.Account, rec.Operator, pubkeys, preSignatures, depositSignatures)
}

// RequestExit asks the registry to exit validators of the operator.
func (v *Vault) RequestExit(caller, operator pool.Address, indices []uint64) error {
	rec, _, err := v.Get(operator)
	if err != nil {
		return err
	}
	if caller != rec.Operator {
		return reverts.Unauthorized("vault operator", caller)
	}
	return v.registry.RequestVoluntaryExit(rec.Operator, indices)
}

// ClaimRewards transfers the vault shares above the required collateral to the operator's
// withdraw address. A deactivated operator can not claim.
func (v *Vault) ClaimRewards(caller, operator pool.Address) (*big.Int, error) {
	rec, op, err := v.Get(operator)
	if err != nil {
		return nil, err
	}
	if caller != rec.Operator {
		return nil, reverts.Unauthorized("vault operator", caller)
	}
	if !op.IsActive {
		return nil, &registry.OperatorInactiveError{Operator: operator}
	}

	shares, err := v.ledger.SharesOf(rec.Account)
	if err != nil {
		return nil, err
	}
	value, err := v.ledger.SharesToValue(shares)
	if err != nil {
		return nil, err
	}
	required, err := v.registry.RequiredCollateral(op)
	if err != nil {
		return nil, err
	}
	if value.Cmp(required) <= 0 {
		return nil, &ledger.ZeroAmountError{Field: "rewards"}
	}
	surplus, err := v.ledger.ValueToShares(new(big.Int).Sub(value, required))
	if err != nil {
		return nil, err
	}
	if surplus.Sign() == 0 {
		return nil, &ledger.ZeroAmountError{Field: "rewards"}
	}
	if err := v.ledger.ReleaseCollateral(v.sctx.Address(), rec.Account, op.WithdrawAddress, surplus); err != nil {
		return nil, err
	}
	rec.Claimed.Add(rec.Claimed, surplus)
	if err := v.records.Set(solidity.Uint64Key(rec.OperatorID), rec); err != nil {
		return nil, err
	}

	v.sctx.Emit("NodeOperatorStakingRewardsClaimed", "operator", operator, "withdrawAddress", op.WithdrawAddress, "shares", surplus)
	logger.Info("operator rewards claimed", "operator", operator, "shares", surplus)
	return surplus, nil
}
