// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package protocol

import (
	"math/big"

	"github.com/vechain/stakepool/builtin/guardian"
	"github.com/vechain/stakepool/builtin/ledger"
	"github.com/vechain/stakepool/builtin/oracle"
	"github.com/vechain/stakepool/builtin/registry"
	"github.com/vechain/stakepool/pool"
)

//
// Depositors
//

func (p *Pool) Deposit(account pool.Address, amount *big.Int) (shares *big.Int, r *Receipt, err error) {
	r, err = p.atomic("Deposit", func() (err error) {
		shares, err = p.mods.Ledger.Deposit(account, amount)
		return
	})
	return
}

func (p *Pool) TransferShares(from, to pool.Address, shares *big.Int) (*Receipt, error) {
	return p.atomic("TransferShares", func() error {
		return p.mods.Ledger.TransferShares(from, to, shares)
	})
}

func (p *Pool) RequestWithdrawal(owner pool.Address, shares *big.Int) (id uint64, r *Receipt, err error) {
	r, err = p.atomic("RequestWithdrawal", func() (err error) {
		id, err = p.mods.Ledger.RequestWithdrawal(owner, shares)
		return
	})
	return
}

func (p *Pool) ClaimWithdrawal(owner pool.Address, id uint64) (value *big.Int, r *Receipt, err error) {
	r, err = p.atomic("ClaimWithdrawal", func() (err error) {
		value, err = p.mods.Ledger.ClaimWithdrawal(owner, id)
		return
	})
	return
}

// CreditRewardsVault records value received by the rewards vault.
func (p *Pool) CreditRewardsVault(amount *big.Int) (*Receipt, error) {
	return p.atomic("CreditRewardsVault", func() error {
		return p.mods.Ledger.CreditRewardsVault(amount)
	})
}

func (p *Pool) SetFees(caller pool.Address, fees ledger.Fees) (*Receipt, error) {
	return p.atomic("SetFees", func() error {
		return p.mods.Ledger.SetFees(caller, fees)
	})
}

//
// Operators
//

// RegisterOperator registers caller and opens its vault.
func (p *Pool) RegisterOperator(caller, withdrawAddress pool.Address) (op *registry.Operator, r *Receipt, err error) {
	r, err = p.atomic("RegisterOperator", func() (err error) {
		if op, err = p.mods.Registry.RegisterOperator(caller, withdrawAddress); err != nil {
			return err
		}
		_, err = p.mods.Vault.Open(op)
		return err
	})
	return
}

func (p *Pool) AddStakes(operator pool.Address, value *big.Int) (shares *big.Int, r *Receipt, err error) {
	r, err = p.atomic("AddStakes", func() (err error) {
		shares, err = p.mods.Vault.AddStakes(operator, value)
		return
	})
	return
}

func (p *Pool) AddValidators(caller, operator pool.Address, pubkeys, preSignatures, depositSignatures []byte) (indices []uint64, r *Receipt, err error) {
	r, err = p.atomic("AddValidators", func() (err error) {
		indices, err = p.mods.Vault.AddValidators(caller, operator, pubkeys, preSignatures, depositSignatures)
		return
	})
	return
}

func (p *Pool) RequestExit(caller, operator pool.Address, indices []uint64) (*Receipt, error) {
	return p.atomic("RequestExit", func() error {
		return p.mods.Vault.RequestExit(caller, operator, indices)
	})
}

func (p *Pool) ClaimRewards(caller, operator pool.Address) (shares *big.Int, r *Receipt, err error) {
	r, err = p.atomic("ClaimRewards", func() (err error) {
		shares, err = p.mods.Vault.ClaimRewards(caller, operator)
		return
	})
	return
}

//
// Guardians
//

func (p *Pool) ActivateValidators(proof *guardian.Proof, indices []uint64) (*Receipt, error) {
	return p.atomic("ActivateValidators", func() error {
		return p.mods.Registry.ActivateValidators(proof, indices)
	})
}

func (p *Pool) ReportUnsafe(proof *guardian.Proof, index uint64, slashAmount *big.Int) (*Receipt, error) {
	return p.atomic("ReportUnsafe", func() error {
		return p.mods.Registry.ReportUnsafe(proof, index, slashAmount)
	})
}

func (p *Pool) ReportSlashing(proof *guardian.Proof, index uint64, slashAmount *big.Int, finalized bool) (*Receipt, error) {
	return p.atomic("ReportSlashing", func() error {
		return p.mods.Registry.ReportSlashing(proof, index, slashAmount, finalized)
	})
}

func (p *Pool) SetMinOperatorStakingAmount(caller pool.Address, amount *big.Int) (*Receipt, error) {
	return p.atomic("SetMinOperatorStakingAmount", func() error {
		return p.mods.Registry.SetMinOperatorStakingAmount(caller, amount)
	})
}

func (p *Pool) SetOperatorActiveStatus(caller, operator pool.Address, active bool) (*Receipt, error) {
	return p.atomic("SetOperatorActiveStatus", func() error {
		return p.mods.Registry.SetOperatorActiveStatus(caller, operator, active)
	})
}

//
// Oracle
//

// ReportBeacon submits the report of an oracle member for the frame open at the pool clock.
func (p *Pool) ReportBeacon(caller pool.Address, report ledger.Report) (sub *oracle.Submission, r *Receipt, err error) {
	r, err = p.atomic("ReportBeacon", func() (err error) {
		sub, err = p.mods.Oracle.ReportBeacon(caller, report, p.clock())
		return
	})
	return
}

func (p *Pool) ConfirmExited(caller pool.Address, indices []uint64) (*Receipt, error) {
	return p.atomic("ConfirmExited", func() error {
		return p.mods.Oracle.ConfirmExited(caller, indices)
	})
}

func (p *Pool) AddOracleMember(caller, member pool.Address) (*Receipt, error) {
	return p.atomic("AddOracleMember", func() error {
		return p.mods.Oracle.AddMember(caller, member)
	})
}

func (p *Pool) RemoveOracleMember(caller, member pool.Address) (*Receipt, error) {
	return p.atomic("RemoveOracleMember", func() error {
		return p.mods.Oracle.RemoveMember(caller, member)
	})
}

func (p *Pool) SetOracleQuorum(caller pool.Address, quorum uint64) (*Receipt, error) {
	return p.atomic("SetOracleQuorum", func() error {
		return p.mods.Oracle.SetQuorum(caller, quorum)
	})
}
