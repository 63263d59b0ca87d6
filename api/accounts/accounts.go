// Copyright (c) 2018 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package accounts

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/vechain/stakepool/api/utils"
	"github.com/vechain/stakepool/builtin/ledger"
	"github.com/vechain/stakepool/builtin/protocol"
)

// Accounts serves depositor positions and the share token operations.
type Accounts struct {
	pool *protocol.Pool
}

func New(p *protocol.Pool) *Accounts {
	return &Accounts{pool: p}
}

func (a *Accounts) handleGetAccount(w http.ResponseWriter, req *http.Request) error {
	addr, err := utils.AddressVar(req, "address")
	if err != nil {
		return err
	}
	var acc Account
	if err := a.pool.Read(func(m *protocol.Modules) error {
		shares, err := m.Ledger.SharesOf(addr)
		if err != nil {
			return err
		}
		balance, err := m.Ledger.BalanceOf(addr)
		if err != nil {
			return err
		}
		acc = Account{Shares: utils.Hex(shares), Balance: utils.Hex(balance)}
		return nil
	}); err != nil {
		return err
	}
	return utils.WriteJSON(w, &acc)
}

func (a *Accounts) handleDeposit(w http.ResponseWriter, req *http.Request) error {
	addr, err := utils.AddressVar(req, "address")
	if err != nil {
		return err
	}
	var body DepositRequest
	if err := utils.ParseBody(req, &body); err != nil {
		return err
	}
	amount, err := utils.RequireBigInt("amount", body.Amount)
	if err != nil {
		return err
	}
	shares, receipt, err := a.pool.Deposit(addr, amount)
	if err != nil {
		return err
	}
	return utils.WriteJSON(w, &DepositResponse{Shares: utils.Hex(shares), Receipt: receipt})
}

func (a *Accounts) handleTransfer(w http.ResponseWriter, req *http.Request) error {
	from, err := utils.AddressVar(req, "address")
	if err != nil {
		return err
	}
	var body TransferRequest
	if err := utils.ParseBody(req, &body); err != nil {
		return err
	}
	shares, err := utils.RequireBigInt("shares", body.Shares)
	if err != nil {
		return err
	}
	receipt, err := a.pool.TransferShares(from, body.To, shares)
	if err != nil {
		return err
	}
	return utils.WriteJSON(w, &ReceiptResponse{receipt})
}

func (a *Accounts) handleRequestWithdrawal(w http.ResponseWriter, req *http.Request) error {
	owner, err := utils.AddressVar(req, "address")
	if err != nil {
		return err
	}
	var body WithdrawalRequest
	if err := utils.ParseBody(req, &body); err != nil {
		return err
	}
	shares, err := utils.RequireBigInt("shares", body.Shares)
	if err != nil {
		return err
	}
	id, receipt, err := a.pool.RequestWithdrawal(owner, shares)
	if err != nil {
		return err
	}
	return utils.WriteJSON(w, &WithdrawalResponse{ID: id, Receipt: receipt})
}

func (a *Accounts) handleGetWithdrawal(w http.ResponseWriter, req *http.Request) error {
	id, err := utils.Uint64Var(req, "id")
	if err != nil {
		return err
	}
	var wd *ledger.Withdrawal
	if err := a.pool.Read(func(m *protocol.Modules) (err error) {
		wd, err = m.Ledger.Withdrawal(id)
		return
	}); err != nil {
		return err
	}
	out := &Withdrawal{
		ID:     id,
		Owner:  wd.Owner,
		Shares: utils.Hex(wd.Shares),
		Status: wd.Status.String(),
	}
	if wd.Status != ledger.WithdrawalPending {
		out.Value = utils.Hex(wd.Value)
	}
	return utils.WriteJSON(w, out)
}

func (a *Accounts) handleClaimWithdrawal(w http.ResponseWriter, req *http.Request) error {
	owner, err := utils.AddressVar(req, "address")
	if err != nil {
		return err
	}
	id, err := utils.Uint64Var(req, "id")
	if err != nil {
		return err
	}
	value, receipt, err := a.pool.ClaimWithdrawal(owner, id)
	if err != nil {
		return err
	}
	return utils.WriteJSON(w, &ClaimResponse{Value: utils.Hex(value), Receipt: receipt})
}

func (a *Accounts) Mount(root *mux.Router, pathPrefix string) {
	sub := root.PathPrefix(pathPrefix).Subrouter()

	sub.Path("/withdrawals/{id}").
		Methods(http.MethodGet).
		Name("GET /accounts/withdrawals/{id}").
		HandlerFunc(utils.WrapHandlerFunc(a.handleGetWithdrawal))
	sub.Path("/{address}").
		Methods(http.MethodGet).
		Name("GET /accounts/{address}").
		HandlerFunc(utils.WrapHandlerFunc(a.handleGetAccount))
	sub.Path("/{address}/deposits").
		Methods(http.MethodPost).
		Name("POST /accounts/{address}/deposits").
		HandlerFunc(utils.WrapHandlerFunc(a.handleDeposit))
	sub.Path("/{address}/transfers").
		Methods(http.MethodPost).
		Name("POST /accounts/{address}/transfers").
		HandlerFunc(utils.WrapHandlerFunc(a.handleTransfer))
	sub.Path("/{address}/withdrawals").
		Methods(http.MethodPost).
		Name("POST /accounts/{address}/withdrawals").
		HandlerFunc(utils.WrapHandlerFunc(a.handleRequestWithdrawal))
	sub.Path("/{address}/withdrawals/{id}/claim").
		Methods(http.MethodPost).
		Name("POST /accounts/{address}/withdrawals/{id}/claim").
		HandlerFunc(utils.WrapHandlerFunc(a.handleClaimWithdrawal))
}
