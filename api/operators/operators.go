// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package operators

import (
	"net/http"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/gorilla/mux"

	"github.com/vechain/stakepool/api/utils"
	"github.com/vechain/stakepool/builtin/protocol"
	"github.com/vechain/stakepool/builtin/registry"
)

type Operators struct {
	pool *protocol.Pool
}

func New(p *protocol.Pool) *Operators {
	return &Operators{pool: p}
}

func describe(m *protocol.Modules, op *registry.Operator) (*Operator, error) {
	shares, value, err := m.Vault.Collateral(op.Address)
	if err != nil {
		return nil, err
	}
	required, err := m.Registry.RequiredCollateral(op)
	if err != nil {
		return nil, err
	}
	return &Operator{
		Operator:           op,
		CollateralShares:   utils.Hex(shares),
		CollateralValue:    utils.Hex(value),
		RequiredCollateral: utils.Hex(required),
	}, nil
}

func (o *Operators) handleList(w http.ResponseWriter, _ *http.Request) error {
	out := []*Operator{}
	if err := o.pool.Read(func(m *protocol.Modules) error {
		ops, err := m.Registry.Operators()
		if err != nil {
			return err
		}
		for _, op := range ops {
			d, err := describe(m, op)
			if err != nil {
				return err
			}
			out = append(out, d)
		}
		return nil
	}); err != nil {
		return err
	}
	return utils.WriteJSON(w, out)
}

func (o *Operators) handleGet(w http.ResponseWriter, req *http.Request) error {
	addr, err := utils.AddressVar(req, "address")
	if err != nil {
		return err
	}
	var out *Operator
	if err := o.pool.Read(func(m *protocol.Modules) error {
		op, err := m.Registry.GetOperator(addr)
		if err != nil {
			return err
		}
		out, err = describe(m, op)
		return err
	}); err != nil {
		return err
	}
	return utils.WriteJSON(w, out)
}

func (o *Operators) handleRegister(w http.ResponseWriter, req *http.Request) error {
	var body RegisterRequest
	if err := utils.ParseBody(req, &body); err != nil {
		return err
	}
	op, receipt, err := o.pool.RegisterOperator(body.Caller, body.WithdrawAddress)
	if err != nil {
		return err
	}
	return utils.WriteJSON(w, &RegisterResponse{Operator: op, Receipt: receipt})
}

func (o *Operators) handleAddStakes(w http.ResponseWriter, req *http.Request) error {
	addr, err := utils.AddressVar(req, "address")
	if err != nil {
		return err
	}
	var body StakesRequest
	if err := utils.ParseBody(req, &body); err != nil {
		return err
	}
	value, err := utils.RequireBigInt("value", body.Value)
	if err != nil {
		return err
	}
	shares, receipt, err := o.pool.AddStakes(addr, value)
	if err != nil {
		return err
	}
	return utils.WriteJSON(w, &StakesResponse{Shares: utils.Hex(shares), Receipt: receipt})
}

func (o *Operators) handleAddValidators(w http.ResponseWriter, req *http.Request) error {
	addr, err := utils.AddressVar(req, "address")
	if err != nil {
		return err
	}
	var body ValidatorsRequest
	if err := utils.ParseBody(req, &body); err != nil {
		return err
	}
	indices, receipt, err := o.pool.AddValidators(body.Caller, addr, body.Pubkeys, body.PreSignatures, body.DepositSignatures)
	if err != nil {
		return err
	}
	return utils.WriteJSON(w, &ValidatorsResponse{Indices: indices, Receipt: receipt})
}

func (o *Operators) handleRequestExit(w http.ResponseWriter, req *http.Request) error {
	addr, err := utils.AddressVar(req, "address")
	if err != nil {
		return err
	}
	var body ExitRequest
	if err := utils.ParseBody(req, &body); err != nil {
		return err
	}
	receipt, err := o.pool.RequestExit(body.Caller, addr, body.Indices)
	if err != nil {
		return err
	}
	return utils.WriteJSON(w, &ReceiptResponse{receipt})
}

func (o *Operators) handleClaimRewards(w http.ResponseWriter, req *http.Request) error {
	addr, err := utils.AddressVar(req, "address")
	if err != nil {
		return err
	}
	var body CallerRequest
	if err := utils.ParseBody(req, &body); err != nil {
		return err
	}
	shares, receipt, err := o.pool.ClaimRewards(body.Caller, addr)
	if err != nil {
		return err
	}
	return utils.WriteJSON(w, &RewardsResponse{Shares: utils.Hex(shares), Receipt: receipt})
}

func (o *Operators) handleSetStatus(w http.ResponseWriter, req *http.Request) error {
	addr, err := utils.AddressVar(req, "address")
	if err != nil {
		return err
	}
	var body StatusRequest
	if err := utils.ParseBody(req, &body); err != nil {
		return err
	}
	receipt, err := o.pool.SetOperatorActiveStatus(body.Caller, addr, body.Active)
	if err != nil {
		return err
	}
	return utils.WriteJSON(w, &ReceiptResponse{receipt})
}

func (o *Operators) handleGetMinStake(w http.ResponseWriter, _ *http.Request) error {
	var out utils.M
	if err := o.pool.Read(func(m *protocol.Modules) error {
		amount, err := m.Registry.MinOperatorStakingAmount()
		if err != nil {
			return err
		}
		out = utils.M{"amount": utils.Hex(amount)}
		return nil
	}); err != nil {
		return err
	}
	return utils.WriteJSON(w, out)
}

func (o *Operators) handleSetMinStake(w http.ResponseWriter, req *http.Request) error {
	var body MinStakeRequest
	if err := utils.ParseBody(req, &body); err != nil {
		return err
	}
	amount, err := utils.RequireBigInt("amount", body.Amount)
	if err != nil {
		return err
	}
	receipt, err := o.pool.SetMinOperatorStakingAmount(body.Caller, amount)
	if err != nil {
		return err
	}
	return utils.WriteJSON(w, &ReceiptResponse{receipt})
}

func (o *Operators) handleWithdrawalCredentials(w http.ResponseWriter, _ *http.Request) error {
	var creds []byte
	if err := o.pool.Read(func(m *protocol.Modules) error {
		creds = m.Vault.WithdrawalCredentials()
		return nil
	}); err != nil {
		return err
	}
	return utils.WriteJSON(w, utils.M{"withdrawalCredentials": hexutil.Bytes(creds)})
}

func (o *Operators) Mount(root *mux.Router, pathPrefix string) {
	sub := root.PathPrefix(pathPrefix).Subrouter()

	sub.Path("").
		Methods(http.MethodGet).
		Name("GET /operators").
		HandlerFunc(utils.WrapHandlerFunc(o.handleList))
	sub.Path("").
		Methods(http.MethodPost).
		Name("POST /operators").
		HandlerFunc(utils.WrapHandlerFunc(o.handleRegister))
	sub.Path("/min-stake").
		Methods(http.MethodGet).
		Name("GET /operators/min-stake").
		HandlerFunc(utils.WrapHandlerFunc(o.handleGetMinStake))
	sub.Path("/min-stake").
		Methods(http.MethodPost).
		Name("POST /operators/min-stake").
		HandlerFunc(utils.WrapHandlerFunc(o.handleSetMinStake))
	sub.Path("/withdrawal-credentials").
		Methods(http.MethodGet).
		Name("GET /operators/withdrawal-credentials").
		HandlerFunc(utils.WrapHandlerFunc(o.handleWithdrawalCredentials))
	sub.Path("/{address}").
		Methods(http.MethodGet).
		Name("GET /operators/{address}").
		HandlerFunc(utils.WrapHandlerFunc(o.handleGet))
	sub.Path("/{address}/stakes").
		Methods(http.MethodPost).
		Name("POST /operators/{address}/stakes").
		HandlerFunc(utils.WrapHandlerFunc(o.handleAddStakes))
	sub.Path("/{address}/validators").
		Methods(http.MethodPost).
		Name("POST /operators/{address}/validators").
		HandlerFunc(utils.WrapHandlerFunc(o.handleAddValidators))
	sub.Path("/{address}/exits").
		Methods(http.MethodPost).
		Name("POST /operators/{address}/exits").
		HandlerFunc(utils.WrapHandlerFunc(o.handleRequestExit))
	sub.Path("/{address}/rewards").
		Methods(http.MethodPost).
		Name("POST /operators/{address}/rewards").
		HandlerFunc(utils.WrapHandlerFunc(o.handleClaimRewards))
	sub.Path("/{address}/status").
		Methods(http.MethodPost).
		Name("POST /operators/{address}/status").
		HandlerFunc(utils.WrapHandlerFunc(o.handleSetStatus))
}
