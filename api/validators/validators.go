// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package validators

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"github.com/vechain/stakepool/api/utils"
	"github.com/vechain/stakepool/builtin/protocol"
	"github.com/vechain/stakepool/builtin/registry"
)

// Validators serves the validator set and the guardian gated transitions.
type Validators struct {
	pool *protocol.Pool
}

func New(p *protocol.Pool) *Validators {
	return &Validators{pool: p}
}

func parseStatus(s string) (registry.Status, error) {
	for st := registry.StatusWaitingActivated; st <= registry.StatusUnsafe; st++ {
		if strings.EqualFold(st.String(), s) {
			return st, nil
		}
	}
	return registry.StatusNotExist, utils.BadRequest(errors.New("status: unknown " + s))
}

func (v *Validators) handleList(w http.ResponseWriter, req *http.Request) error {
	filter := registry.StatusNotExist
	if s := req.URL.Query().Get("status"); s != "" {
		st, err := parseStatus(s)
		if err != nil {
			return err
		}
		filter = st
	}
	out := []*Validator{}
	if err := v.pool.Read(func(m *protocol.Modules) error {
		count, err := m.Registry.ValidatorCount()
		if err != nil {
			return err
		}
		for i := range count {
			val, err := m.Registry.GetValidator(i)
			if err != nil {
				return err
			}
			if filter == registry.StatusNotExist || val.Status == filter {
				out = append(out, convertValidator(val))
			}
		}
		return nil
	}); err != nil {
		return err
	}
	return utils.WriteJSON(w, out)
}

func (v *Validators) handleGet(w http.ResponseWriter, req *http.Request) error {
	index, err := utils.Uint64Var(req, "index")
	if err != nil {
		return err
	}
	var val *registry.Validator
	if err := v.pool.Read(func(m *protocol.Modules) (err error) {
		val, err = m.Registry.GetValidator(index)
		return
	}); err != nil {
		return err
	}
	return utils.WriteJSON(w, convertValidator(val))
}

func (v *Validators) handleActivate(w http.ResponseWriter, req *http.Request) error {
	var body ActivateRequest
	if err := utils.ParseBody(req, &body); err != nil {
		return err
	}
	if body.Proof == nil {
		return utils.BadRequest(errors.New("proof: missing"))
	}
	receipt, err := v.pool.ActivateValidators(body.Proof, body.Indices)
	if err != nil {
		return err
	}
	return utils.WriteJSON(w, &ReceiptResponse{receipt})
}

func (v *Validators) parsePenalty(req *http.Request) (uint64, *PenaltyRequest, error) {
	index, err := utils.Uint64Var(req, "index")
	if err != nil {
		return 0, nil, err
	}
	var body PenaltyRequest
	if err := utils.ParseBody(req, &body); err != nil {
		return 0, nil, err
	}
	if body.Proof == nil {
		return 0, nil, utils.BadRequest(errors.New("proof: missing"))
	}
	if body.SlashAmount == nil {
		return 0, nil, utils.BadRequest(errors.New("slashAmount: missing"))
	}
	return index, &body, nil
}

func (v *Validators) handleUnsafe(w http.ResponseWriter, req *http.Request) error {
	index, body, err := v.parsePenalty(req)
	if err != nil {
		return err
	}
	receipt, err := v.pool.ReportUnsafe(body.Proof, index, utils.BigInt(body.SlashAmount))
	if err != nil {
		return err
	}
	return utils.WriteJSON(w, &ReceiptResponse{receipt})
}

func (v *Validators) handleSlashing(w http.ResponseWriter, req *http.Request) error {
	index, body, err := v.parsePenalty(req)
	if err != nil {
		return err
	}
	receipt, err := v.pool.ReportSlashing(body.Proof, index, utils.BigInt(body.SlashAmount), body.Finalized)
	if err != nil {
		return err
	}
	return utils.WriteJSON(w, &ReceiptResponse{receipt})
}

func (v *Validators) Mount(root *mux.Router, pathPrefix string) {
	sub := root.PathPrefix(pathPrefix).Subrouter()

	sub.Path("").
		Methods(http.MethodGet).
		Name("GET /validators").
		HandlerFunc(utils.WrapHandlerFunc(v.handleList))
	sub.Path("/activations").
		Methods(http.MethodPost).
		Name("POST /validators/activations").
		HandlerFunc(utils.WrapHandlerFunc(v.handleActivate))
	sub.Path("/{index}").
		Methods(http.MethodGet).
		Name("GET /validators/{index}").
		HandlerFunc(utils.WrapHandlerFunc(v.handleGet))
	sub.Path("/{index}/unsafe").
		Methods(http.MethodPost).
		Name("POST /validators/{index}/unsafe").
		HandlerFunc(utils.WrapHandlerFunc(v.handleUnsafe))
	sub.Path("/{index}/slashing").
		Methods(http.MethodPost).
		Name("POST /validators/{index}/slashing").
		HandlerFunc(utils.WrapHandlerFunc(v.handleSlashing))
}
