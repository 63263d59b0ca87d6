// Copyright (c) 2018 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package node

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/vechain/stakepool/api/utils"
	"github.com/vechain/stakepool/builtin/ledger"
	"github.com/vechain/stakepool/builtin/protocol"
	"github.com/vechain/stakepool/chain"
)

// Node serves pool wide state: totals, fees, the chain head and operation receipts.
type Node struct {
	pool *protocol.Pool
}

func New(p *protocol.Pool) *Node {
	return &Node{pool: p}
}

func (n *Node) handleStats(w http.ResponseWriter, _ *http.Request) error {
	var out *Stats
	if err := n.pool.Read(func(m *protocol.Modules) error {
		stats, err := m.Stats()
		if err != nil {
			return err
		}
		counts, err := m.ValidatorsByStatus()
		if err != nil {
			return err
		}
		byStatus := make(map[string]uint64, len(counts))
		for status, count := range counts {
			byStatus[status.String()] = count
		}
		out = convertStats(stats, byStatus)
		return nil
	}); err != nil {
		return err
	}
	return utils.WriteJSON(w, out)
}

func (n *Node) handleGetFees(w http.ResponseWriter, _ *http.Request) error {
	var fees *ledger.Fees
	if err := n.pool.Read(func(m *protocol.Modules) (err error) {
		fees, err = m.Ledger.Fees()
		return
	}); err != nil {
		return err
	}
	return utils.WriteJSON(w, fees)
}

func (n *Node) handleSetFees(w http.ResponseWriter, req *http.Request) error {
	var body FeesRequest
	if err := utils.ParseBody(req, &body); err != nil {
		return err
	}
	receipt, err := n.pool.SetFees(body.Caller, body.Fees)
	if err != nil {
		return err
	}
	return utils.WriteJSON(w, &ReceiptResponse{receipt})
}

func (n *Node) handleCreditRewardsVault(w http.ResponseWriter, req *http.Request) error {
	var body CreditRequest
	if err := utils.ParseBody(req, &body); err != nil {
		return err
	}
	amount, err := utils.RequireBigInt("amount", body.Amount)
	if err != nil {
		return err
	}
	receipt, err := n.pool.CreditRewardsVault(amount)
	if err != nil {
		return err
	}
	return utils.WriteJSON(w, &ReceiptResponse{receipt})
}

func (n *Node) handleGetHead(w http.ResponseWriter, _ *http.Request) error {
	var head chain.Header
	if err := n.pool.Read(func(m *protocol.Modules) error {
		head = m.Chain.Head()
		return nil
	}); err != nil {
		return err
	}
	return utils.WriteJSON(w, convertHead(head))
}

func (n *Node) handleSetHead(w http.ResponseWriter, req *http.Request) error {
	var body Head
	if err := utils.ParseBody(req, &body); err != nil {
		return err
	}
	if body.Hash.IsZero() {
		return utils.BadRequest(errors.New("hash: missing"))
	}
	if err := n.pool.SetHead(body.header()); err != nil {
		if errors.Is(err, chain.ErrNotContinuous) {
			return utils.HTTPError(err, http.StatusConflict)
		}
		return err
	}
	return utils.WriteJSON(w, &body)
}

func (n *Node) handleGetReceipts(w http.ResponseWriter, req *http.Request) error {
	var after uint64
	if s := req.URL.Query().Get("after"); s != "" {
		v, err := strconv.ParseUint(s, 0, 64)
		if err != nil {
			return utils.BadRequest(errors.New("after: " + err.Error()))
		}
		after = v
	}
	receipts := n.pool.Receipts(after)
	if receipts == nil {
		receipts = []*protocol.Receipt{}
	}
	return utils.WriteJSON(w, receipts)
}

func (n *Node) handleGetReceipt(w http.ResponseWriter, req *http.Request) error {
	seq, err := utils.Uint64Var(req, "seq")
	if err != nil {
		return err
	}
	receipt, ok := n.pool.Receipt(seq)
	if !ok {
		return utils.NotFound(errors.New("receipt not found"))
	}
	return utils.WriteJSON(w, receipt)
}

func (n *Node) Mount(root *mux.Router, pathPrefix string) {
	sub := root.PathPrefix(pathPrefix).Subrouter()

	sub.Path("/stats").
		Methods(http.MethodGet).
		Name("GET /node/stats").
		HandlerFunc(utils.WrapHandlerFunc(n.handleStats))
	sub.Path("/fees").
		Methods(http.MethodGet).
		Name("GET /node/fees").
		HandlerFunc(utils.WrapHandlerFunc(n.handleGetFees))
	sub.Path("/fees").
		Methods(http.MethodPost).
		Name("POST /node/fees").
		HandlerFunc(utils.WrapHandlerFunc(n.handleSetFees))
	sub.Path("/rewards-vault").
		Methods(http.MethodPost).
		Name("POST /node/rewards-vault").
		HandlerFunc(utils.WrapHandlerFunc(n.handleCreditRewardsVault))
	sub.Path("/head").
		Methods(http.MethodGet).
		Name("GET /node/head").
		HandlerFunc(utils.WrapHandlerFunc(n.handleGetHead))
	sub.Path("/head").
		Methods(http.MethodPost).
		Name("POST /node/head").
		HandlerFunc(utils.WrapHandlerFunc(n.handleSetHead))
	sub.Path("/receipts").
		Methods(http.MethodGet).
		Name("GET /node/receipts").
		HandlerFunc(utils.WrapHandlerFunc(n.handleGetReceipts))
	sub.Path("/receipts/{seq}").
		Methods(http.MethodGet).
		Name("GET /node/receipts/{seq}").
		HandlerFunc(utils.WrapHandlerFunc(n.handleGetReceipt))
}
