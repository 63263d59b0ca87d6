// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package oracle

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/vechain/stakepool/api/utils"
	poolOracle "github.com/vechain/stakepool/builtin/oracle"
	"github.com/vechain/stakepool/builtin/protocol"
)

// Oracle serves the report consensus.
type Oracle struct {
	pool *protocol.Pool
}

func New(p *protocol.Pool) *Oracle {
	return &Oracle{pool: p}
}

func (o *Oracle) handleStatus(w http.ResponseWriter, _ *http.Request) error {
	now := o.pool.Now()
	var out Status
	if err := o.pool.Read(func(m *protocol.Modules) (err error) {
		if out.Members, err = m.Oracle.Members(); err != nil {
			return
		}
		if out.Quorum, err = m.Oracle.Quorum(); err != nil {
			return
		}
		if out.ExpectedEpoch, err = m.Oracle.ExpectedEpoch(); err != nil {
			return
		}
		if out.LastCompleted, out.Completed, err = m.Oracle.LastCompleted(); err != nil {
			return
		}
		out.Frame = m.Oracle.CurrentFrame(now)
		out.Spec = m.Oracle.Spec()
		return nil
	}); err != nil {
		return err
	}
	return utils.WriteJSON(w, &out)
}

func (o *Oracle) handleTally(w http.ResponseWriter, req *http.Request) error {
	epoch, err := utils.Uint64Var(req, "epoch")
	if err != nil {
		return err
	}
	var variants []poolOracle.Variant
	if err := o.pool.Read(func(m *protocol.Modules) (err error) {
		variants, err = m.Oracle.Tally(epoch)
		return
	}); err != nil {
		return err
	}
	if variants == nil {
		variants = []poolOracle.Variant{}
	}
	return utils.WriteJSON(w, variants)
}

func (o *Oracle) handleReport(w http.ResponseWriter, req *http.Request) error {
	var body ReportRequest
	if err := utils.ParseBody(req, &body); err != nil {
		return err
	}
	sub, receipt, err := o.pool.ReportBeacon(body.Caller, body.Report.ledgerReport())
	if err != nil {
		return err
	}
	out := &ReportResponse{
		Hash:      sub.Hash,
		Count:     sub.Count,
		Completed: sub.Completed,
		Receipt:   receipt,
	}
	if sub.Result != nil {
		out.Result = &ReportResult{
			Delta:       utils.Hex(sub.Result.Delta),
			PooledAfter: utils.Hex(sub.Result.PooledAfter),
			SharesAfter: utils.Hex(sub.Result.SharesAfter),
		}
	}
	return utils.WriteJSON(w, out)
}

func (o *Oracle) handleExits(w http.ResponseWriter, req *http.Request) error {
	var body ExitsRequest
	if err := utils.ParseBody(req, &body); err != nil {
		return err
	}
	receipt, err := o.pool.ConfirmExited(body.Caller, body.Indices)
	if err != nil {
		return err
	}
	return utils.WriteJSON(w, &ReceiptResponse{receipt})
}

func (o *Oracle) handleAddMember(w http.ResponseWriter, req *http.Request) error {
	var body MemberRequest
	if err := utils.ParseBody(req, &body); err != nil {
		return err
	}
	receipt, err := o.pool.AddOracleMember(body.Caller, body.Member)
	if err != nil {
		return err
	}
	return utils.WriteJSON(w, &ReceiptResponse{receipt})
}

func (o *Oracle) handleRemoveMember(w http.ResponseWriter, req *http.Request) error {
	var body MemberRequest
	if err := utils.ParseBody(req, &body); err != nil {
		return err
	}
	receipt, err := o.pool.RemoveOracleMember(body.Caller, body.Member)
	if err != nil {
		return err
	}
	return utils.WriteJSON(w, &ReceiptResponse{receipt})
}

func (o *Oracle) handleSetQuorum(w http.ResponseWriter, req *http.Request) error {
	var body QuorumRequest
	if err := utils.ParseBody(req, &body); err != nil {
		return err
	}
	receipt, err := o.pool.SetOracleQuorum(body.Caller, body.Quorum)
	if err != nil {
		return err
	}
	return utils.WriteJSON(w, &ReceiptResponse{receipt})
}

func (o *Oracle) Mount(root *mux.Router, pathPrefix string) {
	sub := root.PathPrefix(pathPrefix).Subrouter()

	sub.Path("").
		Methods(http.MethodGet).
		Name("GET /oracle").
		HandlerFunc(utils.WrapHandlerFunc(o.handleStatus))
	sub.Path("/tally/{epoch}").
		Methods(http.MethodGet).
		Name("GET /oracle/tally/{epoch}").
		HandlerFunc(utils.WrapHandlerFunc(o.handleTally))
	sub.Path("/reports").
		Methods(http.MethodPost).
		Name("POST /oracle/reports").
		HandlerFunc(utils.WrapHandlerFunc(o.handleReport))
	sub.Path("/exits").
		Methods(http.MethodPost).
		Name("POST /oracle/exits").
		HandlerFunc(utils.WrapHandlerFunc(o.handleExits))
	sub.Path("/members").
		Methods(http.MethodPost).
		Name("POST /oracle/members").
		HandlerFunc(utils.WrapHandlerFunc(o.handleAddMember))
	sub.Path("/members/removal").
		Methods(http.MethodPost).
		Name("POST /oracle/members/removal").
		HandlerFunc(utils.WrapHandlerFunc(o.handleRemoveMember))
	sub.Path("/quorum").
		Methods(http.MethodPost).
		Name("POST /oracle/quorum").
		HandlerFunc(utils.WrapHandlerFunc(o.handleSetQuorum))
}
