// Copyright (c) 2024 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package health

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/pkg/errors"

	"github.com/vechain/stakepool/api/utils"
)

type API struct {
	health *Health
}

func NewAPI(health *Health) *API {
	return &API{health: health}
}

func (h *API) handleGetHealth(w http.ResponseWriter, r *http.Request) error {
	query := r.URL.Query()

	maxTimeBetweenHeads := defaultMaxTimeBetweenHeads
	if v := query.Get("maxTimeBetweenHeads"); v != "" {
		parsed, err := time.ParseDuration(v)
		if err != nil {
			return utils.BadRequest(errors.WithMessage(err, "maxTimeBetweenHeads"))
		}
		maxTimeBetweenHeads = parsed
	}
	// oracle lag only counts when asked for
	maxFramesBehind := -1
	if v := query.Get("maxFramesBehind"); v != "" {
		parsed, err := strconv.ParseUint(v, 10, 16)
		if err != nil {
			return utils.BadRequest(errors.WithMessage(err, "maxFramesBehind"))
		}
		maxFramesBehind = int(parsed)
	}

	status, err := h.health.Status(maxTimeBetweenHeads, maxFramesBehind)
	if err != nil {
		return err
	}

	w.Header().Set("Content-Type", utils.JSONContentType)
	if status.Healthy {
		w.WriteHeader(http.StatusOK)
	} else {
		w.WriteHeader(http.StatusServiceUnavailable)
	}
	return utils.WriteJSON(w, status)
}

func (h *API) Mount(root *mux.Router, pathPrefix string) {
	sub := root.PathPrefix(pathPrefix).Subrouter()

	sub.Path("").
		Methods(http.MethodGet).
		Name("health").
		HandlerFunc(utils.WrapHandlerFunc(h.handleGetHealth))
}
