// Copyright (c) 2018 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package api

import (
	"net/http"
	"net/http/pprof"
	"strings"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"

	"github.com/vechain/stakepool/api/accounts"
	"github.com/vechain/stakepool/api/middleware"
	"github.com/vechain/stakepool/api/node"
	"github.com/vechain/stakepool/api/operators"
	"github.com/vechain/stakepool/api/oracle"
	"github.com/vechain/stakepool/api/subscriptions"
	"github.com/vechain/stakepool/api/validators"
	"github.com/vechain/stakepool/builtin/protocol"
	"github.com/vechain/stakepool/log"
	"github.com/vechain/stakepool/metrics"
)

var logger = log.WithContext("pkg", "api")

type Options struct {
	AllowedOrigins string
	PprofOn        bool
	EnableMetrics  bool
	RequestLogs    middleware.Options
}

// New return api router and a function closing the open subscriptions
func New(p *protocol.Pool, opts Options) (http.HandlerFunc, func()) {
	origins := strings.Split(strings.TrimSpace(opts.AllowedOrigins), ",")
	for i, o := range origins {
		origins[i] = strings.ToLower(strings.TrimSpace(o))
	}

	router := mux.NewRouter()

	accounts.New(p).
		Mount(router, "/accounts")
	node.New(p).
		Mount(router, "/node")
	operators.New(p).
		Mount(router, "/operators")
	validators.New(p).
		Mount(router, "/validators")
	oracle.New(p).
		Mount(router, "/oracle")
	subs := subscriptions.New(p, origins)
	subs.Mount(router, "/subscriptions")

	if opts.PprofOn {
		router.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
		router.HandleFunc("/debug/pprof/profile", pprof.Profile)
		router.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
		router.HandleFunc("/debug/pprof/trace", pprof.Trace)
		router.PathPrefix("/debug/pprof/").HandlerFunc(pprof.Index)
	}

	if opts.EnableMetrics {
		router.Path("/metrics").Handler(metrics.HTTPHandler())
		router.Use(metricsMiddleware)
	}

	handler := handlers.CompressHandler(router)
	handler = handlers.CORS(
		handlers.AllowedOrigins(origins),
		handlers.AllowedHeaders([]string{"content-type"}),
		handlers.AllowedMethods([]string{http.MethodGet, http.MethodPost}),
	)(handler)

	handler = middleware.RequestLogger(logger, opts.RequestLogs)(handler)

	return handler.ServeHTTP, subs.Close
}
