// Copyright (c) 2024 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package httpserver

import (
	"net"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/vechain/stakepool/api"
	"github.com/vechain/stakepool/builtin/protocol"
)

// StartAPIServer serves the pool API on addr. It returns the base URL and a function
// stopping the server.
func StartAPIServer(addr string, p *protocol.Pool, opts api.Options, timeout time.Duration) (string, func(), error) {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return "", nil, errors.Wrapf(err, "listen API addr [%v]", addr)
	}

	apiHandler, closeAPI := api.New(p, opts)
	var handler http.Handler = apiHandler
	if timeout > 0 {
		handler = handleAPITimeout(handler, timeout)
	}

	srv := &http.Server{Handler: handler, ReadHeaderTimeout: time.Second, ReadTimeout: 5 * time.Second}
	stop := serve(srv, listener)
	return "http://" + listener.Addr().String(), func() {
		closeAPI()
		stop()
	}, nil
}

// handleAPITimeout bounds every request by timeout. Websocket upgrades are passed through,
// the buffered timeout writer can not be hijacked.
func handleAPITimeout(h http.Handler, timeout time.Duration) http.Handler {
	timed := http.TimeoutHandler(h, timeout, `{"error":"request timeout"}`)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if websocket.IsWebSocketUpgrade(r) {
			h.ServeHTTP(w, r)
			return
		}
		timed.ServeHTTP(w, r)
	})
}

// serve runs srv in the background. The returned function closes it and waits for Serve to return.
func serve(srv *http.Server, listener net.Listener) func() {
	var goes errgroup.Group
	goes.Go(func() error {
		if err := srv.Serve(listener); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	return func() {
		srv.Close()
		if err := goes.Wait(); err != nil {
			logger.Warn("server stopped", "addr", listener.Addr(), "err", err)
		}
	}
}
