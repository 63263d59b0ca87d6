// Copyright (c) 2024 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package middleware

import (
	"bufio"
	"bytes"
	"io"
	"net"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"

	"github.com/vechain/stakepool/log"
)

// maxLoggedBody caps the request body copied into a log record.
const maxLoggedBody = 4096

// Options selects which requests are logged.
type Options struct {
	// Enabled logs every request. It can be toggled while serving.
	Enabled *atomic.Bool
	// SlowQueriesThreshold logs requests taking longer, zero disables.
	SlowQueriesThreshold time.Duration
	// Log5xxErrors logs requests answered with a server error.
	Log5xxErrors bool
}

func (o Options) off() bool {
	return (o.Enabled == nil || !o.Enabled.Load()) && o.SlowQueriesThreshold == 0 && !o.Log5xxErrors
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

func (w *statusWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	h, ok := w.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("hijack not supported")
	}
	return h.Hijack()
}

// RequestLogger returns a middleware writing a record per selected request to logger.
func RequestLogger(logger log.Logger, opts Options) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if opts.off() {
				next.ServeHTTP(w, r)
				return
			}
			// the body can only be read once, handlers get a copy
			var body []byte
			if r.Body != nil {
				var err error
				body, err = io.ReadAll(r.Body)
				if err != nil {
					logger.Warn("unexpected body read error", "err", err)
					http.Error(w, "bad request body", http.StatusBadRequest)
					return
				}
				r.Body = io.NopCloser(bytes.NewReader(body))
			}

			sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
			start := time.Now()
			next.ServeHTTP(sw, r)
			duration := time.Since(start)

			enabled := opts.Enabled != nil && opts.Enabled.Load()
			slow := opts.SlowQueriesThreshold > 0 && duration > opts.SlowQueriesThreshold
			failed := opts.Log5xxErrors && sw.status >= http.StatusInternalServerError
			if !enabled && !slow && !failed {
				return
			}
			if len(body) > maxLoggedBody {
				body = body[:maxLoggedBody]
			}
			logger.Info("API Request",
				"DurationMs", duration.Milliseconds(),
				"Status", sw.status,
				"URI", r.URL.String(),
				"Method", r.Method,
				"Body", string(body),
			)
		})
	}
}
