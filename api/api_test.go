// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package api

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vechain/stakepool/test/testapi"
	"github.com/vechain/stakepool/test/testchain"
)

func TestNew(t *testing.T) {
	tc, err := testchain.NewDefault()
	require.NoError(t, err)
	defer tc.Close()

	handler, closeSubs := New(tc.Pool(), Options{AllowedOrigins: "https://app.example.org"})
	defer closeSubs()
	ts := httptest.NewServer(handler)
	defer ts.Close()

	for _, path := range []string{"/node/stats", "/operators", "/validators", "/oracle", "/accounts/0x0000000000000000000000000000000000000001"} {
		body, code := testapi.Get(t, ts.URL+path)
		assert.Equal(t, http.StatusOK, code, "%s: %s", path, body)
	}

	_, code := testapi.Get(t, ts.URL+"/metrics")
	assert.Equal(t, http.StatusNotFound, code)
	_, code = testapi.Get(t, ts.URL+"/debug/pprof/")
	assert.Equal(t, http.StatusNotFound, code)

	t.Run("cors", func(t *testing.T) {
		req, err := http.NewRequest(http.MethodGet, ts.URL+"/node/stats", nil)
		require.NoError(t, err)
		req.Header.Set("Origin", "https://app.example.org")
		res, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		res.Body.Close()
		assert.Equal(t, "https://app.example.org", res.Header.Get("Access-Control-Allow-Origin"))

		req.Header.Set("Origin", "https://other.example.org")
		res, err = http.DefaultClient.Do(req)
		require.NoError(t, err)
		res.Body.Close()
		assert.Empty(t, res.Header.Get("Access-Control-Allow-Origin"))
	})

	t.Run("gzip", func(t *testing.T) {
		req, err := http.NewRequest(http.MethodGet, ts.URL+"/node/stats", nil)
		require.NoError(t, err)
		req.Header.Set("Accept-Encoding", "gzip")
		res, err := http.DefaultTransport.RoundTrip(req)
		require.NoError(t, err)
		res.Body.Close()
		assert.Equal(t, "gzip", res.Header.Get("Content-Encoding"))
	})
}

func TestPprof(t *testing.T) {
	tc, err := testchain.NewDefault()
	require.NoError(t, err)
	defer tc.Close()

	handler, closeSubs := New(tc.Pool(), Options{PprofOn: true})
	defer closeSubs()
	ts := httptest.NewServer(handler)
	defer ts.Close()

	_, code := testapi.Get(t, ts.URL+"/debug/pprof/cmdline")
	assert.Equal(t, http.StatusOK, code)
}
