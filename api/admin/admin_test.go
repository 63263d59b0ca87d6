// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package admin

import (
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vechain/stakepool/api/admin/apilogs"
	"github.com/vechain/stakepool/api/admin/loglevel"
	"github.com/vechain/stakepool/log"
	"github.com/vechain/stakepool/test/testapi"
	"github.com/vechain/stakepool/test/testchain"
)

func TestAdmin(t *testing.T) {
	tc, err := testchain.NewDefault()
	require.NoError(t, err)
	defer tc.Close()

	var (
		level   slog.LevelVar
		enabled atomic.Bool
	)
	level.Set(log.LevelInfo)
	ts := httptest.NewServer(New(&level, &enabled, tc.Pool()))
	defer ts.Close()

	body, status := testapi.Post(t, ts.URL+"/admin/loglevel", loglevel.Request{Level: "warn"})
	require.Equal(t, http.StatusOK, status, string(body))
	assert.Equal(t, "WARN", testapi.Decode[loglevel.Response](t, body).CurrentLevel)
	assert.Equal(t, log.LevelWarn, level.Level())

	body, status = testapi.Post(t, ts.URL+"/admin/apilogs", apilogs.LogStatus{Enabled: true})
	require.Equal(t, http.StatusOK, status, string(body))
	assert.True(t, enabled.Load())

	_, status = testapi.Get(t, ts.URL+"/admin/health")
	assert.Equal(t, http.StatusServiceUnavailable, status)

	_, status = testapi.Get(t, ts.URL+"/admin/unknown")
	assert.Equal(t, http.StatusNotFound, status)
}
