// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package oracle_test

import (
	"math/big"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vechain/stakepool/api/oracle"
	"github.com/vechain/stakepool/api/utils"
	"github.com/vechain/stakepool/pool"
	"github.com/vechain/stakepool/test/datagen"
	"github.com/vechain/stakepool/test/testapi"
	"github.com/vechain/stakepool/test/testchain"
)

var (
	ts        *httptest.Server
	testChain *testchain.Chain
)

func initOracleServer(t *testing.T) {
	var err error
	testChain, err = testchain.NewDefault()
	require.NoError(t, err)
	t.Cleanup(func() { testChain.Close() })

	_, _, err = testChain.Pool().Deposit(datagen.RandAddress(), pool.EtherOf(10))
	require.NoError(t, err)
	_, err = testChain.Pool().CreditRewardsVault(pool.EtherOf(1))
	require.NoError(t, err)

	router := mux.NewRouter()
	oracle.New(testChain.Pool()).Mount(router, "/oracle")
	ts = httptest.NewServer(router)
	t.Cleanup(ts.Close)
}

func kindOf(t *testing.T, body []byte) string {
	return testapi.Decode[utils.ErrorResponse](t, body).Kind
}

func status(t *testing.T) oracle.Status {
	body, code := testapi.Get(t, ts.URL+"/oracle")
	require.Equal(t, http.StatusOK, code)
	return testapi.Decode[oracle.Status](t, body)
}

func TestOracle(t *testing.T) {
	initOracleServer(t)

	st := status(t)
	assert.Len(t, st.Members, 3)
	assert.Equal(t, uint64(2), st.Quorum)
	assert.Equal(t, uint64(2250), st.Frame.EpochID)
	assert.Equal(t, uint64(225), st.Spec.EpochsPerFrame)

	report := oracle.Report{
		EpochID:             st.Frame.EpochID,
		RewardsVaultBalance: utils.Hex(new(big.Int).Div(pool.EtherOf(1), big.NewInt(10))),
	}

	t.Run("non member", func(t *testing.T) {
		body, code := testapi.Post(t, ts.URL+"/oracle/reports", oracle.ReportRequest{Caller: datagen.RandAddress(), Report: report})
		assert.Equal(t, http.StatusBadRequest, code)
		assert.Equal(t, "Unauthorized", kindOf(t, body))
	})

	t.Run("wrong epoch", func(t *testing.T) {
		wrong := report
		wrong.EpochID++
		body, code := testapi.Post(t, ts.URL+"/oracle/reports", oracle.ReportRequest{Caller: testChain.OracleMember(0).Address, Report: wrong})
		assert.Equal(t, http.StatusBadRequest, code)
		assert.Equal(t, "UnexpectedEpoch", kindOf(t, body))
	})

	t.Run("quorum", func(t *testing.T) {
		body, code := testapi.Post(t, ts.URL+"/oracle/reports", oracle.ReportRequest{Caller: testChain.OracleMember(0).Address, Report: report})
		require.Equal(t, http.StatusOK, code, string(body))
		first := testapi.Decode[oracle.ReportResponse](t, body)
		assert.Equal(t, uint64(1), first.Count)
		assert.False(t, first.Completed)

		body, _ = testapi.Get(t, ts.URL+"/oracle/tally/2250")
		tally := testapi.Decode[[]map[string]any](t, body)
		require.Len(t, tally, 1)
		assert.Equal(t, first.Hash.String(), tally[0]["hash"])

		body, code = testapi.Post(t, ts.URL+"/oracle/reports", oracle.ReportRequest{Caller: testChain.OracleMember(0).Address, Report: report})
		assert.Equal(t, http.StatusBadRequest, code)
		assert.Equal(t, "AlreadyReported", kindOf(t, body))

		body, code = testapi.Post(t, ts.URL+"/oracle/reports", oracle.ReportRequest{Caller: testChain.OracleMember(1).Address, Report: report})
		require.Equal(t, http.StatusOK, code, string(body))
		second := testapi.Decode[oracle.ReportResponse](t, body)
		assert.True(t, second.Completed)
		assert.Equal(t, first.Hash, second.Hash)
		require.NotNil(t, second.Result)
		assert.Equal(t, 1, utils.BigInt(second.Result.Delta).Sign())

		st := status(t)
		assert.Equal(t, uint64(2250), st.LastCompleted)
		assert.Equal(t, uint64(1), st.Completed)
		assert.Equal(t, uint64(2475), st.ExpectedEpoch)
	})

	t.Run("members", func(t *testing.T) {
		admin := testChain.Admin().Address
		added := datagen.RandAddress()

		_, code := testapi.Post(t, ts.URL+"/oracle/members", oracle.MemberRequest{Caller: admin, Member: added})
		require.Equal(t, http.StatusOK, code)
		assert.Contains(t, status(t).Members, added)

		body, code := testapi.Post(t, ts.URL+"/oracle/quorum", oracle.QuorumRequest{Caller: admin, Quorum: 5})
		assert.Equal(t, http.StatusBadRequest, code)
		assert.Equal(t, "InvalidQuorum", kindOf(t, body))

		_, code = testapi.Post(t, ts.URL+"/oracle/quorum", oracle.QuorumRequest{Caller: admin, Quorum: 3})
		require.Equal(t, http.StatusOK, code)

		_, code = testapi.Post(t, ts.URL+"/oracle/members/removal", oracle.MemberRequest{Caller: admin, Member: added})
		require.Equal(t, http.StatusOK, code)

		body, code = testapi.Post(t, ts.URL+"/oracle/members/removal", oracle.MemberRequest{Caller: admin, Member: added})
		assert.Equal(t, http.StatusNotFound, code)
		assert.Equal(t, "MemberNotFound", kindOf(t, body))
	})

	t.Run("exits", func(t *testing.T) {
		body, code := testapi.Post(t, ts.URL+"/oracle/exits", oracle.ExitsRequest{Caller: testChain.OracleMember(2).Address, Indices: []uint64{0}})
		assert.Equal(t, http.StatusNotFound, code)
		assert.Equal(t, "ValidatorNotFound", kindOf(t, body))

		body, code = testapi.Post(t, ts.URL+"/oracle/exits", oracle.ExitsRequest{Caller: datagen.RandAddress(), Indices: []uint64{0}})
		assert.Equal(t, http.StatusBadRequest, code)
		assert.Equal(t, "Unauthorized", kindOf(t, body))
	})
}
