// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package testapi holds request helpers for API tests.
package testapi

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"
)

// Do sends a request with body encoded as JSON, unless it is nil, and returns the raw response.
func Do(t *testing.T, method, url string, body any) ([]byte, int) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}
	req, err := http.NewRequest(method, url, reader)
	require.NoError(t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	res, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer res.Body.Close()

	data, err := io.ReadAll(res.Body)
	require.NoError(t, err)
	return data, res.StatusCode
}

func Get(t *testing.T, url string) ([]byte, int) {
	t.Helper()
	return Do(t, http.MethodGet, url, nil)
}

func Post(t *testing.T, url string, body any) ([]byte, int) {
	t.Helper()
	return Do(t, http.MethodPost, url, body)
}

// Decode unmarshals data into a new T, failing the test on error.
func Decode[T any](t *testing.T, data []byte) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(data, &v), string(data))
	return v
}
