// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package subscriptions

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vechain/stakepool/builtin/protocol"
	"github.com/vechain/stakepool/pool"
	"github.com/vechain/stakepool/test/datagen"
	"github.com/vechain/stakepool/test/testchain"
)

func newTestPool(t *testing.T) *protocol.Pool {
	tc, err := testchain.NewDefault()
	require.NoError(t, err)
	t.Cleanup(func() { tc.Close() })
	return tc.Pool()
}

func TestReceiptReader(t *testing.T) {
	p := newTestPool(t)
	alice := datagen.RandAddress()

	reader := newReceiptReader(p, p.LastSeq(), map[string]bool{"Deposit": true})
	msgs, err := reader.Read()
	require.NoError(t, err)
	assert.Empty(t, msgs)

	_, _, err = p.Deposit(alice, pool.EtherOf(2))
	require.NoError(t, err)
	_, err = p.TransferShares(alice, datagen.RandAddress(), pool.EtherOf(1))
	require.NoError(t, err)

	msgs, err = reader.Read()
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, "Deposit", msgs[0].(*protocol.Receipt).Op)
	assert.Equal(t, p.LastSeq(), reader.after, "filtered receipts are consumed")

	msgs, err = reader.Read()
	require.NoError(t, err)
	assert.Empty(t, msgs)
}

func TestReceiptReaderFallsBehind(t *testing.T) {
	p := newTestPool(t)
	reader := newReceiptReader(p, p.LastSeq(), nil)

	for range protocol.ReceiptCacheSize + 1 {
		_, _, err := p.Deposit(datagen.RandAddress(), pool.EtherOf(1))
		require.NoError(t, err)
	}

	_, err := reader.Read()
	assert.ErrorContains(t, err, "evicted")
}
