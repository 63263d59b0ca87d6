// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package solidity

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vechain/stakepool/lvldb"
	"github.com/vechain/stakepool/pool"
	"github.com/vechain/stakepool/state"
	"github.com/vechain/stakepool/test/datagen"
)

type testStruct struct {
	Field1 uint64
	Addr1  pool.Address
	Bytes1 pool.Bytes32
	Amount *big.Int
}

// newTestContext returns a fresh Context over an in-memory db.
func newTestContext(t *testing.T) *Context {
	db, err := lvldb.NewMem()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewContext(pool.Address{1}, state.New(db), &Events{})
}

func TestMapping(t *testing.T) {
	ctx := newTestContext(t)
	mapping := NewMapping[pool.Address, *testStruct](ctx, pool.Bytes32{1})

	key := datagen.RandAddress()

	empty, err := mapping.Get(key)
	require.NoError(t, err)
	require.NotNil(t, empty, "pointer values are allocated on a miss")
	assert.Equal(t, uint64(0), empty.Field1)

	value := &testStruct{Field1: 100, Addr1: datagen.RandAddress(), Bytes1: datagen.RandomHash(), Amount: big.NewInt(7)}
	require.NoError(t, mapping.Set(key, value))

	got, err := mapping.Get(key)
	require.NoError(t, err)
	assert.Equal(t, value, got)

	mapping.Delete(key)
	got, err = mapping.Get(key)
	require.NoError(t, err)
	assert.Equal(t, uint64(0), got.Field1)
}

func TestMappingKeysDoNotCollide(t *testing.T) {
	ctx := newTestContext(t)
	a := NewMapping[Uint64Key, uint64](ctx, pool.BytesToBytes32([]byte("a")))
	b := NewMapping[Uint64Key, uint64](ctx, pool.BytesToBytes32([]byte("b")))

	require.NoError(t, a.Set(1, 10))
	require.NoError(t, b.Set(1, 20))

	va, err := a.Get(1)
	require.NoError(t, err)
	vb, err := b.Get(1)
	require.NoError(t, err)
	assert.Equal(t, uint64(10), va)
	assert.Equal(t, uint64(20), vb)

	bytesMapping := NewMapping[BytesKey, bool](ctx, pool.BytesToBytes32([]byte("pubkeys")))
	require.NoError(t, bytesMapping.Set(BytesKey{1, 2, 3}, true))
	seen, err := bytesMapping.Get(BytesKey{1, 2, 3})
	require.NoError(t, err)
	assert.True(t, seen)
	seen, err = bytesMapping.Get(BytesKey{1, 2})
	require.NoError(t, err)
	assert.False(t, seen)
}

func TestUint256(t *testing.T) {
	ctx := newTestContext(t)
	u := NewUint256(ctx, pool.BytesToBytes32([]byte("total")))

	v, err := u.Get()
	require.NoError(t, err)
	assert.Equal(t, 0, v.Sign())

	require.NoError(t, u.Add(big.NewInt(100)))
	require.NoError(t, u.Sub(big.NewInt(40)))
	v, err = u.Get()
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(60), v)

	assert.Error(t, u.Sub(big.NewInt(61)), "negative values are rejected")
	assert.Error(t, u.Set(new(big.Int).Lsh(big.NewInt(1), 256)))

	v, err = u.Get()
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(60), v, "failed writes leave the slot untouched")
}

func TestUint64Increment(t *testing.T) {
	ctx := newTestContext(t)
	counter := NewUint64(ctx, pool.BytesToBytes32([]byte("counter")))

	for want := range uint64(3) {
		got, err := counter.Increment()
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	v, err := counter.Get()
	require.NoError(t, err)
	assert.Equal(t, uint64(3), v)
}

func TestAddressAndBytes32(t *testing.T) {
	ctx := newTestContext(t)

	addr := NewAddress(ctx, pool.BytesToBytes32([]byte("guardian")))
	want := datagen.RandAddress()
	addr.Set(want)
	got, err := addr.Get()
	require.NoError(t, err)
	assert.Equal(t, want, got)

	root := NewBytes32(ctx, pool.BytesToBytes32([]byte("root")))
	hash := datagen.RandomHash()
	root.Set(hash)
	gotHash, err := root.Get()
	require.NoError(t, err)
	assert.Equal(t, hash, gotHash)
}

func TestConfigVariable(t *testing.T) {
	ctx := newTestContext(t)
	fee := NewConfigVariable("fee-bps", 1000)

	v, err := fee.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(1000), v)

	require.NoError(t, fee.Override(ctx, 0))
	v, err = fee.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(0), v, "zero is a valid override")

	fee.Reset(ctx)
	v, err = fee.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(1000), v)
	assert.Equal(t, "fee-bps", fee.Name())
}

func TestEvents(t *testing.T) {
	events := &Events{}
	db, err := lvldb.NewMem()
	require.NoError(t, err)
	ctx := NewContext(pool.Address{2}, state.New(db), events)

	ctx.Emit("Deposited", "account", pool.Address{3}, "amount", big.NewInt(10))
	ctx.Emit("Transferred", "from", pool.Address{3})
	ctx.Emit("Deposited", "account", pool.Address{4}, "amount", big.NewInt(20))
	assert.Equal(t, 3, events.Len())

	deposited := events.Filter("Deposited")
	require.Len(t, deposited, 2)
	assert.Equal(t, pool.Address{2}, deposited[0].Address)
	assert.Equal(t, big.NewInt(20), deposited[1].Arg("amount"))

	since := events.Since(1)
	require.Len(t, since, 2)
	assert.Equal(t, "Transferred", since[0].Name)

	events.Truncate(1)
	assert.Equal(t, 1, events.Len())
	assert.Nil(t, events.Since(1))

	// a nil journal discards
	NewContext(pool.Address{2}, state.New(db), nil).Emit("Ignored")
}
