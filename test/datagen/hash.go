// Copyright (c) 2024 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package datagen

import (
	"crypto/rand"

	"github.com/vechain/stakepool/pool"
)

func RandomHash() pool.Bytes32 {
	var b32 pool.Bytes32

	rand.Read(b32[:])
	return b32
}

func RandAddress() pool.Address {
	var addr pool.Address

	rand.Read(addr[:])
	return addr
}

// RandPubkeys returns n concatenated 48 byte validator public keys.
func RandPubkeys(n int) []byte {
	return RandBytes(n * pool.PubkeyLength)
}

// RandSignatures returns n concatenated 96 byte BLS signatures.
func RandSignatures(n int) []byte {
	return RandBytes(n * pool.SignatureLength)
}

func RandBytes(n int) []byte {
	b := make([]byte, n)
	rand.Read(b)
	return b
}
