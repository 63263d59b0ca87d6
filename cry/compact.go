// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package cry

import (
	"crypto/ecdsa"
	"math/big"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/pkg/errors"

	"github.com/vechain/stakepool/pool"
)

var (
	errInvalidSignatureValues = errors.New("invalid signature values")
	errInvalidSignatureLength = errors.New("invalid signature length")
)

// CompactSignature is an EIP-2098 signature. The recovery parity is packed into
// the top bit of VS, the remaining 255 bits hold s.
type CompactSignature struct {
	R  pool.Bytes32 `json:"r"`
	VS pool.Bytes32 `json:"vs"`
}

// Expand returns the signature as [R || S || V] with V in {0, 1}.
// Signatures with s in the upper half of the curve order are rejected.
func (c CompactSignature) Expand() ([]byte, error) {
	s := c.VS
	v := s[0] >> 7
	s[0] &= 0x7f

	if !crypto.ValidateSignatureValues(v, new(big.Int).SetBytes(c.R[:]), new(big.Int).SetBytes(s[:]), true) {
		return nil, errInvalidSignatureValues
	}

	sig := make([]byte, 0, crypto.SignatureLength)
	sig = append(sig, c.R[:]...)
	sig = append(sig, s[:]...)
	return append(sig, v), nil
}

// Compact packs a [R || S || V] signature. V may be 0/1 or 27/28.
func Compact(sig []byte) (CompactSignature, error) {
	if len(sig) != crypto.SignatureLength {
		return CompactSignature{}, errInvalidSignatureLength
	}
	v := sig[64]
	if v >= 27 {
		v -= 27
	}

	var c CompactSignature
	copy(c.R[:], sig[:32])
	copy(c.VS[:], sig[32:64])
	if !crypto.ValidateSignatureValues(v, new(big.Int).SetBytes(c.R[:]), new(big.Int).SetBytes(c.VS[:]), true) {
		return CompactSignature{}, errInvalidSignatureValues
	}
	c.VS[0] |= v << 7
	return c, nil
}

// Sign signs hash with key and returns the compact form.
func Sign(hash pool.Bytes32, key *ecdsa.PrivateKey) (CompactSignature, error) {
	sig, err := crypto.Sign(hash[:], key)
	if err != nil {
		return CompactSignature{}, err
	}
	return Compact(sig)
}

// PubkeyToAddress derives the account address of a public key.
func PubkeyToAddress(pub ecdsa.PublicKey) pool.Address {
	return pool.Address(crypto.PubkeyToAddress(pub))
}
