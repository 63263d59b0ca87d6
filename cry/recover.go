// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package cry

import (
	"github.com/decred/dcrd/dcrec/secp256k1/v4/ecdsa"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/vechain/stakepool/pool"
)

// Recoverer extracts the signer address of a compact signature over hash.
type Recoverer interface {
	Recover(hash pool.Bytes32, sig CompactSignature) (pool.Address, error)
}

// RecovererFunc adapts a function to the Recoverer interface.
type RecovererFunc func(hash pool.Bytes32, sig CompactSignature) (pool.Address, error)

func (f RecovererFunc) Recover(hash pool.Bytes32, sig CompactSignature) (pool.Address, error) {
	return f(hash, sig)
}

// EthRecoverer recovers with the go-ethereum secp256k1 implementation.
type EthRecoverer struct{}

func (EthRecoverer) Recover(hash pool.Bytes32, sig CompactSignature) (pool.Address, error) {
	expanded, err := sig.Expand()
	if err != nil {
		return pool.Address{}, err
	}
	pub, err := crypto.SigToPub(hash[:], expanded)
	if err != nil {
		return pool.Address{}, err
	}
	return PubkeyToAddress(*pub), nil
}

// DecredRecoverer recovers with the pure Go decred secp256k1 implementation.
type DecredRecoverer struct{}

func (DecredRecoverer) Recover(hash pool.Bytes32, sig CompactSignature) (pool.Address, error) {
	expanded, err := sig.Expand()
	if err != nil {
		return pool.Address{}, err
	}
	// decred expects [27 + recid || R || S] for uncompressed keys
	btcSig := make([]byte, 0, 65)
	btcSig = append(btcSig, 27+expanded[64])
	btcSig = append(btcSig, expanded[:64]...)

	pub, _, err := ecdsa.RecoverCompact(btcSig, hash[:])
	if err != nil {
		return pool.Address{}, err
	}
	h := pool.Keccak256(pub.SerializeUncompressed()[1:])
	return pool.BytesToAddress(h[12:]), nil
}
