// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package guardian

import (
	"crypto/ecdsa"

	"github.com/vechain/stakepool/cry"
	"github.com/vechain/stakepool/pool"
)

// SignProof builds a proof over the given reference signed by keys, in order.
// It is used by guardian tooling and dev networks.
func (g *Gate) SignProof(class Class, blockNumber uint64, blockHash, depositRoot pool.Bytes32, payload []byte, keys ...*ecdsa.PrivateKey) (*Proof, error) {
	hash := g.MessageHash(class, blockNumber, blockHash, depositRoot, payload)
	proof := &Proof{
		BlockNumber: blockNumber,
		BlockHash:   blockHash,
		DepositRoot: depositRoot,
	}
	for _, key := range keys {
		sig, err := cry.Sign(hash, key)
		if err != nil {
			return nil, err
		}
		proof.Signatures = append(proof.Signatures, sig)
	}
	return proof, nil
}
