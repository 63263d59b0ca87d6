// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package guardian verifies threshold signatures of the guardian set over messages bound
// to the current chain head.
package guardian

import (
	"fmt"

	"github.com/pkg/errors"

	"github.com/vechain/stakepool/cry"
	"github.com/vechain/stakepool/log"
	"github.com/vechain/stakepool/pool"
)

var logger = log.WithContext("pkg", "guardian")

// DefaultMaxBlockAge is the number of blocks a referenced block may lag the head.
const DefaultMaxBlockAge = 1

// ChainView is the gate's view of the chain head.
type ChainView interface {
	HeadNumber() uint64
	HashAt(number uint64) (pool.Bytes32, bool)
	DepositRoot() pool.Bytes32
}

// Params configures a gate.
type Params struct {
	ChainID     uint64
	Guardians   []pool.Address
	Threshold   int
	MaxBlockAge uint64
}

// Proof is a quorum of guardian signatures over one message.
type Proof struct {
	BlockNumber uint64                 `json:"blockNumber"`
	BlockHash   pool.Bytes32           `json:"blockHash"`
	DepositRoot pool.Bytes32           `json:"depositRoot"`
	Signatures  []cry.CompactSignature `json:"signatures"`
}

// Gate verifies guardian quorum proofs.
type Gate struct {
	address   pool.Address
	params    Params
	guardians map[pool.Address]bool
	chain     ChainView
	signing   *cry.Signing
}

// New creates a gate. The address is bound into every message prefix.
func New(address pool.Address, params Params, chain ChainView, signing *cry.Signing) (*Gate, error) {
	if len(params.Guardians) == 0 {
		return nil, errors.New("empty guardian set")
	}
	if params.Threshold <= 0 || params.Threshold > len(params.Guardians) {
		return nil, fmt.Errorf("threshold %d out of range [1, %d]", params.Threshold, len(params.Guardians))
	}
	guardians := make(map[pool.Address]bool, len(params.Guardians))
	for _, g := range params.Guardians {
		if g.IsZero() {
			return nil, errors.New("zero guardian address")
		}
		if guardians[g] {
			return nil, fmt.Errorf("duplicate guardian %v", g)
		}
		guardians[g] = true
	}
	if signing == nil {
		signing = cry.NewSigning(nil)
	}
	return &Gate{
		address:   address,
		params:    params,
		guardians: guardians,
		chain:     chain,
		signing:   signing,
	}, nil
}

func (g *Gate) Threshold() int {
	return g.params.Threshold
}

// Guardians returns the guardian set.
func (g *Gate) Guardians() []pool.Address {
	return append([]pool.Address(nil), g.params.Guardians...)
}

func (g *Gate) IsGuardian(addr pool.Address) bool {
	return g.guardians[addr]
}

// checkReference fails unless the proof references a recent block of the current chain,
// and for deposit bound classes, the current deposit root.
func (g *Gate) checkReference(class Class, proof *Proof) error {
	head := g.chain.HeadNumber()
	if proof.BlockNumber > head {
		return &StaleReferenceError{Reason: "block ahead of head"}
	}
	if head-proof.BlockNumber > g.params.MaxBlockAge {
		return &StaleReferenceError{Reason: fmt.Sprintf("block %d older than %d blocks at head %d", proof.BlockNumber, g.params.MaxBlockAge, head)}
	}
	hash, ok := g.chain.HashAt(proof.BlockNumber)
	if !ok || hash != proof.BlockHash {
		return &StaleReferenceError{Reason: "block hash mismatch"}
	}
	if class.bindsDepositRoot() && proof.DepositRoot != g.chain.DepositRoot() {
		return &StaleReferenceError{Reason: "deposit root mismatch"}
	}
	return nil
}

// Verify checks that proof carries a quorum of guardian signatures over payload for class.
// It returns the distinct signers. A signature repeated by the same guardian counts once.
func (g *Gate) Verify(class Class, proof *Proof, payload []byte) ([]pool.Address, error) {
	if class.label() == "" {
		return nil, errors.Errorf("unknown message class %d", class)
	}
	if proof == nil {
		return nil, &QuorumNotMetError{Required: g.params.Threshold}
	}
	if err := g.checkReference(class, proof); err != nil {
		logger.Debug("guardian proof rejected", "class", class, "err", err)
		return nil, err
	}

	hash := g.MessageHash(class, proof.BlockNumber, proof.BlockHash, proof.DepositRoot, payload)
	seen := make(map[pool.Address]bool, len(proof.Signatures))
	signers := make([]pool.Address, 0, len(proof.Signatures))
	for i, sig := range proof.Signatures {
		signer, err := g.signing.Signer(hash, sig)
		if err != nil {
			return nil, &InvalidSignatureError{Index: i, Reason: err.Error()}
		}
		if !g.guardians[signer] {
			return nil, &InvalidSignatureError{Index: i, Reason: fmt.Sprintf("%v is not a guardian", signer)}
		}
		if seen[signer] {
			continue
		}
		seen[signer] = true
		signers = append(signers, signer)
	}

	if len(signers) < g.params.Threshold {
		return nil, &QuorumNotMetError{Required: g.params.Threshold, Actual: len(signers)}
	}
	logger.Debug("guardian quorum verified", "class", class, "block", proof.BlockNumber, "signers", len(signers))
	return signers, nil
}
