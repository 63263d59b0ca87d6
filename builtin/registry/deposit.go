// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package registry

import (
	"math/big"

	"github.com/attestantio/go-eth2-client/spec/phase0"
	"github.com/pkg/errors"

	"github.com/vechain/stakepool/pool"
)

var (
	gwei = big.NewInt(1e9)

	// FullDepositAmount is the amount of the deposit made with the deposit signature.
	FullDepositAmount = pool.EtherOf(32)
)

// WithdrawalCredentials returns the 0x01 credentials paying to addr.
func WithdrawalCredentials(addr pool.Address) []byte {
	creds := make([]byte, 32)
	creds[0] = pool.WithdrawalCredentialsPrefix
	copy(creds[12:], addr.Bytes())
	return creds
}

// DepositDataRoot returns the SSZ hash tree root of the deposit the beacon deposit contract
// expects for the given material.
func DepositDataRoot(pubkey, withdrawalCredentials []byte, amount *big.Int, signature []byte) (pool.Bytes32, error) {
	if len(pubkey) != pool.PubkeyLength || len(signature) != pool.SignatureLength {
		return pool.Bytes32{}, errors.New("malformed deposit material")
	}
	data := &phase0.DepositData{
		WithdrawalCredentials: withdrawalCredentials,
		Amount:                phase0.Gwei(new(big.Int).Div(amount, gwei).Uint64()),
	}
	copy(data.PublicKey[:], pubkey)
	copy(data.Signature[:], signature)

	root, err := data.HashTreeRoot()
	if err != nil {
		return pool.Bytes32{}, errors.Wrap(err, "deposit data root")
	}
	return pool.Bytes32(root), nil
}
