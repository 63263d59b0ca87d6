// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package config

import (
	"crypto/ecdsa"
	"sync/atomic"

	"github.com/ethereum/go-ethereum/common/math"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/vechain/stakepool/cry"
	"github.com/vechain/stakepool/pool"
)

// DevAccount account for development.
type DevAccount struct {
	Address    pool.Address
	PrivateKey *ecdsa.PrivateKey
}

var devAccounts atomic.Value

// DevAccounts returns the well known accounts of the dev network.
func DevAccounts() []DevAccount {
	if accs := devAccounts.Load(); accs != nil {
		return accs.([]DevAccount)
	}

	var accs []DevAccount
	privKeys := []string{
		"dce1443bd2ef0c2631adc1c67e5c93f13dc23a41c18b536effbbdcbcdb96fb65",
		"321d6443bc6177273b5abf54210fe806d451d6b7973bccc2384ef78bbcd0bf51",
		"2d7c882bad2a01105e36dda3646693bc1aaaa45b0ed63fb0ce23c060294f3af2",
		"593537225b037191d322c3b1df585fb1e5100811b71a6f7fc7e29cca1333483e",
		"ca7b25fc980c759df5f3ce17a3d881d6e19a38e651fc4315fc08917edab41058",
		"88d2d80b12b92feaa0da6d62309463d20408157723f2d7e799b6a74ead9a673b",
		"fbb9e7ba5fe9969a71c6599052237b91adeb1e5fc0c96727b66e56ff5d02f9d0",
		"547fb081e73dc2e22b4aae5c60e2970b008ac4fc3073aebc27d41ace9c4f53e9",
	}
	for _, str := range privKeys {
		pk, err := crypto.HexToECDSA(str)
		if err != nil {
			panic(err)
		}
		accs = append(accs, DevAccount{cry.PubkeyToAddress(pk.PublicKey), pk})
	}
	devAccounts.Store(accs)
	return accs
}

// Dev account roles.
const (
	DevAdmin             = 0
	DevGuardian0         = 1 // guardians are accounts 1 to 3
	DevTemporaryGuardian = 4
	DevOracle0           = 5 // oracle members are accounts 5 to 7
)

// Default returns the configuration of the dev network.
func Default() *Config {
	accs := DevAccounts()
	admin := accs[DevAdmin].Address
	return &Config{
		ChainID:           1337,
		Admin:             admin,
		Treasury:          pool.DeriveAddress(admin, "treasury"),
		Insurance:         pool.DeriveAddress(admin, "insurance"),
		Protocol:          pool.DeriveAddress(admin, "protocol"),
		TemporaryGuardian: accs[DevTemporaryGuardian].Address,
		MinOperatorStake:  (*math.HexOrDecimal256)(pool.EtherOf(2)),
		Fees: Fees{
			Fee:          1000,
			Insurance:    5000,
			Treasury:     0,
			NodeOperator: 5000,
		},
		Guardians: Guardians{
			Members: []pool.Address{
				accs[DevGuardian0].Address,
				accs[DevGuardian0+1].Address,
				accs[DevGuardian0+2].Address,
			},
			Threshold:   2,
			MaxBlockAge: 1,
		},
		Oracle: Oracle{
			Members: []pool.Address{
				accs[DevOracle0].Address,
				accs[DevOracle0+1].Address,
				accs[DevOracle0+2].Address,
			},
			Quorum: 2,
			Frame: Frame{
				EpochsPerFrame: 225,
				SlotsPerEpoch:  32,
				SecondsPerSlot: 12,
				GenesisTime:    1616508000,
			},
		},
	}
}
