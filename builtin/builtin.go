// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package builtin holds the addresses of the pool modules. Each module keeps its
// storage under its own address in the shared state.
package builtin

import "github.com/vechain/stakepool/pool"

// Module accounts.
var (
	LedgerAddress   = pool.BytesToAddress([]byte("Ledger"))
	RegistryAddress = pool.BytesToAddress([]byte("Registry"))
	VaultAddress    = pool.BytesToAddress([]byte("Vault"))
	GuardianAddress = pool.BytesToAddress([]byte("Guardian"))
	OracleAddress   = pool.BytesToAddress([]byte("Oracle"))
	ProtocolAddress = pool.BytesToAddress([]byte("Protocol"))

	// RewardsVaultAddress collects execution layer rewards and exited principal.
	// It is the address encoded in every validator's withdrawal credentials.
	RewardsVaultAddress = pool.BytesToAddress([]byte("RewardsVault"))
)
