// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package protocol

import (
	"math/big"

	"github.com/vechain/stakepool/builtin/registry"
	"github.com/vechain/stakepool/pool"
)

// Stats are the pool totals.
type Stats struct {
	TotalPooledValue    *big.Int `json:"totalPooledValue"`
	TotalShares         *big.Int `json:"totalShares"`
	BufferedValue       *big.Int `json:"bufferedValue"`
	TransientValue      *big.Int `json:"transientValue"`
	BeaconValue         *big.Int `json:"beaconValue"`
	RewardsVaultBalance *big.Int `json:"rewardsVaultBalance"`
	Deposited           uint64   `json:"deposited"`
	BeaconValidators    uint64   `json:"beaconValidators"`
	ExitedValidators    uint64   `json:"exitedValidators"`
	LastReportEpoch     uint64   `json:"lastReportEpoch"`
	// ExchangeRate is the value of one ether of shares.
	ExchangeRate *big.Int `json:"exchangeRate"`
}

// Stats returns the pool totals. Use it inside Read.
func (m *Modules) Stats() (*Stats, error) {
	l := m.Ledger
	var (
		s   Stats
		err error
	)
	if s.TotalPooledValue, err = l.TotalPooledValue(); err != nil {
		return nil, err
	}
	if s.TotalShares, err = l.TotalShares(); err != nil {
		return nil, err
	}
	if s.BufferedValue, err = l.BufferedValue(); err != nil {
		return nil, err
	}
	if s.TransientValue, err = l.TransientValue(); err != nil {
		return nil, err
	}
	if s.Deposited, s.BeaconValidators, s.BeaconValue, err = l.BeaconStat(); err != nil {
		return nil, err
	}
	if s.RewardsVaultBalance, err = l.RewardsVaultBalance(); err != nil {
		return nil, err
	}
	if s.ExitedValidators, err = l.ExitedValidators(); err != nil {
		return nil, err
	}
	if s.LastReportEpoch, err = l.LastReportEpoch(); err != nil {
		return nil, err
	}
	if s.ExchangeRate, err = l.SharesToValue(pool.Ether); err != nil {
		return nil, err
	}
	return &s, nil
}

// Stats returns the pool totals.
func (p *Pool) Stats() (stats *Stats, err error) {
	err = p.Read(func(m *Modules) error {
		stats, err = m.Stats()
		return err
	})
	return
}

// ValidatorsByStatus counts validators per status.
func (m *Modules) ValidatorsByStatus() (map[registry.Status]uint64, error) {
	count, err := m.Registry.ValidatorCount()
	if err != nil {
		return nil, err
	}
	out := make(map[registry.Status]uint64)
	for i := range count {
		v, err := m.Registry.GetValidator(i)
		if err != nil {
			return nil, err
		}
		out[v.Status]++
	}
	return out, nil
}
