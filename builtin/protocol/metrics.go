// Copyright (c) 2024 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package protocol

import (
	"math/big"

	"github.com/vechain/stakepool/builtin/registry"
	"github.com/vechain/stakepool/metrics"
)

var (
	metricOperations        = metrics.LazyLoadCounterVec("pool_operations_count", []string{"op", "result"})
	metricOperationDuration = metrics.LazyLoadHistogramVec("pool_operation_duration_ms", []string{"op"}, metrics.BucketHTTPReqs)
	metricValueGwei         = metrics.LazyLoadGaugeVec("pool_value_gwei", []string{"kind"})
	metricValidators        = metrics.LazyLoadGaugeVec("pool_validators", []string{"status"})
	metricHeadNumber        = metrics.LazyLoadGauge("pool_head_number")

	gwei = big.NewInt(1e9)
)

func toGwei(v *big.Int) int64 {
	return new(big.Int).Quo(v, gwei).Int64()
}

func (p *Pool) updateGauges() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.updateGaugesLocked()
}

func (p *Pool) updateGaugesLocked() {
	stats, err := p.mods.Stats()
	if err != nil {
		logger.Warn("failed to read pool stats", "err", err)
		return
	}
	for kind, v := range map[string]*big.Int{
		"pooled":        stats.TotalPooledValue,
		"shares":        stats.TotalShares,
		"buffered":      stats.BufferedValue,
		"transient":     stats.TransientValue,
		"beacon":        stats.BeaconValue,
		"rewards_vault": stats.RewardsVaultBalance,
	} {
		metricValueGwei().SetWithLabel(toGwei(v), map[string]string{"kind": kind})
	}

	counts, err := p.mods.ValidatorsByStatus()
	if err != nil {
		logger.Warn("failed to count validators", "err", err)
		return
	}
	for s := registry.StatusWaitingActivated; s <= registry.StatusUnsafe; s++ {
		metricValidators().SetWithLabel(int64(counts[s]), map[string]string{"status": s.String()})
	}
}
