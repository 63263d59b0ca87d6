// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package cry

import (
	"github.com/vechain/stakepool/cache"
	"github.com/vechain/stakepool/log"
	"github.com/vechain/stakepool/pool"
)

var logger = log.WithContext("pkg", "cry")

const signerCacheSize = 1024

// Signing recovers signers through a Recoverer and caches the results.
// Guardian signatures are often verified more than once, by a dry run before submission
// and by the operation itself.
type Signing struct {
	recoverer Recoverer
	cache     *cache.LRU[pool.Bytes32, pool.Address]
}

// NewSigning create a signing object. A nil recoverer selects EthRecoverer.
func NewSigning(recoverer Recoverer) *Signing {
	if recoverer == nil {
		recoverer = EthRecoverer{}
	}
	signers, _ := cache.NewLRU[pool.Bytes32, pool.Address](signerCacheSize)
	return &Signing{
		recoverer: recoverer,
		cache:     signers,
	}
}

// Signer returns the address which produced sig over hash.
func (s *Signing) Signer(hash pool.Bytes32, sig CompactSignature) (pool.Address, error) {
	key := pool.Blake2b(hash[:], sig.R[:], sig.VS[:])
	signer, err := s.cache.GetOrLoad(key, func(pool.Bytes32) (pool.Address, error) {
		return s.recoverer.Recover(hash, sig)
	})
	if snap, changed := s.cache.Stats(); changed {
		logger.Debug("signer cache", "hit", snap.Hit, "miss", snap.Miss, "rate", snap.HitRate())
	}
	return signer, err
}

// CacheStats returns the signer cache lookup counters.
func (s *Signing) CacheStats() cache.Snapshot {
	snap, _ := s.cache.Stats()
	return snap
}
