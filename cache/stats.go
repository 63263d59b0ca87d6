// Copyright (c) 2024 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package cache

import "sync/atomic"

// Snapshot holds the lookup counters of a cache at one instant.
type Snapshot struct {
	Hit  int64
	Miss int64
}

// HitRate returns hits over lookups, zero before the first lookup.
func (s Snapshot) HitRate() float64 {
	lookups := s.Hit + s.Miss
	if lookups == 0 {
		return 0
	}
	return float64(s.Hit) / float64(lookups)
}

// Stats counts cache lookups. The zero value is ready to use.
type Stats struct {
	hit, miss atomic.Int64
	permille  atomic.Int32
}

func (cs *Stats) Hit() int64 { return cs.hit.Add(1) }

func (cs *Stats) Miss() int64 { return cs.miss.Add(1) }

// Snapshot returns the counters, and true when the hit rate moved by at least
// one permille since the previous call.
func (cs *Stats) Snapshot() (Snapshot, bool) {
	s := Snapshot{Hit: cs.hit.Load(), Miss: cs.miss.Load()}
	permille := int32(s.HitRate() * 1000)
	return s, cs.permille.Swap(permille) != permille
}
