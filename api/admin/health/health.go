// Copyright (c) 2024 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package health

import (
	"time"

	"github.com/vechain/stakepool/builtin/protocol"
	"github.com/vechain/stakepool/pool"
)

const defaultMaxTimeBetweenHeads = 60 * time.Second

type HeadIngestion struct {
	Number    uint64        `json:"number"`
	Hash      pool.Bytes32  `json:"hash"`
	Timestamp time.Time     `json:"timestamp"`
	Lag       time.Duration `json:"lag"`
}

// OracleProgress compares the open frame with the frame the oracle still waits a report for.
type OracleProgress struct {
	CurrentEpoch  uint64 `json:"currentEpoch"`
	ExpectedEpoch uint64 `json:"expectedEpoch"`
	LastCompleted uint64 `json:"lastCompleted"`
	FramesBehind  uint64 `json:"framesBehind"`
}

type Status struct {
	Healthy       bool            `json:"healthy"`
	HeadIngestion *HeadIngestion  `json:"headIngestion"`
	Oracle        *OracleProgress `json:"oracle"`
}

// Health reports whether the execution head fed to the pool is recent and
// whether oracle reports keep up with the frames.
type Health struct {
	pool *protocol.Pool
}

func New(p *protocol.Pool) *Health {
	return &Health{pool: p}
}

// Status compares the head timestamp against the pool clock. A negative
// maxFramesBehind leaves oracle progress out of the verdict.
func (h *Health) Status(maxTimeBetweenHeads time.Duration, maxFramesBehind int) (*Status, error) {
	var (
		ingest   HeadIngestion
		progress OracleProgress
		now      = h.pool.Now()
	)
	if err := h.pool.Read(func(m *protocol.Modules) (err error) {
		head := m.Chain.Head()
		ingest.Number = head.Number
		ingest.Hash = head.Hash
		ingest.Timestamp = time.Unix(int64(head.Timestamp), 0).UTC()

		if progress.ExpectedEpoch, err = m.Oracle.ExpectedEpoch(); err != nil {
			return err
		}
		if progress.LastCompleted, _, err = m.Oracle.LastCompleted(); err != nil {
			return err
		}
		progress.CurrentEpoch = m.Oracle.CurrentFrame(now).EpochID
		if progress.CurrentEpoch > progress.ExpectedEpoch {
			progress.FramesBehind = (progress.CurrentEpoch - progress.ExpectedEpoch) / m.Oracle.Spec().EpochsPerFrame
		}
		return nil
	}); err != nil {
		return nil, err
	}
	ingest.Lag = now.Sub(ingest.Timestamp)

	healthy := ingest.Lag <= maxTimeBetweenHeads
	if maxFramesBehind >= 0 && progress.FramesBehind > uint64(maxFramesBehind) {
		healthy = false
	}
	return &Status{
		Healthy:       healthy,
		HeadIngestion: &ingest,
		Oracle:        &progress,
	}, nil
}
