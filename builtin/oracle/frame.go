// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package oracle

import (
	"fmt"
	"time"
)

// Default beacon chain timing.
const (
	DefaultEpochsPerFrame = 225
	DefaultSlotsPerEpoch  = 32
	DefaultSecondsPerSlot = 12
	DefaultGenesisTime    = 1616508000
)

// Spec describes how beacon epochs are grouped into report frames.
type Spec struct {
	EpochsPerFrame uint64 `json:"epochsPerFrame" yaml:"epochs-per-frame"`
	SlotsPerEpoch  uint64 `json:"slotsPerEpoch" yaml:"slots-per-epoch"`
	SecondsPerSlot uint64 `json:"secondsPerSlot" yaml:"seconds-per-slot"`
	GenesisTime    uint64 `json:"genesisTime" yaml:"genesis-time"`
}

func DefaultSpec() Spec {
	return Spec{
		EpochsPerFrame: DefaultEpochsPerFrame,
		SlotsPerEpoch:  DefaultSlotsPerEpoch,
		SecondsPerSlot: DefaultSecondsPerSlot,
		GenesisTime:    DefaultGenesisTime,
	}
}

func (s Spec) Validate() error {
	if s.EpochsPerFrame == 0 || s.SlotsPerEpoch == 0 || s.SecondsPerSlot == 0 {
		return fmt.Errorf("frame spec has zero field: %+v", s)
	}
	return nil
}

func (s Spec) epochDuration() uint64 {
	return s.SlotsPerEpoch * s.SecondsPerSlot
}

// EpochAt returns the beacon epoch at t. Times before genesis map to epoch 0.
func (s Spec) EpochAt(t time.Time) uint64 {
	unix := t.Unix()
	if unix < 0 || uint64(unix) < s.GenesisTime {
		return 0
	}
	return (uint64(unix) - s.GenesisTime) / s.epochDuration()
}

// FrameFirstEpoch returns the first epoch of the frame containing epoch.
func (s Spec) FrameFirstEpoch(epoch uint64) uint64 {
	return epoch / s.EpochsPerFrame * s.EpochsPerFrame
}

// Frame is a window of epochs sharing one report.
type Frame struct {
	EpochID   uint64    `json:"epochId"`
	StartTime time.Time `json:"startTime"`
	EndTime   time.Time `json:"endTime"`
}

// FrameAt returns the frame containing t.
func (s Spec) FrameAt(t time.Time) Frame {
	first := s.FrameFirstEpoch(s.EpochAt(t))
	start := s.GenesisTime + first*s.epochDuration()
	end := start + s.EpochsPerFrame*s.epochDuration() - 1
	return Frame{
		EpochID:   first,
		StartTime: time.Unix(int64(start), 0).UTC(),
		EndTime:   time.Unix(int64(end), 0).UTC(),
	}
}
