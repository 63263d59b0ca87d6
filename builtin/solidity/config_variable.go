// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package solidity

import (
	"github.com/ethereum/go-ethereum/rlp"

	"github.com/vechain/stakepool/log"
	"github.com/vechain/stakepool/pool"
)

var logger = log.WithContext("pkg", "solidity")

// ConfigVariable is a named uint64 parameter with a compiled-in default.
// A value stored at its slot, zero included, overrides the default.
type ConfigVariable struct {
	slot         pool.Bytes32
	name         string
	defaultValue uint64
}

func NewConfigVariable(name string, defaultValue uint64) *ConfigVariable {
	return &ConfigVariable{
		slot:         pool.BytesToBytes32([]byte(name)),
		name:         name,
		defaultValue: defaultValue,
	}
}

func (c *ConfigVariable) Name() string {
	return c.name
}

func (c *ConfigVariable) Slot() pool.Bytes32 {
	return c.slot
}

func (c *ConfigVariable) Default() uint64 {
	return c.defaultValue
}

// Get returns the override stored in ctx, or the default.
func (c *ConfigVariable) Get(ctx *Context) (uint64, error) {
	value := c.defaultValue
	err := ctx.state.DecodeStorage(ctx.address, c.slot, func(raw []byte) error {
		if len(raw) == 0 {
			return nil
		}
		return rlp.DecodeBytes(raw, &value)
	})
	return value, err
}

// Override stores value in ctx.
func (c *ConfigVariable) Override(ctx *Context, value uint64) error {
	logger.Debug("config value overridden", "name", c.name, "value", value)
	return ctx.state.EncodeStorage(ctx.address, c.slot, func() ([]byte, error) {
		return rlp.EncodeToBytes(value)
	})
}

// Reset drops the override.
func (c *ConfigVariable) Reset(ctx *Context) {
	ctx.state.SetRawStorage(ctx.address, c.slot, nil)
}
