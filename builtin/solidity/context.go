// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package solidity

import (
	"github.com/vechain/stakepool/pool"
	"github.com/vechain/stakepool/state"
)

// Context binds storage wrappers to a module account.
type Context struct {
	address pool.Address
	state   *state.State
	events  *Events
}

// NewContext creates a context. Events emitted through it are appended to events,
// which may be nil to discard them.
func NewContext(address pool.Address, state *state.State, events *Events) *Context {
	return &Context{
		address: address,
		state:   state,
		events:  events,
	}
}

func (c *Context) Address() pool.Address {
	return c.address
}

func (c *Context) State() *state.State {
	return c.state
}

// Emit records an event from the module account. Args are alternating names and values.
func (c *Context) Emit(name string, args ...any) {
	if c.events == nil {
		return
	}
	c.events.add(c.address, name, args)
}
