// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package solidity

import (
	"fmt"
	"sync"

	"github.com/vechain/stakepool/pool"
)

// Event is a log entry emitted by a module.
type Event struct {
	Address pool.Address   `json:"address"`
	Name    string         `json:"name"`
	Args    map[string]any `json:"args"`
}

// Arg returns the named argument.
func (e *Event) Arg(name string) any {
	return e.Args[name]
}

// Events is an append-only journal of events, truncated when an operation reverts.
type Events struct {
	mu   sync.Mutex
	list []*Event
}

func (e *Events) add(addr pool.Address, name string, args []any) {
	ev := &Event{
		Address: addr,
		Name:    name,
		Args:    make(map[string]any, len(args)/2),
	}
	for i := 0; i+1 < len(args); i += 2 {
		key, ok := args[i].(string)
		if !ok {
			key = fmt.Sprint(args[i])
		}
		ev.Args[key] = args[i+1]
	}

	e.mu.Lock()
	e.list = append(e.list, ev)
	e.mu.Unlock()
}

// Len returns the number of recorded events.
func (e *Events) Len() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.list)
}

// Truncate drops every event recorded after the first n.
func (e *Events) Truncate(n int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if n < len(e.list) {
		e.list = e.list[:n]
	}
}

// Since returns the events recorded after the first n.
func (e *Events) Since(n int) []*Event {
	e.mu.Lock()
	defer e.mu.Unlock()
	if n >= len(e.list) {
		return nil
	}
	return append([]*Event(nil), e.list[n:]...)
}

// Filter returns the events with the given name.
func (e *Events) Filter(name string) []*Event {
	e.mu.Lock()
	defer e.mu.Unlock()
	var out []*Event
	for _, ev := range e.list {
		if ev.Name == name {
			out = append(out, ev)
		}
	}
	return out
}
