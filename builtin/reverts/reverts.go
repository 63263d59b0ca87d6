// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package reverts defines the errors an operation fails with when it is rejected.
// A rejected operation has no effect on state. Any other error returned by the
// pool modules is an infrastructure failure.
package reverts

import (
	"errors"
	"fmt"

	"github.com/vechain/stakepool/pool"
)

// Revert is implemented by every structured revert error.
// Kind is a stable identifier callers can switch on.
type Revert interface {
	error
	Kind() string
}

// ErrRevert is a revert carrying only a message.
type ErrRevert struct {
	kind    string
	message string
}

func New(message string) *ErrRevert {
	return &ErrRevert{
		kind:    "Revert",
		message: message,
	}
}

// NewKind returns a message revert with an explicit kind.
func NewKind(kind, message string) *ErrRevert {
	return &ErrRevert{
		kind:    kind,
		message: message,
	}
}

func (e *ErrRevert) Error() string {
	return e.message
}

func (e *ErrRevert) Kind() string {
	return e.kind
}

// Is matches another message revert of the same kind and message.
func (e *ErrRevert) Is(target error) bool {
	t, ok := target.(*ErrRevert)
	return ok && t.kind == e.kind && t.message == e.message
}

func IsRevertErr(err any) bool {
	if err == nil {
		return false
	}
	e, ok := err.(error)
	if !ok {
		return false
	}
	var r Revert
	return errors.As(e, &r)
}

// KindOf returns the kind of a revert error, or empty when err is not a revert.
func KindOf(err error) string {
	var r Revert
	if errors.As(err, &r) {
		return r.Kind()
	}
	return ""
}

// UnauthorizedError rejects a caller lacking the role an operation requires.
type UnauthorizedError struct {
	Role   string
	Caller pool.Address
}

func (e *UnauthorizedError) Error() string {
	return fmt.Sprintf("unauthorized: %v is not %s", e.Caller, e.Role)
}

func (e *UnauthorizedError) Kind() string { return "Unauthorized" }

// Unauthorized is a shortcut for UnauthorizedError.
func Unauthorized(role string, caller pool.Address) error {
	return &UnauthorizedError{Role: role, Caller: caller}
}

// ZeroAddressError rejects the zero address where an account is required.
type ZeroAddressError struct {
	Field string
}

func (e *ZeroAddressError) Error() string {
	return fmt.Sprintf("zero address: %s", e.Field)
}

func (e *ZeroAddressError) Kind() string { return "ZeroAddress" }
