// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package guardian

import "fmt"

type QuorumNotMetError struct {
	Required int
	Actual   int
}

func (e *QuorumNotMetError) Error() string {
	return fmt.Sprintf("quorum not met: required %d, actual %d", e.Required, e.Actual)
}
func (e *QuorumNotMetError) Kind() string { return "QuorumNotMet" }

// StaleReferenceError rejects a proof bound to a block or deposit root other than the current one.
type StaleReferenceError struct {
	Reason string
}

func (e *StaleReferenceError) Error() string { return "stale or invalid reference: " + e.Reason }
func (e *StaleReferenceError) Kind() string  { return "StaleReference" }

// InvalidSignatureError rejects a proof carrying a malformed signature or one made by a non-guardian.
type InvalidSignatureError struct {
	Index  int
	Reason string
}

func (e *InvalidSignatureError) Error() string {
	return fmt.Sprintf("invalid signature %d: %s", e.Index, e.Reason)
}
func (e *InvalidSignatureError) Kind() string { return "InvalidSignature" }
