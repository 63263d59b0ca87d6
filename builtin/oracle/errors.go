// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package oracle

import (
	"fmt"

	"github.com/vechain/stakepool/pool"
)

type UnexpectedEpochError struct {
	Expected uint64
	Actual   uint64
}

func (e *UnexpectedEpochError) Error() string {
	return fmt.Sprintf("unexpected epoch %d, expected %d", e.Actual, e.Expected)
}

func (e *UnexpectedEpochError) Kind() string { return "UnexpectedEpoch" }

type AlreadyReportedError struct {
	Member pool.Address
	Epoch  uint64
}

func (e *AlreadyReportedError) Error() string {
	return fmt.Sprintf("member %v already reported epoch %d", e.Member, e.Epoch)
}

func (e *AlreadyReportedError) Kind() string { return "AlreadyReported" }

type MemberExistsError struct {
	Member pool.Address
}

func (e *MemberExistsError) Error() string {
	return fmt.Sprintf("oracle member %v exists", e.Member)
}

func (e *MemberExistsError) Kind() string { return "MemberExists" }

type MemberNotFoundError struct {
	Member pool.Address
}

func (e *MemberNotFoundError) Error() string {
	return fmt.Sprintf("oracle member %v not found", e.Member)
}

func (e *MemberNotFoundError) Kind() string { return "MemberNotFound" }

type InvalidQuorumError struct {
	Quorum  uint64
	Members int
}

func (e *InvalidQuorumError) Error() string {
	return fmt.Sprintf("quorum %d invalid for %d members", e.Quorum, e.Members)
}

func (e *InvalidQuorumError) Kind() string { return "InvalidQuorum" }
