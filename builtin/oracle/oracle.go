// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package oracle collects beacon chain reports from oracle members. Once a quorum of members
// submits identical reports for a frame, the report is delivered to the ledger.
package oracle

import (
	"time"

	"github.com/ethereum/go-ethereum/rlp"
	"github.com/pkg/errors"

	"github.com/vechain/stakepool/builtin/ledger"
	"github.com/vechain/stakepool/builtin/reverts"
	"github.com/vechain/stakepool/builtin/solidity"
	"github.com/vechain/stakepool/log"
	"github.com/vechain/stakepool/pool"
)

var logger = log.WithContext("pkg", "oracle")

var (
	slotMembers       = pool.BytesToBytes32([]byte("members"))
	slotExpectedEpoch = pool.BytesToBytes32([]byte("expected-epoch"))
	slotLastCompleted = pool.BytesToBytes32([]byte("last-completed"))
	slotCompleted     = pool.BytesToBytes32([]byte("completed-count"))
	slotTallies       = pool.BytesToBytes32([]byte("tallies"))

	membersKey = solidity.BytesKey("list")
)

// Ledger receives finalized reports.
type Ledger interface {
	ApplyReport(caller pool.Address, report ledger.Report) (*ledger.ReportResult, error)
}

// ExitConfirmer receives exits observed on the beacon chain.
type ExitConfirmer interface {
	ConfirmExited(caller pool.Address, indices []uint64) error
}

type Params struct {
	Admin   pool.Address
	Members []pool.Address
	Quorum  uint64
	Spec    Spec
}

type memberSet struct {
	Initialized bool
	List        []pool.Address
}

// Variant is one distinct report submitted in a frame with the number of members backing it.
type Variant struct {
	Hash  pool.Bytes32 `json:"hash"`
	Count uint64       `json:"count"`
}

type tally struct {
	Variants []Variant
	Members  []pool.Address
}

// Submission is the outcome of ReportBeacon.
type Submission struct {
	Hash      pool.Bytes32
	Count     uint64
	Completed bool
	Result    *ledger.ReportResult // set when Completed
}

type Oracle struct {
	sctx    *solidity.Context
	params  Params
	ledger  Ledger
	exits   ExitConfirmer
	quorum  *solidity.ConfigVariable
	members *solidity.Mapping[solidity.BytesKey, *memberSet]
	tallies *solidity.Mapping[solidity.Uint64Key, *tally]

	expectedEpoch *solidity.Uint64
	lastCompleted *solidity.Uint64
	completed     *solidity.Uint64
}

func New(sctx *solidity.Context, params Params, l Ledger, exits ExitConfirmer) *Oracle {
	return &Oracle{
		sctx:          sctx,
		params:        params,
		ledger:        l,
		exits:         exits,
		quorum:        solidity.NewConfigVariable("oracle-quorum", params.Quorum),
		members:       solidity.NewMapping[solidity.BytesKey, *memberSet](sctx, slotMembers),
		tallies:       solidity.NewMapping[solidity.Uint64Key, *tally](sctx, slotTallies),
		expectedEpoch: solidity.NewUint64(sctx, slotExpectedEpoch),
		lastCompleted: solidity.NewUint64(sctx, slotLastCompleted),
		completed:     solidity.NewUint64(sctx, slotCompleted),
	}
}

func (o *Oracle) Address() pool.Address {
	return o.sctx.Address()
}

func (o *Oracle) Spec() Spec {
	return o.params.Spec
}

// ReportHash identifies a report among the submissions of a frame.
func ReportHash(report ledger.Report) (pool.Bytes32, error) {
	data, err := rlp.EncodeToBytes(&report)
	if err != nil {
		return pool.Bytes32{}, errors.Wrap(err, "encode report")
	}
	return pool.Keccak256(data), nil
}

//
// Getters - view only
//

func (o *Oracle) Members() ([]pool.Address, error) {
	set, err := o.members.Get(membersKey)
	if err != nil {
		return nil, err
	}
	if !set.Initialized {
		return append([]pool.Address(nil), o.params.Members...), nil
	}
	return set.List, nil
}

func (o *Oracle) IsMember(addr pool.Address) (bool, error) {
	members, err := o.Members()
	if err != nil {
		return false, err
	}
	return indexOf(members, addr) >= 0, nil
}

func (o *Oracle) Quorum() (uint64, error) {
	return o.quorum.Get(o.sctx)
}

// ExpectedEpoch returns the lowest epoch a report is accepted for.
func (o *Oracle) ExpectedEpoch() (uint64, error) {
	return o.expectedEpoch.Get()
}

// LastCompleted returns the epoch of the last delivered report and the number of delivered reports.
func (o *Oracle) LastCompleted() (epoch, count uint64, err error) {
	if epoch, err = o.lastCompleted.Get(); err != nil {
		return 0, 0, err
	}
	count, err = o.completed.Get()
	return
}

// CurrentFrame returns the frame open for reports at now.
func (o *Oracle) CurrentFrame(now time.Time) Frame {
	return o.params.Spec.FrameAt(now)
}

// Tally returns the distinct reports submitted for epoch.
func (o *Oracle) Tally(epoch uint64) ([]Variant, error) {
	t, err := o.tallies.Get(solidity.Uint64Key(epoch))
	if err != nil {
		return nil, err
	}
	return t.Variants, nil
}

//
// Setters - state change
//

func (o *Oracle) setMembers(list []pool.Address) error {
	return o.members.Set(membersKey, &memberSet{Initialized: true, List: list})
}

// clearTally drops votes of the frame in progress so members vote again under the new membership.
func (o *Oracle) clearTally() error {
	expected, err := o.expectedEpoch.Get()
	if err != nil {
		return err
	}
	o.tallies.Delete(solidity.Uint64Key(expected))
	return nil
}

func (o *Oracle) AddMember(caller, member pool.Address) error {
	if caller != o.params.Admin {
		return reverts.Unauthorized("oracle admin", caller)
	}
	if member.IsZero() {
		return &reverts.ZeroAddressError{Field: "member"}
	}
	members, err := o.Members()
	if err != nil {
		return err
	}
	if indexOf(members, member) >= 0 {
		return &MemberExistsError{Member: member}
	}
	if err := o.setMembers(append(members, member)); err != nil {
		return err
	}
	o.sctx.Emit("MemberAdded", "member", member)
	logger.Info("oracle member added", "member", member)
	return nil
}

func (o *Oracle) RemoveMember(caller, member pool.Address) error {
	if caller != o.params.Admin {
		return reverts.Unauthorized("oracle admin", caller)
	}
	members, err := o.Members()
	if err != nil {
		return err
	}
	i := indexOf(members, member)
	if i < 0 {
		return &MemberNotFoundError{Member: member}
	}
	quorum, err := o.Quorum()
	if err != nil {
		return err
	}
	if uint64(len(members)-1) < quorum {
		return &InvalidQuorumError{Quorum: quorum, Members: len(members) - 1}
	}
	members = append(members[:i], members[i+1:]...)
	if err := o.setMembers(members); err != nil {
		return err
	}
	if err := o.clearTally(); err != nil {
		return err
	}
	o.sctx.Emit("MemberRemoved", "member", member)
	logger.Info("oracle member removed", "member", member)
	return nil
}

func (o *Oracle) SetQuorum(caller pool.Address, quorum uint64) error {
	if caller != o.params.Admin {
		return reverts.Unauthorized("oracle admin", caller)
	}
	members, err := o.Members()
	if err != nil {
		return err
	}
	if quorum == 0 || quorum > uint64(len(members)) {
		return &InvalidQuorumError{Quorum: quorum, Members: len(members)}
	}
	if err := o.quorum.Override(o.sctx, quorum); err != nil {
		return err
	}
	o.sctx.Emit("QuorumChanged", "quorum", quorum)
	return nil
}

// ReportBeacon records the report of a member for the current frame. The report is delivered to
// the ledger when its hash gathers a quorum of members.
func (o *Oracle) ReportBeacon(caller pool.Address, report ledger.Report, now time.Time) (*Submission, error) {
	isMember, err := o.IsMember(caller)
	if err != nil {
		return nil, err
	}
	if !isMember {
		return nil, reverts.Unauthorized("oracle member", caller)
	}

	expected, err := o.expectedEpoch.Get()
	if err != nil {
		return nil, err
	}
	frame := o.params.Spec.FrameAt(now).EpochID
	if report.EpochID != frame || report.EpochID < expected {
		want := frame
		if want < expected {
			want = expected
		}
		return nil, &UnexpectedEpochError{Expected: want, Actual: report.EpochID}
	}
	if report.EpochID > expected {
		// the previous frame never reached quorum
		o.tallies.Delete(solidity.Uint64Key(expected))
		if err := o.expectedEpoch.Set(report.EpochID); err != nil {
			return nil, err
		}
		o.sctx.Emit("ExpectedEpochUpdated", "epochId", report.EpochID)
		expected = report.EpochID
	}

	t, err := o.tallies.Get(solidity.Uint64Key(expected))
	if err != nil {
		return nil, err
	}
	if indexOf(t.Members, caller) >= 0 {
		return nil, &AlreadyReportedError{Member: caller, Epoch: expected}
	}
	hash, err := ReportHash(report)
	if err != nil {
		return nil, err
	}
	var count uint64
	found := false
	for i := range t.Variants {
		if t.Variants[i].Hash == hash {
			t.Variants[i].Count++
			count = t.Variants[i].Count
			found = true
			break
		}
	}
	if !found {
		t.Variants = append(t.Variants, Variant{Hash: hash, Count: 1})
		count = 1
	}
	t.Members = append(t.Members, caller)
	o.sctx.Emit("BeaconReported", "epochId", expected, "member", caller, "hash", hash)
	logger.Debug("beacon reported", "epoch", expected, "member", caller, "hash", hash, "count", count)

	quorum, err := o.Quorum()
	if err != nil {
		return nil, err
	}
	sub := &Submission{Hash: hash, Count: count}
	if count < quorum {
		return sub, o.tallies.Set(solidity.Uint64Key(expected), t)
	}

	result, err := o.ledger.ApplyReport(o.Address(), report)
	if err != nil {
		return nil, err
	}
	o.tallies.Delete(solidity.Uint64Key(expected))
	if err := o.expectedEpoch.Set(expected + o.params.Spec.EpochsPerFrame); err != nil {
		return nil, err
	}
	if err := o.lastCompleted.Set(expected); err != nil {
		return nil, err
	}
	if _, err := o.completed.Increment(); err != nil {
		return nil, err
	}
	o.sctx.Emit("Completed", "epochId", expected, "hash", hash)
	logger.Info("oracle report completed", "epoch", expected, "hash", hash, "delta", result.Delta)

	sub.Completed = true
	sub.Result = result
	return sub, nil
}

// ConfirmExited forwards exits observed by a member to the registry.
func (o *Oracle) ConfirmExited(caller pool.Address, indices []uint64) error {
	isMember, err := o.IsMember(caller)
	if err != nil {
		return err
	}
	if !isMember {
		return reverts.Unauthorized("oracle member", caller)
	}
	return o.exits.ConfirmExited(o.Address(), indices)
}

func indexOf(list []pool.Address, addr pool.Address) int {
	for i, a := range list {
		if a == addr {
			return i
		}
	}
	return -1
}
