// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package protocol

import (
	"math"
	"math/big"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	dto "github.com/prometheus/client_model/go"

	"github.com/vechain/stakepool/builtin/guardian"
	"github.com/vechain/stakepool/builtin/ledger"
	"github.com/vechain/stakepool/builtin/registry"
	"github.com/vechain/stakepool/builtin/reverts"
	"github.com/vechain/stakepool/pool"
	"github.com/vechain/stakepool/test/datagen"
)

func ether(n int64) *big.Int {
	return pool.EtherOf(n)
}

func milliEther(n int64) *big.Int {
	return new(big.Int).Mul(big.NewInt(n), big.NewInt(1e15))
}

// rate is the value of one ether of shares.
func (tp *testPool) rate(t *testing.T) *big.Int {
	return tp.stats(t).ExchangeRate
}

func TestBootstrap(t *testing.T) {
	tp := newTestPool(t)

	var fees *ledger.Fees
	require.NoError(t, tp.Read(func(m *Modules) (err error) {
		fees, err = m.Ledger.Fees()
		return
	}))
	assert.Equal(t, ledger.Fees{Fee: 1000, Insurance: 5000, Treasury: 0, NodeOperator: 5000}, *fees)

	r, ok := tp.Receipt(1)
	require.True(t, ok)
	assert.Equal(t, "Bootstrap", r.Op)

	stats := tp.stats(t)
	assert.Equal(t, 0, stats.TotalPooledValue.Sign())
	assert.Equal(t, pool.Ether, stats.ExchangeRate)
}

func TestActivation(t *testing.T) {
	tp := newTestPool(t)
	operator, withdraw := datagen.RandAddress(), datagen.RandAddress()

	NewSequence(tp).
		Deposit(datagen.RandAddress(), ether(32)).
		RegisterOperator(operator, withdraw).
		AddStakes(operator, ether(2)).
		AddValidators(operator, 1).
		Run(t)

	AssertValidator(tp, 0).Status(registry.StatusWaitingActivated).Operator(operator).Assert(t)
	before := tp.stats(t)
	assert.Equal(t, ether(34), before.BufferedValue)

	NewSequence(tp).Activate(0).Run(t)

	AssertValidator(tp, 0).Status(registry.StatusValidating).Assert(t)
	after := tp.stats(t)
	assert.Equal(t, new(big.Int).Sub(before.BufferedValue, pool.DefaultMinOperatorStakingAmount), after.BufferedValue)
	assert.Equal(t, pool.DefaultMinOperatorStakingAmount, after.TransientValue)
	assert.Equal(t, before.TotalPooledValue, after.TotalPooledValue)

	// re-activation
	proof := tp.proof(t, guardian.ClassActivate, guardian.ActivatePayload([]uint64{0}), 1, 2)
	_, err := tp.ActivateValidators(proof, []uint64{0})
	var inconsistent *registry.InconsistentValidatorStatusError
	require.ErrorAs(t, err, &inconsistent)
	assert.Equal(t, registry.StatusWaitingActivated, inconsistent.Expected)
	assert.Equal(t, registry.StatusValidating, inconsistent.Actual)
}

func TestActivationGuardianChecks(t *testing.T) {
	tp := newTestPool(t)
	operator := datagen.RandAddress()
	NewSequence(tp).
		Deposit(datagen.RandAddress(), ether(32)).
		RegisterOperator(operator, datagen.RandAddress()).
		AddStakes(operator, ether(2)).
		AddValidators(operator, 1).
		Run(t)

	payload := guardian.ActivatePayload([]uint64{0})
	before := tp.stats(t)
	receipts := len(tp.Receipts(0))

	t.Run("single signer twice", func(t *testing.T) {
		proof := tp.proof(t, guardian.ClassActivate, payload, 0, 0)
		_, err := tp.ActivateValidators(proof, []uint64{0})
		var quorum *guardian.QuorumNotMetError
		require.ErrorAs(t, err, &quorum)
		assert.Equal(t, 1, quorum.Actual)
	})

	t.Run("stale reference", func(t *testing.T) {
		proof := tp.proof(t, guardian.ClassActivate, payload, 0, 1)
		tp.advance(t, 2)
		_, err := tp.ActivateValidators(proof, []uint64{0})
		assert.Equal(t, "StaleReference", reverts.KindOf(err))
	})

	t.Run("wrong class", func(t *testing.T) {
		proof := tp.proof(t, guardian.ClassUnsafe, payload, 0, 1)
		_, err := tp.ActivateValidators(proof, []uint64{0})
		assert.True(t, reverts.IsRevertErr(err))
	})

	// nothing changed
	AssertValidator(tp, 0).Status(registry.StatusWaitingActivated).Assert(t)
	assert.Equal(t, before, tp.stats(t))
	assert.Len(t, tp.Receipts(0), receipts)

	// one block of lag is tolerated
	proof := tp.proof(t, guardian.ClassActivate, payload, 1, 2)
	tp.advance(t, 1)
	_, err := tp.ActivateValidators(proof, []uint64{0})
	require.NoError(t, err)
	AssertValidator(tp, 0).Status(registry.StatusValidating).Assert(t)
}

func TestUnsafe(t *testing.T) {
	tp := newTestPool(t)
	operator := datagen.RandAddress()
	NewSequence(tp).
		Deposit(datagen.RandAddress(), ether(32)).
		RegisterOperator(operator, datagen.RandAddress()).
		AddStakes(operator, ether(2)).
		AddValidators(operator, 1).
		Activate(0).
		Run(t)

	op := tp.operator(t, operator)
	sharesBefore := tp.sharesOf(t, op.Vault)
	rateBefore := tp.rate(t)

	slash := ether(1)
	var slashShares *big.Int
	require.NoError(t, tp.Read(func(m *Modules) (err error) {
		slashShares, err = m.Ledger.ValueToSharesUp(slash)
		return
	}))

	proof := tp.proof(t, guardian.ClassUnsafe, guardian.UnsafePayload(0, slash), 0, 2)
	r, err := tp.ReportUnsafe(proof, 0, slash)
	require.NoError(t, err)

	AssertValidator(tp, 0).Status(registry.StatusUnsafe).Assert(t)
	op = tp.operator(t, operator)
	assert.False(t, op.IsActive)
	assert.Equal(t, uint64(1), op.Slashing)
	assert.Equal(t, new(big.Int).Sub(sharesBefore, slashShares), tp.sharesOf(t, op.Vault))
	assert.GreaterOrEqual(t, tp.rate(t).Cmp(rateBefore), 0)

	var names []string
	for _, ev := range r.Events {
		names = append(names, ev.Name)
	}
	assert.Contains(t, names, "ValidatorUnsafe")
	assert.Contains(t, names, "SharesBurnt")

	// an inactive operator cannot add validators or move collateral
	_, _, err = tp.AddValidators(operator, operator, datagen.RandPubkeys(1), datagen.RandSignatures(1), datagen.RandSignatures(1))
	assert.Equal(t, "OperatorInactive", reverts.KindOf(err))
	_, _, err = tp.ClaimRewards(operator, operator)
	assert.Equal(t, "OperatorInactive", reverts.KindOf(err))
	_, err = tp.TransferShares(op.Vault, datagen.RandAddress(), ether(1))
	assert.Equal(t, "CollateralLocked", reverts.KindOf(err))
	assert.Equal(t, new(big.Int).Sub(sharesBefore, slashShares), tp.sharesOf(t, op.Vault))
}

func TestSlashingFinalized(t *testing.T) {
	tp := newTestPool(t)
	operator := datagen.RandAddress()
	NewSequence(tp).
		Deposit(datagen.RandAddress(), ether(32)).
		RegisterOperator(operator, datagen.RandAddress()).
		AddStakes(operator, ether(2)).
		AddValidators(operator, 1).
		Activate(0).
		Run(t)

	slash := milliEther(500)
	proof := tp.proof(t, guardian.ClassSlashing, guardian.SlashingPayload(0, slash, false), 0, 1)
	_, err := tp.ReportSlashing(proof, 0, slash, false)
	require.NoError(t, err)
	AssertValidator(tp, 0).Status(registry.StatusSlashing).Assert(t)

	proof = tp.proof(t, guardian.ClassSlashing, guardian.SlashingPayload(0, new(big.Int), true), 0, 1)
	_, err = tp.ReportSlashing(proof, 0, new(big.Int), true)
	require.NoError(t, err)
	AssertValidator(tp, 0).Status(registry.StatusExit).Assert(t)
}

func TestLifecycle(t *testing.T) {
	tp := newTestPool(t)
	alice := datagen.RandAddress()
	operator, withdraw := datagen.RandAddress(), datagen.RandAddress()

	NewSequence(tp).
		Deposit(alice, ether(30)).
		RegisterOperator(operator, withdraw).
		AddStakes(operator, ether(2)).
		AddValidators(operator, 1).
		Activate(0).
		// the validator appears on the beacon chain with 0.1 ether of rewards
		Report(ledger.Report{
			BeaconValidators: 1,
			BeaconBalance:    new(big.Int).Add(ether(2), milliEther(100)),
		}).
		Run(t)

	stats := tp.stats(t)
	assert.Equal(t, new(big.Int).Add(ether(32), milliEther(100)), stats.TotalPooledValue)
	assert.Equal(t, 0, stats.TransientValue.Sign())
	assert.Equal(t, uint64(1), stats.BeaconValidators)
	assert.Equal(t, 1, stats.ExchangeRate.Cmp(pool.Ether), "rewards raise the rate")
	assert.Equal(t, 1, tp.sharesOf(t, tp.cfg.Insurance).Sign())

	op := tp.operator(t, operator)
	assert.Equal(t, 1, tp.sharesOf(t, op.Vault).Cmp(ether(2)), "operators earn fee shares")

	// alice exits 10 ether of shares through the queue
	id, _, err := tp.RequestWithdrawal(alice, ether(10))
	require.NoError(t, err)
	assert.Equal(t, uint64(1), id)

	var lock *big.Int
	require.NoError(t, tp.Read(func(m *Modules) (err error) {
		lock, err = m.Ledger.SharesToValue(ether(10))
		return
	}))
	rate := tp.rate(t)

	_, _, err = tp.ClaimWithdrawal(alice, id)
	assert.Equal(t, "WithdrawalNotClaimable", reverts.KindOf(err))

	NewSequence(tp).
		NextFrame().
		Report(ledger.Report{
			BeaconValidators:           1,
			BeaconBalance:              new(big.Int).Add(ether(2), milliEther(100)),
			BurnedShareAmount:          ether(10),
			LastRequestIDToBeFulfilled: 1,
			PendingWithdrawLock:        lock,
		}).
		Run(t)

	assert.GreaterOrEqual(t, tp.rate(t).Cmp(rate), 0)

	_, _, err = tp.ClaimWithdrawal(datagen.RandAddress(), id)
	assert.Equal(t, "Unauthorized", reverts.KindOf(err))

	value, _, err := tp.ClaimWithdrawal(alice, id)
	require.NoError(t, err)
	assert.Equal(t, lock, value)

	_, _, err = tp.ClaimWithdrawal(alice, id)
	assert.Equal(t, "WithdrawalNotClaimable", reverts.KindOf(err))

	// the operator claims its fee shares
	claimed, _, err := tp.ClaimRewards(operator, operator)
	require.NoError(t, err)
	assert.Equal(t, claimed, tp.sharesOf(t, withdraw))

	var collateral *big.Int
	require.NoError(t, tp.Read(func(m *Modules) (err error) {
		_, collateral, err = m.Vault.Collateral(operator)
		return
	}))
	assert.GreaterOrEqual(t, collateral.Cmp(pool.DefaultMinOperatorStakingAmount), 0)

	// voluntary exit then oracle confirmation of another operator's exit is rejected
	_, err = tp.RequestExit(operator, operator, []uint64{0})
	require.NoError(t, err)
	AssertValidator(tp, 0).Status(registry.StatusExit).Assert(t)
	_, err = tp.ConfirmExited(oracleMember(0), []uint64{0})
	assert.Equal(t, "InconsistentValidatorStatus", reverts.KindOf(err))
}

func TestReportRevertedVote(t *testing.T) {
	tp := newTestPool(t)
	NewSequence(tp).Deposit(datagen.RandAddress(), ether(1)).Run(t)

	report := ledger.Report{EpochID: tp.frameEpoch(), RewardsVaultBalance: ether(1)}
	sub, _, err := tp.ReportBeacon(oracleMember(0), report)
	require.NoError(t, err)
	assert.False(t, sub.Completed)

	// the quorum vote fails in the ledger and is dropped along with the ledger checks
	_, _, err = tp.ReportBeacon(oracleMember(1), report)
	assert.Equal(t, "InsufficientVaultBalance", reverts.KindOf(err))

	var counts []uint64
	require.NoError(t, tp.Read(func(m *Modules) error {
		variants, err := m.Oracle.Tally(report.EpochID)
		for _, v := range variants {
			counts = append(counts, v.Count)
		}
		return err
	}))
	assert.Equal(t, []uint64{1}, counts)

	NewSequence(tp).CreditRewardsVault(ether(1)).Run(t)
	sub, _, err = tp.ReportBeacon(oracleMember(1), report)
	require.NoError(t, err)
	assert.True(t, sub.Completed)
	assert.Equal(t, ether(1), sub.Result.Delta)
}

func TestReceipts(t *testing.T) {
	tp := newTestPool(t)
	alice := datagen.RandAddress()

	shares, r, err := tp.Deposit(alice, ether(3))
	require.NoError(t, err)
	assert.Equal(t, ether(3), shares)
	assert.Equal(t, "Deposit", r.Op)
	assert.Equal(t, tp.now, r.Time)
	require.NotEmpty(t, r.Events)
	assert.Equal(t, "Deposited", r.Events[0].Name)

	_, r2, err := tp.Deposit(alice, new(big.Int))
	assert.Equal(t, "ZeroAmount", reverts.KindOf(err))
	assert.Nil(t, r2)

	r3, err := tp.TransferShares(alice, datagen.RandAddress(), ether(1))
	require.NoError(t, err)
	assert.Equal(t, r.Seq+1, r3.Seq)

	got := tp.Receipts(r.Seq - 1)
	require.Len(t, got, 2)
	assert.Equal(t, r, got[0])
	assert.Equal(t, r3, got[1])

	assert.Equal(t, r3.Seq, tp.LastSeq())
	assert.Empty(t, tp.Receipts(r3.Seq))
	assert.Empty(t, tp.Receipts(math.MaxUint64))
}

func TestReceiptsWindow(t *testing.T) {
	tp := newTestPool(t)
	alice := datagen.RandAddress()
	ticker := tp.NewTicker()

	_, _, err := tp.Deposit(alice, ether(ReceiptCacheSize+10))
	require.NoError(t, err)
	select {
	case <-ticker.C():
	default:
		t.Fatal("commit does not wake the ticker")
	}

	for range ReceiptCacheSize + 5 {
		_, err := tp.TransferShares(alice, datagen.RandAddress(), ether(1))
		require.NoError(t, err)
	}

	last := tp.LastSeq()
	got := tp.Receipts(0)
	require.Len(t, got, ReceiptCacheSize)
	assert.Equal(t, last-ReceiptCacheSize+1, got[0].Seq)
	assert.Equal(t, last, got[len(got)-1].Seq)
}

func TestReopen(t *testing.T) {
	tp := newTestPool(t)
	operator := datagen.RandAddress()
	NewSequence(tp).
		Deposit(datagen.RandAddress(), ether(5)).
		RegisterOperator(operator, datagen.RandAddress()).
		Run(t)

	fees := ledger.Fees{Fee: 500, Insurance: 1000, Treasury: 1000, NodeOperator: 8000}
	_, err := tp.SetFees(tp.cfg.Admin, fees)
	require.NoError(t, err)
	_, err = tp.SetFees(operator, fees)
	assert.Equal(t, "Unauthorized", reverts.KindOf(err))

	p := tp.reopen(t)
	stats, err := p.Stats()
	require.NoError(t, err)
	assert.Equal(t, ether(5), stats.TotalPooledValue)

	require.NoError(t, p.Read(func(m *Modules) error {
		got, err := m.Ledger.Fees()
		if err != nil {
			return err
		}
		assert.Equal(t, fees, *got, "configured fees apply on first open only")
		_, err = m.Registry.GetOperator(operator)
		return err
	}))
}

func TestConcurrentDeposits(t *testing.T) {
	tp := newTestPool(t)

	var g errgroup.Group
	for range 20 {
		g.Go(func() error {
			_, _, err := tp.Deposit(datagen.RandAddress(), ether(1))
			return err
		})
	}
	require.NoError(t, g.Wait())

	stats := tp.stats(t)
	assert.Equal(t, ether(20), stats.TotalPooledValue)
	assert.Equal(t, ether(20), stats.TotalShares)
	// bootstrap plus every deposit
	assert.Len(t, tp.Receipts(0), 21)
}

func TestMetrics(t *testing.T) {
	tp := newTestPool(t)
	_, _, err := tp.Deposit(datagen.RandAddress(), ether(7))
	require.NoError(t, err)
	_, _, err = tp.Deposit(datagen.RandAddress(), new(big.Int))
	require.Error(t, err)

	families, err := prometheus.DefaultGatherer.Gather()
	require.NoError(t, err)
	byName := make(map[string]*dto.MetricFamily)
	for _, mf := range families {
		byName[mf.GetName()] = mf
	}

	ops := byName["stakepool_pool_operations_count"]
	require.NotNil(t, ops)
	results := make(map[string]bool)
	for _, m := range ops.Metric {
		labels := make(map[string]string)
		for _, l := range m.GetLabel() {
			labels[l.GetName()] = l.GetValue()
		}
		if labels["op"] == "Deposit" && m.GetCounter().GetValue() > 0 {
			results[labels["result"]] = true
		}
	}
	assert.True(t, results["ok"])
	assert.True(t, results["revert"])

	value := byName["stakepool_pool_value_gwei"]
	require.NotNil(t, value)
	var pooled float64
	for _, m := range value.Metric {
		for _, l := range m.GetLabel() {
			if l.GetName() == "kind" && l.GetValue() == "pooled" {
				pooled = m.GetGauge().GetValue()
			}
		}
	}
	// gauges are process wide, this pool is the last one written
	assert.Equal(t, float64(7e9), pooled)
}
