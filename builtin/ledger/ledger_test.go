// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package ledger

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vechain/stakepool/builtin/reverts"
	"github.com/vechain/stakepool/builtin/solidity"
	"github.com/vechain/stakepool/lvldb"
	"github.com/vechain/stakepool/pool"
	"github.com/vechain/stakepool/state"
	"github.com/vechain/stakepool/test/datagen"
)

var (
	registryAddr  = pool.BytesToAddress([]byte("registry"))
	oracleAddr    = pool.BytesToAddress([]byte("oracle"))
	vaultAddr     = pool.BytesToAddress([]byte("vault"))
	adminAddr     = pool.BytesToAddress([]byte("admin"))
	treasuryAddr  = pool.BytesToAddress([]byte("treasury"))
	insuranceAddr = pool.BytesToAddress([]byte("insurance"))
	protocolAddr  = pool.BytesToAddress([]byte("protocol"))
)

type staticOperators []RewardRecipient

func (s staticOperators) RewardRecipients() ([]RewardRecipient, error) {
	return s, nil
}

// IsVault treats every recipient as a vault account.
func (s staticOperators) IsVault(account pool.Address) (bool, error) {
	for _, r := range s {
		if r.Account == account {
			return true, nil
		}
	}
	return false, nil
}

func newTestLedger(t *testing.T) (*Ledger, *solidity.Events) {
	db, err := lvldb.NewMem()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	events := &solidity.Events{}
	sctx := solidity.NewContext(pool.BytesToAddress([]byte("ledger")), state.New(db), events)
	return New(sctx, Params{
		Registry:  registryAddr,
		Oracle:    oracleAddr,
		Vault:     vaultAddr,
		Admin:     adminAddr,
		Treasury:  treasuryAddr,
		Insurance: insuranceAddr,
		Protocol:  protocolAddr,
	}), events
}

func ether(n int64) *big.Int {
	return pool.EtherOf(n)
}

func milliEther(n int64) *big.Int {
	return new(big.Int).Mul(big.NewInt(n), big.NewInt(1e15))
}

// rate returns pooled and shares, for cross multiplied rate comparisons.
func rate(t *testing.T, l *Ledger) (*big.Int, *big.Int) {
	pooled, err := l.TotalPooledValue()
	require.NoError(t, err)
	shares, err := l.TotalShares()
	require.NoError(t, err)
	return pooled, shares
}

func assertRateNotDecreased(t *testing.T, pooledBefore, sharesBefore, pooledAfter, sharesAfter *big.Int) {
	// pooledAfter/sharesAfter >= pooledBefore/sharesBefore
	lhs := new(big.Int).Mul(pooledAfter, sharesBefore)
	rhs := new(big.Int).Mul(pooledBefore, sharesAfter)
	assert.True(t, lhs.Cmp(rhs) >= 0, "rate decreased: %v/%v -> %v/%v", pooledBefore, sharesBefore, pooledAfter, sharesAfter)
}

func TestDeposit(t *testing.T) {
	l, events := newTestLedger(t)
	alice := datagen.RandAddress()

	_, err := l.Deposit(alice, big.NewInt(0))
	assert.Equal(t, "ZeroAmount", reverts.KindOf(err))

	_, err = l.Deposit(pool.Address{}, ether(1))
	assert.Equal(t, "ZeroAddress", reverts.KindOf(err))

	shares, err := l.Deposit(alice, ether(10))
	require.NoError(t, err)
	assert.Equal(t, ether(10), shares, "first deposit mints 1:1")

	buffered, err := l.BufferedValue()
	require.NoError(t, err)
	assert.Equal(t, ether(10), buffered)

	balance, err := l.BalanceOf(alice)
	require.NoError(t, err)
	assert.Equal(t, ether(10), balance)

	deltas := events.Filter("StateDelta")
	require.Len(t, deltas, 1)
	assert.Equal(t, "Deposit", deltas[0].Arg("op"))
	assert.Equal(t, 0, new(big.Int).Cmp(deltas[0].Arg("pooledBefore").(*big.Int)))
	assert.Equal(t, ether(10), deltas[0].Arg("pooledAfter"))
	assert.Equal(t, ether(10), deltas[0].Arg("sharesAfter"))
}

func TestDepositAfterRewardsMintsFewerShares(t *testing.T) {
	l, _ := newTestLedger(t)
	alice, bob := datagen.RandAddress(), datagen.RandAddress()

	_, err := l.Deposit(alice, ether(32))
	require.NoError(t, err)
	require.NoError(t, l.WithdrawBuffered(registryAddr, ether(32)))

	_, err = l.ApplyReport(oracleAddr, Report{
		EpochID:          1,
		BeaconBalance:    ether(33),
		BeaconValidators: 1,
	})
	require.NoError(t, err)

	shares, err := l.Deposit(bob, ether(10))
	require.NoError(t, err)
	assert.True(t, shares.Cmp(ether(10)) < 0)

	value, err := l.BalanceOf(bob)
	require.NoError(t, err)
	assert.True(t, value.Cmp(ether(10)) <= 0, "rounding favors the pool")
}

func TestDepositBelowOneShareIsRejected(t *testing.T) {
	l, _ := newTestLedger(t)
	first, second := datagen.RandAddress(), datagen.RandAddress()

	// one share worth 10 ether plus one wei
	shares, err := l.Deposit(first, big.NewInt(1))
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(1), shares)
	require.NoError(t, l.CreditRewardsVault(ether(10)))
	_, err = l.ApplyReport(oracleAddr, Report{EpochID: 1, RewardsVaultBalance: ether(10)})
	require.NoError(t, err)

	buffered, err := l.BufferedValue()
	require.NoError(t, err)
	total, err := l.TotalShares()
	require.NoError(t, err)

	_, err = l.Deposit(second, ether(1))
	var zero *ZeroAmountError
	require.ErrorAs(t, err, &zero)
	assert.Equal(t, "shares", zero.Field)

	bufferedAfter, err := l.BufferedValue()
	require.NoError(t, err)
	assert.Equal(t, buffered, bufferedAfter)
	totalAfter, err := l.TotalShares()
	require.NoError(t, err)
	assert.Equal(t, total, totalAfter)
	balance, err := l.SharesOf(second)
	require.NoError(t, err)
	assert.Equal(t, 0, balance.Sign())
}

func TestTransferShares(t *testing.T) {
	l, _ := newTestLedger(t)
	alice, bob := datagen.RandAddress(), datagen.RandAddress()

	_, err := l.Deposit(alice, ether(5))
	require.NoError(t, err)

	require.NoError(t, l.TransferShares(alice, bob, ether(2)))
	err = l.TransferShares(alice, bob, ether(4))
	var insufficient *InsufficientSharesError
	require.ErrorAs(t, err, &insufficient)
	assert.Equal(t, alice, insufficient.Account)
	assert.Equal(t, ether(3), insufficient.Available)

	assert.Equal(t, "ZeroAmount", reverts.KindOf(l.TransferShares(alice, bob, new(big.Int))))
	assert.Equal(t, "ZeroAddress", reverts.KindOf(l.TransferShares(alice, pool.Address{}, ether(1))))

	shares, err := l.SharesOf(bob)
	require.NoError(t, err)
	assert.Equal(t, ether(2), shares)
}

func TestVaultCollateralIsLocked(t *testing.T) {
	l, _ := newTestLedger(t)
	vault, thief := datagen.RandAddress(), datagen.RandAddress()
	l.SetOperatorSet(staticOperators{{Account: vault, Weight: 1}})

	_, err := l.Deposit(vault, ether(2))
	require.NoError(t, err)

	var locked *CollateralLockedError
	require.ErrorAs(t, l.TransferShares(vault, thief, ether(2)), &locked)
	assert.Equal(t, vault, locked.Account)
	_, err = l.RequestWithdrawal(vault, ether(1))
	assert.Equal(t, "CollateralLocked", reverts.KindOf(err))

	err = l.ReleaseCollateral(thief, vault, thief, ether(1))
	assert.Equal(t, "Unauthorized", reverts.KindOf(err))

	held, err := l.SharesOf(vault)
	require.NoError(t, err)
	assert.Equal(t, ether(2), held)

	require.NoError(t, l.ReleaseCollateral(vaultAddr, vault, thief, ether(1)))
	got, err := l.SharesOf(thief)
	require.NoError(t, err)
	assert.Equal(t, ether(1), got)

	// the receiving side of a vault is unrestricted
	require.NoError(t, l.TransferShares(thief, vault, ether(1)))
}

func TestWithdrawBuffered(t *testing.T) {
	l, _ := newTestLedger(t)
	_, err := l.Deposit(datagen.RandAddress(), ether(40))
	require.NoError(t, err)

	err = l.WithdrawBuffered(datagen.RandAddress(), ether(32))
	assert.Equal(t, "Unauthorized", reverts.KindOf(err))

	require.NoError(t, l.WithdrawBuffered(registryAddr, ether(32)))

	err = l.WithdrawBuffered(registryAddr, ether(32))
	var insufficient *InsufficientBufferedError
	require.ErrorAs(t, err, &insufficient)
	assert.Equal(t, ether(8), insufficient.Available)

	buffered, err := l.BufferedValue()
	require.NoError(t, err)
	assert.Equal(t, ether(8), buffered)
	transient, err := l.TransientValue()
	require.NoError(t, err)
	assert.Equal(t, ether(32), transient)

	pooled, err := l.TotalPooledValue()
	require.NoError(t, err)
	assert.Equal(t, ether(40), pooled, "deploying does not change pooled value")

	deposited, _, _, err := l.BeaconStat()
	require.NoError(t, err)
	assert.Equal(t, uint64(1), deposited)
}

func TestBurnSharesRaisesRate(t *testing.T) {
	l, _ := newTestLedger(t)
	alice, bob := datagen.RandAddress(), datagen.RandAddress()
	_, err := l.Deposit(alice, ether(10))
	require.NoError(t, err)
	_, err = l.Deposit(bob, ether(10))
	require.NoError(t, err)

	assert.Equal(t, "Unauthorized", reverts.KindOf(l.BurnShares(alice, bob, ether(1))))
	require.NoError(t, l.BurnShares(registryAddr, bob, ether(5)))

	balance, err := l.BalanceOf(alice)
	require.NoError(t, err)
	// alice owns 10 of 15 shares over 20 pooled
	assert.Equal(t, 0, balance.Cmp(new(big.Int).Div(new(big.Int).Mul(ether(10), ether(20)), ether(15))))

	err = l.BurnShares(registryAddr, bob, ether(6))
	assert.Equal(t, "InsufficientShares", reverts.KindOf(err))
}

func TestSetFees(t *testing.T) {
	l, events := newTestLedger(t)

	fees, err := l.Fees()
	require.NoError(t, err)
	assert.Equal(t, &Fees{Fee: 1000, Insurance: 5000, Treasury: 0, NodeOperator: 5000}, fees)

	assert.Equal(t, "Unauthorized", reverts.KindOf(l.SetFees(treasuryAddr, Fees{})))
	assert.Equal(t, "InvalidFees", reverts.KindOf(l.SetFees(adminAddr, Fees{Fee: 10001})))
	assert.Equal(t, "InvalidFees", reverts.KindOf(l.SetFees(adminAddr, Fees{Fee: 100, Insurance: 6000, NodeOperator: 5000})))

	want := Fees{Fee: 500, Insurance: 0, Treasury: 2000, NodeOperator: 3000}
	require.NoError(t, l.SetFees(adminAddr, want))
	fees, err = l.Fees()
	require.NoError(t, err)
	assert.Equal(t, &want, fees)
	assert.Len(t, events.Filter("FeesSet"), 1)
}

func TestCreditRewardsVault(t *testing.T) {
	l, _ := newTestLedger(t)
	assert.Equal(t, "ZeroAmount", reverts.KindOf(l.CreditRewardsVault(nil)))
	require.NoError(t, l.CreditRewardsVault(ether(1)))
	require.NoError(t, l.CreditRewardsVault(ether(2)))

	balance, err := l.RewardsVaultBalance()
	require.NoError(t, err)
	assert.Equal(t, ether(3), balance)

	pooled, err := l.TotalPooledValue()
	require.NoError(t, err)
	assert.Equal(t, 0, pooled.Sign(), "vault value is pooled only once swept")
}
