// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package registry

import (
	"crypto/ecdsa"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vechain/stakepool/builtin"
	"github.com/vechain/stakepool/builtin/guardian"
	"github.com/vechain/stakepool/builtin/ledger"
	"github.com/vechain/stakepool/builtin/reverts"
	"github.com/vechain/stakepool/builtin/solidity"
	"github.com/vechain/stakepool/chain"
	"github.com/vechain/stakepool/cry"
	"github.com/vechain/stakepool/lvldb"
	"github.com/vechain/stakepool/pool"
	"github.com/vechain/stakepool/state"
	"github.com/vechain/stakepool/test/datagen"
)

var (
	oracleAddr   = pool.BytesToAddress([]byte("oracle"))
	tempGuardian = pool.BytesToAddress([]byte("temporary guardian"))
)

type testEnv struct {
	reg     *Registry
	ledger  *ledger.Ledger
	gate    *guardian.Gate
	tracker *chain.Tracker
	keys    []*ecdsa.PrivateKey
	events  *solidity.Events
}

func newTestEnv(t *testing.T) *testEnv {
	db, err := lvldb.NewMem()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	st := state.New(db)
	events := &solidity.Events{}
	tracker, err := chain.New(db, 0)
	require.NoError(t, err)
	require.NoError(t, tracker.SetHead(chain.Header{Number: 100, Hash: datagen.RandomHash(), DepositRoot: datagen.RandomHash()}))

	env := &testEnv{tracker: tracker, events: events}
	var guardians []pool.Address
	for range 3 {
		key, err := crypto.GenerateKey()
		require.NoError(t, err)
		env.keys = append(env.keys, key)
		guardians = append(guardians, cry.PubkeyToAddress(key.PublicKey))
	}
	env.gate, err = guardian.New(builtin.GuardianAddress, guardian.Params{
		ChainID:     1,
		Guardians:   guardians,
		Threshold:   2,
		MaxBlockAge: guardian.DefaultMaxBlockAge,
	}, tracker, nil)
	require.NoError(t, err)

	env.ledger = ledger.New(solidity.NewContext(builtin.LedgerAddress, st, events), ledger.Params{
		Registry: builtin.RegistryAddress,
		Oracle:   oracleAddr,
		Protocol: pool.BytesToAddress([]byte("protocol")),
	})
	env.reg = New(solidity.NewContext(builtin.RegistryAddress, st, events), Params{
		Oracle:            oracleAddr,
		TemporaryGuardian: tempGuardian,
		RewardsVault:      builtin.RewardsVaultAddress,
	}, env.ledger, env.gate)
	env.ledger.SetOperatorSet(env.reg)

	// depositors fund the buffer
	_, err = env.ledger.Deposit(datagen.RandAddress(), pool.EtherOf(64))
	require.NoError(t, err)
	return env
}

func (env *testEnv) proof(t *testing.T, class guardian.Class, payload []byte, signers ...int) *guardian.Proof {
	head := env.tracker.Head()
	var keys []*ecdsa.PrivateKey
	for _, i := range signers {
		keys = append(keys, env.keys[i])
	}
	proof, err := env.gate.SignProof(class, head.Number, head.Hash, head.DepositRoot, payload, keys...)
	require.NoError(t, err)
	return proof
}

// operator registers an operator posting collateral ether into its vault.
func (env *testEnv) operator(t *testing.T, collateral int64) *Operator {
	op, err := env.reg.RegisterOperator(datagen.RandAddress(), datagen.RandAddress())
	require.NoError(t, err)
	if collateral > 0 {
		_, err = env.ledger.Deposit(op.Vault, pool.EtherOf(collateral))
		require.NoError(t, err)
	}
	return op
}

func (env *testEnv) submit(t *testing.T, op *Operator, n int) []uint64 {
	indices, err := env.reg.SubmitValidators(op.Vault, op.Address, datagen.RandPubkeys(n), datagen.RandSignatures(n), datagen.RandSignatures(n))
	require.NoError(t, err)
	return indices
}

func (env *testEnv) activate(t *testing.T, indices ...uint64) {
	require.NoError(t, env.reg.ActivateValidators(env.proof(t, guardian.ClassActivate, guardian.ActivatePayload(indices), 0, 1), indices))
}

func (env *testEnv) status(t *testing.T, index uint64) Status {
	v, err := env.reg.GetValidator(index)
	require.NoError(t, err)
	return v.Status
}

func TestRegisterOperator(t *testing.T) {
	env := newTestEnv(t)
	operator, withdraw := datagen.RandAddress(), datagen.RandAddress()

	_, err := env.reg.RegisterOperator(operator, pool.Address{})
	assert.Equal(t, "ZeroAddress", reverts.KindOf(err))

	op, err := env.reg.RegisterOperator(operator, withdraw)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), op.ID)
	assert.True(t, op.IsActive)
	assert.Equal(t, pool.DeriveAddress(operator, "vault"), op.Vault)

	_, err = env.reg.RegisterOperator(operator, withdraw)
	var exists *OperatorAlreadyExistsError
	require.ErrorAs(t, err, &exists)
	assert.Equal(t, operator, exists.Operator)

	registered := env.events.Filter("NodeOperatorRegistered")
	require.Len(t, registered, 1)
	assert.Equal(t, operator, registered[0].Arg("operator"))
	assert.Equal(t, op.Vault, registered[0].Arg("vault"))

	got, err := env.reg.GetOperatorByID(1)
	require.NoError(t, err)
	assert.Equal(t, op, got)

	_, err = env.reg.GetOperator(datagen.RandAddress())
	assert.Equal(t, "OperatorNotFound", reverts.KindOf(err))

	isVault, err := env.reg.IsVault(op.Vault)
	require.NoError(t, err)
	assert.True(t, isVault)
	isVault, err = env.reg.IsVault(operator)
	require.NoError(t, err)
	assert.False(t, isVault)
}

func TestSubmitValidatorsLengths(t *testing.T) {
	env := newTestEnv(t)
	op := env.operator(t, 10)

	tests := []struct {
		name          string
		pubkeys       []byte
		pre, deposits []byte
		want          IncorrectLengthError
	}{
		{"empty", nil, nil, nil, IncorrectLengthError{"pubkeys", 48, 0}},
		{"partial key", datagen.RandBytes(50), datagen.RandSignatures(1), datagen.RandSignatures(1), IncorrectLengthError{"pubkeys", 96, 50}},
		{"pre signatures", datagen.RandPubkeys(2), datagen.RandSignatures(1), datagen.RandSignatures(2), IncorrectLengthError{"preSignatures", 192, 96}},
		{"deposit signatures", datagen.RandPubkeys(2), datagen.RandSignatures(2), datagen.RandBytes(100), IncorrectLengthError{"depositSignatures", 192, 100}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.reg.SubmitValidators(op.Vault, op.Address, tt.pubkeys, tt.pre, tt.deposits)
			var incorrect *IncorrectLengthError
			require.ErrorAs(t, err, &incorrect)
			assert.Equal(t, tt.want, *incorrect)
		})
	}
}

func TestSubmitValidators(t *testing.T) {
	env := newTestEnv(t)
	op := env.operator(t, 4)

	// only the vault submits
	_, err := env.reg.SubmitValidators(op.Address, op.Address, datagen.RandPubkeys(1), datagen.RandSignatures(1), datagen.RandSignatures(1))
	var inconsistent *InconsistentOperatorError
	require.ErrorAs(t, err, &inconsistent)
	assert.Equal(t, op.Vault, inconsistent.Owner)
	assert.Equal(t, op.Address, inconsistent.Caller)

	// 4 ether covers two validators at 2 ether each
	_, err = env.reg.SubmitValidators(op.Vault, op.Address, datagen.RandPubkeys(3), datagen.RandSignatures(3), datagen.RandSignatures(3))
	var insufficient *InsufficientCollateralError
	require.ErrorAs(t, err, &insufficient)
	assert.Equal(t, pool.EtherOf(6), insufficient.Required)
	assert.Equal(t, pool.EtherOf(4), insufficient.Actual)

	pubkeys := datagen.RandPubkeys(2)
	indices, err := env.reg.SubmitValidators(op.Vault, op.Address, pubkeys, datagen.RandSignatures(2), datagen.RandSignatures(2))
	require.NoError(t, err)
	assert.Equal(t, []uint64{0, 1}, indices)

	v, err := env.reg.GetValidator(1)
	require.NoError(t, err)
	assert.Equal(t, StatusWaitingActivated, v.Status)
	assert.Equal(t, pubkeys[48:], v.Pubkey)
	assert.False(t, v.DepositDataRoot.IsZero())
	assert.NotEqual(t, v.PreDepositDataRoot, v.DepositDataRoot)

	active, err := env.reg.ActiveValidatorsCount(op.Address)
	require.NoError(t, err)
	assert.Equal(t, uint64(2), active)

	// more collateral, but the key is taken
	_, err = env.ledger.Deposit(op.Vault, pool.EtherOf(2))
	require.NoError(t, err)
	_, err = env.reg.SubmitValidators(op.Vault, op.Address, pubkeys[:48], datagen.RandSignatures(1), datagen.RandSignatures(1))
	var dup *PubkeyAlreadyExistsError
	require.ErrorAs(t, err, &dup)
	assert.Equal(t, pubkeys[:48], dup.Pubkey)

	// duplicates within one batch
	key := datagen.RandPubkeys(1)
	_, err = env.reg.SubmitValidators(op.Vault, op.Address, append(key, key...), datagen.RandSignatures(2), datagen.RandSignatures(2))
	assert.Equal(t, "PubkeyAlreadyExists", reverts.KindOf(err))

	assert.Len(t, env.events.Filter("SigningKeyAdded"), 2)

	_, err = env.reg.GetValidator(2)
	assert.Equal(t, "ValidatorNotFound", reverts.KindOf(err))
}

func TestActivateValidators(t *testing.T) {
	env := newTestEnv(t)
	op := env.operator(t, 2)
	indices := env.submit(t, op, 1)
	require.Equal(t, []uint64{0}, indices)

	before, err := env.ledger.BufferedValue()
	require.NoError(t, err)

	env.activate(t, 0)
	assert.Equal(t, StatusValidating, env.status(t, 0))

	after, err := env.ledger.BufferedValue()
	require.NoError(t, err)
	assert.Equal(t, pool.DefaultMinOperatorStakingAmount, new(big.Int).Sub(before, after))

	err = env.reg.ActivateValidators(env.proof(t, guardian.ClassActivate, guardian.ActivatePayload(indices), 1, 2), indices)
	var inconsistent *InconsistentValidatorStatusError
	require.ErrorAs(t, err, &inconsistent)
	assert.Equal(t, InconsistentValidatorStatusError{Index: 0, Expected: StatusWaitingActivated, Actual: StatusValidating}, *inconsistent)

	got, err := env.reg.GetOperator(op.Address)
	require.NoError(t, err)
	assert.Equal(t, uint64(0), got.Waiting)
	assert.Equal(t, uint64(1), got.Validating)

	err = env.reg.ActivateValidators(nil, nil)
	assert.Equal(t, "IncorrectLength", reverts.KindOf(err))
}

func TestActivateRequiresQuorum(t *testing.T) {
	env := newTestEnv(t)
	op := env.operator(t, 2)
	env.submit(t, op, 1)
	payload := guardian.ActivatePayload([]uint64{0})

	err := env.reg.ActivateValidators(env.proof(t, guardian.ClassActivate, payload, 2), []uint64{0})
	assert.Equal(t, "QuorumNotMet", reverts.KindOf(err))

	// signatures over other indices do not authorize index 0
	err = env.reg.ActivateValidators(env.proof(t, guardian.ClassActivate, guardian.ActivatePayload([]uint64{1}), 0, 1), []uint64{0})
	assert.True(t, reverts.IsRevertErr(err))

	proof := env.proof(t, guardian.ClassActivate, payload, 0, 1)
	head := env.tracker.Head()
	for range 2 {
		next := chain.Header{Number: head.Number + 1, Hash: datagen.RandomHash(), ParentHash: head.Hash, DepositRoot: head.DepositRoot}
		require.NoError(t, env.tracker.SetHead(next))
		head = next
	}
	err = env.reg.ActivateValidators(proof, []uint64{0})
	assert.Equal(t, "StaleReference", reverts.KindOf(err))
	assert.Equal(t, StatusWaitingActivated, env.status(t, 0))
}

func TestExits(t *testing.T) {
	env := newTestEnv(t)
	op := env.operator(t, 4)
	env.submit(t, op, 2)
	env.activate(t, 0, 1)

	stranger := datagen.RandAddress()
	err := env.reg.RequestVoluntaryExit(stranger, []uint64{0})
	var inconsistent *InconsistentOperatorError
	require.ErrorAs(t, err, &inconsistent)
	assert.Equal(t, InconsistentOperatorError{Index: 0, Owner: op.Address, Caller: stranger}, *inconsistent)

	require.NoError(t, env.reg.RequestVoluntaryExit(op.Address, []uint64{0}))
	assert.Equal(t, StatusExit, env.status(t, 0))

	err = env.reg.RequestVoluntaryExit(op.Address, []uint64{0})
	assert.Equal(t, "InconsistentValidatorStatus", reverts.KindOf(err))

	assert.Equal(t, "Unauthorized", reverts.KindOf(env.reg.ConfirmExited(op.Address, []uint64{1})))
	require.NoError(t, env.reg.ConfirmExited(oracleAddr, []uint64{1}))
	assert.Equal(t, StatusExit, env.status(t, 1))

	got, err := env.reg.GetOperator(op.Address)
	require.NoError(t, err)
	assert.Equal(t, uint64(2), got.Exited)
	assert.Equal(t, uint64(0), got.Active())
}

func TestReportUnsafe(t *testing.T) {
	env := newTestEnv(t)
	op := env.operator(t, 4)
	env.submit(t, op, 2)
	env.activate(t, 0)

	sharesBefore, err := env.ledger.SharesOf(op.Vault)
	require.NoError(t, err)

	slash := pool.EtherOf(1)
	want, err := env.ledger.ValueToSharesUp(slash)
	require.NoError(t, err)

	require.NoError(t, env.reg.ReportUnsafe(env.proof(t, guardian.ClassUnsafe, guardian.UnsafePayload(0, slash), 0, 2), 0, slash))
	assert.Equal(t, StatusUnsafe, env.status(t, 0))

	got, err := env.reg.GetOperator(op.Address)
	require.NoError(t, err)
	assert.False(t, got.IsActive)

	// the unsafe validator stays bonded next to the waiting one
	assert.Equal(t, uint64(1), got.Active())
	assert.Equal(t, uint64(2), got.Bonded())
	required, err := env.reg.RequiredCollateral(got)
	require.NoError(t, err)
	assert.Equal(t, pool.EtherOf(4), required)

	sharesAfter, err := env.ledger.SharesOf(op.Vault)
	require.NoError(t, err)
	assert.Equal(t, want, new(big.Int).Sub(sharesBefore, sharesAfter))

	// the circuit breaker blocks further activations until restored
	err = env.reg.ActivateValidators(env.proof(t, guardian.ClassActivate, guardian.ActivatePayload([]uint64{1}), 0, 1), []uint64{1})
	assert.Equal(t, "OperatorInactive", reverts.KindOf(err))

	assert.Equal(t, "Unauthorized", reverts.KindOf(env.reg.SetOperatorActiveStatus(op.Address, op.Address, true)))
	require.NoError(t, env.reg.SetOperatorActiveStatus(tempGuardian, op.Address, true))

	// unsafe again is not possible
	err = env.reg.ReportUnsafe(env.proof(t, guardian.ClassUnsafe, guardian.UnsafePayload(0, slash), 0, 2), 0, slash)
	assert.Equal(t, "InconsistentValidatorStatus", reverts.KindOf(err))
}

func TestReportSlashing(t *testing.T) {
	env := newTestEnv(t)
	op := env.operator(t, 4)
	env.submit(t, op, 2)
	env.activate(t, 0, 1)

	slash := pool.EtherOf(10)
	finalProof := func(index uint64) *guardian.Proof {
		return env.proof(t, guardian.ClassSlashing, guardian.SlashingPayload(index, new(big.Int), true), 1, 2)
	}

	// finalizing a validating validator skips a state
	err := env.reg.ReportSlashing(finalProof(0), 0, new(big.Int), true)
	var inconsistent *InconsistentValidatorStatusError
	require.ErrorAs(t, err, &inconsistent)
	assert.Equal(t, StatusSlashing, inconsistent.Expected)
	assert.Equal(t, StatusValidating, inconsistent.Actual)

	// the burn is capped at the vault balance
	require.NoError(t, env.reg.ReportSlashing(env.proof(t, guardian.ClassSlashing, guardian.SlashingPayload(0, slash, false), 0, 1), 0, slash, false))
	assert.Equal(t, StatusSlashing, env.status(t, 0))
	shares, err := env.ledger.SharesOf(op.Vault)
	require.NoError(t, err)
	assert.Equal(t, 0, shares.Sign())

	require.NoError(t, env.reg.ReportSlashing(finalProof(0), 0, new(big.Int), true))
	assert.Equal(t, StatusExit, env.status(t, 0))

	// an unsafe validator is finalized through the slashing path too
	require.NoError(t, env.reg.ReportUnsafe(env.proof(t, guardian.ClassUnsafe, guardian.UnsafePayload(1, new(big.Int)), 0, 1), 1, new(big.Int)))
	require.NoError(t, env.reg.ReportSlashing(finalProof(1), 1, new(big.Int), true))
	assert.Equal(t, StatusExit, env.status(t, 1))

	got, err := env.reg.GetOperator(op.Address)
	require.NoError(t, err)
	assert.Equal(t, uint64(0), got.Slashing)
	assert.Equal(t, uint64(2), got.Exited)
}

func TestMinOperatorStakingAmount(t *testing.T) {
	env := newTestEnv(t)

	amount, err := env.reg.MinOperatorStakingAmount()
	require.NoError(t, err)
	assert.Equal(t, pool.DefaultMinOperatorStakingAmount, amount)

	assert.Equal(t, "Unauthorized", reverts.KindOf(env.reg.SetMinOperatorStakingAmount(oracleAddr, pool.EtherOf(4))))
	assert.Equal(t, "ZeroAmount", reverts.KindOf(env.reg.SetMinOperatorStakingAmount(tempGuardian, new(big.Int))))
	require.NoError(t, env.reg.SetMinOperatorStakingAmount(tempGuardian, pool.EtherOf(4)))

	op := env.operator(t, 4)
	env.submit(t, op, 1)
	_, err = env.reg.SubmitValidators(op.Vault, op.Address, datagen.RandPubkeys(1), datagen.RandSignatures(1), datagen.RandSignatures(1))
	assert.Equal(t, "InsufficientCollateral", reverts.KindOf(err))

	op, err = env.reg.GetOperator(op.Address)
	require.NoError(t, err)
	required, err := env.reg.RequiredCollateral(op)
	require.NoError(t, err)
	assert.Equal(t, pool.EtherOf(4), required)
}

func TestRewardRecipients(t *testing.T) {
	env := newTestEnv(t)
	a := env.operator(t, 6)
	b := env.operator(t, 2)
	env.operator(t, 0)

	env.submit(t, a, 3)
	env.submit(t, b, 1)
	env.activate(t, 0, 1, 3)

	recipients, err := env.reg.RewardRecipients()
	require.NoError(t, err)
	assert.Equal(t, []ledger.RewardRecipient{
		{Account: a.Vault, Weight: 2},
		{Account: b.Vault, Weight: 1},
	}, recipients)

	ops, err := env.reg.Operators()
	require.NoError(t, err)
	assert.Len(t, ops, 3)
}
