// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package registry keeps the validator records, their lifecycle and the operators owning them.
package registry

import (
	"math/big"

	"github.com/vechain/stakepool/builtin/guardian"
	"github.com/vechain/stakepool/builtin/ledger"
	"github.com/vechain/stakepool/builtin/reverts"
	"github.com/vechain/stakepool/builtin/solidity"
	"github.com/vechain/stakepool/log"
	"github.com/vechain/stakepool/pool"
)

var logger = log.WithContext("pkg", "registry")

var (
	slotValidators     = pool.BytesToBytes32([]byte("validators"))
	slotValidatorCount = pool.BytesToBytes32([]byte("validator-count"))
	slotOperators      = pool.BytesToBytes32([]byte("operators"))
	slotOperatorIDs    = pool.BytesToBytes32([]byte("operator-ids"))
	slotOperatorCount  = pool.BytesToBytes32([]byte("operator-count"))
	slotVaults         = pool.BytesToBytes32([]byte("vaults"))
	slotPubkeys        = pool.BytesToBytes32([]byte("pubkeys"))
	slotMinStaking     = pool.BytesToBytes32([]byte("min-operator-staking-amount"))
)

// Ledger is the part of the exchange rate ledger the registry drives.
type Ledger interface {
	SharesOf(account pool.Address) (*big.Int, error)
	SharesToValue(shares *big.Int) (*big.Int, error)
	ValueToSharesUp(value *big.Int) (*big.Int, error)
	WithdrawBuffered(caller pool.Address, amount *big.Int) error
	BurnShares(caller, account pool.Address, shares *big.Int) error
}

// Gate verifies guardian quorum proofs.
type Gate interface {
	Verify(class guardian.Class, proof *guardian.Proof, payload []byte) ([]pool.Address, error)
}

// Params configures a registry.
type Params struct {
	Oracle                          pool.Address // may confirm exits
	TemporaryGuardian               pool.Address // may change the minimum stake and operator status
	RewardsVault                    pool.Address // encoded in withdrawal credentials
	DefaultMinOperatorStakingAmount *big.Int
}

// Registry implements the validator registry over module storage.
type Registry struct {
	sctx   *solidity.Context
	params Params
	ledger Ledger
	gate   Gate

	validators     *solidity.Mapping[solidity.Uint64Key, *Validator]
	validatorCount *solidity.Uint64
	operators      *solidity.Mapping[pool.Address, *Operator]
	operatorIDs    *solidity.Mapping[solidity.Uint64Key, pool.Address]
	operatorCount  *solidity.Uint64
	vaults         *solidity.Mapping[pool.Address, pool.Address] // vault account to operator
	pubkeys        *solidity.Mapping[solidity.BytesKey, bool]
	minStaking     *solidity.Uint256
}

func New(sctx *solidity.Context, params Params, l Ledger, gate Gate) *Registry {
	if params.DefaultMinOperatorStakingAmount == nil {
		params.DefaultMinOperatorStakingAmount = pool.DefaultMinOperatorStakingAmount
	}
	return &Registry{
		sctx:   sctx,
		params: params,
		ledger: l,
		gate:   gate,

		validators:     solidity.NewMapping[solidity.Uint64Key, *Validator](sctx, slotValidators),
		validatorCount: solidity.NewUint64(sctx, slotValidatorCount),
		operators:      solidity.NewMapping[pool.Address, *Operator](sctx, slotOperators),
		operatorIDs:    solidity.NewMapping[solidity.Uint64Key, pool.Address](sctx, slotOperatorIDs),
		operatorCount:  solidity.NewUint64(sctx, slotOperatorCount),
		vaults:         solidity.NewMapping[pool.Address, pool.Address](sctx, slotVaults),
		pubkeys:        solidity.NewMapping[solidity.BytesKey, bool](sctx, slotPubkeys),
		minStaking:     solidity.NewUint256(sctx, slotMinStaking),
	}
}

func (r *Registry) Address() pool.Address {
	return r.sctx.Address()
}

// WithdrawalCredentials returns the credentials every validator of the pool deposits with.
func (r *Registry) WithdrawalCredentials() []byte {
	return WithdrawalCredentials(r.params.RewardsVault)
}

//
// Getters - no state change
//

// MinOperatorStakingAmount returns the collateral required per live validator.
func (r *Registry) MinOperatorStakingAmount() (*big.Int, error) {
	v, err := r.minStaking.Get()
	if err != nil {
		return nil, err
	}
	if v.Sign() == 0 {
		return new(big.Int).Set(r.params.DefaultMinOperatorStakingAmount), nil
	}
	return v, nil
}

func (r *Registry) ValidatorCount() (uint64, error) {
	return r.validatorCount.Get()
}

func (r *Registry) OperatorCount() (uint64, error) {
	return r.operatorCount.Get()
}

// GetValidator returns the validator with the given index.
func (r *Registry) GetValidator(index uint64) (*Validator, error) {
	count, err := r.validatorCount.Get()
	if err != nil {
		return nil, err
	}
	if index >= count {
		return nil, &ValidatorNotFoundError{Index: index}
	}
	return r.validators.Get(solidity.Uint64Key(index))
}

// GetOperator returns the operator registered by addr.
func (r *Registry) GetOperator(addr pool.Address) (*Operator, error) {
	op, err := r.operators.Get(addr)
	if err != nil {
		return nil, err
	}
	if !op.Exists() {
		return nil, &OperatorNotFoundError{Operator: addr}
	}
	return op, nil
}

// GetOperatorByID returns the operator with the given id. Ids start at 1.
func (r *Registry) GetOperatorByID(id uint64) (*Operator, error) {
	addr, err := r.operatorIDs.Get(solidity.Uint64Key(id))
	if err != nil {
		return nil, err
	}
	return r.GetOperator(addr)
}

// Operators returns every registered operator ordered by id.
func (r *Registry) Operators() ([]*Operator, error) {
	count, err := r.operatorCount.Get()
	if err != nil {
		return nil, err
	}
	ops := make([]*Operator, 0, count)
	for id := uint64(1); id <= count; id++ {
		op, err := r.GetOperatorByID(id)
		if err != nil {
			return nil, err
		}
		ops = append(ops, op)
	}
	return ops, nil
}

// ActiveValidatorsCount returns the waiting and validating validators of an operator.
func (r *Registry) ActiveValidatorsCount(operator pool.Address) (uint64, error) {
	op, err := r.GetOperator(operator)
	if err != nil {
		return 0, err
	}
	return op.Active(), nil
}

// RequiredCollateral returns the collateral value the operator's bonded validators require.
func (r *Registry) RequiredCollateral(op *Operator) (*big.Int, error) {
	minStake, err := r.MinOperatorStakingAmount()
	if err != nil {
		return nil, err
	}
	return minStake.Mul(minStake, new(big.Int).SetUint64(op.Bonded())), nil
}

// IsVault returns true if account is the vault of a registered operator.
func (r *Registry) IsVault(account pool.Address) (bool, error) {
	operator, err := r.vaults.Get(account)
	if err != nil {
		return false, err
	}
	return !operator.IsZero(), nil
}

// RewardRecipients weights the vault of each active operator by its validating count.
func (r *Registry) RewardRecipients() ([]ledger.RewardRecipient, error) {
	ops, err := r.Operators()
	if err != nil {
		return nil, err
	}
	var recipients []ledger.RewardRecipient
	for _, op := range ops {
		if !op.IsActive || op.Validating == 0 {
			continue
		}
		recipients = append(recipients, ledger.RewardRecipient{Account: op.Vault, Weight: op.Validating})
	}
	return recipients, nil
}

func (r *Registry) setOperator(op *Operator) error {
	return r.operators.Set(op.Address, op)
}

func (r *Registry) setValidator(v *Validator) error {
	return r.validators.Set(solidity.Uint64Key(v.Index), v)
}

//
// Setters - state change
//

// RegisterOperator registers caller as an operator and binds its vault.
func (r *Registry) RegisterOperator(caller, withdrawAddress pool.Address) (*Operator, error) {
	if caller.IsZero() {
		return nil, &reverts.ZeroAddressError{Field: "operator"}
	}
	if withdrawAddress.IsZero() {
		return nil, &reverts.ZeroAddressError{Field: "withdrawAddress"}
	}
	existing, err := r.operators.Get(caller)
	if err != nil {
		return nil, err
	}
	if existing.Exists() {
		return nil, &OperatorAlreadyExistsError{Operator: caller}
	}

	prev, err := r.operatorCount.Increment()
	if err != nil {
		return nil, err
	}
	op := &Operator{
		ID:              prev + 1,
		Address:         caller,
		WithdrawAddress: withdrawAddress,
		Vault:           pool.DeriveAddress(caller, "vault"),
		IsActive:        true,
	}
	if err := r.setOperator(op); err != nil {
		return nil, err
	}
	if err := r.operatorIDs.Set(solidity.Uint64Key(op.ID), caller); err != nil {
		return nil, err
	}
	if err := r.vaults.Set(op.Vault, caller); err != nil {
		return nil, err
	}

	r.sctx.Emit("NodeOperatorRegistered", "operator", caller, "vault", op.Vault)
	r.sctx.Emit("WithdrawAddressSet", "operator", caller, "withdrawAddress", withdrawAddress)
	logger.Info("operator registered", "id", op.ID, "operator", caller, "vault", op.Vault)
	return op, nil
}

// checkBatch validates the widths of a batch of deposit material and returns the key count.
func checkBatch(pubkeys, preSignatures, depositSignatures []byte) (int, error) {
	if len(pubkeys) == 0 || len(pubkeys)%pool.PubkeyLength != 0 {
		expected := (len(pubkeys)/pool.PubkeyLength + 1) * pool.PubkeyLength
		return 0, &IncorrectLengthError{Field: "pubkeys", Expected: expected, Actual: len(pubkeys)}
	}
	n := len(pubkeys) / pool.PubkeyLength
	if len(preSignatures) != n*pool.SignatureLength {
		return 0, &IncorrectLengthError{Field: "preSignatures", Expected: n * pool.SignatureLength, Actual: len(preSignatures)}
	}
	if len(depositSignatures) != n*pool.SignatureLength {
		return 0, &IncorrectLengthError{Field: "depositSignatures", Expected: n * pool.SignatureLength, Actual: len(depositSignatures)}
	}
	return n, nil
}

// SubmitValidators appends validators of operator in WAITING_ACTIVATED. Only the operator's vault
// may submit, and the vault's collateral must cover every live validator including the new ones.
func (r *Registry) SubmitValidators(caller, operator pool.Address, pubkeys, preSignatures, depositSignatures []byte) ([]uint64, error) {
	op, err := r.GetOperator(operator)
	if err != nil {
		return nil, err
	}
	next, err := r.validatorCount.Get()
	if err != nil {
		return nil, err
	}
	if caller != op.Vault {
		return nil, &InconsistentOperatorError{Index: next, Owner: op.Vault, Caller: caller}
	}
	if !op.IsActive {
		return nil, &OperatorInactiveError{Operator: operator}
	}
	n, err := checkBatch(pubkeys, preSignatures, depositSignatures)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool, n)
	for i := range n {
		pk := pubkeys[i*pool.PubkeyLength : (i+1)*pool.PubkeyLength]
		exists, err := r.pubkeys.Get(solidity.BytesKey(pk))
		if err != nil {
			return nil, err
		}
		if exists || seen[string(pk)] {
			return nil, &PubkeyAlreadyExistsError{Pubkey: append([]byte(nil), pk...)}
		}
		seen[string(pk)] = true
	}

	minStake, err := r.MinOperatorStakingAmount()
	if err != nil {
		return nil, err
	}
	shares, err := r.ledger.SharesOf(op.Vault)
	if err != nil {
		return nil, err
	}
	collateral, err := r.ledger.SharesToValue(shares)
	if err != nil {
		return nil, err
	}
	required := new(big.Int).Mul(minStake, new(big.Int).SetUint64(op.Bonded()+uint64(n)))
	if collateral.Cmp(required) < 0 {
		return nil, &InsufficientCollateralError{Required: required, Actual: collateral}
	}

	creds := r.WithdrawalCredentials()
	indices := make([]uint64, 0, n)
	for i := range n {
		pk := append([]byte(nil), pubkeys[i*pool.PubkeyLength:(i+1)*pool.PubkeyLength]...)
		preSig := preSignatures[i*pool.SignatureLength : (i+1)*pool.SignatureLength]
		depositSig := depositSignatures[i*pool.SignatureLength : (i+1)*pool.SignatureLength]

		preRoot, err := DepositDataRoot(pk, creds, minStake, preSig)
		if err != nil {
			return nil, err
		}
		depositRoot, err := DepositDataRoot(pk, creds, FullDepositAmount, depositSig)
		if err != nil {
			return nil, err
		}
		index, err := r.validatorCount.Increment()
		if err != nil {
			return nil, err
		}
		if err := r.setValidator(&Validator{
			Index:              index,
			Operator:           operator,
			Pubkey:             pk,
			Status:             StatusWaitingActivated,
			PreDepositDataRoot: preRoot,
			DepositDataRoot:    depositRoot,
		}); err != nil {
			return nil, err
		}
		if err := r.pubkeys.Set(solidity.BytesKey(pk), true); err != nil {
			return nil, err
		}
		indices = append(indices, index)
		r.sctx.Emit("SigningKeyAdded", "index", index, "operator", operator, "pubkey", pk)
	}

	op.Waiting += uint64(n)
	if err := r.setOperator(op); err != nil {
		return nil, err
	}
	logger.Debug("validators submitted", "operator", operator, "indices", indices)
	return indices, nil
}

// ActivateValidators moves the named validators from WAITING_ACTIVATED to VALIDATING under a
// guardian quorum, deploying the minimum staking amount of buffered value for each.
func (r *Registry) ActivateValidators(proof *guardian.Proof, indices []uint64) error {
	if len(indices) == 0 {
		return &IncorrectLengthError{Field: "indices", Expected: 1, Actual: 0}
	}
	if _, err := r.gate.Verify(guardian.ClassActivate, proof, guardian.ActivatePayload(indices)); err != nil {
		return err
	}
	minStake, err := r.MinOperatorStakingAmount()
	if err != nil {
		return err
	}

	for _, index := range indices {
		v, err := r.GetValidator(index)
		if err != nil {
			return err
		}
		if v.Status != StatusWaitingActivated {
			return &InconsistentValidatorStatusError{Index: index, Expected: StatusWaitingActivated, Actual: v.Status}
		}
		op, err := r.GetOperator(v.Operator)
		if err != nil {
			return err
		}
		if !op.IsActive {
			return &OperatorInactiveError{Operator: op.Address}
		}
		v.Status = StatusValidating
		if err := r.setValidator(v); err != nil {
			return err
		}
		op.Waiting--
		op.Validating++
		if err := r.setOperator(op); err != nil {
			return err
		}
		if err := r.ledger.WithdrawBuffered(r.Address(), minStake); err != nil {
			return err
		}
		r.sctx.Emit("SigningKeyActivated", "index", index, "operator", v.Operator)
	}
	logger.Info("validators activated", "indices", indices)
	return nil
}

// transition moves a validator from one status to another, failing on any other current status.
func (r *Registry) transition(index uint64, from, to Status) (*Validator, error) {
	v, err := r.GetValidator(index)
	if err != nil {
		return nil, err
	}
	if v.Status != from {
		return nil, &InconsistentValidatorStatusError{Index: index, Expected: from, Actual: v.Status}
	}
	v.Status = to
	return v, r.setValidator(v)
}

// RequestVoluntaryExit exits validators of caller. Every index must be owned by caller.
func (r *Registry) RequestVoluntaryExit(caller pool.Address, indices []uint64) error {
	for _, index := range indices {
		v, err := r.GetValidator(index)
		if err != nil {
			return err
		}
		if v.Operator != caller {
			return &InconsistentOperatorError{Index: index, Owner: v.Operator, Caller: caller}
		}
	}
	return r.exit(indices, "voluntary")
}

// ConfirmExited records exits observed by the oracle.
func (r *Registry) ConfirmExited(caller pool.Address, indices []uint64) error {
	if caller != r.params.Oracle {
		return reverts.Unauthorized("oracle", caller)
	}
	return r.exit(indices, "oracle")
}

func (r *Registry) exit(indices []uint64, reason string) error {
	for _, index := range indices {
		v, err := r.transition(index, StatusValidating, StatusExit)
		if err != nil {
			return err
		}
		op, err := r.GetOperator(v.Operator)
		if err != nil {
			return err
		}
		op.Validating--
		op.Exited++
		if err := r.setOperator(op); err != nil {
			return err
		}
		r.sctx.Emit("ValidatorExited", "index", index, "operator", v.Operator, "reason", reason)
	}
	return nil
}

// ReportUnsafe marks a validating validator unsafe under a guardian quorum.
func (r *Registry) ReportUnsafe(proof *guardian.Proof, index uint64, slashAmount *big.Int) error {
	if _, err := r.gate.Verify(guardian.ClassUnsafe, proof, guardian.UnsafePayload(index, slashAmount)); err != nil {
		return err
	}
	return r.penalize(index, StatusUnsafe, slashAmount)
}

// ReportSlashing marks a validating validator slashing, or exits a slashing or unsafe validator
// once the slashing is finalized.
func (r *Registry) ReportSlashing(proof *guardian.Proof, index uint64, slashAmount *big.Int, finalized bool) error {
	if _, err := r.gate.Verify(guardian.ClassSlashing, proof, guardian.SlashingPayload(index, slashAmount, finalized)); err != nil {
		return err
	}
	if !finalized {
		return r.penalize(index, StatusSlashing, slashAmount)
	}

	v, err := r.GetValidator(index)
	if err != nil {
		return err
	}
	if v.Status != StatusSlashing && v.Status != StatusUnsafe {
		return &InconsistentValidatorStatusError{Index: index, Expected: StatusSlashing, Actual: v.Status}
	}
	v.Status = StatusExit
	if err := r.setValidator(v); err != nil {
		return err
	}
	op, err := r.GetOperator(v.Operator)
	if err != nil {
		return err
	}
	op.Slashing--
	op.Exited++
	if err := r.setOperator(op); err != nil {
		return err
	}
	r.sctx.Emit("ValidatorExited", "index", index, "operator", v.Operator, "reason", "slashing finalized")
	return nil
}

// penalize moves a validating validator to status, deactivates its operator and burns collateral
// worth slashAmount, rounded up and capped at the vault balance.
func (r *Registry) penalize(index uint64, status Status, slashAmount *big.Int) error {
	v, err := r.transition(index, StatusValidating, status)
	if err != nil {
		return err
	}
	op, err := r.GetOperator(v.Operator)
	if err != nil {
		return err
	}
	op.Validating--
	op.Slashing++
	op.IsActive = false
	if err := r.setOperator(op); err != nil {
		return err
	}

	burnt := new(big.Int)
	if slashAmount != nil && slashAmount.Sign() > 0 {
		shares, err := r.ledger.ValueToSharesUp(slashAmount)
		if err != nil {
			return err
		}
		balance, err := r.ledger.SharesOf(op.Vault)
		if err != nil {
			return err
		}
		if shares.Cmp(balance) > 0 {
			shares = balance
		}
		if shares.Sign() > 0 {
			if err := r.ledger.BurnShares(r.Address(), op.Vault, shares); err != nil {
				return err
			}
			burnt = shares
		}
	}

	name := "ValidatorUnsafe"
	if status == StatusSlashing {
		name = "ValidatorSlashing"
	}
	r.sctx.Emit(name, "index", index, "operator", v.Operator, "slashAmount", slashAmount, "burntShares", burnt)
	r.sctx.Emit("OperatorActiveStatusSet", "operator", v.Operator, "active", false)
	logger.Info("validator penalized", "index", index, "status", status, "operator", v.Operator, "burntShares", burnt)
	return nil
}

// SetMinOperatorStakingAmount changes the collateral required per live validator.
func (r *Registry) SetMinOperatorStakingAmount(caller pool.Address, amount *big.Int) error {
	if caller != r.params.TemporaryGuardian {
		return reverts.Unauthorized("temporary guardian", caller)
	}
	if amount == nil || amount.Sign() <= 0 {
		return &ledger.ZeroAmountError{Field: "minOperatorStakingAmount"}
	}
	if err := r.minStaking.Set(amount); err != nil {
		return err
	}
	r.sctx.Emit("MinOperatorStakingAmountSet", "amount", amount)
	return nil
}

// SetOperatorActiveStatus flips the circuit breaker of an operator.
func (r *Registry) SetOperatorActiveStatus(caller, operator pool.Address, active bool) error {
	if caller != r.params.TemporaryGuardian {
		return reverts.Unauthorized("temporary guardian", caller)
	}
	op, err := r.GetOperator(operator)
	if err != nil {
		return err
	}
	op.IsActive = active
	if err := r.setOperator(op); err != nil {
		return err
	}
	r.sctx.Emit("OperatorActiveStatusSet", "operator", operator, "active", active)
	logger.Info("operator status set", "operator", operator, "active", active)
	return nil
}
