// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package config loads the network configuration of a pool node from YAML.
package config

import (
	"math/big"
	"os"

	"github.com/ethereum/go-ethereum/common/math"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/vechain/stakepool/pool"
)

// Fees are fractions in basis points. Fee is taken from the reward of a frame, the rest split it.
type Fees struct {
	Fee          uint64 `yaml:"fee"`
	Insurance    uint64 `yaml:"insurance"`
	Treasury     uint64 `yaml:"treasury"`
	NodeOperator uint64 `yaml:"node-operator"`
}

type Guardians struct {
	Members     []pool.Address `yaml:"members"`
	Threshold   int            `yaml:"threshold"`
	MaxBlockAge uint64         `yaml:"max-block-age"`
}

type Frame struct {
	EpochsPerFrame uint64 `yaml:"epochs-per-frame"`
	SlotsPerEpoch  uint64 `yaml:"slots-per-epoch"`
	SecondsPerSlot uint64 `yaml:"seconds-per-slot"`
	GenesisTime    uint64 `yaml:"genesis-time"`
}

type Oracle struct {
	Members []pool.Address `yaml:"members"`
	Quorum  uint64         `yaml:"quorum"`
	Frame   Frame          `yaml:"frame"`
}

// Config is the network configuration. Accounts not set fall back to the zero address,
// which Validate rejects where a role is mandatory.
type Config struct {
	ChainID           uint64                `yaml:"chain-id"`
	Admin             pool.Address          `yaml:"admin"`
	Treasury          pool.Address          `yaml:"treasury"`
	Insurance         pool.Address          `yaml:"insurance"`
	Protocol          pool.Address          `yaml:"protocol"`
	TemporaryGuardian pool.Address          `yaml:"temporary-guardian"`
	MinOperatorStake  *math.HexOrDecimal256 `yaml:"min-operator-stake"`
	Fees              Fees                  `yaml:"fees"`
	Guardians         Guardians             `yaml:"guardians"`
	Oracle            Oracle                `yaml:"oracle"`
}

// MinOperatorStakeAmount returns the minimum operator stake per validator.
func (c *Config) MinOperatorStakeAmount() *big.Int {
	if c.MinOperatorStake == nil {
		return new(big.Int).Set(pool.DefaultMinOperatorStakingAmount)
	}
	return (*big.Int)(c.MinOperatorStake)
}

// Load reads the configuration at path. Fields missing from the file keep their Default value.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "read config")
	}
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, errors.Wrapf(err, "parse config %s", path)
	}
	if err := cfg.Validate(); err != nil {
		return nil, errors.WithMessagef(err, "config %s", path)
	}
	return cfg, nil
}

// Validate checks the configuration is usable.
func (c *Config) Validate() error {
	if c.ChainID == 0 {
		return errors.New("chain-id must be set")
	}
	for name, addr := range map[string]pool.Address{
		"admin":              c.Admin,
		"protocol":           c.Protocol,
		"temporary-guardian": c.TemporaryGuardian,
	} {
		if addr.IsZero() {
			return errors.Errorf("%s must be set", name)
		}
	}
	if c.Fees.Fee > pool.BasisPoints {
		return errors.Errorf("fee %d exceeds %d", c.Fees.Fee, pool.BasisPoints)
	}
	if c.Fees.Insurance+c.Fees.Treasury+c.Fees.NodeOperator > pool.BasisPoints {
		return errors.New("fee split exceeds 100%")
	}
	if (c.Fees.Insurance > 0 && c.Insurance.IsZero()) || (c.Fees.Treasury > 0 && c.Treasury.IsZero()) {
		return errors.New("fee recipient not set")
	}
	if c.MinOperatorStakeAmount().Sign() <= 0 {
		return errors.New("min-operator-stake must be positive")
	}

	if err := checkMembers("guardians", c.Guardians.Members); err != nil {
		return err
	}
	if c.Guardians.Threshold <= 0 || c.Guardians.Threshold > len(c.Guardians.Members) {
		return errors.Errorf("guardian threshold %d out of range [1, %d]", c.Guardians.Threshold, len(c.Guardians.Members))
	}

	if err := checkMembers("oracle members", c.Oracle.Members); err != nil {
		return err
	}
	if c.Oracle.Quorum == 0 || c.Oracle.Quorum > uint64(len(c.Oracle.Members)) {
		return errors.Errorf("oracle quorum %d out of range [1, %d]", c.Oracle.Quorum, len(c.Oracle.Members))
	}
	f := c.Oracle.Frame
	if f.EpochsPerFrame == 0 || f.SlotsPerEpoch == 0 || f.SecondsPerSlot == 0 {
		return errors.New("oracle frame has zero field")
	}
	return nil
}

func checkMembers(name string, members []pool.Address) error {
	if len(members) == 0 {
		return errors.Errorf("%s empty", name)
	}
	seen := make(map[pool.Address]bool, len(members))
	for _, m := range members {
		if m.IsZero() {
			return errors.Errorf("%s contain the zero address", name)
		}
		if seen[m] {
			return errors.Errorf("%s contain %v twice", name, m)
		}
		seen[m] = true
	}
	return nil
}
