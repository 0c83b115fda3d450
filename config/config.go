// Package config loads the settings a rollupnode process needs to stand up
// a Chain: which validators sit in the committer rotation, which
// signature-threshold rule governs block commits, and which storage
// backend the block ledger and state tree live in.
package config

import (
	"fmt"

	rollupdb "github.com/celer-network/optimistic-rollup/db"
	"github.com/celer-network/optimistic-rollup/db/badgerdb"
	"github.com/celer-network/optimistic-rollup/db/memorydb"
	"github.com/celer-network/optimistic-rollup/validator"
	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/viper"
)

// StorageConfig picks the db.DB backend a Chain persists its ledger and
// state tree scratch space in.
type StorageConfig struct {
	// Backend is "memory" or "badger". Empty defaults to "memory".
	Backend string `mapstructure:"backend"`
	// BadgerDir is the directory badger opens when Backend is "badger".
	BadgerDir string `mapstructure:"badgerDir"`
}

// RollupConfig is the full configuration a rollupnode process reads
// before binding a validator.Registry to a rollupchain.Chain.
type RollupConfig struct {
	// Validators lists the validator set in committer rotation order, as
	// 0x-prefixed hex addresses.
	Validators []string `mapstructure:"validators"`
	// SignatureMode is "compat" or "fixed"; see validator.SignatureMode.
	SignatureMode string `mapstructure:"signatureMode"`
	// ContractAddress identifies this rollup deployment in the withdraw and
	// transfer signed-message preimages, so a signature collected for one
	// deployment can't be replayed against another sharing the same
	// validator keys.
	ContractAddress string        `mapstructure:"contractAddress"`
	Storage         StorageConfig `mapstructure:"storage"`
}

// Load reads and unmarshals the YAML config file at path.
func Load(path string) (*RollupConfig, error) {
	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("config: reading %s: %w", path, err)
	}
	var cfg RollupConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config: unmarshal %s: %w", path, err)
	}
	return &cfg, nil
}

// ValidatorAddresses parses Validators into common.Address, in order.
func (c *RollupConfig) ValidatorAddresses() ([]common.Address, error) {
	if len(c.Validators) == 0 {
		return nil, fmt.Errorf("config: validators list is empty")
	}
	addrs := make([]common.Address, len(c.Validators))
	for i, s := range c.Validators {
		if !common.IsHexAddress(s) {
			return nil, fmt.Errorf("config: validators[%d] %q is not a hex address", i, s)
		}
		addrs[i] = common.HexToAddress(s)
	}
	return addrs, nil
}

// ParseContractAddress parses ContractAddress into a common.Address.
func (c *RollupConfig) ParseContractAddress() (common.Address, error) {
	if !common.IsHexAddress(c.ContractAddress) {
		return common.Address{}, fmt.Errorf("config: contractAddress %q is not a hex address", c.ContractAddress)
	}
	return common.HexToAddress(c.ContractAddress), nil
}

// ParseSignatureMode maps SignatureMode's string value to a
// validator.SignatureMode, defaulting to neither: a config that doesn't
// name a mode is a config error, not a silent fallback to the weaker one.
func (c *RollupConfig) ParseSignatureMode() (validator.SignatureMode, error) {
	switch c.SignatureMode {
	case "compat":
		return validator.ModeCompat, nil
	case "fixed":
		return validator.ModeFixed, nil
	default:
		return validator.ModeUnset, fmt.Errorf("config: signatureMode must be \"compat\" or \"fixed\", got %q", c.SignatureMode)
	}
}

// OpenStorage opens the db.DB backend Storage names.
func (c *RollupConfig) OpenStorage() (rollupdb.DB, error) {
	switch c.Storage.Backend {
	case "", "memory":
		return memorydb.NewDB(), nil
	case "badger":
		if c.Storage.BadgerDir == "" {
			return nil, fmt.Errorf("config: storage.badgerDir is required for the badger backend")
		}
		return badgerdb.NewDB(c.Storage.BadgerDir)
	default:
		return nil, fmt.Errorf("config: unknown storage backend %q", c.Storage.Backend)
	}
}
