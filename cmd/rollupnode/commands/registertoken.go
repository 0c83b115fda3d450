package commands

import (
	"fmt"

	"github.com/celer-network/optimistic-rollup/config"
	"github.com/celer-network/optimistic-rollup/events"
	"github.com/celer-network/optimistic-rollup/tokenregistry"
	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const flagTokenAddress = "address"

// RegisterTokenCommand drives tokenregistry.Registry.RegisterToken, the
// admin operation spec §4.2/§6 names, against the same storage backend a
// rollupnode process's Chain would read its state tree and ledger from.
// Neither this command nor the registry checks who the caller is: any
// invocation can register a token.
func RegisterTokenCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "register-token",
		Short: "Register a token address and print its assigned index",
		PreRunE: func(cmd *cobra.Command, args []string) error {
			if err := cmd.MarkFlagRequired(flagTokenAddress); err != nil {
				return err
			}
			return viper.BindPFlag(flagTokenAddress, cmd.Flags().Lookup(flagTokenAddress))
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return registerToken(viper.GetString(flagConfig), viper.GetString(flagTokenAddress))
		},
	}
	cmd.Flags().String(flagTokenAddress, "", "0x-prefixed address to register")
	return cmd
}

func registerToken(configPath, addressHex string) error {
	if !common.IsHexAddress(addressHex) {
		return fmt.Errorf("address %q is not a hex address", addressHex)
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	db, err := cfg.OpenStorage()
	if err != nil {
		return err
	}

	log := events.NewLog()
	registry := tokenregistry.NewRegistry(db, log)
	index, err := registry.RegisterToken(common.HexToAddress(addressHex))
	if err != nil {
		return fmt.Errorf("register token: %w", err)
	}
	fmt.Printf("registered %s at index %d\n", addressHex, index)
	return nil
}
