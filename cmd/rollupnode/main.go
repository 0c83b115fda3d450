package main

import (
	"github.com/celer-network/optimistic-rollup/cmd/rollupnode/commands"
	"github.com/celer-network/optimistic-rollup/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const flagConfig = "config"

func main() {
	cobra.EnableCommandSorting = false
	logger := log.NewLogger("rollupnode")

	rootCmd := &cobra.Command{
		Use:   "rollupnode",
		Short: "optimistic rollup commit and challenge driver",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return viper.BindPFlags(cmd.Flags())
		},
	}

	rootCmd.AddCommand(
		commands.CommitCommand(),
		commands.ChallengeCommand(),
		commands.WitnessCommand(),
		commands.RegisterTokenCommand(),
	)

	rootCmd.PersistentFlags().String(flagConfig, "./config/config.yaml", "config path")
	if err := rootCmd.Execute(); err != nil {
		logger.Fatal().Err(err).Send()
	}
}
