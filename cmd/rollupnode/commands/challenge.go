package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io/ioutil"

	"github.com/celer-network/optimistic-rollup/types"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const flagChallengeFile = "challenge-file"

// challengeFile is the JSON shape a challenge file is read as: the
// sequential (pre, invalid) IncludedTransition pair the challenger is
// anchoring the dispute to, and the storage-slot witnesses the invalid
// transition's access list needs.
type challengeFile struct {
	Pre     includedTransitionFile    `json:"pre"`
	Invalid includedTransitionFile    `json:"invalid"`
	Slots   []includedStorageSlotFile `json:"slots"`
}

// ChallengeCommand drives a disputed transition through
// Chain.ProveTransitionInvalid, the way a challenger's fraud-proof
// submission would against a live chain, reading its inputs from a JSON
// file instead of a contract call.
func ChallengeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "challenge",
		Short: "Submit a fraud proof against a disputed transition",
		PreRunE: func(cmd *cobra.Command, args []string) error {
			if err := cmd.MarkFlagRequired(flagChallengeFile); err != nil {
				return err
			}
			return viper.BindPFlag(flagChallengeFile, cmd.Flags().Lookup(flagChallengeFile))
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return challenge(viper.GetString(flagConfig), viper.GetString(flagChallengeFile))
		},
	}
	cmd.Flags().String(flagChallengeFile, "", "path to a JSON file describing the challenge")
	return cmd
}

func challenge(configPath, challengeFilePath string) error {
	chain, err := bootstrapChain(configPath)
	if err != nil {
		return err
	}

	raw, err := ioutil.ReadFile(challengeFilePath)
	if err != nil {
		return fmt.Errorf("reading %s: %w", challengeFilePath, err)
	}
	var cf challengeFile
	if err := json.Unmarshal(raw, &cf); err != nil {
		return fmt.Errorf("parsing %s: %w", challengeFilePath, err)
	}

	pre, err := cf.Pre.toIncludedTransition()
	if err != nil {
		return fmt.Errorf("pre: %w", err)
	}
	invalid, err := cf.Invalid.toIncludedTransition()
	if err != nil {
		return fmt.Errorf("invalid: %w", err)
	}
	slots := make([]*types.IncludedStorageSlot, len(cf.Slots))
	for i := range cf.Slots {
		slot, err := cf.Slots[i].toIncludedStorageSlot()
		if err != nil {
			return fmt.Errorf("slots[%d]: %w", i, err)
		}
		slots[i] = slot
	}

	result, err := chain.ProveTransitionInvalid(context.Background(), pre, invalid, slots)
	if err != nil {
		return fmt.Errorf("prove transition invalid: %w", err)
	}
	fmt.Printf("fraud detected: pruned blocks from %d onward\n", result.PrunedFrom)
	return nil
}
