package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io/ioutil"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const flagBlockFile = "block-file"

// blockFile is the JSON shape a commit file is read as: the encoded
// transitions an operator wants to commit as the next block, and the
// signatures its committer collected from the validator set over the
// commit message those transitions hash to.
type blockFile struct {
	BlockNumber uint64   `json:"blockNumber"`
	Committer   string   `json:"committer"`
	Transitions []string `json:"transitions"`
	Signatures  []string `json:"signatures"`
}

// CommitCommand drives a block through Chain.CommitBlock, the way an
// operator's commit step would against a live chain, reading its inputs
// from a JSON file instead of a contract call.
func CommitCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "commit",
		Short: "Commit a block of transitions",
		PreRunE: func(cmd *cobra.Command, args []string) error {
			if err := cmd.MarkFlagRequired(flagBlockFile); err != nil {
				return err
			}
			return viper.BindPFlag(flagBlockFile, cmd.Flags().Lookup(flagBlockFile))
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return commitBlock(viper.GetString(flagConfig), viper.GetString(flagBlockFile))
		},
	}
	cmd.Flags().String(flagBlockFile, "", "path to a JSON file describing the block to commit")
	return cmd
}

func commitBlock(configPath, blockFilePath string) error {
	chain, err := bootstrapChain(configPath)
	if err != nil {
		return err
	}

	raw, err := ioutil.ReadFile(blockFilePath)
	if err != nil {
		return fmt.Errorf("reading %s: %w", blockFilePath, err)
	}
	var bf blockFile
	if err := json.Unmarshal(raw, &bf); err != nil {
		return fmt.Errorf("parsing %s: %w", blockFilePath, err)
	}
	if !common.IsHexAddress(bf.Committer) {
		return fmt.Errorf("committer %q is not a hex address", bf.Committer)
	}
	transitions, err := decodeHexSlice(bf.Transitions)
	if err != nil {
		return fmt.Errorf("transitions: %w", err)
	}
	signatures, err := decodeHexSlice(bf.Signatures)
	if err != nil {
		return fmt.Errorf("signatures: %w", err)
	}

	if err := chain.CommitBlock(context.Background(), common.HexToAddress(bf.Committer), bf.BlockNumber, transitions, signatures); err != nil {
		return fmt.Errorf("commit block %d: %w", bf.BlockNumber, err)
	}
	fmt.Printf("committed block %d with %d transitions\n", bf.BlockNumber, len(transitions))
	return nil
}
