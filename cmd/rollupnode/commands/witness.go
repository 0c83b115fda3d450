package commands

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io/ioutil"

	"github.com/celer-network/optimistic-rollup/types"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const (
	flagTransitionsFile = "transitions-file"
	flagBlockNumber     = "block-number"
	flagTransitionIndex = "transition-index"
)

// transitionsFile is the JSON shape a witness request reads: the full,
// already-decided ordered list of a block's encoded transitions. The
// block number they were (or will be) committed under, and which one of
// them the caller wants an IncludedTransition built for, come from the
// --block-number and --transition-index flags.
type transitionsFile struct {
	Transitions []string `json:"transitions"`
}

// WitnessCommand builds the IncludedTransition for one transition inside
// a block: the transitions-tree root over the whole block, plus the
// sibling path proving that transition sits at the requested index. An
// operator runs this once it has decided a block's final transition
// order, to hand challengers (or itself, anchoring a later challenge) the
// witness the adjudicator's sequentiality check needs. Mirrors the
// teacher's rollup_block_info.go: a RollupBlockInfo wraps one block's
// decoded transitions with the transitions-tree root and on-demand
// inclusion-proof construction, without keeping the ephemeral tree
// itself around after the root is computed.
func WitnessCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "witness",
		Short: "Build an IncludedTransition witness for one transition in a block",
		PreRunE: func(cmd *cobra.Command, args []string) error {
			for _, flag := range []string{flagTransitionsFile, flagBlockNumber, flagTransitionIndex} {
				if err := cmd.MarkFlagRequired(flag); err != nil {
					return err
				}
			}
			return viper.BindPFlags(cmd.Flags())
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return buildWitness(
				viper.GetString(flagTransitionsFile),
				viper.GetUint64(flagBlockNumber),
				viper.GetInt(flagTransitionIndex),
			)
		},
	}
	cmd.Flags().String(flagTransitionsFile, "", "path to a JSON file listing the block's encoded transitions")
	cmd.Flags().Uint64(flagBlockNumber, 0, "block number the transitions are committed under")
	cmd.Flags().Int(flagTransitionIndex, 0, "index of the transition to build a witness for")
	return cmd
}

func buildWitness(transitionsFilePath string, blockNumber uint64, transitionIndex int) error {
	raw, err := ioutil.ReadFile(transitionsFilePath)
	if err != nil {
		return fmt.Errorf("reading %s: %w", transitionsFilePath, err)
	}
	var tf transitionsFile
	if err := json.Unmarshal(raw, &tf); err != nil {
		return fmt.Errorf("parsing %s: %w", transitionsFilePath, err)
	}
	encoded, err := decodeHexSlice(tf.Transitions)
	if err != nil {
		return fmt.Errorf("transitions: %w", err)
	}
	if transitionIndex < 0 || transitionIndex >= len(encoded) {
		return fmt.Errorf("transition-index %d out of range for %d transitions", transitionIndex, len(encoded))
	}

	serializer, err := types.NewSerializer()
	if err != nil {
		return err
	}
	block, err := serializer.DeserializeRollupBlock(encoded, blockNumber)
	if err != nil {
		return fmt.Errorf("decoding block: %w", err)
	}
	info, err := types.NewRollupBlockInfo(serializer, block)
	if err != nil {
		return fmt.Errorf("building block info: %w", err)
	}
	included, err := info.GetIncludedTransition(transitionIndex)
	if err != nil {
		return fmt.Errorf("building witness: %w", err)
	}

	out, err := json.MarshalIndent(includedTransitionToFile(included), "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}

func includedTransitionToFile(it *types.IncludedTransition) includedTransitionFile {
	siblings := make([]string, len(it.InclusionProof.Siblings))
	for i, s := range it.InclusionProof.Siblings {
		siblings[i] = hex.EncodeToString(s[:])
	}
	return includedTransitionFile{
		Transition: hex.EncodeToString(it.Transition),
		InclusionProof: transitionInclusionProofFile{
			BlockNumber:     it.InclusionProof.BlockNumber.String(),
			TransitionIndex: it.InclusionProof.TransitionIndex.String(),
			Siblings:        siblings,
		},
	}
}
