package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"resonance_net/internal/cryptographic/primes"
	"resonance_net/internal/protocol/prke"
)

func patternCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "pattern <node-id>",
		Short: "Print the resonance pattern derived from a node identifier",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			pattern := prke.DerivePattern(args[0])
			fmt.Printf("node %q resonates over %d primes:\n", args[0], len(pattern))
			for i, p := range pattern {
				fmt.Printf("  [%d] %d (%d bits)\n", i, p, primes.Bits(p))
			}
			return nil
		},
	}
}
