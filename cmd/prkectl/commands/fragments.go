package commands

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"resonance_net/internal/cryptographic/primes"
	"resonance_net/internal/protocol/prke"
)

func fragmentsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "fragments <count>",
		Short: "Split a fresh group secret and prove it reconstructs",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("count %q: %w", args[0], err)
			}

			secret, err := primes.SafePrime(20, 30)
			if err != nil {
				return err
			}

			frags, err := prke.GenerateFragments(secret, n)
			if err != nil {
				return err
			}

			fmt.Printf("secret: %d\n", secret)
			points := make([]prke.SharePoint, len(frags))
			for i, f := range frags {
				points[i] = prke.SharePoint{X: uint64(i + 1), Y: f.Value}
				fmt.Printf("  fragment[%d] @ x=%d: %d\n", i, i+1, f.Value)
			}

			recovered, err := prke.ReconstructSecret(points)
			if err != nil {
				return err
			}
			fmt.Printf("reconstructed: %d (match: %v)\n", recovered, recovered == secret%prke.Modulus)
			return nil
		},
	}
}
