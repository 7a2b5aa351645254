package commands

import (
	"bytes"
	"fmt"

	"github.com/spf13/cobra"

	"resonance_net/internal/protocol/prke"
)

// handshakeCmd runs both endpoints of an exchange in process, which makes it
// a quick check that two identifiers can reach a shared key at all.
func handshakeCmd() *cobra.Command {
	var threshold float64

	cmd := &cobra.Command{
		Use:   "handshake <node-a> <node-b>",
		Short: "Run a full pairwise exchange locally and print the outcome",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			idA, idB := args[0], args[1]
			left := prke.New()
			right := prke.New()

			sa, err := left.InitSession(idA, idB)
			if err != nil {
				return err
			}
			sb, err := right.InitSession(idB, idA)
			if err != nil {
				return err
			}

			keyA, err := left.ProcessExchange(idA, idB, sb.Public(), sb.Pattern())
			if err != nil {
				return err
			}
			keyB, err := right.ProcessExchange(idB, idA, sa.Public(), sa.Pattern())
			if err != nil {
				return err
			}

			if !bytes.Equal(keyA, keyB) {
				return fmt.Errorf("exchange asymmetric: %x != %x", keyA, keyB)
			}

			fmt.Printf("session key: %x\n", keyA)
			fmt.Printf("entanglement: %.6f\n", sa.Entanglement())
			fmt.Printf("secure at threshold %.2f: %v\n", threshold, left.CanEstablishSecureConnection(idA, idB, threshold))
			return nil
		},
	}

	cmd.Flags().Float64Var(&threshold, "threshold", 0.5, "entanglement required for a secure connection")
	return cmd
}
