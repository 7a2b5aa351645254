package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"resonance_net/internal/protocol/prke"
)

func entangleCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "entangle <node-a> <node-b>",
		Short: "Measure entanglement strength between two node identifiers",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := prke.DerivePattern(args[0])
			b := prke.DerivePattern(args[1])
			fmt.Printf("entanglement(%s, %s) = %.6f\n", args[0], args[1], prke.Entanglement(a, b))
			return nil
		},
	}
}
