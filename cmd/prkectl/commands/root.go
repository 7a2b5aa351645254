// Package commands defines the prkectl CLI.
//
// Commands
//
//   - pattern    Print the resonance pattern derived from a node identifier
//   - entangle   Measure entanglement strength between two identifiers
//   - handshake  Run a full pairwise exchange locally
//   - fragments  Split a group secret and prove it reconstructs
//
// Every command runs against in-process protocol state; nothing here talks to
// a relay, so the tool works offline for debugging and demos.
package commands

import (
	"github.com/spf13/cobra"
)

func Execute() error {
	root := &cobra.Command{
		Use:   "prkectl",
		Short: "Inspect prime resonance exchanges from the command line",
	}

	root.AddCommand(patternCmd(), entangleCmd(), handshakeCmd(), fragmentsCmd())
	return root.Execute()
}
