package main

import (
	"github.com/spf13/cobra"
)

// explainCmd is sugar for `compsize --explain`: the canonical report plus
// the secondary per-argument breakdown, invocable as its own subcommand
// rather than a root flag.
var explainCmd = &cobra.Command{
	Use:   "explain paths...",
	Short: "Report disk usage plus a per-argument breakdown",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return run(args, true)
	},
}
