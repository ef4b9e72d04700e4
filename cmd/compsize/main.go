// Command compsize reports btrfs compression and extent-sharing
// statistics for one or more files or directory trees.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var version = "0.1.0"

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "compsize [flags] paths...",
	Short: "Show btrfs compression and extent-sharing statistics",
	Long: `compsize takes a list of files and/or directories and measures
compressed and uncompressed space used by their btrfs extents,
accounting for sharing between reflinks and snapshots.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runRoot,
}

var (
	flagBytes         bool
	flagOneFileSystem bool
	flagJobs          int
	flagVerbose       bool
	flagProgressUI    bool
	flagExplain       bool
)

func init() {
	rootCmd.Version = version

	rootCmd.PersistentFlags().BoolVarP(&flagBytes, "bytes", "b", false, "Show raw byte counts instead of human-readable sizes")
	rootCmd.PersistentFlags().BoolVarP(&flagOneFileSystem, "one-file-system", "x", false, "Don't cross filesystem (device) boundaries")
	rootCmd.PersistentFlags().IntVarP(&flagJobs, "jobs", "j", 0, "Number of walker/worker goroutines (0 = number of CPUs)")
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "Trace each file the workers search to stderr")
	rootCmd.PersistentFlags().BoolVar(&flagProgressUI, "progress-ui", false, "Show a live progress display while scanning")
	rootCmd.Flags().BoolVar(&flagExplain, "explain", false, "Print a secondary per-argument breakdown after the report")

	rootCmd.AddCommand(explainCmd)
}
