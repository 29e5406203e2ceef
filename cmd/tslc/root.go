// SPDX-License-Identifier: Apache-2.0
package main

import (
	"os"

	"github.com/spf13/cobra"
)

// Version is filled in when building via `go build -ldflags`; left empty
// for a plain `go run`/`go install`.
var Version string

var rootCmd = &cobra.Command{
	Use:   "tslc",
	Short: "A compiler and JIT toolbox for the Tiny Shading Language.",
	Long:  "tslc compiles, links and runs Tiny Shading Language shader units.",
}

// Execute runs the root command; called once from main.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// GetFlag fetches a bool flag, ignoring the (impossible, since the flag
// was registered by this same package) lookup error.
func GetFlag(cmd *cobra.Command, name string) bool {
	v, _ := cmd.Flags().GetBool(name)
	return v
}

// GetString fetches a string flag the same way.
func GetString(cmd *cobra.Command, name string) string {
	v, _ := cmd.Flags().GetString(name)
	return v
}

//nolint:errcheck
func init() {
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "increase logging verbosity")
}
