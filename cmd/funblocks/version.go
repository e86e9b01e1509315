package main

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"
)

// Version can be set at build time using: -ldflags "-X main.Version=v1.2.3"
var Version = "dev"

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the funblocks version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "funblocks %s (%s)\n", Version, runtime.Version())
		},
	}
}
