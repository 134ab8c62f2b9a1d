package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var languagesCmd = &cobra.Command{
	Use:   "languages",
	Short: "List supported languages and their file extensions",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		out := cmd.OutOrStdout()
		for _, e := range newRegistry().Extractors() {
			fmt.Fprintf(out, "%-12s %s\n", e.Language(), strings.Join(e.Extensions(), " "))
		}
	},
}
