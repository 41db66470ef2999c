package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/cwbudde/curvefit/internal/opt"
)

var algorithmsCmd = &cobra.Command{
	Use:   "algorithms",
	Short: "List available optimization algorithms",
	RunE: func(cmd *cobra.Command, args []string) error {
		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "NAME\tALGORITHM\tCATEGORY")
		for _, a := range opt.Algorithms() {
			fmt.Fprintf(w, "%s\t%s\t%s\n", a.Name, a.FullName, a.Category)
		}
		return w.Flush()
	},
}

func init() {
	rootCmd.AddCommand(algorithmsCmd)
}
