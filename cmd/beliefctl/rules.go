package main

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"
)

func newRulesCmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "rules",
		Short: "Print the active rule table version and section sizes",
		RunE: func(cmd *cobra.Command, args []string) error {
			rs, err := root.loadRules()
			if err != nil {
				return err
			}
			source := root.rulesPath
			if source == "" {
				source = "embedded"
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "version: %s\nsource:  %s\n", rs.Version, source)

			summary := rs.Summary()
			keys := make([]string, 0, len(summary))
			for k := range summary {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			for _, k := range keys {
				fmt.Fprintf(out, "  %-28s %d\n", k, summary[k])
			}
			return nil
		},
	}
}
