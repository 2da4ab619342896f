// Command beliefctl validates candidates offline and manages a beliefgate database.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/nia-core/beliefgate/internal/buildconfig"
	"github.com/nia-core/beliefgate/internal/config"
	"github.com/nia-core/beliefgate/internal/rules"
	"github.com/spf13/cobra"
)

func main() {
	_ = config.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

type rootOptions struct {
	rulesPath string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	root := &cobra.Command{
		Use:   "beliefctl",
		Short: "Validate belief and memory candidates before they reach the store",
		Long: `beliefctl runs the beliefgate validators against candidate files, inspects
the active rule table and prepares the database schema.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&opts.rulesPath, "rules", config.RulesPath(), "YAML rule table (default: embedded table)")

	root.AddCommand(
		newValidateCmd(opts),
		newExtractCmd(opts),
		newRulesCmd(opts),
		newMigrateCmd(),
		newVersionCmd(),
	)
	return root
}

func (o *rootOptions) loadRules() (*rules.RuleSet, error) {
	return rules.Load(o.rulesPath)
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the build version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "beliefctl %s\n", buildconfig.String())
		},
	}
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
