package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/nia-core/beliefgate/internal/domain"
	"github.com/nia-core/beliefgate/internal/validator"
	"github.com/spf13/cobra"
)

const (
	kindBelief = "belief"
	kindMemory = "memory"
)

type validateOptions struct {
	file   string
	kind   string
	source string
}

func newValidateCmd(root *rootOptions) *cobra.Command {
	opts := &validateOptions{}
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate a JSON array of candidates and print the verdicts",
		Long: `Reads a JSON array of belief candidates (or memory candidates with --kind memory)
from --file, or stdin when --file is "-", and prints one verdict per candidate.

--source is the transcript evidence must be traceable to for beliefs, and the
source message for memories.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(cmd, root, opts)
		},
	}
	cmd.Flags().StringVarP(&opts.file, "file", "f", "-", "candidates file")
	cmd.Flags().StringVar(&opts.kind, "kind", kindBelief, "candidate kind: belief or memory")
	cmd.Flags().StringVar(&opts.source, "source", "", "transcript or source message")
	return cmd
}

func readInput(cmd *cobra.Command, path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(cmd.InOrStdin())
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return data, nil
}

func runValidate(cmd *cobra.Command, root *rootOptions, opts *validateOptions) error {
	rs, err := root.loadRules()
	if err != nil {
		return err
	}
	data, err := readInput(cmd, opts.file)
	if err != nil {
		return err
	}

	switch opts.kind {
	case kindBelief:
		var candidates []domain.ClaimCandidate
		if err := json.Unmarshal(data, &candidates); err != nil {
			return fmt.Errorf("parsing belief candidates: %w", err)
		}
		v := validator.NewBeliefValidator(rs)
		verdicts := make([]domain.ValidationVerdict, len(candidates))
		for i, c := range candidates {
			verdicts[i] = v.ValidateWithSource(c, opts.source)
		}
		return printJSON(cmd.OutOrStdout(), verdicts)

	case kindMemory:
		var candidates []domain.MemoryCandidate
		if err := json.Unmarshal(data, &candidates); err != nil {
			return fmt.Errorf("parsing memory candidates: %w", err)
		}
		v := validator.NewMemoryValidator(rs)
		verdicts := make([]domain.MemoryVerdict, len(candidates))
		for i, c := range candidates {
			verdicts[i] = v.Validate(c, opts.source)
		}
		return printJSON(cmd.OutOrStdout(), verdicts)

	default:
		return fmt.Errorf("unknown kind %q (valid options: belief, memory)", opts.kind)
	}
}
