package main

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/nia-core/beliefgate/internal/config"
	"github.com/nia-core/beliefgate/internal/domain"
	"github.com/nia-core/beliefgate/internal/llm"
	"github.com/nia-core/beliefgate/internal/rules"
	"github.com/nia-core/beliefgate/internal/service"
	"github.com/nia-core/beliefgate/internal/validator"
	"github.com/spf13/cobra"
)

type extractOptions struct {
	file  string
	limit int
}

type extractReport struct {
	Beliefs  []domain.ValidationVerdict `json:"beliefs"`
	Dropped  int                        `json:"dropped_by_batch_limit"`
	Memories []domain.MemoryVerdict     `json:"memories"`
}

// newExtractCmd is a dry run of the ingest pipeline: nothing is persisted.
func newExtractCmd(root *rootOptions) *cobra.Command {
	opts := &extractOptions{}
	cmd := &cobra.Command{
		Use:   "extract",
		Short: "Run the configured extractor on a turn and validate what it proposes",
		Long: `Reads a turn ({"messages": [{"role": "user", "content": "..."}]}) from --file,
asks the LLM_PROVIDER extractor for candidates and prints their verdicts.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExtract(cmd, root, opts)
		},
	}
	cmd.Flags().StringVarP(&opts.file, "file", "f", "-", "turn file")
	cmd.Flags().IntVar(&opts.limit, "limit", config.BatchLimit(), "batch limit applied to accepted beliefs")
	return cmd
}

func runExtract(cmd *cobra.Command, root *rootOptions, opts *extractOptions) error {
	rs, err := root.loadRules()
	if err != nil {
		return err
	}
	data, err := readInput(cmd, opts.file)
	if err != nil {
		return err
	}
	var turn domain.Turn
	if err := json.Unmarshal(data, &turn); err != nil {
		return fmt.Errorf("parsing turn: %w", err)
	}
	if turn.ID == uuid.Nil {
		turn.ID = uuid.New()
	}

	extractor, err := llm.NewExtractor(config.LLMProvider(), config.LLMAPIKey(), config.LLMModel(), config.LLMBaseURL())
	if err != nil {
		return err
	}
	return extractAndValidate(cmd, extractor, rs, turn, opts.limit)
}

func extractAndValidate(cmd *cobra.Command, extractor domain.Extractor, rs *rules.RuleSet, turn domain.Turn, limit int) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), 90*time.Second)
	defer cancel()

	extraction, err := extractor.Extract(ctx, turn)
	if err != nil {
		return fmt.Errorf("extract: %w", err)
	}

	bv := validator.NewBeliefValidator(rs)
	report := extractReport{}
	for _, c := range extraction.Beliefs {
		report.Beliefs = append(report.Beliefs, bv.ValidateWithSource(c, turn.Transcript()))
	}
	_, dropped := service.CapBatch(report.Beliefs, limit)
	report.Dropped = len(dropped)

	mv := validator.NewMemoryValidator(rs)
	userText := turn.UserText()
	for _, c := range extraction.Memories {
		report.Memories = append(report.Memories, mv.Validate(c, userText))
	}
	return printJSON(cmd.OutOrStdout(), report)
}
