package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/nia-core/beliefgate/internal/domain"
	"github.com/nia-core/beliefgate/internal/llm"
	"github.com/nia-core/beliefgate/internal/rules"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetIn(strings.NewReader(stdin))
	root.SetArgs(append(args, "--rules="))
	err := root.Execute()
	return out.String(), err
}

const beliefCandidates = `[
  {
    "subject": "user",
    "statement": "I deeply value honesty and openness in my close personal relationships",
    "confidence": 0.8,
    "evidence": [{"source": "user", "quote": "I really value honesty and openness in all my relationships"}],
    "claim_type": "value",
    "time_scope": "long_term"
  },
  {"subject": "It", "statement": "x", "confidence": 0.5, "claim_type": "value"}
]`

func TestValidate_BeliefsFromStdin(t *testing.T) {
	out, err := execute(t, beliefCandidates, "validate")
	require.NoError(t, err)

	var verdicts []domain.ValidationVerdict
	require.NoError(t, json.Unmarshal([]byte(out), &verdicts))
	require.Len(t, verdicts, 2)
	assert.True(t, verdicts[0].Accepted)
	assert.Equal(t, 96, verdicts[0].Score)
	assert.Equal(t, []domain.RejectReason{domain.ReasonInvalidSubject}, verdicts[1].Reasons)
}

func TestValidate_MemoriesFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "memories.json")
	require.NoError(t, os.WriteFile(path, []byte(`[{
		"statement": "User moved to Portland last spring for a new job",
		"source_quote": "I moved to Portland last spring for a new job",
		"fact_type": "event",
		"temporal": "past",
		"importance": 0.8
	}]`), 0o600))

	out, err := execute(t, "", "validate", "--kind", "memory", "--file", path,
		"--source", "Big news, I moved to Portland last spring for a new job and I love it")
	require.NoError(t, err)

	var verdicts []domain.MemoryVerdict
	require.NoError(t, json.Unmarshal([]byte(out), &verdicts))
	require.Len(t, verdicts, 1)
	assert.True(t, verdicts[0].Accepted)
	assert.Equal(t, "user", verdicts[0].Candidate.About)
}

func TestValidate_Errors(t *testing.T) {
	_, err := execute(t, "[]", "validate", "--kind", "episode")
	assert.ErrorContains(t, err, "unknown kind")

	_, err = execute(t, "{not json", "validate")
	assert.ErrorContains(t, err, "parsing belief candidates")

	_, err = execute(t, "", "validate", "--file", filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}

func TestRules(t *testing.T) {
	out, err := execute(t, "", "rules")
	require.NoError(t, err)
	assert.Contains(t, out, "version: "+rules.MustDefault().Version)
	assert.Contains(t, out, "source:  embedded")
	assert.Contains(t, out, "patterns.questions")
}

func TestVersion(t *testing.T) {
	out, err := execute(t, "", "version")
	require.NoError(t, err)
	assert.Equal(t, "beliefctl dev (unknown)\n", out)
}

func TestExtractAndValidate(t *testing.T) {
	ex := llm.NewMockExtractor()
	var candidates []domain.ClaimCandidate
	require.NoError(t, json.Unmarshal([]byte(beliefCandidates), &candidates))
	ex.ExtractResponse = &domain.Extraction{Beliefs: candidates}

	turn := domain.Turn{Messages: []domain.Message{
		{Role: "user", Content: "I really value honesty and openness in all my relationships."},
	}}

	cmd := &cobra.Command{}
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetContext(t.Context())

	require.NoError(t, extractAndValidate(cmd, ex, rules.MustDefault(), turn, 4))

	var report extractReport
	require.NoError(t, json.Unmarshal(out.Bytes(), &report))
	require.Len(t, report.Beliefs, 2)
	assert.True(t, report.Beliefs[0].Accepted)
	assert.False(t, report.Beliefs[1].Accepted)
	assert.Zero(t, report.Dropped)
}
