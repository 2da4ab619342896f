package llm

import (
	"fmt"
	"strings"

	"github.com/nia-core/beliefgate/internal/domain"
)

const extractPrompt = `You extract durable knowledge about the user from one conversation turn.

Return two lists:

beliefs: stable values, principles, preferences, identity statements or lessons the user holds.
Each belief has:
- subject: who or what the belief is about ("user" for the user themself)
- statement: a first-person sentence, e.g. "I value honesty in my close relationships"
- confidence: 0.0 to 1.0
- evidence: list of {"source": "user" | "assistant", "quote": exact words copied from the conversation}
- claim_type: one of value, principle, core_value, identity, scar, preference, factual, causal, event, observation, ephemeral_fact
- time_scope: long_term, mid_term or short_term
- formation_reasoning: one sentence on why the user holds it

memories: concrete facts about the user's life.
Each memory has:
- statement: a short third-person sentence
- source_quote: the exact user words it comes from
- about: who the memory is about
- fact_type: one of fact, preference, event, relationship, goal, experience, emotion
- temporal: one of today, this_week, this_month, recent, ongoing, past, future
- importance: 0.0 to 1.0

Never invent quotes. Skip questions, requests, greetings and passing moods.

Respond ONLY with JSON. No markdown, no explanation. Example:
{"beliefs":[{"subject":"user","statement":"I value honesty in my close relationships","confidence":0.8,"evidence":[{"source":"user","quote":"honesty matters most to me with close friends"}],"claim_type":"value","time_scope":"long_term","formation_reasoning":"Stated directly when describing friendships"}],"memories":[]}

If nothing can be extracted, respond with {"beliefs":[],"memories":[]}

Conversation:
%s`

// buildExtractPrompt renders the turn as "role: content" lines inside extractPrompt.
func buildExtractPrompt(turn domain.Turn) string {
	var sb strings.Builder
	for _, msg := range turn.Messages {
		sb.WriteString(msg.Role)
		sb.WriteString(": ")
		sb.WriteString(msg.Content)
		sb.WriteString("\n")
	}
	return fmt.Sprintf(extractPrompt, sb.String())
}
