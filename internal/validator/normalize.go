package validator

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/nia-core/beliefgate/internal/domain"
)

var (
	trailingPunct   = regexp.MustCompile(`[\s.!;:,]+$`)
	thirdPersonLead = regexp.MustCompile(`(?i)^(the user|user|the assistant|assistant|they|he|she)\s+([a-z']+)\b`)
)

var irregularVerbs = map[string]string{
	"is":      "am",
	"has":     "have",
	"does":    "do",
	"goes":    "go",
	"was":     "was",
	"are":     "am",
	"have":    "have",
	"don't":   "don't",
	"doesn't": "don't",
	"isn't":   "am not",
}

// firstPersonVerb turns a third-person present verb into its first-person form.
func firstPersonVerb(v string) string {
	lv := strings.ToLower(v)
	if fp, ok := irregularVerbs[lv]; ok {
		return fp
	}
	switch {
	case strings.HasSuffix(lv, "ies") && len(lv) > 4:
		return lv[:len(lv)-3] + "y"
	case strings.HasSuffix(lv, "sses"), strings.HasSuffix(lv, "shes"),
		strings.HasSuffix(lv, "ches"), strings.HasSuffix(lv, "xes"), strings.HasSuffix(lv, "zes"):
		return lv[:len(lv)-2]
	case strings.HasSuffix(lv, "s") && !strings.HasSuffix(lv, "ss"):
		return lv[:len(lv)-1]
	}
	return lv
}

// normalizeStatement strips trailing punctuation, rewrites hedging openers to
// "I believe" and, for self-referential subjects, coerces third-person phrasing
// to the first person.
func (v *BeliefValidator) normalizeStatement(statement, subject string) string {
	s := strings.TrimSpace(statement)
	s = trailingPunct.ReplaceAllString(s, "")

	if rewritten, ok := v.rules.RewriteOpener(s); ok {
		s = rewritten
	}

	if v.rules.Reserved(subject) {
		if m := thirdPersonLead.FindStringSubmatchIndex(s); m != nil {
			verb := s[m[4]:m[5]]
			s = "I " + firstPersonVerb(verb) + s[m[5]:]
		}
	}

	return upperFirst(s)
}

func upperFirst(s string) string {
	for i, r := range s {
		return s[:i] + string(unicode.ToUpper(r)) + s[i+len(string(r)):]
	}
	return s
}

// normalizeCandidate returns a copy of c with subject and statement normalized.
func (v *BeliefValidator) normalizeCandidate(c domain.ClaimCandidate, subject string) domain.ClaimCandidate {
	out := c
	out.Subject = subject
	out.Statement = v.normalizeStatement(c.Statement, subject)
	out.FormationReasoning = strings.TrimSpace(c.FormationReasoning)
	if out.ClaimType == "" {
		out.ClaimType = domain.ClaimBelief
	}
	out.ClaimType = domain.ClaimType(strings.ToLower(string(out.ClaimType)))
	return out
}
