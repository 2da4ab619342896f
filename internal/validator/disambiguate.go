package validator

import (
	"strings"

	"github.com/nia-core/beliefgate/internal/domain"
	"github.com/nia-core/beliefgate/internal/rules"
)

// Disambiguation is the result of resolving a subject against the lexicon.
type Disambiguation struct {
	Subject    string         `json:"subject"`
	Original   string         `json:"original"`
	Confidence float64        `json:"confidence"`
	Ambiguous  bool           `json:"ambiguous"`
	Scores     map[string]int `json:"scores,omitempty"`
}

// Disambiguate resolves a lexically ambiguous subject to one of its senses by
// counting sense keywords in the statement. Subjects outside the lexicon come back
// as their subject key with confidence 1.
func Disambiguate(rs *rules.RuleSet, subject, statement string) Disambiguation {
	d := Disambiguation{Subject: domain.SubjectKey(subject), Original: subject, Confidence: 1}
	senses := rs.Senses(subject)
	if len(senses) == 0 {
		return d
	}

	words := make(map[string]struct{})
	for _, w := range rules.Words(statement) {
		words[w] = struct{}{}
	}
	lower := strings.ToLower(statement)

	d.Scores = make(map[string]int, len(senses))
	total, best, second := 0, -1, -1
	bestScore, secondScore := 0, 0
	for i, s := range senses {
		score := 0
		for _, kw := range s.Keywords {
			kw = strings.ToLower(kw)
			if strings.Contains(kw, " ") {
				if strings.Contains(lower, kw) {
					score++
				}
				continue
			}
			if _, ok := words[kw]; ok {
				score++
			}
		}
		d.Scores[s.Label] = score
		total += score
		switch {
		case best < 0 || score > bestScore:
			second, secondScore = best, bestScore
			best, bestScore = i, score
		case second < 0 || score > secondScore:
			second, secondScore = i, score
		}
	}

	if total == 0 {
		d.Ambiguous = true
		d.Confidence = 0
		return d
	}

	d.Confidence = float64(bestScore) / float64(total)
	d.Subject = domain.SubjectKey(senses[best].Label)
	if (second >= 0 && secondScore == bestScore) || d.Confidence < 0.5 {
		d.Ambiguous = true
	}
	return d
}
