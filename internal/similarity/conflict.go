package similarity

import "github.com/nia-core/beliefgate/internal/domain"

// Conflict is an active belief whose polarity disagrees with a candidate sharing its core.
type Conflict struct {
	Belief         domain.Belief `json:"belief"`
	CoreSimilarity float64       `json:"core_similarity"`
}

// FindConflicts scans active beliefs above the conviction floor for polarity
// mismatches against statement.
func (m *Matcher) FindConflicts(statement string, pool []domain.Belief) []Conflict {
	negated := m.Negated(statement)
	core := m.core(statement)

	var out []Conflict
	for _, b := range pool {
		if !b.Active() || b.ConvictionScore <= m.ConvictionFloor {
			continue
		}
		if m.Negated(b.Statement) == negated {
			continue
		}
		sim := Jaccard(core, m.core(b.Statement))
		if sim >= m.ConflictThreshold {
			out = append(out, Conflict{Belief: b, CoreSimilarity: sim})
		}
	}
	return out
}

// Resolution is the outcome of weighing a candidate against its conflicts.
type Resolution struct {
	// Wins is true when the candidate may be inserted.
	Wins bool
	// Retire lists the beliefs the candidate supersedes when it wins.
	Retire []domain.Belief
	// Blocker is the first existing belief at least as strong as the candidate.
	Blocker *domain.Belief
}

// Resolve decides a conflict set. The candidate wins only if its score strictly
// exceeds every conflicting conviction; ties keep the existing belief.
func Resolve(score float64, conflicts []Conflict) Resolution {
	for i := range conflicts {
		if score <= conflicts[i].Belief.ConvictionScore {
			b := conflicts[i].Belief
			return Resolution{Wins: false, Blocker: &b}
		}
	}
	res := Resolution{Wins: true}
	for _, c := range conflicts {
		res.Retire = append(res.Retire, c.Belief)
	}
	return res
}
