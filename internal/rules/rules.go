// Package rules holds the versioned pattern table used by candidate validation:
// stopwords, subject denylists, compiled text matchers, claim-type variants and the
// ambiguous-subject lexicon. A RuleSet is immutable once compiled.
package rules

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"regexp"
	"sort"
	"strings"

	"github.com/nia-core/beliefgate/internal/domain"
	"gopkg.in/yaml.v3"
)

//go:embed default_rules.yaml
var defaultTable []byte

// Group names a family of patterns in the rule table.
type Group string

const (
	GroupEphemeral      Group = "ephemeral"
	GroupTemporary      Group = "temporary"
	GroupBeliefTriggers Group = "belief_triggers"
	GroupQuestions      Group = "questions"
	GroupImperatives    Group = "imperatives"
	GroupHedges         Group = "hedges"
	GroupSarcasm        Group = "sarcasm"
	GroupFirstPerson    Group = "first_person"
	GroupNegationPrefix Group = "negation_prefix"
	GroupNegation       Group = "negation"
	GroupRequests       Group = "requests"
)

var requiredGroups = []Group{
	GroupEphemeral, GroupTemporary, GroupBeliefTriggers, GroupQuestions, GroupImperatives,
	GroupHedges, GroupSarcasm, GroupFirstPerson, GroupNegationPrefix, GroupNegation, GroupRequests,
}

var ErrMissingGroup = errors.New("rule table is missing a required pattern group")

// ClaimTypeRule is the tagged variant attached to a claim type.
type ClaimTypeRule struct {
	IdentityRelevant  bool `yaml:"identity_relevant" json:"identity_relevant"`
	ObservationExempt bool `yaml:"observation_exempt" json:"observation_exempt"`
	EphemeralFact     bool `yaml:"ephemeral_fact" json:"ephemeral_fact"`
}

type Rewrite struct {
	Pattern     string `yaml:"pattern"`
	Replacement string `yaml:"replacement"`
}

// Sense is one concrete meaning of an ambiguous subject.
type Sense struct {
	Label    string   `yaml:"label" json:"label"`
	Keywords []string `yaml:"keywords" json:"keywords"`
}

// Table is the on-disk form of the rules.
type Table struct {
	Version           string                   `yaml:"version"`
	Stopwords         []string                 `yaml:"stopwords"`
	InvalidSubjects   []string                 `yaml:"invalid_subjects"`
	ReservedSubjects  []string                 `yaml:"reserved_subjects"`
	Patterns          map[Group][]string       `yaml:"patterns"`
	HedgingOpeners    []Rewrite                `yaml:"hedging_openers"`
	ClaimTypes        map[string]ClaimTypeRule `yaml:"claim_types"`
	AmbiguousSubjects map[string][]Sense       `yaml:"ambiguous_subjects"`
}

type compiledRewrite struct {
	re          *regexp.Regexp
	replacement string
}

// RuleSet is the compiled, read-only form of a Table. Safe for concurrent use.
type RuleSet struct {
	Version string

	stopwords       map[string]struct{}
	invalidSubjects map[string]struct{}
	reserved        map[string]struct{}
	groups          map[Group][]*regexp.Regexp
	openers         []compiledRewrite
	claimTypes      map[domain.ClaimType]ClaimTypeRule
	lexicon         map[string][]Sense
}

// Parse decodes a YAML rule table.
func Parse(data []byte) (*Table, error) {
	var t Table
	if err := yaml.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("parse rule table: %w", err)
	}
	return &t, nil
}

// Default compiles the embedded rule table.
func Default() (*RuleSet, error) {
	t, err := Parse(defaultTable)
	if err != nil {
		return nil, err
	}
	return t.Compile()
}

// MustDefault is Default for tests and static initialisation.
func MustDefault() *RuleSet {
	rs, err := Default()
	if err != nil {
		panic(err)
	}
	return rs
}

// Load reads a rule table from path. An empty path yields the embedded table.
func Load(path string) (*RuleSet, error) {
	if path == "" {
		return Default()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read rule table %s: %w", path, err)
	}
	t, err := Parse(data)
	if err != nil {
		return nil, err
	}
	return t.Compile()
}

// Compile validates the table and compiles every pattern case-insensitively.
func (t *Table) Compile() (*RuleSet, error) {
	rs := &RuleSet{
		Version:         t.Version,
		stopwords:       toSet(t.Stopwords),
		invalidSubjects: toSet(t.InvalidSubjects),
		reserved:        toSet(t.ReservedSubjects),
		groups:          make(map[Group][]*regexp.Regexp, len(t.Patterns)),
		claimTypes:      make(map[domain.ClaimType]ClaimTypeRule, len(t.ClaimTypes)),
		lexicon:         make(map[string][]Sense, len(t.AmbiguousSubjects)),
	}

	for _, g := range requiredGroups {
		if len(t.Patterns[g]) == 0 {
			return nil, fmt.Errorf("%w: %s", ErrMissingGroup, g)
		}
	}

	for g, exprs := range t.Patterns {
		for _, expr := range exprs {
			re, err := regexp.Compile("(?i)" + expr)
			if err != nil {
				return nil, fmt.Errorf("compile %s pattern %q: %w", g, expr, err)
			}
			rs.groups[g] = append(rs.groups[g], re)
		}
	}

	for _, rw := range t.HedgingOpeners {
		re, err := regexp.Compile("(?i)" + rw.Pattern)
		if err != nil {
			return nil, fmt.Errorf("compile hedging opener %q: %w", rw.Pattern, err)
		}
		rs.openers = append(rs.openers, compiledRewrite{re: re, replacement: rw.Replacement})
	}

	for name, rule := range t.ClaimTypes {
		rs.claimTypes[domain.ClaimType(strings.ToLower(name))] = rule
	}

	for subject, senses := range t.AmbiguousSubjects {
		rs.lexicon[strings.ToLower(subject)] = senses
	}

	return rs, nil
}

func toSet(words []string) map[string]struct{} {
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		set[strings.ToLower(w)] = struct{}{}
	}
	return set
}

// Match reports whether any pattern of the group matches text.
func (r *RuleSet) Match(g Group, text string) bool {
	for _, re := range r.groups[g] {
		if re.MatchString(text) {
			return true
		}
	}
	return false
}

var wordRe = regexp.MustCompile(`[a-z0-9]+(?:'[a-z]+)?`)

// Words lowercases text and splits it into word tokens, keeping contractions whole.
func Words(text string) []string {
	text = strings.ToLower(strings.ReplaceAll(text, "’", "'"))
	return wordRe.FindAllString(text, -1)
}

func (r *RuleSet) IsStopword(w string) bool {
	_, ok := r.stopwords[strings.ToLower(w)]
	return ok
}

// ContentWords returns the tokens of text that are not stopwords, in order.
func (r *RuleSet) ContentWords(text string) []string {
	words := Words(text)
	out := words[:0]
	for _, w := range words {
		if !r.IsStopword(w) {
			out = append(out, w)
		}
	}
	return out
}

// ContentSet is ContentWords as a set.
func (r *RuleSet) ContentSet(text string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, w := range r.ContentWords(text) {
		set[w] = struct{}{}
	}
	return set
}

func (r *RuleSet) InvalidSubject(subject string) bool {
	_, ok := r.invalidSubjects[strings.ToLower(strings.TrimSpace(subject))]
	return ok
}

func (r *RuleSet) Reserved(subject string) bool {
	_, ok := r.reserved[strings.ToLower(strings.TrimSpace(subject))]
	return ok
}

// ClaimType returns the variant flags for a claim type; unknown types have none.
func (r *RuleSet) ClaimType(c domain.ClaimType) ClaimTypeRule {
	return r.claimTypes[domain.ClaimType(strings.ToLower(string(c)))]
}

// Senses returns the lexicon entry for an ambiguous subject, or nil.
func (r *RuleSet) Senses(subject string) []Sense {
	return r.lexicon[strings.ToLower(strings.TrimSpace(subject))]
}

// RewriteOpener replaces the first matching hedging opener.
func (r *RuleSet) RewriteOpener(text string) (string, bool) {
	for _, o := range r.openers {
		if loc := o.re.FindStringIndex(text); loc != nil {
			return o.replacement + text[loc[1]:], true
		}
	}
	return text, false
}

// StripNegationPrefix removes a leading negation such as "I don't" or "never".
func (r *RuleSet) StripNegationPrefix(text string) string {
	for _, re := range r.groups[GroupNegationPrefix] {
		if loc := re.FindStringIndex(text); loc != nil {
			return text[loc[1]:]
		}
	}
	return text
}

// IsNegationWord reports whether a single token carries negation.
func (r *RuleSet) IsNegationWord(w string) bool {
	for _, re := range r.groups[GroupNegation] {
		if re.MatchString(w) {
			return true
		}
	}
	return false
}

// Summary reports the number of entries per section, for diagnostics.
func (r *RuleSet) Summary() map[string]int {
	s := map[string]int{
		"stopwords":          len(r.stopwords),
		"invalid_subjects":   len(r.invalidSubjects),
		"reserved_subjects":  len(r.reserved),
		"hedging_openers":    len(r.openers),
		"claim_types":        len(r.claimTypes),
		"ambiguous_subjects": len(r.lexicon),
	}
	for g, res := range r.groups {
		s["patterns."+string(g)] = len(res)
	}
	return s
}

// Groups lists the pattern groups present, sorted.
func (r *RuleSet) Groups() []Group {
	out := make([]Group, 0, len(r.groups))
	for g := range r.groups {
		out = append(out, g)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Marshal encodes a table back to YAML.
func (t *Table) Marshal() ([]byte, error) {
	return yaml.Marshal(t)
}
