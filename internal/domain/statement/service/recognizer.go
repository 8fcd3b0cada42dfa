package service

import (
	"context"
	"strings"

	"github.com/solde-app/solde/internal/domain/statement/candidate"
	"github.com/solde-app/solde/internal/domain/statement/normalizer"
)

// RuleRecognizer is the default Recognizer: an exact-description rule table.
// Hosting applications with richer historical matching plug in their own
// implementation instead.
type RuleRecognizer struct {
	rules map[string]candidate.Assignment
}

// NewRuleRecognizer creates an empty rule table.
func NewRuleRecognizer() *RuleRecognizer {
	return &RuleRecognizer{rules: make(map[string]candidate.Assignment)}
}

// AddRule maps an exact description to an assignment. Matching is
// case-insensitive over the cleaned description.
func (r *RuleRecognizer) AddRule(description string, a candidate.Assignment) {
	r.rules[ruleKey(description)] = a
}

// Recognize implements Recognizer.
func (r *RuleRecognizer) Recognize(_ context.Context, c *candidate.Candidate) (candidate.Assignment, bool, error) {
	a, ok := r.rules[ruleKey(c.Description)]
	return a, ok, nil
}

func ruleKey(description string) string {
	return strings.ToLower(normalizer.CleanDescription(description))
}
