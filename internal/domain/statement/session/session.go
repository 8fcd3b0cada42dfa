// Package session holds the in-memory state of one interactive import: the
// candidates, their duplicate partition, and the classification workflow.
// A session is owned by exactly one user flow; it is passed around as an
// explicit handle, never a process-wide singleton, and it is simply dropped
// on abandonment. I/O failures elsewhere never destroy session state.
package session

import (
	"errors"

	"github.com/google/uuid"

	"github.com/solde-app/solde/internal/domain/statement/candidate"
	"github.com/solde-app/solde/internal/domain/statement/normalizer"
)

var (
	ErrCandidateNotFound  = errors.New("candidate not found in session")
	ErrDuplicateImmutable = errors.New("duplicate candidates cannot be classified")
)

// Summary is the progress tally for one session. Recognized counts both
// auto-recognized and user-classified candidates.
type Summary struct {
	Recognized int
	Pending    int
	Duplicate  int
}

// Session is the transient, single-owner collection of candidates for one
// import operation.
type Session struct {
	AccountID   uuid.UUID
	AccountKind candidate.AccountKind

	candidates  []*candidate.Candidate
	byID        map[uuid.UUID]*candidate.Candidate
	diagnostics []normalizer.Diagnostic
}

// New builds a session over the normalized candidates, preserving source
// row order.
func New(accountID uuid.UUID, kind candidate.AccountKind, candidates []*candidate.Candidate, diagnostics []normalizer.Diagnostic) *Session {
	s := &Session{
		AccountID:   accountID,
		AccountKind: kind,
		candidates:  candidates,
		byID:        make(map[uuid.UUID]*candidate.Candidate, len(candidates)),
		diagnostics: diagnostics,
	}
	for _, c := range candidates {
		s.byID[c.ID] = c
	}
	return s
}

// ResolveDuplicates marks as Duplicate every candidate whose fingerprint
// already exists in the ledger store or repeats an earlier candidate in the
// batch. The first in-batch occurrence stays non-duplicate. Duplicate is
// terminal: re-running only ever adds marks, so the partition is idempotent
// for a given store state, and a re-run after a partial commit picks up the
// newly persisted fingerprints.
func (s *Session) ResolveDuplicates(existing map[string]struct{}) {
	seen := make(map[string]struct{}, len(s.candidates))
	for _, c := range s.candidates {
		_, inStore := existing[c.Fingerprint]
		_, inBatch := seen[c.Fingerprint]
		if inStore || inBatch {
			c.Status = candidate.StatusDuplicate
			c.Assignment.Selected = false
			continue
		}
		seen[c.Fingerprint] = struct{}{}
	}
}

// ToggleSelection flips a candidate's participation in the commit. It is a
// no-op on duplicates.
func (s *Session) ToggleSelection(id uuid.UUID, included bool) error {
	c, ok := s.byID[id]
	if !ok {
		return ErrCandidateNotFound
	}
	if c.Status == candidate.StatusDuplicate {
		return nil
	}
	c.Assignment.Selected = included
	return nil
}

// Classify applies a category/subcategory/payment-method assignment. A
// category change clears a subcategory that was not re-chosen, because
// subcategories are scoped to their category. Selection is untouched.
func (s *Session) Classify(id uuid.UUID, a candidate.Assignment) error {
	c, ok := s.byID[id]
	if !ok {
		return ErrCandidateNotFound
	}
	if c.Status == candidate.StatusDuplicate {
		return ErrDuplicateImmutable
	}

	if a.CategoryID != c.Assignment.CategoryID && a.SubcategoryID == c.Assignment.SubcategoryID {
		a.SubcategoryID = uuid.Nil
	}

	a.Selected = c.Assignment.Selected
	c.Assignment = a
	c.Status = candidate.StatusUserClassified
	return nil
}

// MarkRecognized records an auto-matched assignment on a still-pending
// candidate. User edits afterwards move it to UserClassified via Classify.
func (s *Session) MarkRecognized(id uuid.UUID, a candidate.Assignment) error {
	c, ok := s.byID[id]
	if !ok {
		return ErrCandidateNotFound
	}
	if c.Status != candidate.StatusPending {
		return nil
	}
	a.Selected = c.Assignment.Selected
	c.Assignment = a
	c.Status = candidate.StatusRecognized
	return nil
}

// Summarize tallies the session for progress reporting.
func (s *Session) Summarize() Summary {
	var sum Summary
	for _, c := range s.candidates {
		switch c.Status {
		case candidate.StatusDuplicate:
			sum.Duplicate++
		case candidate.StatusPending:
			sum.Pending++
		default:
			sum.Recognized++
		}
	}
	return sum
}

// Candidates returns the candidates in source order. The slice is a copy;
// the candidates themselves are the live session state.
func (s *Session) Candidates() []*candidate.Candidate {
	out := make([]*candidate.Candidate, len(s.candidates))
	copy(out, s.candidates)
	return out
}

// Get returns the candidate with the given id.
func (s *Session) Get(id uuid.UUID) (*candidate.Candidate, error) {
	c, ok := s.byID[id]
	if !ok {
		return nil, ErrCandidateNotFound
	}
	return c, nil
}

// SelectedForCommit returns the candidates the committer acts on: selected
// and not duplicates.
func (s *Session) SelectedForCommit() []*candidate.Candidate {
	var out []*candidate.Candidate
	for _, c := range s.candidates {
		if c.Status != candidate.StatusDuplicate && c.Assignment.Selected {
			out = append(out, c)
		}
	}
	return out
}

// Diagnostics returns the row-level notes collected during normalization.
func (s *Session) Diagnostics() []normalizer.Diagnostic {
	out := make([]normalizer.Diagnostic, len(s.diagnostics))
	copy(out, s.diagnostics)
	return out
}
