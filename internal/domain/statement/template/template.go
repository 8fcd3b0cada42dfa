// Package template holds the static catalog of known bank statement formats.
// A template describes which column headers carry which logical field and the
// locale conventions the source uses. Templates are immutable after load.
package template

import (
	"errors"
	"fmt"
	"strings"

	"github.com/solde-app/solde/internal/domain/statement/candidate"
)

var ErrTemplateNotFound = errors.New("statement template not found")

// Columns lists the accepted header aliases per logical field. A format
// carries either a single signed Amount column or a Credit/Debit pair.
type Columns struct {
	Date        []string
	Amount      []string
	Credit      []string
	Debit       []string
	Description []string
	Identifier  []string
}

// Locale captures the source's tabular conventions.
type Locale struct {
	FieldSeparator   rune
	DecimalSeparator rune
	HeaderRowsToSkip int
}

// DefaultLocale is assumed when no template matched: dot decimal separator,
// comma field separator, headers on the first row.
var DefaultLocale = Locale{FieldSeparator: ',', DecimalSeparator: '.'}

// Template describes one known source format.
type Template struct {
	ID          string
	DisplayName string
	Kind        candidate.AccountKind
	Columns     Columns
	Locale      Locale
	MinColumns  int
}

// Split reports whether the format uses separate credit and debit columns
// instead of a single signed amount.
func (t Template) Split() bool {
	return len(t.Columns.Credit) > 0 && len(t.Columns.Debit) > 0
}

// ExampleHeader renders the expected header line using the first alias of
// each field, for use in format-mismatch messages.
func (t Template) ExampleHeader() string {
	var cols []string
	add := func(aliases []string) {
		if len(aliases) > 0 {
			cols = append(cols, aliases[0])
		}
	}
	add(t.Columns.Date)
	add(t.Columns.Description)
	if t.Split() {
		add(t.Columns.Debit)
		add(t.Columns.Credit)
	} else {
		add(t.Columns.Amount)
	}
	add(t.Columns.Identifier)
	return strings.Join(cols, string(t.Locale.FieldSeparator))
}

// Registry is an ordered, read-only collection of templates. Order matters:
// it is the tie-break for format-mismatch suggestions.
type Registry struct {
	ordered []Template
	byID    map[string]int
}

// NewRegistry builds a registry from the given templates, preserving order.
func NewRegistry(templates ...Template) (*Registry, error) {
	r := &Registry{byID: make(map[string]int, len(templates))}
	for _, t := range templates {
		if t.ID == "" {
			return nil, errors.New("template id is required")
		}
		if _, dup := r.byID[t.ID]; dup {
			return nil, fmt.Errorf("duplicate template id %q", t.ID)
		}
		r.byID[t.ID] = len(r.ordered)
		r.ordered = append(r.ordered, t)
	}
	return r, nil
}

// GetByID returns the template with the given id.
func (r *Registry) GetByID(id string) (Template, error) {
	idx, ok := r.byID[id]
	if !ok {
		return Template{}, fmt.Errorf("%w: %s", ErrTemplateNotFound, id)
	}
	return r.ordered[idx], nil
}

// ListAll returns all templates in registry order.
func (r *Registry) ListAll() []Template {
	out := make([]Template, len(r.ordered))
	copy(out, r.ordered)
	return out
}

// ListByKind returns the templates for a given account kind, in registry order.
func (r *Registry) ListByKind(kind candidate.AccountKind) []Template {
	var out []Template
	for _, t := range r.ordered {
		if t.Kind == kind {
			out = append(out, t)
		}
	}
	return out
}
