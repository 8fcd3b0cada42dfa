// Package resolver matches the column headers of an uploaded statement
// against a chosen template, or against generic heuristics when no template
// was picked, and produces the field map the normalizer works from. Raw
// string column names never travel past this boundary.
package resolver

import (
	"fmt"
	"strings"

	"github.com/solde-app/solde/internal/domain/statement/template"
)

// FieldMap associates logical fields with concrete column names for one
// import batch. Derived once, immutable afterward. Empty string means the
// field is not mapped.
type FieldMap struct {
	Date        string
	Description string
	Amount      string
	Credit      string
	Debit       string
	Identifier  string
}

// Split reports whether the batch uses separate credit/debit columns.
func (f FieldMap) Split() bool {
	return f.Credit != "" && f.Debit != ""
}

// Resolution is the resolver's output: the field map plus the locale
// conventions to apply downstream.
type Resolution struct {
	Fields FieldMap
	Locale template.Locale
}

// FormatMismatchError aborts a batch before any row is normalized. It
// carries the expected header example, the headers actually found, and a
// best-effort suggestion of another registered template whose required
// columns the found headers satisfy (registry order is the tie-break; this
// is a convenience, not a correctness guarantee).
type FormatMismatchError struct {
	TemplateID  string
	Expected    string
	Found       []string
	SuggestedID string
}

func (e *FormatMismatchError) Error() string {
	msg := fmt.Sprintf("statement headers do not match template %q: expected %q, found %q",
		e.TemplateID, e.Expected, strings.Join(e.Found, ","))
	if e.SuggestedID != "" {
		msg += fmt.Sprintf(" (headers resemble template %q)", e.SuggestedID)
	}
	return msg
}

// Generic alias priority lists, used when no template was chosen. Ordered:
// the first alias that matches wins.
var (
	genericDate        = []string{"date", "data", "data mov.", "data mov", "booking date", "transaction date", "started date", "fecha", "data valor"}
	genericDescription = []string{"description", "descrição", "descricao", "details", "merchant", "narrative", "title", "memo", "concepto"}
	genericAmount      = []string{"amount", "valor", "montante", "importe", "value"}
	genericCredit      = []string{"credit", "crédito", "credito", "abono"}
	genericDebit       = []string{"debit", "débito", "debito", "cargo"}
	genericIdentifier  = []string{"identifier", "reference", "document", "transaction id"}
)

// Resolve matches the header row against the chosen template, or against
// generic heuristics when tpl is nil. Pure function: no I/O. reg is only
// consulted to suggest an alternative template on mismatch.
func Resolve(reg *template.Registry, header []string, tpl *template.Template) (*Resolution, error) {
	if tpl == nil {
		return resolveGeneric(header)
	}

	fields, ok := matchTemplate(header, *tpl)
	if !ok || len(header) < tpl.MinColumns {
		return nil, &FormatMismatchError{
			TemplateID:  tpl.ID,
			Expected:    tpl.ExampleHeader(),
			Found:       header,
			SuggestedID: suggestTemplate(reg, header, tpl.ID),
		}
	}

	return &Resolution{Fields: fields, Locale: tpl.Locale}, nil
}

// matchTemplate resolves the template's aliases against the header. It
// succeeds when a date column, a description column, and either a single
// amount column or both credit and debit columns are present.
func matchTemplate(header []string, tpl template.Template) (FieldMap, bool) {
	fields := FieldMap{
		Date:        findColumn(header, tpl.Columns.Date),
		Description: findColumn(header, tpl.Columns.Description),
		Identifier:  findColumn(header, tpl.Columns.Identifier),
	}
	if tpl.Split() {
		fields.Credit = findColumn(header, tpl.Columns.Credit)
		fields.Debit = findColumn(header, tpl.Columns.Debit)
	} else {
		fields.Amount = findColumn(header, tpl.Columns.Amount)
	}

	ok := fields.Date != "" && fields.Description != "" &&
		(fields.Amount != "" || fields.Split())
	return fields, ok
}

// resolveGeneric applies the fixed alias priority lists. The default locale
// is assumed: dot decimal separator, comma field separator.
func resolveGeneric(header []string) (*Resolution, error) {
	fields := FieldMap{
		Date:        findColumn(header, genericDate),
		Description: findColumn(header, genericDescription),
		Amount:      findColumn(header, genericAmount),
		Identifier:  findColumn(header, genericIdentifier),
	}
	credit := findColumn(header, genericCredit)
	debit := findColumn(header, genericDebit)
	if credit != "" && debit != "" {
		fields.Credit = credit
		fields.Debit = debit
		fields.Amount = ""
	}

	if fields.Date == "" || fields.Description == "" || (fields.Amount == "" && !fields.Split()) {
		return nil, &FormatMismatchError{
			Expected: "date,description,amount",
			Found:    header,
		}
	}

	return &Resolution{Fields: fields, Locale: template.DefaultLocale}, nil
}

// suggestTemplate returns the id of the first other registered template
// whose required columns are all satisfiable by the found headers.
func suggestTemplate(reg *template.Registry, header []string, excludeID string) string {
	if reg == nil {
		return ""
	}
	for _, other := range reg.ListAll() {
		if other.ID == excludeID {
			continue
		}
		if _, ok := matchTemplate(header, other); ok && len(header) >= other.MinColumns {
			return other.ID
		}
	}
	return ""
}

// findColumn returns the first header that matches any of the aliases, in
// alias priority order.
func findColumn(header []string, aliases []string) string {
	for _, alias := range aliases {
		for _, h := range header {
			if headerMatches(h, alias) {
				return h
			}
		}
	}
	return ""
}

// headerMatches compares a header cell against an alias, case-insensitively
// and ignoring surrounding whitespace. Longer aliases also match as
// substrings so that decorated headers like "Débito (EUR)" still resolve.
func headerMatches(header, alias string) bool {
	h := strings.ToLower(strings.TrimSpace(header))
	a := strings.ToLower(strings.TrimSpace(alias))
	if h == a {
		return true
	}
	return len(a) > 3 && strings.Contains(h, a)
}
