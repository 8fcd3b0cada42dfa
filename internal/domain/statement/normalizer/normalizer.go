// Package normalizer converts raw statement rows into canonical transaction
// candidates using the resolved field map and locale. Row-level failures are
// collected as diagnostics and never abort the batch; the batch as a whole
// fails only when zero rows normalize.
package normalizer

import (
	"errors"
	"regexp"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/solde-app/solde/internal/domain/statement/candidate"
	"github.com/solde-app/solde/internal/domain/statement/resolver"
	"github.com/solde-app/solde/internal/domain/statement/template"
)

var (
	ErrInvalidAmount = errors.New("invalid amount format")
	ErrInvalidDate   = errors.New("invalid date format")
	// ErrNoUsableRows is returned when not a single row normalized; the
	// accompanying diagnostics explain why.
	ErrNoUsableRows = errors.New("no rows could be normalized")
)

// RawRow is one line of the source file: an opaque string-keyed mapping
// produced by file parsing. Keys are the source's own column names and must
// not travel past this package.
type RawRow map[string]string

// Severity of a diagnostic. Errors drop the row, advisories do not.
type Severity string

const (
	SeverityError    Severity = "error"
	SeverityAdvisory Severity = "advisory"
)

// Code identifies the kind of row-level problem.
type Code string

const (
	CodeInvalidDate      Code = "invalid_date"
	CodeInvalidAmount    Code = "invalid_amount"
	CodeAmbiguousFlow    Code = "ambiguous_flow"
	CodeEmptyDescription Code = "empty_description"
)

// Diagnostic records one row-level problem, addressed by source row index.
type Diagnostic struct {
	Severity Severity
	Code     Code
	RowIndex int
	Raw      string
	Message  string
}

// Batch is the normalizer's input for one import.
type Batch struct {
	AccountID   uuid.UUID
	AccountKind candidate.AccountKind
	Fields      resolver.FieldMap
	Locale      template.Locale
	Rows        []RawRow
}

// Result carries the successfully normalized candidates alongside the
// diagnostics for the rows that did not make it.
type Result struct {
	Candidates  []*candidate.Candidate
	Diagnostics []Diagnostic
}

// NormalizeBatch converts every raw row it can and records a diagnostic for
// every row it cannot. It returns ErrNoUsableRows only when the whole batch
// yielded nothing.
func NormalizeBatch(b Batch) (*Result, error) {
	res := &Result{}

	for i, row := range b.Rows {
		c, diags := normalizeRow(b, i, row)
		res.Diagnostics = append(res.Diagnostics, diags...)
		if c != nil {
			res.Candidates = append(res.Candidates, c)
		}
	}

	if len(res.Candidates) == 0 {
		return res, ErrNoUsableRows
	}
	return res, nil
}

func normalizeRow(b Batch, index int, row RawRow) (*candidate.Candidate, []Diagnostic) {
	var diags []Diagnostic

	rawDate := row[b.Fields.Date]
	occurredAt, hasTime, err := ParseDate(rawDate)
	if err != nil {
		return nil, append(diags, Diagnostic{
			Severity: SeverityError,
			Code:     CodeInvalidDate,
			RowIndex: index,
			Raw:      rawDate,
			Message:  "unrecognized date",
		})
	}

	amount, direction, diag := normalizeAmount(b, index, row)
	if diag != nil {
		return nil, append(diags, *diag)
	}

	description := CleanDescription(row[b.Fields.Description])
	if description == "" {
		// Advisory only: an empty description is legal but worth flagging.
		diags = append(diags, Diagnostic{
			Severity: SeverityAdvisory,
			Code:     CodeEmptyDescription,
			RowIndex: index,
			Message:  "row has no description",
		})
	}

	return &candidate.Candidate{
		ID:          uuid.New(),
		AccountID:   b.AccountID,
		AccountKind: b.AccountKind,
		OccurredAt:  occurredAt,
		HasTime:     hasTime,
		Amount:      amount,
		Direction:   direction,
		Description: description,
		Identifier:  strings.TrimSpace(row[b.Fields.Identifier]),
		RowIndex:    index,
		Status:      candidate.StatusPending,
	}, diags
}

// normalizeAmount resolves the canonical non-negative amount and the flow
// direction for one row, in either split (credit/debit) or single-amount
// mode.
func normalizeAmount(b Batch, index int, row RawRow) (decimal.Decimal, candidate.FlowDirection, *Diagnostic) {
	if b.Fields.Split() {
		return normalizeSplitAmount(b, index, row)
	}

	raw := strings.TrimSpace(row[b.Fields.Amount])
	signed, err := ParseAmount(raw, b.Locale.DecimalSeparator)
	if err != nil {
		return decimal.Zero, "", &Diagnostic{
			Severity: SeverityError,
			Code:     CodeInvalidAmount,
			RowIndex: index,
			Raw:      raw,
			Message:  "unparseable amount",
		}
	}

	// Direction inference: on a credit card a positive amount is a charge
	// (outflow) and a negative one a refund; everywhere else the signs read
	// the usual way.
	direction := candidate.Inflow
	negative := signed.Sign() < 0
	if b.AccountKind == candidate.KindCreditCard {
		if !negative {
			direction = candidate.Outflow
		}
	} else if negative {
		direction = candidate.Outflow
	}

	return signed.Abs(), direction, nil
}

func normalizeSplitAmount(b Batch, index int, row RawRow) (decimal.Decimal, candidate.FlowDirection, *Diagnostic) {
	rawCredit := strings.TrimSpace(row[b.Fields.Credit])
	rawDebit := strings.TrimSpace(row[b.Fields.Debit])

	credit, creditErr := parseOptionalAmount(rawCredit, b.Locale.DecimalSeparator)
	debit, debitErr := parseOptionalAmount(rawDebit, b.Locale.DecimalSeparator)
	if creditErr != nil || debitErr != nil {
		raw := rawCredit
		if creditErr == nil {
			raw = rawDebit
		}
		return decimal.Zero, "", &Diagnostic{
			Severity: SeverityError,
			Code:     CodeInvalidAmount,
			RowIndex: index,
			Raw:      raw,
			Message:  "unparseable credit/debit amount",
		}
	}

	// Exactly one of the two columns must carry a value.
	creditSet := !credit.IsZero()
	debitSet := !debit.IsZero()
	if creditSet == debitSet {
		return decimal.Zero, "", &Diagnostic{
			Severity: SeverityError,
			Code:     CodeAmbiguousFlow,
			RowIndex: index,
			Message:  "row must have exactly one of credit or debit",
		}
	}

	if creditSet {
		return credit.Abs(), candidate.Inflow, nil
	}
	return debit.Abs(), candidate.Outflow, nil
}

// parseOptionalAmount treats blank as zero; anything non-blank must parse.
func parseOptionalAmount(raw string, decimalSep rune) (decimal.Decimal, error) {
	if raw == "" {
		return decimal.Zero, nil
	}
	return ParseAmount(raw, decimalSep)
}

// ParseAmount parses a signed amount string under the given decimal
// separator convention. Currency symbols and grouping separators are
// stripped: "1.234,56" under a comma decimal parses to 1234.56, and
// "1,234.56" under a dot decimal parses the same.
func ParseAmount(raw string, decimalSep rune) (decimal.Decimal, error) {
	cleaned := strings.Map(func(r rune) rune {
		if unicode.IsDigit(r) || r == ',' || r == '.' || r == '-' {
			return r
		}
		return -1
	}, raw)
	if cleaned == "" || cleaned == "-" {
		return decimal.Zero, ErrInvalidAmount
	}

	if decimalSep == ',' {
		cleaned = strings.ReplaceAll(cleaned, ".", "")
		cleaned = strings.ReplaceAll(cleaned, ",", ".")
	} else {
		cleaned = strings.ReplaceAll(cleaned, ",", "")
	}

	val, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Zero, ErrInvalidAmount
	}
	return val, nil
}

// datePattern pairs a Go layout with whether it carries a time-of-day.
// Ordered: the first layout that parses wins.
type datePattern struct {
	layout  string
	hasTime bool
}

var datePatterns = []datePattern{
	{"2006-01-02", false},
	{"2006-01-02T15:04:05", true},
	{"2006-01-02 15:04:05", true},
	{"2006-01-02 15:04", true},
	{"02/01/2006", false},
	{"02-01-2006", false},
	{"02/01/2006 15:04:05", true},
	{"02/01/2006 15:04", true},
	{"02-01-2006 15:04", true},
}

// ParseDate parses a statement date against the accepted patterns. A
// time-of-day present in the source is preserved, never truncated to
// midnight: two legitimate transactions can share date, description, and
// amount while occurring at different times.
func ParseDate(raw string) (time.Time, bool, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, false, ErrInvalidDate
	}

	for _, p := range datePatterns {
		if t, err := time.ParseInLocation(p.layout, raw, time.UTC); err == nil {
			return t, p.hasTime, nil
		}
	}
	return time.Time{}, false, ErrInvalidDate
}

var spacePattern = regexp.MustCompile(`\s+`)

// CleanDescription trims and collapses internal whitespace.
func CleanDescription(raw string) string {
	return spacePattern.ReplaceAllString(strings.TrimSpace(raw), " ")
}
