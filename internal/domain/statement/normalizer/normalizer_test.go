package normalizer

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/solde-app/solde/internal/domain/statement/candidate"
	"github.com/solde-app/solde/internal/domain/statement/resolver"
	"github.com/solde-app/solde/internal/domain/statement/template"
)

func TestParseAmount_CommaDecimal(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"45,23", "45.23"},
		{"1.234,56", "1234.56"},
		{"1.000.000,00", "1000000"},
		{"-45,23", "-45.23"},
		{"€ 45,23", "45.23"},
		{"150,00", "150"},
	}

	for _, tc := range tests {
		got, err := ParseAmount(tc.input, ',')
		if err != nil {
			t.Errorf("ParseAmount(%q, ',') error: %v", tc.input, err)
			continue
		}
		if want := decimal.RequireFromString(tc.expected); !got.Equal(want) {
			t.Errorf("ParseAmount(%q, ',') = %s, want %s", tc.input, got, want)
		}
	}
}

func TestParseAmount_DotDecimal(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"45.23", "45.23"},
		{"1,234.56", "1234.56"},
		{"1234.56", "1234.56"},
		{"-29.99", "-29.99"},
		{"$45.23", "45.23"},
	}

	for _, tc := range tests {
		got, err := ParseAmount(tc.input, '.')
		if err != nil {
			t.Errorf("ParseAmount(%q, '.') error: %v", tc.input, err)
			continue
		}
		if want := decimal.RequireFromString(tc.expected); !got.Equal(want) {
			t.Errorf("ParseAmount(%q, '.') = %s, want %s", tc.input, got, want)
		}
	}
}

func TestParseAmount_Invalid(t *testing.T) {
	for _, input := range []string{"", "abc", "-", "n/a"} {
		if _, err := ParseAmount(input, '.'); !errors.Is(err, ErrInvalidAmount) {
			t.Errorf("ParseAmount(%q) error = %v, want ErrInvalidAmount", input, err)
		}
	}
}

func TestParseDate_Patterns(t *testing.T) {
	tests := []struct {
		input    string
		want     time.Time
		wantTime bool
	}{
		{"2024-02-13", time.Date(2024, 2, 13, 0, 0, 0, 0, time.UTC), false},
		{"2024-02-13T10:30:00", time.Date(2024, 2, 13, 10, 30, 0, 0, time.UTC), true},
		{"2024-02-13 10:30:00", time.Date(2024, 2, 13, 10, 30, 0, 0, time.UTC), true},
		{"13/02/2024", time.Date(2024, 2, 13, 0, 0, 0, 0, time.UTC), false},
		{"13-02-2024", time.Date(2024, 2, 13, 0, 0, 0, 0, time.UTC), false},
		{"13/02/2024 10:30", time.Date(2024, 2, 13, 10, 30, 0, 0, time.UTC), true},
		{"  13/02/2024  ", time.Date(2024, 2, 13, 0, 0, 0, 0, time.UTC), false},
	}

	for _, tc := range tests {
		got, hasTime, err := ParseDate(tc.input)
		if err != nil {
			t.Errorf("ParseDate(%q) error: %v", tc.input, err)
			continue
		}
		if !got.Equal(tc.want) {
			t.Errorf("ParseDate(%q) = %v, want %v", tc.input, got, tc.want)
		}
		if hasTime != tc.wantTime {
			t.Errorf("ParseDate(%q) hasTime = %v, want %v", tc.input, hasTime, tc.wantTime)
		}
	}
}

func TestParseDate_Invalid(t *testing.T) {
	for _, input := range []string{"", "not-a-date", "13/13/2024", "2024/02/31x"} {
		if _, _, err := ParseDate(input); !errors.Is(err, ErrInvalidDate) {
			t.Errorf("ParseDate(%q) error = %v, want ErrInvalidDate", input, err)
		}
	}
}

func singleAmountBatch(kind candidate.AccountKind, rows []RawRow) Batch {
	return Batch{
		AccountID:   uuid.New(),
		AccountKind: kind,
		Fields:      resolver.FieldMap{Date: "date", Description: "description", Amount: "amount"},
		Locale:      template.DefaultLocale,
		Rows:        rows,
	}
}

func splitBatch(rows []RawRow) Batch {
	return Batch{
		AccountID:   uuid.New(),
		AccountKind: candidate.KindChecking,
		Fields:      resolver.FieldMap{Date: "data", Description: "descrição", Credit: "crédito", Debit: "débito"},
		Locale:      template.Locale{FieldSeparator: ';', DecimalSeparator: ','},
		Rows:        rows,
	}
}

func TestNormalizeBatch_CreditDebitSplit(t *testing.T) {
	res, err := NormalizeBatch(splitBatch([]RawRow{
		{"data": "13/02/2024", "descrição": "Salary", "crédito": "150,00", "débito": ""},
		{"data": "14/02/2024", "descrição": "Coffee", "crédito": "", "débito": "2,50"},
	}))
	if err != nil {
		t.Fatalf("NormalizeBatch failed: %v", err)
	}
	if len(res.Candidates) != 2 {
		t.Fatalf("expected 2 candidates, got %d", len(res.Candidates))
	}

	salary := res.Candidates[0]
	if !salary.Amount.Equal(decimal.RequireFromString("150.00")) || salary.Direction != candidate.Inflow {
		t.Errorf("credit row: got %s %s, want 150.00 inflow", salary.Amount, salary.Direction)
	}
	coffee := res.Candidates[1]
	if !coffee.Amount.Equal(decimal.RequireFromString("2.50")) || coffee.Direction != candidate.Outflow {
		t.Errorf("debit row: got %s %s, want 2.50 outflow", coffee.Amount, coffee.Direction)
	}
}

func TestNormalizeBatch_AmbiguousFlow(t *testing.T) {
	res, err := NormalizeBatch(splitBatch([]RawRow{
		{"data": "13/02/2024", "descrição": "Both", "crédito": "10", "débito": "5"},
		{"data": "13/02/2024", "descrição": "Neither", "crédito": "", "débito": ""},
		{"data": "14/02/2024", "descrição": "Fine", "crédito": "20,00", "débito": ""},
	}))
	if err != nil {
		t.Fatalf("NormalizeBatch failed: %v", err)
	}
	if len(res.Candidates) != 1 {
		t.Fatalf("expected 1 candidate, got %d", len(res.Candidates))
	}

	ambiguous := 0
	for _, d := range res.Diagnostics {
		if d.Code == CodeAmbiguousFlow {
			ambiguous++
		}
	}
	if ambiguous != 2 {
		t.Errorf("expected 2 ambiguous-flow diagnostics, got %d (%v)", ambiguous, res.Diagnostics)
	}
}

func TestNormalizeBatch_DirectionByAccountKind(t *testing.T) {
	tests := []struct {
		kind   candidate.AccountKind
		amount string
		want   candidate.FlowDirection
	}{
		{candidate.KindChecking, "25.00", candidate.Inflow},
		{candidate.KindChecking, "-25.00", candidate.Outflow},
		{candidate.KindSavings, "-3.10", candidate.Outflow},
		{candidate.KindCash, "3.10", candidate.Inflow},
		// On a credit card a positive amount is a charge, a negative a refund.
		{candidate.KindCreditCard, "25.00", candidate.Outflow},
		{candidate.KindCreditCard, "-25.00", candidate.Inflow},
	}

	for _, tc := range tests {
		res, err := NormalizeBatch(singleAmountBatch(tc.kind, []RawRow{
			{"date": "2024-02-13", "description": "x", "amount": tc.amount},
		}))
		if err != nil {
			t.Fatalf("NormalizeBatch(%s, %s) failed: %v", tc.kind, tc.amount, err)
		}
		c := res.Candidates[0]
		if c.Direction != tc.want {
			t.Errorf("kind %s amount %s: direction = %s, want %s", tc.kind, tc.amount, c.Direction, tc.want)
		}
		if c.Amount.Sign() < 0 {
			t.Errorf("kind %s amount %s: canonical amount is negative: %s", tc.kind, tc.amount, c.Amount)
		}
	}
}

func TestNormalizeBatch_RowErrorsDoNotAbort(t *testing.T) {
	res, err := NormalizeBatch(singleAmountBatch(candidate.KindChecking, []RawRow{
		{"date": "2024-02-13", "description": "Good", "amount": "10.50"},
		{"date": "garbage", "description": "Bad date", "amount": "5.00"},
		{"date": "2024-02-14", "description": "Bad amount", "amount": "n/a"},
		{"date": "2024-02-15", "description": "Also good", "amount": "-3.25"},
	}))
	if err != nil {
		t.Fatalf("NormalizeBatch failed: %v", err)
	}
	if len(res.Candidates) != 2 {
		t.Fatalf("expected 2 candidates, got %d", len(res.Candidates))
	}

	var codes []Code
	for _, d := range res.Diagnostics {
		codes = append(codes, d.Code)
	}
	if len(codes) != 2 || codes[0] != CodeInvalidDate || codes[1] != CodeInvalidAmount {
		t.Errorf("unexpected diagnostics: %v", res.Diagnostics)
	}
	if res.Diagnostics[0].RowIndex != 1 || res.Diagnostics[1].RowIndex != 2 {
		t.Errorf("diagnostics carry wrong row indices: %v", res.Diagnostics)
	}
}

func TestNormalizeBatch_EmptyDescriptionIsAdvisory(t *testing.T) {
	res, err := NormalizeBatch(singleAmountBatch(candidate.KindChecking, []RawRow{
		{"date": "2024-02-13", "description": "   ", "amount": "10.00"},
	}))
	if err != nil {
		t.Fatalf("NormalizeBatch failed: %v", err)
	}
	if len(res.Candidates) != 1 {
		t.Fatalf("expected the row to normalize, got %d candidates", len(res.Candidates))
	}
	if len(res.Diagnostics) != 1 || res.Diagnostics[0].Severity != SeverityAdvisory || res.Diagnostics[0].Code != CodeEmptyDescription {
		t.Errorf("expected one empty-description advisory, got %v", res.Diagnostics)
	}
}

func TestNormalizeBatch_ZeroUsableRows(t *testing.T) {
	res, err := NormalizeBatch(singleAmountBatch(candidate.KindChecking, []RawRow{
		{"date": "bad", "description": "a", "amount": "1.00"},
		{"date": "2024-02-13", "description": "b", "amount": "bad"},
	}))
	if !errors.Is(err, ErrNoUsableRows) {
		t.Fatalf("expected ErrNoUsableRows, got %v", err)
	}
	if len(res.Diagnostics) != 2 {
		t.Errorf("diagnostics should still be reported, got %v", res.Diagnostics)
	}
}

func TestNormalizeBatch_TimePreserved(t *testing.T) {
	res, err := NormalizeBatch(singleAmountBatch(candidate.KindChecking, []RawRow{
		{"date": "2024-02-13 08:15:00", "description": "Morning", "amount": "5.00"},
		{"date": "2024-02-13", "description": "Dateless", "amount": "5.00"},
	}))
	if err != nil {
		t.Fatalf("NormalizeBatch failed: %v", err)
	}

	morning := res.Candidates[0]
	if !morning.HasTime {
		t.Error("time-of-day from the source was not preserved")
	}
	if morning.OccurredAt.Hour() != 8 || morning.OccurredAt.Minute() != 15 {
		t.Errorf("time truncated: got %v", morning.OccurredAt)
	}
	if res.Candidates[1].HasTime {
		t.Error("date-only row should not claim a time-of-day")
	}
}
