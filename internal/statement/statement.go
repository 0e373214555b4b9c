package statement

import (
	"fmt"
	"strings"
	"time"
)

// Type identifies the provider that produced a statement export.
type Type string

const (
	// TypeBank is a generic bank account export with debit/credit columns.
	TypeBank Type = "bank"
	// TypeMomoMTN is an MTN mobile-money export.
	TypeMomoMTN Type = "momo-mtn-statement"
)

// ParseType resolves a caller-supplied statement type tag into a known Type.
func ParseType(tag string) (Type, error) {
	switch Type(strings.TrimSpace(strings.ToLower(tag))) {
	case TypeBank:
		return TypeBank, nil
	case TypeMomoMTN:
		return TypeMomoMTN, nil
	}
	return "", fmt.Errorf("unknown statement type %q", tag)
}

// Kind classifies a transaction's contribution to the monthly series.
type Kind int

const (
	// KindNone contributes balance only (bank rows with neither debit nor credit).
	KindNone Kind = iota
	// KindIncome adds the amount to the month's income sum.
	KindIncome
	// KindExpenditure adds the amount to the month's expenditure sum.
	KindExpenditure
)

// Transaction is one ledger entry with its provider-specific classification
// already applied. Amount is a non-negative magnitude; Balance is the running
// account balance after the transaction.
type Transaction struct {
	Date        time.Time
	Description string
	Kind        Kind
	Amount      float64
	Balance     float64
}

// Parser converts raw decoded statement text into a classified ledger.
type Parser interface {
	Parse(content string) ([]Transaction, error)
}

// ParserFor returns the parser for a statement type.
func ParserFor(t Type) (Parser, error) {
	switch t {
	case TypeBank:
		return &BankParser{}, nil
	case TypeMomoMTN:
		return &MomoParser{}, nil
	}
	return nil, fmt.Errorf("no parser for statement type %q", t)
}

// StructuralError reports a statement whose shape cannot be understood:
// missing header, unmappable column, no parseable dates, no inferable
// applicant phone number. It aborts analysis of that one statement only.
type StructuralError struct {
	Reason string
}

func (e *StructuralError) Error() string {
	return "statement: " + e.Reason
}

func structuralErr(format string, args ...interface{}) error {
	return &StructuralError{Reason: fmt.Sprintf(format, args...)}
}

func stripBOM(content string) string {
	return strings.TrimPrefix(content, "\uFEFF")
}
