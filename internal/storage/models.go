package storage

import (
	"time"

	"github.com/shopspring/decimal"

	"credscore/internal/statement"
)

// StatementRecord is one persisted statement-analysis result. A user holds at
// most one record per ID; re-analysis of the same source file replaces the
// stored record in place.
type StatementRecord struct {
	UserID        string
	ID            string
	SourceFile    string
	StatementType string
	AnalysisDate  time.Time
	statement.Metrics
	CreatedAt time.Time
}

// Profile is the applicant profile consumed by the limit engine.
type Profile struct {
	UserID           string
	KYCAnswers       map[string]string
	CorrectionFactor *float64
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// CreditLimitRecord is the sole current limit for a user; the most recent
// write is authoritative.
type CreditLimitRecord struct {
	UserID                string
	CreditLimit           decimal.Decimal
	ScoreLastCalculatedAt time.Time
	ModelVersion          string
}
