// Package limit turns statement metrics, questionnaire scores, and the fuzzy
// risk assessment into a bounded initial credit limit.
package limit

import (
	"fmt"
	"math"

	"github.com/shopspring/decimal"

	"credscore/internal/fuzzy"
	"credscore/internal/kyc"
)

// Config carries the environment-level business parameters of the engine.
type Config struct {
	ConfidenceScore float64
	MinimumLimit    int64
	MaximumLimit    int64
	ModelVersion    string
}

// MetricInputs are the statement-derived figures consumed by the engine,
// taken from the most recent statement record of the applicant.
type MetricInputs struct {
	AvgMonthlyIncome        float64
	AvgMonthlyExpenditure   float64
	AvgLowestMonthlyBalance float64
	BalanceVolatility       float64
	DisposableIncome        float64
}

// Result is the outcome of one limit calculation.
type Result struct {
	CreditLimit   decimal.Decimal
	RiskScore     float64
	UserRiskScore float64
	InitialLimit  float64
	ClampedTo     Clamp
	ModelVersion  string
	Inputs        fuzzy.Inputs
}

// Clamp records which business bound, if any, overrode the computed limit.
type Clamp string

const (
	ClampNone    Clamp = ""
	ClampFloor   Clamp = "minimum"
	ClampCeiling Clamp = "maximum"
)

// Calculator combines the fuzzy risk engine with the clamping business rule.
type Calculator struct {
	cfg    Config
	engine *fuzzy.RiskEngine
}

// NewCalculator wires a calculator around a shared risk engine.
func NewCalculator(cfg Config, engine *fuzzy.RiskEngine) *Calculator {
	return &Calculator{cfg: cfg, engine: engine}
}

// Normalize rescales raw metrics and KYC scores into the fuzzy universes.
// When average income is exactly zero the ratios are undefined, so the
// maximally risky inputs are forced instead of dividing by zero.
func Normalize(m MetricInputs, scores kyc.Scores) fuzzy.Inputs {
	in := fuzzy.Inputs{
		DebtHonesty: 1 + (scores.Capacity/kyc.MaxAxisScore)*4,
		Character:   1 + (scores.Character/kyc.MaxAxisScore)*4,
	}

	if m.AvgMonthlyIncome == 0 {
		in.DTI = 1.0
		in.Volatility = 1.0
		in.MinBalance = 0.0
		return in
	}

	in.DTI = clamp01(m.AvgMonthlyExpenditure / m.AvgMonthlyIncome)
	in.Volatility = clamp01(m.BalanceVolatility / m.AvgMonthlyIncome)
	in.MinBalance = clamp01(m.AvgLowestMonthlyBalance / m.AvgMonthlyIncome)
	return in
}

// Calculate assesses risk and applies the limit formula and business clamps.
func (c *Calculator) Calculate(m MetricInputs, scores kyc.Scores) (Result, error) {
	inputs := Normalize(m, scores)

	riskScore, err := c.engine.Assess(inputs)
	if err != nil {
		return Result{}, fmt.Errorf("assess risk: %w", err)
	}
	userScore := 1.0 - riskScore

	initial := m.DisposableIncome * c.confidence() * userScore

	result := Result{
		RiskScore:     riskScore,
		UserRiskScore: userScore,
		InitialLimit:  initial,
		ModelVersion:  c.cfg.ModelVersion,
		Inputs:        inputs,
	}

	switch {
	case initial < float64(c.cfg.MinimumLimit):
		result.CreditLimit = decimal.NewFromInt(c.cfg.MinimumLimit)
		result.ClampedTo = ClampFloor
	case initial > float64(c.cfg.MaximumLimit):
		result.CreditLimit = decimal.NewFromInt(c.cfg.MaximumLimit)
		result.ClampedTo = ClampCeiling
	default:
		result.CreditLimit = decimal.NewFromInt(int64(math.Floor(initial)))
	}

	return result, nil
}

// CalculateWith overrides the configured confidence score for one run, used
// when a profile carries its own correction factor.
func (c *Calculator) CalculateWith(m MetricInputs, scores kyc.Scores, confidence float64) (Result, error) {
	scoped := *c
	scoped.cfg.ConfidenceScore = confidence
	return scoped.Calculate(m, scores)
}

func (c *Calculator) confidence() float64 {
	return c.cfg.ConfidenceScore
}

func clamp01(v float64) float64 {
	return math.Min(1.0, math.Max(0.0, v))
}
