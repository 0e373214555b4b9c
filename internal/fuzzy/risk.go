package fuzzy

// Inputs are the normalized antecedents of the credit risk model. DTI,
// Volatility, and MinBalance live in [0,1]; DebtHonesty and Character in [1,5].
// Values are clamped to their universes before inference.
type Inputs struct {
	DTI         float64
	Volatility  float64
	MinBalance  float64
	DebtHonesty float64
	Character   float64
}

// RiskEngine evaluates the fixed credit risk rule base. Construction is
// stateless-equivalent: build one engine and share it across goroutines.
type RiskEngine struct {
	system *System
}

// NewRiskEngine assembles the five-antecedent Mamdani risk model.
func NewRiskEngine() *RiskEngine {
	dti := Variable{
		Name: "dti", Min: 0, Max: 1, Step: 0.01,
		Terms: map[string]Term{
			"low":  Tri(0, 0, 0.3),
			"med":  Tri(0.2, 0.5, 0.8),
			"high": Tri(0.6, 1, 1),
		},
	}
	volatility := Variable{
		Name: "volatility", Min: 0, Max: 1, Step: 0.01,
		Terms: map[string]Term{
			"stable":   Tri(0, 0, 0.4),
			"moderate": Tri(0.3, 0.5, 0.7),
			"volatile": Tri(0.6, 1, 1),
		},
	}
	minBalance := Variable{
		Name: "min_balance", Min: 0, Max: 1, Step: 0.01,
		Terms: map[string]Term{
			"low":  Tri(0, 0, 0.3),
			"med":  Tri(0.2, 0.5, 0.8),
			"high": Tri(0.6, 1, 1),
		},
	}
	debtHonesty := Variable{
		Name: "debt_honesty", Min: 1, Max: 5, Step: 0.1,
		Terms: map[string]Term{
			"poor": Tri(1, 1, 3),
			"fair": Tri(2, 3, 4),
			"good": Tri(3, 5, 5),
		},
	}
	character := Variable{
		Name: "character", Min: 1, Max: 5, Step: 0.1,
		Terms: map[string]Term{
			"weak":    Tri(1, 1, 3),
			"average": Tri(2, 3, 4),
			"strong":  Tri(3, 5, 5),
		},
	}
	risk := Variable{
		Name: "risk", Min: 0, Max: 1, Step: 0.01,
		Terms: map[string]Term{
			"low":    Tri(0, 0, 0.4),
			"medium": Tri(0.3, 0.5, 0.7),
			"high":   Tri(0.6, 1, 1),
		},
	}

	rules := []Rule{
		{
			// High leverage or erratic balances dominate everything else.
			Strength: func(d Degrees) float64 {
				return Max(d.Of("dti", "high"), d.Of("volatility", "volatile"))
			},
			Consequent: "high",
		},
		{
			Strength: func(d Degrees) float64 {
				return Min(d.Of("min_balance", "low"),
					Max(d.Of("dti", "med"), d.Of("volatility", "moderate")))
			},
			Consequent: "medium",
		},
		{
			Strength: func(d Degrees) float64 {
				return Min(Min(d.Of("debt_honesty", "good"), d.Of("character", "strong")),
					d.Of("dti", "low"))
			},
			Consequent: "low",
		},
		{
			Strength: func(d Degrees) float64 {
				return Max(d.Of("debt_honesty", "poor"), d.Of("character", "weak"))
			},
			Consequent: "high",
		},
		{
			Strength: func(d Degrees) float64 {
				return Min(Min(d.Of("debt_honesty", "fair"), d.Of("character", "average")),
					d.Of("volatility", "stable"))
			},
			Consequent: "medium",
		},
	}

	system, err := NewSystem(
		[]Variable{dti, volatility, minBalance, debtHonesty, character},
		risk,
		rules,
	)
	if err != nil {
		// The rule base is fixed at compile time; a bad consequent is a
		// programming error, not a runtime condition.
		panic(err)
	}
	return &RiskEngine{system: system}
}

// Assess runs inference and returns the crisp risk score in [0,1], where 1 is
// maximally risky. The applicant-facing score is 1 minus this value.
func (e *RiskEngine) Assess(in Inputs) (float64, error) {
	return e.system.Evaluate(map[string]float64{
		"dti":          in.DTI,
		"volatility":   in.Volatility,
		"min_balance":  in.MinBalance,
		"debt_honesty": in.DebtHonesty,
		"character":    in.Character,
	})
}
