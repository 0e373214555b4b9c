// Package kyc reduces questionnaire answers to the two bounded behavioral
// scores consumed by the risk model.
package kyc

// Answer keys recognised in a profile's KYC answer map.
const (
	KeyResidenceDuration  = "residenceDuration"
	KeyBorrowingHistory   = "borrowingHistory"
	KeyRepaymentAbility   = "repaymentAbility"
	KeyMonthlyIncomeRange = "monthlyIncomeRange"
	KeyJobDuration        = "jobDuration"
	KeyBorrowingSource    = "borrowingSource"
)

// MaxAxisScore is the ceiling of each raw score axis.
const MaxAxisScore = 15.0

// Scores holds the two questionnaire-derived axes, each in [0, 15].
type Scores struct {
	Character float64
	Capacity  float64
}

// Marking scheme. Unmapped or missing answers fall back to the per-question
// neutral default, not to zero.
var (
	residenceDurationPoints = map[string]float64{
		"More than 10 years": 5,
		"8 - 10 years":       4,
		"4 - 8 years":        3,
		"2 - 4 years":        2,
		"Less than 2 years":  1,
	}
	borrowingHistoryPoints = map[string]float64{
		"Yes, but I paid it off":     5,
		"No, but I borrowed before":  4,
		"No":                         3,
		"Yes, and I still owe money": 1,
	}
	repaymentAbilityPoints = map[string]float64{
		"Yes, without delays or challenges":   5,
		"It's difficult but I manage to pay":  2,
		"Sometimes I wasn't able to pay back": 0,
		"Not applicable":                      3,
	}
	monthlyIncomeRangePoints = map[string]float64{
		"Above 1800 GHS":      5,
		"1401 GHS - 1800 GHS": 4,
		"1001 GHS - 1400 GHS": 3,
		"701 GHS - 1000 GHS":  2,
		"351 GHS - 700 GHS":   1,
		"Below 350 GHS":       0,
	}
	jobDurationPoints = map[string]float64{
		"More than 10 years": 5,
		"8 - 10 years":       4,
		"4 - 8 years":        3,
		"2 - 4 years":        2,
		"Less than 2 years":  1,
	}
	borrowingSourcePoints = map[string]float64{
		"Banks":                                     5,
		"Other Financial apps (digital)":            5,
		"Mobile Money providers (MTN, Telecel, AT)": 4,
		"Money lenders (physical / shop)":           2,
		"Friends or family":                         2,
		"No applicable":                             3,
	}
)

// Score maps categorical answers to the character and capacity axes. An
// applicant with no answers at all gets the fixed neutral pair rather than
// a sum of per-question defaults.
func Score(answers map[string]string) Scores {
	if len(answers) == 0 {
		return Scores{Character: 7.5, Capacity: 10}
	}

	character := lookup(residenceDurationPoints, answers[KeyResidenceDuration], 1) +
		lookup(borrowingHistoryPoints, answers[KeyBorrowingHistory], 3) +
		lookup(repaymentAbilityPoints, answers[KeyRepaymentAbility], 3)

	capacity := lookup(monthlyIncomeRangePoints, answers[KeyMonthlyIncomeRange], 0) +
		lookup(jobDurationPoints, answers[KeyJobDuration], 1) +
		lookup(borrowingSourcePoints, answers[KeyBorrowingSource], 3)

	return Scores{Character: character, Capacity: capacity}
}

func lookup(points map[string]float64, answer string, fallback float64) float64 {
	if p, ok := points[answer]; ok {
		return p
	}
	return fallback
}
