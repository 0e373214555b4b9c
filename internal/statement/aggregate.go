package statement

import (
	"sort"
	"time"
)

// DefaultWindowDays is the trailing analysis range applied to every ledger.
const DefaultWindowDays = 180

// MonthlySeries buckets a ledger into calendar months within the trailing
// analysis window. A month appears in Income or Expenditure only if at least
// one transaction of that side landed in it; LowestBalance is set for every
// month that saw any transaction at all.
type MonthlySeries struct {
	Months        []string
	Income        map[string]float64
	Expenditure   map[string]float64
	LowestBalance map[string]float64
}

// Aggregate buckets transactions by calendar month. The window is anchored at
// the most recent transaction date and extends windowDays back; anything
// older is discarded.
func Aggregate(transactions []Transaction, windowDays int) (MonthlySeries, error) {
	if len(transactions) == 0 {
		return MonthlySeries{}, structuralErr("no transactions to aggregate")
	}
	if windowDays <= 0 {
		windowDays = DefaultWindowDays
	}

	var latest time.Time
	for _, tx := range transactions {
		if tx.Date.After(latest) {
			latest = tx.Date
		}
	}
	cutoff := latest.Add(-time.Duration(windowDays) * 24 * time.Hour)

	series := MonthlySeries{
		Income:        make(map[string]float64),
		Expenditure:   make(map[string]float64),
		LowestBalance: make(map[string]float64),
	}

	for _, tx := range transactions {
		if tx.Date.Before(cutoff) {
			continue
		}
		month := tx.Date.Format("2006-01")

		lowest, seen := series.LowestBalance[month]
		if !seen || tx.Balance < lowest {
			series.LowestBalance[month] = tx.Balance
		}

		switch tx.Kind {
		case KindIncome:
			series.Income[month] += tx.Amount
		case KindExpenditure:
			series.Expenditure[month] += tx.Amount
		}
	}

	for month := range series.LowestBalance {
		series.Months = append(series.Months, month)
	}
	sort.Strings(series.Months)

	return series, nil
}

// IncomeValues returns the per-month income sums in month order.
func (s MonthlySeries) IncomeValues() []float64 {
	return s.monthValues(s.Income)
}

// ExpenditureValues returns the per-month expenditure sums in month order.
func (s MonthlySeries) ExpenditureValues() []float64 {
	return s.monthValues(s.Expenditure)
}

// LowestBalanceValues returns each month's lowest observed balance in month order.
func (s MonthlySeries) LowestBalanceValues() []float64 {
	return s.monthValues(s.LowestBalance)
}

func (s MonthlySeries) monthValues(m map[string]float64) []float64 {
	values := make([]float64, 0, len(m))
	for _, month := range s.Months {
		if v, ok := m[month]; ok {
			values = append(values, v)
		}
	}
	return values
}
