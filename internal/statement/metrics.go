package statement

import "github.com/shopspring/decimal"

// Metrics is the normalized result of one statement-analysis run. All values
// are rounded to two decimal places and carried as exact decimals so that
// persistence and re-reads cannot drift.
type Metrics struct {
	AvgMonthlyIncome        decimal.Decimal `json:"avgMonthlyIncome"`
	AvgMonthlyExpenditure   decimal.Decimal `json:"avgMonthlyExpenditure"`
	DisposableIncome        decimal.Decimal `json:"disposableIncome"`
	AvgLowestMonthlyBalance decimal.Decimal `json:"avgLowestMonthlyBalance"`
	BalanceVolatility       decimal.Decimal `json:"balanceVolatility"`
	ExpenditureOutlierCount int             `json:"expenditureOutlierCount"`
}

// Summarize reduces the filtered monthly series into final metrics. Outliers
// are removed from the income and expenditure series independently before
// averaging; only the expenditure outlier count is reported.
func Summarize(series MonthlySeries) Metrics {
	incomeClean, _ := FilterOutliers(series.IncomeValues())
	expenditureClean, expenditureOutliers := FilterOutliers(series.ExpenditureValues())

	avgIncome := mean(incomeClean)
	avgExpenditure := mean(expenditureClean)
	disposable := avgIncome - avgExpenditure

	balances := series.LowestBalanceValues()
	avgLowest := mean(balances)
	volatility := sampleStdev(balances, avgLowest)

	return Metrics{
		AvgMonthlyIncome:        round2(avgIncome),
		AvgMonthlyExpenditure:   round2(avgExpenditure),
		DisposableIncome:        round2(disposable),
		AvgLowestMonthlyBalance: round2(avgLowest),
		BalanceVolatility:       round2(volatility),
		ExpenditureOutlierCount: len(expenditureOutliers),
	}
}

// round2 applies banker's rounding to two places, matching how the metrics
// were historically produced.
func round2(v float64) decimal.Decimal {
	return decimal.NewFromFloat(v).RoundBank(2)
}

// Analyze runs the full pipeline for one statement: parse, bucket into the
// trailing window, filter outliers, and summarize.
func Analyze(content string, t Type, windowDays int) (Metrics, error) {
	series, err := AnalyzeSeries(content, t, windowDays)
	if err != nil {
		return Metrics{}, err
	}
	return Summarize(series), nil
}

// AnalyzeSeries parses and buckets a statement, exposing the intermediate
// monthly series for inspection and export.
func AnalyzeSeries(content string, t Type, windowDays int) (MonthlySeries, error) {
	parser, err := ParserFor(t)
	if err != nil {
		return MonthlySeries{}, err
	}
	transactions, err := parser.Parse(content)
	if err != nil {
		return MonthlySeries{}, err
	}
	return Aggregate(transactions, windowDays)
}
