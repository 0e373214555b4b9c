package app

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"credscore/internal/fuzzy"
	"credscore/internal/kyc"
	"credscore/internal/limit"
	"credscore/internal/statement"
)

// Simulate 离线执行完整评分流程：从本地文件读取对账单与 KYC 答案，
// 不接触数据库，直接打印各阶段结果。
func (a *App) Simulate(ctx context.Context, opts SimulateOptions) error {
	content, err := os.ReadFile(opts.StatementPath)
	if err != nil {
		return fmt.Errorf("read statement file: %w", err)
	}

	metrics, err := statement.Analyze(string(content), opts.Type, a.Config.Scoring.AnalysisWindowDays)
	if err != nil {
		return err
	}

	answers, err := readKYCAnswers(opts.KYCPath)
	if err != nil {
		return err
	}
	scores := kyc.Score(answers)

	confidence := a.Config.Scoring.ConfidenceScore
	if opts.Confidence > 0 {
		confidence = opts.Confidence
	}

	calculator := limit.NewCalculator(limit.Config{
		ConfidenceScore: confidence,
		MinimumLimit:    a.Config.Scoring.MinimumCreditLimit,
		MaximumLimit:    a.Config.Scoring.MaximumCreditLimit,
		ModelVersion:    a.Config.Scoring.ModelVersion,
	}, fuzzy.NewRiskEngine())

	result, err := calculator.Calculate(limit.MetricInputs{
		AvgMonthlyIncome:        metrics.AvgMonthlyIncome.InexactFloat64(),
		AvgMonthlyExpenditure:   metrics.AvgMonthlyExpenditure.InexactFloat64(),
		AvgLowestMonthlyBalance: metrics.AvgLowestMonthlyBalance.InexactFloat64(),
		BalanceVolatility:       metrics.BalanceVolatility.InexactFloat64(),
		DisposableIncome:        metrics.DisposableIncome.InexactFloat64(),
	}, scores)
	if err != nil {
		return err
	}

	fmt.Fprintf(os.Stdout, "statement metrics:\n")
	fmt.Fprintf(os.Stdout, "  avg income: %s  avg expenditure: %s  disposable: %s\n",
		metrics.AvgMonthlyIncome.StringFixed(2),
		metrics.AvgMonthlyExpenditure.StringFixed(2),
		metrics.DisposableIncome.StringFixed(2))
	fmt.Fprintf(os.Stdout, "  avg lowest balance: %s  volatility: %s  expenditure outliers: %d\n",
		metrics.AvgLowestMonthlyBalance.StringFixed(2),
		metrics.BalanceVolatility.StringFixed(2),
		metrics.ExpenditureOutlierCount)
	fmt.Fprintf(os.Stdout, "kyc scores: character=%.1f capacity=%.1f\n", scores.Character, scores.Capacity)
	fmt.Fprintf(os.Stdout, "fuzzy inputs: dti=%.2f volatility=%.2f min_balance=%.2f debt_honesty=%.2f character=%.2f\n",
		result.Inputs.DTI, result.Inputs.Volatility, result.Inputs.MinBalance,
		result.Inputs.DebtHonesty, result.Inputs.Character)
	fmt.Fprintf(os.Stdout, "risk score: %.2f (user score %.2f)\n", result.RiskScore, result.UserRiskScore)
	fmt.Fprintf(os.Stdout, "credit limit: %s (model %s)\n", result.CreditLimit.StringFixed(0), result.ModelVersion)
	if result.ClampedTo != limit.ClampNone {
		fmt.Fprintf(os.Stdout, "clamped to business %s (computed %.2f)\n", result.ClampedTo, result.InitialLimit)
	}
	return nil
}

func readKYCAnswers(path string) (map[string]string, error) {
	if path == "" {
		return nil, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read kyc answers: %w", err)
	}
	var answers map[string]string
	if err := json.Unmarshal(raw, &answers); err != nil {
		return nil, fmt.Errorf("decode kyc answers: %w", err)
	}
	return answers, nil
}
