package statement

import "testing"

func TestSummarize(t *testing.T) {
	series := MonthlySeries{
		Months:        []string{"2024-03", "2024-04"},
		Income:        map[string]float64{"2024-03": 1500, "2024-04": 2000},
		Expenditure:   map[string]float64{"2024-03": 500},
		LowestBalance: map[string]float64{"2024-03": 1000, "2024-04": 3000},
	}

	m := Summarize(series)

	cases := []struct {
		name string
		got  string
		want string
	}{
		{"平均月收入", m.AvgMonthlyIncome.StringFixed(2), "1750.00"},
		{"平均月支出", m.AvgMonthlyExpenditure.StringFixed(2), "500.00"},
		{"可支配收入", m.DisposableIncome.StringFixed(2), "1250.00"},
		{"平均最低月余额", m.AvgLowestMonthlyBalance.StringFixed(2), "2000.00"},
		{"余额波动", m.BalanceVolatility.StringFixed(2), "1414.21"},
	}
	for _, c := range cases {
		if c.got != c.want {
			t.Fatalf("%s 期望 %s, 实际 %s", c.name, c.want, c.got)
		}
	}
	if m.ExpenditureOutlierCount != 0 {
		t.Fatalf("不应有支出离群值, 实际 %d", m.ExpenditureOutlierCount)
	}
}

func TestAnalyzeBankEndToEnd(t *testing.T) {
	m, err := Analyze(bankFixture, TypeBank, DefaultWindowDays)
	if err != nil {
		t.Fatalf("分析失败: %v", err)
	}
	if m.AvgMonthlyIncome.StringFixed(2) != "1750.00" {
		t.Fatalf("平均月收入不符: %s", m.AvgMonthlyIncome)
	}
	if m.DisposableIncome.StringFixed(2) != "1250.00" {
		t.Fatalf("可支配收入不符: %s", m.DisposableIncome)
	}
	if m.BalanceVolatility.StringFixed(2) != "1414.21" {
		t.Fatalf("余额波动不符: %s", m.BalanceVolatility)
	}
}

func TestAnalyzeUnknownType(t *testing.T) {
	if _, err := Analyze("x", Type("paypal"), DefaultWindowDays); err == nil {
		t.Fatal("未知类型应返回错误")
	}
}

func TestParseType(t *testing.T) {
	if got, err := ParseType(" Bank "); err != nil || got != TypeBank {
		t.Fatalf("ParseType(bank) = %v, %v", got, err)
	}
	if got, err := ParseType("momo-mtn-statement"); err != nil || got != TypeMomoMTN {
		t.Fatalf("ParseType(momo) = %v, %v", got, err)
	}
	if _, err := ParseType("wave"); err == nil {
		t.Fatal("未知类型标签应报错")
	}
}
