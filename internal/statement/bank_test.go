package statement

import (
	"errors"
	"strings"
	"testing"
)

const bankFixture = `ACME BANK LTD
Account statement export,,,,,

Txn Date,Value Date,Description,Debit,Credit,Balance
01/03/2024,01/03/2024,Salary March,,"1,500.00","1,500.00"
05/03/2024,05/03/2024,Rent,500.00,,"1,000.00"
02/04/2024,02/04/2024,Salary April,,2000.00,3000.00
`

func TestBankParseSkipsPreamble(t *testing.T) {
	p := &BankParser{}
	txs, err := p.Parse(bankFixture)
	if err != nil {
		t.Fatalf("解析银行对账单失败: %v", err)
	}
	if len(txs) != 3 {
		t.Fatalf("期望 3 笔交易, 实际 %d", len(txs))
	}

	if txs[0].Kind != KindIncome || txs[0].Amount != 1500 {
		t.Fatalf("首笔应为收入 1500, 实际 %#v", txs[0])
	}
	if txs[1].Kind != KindExpenditure || txs[1].Amount != 500 {
		t.Fatalf("第二笔应为支出 500, 实际 %#v", txs[1])
	}
	if txs[0].Description != "SALARY MARCH" {
		t.Fatalf("描述应统一为大写, 实际 %q", txs[0].Description)
	}
	if txs[2].Balance != 3000 {
		t.Fatalf("余额解析错误: %v", txs[2].Balance)
	}
}

func TestBankParseBOM(t *testing.T) {
	p := &BankParser{}
	if _, err := p.Parse("\uFEFF" + bankFixture); err != nil {
		t.Fatalf("带 BOM 的文件应照常解析: %v", err)
	}
}

func TestBankParseCreditWinsOverDebit(t *testing.T) {
	content := strings.Join([]string{
		"Date,Description,Debit,Credit,Balance",
		"01/03/2024,REVERSAL,100.00,250.00,1150.00",
	}, "\n")

	p := &BankParser{}
	txs, err := p.Parse(content)
	if err != nil {
		t.Fatalf("解析失败: %v", err)
	}
	if txs[0].Kind != KindIncome || txs[0].Amount != 250 {
		t.Fatalf("贷方优先于借方, 实际 %#v", txs[0])
	}
}

func TestBankParseDateLayouts(t *testing.T) {
	content := strings.Join([]string{
		"Date,Description,Debit,Credit,Balance",
		"02/03/2024,A,1.00,,10.00",
		"02-Mar-2024,B,1.00,,10.00",
		"2024-03-02,C,1.00,,10.00",
		"02-03-2024,D,1.00,,10.00",
	}, "\n")

	p := &BankParser{}
	txs, err := p.Parse(content)
	if err != nil {
		t.Fatalf("解析失败: %v", err)
	}
	if len(txs) != 4 {
		t.Fatalf("四种日期格式都应被接受, 实际 %d 笔", len(txs))
	}
	for i, tx := range txs[1:] {
		if !tx.Date.Equal(txs[0].Date) {
			t.Fatalf("第 %d 笔日期应与首笔相同, 实际 %v", i+2, tx.Date)
		}
	}
}

func TestBankParseNoHeader(t *testing.T) {
	p := &BankParser{}
	_, err := p.Parse("just,some,random,cells\nwithout,a,statement,header\n")

	var serr *StructuralError
	if !errors.As(err, &serr) {
		t.Fatalf("缺少表头应返回 StructuralError, 实际 %v", err)
	}
	if !strings.Contains(serr.Reason, "header") {
		t.Fatalf("错误信息不符: %q", serr.Reason)
	}
}

func TestBankParseUnmappableDateColumn(t *testing.T) {
	// 关键字扫描能找到表头, 但唯一的日期列带 VALUE 前缀, 无法映射.
	content := strings.Join([]string{
		"Value Date,Description,Debit,Credit,Balance",
		"01/03/2024,X,1.00,,10.00",
	}, "\n")

	p := &BankParser{}
	var serr *StructuralError
	if _, err := p.Parse(content); !errors.As(err, &serr) {
		t.Fatalf("列映射失败应返回 StructuralError, 实际 %v", err)
	}
}

func TestBankParseNoValidDates(t *testing.T) {
	content := strings.Join([]string{
		"Date,Description,Debit,Credit,Balance",
		"not-a-date,X,1.00,,10.00",
		"also bad,Y,,2.00,12.00",
	}, "\n")

	p := &BankParser{}
	var serr *StructuralError
	if _, err := p.Parse(content); !errors.As(err, &serr) {
		t.Fatalf("全部日期无效应返回 StructuralError, 实际 %v", err)
	}
}
