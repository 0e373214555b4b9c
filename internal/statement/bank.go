package statement

import (
	"encoding/csv"
	"io"
	"strings"
	"time"
)

// bankDateLayouts are tried in order; first successful parse wins.
var bankDateLayouts = []string{
	"02/01/2006",
	"02-Jan-2006",
	"2006-01-02",
	"02-01-2006",
}

func parseBankDate(value string) (time.Time, bool) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return time.Time{}, false
	}
	for _, layout := range bankDateLayouts {
		if parsed, err := time.Parse(layout, trimmed); err == nil {
			return parsed, true
		}
	}
	return time.Time{}, false
}

var bankHeaderKeywords = []string{"DATE", "DESCRIPTION", "DEBIT", "CREDIT", "BALANCE"}

// BankParser reads bank account CSV exports. The header row is located by
// keyword scan so that report preambles of arbitrary length are skipped, and
// logical columns are mapped by substring match against the cleaned header
// cells, since every bank names them slightly differently.
type BankParser struct{}

// Parse converts bank CSV content into a classified ledger. Rows whose date
// does not parse under any known layout are dropped silently.
func (p *BankParser) Parse(content string) ([]Transaction, error) {
	reader := csv.NewReader(strings.NewReader(stripBOM(content)))
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	var header []string
	var rows [][]string

	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			continue
		}

		if header != nil {
			if rowHasContent(row) {
				rows = append(rows, row)
			}
			continue
		}

		rowText := strings.ToUpper(strings.Join(row, " "))
		if containsAll(rowText, bankHeaderKeywords) {
			header = cleanHeader(row)
		}
	}

	if header == nil {
		return nil, structuralErr("could not find a valid bank statement header row")
	}

	cols, err := mapBankColumns(header)
	if err != nil {
		return nil, err
	}

	transactions := make([]Transaction, 0, len(rows))
	for _, row := range rows {
		date, ok := parseBankDate(cell(row, cols.date))
		if !ok {
			continue
		}

		debit := cleanNumeric(cell(row, cols.debit))
		credit := cleanNumeric(cell(row, cols.credit))

		tx := Transaction{
			Date:        date,
			Description: strings.ToUpper(cell(row, cols.description)),
			Balance:     cleanNumeric(cell(row, cols.balance)),
		}
		// A row contributes to at most one side: credit first, else debit.
		switch {
		case credit > 0:
			tx.Kind = KindIncome
			tx.Amount = credit
		case debit > 0:
			tx.Kind = KindExpenditure
			tx.Amount = debit
		}
		transactions = append(transactions, tx)
	}

	if len(transactions) == 0 {
		return nil, structuralErr("could not parse any valid dates from the bank statement")
	}
	return transactions, nil
}

type bankColumns struct {
	date        int
	description int
	debit       int
	credit      int
	balance     int
}

func mapBankColumns(header []string) (bankColumns, error) {
	find := func(match func(string) bool) int {
		for i, h := range header {
			if match(strings.ToUpper(h)) {
				return i
			}
		}
		return -1
	}

	cols := bankColumns{
		date: find(func(h string) bool {
			return strings.Contains(h, "DATE") && !strings.Contains(h, "VALUE")
		}),
		description: find(func(h string) bool { return strings.Contains(h, "DESCRIPTION") }),
		debit:       find(func(h string) bool { return strings.Contains(h, "DEBIT") }),
		credit:      find(func(h string) bool { return strings.Contains(h, "CREDIT") }),
		balance:     find(func(h string) bool { return strings.Contains(h, "BALANCE") }),
	}
	if cols.date < 0 || cols.description < 0 || cols.debit < 0 || cols.credit < 0 || cols.balance < 0 {
		return cols, structuralErr("could not map all required columns from the detected header")
	}
	return cols, nil
}

func cleanHeader(row []string) []string {
	cleaned := make([]string, len(row))
	for i, h := range row {
		cleaned[i] = strings.TrimSpace(strings.ReplaceAll(h, "\n", " "))
	}
	return cleaned
}

func containsAll(text string, keywords []string) bool {
	for _, kw := range keywords {
		if !strings.Contains(text, kw) {
			return false
		}
	}
	return true
}

func rowHasContent(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return true
		}
	}
	return false
}

func cell(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return row[idx]
}

var _ Parser = (*BankParser)(nil)
