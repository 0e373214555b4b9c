package statement

import (
	"encoding/csv"
	"io"
	"regexp"
	"strings"
	"time"
)

var momoHeaderKeywords = []string{
	"TRANSACTION DATE", "TRANS. TYPE", "AMOUNT", "BAL AFTER", "FROM NO.", "TO NO.",
}

var (
	momoDateJoinRe = regexp.MustCompile(`(\d{2}-\w{3}-\d{4})[-\s]`)
	nonDigitRe     = regexp.MustCompile(`\D`)
)

// momoDateLayouts are tried in order; first successful parse wins. The
// provider emits both zero-padded and bare hours.
var momoDateLayouts = []string{
	"02-Jan-2006 03:04:05 PM",
	"02-Jan-2006 3:04:05 PM",
}

// parseMomoDate handles the provider's date column, which joins date and time
// with either a dash or whitespace.
func parseMomoDate(value string) (time.Time, bool) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return time.Time{}, false
	}
	normalized := momoDateJoinRe.ReplaceAllString(trimmed, "$1 ")
	for _, layout := range momoDateLayouts {
		if parsed, err := time.Parse(layout, normalized); err == nil {
			return parsed, true
		}
	}
	return time.Time{}, false
}

// MomoParser reads MTN mobile-money exports. The applicant's own number is
// never stated in the file; it is inferred from the first DEBIT or PAYMENT
// record, whose FROM NO. must be the account holder. Income is then any
// transaction whose destination number carries that suffix.
type MomoParser struct{}

// Parse converts MoMo statement content into a classified ledger.
func (p *MomoParser) Parse(content string) ([]Transaction, error) {
	lines := strings.Split(stripBOM(content), "\n")

	header, dataStart := findMomoHeader(lines)
	if header == nil {
		return nil, structuralErr("could not find a valid MTN MoMo header row")
	}

	records, err := readMomoRecords(lines[dataStart:], header)
	if err != nil {
		return nil, err
	}

	suffix := inferPhoneSuffix(records)
	if suffix == "" {
		return nil, structuralErr("could not identify user phone number")
	}

	transactions := make([]Transaction, 0, len(records))
	for _, rec := range records {
		date, ok := parseMomoDate(rec["TRANSACTION DATE"])
		if !ok {
			continue
		}

		toPhone := nonDigitRe.ReplaceAllString(strings.TrimSpace(rec["TO NO."]), "")

		tx := Transaction{
			Date:        date,
			Description: strings.ToUpper(strings.TrimSpace(rec["TRANS. TYPE"])),
			Amount:      cleanNumeric(rec["AMOUNT"]),
			Balance:     cleanNumeric(rec["BAL AFTER"]),
		}
		// The full amount lands on one side or the other; there is no
		// debit/credit split in this schema.
		if toPhone != "" && strings.HasSuffix(toPhone, suffix) {
			tx.Kind = KindIncome
		} else {
			tx.Kind = KindExpenditure
		}
		transactions = append(transactions, tx)
	}

	if len(transactions) == 0 {
		return nil, structuralErr("could not find any valid transaction dates in the statement")
	}
	return transactions, nil
}

func findMomoHeader(lines []string) ([]string, int) {
	for i, line := range lines {
		if !containsAll(strings.ToUpper(line), momoHeaderKeywords) {
			continue
		}
		parts := strings.Split(line, ",")
		header := make([]string, len(parts))
		for j, part := range parts {
			header[j] = strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(part), `"`, ""))
		}
		return header, i + 1
	}
	return nil, 0
}

func readMomoRecords(lines []string, header []string) ([]map[string]string, error) {
	reader := csv.NewReader(strings.NewReader(strings.Join(lines, "\n")))
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	var records []map[string]string
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			continue
		}
		if !rowHasContent(row) {
			continue
		}

		rec := make(map[string]string, len(header))
		for i, name := range header {
			rec[name] = cell(row, i)
		}
		records = append(records, rec)
	}
	return records, nil
}

// inferPhoneSuffix scans for the first DEBIT or PAYMENT record with a
// non-empty FROM NO. and takes the last nine digits as the applicant's own
// number suffix.
func inferPhoneSuffix(records []map[string]string) string {
	for _, rec := range records {
		transType := strings.ToUpper(strings.TrimSpace(rec["TRANS. TYPE"]))
		if transType != "DEBIT" && transType != "PAYMENT" {
			continue
		}
		from := nonDigitRe.ReplaceAllString(strings.TrimSpace(rec["FROM NO."]), "")
		if from == "" {
			continue
		}
		if len(from) > 9 {
			return from[len(from)-9:]
		}
		return from
	}
	return ""
}

var _ Parser = (*MomoParser)(nil)
