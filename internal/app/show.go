package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"credscore/internal/storage"
)

// Show prints a user's statement records and current credit limit.
func (a *App) Show(ctx context.Context, opts ShowOptions) error {
	store, closeStore, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	if store == nil {
		return errors.New("database not configured; cannot show profile data")
	}
	if closeStore != nil {
		defer closeStore()
	}

	records, err := store.ListStatementRecords(ctx, opts.UserID)
	if err != nil {
		return err
	}
	if len(records) == 0 {
		fmt.Fprintln(os.Stdout, "no statement records found")
	} else {
		writer := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(writer, "Analyzed (UTC)\tID\tType\tIncome\tExpenditure\tDisposable\tVolatility\tOutliers")
		for _, record := range records {
			fmt.Fprintf(
				writer,
				"%s\t%s\t%s\t%s\t%s\t%s\t%s\t%d\n",
				record.AnalysisDate.UTC().Format(time.RFC3339),
				sanitizeInline(record.ID),
				record.StatementType,
				record.AvgMonthlyIncome.StringFixed(2),
				record.AvgMonthlyExpenditure.StringFixed(2),
				record.DisposableIncome.StringFixed(2),
				record.BalanceVolatility.StringFixed(2),
				record.ExpenditureOutlierCount,
			)
		}
		writer.Flush()
	}

	limitRecord, err := store.GetCreditLimit(ctx, opts.UserID)
	switch {
	case errors.Is(err, storage.ErrLimitNotFound):
		fmt.Fprintln(os.Stdout, "credit limit: scoring in progress")
	case err != nil:
		return err
	default:
		fmt.Fprintf(os.Stdout, "credit limit: %s (model %s, calculated %s)\n",
			limitRecord.CreditLimit.StringFixed(0),
			limitRecord.ModelVersion,
			limitRecord.ScoreLastCalculatedAt.UTC().Format(time.RFC3339),
		)
	}
	return nil
}

func sanitizeInline(v string) string {
	cleaned := strings.ReplaceAll(v, "\n", " ")
	cleaned = strings.ReplaceAll(cleaned, "\r", " ")
	return cleaned
}
