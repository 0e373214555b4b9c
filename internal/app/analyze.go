package app

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"text/tabwriter"

	"credscore/internal/service"
)

// Analyze parses one statement export, prints the derived metrics, and
// persists the record when a database is configured.
func (a *App) Analyze(ctx context.Context, opts AnalyzeOptions) error {
	content, err := os.ReadFile(opts.FilePath)
	if err != nil {
		return fmt.Errorf("read statement file: %w", err)
	}

	store, closeStore, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	if store == nil {
		a.Logger.Warn().Msg("database.dsn not configured; metrics will not be persisted")
	}
	if closeStore != nil {
		defer closeStore()
	}

	svc := a.newService(store, nil)

	record, err := svc.AnalyzeStatement(ctx, service.AnalyzeRequest{
		UserID:     opts.UserID,
		FileName:   filepath.Base(opts.FilePath),
		SourceFile: opts.FilePath,
		Type:       opts.Type,
		Content:    string(content),
	})
	if err != nil {
		return err
	}

	writer := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(writer, "Metric\tValue")
	fmt.Fprintf(writer, "Avg monthly income\t%s\n", record.AvgMonthlyIncome.StringFixed(2))
	fmt.Fprintf(writer, "Avg monthly expenditure\t%s\n", record.AvgMonthlyExpenditure.StringFixed(2))
	fmt.Fprintf(writer, "Disposable income\t%s\n", record.DisposableIncome.StringFixed(2))
	fmt.Fprintf(writer, "Avg lowest monthly balance\t%s\n", record.AvgLowestMonthlyBalance.StringFixed(2))
	fmt.Fprintf(writer, "Balance volatility\t%s\n", record.BalanceVolatility.StringFixed(2))
	fmt.Fprintf(writer, "Expenditure outliers\t%d\n", record.ExpenditureOutlierCount)
	return writer.Flush()
}
