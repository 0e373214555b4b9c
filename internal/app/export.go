package app

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	chart "github.com/wcharczuk/go-chart/v2"

	"credscore/internal/statement"
)

// Export renders a statement's monthly income/expenditure/lowest-balance
// series as CSV and/or a PNG chart, without touching the database.
func (a *App) Export(ctx context.Context, opts ExportOptions) error {
	if opts.CSVPath == "" && opts.PNGPath == "" {
		return errors.New("at least one of --csv or --png must be provided")
	}

	content, err := os.ReadFile(opts.FilePath)
	if err != nil {
		return fmt.Errorf("read statement file: %w", err)
	}

	series, err := statement.AnalyzeSeries(string(content), opts.Type, a.Config.Scoring.AnalysisWindowDays)
	if err != nil {
		return err
	}
	if len(series.Months) == 0 {
		a.Logger.Info().Msg("no monthly data found for export")
		return nil
	}

	maxPoints := opts.MaxPoints
	if maxPoints <= 0 {
		maxPoints = a.Config.Export.MaxPoints
	}
	if len(series.Months) > maxPoints {
		series.Months = series.Months[len(series.Months)-maxPoints:]
	}

	a.Logger.Info().Int("months", len(series.Months)).Msg("exporting monthly series")

	if opts.CSVPath != "" {
		if err := writeSeriesCSV(opts.CSVPath, series); err != nil {
			return err
		}
	}

	if opts.PNGPath != "" {
		if err := writeSeriesPNG(opts.PNGPath, series); err != nil {
			return err
		}
	}

	return nil
}

func writeSeriesCSV(path string, series statement.MonthlySeries) error {
	if err := ensureDir(path); err != nil {
		return err
	}

	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	header := []string{"month", "income", "expenditure", "lowest_balance"}
	if err := writer.Write(header); err != nil {
		return err
	}

	for _, month := range series.Months {
		record := []string{
			month,
			strconv.FormatFloat(series.Income[month], 'f', 2, 64),
			strconv.FormatFloat(series.Expenditure[month], 'f', 2, 64),
			strconv.FormatFloat(series.LowestBalance[month], 'f', 2, 64),
		}
		if err := writer.Write(record); err != nil {
			return err
		}
	}

	return writer.Error()
}

func writeSeriesPNG(path string, series statement.MonthlySeries) error {
	if err := ensureDir(path); err != nil {
		return err
	}

	x := make([]float64, len(series.Months))
	ticks := make([]chart.Tick, len(series.Months))
	income := make([]float64, len(series.Months))
	expenditure := make([]float64, len(series.Months))
	lowest := make([]float64, len(series.Months))

	for i, month := range series.Months {
		x[i] = float64(i)
		ticks[i] = chart.Tick{Value: float64(i), Label: month}
		income[i] = series.Income[month]
		expenditure[i] = series.Expenditure[month]
		lowest[i] = series.LowestBalance[month]
	}

	amountFormatter := func(v interface{}) string {
		return chart.FloatValueFormatterWithFormat(v, "%.0f")
	}
	graph := chart.Chart{
		Width:  1280,
		Height: 720,
		XAxis: chart.XAxis{
			Ticks: ticks,
		},
		YAxis: chart.YAxis{
			Name:           "Amount",
			ValueFormatter: amountFormatter,
		},
		Series: []chart.Series{
			chart.ContinuousSeries{
				Name:    "Income",
				XValues: x,
				YValues: income,
			},
			chart.ContinuousSeries{
				Name:    "Expenditure",
				XValues: x,
				YValues: expenditure,
			},
			chart.ContinuousSeries{
				Name:    "Lowest balance",
				XValues: x,
				YValues: lowest,
			},
		},
	}
	graph.Elements = []chart.Renderable{chart.Legend(&graph)}

	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	return graph.Render(chart.PNG, file)
}

func ensureDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "." || dir == "" {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}
