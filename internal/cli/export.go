package cli

import (
	"errors"

	"github.com/spf13/cobra"

	"credscore/internal/app"
	"credscore/internal/statement"
)

var (
	exportFile      string
	exportType      string
	exportPNGPath   string
	exportCSVPath   string
	exportMaxPoints int
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export a statement's monthly series as CSV and/or PNG chart",
	RunE: func(cmd *cobra.Command, args []string) error {
		if exportFile == "" {
			return errors.New("--file is required")
		}

		statementType, err := statement.ParseType(exportType)
		if err != nil {
			return err
		}

		opts := app.ExportOptions{
			FilePath:  exportFile,
			Type:      statementType,
			PNGPath:   exportPNGPath,
			CSVPath:   exportCSVPath,
			MaxPoints: exportMaxPoints,
		}

		return getApp().Export(cmd.Context(), opts)
	},
}

func init() {
	exportCmd.Flags().StringVar(&exportFile, "file", "", "Path to the statement export")
	exportCmd.Flags().StringVar(&exportType, "type", "bank", "Statement type (bank or momo-mtn-statement)")
	exportCmd.Flags().StringVar(&exportPNGPath, "png", "", "Path to write PNG chart")
	exportCmd.Flags().StringVar(&exportCSVPath, "csv", "", "Path to write CSV data")
	exportCmd.Flags().IntVar(&exportMaxPoints, "max-points", 0, "Maximum months to export (defaults to config)")
}
