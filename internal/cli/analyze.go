package cli

import (
	"errors"

	"github.com/spf13/cobra"

	"credscore/internal/app"
	"credscore/internal/statement"
)

var (
	analyzeUser string
	analyzeFile string
	analyzeType string
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Analyze a statement export and store the derived metrics",
	RunE: func(cmd *cobra.Command, args []string) error {
		if analyzeUser == "" {
			return errors.New("--user is required")
		}
		if analyzeFile == "" {
			return errors.New("--file is required")
		}

		statementType, err := statement.ParseType(analyzeType)
		if err != nil {
			return err
		}

		opts := app.AnalyzeOptions{
			UserID:   analyzeUser,
			FilePath: analyzeFile,
			Type:     statementType,
		}

		return getApp().Analyze(cmd.Context(), opts)
	},
}

func init() {
	analyzeCmd.Flags().StringVar(&analyzeUser, "user", "", "Applicant user ID")
	analyzeCmd.Flags().StringVar(&analyzeFile, "file", "", "Path to the decoded statement export")
	analyzeCmd.Flags().StringVar(&analyzeType, "type", "bank", "Statement type (bank or momo-mtn-statement)")
}
