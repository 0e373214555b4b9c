package cli

import (
	"errors"

	"github.com/spf13/cobra"

	"credscore/internal/app"
	"credscore/internal/statement"
)

var (
	simulateStatement  string
	simulateType       string
	simulateKYC        string
	simulateConfidence float64
)

var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "离线运行完整评分流程，不写入数据库",
	RunE: func(cmd *cobra.Command, args []string) error {
		if simulateStatement == "" {
			return errors.New("--statement is required")
		}

		statementType, err := statement.ParseType(simulateType)
		if err != nil {
			return err
		}

		opts := app.SimulateOptions{
			StatementPath: simulateStatement,
			Type:          statementType,
			KYCPath:       simulateKYC,
			Confidence:    simulateConfidence,
		}

		return getApp().Simulate(cmd.Context(), opts)
	},
}

func init() {
	simulateCmd.Flags().StringVar(&simulateStatement, "statement", "", "Path to the statement export")
	simulateCmd.Flags().StringVar(&simulateType, "type", "bank", "Statement type (bank or momo-mtn-statement)")
	simulateCmd.Flags().StringVar(&simulateKYC, "kyc", "", "Path to a JSON file of KYC answers (optional)")
	simulateCmd.Flags().Float64Var(&simulateConfidence, "confidence", 0, "Override the configured confidence score")
}
