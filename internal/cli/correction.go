package cli

import (
	"errors"

	"github.com/spf13/cobra"
)

var (
	correctionUser  string
	correctionValue float64
)

var correctionFactorCmd = &cobra.Command{
	Use:   "correction-factor",
	Short: "Set a per-user confidence correction factor",
	Long:  "Overrides the configured confidence score for a single user. The value must be strictly between 0 and 1.",
	RunE: func(cmd *cobra.Command, args []string) error {
		if correctionUser == "" {
			return errors.New("--user is required")
		}
		if !cmd.Flags().Changed("value") {
			return errors.New("--value is required")
		}

		return getApp().SetCorrectionFactor(cmd.Context(), correctionUser, correctionValue)
	},
}

func init() {
	correctionFactorCmd.Flags().StringVar(&correctionUser, "user", "", "Applicant user ID")
	correctionFactorCmd.Flags().Float64Var(&correctionValue, "value", 0, "Correction factor in (0, 1)")
}
