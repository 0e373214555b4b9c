package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	kycUser string
	kycFile string
)

var kycSetCmd = &cobra.Command{
	Use:   "kyc-set",
	Short: "Store a user's KYC questionnaire answers",
	RunE: func(cmd *cobra.Command, args []string) error {
		if kycUser == "" {
			return errors.New("--user is required")
		}
		if kycFile == "" {
			return errors.New("--answers is required")
		}

		raw, err := os.ReadFile(kycFile)
		if err != nil {
			return fmt.Errorf("read answers file: %w", err)
		}

		var answers map[string]string
		if err := json.Unmarshal(raw, &answers); err != nil {
			return fmt.Errorf("decode answers file: %w", err)
		}
		if len(answers) == 0 {
			return errors.New("answers file contains no answers")
		}

		return getApp().SetKYCAnswers(cmd.Context(), kycUser, answers)
	},
}

func init() {
	kycSetCmd.Flags().StringVar(&kycUser, "user", "", "Applicant user ID")
	kycSetCmd.Flags().StringVar(&kycFile, "answers", "", "Path to a JSON file of answers")
}
