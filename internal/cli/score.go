package cli

import (
	"errors"

	"github.com/spf13/cobra"

	"credscore/internal/app"
)

var (
	scoreUser string
	scoreAll  bool
)

var scoreCmd = &cobra.Command{
	Use:   "score",
	Short: "Calculate and store the credit limit for a user",
	RunE: func(cmd *cobra.Command, args []string) error {
		if !scoreAll && scoreUser == "" {
			return errors.New("either --user or --all is required")
		}
		if scoreAll && scoreUser != "" {
			return errors.New("--user and --all are mutually exclusive")
		}

		opts := app.ScoreOptions{
			UserID: scoreUser,
			All:    scoreAll,
		}

		return getApp().Score(cmd.Context(), opts)
	},
}

func init() {
	scoreCmd.Flags().StringVar(&scoreUser, "user", "", "Applicant user ID")
	scoreCmd.Flags().BoolVar(&scoreAll, "all", false, "Rescore every profiled user")
}
