package cli

import (
	"errors"

	"github.com/spf13/cobra"

	"credscore/internal/app"
)

var (
	showUser string
)

var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Display a user's statement records and current credit limit",
	RunE: func(cmd *cobra.Command, args []string) error {
		if showUser == "" {
			return errors.New("--user is required")
		}

		opts := app.ShowOptions{
			UserID: showUser,
		}

		return getApp().Show(cmd.Context(), opts)
	},
}

func init() {
	showCmd.Flags().StringVar(&showUser, "user", "", "Applicant user ID")
}
