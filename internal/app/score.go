package app

import (
	"context"
	"errors"
	"fmt"
	"os"
)

// Score calculates and persists the credit limit for one user, or sweeps all
// profiled users when opts.All is set.
func (a *App) Score(ctx context.Context, opts ScoreOptions) error {
	store, closeStore, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	if store == nil {
		return errors.New("database not configured; cannot score stored profiles")
	}
	if closeStore != nil {
		defer closeStore()
	}

	svc := a.newService(store, nil)

	if opts.All {
		return svc.ScoreAll(ctx)
	}

	record, err := svc.CalculateLimit(ctx, opts.UserID)
	if err != nil {
		return err
	}

	fmt.Fprintf(os.Stdout, "user: %s\ncredit limit: %s\nmodel version: %s\ncalculated at: %s\n",
		record.UserID,
		record.CreditLimit.StringFixed(0),
		record.ModelVersion,
		record.ScoreLastCalculatedAt.Format("2006-01-02 15:04:05"),
	)
	return nil
}

// SetKYCAnswers stores a user's questionnaire answers.
func (a *App) SetKYCAnswers(ctx context.Context, userID string, answers map[string]string) error {
	store, closeStore, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	if store == nil {
		return errors.New("database not configured; cannot store KYC answers")
	}
	if closeStore != nil {
		defer closeStore()
	}

	if err := store.EnsureProfile(ctx, userID); err != nil {
		return err
	}
	if err := store.UpsertKYCAnswers(ctx, userID, answers); err != nil {
		return err
	}

	a.Logger.Info().Str("user_id", userID).Int("answers", len(answers)).Msg("kyc answers stored")
	return nil
}

// SetCorrectionFactor updates a user's confidence override. The factor must
// lie strictly between 0 and 1.
func (a *App) SetCorrectionFactor(ctx context.Context, userID string, factor float64) error {
	if factor <= 0 || factor >= 1 {
		return errors.New("correction factor must be between 0 and 1 (exclusive)")
	}

	store, closeStore, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	if store == nil {
		return errors.New("database not configured; cannot update correction factor")
	}
	if closeStore != nil {
		defer closeStore()
	}

	if err := store.UpdateCorrectionFactor(ctx, userID, factor); err != nil {
		return err
	}

	a.Logger.Info().Str("user_id", userID).Float64("correction_factor", factor).Msg("correction factor updated")
	return nil
}
