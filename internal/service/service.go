package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"credscore/internal/config"
	"credscore/internal/fuzzy"
	"credscore/internal/kyc"
	"credscore/internal/limit"
	"credscore/internal/notify"
	"credscore/internal/scheduler"
	"credscore/internal/statement"
	"credscore/internal/storage"
)

var (
	// ErrNoStatements indicates a limit calculation was requested for a
	// profile with no statement analysis; no partial limit is written.
	ErrNoStatements = errors.New("service: no statement analysis found in profile")
	// ErrUserBusy indicates another statement upload for the same user holds
	// the per-user lock.
	ErrUserBusy = errors.New("service: concurrent upload in progress for user")
)

// Service orchestrates statement analysis, limit calculation, and persistence.
type Service struct {
	scheduler  *scheduler.Scheduler
	profiles   storage.ProfileStore
	limits     storage.LimitStore
	notifier   notify.Notifier
	calculator *limit.Calculator
	logger     zerolog.Logger

	windowDays   int
	confidence   float64
	locker       storage.UserLocker
	sweepLocker  storage.SweepLocker
	sweepLockKey int64
}

// New constructs the scoring service. The fuzzy risk engine is built once and
// shared; it holds no per-evaluation state.
func New(cfg *config.Config, sched *scheduler.Scheduler, profiles storage.ProfileStore, limits storage.LimitStore, notifier notify.Notifier, logger zerolog.Logger) *Service {
	calculator := limit.NewCalculator(limit.Config{
		ConfidenceScore: cfg.Scoring.ConfidenceScore,
		MinimumLimit:    cfg.Scoring.MinimumCreditLimit,
		MaximumLimit:    cfg.Scoring.MaximumCreditLimit,
		ModelVersion:    cfg.Scoring.ModelVersion,
	}, fuzzy.NewRiskEngine())

	var locker storage.UserLocker
	if l, ok := profiles.(storage.UserLocker); ok {
		locker = l
	}
	var sweepLocker storage.SweepLocker
	if l, ok := profiles.(storage.SweepLocker); ok {
		sweepLocker = l
	}

	return &Service{
		scheduler:    sched,
		profiles:     profiles,
		limits:       limits,
		notifier:     notifier,
		calculator:   calculator,
		logger:       logger.With().Str("component", "service").Logger(),
		windowDays:   cfg.Scoring.AnalysisWindowDays,
		confidence:   cfg.Scoring.ConfidenceScore,
		locker:       locker,
		sweepLocker:  sweepLocker,
		sweepLockKey: cfg.Scheduler.AdvisoryLockKey,
	}
}

// AnalyzeRequest identifies one statement upload to analyze.
type AnalyzeRequest struct {
	UserID     string
	FileName   string
	SourceFile string
	Type       statement.Type
	Content    string
}

// AnalyzeStatement runs the analysis pipeline for one statement and upserts
// the resulting record, replacing any earlier analysis of the same file.
func (s *Service) AnalyzeStatement(ctx context.Context, req AnalyzeRequest) (storage.StatementRecord, error) {
	s.logger.Info().Str("user_id", req.UserID).
		Str("statement_type", string(req.Type)).
		Str("file", req.FileName).
		Msg("running statement analysis")

	metrics, err := statement.Analyze(req.Content, req.Type, s.windowDays)
	if err != nil {
		return storage.StatementRecord{}, fmt.Errorf("analyze statement %q: %w", req.FileName, err)
	}

	record := storage.StatementRecord{
		UserID:        req.UserID,
		ID:            req.FileName,
		SourceFile:    req.SourceFile,
		StatementType: string(req.Type),
		AnalysisDate:  time.Now().UTC(),
		Metrics:       metrics,
	}

	if s.profiles == nil {
		return record, nil
	}

	unlock, proceed, err := s.acquireUserLock(ctx, req.UserID)
	if err != nil {
		return storage.StatementRecord{}, err
	}
	if !proceed {
		return storage.StatementRecord{}, fmt.Errorf("%w: %s", ErrUserBusy, req.UserID)
	}
	if unlock != nil {
		defer unlock()
	}

	if err := s.profiles.EnsureProfile(ctx, req.UserID); err != nil {
		return storage.StatementRecord{}, err
	}
	if err := s.profiles.UpsertStatementRecord(ctx, record); err != nil {
		return storage.StatementRecord{}, err
	}

	s.logger.Info().Str("user_id", req.UserID).
		Str("statement_id", record.ID).
		Str("disposable_income", record.DisposableIncome.String()).
		Int("expenditure_outliers", record.ExpenditureOutlierCount).
		Msg("statement analysis stored")

	return record, nil
}

// AnalyzeBatch analyzes several statements, isolating failures: one bad
// statement never aborts its siblings.
func (s *Service) AnalyzeBatch(ctx context.Context, reqs []AnalyzeRequest) []error {
	errs := make([]error, 0)
	for _, req := range reqs {
		if _, err := s.AnalyzeStatement(ctx, req); err != nil {
			s.logger.Error().Err(err).Str("user_id", req.UserID).Str("file", req.FileName).Msg("statement analysis failed")
			errs = append(errs, err)
		}
	}
	return errs
}

// CalculateLimit computes and persists the credit limit for one user from the
// most recent statement analysis and the stored KYC answers.
func (s *Service) CalculateLimit(ctx context.Context, userID string) (storage.CreditLimitRecord, error) {
	profile, err := s.profiles.GetProfile(ctx, userID)
	if err != nil {
		return storage.CreditLimitRecord{}, err
	}

	records, err := s.profiles.ListStatementRecords(ctx, userID)
	if err != nil {
		return storage.CreditLimitRecord{}, err
	}
	if len(records) == 0 {
		return storage.CreditLimitRecord{}, fmt.Errorf("%w: %s", ErrNoStatements, userID)
	}

	latest := records[0]
	for _, record := range records[1:] {
		if record.AnalysisDate.After(latest.AnalysisDate) {
			latest = record
		}
	}

	scores := kyc.Score(profile.KYCAnswers)
	inputs := limit.MetricInputs{
		AvgMonthlyIncome:        latest.AvgMonthlyIncome.InexactFloat64(),
		AvgMonthlyExpenditure:   latest.AvgMonthlyExpenditure.InexactFloat64(),
		AvgLowestMonthlyBalance: latest.AvgLowestMonthlyBalance.InexactFloat64(),
		BalanceVolatility:       latest.BalanceVolatility.InexactFloat64(),
		DisposableIncome:        latest.DisposableIncome.InexactFloat64(),
	}

	confidence := s.confidence
	if profile.CorrectionFactor != nil {
		confidence = *profile.CorrectionFactor
	}

	result, err := s.calculator.CalculateWith(inputs, scores, confidence)
	if err != nil {
		return storage.CreditLimitRecord{}, fmt.Errorf("calculate limit for %s: %w", userID, err)
	}

	record := storage.CreditLimitRecord{
		UserID:                userID,
		CreditLimit:           result.CreditLimit,
		ScoreLastCalculatedAt: time.Now().UTC(),
		ModelVersion:          result.ModelVersion,
	}

	if s.limits != nil {
		if err := s.limits.UpsertCreditLimit(ctx, record); err != nil {
			return storage.CreditLimitRecord{}, err
		}
	}

	s.logger.Info().Str("user_id", userID).
		Str("credit_limit", record.CreditLimit.String()).
		Float64("risk_score", result.RiskScore).
		Float64("user_risk_score", result.UserRiskScore).
		Str("model_version", record.ModelVersion).
		Msg("credit limit calculated")

	if s.notifier != nil && result.ClampedTo != limit.ClampNone {
		event := notify.ClampEvent{
			UserID:       userID,
			InitialLimit: result.InitialLimit,
			CreditLimit:  result.CreditLimit,
			Bound:        string(result.ClampedTo),
			ModelVersion: record.ModelVersion,
			CalculatedAt: record.ScoreLastCalculatedAt,
		}
		if err := s.notifier.NotifyClamp(ctx, event); err != nil {
			s.logger.Error().Err(err).Str("user_id", userID).Msg("failed to dispatch clamp notification")
		}
	}

	return record, nil
}

// ScoreAll recalculates limits for every profiled user. One user's failure is
// reported and skipped, never propagated to the rest of the sweep.
func (s *Service) ScoreAll(ctx context.Context) error {
	userIDs, err := s.profiles.ListUserIDs(ctx)
	if err != nil {
		return fmt.Errorf("list users: %w", err)
	}

	processed := 0
	failed := 0
	for _, userID := range userIDs {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if _, err := s.CalculateLimit(ctx, userID); err != nil {
			failed++
			s.logger.Error().Err(err).Str("user_id", userID).Msg("limit calculation failed")
			continue
		}
		processed++
	}

	s.logger.Info().Int("processed", processed).Int("failed", failed).Msg("rescoring sweep finished")
	return nil
}

// sweep runs one guarded rescoring pass. The configured advisory lock keeps
// the fleet to a single concurrent sweep; a held lock means another daemon is
// already on it, so this instance skips the round.
func (s *Service) sweep(ctx context.Context) error {
	if s.sweepLocker != nil {
		unlock, acquired, err := s.sweepLocker.TryAdvisoryLock(ctx, s.sweepLockKey)
		if err != nil {
			return fmt.Errorf("acquire sweep lock: %w", err)
		}
		if !acquired {
			s.logger.Info().Msg("rescoring sweep already running elsewhere; skipping")
			return nil
		}
		defer unlock()
	}
	return s.ScoreAll(ctx)
}

// Run begins the periodic rescoring loop.
func (s *Service) Run(ctx context.Context) error {
	if s.scheduler == nil {
		return fmt.Errorf("scheduler not configured")
	}
	return s.scheduler.Run(ctx, s.sweep)
}

func (s *Service) acquireUserLock(ctx context.Context, userID string) (func(), bool, error) {
	if s.locker == nil {
		return nil, true, nil
	}
	unlock, acquired, err := s.locker.TryUserLock(ctx, userID)
	if err != nil {
		return nil, false, fmt.Errorf("acquire user lock: %w", err)
	}
	if !acquired {
		return nil, false, nil
	}
	return unlock, true, nil
}
