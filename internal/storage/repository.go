package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"hash/fnv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

var (
	// ErrNotConfigured indicates the storage pool was not initialised.
	ErrNotConfigured = errors.New("storage: pool not configured")
	// ErrProfileNotFound indicates no profile exists for the requested user.
	ErrProfileNotFound = errors.New("storage: profile not found")
	// ErrLimitNotFound indicates no credit limit has been calculated yet.
	ErrLimitNotFound = errors.New("storage: credit limit not found")
)

const (
	upsertStatementRecordSQL = `INSERT INTO statement_records (
        user_id,
        id,
        source_file,
        statement_type,
        analysis_date,
        avg_monthly_income,
        avg_monthly_expenditure,
        disposable_income,
        avg_lowest_monthly_balance,
        balance_volatility,
        expenditure_outlier_count
    ) VALUES (
        $1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11
    )
    ON CONFLICT (user_id, id) DO UPDATE
    SET
        source_file                = EXCLUDED.source_file,
        statement_type             = EXCLUDED.statement_type,
        analysis_date              = EXCLUDED.analysis_date,
        avg_monthly_income         = EXCLUDED.avg_monthly_income,
        avg_monthly_expenditure    = EXCLUDED.avg_monthly_expenditure,
        disposable_income          = EXCLUDED.disposable_income,
        avg_lowest_monthly_balance = EXCLUDED.avg_lowest_monthly_balance,
        balance_volatility         = EXCLUDED.balance_volatility,
        expenditure_outlier_count  = EXCLUDED.expenditure_outlier_count;`

	listStatementRecordsSQL = `SELECT
        user_id,
        id,
        source_file,
        statement_type,
        analysis_date,
        avg_monthly_income,
        avg_monthly_expenditure,
        disposable_income,
        avg_lowest_monthly_balance,
        balance_volatility,
        expenditure_outlier_count,
        created_at
    FROM statement_records
    WHERE user_id = $1
    ORDER BY analysis_date;`

	ensureProfileSQL = `INSERT INTO credit_profiles (user_id)
    VALUES ($1)
    ON CONFLICT (user_id) DO NOTHING;`

	getProfileSQL = `SELECT
        user_id,
        kyc_answers,
        correction_factor,
        created_at,
        updated_at
    FROM credit_profiles
    WHERE user_id = $1;`

	upsertKYCAnswersSQL = `INSERT INTO credit_profiles (user_id, kyc_answers, updated_at)
    VALUES ($1, $2, now())
    ON CONFLICT (user_id) DO UPDATE
    SET kyc_answers = EXCLUDED.kyc_answers,
        updated_at  = now();`

	updateCorrectionFactorSQL = `UPDATE credit_profiles
    SET correction_factor = $2, updated_at = now()
    WHERE user_id = $1;`

	listUserIDsSQL = `SELECT user_id FROM credit_profiles ORDER BY user_id;`

	upsertCreditLimitSQL = `INSERT INTO credit_limits (
        user_id,
        credit_limit,
        score_last_calculated_at,
        model_version
    ) VALUES (
        $1,$2,$3,$4
    )
    ON CONFLICT (user_id) DO UPDATE
    SET credit_limit             = EXCLUDED.credit_limit,
        score_last_calculated_at = EXCLUDED.score_last_calculated_at,
        model_version            = EXCLUDED.model_version;`

	getCreditLimitSQL = `SELECT
        user_id,
        credit_limit,
        score_last_calculated_at,
        model_version
    FROM credit_limits
    WHERE user_id = $1;`

	tryAdvisoryLockSQL = `SELECT pg_try_advisory_lock($1);`
	advisoryUnlockSQL  = `SELECT pg_advisory_unlock($1);`
)

// ProfileStore defines operations on applicant profiles and their statement
// records.
type ProfileStore interface {
	EnsureProfile(ctx context.Context, userID string) error
	GetProfile(ctx context.Context, userID string) (Profile, error)
	UpsertKYCAnswers(ctx context.Context, userID string, answers map[string]string) error
	UpdateCorrectionFactor(ctx context.Context, userID string, factor float64) error
	ListUserIDs(ctx context.Context) ([]string, error)
	UpsertStatementRecord(ctx context.Context, record StatementRecord) error
	ListStatementRecords(ctx context.Context, userID string) ([]StatementRecord, error)
}

// LimitStore defines operations for credit limit persistence.
type LimitStore interface {
	UpsertCreditLimit(ctx context.Context, record CreditLimitRecord) error
	GetCreditLimit(ctx context.Context, userID string) (CreditLimitRecord, error)
}

// UserLocker serialises one user's read-modify-write cycles across processes.
type UserLocker interface {
	TryUserLock(ctx context.Context, userID string) (unlock func(), acquired bool, err error)
}

// SweepLocker guards whole-fleet jobs with a process-level advisory lock, so
// that only one daemon instance runs a rescoring sweep at a time.
type SweepLocker interface {
	TryAdvisoryLock(ctx context.Context, key int64) (unlock func(), acquired bool, err error)
}

// Store aggregates access to profiles, statement records, and credit limits.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore wires a pgx pool into a Store.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// Close releases the underlying pool resources.
func (s *Store) Close() {
	if s == nil || s.pool == nil {
		return
	}
	s.pool.Close()
}

func (s *Store) getPool() (*pgxpool.Pool, error) {
	if s == nil || s.pool == nil {
		return nil, ErrNotConfigured
	}
	return s.pool, nil
}

// TryUserLock attempts a postgres advisory lock keyed by the user ID, so that
// concurrent statement uploads for one user serialise their record upserts.
func (s *Store) TryUserLock(ctx context.Context, userID string) (func(), bool, error) {
	return s.TryAdvisoryLock(ctx, userLockKey(userID))
}

// TryAdvisoryLock attempts a session-level advisory lock on an arbitrary key.
// The lock is held by one pooled connection until unlock runs or the session
// dies.
func (s *Store) TryAdvisoryLock(ctx context.Context, key int64) (func(), bool, error) {
	pool, err := s.getPool()
	if err != nil {
		return nil, false, err
	}

	conn, err := pool.Acquire(ctx)
	if err != nil {
		return nil, false, fmt.Errorf("acquire connection: %w", err)
	}

	var acquired bool
	if err := conn.QueryRow(ctx, tryAdvisoryLockSQL, key).Scan(&acquired); err != nil {
		conn.Release()
		return nil, false, fmt.Errorf("try advisory lock: %w", err)
	}
	if !acquired {
		conn.Release()
		return nil, false, nil
	}

	unlock := func() {
		ctxUnlock, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		// Best effort: the lock dies with the session either way.
		_, _ = conn.Exec(ctxUnlock, advisoryUnlockSQL, key)
		conn.Release()
	}
	return unlock, true, nil
}

func userLockKey(userID string) int64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(userID))
	return int64(h.Sum64())
}

// EnsureProfile creates an empty profile row if none exists.
func (s *Store) EnsureProfile(ctx context.Context, userID string) error {
	pool, err := s.getPool()
	if err != nil {
		return err
	}
	if _, execErr := pool.Exec(ctx, ensureProfileSQL, userID); execErr != nil {
		return fmt.Errorf("ensure profile: %w", execErr)
	}
	return nil
}

// GetProfile loads a user's profile.
func (s *Store) GetProfile(ctx context.Context, userID string) (Profile, error) {
	pool, err := s.getPool()
	if err != nil {
		return Profile{}, err
	}

	var (
		profile    Profile
		answersRaw []byte
		factor     sql.NullFloat64
	)
	row := pool.QueryRow(ctx, getProfileSQL, userID)
	if scanErr := row.Scan(
		&profile.UserID,
		&answersRaw,
		&factor,
		&profile.CreatedAt,
		&profile.UpdatedAt,
	); scanErr != nil {
		if errors.Is(scanErr, pgx.ErrNoRows) {
			return Profile{}, ErrProfileNotFound
		}
		return Profile{}, fmt.Errorf("get profile: %w", scanErr)
	}

	if len(answersRaw) > 0 {
		if err := json.Unmarshal(answersRaw, &profile.KYCAnswers); err != nil {
			return Profile{}, fmt.Errorf("decode kyc answers: %w", err)
		}
	}
	if factor.Valid {
		value := factor.Float64
		profile.CorrectionFactor = &value
	}
	return profile, nil
}

// UpsertKYCAnswers stores or replaces a user's questionnaire answers.
func (s *Store) UpsertKYCAnswers(ctx context.Context, userID string, answers map[string]string) error {
	pool, err := s.getPool()
	if err != nil {
		return err
	}

	encoded, err := json.Marshal(answers)
	if err != nil {
		return fmt.Errorf("encode kyc answers: %w", err)
	}
	if _, execErr := pool.Exec(ctx, upsertKYCAnswersSQL, userID, encoded); execErr != nil {
		return fmt.Errorf("upsert kyc answers: %w", execErr)
	}
	return nil
}

// UpdateCorrectionFactor sets a user's confidence override.
func (s *Store) UpdateCorrectionFactor(ctx context.Context, userID string, factor float64) error {
	pool, err := s.getPool()
	if err != nil {
		return err
	}
	cmdTag, execErr := pool.Exec(ctx, updateCorrectionFactorSQL, userID, factor)
	if execErr != nil {
		return fmt.Errorf("update correction factor: %w", execErr)
	}
	if cmdTag.RowsAffected() == 0 {
		return ErrProfileNotFound
	}
	return nil
}

// ListUserIDs returns every profiled user, for batch rescoring sweeps.
func (s *Store) ListUserIDs(ctx context.Context) ([]string, error) {
	pool, err := s.getPool()
	if err != nil {
		return nil, err
	}

	rows, queryErr := pool.Query(ctx, listUserIDsSQL)
	if queryErr != nil {
		return nil, fmt.Errorf("list user ids: %w", queryErr)
	}
	defer rows.Close()

	ids := make([]string, 0)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return ids, nil
}

// UpsertStatementRecord persists a statement analysis, replacing any prior
// record with the same (user, id) pair.
func (s *Store) UpsertStatementRecord(ctx context.Context, record StatementRecord) error {
	pool, err := s.getPool()
	if err != nil {
		return err
	}

	_, execErr := pool.Exec(ctx, upsertStatementRecordSQL,
		record.UserID,
		record.ID,
		record.SourceFile,
		record.StatementType,
		record.AnalysisDate,
		record.AvgMonthlyIncome.String(),
		record.AvgMonthlyExpenditure.String(),
		record.DisposableIncome.String(),
		record.AvgLowestMonthlyBalance.String(),
		record.BalanceVolatility.String(),
		record.ExpenditureOutlierCount,
	)
	if execErr != nil {
		return fmt.Errorf("upsert statement record: %w", execErr)
	}
	return nil
}

// ListStatementRecords lists a user's statement analyses ordered by analysis date.
func (s *Store) ListStatementRecords(ctx context.Context, userID string) ([]StatementRecord, error) {
	pool, err := s.getPool()
	if err != nil {
		return nil, err
	}

	rows, queryErr := pool.Query(ctx, listStatementRecordsSQL, userID)
	if queryErr != nil {
		return nil, fmt.Errorf("list statement records: %w", queryErr)
	}
	defer rows.Close()

	records := make([]StatementRecord, 0)
	for rows.Next() {
		record, scanErr := scanStatementRecord(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		records = append(records, record)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return records, nil
}

// UpsertCreditLimit writes the authoritative limit for a user.
func (s *Store) UpsertCreditLimit(ctx context.Context, record CreditLimitRecord) error {
	pool, err := s.getPool()
	if err != nil {
		return err
	}

	_, execErr := pool.Exec(ctx, upsertCreditLimitSQL,
		record.UserID,
		record.CreditLimit.String(),
		record.ScoreLastCalculatedAt,
		record.ModelVersion,
	)
	if execErr != nil {
		return fmt.Errorf("upsert credit limit: %w", execErr)
	}
	return nil
}

// GetCreditLimit loads the current limit for a user.
func (s *Store) GetCreditLimit(ctx context.Context, userID string) (CreditLimitRecord, error) {
	pool, err := s.getPool()
	if err != nil {
		return CreditLimitRecord{}, err
	}

	var (
		record   CreditLimitRecord
		limitStr string
	)
	row := pool.QueryRow(ctx, getCreditLimitSQL, userID)
	if scanErr := row.Scan(
		&record.UserID,
		&limitStr,
		&record.ScoreLastCalculatedAt,
		&record.ModelVersion,
	); scanErr != nil {
		if errors.Is(scanErr, pgx.ErrNoRows) {
			return CreditLimitRecord{}, ErrLimitNotFound
		}
		return CreditLimitRecord{}, fmt.Errorf("get credit limit: %w", scanErr)
	}

	var convErr error
	record.CreditLimit, convErr = decimal.NewFromString(limitStr)
	if convErr != nil {
		return CreditLimitRecord{}, fmt.Errorf("parse credit limit: %w", convErr)
	}
	return record, nil
}

func scanStatementRecord(rows pgx.Rows) (StatementRecord, error) {
	var (
		record         StatementRecord
		incomeStr      string
		expenditureStr string
		disposableStr  string
		lowestStr      string
		volatilityStr  string
	)

	if err := rows.Scan(
		&record.UserID,
		&record.ID,
		&record.SourceFile,
		&record.StatementType,
		&record.AnalysisDate,
		&incomeStr,
		&expenditureStr,
		&disposableStr,
		&lowestStr,
		&volatilityStr,
		&record.ExpenditureOutlierCount,
		&record.CreatedAt,
	); err != nil {
		return StatementRecord{}, err
	}

	for _, conv := range []struct {
		dst *decimal.Decimal
		src string
		tag string
	}{
		{&record.AvgMonthlyIncome, incomeStr, "avg monthly income"},
		{&record.AvgMonthlyExpenditure, expenditureStr, "avg monthly expenditure"},
		{&record.DisposableIncome, disposableStr, "disposable income"},
		{&record.AvgLowestMonthlyBalance, lowestStr, "avg lowest monthly balance"},
		{&record.BalanceVolatility, volatilityStr, "balance volatility"},
	} {
		parsed, err := decimal.NewFromString(conv.src)
		if err != nil {
			return StatementRecord{}, fmt.Errorf("parse %s: %w", conv.tag, err)
		}
		*conv.dst = parsed
	}

	return record, nil
}
