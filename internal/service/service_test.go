package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"credscore/internal/config"
	"credscore/internal/kyc"
	"credscore/internal/notify"
	"credscore/internal/statement"
	"credscore/internal/storage"
)

const bankFixture = `Txn Date,Description,Debit,Credit,Balance
01/03/2024,SALARY MARCH,,"1,500.00","1,500.00"
05/03/2024,RENT,500.00,,"1,000.00"
02/04/2024,SALARY APRIL,,2000.00,3000.00
`

type fakeStore struct {
	profiles     map[string]storage.Profile
	records      map[string][]storage.StatementRecord
	limits       map[string]storage.CreditLimitRecord
	busy         bool
	sweepHeld    bool
	sweepLockKey int64
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		profiles: make(map[string]storage.Profile),
		records:  make(map[string][]storage.StatementRecord),
		limits:   make(map[string]storage.CreditLimitRecord),
	}
}

func (f *fakeStore) EnsureProfile(ctx context.Context, userID string) error {
	if _, ok := f.profiles[userID]; !ok {
		f.profiles[userID] = storage.Profile{UserID: userID}
	}
	return nil
}

func (f *fakeStore) GetProfile(ctx context.Context, userID string) (storage.Profile, error) {
	p, ok := f.profiles[userID]
	if !ok {
		return storage.Profile{}, storage.ErrProfileNotFound
	}
	return p, nil
}

func (f *fakeStore) UpsertKYCAnswers(ctx context.Context, userID string, answers map[string]string) error {
	p := f.profiles[userID]
	p.UserID = userID
	p.KYCAnswers = answers
	f.profiles[userID] = p
	return nil
}

func (f *fakeStore) UpdateCorrectionFactor(ctx context.Context, userID string, factor float64) error {
	p, ok := f.profiles[userID]
	if !ok {
		return storage.ErrProfileNotFound
	}
	p.CorrectionFactor = &factor
	f.profiles[userID] = p
	return nil
}

func (f *fakeStore) ListUserIDs(ctx context.Context) ([]string, error) {
	ids := make([]string, 0, len(f.profiles))
	for id := range f.profiles {
		ids = append(ids, id)
	}
	return ids, nil
}

func (f *fakeStore) UpsertStatementRecord(ctx context.Context, record storage.StatementRecord) error {
	existing := f.records[record.UserID]
	for i, r := range existing {
		if r.ID == record.ID {
			existing[i] = record
			return nil
		}
	}
	f.records[record.UserID] = append(existing, record)
	return nil
}

func (f *fakeStore) ListStatementRecords(ctx context.Context, userID string) ([]storage.StatementRecord, error) {
	return f.records[userID], nil
}

func (f *fakeStore) UpsertCreditLimit(ctx context.Context, record storage.CreditLimitRecord) error {
	f.limits[record.UserID] = record
	return nil
}

func (f *fakeStore) GetCreditLimit(ctx context.Context, userID string) (storage.CreditLimitRecord, error) {
	r, ok := f.limits[userID]
	if !ok {
		return storage.CreditLimitRecord{}, storage.ErrLimitNotFound
	}
	return r, nil
}

func (f *fakeStore) TryUserLock(ctx context.Context, userID string) (func(), bool, error) {
	if f.busy {
		return nil, false, nil
	}
	return func() {}, true, nil
}

func (f *fakeStore) TryAdvisoryLock(ctx context.Context, key int64) (func(), bool, error) {
	f.sweepLockKey = key
	if f.sweepHeld {
		return nil, false, nil
	}
	return func() {}, true, nil
}

type fakeNotifier struct {
	events []notify.ClampEvent
}

func (f *fakeNotifier) NotifyClamp(ctx context.Context, event notify.ClampEvent) error {
	f.events = append(f.events, event)
	return nil
}

func testService(store *fakeStore, notifier notify.Notifier) *Service {
	cfg := &config.Config{}
	cfg.Scoring = config.ScoringConfig{
		ConfidenceScore:    0.8,
		MinimumCreditLimit: 50,
		MaximumCreditLimit: 1000,
		ModelVersion:       "v1.0.0",
		AnalysisWindowDays: 180,
	}
	cfg.Scheduler.AdvisoryLockKey = 0x63726564
	return New(cfg, nil, store, store, notifier, zerolog.Nop())
}

func bestAnswers() map[string]string {
	return map[string]string{
		kyc.KeyResidenceDuration:  "More than 10 years",
		kyc.KeyBorrowingHistory:   "Yes, but I paid it off",
		kyc.KeyRepaymentAbility:   "Yes, without delays or challenges",
		kyc.KeyMonthlyIncomeRange: "Above 1800 GHS",
		kyc.KeyJobDuration:        "More than 10 years",
		kyc.KeyBorrowingSource:    "Banks",
	}
}

// cleanRecord yields statement metrics that fuzzify to the ideal inputs.
func cleanRecord(id string, disposable float64, at time.Time) storage.StatementRecord {
	rec := storage.StatementRecord{
		UserID:        "user-1",
		ID:            id,
		StatementType: string(statement.TypeBank),
		AnalysisDate:  at,
	}
	rec.AvgMonthlyIncome = decimal.NewFromInt(1000)
	rec.AvgMonthlyExpenditure = decimal.Zero
	rec.AvgLowestMonthlyBalance = decimal.NewFromInt(1000)
	rec.BalanceVolatility = decimal.Zero
	rec.DisposableIncome = decimal.NewFromFloat(disposable)
	return rec
}

func TestAnalyzeStatementPersists(t *testing.T) {
	store := newFakeStore()
	svc := testService(store, nil)

	record, err := svc.AnalyzeStatement(context.Background(), AnalyzeRequest{
		UserID:   "user-1",
		FileName: "march.csv",
		Type:     statement.TypeBank,
		Content:  bankFixture,
	})
	if err != nil {
		t.Fatalf("分析失败: %v", err)
	}

	if record.DisposableIncome.StringFixed(2) != "1250.00" {
		t.Fatalf("可支配收入不符: %s", record.DisposableIncome)
	}
	if _, ok := store.profiles["user-1"]; !ok {
		t.Fatal("分析成功后应自动建立用户档案")
	}
	if len(store.records["user-1"]) != 1 {
		t.Fatalf("应存储 1 条分析记录, 实际 %d", len(store.records["user-1"]))
	}
}

func TestAnalyzeStatementReplacesSameID(t *testing.T) {
	store := newFakeStore()
	svc := testService(store, nil)

	req := AnalyzeRequest{UserID: "user-1", FileName: "march.csv", Type: statement.TypeBank, Content: bankFixture}
	if _, err := svc.AnalyzeStatement(context.Background(), req); err != nil {
		t.Fatalf("首次分析失败: %v", err)
	}
	if _, err := svc.AnalyzeStatement(context.Background(), req); err != nil {
		t.Fatalf("重复分析失败: %v", err)
	}

	if len(store.records["user-1"]) != 1 {
		t.Fatalf("同一文件重复分析应原地替换, 实际 %d 条", len(store.records["user-1"]))
	}
}

func TestAnalyzeStatementUserBusy(t *testing.T) {
	store := newFakeStore()
	store.busy = true
	svc := testService(store, nil)

	_, err := svc.AnalyzeStatement(context.Background(), AnalyzeRequest{
		UserID:   "user-1",
		FileName: "march.csv",
		Type:     statement.TypeBank,
		Content:  bankFixture,
	})
	if !errors.Is(err, ErrUserBusy) {
		t.Fatalf("并发上传应返回 ErrUserBusy, 实际 %v", err)
	}
}

func TestAnalyzeBatchIsolatesFailures(t *testing.T) {
	store := newFakeStore()
	svc := testService(store, nil)

	errs := svc.AnalyzeBatch(context.Background(), []AnalyzeRequest{
		{UserID: "user-1", FileName: "a.csv", Type: statement.TypeBank, Content: bankFixture},
		{UserID: "user-1", FileName: "broken.csv", Type: statement.TypeBank, Content: "not,a,statement"},
		{UserID: "user-1", FileName: "b.csv", Type: statement.TypeBank, Content: bankFixture},
	})

	if len(errs) != 1 {
		t.Fatalf("只应有 1 条失败, 实际 %v", errs)
	}
	if len(store.records["user-1"]) != 2 {
		t.Fatalf("失败不应影响其余语句, 实际存储 %d 条", len(store.records["user-1"]))
	}
}

func TestCalculateLimitUsesLatestRecord(t *testing.T) {
	store := newFakeStore()
	store.profiles["user-1"] = storage.Profile{UserID: "user-1", KYCAnswers: bestAnswers()}
	store.records["user-1"] = []storage.StatementRecord{
		cleanRecord("old.csv", 2000, time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)),
		cleanRecord("new.csv", 700, time.Date(2024, time.April, 1, 0, 0, 0, 0, time.UTC)),
	}
	svc := testService(store, nil)

	record, err := svc.CalculateLimit(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("计算失败: %v", err)
	}

	// 700 * 0.8 * 0.87 = 487.2, 基于最新记录而非旧记录.
	if !record.CreditLimit.Equal(decimal.NewFromInt(487)) {
		t.Fatalf("额度应为 487, 实际 %s", record.CreditLimit)
	}
	if stored, ok := store.limits["user-1"]; !ok || !stored.CreditLimit.Equal(record.CreditLimit) {
		t.Fatalf("额度应已落库, 实际 %#v", stored)
	}
	if record.ModelVersion != "v1.0.0" {
		t.Fatalf("模型版本不符: %s", record.ModelVersion)
	}
}

func TestCalculateLimitCorrectionFactor(t *testing.T) {
	store := newFakeStore()
	factor := 0.4
	store.profiles["user-1"] = storage.Profile{UserID: "user-1", KYCAnswers: bestAnswers(), CorrectionFactor: &factor}
	store.records["user-1"] = []storage.StatementRecord{
		cleanRecord("new.csv", 700, time.Date(2024, time.April, 1, 0, 0, 0, 0, time.UTC)),
	}
	svc := testService(store, nil)

	record, err := svc.CalculateLimit(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("计算失败: %v", err)
	}

	// 校正因子 0.4 取代配置中的 0.8: 700 * 0.4 * 0.87 = 243.6.
	if !record.CreditLimit.Equal(decimal.NewFromInt(243)) {
		t.Fatalf("额度应为 243, 实际 %s", record.CreditLimit)
	}
}

func TestCalculateLimitNoStatements(t *testing.T) {
	store := newFakeStore()
	store.profiles["user-1"] = storage.Profile{UserID: "user-1"}
	svc := testService(store, nil)

	_, err := svc.CalculateLimit(context.Background(), "user-1")
	if !errors.Is(err, ErrNoStatements) {
		t.Fatalf("无分析记录应返回 ErrNoStatements, 实际 %v", err)
	}
	if _, ok := store.limits["user-1"]; ok {
		t.Fatal("失败时不应写入任何额度")
	}
}

func TestCalculateLimitClampNotifies(t *testing.T) {
	store := newFakeStore()
	notifier := &fakeNotifier{}
	store.profiles["user-1"] = storage.Profile{UserID: "user-1", KYCAnswers: bestAnswers()}
	store.records["user-1"] = []storage.StatementRecord{
		cleanRecord("new.csv", 2000, time.Date(2024, time.April, 1, 0, 0, 0, 0, time.UTC)),
	}
	svc := testService(store, notifier)

	record, err := svc.CalculateLimit(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("计算失败: %v", err)
	}

	if !record.CreditLimit.Equal(decimal.NewFromInt(1000)) {
		t.Fatalf("额度应钳制到 1000, 实际 %s", record.CreditLimit)
	}
	if len(notifier.events) != 1 {
		t.Fatalf("应派发 1 条钳制通知, 实际 %d", len(notifier.events))
	}
	if notifier.events[0].Bound != "maximum" {
		t.Fatalf("通知应标记上限钳制, 实际 %q", notifier.events[0].Bound)
	}
}

func TestScoreAllIsolatesFailures(t *testing.T) {
	store := newFakeStore()
	store.profiles["user-1"] = storage.Profile{UserID: "user-1", KYCAnswers: bestAnswers()}
	store.records["user-1"] = []storage.StatementRecord{
		cleanRecord("a.csv", 700, time.Date(2024, time.April, 1, 0, 0, 0, 0, time.UTC)),
	}
	// user-2 有档案但没有任何分析记录, 单独失败.
	store.profiles["user-2"] = storage.Profile{UserID: "user-2"}
	svc := testService(store, nil)

	if err := svc.ScoreAll(context.Background()); err != nil {
		t.Fatalf("批量评分不应整体失败: %v", err)
	}
	if _, ok := store.limits["user-1"]; !ok {
		t.Fatal("正常用户应得到额度")
	}
	if _, ok := store.limits["user-2"]; ok {
		t.Fatal("无记录用户不应得到额度")
	}
}

func TestSweepAcquiresConfiguredLock(t *testing.T) {
	store := newFakeStore()
	store.profiles["user-1"] = storage.Profile{UserID: "user-1", KYCAnswers: bestAnswers()}
	store.records["user-1"] = []storage.StatementRecord{
		cleanRecord("a.csv", 700, time.Date(2024, time.April, 1, 0, 0, 0, 0, time.UTC)),
	}
	svc := testService(store, nil)

	if err := svc.sweep(context.Background()); err != nil {
		t.Fatalf("巡检不应失败: %v", err)
	}
	if store.sweepLockKey != 0x63726564 {
		t.Fatalf("应使用配置的锁键, 实际 %#x", store.sweepLockKey)
	}
	if _, ok := store.limits["user-1"]; !ok {
		t.Fatal("获锁后巡检应完成评分")
	}
}

func TestSweepSkipsWhenLockHeldElsewhere(t *testing.T) {
	store := newFakeStore()
	store.sweepHeld = true
	store.profiles["user-1"] = storage.Profile{UserID: "user-1", KYCAnswers: bestAnswers()}
	store.records["user-1"] = []storage.StatementRecord{
		cleanRecord("a.csv", 700, time.Date(2024, time.April, 1, 0, 0, 0, 0, time.UTC)),
	}
	svc := testService(store, nil)

	if err := svc.sweep(context.Background()); err != nil {
		t.Fatalf("他处持锁时应静默跳过, 实际 %v", err)
	}
	if len(store.limits) != 0 {
		t.Fatalf("未获锁不应写入任何额度, 实际 %d 条", len(store.limits))
	}
}
