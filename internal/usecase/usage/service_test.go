package usage

import (
	"context"
	"testing"
	"time"

	domusage "github.com/kailas-cloud/docmind/internal/domain/usage"
)

// --- Mocks ---

type mockBudgetReader struct {
	dailyLimit       int64
	monthlyLimit     int64
	dailyUsed        int64
	monthlyUsed      int64
	remainingDaily   int64
	remainingMonthly int64
}

func (m *mockBudgetReader) DailyLimit() int64       { return m.dailyLimit }
func (m *mockBudgetReader) MonthlyLimit() int64     { return m.monthlyLimit }
func (m *mockBudgetReader) DailyUsed() int64        { return m.dailyUsed }
func (m *mockBudgetReader) MonthlyUsed() int64      { return m.monthlyUsed }
func (m *mockBudgetReader) RemainingDaily() int64   { return m.remainingDaily }
func (m *mockBudgetReader) RemainingMonthly() int64 { return m.remainingMonthly }

type mockCounter int64

func (m mockCounter) CompletionTokens() int64 { return int64(m) }

var fixedNow = time.Date(2026, 3, 14, 15, 9, 26, 0, time.UTC)

func newTestService(br BudgetReader, c CompletionCounter) *Service {
	s := New(br, c)
	s.now = func() time.Time { return fixedNow }
	return s
}

// --- Tests ---

func TestGetReport_DailyPeriod(t *testing.T) {
	br := &mockBudgetReader{
		dailyLimit: 10000, dailyUsed: 3000, remainingDaily: 7000,
		monthlyLimit: 100000, monthlyUsed: 50000, remainingMonthly: 50000,
	}
	r := newTestService(br, mockCounter(42)).GetReport(context.Background(), domusage.PeriodDay)

	if r.Period() != domusage.PeriodDay {
		t.Errorf("expected period %q, got %q", domusage.PeriodDay, r.Period())
	}
	dayStart := time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC)
	if r.PeriodStart() != dayStart.UnixMilli() || r.PeriodEnd() != dayStart.Add(24*time.Hour).UnixMilli() {
		t.Errorf("period = %d..%d", r.PeriodStart(), r.PeriodEnd())
	}
	if r.EmbeddingTokens() != 3000 || r.CompletionTokens() != 42 {
		t.Errorf("tokens = %d/%d", r.EmbeddingTokens(), r.CompletionTokens())
	}
	b := r.Budget()
	if b.TokensLimit != 10000 || b.TokensRemaining != 7000 || b.IsExhausted {
		t.Errorf("budget = %+v", b)
	}
	if b.ResetsAt != r.PeriodEnd() {
		t.Errorf("resets at %d, want %d", b.ResetsAt, r.PeriodEnd())
	}
}

func TestGetReport_MonthlyPeriod(t *testing.T) {
	br := &mockBudgetReader{monthlyLimit: 100000, monthlyUsed: 100000, remainingMonthly: 0}
	r := newTestService(br, nil).GetReport(context.Background(), domusage.PeriodMonth)

	monthStart := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	if r.PeriodStart() != monthStart.UnixMilli() {
		t.Errorf("start = %d", r.PeriodStart())
	}
	if r.PeriodEnd() != time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC).UnixMilli() {
		t.Errorf("end = %d", r.PeriodEnd())
	}
	if !r.Budget().IsExhausted {
		t.Error("budget should be exhausted")
	}
	if r.CompletionTokens() != 0 {
		t.Errorf("completion = %d", r.CompletionTokens())
	}
}

func TestGetReport_UnknownPeriodIsMonth(t *testing.T) {
	r := newTestService(&mockBudgetReader{}, nil).GetReport(context.Background(), domusage.Period("year"))
	if r.Period() != domusage.PeriodMonth {
		t.Errorf("period = %q", r.Period())
	}
}

func TestGetReport_Unlimited(t *testing.T) {
	r := newTestService(nil, mockCounter(7)).GetReport(context.Background(), domusage.PeriodDay)

	if r.Budget().TokensLimit != 0 || r.Budget().IsExhausted {
		t.Errorf("budget = %+v", r.Budget())
	}
	if r.CompletionTokens() != 7 {
		t.Errorf("completion = %d", r.CompletionTokens())
	}
}
