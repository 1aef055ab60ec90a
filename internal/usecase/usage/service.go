// Package usage reports embedding budget state and token consumption.
package usage

import (
	"context"
	"time"

	domusage "github.com/kailas-cloud/docmind/internal/domain/usage"
)

// Service handles usage reporting.
type Service struct {
	br         BudgetReader
	completion CompletionCounter
	now        func() time.Time
}

// New creates a Service. br can be nil (unlimited mode), as can completion.
func New(br BudgetReader, completion CompletionCounter) *Service {
	return &Service{br: br, completion: completion, now: time.Now}
}

// GetReport builds a usage report for the given period. Unknown periods
// report the month.
func (s *Service) GetReport(_ context.Context, period domusage.Period) domusage.Report {
	now := s.now().UTC()
	var start, end time.Time
	var limit, used, remaining int64

	if period == domusage.PeriodDay {
		start = time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
		end = start.Add(24 * time.Hour)
		if s.br != nil {
			limit, used, remaining = s.br.DailyLimit(), s.br.DailyUsed(), s.br.RemainingDaily()
		}
	} else {
		period = domusage.PeriodMonth
		start = time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
		end = start.AddDate(0, 1, 0)
		if s.br != nil {
			limit, used, remaining = s.br.MonthlyLimit(), s.br.MonthlyUsed(), s.br.RemainingMonthly()
		}
	}

	var completion int64
	if s.completion != nil {
		completion = s.completion.CompletionTokens()
	}

	b := domusage.Budget{
		TokensLimit:     limit,
		TokensRemaining: remaining,
		IsExhausted:     limit > 0 && remaining <= 0,
		ResetsAt:        end.UnixMilli(),
	}
	return domusage.NewReport(period, start.UnixMilli(), end.UnixMilli(), used, completion, b)
}
