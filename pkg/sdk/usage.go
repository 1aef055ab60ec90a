package docmind

import (
	"context"
	"time"

	domusage "github.com/kailas-cloud/docmind/internal/domain/usage"
)

// UsagePeriod is the aggregation granularity for usage reports.
type UsagePeriod string

// UsagePeriod constants.
const (
	PeriodDay   UsagePeriod = "day"
	PeriodMonth UsagePeriod = "month"
)

// UsageReport contains token usage for a time period.
type UsageReport struct {
	Period           UsagePeriod
	PeriodStart      time.Time
	PeriodEnd        time.Time
	EmbeddingTokens  int64
	CompletionTokens int64
}

// Usage returns a token usage report for the given period. Completion
// tokens count since the client was created.
func (c *Client) Usage(ctx context.Context, period UsagePeriod) UsageReport {
	start := time.Now()
	defer func() { c.obs.observe("usage", start, nil) }()

	report := c.usageSvc.GetReport(ctx, domusage.Period(period))
	return UsageReport{
		Period:           UsagePeriod(report.Period()),
		PeriodStart:      time.UnixMilli(report.PeriodStart()).UTC(),
		PeriodEnd:        time.UnixMilli(report.PeriodEnd()).UTC(),
		EmbeddingTokens:  report.EmbeddingTokens(),
		CompletionTokens: report.CompletionTokens(),
	}
}

// usageUseCase is the internal interface for usage reports.
type usageUseCase interface {
	GetReport(ctx context.Context, period domusage.Period) domusage.Report
}
