package usage

// Period is the aggregation granularity.
type Period string

// Aggregation period constants.
const (
	PeriodDay   Period = "day"
	PeriodMonth Period = "month"
)

// IsValid reports whether p is a known period.
func (p Period) IsValid() bool { return p == PeriodDay || p == PeriodMonth }

// Budget is an embedding token budget snapshot.
type Budget struct {
	TokensLimit     int64
	TokensRemaining int64
	IsExhausted     bool
	ResetsAt        int64 // unix millis
}

// Report is the token usage report for one period.
type Report struct {
	period           Period
	periodStart      int64
	periodEnd        int64
	embeddingTokens  int64
	completionTokens int64
	budget           Budget
}

// NewReport creates a usage report.
func NewReport(period Period, start, end, embeddingTokens, completionTokens int64, b Budget) Report {
	return Report{
		period:           period,
		periodStart:      start,
		periodEnd:        end,
		embeddingTokens:  embeddingTokens,
		completionTokens: completionTokens,
		budget:           b,
	}
}

// Period returns the aggregation granularity.
func (r *Report) Period() Period { return r.period }

// PeriodStart returns the period start timestamp (unix millis).
func (r *Report) PeriodStart() int64 { return r.periodStart }

// PeriodEnd returns the period end timestamp (unix millis).
func (r *Report) PeriodEnd() int64 { return r.periodEnd }

// EmbeddingTokens returns embedding tokens consumed in the period.
func (r *Report) EmbeddingTokens() int64 { return r.embeddingTokens }

// CompletionTokens returns completion tokens consumed since start.
func (r *Report) CompletionTokens() int64 { return r.completionTokens }

// Budget returns the embedding budget snapshot.
func (r *Report) Budget() Budget { return r.budget }
