package topicsearch

import (
	"context"
	"time"

	domusage "github.com/kailas-cloud/topicsearch/internal/domain/usage"
)

// UsagePeriod is the aggregation granularity for usage reports.
type UsagePeriod string

// UsagePeriod constants.
const (
	PeriodDay   UsagePeriod = "day"
	PeriodMonth UsagePeriod = "month"
)

// UsageReport contains request counters for a time period.
type UsageReport struct {
	Period      UsagePeriod
	PeriodStart time.Time
	PeriodEnd   time.Time
	// Requests maps an endpoint name (search, blended, document, plain,
	// autocomplete, suggest) to its request count.
	Requests map[string]int64
	Total    int64
	// Tracking is false when no usage store is configured; counts are zero.
	Tracking bool
}

// Usage returns request counters for the given period.
func (c *Client) Usage(ctx context.Context, period UsagePeriod) (_ UsageReport, err error) {
	obs := c.obs.begin("usage")
	defer func() { obs.end(err) }()

	report, err := c.usageSvc.GetReport(ctx, domusage.Period(period))
	if err != nil {
		return UsageReport{}, err
	}

	requests := make(map[string]int64, len(report.Counts()))
	for ep, n := range report.Counts() {
		requests[string(ep)] = n
	}
	return UsageReport{
		Period:      UsagePeriod(report.Period()),
		PeriodStart: time.UnixMilli(report.PeriodStart()).UTC(),
		PeriodEnd:   time.UnixMilli(report.PeriodEnd()).UTC(),
		Requests:    requests,
		Total:       report.Total(),
		Tracking:    report.Tracking(),
	}, nil
}
