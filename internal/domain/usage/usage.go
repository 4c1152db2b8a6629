package usage

// Period is the aggregation granularity.
type Period string

// Aggregation period constants.
const (
	PeriodDay   Period = "day"
	PeriodMonth Period = "month"
)

// IsValid checks if the period is supported.
func (p Period) IsValid() bool { return p == PeriodDay || p == PeriodMonth }

// Endpoint identifies a counted public operation.
type Endpoint string

// Counted endpoints.
const (
	EndpointSearch       Endpoint = "search"
	EndpointBlended      Endpoint = "blended"
	EndpointDocument     Endpoint = "document"
	EndpointPlain        Endpoint = "plain"
	EndpointAutocomplete Endpoint = "autocomplete"
	EndpointSuggest      Endpoint = "suggest"
)

// Endpoints lists every counted endpoint in report order.
func Endpoints() []Endpoint {
	return []Endpoint{
		EndpointSearch, EndpointBlended, EndpointDocument,
		EndpointPlain, EndpointAutocomplete, EndpointSuggest,
	}
}

// Report is a request-count report for a time period.
type Report struct {
	period      Period
	periodStart int64
	periodEnd   int64
	counts      map[Endpoint]int64
	tracking    bool
}

// NewReport creates a usage report. tracking is false when no counter store is configured.
func NewReport(period Period, start, end int64, counts map[Endpoint]int64, tracking bool) Report {
	return Report{
		period:      period,
		periodStart: start,
		periodEnd:   end,
		counts:      counts,
		tracking:    tracking,
	}
}

// Period returns the aggregation granularity.
func (r *Report) Period() Period { return r.period }

// PeriodStart returns the period start timestamp (unix millis).
func (r *Report) PeriodStart() int64 { return r.periodStart }

// PeriodEnd returns the period end timestamp (unix millis).
func (r *Report) PeriodEnd() int64 { return r.periodEnd }

// Counts returns requests per endpoint.
func (r *Report) Counts() map[Endpoint]int64 { return r.counts }

// Total returns the sum over all endpoints.
func (r *Report) Total() int64 {
	var t int64
	for _, c := range r.counts {
		t += c
	}
	return t
}

// Tracking reports whether counters are persisted.
func (r *Report) Tracking() bool { return r.tracking }
