package result

import "encoding/json"

// Strategy names the pipeline branch that produced a page.
type Strategy string

// Strategy constants.
const (
	StrategyDocument Strategy = "document"
	StrategySimple   Strategy = "simple"
	StrategyBlended  Strategy = "blended"
	// StrategyFallback is a simple query served because calibration was degenerate.
	StrategyFallback Strategy = "fallback"
)

// Hit is a single ranked document.
type Hit struct {
	index  string
	id     string
	score  *float64
	source json.RawMessage
}

// NewHit creates a hit. score is nil when the engine reports no score.
func NewHit(index, id string, score *float64, source json.RawMessage) Hit {
	return Hit{index: index, id: id, score: score, source: source}
}

// Index returns the index the hit came from.
func (h *Hit) Index() string { return h.index }

// ID returns the document identifier.
func (h *Hit) ID() string { return h.id }

// Score returns the relevance score (nil if unscored).
func (h *Hit) Score() *float64 { return h.score }

// Source returns the projected fields as raw JSON.
func (h *Hit) Source() json.RawMessage { return h.source }

// Page is an ordered page of hits plus the elapsed time.
type Page struct {
	tookMs   int64
	total    int64
	maxScore *float64
	hits     []Hit
	strategy Strategy
}

// NewPage creates a result page.
func NewPage(tookMs, total int64, maxScore *float64, hits []Hit, strategy Strategy) Page {
	return Page{tookMs: tookMs, total: total, maxScore: maxScore, hits: hits, strategy: strategy}
}

// TookMs returns elapsed milliseconds.
func (p *Page) TookMs() int64 { return p.tookMs }

// Total returns the engine's total hit count.
func (p *Page) Total() int64 { return p.total }

// MaxScore returns the best score on the engine side (nil if unscored).
func (p *Page) MaxScore() *float64 { return p.maxScore }

// Hits returns the ranked hits.
func (p *Page) Hits() []Hit { return p.hits }

// Strategy returns the branch that produced this page.
func (p *Page) Strategy() Strategy { return p.strategy }
