package ranking

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"os"
	"slices"
	"sync"
	"testing"

	"github.com/kailas-cloud/topicsearch/internal/domain"
	"github.com/kailas-cloud/topicsearch/internal/domain/search/request"
	"github.com/kailas-cloud/topicsearch/internal/domain/search/result"
	"github.com/kailas-cloud/topicsearch/internal/engine"
	"github.com/kailas-cloud/topicsearch/internal/metrics"
	"github.com/kailas-cloud/topicsearch/internal/query"
)

func TestMain(m *testing.M) {
	metrics.RegisterEngineMetrics()
	os.Exit(m.Run())
}

// --- Mock engine ---

type mockEngine struct {
	mu       sync.Mutex
	calls    map[string]int
	requests map[string][]*engine.SearchBody

	topics     map[string]map[string]float64
	baseTop    *float64
	boostedTop *float64
	corpus     []string
	errByOp    map[string]error
}

func newMockEngine() *mockEngine {
	return &mockEngine{
		calls:    map[string]int{},
		requests: map[string][]*engine.SearchBody{},
		topics:   map[string]map[string]float64{},
		errByOp:  map[string]error{},
	}
}

func score(v float64) *float64 { return &v }

func (m *mockEngine) Search(_ context.Context, req *engine.SearchRequest) (*engine.SearchResponse, error) {
	m.mu.Lock()
	m.calls[req.Op]++
	m.requests[req.Op] = append(m.requests[req.Op], req.Body)
	err := m.errByOp[req.Op]
	m.mu.Unlock()
	if err != nil {
		return nil, err
	}

	switch req.Op {
	case engine.OpTopics:
		ids := req.Body.Query.(engine.TermsQuery).Values
		var hits []engine.Hit
		for _, id := range ids {
			cats, ok := m.topics[id]
			if !ok {
				continue
			}
			src, _ := json.Marshal(map[string]any{"categories": cats})
			hits = append(hits, engine.Hit{ID: id, Source: src})
		}
		return &engine.SearchResponse{Hits: engine.Hits{Hits: hits}}, nil
	case engine.OpCalibrateBase:
		return topResponse(m.baseTop), nil
	case engine.OpCalibrateBoosted:
		return topResponse(m.boostedTop), nil
	default:
		excluded := mustNotIDs(req.Body.Query)
		var hits []engine.Hit
		for _, id := range m.corpus {
			if slices.Contains(excluded, id) {
				continue
			}
			hits = append(hits, engine.Hit{Index: "docs", ID: id, Score: score(1)})
		}
		return &engine.SearchResponse{Took: 2, Hits: engine.Hits{Hits: hits}}, nil
	}
}

func (m *mockEngine) count(op string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[op]
}

func (m *mockEngine) total() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, c := range m.calls {
		n += c
	}
	return n
}

func (m *mockEngine) last(op string) *engine.SearchBody {
	m.mu.Lock()
	defer m.mu.Unlock()
	reqs := m.requests[op]
	if len(reqs) == 0 {
		return nil
	}
	return reqs[len(reqs)-1]
}

func topResponse(top *float64) *engine.SearchResponse {
	if top == nil {
		return &engine.SearchResponse{}
	}
	return &engine.SearchResponse{Hits: engine.Hits{Hits: []engine.Hit{{ID: "top", Score: top}}}}
}

func mustNotIDs(q engine.Query) []string {
	if fs, ok := q.(engine.FunctionScoreQuery); ok {
		q = fs.Query
	}
	b, ok := q.(engine.BoolQuery)
	if !ok {
		return nil
	}
	var ids []string
	for _, c := range b.MustNot {
		if tq, ok := c.(engine.TermsQuery); ok {
			ids = append(ids, tq.Values...)
		}
	}
	return ids
}

func factors(t *testing.T, q engine.Query) []float64 {
	t.Helper()
	fs, ok := q.(engine.FunctionScoreQuery)
	if !ok {
		t.Fatalf("expected function_score, got %T", q)
	}
	out := make([]float64, len(fs.Functions))
	for i, f := range fs.Functions {
		out[i] = f.Factor
	}
	return out
}

func newAssembler(topics int) *query.Assembler {
	return query.NewAssembler(query.Config{
		TopicCount:         topics,
		TopicField:         "categories",
		VisibilityField:    "info.iframe",
		TitleField:         "title",
		BodyField:          "body",
		KeywordsField:      "keywords",
		Projection:         []string{"title", "description", "url", "image"},
		FirstPageSize:      1,
		PageSize:           10,
		MinimumShouldMatch: "3<75%",
	})
}

func mustRequest(t *testing.T, p request.Params) request.Request {
	t.Helper()
	r, err := request.New(p)
	if err != nil {
		t.Fatalf("request.New: %v", err)
	}
	return r
}

func scenarioEngine() *mockEngine {
	m := newMockEngine()
	m.topics["doc1"] = map[string]float64{"0": 0.5, "1": 0.2, "2": 0.0}
	m.topics["doc2"] = map[string]float64{"0": 0.1, "1": 0.0, "2": 0.3}
	m.topics["doc3"] = map[string]float64{"0": 0.2, "1": 0.2, "2": 0.2}
	m.baseTop = score(10)
	m.boostedTop = score(0.4)
	m.corpus = []string{"doc1", "doc2", "doc3", "doc4", "doc5"}
	return m
}

// --- Extractor ---

func TestExtractRawWeights_NoPreferencesNoCalls(t *testing.T) {
	m := newMockEngine()
	x := NewExtractor(m, newAssembler(4))

	w, err := x.ExtractRawWeights(context.Background(), nil, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if m.total() != 0 {
		t.Errorf("expected zero engine calls, got %d", m.total())
	}
	for i, v := range w {
		if v != 1 {
			t.Errorf("weight %d = %v, want 1", i, v)
		}
	}
}

func TestExtractRawWeights_Scenario(t *testing.T) {
	m := scenarioEngine()
	x := NewExtractor(m, newAssembler(3))

	w, err := x.ExtractRawWeights(context.Background(), []string{"doc1", "doc2"}, []string{"doc3"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []float64{1.4, 1.0, 1.1}
	for i := range want {
		if math.Abs(w[i]-want[i]) > 1e-9 {
			t.Errorf("raw[%d] = %v, want %v", i, w[i], want[i])
		}
	}
	if m.count(engine.OpTopics) != 2 {
		t.Errorf("expected 2 lookups, got %d", m.count(engine.OpTopics))
	}
}

func TestExtractRawWeights_LookupSizeMatchesList(t *testing.T) {
	m := scenarioEngine()
	x := NewExtractor(m, newAssembler(3))

	if _, err := x.ExtractRawWeights(context.Background(), nil, []string{"doc1", "doc2", "doc3"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if m.count(engine.OpTopics) != 1 {
		t.Fatalf("expected 1 lookup, got %d", m.count(engine.OpTopics))
	}
	if size := m.last(engine.OpTopics).Size; size != 3 {
		t.Errorf("expected lookup size 3, got %d", size)
	}
}

func TestExtractRawWeights_EngineFailure(t *testing.T) {
	m := scenarioEngine()
	m.errByOp[engine.OpTopics] = domain.NewEngineUnavailable(engine.OpTopics, errors.New("refused"))
	x := NewExtractor(m, newAssembler(3))

	w, err := x.ExtractRawWeights(context.Background(), []string{"doc1"}, []string{"doc3"})
	if !errors.Is(err, domain.ErrEngineUnavailable) {
		t.Fatalf("expected ErrEngineUnavailable, got %v", err)
	}
	if w != nil {
		t.Errorf("partial weights must not be returned: %v", w)
	}
}

func TestParseTopics(t *testing.T) {
	v, err := parseTopics(json.RawMessage(`{"categories":{"0":0.5,"x":1,"7":2}}`), "categories", 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(v) != 1 || v[0] != 0.5 {
		t.Errorf("unexpected vector %v", v)
	}

	v, err = parseTopics(json.RawMessage(`{"title":"no topics"}`), "categories", 3)
	if err != nil || len(v) != 0 {
		t.Errorf("expected empty vector, got %v, %v", v, err)
	}

	if _, err := parseTopics(json.RawMessage(`{"categories":"oops"}`), "categories", 3); err == nil {
		t.Error("expected decode error")
	}
}

// --- Calibrator ---

func TestCalibrate_Multiplier(t *testing.T) {
	tests := []struct {
		base, boosted float64
	}{
		{10, 0.4},
		{3.7, 12.5},
		{0.001, 0.001},
		{1e6, 1e-3},
	}
	a := newAssembler(3)
	for _, tc := range tests {
		m := newMockEngine()
		m.baseTop, m.boostedTop = score(tc.base), score(tc.boosted)
		c := NewCalibrator(m, a)

		mult, err := c.Calibrate(context.Background(),
			a.Base(mustRequest(t, request.Params{Query: "q"})), []float64{0.2, 0.3, 0.5})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if math.Abs(tc.boosted*mult-tc.base) > 1e-9*math.Max(1, tc.base) {
			t.Errorf("boosted*multiplier = %v, want %v", tc.boosted*mult, tc.base)
		}
		if m.count(engine.OpCalibrateBase) != 1 || m.count(engine.OpCalibrateBoosted) != 1 {
			t.Errorf("expected one probe each, got %v", m.calls)
		}
	}
}

func TestCalibrate_Degenerate(t *testing.T) {
	tests := []struct {
		name          string
		base, boosted *float64
	}{
		{"boosted zero", score(5), score(0)},
		{"base zero", score(0), score(1)},
		{"boosted no hits", score(5), nil},
		{"base no hits", nil, score(1)},
		{"negative", score(-1), score(1)},
	}
	a := newAssembler(3)
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			m := newMockEngine()
			m.baseTop, m.boostedTop = tc.base, tc.boosted
			c := NewCalibrator(m, a)

			_, err := c.Calibrate(context.Background(),
				a.Base(mustRequest(t, request.Params{Query: "q"})), []float64{0.2, 0.3, 0.5})
			if !errors.Is(err, domain.ErrCalibrationDegenerate) {
				t.Fatalf("expected ErrCalibrationDegenerate, got %v", err)
			}
		})
	}
}

func TestCalibrate_EngineError(t *testing.T) {
	m := newMockEngine()
	m.baseTop = score(1)
	m.errByOp[engine.OpCalibrateBoosted] = domain.NewEngineQueryError(engine.OpCalibrateBoosted, 400, "no mapping")
	a := newAssembler(3)
	c := NewCalibrator(m, a)

	_, err := c.Calibrate(context.Background(),
		a.Base(mustRequest(t, request.Params{Query: "q"})), []float64{0.2, 0.3, 0.5})
	if !errors.Is(err, domain.ErrEngineQuery) {
		t.Fatalf("expected ErrEngineQuery, got %v", err)
	}
}

// --- Service ---

func TestSearch_BlendedScenario(t *testing.T) {
	m := scenarioEngine()
	svc := New(m, newAssembler(3))
	req := mustRequest(t, request.Params{
		Query:      "elasticsearch tutorial",
		Liked:      []string{"doc1", "doc2"},
		Disliked:   []string{"doc3"},
		Visibility: true,
		Blending:   true,
	})

	page, err := svc.Search(context.Background(), req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if page.Strategy() != result.StrategyBlended {
		t.Errorf("expected blended, got %s", page.Strategy())
	}

	normalized := factors(t, m.last(engine.OpCalibrateBoosted).Query)
	want := []float64{0.4, 0.2857, 0.3143}
	for i := range want {
		if math.Abs(normalized[i]-want[i]) > 5e-5 {
			t.Errorf("normalized[%d] = %.4f, want %.4f", i, normalized[i], want[i])
		}
	}

	final := m.last(engine.OpSearch)
	if final.From != 0 || final.Size != 1 {
		t.Errorf("expected first page window 0/1, got %d/%d", final.From, final.Size)
	}
	scaled := factors(t, final.Query)
	for i := range scaled {
		if math.Abs(scaled[i]-normalized[i]*25) > 1e-9 {
			t.Errorf("final[%d] = %v, want %v", i, scaled[i], normalized[i]*25)
		}
	}
	if fs := final.Query.(engine.FunctionScoreQuery); fs.BoostMode != engine.BoostModeSum {
		t.Errorf("expected boost_mode sum, got %s", fs.BoostMode)
	}
}

func TestSearch_ExcludesPreferenceDocuments(t *testing.T) {
	m := scenarioEngine()
	svc := New(m, newAssembler(3))
	liked, disliked := []string{"doc1", "doc2"}, []string{"doc3"}
	req := mustRequest(t, request.Params{
		Query: "q", Page: 2, Liked: liked, Disliked: disliked, Blending: true,
	})

	page, err := svc.Search(context.Background(), req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(page.Hits()) == 0 {
		t.Fatal("expected hits from the corpus")
	}
	for _, h := range page.Hits() {
		if slices.Contains(liked, h.ID()) || slices.Contains(disliked, h.ID()) {
			t.Errorf("preference document %s returned", h.ID())
		}
	}
}

func TestSearch_DegenerateFallsBack(t *testing.T) {
	m := scenarioEngine()
	m.boostedTop = score(0)
	svc := New(m, newAssembler(3))
	req := mustRequest(t, request.Params{Query: "q", Liked: []string{"doc1"}, Blending: true})

	page, err := svc.Search(context.Background(), req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if page.Strategy() != result.StrategyFallback {
		t.Errorf("expected fallback, got %s", page.Strategy())
	}
	final := m.last(engine.OpSearch)
	if _, ok := final.Query.(engine.BoolQuery); !ok {
		t.Fatalf("expected unboosted query, got %T", final.Query)
	}
	data, err := json.Marshal(final)
	if err != nil {
		t.Fatalf("marshal final query: %v", err)
	}
	var decoded map[string]any
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("final query is not valid JSON: %v", err)
	}
}

func TestSearch_SimpleWithoutPreferences(t *testing.T) {
	m := scenarioEngine()
	svc := New(m, newAssembler(3))

	page, err := svc.Search(context.Background(), mustRequest(t, request.Params{Query: "q", Page: 3, Blending: true}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if page.Strategy() != result.StrategySimple {
		t.Errorf("expected simple, got %s", page.Strategy())
	}
	if m.count(engine.OpTopics) != 0 || m.count(engine.OpCalibrateBase) != 0 {
		t.Errorf("unexpected pipeline calls: %v", m.calls)
	}
	final := m.last(engine.OpSearch)
	if final.From != 20 || final.Size != 10 {
		t.Errorf("expected window 20/10, got %d/%d", final.From, final.Size)
	}
}

func TestSearch_BlendingDisabledIgnoresPreferences(t *testing.T) {
	m := scenarioEngine()
	svc := New(m, newAssembler(3))
	req := mustRequest(t, request.Params{Query: "q", Excluded: []string{"doc4"}, Liked: []string{"doc1"}})

	page, err := svc.Search(context.Background(), req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if page.Strategy() != result.StrategySimple {
		t.Errorf("expected simple, got %s", page.Strategy())
	}
	if m.count(engine.OpTopics) != 0 {
		t.Error("lookup must not run when blending is disabled")
	}
	for _, h := range page.Hits() {
		if h.ID() == "doc4" {
			t.Error("excluded document returned")
		}
	}
}

func TestSearch_DocumentMode(t *testing.T) {
	m := scenarioEngine()
	svc := New(m, newAssembler(3))
	req := mustRequest(t, request.Params{DocumentID: "xyz", Query: "ignored", Visibility: true, Liked: []string{"doc1"}, Blending: true})

	page, err := svc.Search(context.Background(), req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if page.Strategy() != result.StrategyDocument {
		t.Errorf("expected document, got %s", page.Strategy())
	}
	body := m.last(engine.OpLookup)
	if body == nil || body.Size != 1 {
		t.Fatalf("expected lookup with size 1, got %+v", body)
	}
	b := body.Query.(engine.BoolQuery)
	if len(b.Must) != 1 || len(b.Filter) != 1 {
		t.Fatalf("expected id must and visibility filter, got %+v", b)
	}
	if tq := b.Must[0].(engine.TermQuery); tq.Field != "_id" || tq.Value != "xyz" {
		t.Errorf("unexpected id clause %+v", tq)
	}
	if m.count(engine.OpTopics) != 0 {
		t.Error("document mode must not extract weights")
	}
}

func TestSearch_EngineErrorPropagates(t *testing.T) {
	m := scenarioEngine()
	m.errByOp[engine.OpSearch] = domain.NewEngineQueryError(engine.OpSearch, 400, "bad query")
	svc := New(m, newAssembler(3))

	page, err := svc.Search(context.Background(), mustRequest(t, request.Params{Query: "q"}))
	if !errors.Is(err, domain.ErrEngineQuery) {
		t.Fatalf("expected ErrEngineQuery, got %v", err)
	}
	if page.Hits() != nil {
		t.Error("partial page must not be returned")
	}
}
