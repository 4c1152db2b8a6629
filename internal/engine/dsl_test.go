package engine

import (
	"encoding/json"
	"math"
	"strings"
	"testing"
)

func mustJSON(t *testing.T, v any) map[string]any {
	t.Helper()
	data, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var out map[string]any
	if err := json.Unmarshal(data, &out); err != nil {
		t.Fatalf("unmarshal %s: %v", data, err)
	}
	return out
}

func TestBoolQuery_OmitsEmptyClauses(t *testing.T) {
	q := BoolQuery{
		Must:   []Query{TermQuery{Field: "_id", Value: "xyz"}},
		Filter: []Query{TermQuery{Field: "info.iframe", Value: true}},
	}
	got := mustJSON(t, q)
	b := got["bool"].(map[string]any)

	if _, ok := b["should"]; ok {
		t.Error("empty should must be omitted")
	}
	if _, ok := b["must_not"]; ok {
		t.Error("empty must_not must be omitted")
	}
	must := b["must"].([]any)[0].(map[string]any)["term"].(map[string]any)
	if must["_id"] != "xyz" {
		t.Errorf("must term = %v", must)
	}
	filter := b["filter"].([]any)[0].(map[string]any)["term"].(map[string]any)
	if filter["info.iframe"] != true {
		t.Errorf("filter term = %v", filter)
	}
}

func TestMultiMatchQuery(t *testing.T) {
	got := mustJSON(t, MultiMatchQuery{
		Query:              "go",
		Type:               MultiMatchBestFields,
		Fields:             []string{"title", "body"},
		MinimumShouldMatch: "3<75%",
	})
	mm := got["multi_match"].(map[string]any)
	if mm["type"] != "best_fields" || mm["minimum_should_match"] != "3<75%" {
		t.Errorf("multi_match = %v", mm)
	}
	if _, ok := mm["cutoff_frequency"]; ok {
		t.Error("zero cutoff_frequency must be omitted")
	}
	if _, ok := mm["boost"]; ok {
		t.Error("default boost must be omitted")
	}
}

func TestFunctionScoreQuery(t *testing.T) {
	q := FunctionScoreQuery{
		Query: MatchQuery{Field: "keywords", Query: "go"},
		Functions: []FieldValueFactor{
			{Field: "categories.0", Factor: 0.4},
		},
		ScoreMode: ScoreModeSum,
		BoostMode: BoostModeReplace,
	}
	fs := mustJSON(t, q)["function_score"].(map[string]any)
	if fs["score_mode"] != "sum" || fs["boost_mode"] != "replace" {
		t.Errorf("modes = %v/%v", fs["score_mode"], fs["boost_mode"])
	}
	fn := fs["functions"].([]any)[0].(map[string]any)["field_value_factor"].(map[string]any)
	if fn["field"] != "categories.0" || fn["factor"] != 0.4 || fn["missing"] != 0.0 {
		t.Errorf("field_value_factor = %v", fn)
	}
}

func TestFieldValueFactor_RejectsNonFinite(t *testing.T) {
	for _, f := range []float64{math.NaN(), math.Inf(1)} {
		_, err := json.Marshal(FieldValueFactor{Field: "categories.0", Factor: f})
		if err == nil {
			t.Errorf("expected error for factor %v", f)
		}
	}
}

func TestSearchBody_Source(t *testing.T) {
	got := mustJSON(t, &SearchBody{Size: 1, Source: NoSource(), Query: BoolQuery{}})
	if got["_source"] != false {
		t.Errorf("_source = %v, want false", got["_source"])
	}
	if _, ok := got["from"]; ok {
		t.Error("zero from must be omitted")
	}

	got = mustJSON(t, &SearchBody{Size: 10, From: 20, Source: Fields("title", "url")})
	src := got["_source"].([]any)
	if len(src) != 2 || src[0] != "title" {
		t.Errorf("_source = %v", src)
	}
	if got["from"] != 20.0 {
		t.Errorf("from = %v", got["from"])
	}
	if _, ok := got["query"]; ok {
		t.Error("nil query must be omitted")
	}
}

func TestSuggest(t *testing.T) {
	s := Suggest{
		Text: "elastc",
		Suggesters: map[string]Suggester{
			"keyword_suggest": CompletionSuggester{Prefix: "elastc", Field: "completions", Size: 5},
			"body_suggest": PhraseSuggester{
				Field: "body", Analyzer: "standard", Size: 5, GramSize: 3,
				Generators: []DirectGenerator{{Field: "body", SuggestMode: "popular"}},
			},
		},
	}
	got := mustJSON(t, s)
	if got["text"] != "elastc" {
		t.Errorf("text = %v", got["text"])
	}
	kw := got["keyword_suggest"].(map[string]any)
	if kw["prefix"] != "elastc" {
		t.Errorf("keyword_suggest = %v", kw)
	}
	phrase := got["body_suggest"].(map[string]any)["phrase"].(map[string]any)
	if phrase["gram_size"] != 3.0 {
		t.Errorf("phrase = %v", phrase)
	}
}

func TestTotalHits_Unmarshal(t *testing.T) {
	var r SearchResponse
	if err := json.Unmarshal([]byte(`{"hits":{"total":7,"hits":[]}}`), &r); err != nil {
		t.Fatalf("legacy total: %v", err)
	}
	if r.TotalValue() != 7 {
		t.Errorf("TotalValue() = %d, want 7", r.TotalValue())
	}

	if err := json.Unmarshal([]byte(`{"hits":{"total":{"value":12,"relation":"gte"},"hits":[]}}`), &r); err != nil {
		t.Fatalf("object total: %v", err)
	}
	if r.TotalValue() != 12 || r.Hits.Total.Relation != "gte" {
		t.Errorf("total = %+v", r.Hits.Total)
	}
}

func TestTopScore(t *testing.T) {
	var r SearchResponse
	if _, ok := r.TopScore(); ok {
		t.Error("expected no top score for empty hits")
	}
	data := `{"hits":{"hits":[{"_id":"a","_score":2.5},{"_id":"b","_score":1}]}}`
	if err := json.Unmarshal([]byte(data), &r); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	score, ok := r.TopScore()
	if !ok || score != 2.5 {
		t.Errorf("TopScore() = %v, %v", score, ok)
	}
}

func TestTermsBuckets(t *testing.T) {
	data := `{"aggregations":{"suggestions":{"buckets":[{"key":"golang","doc_count":4}]}}}`
	var r SearchResponse
	if err := json.Unmarshal([]byte(data), &r); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	buckets, err := r.TermsBuckets("suggestions")
	if err != nil {
		t.Fatalf("TermsBuckets: %v", err)
	}
	if len(buckets) != 1 || buckets[0].Key != "golang" || buckets[0].DocCount != 4 {
		t.Errorf("buckets = %+v", buckets)
	}

	missing, err := r.TermsBuckets("other")
	if err != nil || missing != nil {
		t.Errorf("missing aggregation: %v, %v", missing, err)
	}

	r.Aggregations["broken"] = json.RawMessage(`"nope"`)
	if _, err := r.TermsBuckets("broken"); err == nil || !strings.Contains(err.Error(), "broken") {
		t.Errorf("expected decode error, got %v", err)
	}
}
