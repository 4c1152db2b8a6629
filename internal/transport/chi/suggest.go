package chi

import (
	"net/http"

	domusage "github.com/kailas-cloud/topicsearch/internal/domain/usage"
)

// AutocompleteResponse lists completion terms with their document counts.
type AutocompleteResponse struct {
	Took    int64            `json:"took"`
	Buckets []BucketResponse `json:"buckets"`
}

// BucketResponse is one completion term.
type BucketResponse struct {
	Key      any   `json:"key"`
	DocCount int64 `json:"doc_count"`
}

// SuggestResponse lists cleaned suggestion texts.
type SuggestResponse struct {
	Took        int64                `json:"took"`
	Suggestions []SuggestionResponse `json:"suggestions"`
}

// SuggestionResponse is a single suggestion.
type SuggestionResponse struct {
	Text string `json:"text"`
}

// Autocomplete handles GET /api/search/autocomplete.
func (s *Server) Autocomplete(w http.ResponseWriter, r *http.Request) {
	var (
		q    *string
		size *int
	)
	if err := bindAll(r.URL.Query(), []binding{
		{name: "q", dest: &q},
		{name: "s", dest: &size},
	}); err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, err.Error())
		return
	}
	s.serveAutocomplete(w, r, deref(q), derefInt(size))
}

// Autocompletion handles GET /api/search/autocompletion (default size only).
func (s *Server) Autocompletion(w http.ResponseWriter, r *http.Request) {
	var q *string
	if err := bindAll(r.URL.Query(), []binding{{name: "q", dest: &q}}); err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, err.Error())
		return
	}
	s.serveAutocomplete(w, r, deref(q), 0)
}

func (s *Server) serveAutocomplete(w http.ResponseWriter, r *http.Request, q string, size int) {
	res, err := s.suggest.Autocomplete(r.Context(), q, size)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	s.record(r.Context(), domusage.EndpointAutocomplete)

	buckets := make([]BucketResponse, len(res.Buckets))
	for i, b := range res.Buckets {
		buckets[i] = BucketResponse{Key: b.Key, DocCount: b.DocCount}
	}
	writeJSON(w, http.StatusOK, AutocompleteResponse{Took: res.Took, Buckets: buckets})
}

// Suggest handles GET /api/search/suggest.
func (s *Server) Suggest(w http.ResponseWriter, r *http.Request) {
	var q *string
	if err := bindAll(r.URL.Query(), []binding{{name: "q", dest: &q}}); err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, err.Error())
		return
	}

	res, err := s.suggest.Suggest(r.Context(), deref(q))
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	s.record(r.Context(), domusage.EndpointSuggest)

	suggestions := make([]SuggestionResponse, len(res.Texts))
	for i, t := range res.Texts {
		suggestions[i] = SuggestionResponse{Text: t}
	}
	writeJSON(w, http.StatusOK, SuggestResponse{Took: res.Took, Suggestions: suggestions})
}
