package chi

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/oapi-codegen/runtime"

	"github.com/kailas-cloud/topicsearch/internal/domain"
	"github.com/kailas-cloud/topicsearch/internal/domain/search/mode"
	"github.com/kailas-cloud/topicsearch/internal/domain/search/request"
	"github.com/kailas-cloud/topicsearch/internal/domain/search/result"
	domusage "github.com/kailas-cloud/topicsearch/internal/domain/usage"
)

// strategyHeader exposes which ranking branch produced the page.
const strategyHeader = "X-Ranking-Strategy"

// SearchParams are the query-string parameters of GET /api/search.
type SearchParams struct {
	Q  *string   `form:"q,omitempty"`
	ID *string   `form:"id,omitempty"`
	P  *int      `form:"p,omitempty"`
	I  *string   `form:"i,omitempty"`
	W  *[]string `form:"w,omitempty"`
	B  *[]string `form:"b,omitempty"`
}

// PlainSearchParams are the query-string parameters of GET /api/search/plain.
type PlainSearchParams struct {
	Q *string   `form:"q,omitempty"`
	P *int      `form:"p,omitempty"`
	E *[]string `form:"e,omitempty"`
}

// SearchResponse mirrors the engine's hits envelope.
type SearchResponse struct {
	Took int64        `json:"took"`
	Hits HitsEnvelope `json:"hits"`
}

// HitsEnvelope carries the total count and the ranked hits.
type HitsEnvelope struct {
	Total    int64         `json:"total"`
	MaxScore *float64      `json:"max_score"`
	Hits     []HitResponse `json:"hits"`
}

// HitResponse is a single ranked document.
type HitResponse struct {
	Index  string          `json:"_index"`
	ID     string          `json:"_id"`
	Score  *float64        `json:"_score"`
	Source json.RawMessage `json:"_source,omitempty"`
}

// Search handles GET /api/search.
func (s *Server) Search(w http.ResponseWriter, r *http.Request) {
	var params SearchParams
	q := r.URL.Query()
	if err := bindAll(q, []binding{
		{name: "q", dest: &params.Q},
		{name: "id", dest: &params.ID},
		{name: "p", dest: &params.P},
		{name: "i", dest: &params.I},
		{name: "w", dest: &params.W, list: true},
		{name: "b", dest: &params.B, list: true},
	}); err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, err.Error())
		return
	}

	req, err := request.New(request.Params{
		Query:      deref(params.Q),
		DocumentID: deref(params.ID),
		Page:       derefInt(params.P),
		Liked:      derefList(params.W),
		Disliked:   derefList(params.B),
		Visibility: deref(params.I) != "false",
		Blending:   true,
	})
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	s.serveSearch(w, r, req, endpointFor(req))
}

// PlainSearch handles GET /api/search/plain: no preference blending,
// visibility filter always on.
func (s *Server) PlainSearch(w http.ResponseWriter, r *http.Request) {
	var params PlainSearchParams
	q := r.URL.Query()
	if err := bindAll(q, []binding{
		{name: "q", dest: &params.Q},
		{name: "p", dest: &params.P},
		{name: "e", dest: &params.E, list: true},
	}); err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, err.Error())
		return
	}

	req, err := request.New(request.Params{
		Query:      deref(params.Q),
		Page:       derefInt(params.P),
		Excluded:   derefList(params.E),
		Visibility: true,
	})
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	s.serveSearch(w, r, req, domusage.EndpointPlain)
}

func (s *Server) serveSearch(w http.ResponseWriter, r *http.Request, req request.Request, ep domusage.Endpoint) {
	page, err := s.search.Search(r.Context(), req)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	s.record(r.Context(), ep)

	w.Header().Set(strategyHeader, string(page.Strategy()))
	writeJSON(w, http.StatusOK, pageToResponse(page))
}

func endpointFor(req request.Request) domusage.Endpoint {
	switch {
	case req.Mode() == mode.Document:
		return domusage.EndpointDocument
	case req.HasPreferences():
		return domusage.EndpointBlended
	default:
		return domusage.EndpointSearch
	}
}

func pageToResponse(p result.Page) SearchResponse {
	hits := make([]HitResponse, len(p.Hits()))
	for i, h := range p.Hits() {
		hits[i] = HitResponse{
			Index:  h.Index(),
			ID:     h.ID(),
			Score:  h.Score(),
			Source: h.Source(),
		}
	}
	return SearchResponse{
		Took: p.TookMs(),
		Hits: HitsEnvelope{
			Total:    p.Total(),
			MaxScore: p.MaxScore(),
			Hits:     hits,
		},
	}
}

// binding is one optional form-style query parameter. Lists are
// comma-separated (non-exploded); scalars are never split.
type binding struct {
	name string
	dest any
	list bool
}

func bindAll(q url.Values, bs []binding) error {
	for _, b := range bs {
		if err := runtime.BindQueryParameter("form", !b.list, false, b.name, q, b.dest); err != nil {
			return fmt.Errorf("%w: invalid format for parameter %s", domain.ErrInvalidRequest, b.name)
		}
	}
	return nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func derefInt(n *int) int {
	if n == nil {
		return 0
	}
	return *n
}

func derefList(l *[]string) []string {
	if l == nil {
		return nil
	}
	return *l
}
