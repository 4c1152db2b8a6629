package request

import (
	"fmt"
	"strings"

	"github.com/kailas-cloud/topicsearch/internal/domain"
	"github.com/kailas-cloud/topicsearch/internal/domain/search/mode"
)

// MaxQueryLength is the maximum allowed search query length.
const MaxQueryLength = 4096

// Params are the raw, already-bound request parameters.
type Params struct {
	Query      string
	DocumentID string
	Page       int
	Liked      []string
	Disliked   []string
	Excluded   []string
	Visibility bool
	Blending   bool
}

// Request is a validated search or lookup request.
type Request struct {
	query      string
	documentID string
	searchMode mode.Mode
	page       int
	liked      []string
	disliked   []string
	excluded   []string
	visibility bool
	blending   bool
}

// New validates and normalizes request parameters.
// A document id takes precedence over query text. Pages below 1 become 1.
func New(p Params) (Request, error) {
	id := strings.TrimSpace(p.DocumentID)
	query := strings.TrimSpace(p.Query)

	m := mode.Text
	switch {
	case id != "":
		m = mode.Document
	case query == "":
		return Request{}, fmt.Errorf("%w: query is empty", domain.ErrInvalidRequest)
	case len(query) > MaxQueryLength:
		return Request{}, fmt.Errorf("%w: query too long (max %d chars)", domain.ErrInvalidRequest, MaxQueryLength)
	}

	page := p.Page
	if page < 1 {
		page = 1
	}

	return Request{
		query:      query,
		documentID: id,
		searchMode: m,
		page:       page,
		liked:      cleanIDs(p.Liked),
		disliked:   cleanIDs(p.Disliked),
		excluded:   cleanIDs(p.Excluded),
		visibility: p.Visibility,
		blending:   p.Blending,
	}, nil
}

// cleanIDs trims ids, drops empties and duplicates, keeping first-seen order.
func cleanIDs(ids []string) []string {
	if len(ids) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// Query returns the free-text query.
func (r *Request) Query() string { return r.query }

// DocumentID returns the id for direct lookup.
func (r *Request) DocumentID() string { return r.documentID }

// Mode returns the active search mode.
func (r *Request) Mode() mode.Mode { return r.searchMode }

// Page returns the 1-indexed result page.
func (r *Request) Page() int { return r.page }

// Liked returns the positive preference document ids.
func (r *Request) Liked() []string { return r.liked }

// Disliked returns the negative preference document ids.
func (r *Request) Disliked() []string { return r.disliked }

// Excluded returns ids excluded without affecting topic weights.
func (r *Request) Excluded() []string { return r.excluded }

// Visibility reports whether results are restricted to embeddable documents.
func (r *Request) Visibility() bool { return r.visibility }

// Blending reports whether preference ids may bias the ranking.
func (r *Request) Blending() bool { return r.blending }

// HasPreferences reports whether topic blending applies to this request.
func (r *Request) HasPreferences() bool {
	return r.blending && (len(r.liked) > 0 || len(r.disliked) > 0)
}

// MustNotIDs returns every id that must not appear in results:
// liked, disliked and excluded, de-duplicated.
func (r *Request) MustNotIDs() []string {
	all := make([]string, 0, len(r.liked)+len(r.disliked)+len(r.excluded))
	all = append(all, r.liked...)
	all = append(all, r.disliked...)
	all = append(all, r.excluded...)
	return cleanIDs(all)
}
