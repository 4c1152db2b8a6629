package request

import (
	"errors"
	"strings"
	"testing"

	"github.com/kailas-cloud/topicsearch/internal/domain"
	"github.com/kailas-cloud/topicsearch/internal/domain/search/mode"
)

func TestNew_TextDefaults(t *testing.T) {
	r, err := New(Params{Query: "  elasticsearch tutorial ", Visibility: true, Blending: true})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.Mode() != mode.Text {
		t.Errorf("Mode() = %q, want text", r.Mode())
	}
	if r.Query() != "elasticsearch tutorial" {
		t.Errorf("Query() = %q", r.Query())
	}
	if r.Page() != 1 {
		t.Errorf("Page() = %d, want 1", r.Page())
	}
	if r.HasPreferences() {
		t.Error("HasPreferences() = true without ids")
	}
	if !r.Visibility() {
		t.Error("Visibility() = false")
	}
}

func TestNew_DocumentIDWins(t *testing.T) {
	r, err := New(Params{Query: "ignored", DocumentID: "xyz"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.Mode() != mode.Document {
		t.Errorf("Mode() = %q, want document", r.Mode())
	}
	if r.DocumentID() != "xyz" {
		t.Errorf("DocumentID() = %q", r.DocumentID())
	}
}

func TestNew_EmptyQueryIsInvalid(t *testing.T) {
	for _, q := range []string{"", "   "} {
		_, err := New(Params{Query: q})
		if !errors.Is(err, domain.ErrInvalidRequest) {
			t.Errorf("New(%q): expected ErrInvalidRequest, got %v", q, err)
		}
	}
}

func TestNew_QueryTooLong(t *testing.T) {
	_, err := New(Params{Query: strings.Repeat("a", MaxQueryLength+1)})
	if !errors.Is(err, domain.ErrInvalidRequest) {
		t.Errorf("expected ErrInvalidRequest, got %v", err)
	}
}

func TestNew_PageClamped(t *testing.T) {
	for _, p := range []int{-3, 0} {
		r, err := New(Params{Query: "q", Page: p})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if r.Page() != 1 {
			t.Errorf("Page(%d) = %d, want 1", p, r.Page())
		}
	}
}

func TestNew_CleansIDs(t *testing.T) {
	r, err := New(Params{
		Query:    "q",
		Liked:    []string{"doc1", " doc2", "", "doc1"},
		Disliked: []string{"", " "},
		Blending: true,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := strings.Join(r.Liked(), ","); got != "doc1,doc2" {
		t.Errorf("Liked() = %q", got)
	}
	if r.Disliked() != nil {
		t.Errorf("Disliked() = %v, want nil", r.Disliked())
	}
	if !r.HasPreferences() {
		t.Error("HasPreferences() = false with liked ids")
	}
}

func TestHasPreferences_BlendingDisabled(t *testing.T) {
	r, _ := New(Params{Query: "q", Liked: []string{"a"}})
	if r.HasPreferences() {
		t.Error("HasPreferences() = true with blending disabled")
	}
}

func TestMustNotIDs(t *testing.T) {
	r, _ := New(Params{
		Query:    "q",
		Liked:    []string{"a", "b"},
		Disliked: []string{"b", "c"},
		Excluded: []string{"d"},
	})
	if got := strings.Join(r.MustNotIDs(), ","); got != "a,b,c,d" {
		t.Errorf("MustNotIDs() = %q, want a,b,c,d", got)
	}
}
