package engine

import (
	"context"
	"errors"
	"testing"

	"github.com/scrypster/recall/internal/embedding"
	"github.com/scrypster/recall/internal/storage/sqlite"
	"github.com/scrypster/recall/pkg/types"
)

// fakeEncoder returns canned vectors by text, or fallback for anything else.
type fakeEncoder struct {
	vectors  map[string][]float32
	fallback []float32
	err      error
}

func (f *fakeEncoder) Embed(_ context.Context, text string) ([]float32, error) {
	if f.err != nil {
		return nil, f.err
	}
	if v, ok := f.vectors[text]; ok {
		return v, nil
	}
	return f.fallback, nil
}

func (f *fakeEncoder) GetModel() string { return "fake-encoder" }

func newTestStore(t *testing.T) *sqlite.RecordStore {
	t.Helper()
	store, err := sqlite.NewRecordStore(":memory:")
	if err != nil {
		t.Fatalf("failed to create test store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestInferCategory(t *testing.T) {
	tests := []struct {
		query string
		want  types.Category
	}{
		{"am I allergic to peanuts", types.CategoryFood},
		{"planning a trip to a new city", types.CategoryTravel},
		{"what's my dog's name", types.CategoryPersonal},
		{"hello there", ""},
		// "like" (food) and "dog" (personal) tie at one hit each.
		{"I like my dog", ""},
		{"", ""},
	}

	for _, tt := range tests {
		if got := InferCategory(tt.query); got != tt.want {
			t.Errorf("InferCategory(%q) = %q, want %q", tt.query, got, tt.want)
		}
	}
}

func TestRetrieveTopKBounds(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	r := NewRetriever(store, embedding.NewGateway(&fakeEncoder{fallback: []float32{1, 0}}), true)

	for i := 0; i < 4; i++ {
		_, _ = store.Insert(ctx, "some fact", types.CategoryMisc, []float64{1, 0})
	}

	got, err := r.Retrieve(ctx, "anything", 0, "")
	if err != nil {
		t.Fatalf("retrieve failed: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("topK=0 must return nothing, got %d", len(got))
	}

	got, err = r.Retrieve(ctx, "anything", 2, "")
	if err != nil {
		t.Fatalf("retrieve failed: %v", err)
	}
	if len(got) > 2 {
		t.Errorf("expected at most 2 results, got %d", len(got))
	}
}

func TestRetrieveEmptyStore(t *testing.T) {
	store := newTestStore(t)
	r := NewRetriever(store, embedding.NewGateway(&fakeEncoder{fallback: []float32{1}}), true)

	got, err := r.Retrieve(context.Background(), "anything", 5, "")
	if err != nil {
		t.Fatalf("retrieve failed: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("expected no results from empty store, got %d", len(got))
	}
}

func TestRetrieveCategoryPreference(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	r := NewRetriever(store, embedding.NewGateway(&fakeEncoder{fallback: []float32{1, 0}}), true)

	_, _ = store.Insert(ctx, "likes Thai food", types.CategoryFood, []float64{0.9, 0.1})
	_, _ = store.Insert(ctx, "enjoys sushi", types.CategoryFood, []float64{0.8, 0.2})
	_, _ = store.Insert(ctx, "visited Rome", types.CategoryTravel, []float64{0.1, 0.9})

	got, err := r.Retrieve(ctx, "what food do I eat", 2, "")
	if err != nil {
		t.Fatalf("retrieve failed: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 results, got %d", len(got))
	}
	for _, rec := range got {
		if rec.Category != types.CategoryFood {
			t.Errorf("expected only food records, got %q (%q)", rec.Category, rec.Content)
		}
	}
}

func TestRetrieveFallsBackToAllRecords(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	r := NewRetriever(store, embedding.NewGateway(&fakeEncoder{fallback: []float32{1, 0}}), false)

	// Only one food record; topK well above it pulls in the rest of the
	// store with food still in front.
	food, _ := store.Insert(ctx, "likes Thai food", types.CategoryFood, nil)
	_, _ = store.Insert(ctx, "visited Rome", types.CategoryTravel, nil)
	_, _ = store.Insert(ctx, "has a cat", types.CategoryPersonal, nil)

	got, err := r.Retrieve(ctx, "what food do I eat", 5, "")
	if err != nil {
		t.Fatalf("retrieve failed: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("expected 3 results, got %d", len(got))
	}
	if got[0].ID != food.ID {
		t.Errorf("expected category match first, got %q", got[0].Content)
	}
}

func TestRetrieveWithoutEmbeddings(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	// Encoder that always fails; it must not even matter.
	r := NewRetriever(store, embedding.NewGateway(&fakeEncoder{err: errors.New("down")}), true)

	_, _ = store.Insert(ctx, "first fact", types.CategoryMisc, nil)
	_, _ = store.Insert(ctx, "second fact", types.CategoryMisc, nil)
	_, _ = store.Insert(ctx, "third fact", types.CategoryMisc, nil)

	got, err := r.Retrieve(ctx, "anything at all", 2, "")
	if err != nil {
		t.Fatalf("retrieve failed: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 results, got %d", len(got))
	}
	if got[0].Content != "first fact" || got[1].Content != "second fact" {
		t.Errorf("expected chronological order, got %q then %q", got[0].Content, got[1].Content)
	}
}

func TestRetrieveQueryEmbeddingFailure(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	r := NewRetriever(store, embedding.NewGateway(&fakeEncoder{err: errors.New("encoder down")}), true)

	_, _ = store.Insert(ctx, "embedded fact", types.CategoryMisc, []float64{1, 0})

	// Candidates have embeddings but the query cannot be encoded; fall
	// back to unranked order rather than failing.
	got, err := r.Retrieve(ctx, "anything", 1, "")
	if err != nil {
		t.Fatalf("retrieve failed: %v", err)
	}
	if len(got) != 1 || got[0].Content != "embedded fact" {
		t.Errorf("unexpected results: %+v", got)
	}
}

func TestRetrieveRanksBySimilarity(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	encoder := &fakeEncoder{
		vectors:  map[string][]float32{"am I allergic to peanuts": {1, 0}},
		fallback: []float32{0, 0},
	}
	r := NewRetriever(store, embedding.NewGateway(encoder), true)

	peanuts, _ := store.Insert(ctx, "allergic to peanuts", types.CategoryPersonal, []float64{1, 0})
	_, _ = store.Insert(ctx, "going to Tokyo", types.CategoryTravel, []float64{0, 1})

	got, err := r.Retrieve(ctx, "am I allergic to peanuts", 1, "")
	if err != nil {
		t.Fatalf("retrieve failed: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected 1 result, got %d", len(got))
	}
	if got[0].ID != peanuts.ID {
		t.Errorf("expected peanuts record first, got %q", got[0].Content)
	}
}

func TestRetrieveExplicitCategoryOverridesInference(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	r := NewRetriever(store, embedding.NewGateway(&fakeEncoder{fallback: []float32{1, 0}}), false)

	_, _ = store.Insert(ctx, "likes Thai food", types.CategoryFood, []float64{1, 0})
	tokyo, _ := store.Insert(ctx, "going to Tokyo", types.CategoryTravel, []float64{1, 0})

	got, err := r.Retrieve(ctx, "what food do I eat", 1, types.CategoryTravel)
	if err != nil {
		t.Fatalf("retrieve failed: %v", err)
	}
	if len(got) != 1 || got[0].ID != tokyo.ID {
		t.Errorf("expected travel record, got %+v", got)
	}
}
