package engine

import (
	"context"
	"log"
	"sort"
	"strings"

	"github.com/scrypster/recall/internal/embedding"
	"github.com/scrypster/recall/internal/storage"
	"github.com/scrypster/recall/pkg/types"
)

// categoryKeywords are substring hints used to guess which category a query
// is about before touching embeddings.
var categoryKeywords = map[types.Category][]string{
	types.CategoryFood:     {"food", "eat", "meal", "restaurant", "cook", "recipe", "allergic", "like", "love", "hate", "vegan", "vegetarian", "diet"},
	types.CategoryTravel:   {"travel", "trip", "flight", "hotel", "visit", "going to", "vacation", "city", "country", "destination"},
	types.CategoryPersonal: {"name", "work", "job", "family", "pet", "dog", "cat", "home", "live", "from", "birthday", "age"},
}

// InferCategory scores each category by how many of its keywords appear in
// the query. The strictly highest score wins; a tie or an all-zero result
// returns the empty category, meaning no category filter.
func InferCategory(query string) types.Category {
	q := strings.ToLower(query)

	var best types.Category
	bestScore := 0
	tied := false

	for _, cat := range types.Categories {
		keywords, ok := categoryKeywords[cat]
		if !ok {
			continue
		}
		score := 0
		for _, kw := range keywords {
			if strings.Contains(q, kw) {
				score++
			}
		}
		switch {
		case score > bestScore:
			best = cat
			bestScore = score
			tied = false
		case score == bestScore && score > 0:
			tied = true
		}
	}

	if bestScore == 0 || tied {
		return ""
	}
	return best
}

// Retriever performs category-aware retrieval over the record store:
// category candidates first, global fallback when the category is sparse,
// then cosine ranking against the (optionally centroid-refined) query
// embedding.
type Retriever struct {
	store   storage.RecordStore
	gateway *embedding.Gateway
	refine  bool
}

// NewRetriever creates a retriever. When refine is true the query embedding
// is nudged toward the candidate centroid before ranking.
func NewRetriever(store storage.RecordStore, gateway *embedding.Gateway, refine bool) *Retriever {
	return &Retriever{store: store, gateway: gateway, refine: refine}
}

// Retrieve returns up to topK records relevant to the query, best first.
// Pass an empty category to infer one from the query.
func (r *Retriever) Retrieve(ctx context.Context, query string, topK int, category types.Category) ([]types.MemoryRecord, error) {
	if topK <= 0 {
		return nil, nil
	}

	if category == "" {
		category = InferCategory(query)
	}

	var candidates []types.MemoryRecord
	if category.IsValid() {
		var err error
		candidates, err = r.store.ByCategory(ctx, category)
		if err != nil {
			return nil, err
		}
	}

	// A sparse category falls back to the whole store, keeping category
	// matches in front so they survive truncation.
	if len(candidates) < topK {
		all, err := r.store.All(ctx)
		if err != nil {
			return nil, err
		}
		seen := make(map[string]bool, len(candidates))
		for i := range candidates {
			seen[candidates[i].ID] = true
		}
		for i := range all {
			if !seen[all[i].ID] {
				seen[all[i].ID] = true
				candidates = append(candidates, all[i])
			}
		}
	}

	if len(candidates) == 0 {
		return nil, nil
	}

	withEmb := candidates[:0:0]
	for i := range candidates {
		if candidates[i].HasEmbedding() {
			withEmb = append(withEmb, candidates[i])
		}
	}

	// Records stored without vectors are still retrievable; ranking is
	// just skipped.
	if len(withEmb) == 0 {
		return truncate(candidates, topK), nil
	}

	queryEmb, err := r.gateway.Embed(ctx, query)
	if err != nil || len(queryEmb) == 0 {
		if err != nil {
			log.Printf("retrieval: query embedding failed, returning unranked candidates: %v", err)
		}
		return truncate(candidates, topK), nil
	}

	if r.refine {
		vectors := make([][]float64, len(withEmb))
		for i := range withEmb {
			vectors[i] = withEmb[i].Embedding
		}
		queryEmb = embedding.RefineTowardCentroid(queryEmb, vectors, embedding.DefaultRefineAlpha)
	}

	scores := make([]float64, len(withEmb))
	for i := range withEmb {
		scores[i] = embedding.CosineSimilarity(queryEmb, withEmb[i].Embedding)
	}

	order := make([]int, len(withEmb))
	for i := range order {
		order[i] = i
	}
	// Stable sort keeps candidate order (category-first, then
	// chronological) for equal scores.
	sort.SliceStable(order, func(a, b int) bool {
		return scores[order[a]] > scores[order[b]]
	})

	ranked := make([]types.MemoryRecord, 0, len(order))
	for _, idx := range order {
		ranked = append(ranked, withEmb[idx])
	}
	return truncate(ranked, topK), nil
}

func truncate(records []types.MemoryRecord, n int) []types.MemoryRecord {
	if len(records) > n {
		return records[:n]
	}
	return records
}
