// Package search provides the tiered document retrieval used to build chat context.
package search

import (
	"context"
	"sort"

	"go.uber.org/zap"

	"github.com/Brunobgr08/chat-rag-ia/internal/keyword"
	"github.com/Brunobgr08/chat-rag-ia/internal/models"
	"github.com/Brunobgr08/chat-rag-ia/internal/storage"
)

// Heuristic ranks for the fallback tiers. Tier ranks are relative within a
// tier and not comparable across tiers.
const (
	substringRank = 0.7
	recencyRank   = 0.5
)

// Retriever selects and ranks the documents most likely to answer a query.
//
// Three tiers are tried in fixed priority order; a higher tier's non-empty
// result set always wins and tiers are never merged:
//
//  1. full-text ranking over the Bleve index (scores normalized to (0,1]),
//  2. case-insensitive substring match on extracted keywords, rank 0.7,
//  3. most-recently-created documents, rank 0.5.
//
// Failures degrade: an error in one tier falls through to the next, and an
// error in the last tier yields an empty result. The chat pipeline then runs
// with a "no documents" context instead of failing the turn.
type Retriever struct {
	storage storage.DocumentStore
	index   keyword.Index
	logger  *zap.Logger
}

// NewRetriever creates a retriever over the given storage and full-text index.
func NewRetriever(store storage.DocumentStore, index keyword.Index, logger *zap.Logger) *Retriever {
	return &Retriever{storage: store, index: index, logger: logger}
}

// Search returns at most limit ranked documents for query. A non-positive
// limit yields an empty result. Search never returns an error; retrieval
// failures are logged and degrade to lower tiers or an empty result.
func (r *Retriever) Search(ctx context.Context, query string, limit int) []models.RankedDocument {
	if limit <= 0 {
		return nil
	}

	if ranked := r.searchFullText(ctx, query, limit); len(ranked) > 0 {
		return ranked
	}
	if ranked := r.searchSubstring(ctx, query, limit); len(ranked) > 0 {
		return ranked
	}
	return r.searchRecent(ctx, limit)
}

// searchFullText is the primary tier: term-frequency relevance via Bleve.
// Scores are normalized by the top score so the authoritative rank lies in
// (0,1]. Ties break by most-recent created_at.
func (r *Retriever) searchFullText(ctx context.Context, query string, limit int) []models.RankedDocument {
	hits, err := r.index.Search(ctx, query, limit)
	if err != nil {
		r.logger.Warn("full-text search failed, falling back", zap.Error(err))
		return nil
	}
	if len(hits) == 0 {
		return nil
	}

	maxScore := hits[0].Score
	for _, h := range hits {
		if h.Score > maxScore {
			maxScore = h.Score
		}
	}
	if maxScore <= 0 {
		return nil
	}

	ranked := make([]models.RankedDocument, 0, len(hits))
	for _, h := range hits {
		doc, err := r.storage.GetDocument(ctx, h.ID)
		if err != nil {
			// Index and storage can briefly disagree after a delete.
			r.logger.Warn("indexed document missing from storage",
				zap.String("id", h.ID), zap.Error(err))
			continue
		}
		ranked = append(ranked, models.RankedDocument{
			Document: doc,
			Rank:     h.Score / maxScore,
		})
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].Rank != ranked[j].Rank {
			return ranked[i].Rank > ranked[j].Rank
		}
		return ranked[i].Document.CreatedAt.After(ranked[j].Document.CreatedAt)
	})
	return ranked
}

// searchSubstring is the fallback tier: documents containing any query keyword
// as a case-insensitive substring, most recent first, fixed rank 0.7. Skipped
// when the query yields no keywords.
func (r *Retriever) searchSubstring(ctx context.Context, query string, limit int) []models.RankedDocument {
	keywords := ExtractKeywords(query)
	if len(keywords) == 0 {
		return nil
	}
	docs, err := r.storage.SearchContentSubstring(ctx, keywords, limit)
	if err != nil {
		r.logger.Warn("substring search failed, falling back", zap.Error(err))
		return nil
	}
	return fixedRank(docs, substringRank)
}

// searchRecent is the last tier: the limit most-recently-created documents
// with fixed rank 0.5. An empty corpus yields an empty result, not an error.
func (r *Retriever) searchRecent(ctx context.Context, limit int) []models.RankedDocument {
	docs, err := r.storage.ListRecentDocuments(ctx, limit)
	if err != nil {
		r.logger.Warn("recency fallback failed", zap.Error(err))
		return nil
	}
	return fixedRank(docs, recencyRank)
}

func fixedRank(docs []*models.Document, rank float64) []models.RankedDocument {
	if len(docs) == 0 {
		return nil
	}
	ranked := make([]models.RankedDocument, len(docs))
	for i, doc := range docs {
		ranked[i] = models.RankedDocument{Document: doc, Rank: rank}
	}
	return ranked
}
