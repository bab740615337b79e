// Package recommend ranks unseen posts for a user by mining an interest
// profile from the posts they have reacted to, backfilled with popular posts
// so a full page can always be served when enough eligible posts exist.
package recommend

import (
	"context"
	"log/slog"
	"sort"

	"github.com/driftline/sieve/keyword"
	"github.com/driftline/sieve/store"
)

// Store is the read-only data access the engine needs.
type Store interface {
	FollowedIDs(ctx context.Context, followerID uint) ([]uint, error)
	ReactedPosts(ctx context.Context, userID uint) ([]store.Post, error)
	CandidatePosts(ctx context.Context, viewerID uint, authorIDs []uint) ([]store.Post, error)
	EligiblePopularPosts(ctx context.Context, viewerID uint, authorIDs, excludeIDs []uint, limit int) ([]store.Post, error)
	PostsByIDs(ctx context.Context, ids []uint) ([]store.Post, error)
}

// MaxResults is the fixed size of a recommendation page.
const MaxResults = 5

// maxInterestKeywords caps the interest profile; keeping several keywords
// rather than one or two gives the ranking some topical diversity.
const maxInterestKeywords = 15

// minWordLen drops one-character words, which carry no topical meaning.
const minWordLen = 2

type Engine struct {
	store  Store
	logger *slog.Logger
}

func NewEngine(st Store, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		store:  st,
		logger: logger.With("system", "recommend"),
	}
}

// Recommend returns up to MaxResults posts for the user, best match first.
// It never returns the user's own posts, posts they already reacted to, or
// (when restrictToFollowed is set and the user follows anyone) posts from
// non-followed authors. Fewer than MaxResults posts come back only when the
// eligible pool is exhausted.
func (e *Engine) Recommend(ctx context.Context, userID uint, restrictToFollowed bool) ([]store.Post, error) {
	var followedIDs []uint
	if restrictToFollowed {
		ids, err := e.store.FollowedIDs(ctx, userID)
		if err != nil {
			return nil, err
		}
		// a user who follows nobody silently gets the unrestricted feed
		if len(ids) == 0 {
			restrictToFollowed = false
		} else {
			followedIDs = ids
		}
	}

	reacted, err := e.store.ReactedPosts(ctx, userID)
	if err != nil {
		return nil, err
	}

	keywords := interestKeywords(reacted)
	if len(keywords) == 0 {
		// No interest signal at all: fall back to the most-reacted-to
		// eligible posts.
		e.logger.Debug("no interest keywords, serving popular posts", "user", userID)
		return e.store.EligiblePopularPosts(ctx, userID, followedIDs, nil, MaxResults)
	}

	candidates, err := e.store.CandidatePosts(ctx, userID, followedIDs)
	if err != nil {
		return nil, err
	}

	type scored struct {
		id    uint
		score int
	}
	var ranked []scored
	for _, post := range candidates {
		if post.Content == "" {
			continue
		}
		words := make(map[string]bool)
		for _, w := range keyword.ExtractAlphaWords(post.Content) {
			words[w] = true
		}
		score := 0
		for _, kw := range keywords {
			if words[kw] {
				score++
			}
		}
		// a candidate sharing no keywords is not relevant, popular or not
		if score > 0 {
			ranked = append(ranked, scored{id: post.ID, score: score})
		}
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].score > ranked[j].score
	})
	if len(ranked) > MaxResults {
		ranked = ranked[:MaxResults]
	}

	selected := make([]uint, 0, MaxResults)
	for _, sc := range ranked {
		selected = append(selected, sc.id)
	}

	if len(selected) < MaxResults {
		exclude := make([]uint, 0, len(selected)+len(reacted))
		exclude = append(exclude, selected...)
		for _, p := range reacted {
			exclude = append(exclude, p.ID)
		}
		backfill, err := e.store.EligiblePopularPosts(ctx, userID, followedIDs, exclude, MaxResults-len(selected))
		if err != nil {
			return nil, err
		}
		for _, p := range backfill {
			selected = append(selected, p.ID)
		}
	}

	posts, err := e.store.PostsByIDs(ctx, selected)
	if err != nil {
		return nil, err
	}
	// preserve selection order: keyword-ranked picks first, then backfill
	byID := make(map[uint]store.Post, len(posts))
	for _, p := range posts {
		byID[p.ID] = p
	}
	out := make([]store.Post, 0, len(selected))
	for _, id := range selected {
		if p, ok := byID[id]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

// interestKeywords mines the most frequent meaningful words from the posts a
// user reacted to. Ties keep first-encounter order, so the result is stable
// for a given reaction history.
func interestKeywords(posts []store.Post) []string {
	counts := make(map[string]int)
	var order []string
	for _, post := range posts {
		if post.Content == "" {
			continue
		}
		for _, w := range keyword.ExtractAlphaWords(post.Content) {
			if len(w) < minWordLen || stopWords[w] {
				continue
			}
			if counts[w] == 0 {
				order = append(order, w)
			}
			counts[w]++
		}
	}
	sort.SliceStable(order, func(i, j int) bool {
		return counts[order[i]] > counts[order[j]]
	})
	if len(order) > maxInterestKeywords {
		order = order[:maxInterestKeywords]
	}
	return order
}
