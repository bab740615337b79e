package recommend

import (
	"context"
	"sort"
	"testing"

	"github.com/driftline/sieve/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeStore applies the same eligibility filters as the SQL queries it
// stands in for: own posts excluded, reacted posts excluded, author
// restriction applied when a non-empty author set is passed.
type fakeStore struct {
	posts     []store.Post
	follows   map[uint][]uint
	reacted   map[uint][]store.Post
	popCounts map[uint]int64
}

func (f *fakeStore) FollowedIDs(ctx context.Context, followerID uint) ([]uint, error) {
	return f.follows[followerID], nil
}

func (f *fakeStore) ReactedPosts(ctx context.Context, userID uint) ([]store.Post, error) {
	return f.reacted[userID], nil
}

func (f *fakeStore) eligible(viewerID uint, authorIDs []uint) []store.Post {
	reactedIDs := make(map[uint]bool)
	for _, p := range f.reacted[viewerID] {
		reactedIDs[p.ID] = true
	}
	authors := make(map[uint]bool)
	for _, id := range authorIDs {
		authors[id] = true
	}
	var out []store.Post
	for _, p := range f.posts {
		if p.UserID == viewerID || reactedIDs[p.ID] {
			continue
		}
		if len(authorIDs) > 0 && !authors[p.UserID] {
			continue
		}
		out = append(out, p)
	}
	return out
}

func (f *fakeStore) CandidatePosts(ctx context.Context, viewerID uint, authorIDs []uint) ([]store.Post, error) {
	out := f.eligible(viewerID, authorIDs)
	sort.SliceStable(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeStore) EligiblePopularPosts(ctx context.Context, viewerID uint, authorIDs, excludeIDs []uint, limit int) ([]store.Post, error) {
	excluded := make(map[uint]bool)
	for _, id := range excludeIDs {
		excluded[id] = true
	}
	var out []store.Post
	for _, p := range f.eligible(viewerID, authorIDs) {
		if !excluded[p.ID] {
			out = append(out, p)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return f.popCounts[out[i].ID] > f.popCounts[out[j].ID]
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakeStore) PostsByIDs(ctx context.Context, ids []uint) ([]store.Post, error) {
	want := make(map[uint]bool)
	for _, id := range ids {
		want[id] = true
	}
	var out []store.Post
	for _, p := range f.posts {
		if want[p.ID] {
			out = append(out, p)
		}
	}
	return out, nil
}

func post(id, author uint, content string) store.Post {
	return store.Post{ID: id, UserID: author, Content: content}
}

func postIDs(posts []store.Post) []uint {
	out := make([]uint, len(posts))
	for i, p := range posts {
		out[i] = p.ID
	}
	return out
}

func TestRecommendKeywordRanking(t *testing.T) {
	assert := assert.New(t)
	fs := &fakeStore{
		posts: []store.Post{
			post(1, 2, "gardening tips and tomato care"),
			post(10, 2, "tomato gardening compost soil"), // 2 keyword hits
			post(11, 3, "gardening weekend"),             // 1 hit
			post(12, 3, "stock market news"),             // 0 hits
			post(13, 4, "compost gardening tomato"),      // 2 hits
			post(14, 4, "soil science"),                  // 0 hits
		},
		reacted: map[uint][]store.Post{
			1: {post(1, 2, "gardening tips and tomato care")},
		},
	}
	eng := NewEngine(fs, nil)

	got, err := eng.Recommend(context.Background(), 1, false)
	require.NoError(t, err)

	// reacted post 1 never comes back; keyword matches first (ties by id),
	// zero-score posts only reachable through backfill
	assert.Equal([]uint{10, 13, 11, 12, 14}, postIDs(got))
}

func TestRecommendExcludesOwnPosts(t *testing.T) {
	assert := assert.New(t)
	fs := &fakeStore{
		posts: []store.Post{
			post(1, 2, "gardening advice"),
			post(2, 1, "gardening post by the viewer"),
			post(3, 3, "gardening thread"),
		},
		reacted: map[uint][]store.Post{
			1: {post(1, 2, "gardening advice")},
		},
	}
	eng := NewEngine(fs, nil)

	got, err := eng.Recommend(context.Background(), 1, false)
	require.NoError(t, err)
	assert.Equal([]uint{3}, postIDs(got))
}

func TestRecommendPopularFallback(t *testing.T) {
	assert := assert.New(t)
	// no reactions means no interest profile; serve by popularity
	fs := &fakeStore{
		posts: []store.Post{
			post(1, 2, "first"),
			post(2, 3, "second"),
			post(3, 4, "third"),
		},
		popCounts: map[uint]int64{1: 1, 2: 9, 3: 4},
	}
	eng := NewEngine(fs, nil)

	got, err := eng.Recommend(context.Background(), 1, false)
	require.NoError(t, err)
	assert.Equal([]uint{2, 3, 1}, postIDs(got))
}

func TestRecommendBackfill(t *testing.T) {
	assert := assert.New(t)
	fs := &fakeStore{
		posts: []store.Post{
			post(1, 2, "gardening is great"),
			post(2, 2, "gardening all weekend"), // the only keyword match
			post(3, 3, "cooking pasta"),
			post(4, 3, "music recommendations"),
			post(5, 4, "travel photos"),
			post(6, 4, "random thoughts"),
			post(7, 4, "more filler"),
		},
		reacted: map[uint][]store.Post{
			1: {post(1, 2, "gardening is great")},
		},
		popCounts: map[uint]int64{3: 2, 4: 7, 5: 5, 6: 1, 7: 0},
	}
	eng := NewEngine(fs, nil)

	got, err := eng.Recommend(context.Background(), 1, false)
	require.NoError(t, err)

	// keyword match first, then popular backfill, no duplicates, no reacted
	assert.Equal([]uint{2, 4, 5, 3, 6}, postIDs(got))
	assert.Len(got, MaxResults)
}

func TestRecommendRestrictToFollowed(t *testing.T) {
	assert := assert.New(t)
	fs := &fakeStore{
		posts: []store.Post{
			post(1, 2, "gardening inspiration"),
			post(2, 2, "gardening fails"),
			post(3, 3, "gardening wins"),
		},
		follows: map[uint][]uint{1: {2}},
		reacted: map[uint][]store.Post{
			1: {post(1, 2, "gardening inspiration")},
		},
	}
	eng := NewEngine(fs, nil)

	got, err := eng.Recommend(context.Background(), 1, true)
	require.NoError(t, err)
	assert.Equal([]uint{2}, postIDs(got))
}

func TestRecommendEmptyFollowsFallsBack(t *testing.T) {
	assert := assert.New(t)
	// following nobody must not mean an empty feed
	fs := &fakeStore{
		posts: []store.Post{
			post(1, 2, "gardening inspiration"),
			post(2, 3, "gardening fails"),
		},
		follows: map[uint][]uint{},
		reacted: map[uint][]store.Post{
			1: {post(1, 2, "gardening inspiration")},
		},
	}
	eng := NewEngine(fs, nil)

	got, err := eng.Recommend(context.Background(), 1, true)
	require.NoError(t, err)
	assert.Equal([]uint{2}, postIDs(got))
}

func TestRecommendPoolSmallerThanPage(t *testing.T) {
	assert := assert.New(t)
	fs := &fakeStore{
		posts: []store.Post{
			post(1, 2, "gardening"),
			post(2, 3, "gardening"),
		},
		reacted: map[uint][]store.Post{
			1: {post(1, 2, "gardening")},
		},
	}
	eng := NewEngine(fs, nil)

	got, err := eng.Recommend(context.Background(), 1, false)
	require.NoError(t, err)
	assert.Len(got, 1)
}

func TestInterestKeywords(t *testing.T) {
	assert := assert.New(t)

	posts := []store.Post{
		{Content: "gardening tomato gardening"},
		{Content: "tomato soil the and I a"},
		{Content: "compost"},
	}
	// frequency order, stop words and one-letter words dropped,
	// ties keep first-encounter order
	assert.Equal([]string{"gardening", "tomato", "soil", "compost"}, interestKeywords(posts))

	assert.Nil(interestKeywords(nil))
	assert.Nil(interestKeywords([]store.Post{{Content: "the and of"}}))
}

func TestInterestKeywordsCap(t *testing.T) {
	assert := assert.New(t)

	words := []string{
		"alpha", "bravo", "charlie", "delta", "echo", "foxtrot", "golf",
		"hotel", "india", "juliet", "kilo", "lima", "mike", "november",
		"oscar", "papa", "quebec",
	}
	var content string
	for _, w := range words {
		content += w + " "
	}
	got := interestKeywords([]store.Post{{Content: content}})
	assert.Len(got, maxInterestKeywords)
}
