package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testStore(t *testing.T) *Store {
	db, err := SetupDatabase("sqlite://:memory:", 10)
	require.NoError(t, err)
	s, err := NewStore(db, nil)
	require.NoError(t, err)
	return s
}

func TestCreateUserDuplicate(t *testing.T) {
	assert := assert.New(t)
	s := testStore(t)
	ctx := context.Background()

	u, err := s.CreateUser(ctx, "alice", "hunter2", "hi there")
	require.NoError(t, err)
	assert.NotZero(u.ID)
	assert.NotEqual("hunter2", u.Password)

	_, err = s.CreateUser(ctx, "alice", "other", "")
	assert.ErrorIs(err, ErrUsernameTaken)
}

func TestCheckPassword(t *testing.T) {
	assert := assert.New(t)
	s := testStore(t)
	ctx := context.Background()

	created, err := s.CreateUser(ctx, "alice", "hunter2", "")
	require.NoError(t, err)

	u, err := s.CheckPassword(ctx, "alice", "hunter2")
	assert.NoError(err)
	require.NotNil(t, u)
	assert.Equal(created.ID, u.ID)

	u, err = s.CheckPassword(ctx, "alice", "wrong")
	assert.NoError(err)
	assert.Nil(u)

	u, err = s.CheckPassword(ctx, "nobody", "hunter2")
	assert.NoError(err)
	assert.Nil(u)
}

func TestGetUserMissing(t *testing.T) {
	assert := assert.New(t)
	s := testStore(t)

	u, err := s.GetUser(context.Background(), 999)
	assert.NoError(err)
	assert.Nil(u)
}

func TestReactionUpsert(t *testing.T) {
	assert := assert.New(t)
	s := testStore(t)
	ctx := context.Background()

	author, err := s.CreateUser(ctx, "author", "pw", "")
	require.NoError(t, err)
	viewer, err := s.CreateUser(ctx, "viewer", "pw", "")
	require.NoError(t, err)
	p, err := s.CreatePost(ctx, author.ID, "a post")
	require.NoError(t, err)

	assert.ErrorIs(s.React(ctx, p.ID, viewer.ID, "confetti"), ErrUnknownReactionType)

	require.NoError(t, s.React(ctx, p.ID, viewer.ID, ReactionLike))
	require.NoError(t, s.React(ctx, p.ID, viewer.ID, ReactionLove))

	// the second react replaced the first, it did not pile up
	got, err := s.UserReaction(ctx, p.ID, viewer.ID)
	assert.NoError(err)
	assert.Equal(ReactionLove, got)

	counts, err := s.ReactionCounts(ctx, p.ID)
	assert.NoError(err)
	assert.Equal(map[string]int64{ReactionLove: 1}, counts)

	require.NoError(t, s.Unreact(ctx, p.ID, viewer.ID))
	got, err = s.UserReaction(ctx, p.ID, viewer.ID)
	assert.NoError(err)
	assert.Equal("", got)
}

func TestFollows(t *testing.T) {
	assert := assert.New(t)
	s := testStore(t)
	ctx := context.Background()

	alice, err := s.CreateUser(ctx, "alice", "pw", "")
	require.NoError(t, err)
	bob, err := s.CreateUser(ctx, "bob", "pw", "")
	require.NoError(t, err)

	assert.ErrorIs(s.FollowUser(ctx, alice.ID, alice.ID), ErrSelfFollow)

	require.NoError(t, s.FollowUser(ctx, alice.ID, bob.ID))
	// repeating is a no-op
	require.NoError(t, s.FollowUser(ctx, alice.ID, bob.ID))

	following, err := s.IsFollowing(ctx, alice.ID, bob.ID)
	assert.NoError(err)
	assert.True(following)

	ids, err := s.FollowedIDs(ctx, alice.ID)
	assert.NoError(err)
	assert.Equal([]uint{bob.ID}, ids)

	n, err := s.FollowerCount(ctx, bob.ID)
	assert.NoError(err)
	assert.Equal(int64(1), n)
	n, err = s.FollowingCount(ctx, alice.ID)
	assert.NoError(err)
	assert.Equal(int64(1), n)

	require.NoError(t, s.UnfollowUser(ctx, alice.ID, bob.ID))
	following, err = s.IsFollowing(ctx, alice.ID, bob.ID)
	assert.NoError(err)
	assert.False(following)
}

func TestDeletePostCascade(t *testing.T) {
	assert := assert.New(t)
	s := testStore(t)
	ctx := context.Background()

	author, err := s.CreateUser(ctx, "author", "pw", "")
	require.NoError(t, err)
	other, err := s.CreateUser(ctx, "other", "pw", "")
	require.NoError(t, err)
	p, err := s.CreatePost(ctx, author.ID, "soon gone")
	require.NoError(t, err)
	_, err = s.CreateComment(ctx, p.ID, other.ID, "a comment")
	require.NoError(t, err)
	require.NoError(t, s.React(ctx, p.ID, other.ID, ReactionWow))

	require.NoError(t, s.DeletePost(ctx, p.ID))

	got, err := s.GetPost(ctx, p.ID)
	assert.NoError(err)
	assert.Nil(got)

	comments, err := s.CommentsForPost(ctx, p.ID)
	assert.NoError(err)
	assert.Empty(comments)

	counts, err := s.ReactionCounts(ctx, p.ID)
	assert.NoError(err)
	assert.Empty(counts)
}

func TestDeleteUserCascade(t *testing.T) {
	assert := assert.New(t)
	s := testStore(t)
	ctx := context.Background()

	alice, err := s.CreateUser(ctx, "alice", "pw", "")
	require.NoError(t, err)
	bob, err := s.CreateUser(ctx, "bob", "pw", "")
	require.NoError(t, err)
	ap, err := s.CreatePost(ctx, alice.ID, "alice post")
	require.NoError(t, err)
	bp, err := s.CreatePost(ctx, bob.ID, "bob post")
	require.NoError(t, err)
	_, err = s.CreateComment(ctx, bp.ID, alice.ID, "alice on bob")
	require.NoError(t, err)
	_, err = s.CreateComment(ctx, ap.ID, bob.ID, "bob on alice")
	require.NoError(t, err)
	require.NoError(t, s.React(ctx, ap.ID, bob.ID, ReactionLike))
	require.NoError(t, s.React(ctx, bp.ID, alice.ID, ReactionLike))
	require.NoError(t, s.FollowUser(ctx, alice.ID, bob.ID))
	require.NoError(t, s.FollowUser(ctx, bob.ID, alice.ID))

	require.NoError(t, s.DeleteUser(ctx, alice.ID))

	u, err := s.GetUser(ctx, alice.ID)
	assert.NoError(err)
	assert.Nil(u)

	// alice's post went away with its comments and reactions
	got, err := s.GetPost(ctx, ap.ID)
	assert.NoError(err)
	assert.Nil(got)
	comments, err := s.CommentsForPost(ctx, ap.ID)
	assert.NoError(err)
	assert.Empty(comments)

	// alice's traces on bob's content are gone, bob's post survives
	got, err = s.GetPost(ctx, bp.ID)
	assert.NoError(err)
	require.NotNil(t, got)
	comments, err = s.CommentsForPost(ctx, bp.ID)
	assert.NoError(err)
	assert.Empty(comments)
	counts, err := s.ReactionCounts(ctx, bp.ID)
	assert.NoError(err)
	assert.Empty(counts)

	ids, err := s.FollowedIDs(ctx, bob.ID)
	assert.NoError(err)
	assert.Empty(ids)
}

func TestPopularPosts(t *testing.T) {
	assert := assert.New(t)
	s := testStore(t)
	ctx := context.Background()

	author, err := s.CreateUser(ctx, "author", "pw", "")
	require.NoError(t, err)
	fans := make([]*User, 3)
	for i, name := range []string{"fan1", "fan2", "fan3"} {
		fans[i], err = s.CreateUser(ctx, name, "pw", "")
		require.NoError(t, err)
	}

	quiet, err := s.CreatePost(ctx, author.ID, "quiet")
	require.NoError(t, err)
	hit, err := s.CreatePost(ctx, author.ID, "hit")
	require.NoError(t, err)
	mid, err := s.CreatePost(ctx, author.ID, "mid")
	require.NoError(t, err)

	for _, f := range fans {
		require.NoError(t, s.React(ctx, hit.ID, f.ID, ReactionLove))
	}
	require.NoError(t, s.React(ctx, mid.ID, fans[0].ID, ReactionLike))

	posts, err := s.PopularPosts(ctx, nil, 10, 0)
	require.NoError(t, err)
	require.Len(t, posts, 3)
	assert.Equal(hit.ID, posts[0].ID)
	assert.Equal(int64(3), posts[0].ReactionCount)
	assert.Equal(mid.ID, posts[1].ID)
	assert.Equal(quiet.ID, posts[2].ID)
	assert.Equal(int64(0), posts[2].ReactionCount)
}

func TestEligiblePopularPosts(t *testing.T) {
	assert := assert.New(t)
	s := testStore(t)
	ctx := context.Background()

	author, err := s.CreateUser(ctx, "author", "pw", "")
	require.NoError(t, err)
	viewer, err := s.CreateUser(ctx, "viewer", "pw", "")
	require.NoError(t, err)

	own, err := s.CreatePost(ctx, viewer.ID, "viewer's own")
	require.NoError(t, err)
	first, err := s.CreatePost(ctx, author.ID, "first")
	require.NoError(t, err)
	second, err := s.CreatePost(ctx, author.ID, "second")
	require.NoError(t, err)
	require.NoError(t, s.React(ctx, first.ID, viewer.ID, ReactionLike))

	// own post never shows up; explicit exclusions are honored
	posts, err := s.EligiblePopularPosts(ctx, viewer.ID, nil, []uint{first.ID}, 10)
	require.NoError(t, err)
	require.Len(t, posts, 1)
	assert.Equal(second.ID, posts[0].ID)
	assert.NotEqual(own.ID, posts[0].ID)
}

func TestCandidateAndReactedPosts(t *testing.T) {
	assert := assert.New(t)
	s := testStore(t)
	ctx := context.Background()

	author, err := s.CreateUser(ctx, "author", "pw", "")
	require.NoError(t, err)
	viewer, err := s.CreateUser(ctx, "viewer", "pw", "")
	require.NoError(t, err)

	_, err = s.CreatePost(ctx, viewer.ID, "viewer's own")
	require.NoError(t, err)
	liked, err := s.CreatePost(ctx, author.ID, "liked one")
	require.NoError(t, err)
	fresh, err := s.CreatePost(ctx, author.ID, "fresh one")
	require.NoError(t, err)
	require.NoError(t, s.React(ctx, liked.ID, viewer.ID, ReactionLike))

	reacted, err := s.ReactedPosts(ctx, viewer.ID)
	require.NoError(t, err)
	require.Len(t, reacted, 1)
	assert.Equal(liked.ID, reacted[0].ID)

	candidates, err := s.CandidatePosts(ctx, viewer.ID, nil)
	require.NoError(t, err)
	require.Len(t, candidates, 1)
	assert.Equal(fresh.ID, candidates[0].ID)

	// restricting to authors the viewer follows
	candidates, err = s.CandidatePosts(ctx, viewer.ID, []uint{author.ID + 100})
	require.NoError(t, err)
	assert.Empty(candidates)
}

func TestRecentPostsPaging(t *testing.T) {
	assert := assert.New(t)
	s := testStore(t)
	ctx := context.Background()

	u, err := s.CreateUser(ctx, "writer", "pw", "")
	require.NoError(t, err)
	for i := 0; i < 4; i++ {
		_, err = s.CreatePost(ctx, u.ID, "post")
		require.NoError(t, err)
	}

	page, err := s.RecentPosts(ctx, nil, 3, 0)
	require.NoError(t, err)
	assert.Len(page, 3)
	page, err = s.RecentPosts(ctx, nil, 3, 3)
	require.NoError(t, err)
	assert.Len(page, 1)

	// author restriction
	page, err = s.RecentPosts(ctx, []uint{u.ID + 100}, 10, 0)
	require.NoError(t, err)
	assert.Empty(page)
}

func TestContentRows(t *testing.T) {
	assert := assert.New(t)
	s := testStore(t)
	ctx := context.Background()

	u, err := s.CreateUser(ctx, "writer", "pw", "")
	require.NoError(t, err)
	p, err := s.CreatePost(ctx, u.ID, "the post body")
	require.NoError(t, err)
	_, err = s.CreateComment(ctx, p.ID, u.ID, "the comment body")
	require.NoError(t, err)

	rows, err := s.PostRows(ctx, 10, 0)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal("the post body", rows[0].Content)
	assert.Equal("writer", rows[0].Username)

	rows, err = s.CommentRows(ctx, 10, 0)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal("the comment body", rows[0].Content)
	assert.Equal("writer", rows[0].Username)
}
