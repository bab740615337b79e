// Package risk aggregates per-user moderation signals into a bounded risk
// score for moderator triage: content violations across bio, posts, and
// comments, weighted by account age, with a penalty for negative community
// reaction sentiment.
package risk

import (
	"context"
	"time"

	"github.com/driftline/sieve/moderation"
	"github.com/driftline/sieve/store"
)

// Store is the read-only data access the assessor needs.
type Store interface {
	GetUser(ctx context.Context, id uint) (*store.User, error)
	ListUsers(ctx context.Context) ([]store.User, error)
	PostsByAuthor(ctx context.Context, userID uint) ([]store.Post, error)
	CommentsByAuthor(ctx context.Context, userID uint) ([]store.Comment, error)
	ReactionsOnAuthorPosts(ctx context.Context, authorID uint) ([]store.Reaction, error)
}

// MaxScore bounds the aggregate risk score.
const MaxScore = 5.0

// Content weights: posts are the primary visible content, so they count
// three times as much as the bio or comments.
const (
	profileWeight = 1.0
	postWeight    = 3.0
	commentWeight = 1.0
	weightTotal   = 5.0
)

// Account-age multipliers. Fresh accounts are scored harsher because
// spammers cycle through new accounts once caught.
const (
	newAccountDays      = 30
	youngAccountDays    = 90
	newAccountFactor    = 1.5
	youngAccountFactor  = 1.2
	matureAccountFactor = 1.0
)

// Sentiment-ratio thresholds and penalties for the negative-engagement
// adjustment. The ratio lives in [-1, 1]; anything at or above -0.3 carries
// no penalty.
const (
	sentimentSevere   = -0.7
	sentimentModerate = -0.5
	sentimentMild     = -0.3

	sentimentSeverePenalty   = 1.0
	sentimentModeratePenalty = 0.5
	sentimentMildPenalty     = 0.3
)

type Assessor struct {
	store Store
	mod   *moderation.Moderator
	now   func() time.Time
}

func NewAssessor(st Store, mod *moderation.Moderator) *Assessor {
	return &Assessor{
		store: st,
		mod:   mod,
		now:   time.Now,
	}
}

// AssessUser computes the aggregate risk score for a user, in [0, MaxScore].
// A user that does not exist carries zero risk.
func (a *Assessor) AssessUser(ctx context.Context, userID uint) (float64, error) {
	u, err := a.store.GetUser(ctx, userID)
	if err != nil {
		return 0, err
	}
	if u == nil {
		return 0, nil
	}

	profileScore := float64(a.mod.Moderate(u.Profile).Score)

	posts, err := a.store.PostsByAuthor(ctx, userID)
	if err != nil {
		return 0, err
	}
	var avgPostScore float64
	if len(posts) > 0 {
		var sum int
		for _, p := range posts {
			sum += a.mod.Moderate(p.Content).Score
		}
		avgPostScore = float64(sum) / float64(len(posts))
	}

	comments, err := a.store.CommentsByAuthor(ctx, userID)
	if err != nil {
		return 0, err
	}
	var avgCommentScore float64
	if len(comments) > 0 {
		var sum int
		for _, c := range comments {
			sum += a.mod.Moderate(c.Content).Score
		}
		avgCommentScore = float64(sum) / float64(len(comments))
	}

	contentRisk := (profileScore*profileWeight + avgPostScore*postWeight + avgCommentScore*commentWeight) / weightTotal
	score := contentRisk * ageMultiplier(a.accountAgeDays(u.CreatedAt))

	reactions, err := a.store.ReactionsOnAuthorPosts(ctx, userID)
	if err != nil {
		return 0, err
	}
	score += sentimentPenalty(reactions)

	if score > MaxScore {
		score = MaxScore
	}
	return score, nil
}

// AssessContent scores a single post or comment for the triage dashboard:
// its moderation score, scaled up when the author account is under a week
// old. Unlike the per-user aggregate, this is deliberately left unclamped;
// the dashboard bands already saturate at HIGH.
func (a *Assessor) AssessContent(text string, authorCreatedAt time.Time) float64 {
	score := float64(a.mod.Moderate(text).Score)
	if a.accountAgeDays(authorCreatedAt) < 7 {
		score *= newAccountFactor
	}
	return score
}

// accountAgeDays measures account age in whole days. A zero creation
// timestamp is treated as "created now", which lands in the harshest age
// band. That quirk is deliberate: an account with no trustworthy creation
// time gets no benefit of the doubt.
func (a *Assessor) accountAgeDays(createdAt time.Time) int {
	if createdAt.IsZero() {
		return 0
	}
	return int(a.now().Sub(createdAt).Hours() / 24)
}

func ageMultiplier(ageDays int) float64 {
	switch {
	case ageDays < newAccountDays:
		return newAccountFactor
	case ageDays < youngAccountDays:
		return youngAccountFactor
	default:
		return matureAccountFactor
	}
}

// sentimentPenalty quantifies how the community reacts to a user's posts.
// Moderation can miss subtle rudeness; other users rarely do, and a wave of
// angry reactions is a strong signal on its own.
func sentimentPenalty(reactions []store.Reaction) float64 {
	if len(reactions) == 0 {
		return 0
	}
	var sum int
	for _, r := range reactions {
		sum += reactionWeight(r.Type)
	}
	ratio := float64(sum) / float64(len(reactions))
	switch {
	case ratio < sentimentSevere:
		return sentimentSeverePenalty
	case ratio < sentimentModerate:
		return sentimentModeratePenalty
	case ratio < sentimentMild:
		return sentimentMildPenalty
	default:
		return 0
	}
}

// reactionWeight maps a reaction type to its sentiment contribution. Angry
// is clearly negative; sad is ambiguous (often empathy, not disapproval) and
// counts as neutral, as do unknown types.
func reactionWeight(reactionType string) int {
	switch reactionType {
	case store.ReactionAngry:
		return -1
	case store.ReactionSad:
		return 0
	case store.ReactionLike, store.ReactionLove, store.ReactionLaugh, store.ReactionWow:
		return 1
	default:
		return 0
	}
}
