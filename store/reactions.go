package store

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm/clause"
)

var ErrUnknownReactionType = errors.New("unknown reaction type")

// React records a user's reaction to a post. Re-reacting overwrites the
// reaction type in place; the ON CONFLICT clause makes the upsert atomic for
// the (post, user) pair.
func (s *Store) React(ctx context.Context, postID, userID uint, reactionType string) error {
	if !IsKnownReactionType(reactionType) {
		return fmt.Errorf("%w: %q", ErrUnknownReactionType, reactionType)
	}
	r := Reaction{PostID: postID, UserID: userID, Type: reactionType}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "post_id"}, {Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"reaction_type"}),
	}).Create(&r).Error
	if err != nil {
		return fmt.Errorf("recording reaction: %w", err)
	}
	return nil
}

// Unreact removes a user's reaction from a post, if any.
func (s *Store) Unreact(ctx context.Context, postID, userID uint) error {
	err := s.db.WithContext(ctx).
		Where("post_id = ? AND user_id = ?", postID, userID).
		Delete(&Reaction{}).Error
	if err != nil {
		return fmt.Errorf("removing reaction: %w", err)
	}
	return nil
}

// UserReaction returns the viewer's reaction type on a post, or "" if none.
func (s *Store) UserReaction(ctx context.Context, postID, userID uint) (string, error) {
	var types []string
	err := s.db.WithContext(ctx).Model(&Reaction{}).
		Where("post_id = ? AND user_id = ?", postID, userID).
		Limit(1).Pluck("reaction_type", &types).Error
	if err != nil {
		return "", fmt.Errorf("fetching reaction: %w", err)
	}
	if len(types) == 0 {
		return "", nil
	}
	return types[0], nil
}

// ReactionCounts returns per-type reaction tallies for a post.
func (s *Store) ReactionCounts(ctx context.Context, postID uint) (map[string]int64, error) {
	var rows []struct {
		Type  string `gorm:"column:reaction_type"`
		Count int64
	}
	err := s.db.WithContext(ctx).Model(&Reaction{}).
		Select("reaction_type, COUNT(*) AS count").
		Where("post_id = ?", postID).
		Group("reaction_type").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("counting reactions for post %d: %w", postID, err)
	}
	counts := make(map[string]int64, len(rows))
	for _, row := range rows {
		counts[row.Type] = row.Count
	}
	return counts, nil
}

// ReactionsOnAuthorPosts returns every reaction other users have left on the
// given author's posts, for sentiment analysis.
func (s *Store) ReactionsOnAuthorPosts(ctx context.Context, authorID uint) ([]Reaction, error) {
	var reactions []Reaction
	err := s.db.WithContext(ctx).
		Joins("JOIN posts ON posts.id = reactions.post_id").
		Where("posts.user_id = ?", authorID).
		Find(&reactions).Error
	if err != nil {
		return nil, fmt.Errorf("fetching reactions on posts of user %d: %w", authorID, err)
	}
	return reactions, nil
}
