package store

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
)

func (s *Store) CreatePost(ctx context.Context, userID uint, content string) (*Post, error) {
	p := Post{UserID: userID, Content: content}
	if err := s.db.WithContext(ctx).Create(&p).Error; err != nil {
		return nil, fmt.Errorf("creating post: %w", err)
	}
	return &p, nil
}

// GetPost returns nil when the post does not exist.
func (s *Store) GetPost(ctx context.Context, id uint) (*Post, error) {
	var p Post
	if err := s.db.WithContext(ctx).First(&p, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("fetching post %d: %w", id, err)
	}
	return &p, nil
}

// DeletePost removes a post along with its comments and reactions, in one
// transaction so a failure leaves no orphans.
func (s *Store) DeletePost(ctx context.Context, id uint) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("post_id = ?", id).Delete(&Comment{}).Error; err != nil {
			return err
		}
		if err := tx.Where("post_id = ?", id).Delete(&Reaction{}).Error; err != nil {
			return err
		}
		return tx.Delete(&Post{}, id).Error
	})
	if err != nil {
		return fmt.Errorf("deleting post %d: %w", id, err)
	}
	return nil
}

func (s *Store) PostsByAuthor(ctx context.Context, userID uint) ([]Post, error) {
	var posts []Post
	if err := s.db.WithContext(ctx).Where("user_id = ?", userID).Order("created_at DESC").Find(&posts).Error; err != nil {
		return nil, fmt.Errorf("fetching posts for user %d: %w", userID, err)
	}
	return posts, nil
}

// RecentPosts is the newest-first feed page. A non-empty authorIDs restricts
// to those authors (the "following" feed).
func (s *Store) RecentPosts(ctx context.Context, authorIDs []uint, limit, offset int) ([]Post, error) {
	q := s.db.WithContext(ctx).Order("created_at DESC").Limit(limit).Offset(offset)
	if len(authorIDs) > 0 {
		q = q.Where("user_id IN ?", authorIDs)
	}
	var posts []Post
	if err := q.Find(&posts).Error; err != nil {
		return nil, fmt.Errorf("fetching recent posts: %w", err)
	}
	return posts, nil
}

// PopularPosts is the reaction-count-ranked feed page.
func (s *Store) PopularPosts(ctx context.Context, authorIDs []uint, limit, offset int) ([]Post, error) {
	q := s.db.WithContext(ctx).Model(&Post{}).
		Select("posts.*, COUNT(reactions.id) AS reaction_count").
		Joins("LEFT JOIN reactions ON reactions.post_id = posts.id").
		Group("posts.id").
		Order("reaction_count DESC, posts.created_at DESC").
		Limit(limit).Offset(offset)
	if len(authorIDs) > 0 {
		q = q.Where("posts.user_id IN ?", authorIDs)
	}
	var posts []Post
	if err := q.Find(&posts).Error; err != nil {
		return nil, fmt.Errorf("fetching popular posts: %w", err)
	}
	return posts, nil
}

// EligiblePopularPosts ranks posts by total reaction count for
// recommendation fallback and backfill: never the viewer's own posts,
// optionally restricted to the given authors, minus explicit exclusions.
func (s *Store) EligiblePopularPosts(ctx context.Context, viewerID uint, authorIDs, excludeIDs []uint, limit int) ([]Post, error) {
	q := s.db.WithContext(ctx).Model(&Post{}).
		Select("posts.*, COUNT(reactions.id) AS reaction_count").
		Joins("LEFT JOIN reactions ON reactions.post_id = posts.id").
		Where("posts.user_id <> ?", viewerID).
		Group("posts.id").
		Order("reaction_count DESC").
		Limit(limit)
	if len(authorIDs) > 0 {
		q = q.Where("posts.user_id IN ?", authorIDs)
	}
	if len(excludeIDs) > 0 {
		q = q.Where("posts.id NOT IN ?", excludeIDs)
	}
	var posts []Post
	if err := q.Find(&posts).Error; err != nil {
		return nil, fmt.Errorf("fetching popular posts for user %d: %w", viewerID, err)
	}
	return posts, nil
}

// ReactedPosts returns the distinct posts a user has reacted to, regardless
// of reaction type.
func (s *Store) ReactedPosts(ctx context.Context, userID uint) ([]Post, error) {
	var posts []Post
	err := s.db.WithContext(ctx).Model(&Post{}).Distinct("posts.*").
		Joins("JOIN reactions ON reactions.post_id = posts.id").
		Where("reactions.user_id = ?", userID).
		Find(&posts).Error
	if err != nil {
		return nil, fmt.Errorf("fetching reacted posts for user %d: %w", userID, err)
	}
	return posts, nil
}

// CandidatePosts returns posts eligible for recommendation scoring: not
// authored by the viewer, not already reacted to by the viewer, and (when
// authorIDs is non-empty) only from those authors.
func (s *Store) CandidatePosts(ctx context.Context, viewerID uint, authorIDs []uint) ([]Post, error) {
	reacted := s.db.Model(&Reaction{}).Select("post_id").Where("user_id = ?", viewerID)
	q := s.db.WithContext(ctx).
		Where("user_id <> ?", viewerID).
		Where("id NOT IN (?)", reacted).
		Order("id ASC")
	if len(authorIDs) > 0 {
		q = q.Where("user_id IN ?", authorIDs)
	}
	var posts []Post
	if err := q.Find(&posts).Error; err != nil {
		return nil, fmt.Errorf("fetching candidate posts for user %d: %w", viewerID, err)
	}
	return posts, nil
}

func (s *Store) PostsByIDs(ctx context.Context, ids []uint) ([]Post, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var posts []Post
	if err := s.db.WithContext(ctx).Where("id IN ?", ids).Find(&posts).Error; err != nil {
		return nil, fmt.Errorf("fetching posts by id: %w", err)
	}
	return posts, nil
}

func (s *Store) CountPosts(ctx context.Context) (int64, error) {
	var n int64
	if err := s.db.WithContext(ctx).Model(&Post{}).Count(&n).Error; err != nil {
		return 0, fmt.Errorf("counting posts: %w", err)
	}
	return n, nil
}
