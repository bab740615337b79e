package store

import (
	"context"
	"fmt"
	"time"
)

// ContentRow is one post or comment joined with its author, as consumed by
// the triage dashboard.
type ContentRow struct {
	ID              uint      `gorm:"column:id" json:"id"`
	Content         string    `gorm:"column:content" json:"content"`
	CreatedAt       time.Time `gorm:"column:created_at" json:"created_at"`
	Username        string    `gorm:"column:username" json:"username"`
	AuthorCreatedAt time.Time `gorm:"column:author_created_at" json:"author_created_at"`
}

// PostRows returns a page of posts with author info, newest id first so
// pagination is consistent before the dashboard re-sorts by risk.
func (s *Store) PostRows(ctx context.Context, limit, offset int) ([]ContentRow, error) {
	var rows []ContentRow
	err := s.db.WithContext(ctx).Model(&Post{}).
		Select("posts.id, posts.content, posts.created_at, users.username, users.created_at AS author_created_at").
		Joins("JOIN users ON users.id = posts.user_id").
		Order("posts.id DESC").
		Limit(limit).Offset(offset).
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("fetching post rows: %w", err)
	}
	return rows, nil
}

// CommentRows is PostRows for comments.
func (s *Store) CommentRows(ctx context.Context, limit, offset int) ([]ContentRow, error) {
	var rows []ContentRow
	err := s.db.WithContext(ctx).Model(&Comment{}).
		Select("comments.id, comments.content, comments.created_at, users.username, users.created_at AS author_created_at").
		Joins("JOIN users ON users.id = comments.user_id").
		Order("comments.id DESC").
		Limit(limit).Offset(offset).
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("fetching comment rows: %w", err)
	}
	return rows, nil
}
