package store

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
)

func (s *Store) CreateComment(ctx context.Context, postID, userID uint, content string) (*Comment, error) {
	c := Comment{PostID: postID, UserID: userID, Content: content}
	if err := s.db.WithContext(ctx).Create(&c).Error; err != nil {
		return nil, fmt.Errorf("creating comment: %w", err)
	}
	return &c, nil
}

// GetComment returns nil when the comment does not exist.
func (s *Store) GetComment(ctx context.Context, id uint) (*Comment, error) {
	var c Comment
	if err := s.db.WithContext(ctx).First(&c, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("fetching comment %d: %w", id, err)
	}
	return &c, nil
}

func (s *Store) DeleteComment(ctx context.Context, id uint) error {
	if err := s.db.WithContext(ctx).Delete(&Comment{}, id).Error; err != nil {
		return fmt.Errorf("deleting comment %d: %w", id, err)
	}
	return nil
}

func (s *Store) CommentsByAuthor(ctx context.Context, userID uint) ([]Comment, error) {
	var comments []Comment
	if err := s.db.WithContext(ctx).Where("user_id = ?", userID).Order("created_at DESC").Find(&comments).Error; err != nil {
		return nil, fmt.Errorf("fetching comments for user %d: %w", userID, err)
	}
	return comments, nil
}

func (s *Store) CommentsForPost(ctx context.Context, postID uint) ([]Comment, error) {
	var comments []Comment
	if err := s.db.WithContext(ctx).Where("post_id = ?", postID).Order("created_at ASC").Find(&comments).Error; err != nil {
		return nil, fmt.Errorf("fetching comments for post %d: %w", postID, err)
	}
	return comments, nil
}

func (s *Store) CountComments(ctx context.Context) (int64, error) {
	var n int64
	if err := s.db.WithContext(ctx).Model(&Comment{}).Count(&n).Error; err != nil {
		return 0, fmt.Errorf("counting comments: %w", err)
	}
	return n, nil
}
