package store

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm/clause"
)

var ErrSelfFollow = errors.New("users cannot follow themselves")

// FollowUser creates a follow edge. Duplicate attempts are no-ops rather
// than errors.
func (s *Store) FollowUser(ctx context.Context, followerID, followedID uint) error {
	if followerID == followedID {
		return ErrSelfFollow
	}
	f := Follow{FollowerID: followerID, FollowedID: followedID}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&f).Error
	if err != nil {
		return fmt.Errorf("creating follow edge: %w", err)
	}
	return nil
}

func (s *Store) UnfollowUser(ctx context.Context, followerID, followedID uint) error {
	err := s.db.WithContext(ctx).
		Where("follower_id = ? AND followed_id = ?", followerID, followedID).
		Delete(&Follow{}).Error
	if err != nil {
		return fmt.Errorf("removing follow edge: %w", err)
	}
	return nil
}

func (s *Store) IsFollowing(ctx context.Context, followerID, followedID uint) (bool, error) {
	var n int64
	err := s.db.WithContext(ctx).Model(&Follow{}).
		Where("follower_id = ? AND followed_id = ?", followerID, followedID).
		Count(&n).Error
	if err != nil {
		return false, fmt.Errorf("checking follow edge: %w", err)
	}
	return n > 0, nil
}

// FollowedIDs returns the ids of every user the given user follows.
func (s *Store) FollowedIDs(ctx context.Context, followerID uint) ([]uint, error) {
	var ids []uint
	err := s.db.WithContext(ctx).Model(&Follow{}).
		Where("follower_id = ?", followerID).
		Pluck("followed_id", &ids).Error
	if err != nil {
		return nil, fmt.Errorf("fetching followed ids for user %d: %w", followerID, err)
	}
	return ids, nil
}

func (s *Store) FollowerCount(ctx context.Context, userID uint) (int64, error) {
	var n int64
	err := s.db.WithContext(ctx).Model(&Follow{}).Where("followed_id = ?", userID).Count(&n).Error
	if err != nil {
		return 0, fmt.Errorf("counting followers of user %d: %w", userID, err)
	}
	return n, nil
}

func (s *Store) FollowingCount(ctx context.Context, userID uint) (int64, error) {
	var n int64
	err := s.db.WithContext(ctx).Model(&Follow{}).Where("follower_id = ?", userID).Count(&n).Error
	if err != nil {
		return 0, fmt.Errorf("counting follows of user %d: %w", userID, err)
	}
	return n, nil
}
