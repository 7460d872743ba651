package services

import (
	"context"

	"postly/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// FollowService reads and writes the user_follows table. Followers and
// following are two views of the same rows, so they cannot drift apart.
type FollowService struct {
	db *gorm.DB
}

func NewFollowService(db *gorm.DB) *FollowService {
	return &FollowService{db: db}
}

// IsFollowing reports whether followerID follows followeeID. A nil follower is anonymous.
func (s *FollowService) IsFollowing(ctx context.Context, followerID *uint, followeeID uint) (bool, error) {
	if followerID == nil {
		return false, nil
	}
	var count int64
	err := s.db.WithContext(ctx).Model(&models.Follow{}).
		Where("follower_id = ? AND followee_id = ?", *followerID, followeeID).
		Count(&count).Error
	if err != nil {
		return false, storeErr("is following", err)
	}
	return count > 0, nil
}

// Toggle follows or unfollows and returns whether the edge now exists.
func (s *FollowService) Toggle(ctx context.Context, followerID, followeeID uint) (bool, error) {
	if followerID == followeeID {
		return false, ErrSelfFollow
	}

	var following bool
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var n int64
		if err := tx.Model(&models.User{}).Where("id = ?", followeeID).Count(&n).Error; err != nil {
			return storeErr("find user", err)
		}
		if n == 0 {
			return ErrNotFound
		}

		var count int64
		if err := tx.Model(&models.Follow{}).
			Where("follower_id = ? AND followee_id = ?", followerID, followeeID).
			Count(&count).Error; err != nil {
			return storeErr("find follow", err)
		}
		if count > 0 {
			following = false
			return storeErr("unfollow", tx.Where("follower_id = ? AND followee_id = ?", followerID, followeeID).
				Delete(&models.Follow{}).Error)
		}
		following = true
		edge := &models.Follow{FollowerID: followerID, FolloweeID: followeeID}
		return storeErr("follow", tx.Omit(clause.Associations).Clauses(clause.OnConflict{DoNothing: true}).Create(edge).Error)
	})
	if err != nil {
		return false, err
	}
	return following, nil
}

type FollowCounts struct {
	Followers int64
	Following int64
}

func (s *FollowService) Counts(ctx context.Context, userID uint) (FollowCounts, error) {
	var c FollowCounts
	if err := s.db.WithContext(ctx).Model(&models.Follow{}).Where("followee_id = ?", userID).Count(&c.Followers).Error; err != nil {
		return c, storeErr("count followers", err)
	}
	if err := s.db.WithContext(ctx).Model(&models.Follow{}).Where("follower_id = ?", userID).Count(&c.Following).Error; err != nil {
		return c, storeErr("count following", err)
	}
	return c, nil
}
