package storage

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"chatgo/internal/models"
	"chatgo/internal/social"
)

// FriendshipRepository defines the interface for friendship data operations.
type FriendshipRepository interface {
	// CreateIfAbsent inserts the friendship row for the canonical pair unless
	// it already exists. Safe under concurrent accepts of cross requests.
	CreateIfAbsent(ctx context.Context, friendship *models.Friendship) error
	AreUsersFriends(ctx context.Context, userID1, userID2 string) (bool, error)
	GetFriendIDs(ctx context.Context, userID string) ([]string, error)
}

type gormFriendshipRepository struct {
	db *gorm.DB
}

// NewGormFriendshipRepository creates a new GormFriendshipRepository.
func NewGormFriendshipRepository(db *gorm.DB) FriendshipRepository {
	return &gormFriendshipRepository{db: db}
}

// CreateIfAbsent creates a new friendship record unless the pair already has
// one. The pair is normalized here, so callers may pass ids in either order.
func (r *gormFriendshipRepository) CreateIfAbsent(ctx context.Context, friendship *models.Friendship) error {
	friendship.EnsureCanonicalOrder()
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id1"}, {Name: "user_id2"}},
			DoNothing: true,
		}).
		Create(friendship).Error
}

// AreUsersFriends checks if two users are already friends.
func (r *gormFriendshipRepository) AreUsersFriends(ctx context.Context, userID1, userID2 string) (bool, error) {
	u1, u2 := social.CanonicalPair(userID1, userID2)
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Friendship{}).
		Where("user_id1 = ? AND user_id2 = ?", u1, u2).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// GetFriendIDs retrieves the ids of all users who are friends with userID.
// The user may appear on either side of the canonical pair, so both columns
// are consulted.
func (r *gormFriendshipRepository) GetFriendIDs(ctx context.Context, userID string) ([]string, error) {
	var idsPart1 []string
	err := r.db.WithContext(ctx).Model(&models.Friendship{}).
		Where("user_id1 = ?", userID).
		Pluck("user_id2", &idsPart1).Error
	if err != nil {
		return nil, err
	}

	var idsPart2 []string
	err = r.db.WithContext(ctx).Model(&models.Friendship{}).
		Where("user_id2 = ?", userID).
		Pluck("user_id1", &idsPart2).Error
	if err != nil {
		return nil, err
	}

	return append(idsPart1, idsPart2...), nil
}
