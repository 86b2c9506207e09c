package storage

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"chatgo/internal/models"
)

// FriendRequestRepository defines the interface for friend request data operations.
type FriendRequestRepository interface {
	// Create inserts the request unless a row for the same
	// (sender, receiver) pair already exists. Safe under concurrent
	// duplicate sends.
	Create(ctx context.Context, request *models.FriendRequest) error
	// FindPendingRequest looks for a PENDING request in the exact
	// sender -> receiver direction. A reversed pending request between the
	// same two users is a distinct row and is deliberately not matched.
	FindPendingRequest(ctx context.Context, senderID, receiverID string) (*models.FriendRequest, error)
	GetRequestByID(ctx context.Context, requestID string) (*models.FriendRequest, error)
	UpdateRequestStatus(ctx context.Context, requestID string, status models.FriendRequestStatus) error
	GetPendingRequestsForUser(ctx context.Context, receiverID string) ([]models.FriendRequest, error)
}

type gormFriendRequestRepository struct {
	db *gorm.DB
}

func NewGormFriendRequestRepository(db *gorm.DB) FriendRequestRepository {
	return &gormFriendRequestRepository{db: db}
}

// Create 与 friendship 的插入一样走 ON CONFLICT DO NOTHING：两个并发请求
// 都通过了服务层的待处理检查时，唯一索引保证只落下一行。
func (r *gormFriendRequestRepository) Create(ctx context.Context, request *models.FriendRequest) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "sender_id"}, {Name: "receiver_id"}},
			DoNothing: true,
		}).
		Create(request).Error
}

func (r *gormFriendRequestRepository) FindPendingRequest(ctx context.Context, senderID, receiverID string) (*models.FriendRequest, error) {
	var request models.FriendRequest
	err := r.db.WithContext(ctx).
		Where("sender_id = ? AND receiver_id = ? AND status = ?", senderID, receiverID, models.FriendRequestStatusPending).
		First(&request).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil // No pending request found is not an error in this context
		}
		return nil, err
	}
	return &request, nil
}

func (r *gormFriendRequestRepository) GetRequestByID(ctx context.Context, requestID string) (*models.FriendRequest, error) {
	var request models.FriendRequest
	err := r.db.WithContext(ctx).Where("id = ?", requestID).First(&request).Error
	if err != nil {
		return nil, err
	}
	return &request, nil
}

func (r *gormFriendRequestRepository) UpdateRequestStatus(ctx context.Context, requestID string, status models.FriendRequestStatus) error {
	return r.db.WithContext(ctx).
		Model(&models.FriendRequest{}).
		Where("id = ?", requestID).
		Update("status", status).Error
}

func (r *gormFriendRequestRepository) GetPendingRequestsForUser(ctx context.Context, receiverID string) ([]models.FriendRequest, error) {
	var requests []models.FriendRequest
	err := r.db.WithContext(ctx).
		Where("receiver_id = ? AND status = ?", receiverID, models.FriendRequestStatusPending).
		Order("created_at ASC").
		Find(&requests).Error
	return requests, err
}
