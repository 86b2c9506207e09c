package services

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"chatgo/internal/avatar"
	"chatgo/internal/models"
	"chatgo/internal/social"
	"chatgo/internal/storage"
)

// UserSearchResult 是搜索接口返回的单个用户条目，带有当前用户视角下的
// 关系标签，前端用它决定显示"加好友"还是"已发送"等按钮。
type UserSearchResult struct {
	ID           string              `json:"id"`
	Username     string              `json:"username"`
	FullName     string              `json:"fullName"`
	PhoneNumber  string              `json:"phoneNumber,omitempty"`
	AvatarURL    string              `json:"avatarUrl"`
	Relationship social.Relationship `json:"relationship"`
}

// UserService 定义了用户信息相关的服务接口。
type UserService interface {
	GetUserByID(ctx context.Context, userID string) (*models.User, error)
	// SearchUsers 按用户名、姓名或手机号模糊搜索，并为每个结果标注
	// 当前用户与该用户的关系状态。
	SearchUsers(ctx context.Context, query string, currentUserID string) ([]UserSearchResult, error)
}

type userService struct {
	userRepo          storage.UserRepository
	friendshipRepo    storage.FriendshipRepository
	friendRequestRepo storage.FriendRequestRepository
}

// NewUserService 创建一个新的 UserService 实例。
func NewUserService(userRepo storage.UserRepository, friendshipRepo storage.FriendshipRepository, friendRequestRepo storage.FriendRequestRepository) UserService {
	return &userService{
		userRepo:          userRepo,
		friendshipRepo:    friendshipRepo,
		friendRequestRepo: friendRequestRepo,
	}
}

func (s *userService) GetUserByID(ctx context.Context, userID string) (*models.User, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("查询用户失败: %w", err)
	}
	return user, nil
}

func (s *userService) SearchUsers(ctx context.Context, query string, currentUserID string) ([]UserSearchResult, error) {
	users, err := s.userRepo.SearchUsers(ctx, query, currentUserID)
	if err != nil {
		return nil, fmt.Errorf("搜索用户失败: %w", err)
	}

	results := make([]UserSearchResult, 0, len(users))
	for _, u := range users {
		rel, err := s.classifyRelationship(ctx, currentUserID, u.ID)
		if err != nil {
			return nil, err
		}
		results = append(results, UserSearchResult{
			ID:           u.ID,
			Username:     u.Username,
			FullName:     u.FullName,
			PhoneNumber:  u.PhoneNumber,
			AvatarURL:    avatar.OrDefault(u.AvatarURL, u.FullName),
			Relationship: rel,
		})
	}
	return results, nil
}

// classifyRelationship 按 FRIEND > SENT > RECEIVED > NONE 的优先级判定
// 当前用户与另一用户的关系。好友关系存在时不再查询请求表。
func (s *userService) classifyRelationship(ctx context.Context, currentUserID, otherUserID string) (social.Relationship, error) {
	areFriends, err := s.friendshipRepo.AreUsersFriends(ctx, currentUserID, otherUserID)
	if err != nil {
		return social.RelationshipNone, fmt.Errorf("查询好友关系失败: %w", err)
	}
	if areFriends {
		return social.RelationshipFriend, nil
	}

	sent, err := s.friendRequestRepo.FindPendingRequest(ctx, currentUserID, otherUserID)
	if err != nil {
		return social.RelationshipNone, fmt.Errorf("查询已发送请求失败: %w", err)
	}
	received, err := s.friendRequestRepo.FindPendingRequest(ctx, otherUserID, currentUserID)
	if err != nil {
		return social.RelationshipNone, fmt.Errorf("查询已接收请求失败: %w", err)
	}

	return social.Classify(false, sent != nil, received != nil), nil
}
