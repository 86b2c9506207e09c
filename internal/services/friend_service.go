package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"chatgo/internal/avatar"
	"chatgo/internal/config"
	"chatgo/internal/kafka"
	"chatgo/internal/models"
	"chatgo/internal/storage"
)

var (
	ErrFriendRequestSelf     = errors.New("不能添加自己为好友")
	ErrRecipientNotFound     = errors.New("接收用户不存在")
	ErrAlreadyFriends        = errors.New("你们已经是好友了")
	ErrFriendRequestNotFound = errors.New("好友请求不存在")
	ErrNotRecipientOfRequest = errors.New("您不是此好友请求的接收者")
	ErrRequestNotPending     = errors.New("该好友请求不是待处理状态")
)

// FriendshipEstablishedEvent 在好友关系建立后发布到事件主题，
// 供下游系统（通知、推荐等）消费。
type FriendshipEstablishedEvent struct {
	RequestID  string `json:"requestId"`
	SenderID   string `json:"senderId"`
	ReceiverID string `json:"receiverId"`
	Timestamp  int64  `json:"timestamp"`
}

// FriendService 定义了好友请求和好友关系的服务接口。
type FriendService interface {
	// SendFriendRequest 发送好友请求。同方向已有 PENDING 请求时静默成功，
	// 不创建新行也不报错，重复点击"添加"得到相同结果。
	SendFriendRequest(ctx context.Context, senderID, receiverID string) error
	// AcceptFriendRequest 由接收者接受请求：状态置为 ACCEPTED 并写入
	// 好友关系，两个写入在同一事务中提交。
	AcceptFriendRequest(ctx context.Context, userID, requestID string) error
	ListPendingRequests(ctx context.Context, userID string) ([]models.FriendRequestWithSender, error)
	GetFriendsList(ctx context.Context, userID string) ([]*models.UserBasicInfo, error)
}

type friendService struct {
	db                *gorm.DB
	userRepo          storage.UserRepository
	friendRequestRepo storage.FriendRequestRepository
	friendshipRepo    storage.FriendshipRepository
	producer          kafka.MessageProducer
	kafkaCfg          config.KafkaConfig
}

// NewFriendService 创建一个新的 FriendService 实例。
// producer 可以为 nil，此时不发布好友关系事件。
func NewFriendService(db *gorm.DB, userRepo storage.UserRepository, friendRequestRepo storage.FriendRequestRepository, friendshipRepo storage.FriendshipRepository, producer kafka.MessageProducer, kafkaCfg config.KafkaConfig) FriendService {
	return &friendService{
		db:                db,
		userRepo:          userRepo,
		friendRequestRepo: friendRequestRepo,
		friendshipRepo:    friendshipRepo,
		producer:          producer,
		kafkaCfg:          kafkaCfg,
	}
}

func (s *friendService) SendFriendRequest(ctx context.Context, senderID, receiverID string) error {
	if senderID == receiverID {
		return ErrFriendRequestSelf
	}

	if _, err := s.userRepo.GetByID(ctx, receiverID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrRecipientNotFound
		}
		return fmt.Errorf("查询接收用户失败: %w", err)
	}

	areFriends, err := s.friendshipRepo.AreUsersFriends(ctx, senderID, receiverID)
	if err != nil {
		return fmt.Errorf("查询好友关系失败: %w", err)
	}
	if areFriends {
		return ErrAlreadyFriends
	}

	// 只检查同方向的待处理请求。反方向的请求是另一回事：
	// 对方已经想加你，你再发一条也不冲突，接受任意一条即可建立关系。
	existing, err := s.friendRequestRepo.FindPendingRequest(ctx, senderID, receiverID)
	if err != nil {
		return fmt.Errorf("查询待处理请求失败: %w", err)
	}
	if existing != nil {
		return nil // 幂等：已有待处理请求，视为成功
	}

	request := &models.FriendRequest{
		SenderID:   senderID,
		ReceiverID: receiverID,
		Status:     models.FriendRequestStatusPending,
	}
	if err := s.friendRequestRepo.Create(ctx, request); err != nil {
		return fmt.Errorf("创建好友请求失败: %w", err)
	}
	return nil
}

func (s *friendService) AcceptFriendRequest(ctx context.Context, userID, requestID string) error {
	var accepted *models.FriendRequest

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		accepted, err = acceptWithRepos(ctx, userID, requestID,
			storage.NewGormFriendRequestRepository(tx),
			storage.NewGormFriendshipRepository(tx))
		return err
	})
	if err != nil {
		return err
	}

	s.publishFriendshipEstablished(ctx, accepted)
	return nil
}

// acceptWithRepos 执行接受请求的核心步骤：校验、更新状态、写入好友关系。
// 两个写入必须运行在同一事务的仓库实例上，由调用方负责。
func acceptWithRepos(ctx context.Context, userID, requestID string, requestRepo storage.FriendRequestRepository, friendshipRepo storage.FriendshipRepository) (*models.FriendRequest, error) {
	request, err := requestRepo.GetRequestByID(ctx, requestID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrFriendRequestNotFound
		}
		return nil, fmt.Errorf("查询好友请求失败: %w", err)
	}

	if request.ReceiverID != userID {
		return nil, ErrNotRecipientOfRequest
	}
	if request.Status != models.FriendRequestStatusPending {
		return nil, ErrRequestNotPending
	}

	if err := requestRepo.UpdateRequestStatus(ctx, requestID, models.FriendRequestStatusAccepted); err != nil {
		return nil, fmt.Errorf("更新请求状态失败: %w", err)
	}

	friendship := &models.Friendship{
		UserID1: request.SenderID,
		UserID2: request.ReceiverID,
	}
	// 交叉请求（双方互发后各自接受）时第二次插入是无冲突的空操作
	if err := friendshipRepo.CreateIfAbsent(ctx, friendship); err != nil {
		return nil, fmt.Errorf("创建好友关系失败: %w", err)
	}

	return request, nil
}

// publishFriendshipEstablished 在事务提交后发布事件。发布失败只记录
// 日志，好友关系本身已经建立，不因事件丢失而回滚。
func (s *friendService) publishFriendshipEstablished(ctx context.Context, request *models.FriendRequest) {
	if s.producer == nil || s.kafkaCfg.EventsTopic == "" {
		return
	}

	event := FriendshipEstablishedEvent{
		RequestID:  request.ID,
		SenderID:   request.SenderID,
		ReceiverID: request.ReceiverID,
		Timestamp:  time.Now().UnixMilli(),
	}
	payload, err := json.Marshal(event)
	if err != nil {
		log.Error().Err(err).Msg("序列化好友关系事件失败")
		return
	}

	if err := s.producer.SendMessage(ctx, s.kafkaCfg.EventsTopic, []byte(request.ID), payload); err != nil {
		log.Error().Err(err).Str("requestId", request.ID).Msg("发布好友关系事件失败")
	}
}

func (s *friendService) ListPendingRequests(ctx context.Context, userID string) ([]models.FriendRequestWithSender, error) {
	requests, err := s.friendRequestRepo.GetPendingRequestsForUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("查询待处理请求失败: %w", err)
	}

	results := make([]models.FriendRequestWithSender, 0, len(requests))
	for _, req := range requests {
		sender, err := s.userRepo.GetBasicInfoByID(ctx, req.SenderID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				// 发送者已不存在的悬挂请求直接跳过
				continue
			}
			return nil, fmt.Errorf("查询请求发送者失败: %w", err)
		}
		sender.AvatarURL = avatar.OrDefault(sender.AvatarURL, sender.FullName)
		results = append(results, models.FriendRequestWithSender{
			FriendRequest: req,
			Sender:        sender,
		})
	}
	return results, nil
}

func (s *friendService) GetFriendsList(ctx context.Context, userID string) ([]*models.UserBasicInfo, error) {
	friendIDs, err := s.friendshipRepo.GetFriendIDs(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("查询好友列表失败: %w", err)
	}

	friends, err := s.userRepo.GetMultipleBasicInfoByIDs(ctx, friendIDs)
	if err != nil {
		return nil, fmt.Errorf("查询好友信息失败: %w", err)
	}
	for _, f := range friends {
		f.AvatarURL = avatar.OrDefault(f.AvatarURL, f.FullName)
	}
	return friends, nil
}
