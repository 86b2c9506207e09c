package services

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"chatgo/internal/config"
	"chatgo/internal/models"
	"chatgo/internal/social"
)

func kafkaTestCfg() config.KafkaConfig {
	return config.KafkaConfig{
		EventsTopic:     "test-events",
		AIRequestsTopic: "test-ai-requests",
	}
}

// 手写的内存仓库假实现，用于不依赖数据库的服务层测试。

type fakeUserRepo struct {
	users map[string]*models.User
}

func newFakeUserRepo(users ...*models.User) *fakeUserRepo {
	r := &fakeUserRepo{users: make(map[string]*models.User)}
	for _, u := range users {
		if u.ID == "" {
			u.ID = uuid.NewString()
		}
		r.users[u.ID] = u
	}
	return r
}

func (r *fakeUserRepo) Create(_ context.Context, user *models.User) error {
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	r.users[user.ID] = user
	return nil
}

func (r *fakeUserRepo) GetByID(_ context.Context, id string) (*models.User, error) {
	u, ok := r.users[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return u, nil
}

func (r *fakeUserRepo) GetByUsername(_ context.Context, username string) (*models.User, error) {
	for _, u := range r.users {
		if u.Username == username {
			return u, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeUserRepo) Update(_ context.Context, user *models.User) error {
	r.users[user.ID] = user
	return nil
}

func (r *fakeUserRepo) SearchUsers(_ context.Context, query string, currentUserID string) ([]models.User, error) {
	var out []models.User
	for _, u := range r.users {
		if u.ID == currentUserID {
			continue
		}
		out = append(out, *u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Username < out[j].Username })
	return out, nil
}

func (r *fakeUserRepo) GetBasicInfoByID(_ context.Context, id string) (*models.UserBasicInfo, error) {
	u, ok := r.users[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &models.UserBasicInfo{ID: u.ID, Username: u.Username, FullName: u.FullName, AvatarURL: u.AvatarURL}, nil
}

func (r *fakeUserRepo) GetMultipleBasicInfoByIDs(_ context.Context, userIDs []string) ([]*models.UserBasicInfo, error) {
	var out []*models.UserBasicInfo
	for _, id := range userIDs {
		if u, ok := r.users[id]; ok {
			out = append(out, &models.UserBasicInfo{ID: u.ID, Username: u.Username, FullName: u.FullName, AvatarURL: u.AvatarURL})
		}
	}
	return out, nil
}

type fakeFriendRequestRepo struct {
	requests        []*models.FriendRequest
	updateStatusErr error
}

func (r *fakeFriendRequestRepo) Create(_ context.Context, request *models.FriendRequest) error {
	// 模拟 (sender_id, receiver_id) 唯一索引上的 DO NOTHING
	for _, req := range r.requests {
		if req.SenderID == request.SenderID && req.ReceiverID == request.ReceiverID {
			return nil
		}
	}
	if request.ID == "" {
		request.ID = uuid.NewString()
	}
	cp := *request
	r.requests = append(r.requests, &cp)
	return nil
}

func (r *fakeFriendRequestRepo) FindPendingRequest(_ context.Context, senderID, receiverID string) (*models.FriendRequest, error) {
	for _, req := range r.requests {
		if req.SenderID == senderID && req.ReceiverID == receiverID && req.Status == models.FriendRequestStatusPending {
			return req, nil
		}
	}
	return nil, nil
}

func (r *fakeFriendRequestRepo) GetRequestByID(_ context.Context, requestID string) (*models.FriendRequest, error) {
	for _, req := range r.requests {
		if req.ID == requestID {
			return req, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeFriendRequestRepo) UpdateRequestStatus(_ context.Context, requestID string, status models.FriendRequestStatus) error {
	if r.updateStatusErr != nil {
		return r.updateStatusErr
	}
	for _, req := range r.requests {
		if req.ID == requestID {
			req.Status = status
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

func (r *fakeFriendRequestRepo) GetPendingRequestsForUser(_ context.Context, receiverID string) ([]models.FriendRequest, error) {
	var out []models.FriendRequest
	for _, req := range r.requests {
		if req.ReceiverID == receiverID && req.Status == models.FriendRequestStatusPending {
			out = append(out, *req)
		}
	}
	return out, nil
}

func (r *fakeFriendRequestRepo) pendingCount() int {
	n := 0
	for _, req := range r.requests {
		if req.Status == models.FriendRequestStatusPending {
			n++
		}
	}
	return n
}

type fakeFriendshipRepo struct {
	pairs     map[[2]string]bool
	createErr error
}

func newFakeFriendshipRepo() *fakeFriendshipRepo {
	return &fakeFriendshipRepo{pairs: make(map[[2]string]bool)}
}

func (r *fakeFriendshipRepo) addFriends(a, b string) {
	u1, u2 := social.CanonicalPair(a, b)
	r.pairs[[2]string{u1, u2}] = true
}

func (r *fakeFriendshipRepo) CreateIfAbsent(_ context.Context, friendship *models.Friendship) error {
	if r.createErr != nil {
		return r.createErr
	}
	friendship.EnsureCanonicalOrder()
	r.pairs[[2]string{friendship.UserID1, friendship.UserID2}] = true
	return nil
}

func (r *fakeFriendshipRepo) AreUsersFriends(_ context.Context, userID1, userID2 string) (bool, error) {
	u1, u2 := social.CanonicalPair(userID1, userID2)
	return r.pairs[[2]string{u1, u2}], nil
}

func (r *fakeFriendshipRepo) GetFriendIDs(_ context.Context, userID string) ([]string, error) {
	var out []string
	for pair := range r.pairs {
		if pair[0] == userID {
			out = append(out, pair[1])
		} else if pair[1] == userID {
			out = append(out, pair[0])
		}
	}
	sort.Strings(out)
	return out, nil
}

type fakeChannelRepo struct {
	channels     map[string]*models.Channel
	members      map[string]map[string]bool // channelID -> userID 集合
	users        *fakeUserRepo              // GetOtherMember 需要取出成员的用户信息
	addMemberErr error
}

func newFakeChannelRepo(users *fakeUserRepo, channels ...*models.Channel) *fakeChannelRepo {
	r := &fakeChannelRepo{
		channels: make(map[string]*models.Channel),
		members:  make(map[string]map[string]bool),
		users:    users,
	}
	for _, ch := range channels {
		r.channels[ch.ID] = ch
	}
	return r
}

func (r *fakeChannelRepo) GetByID(_ context.Context, id string) (*models.Channel, error) {
	ch, ok := r.channels[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return ch, nil
}

func (r *fakeChannelRepo) CreateIfAbsent(_ context.Context, channel *models.Channel) error {
	if _, ok := r.channels[channel.ID]; ok {
		return nil
	}
	channel.CreatedAt = time.Now()
	r.channels[channel.ID] = channel
	return nil
}

func (r *fakeChannelRepo) AddMember(_ context.Context, channelID, userID string) error {
	if r.addMemberErr != nil {
		return r.addMemberErr
	}
	if r.members[channelID] == nil {
		r.members[channelID] = make(map[string]bool)
	}
	r.members[channelID][userID] = true
	return nil
}

func (r *fakeChannelRepo) IsMember(_ context.Context, channelID, userID string) (bool, error) {
	return r.members[channelID][userID], nil
}

func (r *fakeChannelRepo) GetUserChannels(_ context.Context, userID string) ([]models.Channel, error) {
	var ids []string
	for channelID, users := range r.members {
		if users[userID] {
			ids = append(ids, channelID)
		}
	}
	sort.Strings(ids)
	var out []models.Channel
	for _, id := range ids {
		if ch, ok := r.channels[id]; ok {
			out = append(out, *ch)
		}
	}
	return out, nil
}

func (r *fakeChannelRepo) GetOtherMember(_ context.Context, channelID, excludeUserID string) (*models.User, error) {
	for userID := range r.members[channelID] {
		if userID != excludeUserID {
			if u, ok := r.users.users[userID]; ok {
				return u, nil
			}
		}
	}
	return nil, nil
}

type fakeMessageRepo struct {
	messages []*models.Message
}

func (r *fakeMessageRepo) Create(_ context.Context, message *models.Message) error {
	if message.ID == "" {
		message.ID = uuid.NewString()
	}
	r.messages = append(r.messages, message)
	return nil
}

func (r *fakeMessageRepo) GetByID(_ context.Context, id string) (*models.Message, error) {
	for _, m := range r.messages {
		if m.ID == id {
			return m, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeMessageRepo) GetByChannelID(_ context.Context, channelID string) ([]*models.Message, error) {
	var out []*models.Message
	for _, m := range r.messages {
		if m.ChannelID == channelID {
			out = append(out, m)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Timestamp < out[j].Timestamp })
	return out, nil
}

func (r *fakeMessageRepo) GetLastForChannel(_ context.Context, channelID string) (*models.Message, error) {
	var last *models.Message
	for _, m := range r.messages {
		if m.ChannelID == channelID && (last == nil || m.Timestamp >= last.Timestamp) {
			last = m
		}
	}
	return last, nil
}

type sentRecord struct {
	topic   string
	key     string
	payload []byte
}

type fakeProducer struct {
	sent []sentRecord
}

func (p *fakeProducer) SendMessage(_ context.Context, topic string, key []byte, payload []byte) error {
	p.sent = append(p.sent, sentRecord{topic: topic, key: string(key), payload: payload})
	return nil
}

func (p *fakeProducer) Close() {}
