package models

// FriendRequestStatus 定义好友请求的状态
type FriendRequestStatus string

const (
	FriendRequestStatusPending  FriendRequestStatus = "PENDING"
	FriendRequestStatusAccepted FriendRequestStatus = "ACCEPTED"
	// 没有 REJECTED / CANCELLED 状态：观察到的产品界面没有拒绝或撤回入口，
	// 请求要么保持 PENDING，要么恰好一次变为 ACCEPTED。
)

// FriendRequest 代表一个好友请求记录
//
// (sender_id, receiver_id) 是唯一索引：请求行从不删除，成为好友后的再次
// 发送被好友关系检查挡住，所以组合唯一键即可让并发的重复发送在存储层
// 塌缩为一行（插入用 ON CONFLICT DO NOTHING，见 storage）。
type FriendRequest struct {
	UUIDModel
	SenderID   string              `gorm:"type:uuid;not null;uniqueIndex:idx_friend_request_users" json:"senderId"`
	ReceiverID string              `gorm:"type:uuid;not null;uniqueIndex:idx_friend_request_users" json:"receiverId"`
	Status     FriendRequestStatus `gorm:"type:varchar(20);not null;default:'PENDING'" json:"status"`
}

// FriendRequestWithSender is a DTO that includes friend request details
// along with basic information about the user who sent the request.
// Useful for API responses for listing pending requests.
type FriendRequestWithSender struct {
	FriendRequest
	Sender *UserBasicInfo `json:"sender"`
}

// TableName 指定 FriendRequest 模型的表名。
func (FriendRequest) TableName() string {
	return "friend_requests"
}
