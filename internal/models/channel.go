package models

import "time"

// ChannelType 定义了频道的类型。
type ChannelType string

const (
	GroupChannel ChannelType = "group" // 多人群组
	DMChannel    ChannelType = "dm"    // 一对一私聊
	AIChannel    ChannelType = "ai"    // AI 助手频道
)

// Well-known seed channels created at migration time.
const (
	GeneralChannelID     = "general"
	AIAssistantChannelID = "ai-assistant"
	AIAssistantName      = "AI Assistant"
)

// Channel 代表一个聊天频道。
//
// 频道 id 是字符串而不是自增主键：DM 频道的 id 由用户对推导
// （见 internal/social），群组频道使用 uuid，种子频道使用固定字面量。
type Channel struct {
	ID        string      `gorm:"type:varchar(64);primaryKey" json:"id"`
	Name      string      `gorm:"type:varchar(100);not null" json:"name"`
	Type      ChannelType `gorm:"type:varchar(20);not null;index" json:"type"`
	AvatarURL string      `gorm:"type:varchar(255)" json:"avatarUrl,omitempty"`
	CreatedAt time.Time   `json:"createdAt"`

	// 关联关系
	Members  []ChannelMember `gorm:"foreignKey:ChannelID" json:"members,omitempty"`
	Messages []Message       `gorm:"foreignKey:ChannelID" json:"messages,omitempty"`
}

// TableName 指定 Channel 模型的表名。
func (Channel) TableName() string {
	return "channels"
}

// ChannelMember 将用户链接到频道，定义频道对该用户的可见性。
type ChannelMember struct {
	ChannelID string    `gorm:"type:varchar(64);primaryKey" json:"channelId"`
	UserID    string    `gorm:"type:uuid;primaryKey" json:"userId"`
	JoinedAt  time.Time `json:"joinedAt"`

	// 关联关系
	User    User    `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Channel Channel `gorm:"foreignKey:ChannelID" json:"channel,omitempty"`
}

// TableName 指定 ChannelMember 模型的表名。
func (ChannelMember) TableName() string {
	return "channel_members"
}

// ChannelView is the display-ready projection of a channel for one user, as
// produced by the channel list synthesizer. A view may describe a channel
// that is not materialized yet (a DM implied by a friendship).
type ChannelView struct {
	ID                string      `json:"id"`
	Name              string      `json:"name"`
	Type              ChannelType `json:"type"`
	LastMessage       string      `json:"lastMessage"`
	LastMessageTime   int64       `json:"lastMessageTime"`
	LastMessageSender string      `json:"lastMessageSender,omitempty"`
	AvatarURL         string      `json:"avatar,omitempty"`
	IsFriend          bool        `json:"isFriend"`
	OtherUserID       string      `json:"otherUserId,omitempty"`
}
