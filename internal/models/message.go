package models

// MessageType 定义了消息的内容类型。
type MessageType string

const (
	TextMessage   MessageType = "TEXT"
	FileMessage   MessageType = "FILE"
	ImageMessage  MessageType = "IMAGE"
	SystemMessage MessageType = "SYSTEM" // 用于系统通知
)

// SenderType 区分消息来自真实用户还是 AI 助手。
type SenderType string

const (
	SenderTypeUser SenderType = "USER"
	SenderTypeAI   SenderType = "AI"
)

// Message 代表存储在数据库中的聊天消息。
//
// Timestamp 是插入时一次性取自墙钟的毫秒值；同一毫秒内的并发插入由提交顺序
// 决定先后。消息一旦创建即不可变，频道历史按 Timestamp 升序返回。
type Message struct {
	UUIDModel
	ChannelID  string      `gorm:"type:varchar(64);index;not null" json:"channelId"`
	// SenderID 不是 uuid 列：AI 回复的发送者是固定的 "ai-assistant"
	SenderID   string      `gorm:"type:varchar(64);index;not null" json:"senderId"`
	SenderType SenderType  `gorm:"type:varchar(10);not null;default:'USER'" json:"senderType"`
	Type       MessageType `gorm:"type:varchar(20);not null;default:'TEXT'" json:"type"`
	Content    string      `gorm:"type:text" json:"content"`
	FileName   string      `gorm:"type:varchar(255)" json:"fileName,omitempty"`
	FileURL    string      `gorm:"type:varchar(255)" json:"fileUrl,omitempty"`
	Timestamp  int64       `gorm:"not null;index" json:"timestamp"`

	// 关联关系
	Channel Channel `gorm:"foreignKey:ChannelID" json:"-"`
}

// TableName 指定 Message 模型的表名。
func (Message) TableName() string {
	return "messages"
}
