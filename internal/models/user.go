package models

// User 代表系统中的用户。
type User struct {
	UUIDModel
	Username     string `gorm:"type:varchar(100);uniqueIndex;not null" json:"username"`
	PasswordHash string `gorm:"type:varchar(255);not null" json:"-"` // 不暴露密码哈希
	FullName     string `gorm:"type:varchar(100);not null" json:"fullName"`
	PhoneNumber  string `gorm:"type:varchar(30)" json:"phoneNumber,omitempty"`
	AvatarURL    string `gorm:"type:varchar(255)" json:"avatarUrl,omitempty"`
	Status       string `gorm:"type:varchar(20);default:'offline'" json:"status,omitempty"` // 例如：online, offline
}

// UserBasicInfo holds minimal public information about a user.
// Used for scenarios like displaying sender info in friend requests.
type UserBasicInfo struct {
	ID        string `json:"id"`
	Username  string `json:"username"`
	FullName  string `json:"fullName"`
	AvatarURL string `json:"avatarUrl,omitempty"`
}

// TableName 指定 User 模型的表名。
func (User) TableName() string {
	return "users"
}
