package models

import "chatgo/internal/social"

// Friendship represents a friendship relationship between two users.
// To avoid duplicates and simplify queries, UserID1 is always the
// lexicographically smaller id. Rows are created exactly once per pair when
// a friend request is accepted, and are never updated or deleted.
type Friendship struct {
	UUIDModel
	UserID1 string `gorm:"type:uuid;not null;uniqueIndex:idx_friendship_users" json:"userId1"`
	User1   User   `gorm:"foreignKey:UserID1" json:"-"`
	UserID2 string `gorm:"type:uuid;not null;uniqueIndex:idx_friendship_users" json:"userId2"`
	User2   User   `gorm:"foreignKey:UserID2" json:"-"`
}

// EnsureCanonicalOrder normalizes the pair so UserID1 sorts before UserID2.
// This must be called before creating a Friendship record; it is the same
// canonicalization used to derive DM channel identities.
func (f *Friendship) EnsureCanonicalOrder() {
	f.UserID1, f.UserID2 = social.CanonicalPair(f.UserID1, f.UserID2)
}

// TableName 指定 Friendship 模型的表名。
func (Friendship) TableName() string {
	return "friendships"
}
