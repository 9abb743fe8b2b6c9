package users

import "time"

// User is a persisted account. The server provisions a single admin account
// from configuration; the schema allows more without changes.
type User struct {
	ID           string    `gorm:"column:id;primaryKey;size:64"`
	Username     string    `gorm:"column:username;size:64;uniqueIndex;not null"`
	PasswordHash string    `gorm:"column:password_hash;not null"`
	CreatedAt    time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

// TableName provides the explicit table binding for GORM.
func (User) TableName() string {
	return "user"
}
