package model

import "time"

// User 本地目录中的用户（local 模式下充当身份服务）
type User struct {
	ID              string    `gorm:"primaryKey;type:varchar(64)"`
	Username        string    `gorm:"type:varchar(64);uniqueIndex;not null"`
	Email           string    `gorm:"type:varchar(255)"`
	ProfileImageURL string    `gorm:"type:varchar(512)"`
	PasswordHash    string    `gorm:"type:varchar(255)"`
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

func (User) TableName() string { return "users" }

// Profile 只暴露公开字段
func (u User) Profile() AuthorProfile {
	return AuthorProfile{ID: u.ID, Username: u.Username, ProfileImageURL: u.ProfileImageURL}
}

// Models 需要 AutoMigrate 的全部模型
func Models() []interface{} {
	return []interface{}{&Post{}, &User{}}
}
