package model

import "time"

// Post 一条 emoji 状态；创建后不再修改
type Post struct {
	ID        string    `json:"id" gorm:"primaryKey;type:varchar(36)"`
	AuthorID  string    `json:"authorId" gorm:"type:varchar(64);index:idx_post_author_created,priority:1;not null"`
	Content   string    `json:"content" gorm:"type:varchar(255);not null"`
	CreatedAt time.Time `json:"createdAt" gorm:"autoCreateTime;index:idx_post_author_created,priority:2;index:idx_post_created"`
}

func (Post) TableName() string { return "posts" }

// AuthorProfile 对外公开的作者信息（来自用户目录，不落库）
type AuthorProfile struct {
	ID              string `json:"id"`
	Username        string `json:"username"`
	ProfileImageURL string `json:"profileImageUrl"`
}

// EnrichedPost 帖子 + 作者
type EnrichedPost struct {
	Post   Post          `json:"post"`
	Author AuthorProfile `json:"author"`
}
