package domain

import (
	"time"

	"short_clip_service/pkg/encrypt"
)

// MemberStatus definition member status
type MemberStatus string

const (
	//MemberStatusOnLine member is online
	MemberStatusOnLine MemberStatus = "online"
	//MemberStatusOffLine member is offline
	MemberStatusOffLine MemberStatus = "offline"
)

// Member 定義會員模型
type Member struct {
	ID       int
	MemberID string
	Email    string
	Password string
	Status   MemberStatus
}

// MemberQuery 查詢條件，nil 欄位不參與查詢
type MemberQuery struct {
	ID       *int
	MemberID *string
	Email    *string
}

// MemberSession 登入後存於 Redis 的 session
type MemberSession struct {
	Token        string    `json:"token"`
	MemberID     string    `json:"member_id"`
	CreatedAt    time.Time `json:"created_at"`
	LastActivity time.Time `json:"last_activity"`
	ExpiredAt    time.Time `json:"expired_at"`
}

// IsPasswordMatch check password match
func (m *Member) IsPasswordMatch(password string) error {
	return encrypt.CheckPassword(m.Password, password)
}
