package entity

import (
	"strings"
	"time"
)

// 用户角色
const (
	RoleWorker = "worker"
	RoleHead   = "head"
	RoleDriver = "driver"
	RoleDev    = "dev"
)

// User 用户
type User struct {
	ID        string    `json:"id" gorm:"primaryKey;size:32"`
	Name      string    `json:"name" gorm:"size:100;not null"`
	Mail      *string   `json:"mail" gorm:"size:200;uniqueIndex"`
	Phone     string    `json:"phone" gorm:"size:30"`
	Password  string    `json:"-" gorm:"size:100;not null"` // bcrypt
	Role      string    `json:"role" gorm:"size:20;not null;index"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (User) TableName() string {
	return "users"
}

// IsDriver 角色比较忽略大小写
func (u *User) IsDriver() bool {
	return strings.EqualFold(u.Role, RoleDriver)
}

// MailAddress 返回邮箱，未设置时为空串
func (u *User) MailAddress() string {
	if u.Mail == nil {
		return ""
	}
	return *u.Mail
}
