package model

import "strings"

type UserRole string

const (
	Student UserRole = "student"
	Teacher UserRole = "teacher"
	Admin   UserRole = "admin"
)

// NoReplyUserID 系统发件人，不对应真实用户
const NoReplyUserID uint = 0

// swagger:model User
type User struct {
	ID        uint     `gorm:"primaryKey;autoIncrement" json:"id"`
	Username  string   `gorm:"column:username;size:100;not null;uniqueIndex" json:"username"`
	FirstName string   `gorm:"column:firstname;size:100;not null" json:"firstname"`
	LastName  string   `gorm:"column:lastname;size:100;not null" json:"lastname"`
	Email     string   `gorm:"column:email;size:100" json:"email"`
	Lang      string   `gorm:"column:lang;size:30;default:'en'" json:"lang"`
	Role      UserRole `gorm:"column:role;size:20;default:'student'" json:"role"`
	Deleted   bool     `gorm:"column:deleted;not null;default:false" json:"-"`
}

func (User) TableName() string {
	return "users"
}

func (u *User) FullName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

// NoReplyUser 评分通知的发件人
func NoReplyUser(siteName, email string) *User {
	return &User{
		ID:        NoReplyUserID,
		Username:  "noreply",
		FirstName: siteName,
		Email:     email,
	}
}
