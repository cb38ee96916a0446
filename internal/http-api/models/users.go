package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

type User struct {
	ID        string     `gorm:"primaryKey;type:uuid" json:"id"`
	Email     string     `gorm:"uniqueIndex;size:254;not null" json:"email"`
	Username  string     `gorm:"uniqueIndex;size:150;not null" json:"username"`
	FirstName string     `gorm:"size:150;not null" json:"first_name"`
	LastName  string     `gorm:"size:150;not null" json:"last_name"`
	Password  string     `gorm:"column:password_hash;not null" json:"-"`
	Role      string     `gorm:"size:16;default:'user';not null" json:"role"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
	LastLogin *time.Time `json:"last_login,omitempty"`
}

// BeforeCreate assigns a UUID when the caller did not.
func (user *User) BeforeCreate(tx *gorm.DB) (err error) {
	if user.ID == "" {
		user.ID = uuid.New().String()
	}
	if user.Role == "" {
		user.Role = RoleUser
	}
	return
}

func (u *User) IsAdmin() bool { return u.Role == RoleAdmin }

func (User) TableName() string {
	return "users"
}
