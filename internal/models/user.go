package models

import (
	"time"
)

// User is the foreign-key target for property ownership. Account lifecycle
// (registration, social login, billing) is handled outside this service.
// DB: users
type User struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Email     string    `gorm:"column:email;size:255;not null;uniqueIndex:users_email_key" json:"email"`
	Name      string    `gorm:"column:name;size:255" json:"name"`
	Role      string    `gorm:"column:role;size:20;not null;default:user" json:"role"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`

	// Relations
	Properties []Property `gorm:"foreignKey:OwnerID" json:"properties,omitempty"`
}

func (User) TableName() string {
	return "users"
}
