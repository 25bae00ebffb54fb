package domain

import "time"

type User struct {
	ID           uint       `gorm:"primaryKey" json:"id"`
	Username     string     `gorm:"uniqueIndex;size:150;not null" json:"username"`
	Email        string     `gorm:"uniqueIndex;size:255;not null" json:"email"`
	PasswordHash string     `gorm:"size:1024;not null" json:"-"`
	IsActive     bool       `gorm:"not null;default:false;index:idx_users_is_active" json:"is_active"`
	LastLoginAt  *time.Time `json:"last_login_at,omitempty"`

	Bio         string     `gorm:"size:500" json:"bio,omitempty"`
	Location    string     `gorm:"size:100" json:"location,omitempty"`
	PhoneNumber string     `gorm:"size:32" json:"phone_number,omitempty"`
	Website     string     `gorm:"size:255" json:"website,omitempty"`
	Birthday    *time.Time `json:"birthday,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
