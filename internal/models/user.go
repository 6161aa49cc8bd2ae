package models

import "time"

// User represents a registered account.
type User struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Username    string    `gorm:"uniqueIndex;not null;size:64" json:"username"`
	DisplayName string    `gorm:"size:128" json:"display_name"`
	Email       string    `gorm:"uniqueIndex;not null;size:255" json:"email"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// UserSummary is the author/actor shape embedded in view records.
type UserSummary struct {
	ID          uint   `json:"id"`
	Username    string `json:"username"`
	DisplayName string `json:"display_name"`
}

// Summary trims the user down to what feeds render.
func (u *User) Summary() *UserSummary {
	if u == nil {
		return nil
	}
	return &UserSummary{ID: u.ID, Username: u.Username, DisplayName: u.DisplayName}
}
