package domain

import "time"

// User is the narrow slice of the platform's user store that the session
// subsystem consumes: identity plus the password hash needed at login.
type User struct {
	ID           string    `gorm:"primaryKey;size:36" json:"id"`
	Login        string    `gorm:"size:64;uniqueIndex;not null" json:"login"`
	Email        string    `gorm:"size:256;uniqueIndex;not null" json:"email"`
	PasswordHash string    `gorm:"size:128;not null" json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}
