package domain

import "time"

// Session is the durable record of one authenticated device for one user.
// RefreshFingerprint identifies the single refresh token that is currently
// valid for this session; it is replaced atomically on every rotation.
type Session struct {
	ID                 string    `gorm:"primaryKey;size:36" json:"id"`
	UserID             string    `gorm:"index;size:36;not null" json:"user_id"`
	DeviceLabel        string    `gorm:"size:512" json:"device_label"`
	SourceAddress      string    `gorm:"size:64" json:"source_address"`
	RefreshFingerprint string    `gorm:"size:128;uniqueIndex;not null" json:"-"`
	CreatedAt          time.Time `json:"created_at"`
	LastActiveAt       time.Time `gorm:"index" json:"last_active_at"`
	ExpiresAt          time.Time `gorm:"index;not null" json:"expires_at"`
}

// Expired reports whether the session is logically dead at the given instant,
// whether or not the row has been purged.
func (s *Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.After(now)
}
