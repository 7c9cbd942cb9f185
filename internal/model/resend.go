package model

import "time"

// ResendRequest remembers when a verification mail was last re-sent to a
// user so a cooldown can be applied
type ResendRequest struct {
	ID         int    `gorm:"primaryKey;autoIncrement"`
	UserID     string `gorm:"uniqueIndex;not null"`
	LastResend time.Time
}
