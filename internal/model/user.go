// Package model defines database models
package model

import (
	"strings"
	"time"
)

type User struct {
	ID           string `gorm:"primaryKey;size:16"`
	Email        string `gorm:"uniqueIndex;not null"` // Always stored through NormalizeEmail
	PasswordHash string `gorm:"not null"`
	Name         string `gorm:"not null"`
	Role         Role   `gorm:"type:varchar(32);not null;default:'Member'"`
	Verified     bool   `gorm:"column:email_verified;not null;default:false"`

	// Only set while the account is unverified
	VerificationToken        *string `gorm:"uniqueIndex"`
	VerificationTokenExpires *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time

	Sessions      []Session      `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
	ResendRequest *ResendRequest `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
}

// UserView is the part of a user that is safe to hand to other layers. It
// never carries the password hash or the verification token.
type UserView struct {
	ID       string `json:"id"`
	Email    string `json:"email"`
	Name     string `json:"name"`
	Role     Role   `json:"role"`
	Verified bool   `json:"emailVerified"`
}

func (u *User) View() *UserView {
	return &UserView{
		ID:       u.ID,
		Email:    u.Email,
		Name:     u.Name,
		Role:     u.Role,
		Verified: u.Verified,
	}
}

// NormalizeEmail is the form emails are stored and looked up in, making
// comparisons case-insensitive
func NormalizeEmail(e string) string {
	return strings.ToLower(strings.TrimSpace(e))
}
