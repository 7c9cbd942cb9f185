package store

import (
	"bitwise74/community-api/internal/model"
	"context"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// UserStore is the credential store
type UserStore struct {
	db *gorm.DB
}

func NewUserStore(db *gorm.DB) *UserStore {
	return &UserStore{db: db}
}

// CreateUser inserts a new unverified Member. A uniqueness violation on the
// email column, including one lost in a race with a concurrent insert, is
// returned as ErrDuplicateEmail.
func (s *UserStore) CreateUser(ctx context.Context, email, passwordHash, name string) (*model.User, error) {
	id, err := newID()
	if err != nil {
		return nil, fmt.Errorf("failed to generate user ID, %w", err)
	}

	u := &model.User{
		ID:           id,
		Email:        model.NormalizeEmail(email),
		PasswordHash: passwordHash,
		Name:         strings.TrimSpace(name),
		Role:         model.RoleMember,
	}

	if err := s.db.WithContext(ctx).Create(u).Error; err != nil {
		if isUniqueViolation(err) {
			return nil, ErrDuplicateEmail
		}

		return nil, fmt.Errorf("failed to create user, %w", err)
	}

	return u, nil
}

func (s *UserStore) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	var u model.User

	err := s.db.WithContext(ctx).
		Where("email = ?", model.NormalizeEmail(email)).
		Take(&u).
		Error
	if err != nil {
		return nil, notFound(err)
	}

	return &u, nil
}

func (s *UserStore) FindByID(ctx context.Context, id string) (*model.User, error) {
	var u model.User

	err := s.db.WithContext(ctx).
		Where("id = ?", id).
		Take(&u).
		Error
	if err != nil {
		return nil, notFound(err)
	}

	return &u, nil
}

func (s *UserStore) FindByVerificationToken(ctx context.Context, token string) (*model.User, error) {
	var u model.User

	err := s.db.WithContext(ctx).
		Where("verification_token = ?", token).
		Take(&u).
		Error
	if err != nil {
		return nil, notFound(err)
	}

	return &u, nil
}

// SetVerified marks the user verified and drops any pending token
func (s *UserStore) SetVerified(ctx context.Context, userID string) error {
	return s.update(ctx, userID, map[string]any{
		"email_verified":             true,
		"verification_token":         nil,
		"verification_token_expires": nil,
	})
}

// SetRole changes the role of a user. It must only be reachable from
// privileged operator tooling.
func (s *UserStore) SetRole(ctx context.Context, userID string, role model.Role) error {
	if !role.Valid() {
		return fmt.Errorf("%w %q", ErrInvalidRole, string(role))
	}

	return s.update(ctx, userID, map[string]any{"role": role})
}

// SetVerificationToken overwrites whatever token the user had before
func (s *UserStore) SetVerificationToken(ctx context.Context, userID, token string, expires time.Time) error {
	return s.update(ctx, userID, map[string]any{
		"verification_token":         token,
		"verification_token_expires": expires.UTC(),
	})
}

// ConsumeVerificationToken verifies the user only if token is still the
// stored one and has not expired at now. It reports false when nothing
// matched, which happens when a concurrent request consumed it first.
func (s *UserStore) ConsumeVerificationToken(ctx context.Context, userID, token string, now time.Time) (bool, error) {
	r := s.db.WithContext(ctx).
		Model(&model.User{}).
		Where("id = ? AND verification_token = ? AND verification_token_expires > ?", userID, token, now.UTC()).
		Updates(map[string]any{
			"email_verified":             true,
			"verification_token":         nil,
			"verification_token_expires": nil,
		})
	if r.Error != nil {
		return false, fmt.Errorf("failed to consume verification token, %w", r.Error)
	}

	return r.RowsAffected == 1, nil
}

// ClearExpiredVerificationTokens drops tokens that can no longer validate
func (s *UserStore) ClearExpiredVerificationTokens(ctx context.Context, now time.Time) (int64, error) {
	r := s.db.WithContext(ctx).
		Model(&model.User{}).
		Where("verification_token_expires < ?", now.UTC()).
		Updates(map[string]any{
			"verification_token":         nil,
			"verification_token_expires": nil,
		})
	if r.Error != nil {
		return 0, fmt.Errorf("failed to clear expired verification tokens, %w", r.Error)
	}

	return r.RowsAffected, nil
}

// DeleteUser removes the user together with its sessions and resend records
func (s *UserStore) DeleteUser(ctx context.Context, userID string) error {
	r := s.db.WithContext(ctx).
		Select("Sessions", "ResendRequest").
		Delete(&model.User{ID: userID})
	if r.Error != nil {
		return fmt.Errorf("failed to delete user, %w", r.Error)
	}

	if r.RowsAffected == 0 {
		return ErrNotFound
	}

	return nil
}

// LastResend returns when a verification mail was last re-sent to the user.
// The zero time means never.
func (s *UserStore) LastResend(ctx context.Context, userID string) (time.Time, error) {
	var rr model.ResendRequest

	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Take(&rr).
		Error
	if err != nil {
		if err = notFound(err); err == ErrNotFound {
			return time.Time{}, nil
		}

		return time.Time{}, fmt.Errorf("failed to get last resend, %w", err)
	}

	return rr.LastResend, nil
}

func (s *UserStore) TouchResend(ctx context.Context, userID string, at time.Time) error {
	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"last_resend"}),
		}).
		Create(&model.ResendRequest{UserID: userID, LastResend: at.UTC()}).
		Error
	if err != nil {
		return fmt.Errorf("failed to record resend, %w", err)
	}

	return nil
}

func (s *UserStore) update(ctx context.Context, userID string, values map[string]any) error {
	r := s.db.WithContext(ctx).
		Model(&model.User{}).
		Where("id = ?", userID).
		Updates(values)
	if r.Error != nil {
		return fmt.Errorf("failed to update user, %w", r.Error)
	}

	if r.RowsAffected == 0 {
		return ErrNotFound
	}

	return nil
}
