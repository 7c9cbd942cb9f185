package store

import (
	"bitwise74/community-api/internal/model"
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"
)

type SessionStore struct {
	db *gorm.DB
}

func NewSessionStore(db *gorm.DB) *SessionStore {
	return &SessionStore{db: db}
}

func (s *SessionStore) Create(ctx context.Context, userID, token string, expiresAt time.Time) (*model.Session, error) {
	id, err := newID()
	if err != nil {
		return nil, fmt.Errorf("failed to generate session ID, %w", err)
	}

	sess := &model.Session{
		ID:        id,
		UserID:    userID,
		Token:     token,
		ExpiresAt: expiresAt.UTC(),
	}

	if err := s.db.WithContext(ctx).Create(sess).Error; err != nil {
		return nil, fmt.Errorf("failed to create session, %w", err)
	}

	return sess, nil
}

// FindUser returns the owner of a session that is still valid at now. The
// user row is read as part of the same query so role changes are seen on
// the very next request.
func (s *SessionStore) FindUser(ctx context.Context, token string, now time.Time) (*model.User, error) {
	var u model.User

	err := s.db.WithContext(ctx).
		Model(&model.User{}).
		Select("users.*").
		Joins("JOIN sessions ON sessions.user_id = users.id").
		Where("sessions.token = ? AND sessions.expires_at > ?", token, now.UTC()).
		Take(&u).
		Error
	if err != nil {
		return nil, notFound(err)
	}

	return &u, nil
}

// Delete is idempotent, removing an unknown token is not an error
func (s *SessionStore) Delete(ctx context.Context, token string) error {
	err := s.db.WithContext(ctx).
		Where("token = ?", token).
		Delete(&model.Session{}).
		Error
	if err != nil {
		return fmt.Errorf("failed to delete session, %w", err)
	}

	return nil
}

func (s *SessionStore) DeleteForUser(ctx context.Context, userID string) (int64, error) {
	r := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Delete(&model.Session{})
	if r.Error != nil {
		return 0, fmt.Errorf("failed to delete user sessions, %w", r.Error)
	}

	return r.RowsAffected, nil
}

func (s *SessionStore) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	r := s.db.WithContext(ctx).
		Where("expires_at <= ?", now.UTC()).
		Delete(&model.Session{})
	if r.Error != nil {
		return 0, fmt.Errorf("failed to delete expired sessions, %w", r.Error)
	}

	return r.RowsAffected, nil
}
