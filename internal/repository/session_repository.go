package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/bloggerhub/device-session-service/internal/domain"
	"github.com/bloggerhub/device-session-service/internal/observability"
)

var ErrSessionNotFound = errors.New("session not found")

type SessionRepository interface {
	Create(s *domain.Session) error
	FindByID(sessionID string) (*domain.Session, error)
	ListActiveByUserID(userID string, now time.Time) ([]domain.Session, error)
	// ReplaceFingerprint swaps the session's fingerprint only if the stored
	// value still equals oldFingerprint. ErrSessionNotFound means the
	// precondition failed: the row is gone or another rotation won.
	ReplaceFingerprint(sessionID, oldFingerprint, newFingerprint string, lastActiveAt, expiresAt time.Time) error
	Delete(sessionID string) error
	DeleteOthersByUser(userID, keepSessionID string) (int64, error)
	DeleteExpired(now time.Time) (int64, error)
}

type GormSessionRepository struct{ db *gorm.DB }

func NewSessionRepository(db *gorm.DB) SessionRepository { return &GormSessionRepository{db: db} }

func (r *GormSessionRepository) Create(s *domain.Session) error {
	err := r.db.Create(s).Error
	if err != nil {
		observability.RecordRepositoryOperation(context.Background(), "session", "create", "error")
		return err
	}
	observability.RecordRepositoryOperation(context.Background(), "session", "create", "success")
	return nil
}

func (r *GormSessionRepository) FindByID(sessionID string) (*domain.Session, error) {
	var s domain.Session
	err := r.db.Where("id = ?", sessionID).First(&s).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			observability.RecordRepositoryOperation(context.Background(), "session", "find_by_id", "not_found")
			return nil, ErrSessionNotFound
		}
		observability.RecordRepositoryOperation(context.Background(), "session", "find_by_id", "error")
		return nil, err
	}
	observability.RecordRepositoryOperation(context.Background(), "session", "find_by_id", "success")
	return &s, nil
}

func (r *GormSessionRepository) ListActiveByUserID(userID string, now time.Time) ([]domain.Session, error) {
	var sessions []domain.Session
	err := r.db.Where("user_id = ? AND expires_at > ?", userID, now).
		Order("created_at ASC").
		Find(&sessions).Error
	if err != nil {
		observability.RecordRepositoryOperation(context.Background(), "session", "list_active_by_user_id", "error")
		return sessions, err
	}
	observability.RecordRepositoryOperation(context.Background(), "session", "list_active_by_user_id", "success")
	return sessions, nil
}

func (r *GormSessionRepository) ReplaceFingerprint(sessionID, oldFingerprint, newFingerprint string, lastActiveAt, expiresAt time.Time) error {
	res := r.db.Model(&domain.Session{}).
		Where("id = ? AND refresh_fingerprint = ?", sessionID, oldFingerprint).
		Updates(map[string]any{
			"refresh_fingerprint": newFingerprint,
			"last_active_at":      lastActiveAt,
			"expires_at":          expiresAt,
		})
	if res.Error != nil {
		observability.RecordRepositoryOperation(context.Background(), "session", "replace_fingerprint", "error")
		return res.Error
	}
	if res.RowsAffected == 0 {
		observability.RecordRepositoryOperation(context.Background(), "session", "replace_fingerprint", "not_found")
		return ErrSessionNotFound
	}
	observability.RecordRepositoryOperation(context.Background(), "session", "replace_fingerprint", "success")
	return nil
}

func (r *GormSessionRepository) Delete(sessionID string) error {
	res := r.db.Where("id = ?", sessionID).Delete(&domain.Session{})
	if res.Error != nil {
		observability.RecordRepositoryOperation(context.Background(), "session", "delete", "error")
		return res.Error
	}
	if res.RowsAffected == 0 {
		observability.RecordRepositoryOperation(context.Background(), "session", "delete", "not_found")
		return ErrSessionNotFound
	}
	observability.RecordRepositoryOperation(context.Background(), "session", "delete", "success")
	return nil
}

func (r *GormSessionRepository) DeleteOthersByUser(userID, keepSessionID string) (int64, error) {
	res := r.db.Where("user_id = ? AND id <> ?", userID, keepSessionID).Delete(&domain.Session{})
	if res.Error != nil {
		observability.RecordRepositoryOperation(context.Background(), "session", "delete_others_by_user", "error")
		return res.RowsAffected, res.Error
	}
	observability.RecordRepositoryOperation(context.Background(), "session", "delete_others_by_user", "success")
	return res.RowsAffected, nil
}

func (r *GormSessionRepository) DeleteExpired(now time.Time) (int64, error) {
	res := r.db.Where("expires_at <= ?", now).Delete(&domain.Session{})
	if res.Error != nil {
		observability.RecordRepositoryOperation(context.Background(), "session", "delete_expired", "error")
		return res.RowsAffected, res.Error
	}
	observability.RecordRepositoryOperation(context.Background(), "session", "delete_expired", "success")
	return res.RowsAffected, nil
}
