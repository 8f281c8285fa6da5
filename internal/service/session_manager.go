package service

import (
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/bloggerhub/device-session-service/internal/domain"
	"github.com/bloggerhub/device-session-service/internal/repository"
	"github.com/bloggerhub/device-session-service/internal/security"
)

var (
	// ErrUnauthorized covers every refresh-credential failure: missing,
	// malformed, expired, foreign signature, stale fingerprint. The caller
	// never learns which; the cure is always a full re-login.
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrNotFound     = errors.New("session not found")
)

type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

// DeviceView is the device-management projection of a session.
type DeviceView struct {
	DeviceID       string    `json:"deviceId"`
	IP             string    `json:"ip"`
	Title          string    `json:"title"`
	LastActiveDate time.Time `json:"lastActiveDate"`
}

// SessionManager drives the session state machine: login creates, refresh
// rotates, logout and the revoke operations destroy.
type SessionManager struct {
	codec      *security.TokenCodec
	sessions   repository.SessionRepository
	pepper     string
	accessTTL  time.Duration
	refreshTTL time.Duration
	now        func() time.Time
}

func NewSessionManager(codec *security.TokenCodec, sessions repository.SessionRepository, pepper string, accessTTL, refreshTTL time.Duration) *SessionManager {
	return &SessionManager{
		codec:      codec,
		sessions:   sessions,
		pepper:     pepper,
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		now:        time.Now,
	}
}

// WithTimeFunc overrides the manager's clock for tests.
func (m *SessionManager) WithTimeFunc(now func() time.Time) *SessionManager {
	m.now = now
	return m
}

// Login creates a fresh session for one device and returns its first token
// pair. A new login never reuses or touches an existing session, even from
// the same device descriptor.
func (m *SessionManager) Login(userID, deviceLabel, sourceAddress string) (*TokenPair, error) {
	sessionID := uuid.NewString()
	refresh, err := m.codec.SignRefreshToken(userID, sessionID, m.refreshTTL)
	if err != nil {
		return nil, err
	}
	now := m.now().UTC()
	if err := m.sessions.Create(&domain.Session{
		ID:                 sessionID,
		UserID:             userID,
		DeviceLabel:        deviceLabel,
		SourceAddress:      sourceAddress,
		RefreshFingerprint: security.RefreshFingerprint(refresh, m.pepper),
		CreatedAt:          now,
		LastActiveAt:       now,
		ExpiresAt:          now.Add(m.refreshTTL),
	}); err != nil {
		return nil, err
	}
	access, err := m.codec.SignAccessToken(userID, m.accessTTL)
	if err != nil {
		return nil, err
	}
	return &TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

// Resolve verifies a presented refresh token against the store: signature,
// expiry, session existence, and the current-fingerprint rule that makes a
// rotated-away token worthless even before it expires.
func (m *SessionManager) Resolve(presentedRefresh string) (*domain.Session, error) {
	claims, err := m.codec.ParseRefreshToken(presentedRefresh)
	if err != nil {
		return nil, ErrUnauthorized
	}
	session, err := m.sessions.FindByID(claims.DeviceID)
	if err != nil {
		if errors.Is(err, repository.ErrSessionNotFound) {
			return nil, ErrUnauthorized
		}
		return nil, err
	}
	if session.UserID != claims.Subject {
		return nil, ErrUnauthorized
	}
	if session.Expired(m.now()) {
		return nil, ErrUnauthorized
	}
	if session.RefreshFingerprint != security.RefreshFingerprint(presentedRefresh, m.pepper) {
		return nil, ErrUnauthorized
	}
	return session, nil
}

// Refresh rotates the session: new refresh token, new fingerprint, new
// access token. The store swap is conditional on the old fingerprint, so of
// two concurrent calls presenting the same token exactly one wins; the loser
// gets ErrUnauthorized, never a silent overwrite.
func (m *SessionManager) Refresh(presentedRefresh string) (*TokenPair, error) {
	session, err := m.Resolve(presentedRefresh)
	if err != nil {
		return nil, err
	}
	newRefresh, err := m.codec.SignRefreshToken(session.UserID, session.ID, m.refreshTTL)
	if err != nil {
		return nil, err
	}
	now := m.now().UTC()
	err = m.sessions.ReplaceFingerprint(
		session.ID,
		security.RefreshFingerprint(presentedRefresh, m.pepper),
		security.RefreshFingerprint(newRefresh, m.pepper),
		now,
		now.Add(m.refreshTTL),
	)
	if err != nil {
		if errors.Is(err, repository.ErrSessionNotFound) {
			return nil, ErrUnauthorized
		}
		return nil, err
	}
	access, err := m.codec.SignAccessToken(session.UserID, m.accessTTL)
	if err != nil {
		return nil, err
	}
	return &TokenPair{AccessToken: access, RefreshToken: newRefresh}, nil
}

// Logout destroys the session the presented token belongs to. A token whose
// session is already gone reports ErrUnauthorized, not success.
func (m *SessionManager) Logout(presentedRefresh string) error {
	session, err := m.Resolve(presentedRefresh)
	if err != nil {
		return err
	}
	if err := m.sessions.Delete(session.ID); err != nil {
		if errors.Is(err, repository.ErrSessionNotFound) {
			return ErrUnauthorized
		}
		return err
	}
	return nil
}

// ListDevices returns the user's live sessions as device views.
func (m *SessionManager) ListDevices(userID string) ([]DeviceView, error) {
	sessions, err := m.sessions.ListActiveByUserID(userID, m.now())
	if err != nil {
		return nil, err
	}
	views := make([]DeviceView, 0, len(sessions))
	for _, s := range sessions {
		views = append(views, DeviceView{
			DeviceID:       s.ID,
			IP:             s.SourceAddress,
			Title:          s.DeviceLabel,
			LastActiveDate: s.LastActiveAt,
		})
	}
	return views, nil
}

// RevokeDevice deletes one session on behalf of its owner.
func (m *SessionManager) RevokeDevice(callerUserID, targetSessionID string) error {
	session, err := m.sessions.FindByID(targetSessionID)
	if err != nil {
		if errors.Is(err, repository.ErrSessionNotFound) {
			return ErrNotFound
		}
		return err
	}
	if session.UserID != callerUserID {
		return ErrForbidden
	}
	if err := m.sessions.Delete(session.ID); err != nil {
		if errors.Is(err, repository.ErrSessionNotFound) {
			return ErrNotFound
		}
		return err
	}
	return nil
}

// RevokeOthers deletes every session of the user except the current one.
func (m *SessionManager) RevokeOthers(callerUserID, currentSessionID string) (int64, error) {
	return m.sessions.DeleteOthersByUser(callerUserID, currentSessionID)
}
