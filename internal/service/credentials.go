package service

import (
	"errors"

	"github.com/bloggerhub/device-session-service/internal/domain"
	"github.com/bloggerhub/device-session-service/internal/repository"
	"github.com/bloggerhub/device-session-service/internal/security"
)

// CredentialVerifier authenticates a login request against the user store.
// Unknown account and wrong password are indistinguishable to the caller.
type CredentialVerifier struct {
	users repository.UserRepository
}

func NewCredentialVerifier(users repository.UserRepository) *CredentialVerifier {
	return &CredentialVerifier{users: users}
}

func (v *CredentialVerifier) Verify(loginOrEmail, password string) (*domain.User, error) {
	user, err := v.users.FindByLoginOrEmail(loginOrEmail)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrUnauthorized
		}
		return nil, err
	}
	if !security.CheckPassword(user.PasswordHash, password) {
		return nil, ErrUnauthorized
	}
	return user, nil
}
