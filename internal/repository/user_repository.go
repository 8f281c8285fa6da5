package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/bloggerhub/device-session-service/internal/domain"
	"github.com/bloggerhub/device-session-service/internal/observability"
)

var ErrUserNotFound = errors.New("user not found")

// UserRepository is the session subsystem's narrow window into the platform's
// user store: enough to authenticate a login request, nothing more.
type UserRepository interface {
	Create(u *domain.User) error
	FindByID(id string) (*domain.User, error)
	FindByLoginOrEmail(loginOrEmail string) (*domain.User, error)
}

type GormUserRepository struct{ db *gorm.DB }

func NewUserRepository(db *gorm.DB) UserRepository { return &GormUserRepository{db: db} }

func (r *GormUserRepository) Create(u *domain.User) error {
	err := r.db.Create(u).Error
	if err != nil {
		observability.RecordRepositoryOperation(context.Background(), "user", "create", "error")
		return err
	}
	observability.RecordRepositoryOperation(context.Background(), "user", "create", "success")
	return nil
}

func (r *GormUserRepository) FindByID(id string) (*domain.User, error) {
	var u domain.User
	err := r.db.Where("id = ?", id).First(&u).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			observability.RecordRepositoryOperation(context.Background(), "user", "find_by_id", "not_found")
			return nil, ErrUserNotFound
		}
		observability.RecordRepositoryOperation(context.Background(), "user", "find_by_id", "error")
		return nil, err
	}
	observability.RecordRepositoryOperation(context.Background(), "user", "find_by_id", "success")
	return &u, nil
}

func (r *GormUserRepository) FindByLoginOrEmail(loginOrEmail string) (*domain.User, error) {
	var u domain.User
	err := r.db.Where("login = ? OR email = ?", loginOrEmail, loginOrEmail).First(&u).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			observability.RecordRepositoryOperation(context.Background(), "user", "find_by_login_or_email", "not_found")
			return nil, ErrUserNotFound
		}
		observability.RecordRepositoryOperation(context.Background(), "user", "find_by_login_or_email", "error")
		return nil, err
	}
	observability.RecordRepositoryOperation(context.Background(), "user", "find_by_login_or_email", "success")
	return &u, nil
}
