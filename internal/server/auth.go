package server

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"github.com/teamleave/leaveapi/internal/db/models"
	"github.com/teamleave/leaveapi/internal/directory"
	"github.com/teamleave/leaveapi/internal/repository"
)

// Authenticator verifies a login attempt and resolves the stored
// account through the given repository. A rejected attempt returns
// ErrBadCredentials. The repository is passed per call so lookups run
// on the request transaction.
type Authenticator interface {
	Authenticate(ctx context.Context, users repository.UserRepository, login, password string) (*models.User, error)
}

// DirectoryAuthenticator binds the candidate credentials against the
// directory, then resolves the local account, provisioning it from
// the directory profile on first login.
type DirectoryAuthenticator struct {
	Client *directory.Client
}

func (a *DirectoryAuthenticator) Authenticate(ctx context.Context, users repository.UserRepository, login, password string) (*models.User, error) {
	profile, err := a.Client.Authenticate(login, password)
	if err != nil {
		if errors.Is(err, directory.ErrUnknownUser) || directory.IsAuthenticationError(err) {
			return nil, ErrBadCredentials
		}
		return nil, fmt.Errorf("directory authentication: %w", err)
	}

	user, err := users.GetByLogin(ctx, login)
	if err == nil {
		return user, nil
	}

	user = &models.User{
		Login:        profile.Login,
		Email:        profile.Email,
		FirstName:    profile.FirstName,
		LastName:     profile.LastName,
		ManagerLogin: profile.Manager,
		Country:      profile.Country,
	}
	if err := users.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("provision user %s: %w", login, err)
	}
	return user, nil
}

// LocalAuthenticator checks the candidate password against the bcrypt
// hash stored on the account. It serves deployments without a
// directory.
type LocalAuthenticator struct{}

func (a *LocalAuthenticator) Authenticate(ctx context.Context, users repository.UserRepository, login, password string) (*models.User, error) {
	user, err := users.GetByLogin(ctx, login)
	if err != nil {
		return nil, ErrBadCredentials
	}
	if user.PasswordHash == nil {
		return nil, ErrBadCredentials
	}
	if bcrypt.CompareHashAndPassword([]byte(*user.PasswordHash), []byte(password)) != nil {
		return nil, ErrBadCredentials
	}
	return user, nil
}

// HashLocalPassword hashes a password for local accounts.
func HashLocalPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}
