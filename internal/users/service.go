package users

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/aegis-platform/aegis/internal/platform/db"
	"github.com/aegis-platform/aegis/internal/shared"
)

// Service enforces user lifecycle rules.
type Service struct {
	repo Repository
}

// NewService builds a Service instance.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// List returns a page of users.
func (s *Service) List(ctx context.Context, params shared.PageParams) (shared.Page[User], error) {
	params.Normalize()
	rows, total, err := s.repo.List(ctx, params)
	if err != nil {
		return shared.Page[User]{}, err
	}
	return shared.NewPage(rows, params.Page, params.PageSize, total), nil
}

// Search returns users matching the filter as a plain list.
func (s *Service) Search(ctx context.Context, filter Filter) ([]User, error) {
	return s.repo.Search(ctx, filter)
}

// Get fetches a user by id.
func (s *Service) Get(ctx context.Context, id int64) (User, error) {
	return s.repo.Get(ctx, id)
}

// GetBySubject fetches the user carrying the given subject claim. Subjects
// are compared byte for byte, unlike logons.
func (s *Service) GetBySubject(ctx context.Context, subject string) (User, error) {
	subject = strings.TrimSpace(subject)
	if subject == "" {
		return User{}, fmt.Errorf("%w: subject required", shared.ErrValidation)
	}
	return s.repo.GetBySubject(ctx, subject)
}

// IDBySubject resolves the external subject claim to the internal user id.
func (s *Service) IDBySubject(ctx context.Context, subject string) (int64, error) {
	subject = strings.TrimSpace(subject)
	if subject == "" {
		return 0, fmt.Errorf("%w: subject required", shared.ErrValidation)
	}
	return s.repo.IDBySubject(ctx, subject)
}

// Authenticate validates logon/password credentials for token issuance.
// Disabled accounts authenticate like unknown ones.
func (s *Service) Authenticate(ctx context.Context, logon, password string) (User, error) {
	user, err := s.repo.GetByLogon(ctx, logon)
	if err != nil {
		return User{}, shared.ErrInvalidCredentials
	}
	if !user.Enabled {
		return User{}, shared.ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return User{}, shared.ErrInvalidCredentials
	}
	return user, nil
}

// Create inserts a user after checking logon and subject uniqueness.
func (s *Service) Create(ctx context.Context, user User, password string) (User, error) {
	user.Logon = strings.TrimSpace(user.Logon)
	user.Subject = strings.TrimSpace(user.Subject)
	if user.Logon == "" || user.Subject == "" {
		return User{}, fmt.Errorf("%w: logon and subject required", shared.ErrValidation)
	}
	count, err := s.repo.CountByNaturalKeys(ctx, user.Logon, user.Subject, 0)
	if err != nil {
		return User{}, err
	}
	if count > 0 {
		return User{}, fmt.Errorf("%w: user %q", shared.ErrDuplicate, user.Logon)
	}
	if password != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
		if err != nil {
			return User{}, err
		}
		user.PasswordHash = string(hash)
	}
	created, err := s.repo.Create(ctx, user)
	if err != nil {
		if db.IsUniqueViolation(err) {
			return User{}, fmt.Errorf("%w: user %q", shared.ErrDuplicate, user.Logon)
		}
		return User{}, err
	}
	return created, nil
}

// Update modifies a user, re-validating uniqueness excluding their own id.
// The subject claim is immutable once set.
func (s *Service) Update(ctx context.Context, user User) error {
	user.Logon = strings.TrimSpace(user.Logon)
	if user.Logon == "" {
		return fmt.Errorf("%w: logon required", shared.ErrValidation)
	}
	existing, err := s.repo.Get(ctx, user.ID)
	if err != nil {
		return err
	}
	count, err := s.repo.CountByNaturalKeys(ctx, user.Logon, existing.Subject, user.ID)
	if err != nil {
		return err
	}
	if count > 0 {
		return fmt.Errorf("%w: user %q", shared.ErrDuplicate, user.Logon)
	}
	if err := s.repo.Update(ctx, user); err != nil {
		if db.IsUniqueViolation(err) {
			return fmt.Errorf("%w: user %q", shared.ErrDuplicate, user.Logon)
		}
		return err
	}
	return nil
}

// Delete removes a user by id. Deleting an unknown id is not an error.
func (s *Service) Delete(ctx context.Context, id int64) (bool, error) {
	return s.repo.Delete(ctx, id)
}
