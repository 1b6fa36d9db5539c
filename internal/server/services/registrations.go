package services

import (
	"context"
	"errors"
	"net/url"
	"time"

	"github.com/dmitrijs2005/userreg/internal/common"
	"github.com/dmitrijs2005/userreg/internal/cryptox"
	"github.com/dmitrijs2005/userreg/internal/logging"
	"github.com/dmitrijs2005/userreg/internal/server/models"
	"github.com/dmitrijs2005/userreg/internal/server/repositories/users"
	"github.com/dmitrijs2005/userreg/internal/server/validation"
	"github.com/google/uuid"
)

type Link struct {
	ID string `json:"id"`
}

// RegistrationResult describes a newly created account. The password hash
// is never part of it.
type RegistrationResult struct {
	Link   Link   `json:"_link"`
	Email  string `json:"email"`
	UserID string `json:"userId"`
}

type DeregistrationResult struct {
	Email string `json:"email"`
}

// RegistrationService creates and removes accounts.
type RegistrationService struct {
	users  users.Repository
	hasher cryptox.Hasher
	log    logging.Logger
	newID  func() string
	now    func() time.Time
}

func NewRegistrationService(repo users.Repository, hasher cryptox.Hasher, log logging.Logger) *RegistrationService {
	return &RegistrationService{
		users:  repo,
		hasher: hasher,
		log:    log.With("module", "registrations"),
		newID:  uuid.NewString,
		now:    time.Now,
	}
}

// userLink is the URI-encoded resource path of an account.
func userLink(email string) string {
	u := url.URL{Path: "/users/" + email}
	return u.EscapedPath()
}

// Register stores a new account for a validated request. The store's
// conditional write decides between concurrent registrations of one email.
func (s *RegistrationService) Register(ctx context.Context, in validation.RegistrationInput) (*RegistrationResult, error) {
	if in.Password == "" {
		return nil, validation.ErrPasswordRequired()
	}

	digest, err := s.hasher.Hash(ctx, in.Password)
	if err != nil {
		s.log.Error(ctx, "password hashing failed", "email", in.Email, "error", err)
		return nil, common.ErrorUnableToSave
	}

	now := s.now().UTC()
	user := &models.User{
		Email:        in.Email,
		UserID:       s.newID(),
		Username:     in.Username,
		PasswordHash: digest,
		CreatedAt:    now,
		ModifiedAt:   now,
	}
	if p := in.Properties; p != nil {
		user.Properties = models.Properties{
			FirstName: p.FirstName,
			LastName:  p.LastName,
			DeskPhone: p.DeskPhone,
			CellPhone: p.CellPhone,
			Address:   p.Address,
			City:      p.City,
			State:     p.State,
			ZipCode:   p.ZipCode,
			Country:   p.Country,
		}
	}

	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, common.ErrorAlreadyExists) {
			s.log.Info(ctx, "registration for existing email", "email", in.Email)
			return nil, common.ErrorConflict
		}
		s.log.Error(ctx, "user create failed", "email", in.Email, "error", err)
		return nil, common.ErrorUpstream
	}

	s.log.Info(ctx, "user registered", "email", user.Email, "user_id", user.UserID)
	return &RegistrationResult{
		Link:   Link{ID: userLink(user.Email)},
		Email:  user.Email,
		UserID: user.UserID,
	}, nil
}

// Deregister removes the account for a validated email. Removing an account
// that does not exist succeeds.
func (s *RegistrationService) Deregister(ctx context.Context, in validation.DeregistrationInput) (*DeregistrationResult, error) {
	if err := s.users.Delete(ctx, in.Email); err != nil {
		s.log.Error(ctx, "user delete failed", "email", in.Email, "error", err)
		return nil, common.ErrorUpstream
	}

	s.log.Info(ctx, "user deregistered", "email", in.Email)
	return &DeregistrationResult{Email: in.Email}, nil
}
