package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/userreg/internal/common"
	"github.com/dmitrijs2005/userreg/internal/cryptox"
	"github.com/dmitrijs2005/userreg/internal/logging"
	"github.com/dmitrijs2005/userreg/internal/server/repositories/users"
	"github.com/dmitrijs2005/userreg/internal/server/validation"
)

// TokenIssuer mints a bearer token for an authenticated account.
type TokenIssuer interface {
	Issue(email, userID string) (string, error)
}

// LoginResult is returned on successful authentication.
type LoginResult struct {
	Email string `json:"email"`
	Token string `json:"token"`
}

// AuthService verifies credentials and issues tokens.
//
// Unknown accounts, store failures and wrong passwords all end in
// common.ErrorUnauthorized. For unknown accounts and store failures the
// password is still checked against a throwaway digest so that every
// rejection costs one key derivation.
type AuthService struct {
	users       users.Repository
	hasher      cryptox.Hasher
	tokens      TokenIssuer
	log         logging.Logger
	dummyDigest string
}

func NewAuthService(ctx context.Context, repo users.Repository, hasher cryptox.Hasher, tokens TokenIssuer, log logging.Logger) (*AuthService, error) {
	pass, err := common.MakeRandHexString(16)
	if err != nil {
		return nil, err
	}
	dummy, err := hasher.Hash(ctx, pass)
	if err != nil {
		return nil, fmt.Errorf("prepare dummy digest: %w", err)
	}

	return &AuthService{
		users:       repo,
		hasher:      hasher,
		tokens:      tokens,
		log:         log.With("module", "auth"),
		dummyDigest: dummy,
	}, nil
}

// Login authenticates a validated request.
func (s *AuthService) Login(ctx context.Context, in validation.LoginInput) (*LoginResult, error) {
	user, err := s.users.Get(ctx, in.Email)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			s.log.Info(ctx, "login for unknown account", "email", in.Email)
		} else {
			s.log.Error(ctx, "user lookup failed", "email", in.Email, "error", err)
		}
		s.hasher.Verify(ctx, in.Password, s.dummyDigest)
		return nil, common.ErrorUnauthorized
	}

	if !s.hasher.Verify(ctx, in.Password, user.PasswordHash) {
		s.log.Info(ctx, "password mismatch", "email", in.Email)
		return nil, common.ErrorUnauthorized
	}

	token, err := s.tokens.Issue(user.Email, user.UserID)
	if err != nil {
		s.log.Error(ctx, "token signing failed", "email", in.Email, "error", err)
		return nil, common.ErrorInternal
	}

	s.log.Debug(ctx, "login succeeded", "email", in.Email)
	return &LoginResult{Email: user.Email, Token: token}, nil
}
