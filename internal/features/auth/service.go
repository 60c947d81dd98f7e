package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/xyz-asif/roadwatch/internal/pkg/jwt"
	"github.com/xyz-asif/roadwatch/internal/pkg/logger"
)

// Service issues and resolves sessions
type Service struct {
	identity Identity
	profiles ProfileStore
	jwtCfg   *jwt.Config
	log      *logger.Logger
}

func NewService(identity Identity, profiles ProfileStore, jwtCfg *jwt.Config) *Service {
	return &Service{
		identity: identity,
		profiles: profiles,
		jwtCfg:   jwtCfg,
		log:      logger.Default().Named("auth"),
	}
}

// Profiles exposes the profile store to the features that read points
func (s *Service) Profiles() ProfileStore {
	return s.profiles
}

// SignUp creates the account and a profile with zero points
func (s *Service) SignUp(ctx context.Context, req SignUpRequest) (*AuthResponse, error) {
	uid, err := s.identity.CreateAccount(ctx, req.Email, req.Password)
	if err != nil {
		return nil, err
	}

	profile := &Profile{ID: uid, Email: req.Email}
	if err := s.profiles.Create(ctx, profile); err != nil {
		s.log.Error("account %s created but profile insert failed: %v", uid, err)
		return nil, err
	}

	return s.issue(profile)
}

// SignIn verifies the password and issues a session for the stored profile.
// A verified account without a profile gets one.
func (s *Service) SignIn(ctx context.Context, req SignInRequest) (*AuthResponse, error) {
	uid, err := s.identity.VerifyPassword(ctx, req.Email, req.Password)
	if err != nil {
		return nil, err
	}

	profile, err := s.profiles.GetByID(ctx, uid)
	if errors.Is(err, ErrProfileNotFound) {
		profile = &Profile{ID: uid, Email: req.Email}
		err = s.profiles.Create(ctx, profile)
	}
	if err != nil {
		return nil, err
	}

	return s.issue(profile)
}

// SignOut revokes the provider tokens and every app session of user
func (s *Service) SignOut(ctx context.Context, user CurrentUser) error {
	if err := s.identity.RevokeSessions(ctx, user.ID); err != nil {
		s.log.Warn("revoking provider tokens for %s failed: %v", user.ID, err)
	}
	if _, err := s.profiles.BumpSessionVersion(ctx, user.ID); err != nil {
		return err
	}
	return nil
}

// Resolve validates a session token against the current profile
func (s *Service) Resolve(ctx context.Context, token string) (CurrentUser, *Profile, error) {
	claims, err := jwt.ValidateToken(token, s.jwtCfg)
	if err != nil {
		return CurrentUser{}, nil, fmt.Errorf("%w: %v", ErrInvalidCredentials, err)
	}

	profile, err := s.profiles.GetByID(ctx, claims.UserID)
	if err != nil {
		return CurrentUser{}, nil, err
	}
	if profile.SessionVersion != claims.SessionVersion {
		return CurrentUser{}, nil, ErrSessionRevoked
	}

	return CurrentUser{
		ID:             profile.ID,
		Email:          profile.Email,
		Admin:          profile.IsAdmin,
		SessionVersion: profile.SessionVersion,
	}, profile, nil
}

func (s *Service) issue(p *Profile) (*AuthResponse, error) {
	token, err := jwt.GenerateToken(jwt.Subject{
		UserID:         p.ID,
		Email:          p.Email,
		Admin:          p.IsAdmin,
		SessionVersion: p.SessionVersion,
	}, s.jwtCfg)
	if err != nil {
		return nil, err
	}
	return &AuthResponse{Profile: p, AccessToken: token}, nil
}
