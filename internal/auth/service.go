package auth

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	goauth2 "google.golang.org/api/oauth2/v2"
	"google.golang.org/api/option"

	"github.com/heartsync/heartsync-backend/internal/common/utils"
	"github.com/heartsync/heartsync-backend/internal/config"
)

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrExternalOnly       = errors.New("account uses external sign-in")
	ErrInvalidIDToken     = errors.New("google token could not be verified")
)

type Service interface {
	Login(ctx context.Context, req *LoginRequest) (*AuthResponse, error)
	GoogleLogin(ctx context.Context, req *GoogleLoginRequest) (*AuthResponse, error)
}

type service struct {
	repo Repository
	cfg  *config.Config
}

func NewService(repo Repository, cfg *config.Config) Service {
	return &service{repo: repo, cfg: cfg}
}

func (s *service) Login(ctx context.Context, req *LoginRequest) (*AuthResponse, error) {
	creds, err := s.repo.GetCredentialsByEmail(ctx, strings.ToLower(strings.TrimSpace(req.Email)))
	if err != nil {
		return nil, err
	}

	if creds.PasswordHash == nil {
		return nil, ErrExternalOnly
	}
	if bcrypt.CompareHashAndPassword([]byte(*creds.PasswordHash), []byte(req.Password)) != nil {
		return nil, ErrInvalidCredentials
	}

	if err := s.repo.TouchLastActive(ctx, creds.ID); err != nil {
		return nil, err
	}

	return s.issueToken(creds)
}

// GoogleLogin verifies the ID token against Google's tokeninfo endpoint and
// finds or creates the matching account.
func (s *service) GoogleLogin(ctx context.Context, req *GoogleLoginRequest) (*AuthResponse, error) {
	oauthSvc, err := goauth2.NewService(ctx, option.WithoutAuthentication())
	if err != nil {
		return nil, err
	}

	info, err := oauthSvc.Tokeninfo().IdToken(req.IDToken).Context(ctx).Do()
	if err != nil || info.Email == "" || !info.VerifiedEmail {
		return nil, ErrInvalidIDToken
	}

	email := strings.ToLower(info.Email)
	creds, err := s.repo.GetCredentialsByEmail(ctx, email)
	if errors.Is(err, ErrInvalidCredentials) {
		creds, err = s.repo.CreateExternalUser(ctx, uuid.NewString(), email, displayNameFromEmail(email))
	}
	if err != nil {
		return nil, err
	}

	if err := s.repo.TouchLastActive(ctx, creds.ID); err != nil {
		return nil, err
	}

	return s.issueToken(creds)
}

// displayNameFromEmail derives a default display name from the address's
// local part, falling back to the whole address when there is none.
func displayNameFromEmail(email string) string {
	if at := strings.Index(email, "@"); at > 0 {
		return email[:at]
	}
	return email
}

func (s *service) issueToken(creds *Credentials) (*AuthResponse, error) {
	now := time.Now()
	expiresAt := now.Add(s.cfg.AccessTokenExpiry).Unix()

	token, err := utils.GenerateJWT(&utils.JWTClaims{
		UserID:    creds.ID,
		Email:     creds.Email,
		Type:      "access",
		ExpiresAt: expiresAt,
		IssuedAt:  now.Unix(),
		Issuer:    "heartsync",
		Subject:   creds.ID,
	}, s.cfg.JWTSecret)
	if err != nil {
		return nil, err
	}

	return &AuthResponse{
		Token:     token,
		ExpiresAt: expiresAt,
		UserID:    creds.ID,
		Email:     creds.Email,
	}, nil
}
