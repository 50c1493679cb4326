package profile

import (
	"context"
	"errors"
	"mime/multipart"
	"strings"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"golang.org/x/crypto/bcrypt"

	"github.com/heartsync/heartsync-backend/internal/config"
	"github.com/heartsync/heartsync-backend/internal/matching"
)

var (
	ErrUserNotFound       = errors.New("user not found")
	ErrEmailTaken         = errors.New("email is already registered")
	ErrInvalidPreferences = errors.New("age preferences outside the allowed window")
)

type Service interface {
	Register(ctx context.Context, req *RegisterRequest) (*User, error)
	GetUser(ctx context.Context, id string) (*User, error)
	GetUserByEmail(ctx context.Context, email string) (*User, error)
	ListUsers(ctx context.Context, skip, limit int) ([]*User, error)
	UpdateUser(ctx context.Context, id string, req *UpdateProfileRequest) (*User, error)
	DeleteUser(ctx context.Context, id string) error
	SetPreferences(ctx context.Context, id string, req *PreferencesRequest) (*User, error)
	UploadPhoto(ctx context.Context, id string, file multipart.File, header *multipart.FileHeader) (string, error)
}

type service struct {
	repo    Repository
	uploads UploadService
	cfg     *config.Config
}

func NewService(repo Repository, uploads UploadService, cfg *config.Config) Service {
	return &service{repo: repo, uploads: uploads, cfg: cfg}
}

func (s *service) Register(ctx context.Context, req *RegisterRequest) (*User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.cfg.BCryptCost)
	if err != nil {
		return nil, err
	}
	hashStr := string(hash)

	rule := s.cfg.Matching.PreferencesFor(req.Gender)
	minPref, maxPref := rule.DefaultMin, rule.DefaultMax
	if req.MinAgePreference != nil || req.MaxAgePreference != nil {
		if req.MinAgePreference != nil {
			minPref = *req.MinAgePreference
		}
		if req.MaxAgePreference != nil {
			maxPref = *req.MaxAgePreference
		}
		if !preferencesValid(rule, minPref, maxPref) {
			return nil, ErrInvalidPreferences
		}
	}

	user := &User{
		ID:                uuid.NewString(),
		Name:              strings.TrimSpace(req.Name),
		Surname:           strings.TrimSpace(req.Surname),
		Email:             strings.ToLower(strings.TrimSpace(req.Email)),
		PasswordHash:      &hashStr,
		Phone:             optional(req.Phone),
		Age:               req.Age,
		Country:           strings.TrimSpace(req.Country),
		Gender:            req.Gender,
		Interests:         pq.StringArray(matching.NormalizeInterests(req.Interests)),
		Photos:            pq.StringArray(req.Photos),
		Bio:               req.Bio,
		InternationalMode: req.InternationalMode,
		MinAgePreference:  minPref,
		MaxAgePreference:  maxPref,
	}
	if user.Photos == nil {
		user.Photos = pq.StringArray{}
	}
	if user.Interests == nil {
		user.Interests = pq.StringArray{}
	}

	if err := s.repo.CreateUser(ctx, user); err != nil {
		return nil, err
	}

	return user, nil
}

func (s *service) GetUser(ctx context.Context, id string) (*User, error) {
	return s.repo.GetUser(ctx, id)
}

func (s *service) GetUserByEmail(ctx context.Context, email string) (*User, error) {
	return s.repo.GetUserByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
}

func (s *service) ListUsers(ctx context.Context, skip, limit int) ([]*User, error) {
	if skip < 0 {
		skip = 0
	}
	if limit <= 0 || limit > s.cfg.Matching.ListMaxLimit {
		limit = s.cfg.Matching.ListMaxLimit
	}
	return s.repo.ListUsers(ctx, skip, limit)
}

func (s *service) UpdateUser(ctx context.Context, id string, req *UpdateProfileRequest) (*User, error) {
	user, err := s.repo.GetUser(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		user.Name = strings.TrimSpace(*req.Name)
	}
	if req.Surname != nil {
		user.Surname = strings.TrimSpace(*req.Surname)
	}
	if req.Age != nil {
		user.Age = *req.Age
	}
	if req.Country != nil {
		user.Country = strings.TrimSpace(*req.Country)
	}
	if req.Interests != nil {
		user.Interests = pq.StringArray(matching.NormalizeInterests(req.Interests))
	}
	if req.Photos != nil {
		user.Photos = pq.StringArray(req.Photos)
	}
	if req.Bio != nil {
		user.Bio = *req.Bio
	}
	if req.InternationalMode != nil {
		user.InternationalMode = *req.InternationalMode
	}

	if err := s.repo.UpdateUser(ctx, user); err != nil {
		return nil, err
	}

	return user, nil
}

func (s *service) DeleteUser(ctx context.Context, id string) error {
	return s.repo.DeleteUser(ctx, id)
}

func (s *service) SetPreferences(ctx context.Context, id string, req *PreferencesRequest) (*User, error) {
	user, err := s.repo.GetUser(ctx, id)
	if err != nil {
		return nil, err
	}

	rule := s.cfg.Matching.PreferencesFor(user.Gender)
	if !preferencesValid(rule, req.MinAgePreference, req.MaxAgePreference) {
		return nil, ErrInvalidPreferences
	}

	if err := s.repo.SetPreferences(ctx, id, req.MinAgePreference, req.MaxAgePreference); err != nil {
		return nil, err
	}

	user.MinAgePreference = req.MinAgePreference
	user.MaxAgePreference = req.MaxAgePreference
	return user, nil
}

func (s *service) UploadPhoto(ctx context.Context, id string, file multipart.File, header *multipart.FileHeader) (string, error) {
	if _, err := s.repo.GetUser(ctx, id); err != nil {
		return "", err
	}

	url, err := s.uploads.UploadFile(ctx, file, header, "photos")
	if err != nil {
		return "", err
	}

	if err := s.repo.AddPhoto(ctx, id, url); err != nil {
		return "", err
	}

	return url, nil
}

func preferencesValid(rule config.PreferenceRule, minAge, maxAge int) bool {
	return minAge >= rule.FloorMin && maxAge <= rule.CeilMax && minAge <= maxAge
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
