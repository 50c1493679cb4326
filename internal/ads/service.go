package ads

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/heartsync/heartsync-backend/internal/config"
	"github.com/heartsync/heartsync-backend/internal/matching"
)

var (
	ErrAdNotFound = errors.New("ad not found")
	ErrNotOwner   = errors.New("user does not own this ad")
)

type Service interface {
	CreateAd(ctx context.Context, ownerID string, req *CreateAdRequest) (*Ad, error)
	GetAd(ctx context.Context, id string) (*Ad, error)
	ListAds(ctx context.Context, skip, limit int) ([]*Ad, error)
	UpdateAd(ctx context.Context, id, actorID string, req *UpdateAdRequest) (*Ad, error)
	DeleteAd(ctx context.Context, id, actorID string) error
	SetArchived(ctx context.Context, id, actorID string, archived bool) (*Ad, error)
	ListForUser(ctx context.Context, userID string, skip, limit int) ([]*TargetedAd, error)
}

type service struct {
	repo Repository
	cfg  config.MatchingConfig
}

func NewService(repo Repository, cfg config.MatchingConfig) Service {
	return &service{repo: repo, cfg: cfg}
}

func (s *service) CreateAd(ctx context.Context, ownerID string, req *CreateAdRequest) (*Ad, error) {
	ad := &Ad{
		ID:              uuid.NewString(),
		OwnerID:         ownerID,
		Title:           req.Title,
		Description:     req.Description,
		TargetInterests: pq.StringArray(matching.NormalizeInterests(req.TargetInterests)),
	}
	if req.ImageURL != "" {
		ad.ImageURL = &req.ImageURL
	}

	if err := s.repo.CreateAd(ctx, ad); err != nil {
		return nil, err
	}
	return ad, nil
}

func (s *service) GetAd(ctx context.Context, id string) (*Ad, error) {
	return s.repo.GetAd(ctx, id)
}

func (s *service) ListAds(ctx context.Context, skip, limit int) ([]*Ad, error) {
	if skip < 0 {
		skip = 0
	}
	if limit <= 0 || limit > s.cfg.ListMaxLimit {
		limit = s.cfg.ListMaxLimit
	}
	return s.repo.ListAds(ctx, skip, limit)
}

func (s *service) UpdateAd(ctx context.Context, id, actorID string, req *UpdateAdRequest) (*Ad, error) {
	ad, err := s.ownedAd(ctx, id, actorID)
	if err != nil {
		return nil, err
	}

	if req.Title != nil {
		ad.Title = *req.Title
	}
	if req.Description != nil {
		ad.Description = *req.Description
	}
	if req.ImageURL != nil {
		ad.ImageURL = req.ImageURL
	}
	if req.TargetInterests != nil {
		ad.TargetInterests = pq.StringArray(matching.NormalizeInterests(req.TargetInterests))
	}

	if err := s.repo.UpdateAd(ctx, ad); err != nil {
		return nil, err
	}
	return ad, nil
}

func (s *service) DeleteAd(ctx context.Context, id, actorID string) error {
	if _, err := s.ownedAd(ctx, id, actorID); err != nil {
		return err
	}
	return s.repo.DeleteAd(ctx, id)
}

func (s *service) SetArchived(ctx context.Context, id, actorID string, archived bool) (*Ad, error) {
	ad, err := s.ownedAd(ctx, id, actorID)
	if err != nil {
		return nil, err
	}

	if err := s.repo.SetArchived(ctx, id, archived); err != nil {
		return nil, err
	}
	ad.Archived = archived
	return ad, nil
}

func (s *service) ListForUser(ctx context.Context, userID string, skip, limit int) ([]*TargetedAd, error) {
	if skip < 0 {
		skip = 0
	}
	if limit <= 0 || limit > s.cfg.ListMaxLimit {
		limit = s.cfg.ListMaxLimit
	}
	return s.repo.ListTargetedForUser(ctx, userID, skip, limit)
}

func (s *service) ownedAd(ctx context.Context, id, actorID string) (*Ad, error) {
	ad, err := s.repo.GetAd(ctx, id)
	if err != nil {
		return nil, err
	}
	if ad.OwnerID != actorID {
		return nil, ErrNotOwner
	}
	return ad, nil
}
