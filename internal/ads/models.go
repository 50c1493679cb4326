package ads

import (
	"time"

	"github.com/lib/pq"
)

// Ad is an interest-targeted advertisement.
type Ad struct {
	ID              string         `json:"id" db:"id"`
	OwnerID         string         `json:"ownerId" db:"owner_id"`
	Title           string         `json:"title" db:"title"`
	Description     string         `json:"description" db:"description"`
	ImageURL        *string        `json:"imageUrl,omitempty" db:"image_url"`
	TargetInterests pq.StringArray `json:"targetInterests" db:"target_interests"`
	Archived        bool           `json:"archived" db:"archived"`
	CreatedAt       time.Time      `json:"createdAt" db:"created_at"`
	UpdatedAt       time.Time      `json:"updatedAt" db:"updated_at"`
}

// TargetedAd is an ad paired with how many of the viewer's interests it hits.
type TargetedAd struct {
	*Ad
	SharedInterestCount int `json:"sharedInterestCount"`
}

type CreateAdRequest struct {
	Title           string   `json:"title" validate:"required,max=200"`
	Description     string   `json:"description" validate:"max=2000"`
	ImageURL        string   `json:"imageUrl" validate:"omitempty,url"`
	TargetInterests []string `json:"targetInterests" validate:"required,min=1,max=50,dive,max=50"`
}

type UpdateAdRequest struct {
	Title           *string  `json:"title" validate:"omitempty,max=200"`
	Description     *string  `json:"description" validate:"omitempty,max=2000"`
	ImageURL        *string  `json:"imageUrl" validate:"omitempty,url"`
	TargetInterests []string `json:"targetInterests" validate:"omitempty,min=1,max=50,dive,max=50"`
}
