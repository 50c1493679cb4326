package profile

import (
	"time"

	"github.com/lib/pq"
)

// User is the full account row. PasswordHash is NULL for accounts created via
// external sign-in (Google).
type User struct {
	ID                string         `json:"id" db:"id"`
	Name              string         `json:"name" db:"name"`
	Surname           string         `json:"surname" db:"surname"`
	Email             string         `json:"email" db:"email"`
	Phone             *string        `json:"phone,omitempty" db:"phone"`
	PasswordHash      *string        `json:"-" db:"password_hash"`
	Age               int            `json:"age" db:"age"`
	Country           string         `json:"country" db:"country"`
	Gender            string         `json:"gender" db:"gender"`
	Interests         pq.StringArray `json:"interests" db:"interests"`
	Photos            pq.StringArray `json:"photos" db:"photos"`
	Bio               string         `json:"bio" db:"bio"`
	InternationalMode bool           `json:"internationalMode" db:"international_mode"`
	MinAgePreference  int            `json:"minAgePreference" db:"min_age_preference"`
	MaxAgePreference  int            `json:"maxAgePreference" db:"max_age_preference"`
	CreatedAt         time.Time      `json:"createdAt" db:"created_at"`
	UpdatedAt         time.Time      `json:"updatedAt" db:"updated_at"`
	LastActiveAt      time.Time      `json:"lastActiveAt" db:"last_active_at"`
}
