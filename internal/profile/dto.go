package profile

// RegisterRequest creates a password-backed account.
type RegisterRequest struct {
	Name              string   `json:"name" validate:"required,max=100"`
	Surname           string   `json:"surname" validate:"max=100"`
	Email             string   `json:"email" validate:"required,email"`
	Phone             string   `json:"phone" validate:"omitempty,e164"`
	Password          string   `json:"password" validate:"required,min=8,max=72"`
	Age               int      `json:"age" validate:"required,gte=18,lte=100"`
	Country           string   `json:"country" validate:"required,max=100"`
	Gender            string   `json:"gender" validate:"required,oneof=male female"`
	Interests         []string `json:"interests" validate:"max=50,dive,max=50"`
	Photos            []string `json:"photos" validate:"max=10,dive,url"`
	Bio               string   `json:"bio" validate:"max=500"`
	InternationalMode bool     `json:"internationalMode"`
	MinAgePreference  *int     `json:"minAgePreference" validate:"omitempty,gte=18"`
	MaxAgePreference  *int     `json:"maxAgePreference" validate:"omitempty,lte=100"`
}

// UpdateProfileRequest applies a partial update; nil fields are untouched.
type UpdateProfileRequest struct {
	Name              *string  `json:"name" validate:"omitempty,max=100"`
	Surname           *string  `json:"surname" validate:"omitempty,max=100"`
	Age               *int     `json:"age" validate:"omitempty,gte=18,lte=100"`
	Country           *string  `json:"country" validate:"omitempty,max=100"`
	Interests         []string `json:"interests" validate:"omitempty,max=50,dive,max=50"`
	Photos            []string `json:"photos" validate:"omitempty,max=10,dive,url"`
	Bio               *string  `json:"bio" validate:"omitempty,max=500"`
	InternationalMode *bool    `json:"internationalMode"`
}

type PreferencesRequest struct {
	MinAgePreference int `json:"minAgePreference" validate:"required,gte=18"`
	MaxAgePreference int `json:"maxAgePreference" validate:"required,lte=100"`
}
