package profile_test

import (
	"context"
	"mime/multipart"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/heartsync/heartsync-backend/internal/config"
	"github.com/heartsync/heartsync-backend/internal/profile"
)

type memoryRepository struct {
	mu      sync.Mutex
	byID    map[string]*profile.User
	byEmail map[string]string
}

func newMemoryRepository() *memoryRepository {
	return &memoryRepository{
		byID:    make(map[string]*profile.User),
		byEmail: make(map[string]string),
	}
}

func (r *memoryRepository) CreateUser(_ context.Context, user *profile.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, taken := r.byEmail[user.Email]; taken {
		return profile.ErrEmailTaken
	}
	r.byID[user.ID] = user
	r.byEmail[user.Email] = user.ID
	return nil
}

func (r *memoryRepository) GetUser(_ context.Context, id string) (*profile.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.byID[id]
	if !ok {
		return nil, profile.ErrUserNotFound
	}
	return u, nil
}

func (r *memoryRepository) GetUserByEmail(_ context.Context, email string) (*profile.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	id, ok := r.byEmail[email]
	if !ok {
		return nil, profile.ErrUserNotFound
	}
	return r.byID[id], nil
}

func (r *memoryRepository) ListUsers(_ context.Context, skip, limit int) ([]*profile.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var users []*profile.User
	for _, u := range r.byID {
		users = append(users, u)
	}
	if skip >= len(users) {
		return []*profile.User{}, nil
	}
	end := len(users)
	if limit > 0 && skip+limit < end {
		end = skip + limit
	}
	return users[skip:end], nil
}

func (r *memoryRepository) UpdateUser(_ context.Context, user *profile.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byID[user.ID]; !ok {
		return profile.ErrUserNotFound
	}
	r.byID[user.ID] = user
	return nil
}

func (r *memoryRepository) DeleteUser(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.byID[id]
	if !ok {
		return profile.ErrUserNotFound
	}
	delete(r.byEmail, u.Email)
	delete(r.byID, id)
	return nil
}

func (r *memoryRepository) SetPreferences(_ context.Context, id string, minAge, maxAge int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.byID[id]
	if !ok {
		return profile.ErrUserNotFound
	}
	u.MinAgePreference = minAge
	u.MaxAgePreference = maxAge
	return nil
}

func (r *memoryRepository) AddPhoto(_ context.Context, id, url string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.byID[id]
	if !ok {
		return profile.ErrUserNotFound
	}
	u.Photos = append(u.Photos, url)
	return nil
}

func (r *memoryRepository) TouchLastActive(_ context.Context, _ string) error { return nil }

type fakeUploads struct {
	url   string
	calls int
}

func (u *fakeUploads) UploadFile(_ context.Context, _ multipart.File, _ *multipart.FileHeader, _ string) (string, error) {
	u.calls++
	return u.url, nil
}

func (u *fakeUploads) DeleteFile(_ context.Context, _ string) error { return nil }

func testConfig() *config.Config {
	return &config.Config{
		BCryptCost: bcrypt.MinCost,
		Matching: config.MatchingConfig{
			OppositeGenderOnly: true,
			MalePreferences:    config.PreferenceRule{DefaultMin: 30, DefaultMax: 80, FloorMin: 31, CeilMax: 100},
			FemalePreferences:  config.PreferenceRule{DefaultMin: 18, DefaultMax: 25, FloorMin: 18, CeilMax: 24},
			SuggestionMaxLimit: 20,
			ListMaxLimit:       50,
		},
	}
}

func newTestService(t *testing.T) (profile.Service, *memoryRepository, *fakeUploads) {
	t.Helper()

	repo := newMemoryRepository()
	uploads := &fakeUploads{url: "https://cdn.example.com/photos/abc.jpg"}
	return profile.NewService(repo, uploads, testConfig()), repo, uploads
}

func registerRequest(gender string) *profile.RegisterRequest {
	return &profile.RegisterRequest{
		Name:     "Sam",
		Email:    "sam@example.com",
		Password: "correct-horse",
		Age:      28,
		Country:  "US",
		Gender:   gender,
	}
}

func TestServiceRegister(t *testing.T) {
	ctx := context.Background()

	t.Run("applies gender defaults when preferences are omitted", func(t *testing.T) {
		svc, _, _ := newTestService(t)

		man, err := svc.Register(ctx, registerRequest("male"))
		require.NoError(t, err)
		assert.Equal(t, 30, man.MinAgePreference)
		assert.Equal(t, 80, man.MaxAgePreference)

		req := registerRequest("female")
		req.Email = "sue@example.com"
		woman, err := svc.Register(ctx, req)
		require.NoError(t, err)
		assert.Equal(t, 18, woman.MinAgePreference)
		assert.Equal(t, 25, woman.MaxAgePreference)
	})

	t.Run("hashes the password and normalizes email", func(t *testing.T) {
		svc, _, _ := newTestService(t)

		req := registerRequest("male")
		req.Email = "  Sam@Example.COM "
		user, err := svc.Register(ctx, req)
		require.NoError(t, err)

		assert.Equal(t, "sam@example.com", user.Email)
		require.NotNil(t, user.PasswordHash)
		assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(*user.PasswordHash), []byte("correct-horse")))
	})

	t.Run("normalizes interests", func(t *testing.T) {
		svc, _, _ := newTestService(t)

		req := registerRequest("female")
		req.Interests = []string{" Hiking", "MUSIC", "hiking"}
		user, err := svc.Register(ctx, req)
		require.NoError(t, err)
		assert.Equal(t, []string{"hiking", "music"}, []string(user.Interests))
	})

	t.Run("explicit preferences are validated against the gender window", func(t *testing.T) {
		svc, _, _ := newTestService(t)

		minPref, maxPref := 35, 60
		req := registerRequest("male")
		req.MinAgePreference = &minPref
		req.MaxAgePreference = &maxPref
		user, err := svc.Register(ctx, req)
		require.NoError(t, err)
		assert.Equal(t, 35, user.MinAgePreference)
		assert.Equal(t, 60, user.MaxAgePreference)

		tooYoung := 25
		req = registerRequest("male")
		req.Email = "other@example.com"
		req.MinAgePreference = &tooYoung
		_, err = svc.Register(ctx, req)
		assert.ErrorIs(t, err, profile.ErrInvalidPreferences, "male floor is 31")
	})

	t.Run("duplicate email is rejected", func(t *testing.T) {
		svc, _, _ := newTestService(t)

		_, err := svc.Register(ctx, registerRequest("male"))
		require.NoError(t, err)
		_, err = svc.Register(ctx, registerRequest("male"))
		assert.ErrorIs(t, err, profile.ErrEmailTaken)
	})
}

func TestServiceSetPreferences(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestService(t)

	man, err := svc.Register(ctx, registerRequest("male"))
	require.NoError(t, err)

	req := registerRequest("female")
	req.Email = "sue@example.com"
	woman, err := svc.Register(ctx, req)
	require.NoError(t, err)

	t.Run("within the window", func(t *testing.T) {
		updated, err := svc.SetPreferences(ctx, man.ID, &profile.PreferencesRequest{
			MinAgePreference: 31, MaxAgePreference: 100,
		})
		require.NoError(t, err)
		assert.Equal(t, 31, updated.MinAgePreference)
		assert.Equal(t, 100, updated.MaxAgePreference)
	})

	t.Run("outside the window", func(t *testing.T) {
		_, err := svc.SetPreferences(ctx, man.ID, &profile.PreferencesRequest{
			MinAgePreference: 30, MaxAgePreference: 80,
		})
		assert.ErrorIs(t, err, profile.ErrInvalidPreferences, "male floor is 31")

		_, err = svc.SetPreferences(ctx, woman.ID, &profile.PreferencesRequest{
			MinAgePreference: 18, MaxAgePreference: 30,
		})
		assert.ErrorIs(t, err, profile.ErrInvalidPreferences, "female ceiling is 24")
	})

	t.Run("inverted bounds", func(t *testing.T) {
		_, err := svc.SetPreferences(ctx, woman.ID, &profile.PreferencesRequest{
			MinAgePreference: 22, MaxAgePreference: 20,
		})
		assert.ErrorIs(t, err, profile.ErrInvalidPreferences)
	})

	t.Run("unknown user", func(t *testing.T) {
		_, err := svc.SetPreferences(ctx, "ghost", &profile.PreferencesRequest{
			MinAgePreference: 18, MaxAgePreference: 24,
		})
		assert.ErrorIs(t, err, profile.ErrUserNotFound)
	})
}

func TestServiceUpdateUser(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestService(t)

	user, err := svc.Register(ctx, registerRequest("male"))
	require.NoError(t, err)

	bio := "new bio"
	updated, err := svc.UpdateUser(ctx, user.ID, &profile.UpdateProfileRequest{
		Bio:       &bio,
		Interests: []string{" Art ", "art", "COOKING"},
	})
	require.NoError(t, err)
	assert.Equal(t, "new bio", updated.Bio)
	assert.Equal(t, []string{"art", "cooking"}, []string(updated.Interests), "interests re-normalized on update")
	assert.Equal(t, "Sam", updated.Name, "untouched fields survive")

	_, err = svc.UpdateUser(ctx, "ghost", &profile.UpdateProfileRequest{Bio: &bio})
	assert.ErrorIs(t, err, profile.ErrUserNotFound)
}

func TestServiceUploadPhoto(t *testing.T) {
	ctx := context.Background()
	svc, repo, uploads := newTestService(t)

	user, err := svc.Register(ctx, registerRequest("female"))
	require.NoError(t, err)

	url, err := svc.UploadPhoto(ctx, user.ID, nil, &multipart.FileHeader{Filename: "me.jpg"})
	require.NoError(t, err)
	assert.Equal(t, uploads.url, url)
	assert.Equal(t, 1, uploads.calls)

	stored, err := repo.GetUser(ctx, user.ID)
	require.NoError(t, err)
	assert.Contains(t, []string(stored.Photos), url)

	_, err = svc.UploadPhoto(ctx, "ghost", nil, &multipart.FileHeader{Filename: "me.jpg"})
	assert.ErrorIs(t, err, profile.ErrUserNotFound)
}
