package service

import (
	"context"
	"testing"
	"time"

	"github.com/klass-lk/ginblog"
	"github.com/klass-lk/ginblog/internal/dto"
	"github.com/klass-lk/ginblog/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/mongo"
)

type profileFixture struct {
	profiles *MockProfileStore
	admins   *MockAdminStore
	cache    *forgetfulCache
	service  *ProfileService
}

func newProfileFixture(now time.Time) profileFixture {
	f := profileFixture{
		profiles: new(MockProfileStore),
		admins:   new(MockAdminStore),
		cache:    &forgetfulCache{},
	}
	f.service = NewProfileService(f.profiles, f.admins, f.cache)
	f.service.now = fixedNow(now)
	return f
}

func TestProfileService_Me(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 2, 2, 0, 0, 0, 0, time.UTC)
	caller := ginblog.AuthContext{UserID: "u1", UserEmail: "Jane@Example.com", Name: "Jane", Picture: "p.png"}

	t.Run("created on first access", func(t *testing.T) {
		f := newProfileFixture(now)
		f.profiles.On("FindById", ctx, "u1").Return(model.UserProfile{}, mongo.ErrNoDocuments)
		f.profiles.On("Save", ctx, mock.Anything).Return(nil)

		p, err := f.service.Me(ctx, caller)
		require.NoError(t, err)
		assert.Equal(t, "Jane", p.DisplayName)
		assert.Equal(t, "jane@example.com", p.Email)
		assert.Equal(t, "p.png", p.PhotoURL)
		assert.False(t, p.IsAdmin)
		assert.Equal(t, now, p.CreatedAt)
	})

	t.Run("existing", func(t *testing.T) {
		f := newProfileFixture(now)
		f.profiles.On("FindById", ctx, "u1").Return(model.UserProfile{UID: "u1", Bio: "hi"}, nil)

		p, err := f.service.Me(ctx, caller)
		require.NoError(t, err)
		assert.Equal(t, "hi", p.Bio)
		f.profiles.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	})
}

func TestProfileService_UpdateMe(t *testing.T) {
	ctx := context.Background()
	f := newProfileFixture(time.Now())
	stored := model.UserProfile{UID: "u1", DisplayName: "Old", Email: "a@b.c", IsAdmin: true}
	f.profiles.On("FindById", ctx, "u1").Return(stored, nil)
	f.profiles.On("Update", ctx, mock.MatchedBy(func(p model.UserProfile) bool {
		return p.IsAdmin && p.Email == "a@b.c"
	})).Return(nil)

	p, err := f.service.UpdateMe(ctx, ginblog.AuthContext{UserID: "u1"}, dto.ProfileUpdate{
		DisplayName: "New",
		Bio:         "bio",
		Social:      model.SocialLinks{GitHub: "gh"},
	})
	require.NoError(t, err)
	assert.Equal(t, "New", p.DisplayName)
	assert.Equal(t, "gh", p.Social.GitHub)
	assert.True(t, p.IsAdmin)
	f.profiles.AssertExpectations(t)
}

func TestProfileService_Public(t *testing.T) {
	ctx := context.Background()
	f := newProfileFixture(time.Now())
	f.profiles.On("FindById", ctx, "u1").Return(model.UserProfile{UID: "u1", Email: "a@b.c"}, nil)
	f.profiles.On("FindById", ctx, "nope").Return(model.UserProfile{}, mongo.ErrNoDocuments)

	p, err := f.service.Public(ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, p.Email)

	_, err = f.service.Public(ctx, "nope")
	assert.ErrorIs(t, err, ginblog.ErrNotFound)
}

func TestProfileService_Admins(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 2, 2, 0, 0, 0, 0, time.UTC)
	caller := ginblog.AuthContext{UserID: "boss", UserEmail: "boss@example.com"}

	t.Run("set admin on another user", func(t *testing.T) {
		f := newProfileFixture(now)
		f.profiles.On("SetAdmin", ctx, "u2", true).Return(model.UserProfile{UID: "u2", Email: "u2@example.com", IsAdmin: true}, nil)

		p, err := f.service.SetAdmin(ctx, caller, "u2", true)
		require.NoError(t, err)
		assert.True(t, p.IsAdmin)
		assert.Equal(t, 1, f.cache.all)
	})

	t.Run("grant reaches decisions cached under the token email", func(t *testing.T) {
		profiles := new(MockProfileStore)
		emails := new(MockAdminStore)
		profiles.On("FindById", ctx, "u2").Return(model.UserProfile{UID: "u2"}, nil).Once()
		profiles.On("FindById", ctx, "u2").Return(model.UserProfile{UID: "u2", IsAdmin: true}, nil).Once()
		emails.On("IsAdminEmail", ctx, "token@example.com").Return(false, nil)
		profiles.On("SetAdmin", ctx, "u2", true).
			Return(model.UserProfile{UID: "u2", Email: "stored@example.com", IsAdmin: true}, nil)

		checker, err := NewAdminChecker(profiles, emails, time.Minute)
		require.NoError(t, err)
		ok, err := checker.IsAdmin(ctx, "u2", "Token@Example.com")
		require.NoError(t, err)
		require.False(t, ok)

		_, err = NewProfileService(profiles, emails, checker).SetAdmin(ctx, caller, "u2", true)
		require.NoError(t, err)

		ok, err = checker.IsAdmin(ctx, "u2", "Token@Example.com")
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("cannot change own flag", func(t *testing.T) {
		f := newProfileFixture(now)
		_, err := f.service.SetAdmin(ctx, caller, "boss", false)
		assert.ErrorIs(t, err, ginblog.ErrForbidden)
	})

	t.Run("unknown profile", func(t *testing.T) {
		f := newProfileFixture(now)
		f.profiles.On("SetAdmin", ctx, "ghost", true).Return(model.UserProfile{}, mongo.ErrNoDocuments)
		_, err := f.service.SetAdmin(ctx, caller, "ghost", true)
		assert.ErrorIs(t, err, ginblog.ErrNotFound)
	})

	t.Run("add and remove email markers", func(t *testing.T) {
		f := newProfileFixture(now)
		f.admins.On("SaveOrUpdate", ctx, model.AdminMarker{Email: "new@example.com", AddedBy: "boss", CreatedAt: now}).Return(nil)
		f.admins.On("Delete", ctx, "new@example.com").Return(nil)

		marker, err := f.service.AddAdminEmail(ctx, caller, " New@Example.com ")
		require.NoError(t, err)
		assert.Equal(t, "new@example.com", marker.Email)

		require.NoError(t, f.service.RemoveAdminEmail(ctx, caller, "NEW@example.com"))
		assert.Equal(t, 2, f.cache.all)
	})

	t.Run("cannot remove own marker", func(t *testing.T) {
		f := newProfileFixture(now)
		err := f.service.RemoveAdminEmail(ctx, caller, "Boss@Example.com")
		assert.ErrorIs(t, err, ginblog.ErrForbidden)
	})

	t.Run("seed skips existing markers", func(t *testing.T) {
		f := newProfileFixture(now)
		f.admins.On("IsAdminEmail", ctx, "a@example.com").Return(true, nil)
		f.admins.On("IsAdminEmail", ctx, "b@example.com").Return(false, nil)
		f.admins.On("SaveOrUpdate", ctx, mock.MatchedBy(func(m model.AdminMarker) bool {
			return m.Email == "b@example.com" && m.AddedBy == "config"
		})).Return(nil).Once()

		require.NoError(t, f.service.SeedAdmins(ctx, []string{"A@example.com", "", "b@example.com"}))
		f.admins.AssertExpectations(t)
	})
}
