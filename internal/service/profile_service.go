package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/klass-lk/ginblog"
	"github.com/klass-lk/ginblog/internal/dto"
	"github.com/klass-lk/ginblog/internal/model"
	"go.mongodb.org/mongo-driver/mongo"
)

type ProfileStore interface {
	Save(ctx context.Context, profile model.UserProfile) error
	Update(ctx context.Context, profile model.UserProfile) error
	FindById(ctx context.Context, uid string) (model.UserProfile, error)
	SetAdmin(ctx context.Context, uid string, isAdmin bool) (model.UserProfile, error)
}

type AdminStore interface {
	SaveOrUpdate(ctx context.Context, marker model.AdminMarker) error
	Delete(ctx context.Context, email string) error
	IsAdminEmail(ctx context.Context, email string) (bool, error)
	FindAllAdmins(ctx context.Context) ([]model.AdminMarker, error)
}

// AdminCache forgets cached admin decisions after a grant or revoke.
type AdminCache interface {
	ForgetAll()
}

type ProfileService struct {
	profiles ProfileStore
	admins   AdminStore
	cache    AdminCache
	now      func() time.Time
}

func NewProfileService(profiles ProfileStore, admins AdminStore, cache AdminCache) *ProfileService {
	return &ProfileService{
		profiles: profiles,
		admins:   admins,
		cache:    cache,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Public returns a profile without private fields.
func (s *ProfileService) Public(ctx context.Context, uid string) (model.UserProfile, error) {
	profile, err := s.profiles.FindById(ctx, uid)
	if err != nil {
		return model.UserProfile{}, notFound(err, "profile")
	}
	return profile.Public(), nil
}

// Me returns the caller's profile, creating it from the token identity on
// first access.
func (s *ProfileService) Me(ctx context.Context, caller ginblog.AuthContext) (model.UserProfile, error) {
	profile, err := s.profiles.FindById(ctx, caller.UserID)
	if err == nil {
		return profile, nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return model.UserProfile{}, fmt.Errorf("failed to load profile %s: %w", caller.UserID, err)
	}

	now := s.now()
	profile = model.UserProfile{
		UID:         caller.UserID,
		DisplayName: displayName(caller),
		Email:       model.NormalizeEmail(caller.UserEmail),
		PhotoURL:    caller.Picture,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.profiles.Save(ctx, profile); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return s.profiles.FindById(ctx, caller.UserID)
		}
		return model.UserProfile{}, fmt.Errorf("failed to create profile %s: %w", caller.UserID, err)
	}
	slog.InfoContext(ctx, "Profile created", slog.String("uid", caller.UserID))
	return profile, nil
}

// UpdateMe overwrites the editable fields. The admin flag and email are
// never taken from the request.
func (s *ProfileService) UpdateMe(ctx context.Context, caller ginblog.AuthContext, req dto.ProfileUpdate) (model.UserProfile, error) {
	profile, err := s.Me(ctx, caller)
	if err != nil {
		return model.UserProfile{}, err
	}
	if name := strings.TrimSpace(req.DisplayName); name != "" {
		profile.DisplayName = name
	}
	profile.PhotoURL = strings.TrimSpace(req.PhotoURL)
	profile.Bio = strings.TrimSpace(req.Bio)
	profile.Social = req.Social
	profile.UpdatedAt = s.now()

	if err := s.profiles.Update(ctx, profile); err != nil {
		return model.UserProfile{}, notFound(err, "profile")
	}
	return profile, nil
}

// SetAdmin grants or revokes the admin flag of another user.
func (s *ProfileService) SetAdmin(ctx context.Context, caller ginblog.AuthContext, uid string, isAdmin bool) (model.UserProfile, error) {
	if uid == caller.UserID {
		return model.UserProfile{}, ginblog.ErrForbidden
	}
	profile, err := s.profiles.SetAdmin(ctx, uid, isAdmin)
	if err != nil {
		return model.UserProfile{}, notFound(err, "profile")
	}
	// Decisions are keyed by the token email, which need not match the
	// stored profile email.
	s.cache.ForgetAll()
	slog.InfoContext(ctx, "Admin flag changed",
		slog.String("uid", uid), slog.Bool("isAdmin", isAdmin), slog.String("by", caller.UserID))
	return profile, nil
}

func (s *ProfileService) ListAdminEmails(ctx context.Context) ([]model.AdminMarker, error) {
	return s.admins.FindAllAdmins(ctx)
}

func (s *ProfileService) AddAdminEmail(ctx context.Context, caller ginblog.AuthContext, email string) (model.AdminMarker, error) {
	email = model.NormalizeEmail(email)
	if email == "" {
		return model.AdminMarker{}, ginblog.ErrBadRequest.New("email is required")
	}
	marker := model.AdminMarker{Email: email, AddedBy: caller.UserID, CreatedAt: s.now()}
	if err := s.admins.SaveOrUpdate(ctx, marker); err != nil {
		return model.AdminMarker{}, fmt.Errorf("failed to save admin %s: %w", email, err)
	}
	s.cache.ForgetAll()
	return marker, nil
}

func (s *ProfileService) RemoveAdminEmail(ctx context.Context, caller ginblog.AuthContext, email string) error {
	email = model.NormalizeEmail(email)
	if email == model.NormalizeEmail(caller.UserEmail) {
		return ginblog.ErrForbidden
	}
	if err := s.admins.Delete(ctx, email); err != nil {
		return notFound(err, "admin")
	}
	s.cache.ForgetAll()
	return nil
}

// SeedAdmins makes sure every configured email carries an admin marker.
func (s *ProfileService) SeedAdmins(ctx context.Context, emails []string) error {
	for _, email := range emails {
		email = model.NormalizeEmail(email)
		if email == "" {
			continue
		}
		exists, err := s.admins.IsAdminEmail(ctx, email)
		if err != nil {
			return fmt.Errorf("failed to check admin %s: %w", email, err)
		}
		if exists {
			continue
		}
		if err := s.admins.SaveOrUpdate(ctx, model.AdminMarker{Email: email, AddedBy: "config", CreatedAt: s.now()}); err != nil {
			return fmt.Errorf("failed to seed admin %s: %w", email, err)
		}
		slog.InfoContext(ctx, "Seeded admin", slog.String("email", email))
	}
	return nil
}
