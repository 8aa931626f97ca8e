package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/klass-lk/ginblog"
	"github.com/klass-lk/ginblog/internal/dto"
	"github.com/klass-lk/ginblog/internal/model"
)

type AnnouncementStore interface {
	Save(ctx context.Context, a model.Announcement) error
	Update(ctx context.Context, a model.Announcement) error
	Delete(ctx context.Context, id string) error
	FindById(ctx context.Context, id string) (model.Announcement, error)
	FindCurrent(ctx context.Context, now time.Time) ([]model.Announcement, error)
	FindAllAnnouncements(ctx context.Context) ([]model.Announcement, error)
}

type AnnouncementService struct {
	announcements AnnouncementStore
	cache         ginblog.CacheService
	now           func() time.Time
}

func NewAnnouncementService(announcements AnnouncementStore, cache ginblog.CacheService) *AnnouncementService {
	return &AnnouncementService{
		announcements: announcements,
		cache:         cache,
		now:           func() time.Time { return time.Now().UTC() },
	}
}

// Active returns the announcements visible now and the instant that list
// next changes without a write, zero when no window boundary lies ahead.
func (s *AnnouncementService) Active(ctx context.Context) ([]model.Announcement, time.Time, error) {
	now := s.now()
	candidates, err := s.announcements.FindCurrent(ctx, now)
	if err != nil {
		return nil, time.Time{}, fmt.Errorf("failed to load announcements: %w", err)
	}
	return ActiveAnnouncements(candidates, now), NextWindowChange(candidates, now), nil
}

func (s *AnnouncementService) ListAll(ctx context.Context) ([]model.Announcement, error) {
	return s.announcements.FindAllAnnouncements(ctx)
}

func (s *AnnouncementService) Create(ctx context.Context, req dto.AnnouncementRequest) (model.Announcement, error) {
	now := s.now()
	a := model.Announcement{ID: uuid.NewString(), CreatedAt: now}
	if err := s.apply(&a, req); err != nil {
		return model.Announcement{}, err
	}
	if err := s.announcements.Save(ctx, a); err != nil {
		return model.Announcement{}, fmt.Errorf("failed to save announcement: %w", err)
	}
	invalidate(ctx, s.cache, TagAnnouncements)
	return a, nil
}

func (s *AnnouncementService) Update(ctx context.Context, id string, req dto.AnnouncementRequest) (model.Announcement, error) {
	a, err := s.announcements.FindById(ctx, id)
	if err != nil {
		return model.Announcement{}, notFound(err, "announcement")
	}
	if err := s.apply(&a, req); err != nil {
		return model.Announcement{}, err
	}
	if err := s.announcements.Update(ctx, a); err != nil {
		return model.Announcement{}, notFound(err, "announcement")
	}
	invalidate(ctx, s.cache, TagAnnouncements)
	return a, nil
}

func (s *AnnouncementService) Delete(ctx context.Context, id string) error {
	if err := s.announcements.Delete(ctx, id); err != nil {
		return notFound(err, "announcement")
	}
	invalidate(ctx, s.cache, TagAnnouncements)
	return nil
}

func (s *AnnouncementService) apply(a *model.Announcement, req dto.AnnouncementRequest) error {
	start := a.StartDate
	if start.IsZero() {
		start = s.now()
	}
	if req.StartDate != nil {
		start = req.StartDate.UTC()
	}
	var end *time.Time
	if req.EndDate != nil {
		e := req.EndDate.UTC()
		if e.Before(start) {
			return ginblog.ErrBadRequest.New("endDate must not be before startDate")
		}
		end = &e
	}

	a.Title = strings.TrimSpace(req.Title)
	a.Content = req.Content
	a.Sticky = req.Sticky
	a.Published = req.Published
	a.StartDate = start
	a.EndDate = end
	a.UpdatedAt = s.now()
	return nil
}

// ActiveAnnouncements keeps the announcements visible at now, sticky ones
// first and then by newest start date.
func ActiveAnnouncements(list []model.Announcement, now time.Time) []model.Announcement {
	active := make([]model.Announcement, 0, len(list))
	for _, a := range list {
		if a.ActiveAt(now) {
			active = append(active, a)
		}
	}
	sort.SliceStable(active, func(i, j int) bool {
		if active[i].Sticky != active[j].Sticky {
			return active[i].Sticky
		}
		return active[i].StartDate.After(active[j].StartDate)
	})
	return active
}

// NextWindowChange returns the earliest instant after now at which a
// published announcement starts or stops being visible.
func NextWindowChange(list []model.Announcement, now time.Time) time.Time {
	var next time.Time
	consider := func(t time.Time) {
		if t.After(now) && (next.IsZero() || t.Before(next)) {
			next = t
		}
	}
	for _, a := range list {
		if !a.Published {
			continue
		}
		consider(a.StartDate)
		if a.EndDate != nil {
			// still visible at the end instant itself
			consider(a.EndDate.Add(time.Nanosecond))
		}
	}
	return next
}
