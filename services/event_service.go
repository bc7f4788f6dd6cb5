package services

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"devevents/models"
)

const (
	DefaultEventLimit = 6
	MaxEventLimit     = 50
	SimilarLimit      = 5
)

type EventService struct {
	events models.EventRepository
}

func NewEventService(events models.EventRepository) *EventService {
	return &EventService{events: events}
}

// List returns a window of events, newest first, plus the total count.
func (s *EventService) List(ctx context.Context, skip, limit int) ([]models.Event, int64, error) {
	if skip < 0 {
		return nil, 0, models.Validation("skip", "skip must not be negative")
	}
	if limit == 0 {
		limit = DefaultEventLimit
	}
	if limit < 0 || limit > MaxEventLimit {
		return nil, 0, models.Validation("limit", "limit must be between 1 and %d", MaxEventLimit)
	}
	events, total, err := s.events.List(ctx, int64(skip), int64(limit))
	if err != nil {
		return nil, 0, err
	}
	if events == nil {
		events = []models.Event{}
	}
	return events, total, nil
}

func (s *EventService) GetBySlug(ctx context.Context, slug string) (models.Event, error) {
	slug = strings.TrimSpace(slug)
	if slug == "" {
		return models.Event{}, models.Validation("slug", "Slug is required")
	}
	return s.events.GetBySlug(ctx, slug)
}

// Similar returns events sharing at least one tag with the event at slug.
func (s *EventService) Similar(ctx context.Context, slug string) ([]models.Event, error) {
	ev, err := s.GetBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	if len(ev.Tags) == 0 {
		return []models.Event{}, nil
	}
	out, err := s.events.Similar(ctx, ev, SimilarLimit)
	if err != nil {
		return nil, err
	}
	if out == nil {
		out = []models.Event{}
	}
	return out, nil
}

func (s *EventService) Create(ctx context.Context, p models.EventPatch, creatorID int64) (models.Event, error) {
	if err := models.NormalizeEvent(&p, true); err != nil {
		return models.Event{}, err
	}
	now := time.Now().UTC()
	ev := models.Event{
		ID:        uuid.NewString(),
		CreatedBy: creatorID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	p.Apply(&ev)
	if err := s.events.Create(ctx, &ev); err != nil {
		return models.Event{}, err
	}
	return ev, nil
}

// Update applies p to the event at slug. Only its creator or an admin may
// change an event. A new title moves the event to a new slug.
func (s *EventService) Update(ctx context.Context, slug string, p models.EventPatch, caller Caller) (models.Event, error) {
	current, err := s.GetBySlug(ctx, slug)
	if err != nil {
		return models.Event{}, err
	}
	if current.CreatedBy != caller.ID && !caller.IsAdmin() {
		return models.Event{}, models.Forbidden("Not authorized to update event")
	}
	if p.Empty() {
		return models.Event{}, models.Validation("", "Nothing to update")
	}
	if err := models.NormalizeEvent(&p, false); err != nil {
		return models.Event{}, err
	}
	return s.events.UpdateBySlug(ctx, current.Slug, p)
}
