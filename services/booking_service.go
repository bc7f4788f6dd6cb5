package services

import (
	"context"
	"log"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"devevents/models"
)

const DefaultPageSize = 5

type CreateBookingRequest struct {
	EventID string `json:"eventId"`
	Slug    string `json:"slug"`
	Email   string `json:"email"`
}

type BookingService struct {
	events   models.EventRepository
	bookings models.BookingRepository
	notifier Notifier
	pageSize int
}

func NewBookingService(events models.EventRepository, bookings models.BookingRepository, notifier Notifier, pageSize int) *BookingService {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	if notifier == nil {
		notifier = LogNotifier{}
	}
	return &BookingService{events: events, bookings: bookings, notifier: notifier, pageSize: pageSize}
}

func (s *BookingService) PageSize() int { return s.pageSize }

// CreateBooking books req.Email onto the event and returns the event booked.
// The pre-check gives a friendly duplicate message; the unique index still
// decides when two requests race.
func (s *BookingService) CreateBooking(ctx context.Context, req CreateBookingRequest) (models.Event, error) {
	email := models.CanonicalEmail(req.Email)
	if !models.ValidEmail(email) {
		return models.Event{}, models.Validation("email", "Invalid email format")
	}
	eventID := strings.TrimSpace(req.EventID)
	if eventID == "" {
		return models.Event{}, models.Validation("eventId", "Event id is required")
	}

	exists, err := s.bookings.Exists(ctx, eventID, email)
	if err != nil {
		return models.Event{}, err
	}
	if exists {
		return models.Event{}, models.Conflict(models.AlreadyBookedMessage)
	}

	ev, err := s.events.GetByID(ctx, eventID)
	if err != nil {
		return models.Event{}, err
	}

	now := time.Now().UTC()
	b := &models.Booking{
		ID:        uuid.NewString(),
		EventID:   ev.ID,
		Email:     email,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.bookings.Create(ctx, b); err != nil {
		return models.Event{}, err
	}

	if s.afterBooking(context.WithoutCancel(ctx), b, ev) {
		ev.Bookings++
	}
	return ev, nil
}

// afterBooking runs the post-commit side effects. Neither may undo the booking.
// It reports whether the stored counter moved.
func (s *BookingService) afterBooking(ctx context.Context, b *models.Booking, ev models.Event) bool {
	counted := true
	if err := s.events.IncrementBookings(ctx, b.EventID); err != nil {
		log.Printf("booking %s: could not increment bookings on event %s: %v", b.ID, b.EventID, err)
		counted = false
	}
	if err := s.notifier.NotifyBooking(ctx, b.Email, ev); err != nil {
		log.Printf("booking %s: confirmation to %s failed: %v", b.ID, b.Email, err)
	}
	return counted
}

// ParsePage reads the page query value; empty means the first page.
func ParsePage(raw string) (int, error) {
	if strings.TrimSpace(raw) == "" {
		return 1, nil
	}
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || n < 1 {
		return 0, models.Validation("page", "page must be a positive integer")
	}
	return n, nil
}

type BookingQuery struct {
	Email string
	Page  int
	Sort  string
}

// ListUserBookings returns one page of the booking history of q.Email. A
// caller can only read their own history unless they are an admin.
func (s *BookingService) ListUserBookings(ctx context.Context, caller Caller, q BookingQuery) (models.BookingPage, error) {
	email := models.CanonicalEmail(q.Email)
	if !models.ValidEmail(email) {
		return models.BookingPage{}, models.Validation("email", "Invalid Email")
	}
	if email != caller.Email && !caller.IsAdmin() {
		return models.BookingPage{}, models.Forbidden("You can only view your own bookings")
	}
	if q.Page == 0 {
		q.Page = 1
	}
	if q.Page < 1 {
		return models.BookingPage{}, models.Validation("page", "page must be a positive integer")
	}
	sort, err := models.ParseBookingSort(q.Sort)
	if err != nil {
		return models.BookingPage{}, err
	}

	limit := int64(s.pageSize)
	skip := int64(q.Page-1) * limit

	var (
		rows  []models.BookingSummary
		total int64
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		rows, err = s.bookings.ListByEmail(gctx, email, sort, skip, limit)
		return err
	})
	g.Go(func() error {
		var err error
		total, err = s.bookings.CountByEmail(gctx, email)
		return err
	})
	if err := g.Wait(); err != nil {
		return models.BookingPage{}, err
	}

	if rows == nil {
		rows = []models.BookingSummary{}
	}
	return models.BookingPage{
		Found:      len(rows) > 0,
		Bookings:   rows,
		TotalPages: int((total + limit - 1) / limit),
	}, nil
}
