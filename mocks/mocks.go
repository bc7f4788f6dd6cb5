// Package mocks holds in-memory repositories and collaborators used by tests.
package mocks

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"devevents/models"
)

/* ---------------- Events ---------------- */

type MockEventRepo struct {
	mu    sync.Mutex
	Items map[string]models.Event // key is event id

	FailIncrement error // returned by IncrementBookings when set
	Fail          error // returned by every call when set
}

func NewEventRepo() *MockEventRepo { return &MockEventRepo{Items: map[string]models.Event{}} }

func (m *MockEventRepo) Put(e models.Event) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Items[e.ID] = e
}

func (m *MockEventRepo) Get(id string) models.Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Items[id]
}

func (m *MockEventRepo) List(ctx context.Context, skip, limit int64) ([]models.Event, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Fail != nil {
		return nil, 0, m.Fail
	}
	all := make([]models.Event, 0, len(m.Items))
	for _, e := range m.Items {
		all = append(all, e)
	}
	sort.Slice(all, func(i, j int) bool {
		if !all[i].CreatedAt.Equal(all[j].CreatedAt) {
			return all[i].CreatedAt.After(all[j].CreatedAt)
		}
		return all[i].ID < all[j].ID
	})
	return window(all, skip, limit), int64(len(all)), nil
}

func (m *MockEventRepo) GetByID(ctx context.Context, id string) (models.Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Fail != nil {
		return models.Event{}, m.Fail
	}
	e, ok := m.Items[id]
	if !ok {
		return models.Event{}, models.NotFound("Event not found")
	}
	return e, nil
}

func (m *MockEventRepo) GetBySlug(ctx context.Context, slug string) (models.Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Fail != nil {
		return models.Event{}, m.Fail
	}
	for _, e := range m.Items {
		if e.Slug == slug {
			return e, nil
		}
	}
	return models.Event{}, models.NotFound("Event not found")
}

func (m *MockEventRepo) Similar(ctx context.Context, ev models.Event, limit int64) ([]models.Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	tags := map[string]bool{}
	for _, t := range ev.Tags {
		tags[t] = true
	}
	out := []models.Event{}
	for _, e := range m.Items {
		if e.ID == ev.ID {
			continue
		}
		for _, t := range e.Tags {
			if tags[t] {
				out = append(out, e)
				break
			}
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return window(out, 0, limit), nil
}

func (m *MockEventRepo) Create(ctx context.Context, e *models.Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Fail != nil {
		return m.Fail
	}
	for _, x := range m.Items {
		if x.Slug == e.Slug {
			return models.Conflict("An event with this title already exists")
		}
	}
	m.Items[e.ID] = *e
	return nil
}

func (m *MockEventRepo) UpdateBySlug(ctx context.Context, slug string, p models.EventPatch) (models.Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Fail != nil {
		return models.Event{}, m.Fail
	}
	for id, e := range m.Items {
		if e.Slug != slug {
			continue
		}
		if p.Slug != nil && *p.Slug != slug {
			for otherID, x := range m.Items {
				if otherID != id && x.Slug == *p.Slug {
					return models.Event{}, models.Conflict("An event with this title already exists")
				}
			}
		}
		p.Apply(&e)
		e.UpdatedAt = time.Now().UTC()
		m.Items[id] = e
		return e, nil
	}
	return models.Event{}, models.NotFound("Event not found")
}

func (m *MockEventRepo) IncrementBookings(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailIncrement != nil {
		return m.FailIncrement
	}
	e, ok := m.Items[id]
	if !ok {
		return models.NotFound("Event not found")
	}
	e.Bookings++
	m.Items[id] = e
	return nil
}

/* ---------------- Bookings ---------------- */

// MockBookingRepo joins against Events the way the aggregation pipeline does.
type MockBookingRepo struct {
	mu     sync.Mutex
	Items  []models.Booking
	Events *MockEventRepo

	// SkipExists makes Exists always report false, simulating a request that
	// lost the race between the pre-check and the insert.
	SkipExists bool
	Fail       error
}

func NewBookingRepo(events *MockEventRepo) *MockBookingRepo {
	return &MockBookingRepo{Events: events}
}

func (m *MockBookingRepo) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Items)
}

func (m *MockBookingRepo) Exists(ctx context.Context, eventID, email string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Fail != nil {
		return false, m.Fail
	}
	if m.SkipExists {
		return false, nil
	}
	for _, b := range m.Items {
		if b.EventID == eventID && b.Email == email {
			return true, nil
		}
	}
	return false, nil
}

func (m *MockBookingRepo) Create(ctx context.Context, b *models.Booking) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Fail != nil {
		return m.Fail
	}
	for _, x := range m.Items {
		if x.EventID == b.EventID && x.Email == b.Email {
			return models.Conflict(models.AlreadyBookedMessage)
		}
	}
	m.Items = append(m.Items, *b)
	return nil
}

func (m *MockBookingRepo) ListByEmail(ctx context.Context, email string, by models.BookingSort, skip, limit int64) ([]models.BookingSummary, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Fail != nil {
		return nil, m.Fail
	}
	m.Events.mu.Lock()
	defer m.Events.mu.Unlock()

	rows := []models.BookingSummary{}
	for _, b := range m.Items {
		if b.Email != email {
			continue
		}
		ev, ok := m.Events.Items[b.EventID]
		if !ok {
			continue
		}
		rows = append(rows, models.BookingSummary{ID: b.ID, CreatedAt: b.CreatedAt, Event: ev.Summary()})
	}
	sort.SliceStable(rows, func(i, j int) bool {
		a, b := rows[i], rows[j]
		switch by {
		case models.SortUpcoming:
			if a.Event.Date != b.Event.Date {
				return a.Event.Date < b.Event.Date
			}
			return a.CreatedAt.Before(b.CreatedAt)
		case models.SortOldest:
			return a.CreatedAt.Before(b.CreatedAt)
		default:
			return a.CreatedAt.After(b.CreatedAt)
		}
	})
	return window(rows, skip, limit), nil
}

func (m *MockBookingRepo) CountByEmail(ctx context.Context, email string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Fail != nil {
		return 0, m.Fail
	}
	var n int64
	for _, b := range m.Items {
		if b.Email == email {
			n++
		}
	}
	return n, nil
}

/* ---------------- Users ---------------- */

type MockUserRepo struct {
	mu    sync.Mutex
	Users map[string]models.User // key is email
}

func NewUserRepo() *MockUserRepo { return &MockUserRepo{Users: map[string]models.User{}} }

func (m *MockUserRepo) Create(ctx context.Context, u *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.Users[u.Email]; ok {
		return models.Conflict("An account with this email already exists")
	}
	u.ID = int64(len(m.Users) + 1)
	u.CreatedAt = time.Now().UTC()
	m.Users[u.Email] = *u
	return nil
}

func (m *MockUserRepo) GetByEmail(ctx context.Context, email string) (models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.Users[email]
	if !ok {
		return models.User{}, models.NotFound("User not found")
	}
	return u, nil
}

func (m *MockUserRepo) GetByID(ctx context.Context, id int64) (models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.Users {
		if u.ID == id {
			return u, nil
		}
	}
	return models.User{}, models.NotFound("User not found")
}

func (m *MockUserRepo) UpdateProfile(ctx context.Context, email string, name, image *string) (models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.Users[email]
	if !ok {
		return models.User{}, models.NotFound("User not found")
	}
	if name != nil {
		u.Name = *name
	}
	if image != nil {
		u.Image = *image
	}
	m.Users[email] = u
	return u, nil
}

/* ---------------- Notifier ---------------- */

type Sent struct {
	To    string
	Event models.Event
}

type MockNotifier struct {
	mu   sync.Mutex
	Sent []Sent
	Fail bool
}

func (m *MockNotifier) NotifyBooking(ctx context.Context, to string, ev models.Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Fail {
		return errors.New("smtp: connection refused")
	}
	m.Sent = append(m.Sent, Sent{To: to, Event: ev})
	return nil
}

func (m *MockNotifier) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Sent)
}

func window[T any](all []T, skip, limit int64) []T {
	if skip >= int64(len(all)) {
		return []T{}
	}
	end := skip + limit
	if end > int64(len(all)) {
		end = int64(len(all))
	}
	return all[skip:end]
}
