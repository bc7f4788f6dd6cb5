package models

import "context"

// ===== Events (Mongo) =====
type EventRepository interface {
	List(ctx context.Context, skip, limit int64) ([]Event, int64, error)
	GetByID(ctx context.Context, id string) (Event, error)
	GetBySlug(ctx context.Context, slug string) (Event, error)
	// Similar returns up to limit events sharing a tag with e, excluding e.
	Similar(ctx context.Context, e Event, limit int64) ([]Event, error)
	Create(ctx context.Context, e *Event) error
	// UpdateBySlug applies an already normalised patch and returns the result.
	UpdateBySlug(ctx context.Context, slug string, p EventPatch) (Event, error)
	IncrementBookings(ctx context.Context, id string) error
}

// ===== Bookings (Mongo) =====
type BookingRepository interface {
	Exists(ctx context.Context, eventID, email string) (bool, error)
	// Create fails with a Conflict error when (eventID, email) is taken.
	Create(ctx context.Context, b *Booking) error
	ListByEmail(ctx context.Context, email string, sort BookingSort, skip, limit int64) ([]BookingSummary, error)
	CountByEmail(ctx context.Context, email string) (int64, error)
}

// ===== Users (Postgres) =====
type UserRepository interface {
	// Create stores u (Password already hashed, or empty) and sets u.ID.
	Create(ctx context.Context, u *User) error
	GetByEmail(ctx context.Context, email string) (User, error)
	GetByID(ctx context.Context, id int64) (User, error)
	// UpdateProfile sets name and/or image for the account with email.
	UpdateProfile(ctx context.Context, email string, name, image *string) (User, error)
}
