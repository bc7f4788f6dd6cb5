package models

import "time"

type Booking struct {
	ID        string    `bson:"_id" json:"id"`
	EventID   string    `bson:"eventId" json:"eventId"`
	Email     string    `bson:"email" json:"email"`
	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time `bson:"updatedAt" json:"updatedAt"`
}

// BookingSummary is one row of a user's booking history.
type BookingSummary struct {
	ID        string       `bson:"_id" json:"id"`
	CreatedAt time.Time    `bson:"createdAt" json:"createdAt"`
	Event     EventSummary `bson:"event" json:"event"`
}

type BookingSort string

const (
	SortLatest   BookingSort = "latest"
	SortOldest   BookingSort = "oldest"
	SortUpcoming BookingSort = "upcoming"
)

// ParseBookingSort maps the query value to a sort mode; empty means latest.
func ParseBookingSort(s string) (BookingSort, error) {
	switch BookingSort(s) {
	case "", SortLatest:
		return SortLatest, nil
	case SortOldest:
		return SortOldest, nil
	case SortUpcoming:
		return SortUpcoming, nil
	}
	return "", Validation("sort", "sort must be one of latest, oldest, upcoming")
}

// BookingPage is the response of the booking history query.
type BookingPage struct {
	Found      bool             `json:"found"`
	Bookings   []BookingSummary `json:"bookings"`
	TotalPages int              `json:"totalPages"`
}

// AlreadyBookedMessage is shown for both the pre-check and the unique index.
const AlreadyBookedMessage = "You have already booked this event"
