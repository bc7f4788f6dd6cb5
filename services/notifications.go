package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/redis/go-redis/v9"

	"devevents/models"
)

// BookingQueue is the Redis list the mailer worker consumes confirmation jobs from.
const BookingQueue = "notifications:booking"

// Notifier sends the booking confirmation to the person who booked.
type Notifier interface {
	NotifyBooking(ctx context.Context, to string, ev models.Event) error
}

// BookingMessage is the job pushed for the mailer.
type BookingMessage struct {
	Type     string `json:"type"`
	To       string `json:"to"`
	EventID  string `json:"eventId"`
	Title    string `json:"title"`
	Slug     string `json:"slug"`
	Date     string `json:"date"`
	Time     string `json:"time"`
	Venue    string `json:"venue"`
	Location string `json:"location"`
}

func NewBookingMessage(to string, ev models.Event) BookingMessage {
	return BookingMessage{
		Type:     "booking_confirmation",
		To:       to,
		EventID:  ev.ID,
		Title:    ev.Title,
		Slug:     ev.Slug,
		Date:     ev.Date,
		Time:     ev.Time,
		Venue:    ev.Venue,
		Location: ev.Location,
	}
}

// RedisNotifier queues confirmations on a Redis list.
type RedisNotifier struct {
	rdb   *redis.Client
	queue string
}

func NewRedisNotifier(rdb *redis.Client) *RedisNotifier {
	return &RedisNotifier{rdb: rdb, queue: BookingQueue}
}

func (n *RedisNotifier) NotifyBooking(ctx context.Context, to string, ev models.Event) error {
	b, err := json.Marshal(NewBookingMessage(to, ev))
	if err != nil {
		return err
	}
	if err := n.rdb.LPush(ctx, n.queue, string(b)).Err(); err != nil {
		return fmt.Errorf("queue booking confirmation: %w", err)
	}
	return nil
}

// LogNotifier only writes the confirmation to the log; used when no queue is configured.
type LogNotifier struct{}

func (LogNotifier) NotifyBooking(ctx context.Context, to string, ev models.Event) error {
	log.Printf("booking confirmation: to=%s event=%s date=%s time=%s", to, ev.Slug, ev.Date, ev.Time)
	return nil
}
