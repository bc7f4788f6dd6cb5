package db

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"golang.org/x/sync/singleflight"
)

const (
	EventsCollection   = "events"
	BookingsCollection = "bookings"
)

// Mongo is the process-wide document store handle. It is built once in main
// and handed to every repository; the underlying client is dialed on first
// use and reused afterwards. Concurrent first callers share a single connect
// attempt, and a failed attempt is not remembered.
type Mongo struct {
	uri  string
	name string

	dial  func(ctx context.Context, uri string) (*mongo.Client, error)
	group singleflight.Group

	mu     sync.RWMutex
	client *mongo.Client
}

func NewMongo(uri, database string) *Mongo {
	return &Mongo{uri: uri, name: database, dial: dialMongo}
}

func dialMongo(ctx context.Context, uri string) (*mongo.Client, error) {
	cli, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, err
	}
	if err := cli.Ping(ctx, nil); err != nil {
		_ = cli.Disconnect(context.Background())
		return nil, err
	}
	return cli, nil
}

func (m *Mongo) cached() *mongo.Client {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.client
}

// Client returns the shared client, connecting if needed.
func (m *Mongo) Client(ctx context.Context) (*mongo.Client, error) {
	if cli := m.cached(); cli != nil {
		return cli, nil
	}

	v, err, _ := m.group.Do("connect", func() (any, error) {
		if cli := m.cached(); cli != nil {
			return cli, nil
		}
		// one caller giving up must not fail everybody waiting on the same attempt
		dctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
		defer cancel()

		cli, err := m.dial(dctx, m.uri)
		if err != nil {
			return nil, fmt.Errorf("connect mongo: %w", err)
		}
		m.mu.Lock()
		m.client = cli
		m.mu.Unlock()
		return cli, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*mongo.Client), nil
}

func (m *Mongo) Collection(ctx context.Context, name string) (*mongo.Collection, error) {
	cli, err := m.Client(ctx)
	if err != nil {
		return nil, err
	}
	return cli.Database(m.name).Collection(name), nil
}

// EnsureIndexes creates the indexes the stores rely on: unique slugs and
// one booking per (event, email).
func (m *Mongo) EnsureIndexes(ctx context.Context) error {
	events, err := m.Collection(ctx, EventsCollection)
	if err != nil {
		return err
	}
	if _, err := events.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "slug", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "createdAt", Value: -1}}},
		{Keys: bson.D{{Key: "tags", Value: 1}}},
	}); err != nil {
		return fmt.Errorf("events indexes: %w", err)
	}

	bookings, err := m.Collection(ctx, BookingsCollection)
	if err != nil {
		return err
	}
	if _, err := bookings.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "eventId", Value: 1}}},
		{Keys: bson.D{{Key: "eventId", Value: 1}, {Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "email", Value: 1}, {Key: "createdAt", Value: -1}}},
	}); err != nil {
		return fmt.Errorf("bookings indexes: %w", err)
	}
	return nil
}

func (m *Mongo) Disconnect(ctx context.Context) error {
	m.mu.Lock()
	cli := m.client
	m.client = nil
	m.mu.Unlock()
	if cli == nil {
		return nil
	}
	return cli.Disconnect(ctx)
}
