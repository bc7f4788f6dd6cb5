package db

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
)

func TestMongoClient_ConcurrentCallersShareOneDial(t *testing.T) {
	var dials atomic.Int32
	release := make(chan struct{})
	m := NewMongo("mongodb://unused", "test")
	m.dial = func(ctx context.Context, uri string) (*mongo.Client, error) {
		dials.Add(1)
		<-release
		return new(mongo.Client), nil
	}

	const callers = 16
	var wg sync.WaitGroup
	got := make([]*mongo.Client, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			cli, err := m.Client(context.Background())
			if err != nil {
				t.Errorf("client: %v", err)
				return
			}
			got[i] = cli
		}(i)
	}

	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	if n := dials.Load(); n != 1 {
		t.Fatalf("want 1 dial, got %d", n)
	}
	for i := 1; i < callers; i++ {
		if got[i] != got[0] {
			t.Fatalf("caller %d got a different client", i)
		}
	}

	// later callers hit the cache
	if _, err := m.Client(context.Background()); err != nil {
		t.Fatalf("cached client: %v", err)
	}
	if n := dials.Load(); n != 1 {
		t.Fatalf("cache miss after connect, dials=%d", n)
	}
}

func TestMongoClient_FailedDialIsRetried(t *testing.T) {
	var dials atomic.Int32
	m := NewMongo("mongodb://unused", "test")
	m.dial = func(ctx context.Context, uri string) (*mongo.Client, error) {
		if dials.Add(1) == 1 {
			return nil, errors.New("connection refused")
		}
		return new(mongo.Client), nil
	}

	if _, err := m.Client(context.Background()); err == nil {
		t.Fatalf("want error on first dial")
	}
	if _, err := m.Client(context.Background()); err != nil {
		t.Fatalf("second dial should succeed: %v", err)
	}
	if n := dials.Load(); n != 2 {
		t.Fatalf("want 2 dials, got %d", n)
	}
}
