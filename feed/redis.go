package feed

import (
	"context"
	"fmt"
	"log"
	"sync"

	"temperature-dashboard/config"
	"temperature-dashboard/models"

	"github.com/go-redis/redis/v8"
)

// RedisFeed reads the collection from a hash and listens for change
// notifications on a pub/sub channel.
type RedisFeed struct {
	client  *redis.Client
	key     string
	channel string
}

func NewRedisFeed(ctx context.Context, cfg config.RedisConfig) (*RedisFeed, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     10,
		MinIdleConns: 2,
		MaxRetries:   3,
	})

	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("connect to redis at %s: %w", cfg.Addr, err)
	}

	return &RedisFeed{
		client:  rdb,
		key:     cfg.Key,
		channel: cfg.Channel,
	}, nil
}

func (f *RedisFeed) Close() error {
	return f.client.Close()
}

// Snapshot reads the whole collection.
func (f *RedisFeed) Snapshot(ctx context.Context) (models.Snapshot, error) {
	fields, err := f.client.HGetAll(ctx, f.key).Result()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", f.key, err)
	}

	snapshot := make(models.Snapshot, len(fields))
	for id, raw := range fields {
		rec, err := DecodeRecord([]byte(raw))
		if err != nil {
			log.Printf("WARNING: record %s in %s is not valid JSON: %v", id, f.key, err)
		}
		snapshot[id] = rec
	}
	return snapshot, nil
}

func (f *RedisFeed) Subscribe(ctx context.Context, onSnapshot SnapshotFunc, onError ErrorFunc) (func(), error) {
	pubsub := f.client.Subscribe(ctx, f.channel)
	if _, err := pubsub.Receive(ctx); err != nil {
		pubsub.Close()
		return nil, fmt.Errorf("subscribe to %s: %w", f.channel, err)
	}

	subCtx, cancel := context.WithCancel(ctx)
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		f.listen(subCtx, pubsub, onSnapshot, onError)
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			cancel()
			// Closing the connection unblocks Receive.
			pubsub.Close()
			wg.Wait()
		})
	}, nil
}

// listen delivers the current collection, then a fresh one after every
// notification. PubSub.Channel would reconnect silently when the server goes
// away, so messages are read with Receive and the first error ends the
// subscription.
func (f *RedisFeed) listen(ctx context.Context, pubsub *redis.PubSub, onSnapshot SnapshotFunc, onError ErrorFunc) {
	fail := func(err error) {
		if ctx.Err() == nil {
			onError(err)
		}
	}
	deliver := func() bool {
		snapshot, err := f.Snapshot(ctx)
		if err != nil {
			fail(err)
			return false
		}
		onSnapshot(snapshot)
		return true
	}

	if !deliver() {
		return
	}
	for {
		msg, err := pubsub.Receive(ctx)
		if err != nil {
			fail(fmt.Errorf("%w: %s: %v", ErrSubscriptionClosed, f.channel, err))
			return
		}
		if _, ok := msg.(*redis.Message); !ok {
			continue
		}
		if !deliver() {
			return
		}
	}
}
