// Package feed subscribes to the realtime collection of sensor readings.
// Every update carries the whole collection, never a delta.
package feed

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"

	"temperature-dashboard/config"
	"temperature-dashboard/models"
)

var (
	ErrUnknownDriver      = errors.New("unknown feed driver")
	ErrSubscriptionClosed = errors.New("feed subscription closed")
)

type SnapshotFunc func(models.Snapshot)

type ErrorFunc func(error)

// Feed delivers whole-collection snapshots. onError is called at most once
// when the subscription fails; no snapshots follow it. The returned
// unsubscribe func is safe to call more than once.
type Feed interface {
	Subscribe(ctx context.Context, onSnapshot SnapshotFunc, onError ErrorFunc) (unsubscribe func(), err error)
	Close() error
}

// Open connects the feed selected by cfg.Driver.
func Open(ctx context.Context, cfg config.FeedConfig) (Feed, error) {
	switch cfg.Driver {
	case config.DriverRedis:
		return NewRedisFeed(ctx, cfg.Redis)
	case config.DriverMQTT:
		return NewMQTTFeed(cfg.MQTT)
	case config.DriverKafka:
		return NewKafkaFeed(ctx, cfg.Kafka)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownDriver, cfg.Driver)
	}
}

// Unreachable stands in for a feed that could not be opened. Subscribing
// to it fails with err, which leaves the session unavailable instead of
// stopping the process.
func Unreachable(err error) Feed {
	return unreachable{err: err}
}

type unreachable struct {
	err error
}

func (u unreachable) Subscribe(context.Context, SnapshotFunc, ErrorFunc) (func(), error) {
	return nil, u.err
}

func (u unreachable) Close() error { return nil }

// DecodeRecord decodes one collection entry. A value that is neither a
// number nor a string is kept as its raw JSON text.
func DecodeRecord(data []byte) (models.RawRecord, error) {
	var loose struct {
		Timestamp string          `json:"timestamp"`
		Value     json.RawMessage `json:"value"`
	}
	if err := json.Unmarshal(data, &loose); err != nil {
		return models.RawRecord{}, err
	}
	rec := models.RawRecord{Timestamp: loose.Timestamp}
	if err := rec.Value.UnmarshalJSON(loose.Value); err != nil {
		rec.Value = models.RawValue(loose.Value)
	}
	return rec, nil
}

// DecodeSnapshot decodes a JSON object of id -> record. Entries that are not
// records are kept with an empty timestamp so normalisation drops and
// reports them. A null document is an empty collection.
func DecodeSnapshot(data []byte) (models.Snapshot, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return models.Snapshot{}, nil
	}
	var entries map[string]json.RawMessage
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	snapshot := make(models.Snapshot, len(entries))
	for id, raw := range entries {
		rec, err := DecodeRecord(raw)
		if err != nil {
			log.Printf("WARNING: record %s is not an object: %v", id, err)
		}
		snapshot[id] = rec
	}
	return snapshot, nil
}
