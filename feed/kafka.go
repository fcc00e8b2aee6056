package feed

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"temperature-dashboard/config"

	"github.com/segmentio/kafka-go"
)

// KafkaFeed reads a topic where every message is a whole snapshot. Without a
// group id the topic is replayed from the start; since each message is
// complete, replay converges on the newest collection.
type KafkaFeed struct {
	reader *kafka.Reader
	topic  string
}

func NewKafkaFeed(ctx context.Context, cfg config.KafkaConfig) (*KafkaFeed, error) {
	if len(cfg.Brokers) == 0 {
		return nil, fmt.Errorf("no kafka brokers configured")
	}
	dialCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	conn, err := kafka.DialContext(dialCtx, "tcp", cfg.Brokers[0])
	if err != nil {
		return nil, fmt.Errorf("connect to kafka at %s: %w", cfg.Brokers[0], err)
	}
	conn.Close()

	rc := kafka.ReaderConfig{
		Brokers:  cfg.Brokers,
		Topic:    cfg.Topic,
		MinBytes: 1,
		MaxBytes: 10e6,
		MaxWait:  200 * time.Millisecond,
	}
	if cfg.GroupID != "" {
		rc.GroupID = cfg.GroupID
	} else {
		rc.StartOffset = kafka.FirstOffset
	}
	return &KafkaFeed{reader: kafka.NewReader(rc), topic: cfg.Topic}, nil
}

func (f *KafkaFeed) Close() error {
	return f.reader.Close()
}

func (f *KafkaFeed) Subscribe(ctx context.Context, onSnapshot SnapshotFunc, onError ErrorFunc) (func(), error) {
	subCtx, cancel := context.WithCancel(ctx)
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			msg, err := f.reader.ReadMessage(subCtx)
			if err != nil {
				if subCtx.Err() == nil && !errors.Is(err, context.Canceled) {
					onError(fmt.Errorf("read %s: %w", f.topic, err))
				}
				return
			}
			snapshot, err := DecodeSnapshot(msg.Value)
			if err != nil {
				log.Printf("WARNING: ignoring snapshot at %s offset %d: %v", f.topic, msg.Offset, err)
				continue
			}
			onSnapshot(snapshot)
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			cancel()
			wg.Wait()
		})
	}, nil
}
