package feed

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"temperature-dashboard/config"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

const mqttTimeout = 10 * time.Second

// MQTTFeed listens to a retained topic whose payload is the whole
// collection. The broker replays the retained snapshot on subscribe.
type MQTTFeed struct {
	client mqtt.Client
	topic  string

	mu     sync.Mutex
	onLost ErrorFunc
}

func NewMQTTFeed(cfg config.MQTTConfig) (*MQTTFeed, error) {
	f := &MQTTFeed{topic: cfg.Topic}

	opts := mqtt.NewClientOptions().AddBroker(cfg.Broker)
	opts.SetClientID(cfg.ClientID)
	opts.SetConnectTimeout(mqttTimeout)
	opts.SetAutoReconnect(false)
	opts.SetConnectionLostHandler(func(_ mqtt.Client, err error) {
		f.mu.Lock()
		onLost := f.onLost
		f.mu.Unlock()
		log.Printf("MQTT connection lost: %v", err)
		if onLost != nil {
			onLost(err)
		}
	})

	f.client = mqtt.NewClient(opts)
	token := f.client.Connect()
	if !token.WaitTimeout(mqttTimeout) {
		return nil, fmt.Errorf("connect to mqtt broker %s: timed out", cfg.Broker)
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("connect to mqtt broker %s: %w", cfg.Broker, err)
	}
	return f, nil
}

func (f *MQTTFeed) Close() error {
	f.client.Disconnect(250)
	return nil
}

func (f *MQTTFeed) Subscribe(ctx context.Context, onSnapshot SnapshotFunc, onError ErrorFunc) (func(), error) {
	var (
		mu     sync.Mutex
		closed bool
	)
	active := func() bool {
		mu.Lock()
		defer mu.Unlock()
		return !closed && ctx.Err() == nil
	}

	f.mu.Lock()
	f.onLost = func(err error) {
		if active() {
			onError(err)
		}
	}
	f.mu.Unlock()

	token := f.client.Subscribe(f.topic, 1, func(_ mqtt.Client, msg mqtt.Message) {
		if !active() {
			return
		}
		snapshot, err := DecodeSnapshot(msg.Payload())
		if err != nil {
			log.Printf("WARNING: ignoring snapshot on %s: %v", msg.Topic(), err)
			return
		}
		onSnapshot(snapshot)
	})
	if !token.WaitTimeout(mqttTimeout) {
		return nil, fmt.Errorf("subscribe to %s: timed out", f.topic)
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("subscribe to %s: %w", f.topic, err)
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			mu.Lock()
			closed = true
			mu.Unlock()
			f.mu.Lock()
			f.onLost = nil
			f.mu.Unlock()
			if f.client.IsConnected() {
				f.client.Unsubscribe(f.topic).WaitTimeout(mqttTimeout)
			}
		})
	}, nil
}
