package main

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"math/rand"
	"os"
	"sort"
	"sync/atomic"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

// feedsim writes synthetic temperature readings into the Redis feed so the
// dashboard can be tried without a real sensor.

var (
	redisAddr string
	feedKey   string
	channel   string

	writeCount   int64
	failCount    int64
	totalLatency int64
	latencies    []time.Duration
)

func main() {
	root := &cobra.Command{
		Use:   "feedsim",
		Short: "Write synthetic readings into the dashboard feed",
		Example: `  go run tools/feedsim.go backfill --days 30 --step 15m
  go run tools/feedsim.go run --interval 5s --duration 10m`,
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&redisAddr, "redis", envOr("REDIS_ADDR", "localhost:6379"), "Redis address")
	root.PersistentFlags().StringVar(&feedKey, "key", envOr("FEED_KEY", "temperatures"), "hash holding the collection")
	root.PersistentFlags().StringVar(&channel, "channel", envOr("FEED_CHANNEL", "temperatures:events"), "change notification channel")

	var days int
	var step time.Duration
	backfill := &cobra.Command{
		Use:   "backfill",
		Short: "Write readings covering the last N days",
		RunE: func(cmd *cobra.Command, args []string) error {
			rdb, err := connect(cmd.Context())
			if err != nil {
				return err
			}
			defer rdb.Close()

			start := time.Now()
			for t := start.Add(-time.Duration(days) * 24 * time.Hour); t.Before(start); t = t.Add(step) {
				write(cmd.Context(), rdb, t, false)
			}
			if err := rdb.Publish(cmd.Context(), channel, "backfill").Err(); err != nil {
				return err
			}
			printResults(time.Since(start))
			return nil
		},
	}
	backfill.Flags().IntVar(&days, "days", 30, "days of history to write")
	backfill.Flags().DurationVar(&step, "step", 15*time.Minute, "spacing between readings")

	var interval, duration time.Duration
	var malformed float64
	run := &cobra.Command{
		Use:   "run",
		Short: "Write a live reading every interval",
		RunE: func(cmd *cobra.Command, args []string) error {
			rdb, err := connect(cmd.Context())
			if err != nil {
				return err
			}
			defer rdb.Close()

			start := time.Now()
			ticker := time.NewTicker(interval)
			defer ticker.Stop()
			deadline := time.After(duration)
			for {
				select {
				case <-deadline:
					printResults(time.Since(start))
					return nil
				case <-cmd.Context().Done():
					printResults(time.Since(start))
					return nil
				case now := <-ticker.C:
					write(cmd.Context(), rdb, now, rand.Float64() < malformed)
				}
			}
		},
	}
	run.Flags().DurationVar(&interval, "interval", 5*time.Second, "time between readings")
	run.Flags().DurationVar(&duration, "duration", time.Minute, "how long to run")
	run.Flags().Float64Var(&malformed, "malformed", 0, "fraction of readings sent with a non-numeric value")

	root.AddCommand(backfill, run)
	if err := root.ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func connect(ctx context.Context) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{Addr: redisAddr})
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("connect to redis at %s: %w", redisAddr, err)
	}
	return rdb, nil
}

// temperature follows a daily sine wave with some noise.
func temperature(t time.Time) float64 {
	hour := float64(t.Hour()) + float64(t.Minute())/60
	v := 18 + 5*math.Sin((hour-9)/24*2*math.Pi) + rand.NormFloat64()*0.3
	return math.Round(v*100) / 100
}

func write(ctx context.Context, rdb *redis.Client, t time.Time, malformed bool) {
	rec := map[string]any{
		"timestamp": t.UTC().Format(time.RFC3339),
		"value":     temperature(t),
	}
	if malformed {
		rec["value"] = "n/a"
	}
	data, _ := json.Marshal(rec)

	start := time.Now()
	err := rdb.HSet(ctx, feedKey, uuid.NewString(), data).Err()
	if err == nil {
		err = rdb.Publish(ctx, channel, "put").Err()
	}
	latency := time.Since(start)

	atomic.AddInt64(&writeCount, 1)
	if err != nil {
		atomic.AddInt64(&failCount, 1)
		fmt.Fprintf(os.Stderr, "write failed: %v\n", err)
		return
	}
	atomic.AddInt64(&totalLatency, int64(latency))
	latencies = append(latencies, latency)
}

func printResults(duration time.Duration) {
	total := atomic.LoadInt64(&writeCount)
	failed := atomic.LoadInt64(&failCount)
	ok := total - failed

	var avg, p95 time.Duration
	if ok > 0 {
		avg = time.Duration(atomic.LoadInt64(&totalLatency) / ok)
		sorted := append([]time.Duration(nil), latencies...)
		sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
		p95 = sorted[len(sorted)*95/100]
	}

	fmt.Println("==========================================")
	fmt.Printf("Duration:       %v\n", duration)
	fmt.Printf("Readings:       %d\n", total)
	fmt.Printf("Failed:         %d\n", failed)
	fmt.Printf("Avg latency:    %v\n", avg)
	fmt.Printf("p95 latency:    %v\n", p95)
	fmt.Println("==========================================")
}
