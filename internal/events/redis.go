package events

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultStream is the Redis stream events are appended to.
const DefaultStream = "examlayout:events"

// RedisSink appends events to a Redis stream so other services can follow edits.
type RedisSink struct {
	client *redis.Client
	stream string
	maxLen int64
}

// NewRedisSink connects to Redis and checks the connection.
// maxLen caps the stream length approximately; 0 keeps everything.
func NewRedisSink(ctx context.Context, addr, password, stream string, maxLen int64) (*RedisSink, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       0,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	if stream == "" {
		stream = DefaultStream
	}
	return &RedisSink{client: client, stream: stream, maxLen: maxLen}, nil
}

func (s *RedisSink) Emit(ctx context.Context, ev Event) error {
	values, err := streamValues(ev)
	if err != nil {
		return err
	}
	args := &redis.XAddArgs{
		Stream: s.stream,
		Values: values,
	}
	if s.maxLen > 0 {
		args.MaxLen = s.maxLen
		args.Approx = true
	}
	if err := s.client.XAdd(ctx, args).Err(); err != nil {
		return fmt.Errorf("xadd %s: %w", s.stream, err)
	}
	return nil
}

// Close closes the Redis connection.
func (s *RedisSink) Close() error {
	return s.client.Close()
}

// streamValues flattens an event into stream entry fields.
func streamValues(ev Event) (map[string]any, error) {
	data, err := json.Marshal(ev.Data)
	if err != nil {
		return nil, fmt.Errorf("encode event data: %w", err)
	}
	return map[string]any{
		"id":      ev.ID,
		"type":    string(ev.Type),
		"exam_id": strconv.FormatInt(ev.ExamID, 10),
		"at":      ev.At.Format(time.RFC3339Nano),
		"data":    string(data),
	}, nil
}
