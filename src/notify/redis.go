package notify

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/stake-plus/middlefinger/src/data"
	"github.com/stake-plus/middlefinger/src/types"
)

// Redis appends each submission to the submissions stream.
type Redis struct {
	rdb redis.Cmdable
}

func NewRedis(rdb redis.Cmdable) *Redis {
	return &Redis{rdb: rdb}
}

func (r *Redis) Name() string { return "redis" }

func (r *Redis) Notify(ctx context.Context, sub types.Submission) error {
	if err := data.PublishSubmission(ctx, r.rdb, sub); err != nil {
		return fmt.Errorf("publish to %s: %w", data.StreamSubmissions, err)
	}
	return nil
}
