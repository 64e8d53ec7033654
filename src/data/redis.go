package data

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/stake-plus/middlefinger/src/types"
)

// StreamSubmissions is the redis stream live submissions are appended to.
const StreamSubmissions = "middlefinger.submissions"

func ConnectRedis(ctx context.Context, url string) (*redis.Client, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("redis url: %w", err)
	}
	rdb := redis.NewClient(opt)
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return rdb, nil
}

// SubmissionPayload is the stream entry written for sub.
func SubmissionPayload(sub types.Submission) map[string]interface{} {
	return map[string]interface{}{
		"address": sub.Address.Hex(),
		"time":    sub.Timestamp.Unix(),
		"message": sub.Message,
	}
}

func PublishSubmission(ctx context.Context, rdb redis.Cmdable, sub types.Submission) error {
	_, err := rdb.XAdd(ctx, &redis.XAddArgs{
		Stream: StreamSubmissions,
		Values: SubmissionPayload(sub),
	}).Result()
	return err
}
