package cache

import (
	"context"
	"strconv"
	"time"
)

type Cache interface {
	GetJSON(ctx context.Context, key string, dst any) (hit bool, err error)
	SetJSON(ctx context.Context, key string, val any, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
}

// Counter tracks per-token answer arrivals; the stitch worker compares
// the count against the role's expected question count.
type Counter interface {
	Incr(ctx context.Context, key string) (int64, error)
}

func QuestionsKey(roleID int64) string {
	return "questions:role:" + strconv.FormatInt(roleID, 10)
}

func AnswersKey(token string) string { return "answers:" + token }
