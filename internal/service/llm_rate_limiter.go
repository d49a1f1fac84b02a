package service

import (
	"context"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// LLMRateLimiter deckelt LLM-gebundene Aufrufe (Transkription, Extraktion,
// Synthese) pro Fachkraft. nil bedeutet: kein Limit.
type LLMRateLimiter interface {
	Allow(key string) bool
}

const redisLLMAllowScript = `
local current = redis.call("INCR", KEYS[1])
if current == 1 then
  redis.call("EXPIRE", KEYS[1], ARGV[1])
end
return current
`

type redisLLMRateLimiter struct {
	client redisEvaler
	window time.Duration
	max    int
	prefix string
}

type redisEvaler interface {
	Eval(ctx context.Context, script string, keys []string, args ...interface{}) *redis.Cmd
}

func NewRedisLLMRateLimiter(client *redis.Client, window time.Duration, max int) LLMRateLimiter {
	if client == nil {
		return nil
	}
	if window <= 0 {
		window = time.Minute
	}
	if max <= 0 {
		max = 1
	}
	return &redisLLMRateLimiter{
		client: client,
		window: window,
		max:    max,
		prefix: "llm:rl:",
	}
}

func (l *redisLLMRateLimiter) Allow(key string) bool {
	if l == nil || l.client == nil {
		return true
	}
	normalizedKey := strings.ToLower(strings.TrimSpace(key))
	if normalizedKey == "" {
		return false
	}
	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()

	redisKey := l.prefix + normalizedKey
	seconds := int(l.window.Seconds())
	if seconds <= 0 {
		seconds = 60
	}
	count, err := l.client.Eval(ctx, redisLLMAllowScript, []string{redisKey}, seconds).Int()
	if err != nil {
		// Redis weg heißt nicht Dokumentation weg: im Zweifel erlauben.
		return true
	}
	return count <= l.max
}
