package mailer

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisThrottler enforces per-minute and per-day send ceilings with a single
// atomic Lua script. GET → check → INCR in separate commands would race under
// concurrent sends.
type RedisThrottler struct {
	redis  *redis.Client
	script *redis.Script

	perMinute int
	perDay    int
}

const throttleLuaScript = `
local minuteKey = KEYS[1]
local dailyKey = KEYS[2]
local increment = tonumber(ARGV[1])
local minuteLimit = tonumber(ARGV[2])
local dailyLimit = tonumber(ARGV[3])

local minCurrent = tonumber(redis.call("GET", minuteKey) or "0")
local dayCurrent = tonumber(redis.call("GET", dailyKey) or "0")

if minCurrent + increment > minuteLimit then
    return {0, 1, minCurrent}
end
if dayCurrent + increment > dailyLimit then
    return {0, 2, dayCurrent}
end

local newMin = redis.call("INCRBY", minuteKey, increment)
if newMin == increment then
    redis.call("EXPIRE", minuteKey, 60)
end

local newDay = redis.call("INCRBY", dailyKey, increment)
if newDay == increment then
    redis.call("EXPIRE", dailyKey, 86400)
end

return {1, 0, newDay}
`

// NewRedisThrottler creates a throttler with the given per-minute and
// per-day ceilings.
func NewRedisThrottler(client *redis.Client, perMinute, perDay int) *RedisThrottler {
	return &RedisThrottler{
		redis:     client,
		script:    redis.NewScript(throttleLuaScript),
		perMinute: perMinute,
		perDay:    perDay,
	}
}

// Allow reports whether n more sends fit under both ceilings, incrementing
// the counters when they do.
func (t *RedisThrottler) Allow(ctx context.Context, n int) (bool, error) {
	now := time.Now()
	minuteKey := fmt.Sprintf("throttle:send:minute:%s", now.Format("2006-01-02T15:04"))
	dailyKey := fmt.Sprintf("throttle:send:day:%s", now.Format("2006-01-02"))

	result, err := t.script.Run(ctx, t.redis,
		[]string{minuteKey, dailyKey},
		n, t.perMinute, t.perDay,
	).Result()
	if err != nil {
		return false, fmt.Errorf("throttle script failed: %w", err)
	}

	values, ok := result.([]interface{})
	if !ok || len(values) < 1 {
		return false, fmt.Errorf("unexpected throttle script result: %v", result)
	}
	allowed, _ := values[0].(int64)
	return allowed == 1, nil
}
