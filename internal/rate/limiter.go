package rate

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	emailKeyPrefix = "al:"
	ipKeyPrefix    = "ali:"
)

// Config holds login throttle parameters.
type Config struct {
	// MaxAttempts is the number of failed logins allowed per window.
	MaxAttempts int
	// Window is the lifetime of a counter, starting at its first failure.
	Window time.Duration
	// ThrottleIP also counts failures per client address.
	ThrottleIP bool
}

// Limiter counts failed logins per email and, optionally, per client IP in Redis.
type Limiter struct {
	redis  redis.UniversalClient
	config Config
}

// New creates a [Limiter] backed by the given Redis client.
func New(redisClient redis.UniversalClient, cfg Config) *Limiter {
	return &Limiter{
		redis:  redisClient,
		config: cfg,
	}
}

// Check returns ErrRateLimited when email, or ip when IP throttling is on, has used up
// its failure budget.
func (l *Limiter) Check(ctx context.Context, email, ip string) error {
	if err := l.checkCounter(ctx, l.emailKey(email)); err != nil {
		return err
	}
	if l.config.ThrottleIP && ip != "" {
		return l.checkCounter(ctx, l.ipKey(ip))
	}
	return nil
}

// Fail records a failed login and returns the failures now counted for email.
func (l *Limiter) Fail(ctx context.Context, email, ip string) (int, error) {
	count, err := l.incrementWithTTL(ctx, l.emailKey(email))
	if err != nil {
		return 0, err
	}
	if l.config.ThrottleIP && ip != "" {
		if _, err := l.incrementWithTTL(ctx, l.ipKey(ip)); err != nil {
			return 0, err
		}
	}
	return int(count), nil
}

// Reset clears the email counter after a successful login. The IP counter is left to
// expire so one good account cannot launder failures against others.
func (l *Limiter) Reset(ctx context.Context, email string) error {
	if err := l.redis.Del(ctx, l.emailKey(email)).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return nil
}

func (l *Limiter) checkCounter(ctx context.Context, key string) error {
	count, err := l.redis.Get(ctx, key).Int64()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil
		}
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}

	if count >= int64(l.config.MaxAttempts) {
		return ErrRateLimited
	}
	return nil
}

func (l *Limiter) incrementWithTTL(ctx context.Context, key string) (int64, error) {
	var incr *redis.IntCmd
	// Fixed window: EXPIRE NX only sets a TTL on a counter that has none, and MULTI keeps
	// INCR from landing without it.
	_, err := l.redis.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		incr = pipe.Incr(ctx, key)
		pipe.ExpireNX(ctx, key, l.config.Window)
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return incr.Val(), nil
}

// Emails are hashed so addresses never appear in key names.
func (l *Limiter) emailKey(email string) string {
	sum := sha256.Sum256([]byte(strings.ToLower(strings.TrimSpace(email))))
	return emailKeyPrefix + hex.EncodeToString(sum[:16])
}

func (l *Limiter) ipKey(ip string) string {
	return ipKeyPrefix + ip
}
