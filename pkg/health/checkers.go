package health

import (
	"context"
	"database/sql"
	"time"

	"github.com/redis/go-redis/v9"
)

const defaultCheckTimeout = 5 * time.Second

// DatabaseChecker probes the SQL backend with a ping.
type DatabaseChecker struct {
	db      *sql.DB
	timeout time.Duration
}

// NewDatabaseChecker creates a checker over db. A zero timeout falls
// back to five seconds.
func NewDatabaseChecker(db *sql.DB, timeout time.Duration) *DatabaseChecker {
	if timeout == 0 {
		timeout = defaultCheckTimeout
	}
	return &DatabaseChecker{db: db, timeout: timeout}
}

func (c *DatabaseChecker) Name() string { return "database" }

func (c *DatabaseChecker) Check(ctx context.Context) CheckResult {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	start := time.Now()
	err := c.db.PingContext(ctx)
	return result(c.Name(), err, time.Since(start))
}

// RedisChecker probes the cache with a ping.
type RedisChecker struct {
	client  *redis.Client
	timeout time.Duration
}

// NewRedisChecker creates a checker over client. A zero timeout falls
// back to five seconds.
func NewRedisChecker(client *redis.Client, timeout time.Duration) *RedisChecker {
	if timeout == 0 {
		timeout = defaultCheckTimeout
	}
	return &RedisChecker{client: client, timeout: timeout}
}

func (c *RedisChecker) Name() string { return "cache" }

func (c *RedisChecker) Check(ctx context.Context) CheckResult {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	start := time.Now()
	err := c.client.Ping(ctx).Err()
	return result(c.Name(), err, time.Since(start))
}

// CheckerFunc adapts a plain function into a named Checker.
type CheckerFunc struct {
	CheckName string
	Func      func(ctx context.Context) error
}

func (c CheckerFunc) Name() string { return c.CheckName }

func (c CheckerFunc) Check(ctx context.Context) CheckResult {
	start := time.Now()
	err := c.Func(ctx)
	return result(c.CheckName, err, time.Since(start))
}

func result(name string, err error, duration time.Duration) CheckResult {
	if err != nil {
		return CheckResult{Name: name, Status: StatusUnhealthy, Error: err.Error(), Duration: duration}
	}
	return CheckResult{Name: name, Status: StatusHealthy, Duration: duration}
}
