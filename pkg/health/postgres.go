package health

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
)

// PostgresChecker reports healthy when the database accepts a connection
// and answers a ping
type PostgresChecker struct {
	// DSN is the Postgres connection string
	DSN string

	// Timeout bounds the probe
	Timeout time.Duration
}

// NewPostgresChecker creates a new Postgres health checker
func NewPostgresChecker(dsn string) *PostgresChecker {
	return &PostgresChecker{
		DSN:     dsn,
		Timeout: 5 * time.Second,
	}
}

// Check connects and pings within the timeout
func (p *PostgresChecker) Check(ctx context.Context) Result {
	start := time.Now()

	checkCtx, cancel := context.WithTimeout(ctx, p.Timeout)
	defer cancel()

	conn, err := pgx.Connect(checkCtx, p.DSN)
	if err != nil {
		return failure(start, fmt.Sprintf("postgres connect failed: %v", err))
	}
	defer conn.Close(context.Background())

	if err := conn.Ping(checkCtx); err != nil {
		return failure(start, fmt.Sprintf("postgres ping failed: %v", err))
	}

	return success(start, "postgres ping succeeded")
}

// Type returns the health check type
func (p *PostgresChecker) Type() CheckType {
	return CheckTypePostgres
}
