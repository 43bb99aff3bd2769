package health

import (
	"context"
	"time"
)

// CheckType represents the type of health check
type CheckType string

const (
	CheckTypeHTTP     CheckType = "http"
	CheckTypeTCP      CheckType = "tcp"
	CheckTypeExec     CheckType = "exec"
	CheckTypeRedis    CheckType = "redis"
	CheckTypePostgres CheckType = "postgres"
)

// Result represents the outcome of a health check
type Result struct {
	Healthy   bool
	Message   string
	CheckedAt time.Time
	Duration  time.Duration
}

// Checker is the interface that all health checkers must implement
type Checker interface {
	// Check performs the health check and returns the result
	Check(ctx context.Context) Result

	// Type returns the type of health check
	Type() CheckType
}

// failure builds an unhealthy Result for a check started at start
func failure(start time.Time, message string) Result {
	return Result{
		Healthy:   false,
		Message:   message,
		CheckedAt: start,
		Duration:  time.Since(start),
	}
}

// success builds a healthy Result for a check started at start
func success(start time.Time, message string) Result {
	return Result{
		Healthy:   true,
		Message:   message,
		CheckedAt: start,
		Duration:  time.Since(start),
	}
}
