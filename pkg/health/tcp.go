package health

import (
	"context"
	"fmt"
	"net"
	"time"
)

// TCPChecker reports healthy when a TCP connection can be established
type TCPChecker struct {
	// Address is the TCP address to connect to (e.g., "localhost:6379")
	Address string

	// Timeout is the connection timeout
	Timeout time.Duration
}

// NewTCPChecker creates a new TCP health checker
func NewTCPChecker(address string) *TCPChecker {
	return &TCPChecker{
		Address: address,
		Timeout: 5 * time.Second,
	}
}

// Check performs the TCP health check
func (t *TCPChecker) Check(ctx context.Context) Result {
	start := time.Now()

	dialer := &net.Dialer{Timeout: t.Timeout}
	conn, err := dialer.DialContext(ctx, "tcp", t.Address)
	if err != nil {
		return failure(start, fmt.Sprintf("connection failed: %v", err))
	}
	defer conn.Close()

	return success(start, fmt.Sprintf("TCP connection to %s successful", t.Address))
}

// Type returns the health check type
func (t *TCPChecker) Type() CheckType {
	return CheckTypeTCP
}
