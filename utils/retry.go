package utils

import (
	"context"
	"database/sql/driver"
	"errors"
	"net"
	"strings"
	"time"

	mysqlDriver "github.com/go-sql-driver/mysql"
)

const (
	readMaxAttempts = 3
	readBaseDelay   = 100 * time.Millisecond
)

// RetryRead runs a read against the data store, retrying transient failures
// (dropped connections, deadlocks, lock wait timeouts) with exponential backoff.
// Permanent errors such as "record not found" are returned on the first attempt.
func RetryRead(ctx context.Context, op func() error) error {
	return retryWithBackoff(ctx, readMaxAttempts, readBaseDelay, op)
}

func retryWithBackoff(ctx context.Context, attempts int, base time.Duration, op func() error) error {
	var err error
	for attempt := 1; attempt <= attempts; attempt++ {
		err = op()
		if err == nil || !IsTransientDBError(err) || attempt == attempts {
			return err
		}
		delay := base * time.Duration(1<<(attempt-1))
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
	}
	return err
}

// IsTransientDBError classifies errors worth retrying on read paths.
func IsTransientDBError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	if errors.Is(err, driver.ErrBadConn) || errors.Is(err, mysqlDriver.ErrInvalidConn) {
		return true
	}
	var mysqlErr *mysqlDriver.MySQLError
	if errors.As(err, &mysqlErr) {
		switch mysqlErr.Number {
		case 1205, 1213, 2006, 2013:
			return true
		}
		return false
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "connection refused") ||
		strings.Contains(msg, "connection reset") ||
		strings.Contains(msg, "broken pipe") ||
		strings.Contains(msg, "server closed") ||
		strings.Contains(msg, "deadlock detected")
}
