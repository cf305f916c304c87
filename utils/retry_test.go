package utils

import (
	"context"
	"database/sql/driver"
	"errors"
	"fmt"
	"testing"
	"time"

	mysqlDriver "github.com/go-sql-driver/mysql"
	"gorm.io/gorm"
)

func TestRetryWithBackoff_RetriesTransientErrors(t *testing.T) {
	calls := 0
	err := retryWithBackoff(context.Background(), 3, time.Millisecond, func() error {
		calls++
		if calls < 3 {
			return driver.ErrBadConn
		}
		return nil
	})
	if err != nil {
		t.Fatalf("expected success after retries, got %v", err)
	}
	if calls != 3 {
		t.Fatalf("expected 3 calls, got %d", calls)
	}
}

func TestRetryWithBackoff_StopsOnPermanentError(t *testing.T) {
	calls := 0
	err := retryWithBackoff(context.Background(), 3, time.Millisecond, func() error {
		calls++
		return gorm.ErrRecordNotFound
	})
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Fatalf("expected record not found, got %v", err)
	}
	if calls != 1 {
		t.Fatalf("permanent errors must not be retried, got %d calls", calls)
	}
}

func TestRetryWithBackoff_GivesUpAfterMaxAttempts(t *testing.T) {
	calls := 0
	deadlock := &mysqlDriver.MySQLError{Number: 1213, Message: "Deadlock found"}
	err := retryWithBackoff(context.Background(), 3, time.Millisecond, func() error {
		calls++
		return deadlock
	})
	if !errors.Is(err, deadlock) {
		t.Fatalf("expected last error to be returned, got %v", err)
	}
	if calls != 3 {
		t.Fatalf("expected 3 attempts, got %d", calls)
	}
}

func TestRetryWithBackoff_RespectsCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	err := retryWithBackoff(ctx, 5, 50*time.Millisecond, func() error {
		calls++
		cancel()
		return driver.ErrBadConn
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if calls != 1 {
		t.Fatalf("expected 1 call before cancellation, got %d", calls)
	}
}

func TestIsTransientDBError(t *testing.T) {
	cases := []struct {
		err  error
		want bool
	}{
		{nil, false},
		{driver.ErrBadConn, true},
		{fmt.Errorf("wrapped: %w", driver.ErrBadConn), true},
		{&mysqlDriver.MySQLError{Number: 1205}, true},
		{&mysqlDriver.MySQLError{Number: 2006}, true},
		{&mysqlDriver.MySQLError{Number: 1062}, false},
		{errors.New("dial tcp 127.0.0.1:3306: connect: connection refused"), true},
		{gorm.ErrRecordNotFound, false},
		{context.DeadlineExceeded, false},
	}
	for _, tc := range cases {
		if got := IsTransientDBError(tc.err); got != tc.want {
			t.Fatalf("IsTransientDBError(%v) = %v, want %v", tc.err, got, tc.want)
		}
	}
}
