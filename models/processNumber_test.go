package models

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/despasys/despasys_backend/utils"
	"gorm.io/gorm"
)

// fakeProcessTable enforces the (tenant_id, sequence_no) unique index in memory.
type fakeProcessTable struct {
	mu   sync.Mutex
	used map[int64]bool
}

func newFakeProcessTable(existing ...int64) *fakeProcessTable {
	t := &fakeProcessTable{used: map[int64]bool{}}
	for _, n := range existing {
		t.used[n] = true
	}
	return t
}

func (t *fakeProcessTable) insert(tx *gorm.DB, seq int64) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.used[seq] {
		return gorm.ErrDuplicatedKey
	}
	t.used[seq] = true
	return nil
}

func (t *fakeProcessTable) max() int64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	var m int64
	for n := range t.used {
		if n > m {
			m = n
		}
	}
	return m
}

// noTx runs each attempt without a database.
func noTx(fc func(tx *gorm.DB) error) error { return fc(nil) }

// atomicSource behaves like redis INCR.
type atomicSource struct {
	counter int64
	table   *fakeProcessTable
	resyncs int32
}

func (s *atomicSource) Next(ctx context.Context, tx *gorm.DB, tenantId string) (int64, error) {
	return atomic.AddInt64(&s.counter, 1), nil
}

func (s *atomicSource) Resync(ctx context.Context, tenantId string) error {
	atomic.AddInt32(&s.resyncs, 1)
	max := s.table.max()
	for {
		cur := atomic.LoadInt64(&s.counter)
		if cur >= max || atomic.CompareAndSwapInt64(&s.counter, cur, max) {
			return nil
		}
	}
}

// maxPlusOneSource behaves like the database fallback: every caller reads max+1.
type maxPlusOneSource struct {
	table *fakeProcessTable
}

func (s maxPlusOneSource) Next(ctx context.Context, tx *gorm.DB, tenantId string) (int64, error) {
	return s.table.max() + 1, nil
}

func (s maxPlusOneSource) Resync(ctx context.Context, tenantId string) error { return nil }

// stuckSource always proposes the same number.
type stuckSource struct {
	resyncs int
}

func (s *stuckSource) Next(ctx context.Context, tx *gorm.DB, tenantId string) (int64, error) {
	return 1, nil
}
func (s *stuckSource) Resync(ctx context.Context, tenantId string) error {
	s.resyncs++
	return nil
}

// brokenLockSource is an INCR counter whose resync always fails, like a
// connected redis that refuses the seed lock.
type brokenLockSource struct {
	counter int64
	resyncs int
}

func (s *brokenLockSource) Next(ctx context.Context, tx *gorm.DB, tenantId string) (int64, error) {
	s.counter++
	return s.counter, nil
}

func (s *brokenLockSource) Resync(ctx context.Context, tenantId string) error {
	s.resyncs++
	return utils.ErrConflict
}

func TestFormatProcessNumber(t *testing.T) {
	cases := map[int64]string{1: "PROC-001", 42: "PROC-042", 999: "PROC-999", 1234: "PROC-1234"}
	for n, want := range cases {
		if got := FormatProcessNumber(n); got != want {
			t.Fatalf("FormatProcessNumber(%d) = %q, want %q", n, got, want)
		}
	}
}

func TestInsertWithSequence_ConcurrentCreatesAreDistinctAndGapless(t *testing.T) {
	table := newFakeProcessTable()
	src := &atomicSource{table: table}
	const workers = 50

	var wg sync.WaitGroup
	results := make(chan int64, workers)
	errs := make(chan error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			seq, err := insertWithSequence(context.Background(), noTx, src, "t1", processNumberMaxAttempt, table.insert)
			if err != nil {
				errs <- err
				return
			}
			results <- seq
		}()
	}
	wg.Wait()
	close(results)
	close(errs)

	for err := range errs {
		t.Fatalf("unexpected error: %v", err)
	}
	seen := map[int64]bool{}
	for seq := range results {
		if seen[seq] {
			t.Fatalf("sequence %d handed out twice", seq)
		}
		seen[seq] = true
	}
	for n := int64(1); n <= workers; n++ {
		if !seen[n] {
			t.Fatalf("expected %s to be allocated", FormatProcessNumber(n))
		}
	}
}

func TestInsertWithSequence_ResyncsAfterStaleCounter(t *testing.T) {
	// rows 1..5 were created while the counter was unavailable
	table := newFakeProcessTable(1, 2, 3, 4, 5)
	src := &atomicSource{table: table}

	seq, err := insertWithSequence(context.Background(), noTx, src, "t1", processNumberMaxAttempt, table.insert)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if seq != 6 {
		t.Fatalf("seq = %d, want 6", seq)
	}
	if src.resyncs != 1 {
		t.Fatalf("resyncs = %d, want 1", src.resyncs)
	}
}

func TestInsertWithSequence_MaxPlusOneFallbackNeverDuplicates(t *testing.T) {
	table := newFakeProcessTable()
	src := maxPlusOneSource{table: table}
	const workers = 20

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		seen    = map[int64]bool{}
		failure error
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			seq, err := insertWithSequence(context.Background(), noTx, src, "t1", workers+1, table.insert)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				failure = err
				return
			}
			if seen[seq] {
				failure = errors.New("duplicate sequence")
				return
			}
			seen[seq] = true
		}()
	}
	wg.Wait()
	if failure != nil {
		t.Fatalf("unexpected failure: %v", failure)
	}
	if len(seen) != workers {
		t.Fatalf("allocated %d numbers, want %d", len(seen), workers)
	}
}

func TestInsertWithSequence_GivesUpWithConflict(t *testing.T) {
	table := newFakeProcessTable(1)
	src := &stuckSource{}

	_, err := insertWithSequence(context.Background(), noTx, src, "t1", processNumberMaxAttempt, table.insert)
	if !errors.Is(err, utils.ErrConflict) {
		t.Fatalf("err = %v, want ErrConflict", err)
	}
	if src.resyncs != processNumberMaxAttempt {
		t.Fatalf("resyncs = %d, want %d", src.resyncs, processNumberMaxAttempt)
	}
}

func TestInsertWithSequence_PropagatesOtherErrors(t *testing.T) {
	boom := errors.New("boom")
	calls := 0
	_, err := insertWithSequence(context.Background(), noTx, &stuckSource{}, "t1", processNumberMaxAttempt, func(*gorm.DB, int64) error {
		calls++
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v, want boom", err)
	}
	if calls != 1 {
		t.Fatalf("insert called %d times, want 1", calls)
	}
}

func TestInsertWithSequence_ResyncFailureKeepsRetrying(t *testing.T) {
	table := newFakeProcessTable(1, 2, 3)
	src := &brokenLockSource{}

	seq, err := insertWithSequence(context.Background(), noTx, src, "t1", processNumberMaxAttempt, table.insert)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if seq != 4 {
		t.Fatalf("seq = %d, want 4", seq)
	}
	if src.resyncs != 3 {
		t.Fatalf("resyncs = %d, want 3", src.resyncs)
	}
}

func TestInsertWithSequence_NextRunsInsideTheTransaction(t *testing.T) {
	tx := &gorm.DB{}
	var nextTx, insertTx *gorm.DB
	src := redisSequence{
		docType: "process",
		maxFromDB: func(ctx context.Context, db *gorm.DB, tenantId string) (int64, error) {
			nextTx = db
			return 41, nil
		},
	}
	runTx := func(fc func(tx *gorm.DB) error) error { return fc(tx) }

	// no redis connection in unit tests, so Next falls back to max+1
	seq, err := insertWithSequence(context.Background(), runTx, src, "t1", processNumberMaxAttempt, func(db *gorm.DB, seq int64) error {
		insertTx = db
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if seq != 42 {
		t.Fatalf("seq = %d, want 42", seq)
	}
	if nextTx != tx || insertTx != tx {
		t.Fatalf("max read and insert must share the attempt's transaction")
	}
}
