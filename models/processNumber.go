package models

import (
	"context"
	"fmt"

	"github.com/despasys/despasys_backend/config"
	"github.com/despasys/despasys_backend/utils"
	"gorm.io/gorm"
)

const (
	processSequenceType     = "process"
	processNumberMaxAttempt = 8
)

// FormatProcessNumber renders PROC-001, PROC-042, PROC-1234.
func FormatProcessNumber(n int64) string {
	return fmt.Sprintf("PROC-%03d", n)
}

// numberSource hands out candidate sequence numbers for one tenant.
// Candidates are only proposals; the unique index on (tenant_id, sequence_no) is the arbiter.
// Next runs inside the insert transaction and reads through tx when it falls back to the table.
type numberSource interface {
	Next(ctx context.Context, tx *gorm.DB, tenantId string) (int64, error)
	Resync(ctx context.Context, tenantId string) error
}

// txRunner opens one transaction per attempt.
type txRunner func(fc func(tx *gorm.DB) error) error

func dbTransaction(ctx context.Context) txRunner {
	return func(fc func(tx *gorm.DB) error) error {
		return config.GetDB().WithContext(ctx).Transaction(fc)
	}
}

// insertWithSequence asks src for a number inside a transaction and runs insert with it.
// A duplicate key means someone else took the number: resync the source and try again.
// A failed resync is logged and the next attempt goes ahead anyway.
func insertWithSequence(ctx context.Context, runTx txRunner, src numberSource, tenantId string, maxAttempts int, insert func(tx *gorm.DB, seq int64) error) (int64, error) {
	logger := config.GetLogger()
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		var seq int64
		err := runTx(func(tx *gorm.DB) error {
			n, err := src.Next(ctx, tx, tenantId)
			if err != nil {
				return err
			}
			seq = n
			return insert(tx, n)
		})
		if err == nil {
			return seq, nil
		}
		if !utils.IsDuplicateKeyErr(err) {
			return 0, err
		}
		config.LogWarn(logger, "ProcessNumber", "insertWithSequence", "sequence collision, resyncing", map[string]interface{}{
			"tenant_id": tenantId,
			"seq":       seq,
			"attempt":   attempt,
		}, err.Error())
		if err := src.Resync(ctx, tenantId); err != nil {
			config.LogWarn(logger, "ProcessNumber", "insertWithSequence", "resync failed, retrying", map[string]interface{}{
				"tenant_id": tenantId,
				"attempt":   attempt,
			}, err.Error())
		}
		if err := ctx.Err(); err != nil {
			return 0, err
		}
	}
	return 0, utils.ErrConflict
}

// redisSequence is an INCR counter per tenant, seeded from the table's max.
// Without redis every candidate is max+1 read from the database.
type redisSequence struct {
	docType   string
	maxFromDB func(ctx context.Context, db *gorm.DB, tenantId string) (int64, error)
}

func (s redisSequence) key(tenantId string) string {
	return utils.SequenceKey(tenantId, s.docType)
}

func (s redisSequence) maxPlusOne(ctx context.Context, tx *gorm.DB, tenantId string) (int64, error) {
	max, err := s.maxFromDB(ctx, tx, tenantId)
	if err != nil {
		return 0, err
	}
	return max + 1, nil
}

func (s redisSequence) Next(ctx context.Context, tx *gorm.DB, tenantId string) (int64, error) {
	n, ok, err := config.GetRedisCounter(ctx, s.key(tenantId))
	if err != nil {
		config.LogError(config.GetLogger(), "ProcessNumber", "Next", "redis counter failed, using database max", tenantId, err)
	}
	if err != nil || !ok {
		return s.maxPlusOne(ctx, tx, tenantId)
	}
	if n > 1 {
		return n, nil
	}

	// A fresh (or evicted) counter starts at 1; lift it to the table's max first.
	max, err := s.seed(ctx, tx, tenantId)
	if err != nil {
		config.LogError(config.GetLogger(), "ProcessNumber", "Next", "counter seed failed, using database max", tenantId, err)
		return s.maxPlusOne(ctx, tx, tenantId)
	}
	if max == 0 {
		return n, nil
	}
	n, _, err = config.GetRedisCounter(ctx, s.key(tenantId))
	if err != nil {
		return s.maxPlusOne(ctx, tx, tenantId)
	}
	return n, nil
}

func (s redisSequence) Resync(ctx context.Context, tenantId string) error {
	_, err := s.seed(ctx, config.GetDB().WithContext(ctx), tenantId)
	return err
}

func (s redisSequence) seed(ctx context.Context, db *gorm.DB, tenantId string) (int64, error) {
	release, err := utils.TenantLock(ctx, tenantId, s.docType+"_seq", "ProcessNumber", "seed")
	if err != nil {
		return 0, err
	}
	defer release()
	max, err := s.maxFromDB(ctx, db, tenantId)
	if err != nil {
		return 0, err
	}
	if err := config.SeedRedisCounter(ctx, s.key(tenantId), max); err != nil {
		return 0, err
	}
	return max, nil
}

func maxProcessSequence(ctx context.Context, db *gorm.DB, tenantId string) (int64, error) {
	var max int64
	err := db.WithContext(ctx).Model(&Process{}).
		Where("tenant_id = ?", tenantId).
		Select("COALESCE(MAX(sequence_no), 0)").
		Scan(&max).Error
	return max, err
}

var processNumbers numberSource = redisSequence{docType: processSequenceType, maxFromDB: maxProcessSequence}
