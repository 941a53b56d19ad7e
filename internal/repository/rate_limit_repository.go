package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/welldanyogia/webrana-contact/internal/models"
	"gorm.io/gorm"
)

// AdmitResult is the outcome of a windowed admission attempt
type AdmitResult struct {
	Admitted bool
	// Count of hits in the window, including the new one when admitted
	Count int64
	// Oldest hit still in the window
	Oldest time.Time
}

// RateLimitRepository defines the interface for rate limit hit data access
type RateLimitRepository interface {
	Admit(ctx context.Context, callerKey string, now time.Time, window time.Duration, limit int) (*AdmitResult, error)
	Sweep(ctx context.Context, before time.Time) (int64, error)
	CountByCaller(ctx context.Context, callerKey string) (int64, error)
	Ping(ctx context.Context) error
}

// rateLimitRepository implements RateLimitRepository using GORM
type rateLimitRepository struct {
	db *gorm.DB
}

// NewRateLimitRepository creates a new RateLimitRepository instance
func NewRateLimitRepository(db *gorm.DB) RateLimitRepository {
	return &rateLimitRepository{db: db}
}

// Admit prunes expired hits for the caller, then records a new hit if
// fewer than limit remain. All three steps run in one transaction.
func (r *rateLimitRepository) Admit(ctx context.Context, callerKey string, now time.Time, window time.Duration, limit int) (*AdmitResult, error) {
	if callerKey == "" || limit <= 0 || window <= 0 {
		return nil, ErrInvalidInput
	}

	now = now.UTC()
	cutoff := now.Add(-window)
	result := &AdmitResult{}

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := lockCaller(tx, callerKey); err != nil {
			return err
		}

		if err := tx.Where("caller_key = ? AND hit_at <= ?", callerKey, cutoff).
			Delete(&models.RateLimitHit{}).Error; err != nil {
			return fmt.Errorf("failed to prune hits: %w", err)
		}

		if err := tx.Model(&models.RateLimitHit{}).
			Where("caller_key = ?", callerKey).
			Count(&result.Count).Error; err != nil {
			return fmt.Errorf("failed to count hits: %w", err)
		}

		if result.Count >= int64(limit) {
			var oldest models.RateLimitHit
			if err := tx.Where("caller_key = ?", callerKey).
				Order("hit_at ASC").
				First(&oldest).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return ErrNotFound
				}
				return fmt.Errorf("failed to get oldest hit: %w", err)
			}
			result.Oldest = oldest.HitAt
			return nil
		}

		hit := &models.RateLimitHit{CallerKey: callerKey, HitAt: now}
		if err := tx.Create(hit).Error; err != nil {
			return fmt.Errorf("failed to record hit: %w", err)
		}
		result.Admitted = true
		result.Count++
		return nil
	})
	if err != nil {
		return nil, err
	}

	return result, nil
}

// lockCaller serializes admissions for one caller until the transaction
// ends. SQLite already serializes writers.
func lockCaller(tx *gorm.DB, callerKey string) error {
	if tx.Dialector.Name() != "postgres" {
		return nil
	}
	if err := tx.Exec("SELECT pg_advisory_xact_lock(hashtext(?))", callerKey).Error; err != nil {
		return fmt.Errorf("failed to lock caller: %w", err)
	}
	return nil
}

// Sweep deletes every hit recorded at or before the given time
func (r *rateLimitRepository) Sweep(ctx context.Context, before time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("hit_at <= ?", before.UTC()).
		Delete(&models.RateLimitHit{})
	if result.Error != nil {
		return 0, fmt.Errorf("failed to sweep hits: %w", result.Error)
	}
	return result.RowsAffected, nil
}

// CountByCaller returns the number of stored hits for a caller
func (r *rateLimitRepository) CountByCaller(ctx context.Context, callerKey string) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.RateLimitHit{}).
		Where("caller_key = ?", callerKey).
		Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count hits: %w", err)
	}
	return count, nil
}

// Ping checks the underlying connection
func (r *rateLimitRepository) Ping(ctx context.Context) error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	return sqlDB.PingContext(ctx)
}
