package models

import (
	"time"
)

// RateLimitHit records one admitted contact submission for a caller
type RateLimitHit struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CallerKey string    `gorm:"index:idx_rate_limit_hits_caller_hit;not null;size:255" json:"caller_key"`
	HitAt     time.Time `gorm:"index:idx_rate_limit_hits_caller_hit;index;not null" json:"hit_at"`
}

// TableName returns the table name for RateLimitHit
func (RateLimitHit) TableName() string {
	return "rate_limit_hits"
}
