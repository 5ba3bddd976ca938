// Package domain contains persistence models for daily Copilot usage metrics.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

// UsageMetric stores one upstream metrics document per calendar day.
type UsageMetric struct {
	ID        snowflake.ID   `gorm:"primaryKey"`
	Date      string         `gorm:"type:varchar(10);not null;uniqueIndex:ux_usage_metrics_date"`
	Document  datatypes.JSON `gorm:"not null"`
	CreatedAt time.Time      `gorm:"not null"`
	UpdatedAt time.Time      `gorm:"not null"`
}

// TableName sets the database table name.
func (UsageMetric) TableName() string { return "usage_metrics" }
