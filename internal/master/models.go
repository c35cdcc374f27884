// Package master owns the reference tables: activity categories and the
// performance standards evaluated against them.
package master

import (
	"github.com/google/uuid"

	"github.com/Arcaz22/Productivity-Tracker/internal/database"
)

// EvaluationMethod is how a performance standard is scored.
type EvaluationMethod string

const (
	// EvaluationMethodManual means a project manager scores the standard.
	EvaluationMethodManual EvaluationMethod = "MANUAL"
	// EvaluationMethodSystem means scoring rules are applied automatically.
	EvaluationMethodSystem EvaluationMethod = "SYSTEM"
)

// Valid reports whether the value is a known evaluation method.
func (m EvaluationMethod) Valid() bool {
	return m == EvaluationMethodManual || m == EvaluationMethodSystem
}

// ActivityCategory is a reference activity category. Name uniqueness is
// case-insensitive among non-deleted rows and enforced by the service.
type ActivityCategory struct {
	database.BaseModel
	Name     string `gorm:"not null" json:"name"`
	IsActive bool   `gorm:"not null;default:true" json:"is_active"`
}

// TableName keeps the original table name.
func (ActivityCategory) TableName() string { return "ref_activity_categories" }

// PerformanceStandard is a scored work standard within a category.
type PerformanceStandard struct {
	database.BaseModel
	CategoryID       uuid.UUID              `gorm:"type:uuid;not null;index" json:"category_id"`
	Category         *ActivityCategory      `gorm:"foreignKey:CategoryID" json:"-"`
	Name             string                 `gorm:"not null" json:"name"`
	Description      string                 `json:"description,omitempty"`
	EvaluationMethod EvaluationMethod       `gorm:"type:varchar(16);not null" json:"evaluation_method"`
	ScoringRules     map[string]interface{} `gorm:"serializer:json" json:"scoring_rules,omitempty"`
	EvaluationGuide  string                 `json:"evaluation_guide,omitempty"`
	// WeightPercentage carries the DECIMAL(5,2) column as a string to keep
	// exact two-decimal values on the wire.
	WeightPercentage string `gorm:"type:decimal(5,2);not null" json:"weight_percentage"`
}

// TableName keeps the original table name.
func (PerformanceStandard) TableName() string { return "ref_performance_standards" }
