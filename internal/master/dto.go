package master

import (
	"encoding/json"

	"github.com/google/uuid"
)

// CategoryAddRequest creates a new activity category.
type CategoryAddRequest struct {
	Name     string `json:"name" binding:"required"`
	IsActive *bool  `json:"is_active"`
}

// CategoryUpdateRequest updates an existing activity category. Nil fields
// are left unchanged.
type CategoryUpdateRequest struct {
	Name     *string `json:"name"`
	IsActive *bool   `json:"is_active"`
}

// CategoryResponse is the wire shape of an activity category.
type CategoryResponse struct {
	ID       uuid.UUID `json:"id"`
	Name     string    `json:"name"`
	IsActive bool      `json:"is_active"`
}

func toCategoryResponse(c *ActivityCategory) CategoryResponse {
	return CategoryResponse{ID: c.ID, Name: c.Name, IsActive: c.IsActive}
}

func toCategoryResponses(categories []ActivityCategory) []CategoryResponse {
	out := make([]CategoryResponse, 0, len(categories))
	for i := range categories {
		out = append(out, toCategoryResponse(&categories[i]))
	}
	return out
}

// StandardAddRequest creates a new performance standard.
type StandardAddRequest struct {
	CategoryID       uuid.UUID              `json:"category_id" binding:"required"`
	Name             string                 `json:"name" binding:"required"`
	Description      string                 `json:"description"`
	EvaluationMethod EvaluationMethod       `json:"evaluation_method" binding:"required,oneof=MANUAL SYSTEM"`
	ScoringRules     map[string]interface{} `json:"scoring_rules"`
	EvaluationGuide  string                 `json:"evaluation_guide"`
	WeightPercentage string                 `json:"weight_percentage" binding:"required"`
}

// StandardUpdateRequest updates an existing performance standard. Nil
// fields are left unchanged.
type StandardUpdateRequest struct {
	CategoryID       *uuid.UUID             `json:"category_id"`
	Name             *string                `json:"name"`
	Description      *string                `json:"description"`
	EvaluationMethod *EvaluationMethod      `json:"evaluation_method" binding:"omitempty,oneof=MANUAL SYSTEM"`
	ScoringRules     map[string]interface{} `json:"scoring_rules"`
	EvaluationGuide  *string                `json:"evaluation_guide"`
	WeightPercentage *string                `json:"weight_percentage"`
}

// StandardResponse is the wire shape of a performance standard.
type StandardResponse struct {
	ID               uuid.UUID       `json:"id"`
	CategoryID       uuid.UUID       `json:"category_id"`
	Name             string          `json:"name"`
	Description      string          `json:"description,omitempty"`
	EvaluationMethod string          `json:"evaluation_method"`
	ScoringRules     json.RawMessage `json:"scoring_rules,omitempty"`
	EvaluationGuide  string          `json:"evaluation_guide,omitempty"`
	WeightPercentage string          `json:"weight_percentage"`
}

func toStandardResponse(s *PerformanceStandard) StandardResponse {
	resp := StandardResponse{
		ID:               s.ID,
		CategoryID:       s.CategoryID,
		Name:             s.Name,
		Description:      s.Description,
		EvaluationMethod: string(s.EvaluationMethod),
		EvaluationGuide:  s.EvaluationGuide,
		WeightPercentage: s.WeightPercentage,
	}
	if len(s.ScoringRules) > 0 {
		if raw, err := json.Marshal(s.ScoringRules); err == nil {
			resp.ScoringRules = raw
		}
	}
	return resp
}

func toStandardResponses(standards []PerformanceStandard) []StandardResponse {
	out := make([]StandardResponse, 0, len(standards))
	for i := range standards {
		out = append(out, toStandardResponse(&standards[i]))
	}
	return out
}
