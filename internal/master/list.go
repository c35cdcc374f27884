package master

import (
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ListParams are the shared pagination and filtering parameters of the
// reference listing endpoints.
type ListParams struct {
	Page      int    `form:"page" binding:"omitempty,gte=1"`
	Limit     int    `form:"limit" binding:"omitempty,gte=1,lte=100"`
	Filter    string `form:"filter"`
	SortOrder string `form:"sort_order" binding:"omitempty,oneof=asc desc"`
	IsActive  *bool  `form:"is_active"`

	// CategoryID narrows standards to one category. Bound by hand in the
	// handler; gin's query binding does not cover uuid pointers.
	CategoryID *uuid.UUID `form:"-"`
}

// ApplyDefaults fills page, limit, and sort order when omitted.
func (p *ListParams) ApplyDefaults() {
	if p.Page <= 0 {
		p.Page = 1
	}
	if p.Limit <= 0 {
		p.Limit = 10
	}
	if p.SortOrder == "" {
		p.SortOrder = "asc"
	}
}

// FilterApplied describes the active filters for the response meta block.
func (p *ListParams) FilterApplied() map[string]interface{} {
	applied := map[string]interface{}{}
	if p.Filter != "" {
		applied["filter"] = p.Filter
	}
	if p.IsActive != nil {
		applied["is_active"] = *p.IsActive
	}
	if p.CategoryID != nil {
		applied["category_id"] = p.CategoryID.String()
	}
	if len(applied) == 0 {
		return nil
	}
	return applied
}

func (p *ListParams) offset() int {
	return (p.Page - 1) * p.Limit
}

func (p *ListParams) order(column string) string {
	if strings.EqualFold(p.SortOrder, "desc") {
		return column + " DESC"
	}
	return column + " ASC"
}

// applyNameFilter adds a case-insensitive substring match on name.
func applyNameFilter(q *gorm.DB, filter string) *gorm.DB {
	if filter == "" {
		return q
	}
	return q.Where("LOWER(name) LIKE ?", "%"+strings.ToLower(filter)+"%")
}
