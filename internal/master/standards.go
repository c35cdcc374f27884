package master

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	apperrors "github.com/Arcaz22/Productivity-Tracker/internal/errors"
	"github.com/Arcaz22/Productivity-Tracker/internal/logger"
)

// StandardService manages the performance standard reference table.
type StandardService struct {
	db  *gorm.DB
	log *logger.Logger
}

// NewStandardService creates a StandardService.
func NewStandardService(db *gorm.DB, log *logger.Logger) *StandardService {
	return &StandardService{db: db, log: log.WithComponent("master.standards")}
}

// Add creates a new performance standard under an existing category.
func (s *StandardService) Add(ctx context.Context, req StandardAddRequest, actorID string) (*PerformanceStandard, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, apperrors.MissingField("name")
	}
	if !req.EvaluationMethod.Valid() {
		return nil, apperrors.Validation("evaluation_method must be MANUAL or SYSTEM")
	}

	weight, err := normalizeWeight(req.WeightPercentage)
	if err != nil {
		return nil, err
	}

	if err := s.checkCategoryExists(ctx, req.CategoryID); err != nil {
		return nil, err
	}
	if err := s.checkDuplicateName(ctx, name, req.CategoryID, uuid.Nil); err != nil {
		return nil, err
	}

	standard := &PerformanceStandard{
		CategoryID:       req.CategoryID,
		Name:             name,
		Description:      req.Description,
		EvaluationMethod: req.EvaluationMethod,
		ScoringRules:     req.ScoringRules,
		EvaluationGuide:  req.EvaluationGuide,
		WeightPercentage: weight,
	}
	standard.CreatedBy = actorID
	standard.UpdatedBy = actorID

	if err := s.db.WithContext(ctx).Create(standard).Error; err != nil {
		return nil, apperrors.DatabaseError("create performance standard", err)
	}

	s.log.Info("Performance standard created", map[string]interface{}{
		"standard_id": standard.ID.String(),
		"category_id": standard.CategoryID.String(),
		"name":        standard.Name,
	})
	return standard, nil
}

// List returns a page of performance standards with the total count of
// rows matching the filters.
func (s *StandardService) List(ctx context.Context, params ListParams) ([]PerformanceStandard, int64, error) {
	params.ApplyDefaults()

	q := s.db.WithContext(ctx).Model(&PerformanceStandard{})
	q = applyNameFilter(q, params.Filter)
	if params.CategoryID != nil {
		q = q.Where("category_id = ?", *params.CategoryID)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, apperrors.DatabaseError("count performance standards", err)
	}

	var standards []PerformanceStandard
	err := q.Order(params.order("name")).
		Offset(params.offset()).
		Limit(params.Limit).
		Find(&standards).Error
	if err != nil {
		return nil, 0, apperrors.DatabaseError("list performance standards", err)
	}

	return standards, total, nil
}

// Get returns a single performance standard by id.
func (s *StandardService) Get(ctx context.Context, id uuid.UUID) (*PerformanceStandard, error) {
	var standard PerformanceStandard
	err := s.db.WithContext(ctx).First(&standard, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.NotFound("Performance standard not found")
	}
	if err != nil {
		return nil, apperrors.DatabaseError("get performance standard", err)
	}
	return &standard, nil
}

// Update applies the non-nil fields of the request to the standard.
func (s *StandardService) Update(ctx context.Context, id uuid.UUID, req StandardUpdateRequest, actorID string) (*PerformanceStandard, error) {
	standard, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.CategoryID != nil && *req.CategoryID != standard.CategoryID {
		if err := s.checkCategoryExists(ctx, *req.CategoryID); err != nil {
			return nil, err
		}
		standard.CategoryID = *req.CategoryID
	}
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, apperrors.MissingField("name")
		}
		if !strings.EqualFold(name, standard.Name) {
			if err := s.checkDuplicateName(ctx, name, standard.CategoryID, standard.ID); err != nil {
				return nil, err
			}
		}
		standard.Name = name
	}
	if req.Description != nil {
		standard.Description = *req.Description
	}
	if req.EvaluationMethod != nil {
		if !req.EvaluationMethod.Valid() {
			return nil, apperrors.Validation("evaluation_method must be MANUAL or SYSTEM")
		}
		standard.EvaluationMethod = *req.EvaluationMethod
	}
	if req.ScoringRules != nil {
		standard.ScoringRules = req.ScoringRules
	}
	if req.EvaluationGuide != nil {
		standard.EvaluationGuide = *req.EvaluationGuide
	}
	if req.WeightPercentage != nil {
		weight, err := normalizeWeight(*req.WeightPercentage)
		if err != nil {
			return nil, err
		}
		standard.WeightPercentage = weight
	}
	standard.UpdatedBy = actorID

	if err := s.db.WithContext(ctx).Save(standard).Error; err != nil {
		return nil, apperrors.DatabaseError("update performance standard", err)
	}

	s.log.Info("Performance standard updated", map[string]interface{}{
		"standard_id": standard.ID.String(),
	})
	return standard, nil
}

// Delete soft-deletes the standard.
func (s *StandardService) Delete(ctx context.Context, id uuid.UUID, actorID string) error {
	standard, err := s.Get(ctx, id)
	if err != nil {
		return err
	}

	standard.UpdatedBy = actorID
	if err := s.db.WithContext(ctx).Save(standard).Error; err != nil {
		return apperrors.DatabaseError("update performance standard", err)
	}
	if err := s.db.WithContext(ctx).Delete(standard).Error; err != nil {
		return apperrors.DatabaseError("delete performance standard", err)
	}

	s.log.Info("Performance standard deleted", map[string]interface{}{
		"standard_id": standard.ID.String(),
	})
	return nil
}

// normalizeWeight validates a weight percentage and renders it in the
// DECIMAL(5,2) wire format, e.g. "25.5" becomes "25.50".
func normalizeWeight(raw string) (string, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return "", apperrors.Validation("weight_percentage must be a decimal number")
	}
	if v <= 0 || v > 100 {
		return "", apperrors.Validation("weight_percentage must be greater than 0 and at most 100")
	}
	return strconv.FormatFloat(v, 'f', 2, 64), nil
}

// checkCategoryExists verifies the referenced activity category exists.
func (s *StandardService) checkCategoryExists(ctx context.Context, categoryID uuid.UUID) error {
	var count int64
	err := s.db.WithContext(ctx).Model(&ActivityCategory{}).
		Where("id = ?", categoryID).
		Count(&count).Error
	if err != nil {
		return apperrors.DatabaseError("check activity category", err)
	}
	if count == 0 {
		return apperrors.NotFound("Activity category not found")
	}
	return nil
}

// checkDuplicateName rejects a name already used by another non-deleted
// standard in the same category.
func (s *StandardService) checkDuplicateName(ctx context.Context, name string, categoryID, excludeID uuid.UUID) error {
	q := s.db.WithContext(ctx).Model(&PerformanceStandard{}).
		Where("category_id = ?", categoryID).
		Where("LOWER(name) = ?", strings.ToLower(name))
	if excludeID != uuid.Nil {
		q = q.Where("id <> ?", excludeID)
	}

	var count int64
	if err := q.Count(&count).Error; err != nil {
		return apperrors.DatabaseError("check performance standard name", err)
	}
	if count > 0 {
		return apperrors.AlreadyExists("Performance standard name already exists in this category")
	}
	return nil
}
