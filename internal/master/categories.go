package master

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	apperrors "github.com/Arcaz22/Productivity-Tracker/internal/errors"
	"github.com/Arcaz22/Productivity-Tracker/internal/logger"
)

// CategoryService manages the activity category reference table.
type CategoryService struct {
	db  *gorm.DB
	log *logger.Logger
}

// NewCategoryService creates a CategoryService.
func NewCategoryService(db *gorm.DB, log *logger.Logger) *CategoryService {
	return &CategoryService{db: db, log: log.WithComponent("master.categories")}
}

// Add creates a new activity category. Names must be unique
// case-insensitively among non-deleted categories.
func (s *CategoryService) Add(ctx context.Context, req CategoryAddRequest, actorID string) (*ActivityCategory, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, apperrors.MissingField("name")
	}

	if err := s.checkDuplicateName(ctx, name, uuid.Nil); err != nil {
		return nil, err
	}

	category := &ActivityCategory{
		Name:     name,
		IsActive: true,
	}
	if req.IsActive != nil {
		category.IsActive = *req.IsActive
	}
	category.CreatedBy = actorID
	category.UpdatedBy = actorID

	if err := s.db.WithContext(ctx).Create(category).Error; err != nil {
		return nil, apperrors.DatabaseError("create activity category", err)
	}

	s.log.Info("Activity category created", map[string]interface{}{
		"category_id": category.ID.String(),
		"name":        category.Name,
	})
	return category, nil
}

// List returns a page of activity categories with the total count of rows
// matching the filters.
func (s *CategoryService) List(ctx context.Context, params ListParams) ([]ActivityCategory, int64, error) {
	params.ApplyDefaults()

	q := s.db.WithContext(ctx).Model(&ActivityCategory{})
	q = applyNameFilter(q, params.Filter)
	if params.IsActive != nil {
		q = q.Where("is_active = ?", *params.IsActive)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, apperrors.DatabaseError("count activity categories", err)
	}

	var categories []ActivityCategory
	err := q.Order(params.order("name")).
		Offset(params.offset()).
		Limit(params.Limit).
		Find(&categories).Error
	if err != nil {
		return nil, 0, apperrors.DatabaseError("list activity categories", err)
	}

	return categories, total, nil
}

// Get returns a single activity category by id.
func (s *CategoryService) Get(ctx context.Context, id uuid.UUID) (*ActivityCategory, error) {
	var category ActivityCategory
	err := s.db.WithContext(ctx).First(&category, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.NotFound("Activity category not found")
	}
	if err != nil {
		return nil, apperrors.DatabaseError("get activity category", err)
	}
	return &category, nil
}

// Update applies the non-nil fields of the request to the category.
func (s *CategoryService) Update(ctx context.Context, id uuid.UUID, req CategoryUpdateRequest, actorID string) (*ActivityCategory, error) {
	category, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, apperrors.MissingField("name")
		}
		if !strings.EqualFold(name, category.Name) {
			if err := s.checkDuplicateName(ctx, name, category.ID); err != nil {
				return nil, err
			}
		}
		category.Name = name
	}
	if req.IsActive != nil {
		category.IsActive = *req.IsActive
	}
	category.UpdatedBy = actorID

	if err := s.db.WithContext(ctx).Save(category).Error; err != nil {
		return nil, apperrors.DatabaseError("update activity category", err)
	}

	s.log.Info("Activity category updated", map[string]interface{}{
		"category_id": category.ID.String(),
	})
	return category, nil
}

// Delete soft-deletes the category.
func (s *CategoryService) Delete(ctx context.Context, id uuid.UUID, actorID string) error {
	category, err := s.Get(ctx, id)
	if err != nil {
		return err
	}

	category.UpdatedBy = actorID
	if err := s.db.WithContext(ctx).Save(category).Error; err != nil {
		return apperrors.DatabaseError("update activity category", err)
	}
	if err := s.db.WithContext(ctx).Delete(category).Error; err != nil {
		return apperrors.DatabaseError("delete activity category", err)
	}

	s.log.Info("Activity category deleted", map[string]interface{}{
		"category_id": category.ID.String(),
	})
	return nil
}

// checkDuplicateName rejects a name already used by another non-deleted
// category.
func (s *CategoryService) checkDuplicateName(ctx context.Context, name string, excludeID uuid.UUID) error {
	q := s.db.WithContext(ctx).Model(&ActivityCategory{}).
		Where("LOWER(name) = ?", strings.ToLower(name))
	if excludeID != uuid.Nil {
		q = q.Where("id <> ?", excludeID)
	}

	var count int64
	if err := q.Count(&count).Error; err != nil {
		return apperrors.DatabaseError("check activity category name", err)
	}
	if count > 0 {
		return apperrors.AlreadyExists("Activity category name already exists")
	}
	return nil
}
