package master

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/Arcaz22/Productivity-Tracker/internal/auth"
	apperrors "github.com/Arcaz22/Productivity-Tracker/internal/errors"
	"github.com/Arcaz22/Productivity-Tracker/internal/server"
)

// Handler exposes the reference CRUD endpoints.
type Handler struct {
	categories *CategoryService
	standards  *StandardService
}

// NewHandler creates a Handler.
func NewHandler(categories *CategoryService, standards *StandardService) *Handler {
	return &Handler{categories: categories, standards: standards}
}

// AddCategory handles POST /activity_categories/add.
func (h *Handler) AddCategory(c *gin.Context) {
	var req CategoryAddRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		server.RespondWithError(c, apperrors.Validation(err.Error()))
		return
	}

	category, err := h.categories.Add(c.Request.Context(), req, actorID(c))
	if err != nil {
		server.RespondWithError(c, err)
		return
	}
	server.RespondCreated(c, "Activity category created successfully", toCategoryResponse(category))
}

// ListCategories handles GET /activity_categories/list.
func (h *Handler) ListCategories(c *gin.Context) {
	var params ListParams
	if err := c.ShouldBindQuery(&params); err != nil {
		server.RespondWithError(c, apperrors.Validation(err.Error()))
		return
	}
	params.ApplyDefaults()

	categories, total, err := h.categories.List(c.Request.Context(), params)
	if err != nil {
		server.RespondWithError(c, err)
		return
	}
	server.RespondPaginated(c, "Activity categories retrieved successfully", toCategoryResponses(categories), &server.Meta{
		Page:          params.Page,
		Limit:         params.Limit,
		Total:         total,
		FilterApplied: params.FilterApplied(),
	})
}

// UpdateCategory handles PUT /activity_categories/:id.
func (h *Handler) UpdateCategory(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	var req CategoryUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		server.RespondWithError(c, apperrors.Validation(err.Error()))
		return
	}

	category, err := h.categories.Update(c.Request.Context(), id, req, actorID(c))
	if err != nil {
		server.RespondWithError(c, err)
		return
	}
	server.RespondOK(c, "Activity category updated successfully", toCategoryResponse(category))
}

// DeleteCategory handles DELETE /activity_categories/:id.
func (h *Handler) DeleteCategory(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	if err := h.categories.Delete(c.Request.Context(), id, actorID(c)); err != nil {
		server.RespondWithError(c, err)
		return
	}
	server.RespondOK(c, "Activity category deleted successfully", nil)
}

// AddStandard handles POST /performance_standards/add.
func (h *Handler) AddStandard(c *gin.Context) {
	var req StandardAddRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		server.RespondWithError(c, apperrors.Validation(err.Error()))
		return
	}

	standard, err := h.standards.Add(c.Request.Context(), req, actorID(c))
	if err != nil {
		server.RespondWithError(c, err)
		return
	}
	server.RespondCreated(c, "Performance standard created successfully", toStandardResponse(standard))
}

// ListStandards handles GET /performance_standards/list.
func (h *Handler) ListStandards(c *gin.Context) {
	var params ListParams
	if err := c.ShouldBindQuery(&params); err != nil {
		server.RespondWithError(c, apperrors.Validation(err.Error()))
		return
	}
	if raw := c.Query("category_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			server.RespondWithError(c, apperrors.Validation("Invalid category_id: must be a UUID"))
			return
		}
		params.CategoryID = &id
	}
	params.ApplyDefaults()

	standards, total, err := h.standards.List(c.Request.Context(), params)
	if err != nil {
		server.RespondWithError(c, err)
		return
	}
	server.RespondPaginated(c, "Performance standards retrieved successfully", toStandardResponses(standards), &server.Meta{
		Page:          params.Page,
		Limit:         params.Limit,
		Total:         total,
		FilterApplied: params.FilterApplied(),
	})
}

// UpdateStandard handles PUT /performance_standards/:id.
func (h *Handler) UpdateStandard(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	var req StandardUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		server.RespondWithError(c, apperrors.Validation(err.Error()))
		return
	}

	standard, err := h.standards.Update(c.Request.Context(), id, req, actorID(c))
	if err != nil {
		server.RespondWithError(c, err)
		return
	}
	server.RespondOK(c, "Performance standard updated successfully", toStandardResponse(standard))
}

// DeleteStandard handles DELETE /performance_standards/:id.
func (h *Handler) DeleteStandard(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	if err := h.standards.Delete(c.Request.Context(), id, actorID(c)); err != nil {
		server.RespondWithError(c, err)
		return
	}
	server.RespondOK(c, "Performance standard deleted successfully", nil)
}

func pathID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		server.RespondWithError(c, apperrors.Validation("Invalid id: must be a UUID"))
		return uuid.Nil, false
	}
	return id, true
}

func actorID(c *gin.Context) string {
	if identity, ok := auth.CurrentIdentity(c); ok {
		return identity.Subject
	}
	return ""
}
