package master

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/Arcaz22/Productivity-Tracker/internal/database"
	apperrors "github.com/Arcaz22/Productivity-Tracker/internal/errors"
	"github.com/Arcaz22/Productivity-Tracker/internal/logger"
)

func testDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := database.OpenWithDialector(
		context.Background(),
		sqlite.Open("file::memory:?cache=shared&_pragma=foreign_keys(1)"),
		database.Config{DSN: "memory", LogLevel: "silent", MaxRetries: 1},
		logger.NewDefault("test"),
	)
	if err != nil {
		t.Fatalf("open test database: %v", err)
	}
	if err := db.AutoMigrate(&ActivityCategory{}, &PerformanceStandard{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	t.Cleanup(func() {
		db.Exec("DELETE FROM ref_performance_standards")
		db.Exec("DELETE FROM ref_activity_categories")
	})
	return db
}

func wantCode(t *testing.T, err error, code apperrors.ErrorCode) {
	t.Helper()
	appErr, ok := apperrors.AsAppError(err)
	if !ok {
		t.Fatalf("error type = %T (%v), want *AppError", err, err)
	}
	if appErr.Code != code {
		t.Errorf("code = %s, want %s", appErr.Code, code)
	}
}

func boolPtr(b bool) *bool    { return &b }
func strPtr(s string) *string { return &s }

func TestCategoryAdd(t *testing.T) {
	svc := NewCategoryService(testDB(t), logger.NewDefault("test"))

	category, err := svc.Add(context.Background(), CategoryAddRequest{Name: "Development"}, "actor-1")
	if err != nil {
		t.Fatalf("Add() error = %v", err)
	}
	if category.ID == uuid.Nil {
		t.Error("missing generated id")
	}
	if !category.IsActive {
		t.Error("categories default to active")
	}
	if category.CreatedBy != "actor-1" {
		t.Errorf("created_by = %q", category.CreatedBy)
	}
}

func TestCategoryAddDuplicateName(t *testing.T) {
	svc := NewCategoryService(testDB(t), logger.NewDefault("test"))

	if _, err := svc.Add(context.Background(), CategoryAddRequest{Name: "Development"}, "a"); err != nil {
		t.Fatalf("Add() error = %v", err)
	}

	// Duplicate detection is case-insensitive.
	_, err := svc.Add(context.Background(), CategoryAddRequest{Name: "DEVELOPMENT"}, "a")
	wantCode(t, err, apperrors.ErrCodeAlreadyExists)

	appErr, _ := apperrors.AsAppError(err)
	if appErr.HTTPStatus != 400 {
		t.Errorf("status = %d, want 400", appErr.HTTPStatus)
	}
}

func TestCategoryAddBlankName(t *testing.T) {
	svc := NewCategoryService(testDB(t), logger.NewDefault("test"))

	_, err := svc.Add(context.Background(), CategoryAddRequest{Name: "   "}, "a")
	wantCode(t, err, apperrors.ErrCodeMissingField)
}

func TestCategoryListPaginationAndFilter(t *testing.T) {
	svc := NewCategoryService(testDB(t), logger.NewDefault("test"))

	for _, name := range []string{"Design", "Development", "Testing", "Deployment"} {
		if _, err := svc.Add(context.Background(), CategoryAddRequest{Name: name}, "a"); err != nil {
			t.Fatalf("Add(%s) error = %v", name, err)
		}
	}

	categories, total, err := svc.List(context.Background(), ListParams{Page: 1, Limit: 2, Filter: "de"})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	// Design, Development, Deployment match "de"; page holds two.
	if total != 3 {
		t.Errorf("total = %d, want 3", total)
	}
	if len(categories) != 2 {
		t.Errorf("page size = %d, want 2", len(categories))
	}
	// Ascending name order by default.
	if categories[0].Name != "Deployment" {
		t.Errorf("first = %q, want Deployment", categories[0].Name)
	}
}

func TestCategoryListIsActiveFilter(t *testing.T) {
	svc := NewCategoryService(testDB(t), logger.NewDefault("test"))

	if _, err := svc.Add(context.Background(), CategoryAddRequest{Name: "Active"}, "a"); err != nil {
		t.Fatal(err)
	}
	inactive := false
	if _, err := svc.Add(context.Background(), CategoryAddRequest{Name: "Retired", IsActive: &inactive}, "a"); err != nil {
		t.Fatal(err)
	}

	categories, total, err := svc.List(context.Background(), ListParams{IsActive: boolPtr(true)})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if total != 1 || len(categories) != 1 || categories[0].Name != "Active" {
		t.Errorf("got %d/%d rows, want only the active category", len(categories), total)
	}
}

func TestCategoryUpdate(t *testing.T) {
	svc := NewCategoryService(testDB(t), logger.NewDefault("test"))

	category, err := svc.Add(context.Background(), CategoryAddRequest{Name: "Development"}, "a")
	if err != nil {
		t.Fatal(err)
	}

	updated, err := svc.Update(context.Background(), category.ID, CategoryUpdateRequest{
		Name:     strPtr("Engineering"),
		IsActive: boolPtr(false),
	}, "actor-2")
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if updated.Name != "Engineering" || updated.IsActive {
		t.Errorf("updated = %+v", updated)
	}
	if updated.UpdatedBy != "actor-2" {
		t.Errorf("updated_by = %q", updated.UpdatedBy)
	}

	// Renaming to its own name (different case) is not a duplicate.
	if _, err := svc.Update(context.Background(), category.ID, CategoryUpdateRequest{Name: strPtr("ENGINEERING")}, "a"); err != nil {
		t.Errorf("self-rename error = %v", err)
	}
}

func TestCategoryUpdateDuplicateName(t *testing.T) {
	svc := NewCategoryService(testDB(t), logger.NewDefault("test"))

	if _, err := svc.Add(context.Background(), CategoryAddRequest{Name: "Design"}, "a"); err != nil {
		t.Fatal(err)
	}
	category, err := svc.Add(context.Background(), CategoryAddRequest{Name: "Development"}, "a")
	if err != nil {
		t.Fatal(err)
	}

	_, err = svc.Update(context.Background(), category.ID, CategoryUpdateRequest{Name: strPtr("design")}, "a")
	wantCode(t, err, apperrors.ErrCodeAlreadyExists)
}

func TestCategoryUpdateNotFound(t *testing.T) {
	svc := NewCategoryService(testDB(t), logger.NewDefault("test"))

	_, err := svc.Update(context.Background(), uuid.New(), CategoryUpdateRequest{Name: strPtr("X")}, "a")
	wantCode(t, err, apperrors.ErrCodeNotFound)
}

func TestCategoryDeleteIsSoft(t *testing.T) {
	db := testDB(t)
	svc := NewCategoryService(db, logger.NewDefault("test"))

	category, err := svc.Add(context.Background(), CategoryAddRequest{Name: "Development"}, "a")
	if err != nil {
		t.Fatal(err)
	}
	if err := svc.Delete(context.Background(), category.ID, "a"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}

	if _, err := svc.Get(context.Background(), category.ID); err == nil {
		t.Error("deleted category still visible")
	}

	// The row survives with deleted_at set.
	var count int64
	db.Unscoped().Model(&ActivityCategory{}).Where("id = ?", category.ID).Count(&count)
	if count != 1 {
		t.Errorf("unscoped count = %d, want 1", count)
	}

	// The name becomes reusable after deletion.
	if _, err := svc.Add(context.Background(), CategoryAddRequest{Name: "Development"}, "a"); err != nil {
		t.Errorf("re-adding deleted name: %v", err)
	}
}

func TestStandardAdd(t *testing.T) {
	db := testDB(t)
	categories := NewCategoryService(db, logger.NewDefault("test"))
	standards := NewStandardService(db, logger.NewDefault("test"))

	category, err := categories.Add(context.Background(), CategoryAddRequest{Name: "Development"}, "a")
	if err != nil {
		t.Fatal(err)
	}

	standard, err := standards.Add(context.Background(), StandardAddRequest{
		CategoryID:       category.ID,
		Name:             "Code review turnaround",
		EvaluationMethod: EvaluationMethodSystem,
		ScoringRules:     map[string]interface{}{"max_hours": 24.0},
		WeightPercentage: "25.5",
	}, "actor-1")
	if err != nil {
		t.Fatalf("Add() error = %v", err)
	}
	if standard.ID == uuid.Nil {
		t.Error("missing generated id")
	}
	// Weights are stored in the two-decimal column format.
	if standard.WeightPercentage != "25.50" {
		t.Errorf("weight = %q, want 25.50", standard.WeightPercentage)
	}

	// Scoring rules survive the JSON round trip through the database.
	loaded, err := standards.Get(context.Background(), standard.ID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if loaded.ScoringRules["max_hours"] != 24.0 {
		t.Errorf("scoring_rules = %v", loaded.ScoringRules)
	}
}

func TestStandardAddInvalidWeight(t *testing.T) {
	db := testDB(t)
	categories := NewCategoryService(db, logger.NewDefault("test"))
	standards := NewStandardService(db, logger.NewDefault("test"))

	category, err := categories.Add(context.Background(), CategoryAddRequest{Name: "A"}, "a")
	if err != nil {
		t.Fatal(err)
	}

	for _, weight := range []string{"abc", "0", "-5", "100.01", ""} {
		_, err := standards.Add(context.Background(), StandardAddRequest{
			CategoryID:       category.ID,
			Name:             "Velocity",
			EvaluationMethod: EvaluationMethodManual,
			WeightPercentage: weight,
		}, "a")
		wantCode(t, err, apperrors.ErrCodeInvalidInput)
	}
}

func TestStandardAddUnknownCategory(t *testing.T) {
	standards := NewStandardService(testDB(t), logger.NewDefault("test"))

	_, err := standards.Add(context.Background(), StandardAddRequest{
		CategoryID:       uuid.New(),
		Name:             "Orphan",
		EvaluationMethod: EvaluationMethodManual,
		WeightPercentage: "10",
	}, "a")
	wantCode(t, err, apperrors.ErrCodeNotFound)
}

func TestStandardAddDuplicateInCategory(t *testing.T) {
	db := testDB(t)
	categories := NewCategoryService(db, logger.NewDefault("test"))
	standards := NewStandardService(db, logger.NewDefault("test"))

	catA, err := categories.Add(context.Background(), CategoryAddRequest{Name: "A"}, "a")
	if err != nil {
		t.Fatal(err)
	}
	catB, err := categories.Add(context.Background(), CategoryAddRequest{Name: "B"}, "a")
	if err != nil {
		t.Fatal(err)
	}

	req := StandardAddRequest{
		CategoryID:       catA.ID,
		Name:             "Velocity",
		EvaluationMethod: EvaluationMethodManual,
		WeightPercentage: "10",
	}
	if _, err := standards.Add(context.Background(), req, "a"); err != nil {
		t.Fatal(err)
	}

	_, err = standards.Add(context.Background(), req, "a")
	wantCode(t, err, apperrors.ErrCodeAlreadyExists)

	// The same name under another category is fine.
	req.CategoryID = catB.ID
	if _, err := standards.Add(context.Background(), req, "a"); err != nil {
		t.Errorf("same name in other category: %v", err)
	}
}

func TestStandardListByCategory(t *testing.T) {
	db := testDB(t)
	categories := NewCategoryService(db, logger.NewDefault("test"))
	standards := NewStandardService(db, logger.NewDefault("test"))

	catA, _ := categories.Add(context.Background(), CategoryAddRequest{Name: "A"}, "a")
	catB, _ := categories.Add(context.Background(), CategoryAddRequest{Name: "B"}, "a")

	for _, spec := range []struct {
		cat  uuid.UUID
		name string
	}{
		{catA.ID, "Velocity"},
		{catA.ID, "Quality"},
		{catB.ID, "Uptime"},
	} {
		_, err := standards.Add(context.Background(), StandardAddRequest{
			CategoryID:       spec.cat,
			Name:             spec.name,
			EvaluationMethod: EvaluationMethodManual,
			WeightPercentage: "10",
		}, "a")
		if err != nil {
			t.Fatal(err)
		}
	}

	rows, total, err := standards.List(context.Background(), ListParams{CategoryID: &catA.ID})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if total != 2 || len(rows) != 2 {
		t.Errorf("got %d/%d rows, want 2", len(rows), total)
	}
}

func TestStandardUpdate(t *testing.T) {
	db := testDB(t)
	categories := NewCategoryService(db, logger.NewDefault("test"))
	standards := NewStandardService(db, logger.NewDefault("test"))

	category, _ := categories.Add(context.Background(), CategoryAddRequest{Name: "A"}, "a")
	standard, err := standards.Add(context.Background(), StandardAddRequest{
		CategoryID:       category.ID,
		Name:             "Velocity",
		EvaluationMethod: EvaluationMethodManual,
		WeightPercentage: "10",
	}, "a")
	if err != nil {
		t.Fatal(err)
	}

	method := EvaluationMethodSystem
	updated, err := standards.Update(context.Background(), standard.ID, StandardUpdateRequest{
		EvaluationMethod: &method,
		WeightPercentage: strPtr("42"),
		ScoringRules:     map[string]interface{}{"threshold": 0.8},
	}, "actor-2")
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if updated.EvaluationMethod != EvaluationMethodSystem {
		t.Errorf("method = %s", updated.EvaluationMethod)
	}
	if updated.WeightPercentage != "42.00" {
		t.Errorf("weight = %q, want 42.00", updated.WeightPercentage)
	}

	// An out-of-range weight leaves the standard untouched.
	_, err = standards.Update(context.Background(), standard.ID, StandardUpdateRequest{WeightPercentage: strPtr("120")}, "a")
	wantCode(t, err, apperrors.ErrCodeInvalidInput)

	// Moving to a nonexistent category is rejected.
	ghost := uuid.New()
	_, err = standards.Update(context.Background(), standard.ID, StandardUpdateRequest{CategoryID: &ghost}, "a")
	wantCode(t, err, apperrors.ErrCodeNotFound)
}

func TestStandardDelete(t *testing.T) {
	db := testDB(t)
	categories := NewCategoryService(db, logger.NewDefault("test"))
	standards := NewStandardService(db, logger.NewDefault("test"))

	category, _ := categories.Add(context.Background(), CategoryAddRequest{Name: "A"}, "a")
	standard, err := standards.Add(context.Background(), StandardAddRequest{
		CategoryID:       category.ID,
		Name:             "Velocity",
		EvaluationMethod: EvaluationMethodManual,
		WeightPercentage: "10",
	}, "a")
	if err != nil {
		t.Fatal(err)
	}

	if err := standards.Delete(context.Background(), standard.ID, "a"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}

	_, _, listErr := standards.List(context.Background(), ListParams{})
	if listErr != nil {
		t.Fatal(listErr)
	}
	if _, err := standards.Get(context.Background(), standard.ID); err == nil {
		t.Error("deleted standard still visible")
	}
}
