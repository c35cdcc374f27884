package master

import (
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// RegisterValidations installs the cross-field rules Gin's binding layer
// cannot express with tags alone. Call once at startup.
func RegisterValidations() {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return
	}
	v.RegisterStructValidation(standardAddStructLevel, StandardAddRequest{})
	v.RegisterStructValidation(standardUpdateStructLevel, StandardUpdateRequest{})
}

// System-scored standards are meaningless without scoring rules.
func standardAddStructLevel(sl validator.StructLevel) {
	req := sl.Current().Interface().(StandardAddRequest)
	if req.EvaluationMethod == EvaluationMethodSystem && len(req.ScoringRules) == 0 {
		sl.ReportError(req.ScoringRules, "scoring_rules", "ScoringRules", "required_for_system_scoring", "")
	}
}

func standardUpdateStructLevel(sl validator.StructLevel) {
	req := sl.Current().Interface().(StandardUpdateRequest)
	if req.EvaluationMethod != nil && *req.EvaluationMethod == EvaluationMethodSystem && req.ScoringRules != nil && len(req.ScoringRules) == 0 {
		sl.ReportError(req.ScoringRules, "scoring_rules", "ScoringRules", "required_for_system_scoring", "")
	}
}
