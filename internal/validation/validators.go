package validation

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"
	"github.com/nwhitfield/site-studio/internal/models"
)

var (
	// Validate is a shared validator instance
	Validate *validator.Validate
)

func init() {
	Validate = validator.New()

	// Register custom validators for enums
	// These should never fail in normal operation, but log if they do
	if err := Validate.RegisterValidation("content_type", validateContentType); err != nil {
		panic(fmt.Sprintf("failed to register content_type validator: %v", err))
	}
	if err := Validate.RegisterValidation("source_type", validateSourceType); err != nil {
		panic(fmt.Sprintf("failed to register source_type validator: %v", err))
	}
	if err := Validate.RegisterValidation("thread_status", validateThreadStatus); err != nil {
		panic(fmt.Sprintf("failed to register thread_status validator: %v", err))
	}
	if err := Validate.RegisterValidation("triage_decision", validateDecision); err != nil {
		panic(fmt.Sprintf("failed to register triage_decision validator: %v", err))
	}
	if err := Validate.RegisterValidation("board_phase", validatePhase); err != nil {
		panic(fmt.Sprintf("failed to register board_phase validator: %v", err))
	}
	if err := Validate.RegisterValidation("importance", validateImportance); err != nil {
		panic(fmt.Sprintf("failed to register importance validator: %v", err))
	}
}

func validateContentType(fl validator.FieldLevel) bool {
	return models.ContentType(fl.Field().String()).Valid()
}

func validateSourceType(fl validator.FieldLevel) bool {
	switch models.SourceType(fl.Field().String()) {
	case models.SourceTypeArticle, models.SourceTypeBook, models.SourceTypePaper,
		models.SourceTypeVideo, models.SourceTypePodcast, models.SourceTypeWebsite,
		models.SourceTypeOther:
		return true
	default:
		return false
	}
}

func validateThreadStatus(fl validator.FieldLevel) bool {
	switch models.ThreadStatus(fl.Field().String()) {
	case models.ThreadStatusActive, models.ThreadStatusPaused, models.ThreadStatusComplete:
		return true
	default:
		return false
	}
}

func validateDecision(fl validator.FieldLevel) bool {
	switch models.Decision(fl.Field().String()) {
	case models.DecisionAccepted, models.DecisionRejected, models.DecisionDeferred:
		return true
	default:
		return false
	}
}

func validatePhase(fl validator.FieldLevel) bool {
	switch models.Phase(fl.Field().String()) {
	case models.PhaseInbox, models.PhaseReview, models.PhaseDecided:
		return true
	default:
		return false
	}
}

func validateImportance(fl validator.FieldLevel) bool {
	switch models.Importance(fl.Field().String()) {
	case models.ImportanceLow, models.ImportanceMedium, models.ImportanceHigh:
		return true
	default:
		return false
	}
}

// SanitizeText sanitizes text input by trimming whitespace and removing control characters
func SanitizeText(text string) string {
	text = strings.TrimSpace(text)

	// Remove control characters except newline and tab
	var sanitized strings.Builder
	for _, r := range text {
		if unicode.IsControl(r) && r != '\n' && r != '\t' {
			continue
		}
		sanitized.WriteRune(r)
	}

	return sanitized.String()
}

// ValidateThreadStatus validates a ThreadStatus string value
func ValidateThreadStatus(value string) error {
	switch models.ThreadStatus(value) {
	case models.ThreadStatusActive, models.ThreadStatusPaused, models.ThreadStatusComplete:
		return nil
	default:
		return fmt.Errorf("invalid status: %s (must be 'active', 'paused', or 'complete')", value)
	}
}

// ValidateDecision validates a triage Decision string value. Pending is
// not accepted: a triage call must carry a verdict.
func ValidateDecision(value string) error {
	switch models.Decision(value) {
	case models.DecisionAccepted, models.DecisionRejected, models.DecisionDeferred:
		return nil
	default:
		return fmt.Errorf("invalid decision: %s (must be 'accepted', 'rejected', or 'deferred')", value)
	}
}
