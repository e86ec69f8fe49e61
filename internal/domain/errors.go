package domain

import (
	"errors"
	"fmt"
	"time"
)

// AppError represents a standardized error response
type AppError struct {
	Code      string    `json:"code"`
	Message   string    `json:"message"`
	Details   string    `json:"details,omitempty"`
	Timestamp time.Time `json:"timestamp"`
	RequestID string    `json:"request_id"`
}

// Error implements the error interface
func (e *AppError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Error codes for different failure scenarios
const (
	ErrInvalidInput   = "INVALID_INPUT"
	ErrInvalidShape   = "INVALID_SHAPE"
	ErrInvalidSetting = "INVALID_SETTING"
	ErrNotFound       = "NOT_FOUND"
	ErrRateLimit      = "RATE_LIMIT_EXCEEDED"
	ErrInternalServer = "INTERNAL_SERVER_ERROR"
	ErrValidation     = "VALIDATION_ERROR"
)

// NewAppError creates a new AppError with timestamp
func NewAppError(code, message, details, requestID string) *AppError {
	return &AppError{
		Code:      code,
		Message:   message,
		Details:   details,
		Timestamp: time.Now().UTC(),
		RequestID: requestID,
	}
}

// ValidationError represents input validation errors
type ValidationError struct {
	Field   string      `json:"field"`
	Message string      `json:"message"`
	Value   interface{} `json:"value"`
}

// Error implements the error interface
func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error for field '%s': %s", e.Field, e.Message)
}

// NewValidationError creates a new ValidationError
func NewValidationError(field, message string, value interface{}) *ValidationError {
	return &ValidationError{
		Field:   field,
		Message: message,
		Value:   value,
	}
}

// ShapeError reports a probbase or record whose dimensions do not match the
// instrument.
type ShapeError struct {
	Subject  string
	WantRows int
	WantCols int
	GotRows  int
	GotCols  int
}

func (e *ShapeError) Error() string {
	if e.WantRows == 0 {
		return fmt.Sprintf("invalid %s shape: want %d values, got %d", e.Subject, e.WantCols, e.GotCols)
	}
	return fmt.Sprintf("invalid %s shape: want %dx%d, got %dx%d",
		e.Subject, e.WantRows, e.WantCols, e.GotRows, e.GotCols)
}

// GradeError reports a probbase cell holding an unknown symbolic grade.
type GradeError struct {
	Row    int
	Col    int
	Symbol string
}

func (e *GradeError) Error() string {
	return fmt.Sprintf("invalid probbase grade %q at row %d column %d", e.Symbol, e.Row, e.Col)
}

// InvalidSettingError reports a prevalence setting outside h, l, v.
type InvalidSettingError struct {
	Setting string
	Value   string
}

func (e *InvalidSettingError) Error() string {
	return fmt.Sprintf("invalid %s prevalence %q: should be one of 'h', 'l', 'v'", e.Setting, e.Value)
}

// NewInvalidSettingError creates an InvalidSettingError
func NewInvalidSettingError(setting, value string) *InvalidSettingError {
	return &InvalidSettingError{Setting: setting, Value: value}
}

// ExclusionReason explains why a record never reached inference.
type ExclusionReason string

const (
	ExcludedNoAge      ExclusionReason = "Error in age indicator: Not Specified"
	ExcludedNoSex      ExclusionReason = "Error in sex indicator: Not Specified"
	ExcludedNoSymptoms ExclusionReason = "Error in indicators: No symptoms specified"
)

// ExcludedError marks a record skipped for missing mandatory data. It is not
// a run failure.
type ExcludedError struct {
	RecordID string
	Reason   ExclusionReason
}

func (e *ExcludedError) Error() string {
	return fmt.Sprintf("%s %s", e.RecordID, e.Reason)
}

// IsExcluded reports whether err is (or wraps) an ExcludedError.
func IsExcluded(err error) bool {
	var excluded *ExcludedError
	return errors.As(err, &excluded)
}
