package domain

import (
	"errors"
	"fmt"
)

// DomainError represents a domain-specific error
type DomainError struct {
	Code    string
	Message string
	Err     error
}

// Error implements the error interface
func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error
func (e *DomainError) Unwrap() error {
	return e.Err
}

// NewDomainError creates a new DomainError
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
		Err:     nil,
	}
}

// NewDomainErrorWithCause creates a new DomainError with an underlying cause
func NewDomainErrorWithCause(code, message string, err error) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// Common domain error codes
const (
	ErrCodeValidation      = "VALIDATION_ERROR"
	ErrCodeNotFound        = "NOT_FOUND"
	ErrCodeAlreadyExists   = "ALREADY_EXISTS"
	ErrCodeConflict        = "CONFLICT"
	ErrCodeMalformedOutput = "MALFORMED_OUTPUT"
	ErrCodeConfiguration   = "CONFIGURATION_ERROR"
	ErrCodeGateway         = "GATEWAY_ERROR"
	ErrCodeInternalError   = "INTERNAL_ERROR"
)

// Validation errors
var (
	ErrMissingRequiredField  = NewDomainError(ErrCodeValidation, "missing required field")
	ErrInvalidField          = NewDomainError(ErrCodeValidation, "invalid field value")
	ErrUnresolvedPlaceholder = NewDomainError(ErrCodeValidation, "unresolved prompt placeholder")
	ErrInvalidLimit          = NewDomainError(ErrCodeValidation, "limit must be a positive integer")
	ErrInvalidStudy          = NewDomainError(ErrCodeValidation, "invalid study record")
)

// Not found errors
var (
	ErrStudyNotFound  = NewDomainError(ErrCodeNotFound, "study not found")
	ErrRecipeNotFound = NewDomainError(ErrCodeNotFound, "recipe not found")
	ErrFileNotFound   = NewDomainError(ErrCodeNotFound, "source file not found")
)

// Already exists errors
var (
	ErrResultAlreadyExists = NewDomainError(ErrCodeAlreadyExists, "study already screened with this recipe")
	ErrFileAlreadyImported = NewDomainError(ErrCodeAlreadyExists, "file already imported")
)

// Conflict errors
var (
	ErrRecipeNameConflict = NewDomainError(ErrCodeConflict, "recipe filename already registered with different content")
)

// Malformed model output errors
var (
	ErrNoJSONObject    = NewDomainError(ErrCodeMalformedOutput, "no JSON object found in model output")
	ErrInvalidJSON     = NewDomainError(ErrCodeMalformedOutput, "model output contains invalid JSON")
	ErrInvalidVerdict  = NewDomainError(ErrCodeMalformedOutput, "verdict must be 0 or 1")
	ErrInvalidReason   = NewDomainError(ErrCodeMalformedOutput, "reason must be a string")
	ErrEmptyCompletion = NewDomainError(ErrCodeMalformedOutput, "model returned no completion")
)

// Configuration errors
var (
	ErrMissingCredentials   = NewDomainError(ErrCodeConfiguration, "missing model credentials")
	ErrUnsupportedProvider  = NewDomainError(ErrCodeConfiguration, "unsupported model provider")
	ErrUnsupportedFormat    = NewDomainError(ErrCodeConfiguration, "unsupported file format")
	ErrInvalidRecipe        = NewDomainError(ErrCodeConfiguration, "invalid recipe")
	ErrStorageNotConfigured = NewDomainError(ErrCodeConfiguration, "object storage not configured")
)

// Gateway errors
var (
	ErrGatewayCall = NewDomainError(ErrCodeGateway, "model call failed")
)

// CodeOf returns the code of the first DomainError in err's chain, or
// ErrCodeInternalError when there is none.
func CodeOf(err error) string {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Code
	}
	return ErrCodeInternalError
}

// IsMalformedOutput reports whether err stems from model output that could
// not be parsed into a verdict.
func IsMalformedOutput(err error) bool {
	return err != nil && CodeOf(err) == ErrCodeMalformedOutput
}
