package errors

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
)

// ErrorType represents different types of errors
type ErrorType string

const (
	ErrorTypeValidation ErrorType = "validation"
	ErrorTypeDatabase   ErrorType = "database"
	ErrorTypeExternal   ErrorType = "external_api"
	ErrorTypeInternal   ErrorType = "internal"
	ErrorTypeTimeout    ErrorType = "timeout"

	// Kinds produced at the collaborator boundary (AI, barcode).
	ErrorTypeMissingCredential ErrorType = "missing_credential"
	ErrorTypeInvalidCredential ErrorType = "invalid_credential"
	ErrorTypeTransient         ErrorType = "transient_upstream"
	ErrorTypeNotFound          ErrorType = "not_found"
	ErrorTypeSemantic          ErrorType = "semantic_rejection"
)

// AppError represents an application error with additional context
type AppError struct {
	Type     ErrorType
	Message  string
	Code     string
	Internal error
	Context  map[string]interface{}
	Source   string
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Internal != nil {
		return fmt.Sprintf("%s: %s (internal: %v)", e.Type, e.Message, e.Internal)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap returns the internal error
func (e *AppError) Unwrap() error {
	return e.Internal
}

// Is checks if the error matches the target
func (e *AppError) Is(target error) bool {
	if t, ok := target.(*AppError); ok {
		return e.Type == t.Type && e.Code == t.Code
	}
	return errors.Is(e.Internal, target)
}

// WithContext adds context to the error
func (e *AppError) WithContext(key string, value interface{}) *AppError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// LogFields returns structured logging fields
func (e *AppError) LogFields() []interface{} {
	fields := []interface{}{
		"error_type", e.Type,
		"error_code", e.Code,
		"error_message", e.Message,
		"source", e.Source,
	}

	if e.Internal != nil {
		fields = append(fields, "internal_error", e.Internal.Error())
	}

	for k, v := range e.Context {
		fields = append(fields, k, v)
	}

	return fields
}

// New creates a new AppError
func New(errorType ErrorType, code, message string) *AppError {
	_, file, line, _ := runtime.Caller(1)
	source := fmt.Sprintf("%s:%d", file, line)

	return &AppError{
		Type:    errorType,
		Code:    code,
		Message: message,
		Source:  source,
		Context: make(map[string]interface{}),
	}
}

// Wrap wraps an existing error into AppError
func Wrap(err error, errorType ErrorType, code, message string) *AppError {
	_, file, line, _ := runtime.Caller(1)
	source := fmt.Sprintf("%s:%d", file, line)

	return &AppError{
		Type:     errorType,
		Code:     code,
		Message:  message,
		Internal: err,
		Source:   source,
		Context:  make(map[string]interface{}),
	}
}

// TypeOf returns the type of the outermost AppError in the chain,
// or ErrorTypeInternal for plain errors. A nil error has no type.
func TypeOf(err error) ErrorType {
	if err == nil {
		return ""
	}
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Type
	}
	return ErrorTypeInternal
}

// IsType reports whether err carries the given type.
func IsType(err error, errorType ErrorType) bool {
	return err != nil && TypeOf(err) == errorType
}

// UserMessage returns a short message suitable for showing to the user.
func UserMessage(err error) string {
	switch TypeOf(err) {
	case "":
		return ""
	case ErrorTypeMissingCredential:
		return "No API key is set. Please add your Gemini API key in settings."
	case ErrorTypeInvalidCredential:
		return "Your API key is invalid. Please check it in settings."
	case ErrorTypeTransient, ErrorTypeExternal, ErrorTypeTimeout:
		return "The analysis service is busy right now. Please try again in a moment."
	case ErrorTypeSemantic:
		return "That doesn't look like food. Please try again."
	case ErrorTypeNotFound:
		return "Nothing was found for that."
	case ErrorTypeValidation:
		var appErr *AppError
		if errors.As(err, &appErr) {
			return appErr.Message
		}
		return "Invalid input."
	default:
		return "Something went wrong. Please try again."
	}
}

// Handler provides error handling strategies
type Handler struct {
	logger *slog.Logger
}

// NewHandler creates a new error handler
func NewHandler(logger *slog.Logger) *Handler {
	return &Handler{logger: logger}
}

// Handle processes an error according to its type
func (h *Handler) Handle(ctx context.Context, err error) {
	if err == nil {
		return
	}

	var appErr *AppError
	if errors.As(err, &appErr) {
		h.handleAppError(ctx, appErr)
	} else {
		h.handleGenericError(ctx, err)
	}
}

// handleAppError handles AppError instances
func (h *Handler) handleAppError(ctx context.Context, err *AppError) {
	switch err.Type {
	case ErrorTypeValidation, ErrorTypeNotFound, ErrorTypeSemantic:
		h.logger.InfoContext(ctx, "Rejected request", err.LogFields()...)
	case ErrorTypeMissingCredential, ErrorTypeInvalidCredential:
		h.logger.WarnContext(ctx, "Credential error", err.LogFields()...)
	case ErrorTypeTransient:
		h.logger.WarnContext(ctx, "Upstream unavailable", err.LogFields()...)
	case ErrorTypeDatabase, ErrorTypeExternal, ErrorTypeInternal, ErrorTypeTimeout:
		h.logger.ErrorContext(ctx, "Critical error", err.LogFields()...)
	default:
		h.logger.ErrorContext(ctx, "Unknown error type", err.LogFields()...)
	}
}

// handleGenericError handles generic errors
func (h *Handler) handleGenericError(ctx context.Context, err error) {
	h.logger.ErrorContext(ctx, "Unhandled error", "error", err.Error())
}

// LogAndReturn logs an error and returns it
func (h *Handler) LogAndReturn(ctx context.Context, err error) error {
	h.Handle(ctx, err)
	return err
}

// Predefined errors
var (
	ErrInvalidInput      = New(ErrorTypeValidation, "INVALID_INPUT", "Invalid input provided")
	ErrDatabaseError     = New(ErrorTypeDatabase, "DB_ERROR", "Database operation failed")
	ErrExternalAPI       = New(ErrorTypeExternal, "EXTERNAL_API", "External API error")
	ErrTimeout           = New(ErrorTypeTimeout, "TIMEOUT", "Operation timed out")
	ErrInternalServer    = New(ErrorTypeInternal, "INTERNAL", "Internal server error")
	ErrMissingAPIKey     = New(ErrorTypeMissingCredential, "MISSING_API_KEY", "API key is missing")
	ErrInvalidAPIKey     = New(ErrorTypeInvalidCredential, "INVALID_API_KEY", "API key is invalid")
	ErrNotFood           = New(ErrorTypeSemantic, "NOT_FOOD", "Content is not food")
	ErrProductNotFound   = New(ErrorTypeNotFound, "PRODUCT_NOT_FOUND", "No product found for barcode")
	ErrAllModelsFailed   = New(ErrorTypeExternal, "ALL_MODELS_FAILED", "All models failed")
	ErrUpstreamOverload  = New(ErrorTypeTransient, "UPSTREAM_BUSY", "Upstream service is overloaded")
	ErrModelNotAvailable = New(ErrorTypeNotFound, "MODEL_NOT_FOUND", "Model not found or unsupported")
)

// Convenience functions for common errors
func NewValidationError(message string) *AppError {
	return New(ErrorTypeValidation, "VALIDATION", message)
}

func NewDatabaseError(err error) *AppError {
	return Wrap(err, ErrorTypeDatabase, "DB_ERROR", "Database operation failed")
}

func NewExternalAPIError(err error, api string) *AppError {
	return Wrap(err, ErrorTypeExternal, "EXTERNAL_API", fmt.Sprintf("%s API error", api)).
		WithContext("api", api)
}

func NewTimeoutError(operation string) *AppError {
	return New(ErrorTypeTimeout, "TIMEOUT", fmt.Sprintf("%s operation timed out", operation)).
		WithContext("operation", operation)
}

func NewInternalError(err error) *AppError {
	return Wrap(err, ErrorTypeInternal, "INTERNAL", "Internal server error")
}

// Derive returns a fresh error carrying the predefined error's type and code,
// wrapping cause. errors.Is(Derive(ErrNotFood, x), ErrNotFood) holds.
func Derive(base *AppError, cause error) *AppError {
	_, file, line, _ := runtime.Caller(1)
	return &AppError{
		Type:     base.Type,
		Code:     base.Code,
		Message:  base.Message,
		Internal: cause,
		Source:   fmt.Sprintf("%s:%d", file, line),
		Context:  make(map[string]interface{}),
	}
}
