// File: research_copilot_go_backend/internal/errors/errorHandlers.go

package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

// ErrorType is the stable, machine-readable code sent to clients.
type ErrorType string

const (
	ErrorTypeBadRequest          ErrorType = "BAD_REQUEST"
	ErrorTypeMissingFile         ErrorType = "MISSING_FILE"
	ErrorTypeInvalidFileType     ErrorType = "INVALID_FILE_TYPE"
	ErrorTypeFileTooLarge        ErrorType = "FILE_TOO_LARGE"
	ErrorTypeEmptyDocument       ErrorType = "EMPTY_DOCUMENT"
	ErrorTypeExtraction          ErrorType = "EXTRACTION_FAILED"
	ErrorTypeSummarization       ErrorType = "SUMMARIZATION_FAILED"
	ErrorTypeAIResponseFormat    ErrorType = "AI_RESPONSE_FORMAT"
	ErrorTypeMissingSummary      ErrorType = "MISSING_SUMMARY"
	ErrorTypePersistence         ErrorType = "PERSISTENCE_FAILED"
	ErrorTypeNotFound            ErrorType = "NOT_FOUND"
	ErrorTypeRateLimited         ErrorType = "RATE_LIMITED"
	ErrorTypeInternalServerError ErrorType = "INTERNAL_SERVER_ERROR"
)

// CustomError represents a custom error with associated HTTP status code and type
type CustomError struct {
	Type       ErrorType
	Message    string
	StatusCode int
	Internal   error
}

// Error implements the error interface
func (e *CustomError) Error() string {
	if e.Internal != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Internal)
	}
	return e.Message
}

func (e *CustomError) Unwrap() error {
	return e.Internal
}

func newError(errType ErrorType, message string, statusCode int, internal error) *CustomError {
	return &CustomError{
		Type:       errType,
		Message:    message,
		StatusCode: statusCode,
		Internal:   internal,
	}
}

// New400Error creates a generic bad request error
func New400Error(message string) *CustomError {
	return newError(ErrorTypeBadRequest, message, http.StatusBadRequest, nil)
}

// New404Error creates a new not found error
func New404Error(message string) *CustomError {
	return newError(ErrorTypeNotFound, message, http.StatusNotFound, nil)
}

// New500Error creates a new internal server error
func New500Error(internal error) *CustomError {
	return newError(ErrorTypeInternalServerError, "An unexpected error occurred", http.StatusInternalServerError, internal)
}

func NewMissingFileError(message string) *CustomError {
	return newError(ErrorTypeMissingFile, message, http.StatusBadRequest, nil)
}

func NewInvalidFileTypeError(contentType string) *CustomError {
	return newError(ErrorTypeInvalidFileType, fmt.Sprintf("Only PDF files are allowed (got %q)", contentType), http.StatusBadRequest, nil)
}

func NewFileTooLargeError(limitBytes int64) *CustomError {
	return newError(ErrorTypeFileTooLarge, fmt.Sprintf("File exceeds the %d MB upload limit", limitBytes/(1024*1024)), http.StatusRequestEntityTooLarge, nil)
}

func NewEmptyDocumentError() *CustomError {
	return newError(ErrorTypeEmptyDocument, "Could not extract text from PDF", http.StatusBadRequest, nil)
}

func NewExtractionError(internal error) *CustomError {
	return newError(ErrorTypeExtraction, "Failed to extract text from PDF", http.StatusInternalServerError, internal)
}

func NewSummarizationError(internal error) *CustomError {
	return newError(ErrorTypeSummarization, "Failed to summarize paper", http.StatusInternalServerError, internal)
}

func NewAIResponseFormatError(internal error) *CustomError {
	return newError(ErrorTypeAIResponseFormat, "AI response did not contain valid JSON", http.StatusInternalServerError, internal)
}

func NewMissingSummaryError() *CustomError {
	return newError(ErrorTypeMissingSummary, "AI response missing required 'summary' field", http.StatusInternalServerError, nil)
}

func NewPersistenceError(internal error) *CustomError {
	return newError(ErrorTypePersistence, "Failed to save paper", http.StatusInternalServerError, internal)
}

func NewRateLimitedError() *CustomError {
	return newError(ErrorTypeRateLimited, "Rate limit exceeded", http.StatusTooManyRequests, nil)
}

// TypeOf returns the ErrorType carried anywhere in err's chain, or
// ErrorTypeInternalServerError for untyped errors.
func TypeOf(err error) ErrorType {
	var customErr *CustomError
	if stderrors.As(err, &customErr) {
		return customErr.Type
	}
	return ErrorTypeInternalServerError
}

// HandleError handles the custom error and sends an appropriate JSON response
func HandleError(c *gin.Context, err error) {
	var customErr *CustomError
	if !stderrors.As(err, &customErr) {
		customErr = New500Error(err)
	}

	body := gin.H{
		"error": customErr.Message,
		"code":  customErr.Type,
	}

	if customErr.StatusCode >= http.StatusInternalServerError {
		log.Error().
			Err(customErr.Internal).
			Str("type", string(customErr.Type)).
			Str("url", c.Request.URL.String()).
			Str("request_id", c.GetString("request_id")).
			Msg("Internal Server Error")
		if customErr.Internal != nil {
			body["details"] = customErr.Internal.Error()
		}
	}

	c.AbortWithStatusJSON(customErr.StatusCode, body)
}
