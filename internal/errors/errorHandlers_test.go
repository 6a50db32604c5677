package errors

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTypeOf_FindsWrappedCustomError(t *testing.T) {
	err := fmt.Errorf("pipeline: %w", NewEmptyDocumentError())

	assert.Equal(t, ErrorTypeEmptyDocument, TypeOf(err))
	assert.Equal(t, ErrorTypeInternalServerError, TypeOf(stderrors.New("plain")))
}

func TestCustomError_UnwrapExposesCause(t *testing.T) {
	cause := stderrors.New("connection refused")
	err := NewPersistenceError(cause)

	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "connection refused")
}

func TestHandleError(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name        string
		err         error
		wantStatus  int
		wantCode    ErrorType
		wantDetails bool
	}{
		{"not found", New404Error("Paper not found"), http.StatusNotFound, ErrorTypeNotFound, false},
		{"client fault", NewMissingFileError("No file uploaded"), http.StatusBadRequest, ErrorTypeMissingFile, false},
		{"collaborator fault", NewExtractionError(stderrors.New("malformed xref")), http.StatusInternalServerError, ErrorTypeExtraction, true},
		{"untyped", stderrors.New("boom"), http.StatusInternalServerError, ErrorTypeInternalServerError, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(rec)
			c.Request = httptest.NewRequest(http.MethodGet, "/api/papers/x", nil)

			HandleError(c, tt.err)

			require.Equal(t, tt.wantStatus, rec.Code)
			var body map[string]any
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, string(tt.wantCode), body["code"])
			assert.NotEmpty(t, body["error"])
			_, hasDetails := body["details"]
			assert.Equal(t, tt.wantDetails, hasDetails)
		})
	}
}
