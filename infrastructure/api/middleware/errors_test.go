package middleware

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"

	domainservice "github.com/Acurioustractor/palm-island-repository/domain/service"
	"github.com/Acurioustractor/palm-island-repository/internal/log"
)

func TestAPIError(t *testing.T) {
	err := NewAPIError(404, "resource not found", nil)

	if err.Code() != 404 {
		t.Errorf("Code() = %v, want 404", err.Code())
	}
	if err.Message() != "resource not found" {
		t.Errorf("Message() = %v, want 'resource not found'", err.Message())
	}

	expected := "api error 404: resource not found"
	if err.Error() != expected {
		t.Errorf("Error() = %v, want %v", err.Error(), expected)
	}
}

func TestAPIError_WithCause(t *testing.T) {
	cause := errors.New("underlying error")
	err := NewAPIError(500, "internal error", cause)

	expected := "api error 500: internal error: underlying error"
	if err.Error() != expected {
		t.Errorf("Error() = %v, want %v", err.Error(), expected)
	}

	if err.Unwrap() != cause {
		t.Error("Unwrap() should return the cause")
	}
}

func TestAuthenticationError(t *testing.T) {
	err := NewAuthenticationError("invalid token")

	expected := "authentication failed: invalid token"
	if err.Error() != expected {
		t.Errorf("Error() = %v, want %v", err.Error(), expected)
	}

	if err.Message() != "invalid token" {
		t.Errorf("Message() = %v, want 'invalid token'", err.Message())
	}

	// Should be matchable with errors.Is
	if !errors.Is(err, ErrAuthentication) {
		t.Error("AuthenticationError should match ErrAuthentication with errors.Is")
	}
}

func TestErrors_CanBeWrapped(t *testing.T) {
	authErr := NewAuthenticationError("token expired")
	wrapped := fmt.Errorf("request failed: %w", authErr)

	if !errors.Is(wrapped, ErrAuthentication) {
		t.Error("wrapped AuthenticationError should still match ErrAuthentication")
	}

	// Should be able to extract the typed error
	var target *AuthenticationError
	if !errors.As(wrapped, &target) {
		t.Error("should be able to extract AuthenticationError with errors.As")
	}
}

func decodeErrors(t *testing.T, body []byte) JSONAPIErrorResponse {
	t.Helper()
	var resp JSONAPIErrorResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		t.Fatalf("unmarshal error body: %v", err)
	}
	if len(resp.Errors) != 1 {
		t.Fatalf("expected 1 error object, got %d", len(resp.Errors))
	}
	return resp
}

func TestWriteError_Mapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantDetail string
	}{
		{
			name:       "validation",
			err:        domainservice.NewValidationError("query", "must not be empty"),
			wantStatus: http.StatusBadRequest,
			wantDetail: "query: must not be empty",
		},
		{
			name:       "bad json",
			err:        NewAPIError(http.StatusBadRequest, "invalid JSON body", errors.New("unexpected EOF")),
			wantStatus: http.StatusBadRequest,
			wantDetail: "invalid JSON body",
		},
		{
			name:       "authentication",
			err:        NewAuthenticationError("Invalid API key"),
			wantStatus: http.StatusUnauthorized,
			wantDetail: "Invalid API key",
		},
		{
			name:       "not implemented",
			err:        fmt.Errorf("similar: %w", domainservice.ErrNotImplemented),
			wantStatus: http.StatusNotImplemented,
			wantDetail: "",
		},
		{
			name:       "model unavailable",
			err:        fmt.Errorf("embed: %w: no onnx file", domainservice.ErrModelUnavailable),
			wantStatus: http.StatusInternalServerError,
			wantDetail: "embedding model unavailable",
		},
		{
			name:       "qdrant down",
			err:        domainservice.NewUpstreamError("qdrant", "search", errors.New("dial tcp 10.1.2.3:6333: connection refused")),
			wantStatus: http.StatusInternalServerError,
			wantDetail: "qdrant unavailable",
		},
		{
			name:       "dimension mismatch",
			err:        fmt.Errorf("embed: %w: got 768", domainservice.ErrDimensionMismatch),
			wantStatus: http.StatusInternalServerError,
			wantDetail: "internal server error",
		},
		{
			name:       "unknown",
			err:        errors.New("boom"),
			wantStatus: http.StatusInternalServerError,
			wantDetail: "internal server error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/search", nil)
			req = req.WithContext(log.WithCorrelationID(req.Context(), "corr-1"))
			w := httptest.NewRecorder()

			WriteError(w, req, tt.err, log.Discard())

			if w.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", w.Code, tt.wantStatus)
			}
			resp := decodeErrors(t, w.Body.Bytes())
			got := resp.Errors[0]
			if got.Status != strconv.Itoa(tt.wantStatus) {
				t.Errorf("status field = %q, want %q", got.Status, strconv.Itoa(tt.wantStatus))
			}
			if got.Detail != tt.wantDetail {
				t.Errorf("detail = %q, want %q", got.Detail, tt.wantDetail)
			}
			if got.ID != "corr-1" {
				t.Errorf("id = %q, want corr-1", got.ID)
			}
			if strings.Contains(w.Body.String(), "10.1.2.3") {
				t.Error("upstream detail leaked into response")
			}
		})
	}
}

func TestWriteError_LogsRawError(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))
	req := httptest.NewRequest(http.MethodPost, "/api/search", nil)

	WriteError(httptest.NewRecorder(), req, domainservice.NewUpstreamError("qdrant", "search", errors.New("connection refused")), logger)

	if !strings.Contains(buf.String(), "connection refused") {
		t.Errorf("expected raw error in log, got: %s", buf.String())
	}
}
