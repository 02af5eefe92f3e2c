package errors_test

import (
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgerrors "github.com/agentstation/integrations/pkg/errors"
)

func TestNew(t *testing.T) {
	err := pkgerrors.New("test error")
	assert.NotNil(t, err)
	assert.Equal(t, "test error", err.Error())
}

func TestNotFoundError(t *testing.T) {
	t.Run("basic error", func(t *testing.T) {
		err := &pkgerrors.NotFoundError{
			Resource: "integration",
			ID:       "nginx",
		}
		assert.Equal(t, "integration nginx not found", err.Error())
		assert.True(t, errors.Is(err, pkgerrors.ErrNotFound))
	})

	t.Run("wrapped error", func(t *testing.T) {
		base := pkgerrors.NewNotFoundError("file", "nginx-1.0.0.json")
		wrapped := errors.Join(errors.New("failed"), base)
		assert.True(t, pkgerrors.IsNotFound(wrapped))
		assert.Equal(t, http.StatusNotFound, pkgerrors.StatusCode(wrapped))
	})
}

func TestValidationError(t *testing.T) {
	t.Run("with field", func(t *testing.T) {
		err := pkgerrors.NewValidationError("components[1].name", nil, "is required")
		assert.Equal(t, "validation failed for field components[1].name: is required", err.Error())
		assert.True(t, pkgerrors.IsValidationError(err))
	})

	t.Run("without field", func(t *testing.T) {
		err := &pkgerrors.ValidationError{Message: "expected an object"}
		assert.Equal(t, "validation failed: expected an object", err.Error())
		assert.Equal(t, http.StatusBadRequest, pkgerrors.StatusCode(err))
	})
}

func TestParseError(t *testing.T) {
	t.Run("with file and line", func(t *testing.T) {
		err := &pkgerrors.ParseError{
			Format:  "ndjson",
			File:    "nginx-1.0.0.ndjson",
			Line:    3,
			Message: pkgerrors.MalformedMessage,
		}
		assert.Contains(t, err.Error(), "nginx-1.0.0.ndjson:3")
		assert.Contains(t, err.Error(), pkgerrors.MalformedMessage)
	})

	t.Run("distinct from not found", func(t *testing.T) {
		err := pkgerrors.NewParseError("json", "x.json", pkgerrors.MalformedMessage, nil)
		assert.True(t, pkgerrors.IsMalformed(err))
		assert.False(t, pkgerrors.IsNotFound(err))
		assert.Equal(t, http.StatusInternalServerError, pkgerrors.StatusCode(err))
	})
}

func TestUnsupportedError(t *testing.T) {
	err := pkgerrors.NewUnsupportedError("json", "ReadFileRaw")
	assert.Equal(t, "ReadFileRaw is not supported by the json adaptor", err.Error())
	assert.True(t, pkgerrors.IsUnsupported(err))
}

func TestDeepValidationError(t *testing.T) {
	base := errors.New("no schemas")
	err := pkgerrors.NewDeepValidationError("nginx", "schemas", base)
	assert.Contains(t, err.Error(), "nginx")
	assert.Equal(t, base, err.Unwrap())
	assert.True(t, pkgerrors.IsValidationError(err))
}

func TestStoreError(t *testing.T) {
	t.Run("default status", func(t *testing.T) {
		err := pkgerrors.NewStoreError("get", "dashboard", "abc", errors.New("connection reset"))
		assert.Contains(t, err.Error(), "dashboard/abc")
		assert.Equal(t, http.StatusInternalServerError, pkgerrors.StatusCode(err))
	})

	t.Run("backend status", func(t *testing.T) {
		err := &pkgerrors.StoreError{Operation: "get", Type: "dashboard", Status: http.StatusForbidden, Err: errors.New("denied")}
		assert.Equal(t, http.StatusForbidden, pkgerrors.StatusCode(err))
	})
}

func TestIOError(t *testing.T) {
	t.Run("unwrap", func(t *testing.T) {
		baseErr := errors.New("disk full")
		err := pkgerrors.NewIOError("read", "/data/nginx.json", baseErr)
		assert.Equal(t, baseErr, err.Unwrap())
	})

	t.Run("wrap helper", func(t *testing.T) {
		err := pkgerrors.WrapIO("readdir", "/repo", errors.New("permission denied"))
		ioErr, ok := err.(*pkgerrors.IOError)
		require.True(t, ok)
		assert.Equal(t, "readdir", ioErr.Operation)
		assert.Nil(t, pkgerrors.WrapIO("read", "x", nil))
	})
}

func TestResourceError(t *testing.T) {
	err := pkgerrors.WrapResource("load", "instance", "nginx-prod", pkgerrors.NewNotFoundError("integration", "nginx"))
	resErr, ok := err.(*pkgerrors.ResourceError)
	require.True(t, ok)
	assert.Equal(t, "instance", resErr.Resource)
	assert.Equal(t, http.StatusNotFound, pkgerrors.StatusCode(err))
}

func TestStatusCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, http.StatusOK},
		{"not found", pkgerrors.NewNotFoundError("a", "b"), http.StatusNotFound},
		{"validation", pkgerrors.NewValidationError("name", nil, "required"), http.StatusBadRequest},
		{"plain", errors.New("boom"), http.StatusInternalServerError},
		{"config", pkgerrors.NewConfigError("store", "bad dsn", nil), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, pkgerrors.StatusCode(tt.err))
		})
	}
}
