package domainerrors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCodeOf(t *testing.T) {
	t.Run("extracts code from wrapped chain", func(t *testing.T) {
		base := errors.New("connection refused")
		err := Wrap(base, CodeUnavailable, "payment authority unreachable")
		wrapped := fmt.Errorf("process payment: %w", err)

		assert.Equal(t, CodeUnavailable, CodeOf(wrapped))
		assert.True(t, Is(wrapped, CodeUnavailable))
		assert.True(t, errors.Is(wrapped, base))
	})

	t.Run("uncoded errors default to internal", func(t *testing.T) {
		assert.Equal(t, CodeInternal, CodeOf(errors.New("boom")))
	})
}

func TestToHTTPStatus(t *testing.T) {
	cases := map[Code]int{
		CodeBadRequest:   http.StatusBadRequest,
		CodeNotFound:     http.StatusNotFound,
		CodeInvalidState: http.StatusConflict,
		CodeConflict:     http.StatusConflict,
		CodeUnavailable:  http.StatusServiceUnavailable,
		CodeTimeout:      http.StatusGatewayTimeout,
		CodeInternal:     http.StatusInternalServerError,
	}
	for code, want := range cases {
		assert.Equal(t, want, ToHTTPStatus(code), "code %s", code)
	}
}
