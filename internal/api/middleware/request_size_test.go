package middleware

import (
	"bytes"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRequestSize(t *testing.T) {
	tests := []struct {
		name     string
		maxBytes int64
		bodySize int
		tooLarge bool
	}{
		{"small request accepted", 1024, 512, false},
		{"exact limit accepted", 1024, 1024, false},
		{"oversized request rejected", 1024, 2048, true},
		{"default limit", DefaultMaxBodySize, int(DefaultMaxBodySize) + 1, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var readErr error
			var n int
			handler := RequestSize(tt.maxBytes)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				body, err := io.ReadAll(r.Body)
				readErr = err
				n = len(body)
			}))

			req := httptest.NewRequest(http.MethodPost, "/events", bytes.NewReader(bytes.Repeat([]byte("x"), tt.bodySize)))
			handler.ServeHTTP(httptest.NewRecorder(), req)

			if tt.tooLarge {
				var maxErr *http.MaxBytesError
				assert.True(t, errors.As(readErr, &maxErr))
				return
			}
			assert.NoError(t, readErr)
			assert.Equal(t, tt.bodySize, n)
		})
	}
}
