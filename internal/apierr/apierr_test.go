package apierr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatusFor(t *testing.T) {
	tests := []struct {
		kind Kind
		want int
	}{
		{KindValidation, http.StatusBadRequest},
		{KindCompletion, http.StatusInternalServerError},
		{KindEmptyResponse, http.StatusInternalServerError},
		{KindEmptyContent, http.StatusInternalServerError},
		{KindUnparsableContent, http.StatusInternalServerError},
		{KindNoSalvageableItems, http.StatusInternalServerError},
		{KindInternal, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			assert.Equal(t, tt.want, StatusFor(tt.kind))
			assert.Equal(t, tt.want, New(tt.kind, "x").Status())
		})
	}
}

func TestWrapUnwrap(t *testing.T) {
	cause := errors.New("connection reset")
	err := Wrap(cause, KindCompletion, "completion request failed")

	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "completion")
	assert.Contains(t, err.Error(), "connection reset")
}

func TestAs(t *testing.T) {
	wrapped := fmt.Errorf("handler: %w", New(KindEmptyContent, "empty"))
	assert.Equal(t, KindEmptyContent, As(wrapped).Kind)
	assert.True(t, IsKind(wrapped, KindEmptyContent))
	assert.False(t, IsKind(wrapped, KindCompletion))

	plain := errors.New("boom")
	got := As(plain)
	assert.Equal(t, KindInternal, got.Kind)
	assert.ErrorIs(t, got, plain)
}
