package apperr

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindAndStatus(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantKind   string
		wantStatus int
	}{
		{name: "nil", err: nil, wantKind: "", wantStatus: http.StatusOK},
		{name: "validation wrapped", err: fmt.Errorf("%w: cart is empty", ErrValidation), wantKind: "validation", wantStatus: http.StatusBadRequest},
		{name: "auth", err: fmt.Errorf("token: %w", ErrAuth), wantKind: "auth", wantStatus: http.StatusBadRequest},
		{name: "gateway", err: fmt.Errorf("capture: %w", ErrGateway), wantKind: "gateway", wantStatus: http.StatusBadRequest},
		{name: "not found", err: fmt.Errorf("order x: %w", ErrNotFound), wantKind: "not_found", wantStatus: http.StatusNotFound},
		{name: "deadline", err: context.DeadlineExceeded, wantKind: "timeout", wantStatus: http.StatusBadRequest},
		{name: "canceled", err: context.Canceled, wantKind: "canceled", wantStatus: http.StatusBadRequest},
		{name: "other", err: errors.New("disk full"), wantKind: "internal", wantStatus: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantKind, Kind(tt.err))
			assert.Equal(t, tt.wantStatus, HTTPStatus(tt.err))
		})
	}
}

func TestInternal(t *testing.T) {
	assert.True(t, Internal(errors.New("disk full")))
	assert.True(t, Internal(fmt.Errorf("append: %w", context.DeadlineExceeded)))
	assert.False(t, Internal(fmt.Errorf("%w: empty cart", ErrValidation)))
	assert.False(t, Internal(fmt.Errorf("%w: declined", ErrGateway)))
	assert.False(t, Internal(nil))
}
