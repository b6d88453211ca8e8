package response

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-playground/validator"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/task-tracker/internal/lib/errs"
)

func TestStatusFor(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		hide       bool
		wantStatus int
		wantMsg    string
	}{
		{name: "validation", err: fmt.Errorf("op: %w", errs.Validation("title is required")), wantStatus: 400, wantMsg: "title is required"},
		{name: "bare validation", err: errs.ErrValidation, wantStatus: 400, wantMsg: "invalid request"},
		{name: "duplicate email", err: fmt.Errorf("op: %w", errs.ErrDuplicateEmail), wantStatus: 400, wantMsg: "user already exists"},
		{name: "unauthenticated", err: errs.ErrUnauthenticated, wantStatus: 401, wantMsg: "unauthorized"},
		{name: "invalid credentials", err: errs.ErrInvalidCredentials, wantStatus: 401, wantMsg: "invalid credentials"},
		{name: "not found", err: fmt.Errorf("op: %w", errs.ErrNotFound), wantStatus: 404, wantMsg: "task not found"},
		{name: "internal shown", err: errors.New("pq: connection refused"), wantStatus: 500, wantMsg: "pq: connection refused"},
		{name: "internal sentinel", err: fmt.Errorf("op: %w", errs.ErrInternal), wantStatus: 500, wantMsg: "internal server error"},
		{name: "internal hidden", err: errors.New("pq: connection refused"), hide: true, wantStatus: 500, wantMsg: "internal server error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			if tt.hide {
				ctx = context.WithValue(ctx, ctxKey{}, true)
			}
			status, msg := StatusFor(ctx, tt.err)
			assert.Equal(t, tt.wantStatus, status)
			assert.Equal(t, tt.wantMsg, msg)
		})
	}
}

func TestFailWithHiddenInternals(t *testing.T) {
	h := HideInternalErrors(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		Fail(w, r, errors.New("secret db details"))
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	var got ErrorResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&got))
	assert.Equal(t, ErrorResponse{Status: "Error", Error: "internal server error"}, got)
}

func TestValidationError(t *testing.T) {
	type request struct {
		Title  string `validate:"required,max=5"`
		Status string `validate:"omitempty,oneof=pending done"`
		Name   string `validate:"omitempty,min=2"`
	}

	tests := []struct {
		name string
		req  request
		want string
	}{
		{name: "required", req: request{}, want: "field Title is a required field"},
		{name: "max", req: request{Title: "toolong"}, want: "field Title must be at most 5 characters"},
		{
			name: "several fields",
			req:  request{Title: "ok", Status: "x", Name: "a"},
			want: "field Status must be one of: pending done, field Name must be at least 2 characters",
		},
	}

	v := validator.New()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Struct(tt.req)
			require.Error(t, err)
			got := ValidationError(err.(validator.ValidationErrors))
			assert.Equal(t, StatusError, got.Status)
			assert.Equal(t, tt.want, got.Error)
		})
	}
}
