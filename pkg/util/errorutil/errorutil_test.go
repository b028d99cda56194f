package errorutil

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/require"
)

func TestConstructorsCarryCodeAndStatus(t *testing.T) {
	cases := []struct {
		err    error
		code   string
		status int
	}{
		{NewBadRequest("missing header"), CodeBadRequest, http.StatusBadRequest},
		{NewValidationError("reason is required", nil), CodeValidationFailed, http.StatusUnprocessableEntity},
		{NewUnauthorized("missing token"), CodeUnauthorized, http.StatusUnauthorized},
		{NewForbidden("role may not perform action"), CodeForbidden, http.StatusForbidden},
		{NewNotFound("request", nil), CodeNotFound, http.StatusNotFound},
		{NewConflict("version mismatch", nil), CodeVersionConflict, http.StatusConflict},
		{NewTransitionError("not allowed", nil), CodeTransitionNotAllowed, http.StatusUnprocessableEntity},
		{NewInternalError(errors.New("db down")), CodeInternalError, http.StatusInternalServerError},
	}

	for _, tc := range cases {
		domainErr := ToDomainError(tc.err)
		require.Equal(t, tc.code, domainErr.Code)
		require.Equal(t, tc.status, domainErr.HTTPStatus)
	}
}

func TestToDomainErrorPassesThroughDomainErrors(t *testing.T) {
	original := NewConflict("version mismatch", map[string]any{"current_version": int64(2)})
	mapped := ToDomainError(original)
	require.Same(t, original, mapped)

	wrapped := fmt.Errorf("change status: %w", original)
	mapped = ToDomainError(wrapped)
	require.Equal(t, CodeVersionConflict, mapped.Code)
}

func TestToDomainErrorMapsNoRowsToNotFound(t *testing.T) {
	domainErr := ToDomainError(pgx.ErrNoRows)
	require.Equal(t, CodeNotFound, domainErr.Code)
	require.Equal(t, http.StatusNotFound, domainErr.HTTPStatus)
}

func TestToDomainErrorWrapsUnknownErrors(t *testing.T) {
	domainErr := ToDomainError(errors.New("socket closed"))
	require.Equal(t, CodeInternalError, domainErr.Code)
	require.Equal(t, "internal server error", domainErr.Message)
	require.EqualError(t, domainErr.Unwrap(), "socket closed")
}

func TestToDomainErrorNil(t *testing.T) {
	require.Nil(t, ToDomainError(nil))
}

func TestNotFoundMessage(t *testing.T) {
	domainErr := ToDomainError(NewNotFound("request", map[string]any{"request_id": "abc"}))
	require.Equal(t, "request not found", domainErr.Message)
	require.Equal(t, "abc", domainErr.Details["request_id"])
}
