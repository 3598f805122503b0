package util

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToDomainErrorPassesThrough(t *testing.T) {
	original := NewValidationError("bad input", map[string]any{"title": "required"})

	mapped := ToDomainError(original)
	assert.Equal(t, "VALIDATION_FAILED", mapped.Code)
	assert.Equal(t, http.StatusBadRequest, mapped.HTTPStatus)
	assert.Equal(t, "required", mapped.Details["title"])
}

func TestToDomainErrorWrapsNoRows(t *testing.T) {
	mapped := ToDomainError(fmt.Errorf("query: %w", pgx.ErrNoRows))
	assert.Equal(t, "NOT_FOUND", mapped.Code)
	assert.Equal(t, http.StatusNotFound, mapped.HTTPStatus)
}

func TestToDomainErrorDefaultsToPersistence(t *testing.T) {
	mapped := ToDomainError(errors.New("connection reset"))
	assert.Equal(t, "PERSISTENCE_FAILED", mapped.Code)
	assert.Equal(t, http.StatusInternalServerError, mapped.HTTPStatus)
}

func TestIsCode(t *testing.T) {
	err := NewNotFound("ticket", nil)
	assert.True(t, IsCode(err, "NOT_FOUND"))
	assert.False(t, IsCode(err, "VALIDATION_FAILED"))
	assert.False(t, IsCode(errors.New("plain"), "NOT_FOUND"))
}

func TestDomainErrorUnwrap(t *testing.T) {
	inner := errors.New("disk full")
	err := NewPersistenceError(inner)

	var domainErr *DomainError
	require.True(t, errors.As(err, &domainErr))
	assert.ErrorIs(t, err, inner)
	assert.Contains(t, domainErr.Error(), "disk full")
}
