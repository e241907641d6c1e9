package result

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKindOf(t *testing.T) {
	assert.Equal(t, KindNotFound, KindOf(NotFound("rental %s not found", "x")))
	assert.Equal(t, KindUnauthorized, KindOf(fmt.Errorf("approve: %w", Unauthorized("not the owner"))))
	assert.Equal(t, KindOperationFailed, KindOf(errors.New("connection reset")))
}

func TestErrorsIsMatchesKindSentinel(t *testing.T) {
	err := fmt.Errorf("wrapped: %w", Conflict("rental is not pending"))
	assert.ErrorIs(t, err, ErrConflict)
	assert.NotErrorIs(t, err, ErrNotFound)
}

func TestFailedPassesMessageThrough(t *testing.T) {
	err := Failed(errors.New("duplicate key value violates unique constraint"))
	assert.Equal(t, KindOperationFailed, KindOf(err))
	assert.Equal(t, "duplicate key value violates unique constraint", err.Error())

	typed := InsufficientStock("Insufficient stock")
	assert.Same(t, typed, Failed(typed))
	assert.Nil(t, Failed(nil))
}

func TestOfEnvelope(t *testing.T) {
	ok := Of(42, nil)
	assert.True(t, ok.Success)
	assert.Equal(t, 42, ok.Data)
	assert.Empty(t, ok.Error)

	bad := Of(0, BookUnavailable("Book not available"))
	assert.False(t, bad.Success)
	assert.Equal(t, "Book not available", bad.Error)
	assert.Equal(t, KindBookUnavailable, bad.Kind)
}

func TestWriteAlwaysReturns200(t *testing.T) {
	rec := httptest.NewRecorder()
	Write(rec, Of[*OK](nil, Unauthorized("Unauthorized or rental not found")))

	assert.Equal(t, http.StatusOK, rec.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, false, body["success"])
	assert.Equal(t, "Unauthorized or rental not found", body["error"])
	assert.Equal(t, "unauthorized", body["kind"])
}

func TestWriteError(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteError(rec, http.StatusBadRequest, "Query required")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"error":"Query required"}`, rec.Body.String())
}
