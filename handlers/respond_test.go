package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"task-manager/models"
)

func patchRequest(body string) *http.Request {
	return httptest.NewRequest(http.MethodPatch, "/api/tasks/abc", strings.NewReader(body))
}

func TestDecodePatchAcceptsAllowedKeys(t *testing.T) {
	var dst struct {
		Title    *string `json:"title"`
		Progress *int    `json:"progress"`
	}

	present, err := decodePatch(patchRequest(`{"title":"new title","progress":50}`), []string{"title", "progress"}, &dst)
	require.NoError(t, err)

	assert.True(t, present["title"])
	assert.True(t, present["progress"])
	require.NotNil(t, dst.Title)
	assert.Equal(t, "new title", *dst.Title)
}

func TestDecodePatchRejectsUnknownKeyEntirely(t *testing.T) {
	var dst struct {
		Title *string `json:"title"`
	}

	_, err := decodePatch(patchRequest(`{"title":"ok","creator":"evil"}`), []string{"title"}, &dst)
	require.Error(t, err)
	assert.ErrorIs(t, err, models.ErrValidation)
	// Nothing is applied when any key is disallowed.
	assert.Nil(t, dst.Title)
}

func TestDecodePatchTracksExplicitNull(t *testing.T) {
	var dst struct {
		DueDate *string `json:"dueDate"`
	}

	present, err := decodePatch(patchRequest(`{"dueDate":null}`), []string{"dueDate"}, &dst)
	require.NoError(t, err)

	// Explicit null: key present, decoded value nil. Handlers use the present
	// set to tell "clear this field" apart from "leave it alone".
	assert.True(t, present["dueDate"])
	assert.Nil(t, dst.DueDate)
}

func TestDecodePatchRejectsInvalidJSON(t *testing.T) {
	var dst struct{}
	_, err := decodePatch(patchRequest(`{"title":`), []string{"title"}, &dst)
	require.Error(t, err)
	assert.ErrorIs(t, err, models.ErrValidation)
}

func TestStatusForError(t *testing.T) {
	cases := []struct {
		err    error
		status int
	}{
		{fmt.Errorf("%w: bad input", models.ErrValidation), http.StatusBadRequest},
		{fmt.Errorf("%w: who are you", models.ErrUnauthenticated), http.StatusUnauthorized},
		{fmt.Errorf("%w: not yours", models.ErrForbidden), http.StatusForbidden},
		{fmt.Errorf("%w: gone", models.ErrNotFound), http.StatusNotFound},
		{fmt.Errorf("%w: email taken", models.ErrConflict), http.StatusConflict},
		{errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.status, statusForError(tc.err))
	}
}

func TestWriteErrorHidesInternalDetails(t *testing.T) {
	rec := httptest.NewRecorder()
	writeError(rec, errors.New("mongo: connection refused"))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "internal_error")
	assert.NotContains(t, rec.Body.String(), "mongo")
}

func TestWriteErrorExposesKindAndMessage(t *testing.T) {
	rec := httptest.NewRecorder()
	writeError(rec, fmt.Errorf("%w: title is required", models.ErrValidation))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "validation_error")
	assert.Contains(t, rec.Body.String(), "title is required")
}
