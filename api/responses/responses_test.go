package responses

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgerrors "github.com/planboardhq/planboard-backend/pkg/errors"
	"github.com/planboardhq/planboard-backend/pkg/types"
)

func TestWriteSuccessWrapsInEnvelope(t *testing.T) {
	w := httptest.NewRecorder()
	WriteSuccess(w, map[string]string{"hello": "world"})

	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"data":{"hello":"world"}}`, w.Body.String())
}

func TestWriteErrorMapsCodeToStatus(t *testing.T) {
	cases := []struct {
		err    error
		status int
		code   string
	}{
		{pkgerrors.New(pkgerrors.CodeValidation, "bad input"), http.StatusBadRequest, "VALIDATION_ERROR"},
		{pkgerrors.New(pkgerrors.CodeVersionConflict, "stale"), http.StatusConflict, "VERSION_CONFLICT"},
		{pkgerrors.New(pkgerrors.CodeDeleteIntent, "confirm"), http.StatusBadRequest, "DELETE_INTENT_REQUIRED"},
		{pkgerrors.New(pkgerrors.CodeBusinessRule, "driver busy"), http.StatusBadRequest, "BUSINESS_RULE_VIOLATION"},
		{errors.New("boom"), http.StatusInternalServerError, "INTERNAL_ERROR"},
	}

	for _, tc := range cases {
		w := httptest.NewRecorder()
		WriteError(context.Background(), nil, w, tc.err)

		require.Equal(t, tc.status, w.Code)
		var envelope types.ErrorEnvelope
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
		assert.Equal(t, tc.code, envelope.Error.Code)
	}
}

func TestWriteErrorHidesInternalMessage(t *testing.T) {
	w := httptest.NewRecorder()
	WriteError(context.Background(), nil, w, errors.New("secret database path"))

	var envelope types.ErrorEnvelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	assert.Equal(t, "internal server error", envelope.Error.Message)
}

func TestWriteErrorPassesConflictDetails(t *testing.T) {
	w := httptest.NewRecorder()
	err := pkgerrors.New(pkgerrors.CodeVersionConflict, "stale").
		WithDetails(map[string]any{"currentVersion": 7})
	WriteError(context.Background(), nil, w, err)

	var envelope types.ErrorEnvelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	details, ok := envelope.Error.Details.(map[string]any)
	require.True(t, ok)
	assert.EqualValues(t, 7, details["currentVersion"])
}
