package api_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/6amape9I/parallel--funetun/pkg/api"
	pkgerrors "github.com/6amape9I/parallel--funetun/pkg/errors"
	apiutil "github.com/absmach/supermq/api/http/util"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type createdRes struct {
	ID string `json:"id"`
}

func (createdRes) Code() int                  { return http.StatusCreated }
func (createdRes) Headers() map[string]string { return map[string]string{"Location": "/things/1"} }
func (createdRes) Empty() bool                { return false }

type emptyRes struct{}

func (emptyRes) Code() int                  { return http.StatusNoContent }
func (emptyRes) Headers() map[string]string { return map[string]string{} }
func (emptyRes) Empty() bool                { return true }

func TestEncodeResponse(t *testing.T) {
	t.Parallel()

	w := httptest.NewRecorder()
	require.NoError(t, api.EncodeResponse(context.Background(), w, createdRes{ID: "1"}))
	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "/things/1", w.Header().Get("Location"))
	assert.JSONEq(t, `{"id":"1"}`, w.Body.String())

	w = httptest.NewRecorder()
	require.NoError(t, api.EncodeResponse(context.Background(), w, emptyRes{}))
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Empty(t, w.Body.String())
}

func TestEncodeError(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		err  error
		code int
	}{
		{"validation", errors.Join(apiutil.ErrValidation, errors.New("bad trainer")), http.StatusBadRequest},
		{"content type", errors.Join(apiutil.ErrValidation, apiutil.ErrUnsupportedContentType), http.StatusUnsupportedMediaType},
		{"not found", pkgerrors.ErrNotFound, http.StatusNotFound},
		{"conflict", fmt.Errorf("%w: busy", pkgerrors.ErrConflict), http.StatusConflict},
		{"internal", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			w := httptest.NewRecorder()
			api.EncodeError(context.Background(), tc.err, w)
			assert.Equal(t, tc.code, w.Code)
			assert.Equal(t, api.ContentType, w.Header().Get("Content-Type"))

			var body map[string]string
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.Equal(t, tc.err.Error(), body["error"])
		})
	}
}
