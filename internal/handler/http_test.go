package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"party-server/internal/models"
)

func TestStatusForKind(t *testing.T) {
	cases := map[models.ErrorKind]int{
		models.KindValidation:              http.StatusBadRequest,
		models.KindUnauthorized:            http.StatusForbidden,
		models.KindNotFound:                http.StatusNotFound,
		models.KindInvalidState:            http.StatusConflict,
		models.KindInsufficientSupply:      http.StatusConflict,
		models.KindLockContention:          http.StatusLocked,
		models.KindCodeGenerationExhausted: http.StatusInternalServerError,
		models.KindInternal:                http.StatusInternalServerError,
	}
	for kind, want := range cases {
		assert.Equal(t, want, statusForKind(kind), "kind %s", kind)
	}
}

func TestGameErrorResponses(t *testing.T) {
	h := &PartyHandler{logger: zap.NewNop()}

	newCtx := func() (echo.Context, *httptest.ResponseRecorder) {
		e := echo.New()
		req := httptest.NewRequest(http.MethodPost, "/sessions/ABCD/start", nil)
		rec := httptest.NewRecorder()
		return e.NewContext(req, rec), rec
	}

	t.Run("Typed errors expose message and kind", func(t *testing.T) {
		c, rec := newCtx()
		err := h.gameError(c, models.NewGameError(models.KindInvalidState, "session is already playing"))
		require.NoError(t, err)
		assert.Equal(t, http.StatusConflict, rec.Code)

		var body APIError
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, "session is already playing", body.Message)
		assert.Equal(t, string(models.KindInvalidState), body.Kind)
	})

	t.Run("Lock contention maps to 423", func(t *testing.T) {
		c, rec := newCtx()
		require.NoError(t, h.gameError(c, models.ErrLockContention))
		assert.Equal(t, http.StatusLocked, rec.Code)
	})

	t.Run("Untyped errors do not leak details", func(t *testing.T) {
		c, rec := newCtx()
		require.NoError(t, h.gameError(c, assert.AnError))
		assert.Equal(t, http.StatusInternalServerError, rec.Code)

		var body APIError
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, "internal server error", body.Message)
		assert.NotContains(t, body.Message, assert.AnError.Error())
	})
}
