package handler

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"party-server/internal/models"
	"party-server/internal/service"
)

// PartyHandler exposes the game engine over HTTP.
type PartyHandler struct {
	game      service.GameService
	projector *service.Projector
	logger    *zap.Logger
}

// NewPartyHandler creates a new PartyHandler.
func NewPartyHandler(game service.GameService, projector *service.Projector, logger *zap.Logger) *PartyHandler {
	return &PartyHandler{
		game:      game,
		projector: projector,
		logger:    logger.Named("PartyHandler"),
	}
}

// RegisterRoutes registers the session routes.
func (h *PartyHandler) RegisterRoutes(e *echo.Echo) {
	sessions := e.Group("/sessions")
	{
		sessions.POST("", h.createSession)
		sessions.GET("/:code", h.getSession)
		sessions.GET("/:code/history", h.getHistory)
		sessions.POST("/:code/join", h.join)
		sessions.POST("/:code/start", h.start)
		sessions.POST("/:code/leave", h.leave)
		sessions.POST("/:code/remove-player", h.removePlayer)
		sessions.POST("/:code/next-czar", h.setNextCzar)
		sessions.POST("/:code/place-skipped", h.placeSkipped)
		sessions.POST("/:code/skip-votes", h.voteToSkipCzar)
		sessions.POST("/:code/skip-czar", h.skipCzar)
		sessions.POST("/:code/pause", h.togglePause)
		sessions.POST("/:code/transfer-host", h.transferHost)
		sessions.POST("/:code/reshuffle", h.reshuffle)
		sessions.POST("/:code/submissions", h.submit)
		sessions.POST("/:code/winner", h.pickWinner)
		sessions.POST("/:code/advance", h.advanceRound)
		sessions.POST("/:code/reveal", h.revealSubmissions)
		sessions.DELETE("/:code", h.deleteSession)
	}
}

func (h *PartyHandler) createSession(c echo.Context) error {
	var req CreateSessionRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, APIError{Message: "invalid request body"})
	}
	sess, participantID, err := h.game.CreateSession(c.Request().Context(), req.CreatorName, req.TagIDs, req.Settings)
	if err != nil {
		return h.gameError(c, err)
	}
	sessionsCreatedTotal.Inc()
	return c.JSON(http.StatusCreated, CreateSessionResponse{
		Code:          sess.Code,
		ParticipantID: participantID,
	})
}

func (h *PartyHandler) getSession(c echo.Context) error {
	code := c.Param("code")
	viewerID, _ := uuid.Parse(c.QueryParam("viewer"))

	sess, err := h.game.GetSession(c.Request().Context(), code)
	if err != nil {
		return h.gameError(c, err)
	}
	view, err := h.projector.Project(c.Request().Context(), sess, viewerID)
	if err != nil {
		return h.gameError(c, err)
	}
	return c.JSON(http.StatusOK, view)
}

func (h *PartyHandler) getHistory(c echo.Context) error {
	records, err := h.game.History(c.Request().Context(), c.Param("code"))
	if err != nil {
		return h.gameError(c, err)
	}
	return c.JSON(http.StatusOK, records)
}

func (h *PartyHandler) join(c echo.Context) error {
	var req JoinRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, APIError{Message: "invalid request body"})
	}
	code := c.Param("code")
	ctx := c.Request().Context()

	var participantID uuid.UUID
	var err error
	if req.AfterID != uuid.Nil || req.BeforeID != uuid.Nil {
		_, participantID, err = h.game.JoinLate(ctx, code, req.Name, req.AfterID, req.BeforeID)
	} else {
		_, participantID, err = h.game.Join(ctx, code, req.Name)
	}
	if err != nil {
		return h.gameError(c, err)
	}
	return c.JSON(http.StatusOK, JoinResponse{ParticipantID: participantID})
}

func (h *PartyHandler) start(c echo.Context) error {
	var req ParticipantActionRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, APIError{Message: "invalid request body"})
	}
	return h.mutation(c, func() (*models.Session, error) {
		return h.game.Start(c.Request().Context(), c.Param("code"), req.CallerID)
	}, req.CallerID)
}

func (h *PartyHandler) leave(c echo.Context) error {
	var req ParticipantActionRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, APIError{Message: "invalid request body"})
	}
	return h.mutation(c, func() (*models.Session, error) {
		return h.game.Leave(c.Request().Context(), c.Param("code"), req.CallerID)
	}, uuid.Nil)
}

func (h *PartyHandler) removePlayer(c echo.Context) error {
	var req TargetActionRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, APIError{Message: "invalid request body"})
	}
	return h.mutation(c, func() (*models.Session, error) {
		return h.game.RemovePlayer(c.Request().Context(), c.Param("code"), req.CallerID, req.TargetID)
	}, req.CallerID)
}

func (h *PartyHandler) setNextCzar(c echo.Context) error {
	var req TargetActionRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, APIError{Message: "invalid request body"})
	}
	return h.mutation(c, func() (*models.Session, error) {
		return h.game.SetNextCzar(c.Request().Context(), c.Param("code"), req.CallerID, req.TargetID)
	}, req.CallerID)
}

func (h *PartyHandler) placeSkipped(c echo.Context) error {
	var req PlaceSkippedRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, APIError{Message: "invalid request body"})
	}
	return h.mutation(c, func() (*models.Session, error) {
		return h.game.PlaceSkippedPlayer(c.Request().Context(), c.Param("code"), req.CallerID, req.SkippedID, req.AfterID)
	}, req.CallerID)
}

func (h *PartyHandler) voteToSkipCzar(c echo.Context) error {
	var req ParticipantActionRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, APIError{Message: "invalid request body"})
	}
	return h.mutation(c, func() (*models.Session, error) {
		return h.game.VoteToSkipCzar(c.Request().Context(), c.Param("code"), req.CallerID)
	}, req.CallerID)
}

func (h *PartyHandler) skipCzar(c echo.Context) error {
	var req ParticipantActionRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, APIError{Message: "invalid request body"})
	}
	return h.mutation(c, func() (*models.Session, error) {
		return h.game.SkipCzar(c.Request().Context(), c.Param("code"), req.CallerID)
	}, req.CallerID)
}

func (h *PartyHandler) togglePause(c echo.Context) error {
	var req TargetActionRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, APIError{Message: "invalid request body"})
	}
	return h.mutation(c, func() (*models.Session, error) {
		return h.game.TogglePlayerPause(c.Request().Context(), c.Param("code"), req.CallerID, req.TargetID)
	}, req.CallerID)
}

func (h *PartyHandler) transferHost(c echo.Context) error {
	var req TransferHostRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, APIError{Message: "invalid request body"})
	}
	return h.mutation(c, func() (*models.Session, error) {
		return h.game.TransferHost(c.Request().Context(), c.Param("code"), req.CallerID, req.NewHostID, req.RemoveOld)
	}, req.CallerID)
}

func (h *PartyHandler) reshuffle(c echo.Context) error {
	var req ParticipantActionRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, APIError{Message: "invalid request body"})
	}
	return h.mutation(c, func() (*models.Session, error) {
		return h.game.ReshuffleDiscardPile(c.Request().Context(), c.Param("code"), req.CallerID)
	}, req.CallerID)
}

func (h *PartyHandler) submit(c echo.Context) error {
	var req SubmitRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, APIError{Message: "invalid request body"})
	}
	return h.mutation(c, func() (*models.Session, error) {
		return h.game.Submit(c.Request().Context(), c.Param("code"), req.ParticipantID, req.CardIDs)
	}, req.ParticipantID)
}

func (h *PartyHandler) pickWinner(c echo.Context) error {
	var req PickWinnerRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, APIError{Message: "invalid request body"})
	}
	err := h.mutation(c, func() (*models.Session, error) {
		return h.game.PickWinner(c.Request().Context(), c.Param("code"), req.JudgeID, req.SubmissionID)
	}, req.JudgeID)
	if err == nil {
		roundsDecidedTotal.Inc()
	}
	return err
}

func (h *PartyHandler) advanceRound(c echo.Context) error {
	var req ParticipantActionRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, APIError{Message: "invalid request body"})
	}
	return h.mutation(c, func() (*models.Session, error) {
		return h.game.AdvanceRound(c.Request().Context(), c.Param("code"), req.CallerID)
	}, req.CallerID)
}

func (h *PartyHandler) revealSubmissions(c echo.Context) error {
	var req ParticipantActionRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, APIError{Message: "invalid request body"})
	}
	return h.mutation(c, func() (*models.Session, error) {
		return h.game.RevealSubmissions(c.Request().Context(), c.Param("code"), req.CallerID)
	}, req.CallerID)
}

func (h *PartyHandler) deleteSession(c echo.Context) error {
	var req ParticipantActionRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, APIError{Message: "invalid request body"})
	}
	if err := h.game.DeleteSession(c.Request().Context(), c.Param("code"), req.CallerID); err != nil {
		return h.gameError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// mutation runs a state change and responds with the caller's fresh view.
func (h *PartyHandler) mutation(c echo.Context, op func() (*models.Session, error), viewerID uuid.UUID) error {
	sess, err := op()
	if err != nil {
		return h.gameError(c, err)
	}
	view, err := h.projector.Project(c.Request().Context(), sess, viewerID)
	if err != nil {
		return h.gameError(c, err)
	}
	return c.JSON(http.StatusOK, view)
}

// gameError maps an error kind to the HTTP status and records it.
func (h *PartyHandler) gameError(c echo.Context, err error) error {
	kind := models.KindOf(err)
	gameErrorsTotal.WithLabelValues(string(kind)).Inc()
	if kind == models.KindLockContention {
		lockContentionTotal.Inc()
	}
	status := statusForKind(kind)
	if status == http.StatusInternalServerError {
		h.logger.Error("Unhandled game error", zap.Error(err))
		return c.JSON(status, APIError{Message: "internal server error"})
	}
	return c.JSON(status, APIError{Message: err.Error(), Kind: string(kind)})
}

func statusForKind(kind models.ErrorKind) int {
	switch kind {
	case models.KindValidation:
		return http.StatusBadRequest
	case models.KindUnauthorized:
		return http.StatusForbidden
	case models.KindNotFound:
		return http.StatusNotFound
	case models.KindInvalidState, models.KindInsufficientSupply:
		return http.StatusConflict
	case models.KindLockContention:
		return http.StatusLocked
	default:
		return http.StatusInternalServerError
	}
}
