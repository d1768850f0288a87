package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/careguardian/careguardian-api/internal/assistant"
)

// AssistantHandler serves symptom checks, first-aid guidance and chat.
// Completions carry their own timeout, so these handlers run on the
// request context rather than reqCtx.
type AssistantHandler struct {
	Assistant *assistant.Service
	Log       zerolog.Logger
}

func NewAssistantHandler(svc *assistant.Service, log zerolog.Logger) *AssistantHandler {
	return &AssistantHandler{Assistant: svc, Log: log}
}

func (h *AssistantHandler) CheckSymptoms(c echo.Context) error {
	var req assistant.SymptomInput
	if err := c.Bind(&req); err != nil {
		return badBody(c)
	}
	res, err := h.Assistant.CheckSymptoms(c.Request().Context(), identity(c).UserID, req)
	if err != nil {
		return respondError(c, h.Log, err)
	}
	return c.JSON(http.StatusCreated, res)
}

func (h *AssistantHandler) SymptomChecks(c echo.Context) error {
	list, err := h.Assistant.SymptomChecks(c.Request().Context(), identity(c).UserID)
	if err != nil {
		return respondError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, list)
}

func (h *AssistantHandler) SymptomCheck(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return respondError(c, h.Log, err)
	}
	check, err := h.Assistant.SymptomCheck(c.Request().Context(), identity(c).UserID, id)
	if err != nil {
		return respondError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, check)
}

type situationReq struct {
	Situation string `json:"situation"`
}

// FirstAid is public.
func (h *AssistantHandler) FirstAid(c echo.Context) error {
	var req situationReq
	if err := c.Bind(&req); err != nil {
		return badBody(c)
	}
	g, err := h.Assistant.FirstAidGuidance(c.Request().Context(), req.Situation)
	if err != nil {
		return respondError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, g)
}

func (h *AssistantHandler) ChatHistory(c echo.Context) error {
	msgs, err := h.Assistant.History(c.Request().Context(), identity(c).UserID)
	if err != nil {
		return respondError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, msgs)
}

type chatReq struct {
	Message string `json:"message"`
}

func (h *AssistantHandler) ChatMessage(c echo.Context) error {
	var req chatReq
	if err := c.Bind(&req); err != nil {
		return badBody(c)
	}
	turn, err := h.Assistant.Chat(c.Request().Context(), identity(c).UserID, req.Message)
	if err != nil {
		return respondError(c, h.Log, err)
	}
	return c.JSON(http.StatusCreated, turn)
}
