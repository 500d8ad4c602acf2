package main

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/chatguard/chatguard/automod"
	"github.com/chatguard/chatguard/automod/engine"
	"github.com/chatguard/chatguard/automod/repstore"

	"github.com/carlmjohnson/versioninfo"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	slogecho "github.com/samber/slog-echo"
)

// Input to the offline check, over HTTP or the command line. Chat and user ids are optional.
type CheckRequest struct {
	ChatID        int64  `json:"chat_id,omitempty"`
	UserID        int64  `json:"user_id,omitempty"`
	Text          string `json:"text"`
	Caption       string `json:"caption,omitempty"`
	HasMedia      bool   `json:"has_media,omitempty"`
	FileName      string `json:"file_name,omitempty"`
	OCRText       string `json:"ocr_text,omitempty"`
	SenderIsAdmin bool   `json:"sender_is_admin,omitempty"`
}

type CheckResponse struct {
	automod.Verdict
	Summary string `json:"summary"`
}

type TopResponse struct {
	ChatID int64            `json:"chat_id"`
	Top    []repstore.Score `json:"top"`
}

type ReputationResponse struct {
	ChatID int64 `json:"chat_id"`
	UserID int64 `json:"user_id"`
	Score  int   `json:"score"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// Evaluates a message as a dry run: no flood state is recorded, no counters are persisted, and no actions are taken.
func checkMessage(ctx context.Context, eng *automod.Engine, req CheckRequest, now time.Time) CheckResponse {
	userID := req.UserID
	if userID == 0 {
		userID = 1
	}
	op := automod.MessageOp{
		ChatID:        req.ChatID,
		UserID:        userID,
		SenderIsAdmin: req.SenderIsAdmin,
		Text:          engine.PrimaryText(req.Text, req.Caption),
		HasMedia:      req.HasMedia,
		FileName:      req.FileName,
		OCRText:       req.OCRText,
		Timestamp:     now,
		DryRun:        true,
	}
	v := eng.Evaluate(ctx, op)
	return CheckResponse{Verdict: v, Summary: v.String()}
}

func (s *Server) newAPI() *echo.Echo {
	return NewAPI(s.engine, s.logger)
}

// Builds the HTTP API: message checks plus read-only reputation and activity lookups.
func NewAPI(eng *automod.Engine, logger *slog.Logger) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(slogecho.New(logger.With("system", "api")))
	e.Use(middleware.Recover())
	e.Use(middleware.BodyLimit("1M"))

	h := &apiHandler{engine: eng}
	e.GET("/_health", h.healthz)
	e.POST("/api/check", h.check)
	e.GET("/api/chats/:chat/top", h.top)
	e.GET("/api/chats/:chat/stats", h.stats)
	e.GET("/api/chats/:chat/users/:user/reputation", h.reputation)
	return e
}

type apiHandler struct {
	engine *automod.Engine
}

func (h *apiHandler) healthz(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"status":  "ok",
		"version": versioninfo.Short(),
	})
}

func (h *apiHandler) check(c echo.Context) error {
	var req CheckRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid request body"})
	}
	if req.Text == "" && req.Caption == "" && !req.HasMedia {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "text, caption or media is required"})
	}
	resp := checkMessage(c.Request().Context(), h.engine, req, time.Now())
	apiChecks.WithLabelValues(string(resp.Action)).Inc()
	return c.JSON(http.StatusOK, resp)
}

func (h *apiHandler) top(c echo.Context) error {
	chatID, err := strconv.ParseInt(c.Param("chat"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "bad chat id"})
	}
	if h.engine.Reputation == nil {
		return c.JSON(http.StatusNotFound, errorResponse{Error: "reputation is not enabled"})
	}
	top, err := h.engine.Reputation.Top(c.Request().Context(), chatID, getLimit(c, 1, 10, 100))
	if err != nil {
		slog.Error("reputation top lookup failed", "chat", chatID, "err", err)
		return c.JSON(http.StatusInternalServerError, errorResponse{Error: "oops"})
	}
	if top == nil {
		top = []repstore.Score{}
	}
	return c.JSON(http.StatusOK, TopResponse{ChatID: chatID, Top: top})
}

func (h *apiHandler) stats(c echo.Context) error {
	chatID, err := strconv.ParseInt(c.Param("chat"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "bad chat id"})
	}
	st, err := h.engine.ChatStats(c.Request().Context(), chatID)
	if err != nil {
		slog.Error("chat stats lookup failed", "chat", chatID, "err", err)
		return c.JSON(http.StatusInternalServerError, errorResponse{Error: "oops"})
	}
	return c.JSON(http.StatusOK, st)
}

func (h *apiHandler) reputation(c echo.Context) error {
	chatID, err := strconv.ParseInt(c.Param("chat"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "bad chat id"})
	}
	userID, err := strconv.ParseInt(c.Param("user"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "bad user id"})
	}
	if h.engine.Reputation == nil {
		return c.JSON(http.StatusNotFound, errorResponse{Error: "reputation is not enabled"})
	}
	score, err := h.engine.Reputation.Get(c.Request().Context(), chatID, userID)
	if err != nil {
		slog.Error("reputation lookup failed", "chat", chatID, "user", userID, "err", err)
		return c.JSON(http.StatusInternalServerError, errorResponse{Error: "oops"})
	}
	return c.JSON(http.StatusOK, ReputationResponse{ChatID: chatID, UserID: userID, Score: score})
}

func getLimit(c echo.Context, min, defaultLim, max int) int {
	limstr := c.QueryParam("limit")
	if limstr == "" {
		return defaultLim
	}
	lv, err := strconv.Atoi(limstr)
	if err != nil {
		return defaultLim
	}
	if lv < min {
		return min
	}
	if lv > max {
		return max
	}
	return lv
}
