package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/ellison351/gis-web/internal/domain/model"
	"github.com/ellison351/gis-web/internal/usecase"
)

// SessionHandler 地図セッションに対する操作のHTTPハンドラー
type SessionHandler struct {
	sessions usecase.MapSessionUseCase
	logger   *zap.Logger
}

// NewSessionHandler SessionHandlerの新しいインスタンスを作成
func NewSessionHandler(sessions usecase.MapSessionUseCase, logger *zap.Logger) *SessionHandler {
	return &SessionHandler{
		sessions: sessions,
		logger:   logger,
	}
}

// lookup パスの:idからセッションを取り出す。見つからなければレスポンスを書いてnil
func (h *SessionHandler) lookup(c *gin.Context) *usecase.SessionHandle {
	handle, err := h.sessions.GetSession(c.Param("id"))
	if err != nil {
		respondError(c, err)
		return nil
	}
	return handle
}

// CreateSession POST /api/sessions
func (h *SessionHandler) CreateSession(c *gin.Context) {
	handle, err := h.sessions.CreateSession(c.Request.Context())
	if err != nil {
		h.logger.Warn("⚠️ セッションを作成できません", zap.Error(err))
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"session_id": handle.ID,
		"snapshot":   handle.View.Snapshot(),
	})
}

// GetSession GET /api/sessions/:id
func (h *SessionHandler) GetSession(c *gin.Context) {
	handle := h.lookup(c)
	if handle == nil {
		return
	}
	c.JSON(http.StatusOK, handle.View.Snapshot())
}

// CloseSession DELETE /api/sessions/:id
func (h *SessionHandler) CloseSession(c *gin.Context) {
	if err := h.sessions.CloseSession(c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Search POST /api/sessions/:id/search
func (h *SessionHandler) Search(c *gin.Context) {
	var req model.SearchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err)
		return
	}

	handle := h.lookup(c)
	if handle == nil {
		return
	}

	result, err := handle.Session.Search(strings.TrimSpace(req.Keyword))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// ResetSearch POST /api/sessions/:id/search/reset
func (h *SessionHandler) ResetSearch(c *gin.Context) {
	handle := h.lookup(c)
	if handle == nil {
		return
	}
	if err := handle.Session.ResetAllMarkers(); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, handle.View.Snapshot())
}

// ClickMarker POST /api/sessions/:id/markers/:featureId/click
func (h *SessionHandler) ClickMarker(c *gin.Context) {
	handle := h.lookup(c)
	if handle == nil {
		return
	}
	panel, err := handle.Session.ClickMarker(c.Param("featureId"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, panel)
}

// SelectTarget POST /api/sessions/:id/target
func (h *SessionHandler) SelectTarget(c *gin.Context) {
	var req model.SelectTargetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err)
		return
	}

	handle := h.lookup(c)
	if handle == nil {
		return
	}
	if err := handle.Session.SelectTarget(req.FeatureID); err != nil {
		respondError(c, err)
		return
	}

	target, _ := handle.Session.Target()
	c.JSON(http.StatusOK, gin.H{
		"feature_id": req.FeatureID,
		"target":     target,
	})
}

// StartRouting POST /api/sessions/:id/routes
func (h *SessionHandler) StartRouting(c *gin.Context) {
	handle := h.lookup(c)
	if handle == nil {
		return
	}
	req, err := handle.Session.StartRouting(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, req)
}

// ToggleHeat POST /api/sessions/:id/heat/toggle
func (h *SessionHandler) ToggleHeat(c *gin.Context) {
	handle := h.lookup(c)
	if handle == nil {
		return
	}
	visible, err := handle.Session.ToggleHeat()
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, model.HeatToggleResponse{Visible: visible})
}

// CloseStory DELETE /api/sessions/:id/stories/:storyId
func (h *SessionHandler) CloseStory(c *gin.Context) {
	handle := h.lookup(c)
	if handle == nil {
		return
	}
	if err := handle.Session.CloseStory(c.Param("storyId")); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
