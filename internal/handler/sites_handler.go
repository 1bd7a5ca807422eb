package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/ellison351/gis-web/internal/infrastructure/geodata"
	"github.com/ellison351/gis-web/internal/usecase"
)

// SitesHandler 遺跡データと地図設定のHTTPハンドラー
type SitesHandler struct {
	sessions usecase.MapSessionUseCase
	logger   *zap.Logger
}

// NewSitesHandler SitesHandlerの新しいインスタンスを作成
func NewSitesHandler(sessions usecase.MapSessionUseCase, logger *zap.Logger) *SitesHandler {
	return &SitesHandler{
		sessions: sessions,
		logger:   logger,
	}
}

// Health GET /api/health
func (h *SitesHandler) Health(c *gin.Context) {
	status := "healthy"
	if _, err := h.sessions.Sites(); err != nil {
		status = "degraded"
	}
	c.JSON(http.StatusOK, gin.H{
		"status":  status,
		"service": "gis-web",
	})
}

// GetSites GET /api/sites - ロード済みの遺跡をGeoJSONで返す
func (h *SitesHandler) GetSites(c *gin.Context) {
	sites, err := h.sessions.Sites()
	if err != nil {
		respondError(c, err)
		return
	}

	data, err := geodata.EncodeSites(sites)
	if err != nil {
		h.logger.Error("❌ GeoJSONの生成に失敗", zap.Error(err))
		respondError(c, err)
		return
	}
	c.Data(http.StatusOK, "application/geo+json", data)
}

// GetSettings GET /api/settings - 地図の初期表示設定
func (h *SitesHandler) GetSettings(c *gin.Context) {
	c.JSON(http.StatusOK, h.sessions.Settings())
}
