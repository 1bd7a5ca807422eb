package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/ellison351/gis-web/internal/usecase"
)

// NewRouter APIのルーティングを設定したginエンジンを作成
func NewRouter(sessions usecase.MapSessionUseCase, logger *zap.Logger, debug bool) *gin.Engine {
	if !debug {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	if debug {
		r.Use(gin.Logger())
	} else {
		r.Use(requestLogger(logger))
	}
	r.Use(gin.CustomRecovery(func(c *gin.Context, recovered interface{}) {
		logger.Error("❌ ハンドラーでpanicが発生", zap.Any("panic", recovered), zap.String("path", c.Request.URL.Path))
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal_error", "message": "サーバー内部でエラーが発生しました"})
	}))

	sitesHandler := NewSitesHandler(sessions, logger.Named("sites"))
	sessionHandler := NewSessionHandler(sessions, logger.Named("session"))
	streamHandler := NewStreamHandler(sessions, logger.Named("stream"))

	api := r.Group("/api")
	{
		api.GET("/health", sitesHandler.Health)
		api.GET("/sites", sitesHandler.GetSites)
		api.GET("/settings", sitesHandler.GetSettings)

		s := api.Group("/sessions")
		s.POST("", sessionHandler.CreateSession)
		s.GET("/:id", sessionHandler.GetSession)
		s.DELETE("/:id", sessionHandler.CloseSession)
		s.GET("/:id/ws", streamHandler.Stream)
		s.POST("/:id/search", sessionHandler.Search)
		s.POST("/:id/search/reset", sessionHandler.ResetSearch)
		s.POST("/:id/markers/:featureId/click", sessionHandler.ClickMarker)
		s.POST("/:id/target", sessionHandler.SelectTarget)
		s.POST("/:id/routes", sessionHandler.StartRouting)
		s.POST("/:id/heat/toggle", sessionHandler.ToggleHeat)
		s.DELETE("/:id/stories/:storyId", sessionHandler.CloseStory)
	}

	return r
}

// requestLogger リクエストごとにzapで1行記録する
func requestLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Int("status", status),
			zap.Duration("latency", time.Since(start)),
		}
		if status >= 500 {
			logger.Error("❌ リクエスト失敗", fields...)
			return
		}
		logger.Debug("リクエスト完了", fields...)
	}
}
