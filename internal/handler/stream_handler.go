package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/ellison351/gis-web/internal/usecase"
)

const (
	writeWait  = 10 * time.Second
	pingPeriod = 30 * time.Second
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// StreamHandler 地図の状態をWebSocketで配信するハンドラー
type StreamHandler struct {
	sessions usecase.MapSessionUseCase
	logger   *zap.Logger
}

// NewStreamHandler StreamHandlerの新しいインスタンスを作成
func NewStreamHandler(sessions usecase.MapSessionUseCase, logger *zap.Logger) *StreamHandler {
	return &StreamHandler{
		sessions: sessions,
		logger:   logger,
	}
}

// Stream GET /api/sessions/:id/ws - 接続直後と変更のたびにスナップショットを送る
func (h *StreamHandler) Stream(c *gin.Context) {
	handle, err := h.sessions.GetSession(c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Warn("⚠️ WebSocketへの切り替えに失敗", zap.Error(err))
		return
	}
	defer conn.Close()

	updates, unsubscribe := handle.View.Subscribe()
	defer unsubscribe()

	// クライアントからの切断を検知する
	disconnected := make(chan struct{})
	go func() {
		defer close(disconnected)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
					h.logger.Debug("WebSocket切断", zap.String("session_id", handle.ID), zap.Error(err))
				}
				return
			}
		}
	}()

	send := func() bool {
		_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := conn.WriteJSON(handle.View.Snapshot()); err != nil {
			h.logger.Debug("スナップショットの送信に失敗", zap.String("session_id", handle.ID), zap.Error(err))
			return false
		}
		return true
	}

	if !send() {
		return
	}

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case _, ok := <-updates:
			if !ok {
				// セッション終了
				_ = conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, "session closed"),
					time.Now().Add(writeWait))
				return
			}
			if !send() {
				return
			}
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return
			}
		case <-disconnected:
			return
		}
	}
}
