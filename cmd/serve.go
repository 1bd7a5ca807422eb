package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ellison351/gis-web/internal/handler"
	"github.com/ellison351/gis-web/internal/infrastructure/mapview"
	"github.com/ellison351/gis-web/internal/usecase"
)

const (
	loadTimeout     = 30 * time.Second
	shutdownTimeout = 10 * time.Second
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "地図サーバーを起動する",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd.Context())
	},
}

func runServe(parent context.Context) error {
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	source, closeSource, err := buildFeatureSource(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeSource()

	directions := buildDirectionsProvider(cfg, logger)
	settings := usecase.MapSettings{
		Center:      cfg.Map.Center,
		Zoom:        cfg.Map.Zoom,
		TileURL:     cfg.Map.TileURL,
		Attribution: cfg.Map.Attribution,
		Origin:      cfg.Map.Origin,
	}
	sessions := usecase.NewMapSessionUseCase(source, directions, settings, cfg.SessionConfig(), nil,
		logger.Named("sessions"), mapview.WithRouteTimeout(cfg.Routing.Timeout))
	defer sessions.CloseAll()

	loadCtx, cancel := context.WithTimeout(ctx, loadTimeout)
	if err := sessions.LoadSites(loadCtx); err != nil {
		// ロード失敗中もサーバーは起動し、各リクエストに失敗を返す
		logger.Warn("⚠️ 遺跡データなしで起動します", zap.Error(err))
	}
	cancel()

	router := handler.NewRouter(sessions, logger.Named("http"), debug)
	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("🚀 サーバー起動", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			logger.Error("❌ サーバーが停止しました", zap.Error(err))
			return err
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("👋 シャットダウン開始")
	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancelShutdown()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	logger.Info("✅ シャットダウン完了")
	return nil
}
