package main

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/ellison351/gis-web/internal/config"
	"github.com/ellison351/gis-web/internal/domain/repository"
	"github.com/ellison351/gis-web/internal/infrastructure/database"
	"github.com/ellison351/gis-web/internal/infrastructure/firestore"
	"github.com/ellison351/gis-web/internal/infrastructure/geodata"
	"github.com/ellison351/gis-web/internal/infrastructure/maps"
	repoimpl "github.com/ellison351/gis-web/internal/repository"
)

// buildFeatureSource SITES_SOURCEに応じた遺跡データの読み込み元を作る。
// 返す関数で接続を閉じる
func buildFeatureSource(ctx context.Context, cfg *config.Config, logger *zap.Logger) (repository.FeatureSource, func(), error) {
	noop := func() {}

	switch cfg.Sites.Source {
	case config.SourceHTTP:
		return geodata.NewHTTPSource(cfg.Sites.URL), noop, nil

	case config.SourcePostgres:
		client, err := database.NewPostgreSQLClient(ctx, cfg.Database.URL)
		if err != nil {
			return nil, nil, fmt.Errorf("PostgreSQLクライアントの初期化に失敗: %w", err)
		}
		source, err := repoimpl.NewPostgresSitesRepository(client, cfg.Sites.Table)
		if err != nil {
			client.Close()
			return nil, nil, err
		}
		logger.Info("✅ PostgreSQL接続完了")
		return source, func() { _ = client.Close() }, nil

	case config.SourceSupabase:
		client, err := database.NewSupabaseClient(cfg.Supabase.URL, cfg.Supabase.AnonKey)
		if err != nil {
			return nil, nil, fmt.Errorf("Supabaseクライアントの初期化に失敗: %w", err)
		}
		if err := client.HealthCheck(); err != nil {
			logger.Warn("⚠️ Supabaseヘルスチェック失敗", zap.Error(err))
		}
		return repoimpl.NewSupabaseSitesRepository(client, cfg.Sites.Table), noop, nil

	case config.SourceFirestore:
		client, err := firestore.NewFirestoreClient(ctx, cfg.Firestore.ProjectID, cfg.Firestore.CredentialsFile, logger.Named("firestore"))
		if err != nil {
			return nil, nil, fmt.Errorf("Firestoreクライアントの初期化に失敗: %w", err)
		}
		return repoimpl.NewFirestoreSitesRepository(client.GetClient(), cfg.Sites.Table), func() { _ = client.Close() }, nil

	default:
		return geodata.NewFileSource(cfg.Sites.Path), noop, nil
	}
}

// buildDirectionsProvider ROUTING_PROVIDERに応じた経路計算プロバイダを作る。noneならnil
func buildDirectionsProvider(cfg *config.Config, logger *zap.Logger) repository.DirectionsProvider {
	switch cfg.Routing.Provider {
	case config.ProviderGoogle:
		logger.Info("🗺️ Google Directionsで経路計算")
		return maps.NewGoogleDirectionsProvider(cfg.Routing.GoogleAPIKey)
	case config.ProviderNone:
		logger.Info("🗺️ 経路計算はブラウザに任せます")
		return nil
	default:
		logger.Info("🗺️ OSRMで経路計算", zap.String("url", cfg.Routing.OSRMURL))
		return maps.NewOSRMDirectionsProvider(cfg.Routing.OSRMURL, "")
	}
}
