package firestore

import (
	"context"
	"fmt"
	"os"

	"cloud.google.com/go/firestore"
	"go.uber.org/zap"
	"google.golang.org/api/option"
)

type FirestoreClient struct {
	client *firestore.Client
}

// NewFirestoreClient Firestoreクライアントを作成する。
// 認証情報ファイルがあればそれを使い、なければデフォルト認証にフォールバックする
func NewFirestoreClient(ctx context.Context, projectID, credentialsFile string, logger *zap.Logger) (*FirestoreClient, error) {
	if projectID == "" {
		return nil, fmt.Errorf("FIRESTORE_PROJECT_ID環境変数が設定されていません")
	}

	var opts []option.ClientOption
	switch {
	case os.Getenv("K_SERVICE") != "":
		logger.Info("☁️ Cloud Run環境: デフォルト認証を使用")
	case credentialsFile == "":
		logger.Info("🔑 認証情報ファイルの指定なし: デフォルト認証を使用")
	default:
		if _, err := os.Stat(credentialsFile); err != nil {
			logger.Warn("⚠️ 認証情報ファイルが見つかりません。デフォルト認証を試します", zap.String("file", credentialsFile))
		} else {
			logger.Info("📄 認証情報ファイルを使用", zap.String("file", credentialsFile))
			opts = append(opts, option.WithCredentialsFile(credentialsFile))
		}
	}

	client, err := firestore.NewClient(ctx, projectID, opts...)
	if err != nil {
		return nil, fmt.Errorf("Firestoreクライアントの作成に失敗: %w", err)
	}
	logger.Info("✅ Firestoreクライアント初期化完了", zap.String("project_id", projectID))

	return &FirestoreClient{client: client}, nil
}

func (fc *FirestoreClient) Close() error {
	return fc.client.Close()
}

func (fc *FirestoreClient) GetClient() *firestore.Client {
	return fc.client
}
