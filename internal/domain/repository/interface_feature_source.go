package repository

import (
	"context"

	"github.com/ellison351/gis-web/internal/domain/model"
)

// FeatureSource 遺跡データの読み込み元。セッション開始前に一度だけ呼ばれる
type FeatureSource interface {
	// Load 全遺跡をロード順に返す。失敗時は *model.LoadError を返し、部分的な結果は返さない
	Load(ctx context.Context) ([]*model.Feature, error)
	// Name ログ・エラー表示用のソース名
	Name() string
}
