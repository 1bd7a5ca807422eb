package repository

import (
	"context"

	"github.com/ellison351/gis-web/internal/domain/model"
)

// NarrativeRepository 遺跡の物語文を生成する責務を持つリポジトリインターフェース
type NarrativeRepository interface {
	// GenerateNarrative 説明文のない遺跡に物語文を生成する
	GenerateNarrative(ctx context.Context, feature *model.Feature) (string, error)
}
