package usecase

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/ellison351/gis-web/internal/domain/model"
	"github.com/ellison351/gis-web/internal/domain/repository"
)

// EnrichResult 物語文補完の結果
type EnrichResult struct {
	Sites     []*model.Feature
	Generated int
	Skipped   int
}

// EnrichUseCase 説明文のない遺跡に物語文を補う
type EnrichUseCase interface {
	Enrich(ctx context.Context) (*EnrichResult, error)
}

type enrichUseCaseImpl struct {
	source    repository.FeatureSource
	narrative repository.NarrativeRepository
	logger    *zap.Logger
}

// NewEnrichUseCase 新しいEnrichUseCaseインスタンスを作成
func NewEnrichUseCase(source repository.FeatureSource, narrative repository.NarrativeRepository, logger *zap.Logger) EnrichUseCase {
	return &enrichUseCaseImpl{
		source:    source,
		narrative: narrative,
		logger:    logger,
	}
}

// Enrich 遺跡を読み込み、説明文のない遺跡だけ物語文を生成する。元の遺跡は変更しない
func (u *enrichUseCaseImpl) Enrich(ctx context.Context) (*EnrichResult, error) {
	features, err := u.source.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("遺跡データのロードに失敗: %w", err)
	}

	result := &EnrichResult{Sites: make([]*model.Feature, 0, len(features))}
	for _, f := range features {
		site := *f
		if site.HasDescription() {
			result.Skipped++
			result.Sites = append(result.Sites, &site)
			continue
		}

		narrative, err := u.narrative.GenerateNarrative(ctx, f)
		if err != nil {
			return nil, fmt.Errorf("遺跡 %s の物語文生成に失敗: %w", f.Name, err)
		}
		site.Description = model.OptionalString(narrative)
		result.Generated++
		result.Sites = append(result.Sites, &site)
	}

	u.logger.Info("✅ 物語文の補完完了",
		zap.Int("generated", result.Generated),
		zap.Int("skipped", result.Skipped))
	return result, nil
}
