package ai

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/ellison351/gis-web/internal/domain/model"
	"github.com/ellison351/gis-web/internal/domain/repository"
)

// geminiNarrativeRepository はGemini APIを使用してNarrativeRepositoryを実装
type geminiNarrativeRepository struct {
	client   *GeminiClient
	fallback string
	logger   *zap.Logger
}

// NewGeminiNarrativeRepository は新しいgeminiNarrativeRepositoryインスタンスを作成。
// fallbackが空なら既定の物語文を使う
func NewGeminiNarrativeRepository(client *GeminiClient, fallback string, logger *zap.Logger) repository.NarrativeRepository {
	if fallback == "" {
		fallback = model.DefaultNarrative
	}
	return &geminiNarrativeRepository{
		client:   client,
		fallback: fallback,
		logger:   logger,
	}
}

// GenerateNarrative は遺跡の物語文を生成する。API呼び出しに失敗した場合は既定の物語文を返す
func (g *geminiNarrativeRepository) GenerateNarrative(ctx context.Context, feature *model.Feature) (string, error) {
	g.logger.Info("🤖 Gemini APIで物語文を生成中...", zap.String("site", feature.Name))

	content, err := g.client.GenerateContent(ctx, g.buildNarrativePrompt(feature))
	if err != nil {
		if ctx.Err() != nil {
			return "", fmt.Errorf("物語文の生成を中断: %w", ctx.Err())
		}
		g.logger.Warn("❌ 物語文の生成に失敗。既定の物語文を使用", zap.String("site", feature.Name), zap.Error(err))
		return g.fallback, nil
	}

	narrative := parseNarrative(content)
	if narrative == "" {
		g.logger.Warn("⚠️ 空の物語文が返されました。既定の物語文を使用", zap.String("site", feature.Name))
		return g.fallback, nil
	}

	g.logger.Info("✅ 物語文生成完了", zap.String("site", feature.Name), zap.Int("runes", len([]rune(narrative))))
	return narrative, nil
}

// buildNarrativePrompt は遺跡1件分のプロンプトを構築
func (g *geminiNarrativeRepository) buildNarrativePrompt(feature *model.Feature) string {
	siteType := feature.GetType()
	if siteType == "" {
		siteType = "汉代遗址"
	}

	return fmt.Sprintf(`请为徐州的一处汉代文化遗址写一段导览短文：

【遗址】
名称: %s
类型: %s
坐标: %.5f, %.5f

【要求】
- 60到120个汉字
- 语气古朴，带有"汉风"意境
- 只写史实可考的内容，不要编造人物或年代
- 不要标题，不要分段

请直接输出短文。`,
		feature.Name,
		siteType,
		feature.Point.Lat(),
		feature.Point.Lon())
}
