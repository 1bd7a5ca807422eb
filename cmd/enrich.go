package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ellison351/gis-web/internal/infrastructure/ai"
	"github.com/ellison351/gis-web/internal/infrastructure/geodata"
	"github.com/ellison351/gis-web/internal/usecase"
)

var enrichOut string

var enrichCmd = &cobra.Command{
	Use:   "enrich",
	Short: "説明文のない遺跡にGeminiで物語文を補い、GeoJSONに書き出す",
	RunE: func(cmd *cobra.Command, args []string) error {
		if cfg.Gemini.APIKey == "" {
			return fmt.Errorf("GEMINI_API_KEYが設定されていません")
		}
		ctx := cmd.Context()

		source, closeSource, err := buildFeatureSource(ctx, cfg, logger)
		if err != nil {
			return err
		}
		defer closeSource()

		narrative := ai.NewGeminiNarrativeRepository(ai.NewGeminiClient(cfg.Gemini.APIKey), cfg.Map.DefaultNarrative, logger.Named("gemini"))
		result, err := usecase.NewEnrichUseCase(source, narrative, logger.Named("enrich")).Enrich(ctx)
		if err != nil {
			return err
		}

		data, err := geodata.EncodeSites(result.Sites)
		if err != nil {
			return err
		}
		if err := os.WriteFile(enrichOut, data, 0o644); err != nil {
			return fmt.Errorf("ファイルの書き込みに失敗 (%s): %w", enrichOut, err)
		}

		logger.Info("✅ 書き出し完了", zap.String("out", enrichOut), zap.Int("generated", result.Generated))
		return nil
	},
}

func init() {
	enrichCmd.Flags().StringVar(&enrichOut, "out", "data/sites.enriched.geojson", "出力するGeoJSONファイル")
}
