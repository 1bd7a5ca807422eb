package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/paulmach/orb"

	"github.com/ellison351/gis-web/internal/domain/model"
	"github.com/ellison351/gis-web/internal/domain/repository"
	"github.com/ellison351/gis-web/internal/infrastructure/database"
)

// SupabaseSitesRepository SupabaseのRESTエンドポイントから遺跡を読む
type SupabaseSitesRepository struct {
	client *database.SupabaseClient
	table  string
}

func NewSupabaseSitesRepository(client *database.SupabaseClient, table string) repository.FeatureSource {
	if table == "" {
		table = "sites"
	}
	return &SupabaseSitesRepository{
		client: client,
		table:  table,
	}
}

func (r *SupabaseSitesRepository) Name() string {
	return "supabase:" + r.table
}

// supabaseSiteRow sitesテーブルの1行。idは数値でも文字列でもよい
type supabaseSiteRow struct {
	ID          json.RawMessage `json:"id"`
	Name        string          `json:"name"`
	Type        *string         `json:"type"`
	Description *string         `json:"description"`
	Image       *string         `json:"image"`
	Lng         float64         `json:"lng"`
	Lat         float64         `json:"lat"`
}

// Load 全遺跡を取得する。PostgRESTのクエリはコンテキストを受け取らない
func (r *SupabaseSitesRepository) Load(ctx context.Context) ([]*model.Feature, error) {
	if err := ctx.Err(); err != nil {
		return nil, model.NewLoadError(r.Name(), err)
	}
	data, count, err := r.client.GetClient().From(r.table).Select("id,name,type,description,image,lng,lat", "exact", false).Execute()
	if err != nil {
		return nil, model.NewLoadError(r.Name(), fmt.Errorf("遺跡データの取得失敗: %w", err))
	}

	features, err := decodeSupabaseSites(data)
	if err != nil {
		return nil, model.NewLoadError(r.Name(), err)
	}
	if count > 0 && int(count) != len(features) {
		return nil, model.NewLoadError(r.Name(), fmt.Errorf("遺跡データが一部しか取得できませんでした (%d/%d)", len(features), count))
	}
	return features, nil
}

func decodeSupabaseSites(data []byte) ([]*model.Feature, error) {
	var rows []supabaseSiteRow
	if err := json.Unmarshal(data, &rows); err != nil {
		return nil, fmt.Errorf("遺跡データのJSONアンマーシャル失敗: %w", err)
	}

	records := make([]siteRecord, 0, len(rows))
	for _, row := range rows {
		records = append(records, siteRecord{
			ID:          rawID(row.ID),
			Name:        row.Name,
			Type:        derefString(row.Type),
			Description: derefString(row.Description),
			Image:       derefString(row.Image),
			Point:       orb.Point{row.Lng, row.Lat},
		})
	}
	return recordsToFeatures(records)
}

func rawID(raw json.RawMessage) string {
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return string(raw)
}

func derefString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
