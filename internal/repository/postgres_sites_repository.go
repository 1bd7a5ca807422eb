package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/ellison351/gis-web/internal/domain/model"
	"github.com/ellison351/gis-web/internal/domain/repository"
	"github.com/ellison351/gis-web/internal/infrastructure/database"
)

// PostgresSitesRepository PostGISのテーブルから遺跡を読む
type PostgresSitesRepository struct {
	client *database.PostgreSQLClient
	table  string
}

func NewPostgresSitesRepository(client *database.PostgreSQLClient, table string) (repository.FeatureSource, error) {
	if table == "" {
		table = "sites"
	}
	if !validTableName(table) {
		return nil, fmt.Errorf("不正なテーブル名です: %q", table)
	}
	return &PostgresSitesRepository{
		client: client,
		table:  table,
	}, nil
}

func (r *PostgresSitesRepository) Name() string {
	return "postgres:" + r.table
}

// SiteResult PostGISクエリの結果を受け取るための構造体
type SiteResult struct {
	ID          string
	Name        sql.NullString
	Type        sql.NullString
	Description sql.NullString
	Image       sql.NullString
	Location    string
}

func (sr *SiteResult) toRecord() (siteRecord, error) {
	point, err := ParseGeoPoint(sr.Location)
	if err != nil {
		return siteRecord{}, fmt.Errorf("遺跡 %s: %w", sr.ID, err)
	}
	return siteRecord{
		ID:          sr.ID,
		Name:        sr.Name.String,
		Type:        sr.Type.String,
		Description: sr.Description.String,
		Image:       sr.Image.String,
		Point:       point,
	}, nil
}

// Load 全遺跡を表示順に取得する
func (r *PostgresSitesRepository) Load(ctx context.Context) ([]*model.Feature, error) {
	query := fmt.Sprintf(`SELECT id::text, name, type, description, image, ST_AsGeoJSON(location)
		FROM %s ORDER BY sort_order NULLS LAST, id`, r.table)

	rows, err := r.client.DB.QueryContext(ctx, query)
	if err != nil {
		return nil, model.NewLoadError(r.Name(), fmt.Errorf("遺跡データの取得失敗: %w", err))
	}
	defer rows.Close()

	var records []siteRecord
	for rows.Next() {
		var result SiteResult
		if err := rows.Scan(&result.ID, &result.Name, &result.Type, &result.Description, &result.Image, &result.Location); err != nil {
			return nil, model.NewLoadError(r.Name(), fmt.Errorf("遺跡データスキャンエラー: %w", err))
		}
		record, err := result.toRecord()
		if err != nil {
			return nil, model.NewLoadError(r.Name(), err)
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, model.NewLoadError(r.Name(), fmt.Errorf("遺跡データの読み取り失敗: %w", err))
	}

	features, err := recordsToFeatures(records)
	if err != nil {
		return nil, model.NewLoadError(r.Name(), err)
	}
	return features, nil
}
