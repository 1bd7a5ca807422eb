package repository

import (
	"context"
	"fmt"

	"cloud.google.com/go/firestore"
	"github.com/paulmach/orb"

	"github.com/ellison351/gis-web/internal/domain/model"
	"github.com/ellison351/gis-web/internal/domain/repository"
)

// FirestoreSitesRepository Firestoreのコレクションから遺跡を読む
type FirestoreSitesRepository struct {
	client     *firestore.Client
	collection string
}

// NewFirestoreSitesRepository 新しいFirestoreSitesRepositoryインスタンスを作成
func NewFirestoreSitesRepository(client *firestore.Client, collection string) repository.FeatureSource {
	if collection == "" {
		collection = "sites"
	}
	return &FirestoreSitesRepository{
		client:     client,
		collection: collection,
	}
}

func (r *FirestoreSitesRepository) Name() string {
	return "firestore:" + r.collection
}

// firestoreSite Firestoreに保存された遺跡ドキュメント
type firestoreSite struct {
	Name        string  `firestore:"name"`
	Type        string  `firestore:"type"`
	Description string  `firestore:"description"`
	Image       string  `firestore:"image"`
	Lat         float64 `firestore:"lat"`
	Lng         float64 `firestore:"lng"`
	Order       int     `firestore:"order"`
}

func (s firestoreSite) toRecord(docID string) siteRecord {
	return siteRecord{
		ID:          docID,
		Name:        s.Name,
		Type:        s.Type,
		Description: s.Description,
		Image:       s.Image,
		Point:       orb.Point{s.Lng, s.Lat},
	}
}

// Load orderフィールドの昇順で全遺跡を取得する
func (r *FirestoreSitesRepository) Load(ctx context.Context) ([]*model.Feature, error) {
	docs, err := r.client.Collection(r.collection).OrderBy("order", firestore.Asc).Documents(ctx).GetAll()
	if err != nil {
		return nil, model.NewLoadError(r.Name(), fmt.Errorf("遺跡ドキュメントの取得に失敗: %w", err))
	}

	records := make([]siteRecord, 0, len(docs))
	for _, doc := range docs {
		var site firestoreSite
		if err := doc.DataTo(&site); err != nil {
			return nil, model.NewLoadError(r.Name(), fmt.Errorf("ドキュメント %s の変換に失敗: %w", doc.Ref.ID, err))
		}
		records = append(records, site.toRecord(doc.Ref.ID))
	}

	features, err := recordsToFeatures(records)
	if err != nil {
		return nil, model.NewLoadError(r.Name(), err)
	}
	return features, nil
}
