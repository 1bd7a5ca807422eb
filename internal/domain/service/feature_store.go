package service

import (
	"fmt"

	"github.com/paulmach/orb"

	"github.com/ellison351/gis-web/internal/domain/model"
)

// FeatureStore ロード済みの遺跡をロード順に保持する。生成後は不変
type FeatureStore struct {
	features []*model.Feature
	index    map[string]int
}

// NewFeatureStore 遺跡の並びからFeatureStoreを作成する。IDの重複はエラー
func NewFeatureStore(features []*model.Feature) (*FeatureStore, error) {
	s := &FeatureStore{
		features: make([]*model.Feature, 0, len(features)),
		index:    make(map[string]int, len(features)),
	}
	for _, f := range features {
		if f == nil {
			continue
		}
		if _, dup := s.index[f.ID]; dup {
			return nil, fmt.Errorf("遺跡IDが重複しています: %s", f.ID)
		}
		s.index[f.ID] = len(s.features)
		s.features = append(s.features, f)
	}
	return s, nil
}

// Len 遺跡数
func (s *FeatureStore) Len() int {
	return len(s.features)
}

// IsEmpty 遺跡が1件もないか
func (s *FeatureStore) IsEmpty() bool {
	return len(s.features) == 0
}

// All 全遺跡のコピーをロード順に返す
func (s *FeatureStore) All() []*model.Feature {
	out := make([]*model.Feature, len(s.features))
	copy(out, s.features)
	return out
}

// First ロード順で最初の遺跡
func (s *FeatureStore) First() (*model.Feature, bool) {
	if len(s.features) == 0 {
		return nil, false
	}
	return s.features[0], true
}

// Get IDで遺跡を引く
func (s *FeatureStore) Get(id string) (*model.Feature, error) {
	i, ok := s.index[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", model.ErrFeatureNotFound, id)
	}
	return s.features[i], nil
}

// Bound 全遺跡を含む範囲。空ならfalse
func (s *FeatureStore) Bound() (orb.Bound, bool) {
	return boundOf(s.features)
}

// boundOf 遺跡群を含む最小の範囲
func boundOf(features []*model.Feature) (orb.Bound, bool) {
	if len(features) == 0 {
		return orb.Bound{}, false
	}
	points := make(orb.MultiPoint, 0, len(features))
	for _, f := range features {
		points = append(points, f.Point)
	}
	return points.Bound(), true
}
