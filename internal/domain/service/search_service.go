package service

import (
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/ellison351/gis-web/internal/domain/model"
	"github.com/ellison351/gis-web/internal/domain/repository"
)

// EmphasisConfig 検索結果の先頭マーカーを一時的に拡大する設定
type EmphasisConfig struct {
	Scale    float64
	Duration time.Duration
}

// searchView 検索が使う地図側の機能
type searchView interface {
	repository.MarkerLayer
	repository.Notifier
}

// SearchService マーカーの検索・絞り込み・強調表示
type SearchService struct {
	store     *FeatureStore
	view      searchView
	scheduler Scheduler
	emphasis  EmphasisConfig
	logger    *zap.Logger

	emphasisTask Task
	emphasized   string
}

// NewSearchService 新しいSearchServiceを作成
func NewSearchService(store *FeatureStore, view searchView, scheduler Scheduler, emphasis EmphasisConfig, logger *zap.Logger) *SearchService {
	return &SearchService{
		store:     store,
		view:      view,
		scheduler: scheduler,
		emphasis:  emphasis,
		logger:    logger,
	}
}

// MatchesKeyword 遺跡名がキーワードを大文字小文字を区別せず含むか。空キーワードは全件一致
func MatchesKeyword(name, keyword string) bool {
	return strings.Contains(strings.ToLower(name), strings.ToLower(keyword))
}

// Search キーワードで全遺跡を一致・不一致に分け、表示を更新する
func (s *SearchService) Search(keyword string) model.MatchResult {
	result := model.MatchResult{Keyword: keyword, Matches: []string{}, Hidden: []string{}}

	if s.store.IsEmpty() {
		s.logger.Warn("⚠️ 遺跡データが空のため検索をスキップ", zap.String("keyword", keyword))
		return result
	}

	var matched []*model.Feature
	for _, f := range s.store.All() {
		if MatchesKeyword(f.Name, keyword) {
			matched = append(matched, f)
			result.Matches = append(result.Matches, f.ID)
		} else {
			result.Hidden = append(result.Hidden, f.ID)
		}
	}

	if len(matched) == 0 {
		s.logger.Info("❌ 検索結果なし", zap.String("keyword", keyword))
		s.view.Notify(model.NoticeWarn, fmt.Sprintf(model.SearchMissNoticeFmt, keyword))
		s.ResetAllMarkers()
		return result
	}

	for _, id := range result.Matches {
		s.view.ShowMarker(id)
	}
	for _, id := range result.Hidden {
		s.view.HideMarker(id)
	}

	bound, _ := boundOf(matched)
	bounds := model.BoundsFromOrb(bound)
	result.Bounds = &bounds
	s.view.FitBounds(bound)

	first := matched[0]
	s.view.OpenPopup(first.ID)
	s.emphasize(first.ID)

	s.logger.Info("✅ 検索完了",
		zap.String("keyword", keyword),
		zap.Int("matches", len(matched)))
	return result
}

// ResetAllMarkers 全マーカーを再表示し、全遺跡の範囲に表示を合わせる。何度呼んでも結果は同じ
func (s *SearchService) ResetAllMarkers() {
	s.view.ShowAllMarkers()
	if bound, ok := s.store.Bound(); ok {
		s.view.FitBounds(bound)
	}
	s.logger.Debug("✅ 全遺跡を再表示")
}

// EmphasisArmed 強調表示の戻しタイマーが発火待ちか
func (s *SearchService) EmphasisArmed() bool {
	return s.emphasisTask != nil && s.emphasisTask.Armed()
}

// Stop 発火待ちの強調戻しタイマーを止める
func (s *SearchService) Stop() {
	if s.emphasisTask != nil {
		s.emphasisTask.Cancel()
	}
}

// emphasize 先頭マーカーを拡大し、一定時間後に元に戻す。
// 発火待ちの戻しタイマーは取り消し、別のマーカーが拡大中ならすぐ元に戻す
func (s *SearchService) emphasize(featureID string) {
	if s.EmphasisArmed() {
		s.emphasisTask.Cancel()
		if s.emphasized != featureID {
			s.view.ScaleMarker(s.emphasized, 1)
		}
	}
	s.emphasized = featureID
	s.view.ScaleMarker(featureID, s.emphasis.Scale)
	s.emphasisTask = s.scheduler.AfterFunc(s.emphasis.Duration, func() {
		s.view.ScaleMarker(featureID, 1)
	})
}
