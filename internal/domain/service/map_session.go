package service

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/ellison351/gis-web/internal/domain/helper"
	"github.com/ellison351/gis-web/internal/domain/model"
	"github.com/ellison351/gis-web/internal/domain/repository"
)

// SessionConfig セッションの固定設定
type SessionConfig struct {
	Origin           model.LatLng
	LineStyle        model.LineStyle
	Emphasis         EmphasisConfig
	StoryDuration    time.Duration
	DefaultNarrative string
	HeatOptions      model.HeatOptions
}

// DefaultSessionConfig 既定のセッション設定（起点は中国矿业大学南湖校区）
func DefaultSessionConfig() SessionConfig {
	return SessionConfig{
		Origin:           model.LatLng{Lat: 34.214571, Lng: 117.14509},
		LineStyle:        model.LineStyle{Color: model.RouteLineColor, Weight: model.RouteLineWeight},
		Emphasis:         EmphasisConfig{Scale: 1.6, Duration: 2 * time.Second},
		StoryDuration:    5 * time.Second,
		DefaultNarrative: model.DefaultNarrative,
		HeatOptions:      model.DefaultHeatOptions(),
	}
}

// MapSession 1つのブラウザ画面に対応するUIセッション。
// 全操作とタイマーのコールバックは1つのロックで直列化される
type MapSession struct {
	id     string
	mu     sync.Mutex
	closed bool

	store  *FeatureStore
	view   repository.MapView
	logger *zap.Logger

	selection *TargetSelection
	search    *SearchService
	routing   *RoutingController
	story     *StoryPanelController
	heat      *HeatLayerToggle
}

// NewMapSession セッションを組み立てる。表示の初期化はInitで行う
func NewMapSession(id string, store *FeatureStore, view repository.MapView, scheduler Scheduler, cfg SessionConfig, logger *zap.Logger) *MapSession {
	s := &MapSession{
		id:     id,
		store:  store,
		view:   view,
		logger: logger.With(zap.String("session_id", id)),
	}
	sched := serializedScheduler{inner: scheduler, guard: s.guard}

	s.selection = NewTargetSelection(view, s.logger.Named("selection"))
	s.search = NewSearchService(store, view, sched, cfg.Emphasis, s.logger.Named("search"))
	s.routing = NewRoutingController(store, s.selection, view, cfg.Origin, cfg.LineStyle, s.logger.Named("routing"))
	s.story = NewStoryPanelController(view, sched, cfg.StoryDuration, cfg.DefaultNarrative, s.logger.Named("story"))
	s.heat = NewHeatLayerToggle(view, store, cfg.HeatOptions)
	return s
}

// ID セッションID
func (s *MapSession) ID() string {
	return s.id
}

// Init マーカー・ポップアップ・ヒートレイヤーを配置し、全遺跡が収まるよう表示を合わせる
func (s *MapSession) Init() error {
	return s.run(func() error {
		for _, f := range s.store.All() {
			s.view.BindPopup(f.ID, helper.BuildPopup(f))
		}
		s.view.ShowAllMarkers()
		s.heat.Attach()
		if bound, ok := s.store.Bound(); ok {
			s.view.FitBounds(bound)
		}
		s.view.SetRouteButton(model.RouteButton{Enabled: false, Label: model.RouteButtonIdle})
		s.logger.Info("✅ 地図の初期化完了", zap.Int("sites", s.store.Len()))
		return nil
	})
}

// Search キーワード検索
func (s *MapSession) Search(keyword string) (model.MatchResult, error) {
	var result model.MatchResult
	err := s.run(func() error {
		result = s.search.Search(keyword)
		return nil
	})
	return result, err
}

// ResetAllMarkers 全マーカーを再表示
func (s *MapSession) ResetAllMarkers() error {
	return s.run(func() error {
		s.search.ResetAllMarkers()
		return nil
	})
}

// ClickMarker マーカーのクリック。終点を選び、ポップアップを開き、物語パネルを出す
func (s *MapSession) ClickMarker(featureID string) (model.StoryPanel, error) {
	var panel model.StoryPanel
	err := s.run(func() error {
		f, err := s.store.Get(featureID)
		if err != nil {
			return err
		}
		s.selection.Select(f.ToLatLng())
		s.view.OpenPopup(f.ID)
		panel = s.story.StartStoryMode(f)
		return nil
	})
	return panel, err
}

// SelectTarget ポップアップの終点選択ボタン
func (s *MapSession) SelectTarget(featureID string) error {
	return s.run(func() error {
		f, err := s.store.Get(featureID)
		if err != nil {
			return err
		}
		s.selection.Select(f.ToLatLng())
		return nil
	})
}

// StartRouting ナビゲーション開始ボタン
func (s *MapSession) StartRouting(ctx context.Context) (*model.RouteRequest, error) {
	var req *model.RouteRequest
	err := s.run(func() error {
		var err error
		req, err = s.routing.StartRouting(ctx)
		return err
	})
	return req, err
}

// CloseStory 物語パネルの「合卷」ボタン
func (s *MapSession) CloseStory(panelID string) error {
	return s.run(func() error {
		return s.story.Close(panelID)
	})
}

// ToggleHeat ヒートレイヤーの表示切替。切替後の表示状態を返す
func (s *MapSession) ToggleHeat() (bool, error) {
	var visible bool
	err := s.run(func() error {
		visible = s.heat.Toggle()
		return nil
	})
	return visible, err
}

// Target 現在の終点
func (s *MapSession) Target() (model.LatLng, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.selection.Target()
}

// ActiveRoute 現在のルートハンドル
func (s *MapSession) ActiveRoute() (model.RouteHandle, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.routing.ActiveRoute()
}

// OpenStories 表示中の物語パネル
func (s *MapSession) OpenStories() []model.StoryPanel {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.story.OpenPanels()
}

// ArmedTimers 発火待ちのタイマー数（物語パネル＋強調表示）
func (s *MapSession) ArmedTimers() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := s.story.ArmedTimers()
	if s.search.EmphasisArmed() {
		n++
	}
	return n
}

// Close セッションを終了し、タイマーを止めてルートを取り除く
func (s *MapSession) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	s.search.Stop()
	s.story.Stop()
	s.routing.Teardown()
	s.logger.Info("👋 セッション終了")
}

func (s *MapSession) run(fn func() error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return model.ErrSessionClosed
	}
	return fn()
}

// guard タイマーのコールバックをセッションのロック下で実行する。終了後は何もしない
func (s *MapSession) guard(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	fn()
}
