package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ellison351/gis-web/internal/domain/model"
	"github.com/ellison351/gis-web/internal/domain/repository"
	"github.com/ellison351/gis-web/internal/domain/service"
	"github.com/ellison351/gis-web/internal/infrastructure/mapview"
)

// MapSettings ブラウザが地図を描くための固定設定
type MapSettings struct {
	Center      model.LatLng `json:"center"`
	Zoom        int          `json:"zoom"`
	TileURL     string       `json:"tile_url"`
	Attribution string       `json:"attribution"`
	Origin      model.LatLng `json:"origin"`
}

// SessionHandle 1つの地図画面に対応するセッションとその表示状態
type SessionHandle struct {
	ID      string
	Session *service.MapSession
	View    *mapview.View
}

// MapSessionUseCase 遺跡データのロードと地図セッションの管理
type MapSessionUseCase interface {
	// LoadSites 遺跡データを一度だけ読み込む。失敗した場合は以後のセッション要求がすべて失敗する
	LoadSites(ctx context.Context) error
	// Sites ロード済みの遺跡
	Sites() ([]*model.Feature, error)
	// Settings 地図の固定設定
	Settings() MapSettings
	CreateSession(ctx context.Context) (*SessionHandle, error)
	GetSession(id string) (*SessionHandle, error)
	CloseSession(id string) error
	// CloseAll 全セッションを閉じる（サーバー停止時）
	CloseAll()
}

// SchedulerFactory セッションごとのSchedulerを作る
type SchedulerFactory func() service.Scheduler

type mapSessionUseCaseImpl struct {
	source     repository.FeatureSource
	directions repository.DirectionsProvider
	settings   MapSettings
	sessionCfg service.SessionConfig
	viewOpts   []mapview.Option
	scheduler  SchedulerFactory
	logger     *zap.Logger

	loadOnce sync.Once

	mu       sync.RWMutex
	store    *service.FeatureStore
	loadErr  error
	sessions map[string]*SessionHandle
}

// NewMapSessionUseCase 新しいMapSessionUseCaseインスタンスを作成。directionsはnilでもよい
func NewMapSessionUseCase(
	source repository.FeatureSource,
	directions repository.DirectionsProvider,
	settings MapSettings,
	sessionCfg service.SessionConfig,
	scheduler SchedulerFactory,
	logger *zap.Logger,
	viewOpts ...mapview.Option,
) MapSessionUseCase {
	if scheduler == nil {
		scheduler = service.NewRealScheduler
	}
	return &mapSessionUseCaseImpl{
		source:     source,
		directions: directions,
		settings:   settings,
		sessionCfg: sessionCfg,
		viewOpts:   viewOpts,
		scheduler:  scheduler,
		logger:     logger,
		sessions:   make(map[string]*SessionHandle),
	}
}

func (u *mapSessionUseCaseImpl) LoadSites(ctx context.Context) error {
	u.loadOnce.Do(func() {
		u.logger.Info("🚀 遺跡データのロード開始", zap.String("source", u.source.Name()))

		store, err := u.load(ctx)
		u.mu.Lock()
		u.store, u.loadErr = store, err
		u.mu.Unlock()

		if err != nil {
			u.logger.Error("❌ 遺跡データのロードに失敗", zap.Error(err))
			return
		}
		u.logger.Info("✅ 遺跡データのロード完了", zap.Int("sites", store.Len()))
	})

	u.mu.RLock()
	defer u.mu.RUnlock()
	return u.loadErr
}

// load 失敗はすべてLoadErrorとして返す
func (u *mapSessionUseCaseImpl) load(ctx context.Context) (*service.FeatureStore, error) {
	features, err := u.source.Load(ctx)
	if err != nil {
		var loadErr *model.LoadError
		if !errors.As(err, &loadErr) {
			err = model.NewLoadError(u.source.Name(), err)
		}
		return nil, err
	}

	store, err := service.NewFeatureStore(features)
	if err != nil {
		return nil, model.NewLoadError(u.source.Name(), err)
	}
	return store, nil
}

func (u *mapSessionUseCaseImpl) loadedStore() (*service.FeatureStore, error) {
	u.mu.RLock()
	defer u.mu.RUnlock()
	if u.loadErr != nil {
		return nil, u.loadErr
	}
	if u.store == nil {
		return nil, model.NewLoadError(u.source.Name(), errors.New("遺跡データがまだロードされていません"))
	}
	return u.store, nil
}

func (u *mapSessionUseCaseImpl) Sites() ([]*model.Feature, error) {
	store, err := u.loadedStore()
	if err != nil {
		return nil, err
	}
	return store.All(), nil
}

func (u *mapSessionUseCaseImpl) Settings() MapSettings {
	return u.settings
}

func (u *mapSessionUseCaseImpl) CreateSession(ctx context.Context) (*SessionHandle, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	store, err := u.loadedStore()
	if err != nil {
		return nil, err
	}

	id := uuid.New().String()
	logger := u.logger.Named("session")
	view := mapview.NewView(id, store.All(), u.directions, logger, u.viewOpts...)
	session := service.NewMapSession(id, store, view, u.scheduler(), u.sessionCfg, logger)
	if err := session.Init(); err != nil {
		session.Close()
		view.Close()
		return nil, fmt.Errorf("セッションの初期化に失敗: %w", err)
	}

	handle := &SessionHandle{ID: id, Session: session, View: view}
	u.mu.Lock()
	u.sessions[id] = handle
	total := len(u.sessions)
	u.mu.Unlock()

	u.logger.Info("✅ セッション作成", zap.String("session_id", id), zap.Int("active_sessions", total))
	return handle, nil
}

func (u *mapSessionUseCaseImpl) GetSession(id string) (*SessionHandle, error) {
	u.mu.RLock()
	defer u.mu.RUnlock()
	handle, ok := u.sessions[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", model.ErrSessionNotFound, id)
	}
	return handle, nil
}

func (u *mapSessionUseCaseImpl) CloseSession(id string) error {
	u.mu.Lock()
	handle, ok := u.sessions[id]
	delete(u.sessions, id)
	u.mu.Unlock()

	if !ok {
		return fmt.Errorf("%w: %s", model.ErrSessionNotFound, id)
	}
	handle.Session.Close()
	handle.View.Close()
	return nil
}

func (u *mapSessionUseCaseImpl) CloseAll() {
	u.mu.Lock()
	handles := make([]*SessionHandle, 0, len(u.sessions))
	for id, h := range u.sessions {
		handles = append(handles, h)
		delete(u.sessions, id)
	}
	u.mu.Unlock()

	for _, h := range handles {
		h.Session.Close()
		h.View.Close()
	}
	if len(handles) > 0 {
		u.logger.Info("👋 全セッションを終了", zap.Int("sessions", len(handles)))
	}
}
