package service

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/paulmach/orb"
	"go.uber.org/zap/zaptest"

	"github.com/ellison351/gis-web/internal/domain/model"
)

// fakeMapView 呼び出しを記録するだけのMapView
type fakeMapView struct {
	mu sync.Mutex

	hidden     map[string]bool
	popups     map[string]model.Popup
	openPopup  string
	scales     map[string]float64
	fitted     []orb.Bound
	heat       *model.HeatLayer
	routes     map[model.RouteHandle]model.RouteRequest
	addedRoute []model.RouteRequest
	removed    []model.RouteHandle
	stories    map[string]model.StoryPanel
	button     model.RouteButton
	notices    []model.Notice
	seq        int
}

func newFakeMapView() *fakeMapView {
	return &fakeMapView{
		hidden:  make(map[string]bool),
		popups:  make(map[string]model.Popup),
		scales:  make(map[string]float64),
		routes:  make(map[model.RouteHandle]model.RouteRequest),
		stories: make(map[string]model.StoryPanel),
	}
}

func (v *fakeMapView) ShowMarker(id string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	delete(v.hidden, id)
}

func (v *fakeMapView) HideMarker(id string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.hidden[id] = true
}

func (v *fakeMapView) ShowAllMarkers() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.hidden = make(map[string]bool)
}

func (v *fakeMapView) BindPopup(id string, popup model.Popup) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.popups[id] = popup
}

func (v *fakeMapView) OpenPopup(id string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.openPopup = id
}

func (v *fakeMapView) ScaleMarker(id string, scale float64) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.scales[id] = scale
}

func (v *fakeMapView) FitBounds(b orb.Bound) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.fitted = append(v.fitted, b)
}

func (v *fakeMapView) AddHeatLayer(layer model.HeatLayer) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.heat = &layer
}

func (v *fakeMapView) RemoveHeatLayer() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.heat = nil
}

func (v *fakeMapView) HasHeatLayer() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.heat != nil
}

func (v *fakeMapView) AddRoute(_ context.Context, req model.RouteRequest) model.RouteHandle {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.seq++
	h := model.RouteHandle(fmt.Sprintf("route-%d", v.seq))
	v.routes[h] = req
	v.addedRoute = append(v.addedRoute, req)
	return h
}

func (v *fakeMapView) RemoveRoute(h model.RouteHandle) {
	v.mu.Lock()
	defer v.mu.Unlock()
	delete(v.routes, h)
	v.removed = append(v.removed, h)
}

func (v *fakeMapView) ShowStoryPanel(panel model.StoryPanel) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.stories[panel.ID] = panel
}

func (v *fakeMapView) RemoveStoryPanel(id string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	delete(v.stories, id)
}

func (v *fakeMapView) SetRouteButton(b model.RouteButton) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.button = b
}

func (v *fakeMapView) Notify(level model.NoticeLevel, message string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.notices = append(v.notices, model.Notice{Level: level, Message: message})
}

func (v *fakeMapView) isVisible(id string) bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return !v.hidden[id]
}

func (v *fakeMapView) lastFit() (orb.Bound, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if len(v.fitted) == 0 {
		return orb.Bound{}, false
	}
	return v.fitted[len(v.fitted)-1], true
}

func (v *fakeMapView) routeCount() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return len(v.routes)
}

func (v *fakeMapView) storyCount() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return len(v.stories)
}

// --- テスト用データ ---

var testEpoch = time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)

func chuTombs() []*model.Feature {
	return []*model.Feature{
		{ID: "shizishan", Name: "狮子山楚王陵", Point: orb.Point{117.23, 34.27}},
		{ID: "beidongshan", Name: "北洞山楚王陵", Point: orb.Point{117.25, 34.30}},
	}
}

func heritageSites() []*model.Feature {
	return []*model.Feature{
		{ID: "shizishan", Name: "狮子山楚王陵", Type: model.OptionalString("王陵"), Description: model.OptionalString("西汉第三代楚王刘戊之墓"), Point: orb.Point{117.23, 34.27}},
		{ID: "beidongshan", Name: "北洞山楚王陵", Point: orb.Point{117.25, 34.30}},
		{ID: "guishan", Name: "龟山汉墓", Point: orb.Point{117.10, 34.35}},
		{ID: "museum", Name: "Xuzhou Museum", Point: orb.Point{117.19, 34.25}},
	}
}

func mustStore(t *testing.T, features []*model.Feature) *FeatureStore {
	t.Helper()
	store, err := NewFeatureStore(features)
	if err != nil {
		t.Fatalf("ストア作成に失敗: %v", err)
	}
	return store
}

func newTestSession(t *testing.T, features []*model.Feature) (*MapSession, *fakeMapView, *ManualScheduler) {
	t.Helper()
	view := newFakeMapView()
	sched := NewManualScheduler(testEpoch)
	session := NewMapSession("test-session", mustStore(t, features), view, sched, DefaultSessionConfig(), zaptest.NewLogger(t))
	if err := session.Init(); err != nil {
		t.Fatalf("セッション初期化に失敗: %v", err)
	}
	return session, view, sched
}
