package mapview

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap/zaptest"

	"github.com/ellison351/gis-web/internal/domain/model"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// stubDirections 結果を返す前にreleaseを待つDirectionsProvider
type stubDirections struct {
	release chan struct{}
	details *model.RouteDetails
	err     error
}

func (s *stubDirections) GetWalkingRoute(ctx context.Context, origin model.LatLng, waypoints ...model.LatLng) (*model.RouteDetails, error) {
	if s.release != nil {
		select {
		case <-s.release:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return s.details, s.err
}

func sites() []*model.Feature {
	return []*model.Feature{
		{ID: "shizishan", Name: "狮子山楚王陵", Point: orb.Point{117.23, 34.27}},
		{ID: "beidongshan", Name: "北洞山楚王陵", Point: orb.Point{117.25, 34.30}},
	}
}

func routeRequest(id string) model.RouteRequest {
	return model.RouteRequest{
		ID:        id,
		Waypoints: []model.LatLng{{Lat: 34.214571, Lng: 117.14509}, {Lat: 34.27, Lng: 117.23}},
		Profile:   model.RouteProfileFoot,
	}
}

func waitDone(t *testing.T, ch <-chan struct{}) {
	t.Helper()
	select {
	case <-ch:
	case <-time.After(2 * time.Second):
		t.Fatal("経路計算が終わりませんでした")
	}
}

func TestView_Markers(t *testing.T) {
	v := NewView("s1", sites(), nil, zaptest.NewLogger(t))
	defer v.Close()

	v.HideMarker("beidongshan")
	v.ScaleMarker("shizishan", 1.6)
	v.BindPopup("shizishan", model.Popup{Title: "狮子山楚王陵"})
	v.OpenPopup("shizishan")
	v.FitBounds(orb.Bound{Min: orb.Point{117.23, 34.27}, Max: orb.Point{117.25, 34.30}})
	v.HideMarker("unknown")

	assert.Equal(t, []string{"shizishan"}, v.VisibleMarkers())

	snap := v.Snapshot()
	require.Len(t, snap.Markers, 2)
	assert.Equal(t, 1.6, snap.Markers[0].Scale)
	require.NotNil(t, snap.Markers[0].Popup)
	assert.Equal(t, "狮子山楚王陵", snap.Markers[0].Popup.Title)
	assert.Nil(t, snap.Markers[1].Popup)
	assert.Equal(t, "shizishan", snap.OpenPopup)
	require.NotNil(t, snap.Bounds)
	assert.Equal(t, model.LatLng{Lat: 34.30, Lng: 117.25}, snap.Bounds.NorthEast)

	v.ShowAllMarkers()
	assert.Equal(t, []string{"shizishan", "beidongshan"}, v.VisibleMarkers())
}

func TestView_HeatAndStories(t *testing.T) {
	v := NewView("s1", sites(), nil, zaptest.NewLogger(t))
	defer v.Close()

	assert.False(t, v.HasHeatLayer())
	v.AddHeatLayer(model.HeatLayer{Options: model.DefaultHeatOptions()})
	assert.True(t, v.HasHeatLayer())
	v.RemoveHeatLayer()
	assert.False(t, v.HasHeatLayer())

	v.ShowStoryPanel(model.StoryPanel{ID: "a"})
	v.ShowStoryPanel(model.StoryPanel{ID: "b"})
	v.RemoveStoryPanel("a")
	v.RemoveStoryPanel("a")

	snap := v.Snapshot()
	require.Len(t, snap.Stories, 1)
	assert.Equal(t, "b", snap.Stories[0].ID)
}

func TestView_NoticesAreCapped(t *testing.T) {
	at := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	v := NewView("s1", nil, nil, zaptest.NewLogger(t), WithClock(func() time.Time { return at }))
	defer v.Close()

	for i := 0; i < MaxNotices+5; i++ {
		v.Notify(model.NoticeInfo, "notice")
	}
	v.Notify(model.NoticeWarn, "last")

	snap := v.Snapshot()
	require.Len(t, snap.Notices, MaxNotices)
	assert.Equal(t, "last", snap.Notices[MaxNotices-1].Message)
	assert.Equal(t, at, snap.Notices[0].At)
}

func TestView_RouteComputation(t *testing.T) {
	t.Run("計算成功でready", func(t *testing.T) {
		directions := &stubDirections{details: &model.RouteDetails{DistanceMeters: 9800, TotalDuration: 2 * time.Hour}}
		v := NewView("s1", sites(), directions, zaptest.NewLogger(t))
		defer v.Close()

		h := v.AddRoute(context.Background(), routeRequest("r1"))
		waitDone(t, v.RouteDone(h))

		snap := v.Snapshot()
		require.Len(t, snap.Routes, 1)
		assert.Equal(t, RouteStatusReady, snap.Routes[0].Status)
		assert.Equal(t, 9800, snap.Routes[0].Details.DistanceMeters)
		assert.Empty(t, snap.Notices)
	})

	t.Run("計算失敗で通知", func(t *testing.T) {
		directions := &stubDirections{err: errors.New("boom")}
		v := NewView("s1", sites(), directions, zaptest.NewLogger(t))
		defer v.Close()

		h := v.AddRoute(context.Background(), routeRequest("r1"))
		waitDone(t, v.RouteDone(h))

		snap := v.Snapshot()
		require.Len(t, snap.Routes, 1)
		assert.Equal(t, RouteStatusFailed, snap.Routes[0].Status)
		assert.Equal(t, "boom", snap.Routes[0].Error)
		require.Len(t, snap.Notices, 1)
		assert.Equal(t, model.RouteFailureNotice, snap.Notices[0].Message)
	})

	t.Run("呼び出し元のキャンセルでは止まらない", func(t *testing.T) {
		directions := &stubDirections{release: make(chan struct{}), details: &model.RouteDetails{}}
		v := NewView("s1", sites(), directions, zaptest.NewLogger(t))
		defer v.Close()

		ctx, cancel := context.WithCancel(context.Background())
		h := v.AddRoute(ctx, routeRequest("r1"))
		cancel()
		close(directions.release)
		waitDone(t, v.RouteDone(h))

		assert.Equal(t, RouteStatusReady, v.Snapshot().Routes[0].Status)
	})

	t.Run("取り除いたルートの結果は反映しない", func(t *testing.T) {
		directions := &stubDirections{release: make(chan struct{}), details: &model.RouteDetails{}}
		v := NewView("s1", sites(), directions, zaptest.NewLogger(t))
		defer v.Close()

		h := v.AddRoute(context.Background(), routeRequest("r1"))
		done := v.RouteDone(h)
		v.RemoveRoute(h)
		waitDone(t, done)

		snap := v.Snapshot()
		assert.Empty(t, snap.Routes)
		assert.Empty(t, snap.Notices, "取り消しは失敗として通知しない")
	})

	t.Run("プロバイダなしはブラウザ任せ", func(t *testing.T) {
		v := NewView("s1", sites(), nil, zaptest.NewLogger(t))
		defer v.Close()

		h := v.AddRoute(context.Background(), routeRequest("r1"))
		waitDone(t, v.RouteDone(h))

		assert.Equal(t, RouteStatusDelegated, v.Snapshot().Routes[0].Status)
	})
}

func TestView_CloseStopsPendingRoutes(t *testing.T) {
	directions := &stubDirections{release: make(chan struct{})}
	v := NewView("s1", sites(), directions, zaptest.NewLogger(t))
	updates, _ := v.Subscribe()

	v.AddRoute(context.Background(), routeRequest("r1"))
	v.Close()
	v.Close()

	for range updates {
	}
	_, open := <-updates
	assert.False(t, open, "Close後は購読チャネルが閉じる")
}

func TestView_SubscribeCoalescesUpdates(t *testing.T) {
	v := NewView("s1", sites(), nil, zaptest.NewLogger(t))
	defer v.Close()

	updates, unsubscribe := v.Subscribe()
	before := v.Snapshot().Version

	v.HideMarker("shizishan")
	v.HideMarker("beidongshan")
	v.OpenPopup("shizishan")

	select {
	case <-updates:
	default:
		t.Fatal("変更通知が届いていません")
	}
	select {
	case <-updates:
		t.Fatal("通知はまとめられるはず")
	default:
	}
	assert.Equal(t, before+3, v.Snapshot().Version)

	unsubscribe()
	unsubscribe()
	_, open := <-updates
	assert.False(t, open)
}
