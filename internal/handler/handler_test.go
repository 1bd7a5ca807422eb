package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/ellison351/gis-web/internal/domain/model"
	"github.com/ellison351/gis-web/internal/domain/service"
	"github.com/ellison351/gis-web/internal/infrastructure/mapview"
	"github.com/ellison351/gis-web/internal/usecase"
)

type stubSource struct {
	features []*model.Feature
	err      error
}

func (s *stubSource) Name() string { return "stub" }

func (s *stubSource) Load(ctx context.Context) ([]*model.Feature, error) {
	return s.features, s.err
}

func chuTombs() []*model.Feature {
	return []*model.Feature{
		{ID: "shizishan", Name: "狮子山楚王陵", Type: model.OptionalString("王陵"), Point: orb.Point{117.23, 34.27}},
		{ID: "chuwangshan", Name: "楚王山汉墓", Point: orb.Point{117.05, 34.25}},
		{ID: "bingmayong", Name: "汉兵马俑博物馆", Point: orb.Point{117.24, 34.27}},
	}
}

func newTestServer(t *testing.T, source *stubSource) (*gin.Engine, usecase.MapSessionUseCase) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	epoch := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	logger := zaptest.NewLogger(t)
	sessions := usecase.NewMapSessionUseCase(source, nil,
		usecase.MapSettings{Center: model.LatLng{Lat: 34.26, Lng: 117.20}, Zoom: 11},
		service.DefaultSessionConfig(),
		func() service.Scheduler { return service.NewManualScheduler(epoch) },
		logger)
	_ = sessions.LoadSites(context.Background())
	t.Cleanup(sessions.CloseAll)

	return NewRouter(sessions, logger, false), sessions
}

func do(r http.Handler, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func createSession(t *testing.T, r http.Handler) string {
	t.Helper()
	w := do(r, http.MethodPost, "/api/sessions", "")
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var resp struct {
		SessionID string           `json:"session_id"`
		Snapshot  mapview.Snapshot `json:"snapshot"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.SessionID)
	assert.Equal(t, resp.SessionID, resp.Snapshot.SessionID)
	return resp.SessionID
}

func TestHealthAndSites(t *testing.T) {
	r, _ := newTestServer(t, &stubSource{features: chuTombs()})

	w := do(r, http.MethodGet, "/api/health", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "healthy")

	w = do(r, http.MethodGet, "/api/sites", "")
	require.Equal(t, http.StatusOK, w.Code)
	fc, err := geojson.UnmarshalFeatureCollection(w.Body.Bytes())
	require.NoError(t, err)
	assert.Len(t, fc.Features, 3)

	w = do(r, http.MethodGet, "/api/settings", "")
	require.Equal(t, http.StatusOK, w.Code)
	var settings usecase.MapSettings
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &settings))
	assert.Equal(t, 11, settings.Zoom)
}

func TestLoadFailure(t *testing.T) {
	r, _ := newTestServer(t, &stubSource{err: errors.New("404 Not Found")})

	w := do(r, http.MethodPost, "/api/sessions", "")
	require.Equal(t, http.StatusServiceUnavailable, w.Code)

	var resp model.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "sites_unavailable", resp.Error)
	assert.Equal(t, model.LoadFailureNotice, resp.Notice)

	assert.Equal(t, http.StatusServiceUnavailable, do(r, http.MethodGet, "/api/sites", "").Code)
	assert.Contains(t, do(r, http.MethodGet, "/api/health", "").Body.String(), "degraded")
}

func TestSessionEndpoints(t *testing.T) {
	r, _ := newTestServer(t, &stubSource{features: chuTombs()})
	id := createSession(t, r)
	base := "/api/sessions/" + id

	w := do(r, http.MethodGet, base, "")
	var initial mapview.Snapshot
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &initial))
	assert.Len(t, initial.Markers, 3)
	assert.NotNil(t, initial.Heat)

	t.Run("検索", func(t *testing.T) {
		w := do(r, http.MethodPost, base+"/search", `{"keyword":"  楚王 "}`)
		require.Equal(t, http.StatusOK, w.Code)

		var result model.MatchResult
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
		assert.Equal(t, "楚王", result.Keyword)
		assert.Equal(t, []string{"shizishan", "chuwangshan"}, result.Matches)
		assert.Equal(t, []string{"bingmayong"}, result.Hidden)
	})

	t.Run("検索リセット", func(t *testing.T) {
		w := do(r, http.MethodPost, base+"/search/reset", "")
		require.Equal(t, http.StatusOK, w.Code)

		var snap mapview.Snapshot
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &snap))
		for _, m := range snap.Markers {
			assert.True(t, m.Visible, m.FeatureID)
		}
	})

	t.Run("不正なJSON", func(t *testing.T) {
		w := do(r, http.MethodPost, base+"/search", `{`)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("マーカーのクリックで物語パネル", func(t *testing.T) {
		w := do(r, http.MethodPost, base+"/markers/shizishan/click", "")
		require.Equal(t, http.StatusOK, w.Code)

		var panel model.StoryPanel
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &panel))
		assert.Equal(t, model.StoryTitlePrefix+"狮子山楚王陵", panel.Title)

		w = do(r, http.MethodDelete, base+"/stories/"+panel.ID, "")
		assert.Equal(t, http.StatusNoContent, w.Code)
		w = do(r, http.MethodDelete, base+"/stories/"+panel.ID, "")
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("存在しない遺跡", func(t *testing.T) {
		w := do(r, http.MethodPost, base+"/markers/unknown/click", "")
		assert.Equal(t, http.StatusNotFound, w.Code)

		w = do(r, http.MethodPost, base+"/target", `{"feature_id":"unknown"}`)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("feature_idなし", func(t *testing.T) {
		w := do(r, http.MethodPost, base+"/target", `{}`)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("終点を選んでルート", func(t *testing.T) {
		w := do(r, http.MethodPost, base+"/target", `{"feature_id":"bingmayong"}`)
		require.Equal(t, http.StatusOK, w.Code)

		w = do(r, http.MethodPost, base+"/routes", "")
		require.Equal(t, http.StatusAccepted, w.Code)

		var req model.RouteRequest
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &req))
		require.Len(t, req.Waypoints, 2)
		assert.Equal(t, model.LatLng{Lat: 34.27, Lng: 117.24}, req.Destination())
		assert.Equal(t, model.RouteProfileFoot, req.Profile)
	})

	t.Run("ヒートレイヤー切替", func(t *testing.T) {
		w := do(r, http.MethodPost, base+"/heat/toggle", "")
		require.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"visible":false}`, w.Body.String())

		w = do(r, http.MethodPost, base+"/heat/toggle", "")
		assert.JSONEq(t, `{"visible":true}`, w.Body.String())
	})

	t.Run("スナップショット取得と終了", func(t *testing.T) {
		assert.Equal(t, http.StatusOK, do(r, http.MethodGet, base, "").Code)
		assert.Equal(t, http.StatusNoContent, do(r, http.MethodDelete, base, "").Code)
		assert.Equal(t, http.StatusNotFound, do(r, http.MethodGet, base, "").Code)
		assert.Equal(t, http.StatusNotFound, do(r, http.MethodDelete, base, "").Code)
	})
}

func TestStartRoutingWithoutSites(t *testing.T) {
	r, _ := newTestServer(t, &stubSource{features: []*model.Feature{}})
	id := createSession(t, r)

	w := do(r, http.MethodPost, "/api/sessions/"+id+"/routes", "")
	require.Equal(t, http.StatusConflict, w.Code)

	var resp model.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, model.NoTargetNotice, resp.Notice)
}

func TestUnknownSession(t *testing.T) {
	r, _ := newTestServer(t, &stubSource{features: chuTombs()})

	assert.Equal(t, http.StatusNotFound, do(r, http.MethodGet, "/api/sessions/nope", "").Code)
	assert.Equal(t, http.StatusNotFound, do(r, http.MethodPost, "/api/sessions/nope/search", `{"keyword":"汉"}`).Code)
	assert.Equal(t, http.StatusNotFound, do(r, http.MethodGet, "/api/sessions/nope/ws", "").Code)
}

func TestStream(t *testing.T) {
	r, sessions := newTestServer(t, &stubSource{features: chuTombs()})
	server := httptest.NewServer(r)
	defer server.Close()

	handle, err := sessions.CreateSession(context.Background())
	require.NoError(t, err)

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http") + "/api/sessions/" + handle.ID + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()

	readSnapshot := func() mapview.Snapshot {
		t.Helper()
		require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
		var snap mapview.Snapshot
		require.NoError(t, conn.ReadJSON(&snap))
		return snap
	}

	first := readSnapshot()
	assert.Equal(t, handle.ID, first.SessionID)

	_, err = handle.Session.Search("狮子山")
	require.NoError(t, err)

	next := readSnapshot()
	assert.Greater(t, next.Version, first.Version)

	require.NoError(t, sessions.CloseSession(handle.ID))
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			assert.True(t, websocket.IsCloseError(err, websocket.CloseNormalClosure), err.Error())
			break
		}
	}
}
