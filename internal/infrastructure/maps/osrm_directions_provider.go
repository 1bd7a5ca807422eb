package maps

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ellison351/gis-web/internal/domain/model"
)

// DefaultOSRMURL ブラウザ側のルーティングコントロールと同じ公開デモサーバー
const DefaultOSRMURL = "https://router.project-osrm.org"

// OSRMDirectionsProvider OSRMのroute APIを使用した経路検索の実装
type OSRMDirectionsProvider struct {
	baseURL    string
	profile    string
	httpClient *http.Client
}

// NewOSRMDirectionsProvider 新しいプロバイダを生成する。baseURLが空なら公開サーバーを使う
func NewOSRMDirectionsProvider(baseURL, profile string) *OSRMDirectionsProvider {
	if baseURL == "" {
		baseURL = DefaultOSRMURL
	}
	if profile == "" {
		profile = model.RouteProfileFoot
	}
	return &OSRMDirectionsProvider{
		baseURL:    strings.TrimRight(baseURL, "/"),
		profile:    profile,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

// GetWalkingRoute 起点から経由地を順にたどるルートを取得する。最後の地点が終点
func (o *OSRMDirectionsProvider) GetWalkingRoute(ctx context.Context, origin model.LatLng, waypoints ...model.LatLng) (*model.RouteDetails, error) {
	if len(waypoints) == 0 {
		return nil, errors.New("終点が指定されていません")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, o.buildURL(origin, waypoints...), nil)
	if err != nil {
		return nil, fmt.Errorf("リクエストの作成に失敗: %w", err)
	}

	resp, err := o.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("OSRMへのリクエストに失敗: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("OSRMからエラーステータスが返されました: %s", resp.Status)
	}

	var apiResp osrmRouteResponse
	if err := json.NewDecoder(resp.Body).Decode(&apiResp); err != nil {
		return nil, fmt.Errorf("JSONのパースに失敗: %w", err)
	}
	if apiResp.Code != "Ok" {
		return nil, fmt.Errorf("OSRMがエラーを返しました: %s %s", apiResp.Code, apiResp.Message)
	}
	if len(apiResp.Routes) == 0 {
		return nil, errors.New("OSRMから有効なルートが返されませんでした")
	}

	r := apiResp.Routes[0]
	return &model.RouteDetails{
		TotalDuration:  time.Duration(r.Duration * float64(time.Second)),
		DistanceMeters: int(math.Round(r.Distance)),
		Polyline:       r.Geometry,
	}, nil
}

// buildURL OSRMの座標は「経度,緯度」をセミコロンで連結する
func (o *OSRMDirectionsProvider) buildURL(origin model.LatLng, waypoints ...model.LatLng) string {
	coords := make([]string, 0, len(waypoints)+1)
	coords = append(coords, fmt.Sprintf("%f,%f", origin.Lng, origin.Lat))
	for _, wp := range waypoints {
		coords = append(coords, fmt.Sprintf("%f,%f", wp.Lng, wp.Lat))
	}

	params := url.Values{}
	params.Set("overview", "full")
	params.Set("geometries", "polyline")

	return fmt.Sprintf("%s/route/v1/%s/%s?%s", o.baseURL, o.profile, strings.Join(coords, ";"), params.Encode())
}

type osrmRouteResponse struct {
	Code    string      `json:"code"`
	Message string      `json:"message,omitempty"`
	Routes  []osrmRoute `json:"routes"`
}

type osrmRoute struct {
	Geometry string  `json:"geometry"`
	Duration float64 `json:"duration"` // seconds
	Distance float64 `json:"distance"` // meters
}
