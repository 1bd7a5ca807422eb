package maps

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ellison351/gis-web/internal/domain/model"
)

const googleDirectionsURL = "https://maps.googleapis.com/maps/api/directions/json"

// GoogleDirectionsProvider はGoogle Maps Directions APIを使用した経路検索の実装
type GoogleDirectionsProvider struct {
	apiKey     string
	baseURL    string
	language   string
	httpClient *http.Client
}

// NewGoogleDirectionsProvider は新しいプロバイダを生成する
func NewGoogleDirectionsProvider(apiKey string) *GoogleDirectionsProvider {
	return &GoogleDirectionsProvider{
		apiKey:     apiKey,
		baseURL:    googleDirectionsURL,
		language:   "zh-CN",
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

// WithBaseURL 接続先を差し替える（テスト用）
func (g *GoogleDirectionsProvider) WithBaseURL(baseURL string) *GoogleDirectionsProvider {
	g.baseURL = baseURL
	return g
}

// GetWalkingRoute はGoogle Maps Directions APIを呼び出して徒歩ルート情報を取得する
func (g *GoogleDirectionsProvider) GetWalkingRoute(ctx context.Context, origin model.LatLng, waypoints ...model.LatLng) (*model.RouteDetails, error) {
	if len(waypoints) == 0 {
		return nil, errors.New("終点が指定されていません")
	}

	// 1. APIリクエストURLを構築
	reqURL := g.buildURL(origin, waypoints...)

	// 2. HTTPリクエストを作成・実行
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("リクエストの作成に失敗: %w", err)
	}

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("APIリクエストに失敗: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("APIからエラーステータスが返されました: %s", resp.Status)
	}

	// 3. JSONレスポンスをパース
	var apiResp googleRouteResponse
	if err := json.NewDecoder(resp.Body).Decode(&apiResp); err != nil {
		return nil, fmt.Errorf("JSONのパースに失敗: %w", err)
	}

	if apiResp.Status != "" && apiResp.Status != "OK" {
		return nil, fmt.Errorf("APIがエラーを返しました: %s %s", apiResp.Status, apiResp.ErrorMessage)
	}
	if len(apiResp.Routes) == 0 {
		return nil, errors.New("APIから有効なルートが返されませんでした")
	}

	// 4. ドメインモデルに変換して返す
	firstRoute := apiResp.Routes[0]
	var totalDurationSec, totalDistance int
	for _, leg := range firstRoute.Legs {
		totalDurationSec += leg.Duration.Value
		totalDistance += leg.Distance.Value
	}

	return &model.RouteDetails{
		TotalDuration:  time.Duration(totalDurationSec) * time.Second,
		DistanceMeters: totalDistance,
		Polyline:       firstRoute.OverviewPolyline.Points,
	}, nil
}

func (g *GoogleDirectionsProvider) buildURL(origin model.LatLng, waypoints ...model.LatLng) string {
	params := url.Values{}
	params.Set("origin", formatLatLng(origin))
	// 最後の地点がdestinationになる
	destination := waypoints[len(waypoints)-1]
	params.Set("destination", formatLatLng(destination))

	// 経由地を設定
	if len(waypoints) > 1 {
		viaPoints := make([]string, 0, len(waypoints)-1)
		for _, wp := range waypoints[:len(waypoints)-1] {
			viaPoints = append(viaPoints, formatLatLng(wp))
		}
		params.Set("waypoints", strings.Join(viaPoints, "|"))
	}

	params.Set("mode", "walking")
	params.Set("language", g.language)
	params.Set("key", g.apiKey)

	return fmt.Sprintf("%s?%s", g.baseURL, params.Encode())
}

func formatLatLng(p model.LatLng) string {
	return fmt.Sprintf("%f,%f", p.Lat, p.Lng)
}

// --- Google Maps APIのレスポンスをパースするための構造体 ---

type googleRouteResponse struct {
	Routes       []googleRoute `json:"routes"`
	Status       string        `json:"status"`
	ErrorMessage string        `json:"error_message,omitempty"`
}
type googleRoute struct {
	Legs             []googleLeg      `json:"legs"`
	OverviewPolyline overviewPolyline `json:"overview_polyline"`
}
type googleLeg struct {
	Duration valueField `json:"duration"` // seconds
	Distance valueField `json:"distance"` // meters
}
type valueField struct {
	Value int `json:"value"`
}
type overviewPolyline struct {
	Points string `json:"points"`
}
