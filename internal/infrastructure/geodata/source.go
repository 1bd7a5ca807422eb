package geodata

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/ellison351/gis-web/internal/domain/model"
)

// DefaultSitesPath ページと同じ既定のデータファイル
const DefaultSitesPath = "data/sites.geojson"

// maxPayloadBytes 遺跡データとして受け付ける最大サイズ
const maxPayloadBytes = 16 << 20

// FileSource ローカルのGeoJSONファイルから遺跡を読む
type FileSource struct {
	path string
}

// NewFileSource 新しいFileSourceを作成。pathが空なら既定のファイル
func NewFileSource(path string) *FileSource {
	if path == "" {
		path = DefaultSitesPath
	}
	return &FileSource{path: path}
}

// Name ソース名
func (s *FileSource) Name() string {
	return "file:" + s.path
}

// Load ファイルを読み込んで遺跡に変換する
func (s *FileSource) Load(ctx context.Context) ([]*model.Feature, error) {
	if err := ctx.Err(); err != nil {
		return nil, model.NewLoadError(s.Name(), err)
	}
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, model.NewLoadError(s.Name(), fmt.Errorf("ファイルの読み込みに失敗: %w", err))
	}
	sites, err := DecodeSites(data)
	if err != nil {
		return nil, model.NewLoadError(s.Name(), err)
	}
	return sites, nil
}

// HTTPSource HTTPで配信されるGeoJSONから遺跡を読む
type HTTPSource struct {
	url        string
	httpClient *http.Client
}

// NewHTTPSource 新しいHTTPSourceを作成
func NewHTTPSource(url string) *HTTPSource {
	return &HTTPSource{
		url:        url,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

// Name ソース名
func (s *HTTPSource) Name() string {
	return "http:" + s.url
}

// Load GeoJSONを取得して遺跡に変換する。2xx以外のステータスはロード失敗
func (s *HTTPSource) Load(ctx context.Context) ([]*model.Feature, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return nil, model.NewLoadError(s.Name(), fmt.Errorf("リクエストの作成に失敗: %w", err))
	}
	req.Header.Set("Accept", "application/geo+json, application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, model.NewLoadError(s.Name(), fmt.Errorf("リクエストに失敗: %w", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, model.NewLoadError(s.Name(), fmt.Errorf("エラーステータスが返されました: %s", resp.Status))
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxPayloadBytes))
	if err != nil {
		return nil, model.NewLoadError(s.Name(), fmt.Errorf("レスポンスの読み取りに失敗: %w", err))
	}
	sites, err := DecodeSites(data)
	if err != nil {
		return nil, model.NewLoadError(s.Name(), err)
	}
	return sites, nil
}
